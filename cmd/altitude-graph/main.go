// altitude-graph renders an altitude chart offline and writes it to stdout
// as JSON or MessagePack.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/startracker/internal/graph"
	"github.com/chrissnell/startracker/internal/log"
	"github.com/chrissnell/startracker/internal/surface"
	"github.com/chrissnell/startracker/pkg/astro"
	"github.com/chrissnell/startracker/pkg/responseformat"
	"github.com/chrissnell/startracker/pkg/sky"
)

type objectFlags []astro.Object

func (o *objectFlags) String() string {
	names := make([]string, len(*o))
	for i, obj := range *o {
		names[i] = obj.Identifier
	}
	return strings.Join(names, ",")
}

// Set accepts "moon", "sun" or "name=ra,dec" with degrees.
func (o *objectFlags) Set(v string) error {
	obj, err := parseObject(v)
	if err != nil {
		return err
	}
	*o = append(*o, obj)
	return nil
}

func parseObject(v string) (astro.Object, error) {
	if kind, err := astro.ParseKind(v); err == nil && kind != astro.KindStar {
		if kind == astro.KindMoon {
			return astro.Moon(), nil
		}
		return astro.Sun(), nil
	}

	name, coords, ok := strings.Cut(v, "=")
	if !ok {
		return astro.Object{}, fmt.Errorf("object %q: want moon, sun or name=ra,dec", v)
	}
	raStr, decStr, ok := strings.Cut(coords, ",")
	if !ok {
		return astro.Object{}, fmt.Errorf("object %q: want name=ra,dec", v)
	}
	ra, err := strconv.ParseFloat(strings.TrimSpace(raStr), 64)
	if err != nil {
		return astro.Object{}, fmt.Errorf("object %q: ra: %w", v, err)
	}
	dec, err := strconv.ParseFloat(strings.TrimSpace(decStr), 64)
	if err != nil {
		return astro.Object{}, fmt.Errorf("object %q: dec: %w", v, err)
	}
	if dec < -90 || dec > 90 {
		return astro.Object{}, fmt.Errorf("object %q: declination out of range", v)
	}
	return astro.NewStar(strings.TrimSpace(name), ra, dec), nil
}

type output struct {
	State  graph.GraphState `json:"state"`
	Chart  graph.Chart      `json:"chart"`
	Alerts []graph.Alert    `json:"alerts"`
}

func main() {
	var objects objectFlags
	lat := flag.Float64("lat", 41.8125, "Observer latitude in degrees")
	lon := flag.Float64("lon", -80.0935, "Observer longitude in degrees, east positive")
	startStr := flag.String("start", "", "First night as YYYY-MM-DD (default today)")
	days := flag.Int("days", 1, "Number of nights to plot")
	offset := flag.Int("utc-offset", 0, "UTC offset in minutes (default guessed from -lon)")
	resolution := flag.Duration("resolution", sky.DefaultResolution, "Spacing between samples")
	moonWatch := flag.Float64("moon-watch", 0.52, "Alert when an object passes within this many degrees of the Moon (0 disables)")
	format := flag.String("format", responseformat.FormatJSON, "Output format: json or msgpack")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Var(&objects, "object", "Object to plot: moon, sun or name=ra,dec (repeatable)")
	flag.Parse()

	if err := log.Init(*debug, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(objects, *lat, *lon, *startStr, *days, *offset, *resolution, *moonWatch, *format); err != nil {
		log.Errorf("altitude-graph: %v", err)
		os.Exit(1)
	}
}

func run(objects []astro.Object, lat, lon float64, startStr string, days, offset int, resolution time.Duration, moonWatch float64, format string) error {
	loc := astro.GeographicCoordinate{Latitude: lat, Longitude: lon}
	if offset == 0 {
		offset = sky.UTCOffsetForLongitude(lon)
	}
	zone := sky.Zone(offset)

	start := time.Now().In(zone)
	if startStr != "" {
		var err error
		if start, err = time.ParseInLocation("2006-01-02", startStr, zone); err != nil {
			return fmt.Errorf("bad -start: %w", err)
		}
	}
	if days < 1 {
		return fmt.Errorf("-days must be positive")
	}
	if len(objects) == 0 {
		objects = []astro.Object{astro.Moon()}
	}

	mem := &surface.Memory{}
	ctrl, err := graph.New(mem, sky.NewProvider(resolution), loc, start, start.AddDate(0, 0, days))
	if err != nil {
		return err
	}
	for _, obj := range objects {
		if _, err := ctrl.AddTrackedObject(obj, graph.RandomColor()); err != nil {
			return fmt.Errorf("plotting %s: %w", obj.Identifier, err)
		}
	}
	if moonWatch > 0 {
		if err := ctrl.AddProximityWatch(graph.ProximityWatch{Object: astro.Moon(), AngularDistance: moonWatch}); err != nil {
			return err
		}
	}

	chart, draws := mem.Chart()
	log.Debugf("chart drawn %d times with %d datasets", draws, len(chart.Datasets))

	body, _, err := responseformat.Encode(format, output{State: ctrl.State(), Chart: chart, Alerts: ctrl.Alerts()})
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(body)
	return err
}
