package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/chrissnell/startracker/pkg/astro"
	"github.com/chrissnell/startracker/pkg/lunar"
	"github.com/chrissnell/startracker/pkg/sky"
)

func main() {
	var timeStr string
	var lat, lon float64
	flag.StringVar(&timeStr, "time", "", "UTC time to calculate phase for (RFC3339 format, e.g., 2024-01-15T12:00:00Z)")
	flag.Float64Var(&lat, "lat", math.NaN(), "Observer latitude in degrees; with -lon, also prints where the Moon is in the sky")
	flag.Float64Var(&lon, "lon", math.NaN(), "Observer longitude in degrees, east positive")
	flag.Parse()

	var t time.Time
	if timeStr == "" {
		t = time.Now().UTC()
	} else {
		var err error
		t, err = time.Parse(time.RFC3339, timeStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing time: %v\n", err)
			os.Exit(1)
		}
	}

	phase := lunar.Calculate(t)

	fmt.Printf("Moon Phase for %s\n", t.Format(time.RFC3339))
	fmt.Printf("  Phase:        %.1f%% (%.4f)\n", phase.Phase*100, phase.Phase)
	fmt.Printf("  Phase Name:   %s\n", phase.PhaseName)
	fmt.Printf("  Illumination: %.1f%%\n", phase.Illumination*100)
	fmt.Printf("  Age:          %.1f days\n", phase.AgeDays)
	fmt.Printf("  Elongation:   %.1f°\n", phase.Elongation)
	if phase.IsWaxing {
		fmt.Printf("  Direction:    Waxing\n")
	} else {
		fmt.Printf("  Direction:    Waning\n")
	}

	if math.IsNaN(lat) || math.IsNaN(lon) {
		return
	}

	loc := astro.GeographicCoordinate{Latitude: lat, Longitude: lon}
	eq := astro.Moon().EquatorialCoordinate(t)
	hz, err := sky.NewProvider(0).ToHorizon(eq, loc, t)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing position: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Moon Position from %s\n", loc)
	fmt.Printf("  RA/Dec:       %.3f° / %.3f°\n", eq.RightAscension, eq.Declination)
	fmt.Printf("  Altitude:     %.1f°\n", hz.Altitude)
	fmt.Printf("  Azimuth:      %.1f°\n", hz.Azimuth)
	if hz.Altitude > 0 {
		fmt.Printf("  Air Mass:     %.2f\n", hz.AirMass())
	}
}
