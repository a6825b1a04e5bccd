package graph

import (
	"fmt"
	"math"
	"time"

	"github.com/chrissnell/startracker/pkg/astro"
	"github.com/chrissnell/startracker/pkg/sky"
	"github.com/chrissnell/startracker/pkg/solar"
)

const (
	// DarknessColor is shared by the night and all three twilight bands so
	// overlapping bands deepen toward the middle of the night.
	DarknessColor  = "#3332"
	ProximityColor = "#F006"

	// DefaultProximityChecks is how many moments across the range are
	// tested against each watch.
	DefaultProximityChecks = 240

	// ProximityBoxRadius is the half-height, in degrees of altitude, of a
	// proximity alert box.
	ProximityBoxRadius = 4.0
)

var twilightAngles = []float64{solar.CivilTwilight, solar.NauticalTwilight, solar.AstronomicalTwilight}

// DayNightBoxes returns four full-height boxes per night in the range: the
// sunset-to-sunrise darkness plus the civil, nautical and astronomical
// twilight cores nested inside it. A range of N days yields 4*N boxes.
func DayNightBoxes(tp TimeProvider, loc astro.GeographicCoordinate, start, stop time.Time) ([]Box, error) {
	day0 := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	nights := int(math.Ceil(stop.Sub(start).Hours()/24 - 1e-9))

	boxes := make([]Box, 0, 4*nights)
	for k := 0; k < nights; k++ {
		dusk := day0.AddDate(0, 0, k)
		dawn := day0.AddDate(0, 0, k+1)

		evening, err := tp.SunRiseSetTimes(loc, dusk)
		if err != nil {
			return nil, fmt.Errorf("sunset on %s: %w", dusk.Format("2006-01-02"), err)
		}
		morning, err := tp.SunRiseSetTimes(loc, dawn)
		if err != nil {
			return nil, fmt.Errorf("sunrise on %s: %w", dawn.Format("2006-01-02"), err)
		}

		set := dusk.Sub(start).Hours() + evening.Set
		rise := dawn.Sub(start).Hours() + morning.Rise

		boxes = append(boxes, darknessBox(set, rise))
		for _, angle := range twilightAngles {
			offset, err := tp.TwilightTime(loc, dawn, angle)
			if err != nil {
				return nil, fmt.Errorf("twilight %v on %s: %w", angle, dawn.Format("2006-01-02"), err)
			}
			boxes = append(boxes, darknessBox(set+offset, rise-offset))
		}
	}

	return boxes, nil
}

func darknessBox(xMin, xMax float64) Box {
	return Box{XMin: xMin, XMax: xMax, YMin: 0, YMax: altitudeMax, Color: DarknessColor, Kind: BoxDarkness}
}

// Alert is one moment at which a tracked object sat within a watch's radius.
type Alert struct {
	Watch      string    `json:"watch"`
	Object     string    `json:"object"`
	Time       time.Time `json:"time"`
	Hours      float64   `json:"hours"`
	Separation float64   `json:"separation"`
	Altitude   float64   `json:"altitude"`
	Box        Box       `json:"box"`
}

// ProximityAlerts tests numChecks evenly spaced moments of [start, stop) and
// returns an alert, with its overlay box, for every moment at which obj is
// within watch.AngularDistance of the watched object. An object is never
// checked against itself.
func ProximityAlerts(conv CoordinateConverter, loc astro.GeographicCoordinate, start, stop time.Time, watch ProximityWatch, obj astro.Object, numChecks int) ([]Alert, error) {
	if astro.SameObject(watch.Object, obj) {
		return nil, nil
	}
	if numChecks <= 0 {
		numChecks = DefaultProximityChecks
	}

	step := stop.Sub(start) / time.Duration(numChecks)
	hoursDelta := stop.Sub(start).Hours() / float64(numChecks)

	var alerts []Alert
	for k := 0; k < numChecks; k++ {
		t := start.Add(time.Duration(k) * step)

		watched, err := conv.ToHorizon(watch.Object.EquatorialCoordinate(t), loc, t)
		if err != nil {
			return nil, fmt.Errorf("locating %q: %w", watch.Object.Identifier, err)
		}
		tracked, err := conv.ToHorizon(obj.EquatorialCoordinate(t), loc, t)
		if err != nil {
			return nil, fmt.Errorf("locating %q: %w", obj.Identifier, err)
		}

		if !sky.WithinRadius(watched, tracked, watch.AngularDistance) {
			continue
		}
		separation := sky.Separation(watched, tracked)

		x := float64(k) * hoursDelta
		alerts = append(alerts, Alert{
			Watch:      watch.Object.Identifier,
			Object:     obj.Identifier,
			Time:       t,
			Hours:      x,
			Separation: separation,
			Altitude:   tracked.Altitude,
			Box: Box{
				XMin:  x,
				XMax:  x + hoursDelta,
				YMin:  tracked.Altitude - ProximityBoxRadius,
				YMax:  tracked.Altitude + ProximityBoxRadius,
				Color: ProximityColor,
				Kind:  BoxProximity,
			},
		})
	}

	return alerts, nil
}
