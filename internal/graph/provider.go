package graph

import (
	"time"

	"github.com/chrissnell/startracker/pkg/astro"
	"github.com/chrissnell/startracker/pkg/solar"
	"github.com/soniakeys/unit"
)

// TimeProvider answers the clock questions the graph asks about an observer.
type TimeProvider interface {
	LocalSiderealTime(loc astro.GeographicCoordinate, t time.Time) unit.Time
	SunRiseSetTimes(loc astro.GeographicCoordinate, date time.Time) (solar.RiseSet, error)
	TwilightTime(loc astro.GeographicCoordinate, date time.Time, sunAngle float64) (float64, error)
}

// CoordinateConverter projects objects onto the observer's horizon.
type CoordinateConverter interface {
	ToHorizon(eq astro.EquatorialCoordinate, loc astro.GeographicCoordinate, t time.Time) (astro.HorizonCoordinate, error)
	SampleHorizonSeries(obj astro.Object, loc astro.GeographicCoordinate, start, stop time.Time) ([]astro.HorizonCoordinate, error)
}

// Provider is the full astronomy collaborator. *sky.Provider satisfies it.
type Provider interface {
	TimeProvider
	CoordinateConverter
}
