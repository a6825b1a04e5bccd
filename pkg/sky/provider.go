// Package sky converts equatorial coordinates into observer-relative horizon
// coordinates and answers the time questions the altitude graph asks:
// local sidereal time, sunrise/sunset and twilight.
package sky

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/chrissnell/startracker/pkg/astro"
	"github.com/chrissnell/startracker/pkg/solar"
	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/unit"
)

// DefaultResolution is the spacing between samples of a horizon series.
const DefaultResolution = 10 * time.Minute

var (
	ErrInvalidLocation = errors.New("invalid observer location")
	ErrInvalidRange    = errors.New("stop must be after start")
)

// Provider implements both the time and the coordinate collaborator of the
// altitude graph. The zero value samples at DefaultResolution.
type Provider struct {
	Resolution time.Duration
}

// NewProvider returns a Provider sampling every resolution. A non-positive
// resolution selects DefaultResolution.
func NewProvider(resolution time.Duration) *Provider {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	return &Provider{Resolution: resolution}
}

// LocalSiderealTime returns the apparent local sidereal time at loc.
func (p *Provider) LocalSiderealTime(loc astro.GeographicCoordinate, t time.Time) unit.Time {
	gst := sidereal.Apparent(julian.TimeToJD(t.UTC()))
	return (gst + unit.TimeFromHour(loc.Longitude/15)).Mod1()
}

// SunRiseSetTimes returns sunrise and sunset for date's calendar day in
// date's location.
func (p *Provider) SunRiseSetTimes(loc astro.GeographicCoordinate, date time.Time) (solar.RiseSet, error) {
	if err := loc.Validate(); err != nil {
		return solar.RiseSet{}, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	return solar.CalculateRiseSet(date, loc.Latitude, loc.Longitude), nil
}

// TwilightTime returns the hours between sunset and the Sun reaching
// sunAngle degrees from the zenith on date.
func (p *Provider) TwilightTime(loc astro.GeographicCoordinate, date time.Time, sunAngle float64) (float64, error) {
	if err := loc.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	return solar.TwilightDuration(date, loc.Latitude, loc.Longitude, sunAngle)
}

// ToHorizon converts eq to altitude/azimuth for an observer at loc at t.
func (p *Provider) ToHorizon(eq astro.EquatorialCoordinate, loc astro.GeographicCoordinate, t time.Time) (astro.HorizonCoordinate, error) {
	if err := loc.Validate(); err != nil {
		return astro.HorizonCoordinate{}, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	if math.IsNaN(eq.RightAscension) || math.IsNaN(eq.Declination) || math.Abs(eq.Declination) > 90 {
		return astro.HorizonCoordinate{}, fmt.Errorf("invalid equatorial coordinate (%v, %v)", eq.RightAscension, eq.Declination)
	}

	gst := sidereal.Apparent(julian.TimeToJD(t.UTC()))

	// meeus measures longitude positive west and azimuth westward from south.
	A, h := coord.EqToHz(
		unit.RAFromDeg(eq.RightAscension),
		unit.AngleFromDeg(eq.Declination),
		unit.AngleFromDeg(loc.Latitude),
		unit.AngleFromDeg(-loc.Longitude),
		gst,
	)

	return astro.HorizonCoordinate{
		Altitude: h.Deg(),
		Azimuth:  unit.PMod(A.Deg()+180, 360),
	}, nil
}

// SampleHorizonSeries returns obj's horizon coordinates at SampleCount
// evenly spaced moments start + i*(stop-start)/n, i in [0, n).
func (p *Provider) SampleHorizonSeries(obj astro.Object, loc astro.GeographicCoordinate, start, stop time.Time) ([]astro.HorizonCoordinate, error) {
	if !stop.After(start) {
		return nil, ErrInvalidRange
	}

	span := stop.Sub(start)
	n := p.SampleCount(span)
	step := span / time.Duration(n)

	series := make([]astro.HorizonCoordinate, n)
	for i := range series {
		t := start.Add(time.Duration(i) * step)
		hc, err := p.ToHorizon(obj.EquatorialCoordinate(t), loc, t)
		if err != nil {
			return nil, fmt.Errorf("sampling %s at %s: %w", obj.Identifier, t.Format(time.RFC3339), err)
		}
		series[i] = hc
	}

	return series, nil
}

// SampleCount returns how many samples cover span at the provider's
// resolution.
func (p *Provider) SampleCount(span time.Duration) int {
	resolution := p.Resolution
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	n := int(math.Ceil(float64(span) / float64(resolution)))
	if n < 1 {
		n = 1
	}
	return n
}

// UTCOffsetForLongitude guesses a whole-hour UTC offset, in minutes, from a
// longitude: trunc(lon/15) hours.
func UTCOffsetForLongitude(longitude float64) int {
	return int(math.Trunc(longitude/15.0)) * 60
}

// Zone returns a fixed time zone for a UTC offset in minutes.
func Zone(offsetMinutes int) *time.Location {
	sign := "+"
	m := offsetMinutes
	if m < 0 {
		sign = "-"
		m = -m
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", sign, m/60, m%60), offsetMinutes*60)
}
