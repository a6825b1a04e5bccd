// Package solar computes sunrise, sunset and twilight boundaries for an
// observer, expressed as fractional hours since local midnight.
package solar

import (
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/solar"
)

// Zenith angles of the Sun at the horizon (with refraction and the solar
// semi-diameter) and at the end of each twilight.
const (
	HorizonZenith        = 90.833
	CivilTwilight        = 96.0
	NauticalTwilight     = 102.0
	AstronomicalTwilight = 108.0
)

// RiseSet holds sunrise and sunset in hours since local midnight of the
// requested date. Values are not wrapped, so Set may exceed 24 and Rise may
// be negative for observers far from their time zone's meridian.
//
// Under the midnight sun Set-Rise is 24; during polar night Rise == Set.
type RiseSet struct {
	Rise float64 `json:"rise"`
	Set  float64 `json:"set"`
}

// DayLength returns the hours between sunrise and sunset.
func (rs RiseSet) DayLength() float64 {
	return rs.Set - rs.Rise
}

// CalculateRiseSet returns sunrise and sunset for the calendar day of date,
// in date's location, at the given latitude and longitude (east positive).
func CalculateRiseSet(date time.Time, latitude, longitude float64) RiseSet {
	noon, declination := localNoon(date)
	solarNoon := solarNoonHours(noon, longitude)
	h := hourAngleHours(latitude, declination, HorizonZenith)

	return RiseSet{
		Rise: solarNoon - h,
		Set:  solarNoon + h,
	}
}

// TwilightDuration returns the hours between sunset and the moment the Sun
// reaches zenithAngle degrees (equivalently between that moment and sunrise).
// When the Sun never sinks that far the result reaches solar midnight.
func TwilightDuration(date time.Time, latitude, longitude, zenithAngle float64) (float64, error) {
	if zenithAngle < HorizonZenith || zenithAngle > 180 {
		return 0, fmt.Errorf("twilight zenith angle %v outside [%v, 180]", zenithAngle, HorizonZenith)
	}

	_, declination := localNoon(date)
	horizon := hourAngleHours(latitude, declination, HorizonZenith)
	twilight := hourAngleHours(latitude, declination, zenithAngle)

	return twilight - horizon, nil
}

// FormatHours renders hours since local midnight as a clock time, wrapping
// values outside [0, 24).
func FormatHours(hours float64) string {
	minutes := int(math.Round(math.Mod(math.Mod(hours, 24)+24, 24) * 60))
	t := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
	return t.Format("3:04 PM")
}

// localNoon returns 12:00 local time on date's calendar day and the Sun's
// apparent declination (degrees) at that instant.
func localNoon(date time.Time) (time.Time, float64) {
	noon := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, date.Location())
	_, δ := solar.ApparentEquatorial(julian.TimeToJD(noon.UTC()))
	return noon, δ.Deg()
}

// solarNoonHours returns the local clock time of solar transit, in hours.
func solarNoonHours(noon time.Time, longitude float64) float64 {
	_, offset := noon.Zone()
	utcNoon := 12.0 - longitude/15.0 - equationOfTime(noon)/60.0
	return utcNoon + float64(offset)/3600.0
}

// hourAngleHours returns the hour angle, in hours, at which the Sun's center
// sits at zenithAngle. cos(H) is clamped so that a Sun that never reaches the
// angle yields 0 (polar night) or 12 (the angle is never crossed).
func hourAngleHours(latitude, declination, zenithAngle float64) float64 {
	latRad := degToRad(latitude)
	decRad := degToRad(declination)

	cosH := (math.Cos(degToRad(zenithAngle)) - math.Sin(latRad)*math.Sin(decRad)) /
		(math.Cos(latRad) * math.Cos(decRad))
	if math.IsNaN(cosH) {
		cosH = 1
	}
	cosH = math.Max(-1, math.Min(1, cosH))

	return radToDeg(math.Acos(cosH)) / 15.0
}
