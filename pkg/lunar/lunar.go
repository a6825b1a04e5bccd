// Package lunar provides the Moon's apparent position and phase. Positions
// come from the meeus lunar theory (Meeus ch. 47); the phase is derived from
// the elongation between the apparent ecliptic longitudes of the Sun and Moon.
package lunar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
)

// SynodicMonth is the average length of the lunar cycle in days
const SynodicMonth = 29.530588853

// MoonPhase contains calculated moon phase information
type MoonPhase struct {
	Phase        float64 // Phase fraction [0,1): 0=new, 0.5=full
	Elongation   float64 // Sun→Moon angle in degrees [0,360)
	Illumination float64 // Illuminated fraction [0,1]: 0=new, 1=full
	AgeDays      float64 // Days since new moon [0,SynodicMonth)
	IsWaxing     bool
	PhaseName    string
}

// Position returns the Moon's geocentric equatorial coordinates at t,
// referred to the mean equinox of date.
func Position(t time.Time) (unit.RA, unit.Angle) {
	jde := julian.TimeToJD(t.UTC())
	λ, β, _ := moonposition.Position(jde)
	sε, cε := nutation.MeanObliquity(jde).Sincos()
	return coord.EclToEq(λ, β, sε, cε)
}

// Calculate computes the moon phase for a given timestamp
func Calculate(t time.Time) MoonPhase {
	jde := julian.TimeToJD(t.UTC())

	λMoon, _, _ := moonposition.Position(jde)
	λSun := solar.ApparentLongitude(base.J2000Century(jde))

	elongation := normalizeAngle(λMoon.Deg() - λSun.Deg())
	phase := elongation / 360.0
	illumination := (1 - math.Cos(elongation*math.Pi/180)) / 2
	isWaxing := elongation < 180

	return MoonPhase{
		Phase:        phase,
		Elongation:   elongation,
		Illumination: illumination,
		AgeDays:      phase * SynodicMonth,
		IsWaxing:     isWaxing,
		PhaseName:    phaseName(illumination, isWaxing),
	}
}

// phaseName returns the 8-phase name based on illumination percentage and direction
func phaseName(illumination float64, isWaxing bool) string {
	switch {
	case illumination < 0.01:
		return "New Moon"
	case illumination > 0.99:
		return "Full Moon"
	case illumination >= 0.49 && illumination <= 0.51:
		if isWaxing {
			return "First Quarter"
		}
		return "Third Quarter"
	case illumination < 0.50:
		if isWaxing {
			return "Waxing Crescent"
		}
		return "Waning Crescent"
	default:
		if isWaxing {
			return "Waxing Gibbous"
		}
		return "Waning Gibbous"
	}
}

// normalizeAngle wraps an angle to the range [0, 360)
func normalizeAngle(angle float64) float64 {
	return unit.PMod(angle, 360)
}
