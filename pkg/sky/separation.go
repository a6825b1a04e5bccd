package sky

import (
	"math"

	"github.com/chrissnell/startracker/pkg/astro"
	"gonum.org/v1/gonum/spatial/r3"
)

// Separation returns the great-circle angle, in degrees, between two horizon
// coordinates treated as points on the unit sphere with altitude as
// elevation above the horizon plane.
func Separation(a, b astro.HorizonCoordinate) float64 {
	va, vb := unitVector(a), unitVector(b)
	return math.Atan2(r3.Norm(r3.Cross(va, vb)), r3.Dot(va, vb)) * 180 / math.Pi
}

// WithinRadius reports whether a and b are at most radius degrees apart.
func WithinRadius(a, b astro.HorizonCoordinate, radius float64) bool {
	return Separation(a, b) <= radius
}

func unitVector(h astro.HorizonCoordinate) r3.Vec {
	alt := h.Altitude * math.Pi / 180
	az := h.Azimuth * math.Pi / 180
	cosAlt := math.Cos(alt)
	return r3.Vec{
		X: cosAlt * math.Cos(az),
		Y: cosAlt * math.Sin(az),
		Z: math.Sin(alt),
	}
}
