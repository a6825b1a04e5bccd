// Package astro holds the coordinate types and astronomical object variants
// shared by the sky provider, the altitude graph and the catalog.
package astro

import (
	"fmt"
	"math"
)

// GeographicCoordinate is an observer location in decimal degrees.
// Longitude is positive east of Greenwich.
type GeographicCoordinate struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Validate reports whether the coordinate lies on the globe.
func (g GeographicCoordinate) Validate() error {
	if math.IsNaN(g.Latitude) || g.Latitude < -90 || g.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", g.Latitude)
	}
	if math.IsNaN(g.Longitude) || g.Longitude < -180 || g.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", g.Longitude)
	}
	return nil
}

func (g GeographicCoordinate) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", g.Latitude, g.Longitude)
}

// EquatorialCoordinate is a position on the celestial sphere, both
// components in degrees.
type EquatorialCoordinate struct {
	RightAscension float64 `json:"ra"`
	Declination    float64 `json:"dec"`
}

// HorizonCoordinate is the observer-relative projection of an equatorial
// coordinate. Azimuth is measured from north through east.
type HorizonCoordinate struct {
	Altitude float64 `json:"altitude"`
	Azimuth  float64 `json:"azimuth"`
}

// AirMass returns the plane-parallel air mass for the altitude, 1/cos(z).
func (h HorizonCoordinate) AirMass() float64 {
	return 1 / math.Cos((90-h.Altitude)*math.Pi/180)
}
