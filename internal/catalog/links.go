package catalog

import (
	"fmt"
	"math"

	"github.com/chrissnell/startracker/pkg/astro"
)

const (
	SkySurvey       = "DSS2"
	ImageWidth      = 520
	ImageHeight     = 520
	MapZoom         = 9
	DefaultFOV      = 20.0 / 60 // degrees
	DefaultFOVStep  = 5
	fovSliderFactor = 2
)

// FOVForSlider maps an image-zoom slider position to a field of view in
// degrees. DefaultFOVStep gives DefaultFOV; each step down doubles it.
func FOVForSlider(step int) float64 {
	return DefaultFOV * math.Pow(fovSliderFactor, float64(DefaultFOVStep-step))
}

// ImageURL returns a survey image cut-out centred on eq with a field of view
// of fov degrees.
func ImageURL(eq astro.EquatorialCoordinate, fov float64) string {
	return fmt.Sprintf("https://server1.wikisky.org/imgcut?ra=%v&de=%v&angle=%v&img_id=all&width=%d&height=%d&survey=%s",
		eq.RightAscension/15, eq.Declination, fov, ImageWidth, ImageHeight, SkySurvey)
}

// MapURL returns an interactive sky map centred on eq.
func MapURL(eq astro.EquatorialCoordinate) string {
	return fmt.Sprintf("https://www.server3.sky-map.org/v2?ra=%v&de=%v&zoom=%d&show_grid=0&show_constellation_lines=0&show_constellation_boundaries=0&show_const_names=0&show_galaxies=1&img_source=%s",
		eq.RightAscension/15, eq.Declination, MapZoom, SkySurvey)
}
