package graph

import (
	"fmt"
	"time"

	"github.com/chrissnell/startracker/pkg/astro"
)

// SampleSeries samples obj over [start, stop) and maps sample i of n onto
// x = i * hourSpan/n. The sample count is the converter's choice.
func SampleSeries(conv CoordinateConverter, obj astro.Object, loc astro.GeographicCoordinate, start, stop time.Time) ([]Point, error) {
	coords, err := conv.SampleHorizonSeries(obj, loc, start, stop)
	if err != nil {
		return nil, fmt.Errorf("sampling %q: %w", obj.Identifier, err)
	}
	if len(coords) == 0 {
		return []Point{}, nil
	}

	hourDelta := stop.Sub(start).Hours() / float64(len(coords))

	points := make([]Point, len(coords))
	for i, hc := range coords {
		points[i] = Point{X: float64(i) * hourDelta, Y: hc.Altitude}
	}
	return points, nil
}
