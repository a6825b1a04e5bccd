package graph

import (
	"time"

	"github.com/chrissnell/startracker/pkg/astro"
)

// TrackedSeries is one plotted object. Its position in GraphState.Series is
// its dataset index.
type TrackedSeries struct {
	Object  astro.Object `json:"object"`
	Color   string       `json:"color"`
	Visible bool         `json:"visible"`
}

// ProximityWatch asks for an alert whenever any visible tracked object comes
// within AngularDistance degrees of Object.
type ProximityWatch struct {
	Object          astro.Object `json:"object"`
	AngularDistance float64      `json:"angular_distance"`
}

// BoxKind distinguishes overlay boxes.
type BoxKind string

const (
	BoxDarkness  BoxKind = "darkness"
	BoxProximity BoxKind = "proximity"
)

// Box is a rectangular overlay in chart space: x in hours since the graph
// start, y in degrees of altitude.
type Box struct {
	XMin  float64 `json:"xMin"`
	XMax  float64 `json:"xMax"`
	YMin  float64 `json:"yMin"`
	YMax  float64 `json:"yMax"`
	Color string  `json:"backgroundColor"`
	Kind  BoxKind `json:"kind"`
}

// GraphState is everything the controller knows about one chart.
type GraphState struct {
	Start     time.Time                  `json:"start"`
	Stop      time.Time                  `json:"stop"`
	Location  astro.GeographicCoordinate `json:"location"`
	HourSpan  float64                    `json:"hour_span"`
	TickCount int                        `json:"tick_count"`
	Series    []TrackedSeries            `json:"series"`
	Watches   []ProximityWatch           `json:"watches"`
	Overlays  []Box                      `json:"overlays"`
}

// StepSize is the spacing of the time axis ticks in hours.
func (s GraphState) StepSize() float64 {
	return s.HourSpan / float64(s.TickCount)
}

// CountOverlays returns how many overlays are of kind.
func (s GraphState) CountOverlays(kind BoxKind) int {
	n := 0
	for _, b := range s.Overlays {
		if b.Kind == kind {
			n++
		}
	}
	return n
}

func (s GraphState) clone() GraphState {
	c := s
	c.Series = append([]TrackedSeries(nil), s.Series...)
	c.Watches = append([]ProximityWatch(nil), s.Watches...)
	c.Overlays = append([]Box(nil), s.Overlays...)
	return c
}
