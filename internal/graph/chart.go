package graph

import (
	"fmt"
	"time"

	"github.com/soniakeys/unit"
)

// Chart is the plotting-library-neutral description of an altitude graph.
// Its JSON form follows Chart.js naming so a browser can hand it straight to
// a line chart with the annotation plugin.
type Chart struct {
	XAxes       []Axis    `json:"xAxes"`
	YAxis       Axis      `json:"yAxis"`
	Datasets    []Dataset `json:"datasets"`
	Annotations []Box     `json:"annotations"`
}

// Axis is one linear chart axis.
type Axis struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Position string  `json:"position"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	StepSize float64 `json:"stepSize"`
	Ticks    []Tick  `json:"ticks,omitempty"`
}

// Tick is a labelled axis position.
type Tick struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// Dataset is one tracked series as plotted.
type Dataset struct {
	Label           string  `json:"label"`
	BorderColor     string  `json:"borderColor"`
	BackgroundColor string  `json:"backgroundColor"`
	Hidden          bool    `json:"hidden"`
	Data            []Point `json:"data"`
}

// Point is an (hours, altitude) sample.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Surface receives every redraw. Implementations must not call back into the
// controller.
type Surface interface {
	Update(chart Chart)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(Chart)

func (f SurfaceFunc) Update(c Chart) { f(c) }

const (
	localTimeAxisID = "x-axis-0"
	siderealAxisID  = "x-axis-1"
	altitudeAxisID  = "y-axis-0"

	altitudeMax  = 90.0
	altitudeStep = 15.0
)

func (c *Controller) buildChart() Chart {
	s := c.state
	step := s.StepSize()

	local := Axis{ID: localTimeAxisID, Label: "Local Date/Time", Position: "bottom", Max: s.HourSpan, StepSize: step}
	sidereal := Axis{ID: siderealAxisID, Label: "Local Sidereal Time", Position: "top", Max: s.HourSpan, StepSize: step}

	for i := 0; i <= s.TickCount; i++ {
		hours := float64(i) * step
		at := s.Start.Add(hoursToDuration(hours))
		local.Ticks = append(local.Ticks, Tick{Value: hours, Label: FormatDate(at)})
		sidereal.Ticks = append(sidereal.Ticks, Tick{Value: hours, Label: FormatSiderealTime(c.provider.LocalSiderealTime(s.Location, at))})
	}

	return Chart{
		XAxes:       []Axis{local, sidereal},
		YAxis:       Axis{ID: altitudeAxisID, Label: "Altitude (degrees)", Position: "left", Min: 0, Max: altitudeMax, StepSize: altitudeStep},
		Datasets:    append([]Dataset(nil), c.datasets...),
		Annotations: append([]Box(nil), s.Overlays...),
	}
}

// FormatDate renders a moment the way the time axis labels it: M/D H:MM.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d/%d %d:%02d", int(t.Month()), t.Day(), t.Hour(), t.Minute())
}

// FormatSiderealTime renders a sidereal time as HH:MM:SS.
func FormatSiderealTime(st unit.Time) string {
	total := int(st.Mod1().Sec())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
