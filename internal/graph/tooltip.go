package graph

import (
	"fmt"
	"math"
)

// Tooltip describes one series at one moment of the chart.
type Tooltip struct {
	Identifier string   `json:"identifier"`
	Time       string   `json:"time"`
	Sidereal   string   `json:"sidereal"`
	Altitude   float64  `json:"altitude"`
	Azimuth    float64  `json:"azimuth"`
	AirMass    float64  `json:"air_mass"`
	Phase      *float64 `json:"phase,omitempty"`
}

// Lines renders the tooltip the way the chart shows it on hover.
func (t Tooltip) Lines() []string {
	lines := []string{
		t.Identifier,
		fmt.Sprintf("%s (LST %s)", t.Time, t.Sidereal),
		fmt.Sprintf("Alt %.2f° Az %.2f°", t.Altitude, t.Azimuth),
	}
	if t.Altitude > 0 {
		lines = append(lines, fmt.Sprintf("Air mass %.3f", t.AirMass))
	}
	if t.Phase != nil {
		lines = append(lines, fmt.Sprintf("Phase %.0f%%", *t.Phase*100))
	}
	return lines
}

// Tooltip locates the series at index hours after the graph start.
func (c *Controller) Tooltip(index int, hours float64) (Tooltip, error) {
	s, err := c.series(index)
	if err != nil {
		return Tooltip{}, err
	}
	if math.IsNaN(hours) || hours < 0 || hours > c.state.HourSpan {
		return Tooltip{}, fmt.Errorf("%w: %v hours is outside the graph", ErrConfiguration, hours)
	}

	at := c.state.Start.Add(hoursToDuration(hours))
	hc, err := c.provider.ToHorizon(s.Object.EquatorialCoordinate(at), c.state.Location, at)
	if err != nil {
		return Tooltip{}, err
	}

	tip := Tooltip{
		Identifier: s.Object.Identifier,
		Time:       FormatDate(at),
		Sidereal:   FormatSiderealTime(c.provider.LocalSiderealTime(c.state.Location, at)),
		Altitude:   hc.Altitude,
		Azimuth:    hc.Azimuth,
		AirMass:    hc.AirMass(),
	}
	if phase, ok := s.Object.Phase(at); ok {
		tip.Phase = &phase
	}
	return tip, nil
}
