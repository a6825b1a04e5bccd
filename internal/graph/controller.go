// Package graph owns the state of an altitude-over-time chart: the tracked
// series, the proximity watches and the day/night and proximity overlays.
// Every mutation runs to completion and ends with a single synchronous
// Surface.Update. A Controller is not safe for concurrent use.
package graph

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/chrissnell/startracker/pkg/astro"
)

var (
	// ErrConfiguration is returned for a date range whose stop is not after
	// its start or that is too long, or for a malformed proximity watch.
	ErrConfiguration = errors.New("invalid graph configuration")

	// ErrIndex is returned by operations that need a series at an index
	// that does not exist.
	ErrIndex = errors.New("series index out of range")
)

const (
	// anchorHour is the time of day both ends of the range are pinned to.
	anchorHour = 12

	weekHours = 7 * 24

	transparent = "#FFF0"

	// maxShiftDays bounds a single StepRange, roughly ten thousand years.
	maxShiftDays = 3_652_425
)

// AlertObserver is told about every proximity alert after each rebuild.
type AlertObserver interface {
	ProximityAlerts(state GraphState, alerts []Alert)
}

// AlertObservers fans alerts out to several observers in order.
type AlertObservers []AlertObserver

func (o AlertObservers) ProximityAlerts(state GraphState, alerts []Alert) {
	for _, observer := range o {
		if observer != nil {
			observer.ProximityAlerts(state, alerts)
		}
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithProximityChecks sets how many moments each watch is tested at.
func WithProximityChecks(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.proximityChecks = n
		}
	}
}

// WithAlertObserver registers an observer for proximity alerts.
func WithAlertObserver(o AlertObserver) Option {
	return func(c *Controller) {
		c.observer = o
	}
}

// WithMaxDays caps the span of the date range at n calendar days. Zero
// leaves it unbounded.
func WithMaxDays(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxDays = n
		}
	}
}

// Controller is the single source of truth for what one chart plots.
type Controller struct {
	surface         Surface
	provider        Provider
	observer        AlertObserver
	proximityChecks int
	maxDays         int

	state    GraphState
	datasets []Dataset
	dayNight []Box
	alerts   []Alert
}

// New builds a chart for loc spanning start to stop, both moved to 12:00 in
// their own time zone, and draws the day/night overlays.
func New(surface Surface, provider Provider, loc astro.GeographicCoordinate, start, stop time.Time, opts ...Option) (*Controller, error) {
	c := &Controller{
		surface:         surface,
		provider:        provider,
		proximityChecks: DefaultProximityChecks,
	}
	for _, opt := range opts {
		opt(c)
	}

	start, stop, err := c.checkRange(start, stop)
	if err != nil {
		return nil, err
	}

	dayNight, err := DayNightBoxes(provider, loc, start, stop)
	if err != nil {
		return nil, err
	}

	c.state = GraphState{Location: loc}
	c.state.setRange(start, stop)
	c.dayNight = dayNight
	c.state.Overlays = append([]Box(nil), dayNight...)

	c.redraw()
	return c, nil
}

// AddTrackedObject appends a visible series for obj and returns its index.
func (c *Controller) AddTrackedObject(obj astro.Object, color string) (int, error) {
	dataset, err := c.sample(obj, color, false)
	if err != nil {
		return 0, err
	}

	next := c.state.clone()
	next.Series = append(next.Series, TrackedSeries{Object: obj, Color: color, Visible: true})
	datasets := append(c.cloneDatasets(), dataset)

	if err := c.commit(next, datasets, c.dayNight); err != nil {
		return 0, err
	}
	return len(c.state.Series) - 1, nil
}

// SetTrackedObjectAt replaces the series at index, keeping its visibility.
func (c *Controller) SetTrackedObjectAt(index int, obj astro.Object, color string) error {
	if !c.inRange(index) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndex, index, len(c.state.Series))
	}

	visible := c.state.Series[index].Visible
	dataset, err := c.sample(obj, color, !visible)
	if err != nil {
		return err
	}

	next := c.state.clone()
	next.Series[index] = TrackedSeries{Object: obj, Color: color, Visible: visible}
	datasets := c.cloneDatasets()
	datasets[index] = dataset

	return c.commit(next, datasets, c.dayNight)
}

// RemoveTrackedObjectAt removes the series at index and shifts later series
// down by one. An out-of-range index is ignored.
func (c *Controller) RemoveTrackedObjectAt(index int) error {
	if !c.inRange(index) {
		return nil
	}

	next := c.state.clone()
	next.Series = append(next.Series[:index], next.Series[index+1:]...)
	datasets := c.cloneDatasets()
	datasets = append(datasets[:index], datasets[index+1:]...)

	return c.commit(next, datasets, c.dayNight)
}

// RemoveAllFrom removes every series at or after startIndex.
func (c *Controller) RemoveAllFrom(startIndex int) error {
	if startIndex < 0 {
		startIndex = 0
	}
	next := c.state.clone()
	datasets := c.cloneDatasets()
	if startIndex < len(next.Series) {
		next.Series = next.Series[:startIndex]
		datasets = datasets[:startIndex]
	}

	return c.commit(next, datasets, c.dayNight)
}

// SetVisibility shows or hides the series at index. Hidden series take no
// part in proximity checks. An out-of-range index is ignored.
func (c *Controller) SetVisibility(index int, visible bool) error {
	if !c.inRange(index) {
		return nil
	}

	next := c.state.clone()
	next.Series[index].Visible = visible
	datasets := c.cloneDatasets()
	datasets[index].Hidden = !visible

	return c.commit(next, datasets, c.dayNight)
}

// SetLocationAndRange moves the chart to a new observer and date range,
// rebuilding every overlay and re-sampling every series in place.
func (c *Controller) SetLocationAndRange(loc astro.GeographicCoordinate, start, stop time.Time) error {
	start, stop, err := c.checkRange(start, stop)
	if err != nil {
		return err
	}

	dayNight, err := DayNightBoxes(c.provider, loc, start, stop)
	if err != nil {
		return err
	}

	datasets := make([]Dataset, len(c.state.Series))
	for i, s := range c.state.Series {
		points, err := SampleSeries(c.provider, s.Object, loc, start, stop)
		if err != nil {
			return err
		}
		datasets[i] = newDataset(s.Object, s.Color, !s.Visible, points)
	}

	next := c.state.clone()
	next.Location = loc
	next.setRange(start, stop)

	return c.commit(next, datasets, dayNight)
}

// StepRange shifts the range by n whole spans, backward when n is negative.
// The shift is made in calendar days so both ends stay on 12:00.
func (c *Controller) StepRange(n int) error {
	days := int(math.Round(c.state.HourSpan / 24))
	if days < 1 {
		days = 1
	}
	if n > maxShiftDays/days || n < -maxShiftDays/days {
		return fmt.Errorf("%w: cannot step %d spans of %d days", ErrConfiguration, n, days)
	}
	shift := n * days
	return c.SetLocationAndRange(c.state.Location, c.state.Start.AddDate(0, 0, shift), c.state.Stop.AddDate(0, 0, shift))
}

// AddProximityWatch appends watch and checks it against every visible series.
func (c *Controller) AddProximityWatch(watch ProximityWatch) error {
	if math.IsNaN(watch.AngularDistance) || watch.AngularDistance < 0 {
		return fmt.Errorf("%w: angular distance %v", ErrConfiguration, watch.AngularDistance)
	}

	next := c.state.clone()
	next.Watches = append(next.Watches, watch)
	return c.commit(next, c.datasets, c.dayNight)
}

// Len returns the number of tracked series.
func (c *Controller) Len() int {
	return len(c.state.Series)
}

// Visible reports whether the series at index is drawn.
func (c *Controller) Visible(index int) (bool, error) {
	s, err := c.series(index)
	return s.Visible, err
}

// Color returns the line color of the series at index.
func (c *Controller) Color(index int) (string, error) {
	s, err := c.series(index)
	return s.Color, err
}

// Identifier returns the object identifier of the series at index.
func (c *Controller) Identifier(index int) (string, error) {
	s, err := c.series(index)
	return s.Object.Identifier, err
}

// Object returns the object plotted at index.
func (c *Controller) Object(index int) (astro.Object, error) {
	s, err := c.series(index)
	return s.Object, err
}

// State returns a copy of the chart state.
func (c *Controller) State() GraphState {
	return c.state.clone()
}

// Chart returns the chart as last drawn.
func (c *Controller) Chart() Chart {
	return c.buildChart()
}

// Alerts returns the proximity alerts behind the current overlays.
func (c *Controller) Alerts() []Alert {
	return append([]Alert(nil), c.alerts...)
}

func (c *Controller) series(index int) (TrackedSeries, error) {
	if !c.inRange(index) {
		return TrackedSeries{}, fmt.Errorf("%w: %d (have %d)", ErrIndex, index, len(c.state.Series))
	}
	return c.state.Series[index], nil
}

func (c *Controller) inRange(index int) bool {
	return index >= 0 && index < len(c.state.Series)
}

func (c *Controller) sample(obj astro.Object, color string, hidden bool) (Dataset, error) {
	points, err := SampleSeries(c.provider, obj, c.state.Location, c.state.Start, c.state.Stop)
	if err != nil {
		return Dataset{}, err
	}
	return newDataset(obj, color, hidden, points), nil
}

func newDataset(obj astro.Object, color string, hidden bool, points []Point) Dataset {
	return Dataset{
		Label:           obj.Identifier,
		BorderColor:     color,
		BackgroundColor: transparent,
		Hidden:          hidden,
		Data:            points,
	}
}

func (c *Controller) cloneDatasets() []Dataset {
	return append([]Dataset(nil), c.datasets...)
}

func (s *GraphState) setRange(start, stop time.Time) {
	s.Start = start
	s.Stop = stop
	s.HourSpan = stop.Sub(start).Hours()
	s.TickCount = tickCount(s.HourSpan)
}

// commit rebuilds every overlay for next and, only when that succeeds,
// installs next with its datasets and redraws. On error the controller is
// left as it was.
func (c *Controller) commit(next GraphState, datasets []Dataset, dayNight []Box) error {
	var alerts []Alert
	for _, s := range next.Series {
		if !s.Visible {
			continue
		}
		for _, w := range next.Watches {
			found, err := ProximityAlerts(c.provider, next.Location, next.Start, next.Stop, w, s.Object, c.proximityChecks)
			if err != nil {
				return err
			}
			alerts = append(alerts, found...)
		}
	}

	overlays := make([]Box, 0, len(dayNight)+len(alerts))
	overlays = append(overlays, dayNight...)
	for _, a := range alerts {
		overlays = append(overlays, a.Box)
	}
	next.Overlays = overlays

	c.state = next
	c.datasets = datasets
	c.dayNight = dayNight
	c.alerts = alerts

	if c.observer != nil {
		c.observer.ProximityAlerts(c.State(), c.Alerts())
	}

	c.redraw()
	return nil
}

func (c *Controller) redraw() {
	if c.surface != nil {
		c.surface.Update(c.buildChart())
	}
}

// tickCount picks 7 ticks for ranges of a week or more, 12 otherwise.
func tickCount(hourSpan float64) int {
	if hourSpan >= weekHours {
		return 7
	}
	return 12
}

// NormalizeDate pins t to 12:00:00.000 on its calendar day in its own
// location.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), anchorHour, 0, 0, 0, t.Location())
}

func normalizeRange(start, stop time.Time) (time.Time, time.Time, error) {
	start, stop = NormalizeDate(start), NormalizeDate(stop)
	if !stop.After(start) {
		return start, stop, fmt.Errorf("%w: stop %s is not after start %s",
			ErrConfiguration, stop.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return start, stop, nil
}

// checkRange normalizes the range and enforces the controller's span cap.
func (c *Controller) checkRange(start, stop time.Time) (time.Time, time.Time, error) {
	start, stop, err := normalizeRange(start, stop)
	if err != nil {
		return start, stop, err
	}
	if c.maxDays > 0 && stop.After(start.AddDate(0, 0, c.maxDays)) {
		return start, stop, fmt.Errorf("%w: range %s to %s exceeds %d days",
			ErrConfiguration, start.Format(time.DateOnly), stop.Format(time.DateOnly), c.maxDays)
	}
	return start, stop, nil
}
