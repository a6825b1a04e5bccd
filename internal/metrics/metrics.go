// Package metrics exposes Prometheus metrics for the startracker server.
package metrics

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/chrissnell/startracker/internal/graph"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the server's Prometheus metrics and provides helpers to
// wire them into HTTP handlers.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests   *prometheus.CounterVec
	HTTPDurations  *prometheus.HistogramVec
	ActiveGraphs   prometheus.Gauge
	Overlays       *prometheus.GaugeVec
	ActiveAlerts   prometheus.Gauge
	CatalogLookups *prometheus.CounterVec

	mu     sync.Mutex
	graphs map[string]graphCounts
}

// graphCounts is what one graph currently contributes to the gauges.
type graphCounts struct {
	darkness  int
	proximity int
	alerts    int
}

// NewCollector registers metrics against reg, defaulting to the global
// Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "startracker_http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by route, method, and status code.",
	}, []string{"route", "method", "code"}), "startracker_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "startracker_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route", "method"}), "startracker_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	graphs, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "startracker_active_graphs",
		Help: "Current number of graph sessions.",
	}), "startracker_active_graphs")
	if err != nil {
		return nil, err
	}

	overlays, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "startracker_overlays",
		Help: "Overlay boxes across all live graphs, labeled by kind.",
	}, []string{"kind"}), "startracker_overlays")
	if err != nil {
		return nil, err
	}

	alerts, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "startracker_proximity_alerts",
		Help: "Proximity alerts currently shown across all live graphs.",
	}), "startracker_proximity_alerts")
	if err != nil {
		return nil, err
	}

	lookups, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "startracker_catalog_lookups_total",
		Help: "Object lookups, labeled by result (cached, resolved, not_found, error).",
	}, []string{"result"}), "startracker_catalog_lookups_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:       gatherer,
		HTTPRequests:   requests,
		HTTPDurations:  durations,
		ActiveGraphs:   graphs,
		Overlays:       overlays,
		ActiveAlerts:   alerts,
		CatalogLookups: lookups,
		graphs:         make(map[string]graphCounts),
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and durations, labeled by the matched
// mux route template.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if c == nil {
			return
		}
		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		c.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// SetActiveGraphs records how many graph sessions exist.
func (c *Collector) SetActiveGraphs(n int) {
	if c == nil {
		return
	}
	c.ActiveGraphs.Set(float64(n))
}

// ForGraph returns the observer to register on the graph with id graphID.
// Each rebuild replaces that graph's share of the overlay and alert gauges.
func (c *Collector) ForGraph(graphID string) graph.AlertObserver {
	if c == nil {
		return nil
	}
	return graphObserver{c: c, id: graphID}
}

// Forget removes a deleted graph's share of the gauges.
func (c *Collector) Forget(graphID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apply(c.graphs[graphID], graphCounts{})
	delete(c.graphs, graphID)
}

type graphObserver struct {
	c  *Collector
	id string
}

func (o graphObserver) ProximityAlerts(s graph.GraphState, alerts []graph.Alert) {
	next := graphCounts{
		darkness:  s.CountOverlays(graph.BoxDarkness),
		proximity: s.CountOverlays(graph.BoxProximity),
		alerts:    len(alerts),
	}
	o.c.mu.Lock()
	defer o.c.mu.Unlock()
	o.c.apply(o.c.graphs[o.id], next)
	o.c.graphs[o.id] = next
}

// apply moves the gauges from prev to next. Callers hold c.mu.
func (c *Collector) apply(prev, next graphCounts) {
	c.Overlays.WithLabelValues(string(graph.BoxDarkness)).Add(float64(next.darkness - prev.darkness))
	c.Overlays.WithLabelValues(string(graph.BoxProximity)).Add(float64(next.proximity - prev.proximity))
	c.ActiveAlerts.Add(float64(next.alerts - prev.alerts))
}

// CatalogLookup counts one lookup outcome.
func (c *Collector) CatalogLookup(result string) {
	if c == nil {
		return
	}
	c.CatalogLookups.WithLabelValues(result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
