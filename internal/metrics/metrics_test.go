package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chrissnell/startracker/internal/graph"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	r := mux.NewRouter()
	r.Use(collector.Middleware)
	r.HandleFunc("/api/graphs/{id}", func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["id"] == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, "ok")
	})

	for _, id := range []string{"a", "b", "missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/graphs/"+id, nil))
	}

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/api/graphs/{id}", "GET", "200")); got != 2 {
		t.Errorf("200 requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/api/graphs/{id}", "GET", "404")); got != 1 {
		t.Errorf("404 requests = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(collector.HTTPDurations); n != 1 {
		t.Errorf("%d duration series, want 1", n)
	}
}

func TestAlertObserverTracksCurrentCounts(t *testing.T) {
	collector, err := NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}

	state := func(darkness, proximity int) graph.GraphState {
		var s graph.GraphState
		for i := 0; i < darkness; i++ {
			s.Overlays = append(s.Overlays, graph.Box{Kind: graph.BoxDarkness})
		}
		for i := 0; i < proximity; i++ {
			s.Overlays = append(s.Overlays, graph.Box{Kind: graph.BoxProximity})
		}
		return s
	}

	a, b := collector.ForGraph("a"), collector.ForGraph("b")
	steps := []struct {
		name                string
		apply               func()
		darkness, proximity float64
		alerts              float64
	}{
		{"first graph", func() { a.ProximityAlerts(state(4, 1), make([]graph.Alert, 1)) }, 4, 1, 1},
		{"same alerts redrawn", func() { a.ProximityAlerts(state(4, 1), make([]graph.Alert, 1)) }, 4, 1, 1},
		{"again", func() { a.ProximityAlerts(state(4, 1), make([]graph.Alert, 1)) }, 4, 1, 1},
		{"second graph", func() { b.ProximityAlerts(state(8, 2), make([]graph.Alert, 2)) }, 12, 3, 3},
		{"alerts cleared", func() { a.ProximityAlerts(state(4, 0), nil) }, 12, 2, 2},
		{"graph forgotten", func() { collector.Forget("b") }, 4, 0, 0},
		{"unknown graph forgotten", func() { collector.Forget("zzz") }, 4, 0, 0},
	}

	for _, step := range steps {
		step.apply()
		if got := testutil.ToFloat64(collector.Overlays.WithLabelValues("darkness")); got != step.darkness {
			t.Errorf("%s: darkness overlays = %v, want %v", step.name, got, step.darkness)
		}
		if got := testutil.ToFloat64(collector.Overlays.WithLabelValues("proximity")); got != step.proximity {
			t.Errorf("%s: proximity overlays = %v, want %v", step.name, got, step.proximity)
		}
		if got := testutil.ToFloat64(collector.ActiveAlerts); got != step.alerts {
			t.Errorf("%s: active alerts = %v, want %v", step.name, got, step.alerts)
		}
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatal(err)
	}
	collector.SetActiveGraphs(3)
	collector.CatalogLookup("cached")

	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	for _, want := range []string{"startracker_active_graphs 3", `startracker_catalog_lookups_total{result="cached"} 1`} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNewCollectorReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}
	if first.HTTPRequests != second.HTTPRequests {
		t.Error("second collector did not reuse the registered counter")
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.SetActiveGraphs(1)
	c.CatalogLookup("miss")
	c.Forget("g")
	if c.ForGraph("g") != nil {
		t.Error("nil collector returned an observer")
	}
}
