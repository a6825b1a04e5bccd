package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/startracker/internal/catalog"
	"github.com/chrissnell/startracker/internal/graph"
	"github.com/chrissnell/startracker/internal/log"
	"github.com/chrissnell/startracker/internal/metrics"
	"github.com/chrissnell/startracker/internal/surface"
	"github.com/chrissnell/startracker/pkg/astro"
	"github.com/chrissnell/startracker/pkg/config"
	"github.com/chrissnell/startracker/pkg/sky"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func init() {
	log.SetLogger(zap.NewNop())
}

type fakeResolver struct {
	calls int
}

func (f *fakeResolver) Resolve(ctx context.Context, id string) (catalog.Entry, error) {
	f.calls++
	if id != "M31" {
		return catalog.Entry{}, fmt.Errorf("%w: %s", catalog.ErrNotFound, id)
	}
	return catalog.Entry{Identifier: "M  31", RightAscension: 10.6847, Declination: 41.2690}, nil
}

type testServer struct {
	*Server
	handler  http.Handler
	resolver *fakeResolver
}

func newTestServer(t *testing.T, cfg *config.ConfigData, cp config.ConfigProvider) *testServer {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	if cp == nil {
		var err error
		cp, err = config.NewSQLiteProvider(filepath.Join(t.TempDir(), "config.db"), cfg)
		if err != nil {
			t.Fatalf("NewSQLiteProvider: %v", err)
		}
	}
	t.Cleanup(func() { cp.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := surface.NewHub()
	go hub.Run(ctx)

	collector, err := metrics.NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	resolver := &fakeResolver{}
	s, err := New(ctx, &sync.WaitGroup{}, cfg, Deps{
		Provider:       sky.NewProvider(0),
		Search:         catalog.NewSearch(catalog.NewMemoryStore(), resolver),
		Hub:            hub,
		Metrics:        collector,
		ConfigProvider: cp,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.now = func() time.Time { return time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC) }
	return &testServer{Server: s, handler: s.Handler(), resolver: resolver}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decoding %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func (ts *testServer) create(t *testing.T) GraphView {
	t.Helper()
	lat, lon, offset := 41.8125, -80.0935, -300
	var view GraphView
	code := ts.do(t, http.MethodPost, "/api/graphs", CreateGraphRequest{
		Latitude: &lat, Longitude: &lon, UTCOffsetMinutes: &offset, Start: "2024-03-10",
	}, &view)
	if code != http.StatusCreated {
		t.Fatalf("create graph: status %d", code)
	}
	return view
}

func TestCreateGraphDefaults(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	view := ts.create(t)

	if view.ID == "" {
		t.Fatal("graph has no id")
	}
	if view.UTCOffsetMinutes != -300 {
		t.Errorf("offset = %d, want -300", view.UTCOffsetMinutes)
	}
	if got := view.State.Start.Format(time.RFC3339); got != "2024-03-10T12:00:00-05:00" {
		t.Errorf("start = %s", got)
	}
	if view.State.HourSpan != 24 {
		t.Errorf("hour span = %v, want 24", view.State.HourSpan)
	}
	if len(view.State.Series) != 2 {
		t.Fatalf("got %d series, want 2", len(view.State.Series))
	}
	if placeholder := view.State.Series[0]; placeholder.Visible || placeholder.Color != searchedColor {
		t.Errorf("placeholder = %+v, want hidden %s", placeholder, searchedColor)
	}
	if moon := view.State.Series[1]; moon.Object.Kind != astro.KindMoon || !moon.Visible {
		t.Errorf("series 1 = %+v, want visible Moon", moon)
	}
	if len(view.State.Watches) != 1 || view.State.Watches[0].AngularDistance != 0.52 {
		t.Errorf("watches = %+v, want the Moon at 0.52", view.State.Watches)
	}
	if got := view.State.CountOverlays(graph.BoxDarkness); got != 4 {
		t.Errorf("darkness overlays = %d, want 4", got)
	}
	if got := testutil.ToFloat64(ts.metrics.ActiveGraphs); got != 1 {
		t.Errorf("active graphs = %v, want 1", got)
	}
	if view.Subscribers != 0 {
		t.Errorf("subscribers = %d, want 0", view.Subscribers)
	}
}

func TestCreateGraphSavedLocation(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	var view GraphView
	code := ts.do(t, http.MethodPost, "/api/graphs", CreateGraphRequest{Location: "Redmond WA"}, &view)
	if code != http.StatusCreated {
		t.Fatalf("status %d", code)
	}
	if view.LocationName != "Redmond WA" {
		t.Errorf("location name = %q", view.LocationName)
	}
	if want := sky.UTCOffsetForLongitude(view.State.Location.Longitude); view.UTCOffsetMinutes != want {
		t.Errorf("offset = %d, want %d", view.UTCOffsetMinutes, want)
	}

	if code := ts.do(t, http.MethodPost, "/api/graphs", CreateGraphRequest{Location: "Atlantis"}, nil); code != http.StatusNotFound {
		t.Errorf("unknown location: status %d, want 404", code)
	}
}

func TestCreateGraphInvalid(t *testing.T) {
	lat, lon := 95.0, 0.0
	offset := 20 * 60

	tests := []struct {
		name string
		body any
	}{
		{"bad latitude", CreateGraphRequest{Latitude: &lat, Longitude: &lon}},
		{"bad offset", CreateGraphRequest{UTCOffsetMinutes: &offset}},
		{"bad date", CreateGraphRequest{Start: "tomorrow"}},
		{"negative days", CreateGraphRequest{Days: -2}},
		{"too many days", CreateGraphRequest{Days: config.DefaultMaxDays + 1}},
		{"absurd days", CreateGraphRequest{Days: 100000}},
		{"unknown field", map[string]any{"colour": "red"}},
	}

	ts := newTestServer(t, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := ts.do(t, http.MethodPost, "/api/graphs", tt.body, nil); code != http.StatusBadRequest {
				t.Errorf("status %d, want 400", code)
			}
		})
	}
}

func TestSessionLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Graph.MaxSessions = 1
	ts := newTestServer(t, cfg, nil)

	ts.create(t)
	if code := ts.do(t, http.MethodPost, "/api/graphs", CreateGraphRequest{}, nil); code != http.StatusServiceUnavailable {
		t.Errorf("status %d, want 503", code)
	}
}

func TestGraphNotFound(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	for _, path := range []string{"/api/graphs/nope", "/api/graphs/nope/chart", "/api/graphs/nope/alerts"} {
		if code := ts.do(t, http.MethodGet, path, nil, nil); code != http.StatusNotFound {
			t.Errorf("GET %s: status %d, want 404", path, code)
		}
	}
}

func TestObjectLifecycle(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	id := ts.create(t).ID
	base := "/api/graphs/" + id

	ra, dec := 279.2347, 38.7837
	var view GraphView
	if code := ts.do(t, http.MethodPost, base+"/objects", ObjectRequest{Identifier: "Vega", RA: &ra, Dec: &dec, Color: "#00F"}, &view); code != http.StatusOK {
		t.Fatalf("add star: status %d", code)
	}
	if code := ts.do(t, http.MethodPost, base+"/objects", ObjectRequest{Identifier: "M31"}, &view); code != http.StatusOK {
		t.Fatalf("add by identifier: status %d", code)
	}
	if len(view.State.Series) != 4 {
		t.Fatalf("got %d series, want 4", len(view.State.Series))
	}
	if got := view.State.Series[3].Color; !strings.HasPrefix(got, "rgb(") {
		t.Errorf("random color = %q", got)
	}

	if code := ts.do(t, http.MethodPut, base+"/objects/2/visibility", VisibilityRequest{Visible: false}, &view); code != http.StatusOK {
		t.Fatalf("hide: status %d", code)
	}
	if code := ts.do(t, http.MethodPut, base+"/objects/2", ObjectRequest{Kind: astro.KindSun}, &view); code != http.StatusOK {
		t.Fatalf("replace: status %d", code)
	}
	if s := view.State.Series[2]; s.Object.Kind != astro.KindSun || s.Visible || s.Color != "#00F" {
		t.Errorf("replaced series = %+v, want hidden Sun keeping its color", s)
	}

	var legend []LegendEntry
	ts.do(t, http.MethodGet, base+"/legend", nil, &legend)
	if len(legend) != 4 || legend[2].Kind != "sun" {
		t.Errorf("legend = %+v", legend)
	}

	if code := ts.do(t, http.MethodPut, base+"/objects/9", ObjectRequest{Kind: astro.KindSun}, nil); code != http.StatusNotFound {
		t.Errorf("replace out of range: status %d, want 404", code)
	}
	if code := ts.do(t, http.MethodDelete, base+"/objects/9", nil, &view); code != http.StatusOK {
		t.Errorf("remove out of range: status %d, want 200", code)
	}
	if code := ts.do(t, http.MethodPost, base+"/objects", ObjectRequest{}, nil); code != http.StatusBadRequest {
		t.Errorf("empty object: status %d, want 400", code)
	}
	if code := ts.do(t, http.MethodPost, base+"/objects", ObjectRequest{Identifier: "nothing"}, nil); code != http.StatusNotFound {
		t.Errorf("unresolvable object: status %d, want 404", code)
	}

	if code := ts.do(t, http.MethodDelete, base+"/objects?from=2", nil, &view); code != http.StatusOK {
		t.Fatalf("remove from: status %d", code)
	}
	if len(view.State.Series) != 2 {
		t.Errorf("got %d series after removal, want 2", len(view.State.Series))
	}

	var chart graph.Chart
	ts.do(t, http.MethodGet, base+"/chart", nil, &chart)
	if len(chart.Datasets) != 2 || len(chart.Datasets[1].Data) != 144 {
		t.Errorf("chart has %d datasets", len(chart.Datasets))
	}
}

func TestRangeAndZone(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	id := ts.create(t).ID
	base := "/api/graphs/" + id

	var view GraphView
	if code := ts.do(t, http.MethodPut, base+"/range", RangeRequest{Start: "2024-03-10", Stop: "2024-03-17"}, &view); code != http.StatusOK {
		t.Fatalf("set range: status %d", code)
	}
	if view.State.HourSpan != 168 || view.State.TickCount != 7 {
		t.Errorf("span %v ticks %d, want 168 and 7", view.State.HourSpan, view.State.TickCount)
	}
	if code := ts.do(t, http.MethodPut, base+"/range", RangeRequest{Start: "2024-03-17", Stop: "2024-03-10"}, nil); code != http.StatusBadRequest {
		t.Errorf("inverted range: status %d, want 400", code)
	}
	if code := ts.do(t, http.MethodPut, base+"/range", RangeRequest{Start: "2024-03-10", Stop: "2026-03-10"}, nil); code != http.StatusBadRequest {
		t.Errorf("range over max-days: status %d, want 400", code)
	}
	if code := ts.do(t, http.MethodPost, base+"/range/step?n=9223372036854775807", nil, nil); code != http.StatusBadRequest {
		t.Errorf("huge step: status %d, want 400", code)
	}

	if code := ts.do(t, http.MethodPost, base+"/range/step?n=-1", nil, &view); code != http.StatusOK {
		t.Fatalf("step: status %d", code)
	}
	if got := view.State.Start.Format(dateLayout); got != "2024-03-03" {
		t.Errorf("start after step back = %s", got)
	}

	if code := ts.do(t, http.MethodPut, base+"/timezone", TimeZoneRequest{UTCOffsetMinutes: 60}, &view); code != http.StatusOK {
		t.Fatalf("timezone: status %d", code)
	}
	if _, off := view.State.Start.Zone(); off != 3600 || view.UTCOffsetMinutes != 60 {
		t.Errorf("zone offset = %d s, view %d", off, view.UTCOffsetMinutes)
	}
	if view.State.Start.Hour() != 12 {
		t.Errorf("start hour = %d, want 12", view.State.Start.Hour())
	}

	if code := ts.do(t, http.MethodPut, base+"/location", LocationRequest{Name: "Amsterdam NL"}, &view); code != http.StatusOK {
		t.Fatalf("location: status %d", code)
	}
	if view.LocationName != "Amsterdam NL" {
		t.Errorf("location name = %q", view.LocationName)
	}
	if code := ts.do(t, http.MethodPut, base+"/location", LocationRequest{}, nil); code != http.StatusBadRequest {
		t.Errorf("empty location: status %d, want 400", code)
	}
}

func TestWatchesAndAlerts(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	id := ts.create(t).ID
	base := "/api/graphs/" + id

	ra, dec := 0.0, -75.0
	var view GraphView
	if code := ts.do(t, http.MethodPost, base+"/objects", ObjectRequest{Identifier: "twin", RA: &ra, Dec: &dec}, &view); code != http.StatusOK {
		t.Fatalf("add: status %d", code)
	}
	watch := WatchRequest{ObjectRequest: ObjectRequest{Identifier: "marker", RA: &ra, Dec: &dec}, AngularDistance: 1}
	if code := ts.do(t, http.MethodPost, base+"/watches", watch, &view); code != http.StatusOK {
		t.Fatalf("watch: status %d", code)
	}

	var alerts []graph.Alert
	ts.do(t, http.MethodGet, base+"/alerts", nil, &alerts)
	if len(alerts) == 0 {
		t.Fatal("expected alerts for an object sitting on the watch")
	}
	for _, a := range alerts {
		if a.Object != "twin" {
			t.Errorf("alert for %q; hidden placeholder must not alert", a.Object)
		}
	}
	if got := testutil.ToFloat64(ts.metrics.ActiveAlerts); got != float64(len(alerts)) {
		t.Errorf("active alerts = %v, want %d", got, len(alerts))
	}
	if got := testutil.ToFloat64(ts.metrics.Overlays.WithLabelValues("proximity")); got != float64(len(alerts)) {
		t.Errorf("proximity overlays = %v, want %d", got, len(alerts))
	}
	if marker := view.State.Watches[len(view.State.Watches)-1].Object; marker.Position == nil || marker.Position.Declination != dec {
		t.Errorf("watch object = %+v, want its position", marker)
	}

	var watches []graph.ProximityWatch
	ts.do(t, http.MethodGet, base+"/watches", nil, &watches)
	if len(watches) != 2 {
		t.Errorf("got %d watches, want 2", len(watches))
	}

	watch.AngularDistance = -1
	if code := ts.do(t, http.MethodPost, base+"/watches", watch, nil); code != http.StatusBadRequest {
		t.Errorf("negative distance: status %d, want 400", code)
	}
}

func TestTooltipAndAlmanac(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	base := "/api/graphs/" + ts.create(t).ID

	var tip struct {
		Tooltip graph.Tooltip `json:"tooltip"`
		Lines   []string      `json:"lines"`
	}
	if code := ts.do(t, http.MethodGet, base+"/tooltip?index=1&hours=3", nil, &tip); code != http.StatusOK {
		t.Fatalf("tooltip: status %d", code)
	}
	if tip.Tooltip.Identifier != "Moon" || tip.Tooltip.Phase == nil || len(tip.Lines) < 3 {
		t.Errorf("tooltip = %+v", tip)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"index=9&hours=3", http.StatusNotFound},
		{"index=1&hours=100", http.StatusBadRequest},
		{"index=x&hours=1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if code := ts.do(t, http.MethodGet, base+"/tooltip?"+tt.query, nil, nil); code != tt.want {
			t.Errorf("tooltip?%s: status %d, want %d", tt.query, code, tt.want)
		}
	}

	var almanac Almanac
	if code := ts.do(t, http.MethodGet, base+"/almanac", nil, &almanac); code != http.StatusOK {
		t.Fatalf("almanac: status %d", code)
	}
	if almanac.Date != "2024-03-10" || almanac.Sunrise == "" {
		t.Errorf("almanac = %+v", almanac)
	}
	if almanac.DayLength < 11 || almanac.DayLength > 12.5 {
		t.Errorf("day length = %v", almanac.DayLength)
	}
	if !(almanac.CivilTwilight < almanac.NauticalTwilight && almanac.NauticalTwilight < almanac.AstronomicalTwilight) {
		t.Errorf("twilights out of order: %+v", almanac)
	}
	if almanac.MoonPhase != "New Moon" {
		t.Errorf("moon phase = %q, want New Moon", almanac.MoonPhase)
	}
}

func TestSearchIntoGraph(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	base := "/api/graphs/" + ts.create(t).ID

	var hit struct {
		Result SearchResult `json:"result"`
		Graph  GraphView    `json:"graph"`
	}
	if code := ts.do(t, http.MethodPost, base+"/search", SearchRequest{Query: " M31; "}, &hit); code != http.StatusOK {
		t.Fatalf("search: status %d", code)
	}
	if s := hit.Graph.State.Series[SearchedObjectIndex]; !s.Visible || s.Object.Identifier != "M  31" {
		t.Errorf("searched series = %+v", s)
	}
	if !strings.Contains(hit.Result.ImageURL, "DSS2") {
		t.Errorf("image url = %q", hit.Result.ImageURL)
	}

	if code := ts.do(t, http.MethodPost, base+"/search", SearchRequest{Query: "nothing"}, nil); code != http.StatusNotFound {
		t.Fatalf("miss: status %d, want 404", code)
	}
	var view GraphView
	ts.do(t, http.MethodGet, base, nil, &view)
	if view.State.Series[SearchedObjectIndex].Visible {
		t.Error("a failed search must hide the searched series")
	}

	var result SearchResult
	if code := ts.do(t, http.MethodGet, "/api/search?q=M31&fov=2", nil, &result); code != http.StatusOK {
		t.Fatalf("search: status %d", code)
	}
	if !result.Cached || ts.resolver.calls != 2 {
		t.Errorf("cached = %v after %d resolver calls", result.Cached, ts.resolver.calls)
	}
	if want := catalog.ImageURL(result.Equatorial(), catalog.FOVForSlider(2)); result.ImageURL != want {
		t.Errorf("image url = %q, want %q", result.ImageURL, want)
	}

	var previous []string
	ts.do(t, http.MethodGet, "/api/search/previous", nil, &previous)
	if len(previous) != 1 || previous[0] != "M31" {
		t.Errorf("previous = %v", previous)
	}
	if got := testutil.ToFloat64(ts.metrics.CatalogLookups.WithLabelValues("not_found")); got != 1 {
		t.Errorf("not_found lookups = %v, want 1", got)
	}
}

func TestLocations(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	var locations []config.LocationData
	ts.do(t, http.MethodGet, "/api/locations", nil, &locations)
	if len(locations) != len(config.DefaultLocations) {
		t.Fatalf("got %d locations, want %d", len(locations), len(config.DefaultLocations))
	}

	home := config.LocationData{Name: "Home", Latitude: 45, Longitude: -120}
	if code := ts.do(t, http.MethodPost, "/api/locations", home, nil); code != http.StatusCreated {
		t.Fatalf("save: status %d", code)
	}
	if code := ts.do(t, http.MethodPost, "/api/locations", config.LocationData{Name: "Nowhere", Latitude: 100}, nil); code != http.StatusBadRequest {
		t.Errorf("invalid location: status %d, want 400", code)
	}

	var view GraphView
	if code := ts.do(t, http.MethodPost, "/api/graphs", CreateGraphRequest{Location: "Home"}, &view); code != http.StatusCreated {
		t.Fatalf("graph at saved location: status %d", code)
	}
	if view.State.Location.Latitude != 45 {
		t.Errorf("graph latitude = %v", view.State.Location.Latitude)
	}

	if code := ts.do(t, http.MethodDelete, "/api/locations/Home", nil, nil); code != http.StatusNoContent {
		t.Errorf("delete: status %d", code)
	}
}

func TestLocationsReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("graph:\n  days: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cp := config.NewYAMLProvider(path)
	cfg, err := cp.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	ts := newTestServer(t, cfg, cp)

	if code := ts.do(t, http.MethodPost, "/api/locations", config.LocationData{Name: "Home"}, nil); code != http.StatusConflict {
		t.Errorf("save: status %d, want 409", code)
	}

	var view GraphView
	ts.do(t, http.MethodPost, "/api/graphs", CreateGraphRequest{}, &view)
	if view.State.HourSpan != 48 {
		t.Errorf("hour span = %v, want 48 from configured days", view.State.HourSpan)
	}
}

func TestDeleteAndExpire(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	first := ts.create(t).ID
	second := ts.create(t).ID

	if code := ts.do(t, http.MethodDelete, "/api/graphs/"+first, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete: status %d", code)
	}
	if code := ts.do(t, http.MethodDelete, "/api/graphs/"+first, nil, nil); code != http.StatusNotFound {
		t.Errorf("second delete: status %d, want 404", code)
	}

	ts.expireSessions(ts.now().Add(time.Hour))
	if code := ts.do(t, http.MethodGet, "/api/graphs/"+second, nil, nil); code != http.StatusNotFound {
		t.Errorf("expired graph: status %d, want 404", code)
	}
	if got := testutil.ToFloat64(ts.metrics.ActiveGraphs); got != 0 {
		t.Errorf("active graphs = %v, want 0", got)
	}
}

func TestDeleteWaitsForInFlightRequest(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	id := ts.create(t).ID
	sess, err := ts.sessions.Get(id)
	if err != nil {
		t.Fatal(err)
	}

	// Hold the graph as a request that is still running would.
	sess.mu.Lock()
	done := make(chan int)
	go func() {
		done <- ts.do(t, http.MethodDelete, "/api/graphs/"+id, nil, nil)
	}()

	select {
	case code := <-done:
		sess.mu.Unlock()
		t.Fatalf("delete finished with status %d while the graph was in use", code)
	case <-time.After(50 * time.Millisecond):
	}

	if _, err := sess.ctrl.AddTrackedObject(astro.NewStar("late", 0, 10), "red"); err != nil {
		t.Fatal(err)
	}
	sess.mu.Unlock()

	if code := <-done; code != http.StatusNoContent {
		t.Fatalf("delete: status %d", code)
	}
	for _, kind := range []graph.BoxKind{graph.BoxDarkness, graph.BoxProximity} {
		if got := testutil.ToFloat64(ts.metrics.Overlays.WithLabelValues(string(kind))); got != 0 {
			t.Errorf("%s overlays = %v after delete, want 0", kind, got)
		}
	}
	if code := ts.do(t, http.MethodGet, "/api/graphs/"+id+"/chart", nil, nil); code != http.StatusNotFound {
		t.Errorf("chart after delete: status %d, want 404", code)
	}
}

func TestClosedSessionRejectsRequests(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	id := ts.create(t).ID
	sess, err := ts.sessions.Get(id)
	if err != nil {
		t.Fatal(err)
	}

	sess.mu.Lock()
	ts.closeSession(sess)
	if ts.closeSession(sess) {
		t.Error("closing twice reported success")
	}
	sess.mu.Unlock()

	// A request that looked the session up before it closed.
	if err := ts.sessions.Add(sess); err != nil {
		t.Fatal(err)
	}
	if code := ts.do(t, http.MethodGet, "/api/graphs/"+id, nil, nil); code != http.StatusNotFound {
		t.Errorf("closed graph: status %d, want 404", code)
	}
	if code := ts.do(t, http.MethodDelete, "/api/graphs/"+id, nil, nil); code != http.StatusNotFound {
		t.Errorf("closed graph delete: status %d, want 404", code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{graph.ErrConfiguration, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", graph.ErrIndex), http.StatusNotFound},
		{catalog.ErrNotFound, http.StatusNotFound},
		{config.ErrLastLocation, http.StatusConflict},
		{errTooManySessions, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	var body map[string]any
	if code := ts.do(t, http.MethodGet, "/healthz", nil, &body); code != http.StatusOK || body["status"] != catalog.StatusHealthy {
		t.Fatalf("healthz: %d %v", code, body)
	}

	ts.health = catalog.NewHealthMonitor()
	ts.health.Check(context.Background(), "catalog", func(context.Context) error { return fmt.Errorf("unreachable") })
	if code := ts.do(t, http.MethodGet, "/healthz", nil, nil); code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy catalog: status %d, want 503", code)
	}
}
