package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

const sampleYAML = `
server:
  listen-addr: 127.0.0.1
  port: 9090
  cors-origins:
    - https://stars.example.com
observer:
  location: Home
  utc-offset-minutes: -300
locations:
  - name: Home
    latitude: 41.8125
    longitude: -80.0935
  - name: Cabin
    latitude: 45.5
    longitude: -84.25
graph:
  resolution: 15m
  proximity-checks: 120
  max-days: 60
  moon-watch:
    angular-distance: 1.5
catalog:
  backend: sqlite
  sqlite-path: /var/lib/startracker/searches.db
alerts:
  nats-url: nats://localhost:4222
metrics:
  enabled: false
log:
  level: debug
`

func TestParseYAML(t *testing.T) {
	c, err := ParseYAML([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}

	if c.Server.Port != 9090 || c.Server.ListenAddr != "127.0.0.1" || len(c.Server.CORSOrigins) != 1 {
		t.Errorf("server = %+v", c.Server)
	}
	if c.Observer.UTCOffsetMinutes == nil || *c.Observer.UTCOffsetMinutes != -300 {
		t.Errorf("observer = %+v", c.Observer)
	}
	if got := c.ObserverLocation(); got.Name != "Home" || got.Latitude != 41.8125 {
		t.Errorf("observer location = %+v", got)
	}
	if c.Graph.ResolutionDuration() != 15*time.Minute || c.Graph.ProximityChecks != 120 || c.Graph.MaxDays != 60 {
		t.Errorf("graph = %+v", c.Graph)
	}
	if !c.Graph.MoonWatch.Enabled || c.Graph.MoonWatch.AngularDistance != 1.5 {
		t.Errorf("moon watch = %+v", c.Graph.MoonWatch)
	}
	if c.Catalog.Backend != "sqlite" || c.Catalog.TimeoutDuration() != 10*time.Second {
		t.Errorf("catalog = %+v", c.Catalog)
	}
	if c.Alerts.Subject != DefaultAlertSubject {
		t.Errorf("alerts = %+v", c.Alerts)
	}
	if c.Metrics.Enabled || c.Metrics.Path != DefaultMetricsPath {
		t.Errorf("metrics = %+v", c.Metrics)
	}
	if c.Log.Level != "debug" {
		t.Errorf("log = %+v", c.Log)
	}
}

func TestParseYAMLDefaults(t *testing.T) {
	c, err := ParseYAML([]byte("{}"))
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	if !reflect.DeepEqual(c, want) {
		t.Errorf("empty config =\n%+v\nwant\n%+v", c, want)
	}
	if c.Observer.Location != "Cambridge Springs PA" || len(c.Locations) != 4 {
		t.Errorf("defaults = %+v", c)
	}
}

func TestParseYAMLInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "server: [1, 2"},
		{"unknown observer", "observer:\n  location: Mars\n"},
		{"bad latitude", "locations:\n  - name: X\n    latitude: 91\n    longitude: 0\n"},
		{"duplicate location", "locations:\n  - name: X\n  - name: X\n"},
		{"bad resolution", "graph:\n  resolution: often\n"},
		{"days over max", "graph:\n  days: 30\n  max-days: 7\n"},
		{"negative days", "graph:\n  days: -1\n"},
		{"sqlite without path", "catalog:\n  backend: sqlite\n"},
		{"postgres without dsn", "catalog:\n  backend: postgres\n"},
		{"unknown backend", "catalog:\n  backend: redis\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseYAML([]byte(tt.doc)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("STARTRACKER_POSTGRES_DSN=postgres://stars@db/stars\nSTARTRACKER_CATALOG_BACKEND=postgres\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvPostgresDSN, "")
	t.Setenv(EnvCatalogBackend, "")
	os.Unsetenv(EnvPostgresDSN)
	os.Unsetenv(EnvCatalogBackend)
	t.Setenv(EnvPort, "7000")

	if err := LoadEnvFiles(filepath.Join(dir, "missing.env"), envFile); err != nil {
		t.Fatal(err)
	}

	c, err := ParseYAML([]byte("{}"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Catalog.Backend != "postgres" || c.Catalog.PostgresDSN != "postgres://stars@db/stars" {
		t.Errorf("catalog = %+v", c.Catalog)
	}
	if c.Server.Port != 7000 {
		t.Errorf("port = %d", c.Server.Port)
	}
}

func TestYAMLProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "startracker.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	p := NewYAMLProvider(path)
	locations, err := p.GetLocations()
	if err != nil {
		t.Fatal(err)
	}
	if len(locations) != 2 || locations[1].Name != "Cabin" {
		t.Errorf("locations = %+v", locations)
	}
	if !p.IsReadOnly() {
		t.Error("YAML provider should be read-only")
	}
	if err := p.SaveLocation(LocationData{Name: "New"}); !errors.Is(err, ErrReadOnly) {
		t.Errorf("SaveLocation error = %v", err)
	}

	if _, err := NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml")).LoadConfig(); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestSQLiteProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.db")
	p, err := NewSQLiteProvider(path, Default())
	if err != nil {
		t.Fatal(err)
	}

	locations, err := p.GetLocations()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(locations, DefaultLocations) {
		t.Errorf("seeded locations = %+v", locations)
	}

	if err := p.SaveLocation(LocationData{Name: "Backyard", Latitude: 10, Longitude: 20}); err != nil {
		t.Fatal(err)
	}
	if err := p.SaveLocation(LocationData{Name: "Backyard", Latitude: 11, Longitude: 21}); err != nil {
		t.Fatal(err)
	}
	if err := p.SaveLocation(LocationData{Name: "Nowhere", Latitude: 100}); err == nil {
		t.Error("expected an error for latitude 100")
	}

	if err := p.DeleteLocation("Cambridge Springs PA"); err != nil {
		t.Fatal(err)
	}
	if err := p.DeleteLocation("Atlantis"); err == nil {
		t.Error("expected an error deleting an unknown location")
	}

	c, err := p.LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Locations) != 4 || c.Locations[3].Name != "Backyard" || c.Locations[3].Latitude != 11 {
		t.Errorf("locations = %+v", c.Locations)
	}
	if c.Observer.Location != "Grove City PA" {
		t.Errorf("observer location = %q, want fallback to first", c.Observer.Location)
	}
	p.Close()

	// Reopening keeps the stored locations instead of reseeding.
	p, err = NewSQLiteProvider(path, Default())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	for _, name := range []string{"Grove City PA", "Redmond WA", "Amsterdam NL"} {
		if err := p.DeleteLocation(name); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.DeleteLocation("Backyard"); !errors.Is(err, ErrLastLocation) {
		t.Errorf("deleting the last location error = %v", err)
	}
	if locations, _ := p.GetLocations(); len(locations) != 1 {
		t.Errorf("locations = %+v", locations)
	}
}
