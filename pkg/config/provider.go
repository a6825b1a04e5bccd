package config

import (
	"errors"
	"time"
)

// ErrReadOnly is returned by write operations on read-only providers.
var ErrReadOnly = errors.New("configuration provider is read-only")

// ErrLastLocation is returned when deleting the only saved location.
var ErrLastLocation = errors.New("cannot delete the last saved location")

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Saved observer locations
	GetLocations() ([]LocationData, error)
	SaveLocation(l LocationData) error
	DeleteLocation(name string) error

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Server    ServerData     `json:"server"`
	Observer  ObserverData   `json:"observer"`
	Locations []LocationData `json:"locations"`
	Graph     GraphData      `json:"graph"`
	Catalog   CatalogData    `json:"catalog"`
	Alerts    AlertsData     `json:"alerts,omitempty"`
	Metrics   MetricsData    `json:"metrics,omitempty"`
	Log       LogData        `json:"log,omitempty"`
}

// ServerData configures the REST and websocket listener.
type ServerData struct {
	ListenAddr  string   `json:"listen_addr,omitempty"`
	Port        int      `json:"port,omitempty"`
	Cert        string   `json:"cert,omitempty"`
	Key         string   `json:"key,omitempty"`
	CORSOrigins []string `json:"cors_origins,omitempty"`
}

// ObserverData picks the location new graphs start at.
type ObserverData struct {
	Location string `json:"location,omitempty"`
	// UTCOffsetMinutes overrides the offset guessed from longitude.
	UTCOffsetMinutes *int `json:"utc_offset_minutes,omitempty"`
}

// LocationData is a named observing site.
type LocationData struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GraphData tunes graph sampling and the default session.
type GraphData struct {
	Resolution      string    `json:"resolution,omitempty"`
	ProximityChecks int       `json:"proximity_checks,omitempty"`
	Days            int       `json:"days,omitempty"`
	MaxDays         int       `json:"max_days,omitempty"`
	MaxSessions     int       `json:"max_sessions,omitempty"`
	SessionTTL      string    `json:"session_ttl,omitempty"`
	MoonWatch       WatchData `json:"moon_watch"`
}

// WatchData is a default proximity watch.
type WatchData struct {
	Enabled         bool    `json:"enabled"`
	AngularDistance float64 `json:"angular_distance"`
}

// CatalogData configures object resolution and the search cache.
type CatalogData struct {
	Backend        string `json:"backend,omitempty"`
	SQLitePath     string `json:"sqlite_path,omitempty"`
	PostgresDSN    string `json:"postgres_dsn,omitempty"`
	SimbadEndpoint string `json:"simbad_endpoint,omitempty"`
	Timeout        string `json:"timeout,omitempty"`
}

// AlertsData configures the NATS proximity alert publisher.
type AlertsData struct {
	NATSURL string `json:"nats_url,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// MetricsData configures the Prometheus endpoint.
type MetricsData struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// LogData configures the zap logger.
type LogData struct {
	Debug bool   `json:"debug,omitempty"`
	Level string `json:"level,omitempty"`
}

// ResolutionDuration parses Graph.Resolution, returning 0 when unset or
// malformed.
func (g GraphData) ResolutionDuration() time.Duration {
	return parseDuration(g.Resolution)
}

// SessionTTLDuration parses Graph.SessionTTL.
func (g GraphData) SessionTTLDuration() time.Duration {
	return parseDuration(g.SessionTTL)
}

// TimeoutDuration parses Catalog.Timeout.
func (c CatalogData) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout)
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// FindLocation returns the saved location called name.
func (c *ConfigData) FindLocation(name string) (LocationData, bool) {
	for _, l := range c.Locations {
		if l.Name == name {
			return l, true
		}
	}
	return LocationData{}, false
}

// ObserverLocation returns the configured observer location, falling back
// to the first saved location.
func (c *ConfigData) ObserverLocation() LocationData {
	if l, ok := c.FindLocation(c.Observer.Location); ok {
		return l
	}
	if len(c.Locations) > 0 {
		return c.Locations[0]
	}
	return DefaultLocations[0]
}
