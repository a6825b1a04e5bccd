package config

import "fmt"

// DefaultLocations are the saved sites a fresh install starts with.
var DefaultLocations = []LocationData{
	{Name: "Cambridge Springs PA", Latitude: 41.8125, Longitude: -80.0935},
	{Name: "Grove City PA", Latitude: 41.1555, Longitude: -80.0793},
	{Name: "Redmond WA", Latitude: 47.6739, Longitude: -122.1215},
	{Name: "Amsterdam NL", Latitude: 52.3791, Longitude: 4.9003},
}

// Catalog cache backends.
const (
	CatalogMemory   = "memory"
	CatalogSQLite   = "sqlite"
	CatalogPostgres = "postgres"
)

const (
	DefaultPort            = 8080
	DefaultResolution      = "10m"
	DefaultProximityChecks = 240
	DefaultDays            = 1
	DefaultMaxDays         = 400
	DefaultMaxSessions     = 1000
	DefaultSessionTTL      = "24h"
	DefaultMoonWatch       = 0.52
	DefaultCatalogBackend  = CatalogMemory
	DefaultCatalogTimeout  = "10s"
	DefaultAlertSubject    = "startracker.proximity"
	DefaultMetricsPath     = "/metrics"
)

// Default returns a complete configuration with every default applied.
func Default() *ConfigData {
	c := &ConfigData{}
	c.Graph.MoonWatch.Enabled = true
	c.Metrics.Enabled = true
	ApplyDefaults(c)
	return c
}

// ApplyDefaults fills every unset field of c.
func ApplyDefaults(c *ConfigData) {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if len(c.Locations) == 0 {
		c.Locations = append([]LocationData(nil), DefaultLocations...)
	}
	if c.Observer.Location == "" {
		c.Observer.Location = c.Locations[0].Name
	}
	if c.Graph.Resolution == "" {
		c.Graph.Resolution = DefaultResolution
	}
	if c.Graph.ProximityChecks == 0 {
		c.Graph.ProximityChecks = DefaultProximityChecks
	}
	if c.Graph.Days == 0 {
		c.Graph.Days = DefaultDays
	}
	if c.Graph.MaxDays == 0 {
		c.Graph.MaxDays = DefaultMaxDays
	}
	if c.Graph.MaxSessions == 0 {
		c.Graph.MaxSessions = DefaultMaxSessions
	}
	if c.Graph.SessionTTL == "" {
		c.Graph.SessionTTL = DefaultSessionTTL
	}
	if c.Graph.MoonWatch.AngularDistance == 0 {
		c.Graph.MoonWatch.AngularDistance = DefaultMoonWatch
	}
	if c.Catalog.Backend == "" {
		c.Catalog.Backend = DefaultCatalogBackend
	}
	if c.Catalog.Timeout == "" {
		c.Catalog.Timeout = DefaultCatalogTimeout
	}
	if c.Alerts.Subject == "" {
		c.Alerts.Subject = DefaultAlertSubject
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

// Validate checks the fields defaults cannot repair.
func Validate(c *ConfigData) error {
	seen := make(map[string]bool)
	for _, l := range c.Locations {
		if l.Name == "" {
			return fmt.Errorf("saved location with no name")
		}
		if seen[l.Name] {
			return fmt.Errorf("duplicate saved location %q", l.Name)
		}
		seen[l.Name] = true
		if l.Latitude < -90 || l.Latitude > 90 || l.Longitude < -180 || l.Longitude > 180 {
			return fmt.Errorf("location %q has invalid coordinates (%v, %v)", l.Name, l.Latitude, l.Longitude)
		}
	}
	if _, ok := c.FindLocation(c.Observer.Location); !ok {
		return fmt.Errorf("observer location %q is not a saved location", c.Observer.Location)
	}
	if c.Graph.ResolutionDuration() <= 0 {
		return fmt.Errorf("invalid graph resolution %q", c.Graph.Resolution)
	}
	if c.Graph.Days < 1 || c.Graph.Days > c.Graph.MaxDays {
		return fmt.Errorf("graph days %d is outside 1..%d", c.Graph.Days, c.Graph.MaxDays)
	}
	if c.Graph.MoonWatch.AngularDistance < 0 {
		return fmt.Errorf("negative moon watch distance %v", c.Graph.MoonWatch.AngularDistance)
	}
	switch c.Catalog.Backend {
	case CatalogMemory:
	case CatalogSQLite:
		if c.Catalog.SQLitePath == "" {
			return fmt.Errorf("catalog backend sqlite needs sqlite-path")
		}
	case CatalogPostgres:
		if c.Catalog.PostgresDSN == "" {
			return fmt.Errorf("catalog backend postgres needs postgres-dsn")
		}
	default:
		return fmt.Errorf("unknown catalog backend %q", c.Catalog.Backend)
	}
	return nil
}
