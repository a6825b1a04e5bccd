package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file, applies
// environment overrides and defaults, and validates the result.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseYAML(cfgFile)
	if err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

// ParseYAML converts a YAML document into a finished ConfigData.
func ParseYAML(b []byte) (*ConfigData, error) {
	// Load into temporary struct with YAML tags
	var yamlConfig ConfigYAML
	if err := yaml.Unmarshal(b, &yamlConfig); err != nil {
		return nil, err
	}

	config := &ConfigData{
		Server: ServerData{
			ListenAddr:  yamlConfig.Server.ListenAddr,
			Port:        yamlConfig.Server.Port,
			Cert:        yamlConfig.Server.Cert,
			Key:         yamlConfig.Server.Key,
			CORSOrigins: yamlConfig.Server.CORSOrigins,
		},
		Observer: ObserverData{
			Location:         yamlConfig.Observer.Location,
			UTCOffsetMinutes: yamlConfig.Observer.UTCOffsetMinutes,
		},
		Graph: GraphData{
			Resolution:      yamlConfig.Graph.Resolution,
			ProximityChecks: yamlConfig.Graph.ProximityChecks,
			Days:            yamlConfig.Graph.Days,
			MaxDays:         yamlConfig.Graph.MaxDays,
			MaxSessions:     yamlConfig.Graph.MaxSessions,
			SessionTTL:      yamlConfig.Graph.SessionTTL,
			MoonWatch:       WatchData{Enabled: true},
		},
		Catalog: CatalogData{
			Backend:        yamlConfig.Catalog.Backend,
			SQLitePath:     yamlConfig.Catalog.SQLitePath,
			PostgresDSN:    yamlConfig.Catalog.PostgresDSN,
			SimbadEndpoint: yamlConfig.Catalog.SimbadEndpoint,
			Timeout:        yamlConfig.Catalog.Timeout,
		},
		Alerts: AlertsData{
			NATSURL: yamlConfig.Alerts.NATSURL,
			Subject: yamlConfig.Alerts.Subject,
		},
		Metrics: MetricsData{Enabled: true, Path: yamlConfig.Metrics.Path},
		Log: LogData{
			Debug: yamlConfig.Log.Debug,
			Level: yamlConfig.Log.Level,
		},
	}

	if w := yamlConfig.Graph.MoonWatch; w != nil {
		if w.Enabled != nil {
			config.Graph.MoonWatch.Enabled = *w.Enabled
		}
		config.Graph.MoonWatch.AngularDistance = w.AngularDistance
	}
	if yamlConfig.Metrics.Enabled != nil {
		config.Metrics.Enabled = *yamlConfig.Metrics.Enabled
	}

	for _, l := range yamlConfig.Locations {
		config.Locations = append(config.Locations, LocationData{
			Name:      l.Name,
			Latitude:  l.Latitude,
			Longitude: l.Longitude,
		})
	}

	ApplyEnv(config)
	ApplyDefaults(config)
	if err := Validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

func (y *YAMLProvider) loaded() (*ConfigData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config, nil
}

// GetLocations returns the saved locations
func (y *YAMLProvider) GetLocations() ([]LocationData, error) {
	c, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return c.Locations, nil
}

// SaveLocation is not supported by YAML files.
func (y *YAMLProvider) SaveLocation(LocationData) error {
	return ErrReadOnly
}

// DeleteLocation is not supported by YAML files.
func (y *YAMLProvider) DeleteLocation(string) error {
	return ErrReadOnly
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags for parsing the file format
type ConfigYAML struct {
	Server    ServerYAML     `yaml:"server,omitempty"`
	Observer  ObserverYAML   `yaml:"observer,omitempty"`
	Locations []LocationYAML `yaml:"locations,omitempty"`
	Graph     GraphYAML      `yaml:"graph,omitempty"`
	Catalog   CatalogYAML    `yaml:"catalog,omitempty"`
	Alerts    AlertsYAML     `yaml:"alerts,omitempty"`
	Metrics   MetricsYAML    `yaml:"metrics,omitempty"`
	Log       LogYAML        `yaml:"log,omitempty"`
}

type ServerYAML struct {
	ListenAddr  string   `yaml:"listen-addr,omitempty"`
	Port        int      `yaml:"port,omitempty"`
	Cert        string   `yaml:"cert,omitempty"`
	Key         string   `yaml:"key,omitempty"`
	CORSOrigins []string `yaml:"cors-origins,omitempty"`
}

type ObserverYAML struct {
	Location         string `yaml:"location,omitempty"`
	UTCOffsetMinutes *int   `yaml:"utc-offset-minutes,omitempty"`
}

type LocationYAML struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

type GraphYAML struct {
	Resolution      string         `yaml:"resolution,omitempty"`
	ProximityChecks int            `yaml:"proximity-checks,omitempty"`
	Days            int            `yaml:"days,omitempty"`
	MaxDays         int            `yaml:"max-days,omitempty"`
	MaxSessions     int            `yaml:"max-sessions,omitempty"`
	SessionTTL      string         `yaml:"session-ttl,omitempty"`
	MoonWatch       *MoonWatchYAML `yaml:"moon-watch,omitempty"`
}

type MoonWatchYAML struct {
	Enabled         *bool   `yaml:"enabled,omitempty"`
	AngularDistance float64 `yaml:"angular-distance,omitempty"`
}

type CatalogYAML struct {
	Backend        string `yaml:"backend,omitempty"`
	SQLitePath     string `yaml:"sqlite-path,omitempty"`
	PostgresDSN    string `yaml:"postgres-dsn,omitempty"`
	SimbadEndpoint string `yaml:"simbad-endpoint,omitempty"`
	Timeout        string `yaml:"timeout,omitempty"`
}

type AlertsYAML struct {
	NATSURL string `yaml:"nats-url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

type MetricsYAML struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

type LogYAML struct {
	Debug bool   `yaml:"debug,omitempty"`
	Level string `yaml:"level,omitempty"`
}
