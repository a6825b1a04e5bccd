package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override file configuration.
const (
	EnvPostgresDSN    = "STARTRACKER_POSTGRES_DSN"
	EnvSQLitePath     = "STARTRACKER_SQLITE_PATH"
	EnvCatalogBackend = "STARTRACKER_CATALOG_BACKEND"
	EnvSimbadEndpoint = "STARTRACKER_SIMBAD_ENDPOINT"
	EnvNATSURL        = "STARTRACKER_NATS_URL"
	EnvPort           = "STARTRACKER_PORT"
	EnvLogLevel       = "STARTRACKER_LOG_LEVEL"
)

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnv overrides c with any STARTRACKER_* variables that are set.
func ApplyEnv(c *ConfigData) {
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		c.Catalog.PostgresDSN = v
	}
	if v := os.Getenv(EnvSQLitePath); v != "" {
		c.Catalog.SQLitePath = v
	}
	if v := os.Getenv(EnvCatalogBackend); v != "" {
		c.Catalog.Backend = v
	}
	if v := os.Getenv(EnvSimbadEndpoint); v != "" {
		c.Catalog.SimbadEndpoint = v
	}
	if v := os.Getenv(EnvNATSURL); v != "" {
		c.Alerts.NATSURL = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}
