package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/chrissnell/startracker/internal/app"
	"github.com/chrissnell/startracker/internal/log"
	"github.com/chrissnell/startracker/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source:\n\t\t\t  YAML: config.yaml\n\t\t\t  SQLite: startracker.db (saved locations are editable through the API)")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	envFile := flag.String("env-file", ".env", "Optional file of STARTRACKER_* environment overrides")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("startracker %s\n", version)
		os.Exit(0)
	}

	if err := config.LoadEnvFiles(*envFile); err != nil {
		fmt.Printf("Failed to read %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	// Set up logging
	if err := log.Init(*debug, os.Getenv(config.EnvLogLevel)); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	provider, cfgData, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	defer provider.Close()

	if cfgData.Log.Debug || cfgData.Log.Level != "" {
		if err := log.Init(*debug || cfgData.Log.Debug, cfgData.Log.Level); err != nil {
			log.Errorf("Failed to apply log settings: %v", err)
			os.Exit(1)
		}
	}

	// Create and run the application
	application := app.New(provider, log.GetSugaredLogger())
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}

func loadConfig(cfgFile, cfgBackend string) (config.ConfigProvider, *config.ConfigData, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		base := config.Default()
		config.ApplyEnv(base)
		if err := config.Validate(base); err != nil {
			return nil, nil, err
		}
		provider, err = config.NewSQLiteProvider(filename, base)
		if err != nil {
			return nil, nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}

	cfgData, err := provider.LoadConfig()
	if err != nil {
		provider.Close()
		return nil, nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return provider, cfgData, nil
}
