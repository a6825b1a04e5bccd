// Package app wires the startracker services together and runs them until
// shutdown.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/chrissnell/startracker/internal/alerts"
	"github.com/chrissnell/startracker/internal/catalog"
	"github.com/chrissnell/startracker/internal/log"
	"github.com/chrissnell/startracker/internal/metrics"
	"github.com/chrissnell/startracker/internal/server"
	"github.com/chrissnell/startracker/internal/surface"
	"github.com/chrissnell/startracker/pkg/config"
	"github.com/chrissnell/startracker/pkg/sky"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const healthInterval = 30 * time.Second

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
	registerer     prometheus.Registerer
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
		registerer:     prometheus.DefaultRegisterer,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	store, err := NewCatalogStore(cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	resolver := catalog.NewSimbadClient(cfg.Catalog.SimbadEndpoint, cfg.Catalog.TimeoutDuration())
	deps := server.Deps{
		Provider:       sky.NewProvider(cfg.Graph.ResolutionDuration()),
		Search:         catalog.NewSearch(store, resolver),
		Hub:            surface.NewHub(),
		ConfigProvider: a.configProvider,
		Health:         catalog.NewHealthMonitor(),
	}

	if cfg.Metrics.Enabled {
		if deps.Metrics, err = metrics.NewCollector(a.registerer); err != nil {
			return fmt.Errorf("error registering metrics: %w", err)
		}
	}

	if cfg.Alerts.NATSURL != "" {
		nc, err := alerts.Connect(alerts.Config{URL: cfg.Alerts.NATSURL})
		if err != nil {
			return err
		}
		defer nc.Drain()
		deps.Alerts = alerts.NewNATSPublisher(nc, cfg.Alerts.Subject)
		a.logger.Infof("publishing proximity alerts to %s.<graph>", cfg.Alerts.Subject)
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		deps.Hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		deps.Health.Run(ctx, store, healthInterval)
	}()

	srv, err := server.New(ctx, &wg, cfg, deps)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// NewCatalogStore opens the search cache named by cfg.Backend.
func NewCatalogStore(cfg config.CatalogData) (catalog.Store, error) {
	switch cfg.Backend {
	case "", config.CatalogMemory:
		return catalog.NewMemoryStore(), nil
	case config.CatalogSQLite:
		return catalog.NewSQLiteStore(cfg.SQLitePath)
	case config.CatalogPostgres:
		return catalog.NewPostgresStore(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported catalog backend %q", cfg.Backend)
	}
}
