// Package server exposes altitude graphs over REST and pushes their redraws
// to browsers over websockets.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/startracker/internal/alerts"
	"github.com/chrissnell/startracker/internal/catalog"
	"github.com/chrissnell/startracker/internal/log"
	"github.com/chrissnell/startracker/internal/metrics"
	"github.com/chrissnell/startracker/internal/surface"
	"github.com/chrissnell/startracker/pkg/config"
	"github.com/chrissnell/startracker/pkg/responseformat"
	"github.com/chrissnell/startracker/pkg/sky"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const sweepInterval = time.Minute

// Deps are the collaborators a Server is built from. Metrics, Alerts and
// Health may be nil.
type Deps struct {
	Provider       *sky.Provider
	Search         *catalog.Search
	Hub            *surface.Hub
	Metrics        *metrics.Collector
	Alerts         *alerts.NATSPublisher
	ConfigProvider config.ConfigProvider
	Health         *catalog.HealthMonitor
}

// Server is the REST and websocket front end.
type Server struct {
	ctx context.Context
	wg  *sync.WaitGroup

	cfg            *config.ConfigData
	configProvider config.ConfigProvider
	provider       *sky.Provider
	search         *catalog.Search
	hub            *surface.Hub
	metrics        *metrics.Collector
	alerts         *alerts.NATSPublisher
	health         *catalog.HealthMonitor
	formatter      *responseformat.Formatter
	sessions       *Sessions

	Server http.Server
	now    func() time.Time
}

// New builds a server from cfg and deps. Start begins listening.
func New(ctx context.Context, wg *sync.WaitGroup, cfg *config.ConfigData, deps Deps) (*Server, error) {
	if deps.Provider == nil || deps.Search == nil || deps.Hub == nil || deps.ConfigProvider == nil {
		return nil, fmt.Errorf("server needs a provider, search, hub and config provider")
	}

	s := &Server{
		ctx:            ctx,
		wg:             wg,
		cfg:            cfg,
		configProvider: deps.ConfigProvider,
		provider:       deps.Provider,
		search:         deps.Search,
		hub:            deps.Hub,
		metrics:        deps.Metrics,
		alerts:         deps.Alerts,
		health:         deps.Health,
		formatter:      responseformat.NewFormatter(),
		sessions:       NewSessions(cfg.Graph.MaxSessions),
		now:            time.Now,
	}

	listenAddr := cfg.Server.ListenAddr
	if listenAddr == "" {
		log.Info("server.listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		listenAddr = "0.0.0.0"
	}
	s.Server.Addr = fmt.Sprintf("%v:%v", listenAddr, cfg.Server.Port)
	s.Server.Handler = s.Handler()

	return s, nil
}

// Handler returns the complete HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	origins := s.cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.setupRouter())
}

func (s *Server) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.metrics.Middleware)

	router.HandleFunc("/healthz", s.Health).Methods(http.MethodGet)
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		router.Handle(s.cfg.Metrics.Path, s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/graphs", s.CreateGraph).Methods(http.MethodPost)
	api.HandleFunc("/graphs/{id}", s.GetGraph).Methods(http.MethodGet)
	api.HandleFunc("/graphs/{id}", s.DeleteGraph).Methods(http.MethodDelete)
	api.HandleFunc("/graphs/{id}/chart", s.GetChart).Methods(http.MethodGet)
	api.HandleFunc("/graphs/{id}/legend", s.GetLegend).Methods(http.MethodGet)
	api.HandleFunc("/graphs/{id}/ws", s.ServeWS).Methods(http.MethodGet)

	api.HandleFunc("/graphs/{id}/objects", s.AddObject).Methods(http.MethodPost)
	api.HandleFunc("/graphs/{id}/objects", s.RemoveObjectsFrom).Methods(http.MethodDelete)
	api.HandleFunc("/graphs/{id}/objects/{index:[0-9]+}", s.SetObject).Methods(http.MethodPut)
	api.HandleFunc("/graphs/{id}/objects/{index:[0-9]+}", s.RemoveObject).Methods(http.MethodDelete)
	api.HandleFunc("/graphs/{id}/objects/{index:[0-9]+}/visibility", s.SetVisibility).Methods(http.MethodPut)

	api.HandleFunc("/graphs/{id}/range", s.SetRange).Methods(http.MethodPut)
	api.HandleFunc("/graphs/{id}/range/step", s.StepRange).Methods(http.MethodPost)
	api.HandleFunc("/graphs/{id}/location", s.SetLocation).Methods(http.MethodPut)
	api.HandleFunc("/graphs/{id}/timezone", s.SetTimeZone).Methods(http.MethodPut)

	api.HandleFunc("/graphs/{id}/watches", s.AddWatch).Methods(http.MethodPost)
	api.HandleFunc("/graphs/{id}/watches", s.GetWatches).Methods(http.MethodGet)
	api.HandleFunc("/graphs/{id}/alerts", s.GetAlerts).Methods(http.MethodGet)

	api.HandleFunc("/graphs/{id}/tooltip", s.GetTooltip).Methods(http.MethodGet)
	api.HandleFunc("/graphs/{id}/almanac", s.GetAlmanac).Methods(http.MethodGet)
	api.HandleFunc("/graphs/{id}/search", s.SearchIntoGraph).Methods(http.MethodPost)

	api.HandleFunc("/search", s.Search).Methods(http.MethodGet)
	api.HandleFunc("/search/previous", s.PreviousSearches).Methods(http.MethodGet)

	api.HandleFunc("/locations", s.GetLocations).Methods(http.MethodGet)
	api.HandleFunc("/locations", s.SaveLocation).Methods(http.MethodPost)
	api.HandleFunc("/locations/{name}", s.DeleteLocation).Methods(http.MethodDelete)

	return router
}

// Start serves until the server's context is cancelled.
func (s *Server) Start() error {
	log.Infof("starting startracker server on %s...", s.Server.Addr)
	s.wg.Add(2)

	go func() {
		defer s.wg.Done()

		var err error
		if s.cfg.Server.Cert != "" && s.cfg.Server.Key != "" {
			err = s.Server.ListenAndServeTLS(s.cfg.Server.Cert, s.cfg.Server.Key)
		} else {
			err = s.Server.ListenAndServe()
		}
		if err != http.ErrServerClosed {
			log.Errorf("server error: %v", err)
		}
	}()

	go func() {
		defer s.wg.Done()
		s.sweep()
		log.Info("shutting down the startracker server...")
		s.Server.Shutdown(context.Background())
	}()

	return nil
}

// sweep drops idle sessions until the context is cancelled.
func (s *Server) sweep() {
	ttl := s.cfg.Graph.SessionTTLDuration()
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if ttl > 0 {
				s.expireSessions(s.now().Add(-ttl))
			}
		}
	}
}

func (s *Server) expireSessions(cutoff time.Time) {
	for _, sess := range s.sessions.All() {
		sess.mu.Lock()
		if sess.lastUsed.Before(cutoff) && s.closeSession(sess) {
			log.Debugw("expired idle graph", "id", sess.ID)
		}
		sess.mu.Unlock()
	}
	s.metrics.SetActiveGraphs(s.sessions.Len())
}

// closeSession unregisters sess and drops everything kept for it. The caller
// holds sess.mu, so no request can redraw the graph after it is forgotten.
// It reports false if sess was already closed.
func (s *Server) closeSession(sess *Session) bool {
	if sess.closed {
		return false
	}
	sess.closed = true
	s.sessions.Remove(sess.ID)
	s.forget(sess.ID)
	return true
}

func (s *Server) forget(id string) {
	s.hub.Forget(id)
	s.metrics.Forget(id)
	if s.alerts != nil {
		s.alerts.Forget(id)
	}
}
