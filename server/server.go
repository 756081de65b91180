// Package server hosts the interactive bubble map over HTTP. Each browser session
// owns a layout engine that runs in the background until the session is closed or
// goes idle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/TFMV/liquiditymap/catalog"
	"github.com/TFMV/liquiditymap/graph"
	"github.com/TFMV/liquiditymap/physics"
)

// Config for the server
type Config struct {
	Port         int
	Catalog      *catalog.Catalog
	Table        graph.Table
	Layout       physics.Config
	PolicyNodes  bool
	TickInterval time.Duration
	SessionTTL   time.Duration
	Logger       *zap.Logger
	Registry     *prometheus.Registry
	Now          func() time.Time
}

func (c *Config) setDefaults() {
	if c.Catalog == nil {
		c.Catalog = catalog.Default()
	}
	if c.Table.Entries == nil {
		c.Table = graph.DefaultTable()
	}
	if !c.Layout.Viewport.Valid() {
		c.Layout = physics.DefaultConfig()
	}
	if c.TickInterval <= 0 {
		c.TickInterval = physics.DefaultTickInterval
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 10 * time.Minute
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Registry == nil {
		c.Registry = prometheus.NewRegistry()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Server serves the bubble map surface and its JSON API
type Server struct {
	config   Config
	logger   *zap.Logger
	sessions *sessionStore
	layout   *physics.Metrics
	mux      *http.ServeMux

	ctx    context.Context
	cancel context.CancelFunc

	sessionsCreated prometheus.Counter
	sessionsActive  prometheus.Gauge
}

// New creates a server. Engines started by the server stop when Close is called.
func New(config Config) *Server {
	config.setDefaults()
	f := promauto.With(config.Registry)

	s := &Server{
		config:   config,
		logger:   config.Logger,
		sessions: newSessionStore(),
		layout:   physics.NewMetrics(config.Registry),
		mux:      http.NewServeMux(),
		sessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: "liquiditymap",
			Subsystem: "server",
			Name:      "sessions_created_total",
			Help:      "Interactive sessions opened.",
		}),
		sessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "liquiditymap",
			Subsystem: "server",
			Name:      "sessions_active",
			Help:      "Interactive sessions currently open.",
		}),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	s.mux.HandleFunc("GET /api/sessions/{id}/frame", s.handleFrame)
	s.mux.HandleFunc("GET /api/sessions/{id}/snapshot", s.handleSnapshot)
	s.mux.HandleFunc("GET /api/sessions/{id}/selection", s.handleSelection)
	s.mux.HandleFunc("POST /api/sessions/{id}/pointer", s.handlePointer)
	s.mux.HandleFunc("POST /api/sessions/{id}/resize", s.handleResize)
	s.mux.HandleFunc("POST /api/sessions/{id}/close", s.handleClose)
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.handleClose)
	s.mux.HandleFunc("GET /api/indicators", s.handleIndicators)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
}

// Handler returns the server's routes
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves on the configured port until ctx is cancelled, then shuts down
// gracefully and stops every engine
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go s.reapLoop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.Int("port", s.config.Port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := server.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// Close stops every session's engine
func (s *Server) Close() {
	s.cancel()
	for _, sess := range s.sessions.drain() {
		sess.close()
		s.sessionsActive.Dec()
	}
}

func (s *Server) reapLoop() {
	interval := s.config.SessionTTL / 2
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Reap(s.config.Now())
		}
	}
}

// Reap closes sessions that have not been touched for longer than the TTL and
// returns how many were closed
func (s *Server) Reap(now time.Time) int {
	idle := s.sessions.expire(now.Add(-s.config.SessionTTL))
	for _, sess := range idle {
		sess.close()
		s.sessionsActive.Dec()
		s.logger.Info("closed idle session", zap.String("session", sess.id))
	}
	return len(idle)
}
