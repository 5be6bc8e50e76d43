// Package server assembles and runs the diagnostic HTTP daemon.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"edgeline/diagd/pkg/config"
	"edgeline/diagd/pkg/diag"
	"edgeline/diagd/pkg/envoy"
	"edgeline/diagd/pkg/generation"
	"edgeline/diagd/pkg/health"
	"edgeline/diagd/pkg/middleware"
	"edgeline/diagd/pkg/notices"
	"edgeline/diagd/pkg/scout"
	"edgeline/diagd/pkg/snapshot"
	"edgeline/diagd/pkg/telemetry/metrics"
)

// Prefix is the base path of every diagnostic endpoint.
const Prefix = "/edgeline/v0"

// Server wires the diagnostic collaborators together and runs the HTTP
// server with graceful shutdown.
type Server struct {
	config  *config.Config
	logger  *slog.Logger
	version string

	state    *health.State
	store    *notices.Store
	stats    *envoy.Stats
	builder  *snapshot.Builder
	service  *diag.Service
	updater  *health.Updater
	watcher  *generation.Watcher
	archive  *scout.Archive
	registry *metrics.Collector

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer builds the full collaborator graph from configuration.
func NewServer(cfg *config.Config, version string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	state := health.NewState()
	store := notices.NewStore(cfg.Diag.NoticePath)
	stats := envoy.New(cfg.Envoy.AdminURL, cfg.Envoy.Timeout, logger)

	var archive *scout.Archive
	if cfg.Scout.ScoutEnabled() && cfg.Scout.ArchivePath != "" {
		var err error
		archive, err = scout.OpenArchive(cfg.Scout.ArchivePath)
		if err != nil {
			return nil, fmt.Errorf("opening scout archive: %w", err)
		}
	}

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.MetricsEnabled() {
		collector = metrics.NewCollector(cfg.Telemetry.Metrics)
	}

	builder := snapshot.NewBuilder(snapshot.BuilderConfig{
		ConfigDir:     cfg.Diag.ConfigDir,
		ConfigVersion: cfg.Envoy.ConfigVersion,
		K8s:           cfg.Diag.K8s,
		Logger:        logger,
	})

	service := diag.NewService(diag.Options{
		Builder: builder,
		Notices: store,
		Health:  state,
		Stats:   stats,
		Scout:   scout.New(cfg.Scout.ScoutEnabled(), archive, logger),
		Metrics: collector,
		Version: version,
		Verbose: cfg.Diag.Verbose,
		Logger:  logger,
	})

	srv := &Server{
		config:       cfg,
		logger:       logger,
		version:      version,
		state:        state,
		store:        store,
		stats:        stats,
		builder:      builder,
		service:      service,
		archive:      archive,
		registry:     collector,
		shutdownChan: make(chan struct{}),
	}

	if cfg.Diag.HealthChecksEnabled() {
		srv.updater = health.NewUpdater(state, stats.Update, cfg.Diag.UpdateInterval, logger)
	}

	watcher, err := generation.NewWatcher(cfg.Diag.ConfigDir, logger)
	if err != nil {
		logger.Warn("could not create generation watcher", "error", err)
	} else {
		srv.watcher = watcher
	}

	return srv, nil
}

// Start runs the background jobs and the HTTP server, blocking until the
// context is cancelled, a shutdown signal arrives, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	if s.updater != nil {
		if err := s.updater.Start(); err != nil {
			return fmt.Errorf("starting health updater: %w", err)
		}
	}

	if s.watcher != nil {
		go func() {
			err := s.watcher.Watch(ctx, func(gen generation.Generation) {
				if s.registry != nil {
					s.registry.SetLatestGeneration(gen.ID)
				}
			})
			if err != nil {
				s.logger.Warn("generation watcher exited", "error", err)
			}
		}()
	}

	s.httpServer = &http.Server{
		Addr:           s.config.Server.ListenAddress,
		Handler:        s.setupRoutes(),
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting diagnostic server",
			"address", s.config.Server.ListenAddress,
			"version", s.version,
			"config_dir", s.config.Diag.ConfigDir,
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the HTTP server and the background jobs.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown",
			"timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		if s.updater != nil {
			s.updater.Stop()
		}
		if s.watcher != nil {
			if err := s.watcher.Stop(); err != nil {
				s.logger.Warn("error stopping generation watcher", "error", err)
			}
		}
		if s.archive != nil {
			if err := s.archive.Close(); err != nil {
				s.logger.Warn("error closing scout archive", "error", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("diagnostic server stopped")
	})

	return shutdownErr
}

// setupRoutes registers the diagnostic endpoints. The probes answer bare,
// outside the request envelope: a probe must stay cheap and must never
// depend on the rebuild pipeline.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+Prefix+"/favicon.ico", diag.Favicon())
	mux.Handle(Prefix+"/check_alive", health.LivenessHandler(s.state))
	mux.Handle(Prefix+"/check_ready", health.ReadinessHandler(s.state))

	mux.Handle("GET "+Prefix+"/diag/{$}",
		s.instrument("overview", middleware.Envelope(s.logger, s.service.Overview)))
	mux.Handle("GET "+Prefix+"/diag/{source...}",
		s.instrument("source", middleware.Envelope(s.logger, s.service.Source)))

	if s.registry != nil {
		mux.Handle("GET "+s.config.Telemetry.Metrics.Path, s.registry.Handler())
	}

	return mux
}

// Handler returns the configured HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// IsRunning reports whether Start is active.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
