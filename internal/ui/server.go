// Package ui provides the web UI for configuring the graph connection and
// asking questions.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sparqlchat/internal/pipeline"
	"github.com/leapstack-labs/sparqlchat/internal/settings"
	"github.com/leapstack-labs/sparqlchat/internal/state"
	"github.com/leapstack-labs/sparqlchat/internal/ui/notifier"
	"github.com/leapstack-labs/sparqlchat/internal/ui/router"
)

const (
	watchDebounce = 100 * time.Millisecond

	// DefaultSessionIdle is how long a session's pipeline is kept after its
	// last request.
	DefaultSessionIdle = 30 * time.Minute
)

// Server is the main UI server.
type Server struct {
	settings     *settings.Manager
	registry     *pipeline.Registry
	history      state.Store
	sessionStore *sessions.CookieStore
	sessionIdle  time.Duration
	port         int
	watch        bool
	dev          bool
	logger       *slog.Logger
	notifier     *notifier.Notifier
}

// Config holds configuration for the UI server.
type Config struct {
	Settings      *settings.Manager
	Builder       pipeline.Builder
	History       state.Store // optional
	Port          int
	Watch         bool
	Dev           bool
	SessionSecret string        // random per process when empty
	SessionIdle   time.Duration // DefaultSessionIdle when zero
	Logger        *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(32)
	}
	sessionStore := sessions.NewCookieStore(secret)
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	idle := cfg.SessionIdle
	if idle <= 0 {
		idle = DefaultSessionIdle
	}

	return &Server{
		settings:     cfg.Settings,
		registry:     pipeline.NewRegistry(cfg.Builder),
		history:      cfg.History,
		sessionStore: sessionStore,
		sessionIdle:  idle,
		port:         cfg.Port,
		watch:        cfg.Watch,
		dev:          cfg.Dev,
		logger:       logger,
		notifier:     notifier.New(),
	}
}

// Handler builds the HTTP handler with all routes and middleware.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Compress(5),
	)
	if s.dev {
		r.Use(middleware.Logger)
	}

	if err := router.SetupRoutes(r, s.settings, s.registry, s.history, s.sessionStore, s.notifier, s.logger, s.dev); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchSettings(egctx)
		})
	}

	eg.Go(func() error {
		s.sweepSessions(egctx, min(s.sessionIdle, time.Minute))
		return nil
	})

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// Registry returns the per-session pipeline registry.
func (s *Server) Registry() *pipeline.Registry {
	return s.registry
}

// sweepSessions drops idle session pipelines every interval until ctx is done.
func (s *Server) sweepSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.registry.Sweep(s.sessionIdle); n > 0 {
				s.logger.Debug("dropped idle sessions", "count", n, "remaining", s.registry.Len())
			}
		}
	}
}

// watchSettings reloads the settings when the file changes on disk and pushes
// the new values to open settings forms. The parent directory is watched so
// editors that replace the file are picked up.
func (s *Server) watchSettings(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	path := filepath.Clean(s.settings.Path())
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		s.logger.Error("failed to create settings directory", "dir", dir, "error", err)
	}
	if err := watcher.Add(dir); err != nil {
		// Don't fail - continue without watching
		s.logger.Error("failed to watch settings directory", "dir", dir, "error", err)
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, s.reloadSettings)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// reloadSettings re-reads the settings file and notifies listeners when the
// values changed.
func (s *Server) reloadSettings() {
	current, changed := s.settings.Reload()
	if !changed {
		return
	}
	s.logger.Info("settings file changed", "host", current.Host, "region", current.Region, "model", current.ModelID)
	s.notifier.Broadcast(notifier.TopicSettings)
}
