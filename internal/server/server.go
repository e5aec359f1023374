// Package server provides the resload development server: it serves an
// asset directory, lists the assets with their identities, renders
// manifests against them and pushes live updates when files change.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/resload/internal/assets"
	"github.com/leapstack-labs/resload/internal/notifier"
	"github.com/leapstack-labs/resload/internal/server/resources"
)

// topicAssets is published whenever a watched asset changes.
const topicAssets = "assets"

// Server is the development server.
type Server struct {
	assetsDir string
	port      int
	watch     bool
	minify    bool
	timeout   time.Duration
	logger    *slog.Logger
	notifier  *notifier.Notifier
}

// Config holds configuration for the server.
type Config struct {
	AssetsDir string
	Port      int
	Watch     bool
	Minify    bool
	// Timeout bounds each POST /render session.
	Timeout time.Duration
	Logger  *slog.Logger
}

// New creates a server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Server{
		assetsDir: cfg.AssetsDir,
		port:      cfg.Port,
		watch:     cfg.Watch,
		minify:    cfg.Minify,
		timeout:   timeout,
		logger:    logger,
		notifier:  notifier.New(),
	}
}

// Handler returns the router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/", s.index)
	r.Get("/events", s.events)
	r.Get("/identity", s.identity)
	r.Post("/render", s.render)
	r.Get("/assets/*", s.asset)
	r.Handle("/static/*", resources.Handler())
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting dev server", "addr", fmt.Sprintf("http://localhost:%d", s.port), "assets", s.assetsDir)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down dev server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Changed tells connected clients that the asset directory changed.
func (s *Server) Changed() {
	s.notifier.Publish(topicAssets)
}

// watchFiles publishes asset changes until ctx is done.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, s.assetsDir); err != nil {
		// Serving still works without live updates.
		s.logger.Error("failed to watch assets directory", "error", err)
	}

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 && isDir(event.Name) {
				_ = watcher.Add(event.Name)
				continue
			}
			if assets.Kind(event.Name) == "" {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}
			name := event.Name
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("asset changed", "file", name)
				s.Changed()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds dir and every subdirectory to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
