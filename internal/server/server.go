// Package server provides the HTTP API for Seiri.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/takibi/seiri/internal/config"
	"github.com/takibi/seiri/internal/evidence"
	"github.com/takibi/seiri/internal/models"
	"github.com/takibi/seiri/internal/pipeline"
	"github.com/takibi/seiri/internal/storage"
	"github.com/takibi/seiri/internal/watcher"
)

// Server is the HTTP server for the Seiri API.
type Server struct {
	pipeline *pipeline.Pipeline
	store    storage.Storage
	index    evidence.Index
	cfg      *config.Config
	logger   *zap.Logger
	server   *http.Server

	watch      *watcher.Watcher
	configPath string
	configMu   sync.Mutex

	mu         sync.RWMutex
	lastResult *models.RunResult
}

// NewServer creates a server with the given dependencies. store and index may
// be nil; the corresponding endpoints answer 501.
func NewServer(
	pipe *pipeline.Pipeline,
	store storage.Storage,
	index evidence.Index,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline: pipe,
		store:    store,
		index:    index,
		cfg:      cfg,
		logger:   logger,
	}
}

// AttachWatch wires a drop-directory watcher. The watch management endpoints
// become active and directory changes are persisted back to configPath. Call
// before Start.
func (s *Server) AttachWatch(w *watcher.Watcher, configPath string) {
	s.watch = w
	s.configPath = configPath
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/captures", s.handleIngestCapture)
	r.Post("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/runs", s.handleListRuns)
	r.Get("/api/v1/runs/{id}", s.handleGetRun)
	r.Get("/api/v1/priorities", s.handlePriorities)
	r.Get("/api/v1/techniques", s.handleTechniques)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/watch/directories", s.handleWatchDirectoriesList)
	r.Post("/api/v1/watch/directories", s.handleWatchDirectoriesAdd)
	r.Delete("/api/v1/watch/directories", s.handleWatchDirectoriesRemove)
	r.Get("/health", s.handleHealth)

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// SetLastResult records the most recent run so the report endpoints can serve
// it. Exposed for the watcher callback, which runs outside a request.
func (s *Server) SetLastResult(result *models.RunResult) {
	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()
}

func (s *Server) getLastResult() *models.RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}
