package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/takibi/seiri/internal/capture"
	"github.com/takibi/seiri/internal/config"
	"github.com/takibi/seiri/internal/storage"
)

func (s *Server) handleIngestCapture(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	cap, err := capture.Parse(data)
	if err != nil {
		var malformed *capture.MalformedInputError
		if errors.As(err, &malformed) {
			s.respondError(w, http.StatusBadRequest, malformed.Error())
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid capture")
		return
	}
	s.logger.Debug("ingest capture request", zap.String("case_id", cap.CaseID), zap.Int("artifacts", len(cap.Artifacts)))
	result, err := s.pipeline.RunCapture(r.Context(), cap)
	if err != nil {
		s.logger.Error("run failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.SetLastResult(result)
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"run_id":  result.RunID,
		"case_id": result.CaseID,
		"counts":  result.Counts,
	})
}

type searchRequest struct {
	Query    string `json:"query"`
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		s.respondError(w, http.StatusNotImplemented, "evidence index not enabled")
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}
	s.logger.Debug("search request", zap.String("query", req.Query), zap.String("category", req.Category), zap.Int("limit", req.Limit))
	hits, err := s.index.Search(r.Context(), req.Query, req.Category, req.Limit)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"hits": hits, "count": len(hits)})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotImplemented, "run storage not enabled")
		return
	}
	limit := queryInt(r, "limit", 20)
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotImplemented, "run storage not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	s.respondJSON(w, http.StatusOK, run)
}

func (s *Server) handlePriorities(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		result := s.getLastResult()
		if result == nil || result.Priorities == nil {
			s.respondError(w, http.StatusNotFound, "no run available")
			return
		}
		s.respondJSON(w, http.StatusOK, result.Priorities)
		return
	}
	runID := r.URL.Query().Get("run_id")
	minScore := queryInt(r, "min_score", 0)
	limit := queryInt(r, "limit", 100)
	records, err := s.store.ListPriorities(r.Context(), runID, minScore, limit)
	if err != nil {
		s.logger.Error("list priorities failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"prioritized": records})
}

func (s *Server) handleTechniques(w http.ResponseWriter, r *http.Request) {
	result := s.getLastResult()
	if result == nil || result.Techniques == nil {
		s.respondError(w, http.StatusNotFound, "no run available")
		return
	}
	s.respondJSON(w, http.StatusOK, result.Techniques)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := map[string]interface{}{}

	if s.store != nil {
		runCount, err := s.store.CountRuns(ctx)
		if err != nil {
			s.logger.Error("status: count runs failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		recordCount, err := s.store.CountScoreRecords(ctx)
		if err != nil {
			s.logger.Error("status: count score records failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["runs"] = runCount
		resp["score_records"] = recordCount
	}
	if s.index != nil {
		if indexed, err := s.index.Count(); err == nil {
			resp["indexed_items"] = indexed
		}
	}

	configInfo := map[string]interface{}{
		"case_id":           s.cfg.CaseID,
		"sample_limit":      s.cfg.SampleLimit,
		"entry_limit_bytes": s.cfg.Sinks.Loki.EntryLimitBytes,
		"database_path":     s.cfg.Storage.DatabasePath,
		"bleve_index_path":  s.cfg.Storage.BleveIndexPath,
		"output_dir":        s.cfg.Storage.OutputDir,
	}
	diskBytes, err := storage.DiskUsageBytes(
		s.cfg.Storage.DatabasePath,
		s.cfg.Storage.BleveIndexPath,
		s.cfg.Storage.OutputDir,
	)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	dirs := s.watch.Directories()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": dirs})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Path != "" {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistWatchDirectories() {
	if s.configPath == "" {
		return
	}
	s.configMu.Lock()
	s.cfg.Watch.Directories = s.watch.Directories()
	err := config.Save(s.configPath, s.cfg)
	s.configMu.Unlock()
	if err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
