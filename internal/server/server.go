// Package server exposes PR-SGD runs over HTTP: submitting runs, polling
// their state, reading recorded histories, and streaming per-round
// progress over SSE.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Ziyad-Benomar/Parallel-Restarted-SGD/internal/store"
)

// Server represents the HTTP server
type Server struct {
	runManager *RunManager
	runStore   store.Store // may be nil; runs are then kept in memory only
	addr       string
	server     *http.Server
}

// NewServer creates a new HTTP server. runStore may be nil to disable
// persistence.
func NewServer(addr string, runStore store.Store) *Server {
	return &Server{
		runManager: NewRunManager(),
		runStore:   runStore,
		addr:       addr,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/runs/", s.handleRunsWithID)

	// Wrap with middleware
	handler := s.loggingMiddleware(s.corsMiddleware(mux))

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: handler,
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleRuns handles /api/v1/runs
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateRun(w, r)
	case http.MethodGet:
		s.handleListRuns(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRunsWithID handles /api/v1/runs/:id/*
func (s *Server) handleRunsWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Run ID required", http.StatusBadRequest)
		return
	}

	runID := parts[0]

	// Route based on subpath
	if len(parts) == 1 || parts[1] == "status" {
		s.handleGetRunStatus(w, r, runID)
	} else if parts[1] == "history" {
		s.handleGetRunHistory(w, r, runID)
	} else if parts[1] == "stream" {
		s.handleRunStream(w, r, runID)
	} else {
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleCreateRun handles POST /api/v1/runs
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var config RunConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	applyConfigDefaults(&config)
	if err := config.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	run := s.runManager.CreateRun(config)

	// Start worker in background
	go runRun(s.runManager, s.runStore, run.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(run)
}

// applyConfigDefaults fills zero-valued fields with usable defaults.
func applyConfigDefaults(config *RunConfig) {
	if config.Dimension <= 0 {
		config.Dimension = 10
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.Iterations <= 0 {
		config.Iterations = 50
	}
	if config.LearningRate <= 0 {
		config.LearningRate = 0.05
	}
	if len(config.LocalSteps) == 0 {
		config.LocalSteps = make([]int, config.Workers)
		for i := range config.LocalSteps {
			config.LocalSteps[i] = 10
		}
	}
	if config.Assignment == "" {
		config.Assignment = store.AssignShared
	}
	if config.InitMin == 0 && config.InitMax == 0 {
		config.InitMin = -10
		config.InitMax = 10
	}
	if config.Seed == 0 {
		config.Seed = 42
	}
}

// handleListRuns handles GET /api/v1/runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.runManager.ListRuns()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// handleGetRunStatus handles GET /api/v1/runs/:id/status
func (s *Server) handleGetRunStatus(w http.ResponseWriter, r *http.Request, runID string) {
	run, exists := s.runManager.GetRun(runID)
	if !exists {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	var elapsed time.Duration
	if run.EndTime != nil {
		elapsed = run.EndTime.Sub(run.StartTime)
	} else {
		elapsed = time.Since(run.StartTime)
	}

	roundsPerSecond := float64(0)
	if elapsed.Seconds() > 0 {
		roundsPerSecond = float64(run.Rounds) / elapsed.Seconds()
	}

	response := map[string]interface{}{
		"id":              run.ID,
		"state":           run.State,
		"config":          run.Config,
		"rounds":          run.Rounds,
		"loss":            run.Loss,
		"gradNorm":        run.GradNorm,
		"elapsed":         elapsed.Seconds(),
		"roundsPerSecond": roundsPerSecond,
		"startTime":       run.StartTime,
		"endTime":         run.EndTime,
		"error":           run.Error,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleGetRunHistory handles GET /api/v1/runs/:id/history
func (s *Server) handleGetRunHistory(w http.ResponseWriter, r *http.Request, runID string) {
	run, exists := s.runManager.GetRun(runID)
	if !exists {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"runId":           run.ID,
		"lossHistory":     run.LossHistory,
		"gradNormHistory": run.GradNormHistory,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
