package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"systemtrade/internal/store"
	"systemtrade/pkg/systemtrade"
)

const defaultRunLimit = 50

// Server serves backtest results from the run and signal stores.
type Server struct {
	runs    store.RunStore
	signals store.SignalStore
	log     *slog.Logger
}

// NewServer creates a results API server over the given stores.
func NewServer(runs store.RunStore, signals store.SignalStore, log *slog.Logger) *Server {
	return &Server{runs: runs, signals: signals, log: log}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /api/runs/{id}/signals", s.handleGetSignals)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.log.Error("listing runs", "error", err)
		writeError(w, http.StatusInternalServerError, "listing runs")
		return
	}

	resp := systemtrade.RunsResponse{Runs: make([]systemtrade.Run, 0, len(runs))}
	for i := range runs {
		resp.Runs = append(resp.Runs, convertRun(&runs[i]))
	}
	writeJSON(w, resp)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.log.Error("loading run", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "loading run")
		return
	}
	writeJSON(w, convertRunDetail(run))
}

func (s *Server) handleGetSignals(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.runs.GetRun(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.log.Error("loading run", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "loading run")
		return
	}

	signals, err := s.signals.ListSignals(r.Context(), id)
	if err != nil {
		s.log.Error("listing signals", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "listing signals")
		return
	}
	writeJSON(w, systemtrade.SignalsResponse{RunID: id, Signals: convertSignals(signals)})
}
