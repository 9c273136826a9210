// Package httpapi serves health, Prometheus metrics and a read-only JSON
// view of the bell calendar and the points ledger.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chris/greenclass/internal/bell"
	"github.com/chris/greenclass/internal/store"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type Config struct {
	Calendar *bell.Calendar
	Ledger   store.Ledger
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

type server struct {
	calendar *bell.Calendar
	ledger   store.Ledger
	logger   *slog.Logger
}

func New(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &server{calendar: cfg.Calendar, ledger: cfg.Ledger, logger: cfg.Logger}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/api", func(r chi.Router) {
		r.Get("/bells", s.bells)
		r.Get("/users/{userID}/points", s.points)
		r.Get("/leaderboard", s.leaderboard)
	})
	return r
}

func (s *server) bells(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"periods": s.calendar.Periods()})
}

func (s *server) points(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	p, err := s.ledger.Points(r.Context(), userID)
	if err != nil {
		s.logger.Error("api: reading points", "user", userID, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read points")
		return
	}
	s.writeJSON(w, http.StatusOK, store.Standing{UserID: userID, Points: p})
}

func (s *server) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLimit)
	}
	top, err := s.ledger.Top(r.Context(), limit)
	if err != nil {
		s.logger.Error("api: reading leaderboard", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read leaderboard")
		return
	}
	if top == nil {
		top = []store.Standing{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"standings": top})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
