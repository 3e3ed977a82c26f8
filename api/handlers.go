package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/DeafMist/ops-radar/backend/internal/inputs"
	"github.com/DeafMist/ops-radar/backend/internal/models"
	"github.com/DeafMist/ops-radar/backend/internal/store"
)

const maxBodyBytes = 1 << 20

type server struct {
	log   *slog.Logger
	svc   *inputs.Service
	store store.Store
}

type errorResponse struct {
	Error string `json:"error"`
}

type createInputRequest struct {
	Text string `json:"text"`
}

func (s *server) routes(origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/inputs", s.handleCreateInput)
		r.Get("/inputs", s.handleListInputs)
		r.Get("/analytics", s.handleAnalytics)
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if p, ok := s.store.(store.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleCreateInput(w http.ResponseWriter, r *http.Request) {
	var req createInputRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Text required"})
		return
	}

	rec, err := s.svc.Submit(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (s *server) handleListInputs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := inputs.Filter{
		Category:    q.Get("category"),
		Tag:         q.Get("tag"),
		TagContains: q.Get("tagContains"),
		Limit:       parseLimit(q.Get("limit")),
	}

	records, err := s.svc.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (s *server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Analytics(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message})
		return
	}

	s.log.Error("request failed",
		slog.Any("err", err),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// parseLimit returns 0 (no limit) for anything that is not a positive integer.
func parseLimit(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return 0
	}
	return value
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.LogAttrs(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// nothing better to do
	}
}
