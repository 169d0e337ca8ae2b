package trigger

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/thomas-vilte/issuebot/internal/logger"
	"github.com/thomas-vilte/issuebot/internal/models"
	"github.com/thomas-vilte/issuebot/internal/monitor"
)

// Monitor is what the HTTP surface needs from the repository monitor.
type Monitor interface {
	CycleRunner
	Repositories() []models.Repository
	Status() monitor.Status
}

type repositoryResponse struct {
	Organization string `json:"organization"`
	Name         string `json:"name"`
	FullName     string `json:"full_name"`
}

// Handler serves the on-demand trigger and the diagnostic endpoints:
//
//	POST /monitor        run a cycle now, 204 once it completed
//	GET  /repositories   watched repositories
//	GET  /status         running flag and last cycle summary
//	GET  /healthz        liveness
type Handler struct {
	monitor Monitor
	log     *slog.Logger
	mux     *http.ServeMux
}

type HandlerOption func(*Handler)

func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

func NewHandler(m Monitor, opts ...HandlerOption) *Handler {
	h := &Handler{
		monitor: m,
		log:     slog.Default(),
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.mux.HandleFunc("POST /monitor", h.runCycle)
	h.mux.HandleFunc("GET /repositories", h.repositories)
	h.mux.HandleFunc("GET /status", h.status)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) runCycle(w http.ResponseWriter, r *http.Request) {
	// a client hanging up must not cut the cycle short
	ctx := context.WithoutCancel(r.Context())
	ctx = logger.WithLogger(ctx, h.log.With(
		"trigger", "http",
		"request_id", uuid.NewString(),
		"remote_addr", r.RemoteAddr))

	start := time.Now()
	h.monitor.RunCycle(ctx)

	logger.Info(ctx, "on-demand cycle completed", "duration_ms", time.Since(start).Milliseconds())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) repositories(w http.ResponseWriter, _ *http.Request) {
	repos := h.monitor.Repositories()
	body := make([]repositoryResponse, 0, len(repos))
	for _, repo := range repos {
		body = append(body, repositoryResponse{
			Organization: repo.Organization,
			Name:         repo.Name,
			FullName:     repo.String(),
		})
	}
	h.writeJSON(w, http.StatusOK, body)
}

func (h *Handler) status(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.monitor.Status())
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to write response", "error", err)
	}
}
