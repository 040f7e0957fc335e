// Package api exposes the webhook endpoint and the operator read API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"example.com/stravahook/internal/domain"
)

// Submitter hands an activity off for background processing and returns a job id.
type Submitter interface {
	Submit(activityID int64) string
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler coordinates HTTP requests with the processing pipeline and the ledger.
type Handler struct {
	submitter   Submitter
	ledger      *domain.Ledger
	verifyToken string
	health      Pinger
	logger      *slog.Logger
}

// Option customises a Handler.
type Option func(*Handler)

// WithVerifyToken sets the token expected on subscription handshakes.
func WithVerifyToken(token string) Option {
	return func(h *Handler) {
		h.verifyToken = token
	}
}

// WithHealthCheck makes /healthz fail while pinger is unreachable.
func WithHealthCheck(pinger Pinger) Option {
	return func(h *Handler) {
		h.health = pinger
	}
}

// WithLogger overrides the handler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler builds a Handler.
func NewHandler(submitter Submitter, ledger *domain.Ledger, opts ...Option) *Handler {
	h := &Handler{
		submitter: submitter,
		ledger:    ledger,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", h.webhook)
	mux.HandleFunc("/v1/processed-activities", h.processedActivities)
	mux.HandleFunc("/v1/processed-activities/", h.processedActivityByID)
	mux.HandleFunc("/healthz", h.healthz)
}

// healthz reports OK for container health checks once the dedup store answers.
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "health check failed", "err", err)
			writeText(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
	}
	writeText(w, http.StatusOK, "ok")
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
