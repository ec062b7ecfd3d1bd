package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	domain "github.com/oshokin/next-alarm/internal/domain/alarm"
	"github.com/oshokin/next-alarm/internal/logger"
	"github.com/oshokin/next-alarm/internal/metrics"
)

// MaxBodyBytes limits the size of a delivery.
const MaxBodyBytes = 1 << 20

// PathPrefix is the path under which the webhook lives.
const PathPrefix = "/api/webhook/"

// SourceHeader optionally names the user and host a delivery was pushed from.
// The phone does not send it.
const SourceHeader = "X-Next-Alarm-Source"

// Plain-text responses of the webhook.
const (
	responseOK            = "OK"
	responseInvalidJSON   = "Invalid JSON"
	responseMissingAlarms = "Missing alarms data"
	responseInternalError = "Internal server error"
	responseNotFound      = "Not found"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	UpdateAlarms(ctx context.Context, payload *domain.Payload) (*domain.State, error)
	State() *domain.State
}

// DeliveryObserver records the outcome of every delivery.
type DeliveryObserver interface {
	ObserveDelivery(result string)
}

// Handler serves the webhook and the state endpoints.
type Handler struct {
	// webhookID is the secret path segment deliveries must use.
	webhookID string
	// service applies deliveries and provides the state.
	service Service
	// observer counts deliveries, may be nil.
	observer DeliveryObserver
}

// Option configures the handler.
type Option func(*Handler)

// WithObserver records delivery outcomes.
func WithObserver(observer DeliveryObserver) Option {
	return func(h *Handler) {
		h.observer = observer
	}
}

// NewHandler creates the HTTP handler for the given webhook id.
func NewHandler(webhookID string, service Service, opts ...Option) *Handler {
	h := &Handler{
		webhookID: webhookID,
		service:   service,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Register attaches the routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+PathPrefix+"{webhook_id}", h.handleDelivery)
	mux.HandleFunc("GET /api/state", h.handleState)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// handleDelivery applies an alarm delivery from the phone.
func (h *Handler) handleDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithName(r.Context(), "webhook")

	if source := r.Header.Get(SourceHeader); source != "" {
		ctx = logger.WithKV(ctx, "source", source)
	}

	if subtle.ConstantTimeCompare([]byte(r.PathValue("webhook_id")), []byte(h.webhookID)) != 1 {
		logger.Warn(ctx, "Webhook called with unknown id")
		h.observe(metrics.ResultUnknownWebhook)
		writeText(w, http.StatusNotFound, responseNotFound)

		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		logger.WarnKV(ctx, "Failed to read webhook body", "error", err)
		h.observe(metrics.ResultInvalidJSON)
		writeText(w, http.StatusBadRequest, responseInvalidJSON)

		return
	}

	payload, err := domain.ParsePayload(body)

	switch {
	case errors.Is(err, domain.ErrMissingAlarms):
		logger.Warn(ctx, "Webhook data missing 'alarms' key or not a list")
		h.observe(metrics.ResultMissingAlarms)
		writeText(w, http.StatusBadRequest, responseMissingAlarms)

		return
	case err != nil:
		logger.ErrorKV(ctx, "Invalid JSON in webhook", "error", err)
		h.observe(metrics.ResultInvalidJSON)
		writeText(w, http.StatusBadRequest, responseInvalidJSON)

		return
	}

	if payload.Skipped > 0 {
		logger.WarnKV(ctx, "Skipped malformed alarm entries", "skipped", payload.Skipped)
	}

	logger.InfoKV(ctx, "Processing alarms", "alarms", len(payload.Alarms), "timezone", payload.Timezone)

	if _, err = h.service.UpdateAlarms(ctx, payload); err != nil {
		logger.ErrorKV(ctx, "Unexpected error in webhook handler", "error", err)
		h.observe(metrics.ResultInternalError)
		writeText(w, http.StatusInternalServerError, responseInternalError)

		return
	}

	h.observe(metrics.ResultAccepted)
	writeText(w, http.StatusOK, responseOK)
}

// handleState returns the current state object as JSON.
func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(h.service.State().Map()); err != nil {
		logger.WarnKV(r.Context(), "Failed to write state response", "error", err)
	}
}

// handleHealth reports liveness.
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, responseOK)
}

// observe records the delivery outcome when an observer is configured.
func (h *Handler) observe(result string) {
	if h.observer != nil {
		h.observer.ObserveDelivery(result)
	}
}

// writeText writes a plain-text response.
func writeText(w http.ResponseWriter, code int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, text)
}
