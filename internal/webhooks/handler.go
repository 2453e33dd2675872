// Package webhooks receives provider webhook deliveries, verifies them through
// the owning processor and hands each event to ProcessWebhook at most once.
package webhooks

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/paycore/processor-gateway/internal/observability/metrics"
	"github.com/paycore/processor-gateway/internal/payments/membership"
	"github.com/paycore/processor-gateway/internal/payments/paypal"
	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/square"
	"github.com/paycore/processor-gateway/internal/payments/stripe"
	"github.com/paycore/processor-gateway/pkg/logging"
)

const maxPayloadBytes = 1 << 20

// Processors is the registry lookup the handler needs.
type Processors interface {
	GetProcessor(t processor.Type) (processor.Processor, error)
}

type Handler struct {
	processors Processors
	store      ProcessedStore
	metrics    *metrics.PaymentsMetrics
	logger     *logging.Logger
}

func NewHandler(processors Processors, store ProcessedStore, m *metrics.PaymentsMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if store == nil {
		store = NewMemoryStore(0)
	}
	return &Handler{processors: processors, store: store, metrics: m, logger: logger}
}

// Handle serves POST /webhooks/{processor}.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	t := processor.ParseType(chi.URLParam(r, "processor"))
	if t == "" {
		http.Error(w, "unknown processor", http.StatusNotFound)
		return
	}

	p, err := h.processors.GetProcessor(t)
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, processor.ErrNotInitialized) {
			status = http.StatusServiceUnavailable
		}
		h.logger.Warn("webhook for unavailable processor", "processor", string(t), "error", err)
		h.metrics.ObserveWebhook(t, "unavailable")
		http.Error(w, "processor unavailable", status)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	res := p.VerifyWebhook(r.Context(), payload, SignatureFor(t, r.Header))
	if !res.Verified || res.Event == nil {
		h.logger.Warn("webhook verification failed", "processor", string(t), "error", res.Error)
		h.metrics.ObserveWebhook(t, "rejected")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}
	event := res.Event

	first, err := h.store.MarkProcessed(r.Context(), string(t), event.ID)
	if err != nil {
		h.logger.Error("processed lookup failed", "processor", string(t), "event_id", event.ID, "error", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if !first {
		h.logger.Info("duplicate webhook ignored", "processor", string(t), "event_id", event.ID)
		h.metrics.ObserveWebhook(t, "duplicate")
		writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate", "event_id": event.ID})
		return
	}

	if err := p.ProcessWebhook(r.Context(), event); err != nil {
		if ferr := h.store.Forget(r.Context(), string(t), event.ID); ferr != nil {
			h.logger.Error("failed to release processed mark", "processor", string(t), "event_id", event.ID, "error", ferr)
		}
		h.metrics.ObserveWebhook(t, "failed")
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	h.metrics.ObserveWebhook(t, "processed")
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "processed",
		"event_id": event.ID,
		"type":     string(event.Type),
	})
}

// SignatureFor extracts the signature string each processor's VerifyWebhook expects.
func SignatureFor(t processor.Type, h http.Header) string {
	switch t {
	case processor.TypeStripe:
		return h.Get(stripe.SignatureHeader)
	case processor.TypeMembership:
		return h.Get(membership.SignatureHeader)
	case processor.TypeSquare:
		return h.Get(square.SignatureHeader)
	case processor.TypePayPal:
		return paypal.SignatureFromHeaders(h)
	default:
		return ""
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
