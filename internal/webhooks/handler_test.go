package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paycore/processor-gateway/internal/observability/metrics"
	"github.com/paycore/processor-gateway/internal/payments/manual"
	"github.com/paycore/processor-gateway/internal/payments/membership"
	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/registry"
	"github.com/paycore/processor-gateway/pkg/logging"
)

const membershipSecret = "whsec_membership"

func newTestRouter(t *testing.T, processors Processors, store ProcessedStore) (http.Handler, *prometheus.Registry) {
	t.Helper()
	promReg := prometheus.NewRegistry()
	h := NewHandler(processors, store, metrics.NewPaymentsMetrics(promReg), logging.Discard())
	r := chi.NewRouter()
	r.Post("/webhooks/{processor}", h.Handle)
	return r, promReg
}

func readyRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New(processor.Deps{Logger: logging.Discard()})
	require.NoError(t, reg.Initialize(context.Background(), registry.Settings{
		Processors: map[processor.Type]processor.Config{
			processor.TypeMembership: {APIKey: "mk_test", WebhookSecret: membershipSecret},
		},
	}))
	return reg
}

func post(t *testing.T, h http.Handler, path string, body []byte, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ProcessesThenDedupes(t *testing.T) {
	h, promReg := newTestRouter(t, readyRegistry(t), NewMemoryStore(0))
	body := []byte(`{"id":"evt_1","type":"order.paid","created_at":"2025-01-02T03:04:05Z","data":{"order_id":"ord_1"}}`)
	header := http.Header{}
	header.Set(membership.SignatureHeader, membership.Sign(membershipSecret, body))

	rec := post(t, h, "/webhooks/membership", body, header)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "processed", resp["status"])
	assert.Equal(t, "payment.succeeded", resp["type"])

	rec = post(t, h, "/webhooks/membership", body, header)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "duplicate", resp["status"])

	count, err := testutil.GatherAndCount(promReg, "paycore_payments_webhooks_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestHandler_RejectsBadSignature(t *testing.T) {
	h, _ := newTestRouter(t, readyRegistry(t), NewMemoryStore(0))
	body := []byte(`{"id":"evt_2","type":"order.paid"}`)
	header := http.Header{}
	header.Set(membership.SignatureHeader, membership.Sign("wrong", body))

	rec := post(t, h, "/webhooks/membership", body, header)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(t, h, "/webhooks/membership", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_ManualNeverVerifies(t *testing.T) {
	h, _ := newTestRouter(t, readyRegistry(t), nil)
	rec := post(t, h, "/webhooks/manual", []byte(`{"id":"x"}`), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_UnavailableProcessor(t *testing.T) {
	h, _ := newTestRouter(t, readyRegistry(t), nil)
	rec := post(t, h, "/webhooks/paypal", []byte(`{}`), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	notReady := registry.New(processor.Deps{Logger: logging.Discard()})
	h, _ = newTestRouter(t, notReady, nil)
	rec = post(t, h, "/webhooks/membership", []byte(`{}`), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// flakyProcessor accepts every delivery and fails processing until told otherwise.
type flakyProcessor struct {
	processor.Processor
	fail  bool
	calls int
}

func (f *flakyProcessor) VerifyWebhook(_ context.Context, payload []byte, _ string) processor.WebhookVerification {
	return processor.WebhookVerification{
		Verified: true,
		Event:    &processor.WebhookEvent{ID: "evt_retry", Type: processor.EventRefundCreated, RawEvent: payload},
	}
}

func (f *flakyProcessor) ProcessWebhook(context.Context, *processor.WebhookEvent) error {
	f.calls++
	if f.fail {
		return errors.New("downstream unavailable")
	}
	return nil
}

type staticProcessors struct{ p processor.Processor }

func (s staticProcessors) GetProcessor(processor.Type) (processor.Processor, error) { return s.p, nil }

func TestHandler_FailedProcessingCanBeRetried(t *testing.T) {
	flaky := &flakyProcessor{Processor: manual.New(processor.Deps{Logger: logging.Discard()}), fail: true}
	h, _ := newTestRouter(t, staticProcessors{p: flaky}, NewMemoryStore(0))

	rec := post(t, h, "/webhooks/stripe", []byte(`{}`), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	flaky.fail = false
	rec = post(t, h, "/webhooks/stripe", []byte(`{}`), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, flaky.calls)
}

func TestSignatureFor(t *testing.T) {
	h := http.Header{}
	h.Set("Stripe-Signature", "t=1,v1=abc")
	h.Set("X-Membership-Signature", "sha256=def")
	h.Set("X-Square-Hmacsha256-Signature", "c3E=")
	h.Set("Paypal-Transmission-Id", "tx-1")

	assert.Equal(t, "t=1,v1=abc", SignatureFor(processor.TypeStripe, h))
	assert.Equal(t, "sha256=def", SignatureFor(processor.TypeMembership, h))
	assert.Equal(t, "c3E=", SignatureFor(processor.TypeSquare, h))
	assert.Contains(t, SignatureFor(processor.TypePayPal, h), "transmission_id=tx-1")
	assert.Empty(t, SignatureFor(processor.TypeManual, h))
}
