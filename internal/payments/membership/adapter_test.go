package membership

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/pkg/logging"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a := New(processor.Deps{Logger: logging.Discard()})
	require.NoError(t, a.Initialize(context.Background(), processor.Config{
		APIKey:        "mem_key",
		WebhookSecret: "mem_secret",
		Metadata:      map[string]string{"base_url": srv.URL},
	}))
	return a
}

func TestAdapter_HostedCheckoutOperationsAreUnsupported(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL.Path)
	})
	ctx := context.Background()

	_, err := a.CreatePaymentIntent(ctx, processor.PaymentIntentRequest{Amount: 10, Currency: "USD"})
	assert.True(t, errors.Is(err, processor.ErrUnsupported))
	assert.Contains(t, err.Error(), "hosted checkout")

	_, err = a.ConfirmPaymentIntent(ctx, "ord_1", "")
	assert.True(t, errors.Is(err, processor.ErrUnsupported))
	_, err = a.CancelPaymentIntent(ctx, "ord_1")
	assert.True(t, errors.Is(err, processor.ErrUnsupported))
	_, err = a.AttachPaymentMethod(ctx, "pm_1", "mem_1")
	assert.True(t, errors.Is(err, processor.ErrUnsupported))
	_, err = a.DetachPaymentMethod(ctx, "pm_1")
	assert.True(t, errors.Is(err, processor.ErrUnsupported))
	_, err = a.ListPaymentMethods(ctx, "mem_1")
	assert.True(t, errors.Is(err, processor.ErrUnsupported))
}

func TestAdapter_UnsupportedBeforeInitializeReportsNotInitialized(t *testing.T) {
	a := New(processor.Deps{Logger: logging.Discard()})
	_, err := a.CreatePaymentIntent(context.Background(), processor.PaymentIntentRequest{Amount: 10, Currency: "USD"})
	assert.True(t, errors.Is(err, processor.ErrNotInitialized))
}

func TestAdapter_RetrievePaymentIntentReadsOrder(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders/ord_1", r.URL.Path)
		assert.Equal(t, "Bearer mem_key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"order":{"id":"ord_1","amount":4900,"currency":"usd","status":"paid","member_id":"mem_1","created_at":"2024-05-01T10:00:00Z"}}`)
	})
	pi, err := a.RetrievePaymentIntent(context.Background(), "ord_1")
	require.NoError(t, err)
	assert.Equal(t, 49.0, pi.Amount)
	assert.Equal(t, "USD", pi.Currency)
	assert.Equal(t, processor.StatusSucceeded, pi.Status)
	assert.Equal(t, "mem_1", pi.CustomerID)
	assert.Equal(t, processor.TypeMembership, pi.ProcessorType)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), pi.CreatedAt)
}

func TestAdapter_CreatePartialRefund(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/orders/ord_1":
			fmt.Fprint(w, `{"order":{"id":"ord_1","amount":4900,"currency":"EUR","status":"paid"}}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/orders/ord_1/refunds":
			assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(1250), body["amount"])
			assert.Equal(t, "requested", body["reason"])
			fmt.Fprint(w, `{"refund":{"id":"rf_1","amount":1250,"currency":"EUR","status":"pending","reason":"requested","created_at":"2024-05-02T00:00:00Z"}}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	amount := 12.50
	res, err := a.CreateRefund(context.Background(), processor.RefundRequest{PaymentIntentID: "ord_1", Amount: &amount, Reason: "requested"})
	require.NoError(t, err)
	assert.Equal(t, "rf_1", res.ID)
	assert.Equal(t, "ord_1", res.PaymentIntentID)
	assert.Equal(t, 12.5, res.Amount)
	assert.Equal(t, processor.RefundPending, res.Status)
	assert.Equal(t, res.CreatedAt, res.UpdatedAt)
}

func TestAdapter_RefundUpstreamFailure(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"error":"order already refunded"}`)
	})
	_, err := a.CreateRefund(context.Background(), processor.RefundRequest{PaymentIntentID: "ord_1"})
	require.Error(t, err)
	var perr *processor.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, processor.KindRefund, perr.Kind)
	assert.Equal(t, http.StatusConflict, perr.Details["status"])
}

func TestAdapter_Members(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil && r.ContentLength != 0 {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/members":
			assert.Equal(t, "pat@example.com", body["email"])
			fmt.Fprint(w, `{"member":{"id":"mem_1","email":"pat@example.com"}}`)
		case r.Method == http.MethodPatch && r.URL.Path == "/v1/members/mem_1":
			assert.Equal(t, map[string]any{"phone": "+15550100"}, body)
			fmt.Fprint(w, `{"member":{"id":"mem_1","email":"pat@example.com","phone":"+15550100"}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/members/mem_1":
			fmt.Fprint(w, `{"member":{"id":"mem_1","email":"pat@example.com","address":{"city":"Austin"}}}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()

	id, err := a.CreateCustomer(ctx, processor.CustomerInfo{Email: "pat@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "mem_1", id)

	phone := "+15550100"
	info, err := a.UpdateCustomer(ctx, "mem_1", processor.CustomerUpdate{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, info.Phone)

	info, err = a.RetrieveCustomer(ctx, "mem_1")
	require.NoError(t, err)
	require.NotNil(t, info.Address)
	assert.Equal(t, "Austin", info.Address.City)

	_, err = a.CreateCustomer(ctx, processor.CustomerInfo{Name: "no email"})
	assert.True(t, errors.Is(err, processor.ErrInvalidRequest))
}

func TestAdapter_InitializeRejectsBadBaseURL(t *testing.T) {
	a := New(processor.Deps{Logger: logging.Discard()})
	err := a.Initialize(context.Background(), processor.Config{
		APIKey:   "k",
		Metadata: map[string]string{"base_url": "not a url"},
	})
	assert.True(t, errors.Is(err, processor.ErrConfig))
}

func TestMapStatus(t *testing.T) {
	tests := map[string]processor.Status{
		"pending":            processor.StatusPending,
		"awaiting_payment":   processor.StatusPending,
		"processing":         processor.StatusProcessing,
		"PAID":               processor.StatusSucceeded,
		"completed":          processor.StatusSucceeded,
		"declined":           processor.StatusFailed,
		"expired":            processor.StatusCancelled,
		"canceled":           processor.StatusCancelled,
		"refunded":           processor.StatusRefunded,
		"partially_refunded": processor.StatusPartiallyRefunded,
		"on_hold":            processor.StatusPending,
	}
	for in, want := range tests {
		assert.Equal(t, want, mapStatus(in), in)
	}
}

func TestVerifyWebhook(t *testing.T) {
	a := newTestAdapter(t, func(http.ResponseWriter, *http.Request) {})
	payload := []byte(`{"id":"evt_9","type":"membership.renewed","created_at":"2024-05-01T10:00:00Z","data":{"member_id":"mem_1"}}`)
	ctx := context.Background()

	res := a.VerifyWebhook(ctx, payload, Sign("mem_secret", payload))
	require.True(t, res.Verified, "%v", res.Error)
	assert.Equal(t, "evt_9", res.Event.ID)
	assert.Equal(t, processor.EventPaymentSucceeded, res.Event.Type)
	assert.Equal(t, "mem_1", res.Event.Data["member_id"])
	assert.Equal(t, json.RawMessage(payload), res.Event.RawEvent)

	unprefixed := Sign("mem_secret", payload)[len("sha256="):]
	assert.True(t, a.VerifyWebhook(ctx, payload, unprefixed).Verified)

	for name, sig := range map[string]string{
		"wrong secret": Sign("other", payload),
		"not hex":      "sha256=zzzz",
		"empty":        "",
	} {
		res := a.VerifyWebhook(ctx, payload, sig)
		assert.False(t, res.Verified, name)
		assert.True(t, errors.Is(res.Error, processor.ErrVerification), name)
	}

	garbage := []byte(`not json`)
	res = a.VerifyWebhook(ctx, garbage, Sign("mem_secret", garbage))
	assert.False(t, res.Verified)
	assert.Error(t, res.Error)
}

func TestVerifyWebhook_ParseableJSONWithoutSecretIsRejected(t *testing.T) {
	a := New(processor.Deps{Logger: logging.Discard()})
	require.NoError(t, a.Initialize(context.Background(), processor.Config{APIKey: "k"}))
	payload := []byte(`{"id":"evt_1","type":"order.paid"}`)
	res := a.VerifyWebhook(context.Background(), payload, Sign("", payload))
	assert.False(t, res.Verified)
	assert.Nil(t, res.Event)
}
