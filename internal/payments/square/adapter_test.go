package square

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/pkg/logging"
)

const testNotificationURL = "https://hooks.example.com/webhooks/square"

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a := New(processor.Deps{Logger: logging.Discard()})
	require.NoError(t, a.Initialize(context.Background(), processor.Config{
		APIKey:        "sq_token",
		WebhookSecret: "sig_key",
		Metadata: map[string]string{
			"base_url":         srv.URL,
			"location_id":      "LOC1",
			"notification_url": testNotificationURL,
		},
	}))
	return a
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestAdapter_CreatePaymentIntent(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/payments", r.URL.Path)
		assert.Equal(t, "Bearer sq_token", r.Header.Get("Authorization"))
		assert.Equal(t, apiVersion, r.Header.Get("Square-Version"))
		body := decodeBody(t, r)
		assert.Equal(t, "cnon:card-nonce-ok", body["source_id"])
		assert.Equal(t, "LOC1", body["location_id"])
		assert.Equal(t, false, body["autocomplete"])
		assert.NotEmpty(t, body["idempotency_key"])
		assert.Equal(t, map[string]any{"amount": float64(2550), "currency": "USD"}, body["amount_money"])
		fmt.Fprint(w, `{"payment":{"id":"sqp_1","status":"APPROVED","amount_money":{"amount":2550,"currency":"USD"},"card_details":{"card":{"id":"ccof_1"}},"created_at":"2024-05-01T10:00:00.000Z"}}`)
	})

	pi, err := a.CreatePaymentIntent(context.Background(), processor.PaymentIntentRequest{
		Amount:          25.50,
		Currency:        "usd",
		PaymentMethodID: "cnon:card-nonce-ok",
	})
	require.NoError(t, err)
	assert.Equal(t, "sqp_1", pi.ID)
	assert.Equal(t, 25.5, pi.Amount)
	assert.Equal(t, processor.StatusProcessing, pi.Status)
	assert.Equal(t, "ccof_1", pi.PaymentMethodID)
	assert.False(t, pi.CreatedAt.IsZero())
}

func TestAdapter_CreatePaymentIntentRequiresSource(t *testing.T) {
	a := newTestAdapter(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})
	_, err := a.CreatePaymentIntent(context.Background(), processor.PaymentIntentRequest{Amount: 5, Currency: "USD"})
	assert.True(t, errors.Is(err, processor.ErrInvalidRequest))
}

func TestAdapter_ConfirmAndCancel(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/payments/sqp_1/complete":
			fmt.Fprint(w, `{"payment":{"id":"sqp_1","status":"COMPLETED","amount_money":{"amount":100,"currency":"USD"}}}`)
		case "/v2/payments/sqp_2/cancel":
			fmt.Fprint(w, `{"payment":{"id":"sqp_2","status":"CANCELED","amount_money":{"amount":100,"currency":"USD"}}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	pi, err := a.ConfirmPaymentIntent(context.Background(), "sqp_1", "")
	require.NoError(t, err)
	assert.Equal(t, processor.StatusSucceeded, pi.Status)

	pi, err = a.CancelPaymentIntent(context.Background(), "sqp_2")
	require.NoError(t, err)
	assert.Equal(t, processor.StatusCancelled, pi.Status)
}

func TestAdapter_FullRefundUsesPaymentAmount(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/payments/sqp_1":
			fmt.Fprint(w, `{"payment":{"id":"sqp_1","status":"COMPLETED","amount_money":{"amount":1200,"currency":"JPY"}}}`)
		case "/v2/refunds":
			body := decodeBody(t, r)
			assert.Equal(t, "sqp_1", body["payment_id"])
			assert.Equal(t, map[string]any{"amount": float64(1200), "currency": "JPY"}, body["amount_money"])
			fmt.Fprint(w, `{"refund":{"id":"sqr_1","payment_id":"sqp_1","status":"PENDING","amount_money":{"amount":1200,"currency":"JPY"},"created_at":"2024-05-01T10:00:00Z"}}`)
		}
	})
	res, err := a.CreateRefund(context.Background(), processor.RefundRequest{PaymentIntentID: "sqp_1"})
	require.NoError(t, err)
	assert.Equal(t, 1200.0, res.Amount)
	assert.Equal(t, "JPY", res.Currency)
	assert.Equal(t, processor.RefundPending, res.Status)
}

func TestAdapter_PartialRefund(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/payments/sqp_1":
			fmt.Fprint(w, `{"payment":{"id":"sqp_1","status":"COMPLETED","amount_money":{"amount":5000,"currency":"USD"}}}`)
		case "/v2/refunds":
			body := decodeBody(t, r)
			assert.Equal(t, map[string]any{"amount": float64(1999), "currency": "USD"}, body["amount_money"])
			fmt.Fprint(w, `{"refund":{"id":"sqr_2","payment_id":"sqp_1","status":"COMPLETED","amount_money":{"amount":1999,"currency":"USD"}}}`)
		}
	})
	amount := 19.99
	res, err := a.CreateRefund(context.Background(), processor.RefundRequest{PaymentIntentID: "sqp_1", Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, processor.RefundSucceeded, res.Status)
	assert.Equal(t, 19.99, res.Amount)
}

func TestAdapter_Customers(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v2/customers":
			body := decodeBody(t, r)
			assert.Equal(t, "Grace", body["given_name"])
			assert.Equal(t, "Hopper", body["family_name"])
			assert.Equal(t, "grace@example.com", body["email_address"])
			assert.NotEmpty(t, body["idempotency_key"])
			fmt.Fprint(w, `{"customer":{"id":"SQC1"}}`)
		case r.Method == http.MethodPut && r.URL.Path == "/v2/customers/SQC1":
			body := decodeBody(t, r)
			assert.Equal(t, map[string]any{"email_address": "g@example.com"}, body)
			fmt.Fprint(w, `{"customer":{"id":"SQC1","given_name":"Grace","family_name":"Hopper","email_address":"g@example.com","address":{"locality":"Arlington","administrative_district_level_1":"VA"}}}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})
	id, err := a.CreateCustomer(context.Background(), processor.CustomerInfo{Name: "Grace Hopper", Email: "grace@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "SQC1", id)

	email := "g@example.com"
	info, err := a.UpdateCustomer(context.Background(), "SQC1", processor.CustomerUpdate{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", info.Name)
	require.NotNil(t, info.Address)
	assert.Equal(t, "VA", info.Address.State)
}

func TestAdapter_Cards(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/cards":
			if r.Method == http.MethodGet {
				assert.Equal(t, "SQC1", r.URL.Query().Get("customer_id"))
				fmt.Fprint(w, `{"cards":[{"id":"ccof_1","enabled":true,"last_4":"1111"},{"id":"ccof_2","enabled":false}]}`)
				return
			}
			body := decodeBody(t, r)
			assert.Equal(t, "cnon:ok", body["source_id"])
			assert.Equal(t, map[string]any{"customer_id": "SQC1"}, body["card"])
			fmt.Fprint(w, `{"card":{"id":"ccof_1","card_brand":"VISA","last_4":"1111","exp_month":1,"exp_year":2031,"customer_id":"SQC1","enabled":true}}`)
		case "/v2/cards/ccof_1/disable":
			fmt.Fprint(w, `{"card":{"id":"ccof_1","customer_id":"SQC1","enabled":false}}`)
		}
	})
	ctx := context.Background()

	pm, err := a.AttachPaymentMethod(ctx, "cnon:ok", "SQC1")
	require.NoError(t, err)
	assert.Equal(t, "visa", pm.Brand)
	assert.Equal(t, "1111", pm.Last4)

	pm, err = a.DetachPaymentMethod(ctx, "ccof_1")
	require.NoError(t, err)
	assert.Equal(t, "ccof_1", pm.ID)

	list, err := a.ListPaymentMethods(ctx, "SQC1")
	require.NoError(t, err)
	require.Len(t, list, 1, "disabled cards are not listed")
	assert.Equal(t, "ccof_1", list[0].ID)
}

func TestInitialize_SelectsSandboxUnlessProduction(t *testing.T) {
	sandbox := New(processor.Deps{Logger: logging.Discard()})
	require.NoError(t, sandbox.Initialize(context.Background(), processor.Config{APIKey: "t"}))
	assert.Equal(t, sandboxBaseURL, sandbox.client.BaseURL())

	prod := New(processor.Deps{Logger: logging.Discard()})
	require.NoError(t, prod.Initialize(context.Background(), processor.Config{APIKey: "t", Environment: processor.EnvironmentProduction}))
	assert.Equal(t, productionBaseURL, prod.client.BaseURL())
}

func TestMapStatus(t *testing.T) {
	tests := map[string]processor.Status{
		"APPROVED":  processor.StatusProcessing,
		"PENDING":   processor.StatusPending,
		"COMPLETED": processor.StatusSucceeded,
		"CANCELED":  processor.StatusCancelled,
		"FAILED":    processor.StatusFailed,
		"UNKNOWN":   processor.StatusPending,
	}
	for in, want := range tests {
		assert.Equal(t, want, mapStatus(in), in)
	}
	assert.Equal(t, processor.RefundFailed, mapRefundStatus("REJECTED"))
	assert.Equal(t, processor.RefundPending, mapRefundStatus("SOMETHING"))
}

func TestMapEventType(t *testing.T) {
	assert.Equal(t, processor.EventPaymentSucceeded, mapEventType("payment.updated", "COMPLETED"))
	assert.Equal(t, processor.EventPaymentFailed, mapEventType("payment.updated", "FAILED"))
	assert.Equal(t, processor.EventPaymentProcessing, mapEventType("payment.created", "APPROVED"))
	assert.Equal(t, processor.EventPaymentMethodDetached, mapEventType("card.disabled", ""))
	assert.Equal(t, processor.EventUnknown, mapEventType("invoice.published", ""))
}

func TestVerifyWebhook(t *testing.T) {
	a := newTestAdapter(t, func(http.ResponseWriter, *http.Request) {})
	payload := []byte(`{"merchant_id":"M1","type":"payment.updated","event_id":"ev_1","created_at":"2024-05-01T10:00:00Z","data":{"type":"payment","id":"sqp_1","object":{"payment":{"id":"sqp_1","status":"COMPLETED"}}}}`)
	ctx := context.Background()

	res := a.VerifyWebhook(ctx, payload, Sign("sig_key", testNotificationURL, payload))
	require.True(t, res.Verified, "%v", res.Error)
	assert.Equal(t, "ev_1", res.Event.ID)
	assert.Equal(t, processor.EventPaymentSucceeded, res.Event.Type)
	assert.Equal(t, processor.TypeSquare, res.Event.Processor)

	for name, sig := range map[string]string{
		"wrong url":    Sign("sig_key", "https://other.example.com", payload),
		"wrong key":    Sign("nope", testNotificationURL, payload),
		"empty":        "",
		"not base64!!": "%%%",
	} {
		res := a.VerifyWebhook(ctx, payload, sig)
		assert.False(t, res.Verified, name)
		assert.True(t, errors.Is(res.Error, processor.ErrVerification), name)
	}
}

func TestVerifyWebhook_RequiresNotificationURL(t *testing.T) {
	a := New(processor.Deps{Logger: logging.Discard()})
	require.NoError(t, a.Initialize(context.Background(), processor.Config{APIKey: "t", WebhookSecret: "k"}))
	payload := []byte(`{"event_id":"ev_1"}`)
	res := a.VerifyWebhook(context.Background(), payload, Sign("k", "", payload))
	assert.False(t, res.Verified)
	assert.Contains(t, res.Error.Error(), "notification_url")
}
