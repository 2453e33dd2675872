package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paycore/processor-gateway/internal/payments/processor"
)

func TestSetupPaymentsMetricsExposesMetrics(t *testing.T) {
	handler, m := setupPaymentsMetrics()
	if handler == nil || m == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	m.OperationStarted(context.Background(), processor.TypeStripe, "create_payment_intent")
	m.ObserveWebhook(processor.TypeStripe, "processed")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{"paycore_payments_operations_total", "paycore_payments_webhooks_total", "go_goroutines"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s to be exported", name)
		}
	}
}
