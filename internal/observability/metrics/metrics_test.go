package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paycore/processor-gateway/internal/payments/processor"
)

func TestPaymentsMetrics_Operations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPaymentsMetrics(reg)
	ctx := context.Background()

	m.OperationStarted(ctx, processor.TypeStripe, "create_refund")
	m.OperationStarted(ctx, processor.TypeStripe, "create_refund")
	m.OperationFailed(ctx, processor.TypeStripe, "create_refund",
		processor.UpstreamError(processor.TypeStripe, processor.KindRefund, "create_refund", errors.New("boom"), nil))
	m.OperationFailed(ctx, processor.TypeStripe, "create_refund", errors.New("plain"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("stripe", "create_refund")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("stripe", "create_refund", "UPSTREAM_ERROR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("stripe", "create_refund", "unknown")))
}

func TestPaymentsMetrics_WebhooksExposedOnRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPaymentsMetrics(reg)
	m.ObserveWebhook(processor.TypeSquare, "processed")
	m.ObserveWebhook(processor.TypeSquare, "duplicate")
	m.ObserveWebhook(processor.TypeSquare, "processed")

	families, err := reg.Gather()
	require.NoError(t, err)

	var webhooks *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "paycore_payments_webhooks_total" {
			webhooks = f
		}
	}
	require.NotNil(t, webhooks)
	got := map[string]float64{}
	for _, metric := range webhooks.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "result" {
				got[label.GetValue()] = metric.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, map[string]float64{"processed": 2, "duplicate": 1}, got)
}

func TestPaymentsMetrics_NilSafe(t *testing.T) {
	var m *PaymentsMetrics
	m.OperationStarted(context.Background(), processor.TypeManual, "op")
	m.OperationFailed(context.Background(), processor.TypeManual, "op", errors.New("x"))
	m.ObserveWebhook(processor.TypeManual, "rejected")
}
