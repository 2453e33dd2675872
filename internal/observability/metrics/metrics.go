package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/paycore/processor-gateway/internal/payments/processor"
)

// PaymentsMetrics counts processor operations and webhook deliveries. It
// satisfies processor.Observer so adapters report through it directly.
type PaymentsMetrics struct {
	operationsTotal *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	webhooksTotal   *prometheus.CounterVec
}

var _ processor.Observer = (*PaymentsMetrics)(nil)

func NewPaymentsMetrics(reg prometheus.Registerer) *PaymentsMetrics {
	m := &PaymentsMetrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paycore",
			Subsystem: "payments",
			Name:      "operations_total",
			Help:      "Total payment processor operations started",
		}, []string{"processor", "operation"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paycore",
			Subsystem: "payments",
			Name:      "operation_errors_total",
			Help:      "Total failed payment processor operations by error code",
		}, []string{"processor", "operation", "code"}),
		webhooksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paycore",
			Subsystem: "payments",
			Name:      "webhooks_total",
			Help:      "Total inbound provider webhooks by outcome",
		}, []string{"processor", "result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operationsTotal, m.errorsTotal, m.webhooksTotal)
	return m
}

func (m *PaymentsMetrics) OperationStarted(_ context.Context, t processor.Type, op string) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(string(t), op).Inc()
}

func (m *PaymentsMetrics) OperationFailed(_ context.Context, t processor.Type, op string, err error) {
	if m == nil {
		return
	}
	code := string(processor.CodeOf(err))
	if code == "" {
		code = "unknown"
	}
	m.errorsTotal.WithLabelValues(string(t), op, code).Inc()
}

// ObserveWebhook records one webhook delivery. result is a short outcome
// label such as processed, duplicate or rejected.
func (m *PaymentsMetrics) ObserveWebhook(t processor.Type, result string) {
	if m == nil {
		return
	}
	m.webhooksTotal.WithLabelValues(string(t), result).Inc()
}
