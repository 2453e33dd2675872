package manual

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/pkg/logging"
)

func TestAdapter_InitializeWithoutCredentials(t *testing.T) {
	a := New(processor.Deps{Logger: logging.Discard()})
	require.NoError(t, a.Initialize(context.Background(), processor.Config{}))
	assert.True(t, a.IsInitialized())
	assert.Equal(t, processor.TypeManual, a.Type())
}

func TestAdapter_EveryOperationIsNotImplemented(t *testing.T) {
	a := New(processor.Deps{Logger: logging.Discard()})
	require.NoError(t, a.Initialize(context.Background(), processor.Config{}))
	ctx := context.Background()

	calls := map[string]func() error{
		"create_payment_intent": func() error {
			_, err := a.CreatePaymentIntent(ctx, processor.PaymentIntentRequest{Amount: 10, Currency: "USD"})
			return err
		},
		"retrieve_payment_intent": func() error { _, err := a.RetrievePaymentIntent(ctx, "x"); return err },
		"confirm_payment_intent":  func() error { _, err := a.ConfirmPaymentIntent(ctx, "x", ""); return err },
		"cancel_payment_intent":   func() error { _, err := a.CancelPaymentIntent(ctx, "x"); return err },
		"create_refund": func() error {
			_, err := a.CreateRefund(ctx, processor.RefundRequest{PaymentIntentID: "x"})
			return err
		},
		"retrieve_refund":       func() error { _, err := a.RetrieveRefund(ctx, "x"); return err },
		"create_customer":       func() error { _, err := a.CreateCustomer(ctx, processor.CustomerInfo{}); return err },
		"retrieve_customer":     func() error { _, err := a.RetrieveCustomer(ctx, "x"); return err },
		"update_customer":       func() error { _, err := a.UpdateCustomer(ctx, "x", processor.CustomerUpdate{}); return err },
		"attach_payment_method": func() error { _, err := a.AttachPaymentMethod(ctx, "pm", "c"); return err },
		"detach_payment_method": func() error { _, err := a.DetachPaymentMethod(ctx, "pm"); return err },
		"list_payment_methods":  func() error { _, err := a.ListPaymentMethods(ctx, "c"); return err },
	}
	for op, call := range calls {
		err := call()
		require.Error(t, err, op)
		assert.True(t, errors.Is(err, processor.ErrNotImplemented), op)
		var perr *processor.Error
		require.True(t, errors.As(err, &perr), op)
		assert.Equal(t, op, perr.Op)
		assert.Equal(t, processor.TypeManual, perr.Processor)
	}
}

func TestAdapter_NotInitializedTakesPrecedence(t *testing.T) {
	a := New(processor.Deps{Logger: logging.Discard()})
	_, err := a.CreateRefund(context.Background(), processor.RefundRequest{PaymentIntentID: "x"})
	assert.True(t, errors.Is(err, processor.ErrNotInitialized))
}

func TestAdapter_WebhooksAndConversion(t *testing.T) {
	a := New(processor.Deps{Logger: logging.Discard()})
	require.NoError(t, a.Initialize(context.Background(), processor.Config{}))

	res := a.VerifyWebhook(context.Background(), []byte(`{}`), "")
	assert.False(t, res.Verified)
	assert.True(t, errors.Is(res.Error, processor.ErrVerification))
	assert.NoError(t, a.ProcessWebhook(context.Background(), &processor.WebhookEvent{ID: "e"}))

	assert.Equal(t, int64(1050), a.ToMinorUnits(10.50, "USD"))
	assert.Equal(t, 10.5, a.FromMinorUnits(1050, "USD"))
	caps := a.Capabilities()
	assert.False(t, caps.Refunds)
	assert.Equal(t, []string{"USD"}, caps.Currencies)
}

type recordingObserver struct {
	mu      sync.Mutex
	started map[string]int
	failed  map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{started: map[string]int{}, failed: map[string]int{}}
}

func (o *recordingObserver) OperationStarted(_ context.Context, _ processor.Type, op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started[op]++
}

func (o *recordingObserver) OperationFailed(_ context.Context, _ processor.Type, op string, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed[op]++
}

func TestAdapter_WebhooksGoThroughOperationHooks(t *testing.T) {
	obs := newRecordingObserver()
	a := New(processor.Deps{Logger: logging.Discard(), Observer: obs})
	ctx := context.Background()

	err := a.ProcessWebhook(ctx, &processor.WebhookEvent{ID: "e"})
	assert.True(t, errors.Is(err, processor.ErrNotInitialized))
	res := a.VerifyWebhook(ctx, []byte(`{}`), "")
	assert.False(t, res.Verified)
	assert.True(t, errors.Is(res.Error, processor.ErrVerification))

	require.NoError(t, a.Initialize(ctx, processor.Config{}))
	require.NoError(t, a.ProcessWebhook(ctx, &processor.WebhookEvent{ID: "e"}))

	assert.Equal(t, 2, obs.started["process_webhook"])
	assert.Equal(t, 1, obs.failed["process_webhook"])
	assert.Equal(t, 1, obs.started["verify_webhook"])
	assert.Equal(t, 1, obs.failed["verify_webhook"])
}
