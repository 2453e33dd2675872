// Package manual is the placeholder processor for payments settled outside
// the system (cash, check, bank transfer). It is always registered so the
// registry has a default, and every money-moving operation reports
// NOT_IMPLEMENTED.
package manual

import (
	"context"

	"github.com/paycore/processor-gateway/internal/payments/processor"
)

const placeholderKey = "manual"

var capabilities = processor.Capabilities{
	Currencies: []string{"USD"},
}

type Adapter struct {
	base *processor.Base
}

var _ processor.Processor = (*Adapter)(nil)

func New(deps processor.Deps) *Adapter {
	return &Adapter{base: processor.NewBase(processor.TypeManual, capabilities, deps.BaseOptions()...)}
}

func (a *Adapter) Type() processor.Type                 { return a.base.Type() }
func (a *Adapter) Capabilities() processor.Capabilities { return a.base.Capabilities() }
func (a *Adapter) IsInitialized() bool                  { return a.base.IsInitialized() }

func (a *Adapter) ToMinorUnits(amount float64, currency string) int64 {
	return a.base.ToMinorUnits(amount, currency)
}

func (a *Adapter) FromMinorUnits(amount int64, currency string) float64 {
	return a.base.FromMinorUnits(amount, currency)
}

// Initialize needs no credentials.
func (a *Adapter) Initialize(_ context.Context, cfg processor.Config) error {
	if cfg.APIKey == "" {
		cfg.APIKey = placeholderKey
	}
	return a.base.Initialize(cfg, nil)
}

func (a *Adapter) notImplemented(ctx context.Context, kind processor.Kind, op string) error {
	_, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return err
	}
	return done(processor.NotImplementedError(processor.TypeManual, kind, op))
}

func (a *Adapter) CreatePaymentIntent(ctx context.Context, _ processor.PaymentIntentRequest) (*processor.PaymentIntent, error) {
	return nil, a.notImplemented(ctx, processor.KindPaymentIntent, "create_payment_intent")
}

func (a *Adapter) RetrievePaymentIntent(ctx context.Context, _ string) (*processor.PaymentIntent, error) {
	return nil, a.notImplemented(ctx, processor.KindPaymentIntent, "retrieve_payment_intent")
}

func (a *Adapter) ConfirmPaymentIntent(ctx context.Context, _, _ string) (*processor.PaymentIntent, error) {
	return nil, a.notImplemented(ctx, processor.KindPaymentIntent, "confirm_payment_intent")
}

func (a *Adapter) CancelPaymentIntent(ctx context.Context, _ string) (*processor.PaymentIntent, error) {
	return nil, a.notImplemented(ctx, processor.KindPaymentIntent, "cancel_payment_intent")
}

func (a *Adapter) CreateRefund(ctx context.Context, _ processor.RefundRequest) (*processor.RefundResult, error) {
	return nil, a.notImplemented(ctx, processor.KindRefund, "create_refund")
}

func (a *Adapter) RetrieveRefund(ctx context.Context, _ string) (*processor.RefundResult, error) {
	return nil, a.notImplemented(ctx, processor.KindRefund, "retrieve_refund")
}

func (a *Adapter) CreateCustomer(ctx context.Context, _ processor.CustomerInfo) (string, error) {
	return "", a.notImplemented(ctx, processor.KindCustomer, "create_customer")
}

func (a *Adapter) RetrieveCustomer(ctx context.Context, _ string) (*processor.CustomerInfo, error) {
	return nil, a.notImplemented(ctx, processor.KindCustomer, "retrieve_customer")
}

func (a *Adapter) UpdateCustomer(ctx context.Context, _ string, _ processor.CustomerUpdate) (*processor.CustomerInfo, error) {
	return nil, a.notImplemented(ctx, processor.KindCustomer, "update_customer")
}

func (a *Adapter) AttachPaymentMethod(ctx context.Context, _, _ string) (*processor.PaymentMethod, error) {
	return nil, a.notImplemented(ctx, processor.KindPaymentMethod, "attach_payment_method")
}

func (a *Adapter) DetachPaymentMethod(ctx context.Context, _ string) (*processor.PaymentMethod, error) {
	return nil, a.notImplemented(ctx, processor.KindPaymentMethod, "detach_payment_method")
}

func (a *Adapter) ListPaymentMethods(ctx context.Context, _ string) ([]processor.PaymentMethod, error) {
	return nil, a.notImplemented(ctx, processor.KindPaymentMethod, "list_payment_methods")
}

// VerifyWebhook always fails: manual payments have no webhook source.
func (a *Adapter) VerifyWebhook(ctx context.Context, _ []byte, _ string) (res processor.WebhookVerification) {
	_, done := a.base.Start(ctx, "verify_webhook")
	defer func() { res.Error = done(res.Error) }()

	if !a.base.IsInitialized() {
		return processor.Failed(processor.TypeManual, "processor not initialized", nil)
	}
	return processor.Failed(processor.TypeManual, "manual processor does not receive webhooks", nil)
}

// ProcessWebhook accepts any event without side effects.
func (a *Adapter) ProcessWebhook(ctx context.Context, _ *processor.WebhookEvent) error {
	_, done, err := a.base.Begin(ctx, "process_webhook")
	if err != nil {
		return err
	}
	return done(nil)
}
