// Package processor defines the provider-agnostic payment processor contract,
// the normalized payment types it exchanges, and the helper shared by every
// provider adapter.
//
// Callers depend only on Processor. Adapters live in sibling packages
// (stripe, square, paypal, membership, manual) and are created through the
// registry package.
package processor

import "context"

// Processor is implemented by every payment provider adapter.
type Processor interface {
	Type() Type
	Capabilities() Capabilities

	// Initialize applies cfg. It must succeed before any other operation.
	Initialize(ctx context.Context, cfg Config) error
	IsInitialized() bool

	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)
	ConfirmPaymentIntent(ctx context.Context, id, paymentMethodID string) (*PaymentIntent, error)
	CancelPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)

	CreateRefund(ctx context.Context, req RefundRequest) (*RefundResult, error)
	RetrieveRefund(ctx context.Context, id string) (*RefundResult, error)

	CreateCustomer(ctx context.Context, customer CustomerInfo) (string, error)
	RetrieveCustomer(ctx context.Context, id string) (*CustomerInfo, error)
	UpdateCustomer(ctx context.Context, id string, update CustomerUpdate) (*CustomerInfo, error)

	AttachPaymentMethod(ctx context.Context, methodID, customerID string) (*PaymentMethod, error)
	// DetachPaymentMethod returns the now-inert method even when the provider
	// deletes it outright.
	DetachPaymentMethod(ctx context.Context, methodID string) (*PaymentMethod, error)
	ListPaymentMethods(ctx context.Context, customerID string) ([]PaymentMethod, error)

	// VerifyWebhook checks the signature over payload exactly as received.
	// Failures are reported in the result, never as a panic.
	VerifyWebhook(ctx context.Context, payload []byte, signature string) WebhookVerification
	ProcessWebhook(ctx context.Context, event *WebhookEvent) error

	ToMinorUnits(amount float64, currency string) int64
	FromMinorUnits(amount int64, currency string) float64
}
