package processor

import (
	"encoding/json"
	"strings"
	"time"
)

// Type identifies a payment provider integration.
type Type string

const (
	TypeStripe     Type = "stripe"
	TypeMembership Type = "membership"
	TypeSquare     Type = "square"
	TypePayPal     Type = "paypal"
	TypeManual     Type = "manual"
)

// ParseType normalizes a provider tag. Unknown tags are returned as-is so the
// registry can report them as unavailable.
func ParseType(s string) Type {
	return Type(strings.ToLower(strings.TrimSpace(s)))
}

func (t Type) String() string { return string(t) }

// Environment selects sandbox or live provider endpoints.
type Environment string

const (
	EnvironmentTest       Environment = "test"
	EnvironmentProduction Environment = "production"
)

// ParseEnvironment defaults to test for anything that is not clearly production.
func ParseEnvironment(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod", "live":
		return EnvironmentProduction
	default:
		return EnvironmentTest
	}
}

// Config is supplied once per adapter at initialization.
type Config struct {
	APIKey        string
	WebhookSecret string
	Environment   Environment
	Metadata      map[string]string
}

// Clone returns a deep copy so callers cannot mutate an applied config.
func (c Config) Clone() Config {
	out := c
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Meta returns a trimmed metadata value or the fallback.
func (c Config) Meta(key, fallback string) string {
	if v := strings.TrimSpace(c.Metadata[key]); v != "" {
		return v
	}
	return fallback
}

// IsProduction reports whether live endpoints should be used.
func (c Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// MethodType is the kind of a stored payment method.
type MethodType string

const (
	MethodCard        MethodType = "card"
	MethodBankAccount MethodType = "bank_account"
	MethodWallet      MethodType = "wallet"
	MethodPayPal      MethodType = "paypal"
)

// Capabilities is declared per adapter at construction and never mutated.
type Capabilities struct {
	Recurring          bool
	Refunds            bool
	PartialRefunds     bool
	Customers          bool
	PaymentMethods     bool
	Webhooks           bool
	Currencies         []string
	PaymentMethodTypes []MethodType
}

// Copy returns a value whose slices do not alias the receiver's.
func (c Capabilities) Copy() Capabilities {
	out := c
	out.Currencies = append([]string(nil), c.Currencies...)
	out.PaymentMethodTypes = append([]MethodType(nil), c.PaymentMethodTypes...)
	return out
}

// SupportsCurrency compares case-insensitively.
func (c Capabilities) SupportsCurrency(currency string) bool {
	for _, cur := range c.Currencies {
		if strings.EqualFold(cur, currency) {
			return true
		}
	}
	return false
}

// Status is the normalized payment status shared by every adapter.
type Status string

const (
	StatusPending           Status = "pending"
	StatusProcessing        Status = "processing"
	StatusSucceeded         Status = "succeeded"
	StatusFailed            Status = "failed"
	StatusCancelled         Status = "cancelled"
	StatusRefunded          Status = "refunded"
	StatusPartiallyRefunded Status = "partially_refunded"
)

// Statuses lists the closed status enumeration.
func Statuses() []Status {
	return []Status{
		StatusPending,
		StatusProcessing,
		StatusSucceeded,
		StatusFailed,
		StatusCancelled,
		StatusRefunded,
		StatusPartiallyRefunded,
	}
}

// Valid reports whether s is a member of the enumeration.
func (s Status) Valid() bool {
	for _, known := range Statuses() {
		if s == known {
			return true
		}
	}
	return false
}

// RefundStatus is the normalized refund status.
type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundSucceeded RefundStatus = "succeeded"
	RefundFailed    RefundStatus = "failed"
	RefundCancelled RefundStatus = "cancelled"
)

// Valid reports whether s is a known refund status.
func (s RefundStatus) Valid() bool {
	switch s {
	case RefundPending, RefundSucceeded, RefundFailed, RefundCancelled:
		return true
	}
	return false
}

// PaymentIntentRequest describes a charge to create.
type PaymentIntentRequest struct {
	Amount          float64
	Currency        string
	CustomerID      string
	PaymentMethodID string
	Description     string
	Metadata        map[string]string
	// Confirm asks the provider to capture immediately when it supports it.
	Confirm bool
}

// PaymentIntent is the normalized view of a provider charge.
type PaymentIntent struct {
	ID                 string
	Amount             float64
	Currency           string
	Status             Status
	PaymentMethodID    string
	CustomerID         string
	Metadata           map[string]string
	CreatedAt          time.Time
	ProcessorType      Type
	ProcessorPaymentID string
}

// PaymentMethod is a normalized card/bank/wallet descriptor.
type PaymentMethod struct {
	ID                string
	Type              MethodType
	Processor         Type
	ProcessorMethodID string
	CustomerID        string
	Last4             string
	Brand             string
	ExpiryMonth       int
	ExpiryYear        int
	CreatedAt         time.Time
}

// Address is a postal address attached to a customer.
type Address struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// CustomerInfo is the provider-owned customer record.
type CustomerInfo struct {
	ID       string
	Email    string
	Name     string
	Phone    string
	Address  *Address
	Metadata map[string]string
}

// CustomerUpdate carries a partial update; nil fields are left untouched.
type CustomerUpdate struct {
	Email    *string
	Name     *string
	Phone    *string
	Address  *Address
	Metadata map[string]string
}

// RefundRequest asks for a refund. A nil Amount refunds the full charge.
type RefundRequest struct {
	PaymentIntentID string
	Amount          *float64
	Reason          string
}

// RefundResult is the normalized refund returned by providers.
type RefundResult struct {
	ID                string
	PaymentIntentID   string
	Amount            float64
	Currency          string
	Status            RefundStatus
	Reason            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ProcessorRefundID string
}

// EventType is the normalized webhook event taxonomy.
type EventType string

const (
	EventPaymentSucceeded      EventType = "payment.succeeded"
	EventPaymentFailed         EventType = "payment.failed"
	EventPaymentProcessing     EventType = "payment.processing"
	EventPaymentCancelled      EventType = "payment.cancelled"
	EventPaymentRefunded       EventType = "payment.refunded"
	EventRefundCreated         EventType = "refund.created"
	EventRefundUpdated         EventType = "refund.updated"
	EventCustomerCreated       EventType = "customer.created"
	EventCustomerUpdated       EventType = "customer.updated"
	EventPaymentMethodAttached EventType = "payment_method.attached"
	EventPaymentMethodDetached EventType = "payment_method.detached"
	EventDisputeCreated        EventType = "dispute.created"
	EventUnknown               EventType = "unknown"
)

// WebhookEvent is a verified provider event in normalized form.
type WebhookEvent struct {
	ID        string
	Type      EventType
	Processor Type
	// ProviderType is the provider's own event name, kept for routing and audit.
	ProviderType string
	Data         map[string]any
	CreatedAt    time.Time
	// RawEvent is the payload exactly as received.
	RawEvent json.RawMessage
}

// WebhookVerification is always returned by VerifyWebhook; it never panics or errors.
type WebhookVerification struct {
	Verified bool
	Event    *WebhookEvent
	Error    error
}
