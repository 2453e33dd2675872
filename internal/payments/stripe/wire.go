package stripe

import (
	"strings"
	"time"

	"github.com/paycore/processor-gateway/internal/payments/processor"
)

type paymentIntent struct {
	ID            string            `json:"id"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Status        string            `json:"status"`
	PaymentMethod string            `json:"payment_method"`
	Customer      string            `json:"customer"`
	Metadata      map[string]string `json:"metadata"`
	Created       int64             `json:"created"`
}

func (pi *paymentIntent) normalize() *processor.PaymentIntent {
	currency := strings.ToUpper(pi.Currency)
	return &processor.PaymentIntent{
		ID:                 pi.ID,
		Amount:             processor.FromMinorUnits(pi.Amount, currency),
		Currency:           currency,
		Status:             mapStatus(pi.Status),
		PaymentMethodID:    pi.PaymentMethod,
		CustomerID:         pi.Customer,
		Metadata:           pi.Metadata,
		CreatedAt:          unix(pi.Created),
		ProcessorType:      processor.TypeStripe,
		ProcessorPaymentID: pi.ID,
	}
}

type refund struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Status        string            `json:"status"`
	Reason        string            `json:"reason"`
	Metadata      map[string]string `json:"metadata"`
	Created       int64             `json:"created"`
}

func (r *refund) normalize() *processor.RefundResult {
	currency := strings.ToUpper(r.Currency)
	reason := r.Reason
	if reason == "" {
		reason = r.Metadata["reason"]
	}
	created := unix(r.Created)
	return &processor.RefundResult{
		ID:                r.ID,
		PaymentIntentID:   r.PaymentIntent,
		Amount:            processor.FromMinorUnits(r.Amount, currency),
		Currency:          currency,
		Status:            mapRefundStatus(r.Status),
		Reason:            reason,
		CreatedAt:         created,
		UpdatedAt:         created,
		ProcessorRefundID: r.ID,
	}
}

type address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type customer struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Phone    string            `json:"phone"`
	Address  *address          `json:"address"`
	Metadata map[string]string `json:"metadata"`
}

func (c *customer) normalize() *processor.CustomerInfo {
	out := &processor.CustomerInfo{
		ID:       c.ID,
		Email:    c.Email,
		Name:     c.Name,
		Phone:    c.Phone,
		Metadata: c.Metadata,
	}
	if c.Address != nil {
		out.Address = &processor.Address{
			Line1:      c.Address.Line1,
			Line2:      c.Address.Line2,
			City:       c.Address.City,
			State:      c.Address.State,
			PostalCode: c.Address.PostalCode,
			Country:    c.Address.Country,
		}
	}
	return out
}

type paymentMethod struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Customer string `json:"customer"`
	Created  int64  `json:"created"`
	Card     *struct {
		Brand    string `json:"brand"`
		Last4    string `json:"last4"`
		ExpMonth int    `json:"exp_month"`
		ExpYear  int    `json:"exp_year"`
	} `json:"card"`
}

func (pm *paymentMethod) normalize() processor.PaymentMethod {
	out := processor.PaymentMethod{
		ID:                pm.ID,
		Type:              methodType(pm.Type),
		Processor:         processor.TypeStripe,
		ProcessorMethodID: pm.ID,
		CustomerID:        pm.Customer,
		CreatedAt:         unix(pm.Created),
	}
	if pm.Card != nil {
		out.Brand = pm.Card.Brand
		out.Last4 = pm.Card.Last4
		out.ExpiryMonth = pm.Card.ExpMonth
		out.ExpiryYear = pm.Card.ExpYear
	}
	return out
}

type paymentMethodList struct {
	Data []paymentMethod `json:"data"`
}

func methodType(t string) processor.MethodType {
	switch t {
	case "us_bank_account", "sepa_debit", "bacs_debit", "acss_debit":
		return processor.MethodBankAccount
	case "link", "cashapp", "paypal":
		return processor.MethodWallet
	default:
		return processor.MethodCard
	}
}

func unix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// mapStatus is total; anything unrecognized is pending.
func mapStatus(s string) processor.Status {
	switch s {
	case "requires_payment_method", "requires_confirmation", "requires_action":
		return processor.StatusPending
	case "processing", "requires_capture":
		return processor.StatusProcessing
	case "succeeded":
		return processor.StatusSucceeded
	case "canceled":
		return processor.StatusCancelled
	default:
		return processor.StatusPending
	}
}

func mapRefundStatus(s string) processor.RefundStatus {
	switch s {
	case "succeeded":
		return processor.RefundSucceeded
	case "failed":
		return processor.RefundFailed
	case "canceled":
		return processor.RefundCancelled
	default:
		return processor.RefundPending
	}
}

var eventTypes = map[string]processor.EventType{
	"payment_intent.succeeded":      processor.EventPaymentSucceeded,
	"payment_intent.payment_failed": processor.EventPaymentFailed,
	"payment_intent.processing":     processor.EventPaymentProcessing,
	"payment_intent.canceled":       processor.EventPaymentCancelled,
	"charge.refunded":               processor.EventPaymentRefunded,
	"charge.refund.updated":         processor.EventRefundUpdated,
	"refund.updated":                processor.EventRefundUpdated,
	"refund.created":                processor.EventRefundCreated,
	"customer.created":              processor.EventCustomerCreated,
	"customer.updated":              processor.EventCustomerUpdated,
	"payment_method.attached":       processor.EventPaymentMethodAttached,
	"payment_method.detached":       processor.EventPaymentMethodDetached,
	"charge.dispute.created":        processor.EventDisputeCreated,
}

func mapEventType(t string) processor.EventType {
	if et, ok := eventTypes[t]; ok {
		return et
	}
	return processor.EventUnknown
}
