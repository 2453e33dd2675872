package membership

import (
	"strings"
	"time"

	"github.com/paycore/processor-gateway/internal/payments/processor"
)

// Amounts on the platform API are integer minor units.

type order struct {
	ID              string            `json:"id"`
	Amount          int64             `json:"amount"`
	Currency        string            `json:"currency"`
	Status          string            `json:"status"`
	MemberID        string            `json:"member_id"`
	PaymentMethodID string            `json:"payment_method_id"`
	Metadata        map[string]string `json:"metadata"`
	CreatedAt       time.Time         `json:"created_at"`
}

type orderResponse struct {
	Order order `json:"order"`
}

func (o *order) normalize() *processor.PaymentIntent {
	currency := processor.NormalizeCurrency(o.Currency)
	return &processor.PaymentIntent{
		ID:                 o.ID,
		Amount:             processor.FromMinorUnits(o.Amount, currency),
		Currency:           currency,
		Status:             mapStatus(o.Status),
		PaymentMethodID:    o.PaymentMethodID,
		CustomerID:         o.MemberID,
		Metadata:           o.Metadata,
		CreatedAt:          o.CreatedAt,
		ProcessorType:      processor.TypeMembership,
		ProcessorPaymentID: o.ID,
	}
}

type refund struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type refundResponse struct {
	Refund refund `json:"refund"`
}

func (r *refund) normalize() *processor.RefundResult {
	currency := processor.NormalizeCurrency(r.Currency)
	updated := r.UpdatedAt
	if updated.IsZero() {
		updated = r.CreatedAt
	}
	return &processor.RefundResult{
		ID:                r.ID,
		PaymentIntentID:   r.OrderID,
		Amount:            processor.FromMinorUnits(r.Amount, currency),
		Currency:          currency,
		Status:            mapRefundStatus(r.Status),
		Reason:            r.Reason,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         updated,
		ProcessorRefundID: r.ID,
	}
}

type address struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

func toAddress(a *processor.Address) *address {
	if a == nil {
		return nil
	}
	return &address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

type member struct {
	ID       string            `json:"id,omitempty"`
	Email    string            `json:"email,omitempty"`
	Name     string            `json:"name,omitempty"`
	Phone    string            `json:"phone,omitempty"`
	Address  *address          `json:"address,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type memberResponse struct {
	Member member `json:"member"`
}

func (m *member) normalize() *processor.CustomerInfo {
	out := &processor.CustomerInfo{
		ID:       m.ID,
		Email:    m.Email,
		Name:     m.Name,
		Phone:    m.Phone,
		Metadata: m.Metadata,
	}
	if m.Address != nil {
		out.Address = &processor.Address{
			Line1:      m.Address.Line1,
			Line2:      m.Address.Line2,
			City:       m.Address.City,
			State:      m.Address.State,
			PostalCode: m.Address.PostalCode,
			Country:    m.Address.Country,
		}
	}
	return out
}

func mapStatus(s string) processor.Status {
	switch lower(s) {
	case "pending", "awaiting_payment":
		return processor.StatusPending
	case "processing":
		return processor.StatusProcessing
	case "paid", "completed":
		return processor.StatusSucceeded
	case "failed", "declined":
		return processor.StatusFailed
	case "cancelled", "canceled", "expired":
		return processor.StatusCancelled
	case "refunded":
		return processor.StatusRefunded
	case "partially_refunded":
		return processor.StatusPartiallyRefunded
	default:
		return processor.StatusPending
	}
}

func mapRefundStatus(s string) processor.RefundStatus {
	switch lower(s) {
	case "succeeded", "completed", "refunded":
		return processor.RefundSucceeded
	case "failed", "rejected":
		return processor.RefundFailed
	case "cancelled", "canceled":
		return processor.RefundCancelled
	default:
		return processor.RefundPending
	}
}

var eventTypes = map[string]processor.EventType{
	"order.paid":           processor.EventPaymentSucceeded,
	"order.failed":         processor.EventPaymentFailed,
	"order.cancelled":      processor.EventPaymentCancelled,
	"order.refunded":       processor.EventPaymentRefunded,
	"member.created":       processor.EventCustomerCreated,
	"member.updated":       processor.EventCustomerUpdated,
	"membership.renewed":   processor.EventPaymentSucceeded,
	"membership.cancelled": processor.EventPaymentCancelled,
}

func mapEventType(t string) processor.EventType {
	if et, ok := eventTypes[strings.ToLower(t)]; ok {
		return et
	}
	return processor.EventUnknown
}
