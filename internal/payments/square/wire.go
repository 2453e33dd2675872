package square

import (
	"strings"
	"time"

	"github.com/paycore/processor-gateway/internal/payments/processor"
)

type money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func toMoney(amount float64, currency string) money {
	currency = processor.NormalizeCurrency(currency)
	return money{Amount: processor.ToMinorUnits(amount, currency), Currency: currency}
}

func (m money) major() float64 {
	return processor.FromMinorUnits(m.Amount, m.Currency)
}

type createPaymentRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	SourceID       string `json:"source_id"`
	AmountMoney    money  `json:"amount_money"`
	Autocomplete   bool   `json:"autocomplete"`
	CustomerID     string `json:"customer_id,omitempty"`
	LocationID     string `json:"location_id,omitempty"`
	Note           string `json:"note,omitempty"`
	ReferenceID    string `json:"reference_id,omitempty"`
}

type payment struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	AmountMoney money  `json:"amount_money"`
	CustomerID  string `json:"customer_id"`
	ReferenceID string `json:"reference_id"`
	Note        string `json:"note"`
	CreatedAt   string `json:"created_at"`
	CardDetails *struct {
		Card card `json:"card"`
	} `json:"card_details"`
}

type paymentResponse struct {
	Payment payment `json:"payment"`
}

func (p *payment) normalize() *processor.PaymentIntent {
	pi := &processor.PaymentIntent{
		ID:                 p.ID,
		Amount:             p.AmountMoney.major(),
		Currency:           processor.NormalizeCurrency(p.AmountMoney.Currency),
		Status:             mapStatus(p.Status),
		CustomerID:         p.CustomerID,
		CreatedAt:          parseTime(p.CreatedAt),
		ProcessorType:      processor.TypeSquare,
		ProcessorPaymentID: p.ID,
	}
	if p.CardDetails != nil {
		pi.PaymentMethodID = p.CardDetails.Card.ID
	}
	if p.ReferenceID != "" {
		pi.Metadata = map[string]string{"reference_id": p.ReferenceID}
	}
	return pi
}

type refund struct {
	ID          string `json:"id"`
	PaymentID   string `json:"payment_id"`
	Status      string `json:"status"`
	AmountMoney money  `json:"amount_money"`
	Reason      string `json:"reason"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type refundResponse struct {
	Refund refund `json:"refund"`
}

func (r *refund) normalize() *processor.RefundResult {
	created := parseTime(r.CreatedAt)
	updated := parseTime(r.UpdatedAt)
	if updated.IsZero() {
		updated = created
	}
	return &processor.RefundResult{
		ID:                r.ID,
		PaymentIntentID:   r.PaymentID,
		Amount:            r.AmountMoney.major(),
		Currency:          processor.NormalizeCurrency(r.AmountMoney.Currency),
		Status:            mapRefundStatus(r.Status),
		Reason:            r.Reason,
		CreatedAt:         created,
		UpdatedAt:         updated,
		ProcessorRefundID: r.ID,
	}
}

type address struct {
	AddressLine1                 string `json:"address_line_1,omitempty"`
	AddressLine2                 string `json:"address_line_2,omitempty"`
	Locality                     string `json:"locality,omitempty"`
	AdministrativeDistrictLevel1 string `json:"administrative_district_level_1,omitempty"`
	PostalCode                   string `json:"postal_code,omitempty"`
	Country                      string `json:"country,omitempty"`
}

func toAddress(a *processor.Address) *address {
	if a == nil {
		return nil
	}
	return &address{
		AddressLine1:                 a.Line1,
		AddressLine2:                 a.Line2,
		Locality:                     a.City,
		AdministrativeDistrictLevel1: a.State,
		PostalCode:                   a.PostalCode,
		Country:                      a.Country,
	}
}

type customer struct {
	ID           string   `json:"id,omitempty"`
	GivenName    string   `json:"given_name,omitempty"`
	FamilyName   string   `json:"family_name,omitempty"`
	EmailAddress string   `json:"email_address,omitempty"`
	PhoneNumber  string   `json:"phone_number,omitempty"`
	ReferenceID  string   `json:"reference_id,omitempty"`
	Note         string   `json:"note,omitempty"`
	Address      *address `json:"address,omitempty"`
}

type customerResponse struct {
	Customer customer `json:"customer"`
}

// splitName maps a display name onto Square's given/family fields.
func splitName(name string) (given, family string) {
	name = strings.TrimSpace(name)
	given, family, _ = strings.Cut(name, " ")
	return given, strings.TrimSpace(family)
}

func (c *customer) normalize() *processor.CustomerInfo {
	out := &processor.CustomerInfo{
		ID:    c.ID,
		Email: c.EmailAddress,
		Name:  strings.TrimSpace(c.GivenName + " " + c.FamilyName),
		Phone: c.PhoneNumber,
	}
	if c.ReferenceID != "" {
		out.Metadata = map[string]string{"reference_id": c.ReferenceID}
	}
	if c.Address != nil {
		out.Address = &processor.Address{
			Line1:      c.Address.AddressLine1,
			Line2:      c.Address.AddressLine2,
			City:       c.Address.Locality,
			State:      c.Address.AdministrativeDistrictLevel1,
			PostalCode: c.Address.PostalCode,
			Country:    c.Address.Country,
		}
	}
	return out
}

type card struct {
	ID         string `json:"id"`
	CardBrand  string `json:"card_brand"`
	Last4      string `json:"last_4"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	CustomerID string `json:"customer_id"`
	Enabled    bool   `json:"enabled"`
	CreatedAt  string `json:"created_at"`
}

type cardResponse struct {
	Card card `json:"card"`
}

type cardListResponse struct {
	Cards []card `json:"cards"`
}

func (c *card) normalize() processor.PaymentMethod {
	return processor.PaymentMethod{
		ID:                c.ID,
		Type:              processor.MethodCard,
		Processor:         processor.TypeSquare,
		ProcessorMethodID: c.ID,
		CustomerID:        c.CustomerID,
		Last4:             c.Last4,
		Brand:             strings.ToLower(c.CardBrand),
		ExpiryMonth:       c.ExpMonth,
		ExpiryYear:        c.ExpYear,
		CreatedAt:         parseTime(c.CreatedAt),
	}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func mapStatus(s string) processor.Status {
	switch strings.ToUpper(s) {
	case "APPROVED":
		return processor.StatusProcessing
	case "PENDING":
		return processor.StatusPending
	case "COMPLETED":
		return processor.StatusSucceeded
	case "CANCELED":
		return processor.StatusCancelled
	case "FAILED":
		return processor.StatusFailed
	default:
		return processor.StatusPending
	}
}

func mapRefundStatus(s string) processor.RefundStatus {
	switch strings.ToUpper(s) {
	case "COMPLETED":
		return processor.RefundSucceeded
	case "REJECTED", "FAILED":
		return processor.RefundFailed
	default:
		return processor.RefundPending
	}
}

var eventTypes = map[string]processor.EventType{
	"refund.created":   processor.EventRefundCreated,
	"refund.updated":   processor.EventRefundUpdated,
	"customer.created": processor.EventCustomerCreated,
	"customer.updated": processor.EventCustomerUpdated,
	"card.created":     processor.EventPaymentMethodAttached,
	"card.disabled":    processor.EventPaymentMethodDetached,
	"dispute.created":  processor.EventDisputeCreated,
}

// mapEventType resolves payment events through the payment's own status.
func mapEventType(t, paymentStatus string) processor.EventType {
	if t == "payment.created" || t == "payment.updated" {
		switch strings.ToUpper(paymentStatus) {
		case "COMPLETED":
			return processor.EventPaymentSucceeded
		case "FAILED":
			return processor.EventPaymentFailed
		case "CANCELED":
			return processor.EventPaymentCancelled
		default:
			return processor.EventPaymentProcessing
		}
	}
	if et, ok := eventTypes[t]; ok {
		return et
	}
	return processor.EventUnknown
}
