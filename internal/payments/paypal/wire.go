package paypal

import (
	"strconv"
	"strings"
	"time"

	"github.com/paycore/processor-gateway/internal/payments/processor"
)

// PayPal amounts are decimal strings in major units.
type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

func toAmount(v float64, currency string) amount {
	currency = processor.NormalizeCurrency(currency)
	decimals := 2
	if processor.IsZeroDecimal(currency) {
		decimals = 0
	}
	// normalize through minor units first
	major := processor.FromMinorUnits(processor.ToMinorUnits(v, currency), currency)
	return amount{CurrencyCode: currency, Value: strconv.FormatFloat(major, 'f', decimals, 64)}
}

func (a amount) major() float64 {
	v, err := strconv.ParseFloat(a.Value, 64)
	if err != nil {
		return 0
	}
	return v
}

type purchaseUnit struct {
	ReferenceID string        `json:"reference_id,omitempty"`
	CustomID    string        `json:"custom_id,omitempty"`
	InvoiceID   string        `json:"invoice_id,omitempty"`
	Description string        `json:"description,omitempty"`
	Amount      amount        `json:"amount"`
	Payments    *unitPayments `json:"payments,omitempty"`
}

type unitPayments struct {
	Captures []capture `json:"captures"`
}

type capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount amount `json:"amount"`
}

type createOrderRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
	PaymentSource map[string]any `json:"payment_source,omitempty"`
}

func vaultSource(tokenID string) map[string]any {
	return map[string]any{"paypal": map[string]any{"vault_id": tokenID}}
}

type order struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	CreateTime    string         `json:"create_time"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
	PaymentSource map[string]struct {
		VaultID    string `json:"vault_id"`
		Attributes *struct {
			Vault struct {
				ID string `json:"id"`
			} `json:"vault"`
		} `json:"attributes"`
	} `json:"payment_source"`
}

// firstCapture returns the first capture of any purchase unit.
func (o *order) firstCapture() *capture {
	for _, pu := range o.PurchaseUnits {
		if pu.Payments == nil {
			continue
		}
		for i := range pu.Payments.Captures {
			if pu.Payments.Captures[i].ID != "" {
				return &pu.Payments.Captures[i]
			}
		}
	}
	return nil
}

func (o *order) captureID() string {
	if c := o.firstCapture(); c != nil {
		return c.ID
	}
	return ""
}

func (o *order) normalize(meta map[string]string) *processor.PaymentIntent {
	pi := &processor.PaymentIntent{
		ID:                 o.ID,
		Status:             mapStatus(o.Status),
		Metadata:           meta,
		CreatedAt:          parseTime(o.CreateTime),
		ProcessorType:      processor.TypePayPal,
		ProcessorPaymentID: o.ID,
	}
	if len(o.PurchaseUnits) > 0 {
		pu := o.PurchaseUnits[0]
		amt := pu.Amount
		pi.CustomerID = pu.CustomID
		// capture responses carry the amount on the capture, not the unit
		if c := o.firstCapture(); c != nil {
			pi.ProcessorPaymentID = c.ID
			if amt.Value == "" {
				amt = c.Amount
			}
		}
		pi.Amount = amt.major()
		pi.Currency = processor.NormalizeCurrency(amt.CurrencyCode)
	}
	for _, src := range o.PaymentSource {
		switch {
		case src.VaultID != "":
			pi.PaymentMethodID = src.VaultID
		case src.Attributes != nil && src.Attributes.Vault.ID != "":
			pi.PaymentMethodID = src.Attributes.Vault.ID
		}
	}
	return pi
}

type refundRequest struct {
	Amount      *amount `json:"amount,omitempty"`
	NoteToPayer string  `json:"note_to_payer,omitempty"`
}

type link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type refund struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	Amount      *amount `json:"amount"`
	NoteToPayer string  `json:"note_to_payer"`
	CreateTime  string  `json:"create_time"`
	UpdateTime  string  `json:"update_time"`
	Links       []link  `json:"links"`
}

// captureFromLinks extracts the refunded capture id from the "up" link.
func (r *refund) captureFromLinks() string {
	for _, l := range r.Links {
		if l.Rel != "up" {
			continue
		}
		if i := strings.LastIndex(l.Href, "/captures/"); i >= 0 {
			return l.Href[i+len("/captures/"):]
		}
	}
	return ""
}

func (r *refund) normalize(paymentIntentID string) *processor.RefundResult {
	created := parseTime(r.CreateTime)
	updated := parseTime(r.UpdateTime)
	if updated.IsZero() {
		updated = created
	}
	out := &processor.RefundResult{
		ID:                r.ID,
		PaymentIntentID:   paymentIntentID,
		Status:            mapRefundStatus(r.Status),
		Reason:            r.NoteToPayer,
		CreatedAt:         created,
		UpdatedAt:         updated,
		ProcessorRefundID: r.ID,
	}
	if r.Amount != nil {
		out.Amount = r.Amount.major()
		out.Currency = processor.NormalizeCurrency(r.Amount.CurrencyCode)
	}
	return out
}

type paymentToken struct {
	ID       string `json:"id"`
	Customer struct {
		ID string `json:"id"`
	} `json:"customer"`
	PaymentSource struct {
		Card *struct {
			Brand      string `json:"brand"`
			LastDigits string `json:"last_digits"`
			Expiry     string `json:"expiry"`
		} `json:"card"`
		PayPal *struct {
			EmailAddress string `json:"email_address"`
		} `json:"paypal"`
	} `json:"payment_source"`
}

type paymentTokenList struct {
	PaymentTokens []paymentToken `json:"payment_tokens"`
}

func (t *paymentToken) normalize() processor.PaymentMethod {
	pm := processor.PaymentMethod{
		ID:                t.ID,
		Type:              processor.MethodPayPal,
		Processor:         processor.TypePayPal,
		ProcessorMethodID: t.ID,
		CustomerID:        t.Customer.ID,
	}
	if c := t.PaymentSource.Card; c != nil {
		pm.Type = processor.MethodCard
		pm.Brand = strings.ToLower(c.Brand)
		pm.Last4 = c.LastDigits
		// expiry is "YYYY-MM"
		if y, m, ok := strings.Cut(c.Expiry, "-"); ok {
			pm.ExpiryYear, _ = strconv.Atoi(y)
			pm.ExpiryMonth, _ = strconv.Atoi(m)
		}
	}
	return pm
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
	case "CREATED", "SAVED", "PAYER_ACTION_REQUIRED":
		return processor.StatusPending
	case "APPROVED":
		return processor.StatusProcessing
	case "COMPLETED":
		return processor.StatusSucceeded
	case "VOIDED":
		return processor.StatusCancelled
	default:
		return processor.StatusPending
	}
}

func mapRefundStatus(s string) processor.RefundStatus {
	switch strings.ToUpper(s) {
	case "COMPLETED":
		return processor.RefundSucceeded
	case "FAILED":
		return processor.RefundFailed
	case "CANCELLED":
		return processor.RefundCancelled
	default:
		return processor.RefundPending
	}
}

var eventTypes = map[string]processor.EventType{
	"PAYMENT.CAPTURE.COMPLETED":   processor.EventPaymentSucceeded,
	"PAYMENT.CAPTURE.DENIED":      processor.EventPaymentFailed,
	"PAYMENT.CAPTURE.PENDING":     processor.EventPaymentProcessing,
	"PAYMENT.CAPTURE.REFUNDED":    processor.EventPaymentRefunded,
	"CHECKOUT.ORDER.APPROVED":     processor.EventPaymentProcessing,
	"CHECKOUT.ORDER.VOIDED":       processor.EventPaymentCancelled,
	"VAULT.PAYMENT-TOKEN.CREATED": processor.EventPaymentMethodAttached,
	"VAULT.PAYMENT-TOKEN.DELETED": processor.EventPaymentMethodDetached,
	"CUSTOMER.DISPUTE.CREATED":    processor.EventDisputeCreated,
}

func mapEventType(t string) processor.EventType {
	if et, ok := eventTypes[strings.ToUpper(t)]; ok {
		return et
	}
	return processor.EventUnknown
}
