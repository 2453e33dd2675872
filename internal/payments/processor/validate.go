package processor

import "strings"

// Validate checks the request fields every adapter relies on.
func (r PaymentIntentRequest) Validate(t Type) error {
	if r.Amount <= 0 {
		return InvalidRequestError(t, KindPaymentIntent, "create_payment_intent", "amount must be positive")
	}
	if strings.TrimSpace(r.Currency) == "" {
		return InvalidRequestError(t, KindPaymentIntent, "create_payment_intent", "currency is required")
	}
	return nil
}

// Validate checks refund input before any provider call.
func (r RefundRequest) Validate(t Type) error {
	if strings.TrimSpace(r.PaymentIntentID) == "" {
		return InvalidRequestError(t, KindRefund, "create_refund", "payment intent id is required")
	}
	if r.Amount != nil && *r.Amount <= 0 {
		return InvalidRequestError(t, KindRefund, "create_refund", "refund amount must be positive")
	}
	return nil
}

// RequireID rejects blank identifiers.
func RequireID(t Type, kind Kind, op, name, value string) error {
	if strings.TrimSpace(value) == "" {
		return InvalidRequestError(t, kind, op, name+" is required")
	}
	return nil
}
