package paypal

import (
	"context"
	"net/http"
	"net/url"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/restclient"
)

// AttachPaymentMethod exchanges an approved vault setup token for a
// permanent payment token owned by customerID.
func (a *Adapter) AttachPaymentMethod(ctx context.Context, methodID, customerID string) (_ *processor.PaymentMethod, err error) {
	const op = "attach_payment_method"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypePayPal, processor.KindPaymentMethod, op, "setup token id", methodID); err != nil {
		return nil, err
	}
	body := map[string]any{
		"payment_source": map[string]any{
			"token": map[string]any{"id": methodID, "type": "SETUP_TOKEN"},
		},
	}
	if customerID != "" {
		body["customer"] = map[string]any{"id": customerID}
	}

	var tok paymentToken
	if err := a.client.Do(ctx, restclient.Request{
		Method:            http.MethodPost,
		Path:              "/v3/vault/payment-tokens",
		JSON:              body,
		IdempotencyKey:    processor.NewIdempotencyKey("pptok"),
		IdempotencyHeader: requestIDHeader,
	}, &tok); err != nil {
		return nil, restclient.Wrap(processor.TypePayPal, processor.KindPaymentMethod, op, err)
	}
	pm := tok.normalize()
	return &pm, nil
}

// DetachPaymentMethod reads the payment token, deletes it and returns the
// method as it was before deletion.
func (a *Adapter) DetachPaymentMethod(ctx context.Context, methodID string) (_ *processor.PaymentMethod, err error) {
	const op = "detach_payment_method"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypePayPal, processor.KindPaymentMethod, op, "payment token id", methodID); err != nil {
		return nil, err
	}
	path := "/v3/vault/payment-tokens/" + url.PathEscape(methodID)
	var tok paymentToken
	if err := a.client.Do(ctx, restclient.Request{Method: http.MethodGet, Path: path}, &tok); err != nil {
		return nil, restclient.Wrap(processor.TypePayPal, processor.KindPaymentMethod, op, err)
	}
	if err := a.client.Do(ctx, restclient.Request{Method: http.MethodDelete, Path: path}, nil); err != nil {
		return nil, restclient.Wrap(processor.TypePayPal, processor.KindPaymentMethod, op, err)
	}
	if tok.ID == "" {
		tok.ID = methodID
	}
	pm := tok.normalize()
	return &pm, nil
}

func (a *Adapter) ListPaymentMethods(ctx context.Context, customerID string) (_ []processor.PaymentMethod, err error) {
	const op = "list_payment_methods"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypePayPal, processor.KindPaymentMethod, op, "customer id", customerID); err != nil {
		return nil, err
	}
	var list paymentTokenList
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		Path:   "/v3/vault/payment-tokens",
		Query:  url.Values{"customer_id": {customerID}},
	}, &list); err != nil {
		return nil, restclient.Wrap(processor.TypePayPal, processor.KindPaymentMethod, op, err)
	}
	out := make([]processor.PaymentMethod, 0, len(list.PaymentTokens))
	for i := range list.PaymentTokens {
		out = append(out, list.PaymentTokens[i].normalize())
	}
	return out, nil
}
