package paypal

import (
	"context"
	"net/http"
	"net/url"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/restclient"
)

// CreateRefund resolves the order's capture and refunds it. A nil Amount
// refunds the remaining captured amount.
func (a *Adapter) CreateRefund(ctx context.Context, req processor.RefundRequest) (_ *processor.RefundResult, err error) {
	const op = "create_refund"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := req.Validate(processor.TypePayPal); err != nil {
		return nil, err
	}
	o, err := a.fetchOrder(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, restclient.Wrap(processor.TypePayPal, processor.KindRefund, op, err)
	}
	captureID := o.captureID()
	if captureID == "" {
		return nil, processor.InvalidRequestError(processor.TypePayPal, processor.KindRefund, op,
			"order "+req.PaymentIntentID+" has no capture to refund")
	}

	body := refundRequest{NoteToPayer: req.Reason}
	if req.Amount != nil {
		currency := ""
		if len(o.PurchaseUnits) > 0 {
			currency = o.PurchaseUnits[0].Amount.CurrencyCode
		}
		amt := toAmount(*req.Amount, currency)
		body.Amount = &amt
	}

	var r refund
	if err := a.client.Do(ctx, restclient.Request{
		Method:            http.MethodPost,
		Path:              "/v2/payments/captures/" + url.PathEscape(captureID) + "/refund",
		JSON:              body,
		IdempotencyKey:    processor.NewIdempotencyKey("ppref"),
		IdempotencyHeader: requestIDHeader,
		Headers:           map[string]string{"Prefer": "return=representation"},
	}, &r); err != nil {
		return nil, restclient.Wrap(processor.TypePayPal, processor.KindRefund, op, err)
	}
	return r.normalize(req.PaymentIntentID), nil
}

// RetrieveRefund fetches a refund. PayPal links refunds to captures, so
// PaymentIntentID carries the capture id.
func (a *Adapter) RetrieveRefund(ctx context.Context, id string) (_ *processor.RefundResult, err error) {
	const op = "retrieve_refund"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypePayPal, processor.KindRefund, op, "refund id", id); err != nil {
		return nil, err
	}
	var r refund
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		Path:   "/v2/payments/refunds/" + url.PathEscape(id),
	}, &r); err != nil {
		return nil, restclient.Wrap(processor.TypePayPal, processor.KindRefund, op, err)
	}
	return r.normalize(r.captureFromLinks()), nil
}
