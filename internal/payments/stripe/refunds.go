package stripe

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/restclient"
)

// reasons Stripe accepts in the reason field; anything else goes to metadata.
var refundReasons = map[string]bool{
	"duplicate":             true,
	"fraudulent":            true,
	"requested_by_customer": true,
}

// CreateRefund refunds a PaymentIntent in full, or partially when Amount is set.
func (a *Adapter) CreateRefund(ctx context.Context, req processor.RefundRequest) (_ *processor.RefundResult, err error) {
	const op = "create_refund"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := req.Validate(processor.TypeStripe); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("payment_intent", req.PaymentIntentID)
	if req.Amount != nil {
		// minor units depend on the charge currency
		pi, err := a.fetchPaymentIntent(ctx, req.PaymentIntentID)
		if err != nil {
			return nil, a.upstream(processor.KindRefund, op, err)
		}
		form.Set("amount", strconv.FormatInt(processor.ToMinorUnits(*req.Amount, pi.Currency), 10))
	}
	switch {
	case req.Reason == "":
	case refundReasons[req.Reason]:
		form.Set("reason", req.Reason)
	default:
		form.Set("metadata[reason]", req.Reason)
	}

	var r refund
	if err := a.client.Do(ctx, restclient.Request{
		Method:         http.MethodPost,
		Path:           "/v1/refunds",
		Form:           form,
		IdempotencyKey: processor.NewIdempotencyKey("re"),
	}, &r); err != nil {
		return nil, a.upstream(processor.KindRefund, op, err)
	}
	return r.normalize(), nil
}

// RetrieveRefund fetches a refund by id.
func (a *Adapter) RetrieveRefund(ctx context.Context, id string) (_ *processor.RefundResult, err error) {
	const op = "retrieve_refund"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeStripe, processor.KindRefund, op, "refund id", id); err != nil {
		return nil, err
	}
	var r refund
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		Path:   "/v1/refunds/" + url.PathEscape(id),
	}, &r); err != nil {
		return nil, a.upstream(processor.KindRefund, op, err)
	}
	return r.normalize(), nil
}
