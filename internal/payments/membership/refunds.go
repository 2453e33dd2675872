package membership

import (
	"context"
	"net/http"
	"net/url"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/restclient"
)

type createRefundRequest struct {
	Amount *int64 `json:"amount,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// CreateRefund refunds an order. Partial refunds are converted using the
// order's currency.
func (a *Adapter) CreateRefund(ctx context.Context, req processor.RefundRequest) (_ *processor.RefundResult, err error) {
	const op = "create_refund"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := req.Validate(processor.TypeMembership); err != nil {
		return nil, err
	}

	body := createRefundRequest{Reason: req.Reason}
	if req.Amount != nil {
		var ord orderResponse
		if err := a.client.Do(ctx, restclient.Request{
			Method: http.MethodGet,
			Path:   "/v1/orders/" + url.PathEscape(req.PaymentIntentID),
		}, &ord); err != nil {
			return nil, restclient.Wrap(processor.TypeMembership, processor.KindRefund, op, err)
		}
		minor := processor.ToMinorUnits(*req.Amount, processor.NormalizeCurrency(ord.Order.Currency))
		body.Amount = &minor
	}

	var resp refundResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method:         http.MethodPost,
		Path:           "/v1/orders/" + url.PathEscape(req.PaymentIntentID) + "/refunds",
		JSON:           body,
		IdempotencyKey: processor.NewIdempotencyKey("mref"),
	}, &resp); err != nil {
		return nil, restclient.Wrap(processor.TypeMembership, processor.KindRefund, op, err)
	}
	if resp.Refund.OrderID == "" {
		resp.Refund.OrderID = req.PaymentIntentID
	}
	return resp.Refund.normalize(), nil
}

// RetrieveRefund fetches a refund by id.
func (a *Adapter) RetrieveRefund(ctx context.Context, id string) (_ *processor.RefundResult, err error) {
	const op = "retrieve_refund"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeMembership, processor.KindRefund, op, "refund id", id); err != nil {
		return nil, err
	}
	var resp refundResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		Path:   "/v1/refunds/" + url.PathEscape(id),
	}, &resp); err != nil {
		return nil, restclient.Wrap(processor.TypeMembership, processor.KindRefund, op, err)
	}
	return resp.Refund.normalize(), nil
}
