package square

import (
	"context"
	"net/http"
	"net/url"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/restclient"
)

type createRefundRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	PaymentID      string `json:"payment_id"`
	AmountMoney    money  `json:"amount_money"`
	Reason         string `json:"reason,omitempty"`
}

// CreateRefund refunds a payment. Square always requires amount_money, so a
// full refund reads the payment first.
func (a *Adapter) CreateRefund(ctx context.Context, req processor.RefundRequest) (_ *processor.RefundResult, err error) {
	const op = "create_refund"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := req.Validate(processor.TypeSquare); err != nil {
		return nil, err
	}
	p, err := a.fetchPayment(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, restclient.Wrap(processor.TypeSquare, processor.KindRefund, op, err)
	}
	amount := p.AmountMoney
	if req.Amount != nil {
		amount = toMoney(*req.Amount, p.AmountMoney.Currency)
	}

	var resp refundResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   "/v2/refunds",
		JSON: createRefundRequest{
			IdempotencyKey: processor.NewIdempotencyKey("sqref"),
			PaymentID:      req.PaymentIntentID,
			AmountMoney:    amount,
			Reason:         req.Reason,
		},
	}, &resp); err != nil {
		return nil, restclient.Wrap(processor.TypeSquare, processor.KindRefund, op, err)
	}
	a.base.Logger().Info("square refund created",
		"refund_id", resp.Refund.ID,
		"payment_id", req.PaymentIntentID,
		"status", resp.Refund.Status,
		"amount_minor", amount.Amount,
	)
	return resp.Refund.normalize(), nil
}

func (a *Adapter) RetrieveRefund(ctx context.Context, id string) (_ *processor.RefundResult, err error) {
	const op = "retrieve_refund"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeSquare, processor.KindRefund, op, "refund id", id); err != nil {
		return nil, err
	}
	var resp refundResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		Path:   "/v2/refunds/" + url.PathEscape(id),
	}, &resp); err != nil {
		return nil, restclient.Wrap(processor.TypeSquare, processor.KindRefund, op, err)
	}
	return resp.Refund.normalize(), nil
}
