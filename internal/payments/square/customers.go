package square

import (
	"context"
	"net/http"
	"net/url"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/restclient"
)

type createCustomerRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	customer
}

// CreateCustomer creates a Square customer. Only metadata["reference_id"]
// survives; Square customers have no free-form metadata.
func (a *Adapter) CreateCustomer(ctx context.Context, info processor.CustomerInfo) (_ string, err error) {
	const op = "create_customer"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return "", err
	}
	defer func() { err = done(err) }()

	given, family := splitName(info.Name)
	var resp customerResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   "/v2/customers",
		JSON: createCustomerRequest{
			IdempotencyKey: processor.NewIdempotencyKey("sqcus"),
			customer: customer{
				GivenName:    given,
				FamilyName:   family,
				EmailAddress: info.Email,
				PhoneNumber:  info.Phone,
				ReferenceID:  info.Metadata["reference_id"],
				Address:      toAddress(info.Address),
			},
		},
	}, &resp); err != nil {
		return "", restclient.Wrap(processor.TypeSquare, processor.KindCustomer, op, err)
	}
	return resp.Customer.ID, nil
}

func (a *Adapter) RetrieveCustomer(ctx context.Context, id string) (_ *processor.CustomerInfo, err error) {
	const op = "retrieve_customer"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeSquare, processor.KindCustomer, op, "customer id", id); err != nil {
		return nil, err
	}
	var resp customerResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		Path:   "/v2/customers/" + url.PathEscape(id),
	}, &resp); err != nil {
		return nil, restclient.Wrap(processor.TypeSquare, processor.KindCustomer, op, err)
	}
	return resp.Customer.normalize(), nil
}

// UpdateCustomer sends a sparse PUT; Square leaves omitted fields unchanged.
func (a *Adapter) UpdateCustomer(ctx context.Context, id string, update processor.CustomerUpdate) (_ *processor.CustomerInfo, err error) {
	const op = "update_customer"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeSquare, processor.KindCustomer, op, "customer id", id); err != nil {
		return nil, err
	}
	var body customer
	if update.Name != nil {
		body.GivenName, body.FamilyName = splitName(*update.Name)
	}
	if update.Email != nil {
		body.EmailAddress = *update.Email
	}
	if update.Phone != nil {
		body.PhoneNumber = *update.Phone
	}
	if ref, ok := update.Metadata["reference_id"]; ok {
		body.ReferenceID = ref
	}
	body.Address = toAddress(update.Address)

	var resp customerResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodPut,
		Path:   "/v2/customers/" + url.PathEscape(id),
		JSON:   body,
	}, &resp); err != nil {
		return nil, restclient.Wrap(processor.TypeSquare, processor.KindCustomer, op, err)
	}
	return resp.Customer.normalize(), nil
}

type createCardRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	SourceID       string `json:"source_id"`
	Card           struct {
		CustomerID string `json:"customer_id"`
	} `json:"card"`
}

// AttachPaymentMethod stores a card on file from a payment token or a
// previous payment id.
func (a *Adapter) AttachPaymentMethod(ctx context.Context, methodID, customerID string) (_ *processor.PaymentMethod, err error) {
	const op = "attach_payment_method"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeSquare, processor.KindPaymentMethod, op, "source id", methodID); err != nil {
		return nil, err
	}
	if err := processor.RequireID(processor.TypeSquare, processor.KindPaymentMethod, op, "customer id", customerID); err != nil {
		return nil, err
	}
	body := createCardRequest{
		IdempotencyKey: processor.NewIdempotencyKey("sqcard"),
		SourceID:       methodID,
	}
	body.Card.CustomerID = customerID

	var resp cardResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   "/v2/cards",
		JSON:   body,
	}, &resp); err != nil {
		return nil, restclient.Wrap(processor.TypeSquare, processor.KindPaymentMethod, op, err)
	}
	out := resp.Card.normalize()
	return &out, nil
}

// DetachPaymentMethod disables the card. Disabled cards cannot be re-enabled.
func (a *Adapter) DetachPaymentMethod(ctx context.Context, methodID string) (_ *processor.PaymentMethod, err error) {
	const op = "detach_payment_method"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeSquare, processor.KindPaymentMethod, op, "card id", methodID); err != nil {
		return nil, err
	}
	var resp cardResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   "/v2/cards/" + url.PathEscape(methodID) + "/disable",
		JSON:   map[string]any{},
	}, &resp); err != nil {
		return nil, restclient.Wrap(processor.TypeSquare, processor.KindPaymentMethod, op, err)
	}
	out := resp.Card.normalize()
	return &out, nil
}

func (a *Adapter) ListPaymentMethods(ctx context.Context, customerID string) (_ []processor.PaymentMethod, err error) {
	const op = "list_payment_methods"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeSquare, processor.KindPaymentMethod, op, "customer id", customerID); err != nil {
		return nil, err
	}
	var resp cardListResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		Path:   "/v2/cards",
		Query:  url.Values{"customer_id": {customerID}},
	}, &resp); err != nil {
		return nil, restclient.Wrap(processor.TypeSquare, processor.KindPaymentMethod, op, err)
	}
	out := make([]processor.PaymentMethod, 0, len(resp.Cards))
	for i := range resp.Cards {
		if !resp.Cards[i].Enabled {
			continue
		}
		out = append(out, resp.Cards[i].normalize())
	}
	return out, nil
}
