package stripe

import (
	"context"
	"net/http"
	"net/url"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/restclient"
)

// CreateCustomer creates a Stripe customer and returns its id.
func (a *Adapter) CreateCustomer(ctx context.Context, info processor.CustomerInfo) (_ string, err error) {
	const op = "create_customer"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return "", err
	}
	defer func() { err = done(err) }()

	form := url.Values{}
	setIfNotEmpty(form, "email", info.Email)
	setIfNotEmpty(form, "name", info.Name)
	setIfNotEmpty(form, "phone", info.Phone)
	setAddress(form, info.Address)
	setMetadata(form, "metadata", info.Metadata)

	var c customer
	if err := a.client.Do(ctx, restclient.Request{
		Method:         http.MethodPost,
		Path:           "/v1/customers",
		Form:           form,
		IdempotencyKey: processor.NewIdempotencyKey("cus"),
	}, &c); err != nil {
		return "", a.upstream(processor.KindCustomer, op, err)
	}
	return c.ID, nil
}

// RetrieveCustomer fetches a customer by id.
func (a *Adapter) RetrieveCustomer(ctx context.Context, id string) (_ *processor.CustomerInfo, err error) {
	const op = "retrieve_customer"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeStripe, processor.KindCustomer, op, "customer id", id); err != nil {
		return nil, err
	}
	var c customer
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		Path:   "/v1/customers/" + url.PathEscape(id),
	}, &c); err != nil {
		return nil, a.upstream(processor.KindCustomer, op, err)
	}
	return c.normalize(), nil
}

// UpdateCustomer sends only the fields present in update.
func (a *Adapter) UpdateCustomer(ctx context.Context, id string, update processor.CustomerUpdate) (_ *processor.CustomerInfo, err error) {
	const op = "update_customer"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeStripe, processor.KindCustomer, op, "customer id", id); err != nil {
		return nil, err
	}
	form := url.Values{}
	if update.Email != nil {
		form.Set("email", *update.Email)
	}
	if update.Name != nil {
		form.Set("name", *update.Name)
	}
	if update.Phone != nil {
		form.Set("phone", *update.Phone)
	}
	setAddress(form, update.Address)
	setMetadata(form, "metadata", update.Metadata)

	var c customer
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   "/v1/customers/" + url.PathEscape(id),
		Form:   form,
	}, &c); err != nil {
		return nil, a.upstream(processor.KindCustomer, op, err)
	}
	return c.normalize(), nil
}

// AttachPaymentMethod attaches an existing method to a customer.
func (a *Adapter) AttachPaymentMethod(ctx context.Context, methodID, customerID string) (_ *processor.PaymentMethod, err error) {
	const op = "attach_payment_method"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeStripe, processor.KindPaymentMethod, op, "payment method id", methodID); err != nil {
		return nil, err
	}
	if err := processor.RequireID(processor.TypeStripe, processor.KindPaymentMethod, op, "customer id", customerID); err != nil {
		return nil, err
	}
	var pm paymentMethod
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   "/v1/payment_methods/" + url.PathEscape(methodID) + "/attach",
		Form:   url.Values{"customer": {customerID}},
	}, &pm); err != nil {
		return nil, a.upstream(processor.KindPaymentMethod, op, err)
	}
	out := pm.normalize()
	return &out, nil
}

// DetachPaymentMethod detaches a method from its customer. The method
// object survives with an empty customer.
func (a *Adapter) DetachPaymentMethod(ctx context.Context, methodID string) (_ *processor.PaymentMethod, err error) {
	const op = "detach_payment_method"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeStripe, processor.KindPaymentMethod, op, "payment method id", methodID); err != nil {
		return nil, err
	}
	var pm paymentMethod
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   "/v1/payment_methods/" + url.PathEscape(methodID) + "/detach",
		Form:   url.Values{},
	}, &pm); err != nil {
		return nil, a.upstream(processor.KindPaymentMethod, op, err)
	}
	out := pm.normalize()
	return &out, nil
}

// ListPaymentMethods lists the customer's cards.
func (a *Adapter) ListPaymentMethods(ctx context.Context, customerID string) (_ []processor.PaymentMethod, err error) {
	const op = "list_payment_methods"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeStripe, processor.KindPaymentMethod, op, "customer id", customerID); err != nil {
		return nil, err
	}
	var list paymentMethodList
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		Path:   "/v1/payment_methods",
		Query:  url.Values{"customer": {customerID}, "type": {"card"}},
	}, &list); err != nil {
		return nil, a.upstream(processor.KindPaymentMethod, op, err)
	}
	out := make([]processor.PaymentMethod, 0, len(list.Data))
	for i := range list.Data {
		out = append(out, list.Data[i].normalize())
	}
	return out, nil
}

func setIfNotEmpty(form url.Values, key, value string) {
	if value != "" {
		form.Set(key, value)
	}
}

func setAddress(form url.Values, addr *processor.Address) {
	if addr == nil {
		return
	}
	setIfNotEmpty(form, "address[line1]", addr.Line1)
	setIfNotEmpty(form, "address[line2]", addr.Line2)
	setIfNotEmpty(form, "address[city]", addr.City)
	setIfNotEmpty(form, "address[state]", addr.State)
	setIfNotEmpty(form, "address[postal_code]", addr.PostalCode)
	setIfNotEmpty(form, "address[country]", addr.Country)
}
