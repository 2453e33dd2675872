package membership

import (
	"context"
	"net/http"
	"net/url"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/restclient"
)

// Members are the platform's customers.

func (a *Adapter) CreateCustomer(ctx context.Context, info processor.CustomerInfo) (_ string, err error) {
	const op = "create_customer"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return "", err
	}
	defer func() { err = done(err) }()

	if info.Email == "" {
		return "", processor.InvalidRequestError(processor.TypeMembership, processor.KindCustomer, op, "member email is required")
	}
	var resp memberResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   "/v1/members",
		JSON: member{
			Email:    info.Email,
			Name:     info.Name,
			Phone:    info.Phone,
			Address:  toAddress(info.Address),
			Metadata: info.Metadata,
		},
		IdempotencyKey: processor.NewIdempotencyKey("mem"),
	}, &resp); err != nil {
		return "", restclient.Wrap(processor.TypeMembership, processor.KindCustomer, op, err)
	}
	return resp.Member.ID, nil
}

func (a *Adapter) RetrieveCustomer(ctx context.Context, id string) (_ *processor.CustomerInfo, err error) {
	const op = "retrieve_customer"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeMembership, processor.KindCustomer, op, "member id", id); err != nil {
		return nil, err
	}
	var resp memberResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		Path:   "/v1/members/" + url.PathEscape(id),
	}, &resp); err != nil {
		return nil, restclient.Wrap(processor.TypeMembership, processor.KindCustomer, op, err)
	}
	return resp.Member.normalize(), nil
}

// UpdateCustomer PATCHes only the provided fields.
func (a *Adapter) UpdateCustomer(ctx context.Context, id string, update processor.CustomerUpdate) (_ *processor.CustomerInfo, err error) {
	const op = "update_customer"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeMembership, processor.KindCustomer, op, "member id", id); err != nil {
		return nil, err
	}
	patch := map[string]any{}
	if update.Email != nil {
		patch["email"] = *update.Email
	}
	if update.Name != nil {
		patch["name"] = *update.Name
	}
	if update.Phone != nil {
		patch["phone"] = *update.Phone
	}
	if update.Address != nil {
		patch["address"] = toAddress(update.Address)
	}
	if update.Metadata != nil {
		patch["metadata"] = update.Metadata
	}

	var resp memberResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodPatch,
		Path:   "/v1/members/" + url.PathEscape(id),
		JSON:   patch,
	}, &resp); err != nil {
		return nil, restclient.Wrap(processor.TypeMembership, processor.KindCustomer, op, err)
	}
	return resp.Member.normalize(), nil
}
