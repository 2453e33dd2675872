// Package stripe adapts the Stripe REST API to the processor contract.
package stripe

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/restclient"
)

const (
	defaultBaseURL   = "https://api.stripe.com"
	apiVersion       = "2024-12-18.acacia"
	defaultTolerance = 5 * time.Minute
)

var capabilities = processor.Capabilities{
	Recurring:          true,
	Refunds:            true,
	PartialRefunds:     true,
	Customers:          true,
	PaymentMethods:     true,
	Webhooks:           true,
	Currencies:         []string{"USD", "EUR", "GBP", "CAD", "AUD", "JPY", "KRW", "CLP", "VND"},
	PaymentMethodTypes: []processor.MethodType{processor.MethodCard, processor.MethodBankAccount, processor.MethodWallet},
}

// Adapter is the card-network processor.
type Adapter struct {
	base       *processor.Base
	httpClient *http.Client
	now        func() time.Time

	// set once inside Initialize, before the config is published
	client    *restclient.Client
	tolerance time.Duration
}

var _ processor.Processor = (*Adapter)(nil)

// New creates an uninitialized Stripe adapter.
func New(deps processor.Deps) *Adapter {
	return &Adapter{
		base:       processor.NewBase(processor.TypeStripe, capabilities, deps.BaseOptions()...),
		httpClient: deps.HTTPClient,
		now:        time.Now,
	}
}

func (a *Adapter) Type() processor.Type                   { return a.base.Type() }
func (a *Adapter) Capabilities() processor.Capabilities   { return a.base.Capabilities() }
func (a *Adapter) IsInitialized() bool                    { return a.base.IsInitialized() }
func (a *Adapter) ToMinorUnits(v float64, c string) int64 { return a.base.ToMinorUnits(v, c) }
func (a *Adapter) FromMinorUnits(v int64, c string) float64 {
	return a.base.FromMinorUnits(v, c)
}

// Initialize applies the secret key. Metadata:
//   - base_url: API host override
//   - webhook_tolerance: max webhook age, Go duration syntax
func (a *Adapter) Initialize(_ context.Context, cfg processor.Config) error {
	return a.base.Initialize(cfg, func(cfg processor.Config) error {
		tolerance := defaultTolerance
		if raw := cfg.Meta("webhook_tolerance", ""); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil || d <= 0 {
				return processor.ConfigError(processor.TypeStripe, "invalid webhook_tolerance "+strconv.Quote(raw))
			}
			tolerance = d
		}
		a.tolerance = tolerance
		a.client = restclient.New("stripe", cfg.Meta("base_url", defaultBaseURL),
			restclient.WithHTTPClient(a.httpClient),
			restclient.WithBearer(cfg.APIKey),
			restclient.WithHeader("Stripe-Version", apiVersion),
		)
		return nil
	})
}

// CreatePaymentIntent creates a PaymentIntent, confirming it when requested.
func (a *Adapter) CreatePaymentIntent(ctx context.Context, req processor.PaymentIntentRequest) (_ *processor.PaymentIntent, err error) {
	const op = "create_payment_intent"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := req.Validate(processor.TypeStripe); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(processor.ToMinorUnits(req.Amount, req.Currency), 10))
	form.Set("currency", strings.ToLower(processor.NormalizeCurrency(req.Currency)))
	if req.CustomerID != "" {
		form.Set("customer", req.CustomerID)
	}
	if req.PaymentMethodID != "" {
		form.Set("payment_method", req.PaymentMethodID)
	}
	if req.Description != "" {
		form.Set("description", req.Description)
	}
	if req.Confirm {
		form.Set("confirm", "true")
	}
	setMetadata(form, "metadata", req.Metadata)

	var pi paymentIntent
	if err := a.client.Do(ctx, restclient.Request{
		Method:         http.MethodPost,
		Path:           "/v1/payment_intents",
		Form:           form,
		IdempotencyKey: processor.NewIdempotencyKey("pi"),
	}, &pi); err != nil {
		return nil, a.upstream(processor.KindPaymentIntent, op, err)
	}
	return pi.normalize(), nil
}

// RetrievePaymentIntent fetches the current state of a PaymentIntent.
func (a *Adapter) RetrievePaymentIntent(ctx context.Context, id string) (_ *processor.PaymentIntent, err error) {
	const op = "retrieve_payment_intent"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeStripe, processor.KindPaymentIntent, op, "payment intent id", id); err != nil {
		return nil, err
	}
	pi, err := a.fetchPaymentIntent(ctx, id)
	if err != nil {
		return nil, a.upstream(processor.KindPaymentIntent, op, err)
	}
	return pi.normalize(), nil
}

// ConfirmPaymentIntent confirms with an optional payment method override.
func (a *Adapter) ConfirmPaymentIntent(ctx context.Context, id, paymentMethodID string) (_ *processor.PaymentIntent, err error) {
	const op = "confirm_payment_intent"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeStripe, processor.KindPaymentIntent, op, "payment intent id", id); err != nil {
		return nil, err
	}
	form := url.Values{}
	if paymentMethodID != "" {
		form.Set("payment_method", paymentMethodID)
	}

	var pi paymentIntent
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   "/v1/payment_intents/" + url.PathEscape(id) + "/confirm",
		Form:   form,
	}, &pi); err != nil {
		return nil, a.upstream(processor.KindPaymentIntent, op, err)
	}
	return pi.normalize(), nil
}

// CancelPaymentIntent cancels a PaymentIntent. Stripe keeps the object with status canceled.
func (a *Adapter) CancelPaymentIntent(ctx context.Context, id string) (_ *processor.PaymentIntent, err error) {
	const op = "cancel_payment_intent"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeStripe, processor.KindPaymentIntent, op, "payment intent id", id); err != nil {
		return nil, err
	}
	var pi paymentIntent
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   "/v1/payment_intents/" + url.PathEscape(id) + "/cancel",
		Form:   url.Values{},
	}, &pi); err != nil {
		return nil, a.upstream(processor.KindPaymentIntent, op, err)
	}
	return pi.normalize(), nil
}

func (a *Adapter) fetchPaymentIntent(ctx context.Context, id string) (*paymentIntent, error) {
	var pi paymentIntent
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		Path:   "/v1/payment_intents/" + url.PathEscape(id),
	}, &pi); err != nil {
		return nil, err
	}
	return &pi, nil
}

func (a *Adapter) upstream(kind processor.Kind, op string, err error) error {
	return restclient.Wrap(processor.TypeStripe, kind, op, err)
}

// setMetadata writes map entries in Stripe's bracketed form encoding.
func setMetadata(form url.Values, prefix string, meta map[string]string) {
	for k, v := range meta {
		form.Set(prefix+"["+k+"]", v)
	}
}
