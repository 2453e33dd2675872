// Package membership adapts the marketplace/membership platform to the
// processor contract. The platform owns checkout: charges are created through
// its hosted order flow, so this adapter reads orders, issues refunds, manages
// members and verifies webhooks.
package membership

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/restclient"
)

const defaultBaseURL = "https://api.membership-platform.com"

const hostedCheckout = "create an order through the platform's hosted checkout and track it with RetrievePaymentIntent"

var capabilities = processor.Capabilities{
	Recurring:          true,
	Refunds:            true,
	PartialRefunds:     true,
	Customers:          true,
	PaymentMethods:     false,
	Webhooks:           true,
	Currencies:         []string{"USD", "EUR", "GBP", "CAD", "AUD"},
	PaymentMethodTypes: []processor.MethodType{processor.MethodCard},
}

// Adapter is the membership platform processor.
type Adapter struct {
	base       *processor.Base
	httpClient *http.Client
	client     *restclient.Client
}

var _ processor.Processor = (*Adapter)(nil)

// New creates an uninitialized membership adapter.
func New(deps processor.Deps) *Adapter {
	return &Adapter{
		base:       processor.NewBase(processor.TypeMembership, capabilities, deps.BaseOptions()...),
		httpClient: deps.HTTPClient,
	}
}

func (a *Adapter) Type() processor.Type                 { return a.base.Type() }
func (a *Adapter) Capabilities() processor.Capabilities { return a.base.Capabilities() }
func (a *Adapter) IsInitialized() bool                  { return a.base.IsInitialized() }

func (a *Adapter) ToMinorUnits(amount float64, currency string) int64 {
	return a.base.ToMinorUnits(amount, currency)
}

func (a *Adapter) FromMinorUnits(amount int64, currency string) float64 {
	return a.base.FromMinorUnits(amount, currency)
}

// Initialize applies the platform API key. Metadata base_url overrides the host.
func (a *Adapter) Initialize(_ context.Context, cfg processor.Config) error {
	return a.base.Initialize(cfg, func(cfg processor.Config) error {
		base := cfg.Meta("base_url", defaultBaseURL)
		if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
			return processor.ConfigError(processor.TypeMembership, "invalid base_url "+base)
		}
		a.client = restclient.New("membership", base,
			restclient.WithHTTPClient(a.httpClient),
			restclient.WithBearer(cfg.APIKey),
		)
		return nil
	})
}

func (a *Adapter) CreatePaymentIntent(ctx context.Context, _ processor.PaymentIntentRequest) (*processor.PaymentIntent, error) {
	return nil, a.unsupported(ctx, processor.KindPaymentIntent, "create_payment_intent", hostedCheckout)
}

// RetrievePaymentIntent reads the platform order with the given id.
func (a *Adapter) RetrievePaymentIntent(ctx context.Context, id string) (_ *processor.PaymentIntent, err error) {
	const op = "retrieve_payment_intent"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeMembership, processor.KindPaymentIntent, op, "order id", id); err != nil {
		return nil, err
	}
	var resp orderResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		Path:   "/v1/orders/" + url.PathEscape(id),
	}, &resp); err != nil {
		return nil, restclient.Wrap(processor.TypeMembership, processor.KindPaymentIntent, op, err)
	}
	return resp.Order.normalize(), nil
}

func (a *Adapter) ConfirmPaymentIntent(ctx context.Context, _, _ string) (*processor.PaymentIntent, error) {
	return nil, a.unsupported(ctx, processor.KindPaymentIntent, "confirm_payment_intent", "orders are confirmed by the buyer in hosted checkout")
}

func (a *Adapter) CancelPaymentIntent(ctx context.Context, _ string) (*processor.PaymentIntent, error) {
	return nil, a.unsupported(ctx, processor.KindPaymentIntent, "cancel_payment_intent", "unpaid orders expire on the platform; refund paid orders instead")
}

func (a *Adapter) AttachPaymentMethod(ctx context.Context, _, _ string) (*processor.PaymentMethod, error) {
	return nil, a.unsupported(ctx, processor.KindPaymentMethod, "attach_payment_method", "members manage payment methods in the platform portal")
}

func (a *Adapter) DetachPaymentMethod(ctx context.Context, _ string) (*processor.PaymentMethod, error) {
	return nil, a.unsupported(ctx, processor.KindPaymentMethod, "detach_payment_method", "members manage payment methods in the platform portal")
}

func (a *Adapter) ListPaymentMethods(ctx context.Context, _ string) ([]processor.PaymentMethod, error) {
	return nil, a.unsupported(ctx, processor.KindPaymentMethod, "list_payment_methods", "members manage payment methods in the platform portal")
}

// unsupported reports the operation through the usual hooks. The
// initialization guard still runs first.
func (a *Adapter) unsupported(ctx context.Context, kind processor.Kind, op, alternative string) error {
	_, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return err
	}
	return done(processor.UnsupportedError(processor.TypeMembership, kind, op, alternative))
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
