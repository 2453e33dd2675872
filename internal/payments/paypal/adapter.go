// Package paypal adapts PayPal Orders v2, Payments v2 and Vault v3 to the
// processor contract. Authentication uses OAuth2 client credentials with a
// cached, request-refreshed access token.
package paypal

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/restclient"
)

const (
	productionBaseURL = "https://api-m.paypal.com"
	sandboxBaseURL    = "https://api-m.sandbox.paypal.com"
	requestIDHeader   = "PayPal-Request-Id"
)

var capabilities = processor.Capabilities{
	Recurring:          true,
	Refunds:            true,
	PartialRefunds:     true,
	Customers:          false,
	PaymentMethods:     true,
	Webhooks:           true,
	Currencies:         []string{"USD", "EUR", "GBP", "CAD", "AUD", "JPY"},
	PaymentMethodTypes: []processor.MethodType{processor.MethodPayPal, processor.MethodCard},
}

// Adapter is the PayPal processor. Config.APIKey is the client id,
// metadata client_secret the secret and WebhookSecret the webhook id.
type Adapter struct {
	base       *processor.Base
	httpClient *http.Client
	now        func() time.Time

	client *restclient.Client
	tokens *tokenCache
}

var _ processor.Processor = (*Adapter)(nil)

func New(deps processor.Deps) *Adapter {
	return &Adapter{
		base:       processor.NewBase(processor.TypePayPal, capabilities, deps.BaseOptions()...),
		httpClient: deps.HTTPClient,
		now:        time.Now,
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

// Initialize validates credentials by fetching the first access token.
func (a *Adapter) Initialize(ctx context.Context, cfg processor.Config) error {
	return a.base.Initialize(cfg, func(cfg processor.Config) error {
		secret := cfg.Meta("client_secret", "")
		if secret == "" {
			return processor.ConfigError(processor.TypePayPal, "metadata client_secret is required")
		}
		base := sandboxBaseURL
		if cfg.IsProduction() {
			base = productionBaseURL
		}
		base = cfg.Meta("base_url", base)

		tokens := newTokenCache(base, cfg.APIKey, secret, a.httpClient, a.now)
		if _, err := tokens.Token(ctx); err != nil {
			return err
		}
		a.tokens = tokens
		a.client = restclient.New("paypal", base,
			restclient.WithHTTPClient(a.httpClient),
			restclient.WithTokenFunc(tokens.Token),
		)
		return nil
	})
}

// CreatePaymentIntent creates a CAPTURE order. With a vaulted
// PaymentMethodID and Confirm set, an approved order is captured at once.
func (a *Adapter) CreatePaymentIntent(ctx context.Context, req processor.PaymentIntentRequest) (_ *processor.PaymentIntent, err error) {
	const op = "create_payment_intent"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := req.Validate(processor.TypePayPal); err != nil {
		return nil, err
	}
	unit := purchaseUnit{
		ReferenceID: req.Metadata["reference_id"],
		CustomID:    req.CustomerID,
		InvoiceID:   req.Metadata["invoice_id"],
		Description: req.Description,
		Amount:      toAmount(req.Amount, req.Currency),
	}
	body := createOrderRequest{Intent: "CAPTURE", PurchaseUnits: []purchaseUnit{unit}}
	if req.PaymentMethodID != "" {
		body.PaymentSource = vaultSource(req.PaymentMethodID)
	}

	var o order
	if err := a.client.Do(ctx, restclient.Request{
		Method:            http.MethodPost,
		Path:              "/v2/checkout/orders",
		JSON:              body,
		IdempotencyKey:    processor.NewIdempotencyKey("ppord"),
		IdempotencyHeader: requestIDHeader,
	}, &o); err != nil {
		return nil, restclient.Wrap(processor.TypePayPal, processor.KindPaymentIntent, op, err)
	}
	if req.Confirm && o.Status == "APPROVED" {
		captured, err := a.capture(ctx, o.ID, "")
		if err != nil {
			return nil, restclient.Wrap(processor.TypePayPal, processor.KindPaymentIntent, op, err)
		}
		o = *captured
	}
	return o.normalize(req.Metadata), nil
}

func (a *Adapter) RetrievePaymentIntent(ctx context.Context, id string) (_ *processor.PaymentIntent, err error) {
	const op = "retrieve_payment_intent"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypePayPal, processor.KindPaymentIntent, op, "order id", id); err != nil {
		return nil, err
	}
	o, err := a.fetchOrder(ctx, id)
	if err != nil {
		return nil, restclient.Wrap(processor.TypePayPal, processor.KindPaymentIntent, op, err)
	}
	return o.normalize(nil), nil
}

// ConfirmPaymentIntent captures the order, optionally charging a vaulted token.
func (a *Adapter) ConfirmPaymentIntent(ctx context.Context, id, paymentMethodID string) (_ *processor.PaymentIntent, err error) {
	const op = "confirm_payment_intent"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypePayPal, processor.KindPaymentIntent, op, "order id", id); err != nil {
		return nil, err
	}
	o, err := a.capture(ctx, id, paymentMethodID)
	if err != nil {
		return nil, restclient.Wrap(processor.TypePayPal, processor.KindPaymentIntent, op, err)
	}
	return o.normalize(nil), nil
}

// CancelPaymentIntent is unsupported: uncaptured orders expire on their own.
func (a *Adapter) CancelPaymentIntent(ctx context.Context, _ string) (*processor.PaymentIntent, error) {
	const op = "cancel_payment_intent"
	_, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	return nil, done(processor.UnsupportedError(processor.TypePayPal, processor.KindPaymentIntent, op,
		"uncaptured orders expire automatically; void authorizations in PayPal or refund captured orders"))
}

func (a *Adapter) capture(ctx context.Context, id, paymentMethodID string) (*order, error) {
	body := map[string]any{}
	if paymentMethodID != "" {
		body["payment_source"] = vaultSource(paymentMethodID)
	}
	var o order
	if err := a.client.Do(ctx, restclient.Request{
		Method:            http.MethodPost,
		Path:              "/v2/checkout/orders/" + url.PathEscape(id) + "/capture",
		JSON:              body,
		IdempotencyKey:    processor.NewIdempotencyKey("ppcap"),
		IdempotencyHeader: requestIDHeader,
	}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (a *Adapter) fetchOrder(ctx context.Context, id string) (*order, error) {
	var o order
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		Path:   "/v2/checkout/orders/" + url.PathEscape(id),
	}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// PayPal has no customer API; payers are identified by vault customer ids.

func (a *Adapter) CreateCustomer(ctx context.Context, _ processor.CustomerInfo) (string, error) {
	return "", a.unsupportedCustomer(ctx, "create_customer")
}

func (a *Adapter) RetrieveCustomer(ctx context.Context, _ string) (*processor.CustomerInfo, error) {
	return nil, a.unsupportedCustomer(ctx, "retrieve_customer")
}

func (a *Adapter) UpdateCustomer(ctx context.Context, _ string, _ processor.CustomerUpdate) (*processor.CustomerInfo, error) {
	return nil, a.unsupportedCustomer(ctx, "update_customer")
}

func (a *Adapter) unsupportedCustomer(ctx context.Context, op string) error {
	_, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return err
	}
	return done(processor.UnsupportedError(processor.TypePayPal, processor.KindCustomer, op,
		"PayPal assigns vault customer ids when a payment method is saved"))
}
