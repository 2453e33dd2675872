// Package square adapts the Square Payments, Refunds, Customers and Cards
// APIs to the processor contract.
package square

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/restclient"
)

const (
	productionBaseURL = "https://connect.squareup.com"
	sandboxBaseURL    = "https://connect.squareupsandbox.com"
	apiVersion        = "2025-01-16"
)

var capabilities = processor.Capabilities{
	Recurring:          false,
	Refunds:            true,
	PartialRefunds:     true,
	Customers:          true,
	PaymentMethods:     true,
	Webhooks:           true,
	Currencies:         []string{"USD", "CAD", "GBP", "EUR", "AUD", "JPY"},
	PaymentMethodTypes: []processor.MethodType{processor.MethodCard, processor.MethodWallet},
}

// Adapter is the Square processor. APIKey is the access token.
type Adapter struct {
	base       *processor.Base
	httpClient *http.Client

	client          *restclient.Client
	locationID      string
	notificationURL string
}

var _ processor.Processor = (*Adapter)(nil)

func New(deps processor.Deps) *Adapter {
	return &Adapter{
		base:       processor.NewBase(processor.TypeSquare, capabilities, deps.BaseOptions()...),
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

// Initialize selects the sandbox host unless Environment is production.
// Metadata: base_url, location_id, notification_url.
func (a *Adapter) Initialize(_ context.Context, cfg processor.Config) error {
	return a.base.Initialize(cfg, func(cfg processor.Config) error {
		base := sandboxBaseURL
		if cfg.IsProduction() {
			base = productionBaseURL
		}
		a.locationID = cfg.Meta("location_id", "")
		a.notificationURL = cfg.Meta("notification_url", "")
		a.client = restclient.New("square", cfg.Meta("base_url", base),
			restclient.WithHTTPClient(a.httpClient),
			restclient.WithBearer(cfg.APIKey),
			restclient.WithHeader("Square-Version", apiVersion),
		)
		if a.notificationURL == "" && cfg.WebhookSecret != "" {
			a.base.Logger().Warn("square webhook signature key set without notification_url; webhooks will fail verification")
		}
		return nil
	})
}

// CreatePaymentIntent creates a payment from a card or token source.
// Without Confirm the payment is left APPROVED for a later complete.
func (a *Adapter) CreatePaymentIntent(ctx context.Context, req processor.PaymentIntentRequest) (_ *processor.PaymentIntent, err error) {
	const op = "create_payment_intent"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := req.Validate(processor.TypeSquare); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.PaymentMethodID) == "" {
		return nil, processor.InvalidRequestError(processor.TypeSquare, processor.KindPaymentIntent, op, "payment method id (source_id) is required")
	}

	body := createPaymentRequest{
		IdempotencyKey: processor.NewIdempotencyKey("sqpay"),
		SourceID:       req.PaymentMethodID,
		AmountMoney:    toMoney(req.Amount, req.Currency),
		Autocomplete:   req.Confirm,
		CustomerID:     req.CustomerID,
		LocationID:     a.locationID,
		Note:           req.Description,
		ReferenceID:    req.Metadata["reference_id"],
	}
	var resp paymentResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   "/v2/payments",
		JSON:   body,
	}, &resp); err != nil {
		return nil, restclient.Wrap(processor.TypeSquare, processor.KindPaymentIntent, op, err)
	}
	return resp.Payment.normalize(), nil
}

func (a *Adapter) RetrievePaymentIntent(ctx context.Context, id string) (_ *processor.PaymentIntent, err error) {
	const op = "retrieve_payment_intent"
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeSquare, processor.KindPaymentIntent, op, "payment id", id); err != nil {
		return nil, err
	}
	p, err := a.fetchPayment(ctx, id)
	if err != nil {
		return nil, restclient.Wrap(processor.TypeSquare, processor.KindPaymentIntent, op, err)
	}
	return p.normalize(), nil
}

// ConfirmPaymentIntent completes an APPROVED payment. Square binds the source
// at creation, so paymentMethodID is ignored.
func (a *Adapter) ConfirmPaymentIntent(ctx context.Context, id, _ string) (*processor.PaymentIntent, error) {
	return a.transition(ctx, "confirm_payment_intent", id, "complete")
}

// CancelPaymentIntent voids an APPROVED payment.
func (a *Adapter) CancelPaymentIntent(ctx context.Context, id string) (*processor.PaymentIntent, error) {
	return a.transition(ctx, "cancel_payment_intent", id, "cancel")
}

func (a *Adapter) transition(ctx context.Context, op, id, action string) (_ *processor.PaymentIntent, err error) {
	ctx, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return nil, err
	}
	defer func() { err = done(err) }()

	if err := processor.RequireID(processor.TypeSquare, processor.KindPaymentIntent, op, "payment id", id); err != nil {
		return nil, err
	}
	var resp paymentResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   "/v2/payments/" + url.PathEscape(id) + "/" + action,
		JSON:   map[string]any{},
	}, &resp); err != nil {
		return nil, restclient.Wrap(processor.TypeSquare, processor.KindPaymentIntent, op, err)
	}
	return resp.Payment.normalize(), nil
}

func (a *Adapter) fetchPayment(ctx context.Context, id string) (*payment, error) {
	var resp paymentResponse
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodGet,
		Path:   "/v2/payments/" + url.PathEscape(id),
	}, &resp); err != nil {
		return nil, err
	}
	return &resp.Payment, nil
}
