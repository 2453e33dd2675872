package paypal

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/restclient"
)

// Transmission headers PayPal attaches to every webhook delivery, keyed by
// the field name the verification endpoint expects.
var transmissionHeaders = []struct{ field, header string }{
	{"auth_algo", "Paypal-Auth-Algo"},
	{"cert_url", "Paypal-Cert-Url"},
	{"transmission_id", "Paypal-Transmission-Id"},
	{"transmission_sig", "Paypal-Transmission-Sig"},
	{"transmission_time", "Paypal-Transmission-Time"},
}

// SignatureFromHeaders encodes the transmission headers into the single
// signature string VerifyWebhook accepts:
// "auth_algo=..;cert_url=..;transmission_id=..;transmission_sig=..;transmission_time=..".
func SignatureFromHeaders(h http.Header) string {
	parts := make([]string, 0, len(transmissionHeaders))
	for _, th := range transmissionHeaders {
		parts = append(parts, th.field+"="+h.Get(th.header))
	}
	return strings.Join(parts, ";")
}

func parseSignature(signature string) (map[string]string, bool) {
	fields := make(map[string]string, len(transmissionHeaders))
	for _, part := range strings.Split(signature, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		fields[k] = v
	}
	for _, th := range transmissionHeaders {
		if fields[th.field] == "" {
			return nil, false
		}
	}
	return fields, true
}

type verifyRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type webhookEnvelope struct {
	ID         string         `json:"id"`
	EventType  string         `json:"event_type"`
	CreateTime string         `json:"create_time"`
	Resource   map[string]any `json:"resource"`
}

// VerifyWebhook delegates signature checking to PayPal's
// verify-webhook-signature endpoint.
func (a *Adapter) VerifyWebhook(ctx context.Context, payload []byte, signature string) (res processor.WebhookVerification) {
	ctx, done := a.base.Start(ctx, "verify_webhook")
	defer func() { res.Error = done(res.Error) }()

	if !a.base.IsInitialized() {
		return processor.Failed(processor.TypePayPal, "processor not initialized", nil)
	}
	webhookID := a.base.Config().WebhookSecret
	if webhookID == "" {
		return processor.Failed(processor.TypePayPal, "webhook id not configured", nil)
	}
	fields, ok := parseSignature(signature)
	if !ok {
		return processor.Failed(processor.TypePayPal, "missing transmission headers", nil)
	}
	var env webhookEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return processor.Failed(processor.TypePayPal, "invalid event payload", err)
	}
	if env.ID == "" {
		return processor.Failed(processor.TypePayPal, "event id missing", nil)
	}

	var resp struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := a.client.Do(ctx, restclient.Request{
		Method: http.MethodPost,
		Path:   "/v1/notifications/verify-webhook-signature",
		JSON: verifyRequest{
			AuthAlgo:         fields["auth_algo"],
			CertURL:          fields["cert_url"],
			TransmissionID:   fields["transmission_id"],
			TransmissionSig:  fields["transmission_sig"],
			TransmissionTime: fields["transmission_time"],
			WebhookID:        webhookID,
			WebhookEvent:     json.RawMessage(payload),
		},
	}, &resp); err != nil {
		return processor.Failed(processor.TypePayPal, "verification request failed", err)
	}
	if resp.VerificationStatus != "SUCCESS" {
		return processor.Failed(processor.TypePayPal, "verification status "+resp.VerificationStatus, nil)
	}

	return processor.WebhookVerification{
		Verified: true,
		Event: &processor.WebhookEvent{
			ID:           env.ID,
			Type:         mapEventType(env.EventType),
			Processor:    processor.TypePayPal,
			ProviderType: env.EventType,
			Data:         env.Resource,
			CreatedAt:    parseTime(env.CreateTime),
			RawEvent:     append(json.RawMessage(nil), payload...),
		},
	}
}

func (a *Adapter) ProcessWebhook(ctx context.Context, event *processor.WebhookEvent) (err error) {
	const op = "process_webhook"
	_, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return err
	}
	defer func() { err = done(err) }()

	if event == nil {
		return processor.InvalidRequestError(processor.TypePayPal, processor.KindWebhookVerification, op, "event is required")
	}
	a.base.Logger().Info("paypal webhook event received", "event_id", event.ID, "type", string(event.Type), "event_type", event.ProviderType)
	return nil
}
