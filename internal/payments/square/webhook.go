package square

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"github.com/paycore/processor-gateway/internal/payments/processor"
)

// SignatureHeader carries base64(HMAC-SHA256(key, notificationURL + body)).
const SignatureHeader = "X-Square-Hmacsha256-Signature"

type webhookEnvelope struct {
	MerchantID string `json:"merchant_id"`
	Type       string `json:"type"`
	EventID    string `json:"event_id"`
	CreatedAt  string `json:"created_at"`
	Data       struct {
		Type   string         `json:"type"`
		ID     string         `json:"id"`
		Object map[string]any `json:"object"`
	} `json:"data"`
}

// paymentStatus digs the payment status out of payment.* event objects.
func (e *webhookEnvelope) paymentStatus() string {
	p, ok := e.Data.Object["payment"].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := p["status"].(string)
	return s
}

// VerifyWebhook checks the HMAC-SHA256 signature Square computes over the
// subscription's notification URL followed by the raw body.
func (a *Adapter) VerifyWebhook(ctx context.Context, payload []byte, signature string) (res processor.WebhookVerification) {
	_, done := a.base.Start(ctx, "verify_webhook")
	defer func() { res.Error = done(res.Error) }()

	if !a.base.IsInitialized() {
		return processor.Failed(processor.TypeSquare, "processor not initialized", nil)
	}
	key := a.base.Config().WebhookSecret
	if key == "" {
		return processor.Failed(processor.TypeSquare, "webhook signature key not configured", nil)
	}
	if a.notificationURL == "" {
		return processor.Failed(processor.TypeSquare, "notification_url not configured", nil)
	}
	if signature == "" {
		return processor.Failed(processor.TypeSquare, "missing signature", nil)
	}
	if !hmac.Equal([]byte(Sign(key, a.notificationURL, payload)), []byte(signature)) {
		return processor.Failed(processor.TypeSquare, "signature mismatch", nil)
	}

	var env webhookEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return processor.Failed(processor.TypeSquare, "invalid event payload", err)
	}
	if env.EventID == "" {
		return processor.Failed(processor.TypeSquare, "event id missing", nil)
	}
	return processor.WebhookVerification{
		Verified: true,
		Event: &processor.WebhookEvent{
			ID:           env.EventID,
			Type:         mapEventType(env.Type, env.paymentStatus()),
			Processor:    processor.TypeSquare,
			ProviderType: env.Type,
			Data:         env.Data.Object,
			CreatedAt:    parseTime(env.CreatedAt),
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
		return processor.InvalidRequestError(processor.TypeSquare, processor.KindWebhookVerification, op, "event is required")
	}
	a.base.Logger().Info("square webhook event received", "event_id", event.ID, "type", string(event.Type), "square_type", event.ProviderType)
	return nil
}

// Sign returns the signature Square sends for payload delivered to notificationURL.
func Sign(key, notificationURL string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(notificationURL))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
