package membership

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/paycore/processor-gateway/internal/payments/processor"
)

// SignatureHeader carries hex(HMAC-SHA256(secret, body)), optionally prefixed with "sha256=".
const SignatureHeader = "X-Membership-Signature"

type webhookEnvelope struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	CreatedAt time.Time      `json:"created_at"`
	Data      map[string]any `json:"data"`
}

// VerifyWebhook requires a configured secret; unsigned payloads are rejected.
func (a *Adapter) VerifyWebhook(ctx context.Context, payload []byte, signature string) (res processor.WebhookVerification) {
	_, done := a.base.Start(ctx, "verify_webhook")
	defer func() { res.Error = done(res.Error) }()

	if !a.base.IsInitialized() {
		return processor.Failed(processor.TypeMembership, "processor not initialized", nil)
	}
	secret := a.base.Config().WebhookSecret
	if secret == "" {
		return processor.Failed(processor.TypeMembership, "webhook secret not configured", nil)
	}

	sig := strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	got, err := hex.DecodeString(sig)
	if err != nil || len(got) == 0 {
		return processor.Failed(processor.TypeMembership, "malformed signature", err)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), got) {
		return processor.Failed(processor.TypeMembership, "signature mismatch", nil)
	}

	var env webhookEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return processor.Failed(processor.TypeMembership, "invalid event payload", err)
	}
	if env.ID == "" {
		return processor.Failed(processor.TypeMembership, "event id missing", nil)
	}
	return processor.WebhookVerification{
		Verified: true,
		Event: &processor.WebhookEvent{
			ID:           env.ID,
			Type:         mapEventType(env.Type),
			Processor:    processor.TypeMembership,
			ProviderType: env.Type,
			Data:         env.Data,
			CreatedAt:    env.CreatedAt,
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
		return processor.InvalidRequestError(processor.TypeMembership, processor.KindWebhookVerification, op, "event is required")
	}
	a.base.Logger().Info("membership webhook event received", "event_id", event.ID, "type", string(event.Type))
	return nil
}

// Sign computes the header value the platform sends for payload.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
