package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/paycore/processor-gateway/internal/payments/processor"
)

const SignatureHeader = "Stripe-Signature"

type webhookEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object map[string]any `json:"object"`
	} `json:"data"`
}

// VerifyWebhook checks a Stripe-Signature header ("t=<ts>,v1=<hex>[,v1=...]")
// against HMAC-SHA256(secret, "<ts>.<payload>").
func (a *Adapter) VerifyWebhook(ctx context.Context, payload []byte, signature string) (res processor.WebhookVerification) {
	_, done := a.base.Start(ctx, "verify_webhook")
	defer func() { res.Error = done(res.Error) }()

	if !a.base.IsInitialized() {
		return processor.Failed(processor.TypeStripe, "processor not initialized", nil)
	}
	secret := a.base.Config().WebhookSecret
	if secret == "" {
		return processor.Failed(processor.TypeStripe, "webhook secret not configured", nil)
	}

	timestamp, signatures := parseSignatureHeader(signature)
	if timestamp == "" || len(signatures) == 0 {
		return processor.Failed(processor.TypeStripe, "malformed Stripe-Signature header", nil)
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return processor.Failed(processor.TypeStripe, "invalid signature timestamp", err)
	}
	if age := a.now().Sub(time.Unix(ts, 0)); age > a.tolerance || age < -a.tolerance {
		return processor.Failed(processor.TypeStripe, "signature timestamp outside tolerance", nil)
	}

	expected := sign(secret, timestamp, payload)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			matched = true
			break
		}
	}
	if !matched {
		return processor.Failed(processor.TypeStripe, "signature mismatch", nil)
	}

	var env webhookEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return processor.Failed(processor.TypeStripe, "invalid event payload", err)
	}
	if env.ID == "" {
		return processor.Failed(processor.TypeStripe, "event id missing", nil)
	}

	return processor.WebhookVerification{
		Verified: true,
		Event: &processor.WebhookEvent{
			ID:           env.ID,
			Type:         mapEventType(env.Type),
			Processor:    processor.TypeStripe,
			ProviderType: env.Type,
			Data:         env.Data.Object,
			CreatedAt:    unix(env.Created),
			RawEvent:     append(json.RawMessage(nil), payload...),
		},
	}
}

// ProcessWebhook acknowledges a verified event. Business reactions are
// handled by callers.
func (a *Adapter) ProcessWebhook(ctx context.Context, event *processor.WebhookEvent) (err error) {
	const op = "process_webhook"
	_, done, err := a.base.Begin(ctx, op)
	if err != nil {
		return err
	}
	defer func() { err = done(err) }()

	if event == nil {
		return processor.InvalidRequestError(processor.TypeStripe, processor.KindWebhookVerification, op, "event is required")
	}
	a.base.Logger().Info("stripe webhook event received", "event_id", event.ID, "type", string(event.Type), "provider_type", event.ProviderType)
	return nil
}

func parseSignatureHeader(header string) (timestamp string, signatures []string) {
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signatures = append(signatures, value)
		}
	}
	return timestamp, signatures
}

func sign(secret, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
