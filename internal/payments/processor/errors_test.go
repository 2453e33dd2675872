package processor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesSentinelByCode(t *testing.T) {
	err := UnsupportedError(TypeMembership, KindPaymentIntent, "create_payment_intent", "use hosted checkout")
	wrapped := fmt.Errorf("billing: %w", err)

	assert.True(t, errors.Is(wrapped, ErrUnsupported))
	assert.False(t, errors.Is(wrapped, ErrNotImplemented))
	assert.Equal(t, CodeUnsupported, CodeOf(wrapped))
	assert.Contains(t, err.Error(), "membership")
	assert.Contains(t, err.Error(), "use hosted checkout")
}

func TestError_IsScopedToProcessorWhenTargetNamesOne(t *testing.T) {
	err := NotImplementedError(TypeManual, KindPaymentIntent, "create_payment_intent")
	assert.True(t, errors.Is(err, &Error{Processor: TypeManual, Code: CodeNotImplemented}))
	assert.False(t, errors.Is(err, &Error{Processor: TypeStripe, Code: CodeNotImplemented}))
}

func TestError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := UpstreamError(TypeSquare, KindRefund, "create_refund", cause, map[string]any{"status": 502})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 502, err.Details["status"])
	assert.Equal(t, "payments: square: create_refund [UPSTREAM_ERROR]: provider request failed: dial tcp: timeout", err.Error())
}

func TestCodeOf_NonProcessorError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestFailed_ReturnsUnverifiedResult(t *testing.T) {
	res := Failed(TypeStripe, "signature mismatch", nil)
	assert.False(t, res.Verified)
	assert.Nil(t, res.Event)
	assert.True(t, errors.Is(res.Error, ErrVerification))
}

func TestStatusEnumeration(t *testing.T) {
	for _, s := range Statuses() {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("authorized").Valid())
	assert.True(t, RefundSucceeded.Valid())
	assert.False(t, RefundStatus("done").Valid())
}

func TestParseTypeAndEnvironment(t *testing.T) {
	assert.Equal(t, TypePayPal, ParseType(" PayPal "))
	assert.Equal(t, EnvironmentProduction, ParseEnvironment("live"))
	assert.Equal(t, EnvironmentTest, ParseEnvironment(""))
}
