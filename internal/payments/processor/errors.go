package processor

import (
	"errors"
	"fmt"
	"strings"
)

// Kind groups errors by the resource they concern.
type Kind string

const (
	KindProcessor           Kind = "processor"
	KindPaymentIntent       Kind = "payment_intent"
	KindRefund              Kind = "refund"
	KindWebhookVerification Kind = "webhook_verification"
	KindCustomer            Kind = "customer"
	KindPaymentMethod       Kind = "payment_method"
)

// Code is the machine-readable failure reason.
type Code string

const (
	CodeConfig         Code = "CONFIG_ERROR"
	CodeNotInitialized Code = "NOT_INITIALIZED"
	CodeUnavailable    Code = "PROCESSOR_UNAVAILABLE"
	CodeUnsupported    Code = "UNSUPPORTED_OPERATION"
	CodeNotImplemented Code = "NOT_IMPLEMENTED"
	CodeUpstream       Code = "UPSTREAM_ERROR"
	CodeVerification   Code = "WEBHOOK_VERIFICATION_FAILED"
	CodeInvalidRequest Code = "INVALID_REQUEST"
)

// Sentinels for errors.Is; they match any *Error with the same code.
var (
	ErrConfig         = &Error{Code: CodeConfig}
	ErrNotInitialized = &Error{Code: CodeNotInitialized}
	ErrUnavailable    = &Error{Code: CodeUnavailable}
	ErrUnsupported    = &Error{Code: CodeUnsupported}
	ErrNotImplemented = &Error{Code: CodeNotImplemented}
	ErrUpstream       = &Error{Code: CodeUpstream}
	ErrVerification   = &Error{Code: CodeVerification}
	ErrInvalidRequest = &Error{Code: CodeInvalidRequest}
)

// Error is the processor error value. It is never mutated after construction.
type Error struct {
	Processor Type
	Kind      Kind
	Code      Code
	Op        string
	Message   string
	Details   map[string]any
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("payments")
	if e.Processor != "" {
		b.WriteString(": ")
		b.WriteString(string(e.Processor))
	}
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code so callers can test against the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == "" {
		return false
	}
	if t.Processor != "" && t.Processor != e.Processor {
		return false
	}
	return t.Code == e.Code
}

// CodeOf extracts the code from any error chain, or "" when none is present.
func CodeOf(err error) Code {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ""
}

// NewError builds a processor error.
func NewError(t Type, kind Kind, code Code, op, message string) *Error {
	return &Error{Processor: t, Kind: kind, Code: code, Op: op, Message: message}
}

// ConfigError reports missing or invalid credentials.
func ConfigError(t Type, message string) *Error {
	return NewError(t, KindProcessor, CodeConfig, "initialize", message)
}

// NotInitializedError reports use before Initialize.
func NotInitializedError(t Type, op string) *Error {
	return NewError(t, KindProcessor, CodeNotInitialized, op, "processor is not initialized")
}

// UnavailableError reports a provider type that is not registered.
func UnavailableError(t Type) *Error {
	return NewError(t, KindProcessor, CodeUnavailable, "get_processor",
		fmt.Sprintf("processor %q is not configured or failed to initialize", t))
}

// UnsupportedError names the unsupported operation and the provider-native alternative.
func UnsupportedError(t Type, kind Kind, op, alternative string) *Error {
	msg := fmt.Sprintf("%s does not support %s", t, op)
	if alternative != "" {
		msg += "; " + alternative
	}
	return NewError(t, kind, CodeUnsupported, op, msg)
}

// NotImplementedError is returned by placeholder processors.
func NotImplementedError(t Type, kind Kind, op string) *Error {
	return NewError(t, kind, CodeNotImplemented, op, fmt.Sprintf("%s is not implemented for %s payments", op, t))
}

// InvalidRequestError reports caller input that failed validation before any provider call.
func InvalidRequestError(t Type, kind Kind, op, message string) *Error {
	return NewError(t, kind, CodeInvalidRequest, op, message)
}

// VerificationError is the error carried inside a failed WebhookVerification.
func VerificationError(t Type, message string, cause error) *Error {
	e := NewError(t, KindWebhookVerification, CodeVerification, "verify_webhook", message)
	e.Err = cause
	return e
}

// UpstreamError wraps a failed provider call with processor and operation context.
func UpstreamError(t Type, kind Kind, op string, cause error, details map[string]any) *Error {
	e := NewError(t, kind, CodeUpstream, op, "provider request failed")
	e.Err = cause
	e.Details = details
	return e
}

// Failed is the verification result for a rejected webhook.
func Failed(t Type, message string, cause error) WebhookVerification {
	return WebhookVerification{Verified: false, Error: VerificationError(t, message, cause)}
}
