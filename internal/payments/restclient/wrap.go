package restclient

import (
	"errors"

	"github.com/paycore/processor-gateway/internal/payments/processor"
)

// Wrap converts a transport or status error into a processor upstream error
// carrying the provider response. Processor errors pass through unchanged.
func Wrap(t processor.Type, kind processor.Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var perr *processor.Error
	if errors.As(err, &perr) {
		return err
	}
	return processor.UpstreamError(t, kind, op, err, Details(err))
}
