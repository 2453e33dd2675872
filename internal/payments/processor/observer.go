package processor

import "context"

// Observer receives operation entry and failure notifications from every adapter.
type Observer interface {
	OperationStarted(ctx context.Context, t Type, op string)
	OperationFailed(ctx context.Context, t Type, op string, err error)
}

type nopObserver struct{}

func (nopObserver) OperationStarted(context.Context, Type, string)       {}
func (nopObserver) OperationFailed(context.Context, Type, string, error) {}

// NopObserver discards all notifications.
func NopObserver() Observer { return nopObserver{} }
