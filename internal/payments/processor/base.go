package processor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/paycore/processor-gateway/pkg/logging"
)

// Base holds the behavior shared by every adapter: the initialized guard,
// config storage, amount conversion and operation hooks. Adapters keep a
// *Base field instead of inheriting from it.
type Base struct {
	typ      Type
	caps     Capabilities
	logger   *logging.Logger
	observer Observer
	tracer   trace.Tracer

	initMu sync.Mutex
	cfg    atomic.Pointer[Config]
}

// BaseOption customizes a Base.
type BaseOption func(*Base)

// WithLogger sets the logger; the processor type is attached to every line.
func WithLogger(logger *logging.Logger) BaseOption {
	return func(b *Base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithObserver sets the operation observer.
func WithObserver(o Observer) BaseOption {
	return func(b *Base) {
		if o != nil {
			b.observer = o
		}
	}
}

// NewBase creates the shared helper for an adapter of type t.
func NewBase(t Type, caps Capabilities, opts ...BaseOption) *Base {
	b := &Base{
		typ:      t,
		caps:     caps.Copy(),
		logger:   logging.Default(),
		observer: NopObserver(),
		tracer:   otel.Tracer("paycore.payments." + string(t)),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("processor", string(t))
	return b
}

// Type returns the adapter's processor type.
func (b *Base) Type() Type { return b.typ }

// Capabilities returns a copy of the declared capabilities.
func (b *Base) Capabilities() Capabilities { return b.caps.Copy() }

// Logger returns the processor-scoped logger.
func (b *Base) Logger() *logging.Logger { return b.logger }

// IsInitialized reports whether Initialize completed successfully.
func (b *Base) IsInitialized() bool { return b.cfg.Load() != nil }

// Config returns a copy of the applied configuration. Zero value before Initialize.
func (b *Base) Config() Config {
	cfg := b.cfg.Load()
	if cfg == nil {
		return Config{}
	}
	return cfg.Clone()
}

// Initialize validates cfg and applies it. setup runs after validation and
// before the config is stored; if it fails nothing is applied. A second call
// after a successful one is a no-op.
func (b *Base) Initialize(cfg Config, setup func(Config) error) error {
	b.initMu.Lock()
	defer b.initMu.Unlock()

	if b.cfg.Load() != nil {
		b.logger.Info("processor already initialized, ignoring re-initialize")
		return nil
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return ConfigError(b.typ, "api key is required")
	}
	if cfg.Environment == "" {
		cfg.Environment = EnvironmentTest
	}

	applied := cfg.Clone()
	if setup != nil {
		if err := setup(applied); err != nil {
			var perr *Error
			if errors.As(err, &perr) {
				return err
			}
			e := ConfigError(b.typ, "initialization failed")
			e.Err = err
			return e
		}
	}

	b.cfg.Store(&applied)
	b.logger.Info("processor initialized",
		"environment", string(applied.Environment),
		"api_key", logging.Mask(applied.APIKey),
	)
	return nil
}

// EnsureInitialized fails fast when the adapter has not been configured.
func (b *Base) EnsureInitialized(op string) error {
	if b.cfg.Load() == nil {
		return NotInitializedError(b.typ, op)
	}
	return nil
}

// Start opens the operation span and fires the entry hook. The returned
// function must be called with the operation's final error; it fires the
// error hook and returns the error wrapped with processor context.
func (b *Base) Start(ctx context.Context, op string) (context.Context, func(error) error) {
	ctx, span := b.tracer.Start(ctx, string(b.typ)+"."+op, trace.WithAttributes(
		attribute.String("payments.processor", string(b.typ)),
		attribute.String("payments.operation", op),
	))
	b.observer.OperationStarted(ctx, b.typ, op)
	b.logger.Debug("payment operation started", "op", op)

	return ctx, func(err error) error {
		defer span.End()
		if err == nil {
			return nil
		}
		err = b.wrap(op, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(CodeOf(err)))
		b.observer.OperationFailed(ctx, b.typ, op, err)
		b.logger.Error("payment operation failed", "op", op, "code", string(CodeOf(err)), "error", err)
		return err
	}
}

// Begin is Start followed by EnsureInitialized. When the guard fails the
// error has already been passed through the finish hook.
func (b *Base) Begin(ctx context.Context, op string) (context.Context, func(error) error, error) {
	ctx, done := b.Start(ctx, op)
	if err := b.EnsureInitialized(op); err != nil {
		return ctx, done, done(err)
	}
	return ctx, done, nil
}

func (b *Base) wrap(op string, err error) error {
	var perr *Error
	if errors.As(err, &perr) {
		return err
	}
	return UpstreamError(b.typ, KindProcessor, op, err, nil)
}

// ToMinorUnits delegates to the package normalizer.
func (b *Base) ToMinorUnits(amount float64, currency string) int64 {
	return ToMinorUnits(amount, currency)
}

// FromMinorUnits delegates to the package normalizer.
func (b *Base) FromMinorUnits(amount int64, currency string) float64 {
	return FromMinorUnits(amount, currency)
}
