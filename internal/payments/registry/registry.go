// Package registry constructs, initializes and looks up payment processors.
//
// A Registry is created once at startup and passed to the code that needs a
// processor. Initialization runs every configured adapter concurrently; only
// the default adapter's failure is fatal.
package registry

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/paycore/processor-gateway/internal/payments/manual"
	"github.com/paycore/processor-gateway/internal/payments/membership"
	"github.com/paycore/processor-gateway/internal/payments/paypal"
	"github.com/paycore/processor-gateway/internal/payments/processor"
	"github.com/paycore/processor-gateway/internal/payments/square"
	"github.com/paycore/processor-gateway/internal/payments/stripe"
	"github.com/paycore/processor-gateway/pkg/logging"
)

// Constructor builds an uninitialized adapter.
type Constructor func(processor.Deps) processor.Processor

// Defaults returns the constructors for every built-in provider.
func Defaults() map[processor.Type]Constructor {
	return map[processor.Type]Constructor{
		processor.TypeStripe:     func(d processor.Deps) processor.Processor { return stripe.New(d) },
		processor.TypeMembership: func(d processor.Deps) processor.Processor { return membership.New(d) },
		processor.TypeSquare:     func(d processor.Deps) processor.Processor { return square.New(d) },
		processor.TypePayPal:     func(d processor.Deps) processor.Processor { return paypal.New(d) },
		processor.TypeManual:     func(d processor.Deps) processor.Processor { return manual.New(d) },
	}
}

// Settings is the per-provider configuration handed to Initialize.
type Settings struct {
	// Default is the processor returned when no type is requested. Empty
	// means manual.
	Default    processor.Type
	Processors map[processor.Type]processor.Config
}

type state int

const (
	stateUninitialized state = iota
	stateInitializing
	stateReady
)

type Registry struct {
	deps   processor.Deps
	logger *logging.Logger

	mu          sync.RWMutex
	state       state
	ctors       map[processor.Type]Constructor
	processors  map[processor.Type]processor.Processor
	failures    map[processor.Type]error
	defaultType processor.Type
}

// New returns an uninitialized registry holding the default constructors.
func New(deps processor.Deps) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		deps:   deps,
		logger: logger.With("component", "payments.registry"),
		ctors:  Defaults(),
	}
}

// Register adds or replaces the constructor for t. It has no effect once
// Initialize has started.
func (r *Registry) Register(t processor.Type, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateUninitialized {
		r.logger.Warn("register ignored after initialization", "processor", string(t))
		return
	}
	r.ctors[t] = ctor
}

type result struct {
	mu         sync.Mutex
	processors map[processor.Type]processor.Processor
	failures   map[processor.Type]error
}

func (res *result) ok(t processor.Type, p processor.Processor) {
	res.mu.Lock()
	res.processors[t] = p
	res.mu.Unlock()
}

func (res *result) fail(t processor.Type, err error) {
	res.mu.Lock()
	res.failures[t] = err
	res.mu.Unlock()
}

// Initialize builds and initializes every configured processor plus manual.
// Calling it again once ready is a no-op.
func (r *Registry) Initialize(ctx context.Context, s Settings) error {
	r.mu.Lock()
	switch r.state {
	case stateReady:
		r.mu.Unlock()
		r.logger.Info("payment registry already initialized, ignoring")
		return nil
	case stateInitializing:
		r.mu.Unlock()
		return processor.ConfigError("", "payment registry initialization already in progress")
	}
	r.state = stateInitializing
	ctors := make(map[processor.Type]Constructor, len(r.ctors))
	for t, c := range r.ctors {
		ctors[t] = c
	}
	r.mu.Unlock()

	res, def, err := r.initialize(ctx, ctors, s)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.state = stateUninitialized
		r.logger.Error("payment registry initialization failed", "default", string(def), "error", err)
		return err
	}
	r.processors = res.processors
	r.failures = res.failures
	r.defaultType = def
	r.state = stateReady
	r.logger.Info("payment registry ready",
		"default", string(def),
		"available", typeNames(sortedTypes(res.processors)),
		"failed", len(res.failures),
	)
	return nil
}

func (r *Registry) initialize(ctx context.Context, ctors map[processor.Type]Constructor, s Settings) (*result, processor.Type, error) {
	def := s.Default
	if def == "" {
		def = processor.TypeManual
	}

	configs := make(map[processor.Type]processor.Config, len(s.Processors)+1)
	for t, cfg := range s.Processors {
		configs[t] = cfg
	}
	if _, ok := configs[processor.TypeManual]; !ok {
		configs[processor.TypeManual] = processor.Config{}
	}

	if _, ok := configs[def]; !ok {
		return nil, def, processor.ConfigError(def, fmt.Sprintf("default processor %q is not configured", def))
	}
	if _, ok := ctors[def]; !ok {
		return nil, def, processor.ConfigError(def, fmt.Sprintf("unknown default processor %q", def))
	}

	res := &result{
		processors: make(map[processor.Type]processor.Processor, len(configs)),
		failures:   make(map[processor.Type]error),
	}

	g, gctx := errgroup.WithContext(ctx)
	for t, cfg := range configs {
		ctor, ok := ctors[t]
		if !ok {
			err := processor.ConfigError(t, fmt.Sprintf("unknown processor type %q", t))
			r.logger.Warn("skipping unknown processor", "processor", string(t))
			res.fail(t, err)
			continue
		}
		g.Go(func() error {
			p := ctor(r.deps)
			if err := p.Initialize(gctx, cfg); err != nil {
				if t == def {
					return err
				}
				r.logger.Warn("processor failed to initialize, leaving it unavailable",
					"processor", string(t), "error", err)
				res.fail(t, err)
				return nil
			}
			res.ok(t, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, def, err
	}
	return res, def, nil
}

// GetProcessor returns the processor of type t, or the default when t is empty.
func (r *Registry) GetProcessor(t processor.Type) (processor.Processor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != stateReady {
		return nil, processor.NotInitializedError(t, "get_processor")
	}
	if t == "" {
		t = r.defaultType
	}
	p, ok := r.processors[t]
	if !ok {
		return nil, processor.UnavailableError(t)
	}
	return p, nil
}

func (r *Registry) GetDefaultProcessor() (processor.Processor, error) {
	return r.GetProcessor("")
}

// IsProcessorAvailable reports whether t initialized successfully.
func (r *Registry) IsProcessorAvailable(t processor.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != stateReady {
		return false
	}
	_, ok := r.processors[t]
	return ok
}

// GetAvailableProcessors lists the registered types in sorted order.
func (r *Registry) GetAvailableProcessors() []processor.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != stateReady {
		return nil
	}
	return sortedTypes(r.processors)
}

// DefaultType is empty until the registry is ready.
func (r *Registry) DefaultType() processor.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultType
}

// Failures returns the initialization errors of non-default processors.
func (r *Registry) Failures() map[processor.Type]error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[processor.Type]error, len(r.failures))
	for t, err := range r.failures {
		out[t] = err
	}
	return out
}

// Ready reports whether Initialize has completed.
func (r *Registry) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state == stateReady
}

func sortedTypes(m map[processor.Type]processor.Processor) []processor.Type {
	out := make([]processor.Type, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

func typeNames(types []processor.Type) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
