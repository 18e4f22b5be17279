// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package direct

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/luxfi/direct/metadata"
	"github.com/luxfi/direct/router"
	"github.com/luxfi/direct/validation"
)

var errPanic = errors.New("direct: handler panicked")

// ArgumentValidator checks bound arguments before invocation.
// *validation.Validator implements it.
type ArgumentValidator interface {
	Validate(method *metadata.MethodMetadata, args router.Arguments) error
}

var _ ArgumentValidator = (*validation.Validator)(nil)

// Dispatcher runs decoded calls: it resolves the handler, binds and
// validates arguments, and invokes the method. Transports share one
// Dispatcher; it is safe for concurrent use.
type Dispatcher struct {
	resolver  *router.Resolver
	invoker   Invoker
	validator ArgumentValidator
	metrics   *Metrics
	logger    *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithValidator checks arguments before every invocation.
func WithValidator(v ArgumentValidator) DispatcherOption {
	return func(d *Dispatcher) { d.validator = v }
}

// WithMetrics records every call in m.
func WithMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher returns a Dispatcher resolving with resolver and invoking
// with invoker.
func NewDispatcher(resolver *router.Resolver, invoker Invoker, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		resolver: resolver,
		invoker:  invoker,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Dispatch runs req. transport is the transport-level request, injected
// into TransportContext parameters.
func (d *Dispatcher) Dispatch(ctx context.Context, req *router.Request, transport any) (result any, err error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.ErrorContext(ctx, "panic recovered",
				slog.String("call", req.String()),
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			result, err = nil, fmt.Errorf("%w: %v", errPanic, rec)
		}
		d.observe(ctx, req, start, err)
	}()

	ref, err := d.resolver.GetService(req)
	if err != nil {
		return nil, err
	}
	args, err := d.resolver.GetArguments(req, transport)
	if err != nil {
		return nil, err
	}
	if d.validator != nil {
		if err := d.validator.Validate(ref.Method(), args); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.invoker.Invoke(ctx, ref, args)
}

func (d *Dispatcher) observe(ctx context.Context, req *router.Request, start time.Time, err error) {
	duration := time.Since(start)
	if d.metrics != nil {
		d.metrics.observe(req, duration, err)
	}

	attrs := []any{
		slog.String("call", req.String()),
		slog.Duration("duration", duration),
	}
	switch {
	case err == nil:
		d.logger.DebugContext(ctx, "call completed", attrs...)
	case errors.Is(err, router.ErrActionNotFound), errors.Is(err, router.ErrMethodNotFound):
		d.logger.WarnContext(ctx, "call not routed", append(attrs, slog.Any("error", err))...)
	case errors.Is(err, validation.ErrInvalidArguments):
		d.logger.DebugContext(ctx, "call rejected", append(attrs, slog.Any("error", err))...)
	default:
		d.logger.ErrorContext(ctx, "call failed", append(attrs, slog.Any("error", err))...)
	}
}
