// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package direct

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/direct/router"
)

// ErrUnboundMethod is returned by MethodTable for a resolved method that
// has no function bound to it.
var ErrUnboundMethod = errors.New("direct: method not bound")

// Invoker calls a resolved method with its bound arguments.
type Invoker interface {
	Invoke(ctx context.Context, ref *router.ServiceReference, args router.Arguments) (any, error)
}

// InvokerFunc is a function adapter for Invoker.
type InvokerFunc func(ctx context.Context, ref *router.ServiceReference, args router.Arguments) (any, error)

func (f InvokerFunc) Invoke(ctx context.Context, ref *router.ServiceReference, args router.Arguments) (any, error) {
	return f(ctx, ref, args)
}

// MethodFunc implements one method. handler is the resolved instance, or
// the class name for static methods; args are positional in parameter
// declaration order, with nil for absent values.
type MethodFunc func(ctx context.Context, handler any, args []any) (any, error)

// MethodTable is an Invoker dispatching on class and method name.
// The zero value is ready to use.
type MethodTable struct {
	mu    sync.RWMutex
	funcs map[methodKey]MethodFunc
}

type methodKey struct {
	class, method string
}

var _ Invoker = (*MethodTable)(nil)

// Bind sets the function for class.method, replacing any previous one.
func (t *MethodTable) Bind(class, method string, fn MethodFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.funcs == nil {
		t.funcs = make(map[methodKey]MethodFunc)
	}
	t.funcs[methodKey{class, method}] = fn
}

// Bound reports whether class.method has a function.
func (t *MethodTable) Bound(class, method string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.funcs[methodKey{class, method}]
	return ok
}

func (t *MethodTable) Invoke(ctx context.Context, ref *router.ServiceReference, args router.Arguments) (any, error) {
	class, method := ref.Action().Name(), ref.Method().Name()

	t.mu.RLock()
	fn, ok := t.funcs[methodKey{class, method}]
	t.mu.RUnlock()
	if !ok || fn == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnboundMethod, class, method)
	}
	return fn(ctx, ref.Handler(), args.Values())
}
