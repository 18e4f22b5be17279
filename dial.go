// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package direct

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownTransport is returned for a transport type nobody registered.
var ErrUnknownTransport = errors.New("direct: unknown transport")

// Dial connects to a server using the default transport (ZAP) unless
// WithTransport selects another.
func Dial(ctx context.Context, addr string, opts ...DialOption) (Client, error) {
	o := &dialOptions{
		transport: DefaultTransport,
		codec:     defaultCodec,
	}
	for _, opt := range opts {
		opt(o)
	}

	t, ok := lookupTransport(o.transport)
	if !ok || t.dial == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransport, o.transport)
	}
	return t.dial(ctx, addr, o)
}

// Listen creates a server dispatching calls to d, using the default
// transport (ZAP) unless WithServerTransport selects another.
func Listen(addr string, d *Dispatcher, opts ...ServerOption) (Server, error) {
	if d == nil {
		return nil, errors.New("direct: nil dispatcher")
	}
	o := &serverOptions{
		transport: DefaultTransport,
		codec:     defaultCodec,
	}
	for _, opt := range opts {
		opt(o)
	}

	t, ok := lookupTransport(o.transport)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransport, o.transport)
	}
	if t.listen == nil {
		return nil, fmt.Errorf("direct: transport %s cannot listen", o.transport)
	}
	return t.listen(addr, d, o)
}
