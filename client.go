// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package direct

import (
	"context"
	"log/slog"
	"strings"
)

// Client calls remote actions. Implementations are safe for concurrent use.
type Client interface {
	// Call invokes action.method with positional data and decodes the
	// result into reply. reply may be nil. Remote failures are returned
	// as *Error.
	Call(ctx context.Context, action, method string, data []any, reply any) error

	// Notify invokes action.method without waiting for a result.
	Notify(ctx context.Context, action, method string, data []any) error

	// Close closes the connection
	Close() error
}

// Server serves calls through a Dispatcher.
type Server interface {
	// Serve accepts calls until ctx is canceled or Close is called.
	Serve(ctx context.Context) error

	// Close stops the server
	Close() error

	// Addr returns the server's listen address
	Addr() string
}

// DialOption configures client connections
type DialOption func(*dialOptions)

type dialOptions struct {
	codec     Codec
	transport string
	path      string
	options   []Option
}

// WithCodec sets the codec for call data and replies. It defaults to JSON.
func WithCodec(c Codec) DialOption {
	return func(o *dialOptions) { o.codec = c }
}

// WithTransport explicitly sets the transport type
func WithTransport(t string) DialOption {
	return func(o *dialOptions) { o.transport = t }
}

// WithPath sets the HTTP path of a JSON-RPC endpoint.
func WithPath(path string) DialOption {
	return func(o *dialOptions) { o.path = path }
}

// WithRequestOptions adds per-request options to a JSON-RPC client.
func WithRequestOptions(opts ...Option) DialOption {
	return func(o *dialOptions) { o.options = append(o.options, opts...) }
}

// ServerOption configures servers
type ServerOption func(*serverOptions)

type serverOptions struct {
	codec     Codec
	transport string
	path      string
	rps       float64
	burst     int
	logger    *slog.Logger
}

// WithServerCodec sets the codec for call data and replies.
func WithServerCodec(c Codec) ServerOption {
	return func(o *serverOptions) { o.codec = c }
}

// WithServerTransport explicitly sets the transport type for the server
func WithServerTransport(t string) ServerOption {
	return func(o *serverOptions) { o.transport = t }
}

// WithServerPath sets the HTTP path served by a JSON-RPC server.
func WithServerPath(path string) ServerOption {
	return func(o *serverOptions) { o.path = path }
}

// WithServerRateLimit limits each remote host to rps calls per second with
// the given burst.
func WithServerRateLimit(rps float64, burst int) ServerOption {
	return func(o *serverOptions) { o.rps, o.burst = rps, burst }
}

// WithServerLogger sets the logger for transport errors.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(o *serverOptions) { o.logger = logger }
}

// MethodName returns the wire method name for action.method.
func MethodName(action, method string) string {
	return action + "." + method
}

// SplitMethod splits a wire method name at its last dot. A name without
// a dot has an empty action and will not resolve.
func SplitMethod(name string) (action, method string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}
