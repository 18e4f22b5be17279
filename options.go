// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package direct

import (
	"net/http"
	"net/url"
)

// Option customizes a single JSON-RPC request.
type Option func(*Options)

// Options holds the headers and query parameters sent with a request.
type Options struct {
	headers     http.Header
	queryParams url.Values
}

// NewOptions applies ops to empty Options.
func NewOptions(ops []Option) *Options {
	o := &Options{
		headers:     http.Header{},
		queryParams: url.Values{},
	}
	for _, op := range ops {
		op(o)
	}
	return o
}

// Headers returns the request headers.
func (o *Options) Headers() http.Header { return o.headers }

// QueryParams returns the request query parameters.
func (o *Options) QueryParams() url.Values { return o.queryParams }

// WithHeader adds a request header.
func WithHeader(key, val string) Option {
	return func(o *Options) {
		o.headers.Add(key, val)
	}
}

// WithQueryParam adds a query parameter to the request URL.
func WithQueryParam(key, val string) Option {
	return func(o *Options) {
		o.queryParams.Add(key, val)
	}
}
