// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package direct

import (
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/gorilla/rpc/v2/json2"

	"github.com/luxfi/direct/router"
)

// HandlerOption configures an HTTPHandler.
type HandlerOption func(*HTTPHandler)

// WithRateLimit limits each remote host to rps calls per second with the
// given burst. Excess calls get HTTP 429. Non-positive values disable it.
func WithRateLimit(rps float64, burst int) HandlerOption {
	return func(h *HTTPHandler) { h.limiter = newHostLimiter(rps, burst) }
}

// WithMaxBodySize caps the request body at n bytes. Larger bodies get HTTP
// 413. Non-positive values keep the default.
func WithMaxBodySize(n int64) HandlerOption {
	return func(h *HTTPHandler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// WithHandlerLogger sets the logger. If not set, slog.Default() is used.
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *HTTPHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// HTTPHandler serves JSON-RPC 2.0 calls. The JSON-RPC method is
// "Action.method" and params is the positional data array. The
// *http.Request is injected into transport context parameters.
type HTTPHandler struct {
	dispatcher *Dispatcher
	codec      *json2.Codec
	limiter    *hostLimiter
	maxBody    int64
	logger     *slog.Logger
}

var _ http.Handler = (*HTTPHandler)(nil)

// NewHTTPHandler returns a handler dispatching calls to d.
func NewHTTPHandler(d *Dispatcher, opts ...HandlerOption) *HTTPHandler {
	h := &HTTPHandler{
		dispatcher: d,
		codec:      json2.NewCodec(),
		maxBody:    maxFrameSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "rpc: POST method required, received "+r.Method, http.StatusMethodNotAllowed)
		return
	}
	if ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || ct != "application/json" {
		http.Error(w, "rpc: unsupported content type", http.StatusUnsupportedMediaType)
		return
	}
	if !h.limiter.allow(r.RemoteAddr, time.Now()) {
		h.logger.DebugContext(r.Context(), "call rate limited", slog.String("remote", r.RemoteAddr))
		http.Error(w, ErrRateLimited.Error(), http.StatusTooManyRequests)
		return
	}

	if r.ContentLength > h.maxBody {
		http.Error(w, "rpc: request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	// json2 always answers 200; the error travels in the response body.
	codecReq := h.codec.NewRequest(r)
	name, err := codecReq.Method()
	if err != nil {
		codecReq.WriteError(w, http.StatusOK, err)
		return
	}
	var data []any
	if err := codecReq.ReadRequest(&data); err != nil {
		codecReq.WriteError(w, http.StatusOK, err)
		return
	}

	action, method := SplitMethod(name)
	req := &router.Request{Action: action, Method: method, Data: data}
	result, err := h.dispatcher.Dispatch(r.Context(), req, r)
	if err != nil {
		wire := ToError(err)
		codecReq.WriteError(w, http.StatusOK, wire.jsonRPCError())
		return
	}
	codecReq.WriteResponse(w, result)
}
