// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package direct

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/rpc/v2/json2"
)

const (
	maxRetries    = 3
	retryBaseWait = 500 * time.Millisecond

	// DefaultPath is the HTTP path of JSON-RPC endpoints.
	DefaultPath = "/rpc"
)

// newHTTPClient creates a fresh HTTP client with disabled connection reuse.
// This avoids EOF errors that can occur with connection pooling in complex
// process hierarchies.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DisableKeepAlives: true,
		},
	}
}

// CleanlyCloseBody drains and closes an HTTP response body to prevent
// HTTP/2 GOAWAY errors caused by closing bodies with unread data.
// See: https://github.com/golang/go/issues/46071
func CleanlyCloseBody(body io.ReadCloser) error {
	if body == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, body)
	return body.Close()
}

// isRetryableError checks if an error is transient and worth retrying
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe")
}

// SendJSONRequest sends a JSON-RPC 2.0 request to uri and decodes the
// result into reply. Transient connection failures are retried with
// exponential backoff. A JSON-RPC error response is returned wrapping
// *json2.Error; HTTP 429 wraps ErrRateLimited.
func SendJSONRequest(
	ctx context.Context,
	uri *url.URL,
	method string,
	params any,
	reply any,
	options ...Option,
) error {
	logger := slog.Default()
	logger.DebugContext(ctx, "sending json-rpc request",
		slog.String("method", method),
		slog.String("uri", uri.String()))

	requestBodyBytes, err := json2.EncodeClientRequest(method, params)
	if err != nil {
		return fmt.Errorf("failed to encode client params: %w", err)
	}

	ops := NewOptions(options)
	target := *uri
	if len(ops.queryParams) > 0 {
		target.RawQuery = ops.queryParams.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			waitTime := retryBaseWait * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}
		}

		// A fresh request per attempt; the body buffer is consumed.
		request, err := http.NewRequestWithContext(
			ctx,
			http.MethodPost,
			target.String(),
			bytes.NewReader(requestBodyBytes),
		)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		request.Header = ops.headers.Clone()
		request.Header.Set("Content-Type", "application/json")

		resp, err := newHTTPClient().Do(request)
		if err != nil {
			lastErr = err
			retryable := isRetryableError(err)
			logger.WarnContext(ctx, "json-rpc request attempt failed",
				slog.Int("attempt", attempt+1),
				slog.Bool("retryable", retryable),
				slog.Any("error", err))
			if retryable {
				continue
			}
			return fmt.Errorf("failed to issue request: %w", err)
		}
		if attempt > 0 {
			logger.InfoContext(ctx, "json-rpc request succeeded after retry",
				slog.Int("attempt", attempt+1))
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			CleanlyCloseBody(resp.Body)
			return fmt.Errorf("%w: received status code %d", ErrRateLimited, resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			CleanlyCloseBody(resp.Body)
			return fmt.Errorf("received status code: %d", resp.StatusCode)
		}

		err = json2.DecodeClientResponse(resp.Body, reply)
		CleanlyCloseBody(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to decode client response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("failed to issue request after %d retries: %w", maxRetries, lastErr)
}

// jsonClient implements Client over JSON-RPC 2.0.
type jsonClient struct {
	uri     *url.URL
	options []Option
}

func dialJSON(ctx context.Context, addr string, o *dialOptions) (Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	uri, err := endpointURL(addr, o.path)
	if err != nil {
		return nil, err
	}
	return &jsonClient{uri: uri, options: o.options}, nil
}

// endpointURL accepts a full URL or a bare host:port.
func endpointURL(addr, path string) (*url.URL, error) {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	uri, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("json dial: %w", err)
	}
	switch {
	case path != "":
		uri.Path = path
	case uri.Path == "":
		uri.Path = DefaultPath
	}
	return uri, nil
}

func (c *jsonClient) Call(ctx context.Context, action, method string, data []any, reply any) error {
	if data == nil {
		data = []any{}
	}
	if reply == nil {
		reply = new(json.RawMessage)
	}

	err := SendJSONRequest(ctx, c.uri, MethodName(action, method), data, reply, c.options...)
	var je *json2.Error
	switch {
	case err == nil, errors.Is(err, json2.ErrNullResult):
		return nil
	case errors.As(err, &je):
		return fromJSONRPCError(je)
	case errors.Is(err, ErrRateLimited):
		return NewError(CodeResourceExhausted, "rate limit exceeded")
	}
	return err
}

// Notify sends the call and discards its result.
func (c *jsonClient) Notify(ctx context.Context, action, method string, data []any) error {
	return c.Call(ctx, action, method, data, nil)
}

func (c *jsonClient) Close() error { return nil }

// jsonServer implements Server by serving NewHTTPHandler on one path.
type jsonServer struct {
	listener net.Listener
	srv      *http.Server
}

func listenJSON(addr string, d *Dispatcher, o *serverOptions) (Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	path := o.path
	if path == "" {
		path = DefaultPath
	}

	mux := http.NewServeMux()
	mux.Handle(path, NewHTTPHandler(d,
		WithRateLimit(o.rps, o.burst),
		WithHandlerLogger(o.logger),
	))
	return &jsonServer{
		listener: listener,
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *jsonServer) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	err := s.srv.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *jsonServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *jsonServer) Addr() string {
	return s.listener.Addr().String()
}
