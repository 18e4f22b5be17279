// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package direct

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/rpc/v2/json2"

	"github.com/luxfi/direct/router"
	"github.com/luxfi/direct/validation"
)

// ErrorCode is a machine-readable error code carried on the wire.
type ErrorCode string

const (
	CodeActionNotFound    ErrorCode = "action_not_found"
	CodeMethodNotFound    ErrorCode = "method_not_found"
	CodeInvalidArgument   ErrorCode = "invalid_argument"
	CodeResourceExhausted ErrorCode = "resource_exhausted"
	CodeCanceled          ErrorCode = "canceled"
	CodeDeadlineExceeded  ErrorCode = "deadline_exceeded"
	CodeNotImplemented    ErrorCode = "not_implemented"
	CodeInternal          ErrorCode = "internal"
)

const internalMessage = "internal error"

// Error is the error envelope sent to callers by every transport.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is lets callers test a decoded wire error against the sentinels of the
// packages that produced it, e.g. errors.Is(err, router.ErrActionNotFound).
func (e *Error) Is(target error) bool {
	switch target {
	case router.ErrActionNotFound:
		return e.Code == CodeActionNotFound
	case router.ErrMethodNotFound:
		return e.Code == CodeMethodNotFound
	case validation.ErrInvalidArguments:
		return e.Code == CodeInvalidArgument
	case ErrRateLimited:
		return e.Code == CodeResourceExhausted
	case context.Canceled:
		return e.Code == CodeCanceled
	case context.DeadlineExceeded:
		return e.Code == CodeDeadlineExceeded
	}
	return false
}

// NewError creates an Error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates an Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetail returns a copy of e with key set in its details.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{Code: e.Code, Message: e.Message, Details: details}
}

// ToError maps err to the Error sent on the wire. Configuration faults and
// unknown errors become CodeInternal with a generic message; their cause is
// for the server log only. Handlers return an *Error to send their own
// message.
func ToError(err error) *Error {
	if err == nil {
		return nil
	}

	var wire *Error
	if errors.As(err, &wire) {
		return wire
	}

	var verr *validation.Error
	switch {
	case errors.Is(err, router.ErrActionNotFound):
		return NewError(CodeActionNotFound, err.Error())
	case errors.Is(err, router.ErrMethodNotFound):
		return NewError(CodeMethodNotFound, err.Error())
	case errors.As(err, &verr):
		return &Error{Code: CodeInvalidArgument, Message: verr.Error(), Details: verr.Details()}
	case errors.Is(err, ErrRateLimited):
		return NewError(CodeResourceExhausted, "rate limit exceeded")
	case errors.Is(err, ErrUnboundMethod):
		return NewError(CodeNotImplemented, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return NewError(CodeDeadlineExceeded, "request timeout")
	case errors.Is(err, context.Canceled):
		return NewError(CodeCanceled, "context canceled")
	}
	return NewError(CodeInternal, internalMessage)
}

// JSONRPCCode maps c to a JSON-RPC 2.0 error code.
func (c ErrorCode) JSONRPCCode() json2.ErrorCode {
	switch c {
	case CodeActionNotFound, CodeMethodNotFound, CodeNotImplemented:
		return json2.E_NO_METHOD
	case CodeInvalidArgument:
		return json2.E_BAD_PARAMS
	case CodeInternal:
		return json2.E_INTERNAL
	default:
		return json2.E_SERVER
	}
}

// jsonRPCError wraps e for the json2 codec. The Error itself travels in Data.
func (e *Error) jsonRPCError() *json2.Error {
	return &json2.Error{
		Code:    e.Code.JSONRPCCode(),
		Message: e.Message,
		Data:    e,
	}
}

// fromJSONRPCError recovers the Error carried in a JSON-RPC error response.
// Errors from servers that do not send one are mapped by their numeric code.
func fromJSONRPCError(je *json2.Error) *Error {
	if je.Data != nil {
		raw, err := json.Marshal(je.Data)
		if err == nil {
			var e Error
			if json.Unmarshal(raw, &e) == nil && e.Code != "" {
				return &e
			}
		}
	}
	switch je.Code {
	case json2.E_NO_METHOD:
		return NewError(CodeMethodNotFound, je.Message)
	case json2.E_BAD_PARAMS, json2.E_INVALID_REQ, json2.E_PARSE:
		return NewError(CodeInvalidArgument, je.Message)
	default:
		return NewError(CodeInternal, je.Message)
	}
}
