// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrActionNotFound matches every *ActionNotFoundError.
	ErrActionNotFound = errors.New("router: action not found")
	// ErrMethodNotFound matches every *MethodNotFoundError.
	ErrMethodNotFound = errors.New("router: method not found")
	// ErrServiceCreation matches every *ServiceCreationError.
	ErrServiceCreation = errors.New("router: cannot create service")
)

// ActionNotFoundError reports a request whose action does not name a
// registered handler.
type ActionNotFoundError struct {
	Request *Request
}

func (e *ActionNotFoundError) Error() string {
	if e.Request == nil {
		return ErrActionNotFound.Error()
	}
	return fmt.Sprintf("router: action %q not found", e.Request.Action)
}

func (e *ActionNotFoundError) Is(target error) bool { return target == ErrActionNotFound }

// GRPCStatus lets status.FromError map the error to codes.NotFound.
func (e *ActionNotFoundError) GRPCStatus() *status.Status {
	return status.New(codes.NotFound, e.Error())
}

// MethodNotFoundError reports a request for a method the handler does not
// expose.
type MethodNotFoundError struct {
	Request *Request
}

func (e *MethodNotFoundError) Error() string {
	if e.Request == nil {
		return ErrMethodNotFound.Error()
	}
	return fmt.Sprintf("router: method %q not found in action %q", e.Request.Method, e.Request.Action)
}

func (e *MethodNotFoundError) Is(target error) bool { return target == ErrMethodNotFound }

// GRPCStatus lets status.FromError map the error to codes.Unimplemented.
func (e *MethodNotFoundError) GRPCStatus() *status.Status {
	return status.New(codes.Unimplemented, e.Error())
}

// ServiceCreationError reports that the factory could not produce a handler
// instance. It is a configuration fault: retrying the request cannot help.
type ServiceCreationError struct {
	Class string
	Err   error
}

func (e *ServiceCreationError) Error() string {
	return fmt.Sprintf("router: cannot create service for %q: %v", e.Class, e.Err)
}

func (e *ServiceCreationError) Unwrap() error { return e.Err }

func (e *ServiceCreationError) Is(target error) bool { return target == ErrServiceCreation }

// GRPCStatus lets status.FromError map the error to codes.Internal.
func (e *ServiceCreationError) GRPCStatus() *status.Status {
	return status.New(codes.Internal, e.Error())
}

// FromStatus converts a gRPC status produced by one of the errors above back
// into its sentinel, so errors.Is works across a gRPC hop. Other statuses are
// returned as their error.
func FromStatus(s *status.Status) error {
	if s == nil {
		return nil
	}
	switch s.Code() {
	case codes.OK:
		return nil
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrActionNotFound, s.Message())
	case codes.Unimplemented:
		return fmt.Errorf("%w: %s", ErrMethodNotFound, s.Message())
	default:
		return s.Err()
	}
}

var errNoFactory = errors.New("no service factory configured")
