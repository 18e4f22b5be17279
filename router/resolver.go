// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package router resolves decoded calls to handlers and bound arguments.
//
// A Resolver answers two questions for a Request: which handler serves it
// (GetService) and which values its parameters receive (GetArguments).
// Both validate the request the same way and fail with the same errors:
// *ActionNotFoundError when the action names no registered handler class,
// and *MethodNotFoundError when the class lacks the method.
//
// Wire data is positional. Parameters marked as transport or call context
// are filled by injection and consume no position, so a handler may mix
// them freely with wire parameters. Missing trailing wire values are bound
// as absent rather than rejected; a downstream validator decides whether
// that is acceptable.
//
// A Resolver keeps no per-call state and is safe for concurrent use once
// its metadata registry is frozen.
package router

import (
	"github.com/luxfi/direct/metadata"
	"github.com/luxfi/direct/naming"
	"github.com/luxfi/direct/service"
)

// ServiceLocator looks up handler metadata by class name.
// A miss is reported with false, never with an error.
type ServiceLocator interface {
	MetadataForClass(class string) (*metadata.ActionMetadata, bool)
}

var _ ServiceLocator = (*metadata.Registry)(nil)

// Resolver resolves requests against registered handler metadata.
type Resolver struct {
	locator ServiceLocator
	naming  naming.Strategy
	factory service.Factory
}

// New returns a Resolver. A nil strategy defaults to naming.Default.
func New(locator ServiceLocator, strategy naming.Strategy, factory service.Factory) *Resolver {
	if strategy == nil {
		strategy = naming.Default{}
	}
	return &Resolver{
		locator: locator,
		naming:  strategy,
		factory: factory,
	}
}

// GetService resolves the handler for req. Static methods resolve to the
// class name without touching the factory; instance methods resolve to the
// instance the factory produces.
func (r *Resolver) GetService(req *Request) (*ServiceReference, error) {
	action, method, err := r.assertMetadata(req)
	if err != nil {
		return nil, err
	}

	var handler any
	if method.IsStatic() {
		handler = action.Name()
	} else {
		if r.factory == nil {
			return nil, &ServiceCreationError{Class: action.Name(), Err: errNoFactory}
		}
		handler, err = r.factory.CreateService(action)
		if err != nil {
			return nil, &ServiceCreationError{Class: action.Name(), Err: err}
		}
	}

	return &ServiceReference{
		handler: handler,
		action:  action,
		method:  method,
	}, nil
}

// GetArguments binds req to the parameters of its method. transport is the
// transport request carrying the call; it is bound to TransportContext
// parameters as is, and req itself to CallContext parameters. Every
// parameter appears in the result, in declaration order.
func (r *Resolver) GetArguments(req *Request, transport any) (Arguments, error) {
	_, method, err := r.assertMetadata(req)
	if err != nil {
		return nil, err
	}

	args := make(Arguments, method.NumParameters())
	i := 0 // cursor into req.Data, advanced by wire parameters only
	for n := range args {
		p := method.Parameter(n)
		arg := Argument{Name: p.Name}
		switch p.Kind {
		case metadata.TransportContext:
			arg.Value, arg.Present, arg.Injected = transport, true, true
		case metadata.CallContext:
			arg.Value, arg.Present, arg.Injected = req, true, true
		default:
			if i < len(req.Data) {
				arg.Value, arg.Present = req.Data[i], true
			}
			i++
		}
		args[n] = arg
	}
	return args, nil
}

// assertMetadata finds the action and method metadata for req.
func (r *Resolver) assertMetadata(req *Request) (*metadata.ActionMetadata, *metadata.MethodMetadata, error) {
	if req == nil {
		return nil, nil, &ActionNotFoundError{}
	}

	class := r.naming.ConvertToClassName(req.Action)
	if class == "" || r.locator == nil {
		return nil, nil, &ActionNotFoundError{Request: req}
	}
	action, ok := r.locator.MetadataForClass(class)
	if !ok || action == nil {
		return nil, nil, &ActionNotFoundError{Request: req}
	}

	method, ok := action.Method(req.Method)
	if !ok {
		return nil, nil, &MethodNotFoundError{Request: req}
	}
	return action, method, nil
}
