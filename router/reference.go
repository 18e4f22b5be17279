// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import "github.com/luxfi/direct/metadata"

// ServiceReference is a resolved call target.
//
// For a static method Handler is the class name (a string) and no instance
// exists; otherwise Handler is the instance produced by the service factory.
type ServiceReference struct {
	handler any
	action  *metadata.ActionMetadata
	method  *metadata.MethodMetadata
}

// Handler returns the handler instance, or the class name for static methods.
func (r *ServiceReference) Handler() any { return r.handler }

// Action returns the metadata of the resolved handler class.
func (r *ServiceReference) Action() *metadata.ActionMetadata { return r.action }

// Method returns the metadata of the resolved method.
func (r *ServiceReference) Method() *metadata.MethodMetadata { return r.method }

// IsStatic reports whether Handler is a class name rather than an instance.
func (r *ServiceReference) IsStatic() bool { return r.method.IsStatic() }
