// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package service produces handler instances for instance methods.
package service

import (
	"fmt"

	"github.com/luxfi/direct/metadata"
)

// Factory produces a live handler instance for an action.
// It is only consulted for non-static methods. An error means the handler
// is misconfigured, not that the request was malformed.
type Factory interface {
	CreateService(action *metadata.ActionMetadata) (any, error)
}

// FactoryFunc is a function adapter for Factory.
type FactoryFunc func(action *metadata.ActionMetadata) (any, error)

func (f FactoryFunc) CreateService(action *metadata.ActionMetadata) (any, error) {
	return f(action)
}

// NewContainerFactory returns a Factory resolving handlers from c by the
// action's service ID.
func NewContainerFactory(c *Container) Factory {
	return &containerFactory{container: c}
}

type containerFactory struct {
	container *Container
}

var _ Factory = (*containerFactory)(nil)

func (f *containerFactory) CreateService(action *metadata.ActionMetadata) (any, error) {
	if action == nil {
		return nil, fmt.Errorf("service: nil action metadata")
	}
	return f.container.Resolve(action.ServiceID())
}
