// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrEmptyID          = errors.New("service: empty service id")
	ErrNilProvider      = errors.New("service: nil provider")
	ErrNilInstance      = errors.New("service: nil instance")
	ErrDuplicateService = errors.New("service: already registered")
	ErrServiceNotFound  = errors.New("service: not registered")
)

// Provider builds a service. It may resolve its own dependencies from c.
type Provider func(c *Container) (any, error)

// Container is a small dependency injection container keyed by service ID.
// The first instance a provider returns is cached as a singleton. The zero
// value is an empty container ready to use.
type Container struct {
	mu        sync.Mutex
	providers map[string]Provider
	instances map[string]any
}

// NewContainer returns an empty Container.
func NewContainer() *Container {
	return &Container{
		providers: make(map[string]Provider),
		instances: make(map[string]any),
	}
}

// Register registers a provider for id.
func (c *Container) Register(id string, p Provider) error {
	if id == "" {
		return ErrEmptyID
	}
	if p == nil {
		return ErrNilProvider
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.has(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateService, id)
	}
	c.init()
	c.providers[id] = p
	return nil
}

// RegisterInstance registers an already built service for id.
func (c *Container) RegisterInstance(id string, instance any) error {
	if id == "" {
		return ErrEmptyID
	}
	if instance == nil {
		return ErrNilInstance
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.has(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateService, id)
	}
	c.init()
	c.instances[id] = instance
	return nil
}

// Resolve returns the service registered for id, building it on first use.
// Providers run without the container lock held so they can resolve their
// own dependencies; they must not depend on themselves.
func (c *Container) Resolve(id string) (any, error) {
	c.mu.Lock()
	if instance, ok := c.instances[id]; ok {
		c.mu.Unlock()
		return instance, nil
	}
	p, ok := c.providers[id]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
	}

	instance, err := p(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to create service %s: %w", id, err)
	}
	if instance == nil {
		return nil, fmt.Errorf("failed to create service %s: %w", id, ErrNilInstance)
	}
	// Another goroutine may have won the race.
	if existing, ok := c.instances[id]; ok {
		return existing, nil
	}
	c.instances[id] = instance
	return instance, nil
}

// Has reports whether id is registered.
func (c *Container) Has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.has(id)
}

func (c *Container) init() {
	if c.providers == nil {
		c.providers = make(map[string]Provider)
	}
	if c.instances == nil {
		c.instances = make(map[string]any)
	}
}

func (c *Container) has(id string) bool {
	_, hasProvider := c.providers[id]
	_, hasInstance := c.instances[id]
	return hasProvider || hasInstance
}

// IDs returns all registered service IDs in sorted order.
func (c *Container) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	set := make(map[string]struct{}, len(c.providers)+len(c.instances))
	for id := range c.providers {
		set[id] = struct{}{}
	}
	for id := range c.instances {
		set[id] = struct{}{}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
