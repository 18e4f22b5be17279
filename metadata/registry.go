// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metadata

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Registry maps handler class names to their metadata.
//
// A Registry is populated during startup and then frozen. Lookups on a frozen
// Registry are lock-free and safe for any number of goroutines; Register
// fails once the Registry is frozen. Lookups before Freeze are allowed but
// take a lock.
type Registry struct {
	mu      sync.Mutex
	actions map[string]*ActionMetadata

	// snap is published once by Freeze and never modified afterwards.
	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	actions map[string]*ActionMetadata
	classes []string
}

// NewRegistry returns an unfrozen Registry holding actions.
func NewRegistry(actions ...*ActionMetadata) (*Registry, error) {
	r := &Registry{actions: make(map[string]*ActionMetadata, len(actions))}
	for _, a := range actions {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds the metadata for a handler class.
func (r *Registry) Register(a *ActionMetadata) error {
	if a == nil {
		return ErrNilAction
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.snap.Load() != nil {
		return ErrRegistryFrozen
	}
	if r.actions == nil {
		r.actions = make(map[string]*ActionMetadata)
	}
	if _, ok := r.actions[a.name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateAction, a.name)
	}
	r.actions[a.name] = a
	return nil
}

// Freeze stops registration and publishes the registered set for lock-free
// reads. Calling Freeze more than once is a no-op.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.snap.Load() != nil {
		return
	}
	s := &snapshot{
		actions: make(map[string]*ActionMetadata, len(r.actions)),
		classes: make([]string, 0, len(r.actions)),
	}
	for name, a := range r.actions {
		s.actions[name] = a
		s.classes = append(s.classes, name)
	}
	sort.Strings(s.classes)
	r.snap.Store(s)
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.snap.Load() != nil
}

// MetadataForClass returns the metadata registered for class.
// It reports false when the class is unknown.
func (r *Registry) MetadataForClass(class string) (*ActionMetadata, bool) {
	if s := r.snap.Load(); s != nil {
		a, ok := s.actions[class]
		return a, ok
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actions[class]
	return a, ok
}

// Classes returns the registered class names in sorted order.
func (r *Registry) Classes() []string {
	if s := r.snap.Load(); s != nil {
		return append([]string(nil), s.classes...)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.actions))
	for name := range r.actions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered classes.
func (r *Registry) Len() int {
	if s := r.snap.Load(); s != nil {
		return len(s.actions)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actions)
}
