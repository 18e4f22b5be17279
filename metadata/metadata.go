// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metadata describes the handlers a router can resolve.
//
// Metadata is built once at startup, either with the constructors in this
// package or from a YAML file (see LoadYAML), and registered in a Registry.
// Every value here is immutable after construction: accessors return copies,
// so a frozen Registry can be shared by any number of goroutines.
package metadata

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ParameterMetadata describes one formal parameter of a handler method.
type ParameterMetadata struct {
	// Name is the parameter name. Unique within its method.
	Name string
	// Kind tells whether the parameter consumes wire data or receives an
	// injected context object.
	Kind ParameterKind
	// Constraints is an optional validation tag (e.g. "required,gte=0")
	// checked after binding by a downstream validator. Ignored for
	// injected parameters.
	Constraints string
}

// Injected reports whether the parameter is satisfied by context injection.
func (p ParameterMetadata) Injected() bool {
	return p.Kind != Wire
}

// Param declares a wire parameter with optional validation constraints.
func Param(name string, constraints ...string) ParameterMetadata {
	p := ParameterMetadata{Name: name, Kind: Wire}
	if len(constraints) > 0 {
		p.Constraints = joinConstraints(constraints)
	}
	return p
}

// TransportParam declares a parameter receiving the transport request.
func TransportParam(name string) ParameterMetadata {
	return ParameterMetadata{Name: name, Kind: TransportContext}
}

// CallParam declares a parameter receiving the decoded call request.
func CallParam(name string) ParameterMetadata {
	return ParameterMetadata{Name: name, Kind: CallContext}
}

func joinConstraints(c []string) string {
	parts := make([]string, 0, len(c))
	for _, s := range c {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ",")
}

// MethodMetadata describes one callable method of a handler.
type MethodMetadata struct {
	name     string
	static   bool
	params   []ParameterMetadata
	newError error
}

// InstanceMethod declares a method invoked on a handler instance.
func InstanceMethod(name string, params ...ParameterMetadata) *MethodMetadata {
	return newMethod(name, false, params)
}

// StaticMethod declares a method invoked on the handler class itself.
// No instance is created to serve it.
func StaticMethod(name string, params ...ParameterMetadata) *MethodMetadata {
	return newMethod(name, true, params)
}

// NewMethod declares a method with an explicit static flag.
func NewMethod(name string, static bool, params ...ParameterMetadata) *MethodMetadata {
	return newMethod(name, static, params)
}

func newMethod(name string, static bool, params []ParameterMetadata) *MethodMetadata {
	m := &MethodMetadata{
		name:   name,
		static: static,
		params: slices.Clone(params),
	}
	// Errors are reported by NewAction so declarations stay chainable.
	m.newError = m.check()
	return m
}

func (m *MethodMetadata) check() error {
	if m.name == "" {
		return fmt.Errorf("%w: method", ErrEmptyName)
	}
	seen := make(map[string]struct{}, len(m.params))
	for i, p := range m.params {
		if p.Name == "" {
			return fmt.Errorf("%w: parameter %d of method %q", ErrEmptyName, i, m.name)
		}
		if !p.Kind.Valid() {
			return fmt.Errorf("%w: %d for parameter %q of method %q", ErrUnknownKind, p.Kind, p.Name, m.name)
		}
		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("%w: %q in method %q", ErrDuplicateParameter, p.Name, m.name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

// Name returns the method name as it appears on the wire.
func (m *MethodMetadata) Name() string { return m.name }

// IsStatic reports whether the method is invoked without an instance.
func (m *MethodMetadata) IsStatic() bool { return m.static }

// Parameters returns a copy of the parameters in declaration order.
func (m *MethodMetadata) Parameters() []ParameterMetadata {
	return slices.Clone(m.params)
}

// NumParameters returns the number of declared parameters.
func (m *MethodMetadata) NumParameters() int { return len(m.params) }

// Parameter returns the i-th parameter in declaration order.
// It panics if i is out of range.
func (m *MethodMetadata) Parameter(i int) ParameterMetadata { return m.params[i] }

// NumWireParameters returns how many parameters consume wire data.
func (m *MethodMetadata) NumWireParameters() int {
	n := 0
	for _, p := range m.params {
		if !p.Injected() {
			n++
		}
	}
	return n
}

// ActionMetadata describes one handler class and its methods.
type ActionMetadata struct {
	name      string
	serviceID string
	methods   map[string]*MethodMetadata
}

// ActionOption configures an ActionMetadata under construction.
type ActionOption func(*ActionMetadata)

// WithServiceID sets the key used to obtain handler instances from a
// service container. It defaults to the class name.
func WithServiceID(id string) ActionOption {
	return func(a *ActionMetadata) {
		if id != "" {
			a.serviceID = id
		}
	}
}

// NewAction builds the metadata for class from its methods.
// Method names must be unique.
func NewAction(class string, methods []*MethodMetadata, opts ...ActionOption) (*ActionMetadata, error) {
	if class == "" {
		return nil, fmt.Errorf("%w: action class", ErrEmptyName)
	}
	a := &ActionMetadata{
		name:      class,
		serviceID: class,
		methods:   make(map[string]*MethodMetadata, len(methods)),
	}
	for _, opt := range opts {
		opt(a)
	}
	for i, m := range methods {
		if m == nil {
			return nil, fmt.Errorf("%w: index %d of %q", ErrNilMethod, i, class)
		}
		if m.newError != nil {
			return nil, fmt.Errorf("action %q: %w", class, m.newError)
		}
		if _, ok := a.methods[m.name]; ok {
			return nil, fmt.Errorf("%w: %q in action %q", ErrDuplicateMethod, m.name, class)
		}
		a.methods[m.name] = m
	}
	return a, nil
}

// MustAction is like NewAction but panics on error.
// It is meant for package-level handler declarations.
func MustAction(class string, methods []*MethodMetadata, opts ...ActionOption) *ActionMetadata {
	a, err := NewAction(class, methods, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

// Name returns the handler class name.
func (a *ActionMetadata) Name() string { return a.name }

// ServiceID returns the container key for handler instances.
func (a *ActionMetadata) ServiceID() string { return a.serviceID }

// Method looks up a method by its wire name.
func (a *ActionMetadata) Method(name string) (*MethodMetadata, bool) {
	m, ok := a.methods[name]
	return m, ok
}

// Methods returns the methods sorted by name.
func (a *ActionMetadata) Methods() []*MethodMetadata {
	out := make([]*MethodMetadata, 0, len(a.methods))
	for _, m := range a.methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// NumMethods returns the number of methods.
func (a *ActionMetadata) NumMethods() int { return len(a.methods) }
