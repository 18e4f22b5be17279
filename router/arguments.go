// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

// Argument is one bound parameter value.
type Argument struct {
	// Name is the parameter name.
	Name string
	// Value is the bound value. It is nil when Present is false.
	Value any
	// Present is false when the call data had no value for this position.
	Present bool
	// Injected is true for transport and call context parameters.
	Injected bool
}

// Arguments is the bound argument list of a call, in parameter
// declaration order.
type Arguments []Argument

// Len returns the number of arguments.
func (a Arguments) Len() int { return len(a) }

// Values returns the argument values positionally. Absent values are nil.
func (a Arguments) Values() []any {
	out := make([]any, len(a))
	for i, arg := range a {
		out[i] = arg.Value
	}
	return out
}

// Get returns the value bound to name and whether it was present.
func (a Arguments) Get(name string) (any, bool) {
	for _, arg := range a {
		if arg.Name == name {
			return arg.Value, arg.Present
		}
	}
	return nil, false
}

// Map returns the arguments keyed by parameter name. Absent values map to nil.
func (a Arguments) Map() map[string]any {
	out := make(map[string]any, len(a))
	for _, arg := range a {
		out[arg.Name] = arg.Value
	}
	return out
}
