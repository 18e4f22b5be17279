// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package naming maps wire action names to handler class names and back.
//
// A Strategy is pure: the same input always yields the same output and no
// lookups happen here. A name that maps to an unknown class is reported later,
// by the resolver, as an action-not-found error.
package naming

import "strings"

// Strategy converts between wire action names and handler class names.
type Strategy interface {
	// ConvertToClassName maps a wire action name to a handler class name.
	ConvertToClassName(action string) string
	// ConvertToActionName maps a handler class name to its wire action name.
	ConvertToActionName(class string) string
}

const (
	// ClassSeparator separates namespace segments in class names.
	ClassSeparator = "."
	// ActionSeparator replaces ClassSeparator in wire action names.
	ActionSeparator = "_"
)

var (
	_ Strategy = Default{}
	_ Strategy = Identity{}
	_ Strategy = Prefix{}
	_ Strategy = Func{}
	_ Strategy = chain(nil)
)

// Default maps "app_direct_Test" to "app.direct.Test" and back.
type Default struct{}

func (Default) ConvertToClassName(action string) string {
	return strings.ReplaceAll(action, ActionSeparator, ClassSeparator)
}

func (Default) ConvertToActionName(class string) string {
	return strings.ReplaceAll(class, ClassSeparator, ActionSeparator)
}

// Identity uses action names as class names unchanged.
type Identity struct{}

func (Identity) ConvertToClassName(action string) string { return action }

func (Identity) ConvertToActionName(class string) string { return class }

// Prefix places every action under a fixed class namespace.
// Prefix{"app.api."} maps "Users" to "app.api.Users".
type Prefix struct {
	Prefix string
}

func (p Prefix) ConvertToClassName(action string) string {
	return p.Prefix + action
}

// ConvertToActionName strips the prefix. Classes outside the namespace are
// returned unchanged.
func (p Prefix) ConvertToActionName(class string) string {
	return strings.TrimPrefix(class, p.Prefix)
}

// Func adapts a pair of plain functions. A nil function acts as identity.
type Func struct {
	ToClass  func(action string) string
	ToAction func(class string) string
}

func (f Func) ConvertToClassName(action string) string {
	if f.ToClass == nil {
		return action
	}
	return f.ToClass(action)
}

func (f Func) ConvertToActionName(class string) string {
	if f.ToAction == nil {
		return class
	}
	return f.ToAction(class)
}

// Chain composes strategies. Class names are produced left to right and action
// names right to left, so Chain(a, b) inverts cleanly. Nil strategies are skipped.
func Chain(strategies ...Strategy) Strategy {
	out := make(chain, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type chain []Strategy

func (c chain) ConvertToClassName(action string) string {
	for _, s := range c {
		action = s.ConvertToClassName(action)
	}
	return action
}

func (c chain) ConvertToActionName(class string) string {
	for i := len(c) - 1; i >= 0; i-- {
		class = c[i].ConvertToActionName(class)
	}
	return class
}
