// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metadata

import (
	"errors"
	"testing"
)

func TestNewAction(t *testing.T) {
	a, err := NewAction("app.direct.Test", []*MethodMetadata{
		InstanceMethod("methodA", TransportParam("req"), Param("a", "required"), Param("b")),
		StaticMethod("methodB"),
	}, WithServiceID("test.service"))
	if err != nil {
		t.Fatalf("NewAction: %v", err)
	}

	if a.Name() != "app.direct.Test" {
		t.Errorf("Name() = %q", a.Name())
	}
	if a.ServiceID() != "test.service" {
		t.Errorf("ServiceID() = %q", a.ServiceID())
	}
	if a.NumMethods() != 2 {
		t.Errorf("NumMethods() = %d, want 2", a.NumMethods())
	}

	m, ok := a.Method("methodA")
	if !ok {
		t.Fatal("methodA not found")
	}
	if m.IsStatic() {
		t.Error("methodA should not be static")
	}
	if m.NumParameters() != 3 || m.NumWireParameters() != 2 {
		t.Errorf("params = %d, wire = %d", m.NumParameters(), m.NumWireParameters())
	}
	if p := m.Parameter(1); p.Name != "a" || p.Constraints != "required" || p.Injected() {
		t.Errorf("Parameter(1) = %+v", p)
	}
	if p := m.Parameter(0); !p.Injected() || p.Kind != TransportContext {
		t.Errorf("Parameter(0) = %+v", p)
	}

	b, ok := a.Method("methodB")
	if !ok || !b.IsStatic() {
		t.Errorf("methodB: ok=%v static=%v", ok, ok && b.IsStatic())
	}

	if _, ok := a.Method("missing"); ok {
		t.Error("unexpected method")
	}
}

func TestNewAction_DefaultServiceID(t *testing.T) {
	a := MustAction("Users", nil)
	if a.ServiceID() != "Users" {
		t.Errorf("ServiceID() = %q, want class name", a.ServiceID())
	}
}

func TestNewAction_Errors(t *testing.T) {
	tests := []struct {
		name    string
		class   string
		methods []*MethodMetadata
		want    error
	}{
		{"empty class", "", nil, ErrEmptyName},
		{"empty method", "A", []*MethodMetadata{InstanceMethod("")}, ErrEmptyName},
		{"nil method", "A", []*MethodMetadata{nil}, ErrNilMethod},
		{"duplicate method", "A", []*MethodMetadata{InstanceMethod("m"), StaticMethod("m")}, ErrDuplicateMethod},
		{"duplicate param", "A", []*MethodMetadata{InstanceMethod("m", Param("x"), CallParam("x"))}, ErrDuplicateParameter},
		{"empty param", "A", []*MethodMetadata{InstanceMethod("m", Param(""))}, ErrEmptyName},
		{"bad kind", "A", []*MethodMetadata{InstanceMethod("m", ParameterMetadata{Name: "x", Kind: 9})}, ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAction(tt.class, tt.methods)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMustAction_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustAction("", nil)
}

func TestParametersIsACopy(t *testing.T) {
	m := InstanceMethod("m", Param("a"), Param("b"))
	params := m.Parameters()
	params[0].Name = "changed"

	if m.Parameter(0).Name != "a" {
		t.Error("Parameters() exposed internal state")
	}
}

func TestDeclarationOrderIsKept(t *testing.T) {
	in := []ParameterMetadata{Param("z"), CallParam("y"), Param("x"), TransportParam("w")}
	m := InstanceMethod("m", in...)
	in[0].Name = "mutated"

	want := []string{"z", "y", "x", "w"}
	for i, p := range m.Parameters() {
		if p.Name != want[i] {
			t.Errorf("param %d = %q, want %q", i, p.Name, want[i])
		}
	}
}

func TestMethodsSorted(t *testing.T) {
	a := MustAction("A", []*MethodMetadata{
		InstanceMethod("c"), InstanceMethod("a"), StaticMethod("b"),
	})
	var names []string
	for _, m := range a.Methods() {
		names = append(names, m.Name())
	}
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Errorf("Methods() = %v", names)
	}
}

func TestParamConstraintsJoined(t *testing.T) {
	p := Param("a", "required", "", "gte=0")
	if p.Constraints != "required,gte=0" {
		t.Errorf("Constraints = %q", p.Constraints)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    ParameterKind
		wantErr bool
	}{
		{"", Wire, false},
		{"wire", Wire, false},
		{"Transport", TransportContext, false},
		{" call ", CallContext, false},
		{"http", Wire, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if s := ParameterKind(7).String(); s != "ParameterKind(7)" {
		t.Errorf("String() = %q", s)
	}
	if _, err := ParameterKind(7).MarshalText(); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("MarshalText err = %v", err)
	}
}
