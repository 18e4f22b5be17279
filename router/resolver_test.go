// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/luxfi/direct/metadata"
	"github.com/luxfi/direct/naming"
	"github.com/luxfi/direct/service"
)

type testHandler struct{ id int }

// countingFactory records how often it was asked for an instance.
type countingFactory struct {
	calls    atomic.Int32
	instance any
	err      error
}

func (f *countingFactory) CreateService(*metadata.ActionMetadata) (any, error) {
	f.calls.Add(1)
	return f.instance, f.err
}

func newTestRegistry(t *testing.T) *metadata.Registry {
	t.Helper()
	reg, err := metadata.NewRegistry(
		metadata.MustAction("app.direct.Test", []*metadata.MethodMetadata{
			metadata.InstanceMethod("methodA", metadata.Param("a")),
			metadata.StaticMethod("methodB"),
			metadata.InstanceMethod("withTransport",
				metadata.TransportParam("transport"), metadata.Param("a"), metadata.Param("b")),
			metadata.InstanceMethod("trailing",
				metadata.Param("a"), metadata.Param("b"), metadata.Param("c")),
			metadata.InstanceMethod("mixed",
				metadata.Param("a"), metadata.CallParam("call"), metadata.Param("b"),
				metadata.TransportParam("transport"), metadata.Param("c")),
		}),
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	reg.Freeze()
	return reg
}

func newTestResolver(t *testing.T) (*Resolver, *countingFactory) {
	t.Helper()
	f := &countingFactory{instance: &testHandler{id: 42}}
	return New(newTestRegistry(t), naming.Default{}, f), f
}

func TestGetService_ActionNotFound(t *testing.T) {
	r, f := newTestResolver(t)

	for _, action := range []string{"app_direct_Missing", "", "Test"} {
		req := NewRequest(action, "methodA")

		_, err := r.GetService(req)
		var notFound *ActionNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("GetService(%q): got %v, want ActionNotFoundError", action, err)
		}
		if notFound.Request != req {
			t.Error("error does not carry the request")
		}
		if !errors.Is(err, ErrActionNotFound) {
			t.Error("errors.Is(err, ErrActionNotFound) = false")
		}

		_, err = r.GetArguments(req, nil)
		if !errors.Is(err, ErrActionNotFound) {
			t.Fatalf("GetArguments(%q): got %v, want ErrActionNotFound", action, err)
		}
	}

	if n := f.calls.Load(); n != 0 {
		t.Errorf("factory called %d times for unknown actions", n)
	}
}

func TestGetService_MethodNotFound(t *testing.T) {
	r, f := newTestResolver(t)
	req := NewRequest("app_direct_Test", "methodC")

	_, err := r.GetService(req)
	var notFound *MethodNotFoundError
	if !errors.As(err, &notFound) || notFound.Request != req {
		t.Fatalf("GetService: got %v, want MethodNotFoundError", err)
	}
	if errors.Is(err, ErrActionNotFound) {
		t.Error("method error must not match ErrActionNotFound")
	}

	_, err = r.GetArguments(req, nil)
	if !errors.Is(err, ErrMethodNotFound) {
		t.Fatalf("GetArguments: got %v, want ErrMethodNotFound", err)
	}

	if n := f.calls.Load(); n != 0 {
		t.Errorf("factory called %d times", n)
	}
}

func TestGetService_NilRequest(t *testing.T) {
	r, _ := newTestResolver(t)
	if _, err := r.GetService(nil); !errors.Is(err, ErrActionNotFound) {
		t.Errorf("GetService(nil): %v", err)
	}
	if _, err := r.GetArguments(nil, nil); !errors.Is(err, ErrActionNotFound) {
		t.Errorf("GetArguments(nil): %v", err)
	}
}

func TestGetService_Static(t *testing.T) {
	r, f := newTestResolver(t)

	ref, err := r.GetService(NewRequest("app_direct_Test", "methodB"))
	if err != nil {
		t.Fatalf("GetService: %v", err)
	}
	if ref.Handler() != "app.direct.Test" {
		t.Errorf("Handler() = %v, want class name", ref.Handler())
	}
	if !ref.IsStatic() {
		t.Error("IsStatic() = false")
	}
	if ref.Method().Name() != "methodB" || ref.Action().Name() != "app.direct.Test" {
		t.Errorf("metadata mismatch: %s.%s", ref.Action().Name(), ref.Method().Name())
	}
	if n := f.calls.Load(); n != 0 {
		t.Errorf("factory called %d times for a static method", n)
	}
}

func TestGetService_Instance(t *testing.T) {
	r, f := newTestResolver(t)

	ref, err := r.GetService(NewRequest("app_direct_Test", "methodA", 1))
	if err != nil {
		t.Fatalf("GetService: %v", err)
	}
	if ref.Handler() != f.instance {
		t.Errorf("Handler() = %v, want factory instance", ref.Handler())
	}
	if ref.IsStatic() {
		t.Error("IsStatic() = true")
	}
	if n := f.calls.Load(); n != 1 {
		t.Errorf("factory called %d times, want 1", n)
	}
}

func TestGetService_FactoryFailure(t *testing.T) {
	boom := errors.New("container misconfigured")
	f := &countingFactory{err: boom}
	r := New(newTestRegistry(t), nil, f)

	_, err := r.GetService(NewRequest("app_direct_Test", "methodA"))
	var creation *ServiceCreationError
	if !errors.As(err, &creation) {
		t.Fatalf("got %v, want ServiceCreationError", err)
	}
	if creation.Class != "app.direct.Test" {
		t.Errorf("Class = %q", creation.Class)
	}
	if !errors.Is(err, boom) || !errors.Is(err, ErrServiceCreation) {
		t.Error("error chain lost the cause or sentinel")
	}
	if errors.Is(err, ErrActionNotFound) || errors.Is(err, ErrMethodNotFound) {
		t.Error("creation failure must be distinct from request errors")
	}

	// Argument binding never needs an instance.
	if _, err := r.GetArguments(NewRequest("app_direct_Test", "methodA"), nil); err != nil {
		t.Errorf("GetArguments: %v", err)
	}
}

func TestGetService_NoFactory(t *testing.T) {
	r := New(newTestRegistry(t), nil, nil)
	if _, err := r.GetService(NewRequest("app_direct_Test", "methodA")); !errors.Is(err, ErrServiceCreation) {
		t.Errorf("got %v", err)
	}
	if _, err := r.GetService(NewRequest("app_direct_Test", "methodB")); err != nil {
		t.Errorf("static method without factory: %v", err)
	}
}

func TestGetService_ContainerFactory(t *testing.T) {
	c := service.NewContainer()
	h := &testHandler{id: 7}
	if err := c.RegisterInstance("app.direct.Test", h); err != nil {
		t.Fatal(err)
	}
	r := New(newTestRegistry(t), naming.Default{}, service.NewContainerFactory(c))

	ref, err := r.GetService(NewRequest("app_direct_Test", "methodA"))
	if err != nil {
		t.Fatalf("GetService: %v", err)
	}
	if ref.Handler() != h {
		t.Error("container instance not used")
	}
}

func TestGetArguments_TransportInjection(t *testing.T) {
	r, _ := newTestResolver(t)
	transport := &struct{ name string }{"http"}

	args, err := r.GetArguments(NewRequest("app_direct_Test", "withTransport", 1, 2), transport)
	if err != nil {
		t.Fatalf("GetArguments: %v", err)
	}

	want := map[string]any{"transport": transport, "a": 1, "b": 2}
	if got := args.Map(); !reflect.DeepEqual(got, want) {
		t.Errorf("Map() = %v, want %v", got, want)
	}
	if !args[0].Injected || args[1].Injected {
		t.Error("Injected flags wrong")
	}
	if got := args.Values(); !reflect.DeepEqual(got, []any{transport, 1, 2}) {
		t.Errorf("Values() = %v", got)
	}
}

func TestGetArguments_TrailingAbsent(t *testing.T) {
	r, _ := newTestResolver(t)

	args, err := r.GetArguments(NewRequest("app_direct_Test", "trailing", 1), nil)
	if err != nil {
		t.Fatalf("GetArguments: %v", err)
	}
	if args.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", args.Len())
	}
	if v, ok := args.Get("a"); !ok || v != 1 {
		t.Errorf("a = %v, %v", v, ok)
	}
	for _, name := range []string{"b", "c"} {
		if v, ok := args.Get(name); ok || v != nil {
			t.Errorf("%s = %v, present=%v; want absent", name, v, ok)
		}
	}
}

func TestGetArguments_ExplicitNilIsPresent(t *testing.T) {
	r, _ := newTestResolver(t)

	args, err := r.GetArguments(NewRequest("app_direct_Test", "trailing", nil, 2), nil)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := args.Get("a"); !ok || v != nil {
		t.Errorf("a = %v, present=%v; want nil present", v, ok)
	}
	if v, _ := args.Get("b"); v != 2 {
		t.Errorf("b = %v", v)
	}
}

func TestGetArguments_InterleavedInjection(t *testing.T) {
	r, _ := newTestResolver(t)
	req := NewRequest("app_direct_Test", "mixed", "x", "y", "z", "extra")
	transport := "transport-object"

	args, err := r.GetArguments(req, transport)
	if err != nil {
		t.Fatal(err)
	}

	want := []Argument{
		{Name: "a", Value: "x", Present: true},
		{Name: "call", Value: req, Present: true, Injected: true},
		{Name: "b", Value: "y", Present: true},
		{Name: "transport", Value: transport, Present: true, Injected: true},
		{Name: "c", Value: "z", Present: true},
	}
	if !reflect.DeepEqual([]Argument(args), want) {
		t.Errorf("got %+v\nwant %+v", args, want)
	}
}

func TestGetArguments_Deterministic(t *testing.T) {
	r, f := newTestResolver(t)
	req := NewRequest("app_direct_Test", "mixed", 1, 2)

	first, err := r.GetArguments(req, "t")
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.GetArguments(req, "t")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ:\n%+v\n%+v", first, second)
	}
	if len(req.Data) != 2 {
		t.Error("request data was modified")
	}
	if n := f.calls.Load(); n != 0 {
		t.Errorf("GetArguments called the factory %d times", n)
	}
}

func TestResolve_RegistrationOrderIndependent(t *testing.T) {
	methodA := metadata.InstanceMethod("methodA", metadata.Param("a"))
	methodB := metadata.StaticMethod("methodB", metadata.Param("b"))

	for _, order := range [][]*metadata.MethodMetadata{
		{methodA, methodB},
		{methodB, methodA},
	} {
		reg, err := metadata.NewRegistry(metadata.MustAction("Svc", order))
		if err != nil {
			t.Fatal(err)
		}
		reg.Freeze()

		r := New(reg, naming.Identity{}, &countingFactory{instance: 1})
		ref, err := r.GetService(NewRequest("Svc", "methodB"))
		if err != nil {
			t.Fatalf("GetService: %v", err)
		}
		if ref.Method() != methodB {
			t.Errorf("resolved %q, want methodB's metadata", ref.Method().Name())
		}
	}
}

func TestResolver_Concurrent(t *testing.T) {
	r, _ := newTestResolver(t)

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				req := NewRequest("app_direct_Test", "withTransport", w, i)
				args, err := r.GetArguments(req, w)
				if err != nil {
					t.Errorf("GetArguments: %v", err)
					return
				}
				if v, _ := args.Get("b"); v != i {
					t.Errorf("b = %v, want %d", v, i)
					return
				}
				if _, err := r.GetService(req); err != nil {
					t.Errorf("GetService: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()
}
