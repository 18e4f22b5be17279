// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package direct

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/luxfi/direct/metadata"
	"github.com/luxfi/direct/naming"
	"github.com/luxfi/direct/router"
	"github.com/luxfi/direct/service"
	"github.com/luxfi/direct/validation"
)

const usersClass = "app.Users"

type users struct {
	names map[int]string
}

var errNoSuchUser = errors.New("no such user")

func (u *users) get(id float64) (string, error) {
	if id == 3 {
		return "", Errorf(CodeInvalidArgument, "user %d is archived", int(id))
	}
	name, ok := u.names[int(id)]
	if !ok {
		return "", errNoSuchUser
	}
	return name, nil
}

type fixture struct {
	registry   *metadata.Registry
	table      *MethodTable
	resolver   *router.Resolver
	dispatcher *Dispatcher
	users      *users
}

func newFixture(t testing.TB, opts ...DispatcherOption) *fixture {
	t.Helper()

	reg, err := metadata.NewRegistry(metadata.MustAction(usersClass, []*metadata.MethodMetadata{
		metadata.InstanceMethod("get", metadata.Param("id", "required", "gte=1")),
		metadata.StaticMethod("count"),
		metadata.InstanceMethod("echo", metadata.Param("a"), metadata.CallParam("call"), metadata.Param("b")),
		metadata.InstanceMethod("whoami", metadata.TransportParam("transport")),
		metadata.InstanceMethod("explode"),
		metadata.InstanceMethod("unbound"),
	}))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	reg.Freeze()

	u := &users{names: map[int]string{1: "alice", 2: "bob"}}
	c := service.NewContainer()
	if err := c.RegisterInstance(usersClass, u); err != nil {
		t.Fatal(err)
	}

	table := &MethodTable{}
	table.Bind(usersClass, "get", func(_ context.Context, h any, args []any) (any, error) {
		return h.(*users).get(args[0].(float64))
	})
	table.Bind(usersClass, "count", func(_ context.Context, h any, _ []any) (any, error) {
		if h != usersClass {
			return nil, errors.New("static handler is not the class name")
		}
		return len(u.names), nil
	})
	table.Bind(usersClass, "echo", func(_ context.Context, _ any, args []any) (any, error) {
		call := args[1].(*router.Request)
		return []any{args[0], args[2], call.String()}, nil
	})
	table.Bind(usersClass, "whoami", func(_ context.Context, _ any, args []any) (any, error) {
		switch tr := args[0].(type) {
		case *ZAPCall:
			return "zap " + tr.Method, nil
		case *http.Request:
			return "http " + tr.Header.Get("X-Caller"), nil
		default:
			return "unknown", nil
		}
	})
	table.Bind(usersClass, "explode", func(context.Context, any, []any) (any, error) {
		panic("boom")
	})

	v, err := validation.New()
	if err != nil {
		t.Fatal(err)
	}
	if err := v.CheckRegistry(reg); err != nil {
		t.Fatalf("CheckRegistry: %v", err)
	}
	resolver := router.New(reg, naming.Default{}, service.NewContainerFactory(c))
	opts = append([]DispatcherOption{WithValidator(v)}, opts...)

	return &fixture{
		registry:   reg,
		table:      table,
		resolver:   resolver,
		dispatcher: NewDispatcher(resolver, table, opts...),
		users:      u,
	}
}
