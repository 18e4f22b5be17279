// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package direct routes remote calls to registered handlers.
//
// A call names an action and a method and carries positional data. The
// router package resolves it: the naming strategy turns the action into a
// handler class, the metadata registry describes the class and its
// methods, and the service factory supplies instances for non-static
// methods. This package runs resolved calls (Dispatcher) and moves them
// over the wire.
//
// # Transport Selection
//
// ZAP is the default transport. JSON-RPC 2.0 over HTTP is always
// available; a gRPC client is added by a build tag:
//
//	go build              # ZAP and JSON-RPC
//	go build -tags grpc   # plus the gRPC client
//
// # Usage
//
// Server usage:
//
//	reg, _ := metadata.NewRegistry(metadata.MustAction("app.Users", []*metadata.MethodMetadata{
//	    metadata.InstanceMethod("get", metadata.TransportParam("call"), metadata.Param("id", "required")),
//	}))
//	reg.Freeze()
//
//	var table direct.MethodTable
//	table.Bind("app.Users", "get", func(ctx context.Context, h any, args []any) (any, error) {
//	    return h.(*Users).Get(ctx, args[1])
//	})
//
//	resolver := router.New(reg, naming.Default{}, service.NewContainerFactory(container))
//	d := direct.NewDispatcher(resolver, &table)
//	server, err := direct.Listen(":9000", d)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	server.Serve(ctx)
//
// Client usage:
//
//	client, err := direct.Dial(ctx, "localhost:9000")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	var user User
//	err = client.Call(ctx, "app_Users", "get", []any{42}, &user)
//	if errors.Is(err, router.ErrActionNotFound) {
//	    // ...
//	}
//
// # Errors
//
// Failures reach clients as *Error with a string code. Error.Is maps the
// codes back to router.ErrActionNotFound, router.ErrMethodNotFound and
// validation.ErrInvalidArguments, so callers test errors the same way on
// both sides of the wire.
package direct
