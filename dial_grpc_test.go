//go:build grpc

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package direct

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/luxfi/direct/router"
)

func TestFromGRPCError(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name   string
		err    error
		target error
		code   ErrorCode
	}{
		{"not found", status.Error(codes.NotFound, "app_Groups"), router.ErrActionNotFound, CodeActionNotFound},
		{"unimplemented", status.Error(codes.Unimplemented, "app_Users.delete"), router.ErrMethodNotFound, CodeMethodNotFound},
		{"internal", status.Error(codes.Internal, "boom"), nil, CodeInternal},
		{"not a status", plain, plain, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fromGRPCError(tt.err)
			if err == nil {
				t.Fatal("fromGRPCError returned nil")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("got %v, want %v", err, tt.target)
			}
			if tt.code == "" {
				return
			}
			var wire *Error
			if !errors.As(err, &wire) || wire.Code != tt.code {
				t.Errorf("got %v, want code %s", err, tt.code)
			}
		})
	}

	if err := fromGRPCError(nil); err != nil {
		t.Errorf("fromGRPCError(nil) = %v", err)
	}
}

func TestGRPCCodec(t *testing.T) {
	c := grpcCodec{codecOrDefault(nil)}
	if c.Name() != "direct" {
		t.Errorf("Name() = %q", c.Name())
	}

	data, err := c.Marshal([]any{1.0, "a"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got []any
	if err := c.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got) != 2 || got[0] != 1.0 || got[1] != "a" {
		t.Errorf("round trip = %v", got)
	}
}

func TestGRPCTransport(t *testing.T) {
	if !HasTransport(TransportGRPC) {
		t.Fatal("grpc transport not registered")
	}
	if got := grpcMethod("app_Users", "get"); got != "/app_Users/get" {
		t.Errorf("grpcMethod = %q", got)
	}

	f := newFixture(t)
	if _, err := Listen("127.0.0.1:0", f.dispatcher, WithServerTransport(TransportGRPC)); err == nil {
		t.Error("Listen over grpc succeeded")
	}
}
