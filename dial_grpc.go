//go:build grpc

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package direct

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/luxfi/direct/router"
)

func init() {
	// dial-only: calls reach a gRPC gateway in front of a Dispatcher
	registerTransport(TransportGRPC, dialGRPC, nil)
}

// grpcCodec carries call data through gRPC with a direct Codec instead
// of protobuf.
type grpcCodec struct {
	codec Codec
}

func (c grpcCodec) Marshal(v any) ([]byte, error)      { return c.codec.Encode(v) }
func (c grpcCodec) Unmarshal(data []byte, v any) error { return c.codec.Decode(data, v) }
func (grpcCodec) Name() string                         { return "direct" }

func dialGRPC(ctx context.Context, addr string, o *dialOptions) (Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(grpcCodec{codecOrDefault(o.codec)})),
	)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &grpcClient{conn: conn}, nil
}

type grpcClient struct {
	conn *grpc.ClientConn
}

// grpcMethod maps action.method to the gRPC full method "/action/method".
func grpcMethod(action, method string) string {
	return "/" + action + "/" + method
}

func (c *grpcClient) Call(ctx context.Context, action, method string, data []any, reply any) error {
	if data == nil {
		data = []any{}
	}
	if reply == nil {
		var discard any
		reply = &discard
	}
	return fromGRPCError(c.conn.Invoke(ctx, grpcMethod(action, method), data, reply))
}

func (c *grpcClient) Notify(ctx context.Context, action, method string, data []any) error {
	return c.Call(ctx, action, method, data, nil)
}

func (c *grpcClient) Close() error {
	return c.conn.Close()
}

// fromGRPCError turns a status error back into an *Error so callers can
// match router sentinels with errors.Is.
func fromGRPCError(err error) error {
	if err == nil {
		return nil
	}
	s, ok := status.FromError(err)
	if !ok {
		return err
	}
	mapped := router.FromStatus(s)
	if mapped == nil {
		return nil
	}
	return ToError(mapped)
}
