// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package direct

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/luxfi/direct/router"
)

var (
	ErrZAPClosed       = errors.New("zap: connection closed")
	ErrZAPFrameTooLong = errors.New("zap: frame too long")
)

const (
	maxFrameSize    = 64 * 1024 * 1024
	maxMethodLen    = 1<<16 - 1
	zapWriteTimeout = 30 * time.Second
)

// MessageType identifies ZAP message types
type MessageType uint8

const (
	MsgRequest  MessageType = 0x01
	MsgResponse MessageType = 0x02
	MsgError    MessageType = 0x03
	MsgNotify   MessageType = 0x04
)

// ZAPCall describes the ZAP frame carrying a call. Handlers declaring a
// transport context parameter receive it.
type ZAPCall struct {
	RemoteAddr string
	Method     string
	RequestID  uint32
	Notify     bool
}

// Frame layout, after a 4-byte big-endian length:
//
//	request:  [1 type][4 reqID][2 methodLen][method][payload]
//	notify:   [1 type][2 methodLen][method][payload]
//	response: [1 type][4 reqID][payload]
//
// Error responses carry a JSON-encoded *Error as payload.

func readFrame(r io.Reader, header []byte) ([]byte, error) {
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header)
	if n == 0 || n > maxFrameSize {
		return nil, ErrZAPFrameTooLong
	}
	msg := make([]byte, n)
	if _, err := io.ReadFull(r, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func appendCallFrame(msgType MessageType, requestID uint32, method string, payload []byte) []byte {
	n := 1 + 2 + len(method) + len(payload)
	if msgType == MsgRequest {
		n += 4
	}
	buf := make([]byte, 0, 4+n)
	buf = binary.BigEndian.AppendUint32(buf, uint32(n))
	buf = append(buf, byte(msgType))
	if msgType == MsgRequest {
		buf = binary.BigEndian.AppendUint32(buf, requestID)
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(method)))
	buf = append(buf, method...)
	return append(buf, payload...)
}

func appendResponseFrame(msgType MessageType, requestID uint32, payload []byte) []byte {
	n := 1 + 4 + len(payload)
	buf := make([]byte, 0, 4+n)
	buf = binary.BigEndian.AppendUint32(buf, uint32(n))
	buf = append(buf, byte(msgType))
	buf = binary.BigEndian.AppendUint32(buf, requestID)
	return append(buf, payload...)
}

// ZAPConn is a client connection multiplexing calls by request id.
type ZAPConn struct {
	conn     net.Conn
	writeMu  sync.Mutex
	pending  sync.Map // requestID -> chan zapResponse
	nextID   atomic.Uint32
	closed   atomic.Bool
	readDone chan struct{}
}

type zapResponse struct {
	data []byte
	err  error
}

// ZAPDial connects to a ZAP server
func ZAPDial(ctx context.Context, addr string) (*ZAPConn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("zap dial: %w", err)
	}

	zc := &ZAPConn{
		conn:     conn,
		readDone: make(chan struct{}),
	}
	go zc.readLoop()
	return zc, nil
}

// Call sends a request frame and waits for its response. A MsgError
// response is returned as *Error.
func (z *ZAPConn) Call(ctx context.Context, method string, payload []byte) ([]byte, error) {
	if z.closed.Load() {
		return nil, ErrZAPClosed
	}
	if len(method) > maxMethodLen {
		return nil, fmt.Errorf("zap: method name too long (%d bytes)", len(method))
	}

	requestID := z.nextID.Add(1)
	respCh := make(chan zapResponse, 1)
	z.pending.Store(requestID, respCh)
	defer z.pending.Delete(requestID)

	if err := z.write(appendCallFrame(MsgRequest, requestID, method, payload)); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-respCh:
		return resp.data, resp.err
	case <-z.readDone:
		return nil, ErrZAPClosed
	}
}

// Notify sends a one-way notification (no response expected)
func (z *ZAPConn) Notify(ctx context.Context, method string, payload []byte) error {
	if z.closed.Load() {
		return ErrZAPClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(method) > maxMethodLen {
		return fmt.Errorf("zap: method name too long (%d bytes)", len(method))
	}
	return z.write(appendCallFrame(MsgNotify, 0, method, payload))
}

func (z *ZAPConn) write(frame []byte) error {
	z.writeMu.Lock()
	defer z.writeMu.Unlock()
	if _, err := z.conn.Write(frame); err != nil {
		return fmt.Errorf("zap write: %w", err)
	}
	return nil
}

func (z *ZAPConn) readLoop() {
	defer close(z.readDone)

	header := make([]byte, 4)
	for {
		msg, err := readFrame(z.conn, header)
		if err != nil {
			return
		}
		if len(msg) < 5 {
			continue
		}

		msgType := MessageType(msg[0])
		requestID := binary.BigEndian.Uint32(msg[1:5])
		payload := msg[5:]

		ch, ok := z.pending.Load(requestID)
		if !ok {
			continue
		}
		respCh := ch.(chan zapResponse)
		switch msgType {
		case MsgResponse:
			respCh <- zapResponse{data: payload}
		case MsgError:
			respCh <- zapResponse{err: decodeWireError(payload)}
		}
	}
}

// Close closes the connection
func (z *ZAPConn) Close() error {
	if z.closed.Swap(true) {
		return nil
	}
	return z.conn.Close()
}

func decodeWireError(payload []byte) *Error {
	var e Error
	if err := json.Unmarshal(payload, &e); err != nil || e.Code == "" {
		return NewError(CodeInternal, string(payload))
	}
	return &e
}

// ZAPHandler handles ZAP calls
type ZAPHandler interface {
	HandleZAP(ctx context.Context, call *ZAPCall, payload []byte) ([]byte, error)
}

// ZAPHandlerFunc is a function adapter for ZAPHandler
type ZAPHandlerFunc func(ctx context.Context, call *ZAPCall, payload []byte) ([]byte, error)

func (f ZAPHandlerFunc) HandleZAP(ctx context.Context, call *ZAPCall, payload []byte) ([]byte, error) {
	return f(ctx, call, payload)
}

// ZAPServer reads frames from accepted connections and answers them with
// its handler. Each call runs in its own goroutine.
type ZAPServer struct {
	listener net.Listener
	handler  ZAPHandler
	logger   *slog.Logger
	conns    sync.Map
	closed   atomic.Bool
}

// NewZAPServer creates a new ZAP server. A nil logger uses slog.Default().
func NewZAPServer(listener net.Listener, handler ZAPHandler, logger *slog.Logger) *ZAPServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ZAPServer{
		listener: listener,
		handler:  handler,
		logger:   logger,
	}
}

// Serve accepts connections until ctx is canceled or Close is called.
func (s *ZAPServer) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("zap accept: %w", err)
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *ZAPServer) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	s.conns.Store(conn, struct{}{})
	defer s.conns.Delete(conn)

	var writeMu sync.Mutex
	remote := conn.RemoteAddr().String()
	header := make([]byte, 4)
	for {
		msg, err := readFrame(conn, header)
		if err != nil {
			if !errors.Is(err, io.EOF) && !s.closed.Load() {
				s.logger.Debug("zap connection closed",
					slog.String("remote", remote),
					slog.Any("error", err))
			}
			return
		}

		call, payload, ok := parseCallFrame(msg)
		if !ok {
			continue
		}
		call.RemoteAddr = remote

		if call.Notify {
			go s.handler.HandleZAP(ctx, call, payload)
			continue
		}
		go func() {
			data, err := s.handler.HandleZAP(ctx, call, payload)
			writeMu.Lock()
			defer writeMu.Unlock()
			s.sendResponse(conn, call.RequestID, data, err)
		}()
	}
}

func parseCallFrame(msg []byte) (*ZAPCall, []byte, bool) {
	if len(msg) < 1 {
		return nil, nil, false
	}
	switch MessageType(msg[0]) {
	case MsgRequest:
		if len(msg) < 7 {
			return nil, nil, false
		}
		requestID := binary.BigEndian.Uint32(msg[1:5])
		methodLen := int(binary.BigEndian.Uint16(msg[5:7]))
		if len(msg) < 7+methodLen {
			return nil, nil, false
		}
		return &ZAPCall{Method: string(msg[7 : 7+methodLen]), RequestID: requestID}, msg[7+methodLen:], true
	case MsgNotify:
		if len(msg) < 3 {
			return nil, nil, false
		}
		methodLen := int(binary.BigEndian.Uint16(msg[1:3]))
		if len(msg) < 3+methodLen {
			return nil, nil, false
		}
		return &ZAPCall{Method: string(msg[3 : 3+methodLen]), Notify: true}, msg[3+methodLen:], true
	}
	return nil, nil, false
}

func (s *ZAPServer) sendResponse(conn net.Conn, requestID uint32, data []byte, err error) {
	msgType, payload := MsgResponse, data
	if err != nil {
		msgType = MsgError
		payload, err = json.Marshal(ToError(err))
		if err != nil {
			payload = []byte(err.Error())
		}
	}

	conn.SetWriteDeadline(time.Now().Add(zapWriteTimeout))
	if _, err := conn.Write(appendResponseFrame(msgType, requestID, payload)); err != nil {
		s.logger.Debug("zap write failed",
			slog.Uint64("request", uint64(requestID)),
			slog.Any("error", err))
	}
}

// Close closes the server and every open connection.
func (s *ZAPServer) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.conns.Range(func(key, _ any) bool {
		key.(net.Conn).Close()
		return true
	})
	return s.listener.Close()
}

// Addr returns the listener address
func (s *ZAPServer) Addr() net.Addr {
	return s.listener.Addr()
}

// dialZAP creates a ZAP client
func dialZAP(ctx context.Context, addr string, o *dialOptions) (Client, error) {
	conn, err := ZAPDial(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &zapClient{
		conn:  conn,
		codec: codecOrDefault(o.codec),
	}, nil
}

// zapClient implements Client using ZAP transport
type zapClient struct {
	conn  *ZAPConn
	codec Codec
}

func (c *zapClient) Call(ctx context.Context, action, method string, data []any, reply any) error {
	payload, err := c.encode(data)
	if err != nil {
		return err
	}

	resp, err := c.conn.Call(ctx, MethodName(action, method), payload)
	if err != nil {
		return err
	}

	if reply != nil && len(resp) > 0 {
		if err := c.codec.Decode(resp, reply); err != nil {
			return fmt.Errorf("decode reply: %w", err)
		}
	}
	return nil
}

func (c *zapClient) Notify(ctx context.Context, action, method string, data []any) error {
	payload, err := c.encode(data)
	if err != nil {
		return err
	}
	return c.conn.Notify(ctx, MethodName(action, method), payload)
}

func (c *zapClient) encode(data []any) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	payload, err := c.codec.Encode(data)
	if err != nil {
		return nil, fmt.Errorf("encode data: %w", err)
	}
	return payload, nil
}

func (c *zapClient) Close() error {
	return c.conn.Close()
}

// listenZAP creates a ZAP server
func listenZAP(addr string, d *Dispatcher, o *serverOptions) (Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &zapServer{
		dispatcher: d,
		codec:      codecOrDefault(o.codec),
		limiter:    newHostLimiter(o.rps, o.burst),
	}
	s.server = NewZAPServer(listener, ZAPHandlerFunc(s.handle), o.logger)
	return s, nil
}

// zapServer implements Server using ZAP transport
type zapServer struct {
	server     *ZAPServer
	dispatcher *Dispatcher
	codec      Codec
	limiter    *hostLimiter
}

func (s *zapServer) handle(ctx context.Context, call *ZAPCall, payload []byte) ([]byte, error) {
	if !s.limiter.allow(call.RemoteAddr, time.Now()) {
		return nil, ErrRateLimited
	}
	data, err := decodeData(s.codec, payload)
	if err != nil {
		return nil, err
	}

	action, method := SplitMethod(call.Method)
	req := &router.Request{
		TID:    int(call.RequestID),
		Action: action,
		Method: method,
		Data:   data,
	}
	result, err := s.dispatcher.Dispatch(ctx, req, call)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return s.codec.Encode(result)
}

func (s *zapServer) Serve(ctx context.Context) error {
	return s.server.Serve(ctx)
}

func (s *zapServer) Close() error {
	return s.server.Close()
}

func (s *zapServer) Addr() string {
	return s.server.Addr().String()
}
