// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import "fmt"

// Request is a decoded call: which action and method to run and the
// positional data sent with it. It lives for the duration of one call.
type Request struct {
	// TID is the transaction id chosen by the caller. Transports echo it
	// back; resolution ignores it.
	TID int
	// Action is the wire action name, converted to a class name by the
	// naming strategy.
	Action string
	// Method is the method name within the action.
	Method string
	// Data holds positional arguments. It may be shorter than the method's
	// wire parameter list.
	Data []any
}

// NewRequest returns a Request for action.method with the given data.
func NewRequest(action, method string, data ...any) *Request {
	return &Request{Action: action, Method: method, Data: data}
}

func (r *Request) String() string {
	if r == nil {
		return "<nil request>"
	}
	return fmt.Sprintf("%s.%s", r.Action, r.Method)
}
