// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metadata

import (
	"fmt"
	"strings"
)

// ParameterKind selects where a parameter's value comes from.
type ParameterKind uint8

const (
	// Wire parameters consume the next positional value of the call data.
	Wire ParameterKind = iota
	// TransportContext parameters receive the transport request object
	// (e.g. the *http.Request carrying the call).
	TransportContext
	// CallContext parameters receive the decoded call request itself.
	CallContext
)

var kindNames = [...]string{
	Wire:             "wire",
	TransportContext: "transport",
	CallContext:      "call",
}

// Valid reports whether k is a known kind.
func (k ParameterKind) Valid() bool {
	return int(k) < len(kindNames)
}

func (k ParameterKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("ParameterKind(%d)", k)
	}
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k ParameterKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, k)
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty value means Wire.
func (k *ParameterKind) UnmarshalText(text []byte) error {
	kind, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseKind parses "wire", "transport" or "call" (case-insensitive).
func ParseKind(s string) (ParameterKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wire":
		return Wire, nil
	case "transport":
		return TransportContext, nil
	case "call":
		return CallContext, nil
	default:
		return Wire, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}
