// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metadata

import "errors"

// Construction errors.
var (
	ErrEmptyName          = errors.New("metadata: empty name")
	ErrNilMethod          = errors.New("metadata: nil method")
	ErrDuplicateMethod    = errors.New("metadata: duplicate method")
	ErrDuplicateParameter = errors.New("metadata: duplicate parameter")
	ErrUnknownKind        = errors.New("metadata: unknown parameter kind")
)

// Registry errors.
var (
	ErrNilAction       = errors.New("metadata: nil action")
	ErrDuplicateAction = errors.New("metadata: duplicate action")
	ErrRegistryFrozen  = errors.New("metadata: registry is frozen")
)

// ErrConfigParse wraps failures to read metadata configuration.
var ErrConfigParse = errors.New("metadata: configuration parse error")
