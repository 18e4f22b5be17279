// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package direct

import (
	"encoding/json"
)

// Codec encodes call data and results on byte-oriented transports.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// JSONCodec is a JSON-based codec
type JSONCodec struct{}

func (JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// defaultCodec is used when no codec is specified
var defaultCodec Codec = JSONCodec{}

func codecOrDefault(c Codec) Codec {
	if c == nil {
		return defaultCodec
	}
	return c
}

// decodeData decodes a positional argument array. An empty payload is an
// empty array.
func decodeData(c Codec, payload []byte) ([]any, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var data []any
	if err := c.Decode(payload, &data); err != nil {
		return nil, Errorf(CodeInvalidArgument, "malformed call data: %v", err)
	}
	return data, nil
}
