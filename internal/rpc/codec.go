// Package rpc defines the billsplit.v1 Connect services: message types,
// procedure names, handler and client constructors.
//
// Messages are plain Go structs carried as JSON. Every handler and client
// built here installs the JSON codec; protobuf encodings are not served.
package rpc

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

const (
	codecNameJSON            = "json"
	codecNameJSONCharsetUTF8 = "json; charset=utf-8"
)

// jsonCodec marshals messages with encoding/json.
type jsonCodec struct {
	name string
}

var _ connect.Codec = jsonCodec{}

func (c jsonCodec) Name() string { return c.name }

func (c jsonCodec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", msg, err)
	}
	return data, nil
}

func (c jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("failed to unmarshal into %T: %w", msg, err)
	}
	return nil
}

// WithJSON installs the JSON codec. Clients send application/json;
// handlers accept it with or without a charset parameter.
func WithJSON() connect.Option {
	return connect.WithOptions(
		connect.WithCodec(jsonCodec{name: codecNameJSONCharsetUTF8}),
		connect.WithCodec(jsonCodec{name: codecNameJSON}),
	)
}
