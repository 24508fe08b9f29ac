// Package codec serializes Go values into the bytes stored in blob columns.
//
// A codec is plugged into a transcode.Registry under a custom schema.Type so
// that struct-valued attributes (or collection elements) can be persisted as
// blobs without the mapper knowing their layout.
//
// Blob cells have two properties every codec here respects: a null cell
// reads back as an empty blob and decodes to the zero value, and equal
// values encode to equal bytes so a blob can take part in a clustering key.
package codec

import (
	"errors"
	"fmt"
)

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

var (
	ErrTooLarge    = errors.New("codec: blob too large")
	errInvalidUTF8 = errors.New("invalid utf-8")
)

// Error reports a failed encode or decode by a named codec.
type Error struct {
	Codec string
	Op    string // "encode" or "decode"
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("codec: %s %s: %v", e.Codec, e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func wrap(codec, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Codec: codec, Op: op, Err: err}
}

// decode unmarshals a blob cell into a new V. An empty cell is the zero V.
func decode[V any](codec string, b []byte, unmarshal func([]byte, any) error) (V, error) {
	var v V
	if len(b) == 0 {
		return v, nil
	}
	return v, wrap(codec, "decode", unmarshal(b, &v))
}
