package codec

import "unicode/utf8"

// Bytes stores a []byte as is. Decode copies the cell, since drivers may
// reuse their read buffers.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

// String stores a Go string as its raw UTF-8 bytes. Invalid UTF-8 is
// rejected on encode so the cell can later move to a text column.
type String struct{}

func (String) Encode(s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, wrap("string", "encode", errInvalidUTF8)
	}
	return []byte(s), nil
}

func (String) Decode(b []byte) (string, error) { return string(b), nil }
