package codec

import "encoding/json"

// JSON stores values as UTF-8 JSON bytes. The zero value is ready to use.
// Map keys are written sorted, so encoding is deterministic.
type JSON[V any] struct{}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Encode(v V) ([]byte, error) {
	b, err := json.Marshal(v)
	return b, wrap("json", "encode", err)
}

func (JSON[V]) Decode(b []byte) (V, error) { return decode[V]("json", b, json.Unmarshal) }
