package codec

import "google.golang.org/protobuf/proto"

var protoDeterministic = proto.MarshalOptions{Deterministic: true}

// Protobuf stores proto messages in their binary wire form, with map
// fields in key order. An empty cell decodes to an empty message.
type Protobuf[T proto.Message] struct {
	new func() T // e.g. func() *mypb.Address { return &mypb.Address{} }
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	b, err := protoDeterministic.Marshal(v)
	return b, wrap("protobuf", "encode", err)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	return m, wrap("protobuf", "decode", proto.Unmarshal(b, m))
}
