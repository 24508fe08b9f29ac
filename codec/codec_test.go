package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type address struct {
	Street string `json:"street" msgpack:"street" cbor:"street"`
	Zip    int    `json:"zip" msgpack:"zip" cbor:"zip"`
}

func structCodecs() map[string]Codec[address] {
	return map[string]Codec[address]{
		"json":    JSON[address]{},
		"msgpack": Msgpack[address]{},
		"cbor":    MustCBOR[address](true),
	}
}

func TestStructCodecs(t *testing.T) {
	in := address{Street: "Main", Zip: 1234}
	for name, c := range structCodecs() {
		t.Run(name, func(t *testing.T) {
			b, err := c.Encode(in)
			require.NoError(t, err)
			out, err := c.Decode(b)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestNullCellDecodesToZero(t *testing.T) {
	for name, c := range structCodecs() {
		t.Run(name, func(t *testing.T) {
			out, err := c.Decode(nil)
			require.NoError(t, err)
			assert.Zero(t, out)
		})
	}
	msg, err := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }).Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, msg.GetValue())

	b, err := Bytes{}.Decode([]byte{})
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestDecodeErrorNamesCodec(t *testing.T) {
	for name, c := range structCodecs() {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decode([]byte{0xff, 0x00, 0x13})
			var ce *Error
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, name, ce.Codec)
			assert.Equal(t, "decode", ce.Op)
		})
	}
}

func TestDeterministicMaps(t *testing.T) {
	a := map[string]int{"b": 2, "a": 1, "c": 3, "d": 4, "e": 5}
	b := map[string]int{"e": 5, "c": 3, "a": 1, "d": 4, "b": 2}
	codecs := map[string]Codec[map[string]int]{
		"json":    JSON[map[string]int]{},
		"msgpack": Msgpack[map[string]int]{},
		"cbor":    MustCBOR[map[string]int](true),
	}
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 10; i++ {
				x, err := c.Encode(a)
				require.NoError(t, err)
				y, err := c.Encode(b)
				require.NoError(t, err)
				require.Equal(t, x, y)
			}
		})
	}
}

func TestProtobuf(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	b, err := c.Encode(wrapperspb.String("hello"))
	require.NoError(t, err)
	out, err := c.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "hello", out.GetValue())

	s := NewProtobuf(func() *structpb.Struct { return &structpb.Struct{} })
	m1, err := structpb.NewStruct(map[string]any{"x": 1, "y": "a", "z": true})
	require.NoError(t, err)
	m2, err := structpb.NewStruct(map[string]any{"z": true, "y": "a", "x": 1})
	require.NoError(t, err)
	b1, err := s.Encode(m1)
	require.NoError(t, err)
	b2, err := s.Encode(m2)
	require.NoError(t, err)
	assert.Equal(t, b1, b2, "map fields encode in key order")
}

func TestBytesDecodeCopies(t *testing.T) {
	cell := []byte("abc")
	out, err := Bytes{}.Decode(cell)
	require.NoError(t, err)
	cell[0] = 'z'
	assert.Equal(t, []byte("abc"), out)
}

func TestStringRejectsInvalidUTF8(t *testing.T) {
	_, err := String{}.Encode("ok")
	require.NoError(t, err)
	_, err = String{}.Encode(string([]byte{0xff, 0xfe}))
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "string", ce.Codec)
}

func TestLimit(t *testing.T) {
	c := Limit[string]{Inner: String{}, Max: 4}
	_, err := c.Encode("abcd")
	require.NoError(t, err, "a blob at the limit is accepted")
	_, err = c.Encode("abcde")
	assert.ErrorIs(t, err, ErrTooLarge)
	_, err = c.Decode([]byte("abcde"))
	assert.ErrorIs(t, err, ErrTooLarge)

	unlimited := Limit[[]byte]{Inner: Bytes{}}
	_, err = unlimited.Decode(make([]byte, 1<<16))
	assert.NoError(t, err, "Max=0 disables the check")
}
