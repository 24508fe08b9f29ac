package transcode

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/cqlmap/codec"
	"github.com/unkn0wn-root/cqlmap/schema"
)

func TestBuiltinEncode(t *testing.T) {
	r := NewRegistry()
	ts := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.FixedZone("x", 3600))
	u := uuid.MustParse("123e4567-e89b-42d3-a456-426614174000")

	tests := []struct {
		name string
		typ  schema.Type
		in   any
		want any
	}{
		{"text", schema.Text, "a", "a"},
		{"varchar stringer", schema.Varchar, u, u.String()},
		{"ascii", schema.ASCII, "abc", "abc"},
		{"int from int", schema.Int, 7, int32(7)},
		{"bigint from int32", schema.BigInt, int32(-3), int64(-3)},
		{"counter", schema.Counter, 5, int64(5)},
		{"smallint", schema.SmallInt, 300, int16(300)},
		{"tinyint", schema.TinyInt, int64(-5), int8(-5)},
		{"double from float32", schema.Double, float32(1.5), float64(1.5)},
		{"double from int", schema.Double, 2, float64(2)},
		{"float", schema.Float, 0.25, float32(0.25)},
		{"boolean", schema.Boolean, true, true},
		{"blob from string", schema.Blob, "ab", []byte("ab")},
		{"timestamp truncates", schema.Timestamp, ts, ts.UTC().Truncate(time.Millisecond)},
		{"timestamp from millis", schema.Timestamp, int64(1000), time.UnixMilli(1000).UTC()},
		{"uuid from string", schema.UUID, u.String(), u},
		{"uuid from array", schema.UUID, [16]byte(u), u},
		{"nil is null", schema.Text, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Encode(tt.typ, tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestBuiltinEncodeErrors(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name string
		typ  schema.Type
		in   any
	}{
		{"int overflow", schema.Int, int64(math.MaxInt32) + 1},
		{"tinyint overflow", schema.TinyInt, 200},
		{"uint64 overflow", schema.BigInt, uint64(math.MaxUint64)},
		{"text from int", schema.Text, 1},
		{"ascii non ascii", schema.ASCII, "héllo"},
		{"bool from string", schema.Boolean, "true"},
		{"float overflow", schema.Float, math.MaxFloat64},
		{"bad uuid", schema.UUID, "not-a-uuid"},
		{"timeuuid v4", schema.TimeUUID, uuid.MustParse("123e4567-e89b-42d3-a456-426614174000")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Encode(tt.typ, tt.in)
			require.Error(t, err)
			var te *Error
			require.True(t, errors.As(err, &te), "want *Error, got %T", err)
			require.Equal(t, tt.typ, te.Type)
			require.Equal(t, "encode", te.Op)
		})
	}
}

func TestTimeUUID(t *testing.T) {
	r := NewRegistry()
	u, err := uuid.NewUUID()
	require.NoError(t, err)
	got, err := r.Encode(schema.TimeUUID, u)
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestUnsupportedType(t *testing.T) {
	r := NewRegistry()
	_, err := r.Encode("varint", 1)
	require.ErrorIs(t, err, ErrUnsupportedType)
	require.False(t, r.Supports("varint"))
	require.True(t, r.Supports(schema.Text))
}

func TestWithAttribute(t *testing.T) {
	r := NewRegistry()
	_, err := r.Encode(schema.Int, "x")
	err = WithAttribute(err, "age")
	var te *Error
	require.ErrorAs(t, err, &te)
	require.Equal(t, "age", te.Attribute)
	require.Contains(t, err.Error(), `"age"`)

	plain := errors.New("boom")
	require.Same(t, plain, WithAttribute(plain, "age"))
	require.NoError(t, WithAttribute(nil, "age"))
}

type address struct {
	Street string `json:"street"`
	Zip    int    `json:"zip"`
}

type color int

const (
	red color = iota + 1
	blue
)

func TestCustomTypes(t *testing.T) {
	r := NewRegistry()
	RegisterJSON[address](r, "json:address")
	RegisterCodec[address](r, "blob:address", codec.Msgpack[address]{})
	RegisterEnum(r, "enum:color", map[color]string{red: "RED", blue: "BLUE"})

	in := address{Street: "Main", Zip: 42}

	native, err := r.Encode("json:address", in)
	require.NoError(t, err)
	require.Equal(t, `{"street":"Main","zip":42}`, native)
	back, err := r.Decode("json:address", native)
	require.NoError(t, err)
	require.Equal(t, in, back)

	native, err = r.Encode("blob:address", in)
	require.NoError(t, err)
	require.IsType(t, []byte(nil), native)
	back, err = r.Decode("blob:address", native)
	require.NoError(t, err)
	require.Equal(t, in, back)

	native, err = r.Encode("enum:color", blue)
	require.NoError(t, err)
	require.Equal(t, "BLUE", native)
	back, err = r.Decode("enum:color", "RED")
	require.NoError(t, err)
	require.Equal(t, red, back)

	_, err = r.Decode("enum:color", "GREEN")
	require.Error(t, err)
	_, err = r.Encode("json:address", "not an address")
	require.Error(t, err)
}

func TestRegisterIncompletePanics(t *testing.T) {
	r := NewRegistry()
	require.Panics(t, func() { r.Register("x", Scalar{Encode: toText}) })
}
