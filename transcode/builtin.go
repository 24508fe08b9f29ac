package transcode

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/cqlmap/schema"
)

func builtins() map[schema.Type]Func {
	return map[schema.Type]Func{
		schema.Text:      toText,
		schema.Varchar:   toText,
		schema.ASCII:     toASCII,
		schema.Int:       toInt32,
		schema.BigInt:    toInt64,
		schema.Counter:   toInt64,
		schema.SmallInt:  toInt16,
		schema.TinyInt:   toInt8,
		schema.Float:     toFloat32,
		schema.Double:    toFloat64,
		schema.Boolean:   toBool,
		schema.Blob:      toBlob,
		schema.Timestamp: toTimestamp,
		schema.UUID:      toUUID,
		schema.TimeUUID:  toTimeUUID,
	}
}

func toText(v any) (any, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return nil, fmt.Errorf("cannot use %T as text", v)
}

func toASCII(v any) (any, error) {
	s, err := toText(v)
	if err != nil {
		return nil, err
	}
	str := s.(string)
	for i := 0; i < len(str); i++ {
		if str[i] >= 0x80 {
			return nil, fmt.Errorf("non-ascii byte 0x%02x at %d", str[i], i)
		}
	}
	return str, nil
}

// asInt64 widens any Go integer type. ok is false for non-integers and for
// uint64 values that do not fit.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func toIntRange(v any, lo, hi int64, name string) (int64, error) {
	n, ok := asInt64(v)
	if !ok {
		return 0, fmt.Errorf("cannot use %T as %s", v, name)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%d overflows %s", n, name)
	}
	return n, nil
}

func toInt64(v any) (any, error) {
	return toIntRange(v, math.MinInt64, math.MaxInt64, "bigint")
}

func toInt32(v any) (any, error) {
	n, err := toIntRange(v, math.MinInt32, math.MaxInt32, "int")
	return int32(n), err
}

func toInt16(v any) (any, error) {
	n, err := toIntRange(v, math.MinInt16, math.MaxInt16, "smallint")
	return int16(n), err
}

func toInt8(v any) (any, error) {
	n, err := toIntRange(v, math.MinInt8, math.MaxInt8, "tinyint")
	return int8(n), err
}

func toFloat64(v any) (any, error) {
	switch f := v.(type) {
	case float64:
		return f, nil
	case float32:
		return float64(f), nil
	}
	if n, ok := asInt64(v); ok {
		return float64(n), nil
	}
	return nil, fmt.Errorf("cannot use %T as double", v)
}

func toFloat32(v any) (any, error) {
	switch f := v.(type) {
	case float32:
		return f, nil
	case float64:
		if math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
			return nil, fmt.Errorf("%g overflows float", f)
		}
		return float32(f), nil
	}
	return nil, fmt.Errorf("cannot use %T as float", v)
}

func toBool(v any) (any, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("cannot use %T as boolean", v)
	}
	return b, nil
}

func toBlob(v any) (any, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	}
	return nil, fmt.Errorf("cannot use %T as blob", v)
}

// Timestamps have millisecond precision in the store; sub-millisecond parts
// are dropped so that decoded values compare equal to what was written.
func toTimestamp(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Truncate(time.Millisecond), nil
	case int64:
		return time.UnixMilli(t).UTC(), nil
	}
	return nil, fmt.Errorf("cannot use %T as timestamp", v)
}

func toUUID(v any) (any, error) {
	switch u := v.(type) {
	case uuid.UUID:
		return u, nil
	case [16]byte:
		return uuid.UUID(u), nil
	case string:
		return uuid.Parse(u)
	case []byte:
		return uuid.FromBytes(u)
	}
	return nil, fmt.Errorf("cannot use %T as uuid", v)
}

func toTimeUUID(v any) (any, error) {
	out, err := toUUID(v)
	if err != nil {
		return nil, err
	}
	u := out.(uuid.UUID)
	if u.Version() != 1 {
		return nil, fmt.Errorf("uuid %s is version %d, timeuuid needs version 1", u, u.Version())
	}
	return u, nil
}
