package keycodec

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrIncomparable = errors.New("keycodec: values are not comparable")

// ValidateNoHoles scans a partial component list and returns the index of
// its last non-null entry, or -1 when every entry is null. Once a null has
// been seen every later entry must be null too.
func ValidateNoHoles(values []any) (int, error) {
	last := -1
	for i, v := range values {
		if v == nil {
			continue
		}
		if last != i-1 {
			return -1, fmt.Errorf("%w: index %d follows null at index %d", ErrHole, i, last+1)
		}
		last = i
	}
	return last, nil
}

// ValidateBounds checks that from and to are hole-free and ordered for the
// requested direction. Components are compared index by index up to the
// shorter bound; the first index where they differ decides.
func ValidateBounds(from, to []any, desc bool) error {
	lf, err := ValidateNoHoles(from)
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	lt, err := ValidateNoHoles(to)
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}
	for i := 0; i <= min(lf, lt); i++ {
		c, err := Compare(from[i], to[i])
		if err != nil {
			return fmt.Errorf("component %d: %w", i, err)
		}
		if c == 0 {
			continue
		}
		if (!desc && c > 0) || (desc && c < 0) {
			dir := "ascending"
			if desc {
				dir = "descending"
			}
			return fmt.Errorf("%w: component %d: %v then %v is not %s", ErrBoundOrder, i, from[i], to[i], dir)
		}
		break
	}
	return nil
}

// Compare orders two store-native component values of the same type.
func Compare(a, b any) (int, error) {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y), nil
		}
	case bool:
		if y, ok := b.(bool); ok {
			return cmp.Compare(b2i(x), b2i(y)), nil
		}
	case float32:
		if y, ok := b.(float32); ok {
			return cmp.Compare(x, y), nil
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y), nil
		}
	case []byte:
		if y, ok := b.([]byte); ok {
			return bytes.Compare(x, y), nil
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	case uuid.UUID:
		if y, ok := b.(uuid.UUID); ok {
			return compareUUID(x, y), nil
		}
	default:
		if x, ok := asInt(a); ok {
			if y, ok := asInt(b); ok {
				return cmp.Compare(x, y), nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %T and %T", ErrIncomparable, a, b)
}

// compareUUID orders version 1 UUIDs by their timestamp first, as the store
// does for timeuuid columns, and falls back to byte order.
func compareUUID(a, b uuid.UUID) int {
	if a.Version() == 1 && b.Version() == 1 {
		if c := cmp.Compare(a.Time(), b.Time()); c != 0 {
			return c
		}
	}
	return bytes.Compare(a[:], b[:])
}

func asInt(v any) (int64, bool) {
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
	}
	return 0, false
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
