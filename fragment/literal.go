package fragment

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/cqlmap/changeset"
)

// ErrUnsupportedLiteral is returned for values with no CQL literal form.
var ErrUnsupportedLiteral = errors.New("fragment: unsupported literal")

// ErrBindArity is returned when the number of values does not match the
// number of markers.
var ErrBindArity = errors.New("fragment: marker/value count mismatch")

// Literal formats a store-native value as a CQL literal.
func Literal(v any) (string, error) {
	var b strings.Builder
	if err := writeLiteral(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeLiteral(b *strings.Builder, v any) error {
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		quote(b, x)
	case bool:
		b.WriteString(strconv.FormatBool(x))
	case int:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case int8:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case int16:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case int32:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case int64:
		b.WriteString(strconv.FormatInt(x, 10))
	case float32:
		writeFloat(b, float64(x), 32)
	case float64:
		writeFloat(b, x, 64)
	case []byte:
		b.WriteString("0x")
		b.WriteString(hex.EncodeToString(x))
	case time.Time:
		b.WriteString(strconv.FormatInt(x.UnixMilli(), 10))
	case uuid.UUID:
		b.WriteString(x.String())
	case changeset.List:
		return writeSeq(b, '[', ']', x)
	case []any:
		return writeSeq(b, '[', ']', x)
	case changeset.Set:
		return writeSeq(b, '{', '}', x)
	case changeset.Map:
		b.WriteByte('{')
		for i, e := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := writeLiteral(b, e.Key); err != nil {
				return err
			}
			b.WriteString(": ")
			if err := writeLiteral(b, e.Value); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedLiteral, v)
	}
	return nil
}

func writeSeq(b *strings.Builder, open, end byte, elems []any) error {
	b.WriteByte(open)
	for i, e := range elems {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := writeLiteral(b, e); err != nil {
			return err
		}
	}
	b.WriteByte(end)
	return nil
}

func writeFloat(b *strings.Builder, f float64, bits int) {
	switch {
	case math.IsNaN(f):
		b.WriteString("NaN")
	case math.IsInf(f, 1):
		b.WriteString("Infinity")
	case math.IsInf(f, -1):
		b.WriteString("-Infinity")
	default:
		b.WriteString(strconv.FormatFloat(f, 'g', -1, bits))
	}
}

func quote(b *strings.Builder, s string) {
	b.WriteByte('\'')
	b.WriteString(strings.ReplaceAll(s, "'", "''"))
	b.WriteByte('\'')
}

// Bind substitutes values, in order, for the `?` markers of text. Markers
// inside quoted strings are left alone.
func Bind(text string, values []any) (string, error) {
	var (
		b      strings.Builder
		n      int
		quoted bool
	)
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			if n >= len(values) {
				return "", fmt.Errorf("%w: more than %d markers", ErrBindArity, len(values))
			}
			if err := writeLiteral(&b, values[n]); err != nil {
				return "", fmt.Errorf("fragment: marker %d: %w", n, err)
			}
			n++
		default:
			b.WriteByte(c)
		}
	}
	if n != len(values) {
		return "", fmt.Errorf("%w: %d markers, %d values", ErrBindArity, n, len(values))
	}
	return b.String(), nil
}

// Markers counts the `?` markers of text outside quoted strings.
func Markers(text string) int {
	n, quoted := 0, false
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\'':
			quoted = !quoted
		case '?':
			if !quoted {
				n++
			}
		}
	}
	return n
}
