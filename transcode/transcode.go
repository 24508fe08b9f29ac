// Package transcode converts single attribute values to and from the
// store-native representation handed to the driver.
//
// A Registry is total over the types registered in it: built-in CQL scalar
// types are present from NewRegistry, custom types (JSON text, enums, blobs
// backed by a codec.Codec) are added at setup time. A nil value always
// transcodes to nil (a null cell).
package transcode

import (
	"errors"
	"fmt"
	"sync"

	"github.com/unkn0wn-root/cqlmap/codec"
	"github.com/unkn0wn-root/cqlmap/schema"
)

// Transcoder is the contract consumed by the change-set model and the
// compound key codec.
type Transcoder interface {
	Encode(t schema.Type, v any) (any, error)
	Decode(t schema.Type, native any) (any, error)
}

// Func converts one value. It is used for both directions.
type Func func(v any) (any, error)

// Scalar is a pair of conversion funcs for one schema.Type.
type Scalar struct {
	Encode Func
	Decode Func
}

// Registry maps schema types to scalar converters. Safe for concurrent use;
// registration is expected to happen before first use.
type Registry struct {
	mu      sync.RWMutex
	scalars map[schema.Type]Scalar
}

var _ Transcoder = (*Registry)(nil)

// NewRegistry returns a registry with every built-in CQL scalar type.
func NewRegistry() *Registry {
	r := &Registry{scalars: make(map[schema.Type]Scalar, 16)}
	for t, f := range builtins() {
		r.scalars[t] = Scalar{Encode: f, Decode: f}
	}
	return r
}

// Register adds or replaces the converter for t.
func (r *Registry) Register(t schema.Type, s Scalar) {
	if s.Encode == nil || s.Decode == nil {
		panic(fmt.Sprintf("transcode: incomplete scalar for %q", t))
	}
	r.mu.Lock()
	r.scalars[t] = s
	r.mu.Unlock()
}

// Supports reports whether t has a registered converter.
func (r *Registry) Supports(t schema.Type) bool {
	r.mu.RLock()
	_, ok := r.scalars[t]
	r.mu.RUnlock()
	return ok
}

func (r *Registry) Encode(t schema.Type, v any) (any, error) {
	return r.convert("encode", t, v)
}

func (r *Registry) Decode(t schema.Type, native any) (any, error) {
	return r.convert("decode", t, native)
}

func (r *Registry) convert(op string, t schema.Type, v any) (any, error) {
	r.mu.RLock()
	s, ok := r.scalars[t]
	r.mu.RUnlock()
	if !ok {
		return nil, &Error{Op: op, Type: t, Value: v, Err: ErrUnsupportedType}
	}
	if v == nil {
		return nil, nil
	}
	f := s.Encode
	if op == "decode" {
		f = s.Decode
	}
	out, err := f(v)
	if err != nil {
		return nil, &Error{Op: op, Type: t, Value: v, Err: err}
	}
	return out, nil
}

// RegisterCodec stores values of type V as blobs encoded by c.
func RegisterCodec[V any](r *Registry, t schema.Type, c codec.Codec[V]) {
	r.Register(t, Scalar{
		Encode: func(v any) (any, error) {
			tv, ok := v.(V)
			if !ok {
				return nil, fmt.Errorf("want %T, got %T", *new(V), v)
			}
			return c.Encode(tv)
		},
		Decode: func(native any) (any, error) {
			b, ok := native.([]byte)
			if !ok {
				return nil, fmt.Errorf("blob cell holds %T", native)
			}
			return c.Decode(b)
		},
	})
}

// RegisterJSON stores values of type V as JSON text.
func RegisterJSON[V any](r *Registry, t schema.Type) {
	var j codec.JSON[V]
	r.Register(t, Scalar{
		Encode: func(v any) (any, error) {
			tv, ok := v.(V)
			if !ok {
				return nil, fmt.Errorf("want %T, got %T", *new(V), v)
			}
			b, err := j.Encode(tv)
			if err != nil {
				return nil, err
			}
			return string(b), nil
		},
		Decode: func(native any) (any, error) {
			s, ok := native.(string)
			if !ok {
				return nil, fmt.Errorf("json cell holds %T", native)
			}
			return j.Decode([]byte(s))
		},
	})
}

// RegisterEnum stores values of E as their names.
func RegisterEnum[E comparable](r *Registry, t schema.Type, names map[E]string) {
	byName := make(map[string]E, len(names))
	for e, n := range names {
		byName[n] = e
	}
	r.Register(t, Scalar{
		Encode: func(v any) (any, error) {
			e, ok := v.(E)
			if !ok {
				return nil, fmt.Errorf("want %T, got %T", *new(E), v)
			}
			n, ok := names[e]
			if !ok {
				return nil, fmt.Errorf("no name for enum value %v", e)
			}
			return n, nil
		},
		Decode: func(native any) (any, error) {
			s, ok := native.(string)
			if !ok {
				return nil, fmt.Errorf("enum cell holds %T", native)
			}
			e, ok := byName[s]
			if !ok {
				return nil, fmt.Errorf("unknown enum name %q", s)
			}
			return e, nil
		},
	})
}

// ErrUnsupportedType is wrapped by Error when no converter is registered.
var ErrUnsupportedType = errors.New("transcode: unsupported type")

// Error is a typed transcoding failure. Attribute is filled in by callers
// that know which attribute was being converted.
type Error struct {
	Op        string // "encode" or "decode"
	Attribute string
	Type      schema.Type
	Value     any
	Err       error
}

func (e *Error) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("transcode: %s %q as %s (value %v): %v", e.Op, e.Attribute, e.Type, e.Value, e.Err)
	}
	return fmt.Sprintf("transcode: %s as %s (value %v): %v", e.Op, e.Type, e.Value, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// WithAttribute annotates a transcoding error with the attribute name.
// Non-transcoding errors are returned unchanged.
func WithAttribute(err error, name string) error {
	var te *Error
	if err == nil || !errors.As(err, &te) {
		return err
	}
	if te.Attribute == "" {
		te.Attribute = name
	}
	return err
}
