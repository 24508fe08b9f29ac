// Package changeset records pending mutations to the collection attributes
// of a managed record.
//
// A ChangeSet is created when application code mutates a tracked attribute,
// rendered once per flush and then discarded. Its transcoded payload is
// computed on first use and memoized for the lifetime of the ChangeSet.
package changeset

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/unkn0wn-root/cqlmap/schema"
	"github.com/unkn0wn-root/cqlmap/transcode"
)

// Payload shapes. A ChangeSet payload is exactly one of List, Set, Map,
// Indexed, or nil for ClearCollection.
type (
	List []any
	Set  []any
	Map  []Entry
)

// Entry is one key/value pair of a Map payload. Order is preserved.
type Entry struct {
	Key   any
	Value any
}

// Indexed addresses one list position.
type Indexed struct {
	Index int
	Value any
}

// ErrShape is wrapped by every ShapeError.
var ErrShape = errors.New("changeset: payload shape mismatch")

// ShapeError reports a payload that does not fit its kind or attribute.
// It is a programming error and is never retried.
type ShapeError struct {
	Attribute string
	Kind      Kind
	Reason    string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("changeset: %s on %q: %s", e.Kind, e.Attribute, e.Reason)
}

func (e *ShapeError) Unwrap() error { return ErrShape }

// ChangeSet is one pending mutation of one attribute.
type ChangeSet struct {
	attr    *schema.Attribute
	kind    Kind
	payload any

	once    sync.Once
	encoded any
	encErr  error
}

// New validates payload against kind and attr and returns the ChangeSet.
// []any is accepted wherever List or Set is expected.
func New(attr *schema.Attribute, kind Kind, payload any) (*ChangeSet, error) {
	if attr == nil {
		return nil, &ShapeError{Kind: kind, Reason: "nil attribute"}
	}
	shapeErr := func(format string, args ...any) error {
		return &ShapeError{Attribute: attr.Name, Kind: kind, Reason: fmt.Sprintf(format, args...)}
	}
	if !kind.valid() {
		return nil, shapeErr("unknown kind")
	}
	if target := kind.Target(); target != 0 && attr.Kind != target {
		return nil, shapeErr("attribute is a %s, kind needs a %s", attr.Kind, target)
	}
	if kind == ClearCollection && !attr.Kind.IsCollection() {
		return nil, shapeErr("attribute is a %s, not a collection", attr.Kind)
	}

	cs := &ChangeSet{attr: attr, kind: kind}
	switch kind {
	case AssignList, AppendToList, PrependToList, RemoveFromList:
		l, ok := asList(payload)
		if !ok {
			return nil, shapeErr("want a sequence, got %T", payload)
		}
		cs.payload = l
	case AssignSet, AddToSet, RemoveFromSet:
		s, ok := asSet(payload)
		if !ok {
			return nil, shapeErr("want a set, got %T", payload)
		}
		cs.payload = s
	case AssignMap, AddToMap:
		m, ok := payload.(Map)
		if !ok {
			return nil, shapeErr("want a map, got %T", payload)
		}
		cs.payload = m
	case RemoveFromMapKey:
		m, ok := payload.(Map)
		if !ok || len(m) != 1 || m[0].Value != nil {
			return nil, shapeErr("want a single {key: nil} entry, got %v", payload)
		}
		cs.payload = m
	case SetAtIndex, RemoveAtIndex:
		ix, ok := payload.(Indexed)
		if !ok {
			return nil, shapeErr("want an (index, value) pair, got %T", payload)
		}
		if ix.Index < 0 {
			return nil, shapeErr("negative index %d", ix.Index)
		}
		if kind == RemoveAtIndex && ix.Value != nil {
			return nil, shapeErr("value must be nil")
		}
		cs.payload = ix
	case ClearCollection:
		if payload != nil {
			return nil, shapeErr("payload must be nil, got %T", payload)
		}
	}
	return cs, nil
}

func asList(p any) (List, bool) {
	switch v := p.(type) {
	case List:
		return v, true
	case []any:
		return List(v), true
	}
	return nil, false
}

func asSet(p any) (Set, bool) {
	switch v := p.(type) {
	case Set:
		return dedupe(v), true
	case []any:
		return dedupe(Set(v)), true
	}
	return nil, false
}

// dedupe keeps the first occurrence of every element. Elements whose type
// cannot be used as a map key are kept as they are.
func dedupe(s Set) Set {
	if len(s) < 2 {
		return s
	}
	seen := make(map[any]struct{}, len(s))
	out := make(Set, 0, len(s))
	for _, v := range s {
		k, ok := setKey(v)
		if ok {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		out = append(out, v)
	}
	return out
}

type blobKey string

func setKey(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, true
	case []byte:
		return blobKey(x), true
	}
	if hashable(reflect.ValueOf(v)) {
		return v, true
	}
	return nil, false
}

// hashable walks the dynamic value: a comparable struct can still hold a
// slice behind an interface field, and hashing it would panic.
func hashable(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Interface:
		return v.IsNil() || hashable(v.Elem())
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if !hashable(v.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if !hashable(v.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Slice, reflect.Map, reflect.Func:
		return false
	}
	return true
}

func (c *ChangeSet) Attribute() *schema.Attribute { return c.attr }
func (c *ChangeSet) Column() string               { return c.attr.Name }
func (c *ChangeSet) Kind() Kind                   { return c.kind }

// Payload returns the raw, untranscoded payload.
func (c *ChangeSet) Payload() any { return c.payload }

// Encoded returns the payload transcoded to store-native values. The first
// call does the work; later calls return the memoized result (including a
// memoized error) whatever tc they pass.
func (c *ChangeSet) Encoded(tc transcode.Transcoder) (any, error) {
	c.once.Do(func() {
		c.encoded, c.encErr = c.encode(tc)
		c.encErr = transcode.WithAttribute(c.encErr, c.attr.Name)
	})
	return c.encoded, c.encErr
}

func (c *ChangeSet) encode(tc transcode.Transcoder) (any, error) {
	switch p := c.payload.(type) {
	case List:
		if len(p) == 0 {
			return p, nil
		}
		out := make(List, len(p))
		for i, v := range p {
			n, err := tc.Encode(c.attr.Elem, v)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case Set:
		if len(p) == 0 {
			return p, nil
		}
		out := make(Set, len(p))
		for i, v := range p {
			n, err := tc.Encode(c.attr.Elem, v)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return dedupe(out), nil
	case Map:
		if len(p) == 0 {
			return p, nil
		}
		out := make(Map, len(p))
		for i, e := range p {
			k, err := tc.Encode(c.attr.Key, e.Key)
			if err != nil {
				return nil, err
			}
			var v any
			if e.Value != nil {
				if v, err = tc.Encode(c.attr.Value, e.Value); err != nil {
					return nil, err
				}
			}
			out[i] = Entry{Key: k, Value: v}
		}
		return out, nil
	case Indexed:
		if p.Value == nil {
			return p, nil
		}
		v, err := tc.Encode(c.attr.Elem, p.Value)
		if err != nil {
			return nil, err
		}
		return Indexed{Index: p.Index, Value: v}, nil
	}
	return nil, nil
}
