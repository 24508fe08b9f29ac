package cqlmap

import (
	"fmt"
	"sort"

	"github.com/unkn0wn-root/cqlmap/internal/wire"
)

// Operation names a statement shape.
type Operation string

const (
	OpFindByKey       Operation = "find_by_key"
	OpInsert          Operation = "insert"
	OpDeleteByKey     Operation = "delete_by_key"
	OpDeletePartition Operation = "delete_partition"
	OpUpdate          Operation = "update"
	OpSliceFind       Operation = "slice_find"
	OpSliceDelete     Operation = "slice_delete"
)

// FixedKey identifies one canonical statement of an entity.
type FixedKey struct {
	Entity string
	Op     Operation
}

func (k FixedKey) String() string { return k.Entity + "/" + string(k.Op) }

func (k FixedKey) fingerprint() string {
	w := wire.NewWriter(wire.KindFixed, len(k.Entity)+len(k.Op)+8)
	w.String(k.Entity)
	w.String(string(k.Op))
	return string(w.Bytes())
}

// ConditionShape is one lightweight-transaction condition with its value
// left out.
type ConditionShape struct {
	Column string
	Op     string
}

// OptionShape records which statement options are present, never their
// values. Two requests that differ only in a TTL or a condition value
// share a statement; two that differ in whether a TTL is set do not.
type OptionShape struct {
	Consistency bool
	TTL         bool
	Timestamp   bool
	IfNotExists bool
	IfExists    bool
	Conditions  []ConditionShape
}

// StructuralKey identifies a dynamic statement by its structure.
//
// Attributes is treated as a set. Changes is the ordered list of
// "attribute:kind" entries of a rendered update; two updates that touch the
// same attributes with different mutation kinds produce different text and
// must not share a statement.
type StructuralKey struct {
	Operation  Operation
	Entity     string
	Attributes []string
	Changes    []string
	Options    OptionShape
}

// Fingerprint returns the canonical encoding of k. Equal keys have equal
// fingerprints regardless of attribute order.
func (k StructuralKey) Fingerprint() string {
	attrs := make([]string, len(k.Attributes))
	copy(attrs, k.Attributes)
	sort.Strings(attrs)
	attrs = dedupeSorted(attrs)

	size := len(k.Entity) + len(k.Operation) + 32
	for _, a := range attrs {
		size += len(a) + 4
	}
	for _, c := range k.Changes {
		size += len(c) + 4
	}

	w := wire.NewWriter(wire.KindStructural, size)
	w.String(string(k.Operation))
	w.String(k.Entity)
	w.Strings(attrs)
	w.Strings(k.Changes)

	o := k.Options
	w.Bool(o.Consistency)
	w.Bool(o.TTL)
	w.Bool(o.Timestamp)
	w.Bool(o.IfNotExists)
	w.Bool(o.IfExists)
	w.Len(len(o.Conditions))
	for _, c := range o.Conditions {
		w.String(c.Column)
		w.String(c.Op)
	}
	return string(w.Bytes())
}

// Equal reports whether k and o identify the same statement.
func (k StructuralKey) Equal(o StructuralKey) bool {
	return k.Fingerprint() == o.Fingerprint()
}

func (k StructuralKey) String() string {
	return fmt.Sprintf("%s %s attrs=%v changes=%v opts=%+v", k.Operation, k.Entity, k.Attributes, k.Changes, k.Options)
}

// ParseFingerprint decodes a StructuralKey fingerprint. Attributes come back
// sorted.
func ParseFingerprint(fp string) (StructuralKey, error) {
	r, err := wire.NewReader([]byte(fp))
	if err != nil {
		return StructuralKey{}, err
	}
	if r.Kind() != wire.KindStructural {
		return StructuralKey{}, fmt.Errorf("%w: kind %d", wire.ErrCorrupt, r.Kind())
	}
	var k StructuralKey
	k.Operation = Operation(r.String())
	k.Entity = r.String()
	k.Attributes = r.Strings()
	k.Changes = r.Strings()
	k.Options.Consistency = r.Bool()
	k.Options.TTL = r.Bool()
	k.Options.Timestamp = r.Bool()
	k.Options.IfNotExists = r.Bool()
	k.Options.IfExists = r.Bool()
	n := r.Len()
	for i := 0; i < n && r.OK(); i++ {
		col, op := r.String(), r.String()
		k.Options.Conditions = append(k.Options.Conditions, ConditionShape{Column: col, Op: op})
	}
	if err := r.Err(); err != nil {
		return StructuralKey{}, err
	}
	return k, nil
}

func dedupeSorted(ss []string) []string {
	if len(ss) < 2 {
		return ss
	}
	out := ss[:1]
	for _, s := range ss[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
