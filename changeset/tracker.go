package changeset

import (
	"fmt"
	"sort"

	"github.com/unkn0wn-root/cqlmap/schema"
)

// ScalarChange is a dirty scalar column; the last write before a flush wins.
type ScalarChange struct {
	Attr  *schema.Attribute
	Value any
}

// Tracker accumulates the dirty state of one record between two flushes.
// It is owned by a single record and is not safe for concurrent use.
type Tracker struct {
	changes map[string][]*ChangeSet
	scalars map[string]ScalarChange
	n       int
}

func NewTracker() *Tracker {
	return &Tracker{
		changes: make(map[string][]*ChangeSet),
		scalars: make(map[string]ScalarChange),
	}
}

// Assign builds a ChangeSet from kind and payload and appends it.
func (t *Tracker) Assign(attr *schema.Attribute, kind Kind, payload any) error {
	cs, err := New(attr, kind, payload)
	if err != nil {
		return err
	}
	t.Add(cs)
	return nil
}

// Add appends cs to its attribute's change list. Several changes against the
// same attribute are kept in order and rendered independently.
func (t *Tracker) Add(cs *ChangeSet) {
	t.changes[cs.Column()] = append(t.changes[cs.Column()], cs)
	t.n++
}

// SetScalar marks a scalar column dirty.
func (t *Tracker) SetScalar(attr *schema.Attribute, v any) error {
	if attr == nil || attr.Kind != schema.Scalar {
		return &ShapeError{Attribute: attrName(attr), Reason: "not a scalar attribute"}
	}
	if attr.PrimaryKey {
		return &ShapeError{Attribute: attr.Name, Reason: "primary key columns cannot be updated"}
	}
	if _, ok := t.scalars[attr.Name]; !ok {
		t.n++
	}
	t.scalars[attr.Name] = ScalarChange{Attr: attr, Value: v}
	return nil
}

func attrName(a *schema.Attribute) string {
	if a == nil {
		return ""
	}
	return a.Name
}

func (t *Tracker) AssignList(attr *schema.Attribute, elems ...any) error {
	return t.Assign(attr, AssignList, List(elems))
}

func (t *Tracker) AssignSet(attr *schema.Attribute, elems ...any) error {
	return t.Assign(attr, AssignSet, Set(elems))
}

func (t *Tracker) AssignMap(attr *schema.Attribute, m Map) error {
	return t.Assign(attr, AssignMap, m)
}

func (t *Tracker) Clear(attr *schema.Attribute) error {
	return t.Assign(attr, ClearCollection, nil)
}

func (t *Tracker) AddToSet(attr *schema.Attribute, elems ...any) error {
	return t.Assign(attr, AddToSet, Set(elems))
}

func (t *Tracker) RemoveFromSet(attr *schema.Attribute, elems ...any) error {
	return t.Assign(attr, RemoveFromSet, Set(elems))
}

func (t *Tracker) AppendToList(attr *schema.Attribute, elems ...any) error {
	return t.Assign(attr, AppendToList, List(elems))
}

func (t *Tracker) PrependToList(attr *schema.Attribute, elems ...any) error {
	return t.Assign(attr, PrependToList, List(elems))
}

func (t *Tracker) RemoveFromList(attr *schema.Attribute, elems ...any) error {
	return t.Assign(attr, RemoveFromList, List(elems))
}

func (t *Tracker) SetAtIndex(attr *schema.Attribute, index int, v any) error {
	return t.Assign(attr, SetAtIndex, Indexed{Index: index, Value: v})
}

func (t *Tracker) RemoveAtIndex(attr *schema.Attribute, index int) error {
	return t.Assign(attr, RemoveAtIndex, Indexed{Index: index})
}

func (t *Tracker) AddToMap(attr *schema.Attribute, m Map) error {
	return t.Assign(attr, AddToMap, m)
}

func (t *Tracker) RemoveFromMapKey(attr *schema.Attribute, key any) error {
	return t.Assign(attr, RemoveFromMapKey, Map{{Key: key}})
}

// Changes returns every collection change ordered by attribute name, then
// by insertion order within the attribute. The order is stable so that two
// trackers with the same mutation shape render the same statement text.
func (t *Tracker) Changes() []*ChangeSet {
	names := make([]string, 0, len(t.changes))
	for name := range t.changes {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*ChangeSet, 0, t.n)
	for _, name := range names {
		out = append(out, t.changes[name]...)
	}
	return out
}

// For returns the changes recorded against one attribute.
func (t *Tracker) For(name string) []*ChangeSet { return t.changes[name] }

// Scalars returns the dirty scalar columns ordered by name.
func (t *Tracker) Scalars() []ScalarChange {
	out := make([]ScalarChange, 0, len(t.scalars))
	for _, sc := range t.scalars {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Attr.Name < out[j].Attr.Name })
	return out
}

// Attributes returns the sorted names of every dirty attribute.
func (t *Tracker) Attributes() []string {
	out := make([]string, 0, len(t.changes)+len(t.scalars))
	for name := range t.changes {
		out = append(out, name)
	}
	for name := range t.scalars {
		if _, dup := t.changes[name]; !dup {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Len is the number of pending changes (collection changes plus dirty scalars).
func (t *Tracker) Len() int { return t.n }

// Reset forgets everything; called once a flush completes.
func (t *Tracker) Reset() {
	clear(t.changes)
	clear(t.scalars)
	t.n = 0
}

func (t *Tracker) String() string {
	return fmt.Sprintf("Tracker{changes=%d attrs=%v}", t.n, t.Attributes())
}
