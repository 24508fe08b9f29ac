// Package fragment renders change-sets into update-column fragments.
//
// In Prepared mode a fragment carries positional `?` markers and the values
// to bind to them, in marker order. In Inline mode the encoded payload is
// written into the fragment as a CQL literal; the returned values mirror what
// was inlined. For every change-set,
//
//	Bind(prepared.Text, preparedValues) == inline.Text
package fragment

import (
	"fmt"

	"github.com/unkn0wn-root/cqlmap/changeset"
	"github.com/unkn0wn-root/cqlmap/schema"
	"github.com/unkn0wn-root/cqlmap/transcode"
)

// Mode selects how values appear in a fragment.
type Mode uint8

const (
	Inline Mode = iota + 1
	Prepared
)

func (m Mode) String() string {
	switch m {
	case Inline:
		return "inline"
	case Prepared:
		return "prepared"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Fragment is one assignment of an UPDATE ... SET clause.
// Markers names each `?` of Text in order (Prepared mode only).
type Fragment struct {
	Column  string
	Text    string
	Markers []string
}

// Render turns cs into a fragment and its bound values.
func Render(cs *changeset.ChangeSet, mode Mode, tc transcode.Transcoder) (Fragment, []any, error) {
	enc, err := cs.Encoded(tc)
	if err != nil {
		return Fragment{}, nil, err
	}
	r := renderer{col: cs.Column(), mode: mode}

	switch cs.Kind() {
	case changeset.AssignList, changeset.AssignSet, changeset.AssignMap:
		err = r.printf("%s = %v", r.col, r.value(enc))
	case changeset.ClearCollection:
		err = r.printf("%s = null", r.col)
	case changeset.AddToSet, changeset.AppendToList, changeset.AddToMap:
		err = r.printf("%s = %s + %v", r.col, r.col, r.value(enc))
	case changeset.PrependToList:
		err = r.printf("%s = %v + %s", r.col, r.value(enc), r.col)
	case changeset.RemoveFromSet, changeset.RemoveFromList:
		err = r.printf("%s = %s - %v", r.col, r.col, r.value(enc))
	case changeset.SetAtIndex, changeset.RemoveAtIndex:
		ix := enc.(changeset.Indexed)
		err = r.printf("%s[%v] = %v", r.col, r.index(ix.Index), r.value(ix.Value))
	case changeset.RemoveFromMapKey:
		e := enc.(changeset.Map)[0]
		err = r.printf("%s[%v] = %v", r.col, r.key(e.Key), r.value(nil))
	default:
		err = fmt.Errorf("fragment: unhandled kind %s", cs.Kind())
	}
	if err != nil {
		return Fragment{}, nil, err
	}
	return r.frag, r.bound, nil
}

// RenderScalar renders `col = value` for a dirty scalar column.
func RenderScalar(attr *schema.Attribute, v any, mode Mode, tc transcode.Transcoder) (Fragment, []any, error) {
	enc, err := tc.Encode(attr.Elem, v)
	if err != nil {
		return Fragment{}, nil, transcode.WithAttribute(err, attr.Name)
	}
	r := renderer{col: attr.Name, mode: mode}
	if err := r.printf("%s = %v", r.col, r.value(enc)); err != nil {
		return Fragment{}, nil, err
	}
	return r.frag, r.bound, nil
}

// renderer collects bound values and markers while a fragment is printed.
// Arguments produced by value/index/key are slots that print as `?` or as
// a literal depending on mode.
type renderer struct {
	col   string
	mode  Mode
	frag  Fragment
	bound []any
}

type slot struct {
	v    any
	name string
}

func (r *renderer) value(v any) slot { return r.add(v, r.col) }
func (r *renderer) index(i int) slot { return r.add(i, r.col+".index") }
func (r *renderer) key(k any) slot   { return r.add(k, r.col+".key") }

func (r *renderer) add(v any, name string) slot {
	r.bound = append(r.bound, v)
	if r.mode == Prepared {
		r.frag.Markers = append(r.frag.Markers, name)
	}
	return slot{v: v, name: name}
}

func (r *renderer) printf(format string, args ...any) error {
	for i, a := range args {
		s, ok := a.(slot)
		if !ok {
			continue
		}
		if r.mode == Prepared {
			args[i] = "?"
			continue
		}
		lit, err := Literal(s.v)
		if err != nil {
			return fmt.Errorf("fragment: %s: %w", s.name, err)
		}
		args[i] = lit
	}
	r.frag.Column = r.col
	r.frag.Text = fmt.Sprintf(format, args...)
	return nil
}
