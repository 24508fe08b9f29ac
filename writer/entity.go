package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/unkn0wn-root/cqlmap/fragment"
)

// Entity describes the table a record type maps to.
type Entity struct {
	Name          string   // logical name; part of every statement key
	Table         string   // [keyspace.]table
	Key           []string // primary key columns in ordinal order
	PartitionKeys int      // leading Key columns forming the partition key; 0 => 1
	Columns       []string // non-key columns
}

var ErrKeyMismatch = errors.New("writer: key does not match entity")

func (e *Entity) Validate() error {
	switch {
	case e.Name == "" || e.Table == "":
		return fmt.Errorf("writer: entity needs a name and a table")
	case len(e.Key) == 0:
		return fmt.Errorf("writer: entity %s has no key columns", e.Name)
	case e.PartitionKeys < 0 || e.PartitionKeys > len(e.Key):
		return fmt.Errorf("writer: entity %s: %d partition keys for %d key columns", e.Name, e.PartitionKeys, len(e.Key))
	}
	return nil
}

func (e *Entity) partitionLen() int {
	if e.PartitionKeys == 0 {
		return 1
	}
	return e.PartitionKeys
}

// AllColumns returns the key columns followed by the other columns.
func (e *Entity) AllColumns() []string {
	out := make([]string, 0, len(e.Key)+len(e.Columns))
	out = append(out, e.Key...)
	return append(out, e.Columns...)
}

func (e *Entity) checkKey(values []any, n int) error {
	if len(values) != n {
		return fmt.Errorf("%w: %s: %d values for %d key columns", ErrKeyMismatch, e.Name, len(values), n)
	}
	for i, v := range values {
		if v == nil {
			return fmt.Errorf("%w: %s: key column %s is null", ErrKeyMismatch, e.Name, e.Key[i])
		}
	}
	return nil
}

// stmt assembles statement text. In Prepared mode every value becomes a `?`
// and is appended to vals; in Inline mode values are written as literals.
type stmt struct {
	b    strings.Builder
	mode fragment.Mode
	vals []any
	err  error
}

func (s *stmt) raw(parts ...string) {
	for _, p := range parts {
		s.b.WriteString(p)
	}
}

func (s *stmt) arg(v any) {
	if s.mode == fragment.Prepared {
		s.b.WriteByte('?')
		s.vals = append(s.vals, v)
		return
	}
	lit, err := fragment.Literal(v)
	if err != nil && s.err == nil {
		s.err = err
	}
	s.b.WriteString(lit)
}

// frag writes a rendered fragment and takes its bound values.
func (s *stmt) frag(f fragment.Fragment, vals []any) {
	s.b.WriteString(f.Text)
	if s.mode == fragment.Prepared {
		s.vals = append(s.vals, vals...)
	}
}

// eq writes `c1 = ? AND c2 = ?` for cols against values.
func (s *stmt) eq(cols []string, values []any) {
	for i, c := range cols {
		if i > 0 {
			s.raw(" AND ")
		}
		s.raw(c, " = ")
		s.arg(values[i])
	}
}

// using writes `USING TTL ? AND TIMESTAMP ?` for the options present.
func (s *stmt) using(r Request) {
	if r.TTL == nil && r.Timestamp == nil {
		return
	}
	s.raw(" USING ")
	if r.TTL != nil {
		s.raw("TTL ")
		s.arg(*r.TTL)
		if r.Timestamp != nil {
			s.raw(" AND ")
		}
	}
	if r.Timestamp != nil {
		s.raw("TIMESTAMP ")
		s.arg(*r.Timestamp)
	}
}

// conditions writes the trailing IF clause.
func (s *stmt) conditions(r Request) {
	switch {
	case r.IfNotExists:
		s.raw(" IF NOT EXISTS")
	case r.IfExists:
		s.raw(" IF EXISTS")
	case len(r.Conditions) > 0:
		s.raw(" IF ")
		for i, c := range r.Conditions {
			if i > 0 {
				s.raw(" AND ")
			}
			s.raw(c.Column, " ", c.Op, " ")
			s.arg(c.Value)
		}
	}
}

func (s *stmt) text() (string, error) { return s.b.String(), s.err }
