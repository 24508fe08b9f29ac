package writer

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/cqlmap"
)

// Condition is one lightweight-transaction condition: IF Column Op Value.
type Condition struct {
	Column string
	Op     string
	Value  any
}

// Request carries the per-statement options of a write. A nil pointer means
// the option is absent.
type Request struct {
	Consistency *string
	TTL         *int
	Timestamp   *int64
	IfNotExists bool
	IfExists    bool
	Conditions  []Condition
}

var validOps = map[string]struct{}{
	"=": {}, "!=": {}, "<": {}, "<=": {}, ">": {}, ">=": {},
}

var ErrInvalidRequest = errors.New("writer: invalid request")

// Shape drops every value and keeps which options are present.
func (r Request) Shape() cqlmap.OptionShape {
	s := cqlmap.OptionShape{
		Consistency: r.Consistency != nil,
		TTL:         r.TTL != nil,
		Timestamp:   r.Timestamp != nil,
		IfNotExists: r.IfNotExists,
		IfExists:    r.IfExists,
	}
	if len(r.Conditions) > 0 {
		s.Conditions = make([]cqlmap.ConditionShape, len(r.Conditions))
		for i, c := range r.Conditions {
			s.Conditions[i] = cqlmap.ConditionShape{Column: c.Column, Op: c.Op}
		}
	}
	return s
}

// IsZero reports whether r changes nothing about a canonical statement.
func (r Request) IsZero() bool {
	return r.TTL == nil && r.Timestamp == nil && !r.IfNotExists && !r.IfExists && len(r.Conditions) == 0
}

func (r Request) consistency() string {
	if r.Consistency == nil {
		return ""
	}
	return *r.Consistency
}

func (r Request) validate(op cqlmap.Operation) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidRequest, op, fmt.Sprintf(format, args...))
	}
	if r.TTL != nil && *r.TTL < 0 {
		return invalid("negative ttl %d", *r.TTL)
	}
	switch op {
	case cqlmap.OpInsert:
		if r.IfExists || len(r.Conditions) > 0 {
			return invalid("inserts only support IF NOT EXISTS")
		}
	case cqlmap.OpUpdate, cqlmap.OpDeleteByKey:
		if r.IfNotExists {
			return invalid("IF NOT EXISTS is only valid on insert")
		}
		if r.IfExists && len(r.Conditions) > 0 {
			return invalid("IF EXISTS cannot be combined with conditions")
		}
		if op == cqlmap.OpDeleteByKey && r.TTL != nil {
			return invalid("deletes take no ttl")
		}
	default:
		if !r.IsZero() {
			return invalid("options are not supported")
		}
	}
	for _, c := range r.Conditions {
		if c.Column == "" {
			return invalid("condition without column")
		}
		if _, ok := validOps[c.Op]; !ok {
			return invalid("unsupported condition operator %q", c.Op)
		}
	}
	return nil
}
