// Package keycodec converts compound primary keys to and from the ordered
// component values the store expects, and splits them into a partition
// prefix and a clustering suffix.
package keycodec

import (
	"errors"
	"fmt"
	"sort"

	"github.com/unkn0wn-root/cqlmap/schema"
	"github.com/unkn0wn-root/cqlmap/transcode"
)

var (
	ErrShape      = errors.New("keycodec: invalid key shape")
	ErrHole       = errors.New("keycodec: value after a null component")
	ErrBoundOrder = errors.New("keycodec: bounds out of order")
)

// ShapeError describes an invalid compound key declaration or a component
// list that does not fit the declared shape.
type ShapeError struct {
	Key    string
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Key == "" {
		return "keycodec: " + e.Reason
	}
	return fmt.Sprintf("keycodec: %s: %s", e.Key, e.Reason)
}

func (e *ShapeError) Unwrap() error { return ErrShape }

// Component describes one field of a compound key K.
type Component[K any] struct {
	Name      string
	Type      schema.Type
	Ordinal   int  // 1-based position in the primary key
	Partition bool // part of the partition key
	Reversed  bool // clustering order is descending

	Get func(*K) any
	Set func(*K, any) error // required unless the shape has a constructor
}

// ShapeConfig declares a compound key.
type ShapeConfig[K any] struct {
	Name       string
	Components []Component[K]

	// Construct builds a key from all decoded component values in ordinal
	// order. When nil, keys are built from their zero value through each
	// component's Set.
	Construct func(values []any) (*K, error)

	// Transcoder defaults to transcode.NewRegistry().
	Transcoder transcode.Transcoder
}

// Shape is a validated compound key declaration. It is immutable and safe
// for concurrent use.
type Shape[K any] struct {
	name      string
	comps     []Component[K]
	partition int
	reversed  int
	construct func([]any) (*K, error)
	tc        transcode.Transcoder
}

// NewShape validates cfg and returns the shape. Components are ordered by
// ordinal. If none is marked as a partition component the first one is the
// partition key.
func NewShape[K any](cfg ShapeConfig[K]) (*Shape[K], error) {
	fail := func(format string, args ...any) (*Shape[K], error) {
		return nil, &ShapeError{Key: cfg.Name, Reason: fmt.Sprintf(format, args...)}
	}

	n := len(cfg.Components)
	if n < 2 {
		return fail("a compound key needs at least two components, got %d", n)
	}
	comps := make([]Component[K], n)
	copy(comps, cfg.Components)
	sort.SliceStable(comps, func(i, j int) bool { return comps[i].Ordinal < comps[j].Ordinal })

	// Uniqueness alone would accept {1, 2, 4}; the sum pins the set to 1..n.
	seen := make(map[int]struct{}, n)
	sum := 0
	for _, c := range comps {
		if c.Ordinal < 1 || c.Ordinal > n {
			return fail("component %q ordinal %d outside 1..%d", c.Name, c.Ordinal, n)
		}
		if _, dup := seen[c.Ordinal]; dup {
			return fail("duplicate ordinal %d", c.Ordinal)
		}
		seen[c.Ordinal] = struct{}{}
		sum += c.Ordinal
		if c.Get == nil {
			return fail("component %q has no accessor", c.Name)
		}
		if cfg.Construct == nil && c.Set == nil {
			return fail("component %q has no setter and the shape has no constructor", c.Name)
		}
	}
	if sum != n*(n+1)/2 {
		return fail("ordinals are not a permutation of 1..%d", n)
	}

	partition := 0
	for i, c := range comps {
		if !c.Partition {
			continue
		}
		if c.Ordinal != partition+1 || i != partition {
			return fail("partition component %q is not contiguous from ordinal 1", c.Name)
		}
		partition++
	}
	if partition == 0 {
		partition = 1
	}

	reversed := -1
	for i, c := range comps {
		if !c.Reversed {
			continue
		}
		if reversed >= 0 {
			return fail("more than one reversed component")
		}
		if i != partition {
			return fail("reversed component %q must be the first clustering component", c.Name)
		}
		reversed = i
	}

	tc := cfg.Transcoder
	if tc == nil {
		tc = transcode.NewRegistry()
	}
	return &Shape[K]{
		name:      cfg.Name,
		comps:     comps,
		partition: partition,
		reversed:  reversed,
		construct: cfg.Construct,
		tc:        tc,
	}, nil
}

// MustShape is NewShape that panics; meant for package-level declarations.
func MustShape[K any](cfg ShapeConfig[K]) *Shape[K] {
	s, err := NewShape(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Shape[K]) Name() string { return s.name }
func (s *Shape[K]) Len() int     { return len(s.comps) }

// PartitionLen is the number of partition components.
func (s *Shape[K]) PartitionLen() int { return s.partition }

// Reversed returns the index of the descending clustering component, or -1.
func (s *Shape[K]) Reversed() int { return s.reversed }

// Columns returns the component names in ordinal order.
func (s *Shape[K]) Columns() []string {
	out := make([]string, len(s.comps))
	for i, c := range s.comps {
		out[i] = c.Name
	}
	return out
}

// ToComponents reads every component of k in ordinal order and encodes it
// to its store-native value. A nil key yields an empty list.
func (s *Shape[K]) ToComponents(k *K) ([]any, error) {
	if k == nil {
		return []any{}, nil
	}
	out := make([]any, len(s.comps))
	for i, c := range s.comps {
		v, err := s.tc.Encode(c.Type, c.Get(k))
		if err != nil {
			return nil, transcode.WithAttribute(err, c.Name)
		}
		out[i] = v
	}
	return out, nil
}

// FromComponents decodes values and builds a key from them.
func (s *Shape[K]) FromComponents(values []any) (*K, error) {
	if len(values) != len(s.comps) {
		return nil, &ShapeError{
			Key:    s.name,
			Reason: fmt.Sprintf("got %d component values, want %d", len(values), len(s.comps)),
		}
	}
	decoded := make([]any, len(values))
	for i, c := range s.comps {
		v, err := s.tc.Decode(c.Type, values[i])
		if err != nil {
			return nil, transcode.WithAttribute(err, c.Name)
		}
		decoded[i] = v
	}

	if s.construct != nil {
		return s.construct(decoded)
	}
	k := new(K)
	for i, c := range s.comps {
		if err := c.Set(k, decoded[i]); err != nil {
			return nil, fmt.Errorf("keycodec: set %s.%s: %w", s.name, c.Name, err)
		}
	}
	return k, nil
}

// PartitionOnly returns the partition prefix of values.
func (s *Shape[K]) PartitionOnly(values []any) []any {
	if len(values) <= s.partition {
		return values
	}
	return values[:s.partition]
}

// ClusteringOnly returns the clustering suffix of values; nil when values
// holds no clustering component.
func (s *Shape[K]) ClusteringOnly(values []any) []any {
	if len(values) <= s.partition {
		return nil
	}
	return values[s.partition:]
}

// Split returns PartitionOnly and ClusteringOnly in one call.
func (s *Shape[K]) Split(values []any) (partition, clustering []any) {
	return s.PartitionOnly(values), s.ClusteringOnly(values)
}

// ValidateSlice checks a clustering-range query against the shape: the
// partition must be complete, both bounds must be hole-free and no longer
// than the clustering suffix, and they must be ordered for the direction.
func (s *Shape[K]) ValidateSlice(partition, from, to []any, desc bool) error {
	if len(partition) != s.partition {
		return &ShapeError{
			Key:    s.name,
			Reason: fmt.Sprintf("slice needs %d partition values, got %d", s.partition, len(partition)),
		}
	}
	for i, v := range partition {
		if v == nil {
			return &ShapeError{Key: s.name, Reason: fmt.Sprintf("partition component %q is null", s.comps[i].Name)}
		}
	}
	clustering := len(s.comps) - s.partition
	if len(from) > clustering || len(to) > clustering {
		return &ShapeError{
			Key:    s.name,
			Reason: fmt.Sprintf("bounds longer than the %d clustering components", clustering),
		}
	}
	return ValidateBounds(from, to, desc)
}
