// Package writer is the write path of the mapper: it renders a record's
// pending changes into an UPDATE, resolves the compiled statement through
// the statement cache and executes it with the bound values.
//
// Statements whose text depends only on structure go through the cache.
// In Inline mode values are written into the text, so those statements are
// executed directly and never cached.
package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/unkn0wn-root/cqlmap"
	"github.com/unkn0wn-root/cqlmap/changeset"
	"github.com/unkn0wn-root/cqlmap/fragment"
	"github.com/unkn0wn-root/cqlmap/keycodec"
	"github.com/unkn0wn-root/cqlmap/transcode"
)

// Call is one statement execution.
type Call struct {
	Statement   *cqlmap.Statement
	Values      []any
	Consistency string // empty => session default
}

// Executor runs statements against the store. Prepared is nil for inline
// statements.
type Executor interface {
	// Exec runs a write. applied is false when a condition was not met.
	Exec(ctx context.Context, c Call) (applied bool, err error)
	Query(ctx context.Context, c Call) ([]map[string]any, error)
}

var (
	ErrNoChanges = errors.New("writer: no pending changes")
	ErrNotFound  = errors.New("writer: not found")
)

type Options struct {
	Mode       fragment.Mode        // 0 => Prepared
	Transcoder transcode.Transcoder // nil => transcode.NewRegistry()
	Logger     cqlmap.Logger        // nil => NopLogger
}

type Writer struct {
	cache *cqlmap.Cache
	exec  Executor
	mode  fragment.Mode
	tc    transcode.Transcoder
	log   cqlmap.Logger
}

func New(cache *cqlmap.Cache, exec Executor, opts Options) (*Writer, error) {
	if cache == nil || exec == nil {
		return nil, fmt.Errorf("writer: cache and executor are required")
	}
	w := &Writer{cache: cache, exec: exec, mode: opts.Mode, tc: opts.Transcoder, log: opts.Logger}
	if w.mode == 0 {
		w.mode = fragment.Prepared
	}
	if w.tc == nil {
		w.tc = transcode.NewRegistry()
	}
	if w.log == nil {
		w.log = cqlmap.NopLogger{}
	}
	return w, nil
}

// Warm registers the canonical statements of ent in the fixed tier.
func (w *Writer) Warm(ctx context.Context, ent *Entity) error {
	if err := ent.Validate(); err != nil {
		return err
	}
	for op, text := range map[cqlmap.Operation]string{
		cqlmap.OpFindByKey:       findText(ent),
		cqlmap.OpInsert:          insertText(ent),
		cqlmap.OpDeleteByKey:     deleteText(ent),
		cqlmap.OpDeletePartition: deletePartitionText(ent),
	} {
		if _, err := w.cache.Register(ctx, cqlmap.FixedKey{Entity: ent.Name, Op: op}, w.cache.Prepare(text)); err != nil {
			return fmt.Errorf("writer: warm %s %s: %w", ent.Name, op, err)
		}
	}
	w.log.Debug("entity statements registered", cqlmap.Fields{"entity": ent.Name, "fixed": w.cache.FixedLen()})
	return nil
}

// Update flushes tr for the record identified by key (encoded key
// components, e.g. from keycodec). The tracker is reset once the statement
// has run.
func (w *Writer) Update(ctx context.Context, ent *Entity, key []any, tr *changeset.Tracker, req Request) (bool, error) {
	if tr.Len() == 0 {
		return false, ErrNoChanges
	}
	if err := ent.checkKey(key, len(ent.Key)); err != nil {
		return false, err
	}
	if err := req.validate(cqlmap.OpUpdate); err != nil {
		return false, err
	}

	s := &stmt{mode: w.mode}
	s.raw("UPDATE ", ent.Table)
	s.using(req)
	s.raw(" SET ")

	// Fragments follow the sorted attribute order and, within one attribute,
	// insertion order, so equal keys always yield equal text.
	var changes []string
	first := true
	sep := func() {
		if !first {
			s.raw(", ")
		}
		first = false
	}
	scalars := tr.Scalars()
	for _, name := range tr.Attributes() {
		for len(scalars) > 0 && scalars[0].Attr.Name == name {
			f, vals, err := fragment.RenderScalar(scalars[0].Attr, scalars[0].Value, w.mode, w.tc)
			if err != nil {
				return false, err
			}
			sep()
			s.frag(f, vals)
			scalars = scalars[1:]
		}
		for _, cs := range tr.For(name) {
			f, vals, err := fragment.Render(cs, w.mode, w.tc)
			if err != nil {
				return false, err
			}
			sep()
			s.frag(f, vals)
			changes = append(changes, name+":"+cs.Kind().String())
		}
	}

	s.raw(" WHERE ")
	s.eq(ent.Key, key)
	s.conditions(req)

	text, err := s.text()
	if err != nil {
		return false, err
	}
	sk := cqlmap.StructuralKey{
		Operation:  cqlmap.OpUpdate,
		Entity:     ent.Name,
		Attributes: tr.Attributes(),
		Changes:    changes,
		Options:    req.Shape(),
	}
	applied, err := w.run(ctx, sk, text, s.vals, req)
	if err != nil {
		return false, err
	}
	w.log.Debug("update flushed", cqlmap.Fields{
		"entity":  ent.Name,
		"changes": tr.Len(),
		"mode":    w.mode.String(),
		"applied": applied,
	})
	tr.Reset()
	return applied, nil
}

// Insert writes a full row; row holds values for ent.AllColumns() in order.
// A plain insert uses the entity's fixed statement.
func (w *Writer) Insert(ctx context.Context, ent *Entity, row []any, req Request) (bool, error) {
	cols := ent.AllColumns()
	if len(row) != len(cols) {
		return false, fmt.Errorf("%w: %s: %d values for %d columns", ErrKeyMismatch, ent.Name, len(row), len(cols))
	}
	if err := ent.checkKey(row[:len(ent.Key)], len(ent.Key)); err != nil {
		return false, err
	}
	if err := req.validate(cqlmap.OpInsert); err != nil {
		return false, err
	}
	if req.IsZero() && w.mode == fragment.Prepared {
		return w.runFixed(ctx, ent, cqlmap.OpInsert, row, req)
	}

	s := &stmt{mode: w.mode}
	s.raw("INSERT INTO ", ent.Table, " (", strings.Join(cols, ", "), ") VALUES (")
	for i, v := range row {
		if i > 0 {
			s.raw(", ")
		}
		s.arg(v)
	}
	s.raw(")")
	s.conditions(req)
	s.using(req)
	text, err := s.text()
	if err != nil {
		return false, err
	}
	sk := cqlmap.StructuralKey{Operation: cqlmap.OpInsert, Entity: ent.Name, Attributes: cols, Options: req.Shape()}
	return w.run(ctx, sk, text, s.vals, req)
}

// Delete removes one row.
func (w *Writer) Delete(ctx context.Context, ent *Entity, key []any, req Request) (bool, error) {
	if err := ent.checkKey(key, len(ent.Key)); err != nil {
		return false, err
	}
	if err := req.validate(cqlmap.OpDeleteByKey); err != nil {
		return false, err
	}
	if req.IsZero() && w.mode == fragment.Prepared {
		return w.runFixed(ctx, ent, cqlmap.OpDeleteByKey, key, req)
	}
	s := &stmt{mode: w.mode}
	s.raw("DELETE FROM ", ent.Table)
	s.using(req)
	s.raw(" WHERE ")
	s.eq(ent.Key, key)
	s.conditions(req)
	text, err := s.text()
	if err != nil {
		return false, err
	}
	sk := cqlmap.StructuralKey{Operation: cqlmap.OpDeleteByKey, Entity: ent.Name, Attributes: ent.Key, Options: req.Shape()}
	return w.run(ctx, sk, text, s.vals, req)
}

// DeletePartition removes every row of one partition.
func (w *Writer) DeletePartition(ctx context.Context, ent *Entity, partition []any) error {
	if err := ent.checkKey(partition, ent.partitionLen()); err != nil {
		return err
	}
	if w.mode == fragment.Inline {
		s := &stmt{mode: fragment.Inline}
		s.raw("DELETE FROM ", ent.Table, " WHERE ")
		s.eq(ent.Key[:ent.partitionLen()], partition)
		text, err := s.text()
		if err != nil {
			return err
		}
		_, err = w.exec.Exec(ctx, Call{Statement: &cqlmap.Statement{Text: text}})
		return err
	}
	_, err := w.runFixed(ctx, ent, cqlmap.OpDeletePartition, partition, Request{})
	return err
}

// Find reads one row by its full key.
func (w *Writer) Find(ctx context.Context, ent *Entity, key []any) (map[string]any, error) {
	if err := ent.checkKey(key, len(ent.Key)); err != nil {
		return nil, err
	}
	st, err := w.fixed(ctx, ent, cqlmap.OpFindByKey)
	if err != nil {
		return nil, err
	}
	rows, err := w.exec.Query(ctx, Call{Statement: st, Values: key})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Slice bounds a clustering-range read or delete. From is inclusive and To
// exclusive in the scan direction; either may be shorter than the
// clustering key or empty for an open bound.
type Slice struct {
	Partition []any
	From, To  []any
	Desc      bool
}

// SliceFind reads the rows of one partition within s.
func (w *Writer) SliceFind(ctx context.Context, ent *Entity, s Slice) ([]map[string]any, error) {
	st, vals, err := w.slice(ctx, ent, cqlmap.OpSliceFind, s)
	if err != nil {
		return nil, err
	}
	return w.exec.Query(ctx, Call{Statement: st, Values: vals})
}

// SliceDelete removes the rows of one partition within s.
func (w *Writer) SliceDelete(ctx context.Context, ent *Entity, s Slice) error {
	st, vals, err := w.slice(ctx, ent, cqlmap.OpSliceDelete, s)
	if err != nil {
		return err
	}
	_, err = w.exec.Exec(ctx, Call{Statement: st, Values: vals})
	return err
}

func (w *Writer) slice(ctx context.Context, ent *Entity, op cqlmap.Operation, sl Slice) (*cqlmap.Statement, []any, error) {
	p := ent.partitionLen()
	if err := ent.checkKey(sl.Partition, p); err != nil {
		return nil, nil, err
	}
	clustering := ent.Key[p:]
	if len(clustering) == 0 {
		return nil, nil, fmt.Errorf("%w: %s has no clustering columns", ErrKeyMismatch, ent.Name)
	}
	if len(sl.From) > len(clustering) || len(sl.To) > len(clustering) {
		return nil, nil, fmt.Errorf("%w: %s: bound longer than %d clustering columns", ErrKeyMismatch, ent.Name, len(clustering))
	}
	if err := keycodec.ValidateBounds(sl.From, sl.To, sl.Desc); err != nil {
		return nil, nil, err
	}
	lf, _ := keycodec.ValidateNoHoles(sl.From)
	lt, _ := keycodec.ValidateNoHoles(sl.To)
	from, to := sl.From[:lf+1], sl.To[:lt+1]

	s := &stmt{mode: w.mode}
	if op == cqlmap.OpSliceFind {
		s.raw("SELECT ", strings.Join(ent.AllColumns(), ", "), " FROM ", ent.Table)
	} else {
		s.raw("DELETE FROM ", ent.Table)
	}
	s.raw(" WHERE ")
	s.eq(ent.Key[:p], sl.Partition)
	lo, hi := ">=", "<"
	if sl.Desc {
		lo, hi = "<=", ">"
	}
	s.bound(clustering[:len(from)], lo, from)
	s.bound(clustering[:len(to)], hi, to)
	if op == cqlmap.OpSliceFind {
		dir := "ASC"
		if sl.Desc {
			dir = "DESC"
		}
		s.raw(" ORDER BY ", clustering[0], " ", dir)
	}
	text, err := s.text()
	if err != nil {
		return nil, nil, err
	}
	if w.mode == fragment.Inline {
		return &cqlmap.Statement{Text: text}, nil, nil
	}
	sk := cqlmap.StructuralKey{
		Operation:  op,
		Entity:     ent.Name,
		Attributes: ent.Key,
		Changes:    []string{fmt.Sprintf("from:%d", len(from)), fmt.Sprintf("to:%d", len(to)), fmt.Sprintf("desc:%t", sl.Desc)},
	}
	st, err := w.cache.Dynamic(ctx, sk, w.cache.Prepare(text))
	return st, s.vals, err
}

func (s *stmt) bound(cols []string, op string, vals []any) {
	if len(cols) == 0 {
		return
	}
	s.raw(" AND ")
	if len(cols) == 1 {
		s.raw(cols[0], " ", op, " ")
		s.arg(vals[0])
		return
	}
	s.raw("(", strings.Join(cols, ", "), ") ", op, " (")
	for i, v := range vals {
		if i > 0 {
			s.raw(", ")
		}
		s.arg(v)
	}
	s.raw(")")
}

// run executes a dynamic statement: through the cache in Prepared mode,
// directly in Inline mode.
func (w *Writer) run(ctx context.Context, sk cqlmap.StructuralKey, text string, vals []any, req Request) (bool, error) {
	if w.mode == fragment.Inline {
		return w.exec.Exec(ctx, Call{Statement: &cqlmap.Statement{Text: text}, Consistency: req.consistency()})
	}
	st, err := w.cache.Dynamic(ctx, sk, w.cache.Prepare(text))
	if err != nil {
		return false, err
	}
	return w.exec.Exec(ctx, Call{Statement: st, Values: vals, Consistency: req.consistency()})
}

func (w *Writer) runFixed(ctx context.Context, ent *Entity, op cqlmap.Operation, vals []any, req Request) (bool, error) {
	st, err := w.fixed(ctx, ent, op)
	if err != nil {
		return false, err
	}
	return w.exec.Exec(ctx, Call{Statement: st, Values: vals, Consistency: req.consistency()})
}

func (w *Writer) fixed(ctx context.Context, ent *Entity, op cqlmap.Operation) (*cqlmap.Statement, error) {
	st, err := w.cache.Fixed(ctx, cqlmap.FixedKey{Entity: ent.Name, Op: op})
	if err != nil {
		return nil, fmt.Errorf("writer: %s %s (call Warm first): %w", ent.Name, op, err)
	}
	return st, nil
}

func findText(ent *Entity) string {
	s := &stmt{mode: fragment.Prepared}
	s.raw("SELECT ", strings.Join(ent.AllColumns(), ", "), " FROM ", ent.Table, " WHERE ")
	s.eq(ent.Key, make([]any, len(ent.Key)))
	return s.b.String()
}

func insertText(ent *Entity) string {
	cols := ent.AllColumns()
	return "INSERT INTO " + ent.Table + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
}

func deleteText(ent *Entity) string {
	s := &stmt{mode: fragment.Prepared}
	s.raw("DELETE FROM ", ent.Table, " WHERE ")
	s.eq(ent.Key, make([]any, len(ent.Key)))
	return s.b.String()
}

func deletePartitionText(ent *Entity) string {
	s := &stmt{mode: fragment.Prepared}
	s.raw("DELETE FROM ", ent.Table, " WHERE ")
	s.eq(ent.Key[:ent.partitionLen()], make([]any, ent.partitionLen()))
	return s.b.String()
}
