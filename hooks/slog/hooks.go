// Package sloghook logs cache events through log/slog.
package sloghook

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/cqlmap"
	"github.com/unkn0wn-root/cqlmap/internal/util"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	CompiledEvery uint64
	EvictedEvery  uint64
	StatsEvery    uint64
	PressureEvery uint64
	// Optional key redactor. Defaults to a SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	compiledCtr atomic.Uint64
	evictedCtr  atomic.Uint64
	statsCtr    atomic.Uint64
	pressureCtr atomic.Uint64
}

var _ cqlmap.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return util.ShortHash(k)
}

// describe names the statement behind a key: operation and entity for
// dynamic keys, the redacted key otherwise.
func (h *Hooks) describe(k string) []any {
	if sk, err := cqlmap.ParseFingerprint(k); err == nil {
		return []any{"op", string(sk.Operation), "entity", sk.Entity, "key", h.redact(k)}
	}
	return []any{"key", h.redact(k)}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Compiled(tier cqlmap.Tier, key string, took time.Duration) {
	if h.l == nil || !sample(h.opts.CompiledEvery, &h.compiledCtr) {
		return
	}
	args := append([]any{"tier", tier.String(), "took", took}, h.describe(key)...)
	h.l.Debug("cqlmap.compiled", args...)
}

func (h *Hooks) CompileFailed(tier cqlmap.Tier, key string, err error) {
	if h.l == nil {
		return
	}
	args := append([]any{"tier", tier.String(), "err", err}, h.describe(key)...)
	h.l.Error("cqlmap.compile_failed", args...)
}

func (h *Hooks) DynamicStats(s cqlmap.Stats) {
	if h.l == nil || !sample(h.opts.StatsEvery, &h.statsCtr) {
		return
	}
	h.l.Debug("cqlmap.dynamic_stats",
		"size", s.Size,
		"capacity", s.Capacity,
		"hits", s.Hits,
		"misses", s.Misses,
		"evictions", s.Evictions)
}

func (h *Hooks) CapacityPressure(s cqlmap.Stats) {
	if h.l == nil || !sample(h.opts.PressureEvery, &h.pressureCtr) {
		return
	}
	h.l.Warn("cqlmap.capacity_pressure",
		"size", s.Size,
		"capacity", s.Capacity,
		"occupancy", s.Occupancy(),
		"evictions", s.Evictions)
}

func (h *Hooks) Evicted(key string) {
	if h.l == nil || !sample(h.opts.EvictedEvery, &h.evictedCtr) {
		return
	}
	h.l.Info("cqlmap.evicted", h.describe(key)...)
}
