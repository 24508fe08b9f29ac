package cqlmap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/cqlmap/internal/util"
	"github.com/unkn0wn-root/cqlmap/provider"
)

// Stats describes the dynamic tier.
type Stats struct {
	Size      int
	Capacity  int
	Hits      uint64 // calls answered without running their factory
	Misses    uint64 // factory runs
	Evictions uint64
}

// Occupancy is Size/Capacity, or 0 for an unbounded provider.
func (s Stats) Occupancy() float64 {
	if s.Capacity <= 0 {
		return 0
	}
	return float64(s.Size) / float64(s.Capacity)
}

// Cache is the two-tier statement cache. Both tiers run a key's factory at
// most once at a time: concurrent callers for the same key wait for and
// share the single result. A failed factory leaves the key absent, so the
// next call tries again.
type Cache struct {
	log       Logger
	hooks     Hooks
	compiler  Compiler
	threshold float64

	fixedMu sync.RWMutex
	fixed   map[FixedKey]*Statement
	fixedSF singleflight.Group

	dyn   provider.Provider
	dynSF singleflight.Group

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	pressured atomic.Bool
	closed    atomic.Bool
}

// errLookupMiss is the result of a lookup-only fixed-tier flight. It never
// escapes the package.
var errLookupMiss = errors.New("cqlmap: fixed lookup miss")

func newCache(opts Options, p provider.Provider) *Cache {
	c := &Cache{
		fixed:    make(map[FixedKey]*Statement),
		dyn:      p,
		compiler: opts.Compiler,
	}

	// defaults
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.threshold = coalesce(opts.PressureThreshold, defaultPressureThreshold)

	p.OnEvict(c.evicted)
	return c
}

// Register returns the fixed statement for key, running f if it is not
// stored yet. Meant to be called once per entity shape at setup.
func (c *Cache) Register(ctx context.Context, key FixedKey, f Factory) (*Statement, error) {
	if f == nil {
		return nil, ErrNilFactory
	}
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if st, ok := c.lookupFixed(key); ok {
		return st, nil
	}
	fp := key.fingerprint()
	for {
		v, err, _ := c.fixedSF.Do(fp, func() (any, error) {
			return c.computeFixed(ctx, key, fp, f)
		})
		if errors.Is(err, errLookupMiss) {
			// joined a concurrent Fixed lookup that found nothing; run our own
			continue
		}
		if err != nil {
			return nil, err
		}
		return v.(*Statement), nil
	}
}

// Fixed returns a registered statement. If a registration for key is in
// flight it waits for it; otherwise a missing key fails with a
// *FixedMissError.
func (c *Cache) Fixed(ctx context.Context, key FixedKey) (*Statement, error) {
	if st, ok := c.lookupFixed(key); ok {
		return st, nil
	}
	if c.closed.Load() {
		return nil, ErrClosed
	}
	fp := key.fingerprint()
	v, err, _ := c.fixedSF.Do(fp, func() (any, error) {
		return c.computeFixed(ctx, key, fp, nil)
	})
	if errors.Is(err, errLookupMiss) {
		return nil, &FixedMissError{Key: key}
	}
	if err != nil {
		return nil, err
	}
	return v.(*Statement), nil
}

func (c *Cache) lookupFixed(key FixedKey) (*Statement, bool) {
	c.fixedMu.RLock()
	st, ok := c.fixed[key]
	c.fixedMu.RUnlock()
	return st, ok
}

// computeFixed runs inside the key's flight. A nil f only looks.
func (c *Cache) computeFixed(ctx context.Context, key FixedKey, fp string, f Factory) (*Statement, error) {
	if st, ok := c.lookupFixed(key); ok {
		return st, nil
	}
	if f == nil {
		return nil, errLookupMiss
	}
	st, err := c.compile(ctx, TierFixed, fp, f)
	if err != nil {
		return nil, err
	}
	c.fixedMu.Lock()
	c.fixed[key] = st
	c.fixedMu.Unlock()
	return st, nil
}

// Dynamic returns the statement for key, running f on a miss. The tier is
// bounded; the least recently used statement is evicted past the bound.
func (c *Cache) Dynamic(ctx context.Context, key StructuralKey, f Factory) (*Statement, error) {
	if f == nil {
		return nil, ErrNilFactory
	}
	if c.closed.Load() {
		return nil, ErrClosed
	}
	fp := key.Fingerprint()
	if v, ok := c.dyn.Get(fp); ok {
		c.hits.Add(1)
		return v.(*Statement), nil
	}

	ran := false
	v, err, _ := c.dynSF.Do(fp, func() (any, error) {
		if v, ok := c.dyn.Get(fp); ok {
			return v, nil
		}
		ran = true
		c.misses.Add(1)
		st, err := c.compile(ctx, TierDynamic, fp, f)
		if err != nil {
			return nil, err
		}
		if !c.dyn.Add(fp, st) {
			c.log.Debug("dynamic statement declined by provider", Fields{"key": util.ShortHash(fp)})
		}
		c.afterInsert()
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	if !ran {
		c.hits.Add(1)
	}
	return v.(*Statement), nil
}

func (c *Cache) compile(ctx context.Context, tier Tier, fp string, f Factory) (*Statement, error) {
	start := time.Now()
	st, err := f(ctx)
	if err == nil && st == nil {
		err = fmt.Errorf("cqlmap: %s factory returned a nil statement", tier)
	}
	if err != nil {
		c.log.Error("statement compile failed", Fields{"tier": tier.String(), "key": util.ShortHash(fp), "err": err})
		c.hooks.CompileFailed(tier, fp, err)
		return nil, err
	}
	took := time.Since(start)
	c.log.Debug("statement compiled", Fields{"tier": tier.String(), "key": util.ShortHash(fp), "took": took})
	c.hooks.Compiled(tier, fp, took)
	return st, nil
}

// afterInsert reports stats, and pressure whenever occupancy is above the
// threshold. The warning is logged once per crossing.
func (c *Cache) afterInsert() {
	s := c.Stats()
	c.hooks.DynamicStats(s)
	if s.Capacity <= 0 || s.Occupancy() <= c.threshold {
		c.pressured.Store(false)
		return
	}
	if c.pressured.CompareAndSwap(false, true) {
		c.log.Warn("dynamic statement cache near capacity; consider raising MaxDynamic", Fields{
			"size":      s.Size,
			"capacity":  s.Capacity,
			"evictions": s.Evictions,
		})
	}
	c.hooks.CapacityPressure(s)
}

func (c *Cache) evicted(fp string) {
	c.evictions.Add(1)
	c.hooks.Evicted(fp)
}

// Prepare returns a factory that compiles text with the configured
// Compiler.
func (c *Cache) Prepare(text string) Factory {
	return func(ctx context.Context) (*Statement, error) {
		if c.compiler == nil {
			return nil, ErrNilCompiler
		}
		p, err := c.compiler.Compile(ctx, text)
		if err != nil {
			return nil, err
		}
		return &Statement{Text: text, Prepared: p}, nil
	}
}

func (c *Cache) Stats() Stats {
	return Stats{
		Size:      c.dyn.Len(),
		Capacity:  c.dyn.Cap(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// FixedLen is the number of registered fixed statements.
func (c *Cache) FixedLen() int {
	c.fixedMu.RLock()
	defer c.fixedMu.RUnlock()
	return len(c.fixed)
}

// Purge drops every dynamic statement, e.g. after a schema change. Fixed
// statements are kept.
func (c *Cache) Purge() {
	c.dyn.Purge()
	c.pressured.Store(false)
	c.log.Info("dynamic statement cache purged", nil)
}

// Close drops both tiers and releases the provider. Calls after the first
// are no-ops.
func (c *Cache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.fixedMu.Lock()
	clear(c.fixed)
	c.fixedMu.Unlock()
	if err := c.dyn.Close(); err != nil {
		return &CloseError{ProviderErr: err}
	}
	return nil
}
