// Package ristretto is an approximate dynamic-tier provider: admission is
// TinyLFU based, so under churn a new statement may be declined and
// compiled again on its next use.
package ristretto

import (
	"errors"
	"sync/atomic"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/cqlmap/provider"
)

type Provider struct {
	c       *rc.Cache
	size    int
	onEvict atomic.Pointer[provider.EvictFunc]
	purging atomic.Bool
}

var _ provider.Provider = (*Provider)(nil)

type Config struct {
	MaxEntries  int64 // bound; every statement costs 1
	NumCounters int64 // 0 => 10 * MaxEntries
	BufferItems int64 // 0 => 64
}

type entry struct {
	key string
	val any
}

func New(cfg Config) (*Provider, error) {
	if cfg.MaxEntries <= 0 || cfg.NumCounters < 0 || cfg.BufferItems < 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	if cfg.NumCounters == 0 {
		cfg.NumCounters = 10 * cfg.MaxEntries
	}
	if cfg.BufferItems == 0 {
		cfg.BufferItems = 64
	}
	p := &Provider{size: int(cfg.MaxEntries)}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxEntries,
		BufferItems: cfg.BufferItems,
		Metrics:     true, // Len is derived from the counters
		OnEvict:     p.evicted,
	})
	if err != nil {
		return nil, err
	}
	p.c = c
	return p, nil
}

func (p *Provider) evicted(item *rc.Item) {
	if p.purging.Load() {
		return
	}
	e, ok := item.Value.(entry)
	if !ok {
		return
	}
	if fn := p.onEvict.Load(); fn != nil {
		(*fn)(e.key)
	}
}

func (p *Provider) Get(key string) (any, bool) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false
	}
	e, ok := v.(entry)
	if !ok || e.key != key {
		// self-heal: drop unexpected entry shape or a hash collision
		p.c.Del(key)
		return nil, false
	}
	return e.val, true
}

// Add waits for the write buffer to drain so the entry is visible to the
// next Get.
func (p *Provider) Add(key string, value any) bool {
	ok := p.c.Set(key, entry{key: key, val: value}, 1)
	p.c.Wait()
	return ok
}

func (p *Provider) Len() int {
	m := p.c.Metrics
	if m == nil {
		return 0
	}
	n := int64(m.KeysAdded()) - int64(m.KeysEvicted())
	if n < 0 {
		return 0
	}
	return int(n)
}

func (p *Provider) Cap() int { return p.size }

func (p *Provider) OnEvict(fn provider.EvictFunc) {
	if fn == nil {
		p.onEvict.Store(nil)
		return
	}
	p.onEvict.Store(&fn)
}

func (p *Provider) Purge() {
	p.purging.Store(true)
	defer p.purging.Store(false)
	p.c.Clear()
}

func (p *Provider) Close() error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics exposes ristretto's counters (not part of provider.Provider).
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
