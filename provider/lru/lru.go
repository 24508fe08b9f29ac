// Package lru is the default dynamic-tier provider: an exact LRU bounded by
// entry count.
package lru

import (
	"errors"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"

	"github.com/unkn0wn-root/cqlmap/provider"
)

type Provider struct {
	c       *lru.Cache
	size    int
	onEvict atomic.Pointer[provider.EvictFunc]
	purging atomic.Bool
}

var _ provider.Provider = (*Provider)(nil)

func New(size int) (*Provider, error) {
	if size <= 0 {
		return nil, errors.New("lru: size must be positive")
	}
	p := &Provider{size: size}
	c, err := lru.NewWithEvict(size, p.evicted)
	if err != nil {
		return nil, err
	}
	p.c = c
	return p, nil
}

func (p *Provider) evicted(key, _ any) {
	if p.purging.Load() {
		return
	}
	if fn := p.onEvict.Load(); fn != nil {
		k, _ := key.(string)
		(*fn)(k)
	}
}

func (p *Provider) Get(key string) (any, bool) { return p.c.Get(key) }

func (p *Provider) Add(key string, value any) bool {
	p.c.Add(key, value)
	return true
}

func (p *Provider) Len() int { return p.c.Len() }
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
	p.c.Purge()
}

func (p *Provider) Close() error {
	p.Purge()
	return nil
}
