// usage:
//
//	raw := sloghook.New(slog.Default(), sloghook.Options{CompiledEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := cqlmap.New(cqlmap.Options{
//	    Compiler: compiler,
//	    Hooks:    hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/cqlmap"
)

// Hooks forwards events to inner from a worker pool. Events are dropped,
// never blocked on, when the queue is full.
type Hooks struct {
	inner   cqlmap.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ cqlmap.Hooks = (*Hooks)(nil)

func New(inner cqlmap.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains the queue and stops the workers. Events after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped is the number of events lost to a full queue or a closed hook.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) Compiled(t cqlmap.Tier, k string, d time.Duration) {
	h.try(func() { h.inner.Compiled(t, k, d) })
}
func (h *Hooks) CompileFailed(t cqlmap.Tier, k string, err error) {
	h.try(func() { h.inner.CompileFailed(t, k, err) })
}
func (h *Hooks) DynamicStats(s cqlmap.Stats)     { h.try(func() { h.inner.DynamicStats(s) }) }
func (h *Hooks) CapacityPressure(s cqlmap.Stats) { h.try(func() { h.inner.CapacityPressure(s) }) }
func (h *Hooks) Evicted(k string)                { h.try(func() { h.inner.Evicted(k) }) }
