// Package provider defines the bounded store behind the dynamic statement
// tier.
//
// Values are live in-process objects (compiled statements holding driver
// handles), so implementations store them by reference: Get must return
// exactly the value previously passed to Add, never a copy or a re-encoding.
package provider

// EvictFunc is called with the key of every entry the provider drops to
// stay within its bound. It is not called for Purge.
type EvictFunc func(key string)

// Provider is a bounded key/value store. Must be safe for concurrent use;
// an insertion and the eviction it causes happen as one step.
type Provider interface {
	// Get returns (value, true) on hit and marks the entry recently used.
	Get(key string) (any, bool)

	// Add stores value under key, evicting as needed.
	// Returns ok=false when the store declined the entry.
	Add(key string, value any) (ok bool)

	// Len is the number of entries held; Cap is the bound.
	Len() int
	Cap() int

	// OnEvict installs the eviction callback. Called once, before first use.
	OnEvict(fn EvictFunc)

	// Purge drops every entry.
	Purge()

	// Close releases resources.
	Close() error
}
