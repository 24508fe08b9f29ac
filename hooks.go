package cqlmap

import (
	"fmt"
	"time"
)

// Tier names one of the two statement tiers.
type Tier uint8

const (
	TierFixed Tier = iota + 1
	TierDynamic
)

func (t Tier) String() string {
	switch t {
	case TierFixed:
		return "fixed"
	case TierDynamic:
		return "dynamic"
	}
	return fmt.Sprintf("Tier(%d)", uint8(t))
}

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
//
// key is the binary fingerprint of the statement key; use ParseFingerprint
// to inspect a dynamic one.
type Hooks interface {
	// A factory produced a statement; the tier stores it next.
	Compiled(tier Tier, key string, took time.Duration)

	// A factory failed. Nothing was stored.
	CompileFailed(tier Tier, key string, err error)

	// Reported after every dynamic-tier insertion.
	DynamicStats(s Stats)

	// Dynamic-tier occupancy is above the pressure threshold after an
	// insertion. Fires on every such insertion.
	CapacityPressure(s Stats)

	// A dynamic statement was dropped to respect the bound.
	Evicted(key string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Compiled(Tier, string, time.Duration) {}
func (NopHooks) CompileFailed(Tier, string, error)    {}
func (NopHooks) DynamicStats(Stats)                   {}
func (NopHooks) CapacityPressure(Stats)               {}
func (NopHooks) Evicted(string)                       {}
