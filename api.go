package cqlmap

import (
	"fmt"

	"github.com/unkn0wn-root/cqlmap/provider"
	"github.com/unkn0wn-root/cqlmap/provider/lru"
)

// Options tune the statement cache.
// Nothing is required; Compiler is needed only by Prepare.
type Options struct {
	MaxDynamic        int               // dynamic tier bound; 0 => 10000 (ignored when Provider is set)
	PressureThreshold float64           // occupancy ratio that triggers a pressure signal; 0 => 0.8
	Provider          provider.Provider // dynamic tier store; nil => exact LRU of MaxDynamic entries
	Compiler          Compiler          // used by Prepare
	Logger            Logger            // if nil, NopLogger is used
	Hooks             Hooks             // if nil, NopHooks is used
}

func New(opts Options) (*Cache, error) {
	if opts.MaxDynamic < 0 {
		return nil, fmt.Errorf("cqlmap: negative MaxDynamic %d", opts.MaxDynamic)
	}
	if opts.PressureThreshold < 0 || opts.PressureThreshold > 1 {
		return nil, fmt.Errorf("cqlmap: pressure threshold %v outside [0, 1]", opts.PressureThreshold)
	}

	p := opts.Provider
	if p == nil {
		var err error
		if p, err = lru.New(coalesce(opts.MaxDynamic, defaultMaxDynamic)); err != nil {
			return nil, err
		}
	}
	return newCache(opts, p), nil
}
