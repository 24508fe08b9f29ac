package cqlmap

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRegistered is returned for a fixed-tier lookup of a statement
	// that was never registered and is not being registered.
	ErrNotRegistered = errors.New("cqlmap: fixed statement not registered")
	ErrNilFactory    = errors.New("cqlmap: nil factory")
	ErrNilCompiler   = errors.New("cqlmap: no compiler configured")
	ErrClosed        = errors.New("cqlmap: cache closed")
)

type FixedMissError struct {
	Key FixedKey
}

func (e *FixedMissError) Error() string {
	return fmt.Sprintf("cqlmap: %s: fixed statement not registered; register it before first use", e.Key)
}

func (e *FixedMissError) Unwrap() error { return ErrNotRegistered }

// CloseError collects the failures of Close.
type CloseError struct {
	ProviderErr error
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("cqlmap: close: provider: %v", e.ProviderErr)
}

func (e *CloseError) Unwrap() []error {
	errs := make([]error, 0, 1)
	if e.ProviderErr != nil {
		errs = append(errs, e.ProviderErr)
	}
	return errs
}
