package cqlmap

import "context"

// Statement is a compiled statement. Prepared holds whatever the store
// client returned when preparing Text (typically a driver handle); it is
// opaque to this package.
type Statement struct {
	Text     string
	Prepared any
}

// Compiler prepares statement text against the store.
type Compiler interface {
	Compile(ctx context.Context, text string) (any, error)
}

// CompilerFunc adapts a function to Compiler.
type CompilerFunc func(ctx context.Context, text string) (any, error)

func (f CompilerFunc) Compile(ctx context.Context, text string) (any, error) { return f(ctx, text) }

// Factory compiles a statement on a cache miss. It is the only call in the
// write path that may block on the store.
type Factory func(ctx context.Context) (*Statement, error)
