package cqlmap

const (
	defaultMaxDynamic        = 10000
	defaultPressureThreshold = 0.8
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
