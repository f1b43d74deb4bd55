// Package mathx holds the small generic comparisons the drivers use for
// range checks and fixed-point clamping.
package mathx

import "golang.org/x/exp/constraints"

func Min[T constraints.Ordered](a, b T) T {
	if b < a {
		return b
	}
	return a
}

func Max[T constraints.Ordered](a, b T) T {
	if b > a {
		return b
	}
	return a
}

// Clamp limits v to [lo, hi]. Swapped bounds are tolerated.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	return Max(lo, Min(v, hi))
}

// Between reports lo <= v <= hi. Swapped bounds are tolerated.
func Between[T constraints.Ordered](v, lo, hi T) bool {
	return Clamp(v, lo, hi) == v
}
