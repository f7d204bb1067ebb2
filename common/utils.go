package common

import "cmp"

// Coalesce returns the first non-zero value, or the zero value if every value is zero.
//
// Parameters:
//   - values: candidates in priority order
//
// Returns:
//   - T: the first non-zero candidate
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Clamp limits v to the closed range [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// CeilDiv returns ceil(a / b) for positive integers.
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}
