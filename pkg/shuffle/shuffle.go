// Package shuffle provides a uniform Fisher-Yates shuffle over an injectable
// random source, so callers can pin a seed in tests and assert exact orders.
package shuffle

import "math/rand"

// Slice shuffles items in place.
func Slice[T any](r *rand.Rand, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// Clone returns a shuffled copy, leaving the input untouched.
func Clone[T any](r *rand.Rand, items []T) []T {
	out := append([]T{}, items...)
	Slice(r, out)
	return out
}
