// Package randsrc abstracts the stochastic draws used by the simulation so
// tests can replay exact tick outcomes.
package randsrc

import "math/rand"

// Source is the set of random draws the simulation needs.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// NormFloat64 returns a standard normal value (mean 0, stddev 1).
	NormFloat64() float64
	// Intn returns a uniform value in [0, n).
	Intn(n int) int
}

// New returns a Source backed by math/rand seeded with seed.
func New(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// Uniform returns a value uniformly distributed in [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Gaussian returns a normally distributed value with the given mean and
// standard deviation.
func Gaussian(src Source, mean, stddev float64) float64 {
	return mean + src.NormFloat64()*stddev
}

// Chance reports whether an event with probability p happened.
func Chance(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	return src.Float64() < p
}

// Pick returns a random element of items. It returns the zero value when
// items is empty.
func Pick[T any](src Source, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[src.Intn(len(items))]
}
