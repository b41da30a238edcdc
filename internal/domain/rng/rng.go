// Package rng provides the seeded pseudo-random stream behind every
// probabilistic decision of a night.
// This package is PURE and must NOT import any infrastructure packages.
package rng

// zeroSeedFallback replaces a zero seed, which is a fixed point of xorshift.
const zeroSeedFallback uint32 = 0x9E3779B9

// RNG is a xorshift32 generator. The same seed and the same call sequence
// always reproduce the same draws.
type RNG struct {
	state uint32
	seed  uint32
}

// New creates a generator from a 32-bit seed.
func New(seed uint32) *RNG {
	r := &RNG{}
	r.Reseed(seed)
	return r
}

// Reseed restarts the stream from a new seed.
func (r *RNG) Reseed(seed uint32) {
	r.seed = seed
	if seed == 0 {
		seed = zeroSeedFallback
	}
	r.state = seed
}

// Seed returns the seed the current stream started from.
func (r *RNG) Seed() uint32 {
	return r.seed
}

// Next advances the state and returns a float in [0,1).
func (r *RNG) Next() float64 {
	x := r.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.state = x
	return float64(x) / 4294967296.0
}

// Range returns a float in [min,max).
func (r *RNG) Range(min, max float64) float64 {
	return min + (max-min)*r.Next()
}
