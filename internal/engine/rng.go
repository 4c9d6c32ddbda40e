package engine

import "math/rand"

// RNG is the randomness capability the engine depends on. Next never reads
// from the global math/rand source directly; callers inject an RNG so that
// replaying a command sequence against the same seed is reproducible.
type RNG interface {
	// Shuffle permutes n elements via swap, following math/rand.Shuffle's
	// contract.
	Shuffle(n int, swap func(i, j int))
	// Intn returns a pseudo-random number in [0, n).
	Intn(n int) int
}

// Rand adapts *rand.Rand to RNG.
type Rand struct {
	r *rand.Rand
}

// NewRand returns an RNG seeded deterministically from seed.
func NewRand(seed int64) *Rand {
	return &Rand{r: rand.New(rand.NewSource(seed))}
}

func (r *Rand) Shuffle(n int, swap func(i, j int)) { r.r.Shuffle(n, swap) }
func (r *Rand) Intn(n int) int                     { return r.r.Intn(n) }
