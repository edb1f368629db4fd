package evolution

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Rand is the random source used for boosts, save sampling and the
// background generator. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// LockedRand makes a Rand safe for concurrent use.
type LockedRand struct {
	mu  sync.Mutex
	src Rand
}

// NewLockedRand wraps src. A nil src gets a PCG source seeded from the clock.
func NewLockedRand(src Rand) *LockedRand {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &LockedRand{src: src}
}

// NewSeededRand returns a deterministic, concurrency-safe Rand.
func NewSeededRand(seed uint64) *LockedRand {
	return NewLockedRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Float64 returns a value in [0.0, 1.0).
func (r *LockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float64()
}

// IntN returns a value in [0, n). It panics if n <= 0.
func (r *LockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.IntN(n)
}

// Uniform maps a Float64 draw onto [lo, hi). The sources in this package
// never return 1, so hi itself is never drawn.
func Uniform(r Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}
