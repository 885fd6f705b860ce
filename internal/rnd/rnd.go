// Package rnd provides the injectable randomness capability shared by every
// sampling component (traffic multiplier, drone planning, improvement
// estimates, forecast noise, monitoring perturbation). Identical inputs plus a
// fixed seed reproduce identical outputs.
package rnd

import (
	"math/rand"
	"sync"
)

type Sampler interface {
	// Float64 returns a uniform value in [0,1).
	Float64() float64
	// Uniform returns a uniform value in [lo,hi).
	Uniform(lo, hi float64) float64
	// IntN returns a uniform integer in [lo,hi).
	IntN(lo, hi int) int
	// Chance reports true with probability p.
	Chance(p float64) bool
}

type locked struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a seeded Sampler safe for concurrent use.
func New(seed int64) Sampler {
	return &locked{r: rand.New(rand.NewSource(seed))}
}

func (l *locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *locked) Uniform(lo, hi float64) float64 {
	return lo + l.Float64()*(hi-lo)
}

func (l *locked) IntN(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return lo + l.r.Intn(hi-lo)
}

func (l *locked) Chance(p float64) bool {
	return l.Float64() < p
}

// Const returns a Sampler whose underlying uniform draw is always v.
// Tests use it to pin sampled values.
func Const(v float64) Sampler { return constSampler(v) }

type constSampler float64

func (c constSampler) Float64() float64 { return float64(c) }

func (c constSampler) Uniform(lo, hi float64) float64 { return lo + float64(c)*(hi-lo) }

func (c constSampler) IntN(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + int(float64(c)*float64(hi-lo))
}

func (c constSampler) Chance(p float64) bool { return float64(c) < p }
