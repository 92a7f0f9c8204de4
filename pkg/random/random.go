// Package random provides the injectable random source used by card
// generation, draw ordering and bonus rolls.
package random

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source returns uniformly distributed integers in [0, n). n must be positive.
type Source interface {
	IntN(n int) int
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// New returns a deterministic source for the given seed. It is safe for
// concurrent use.
func New(seed uint64) Source {
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewTimeSeeded returns a source seeded from the wall clock.
func NewTimeSeeded() Source {
	return New(uint64(time.Now().UnixNano()))
}

// Shuffle permutes s in place with Fisher-Yates.
func Shuffle[T any](src Source, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// Pick returns a uniformly chosen element of s. It returns the zero value and
// false for an empty slice.
func Pick[T any](src Source, s []T) (T, bool) {
	var zero T
	if len(s) == 0 {
		return zero, false
	}
	return s[src.IntN(len(s))], true
}

// Between returns a uniform integer in [lo, hi]. hi < lo returns lo.
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}

// Chance reports true with the given percent probability.
func Chance(src Source, percent int) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	return src.IntN(100) < percent
}

// Sequence replays scripted values, reduced modulo n. Once exhausted it keeps
// returning 0. It is meant for tests.
type Sequence struct {
	mu     sync.Mutex
	values []int
	pos    int
}

// NewSequence creates a scripted source.
func NewSequence(values ...int) *Sequence {
	return &Sequence{values: values}
}

// IntN implements Source.
func (s *Sequence) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.values) {
		return 0
	}
	v := s.values[s.pos]
	s.pos++
	if v < 0 {
		v = -v
	}
	return v % n
}

// Remaining returns how many scripted values are left.
func (s *Sequence) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values) - s.pos
}
