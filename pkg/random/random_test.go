package random

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsDeterministic(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.IntN(1000), b.IntN(1000))
	}
}

func TestShuffleKeepsElements(t *testing.T) {
	s := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	Shuffle(New(7), s)
	sorted := append([]int(nil), s...)
	sort.Ints(sorted)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, sorted)
}

func TestPick(t *testing.T) {
	v, ok := Pick(NewSequence(2), []string{"a", "b", "c"})
	assert.True(t, ok)
	assert.Equal(t, "c", v)

	_, ok = Pick(New(1), []string{})
	assert.False(t, ok)
}

func TestBetween(t *testing.T) {
	src := New(3)
	for i := 0; i < 200; i++ {
		v := Between(src, 5, 10)
		assert.GreaterOrEqual(t, v, 5)
		assert.LessOrEqual(t, v, 10)
	}
	assert.Equal(t, 4, Between(src, 4, 4))
	assert.Equal(t, 4, Between(src, 4, 1))
}

func TestChance(t *testing.T) {
	assert.True(t, Chance(NewSequence(74), 75))
	assert.False(t, Chance(NewSequence(75), 75))
	assert.False(t, Chance(New(1), 0))
	assert.True(t, Chance(New(1), 100))
}

func TestSequence(t *testing.T) {
	s := NewSequence(3, 10, -4)
	assert.Equal(t, 3, s.Remaining())
	assert.Equal(t, 3, s.IntN(5))
	assert.Equal(t, 0, s.IntN(5))
	assert.Equal(t, 4, s.IntN(5))
	assert.Equal(t, 0, s.IntN(5), "exhausted sequence returns 0")
	assert.Zero(t, s.Remaining())
}
