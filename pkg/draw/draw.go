// Package draw produces the per-round call order.
package draw

import (
	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/random"
)

// Order returns a uniformly random prefix of a permutation of all, of length
// count. count is clamped to [0, len(all)]. all is not modified.
func Order(all []game.Space, count int, src random.Source) []game.Space {
	if count > len(all) {
		count = len(all)
	}
	if count < 0 {
		count = 0
	}
	pool := append([]game.Space(nil), all...)
	for i := 0; i < count; i++ {
		j := i + src.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:count:count]
}

// Queue hands out a draw order one space at a time.
type Queue struct {
	order []game.Space
	next  int
}

// NewQueue wraps an order.
func NewQueue(order []game.Space) *Queue {
	return &Queue{order: order}
}

// Next returns the next undrawn space.
func (q *Queue) Next() (game.Space, bool) {
	if q == nil || q.next >= len(q.order) {
		return game.Space{}, false
	}
	s := q.order[q.next]
	q.next++
	return s, true
}

// Len is the total length of the order.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.order)
}

// Remaining returns the undrawn spaces in order.
func (q *Queue) Remaining() []game.Space {
	if q == nil {
		return nil
	}
	return append([]game.Space(nil), q.order[q.next:]...)
}

// Drawn returns how many spaces have been handed out.
func (q *Queue) Drawn() int {
	if q == nil {
		return 0
	}
	return q.next
}
