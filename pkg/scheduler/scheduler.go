// Package scheduler runs repeating callbacks that can be cancelled, paused and
// resumed without losing the time already elapsed.
package scheduler

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Scheduler creates repeating timers on a clock.
type Scheduler struct {
	clock clock.Clock
}

// New creates a scheduler. A nil clock uses the wall clock.
func New(c clock.Clock) *Scheduler {
	if c == nil {
		c = clock.New()
	}
	return &Scheduler{clock: c}
}

// Clock returns the underlying clock.
func (s *Scheduler) Clock() clock.Clock {
	return s.clock
}

type tokenState int

const (
	stateActive tokenState = iota
	statePaused
	stateCancelled
)

// Token controls one repeating callback.
type Token struct {
	mu        sync.Mutex
	clock     clock.Clock
	interval  time.Duration
	fn        func()
	timer     *clock.Timer
	gen       uint64
	due       time.Time
	remaining time.Duration
	state     tokenState
}

// Every calls fn after delay and then every interval until the token is
// cancelled. fn runs on the timer goroutine, outside the token lock.
func (s *Scheduler) Every(delay, interval time.Duration, fn func()) *Token {
	t := &Token{
		clock:    s.clock,
		interval: interval,
		fn:       fn,
	}
	t.mu.Lock()
	t.arm(delay)
	t.mu.Unlock()
	return t
}

// arm must be called with mu held.
func (t *Token) arm(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.gen++
	gen := t.gen
	t.due = t.clock.Now().Add(d)
	t.timer = t.clock.AfterFunc(d, func() { t.fire(gen) })
}

func (t *Token) fire(gen uint64) {
	t.mu.Lock()
	if t.state != stateActive || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.arm(t.interval)
	fn := t.fn
	t.mu.Unlock()

	fn()
}

func (t *Token) stop() {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Cancel stops the callback for good. It is safe to call more than once.
func (t *Token) Cancel() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stop()
	t.state = stateCancelled
}

// Pause stops the timer and keeps the time left until the next call.
func (t *Token) Pause() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != stateActive {
		return
	}
	t.remaining = t.due.Sub(t.clock.Now())
	if t.remaining < 0 {
		t.remaining = 0
	}
	t.stop()
	t.state = statePaused
}

// Resume re-arms a paused timer with the time that was left when it paused.
func (t *Token) Resume() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != statePaused {
		return
	}
	t.state = stateActive
	t.arm(t.remaining)
}

// Remaining returns the time until the next call.
func (t *Token) Remaining() time.Duration {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case stateActive:
		if d := t.due.Sub(t.clock.Now()); d > 0 {
			return d
		}
		return 0
	case statePaused:
		return t.remaining
	default:
		return 0
	}
}

// Active reports whether the callback is scheduled.
func (t *Token) Active() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == stateActive
}

// Paused reports whether the token is paused.
func (t *Token) Paused() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == statePaused
}
