package bonus

import (
	"testing"

	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/random"
	"github.com/stretchr/testify/assert"
)

func newScheduler(src random.Source) *Scheduler {
	cfg := game.Bingo47()
	return NewScheduler(cfg.BonusOffer, cfg.BonusBalls, src)
}

func TestOfferLifecycle(t *testing.T) {
	// 5 → sizes[5] = 7, then cooldown 5 + 3 = 8
	s := newScheduler(random.NewSequence(5, 3))

	st := s.Advance(false)
	assert.Equal(t, State{}, st, "no offer without an available reward")

	st = s.Advance(true)
	assert.Equal(t, State{Offer: 7, GamesRemaining: 3}, st)
	assert.True(t, st.Active())

	s.Advance(true)
	st = s.Advance(true)
	assert.Equal(t, State{Offer: 7, GamesRemaining: 1}, st)

	st = s.Advance(true)
	assert.Equal(t, State{Cooldown: 8}, st, "expired offer starts a cooldown")
	assert.False(t, st.Active())

	for i := 7; i >= 0; i-- {
		st = s.Advance(true)
		assert.Equal(t, i, st.Cooldown)
		assert.Zero(t, st.Offer, "no offer while cooling down")
	}
}

func TestCooldownStaysInRange(t *testing.T) {
	s := newScheduler(random.New(4))
	for i := 0; i < 500; i++ {
		st := s.Advance(true)
		assert.LessOrEqual(t, st.Cooldown, 10)
		assert.GreaterOrEqual(t, st.Cooldown, 0)
		if st.Offer > 0 {
			assert.Contains(t, []int{5, 6, 7}, st.Offer)
		}
	}
}

func TestAcceptClearsOffer(t *testing.T) {
	s := newScheduler(random.NewSequence(0, 2))
	_, ok := s.Accept()
	assert.False(t, ok, "nothing to accept")

	s.Advance(true)
	n, ok := s.Accept()
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	_, ok = s.Accept()
	assert.False(t, ok, "offer cannot be claimed twice")
	assert.Equal(t, State{GamesRemaining: 3}, s.State())

	s.Advance(true)
	s.Advance(true)
	st := s.Advance(true)
	assert.Equal(t, State{Cooldown: 7}, st, "window expiry still starts the cooldown")
}

func TestConsolation(t *testing.T) {
	// chance roll 10 < 75, then sizes[4] = 3
	s := newScheduler(random.NewSequence(10, 4))
	assert.Equal(t, 3, s.Consolation())

	// chance roll 80 fails
	s = newScheduler(random.NewSequence(80))
	assert.Zero(t, s.Consolation())

	// pending offer suppresses the roll
	s = newScheduler(random.NewSequence(0, 0, 0))
	s.Advance(true)
	assert.Zero(t, s.Consolation())
}
