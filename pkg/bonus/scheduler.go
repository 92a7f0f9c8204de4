// Package bonus schedules the rewarded bonus-draw offers and rolls the
// consolation bonus balls granted after a round.
package bonus

import (
	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/random"
)

// State is the observable offer state.
type State struct {
	// Offer is the number of extra draws on offer, 0 when none.
	Offer          int `json:"offer"`
	GamesRemaining int `json:"gamesRemaining"`
	Cooldown       int `json:"cooldown"`
}

// Active reports whether an offer can be accepted.
func (s State) Active() bool {
	return s.Offer > 0 && s.GamesRemaining > 0
}

// Scheduler walks the none → offer → cooldown → none cycle once per round.
// It is not safe for concurrent use.
type Scheduler struct {
	cfg   game.BonusOfferConfig
	balls game.BonusBallsConfig
	src   random.Source
	state State
}

// NewScheduler creates a scheduler with no offer and no cooldown.
func NewScheduler(cfg game.BonusOfferConfig, balls game.BonusBallsConfig, src random.Source) *Scheduler {
	return &Scheduler{cfg: cfg, balls: balls, src: src}
}

// State returns the current state.
func (s *Scheduler) State() State {
	return s.state
}

// Advance moves the schedule on by one round. A new offer is only created
// from the idle state, and only when a reward can be shown.
func (s *Scheduler) Advance(rewardAvailable bool) State {
	switch {
	case s.state.GamesRemaining > 0:
		s.state.GamesRemaining--
		if s.state.GamesRemaining == 0 {
			s.state.Offer = 0
			s.state.Cooldown = random.Between(s.src, s.cfg.CooldownMin, s.cfg.CooldownMax)
		}
	case s.state.Cooldown > 0:
		s.state.Cooldown--
	case rewardAvailable && s.cfg.Games > 0:
		if size, ok := random.Pick(s.src, s.cfg.Sizes); ok && size > 0 {
			s.state.Offer = size
			s.state.GamesRemaining = s.cfg.Games
		}
	}
	return s.state
}

// Accept takes the offer and clears it so it cannot be claimed twice. The
// offer window keeps counting down, so the cooldown still starts when it
// would have expired.
func (s *Scheduler) Accept() (int, bool) {
	if !s.state.Active() {
		return 0, false
	}
	size := s.state.Offer
	s.state.Offer = 0
	return size, true
}

// Consolation rolls the bonus balls granted at the end of a round without a
// pending offer. It returns 0 when nothing is granted.
func (s *Scheduler) Consolation() int {
	if s.state.Active() {
		return 0
	}
	if !random.Chance(s.src, s.balls.ChancePercent) {
		return 0
	}
	n, _ := random.Pick(s.src, s.balls.Sizes)
	return n
}
