package engine

import (
	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/google/uuid"
)

// Event is an input to the machine.
type Event interface {
	event()
}

// Begin starts a round with the given balance and bet multiplier.
type Begin struct {
	Credits       int
	BetMultiplier int
}

// Tick is one reveal timer firing.
type Tick struct {
	Epoch uint64
}

// CountdownTick is one last-call timer firing.
type CountdownTick struct {
	Epoch uint64
}

// Mark is the player marking a space on a card.
type Mark struct {
	CardID  uuid.UUID
	SpaceID string
}

// Reset abandons any round in progress and invalidates its timers.
type Reset struct{}

// SetCards replaces the cards in play. Only allowed between rounds.
type SetCards struct {
	Cards []*game.Card
}

// UpdateSettings replaces the player settings.
type UpdateSettings struct {
	Settings game.Settings
}

// GrantBonusDraws adds extra draws to the next round.
type GrantBonusDraws struct {
	N int
}

func (Begin) event()           {}
func (Tick) event()            {}
func (CountdownTick) event()   {}
func (Mark) event()            {}
func (Reset) event()           {}
func (SetCards) event()        {}
func (UpdateSettings) event()  {}
func (GrantBonusDraws) event() {}
