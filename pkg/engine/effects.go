package engine

import (
	"time"

	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	"github.com/google/uuid"
)

// Effect is an output of the machine for the caller to carry out.
type Effect interface {
	effect()
}

// Reason explains a rejected event.
type Reason string

const (
	ReasonRoundInProgress      Reason = "round_in_progress"
	ReasonRoundNotActive       Reason = "round_not_active"
	ReasonInsufficientCredits  Reason = "insufficient_credits"
	ReasonInvalidBetMultiplier Reason = "invalid_bet_multiplier"
	ReasonNoCards              Reason = "no_cards"
	ReasonCardNotFound         Reason = "card_not_found"
	ReasonSpaceNotCalled       Reason = "space_not_called"
	ReasonSpaceNotOnCard       Reason = "space_not_on_card"
)

// Debit takes the bet from the balance.
type Debit struct {
	Amount int
}

// Credit adds round winnings to the balance.
type Credit struct {
	Amount int
}

// CreditJackpot asks the ledger to credit the entry for a bet multiplier.
type CreditJackpot struct {
	BetMultiplier int
}

// ClaimJackpot asks the ledger to pay out and reset the entry for a bet multiplier.
type ClaimJackpot struct {
	BetMultiplier int
	RoundID       uuid.UUID
}

// StartReveal arms the reveal timer: first Tick after Delay, then every Interval.
type StartReveal struct {
	Epoch    uint64
	Delay    time.Duration
	Interval time.Duration
}

// StopReveal cancels the reveal timer.
type StopReveal struct {
	Epoch uint64
}

// StartCountdown arms the last-call timer.
type StartCountdown struct {
	Epoch    uint64
	Interval time.Duration
}

// StopCountdown cancels the last-call timer.
type StopCountdown struct {
	Epoch uint64
}

// Revealed reports a newly called space.
type Revealed struct {
	Space     game.Space
	Called    int
	Remaining int
}

// Marked reports a newly marked space.
type Marked struct {
	CardID uuid.UUID
	Space  game.Space
	Auto   bool
}

// WinningsChanged reports a new bingo total.
type WinningsChanged struct {
	Bingos   int
	Winnings int
}

// LastCallStarted reports the start of the grace period.
type LastCallStarted struct {
	Seconds int
}

// CountdownChanged reports the seconds left in last call.
type CountdownChanged struct {
	Remaining int
}

// RoundFinished summarises a finalized round.
type RoundFinished struct {
	RoundID           uuid.UUID
	BetMultiplier     int
	Bet               int
	Called            int
	Bingos            int
	Winnings          int
	Blackout          bool
	LastCallRemaining int
}

// Rejected reports an event that changed nothing.
type Rejected struct {
	Reason Reason
}

// Cue asks for sound and haptic feedback. Either field may be empty.
type Cue struct {
	Sound  providers.Sound
	Haptic providers.Haptic
}

// Speak asks for a space to be called aloud.
type Speak struct {
	Text string
}

func (Debit) effect()            {}
func (Credit) effect()           {}
func (CreditJackpot) effect()    {}
func (ClaimJackpot) effect()     {}
func (StartReveal) effect()      {}
func (StopReveal) effect()       {}
func (StartCountdown) effect()   {}
func (StopCountdown) effect()    {}
func (Revealed) effect()         {}
func (Marked) effect()           {}
func (WinningsChanged) effect()  {}
func (LastCallStarted) effect()  {}
func (CountdownChanged) effect() {}
func (RoundFinished) effect()    {}
func (Rejected) effect()         {}
func (Cue) effect()              {}
func (Speak) effect()            {}
