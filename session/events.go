package session

import (
	"time"

	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/bonus"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/jackpot"
)

// EventType names a session event pushed to listeners.
type EventType string

const (
	EventRoundStarted     EventType = "round_started"
	EventSpaceRevealed    EventType = "space_revealed"
	EventSpaceMarked      EventType = "space_marked"
	EventWinningsChanged  EventType = "winnings_changed"
	EventLastCallStarted  EventType = "last_call_started"
	EventCountdownChanged EventType = "countdown_changed"
	EventRoundFinished    EventType = "round_finished"
	EventJackpotWon       EventType = "jackpot_won"
	EventCreditsChanged   EventType = "credits_changed"
	EventBetChanged       EventType = "bet_changed"
	EventBonusChanged     EventType = "bonus_changed"
	EventCardsChanged     EventType = "cards_changed"
	EventSettingsChanged  EventType = "settings_changed"
)

// Event is one change notification.
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// RoundStarted is the data of EventRoundStarted.
type RoundStarted struct {
	RoundID        string `json:"roundId"`
	BetMultiplier  int    `json:"betMultiplier"`
	Bet            int    `json:"bet"`
	SpacesToReveal int    `json:"spacesToReveal"`
}

// SpaceRevealed is the data of EventSpaceRevealed.
type SpaceRevealed struct {
	Space     game.Space `json:"space"`
	Called    int        `json:"called"`
	Remaining int        `json:"remaining"`
}

// SpaceMarked is the data of EventSpaceMarked.
type SpaceMarked struct {
	CardID string     `json:"cardId"`
	Space  game.Space `json:"space"`
	Auto   bool       `json:"auto"`
}

// WinningsChanged is the data of EventWinningsChanged.
type WinningsChanged struct {
	Bingos   int `json:"bingos"`
	Winnings int `json:"winnings"`
}

// Countdown is the data of EventLastCallStarted and EventCountdownChanged.
type Countdown struct {
	Remaining int `json:"remaining"`
}

// RoundSummary is the data of EventRoundFinished.
type RoundSummary struct {
	RoundID           string `json:"roundId"`
	BetMultiplier     int    `json:"betMultiplier"`
	Bet               int    `json:"bet"`
	Called            int    `json:"called"`
	Bingos            int    `json:"bingos"`
	Winnings          int    `json:"winnings"`
	Blackout          bool   `json:"blackout"`
	LastCallRemaining int    `json:"lastCallRemaining"`
	Credits           int    `json:"credits"`
	BonusDraws        int    `json:"bonusDraws"`
}

// Credits is the data of EventCreditsChanged.
type Credits struct {
	Credits int `json:"credits"`
	Delta   int `json:"delta"`
}

// BetChanged is the data of EventBetChanged.
type BetChanged struct {
	BetMultiplier int   `json:"betMultiplier"`
	Bet           int   `json:"bet"`
	Jackpot       int64 `json:"jackpot"`
}

// BonusChanged is the data of EventBonusChanged.
type BonusChanged struct {
	Offer             bonus.State `json:"offer"`
	PendingBonusDraws int         `json:"pendingBonusDraws"`
}

// JackpotWon is the data of EventJackpotWon.
type JackpotWon struct {
	RoundID string        `json:"roundId"`
	Claim   jackpot.Claim `json:"claim"`
}

func (s *Session) emit(t EventType, data interface{}) {
	s.broad.Send(Event{Type: t, Data: data, Timestamp: s.clock.Now()})
}
