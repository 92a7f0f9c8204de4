package session

import (
	"context"

	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/bonus"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/engine"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/jackpot"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/payout"
)

// Snapshot is a read-only view of the whole session.
type Snapshot struct {
	PlayerID                 string         `json:"playerId"`
	GameCode                 string         `json:"gameCode"`
	Credits                  int            `json:"credits"`
	BetMultiplier            int            `json:"betMultiplier"`
	Bet                      int            `json:"bet"`
	JackpotEnabled           bool           `json:"jackpotEnabled"`
	Jackpot                  int64          `json:"jackpot"`
	JackpotPayout            int64          `json:"jackpotPayout"`
	LastJackpot              *jackpot.Claim `json:"lastJackpot,omitempty"`
	PayoutTable              []payout.Row   `json:"payoutTable"`
	Round                    engine.State   `json:"round"`
	Settings                 game.Settings  `json:"settings"`
	BonusOffer               bonus.State    `json:"bonusOffer"`
	Favorites                int            `json:"favorites"`
	GamesPlayed              int            `json:"gamesPlayed"`
	TotalBingos              int            `json:"totalBingos"`
	HasSeenGameModeSelection bool           `json:"hasSeenGameModeSelection"`
	Background               bool           `json:"background"`
}

// Snapshot returns the current state. It shares nothing with the session.
func (s *Session) Snapshot(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.unlock()
	snap := Snapshot{
		PlayerID:                 s.playerID,
		GameCode:                 s.variant.GameCode,
		Credits:                  s.credits,
		BetMultiplier:            s.betMultiplier,
		Bet:                      s.variant.Bet(s.betMultiplier),
		JackpotEnabled:           s.variant.JackpotEnabled(),
		PayoutTable:              s.calc.Table(s.betMultiplier),
		Round:                    s.machine.State(),
		Settings:                 s.machine.Settings(),
		BonusOffer:               s.bonus.State(),
		Favorites:                len(s.favorites),
		GamesPlayed:              s.gamesPlayed,
		TotalBingos:              s.totalBingos,
		HasSeenGameModeSelection: s.seenModes,
		Background:               s.background,
	}
	if snap.JackpotEnabled {
		snap.Jackpot = s.jackpotCount(ctx, s.betMultiplier)
		snap.JackpotPayout = snap.Jackpot * s.ledger.PayoutMultiplier()
	}
	if s.lastJackpot != nil {
		claim := *s.lastJackpot
		snap.LastJackpot = &claim
	}
	return snap
}
