// Package payout maps bingo counts to winnings.
package payout

import (
	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Row is one line of the displayed payout table.
type Row struct {
	BingoCount int `json:"bingoCount"`
	WinAmount  int `json:"winAmount"`
}

// Calculator evaluates the piecewise payout curve of a variant.
type Calculator struct {
	baseBet  int
	patterns int
	cfg      game.PayoutConfig
	tiers    map[int]int
}

// NewCalculator builds a calculator for a variant with the given number of patterns.
func NewCalculator(cfg *game.Config, patterns int) *Calculator {
	return &Calculator{
		baseBet:  cfg.BaseBet,
		patterns: patterns,
		cfg:      cfg.Payout,
		tiers: lo.SliceToMap(cfg.Payout.Tiers, func(t game.PayoutTier) (int, int) {
			return t.Bingos, t.Multiplier
		}),
	}
}

// Calculate returns the payout for a bingo count at the given bet.
//
//	k <= PartialMax      bet × k × PartialPercent / 100
//	k in Tiers           bet × multiplier
//	otherwise            bet × 2^(k-ExponentOffset)
func (c *Calculator) Calculate(bingos, bet int) int {
	if bingos <= 0 || bet <= 0 {
		return 0
	}
	if bingos <= c.cfg.PartialMax {
		return bet * (bingos * c.cfg.PartialPercent) / 100
	}
	if m, ok := c.tiers[bingos]; ok {
		return bet * m
	}
	shift := bingos - c.cfg.ExponentOffset
	if shift < 0 {
		// gaps below the exponential tail pay like the largest tier beneath them
		return bet * c.highestTierBelow(bingos)
	}
	return bet << uint(shift)
}

func (c *Calculator) highestTierBelow(bingos int) int {
	best := 0
	bestAt := 0
	for k, m := range c.tiers {
		if k < bingos && k > bestAt {
			best, bestAt = m, k
		}
	}
	return best
}

// Table returns the payout rows for 1..patterns bingos at a bet multiplier.
func (c *Calculator) Table(betMultiplier int) []Row {
	bet := c.baseBet * betMultiplier
	rows := make([]Row, 0, c.patterns)
	for k := 1; k <= c.patterns; k++ {
		rows = append(rows, Row{BingoCount: k, WinAmount: c.Calculate(k, bet)})
	}
	return rows
}

// Lookup returns the table value for a bingo count, or 0 outside the table.
func Lookup(table []Row, bingos int) int {
	row, ok := lo.Find(table, func(r Row) bool { return r.BingoCount == bingos })
	if !ok {
		return 0
	}
	return row.WinAmount
}

// ReturnToPlayer is total won over total bet, rounded to four places.
func ReturnToPlayer(totalWon, totalBet decimal.Decimal) decimal.Decimal {
	if totalBet.IsZero() {
		return decimal.Zero
	}
	return totalWon.DivRound(totalBet, 4)
}
