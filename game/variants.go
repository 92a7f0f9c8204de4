package game

import (
	"strconv"
	"time"

	"github.com/samber/lo"
)

const (
	// Bingo47Code is the canonical 3×3 variant with the progressive jackpot.
	Bingo47Code = "bingo47"
	// Classic75Code is the 5×5 variant with a free center.
	Classic75Code = "classic75"
)

func init() {
	Register(Bingo47())
	Register(Classic75())
}

var defaultMultipliers = []int{1, 2, 5, 10, 25, 100, 500, 1000, 5000, 10000, 25000, 100000, 1000000, 10000000}

func defaultPacks() []CreditPack {
	return []CreditPack{
		{ProductID: "com.gudmilk.bingotap.credits.tier1", Credits: 10000},
		{ProductID: "com.gudmilk.bingotap.credits.tier2", Credits: 100000},
		{ProductID: "com.gudmilk.bingotap.credits.tier3", Credits: 1000000},
	}
}

func defaultPayout() PayoutConfig {
	return PayoutConfig{
		PartialPercent: 50,
		PartialMax:     2,
		Tiers: []PayoutTier{
			{Bingos: 3, Multiplier: 2},
			{Bingos: 4, Multiplier: 3},
			{Bingos: 5, Multiplier: 5},
			{Bingos: 6, Multiplier: 10},
			{Bingos: 7, Multiplier: 20},
			{Bingos: 8, Multiplier: 47},
		},
		ExponentOffset: 5,
	}
}

// classicPayout keeps the tail above the 8-bingo tier, since a 5×5 card has
// twelve lines.
func classicPayout() PayoutConfig {
	p := defaultPayout()
	p.ExponentOffset = 3
	return p
}

// Bingo47 returns the 3×3 bonus variant: thirty labels in five bands of six,
// with "47" always in the center cell.
func Bingo47() *Config {
	var labels []string
	for _, start := range []int{1, 16, 31, 46, 61} {
		for n := start; n < start+6; n++ {
			labels = append(labels, strconv.Itoa(n))
		}
	}
	return &Config{
		GameCode:        Bingo47Code,
		GameName:        "Bingo 47",
		Layout:          LayoutBonus,
		Rows:            3,
		Cols:            3,
		Labels:          labels,
		BonusLabel:      "47",
		BaseBet:         100,
		BaseDraws:       15,
		BetMultipliers:  append([]int(nil), defaultMultipliers...),
		LastCallSeconds: 10,
		StartDelay:      500 * time.Millisecond,
		StartingCredits: 500,
		RefillAmount:    10000,
		CreditPacks:     defaultPacks(),
		Payout:          defaultPayout(),
		Jackpot:         JackpotConfig{Enabled: lo.ToPtr(true), Multiplier: 47, BaselineFactor: 20},
		BonusOffer:      BonusOfferConfig{Sizes: []int{5, 5, 5, 6, 6, 7}, Games: 3, CooldownMin: 5, CooldownMax: 10},
		BonusBalls:      BonusBallsConfig{ChancePercent: 75, Sizes: []int{1, 2, 2, 3, 3}},
		LeaderboardID:   "bingo47.credits",
	}
}

// Classic75 returns the 5×5 lines variant: labels 1-75, fifteen per column,
// and a free center cell.
func Classic75() *Config {
	labels := make([]string, 0, 75)
	for n := 1; n <= 75; n++ {
		labels = append(labels, strconv.Itoa(n))
	}
	return &Config{
		GameCode:        Classic75Code,
		GameName:        "Classic 75",
		Layout:          LayoutLines,
		Rows:            5,
		Cols:            5,
		Labels:          labels,
		FreeSpace:       true,
		FreeSpaceLabel:  "FREE",
		BaseBet:         100,
		BaseDraws:       30,
		BetMultipliers:  append([]int(nil), defaultMultipliers...),
		LastCallSeconds: 10,
		StartDelay:      500 * time.Millisecond,
		StartingCredits: 500,
		RefillAmount:    10000,
		CreditPacks:     defaultPacks(),
		Payout:          classicPayout(),
		BonusOffer:      BonusOfferConfig{Sizes: []int{5, 5, 5, 6, 6, 7}, Games: 3, CooldownMin: 5, CooldownMax: 10},
		BonusBalls:      BonusBallsConfig{ChancePercent: 75, Sizes: []int{1, 2, 2, 3, 3}},
		LeaderboardID:   "classic75.credits",
	}
}
