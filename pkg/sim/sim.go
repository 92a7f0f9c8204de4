// Package sim plays rounds headless against the round engine and reports the
// return to player of a variant. Every round is played with auto-mark and
// graceful bingos, so the player never misses a called space.
package sim

import (
	"context"
	"fmt"

	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/bonus"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/card"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/engine"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/jackpot"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/payout"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/random"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Config configures a simulation run.
type Config struct {
	Variant       *game.Config
	BetMultiplier int
	Rounds        int
	// Cards is the number of cards in play, default 1.
	Cards int
	// Source defaults to a time seeded source.
	Source random.Source
	Logger zerolog.Logger
}

// Report summarises a run. Money values are in credits.
type Report struct {
	GameCode      string      `yaml:"game_code" json:"gameCode"`
	Rounds        int         `yaml:"rounds" json:"rounds"`
	BetMultiplier int         `yaml:"bet_multiplier" json:"betMultiplier"`
	Bet           int         `yaml:"bet" json:"bet"`
	Cards         int         `yaml:"cards" json:"cards"`
	TotalBet      int64       `yaml:"total_bet" json:"totalBet"`
	TotalWon      int64       `yaml:"total_won" json:"totalWon"`
	Winnings      int64       `yaml:"winnings" json:"winnings"`
	JackpotWins   int         `yaml:"jackpot_wins" json:"jackpotWins"`
	JackpotPaid   int64       `yaml:"jackpot_paid" json:"jackpotPaid"`
	BonusDraws    int         `yaml:"bonus_draws" json:"bonusDraws"`
	Bingos        map[int]int `yaml:"bingos" json:"bingos"`
	RTP           string      `yaml:"rtp" json:"rtp"`
}

// Run plays cfg.Rounds rounds. Each round is funded with exactly the bet, so
// the balance never limits the run.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if cfg.Variant == nil {
		return nil, fmt.Errorf("sim: variant is required")
	}
	if !cfg.Variant.HasMultiplier(cfg.BetMultiplier) {
		return nil, fmt.Errorf("sim: bet multiplier %d is not offered by %s", cfg.BetMultiplier, cfg.Variant.GameCode)
	}
	if cfg.Rounds <= 0 {
		return nil, fmt.Errorf("sim: rounds must be positive")
	}
	if cfg.Cards <= 0 {
		cfg.Cards = 1
	}
	if cfg.Source == nil {
		cfg.Source = random.NewTimeSeeded()
	}

	machine, err := engine.New(engine.Config{Variant: cfg.Variant, Source: cfg.Source})
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	gen, err := card.NewGenerator(cfg.Variant, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	settings := game.DefaultSettings()
	settings.AutoMark = true
	settings.SpeakSpaces = false
	settings.GracefulBingos = true
	machine.Apply(engine.UpdateSettings{Settings: settings})

	ledger := jackpot.NewLedger(jackpot.NewMemoryBackend(), jackpot.Config{
		PayoutMultiplier: cfg.Variant.Jackpot.Multiplier,
		BaselineFactor:   cfg.Variant.Jackpot.BaselineFactor,
	}, cfg.Logger)
	defer ledger.Close()

	r := &runner{
		ctx:     ctx,
		machine: machine,
		ledger:  ledger,
		bonus:   bonus.NewScheduler(cfg.Variant.BonusOffer, cfg.Variant.BonusBalls, cfg.Source),
		report: &Report{
			GameCode:      cfg.Variant.GameCode,
			BetMultiplier: cfg.BetMultiplier,
			Bet:           cfg.Variant.Bet(cfg.BetMultiplier),
			Cards:         cfg.Cards,
			Bingos:        map[int]int{},
		},
	}

	for i := 0; i < cfg.Rounds; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cards := lo.Times(cfg.Cards, func(int) *game.Card { return gen.Generate() })
		if err := r.apply(engine.SetCards{Cards: cards}); err != nil {
			return nil, err
		}
		if err := r.round(); err != nil {
			return nil, fmt.Errorf("sim: round %d: %w", i+1, err)
		}
	}

	rep := r.report
	rep.TotalWon = rep.Winnings + rep.JackpotPaid
	rep.RTP = payout.ReturnToPlayer(decimal.NewFromInt(rep.TotalWon), decimal.NewFromInt(rep.TotalBet)).StringFixed(4)
	cfg.Logger.Info().
		Str("variant", rep.GameCode).
		Int("rounds", rep.Rounds).
		Int64("total_bet", rep.TotalBet).
		Int64("total_won", rep.TotalWon).
		Str("rtp", rep.RTP).
		Msg("Simulation finished")
	return rep, nil
}

type runner struct {
	ctx     context.Context
	machine *engine.Machine
	ledger  *jackpot.Ledger
	bonus   *bonus.Scheduler
	report  *Report
}

// round plays one round to completion by firing the timers in order.
func (r *runner) round() error {
	bet := r.report.Bet
	if err := r.apply(engine.Begin{Credits: bet, BetMultiplier: r.report.BetMultiplier}); err != nil {
		return err
	}
	r.report.TotalBet += int64(bet)
	for r.machine.Phase() != engine.PhaseIdle {
		var ev engine.Event = engine.Tick{Epoch: r.machine.Epoch()}
		if r.machine.Phase() == engine.PhaseLastCall {
			ev = engine.CountdownTick{Epoch: r.machine.Epoch()}
		}
		if err := r.apply(ev); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) apply(ev engine.Event) error {
	for _, eff := range r.machine.Apply(ev) {
		switch e := eff.(type) {
		case engine.Rejected:
			return fmt.Errorf("rejected: %s", e.Reason)
		case engine.Credit:
			r.report.Winnings += int64(e.Amount)
		case engine.CreditJackpot:
			if _, err := r.ledger.Credit(r.ctx, e.BetMultiplier); err != nil {
				return err
			}
		case engine.ClaimJackpot:
			claim, err := r.ledger.Claim(r.ctx, e.BetMultiplier)
			if err != nil {
				return err
			}
			r.report.JackpotWins++
			r.report.JackpotPaid += claim.Amount
		case engine.RoundFinished:
			r.report.Rounds++
			r.report.Bingos[e.Bingos]++
			r.bonus.Advance(false)
			if n := r.bonus.Consolation(); n > 0 {
				r.machine.Apply(engine.GrantBonusDraws{N: n})
				r.report.BonusDraws += n
			}
		}
	}
	return nil
}
