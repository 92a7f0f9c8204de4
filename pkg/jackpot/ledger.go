// Package jackpot implements the progressive jackpot ledger, one counter per
// bet multiplier.
package jackpot

import (
	"context"
	"fmt"
	"time"

	"github.com/Digital-Creators-Team/bingo-game-module/pkg/broadcast"
	"github.com/rs/zerolog"
)

// Ledger owns every read and write of jackpot counts.
// It is transport-agnostic: callers subscribe to changes via Listen().
type Ledger struct {
	backend Backend
	cfg     Config
	broad   *broadcast.Broadcaster[Update]
	logger  zerolog.Logger
	now     func() time.Time
}

// NewLedger creates a ledger over a backend. Zero config fields take defaults.
func NewLedger(backend Backend, cfg Config, logger zerolog.Logger) *Ledger {
	def := DefaultConfig()
	if cfg.PayoutMultiplier <= 0 {
		cfg.PayoutMultiplier = def.PayoutMultiplier
	}
	if cfg.BaselineFactor <= 0 {
		cfg.BaselineFactor = def.BaselineFactor
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = def.Buffer
	}
	return &Ledger{
		backend: backend,
		cfg:     cfg,
		broad:   broadcast.New[Update](cfg.Buffer),
		logger:  logger.With().Str("component", "jackpot").Logger(),
		now:     time.Now,
	}
}

// Baseline is the value an entry resets to and the value unseen entries read as.
func (l *Ledger) Baseline(multiplier int) int64 {
	return int64(multiplier) * l.cfg.BaselineFactor
}

// PayoutMultiplier returns the claim multiplier.
func (l *Ledger) PayoutMultiplier() int64 {
	return l.cfg.PayoutMultiplier
}

// Count returns the current count for a multiplier.
func (l *Ledger) Count(ctx context.Context, multiplier int) (int64, error) {
	if multiplier <= 0 {
		return 0, ErrInvalidMultiplier
	}
	count, err := l.backend.Count(ctx, multiplier, l.Baseline(multiplier))
	if err != nil {
		return 0, fmt.Errorf("read jackpot %d: %w", multiplier, err)
	}
	return count, nil
}

// Credit adds multiplier to its own entry and returns the new count.
func (l *Ledger) Credit(ctx context.Context, multiplier int) (int64, error) {
	if multiplier <= 0 {
		return 0, ErrInvalidMultiplier
	}
	count, err := l.backend.IncrBy(ctx, multiplier, int64(multiplier), l.Baseline(multiplier))
	if err != nil {
		return 0, fmt.Errorf("credit jackpot %d: %w", multiplier, err)
	}
	l.logger.Debug().Int("bet_multiplier", multiplier).Int64("count", count).Msg("Jackpot credited")
	l.publish(Update{Multiplier: multiplier, Count: count, Reason: ReasonCredit})
	return count, nil
}

// Claim pays count × PayoutMultiplier and resets the entry to its baseline.
func (l *Ledger) Claim(ctx context.Context, multiplier int) (Claim, error) {
	if multiplier <= 0 {
		return Claim{}, ErrInvalidMultiplier
	}
	baseline := l.Baseline(multiplier)
	prior, err := l.backend.Reset(ctx, multiplier, baseline)
	if err != nil {
		return Claim{}, fmt.Errorf("claim jackpot %d: %w", multiplier, err)
	}
	claim := Claim{
		Multiplier: multiplier,
		Count:      prior,
		Amount:     prior * l.cfg.PayoutMultiplier,
		Baseline:   baseline,
	}
	l.logger.Info().
		Int("bet_multiplier", multiplier).
		Int64("count", prior).
		Int64("amount", claim.Amount).
		Msg("Jackpot claimed")
	l.publish(Update{Multiplier: multiplier, Count: baseline, Reason: ReasonClaim})
	return claim, nil
}

// Snapshot returns every persisted entry.
func (l *Ledger) Snapshot(ctx context.Context) (map[int]int64, error) {
	all, err := l.backend.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jackpots: %w", err)
	}
	return all, nil
}

// Relay rebroadcasts an update that happened elsewhere (e.g. another instance
// sharing the backend) to local listeners.
func (l *Ledger) Relay(update Update) {
	if update.Multiplier <= 0 || update.Count < 0 {
		l.logger.Debug().Int("bet_multiplier", update.Multiplier).Msg("Ignoring invalid relayed update")
		return
	}
	update.Reason = ReasonSync
	l.publish(update)
}

// Listen returns a channel of updates plus a cancel function to stop listening.
func (l *Ledger) Listen(ctx context.Context) (<-chan Update, context.CancelFunc) {
	return l.broad.Listen(ctx)
}

// Close stops every listener.
func (l *Ledger) Close() {
	l.broad.Close()
}

func (l *Ledger) publish(update Update) {
	if update.Timestamp.IsZero() {
		update.Timestamp = l.now()
	}
	l.broad.Send(update)
}
