package session

import (
	"context"
	"time"

	"github.com/Digital-Creators-Team/bingo-game-module/errors"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/engine"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	"github.com/google/uuid"
)

var rejections = map[engine.Reason]*errors.AppError{
	engine.ReasonRoundInProgress:      errors.New(errors.ErrRoundInProgress, "a round is already in progress"),
	engine.ReasonRoundNotActive:       errors.New(errors.ErrRoundNotActive, "no round is in progress"),
	engine.ReasonInsufficientCredits:  errors.New(errors.ErrInsufficientCredits, "not enough credits for this bet"),
	engine.ReasonInvalidBetMultiplier: errors.New(errors.ErrInvalidBetMultiplier, "bet multiplier is not offered"),
	engine.ReasonNoCards:              errors.New(errors.ErrCardNotFound, "no cards in play"),
	engine.ReasonCardNotFound:         errors.New(errors.ErrCardNotFound, "card is not in play"),
	engine.ReasonSpaceNotCalled:       errors.New(errors.ErrSpaceNotCalled, "space has not been called"),
	engine.ReasonSpaceNotOnCard:       errors.New(errors.ErrSpaceNotOnCard, "space is not on this card"),
}

func rejection(r engine.Reason) error {
	if err, ok := rejections[r]; ok {
		return err
	}
	return errors.New(errors.ErrGameLogicError, string(r))
}

var errClosed = errors.New(errors.ErrServiceUnavailable, "session is closed")

// BeginRound debits the bet and starts revealing spaces.
func (s *Session) BeginRound(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return errClosed
	}
	if err := s.execute(ctx, s.machine.Apply(engine.Begin{Credits: s.credits, BetMultiplier: s.betMultiplier})); err != nil {
		return err
	}
	r := s.machine.Round()
	s.logger.Info().
		Str("round_id", r.ID.String()).
		Int("bet_multiplier", r.BetMultiplier).
		Int("spaces_to_reveal", r.SpacesToReveal).
		Msg("Round started")
	s.emit(EventRoundStarted, RoundStarted{
		RoundID:        r.ID.String(),
		BetMultiplier:  r.BetMultiplier,
		Bet:            r.Bet,
		SpacesToReveal: r.SpacesToReveal,
	})
	return nil
}

// MarkSpace marks a called space on a card.
func (s *Session) MarkSpace(ctx context.Context, cardID uuid.UUID, spaceID string) error {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return errClosed
	}
	return s.execute(ctx, s.machine.Apply(engine.Mark{CardID: cardID, SpaceID: spaceID}))
}

func (s *Session) onReveal(epoch uint64) {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return
	}
	if s.background {
		s.deferred = append(s.deferred, engine.Tick{Epoch: epoch})
		return
	}
	_ = s.execute(s.ctx, s.machine.Apply(engine.Tick{Epoch: epoch}))
}

func (s *Session) onCountdown(epoch uint64) {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return
	}
	if s.background {
		s.deferred = append(s.deferred, engine.CountdownTick{Epoch: epoch})
		return
	}
	_ = s.execute(s.ctx, s.machine.Apply(engine.CountdownTick{Epoch: epoch}))
}

// execute carries out effects in order and returns the first rejection.
// It must be called with mu held.
func (s *Session) execute(ctx context.Context, effects []engine.Effect) error {
	var rejected error
	for _, eff := range effects {
		switch e := eff.(type) {
		case engine.Debit:
			s.adjustCredits(ctx, -e.Amount)
		case engine.Credit:
			s.adjustCredits(ctx, e.Amount)
		case engine.CreditJackpot:
			if _, err := s.ledger.Credit(ctx, e.BetMultiplier); err != nil {
				s.logger.Warn().Err(err).Int("bet_multiplier", e.BetMultiplier).Msg("Failed to credit jackpot")
			}
		case engine.ClaimJackpot:
			s.claimJackpot(ctx, e)
		case engine.StartReveal:
			s.startReveal(e.Epoch, e.Delay, e.Interval)
		case engine.StopReveal:
			if s.revealEpoch == e.Epoch {
				s.reveal.Cancel()
			}
		case engine.StartCountdown:
			s.startCountdown(e.Epoch, e.Interval)
		case engine.StopCountdown:
			if s.countdownEpoch == e.Epoch {
				s.countdown.Cancel()
			}
		case engine.Revealed:
			s.emit(EventSpaceRevealed, SpaceRevealed(e))
		case engine.Marked:
			s.emit(EventSpaceMarked, SpaceMarked{CardID: e.CardID.String(), Space: e.Space, Auto: e.Auto})
		case engine.WinningsChanged:
			s.emit(EventWinningsChanged, WinningsChanged(e))
		case engine.LastCallStarted:
			s.emit(EventLastCallStarted, Countdown{Remaining: e.Seconds})
		case engine.CountdownChanged:
			s.emit(EventCountdownChanged, Countdown(e))
		case engine.RoundFinished:
			s.finish(ctx, e)
		case engine.Rejected:
			s.logger.Debug().Str("reason", string(e.Reason)).Msg("Intent rejected")
			if rejected == nil {
				rejected = rejection(e.Reason)
			}
		case engine.Cue:
			s.cue(e.Sound, e.Haptic)
		case engine.Speak:
			s.speaker.Speak(e.Text)
		}
	}
	return rejected
}

func (s *Session) startReveal(epoch uint64, delay, interval time.Duration) {
	s.reveal.Cancel()
	s.revealEpoch = epoch
	s.reveal = s.sched.Every(delay, interval, func() { s.onReveal(epoch) })
	if s.background {
		s.reveal.Pause()
	}
}

func (s *Session) startCountdown(epoch uint64, interval time.Duration) {
	s.countdown.Cancel()
	s.countdownEpoch = epoch
	s.countdown = s.sched.Every(interval, interval, func() { s.onCountdown(epoch) })
	if s.background {
		s.countdown.Pause()
	}
}

// cue plays a sound and, when vibration is on, a haptic. Either may be empty.
func (s *Session) cue(sound providers.Sound, haptic providers.Haptic) {
	if sound != "" {
		s.cues.PlaySound(sound)
	}
	if haptic != "" && s.machine.Settings().VibrationEnabled {
		s.cues.PlayHaptic(haptic)
	}
}

func (s *Session) adjustCredits(ctx context.Context, delta int) {
	if delta == 0 {
		return
	}
	s.credits += delta
	if s.credits < 0 {
		s.credits = 0
	}
	s.save(ctx, KeyCredits, s.credits)
	s.emit(EventCreditsChanged, Credits{Credits: s.credits, Delta: delta})
}

func (s *Session) claimJackpot(ctx context.Context, e engine.ClaimJackpot) {
	claim, err := s.ledger.Claim(ctx, e.BetMultiplier)
	if err != nil {
		s.logger.Error().Err(err).Int("bet_multiplier", e.BetMultiplier).Msg("Failed to claim jackpot")
		return
	}
	s.lastJackpot = &claim
	s.adjustCredits(ctx, int(claim.Amount))
	s.logger.Info().
		Str("round_id", e.RoundID.String()).
		Int("bet_multiplier", e.BetMultiplier).
		Int64("amount", claim.Amount).
		Msg("Jackpot won")
	s.emit(EventJackpotWon, JackpotWon{RoundID: e.RoundID.String(), Claim: claim})
	s.publish(ctx, &providers.GameEvent{
		Type:          providers.EventJackpotWon,
		RoundID:       e.RoundID.String(),
		BetMultiplier: e.BetMultiplier,
		Bet:           s.variant.Bet(e.BetMultiplier),
		JackpotCount:  claim.Count,
		JackpotAmount: claim.Amount,
	})
}

// finish records statistics, moves the bonus schedule on and reports the
// round to listeners and external systems.
func (s *Session) finish(ctx context.Context, e engine.RoundFinished) {
	s.gamesPlayed++
	s.totalBingos += e.Bingos
	s.save(ctx, KeyGamesPlayed, s.gamesPlayed)
	s.save(ctx, KeyBingos, s.totalBingos)

	offer := s.bonus.Advance(s.adsAvailable)
	if n := s.bonus.Consolation(); n > 0 {
		s.machine.Apply(engine.GrantBonusDraws{N: n})
	}
	s.emit(EventBonusChanged, BonusChanged{Offer: offer, PendingBonusDraws: s.machine.PendingBonusDraws()})

	score := int64(s.credits)
	s.later(func(ctx context.Context) {
		if err := s.leaderboard.SubmitScore(ctx, s.variant.LeaderboardID, s.playerID, score); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to submit score")
		}
		available := s.ads.IsRewardAvailable(ctx)
		s.mu.Lock()
		s.adsAvailable = available
		s.mu.Unlock()
	})

	s.logger.Info().
		Str("round_id", e.RoundID.String()).
		Int("bingos", e.Bingos).
		Int("winnings", e.Winnings).
		Bool("blackout", e.Blackout).
		Msg("Round finished")
	s.emit(EventRoundFinished, RoundSummary{
		RoundID:           e.RoundID.String(),
		BetMultiplier:     e.BetMultiplier,
		Bet:               e.Bet,
		Called:            e.Called,
		Bingos:            e.Bingos,
		Winnings:          e.Winnings,
		Blackout:          e.Blackout,
		LastCallRemaining: e.LastCallRemaining,
		Credits:           s.credits,
		BonusDraws:        s.machine.PendingBonusDraws(),
	})
	s.publish(ctx, &providers.GameEvent{
		Type:          providers.EventRoundFinished,
		RoundID:       e.RoundID.String(),
		BetMultiplier: e.BetMultiplier,
		Bet:           e.Bet,
		Bingos:        e.Bingos,
		Winnings:      e.Winnings,
	})
}

// publish fills the common fields and queues the event, best effort. It must
// be called with mu held.
func (s *Session) publish(_ context.Context, event *providers.GameEvent) {
	event.PlayerID = s.playerID
	event.GameCode = s.variant.GameCode
	event.Credits = s.credits
	event.Timestamp = s.clock.Now().UTC()
	s.later(func(ctx context.Context) {
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn().Err(err).Str("event", string(event.Type)).Msg("Failed to publish game event")
		}
	})
}
