package session

import (
	"context"
	"sort"

	"github.com/Digital-Creators-Team/bingo-game-module/errors"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/engine"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	"github.com/samber/lo"
)

// Refill resets the balance to the variant's refill amount.
func (s *Session) Refill(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return errClosed
	}
	s.adjustCredits(ctx, s.variant.RefillAmount-s.credits)
	s.cue(providers.SoundFreeChips, "")
	return nil
}

// AddCredits adds n credits to the balance.
func (s *Session) AddCredits(ctx context.Context, n int) error {
	if n <= 0 {
		return errors.New(errors.ErrInvalidRequest, "credits to add must be positive")
	}
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return errClosed
	}
	s.adjustCredits(ctx, n)
	return nil
}

// ToggleBetMultiplier moves to the next bet multiplier, wrapping around.
// It is only allowed between rounds.
func (s *Session) ToggleBetMultiplier(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlock()
	if err := s.idle(); err != nil {
		return err
	}
	s.execute(ctx, s.machine.Apply(engine.Reset{}))
	s.cue(providers.SoundBeepUp, providers.HapticSoft)

	multipliers := s.variant.BetMultipliers
	next := multipliers[0]
	if i := lo.IndexOf(multipliers, s.betMultiplier); i >= 0 {
		next = multipliers[(i+1)%len(multipliers)]
	}
	s.changeBet(ctx, next)
	return nil
}

// LowerBetToMaxPossible picks the largest affordable bet multiplier, or the
// smallest one when none is affordable.
func (s *Session) LowerBetToMaxPossible(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlock()
	if err := s.idle(); err != nil {
		return err
	}
	sorted := append([]int(nil), s.variant.BetMultipliers...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	next, ok := lo.Find(sorted, func(m int) bool { return s.variant.Bet(m) <= s.credits })
	if !ok {
		next = lo.Min(sorted)
	}
	s.changeBet(ctx, next)
	s.cue(providers.SoundBeepDown, providers.HapticSoft)
	return nil
}

// SetBetMultiplier selects a bet multiplier directly.
func (s *Session) SetBetMultiplier(ctx context.Context, m int) error {
	s.mu.Lock()
	defer s.unlock()
	if err := s.idle(); err != nil {
		return err
	}
	if !s.variant.HasMultiplier(m) {
		return rejection(engine.ReasonInvalidBetMultiplier)
	}
	s.changeBet(ctx, m)
	return nil
}

func (s *Session) changeBet(ctx context.Context, m int) {
	s.betMultiplier = m
	s.save(ctx, KeyBetMultiplier, m)
	s.emit(EventBetChanged, BetChanged{
		BetMultiplier: m,
		Bet:           s.variant.Bet(m),
		Jackpot:       s.jackpotCount(ctx, m),
	})
}

// jackpotCount reads the ledger entry shown for m. Read failures show the
// baseline.
func (s *Session) jackpotCount(ctx context.Context, m int) int64 {
	if !s.variant.JackpotEnabled() {
		return 0
	}
	n, err := s.ledger.Count(ctx, m)
	if err != nil {
		s.logger.Warn().Err(err).Int("bet_multiplier", m).Msg("Failed to read jackpot")
		return s.ledger.Baseline(m)
	}
	return n
}

// idle must be called with mu held.
func (s *Session) idle() error {
	if s.closed {
		return errClosed
	}
	if s.machine.Phase() != engine.PhaseIdle {
		return rejection(engine.ReasonRoundInProgress)
	}
	return nil
}

// Products lists the credit packs on sale.
func (s *Session) Products(ctx context.Context) ([]providers.Product, error) {
	products, err := s.purchases.Products(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to fetch products")
		return nil, errors.Wrap(err, errors.ErrPurchaseError, "failed to fetch products")
	}
	return products, nil
}

// Purchase buys a credit pack. Credits are only added when the purchase
// completes.
func (s *Session) Purchase(ctx context.Context, productID string) (*providers.PurchaseResult, error) {
	pack, ok := s.variant.Pack(productID)
	if !ok {
		return nil, errors.New(errors.ErrUnknownProduct, "unknown product "+productID)
	}

	// the store round trip runs outside the lock so timers keep firing
	res, err := s.purchases.Purchase(ctx, s.playerID, productID)
	if err != nil {
		s.logger.Warn().Err(err).Str("product_id", productID).Msg("Purchase failed")
		return nil, errors.Wrap(err, errors.ErrPurchaseError, "purchase failed")
	}

	s.mu.Lock()
	defer s.unlock()
	s.adjustCredits(ctx, pack.Credits)
	s.cue(providers.SoundPurchasedChips, "")
	s.logger.Info().
		Str("product_id", productID).
		Str("transaction_id", res.TransactionID).
		Int("credits", pack.Credits).
		Msg("Purchase completed")
	return res, nil
}

// AcceptBonusOffer shows a rewarded ad and grants the pending bonus-draw
// offer to the next round. The offer is granted even when no ad could be
// shown. It returns the number of draws granted.
func (s *Session) AcceptBonusOffer(ctx context.Context) (int, error) {
	s.mu.Lock()
	if err := s.checkOffer(); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	s.mu.Unlock()

	if s.ads.IsRewardAvailable(ctx) {
		if err := s.ads.PresentReward(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Rewarded ad failed, granting offer anyway")
		}
	} else {
		s.logger.Warn().Msg("Rewarded ad not ready, granting offer anyway")
	}

	s.mu.Lock()
	defer s.unlock()
	if err := s.checkOffer(); err != nil {
		return 0, err
	}
	n, _ := s.bonus.Accept()
	s.machine.Apply(engine.GrantBonusDraws{N: n})
	s.cue(providers.SoundAdReward, "")
	s.emit(EventBonusChanged, BonusChanged{Offer: s.bonus.State(), PendingBonusDraws: s.machine.PendingBonusDraws()})
	s.logger.Info().Int("bonus_draws", n).Msg("Bonus offer accepted")
	return n, nil
}

// checkOffer must be called with mu held.
func (s *Session) checkOffer() error {
	if s.closed {
		return errClosed
	}
	if !s.bonus.State().Active() {
		return errors.New(errors.ErrNoBonusOffer, "no bonus offer available")
	}
	return nil
}
