package session

import (
	"context"
	"fmt"

	"github.com/Digital-Creators-Team/bingo-game-module/errors"
	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/engine"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Cards returns copies of the cards in play.
func (s *Session) Cards() []*game.Card {
	s.mu.Lock()
	defer s.unlock()
	return cloneCards(s.machine.Cards())
}

// NewCard replaces the cards in play with one freshly generated card.
func (s *Session) NewCard(ctx context.Context) (*game.Card, error) {
	s.mu.Lock()
	defer s.unlock()
	if err := s.idle(); err != nil {
		return nil, err
	}
	c := s.generator.Generate()
	if err := s.replaceCards(ctx, []*game.Card{c}); err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

// MaxCards is the most cards one bet covers.
const MaxCards = 4

// SetCards replaces the cards in play. Every card must fit the variant.
func (s *Session) SetCards(ctx context.Context, cards []*game.Card) error {
	if len(cards) > MaxCards {
		return errors.New(errors.ErrInvalidRequest, fmt.Sprintf("at most %d cards per round", MaxCards))
	}
	for _, c := range cards {
		if c == nil {
			return errors.New(errors.ErrInvalidRequest, "card is required")
		}
		if err := c.Validate(); err != nil {
			return errors.Wrap(err, errors.ErrInvalidRequest, "invalid card")
		}
		if err := s.fits(c); err != nil {
			return errors.Wrap(err, errors.ErrInvalidRequest, "card does not fit this game")
		}
	}
	s.mu.Lock()
	defer s.unlock()
	if err := s.idle(); err != nil {
		return err
	}
	return s.replaceCards(ctx, cloneCards(cards))
}

// replaceCards must be called with mu held.
func (s *Session) replaceCards(ctx context.Context, cards []*game.Card) error {
	if err := s.execute(ctx, s.machine.Apply(engine.SetCards{Cards: cards})); err != nil {
		return err
	}
	s.saveCards(ctx, KeySavedCards, cards)
	s.emit(EventCardsChanged, cloneCards(cards))
	return nil
}

// fits checks a card's shape and labels against the variant. The center is
// the only cell that may hold the bonus label or the free space.
func (s *Session) fits(c *game.Card) error {
	v := s.variant
	if c.Rows != v.Rows || c.Columns != v.Cols {
		return fmt.Errorf("card is %dx%d, game uses %dx%d", c.Rows, c.Columns, v.Rows, v.Cols)
	}
	center := v.CenterIndex()
	for i, sp := range c.Spaces {
		if sp.IsFreeSpace {
			if v.Layout != game.LayoutLines || !v.FreeSpace || i != center || sp.ID != v.FreeSpaceCell().ID {
				return fmt.Errorf("free space %q not allowed at cell %d", sp.ID, i)
			}
			continue
		}
		if v.Layout == game.LayoutLines && v.FreeSpace && i == center {
			return fmt.Errorf("cell %d must be the free space", i)
		}
		if v.Layout == game.LayoutBonus && (i == center) != v.IsBonusSpace(sp.ID) {
			return fmt.Errorf("bonus space %q must sit at cell %d", v.BonusLabel, center)
		}
		if !lo.Contains(v.Labels, sp.ID) {
			return fmt.Errorf("space %q is not in this game", sp.ID)
		}
	}
	return nil
}

// Favorites returns copies of the saved favorite cards.
func (s *Session) Favorites() []*game.Card {
	s.mu.Lock()
	defer s.unlock()
	return cloneCards(s.favorites)
}

// AddFavorite saves a card in play as a favorite. Adding a card that is
// already a favorite changes nothing.
func (s *Session) AddFavorite(ctx context.Context, cardID uuid.UUID) error {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return errClosed
	}
	c, ok := lo.Find(s.machine.Cards(), func(c *game.Card) bool { return c.ID == cardID })
	if !ok {
		return rejection(engine.ReasonCardNotFound)
	}
	if lo.ContainsBy(s.favorites, func(f *game.Card) bool { return f.ID == cardID }) {
		return nil
	}
	s.favorites = append(s.favorites, c.Clone())
	s.saveCards(ctx, KeyFavoriteCards, s.favorites)
	return nil
}

// RemoveFavorite deletes a favorite. Unknown ids are ignored.
func (s *Session) RemoveFavorite(ctx context.Context, cardID uuid.UUID) error {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return errClosed
	}
	kept := lo.Reject(s.favorites, func(f *game.Card, _ int) bool { return f.ID == cardID })
	if len(kept) == len(s.favorites) {
		return nil
	}
	s.favorites = kept
	s.saveCards(ctx, KeyFavoriteCards, s.favorites)
	return nil
}

// UseFavorite puts a favorite card in play.
func (s *Session) UseFavorite(ctx context.Context, cardID uuid.UUID) error {
	s.mu.Lock()
	defer s.unlock()
	if err := s.idle(); err != nil {
		return err
	}
	f, ok := lo.Find(s.favorites, func(f *game.Card) bool { return f.ID == cardID })
	if !ok {
		return errors.New(errors.ErrCardNotFound, "favorite not found")
	}
	return s.replaceCards(ctx, []*game.Card{f.Clone()})
}

func cloneCards(cards []*game.Card) []*game.Card {
	return lo.Map(cards, func(c *game.Card, _ int) *game.Card { return c.Clone() })
}
