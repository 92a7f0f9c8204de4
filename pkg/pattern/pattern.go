// Package pattern defines winning lines and evaluates them against cards.
package pattern

import (
	"fmt"
	"sort"

	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/samber/lo"
)

// Pattern is a set of cell indices that form one winning line.
type Pattern []int

// Set is the ordered list of patterns for one card shape.
type Set []Pattern

// Lines returns every row and column, plus both diagonals when the card is square.
func Lines(rows, cols int) Set {
	var set Set
	for r := 0; r < rows; r++ {
		p := make(Pattern, cols)
		for c := 0; c < cols; c++ {
			p[c] = r*cols + c
		}
		set = append(set, p)
	}
	for c := 0; c < cols; c++ {
		p := make(Pattern, rows)
		for r := 0; r < rows; r++ {
			p[r] = r*cols + c
		}
		set = append(set, p)
	}
	if rows == cols && rows > 1 {
		main := make(Pattern, rows)
		anti := make(Pattern, rows)
		for i := 0; i < rows; i++ {
			main[i] = i*cols + i
			anti[i] = i*cols + (cols - 1 - i)
		}
		set = append(set, main, anti)
	}
	return set
}

// BonusNine returns the eight lines of the 3×3 bonus card.
func BonusNine() Set {
	return Set{
		{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
		{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
		{0, 4, 8}, {2, 4, 6},
	}
}

// ForVariant returns the patterns configured for a variant, or the default
// set for its layout when none are configured.
func ForVariant(cfg *game.Config) (Set, error) {
	if len(cfg.Patterns) > 0 {
		set := Set(lo.Map(cfg.Patterns, func(p []int, _ int) Pattern { return append(Pattern(nil), p...) }))
		if err := set.Validate(cfg.CardSize()); err != nil {
			return nil, err
		}
		return set, nil
	}
	if cfg.Layout == game.LayoutBonus && cfg.Rows == 3 && cfg.Cols == 3 {
		return BonusNine(), nil
	}
	return Lines(cfg.Rows, cfg.Cols), nil
}

// Validate checks every index lies within a card of the given size.
func (s Set) Validate(size int) error {
	for i, p := range s {
		if len(p) == 0 {
			return fmt.Errorf("pattern %d is empty", i)
		}
		for _, idx := range p {
			if idx < 0 || idx >= size {
				return fmt.Errorf("pattern %d: index %d outside card of %d cells", i, idx, size)
			}
		}
	}
	return nil
}

// Satisfied reports whether every cell of p is marked or free on the card.
func (p Pattern) Satisfied(card *game.Card) bool {
	return lo.EveryBy(p, card.IsCellSatisfied)
}

// Count returns the number of satisfied patterns on the card.
func (s Set) Count(card *game.Card) int {
	return lo.CountBy(s, func(p Pattern) bool { return p.Satisfied(card) })
}

// CountAll sums Count over every card.
func (s Set) CountAll(cards []*game.Card) int {
	return lo.SumBy(cards, s.Count)
}

// Cells returns the sorted union of cell indices covered by satisfied patterns.
func (s Set) Cells(card *game.Card) []int {
	var cells []int
	for _, p := range s {
		if p.Satisfied(card) {
			cells = append(cells, p...)
		}
	}
	cells = lo.Uniq(cells)
	sort.Ints(cells)
	return cells
}

// Spaces returns the spaces covered by satisfied patterns, in layout order.
func (s Set) Spaces(card *game.Card) []game.Space {
	return lo.Map(s.Cells(card), func(i int, _ int) game.Space { return card.Spaces[i] })
}

// IsPartOfBingo reports whether the space lies on a satisfied pattern.
func (s Set) IsPartOfBingo(card *game.Card, spaceID string) bool {
	idx := card.Index(spaceID)
	if idx < 0 {
		return false
	}
	return lo.Contains(s.Cells(card), idx)
}
