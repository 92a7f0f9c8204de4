// Package card generates card layouts for a variant.
package card

import (
	"errors"
	"fmt"

	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/random"
	"github.com/samber/lo"
)

// ErrNotEnoughLabels is returned when the label pool cannot fill a card.
var ErrNotEnoughLabels = errors.New("not enough labels to fill card")

// Generator builds cards for one variant.
type Generator struct {
	cfg *game.Config
	src random.Source
}

// NewGenerator validates the variant's shape and returns a generator.
func NewGenerator(cfg *game.Config, src random.Source) (*Generator, error) {
	if cfg.Rows <= 0 || cfg.Cols <= 0 {
		return nil, fmt.Errorf("invalid card size %dx%d", cfg.Rows, cfg.Cols)
	}
	switch cfg.Layout {
	case game.LayoutBonus:
		if !lo.Contains(cfg.Labels, cfg.BonusLabel) {
			return nil, fmt.Errorf("bonus label %q is not in the label pool", cfg.BonusLabel)
		}
		if len(cfg.Labels) < cfg.CardSize() {
			return nil, fmt.Errorf("%w: %d labels for %d cells", ErrNotEnoughLabels, len(cfg.Labels), cfg.CardSize())
		}
	case game.LayoutLines:
		if len(cfg.Labels)%cfg.Cols != 0 || len(cfg.Labels)/cfg.Cols < cfg.Rows {
			return nil, fmt.Errorf("%w: %d labels for %d columns of %d", ErrNotEnoughLabels, len(cfg.Labels), cfg.Cols, cfg.Rows)
		}
	default:
		return nil, fmt.Errorf("unknown layout %q", cfg.Layout)
	}
	return &Generator{cfg: cfg, src: src}, nil
}

// Generate returns a fresh card with a new id and no marks.
func (g *Generator) Generate() *game.Card {
	var spaces []game.Space
	if g.cfg.Layout == game.LayoutBonus {
		spaces = g.bonus()
	} else {
		spaces = g.lines()
	}
	return game.NewCard(g.cfg.Rows, g.cfg.Cols, spaces)
}

// bonus shuffles the non-bonus labels into every cell but the center, which
// always holds the bonus label.
func (g *Generator) bonus() []game.Space {
	pool := lo.Without(g.cfg.Labels, g.cfg.BonusLabel)
	random.Shuffle(g.src, pool)

	size := g.cfg.CardSize()
	center := g.cfg.CenterIndex()
	spaces := make([]game.Space, 0, size)
	next := 0
	for i := 0; i < size; i++ {
		if i == center {
			spaces = append(spaces, game.NewSpace(g.cfg.BonusLabel))
			continue
		}
		spaces = append(spaces, game.NewSpace(pool[next]))
		next++
	}
	return spaces
}

// lines splits the label pool into equal column bands, shuffles within each
// band and deals one column at a time. The center cell becomes the free space
// when the variant has one.
func (g *Generator) lines() []game.Space {
	rows, cols := g.cfg.Rows, g.cfg.Cols
	columns := lo.Chunk(g.cfg.Labels, len(g.cfg.Labels)/cols)
	center := g.cfg.CenterIndex()

	spaces := make([]game.Space, rows*cols)
	for c, band := range columns {
		pool := append([]string(nil), band...)
		random.Shuffle(g.src, pool)
		for r := 0; r < rows; r++ {
			idx := r*cols + c
			if g.cfg.FreeSpace && idx == center {
				spaces[idx] = g.cfg.FreeSpaceCell()
				continue
			}
			spaces[idx] = game.NewSpace(pool[r])
		}
	}
	return spaces
}
