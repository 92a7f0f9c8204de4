package card

import (
	"strconv"
	"testing"

	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/random"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBonusCardLayout(t *testing.T) {
	cfg := game.Bingo47()
	gen, err := NewGenerator(cfg, random.New(1))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		c := gen.Generate()
		require.NoError(t, c.Validate())
		assert.Equal(t, "47", c.Spaces[4].ID, "bonus label always sits in the center")
		ids := lo.Map(c.Spaces, func(s game.Space, _ int) string { return s.ID })
		assert.Len(t, lo.Uniq(ids), 9)
		for _, id := range ids {
			assert.Contains(t, cfg.Labels, id)
		}
		assert.Zero(t, c.MarkedCount())
	}
}

func TestLinesCardLayout(t *testing.T) {
	cfg := game.Classic75()
	gen, err := NewGenerator(cfg, random.New(2))
	require.NoError(t, err)

	c := gen.Generate()
	require.NoError(t, c.Validate())
	assert.True(t, c.Spaces[12].IsFreeSpace)
	assert.Equal(t, "FREE", c.Spaces[12].ID)

	for i, s := range c.Spaces {
		if s.IsFreeSpace {
			continue
		}
		n, err := strconv.Atoi(s.ID)
		require.NoError(t, err)
		col := i % 5
		assert.GreaterOrEqual(t, n, col*15+1, "cell %d", i)
		assert.LessOrEqual(t, n, col*15+15, "cell %d", i)
	}
}

func TestGeneratedCardsDiffer(t *testing.T) {
	gen, err := NewGenerator(game.Bingo47(), random.New(3))
	require.NoError(t, err)
	a, b := gen.Generate(), gen.Generate()
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNewGeneratorRejectsBadConfigs(t *testing.T) {
	short := game.Bingo47()
	short.Labels = []string{"1", "2", "47"}
	_, err := NewGenerator(short, random.New(1))
	assert.ErrorIs(t, err, ErrNotEnoughLabels)

	missingBonus := game.Bingo47()
	missingBonus.BonusLabel = "99"
	_, err = NewGenerator(missingBonus, random.New(1))
	assert.Error(t, err)

	uneven := game.Classic75()
	uneven.Labels = uneven.Labels[:20]
	_, err = NewGenerator(uneven, random.New(1))
	assert.ErrorIs(t, err, ErrNotEnoughLabels)
}
