package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeByThree() *Card {
	labels := []string{"1", "2", "3", "4", "47", "6", "16", "17", "18"}
	spaces := make([]Space, len(labels))
	for i, l := range labels {
		spaces[i] = NewSpace(l)
	}
	return NewCard(3, 3, spaces)
}

func TestCardMark(t *testing.T) {
	c := threeByThree()

	assert.True(t, c.Mark("47"))
	assert.False(t, c.Mark("47"), "second mark is a no-op")
	assert.False(t, c.Mark("99"), "spaces off the card are never marked")
	assert.Equal(t, 1, c.MarkedCount())
	assert.True(t, c.IsMarked("47"))
	assert.Equal(t, []Space{NewSpace("47")}, c.Marked())

	c.ClearMarks()
	assert.Zero(t, c.MarkedCount())
}

func TestCardBlackoutCountsFreeCells(t *testing.T) {
	c := threeByThree()
	c.Spaces[4] = Space{ID: "FREE", Label: "FREE", IsFreeSpace: true}

	for _, s := range c.Spaces {
		if !s.IsFreeSpace {
			c.Mark(s.ID)
		}
	}
	assert.True(t, c.IsBlackout())
	assert.True(t, c.IsCellSatisfied(4))
	assert.False(t, c.IsCellSatisfied(9))
	assert.False(t, (&Card{}).IsBlackout())
}

func TestCardUnmarkedCalled(t *testing.T) {
	c := threeByThree()
	c.Mark("1")
	called := map[string]struct{}{"1": {}, "2": {}, "99": {}}

	got := c.UnmarkedCalled(called)
	assert.Equal(t, []Space{NewSpace("2")}, got)
}

func TestCardCloneIsIndependent(t *testing.T) {
	c := threeByThree()
	c.Mark("1")

	clone := c.Clone()
	clone.Mark("2")

	assert.Equal(t, c.ID, clone.ID)
	assert.False(t, c.IsMarked("2"))
	assert.True(t, clone.IsMarked("1"))
}

func TestEncodeDecodeCardsDropsMarks(t *testing.T) {
	c := threeByThree()
	c.Mark("47")

	data, err := EncodeCards([]*Card{c})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "marked")

	decoded, err := DecodeCards(data)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, c.ID, decoded[0].ID)
	assert.Equal(t, c.Spaces, decoded[0].Spaces)
	assert.Zero(t, decoded[0].MarkedCount())

	empty, err := EncodeCards(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestDecodeCardsRejectsCorruptData(t *testing.T) {
	tests := map[string]string{
		"not json":      "{{{",
		"null card":     "[null]",
		"wrong size":    `[{"id":"8f2d7c1e-4c09-4b35-9b8e-0c6f1d2a3b4c","rows":3,"columns":3,"spaces":[{"id":"1","label":"1"}]}]`,
		"duplicate ids": `[{"id":"8f2d7c1e-4c09-4b35-9b8e-0c6f1d2a3b4c","rows":1,"columns":2,"spaces":[{"id":"1","label":"1"},{"id":"1","label":"1"}]}]`,
		"empty id":      `[{"id":"8f2d7c1e-4c09-4b35-9b8e-0c6f1d2a3b4c","rows":1,"columns":1,"spaces":[{"id":"","label":""}]}]`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCards([]byte(data))
			assert.Error(t, err)
		})
	}
}
