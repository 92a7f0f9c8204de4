package game

import (
	"fmt"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Space is one cell of a card. Two spaces are the same space iff their IDs match.
type Space struct {
	ID          string `json:"id"`
	IsFreeSpace bool   `json:"isFreeSpace"`
	Label       string `json:"label"`
}

// NewSpace builds a regular (non-free) space whose id and label are the same.
func NewSpace(label string) Space {
	return Space{ID: label, Label: label}
}

// Card is a fixed layout of spaces plus the marks placed on it during a round.
// Marks are never serialized.
type Card struct {
	ID      uuid.UUID `json:"id"`
	Rows    int       `json:"rows"`
	Columns int       `json:"columns"`
	Spaces  []Space   `json:"spaces"`

	marked map[string]struct{}
}

// NewCard creates a card with a fresh id.
func NewCard(rows, columns int, spaces []Space) *Card {
	return &Card{
		ID:      uuid.New(),
		Rows:    rows,
		Columns: columns,
		Spaces:  spaces,
		marked:  make(map[string]struct{}),
	}
}

// Index returns the cell index of the space with the given id, or -1.
func (c *Card) Index(spaceID string) int {
	for i, s := range c.Spaces {
		if s.ID == spaceID {
			return i
		}
	}
	return -1
}

// Space returns the space with the given id.
func (c *Card) Space(spaceID string) (Space, bool) {
	if i := c.Index(spaceID); i >= 0 {
		return c.Spaces[i], true
	}
	return Space{}, false
}

// Contains reports whether the space is part of this card's layout.
func (c *Card) Contains(spaceID string) bool {
	return c.Index(spaceID) >= 0
}

// Mark marks a space on the card. It returns false when the space is not on
// the card or is already marked.
func (c *Card) Mark(spaceID string) bool {
	if !c.Contains(spaceID) {
		return false
	}
	if c.marked == nil {
		c.marked = make(map[string]struct{})
	}
	if _, ok := c.marked[spaceID]; ok {
		return false
	}
	c.marked[spaceID] = struct{}{}
	return true
}

// IsMarked reports whether the space is marked.
func (c *Card) IsMarked(spaceID string) bool {
	_, ok := c.marked[spaceID]
	return ok
}

// MarkedCount returns the number of marked spaces.
func (c *Card) MarkedCount() int {
	return len(c.marked)
}

// Marked returns the marked spaces in layout order.
func (c *Card) Marked() []Space {
	return lo.Filter(c.Spaces, func(s Space, _ int) bool {
		return c.IsMarked(s.ID)
	})
}

// ClearMarks removes every mark.
func (c *Card) ClearMarks() {
	c.marked = make(map[string]struct{})
}

// IsCellSatisfied reports whether cell i counts towards a pattern.
// Free spaces always count.
func (c *Card) IsCellSatisfied(i int) bool {
	if i < 0 || i >= len(c.Spaces) {
		return false
	}
	s := c.Spaces[i]
	return s.IsFreeSpace || c.IsMarked(s.ID)
}

// IsBlackout reports whether every cell is marked (free cells count as marked).
func (c *Card) IsBlackout() bool {
	if len(c.Spaces) == 0 {
		return false
	}
	for i := range c.Spaces {
		if !c.IsCellSatisfied(i) {
			return false
		}
	}
	return true
}

// UnmarkedCalled returns the spaces on the card that were called but are not
// marked yet. Free spaces are never included.
func (c *Card) UnmarkedCalled(called map[string]struct{}) []Space {
	return lo.Filter(c.Spaces, func(s Space, _ int) bool {
		if s.IsFreeSpace || c.IsMarked(s.ID) {
			return false
		}
		_, ok := called[s.ID]
		return ok
	})
}

// Clone returns a deep copy including marks.
func (c *Card) Clone() *Card {
	out := &Card{
		ID:      c.ID,
		Rows:    c.Rows,
		Columns: c.Columns,
		Spaces:  append([]Space(nil), c.Spaces...),
		marked:  make(map[string]struct{}, len(c.marked)),
	}
	for id := range c.marked {
		out.marked[id] = struct{}{}
	}
	return out
}

// Validate checks the layout invariants of a decoded card.
func (c *Card) Validate() error {
	if c.Rows <= 0 || c.Columns <= 0 {
		return fmt.Errorf("card %s: invalid dimensions %dx%d", c.ID, c.Rows, c.Columns)
	}
	if len(c.Spaces) != c.Rows*c.Columns {
		return fmt.Errorf("card %s: %d spaces for a %dx%d card", c.ID, len(c.Spaces), c.Rows, c.Columns)
	}
	seen := make(map[string]struct{}, len(c.Spaces))
	for _, s := range c.Spaces {
		if s.ID == "" {
			return fmt.Errorf("card %s: space with empty id", c.ID)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("card %s: duplicate space %q", c.ID, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// EncodeCards serializes card layouts. Marks are not part of the encoding.
func EncodeCards(cards []*Card) ([]byte, error) {
	if cards == nil {
		cards = []*Card{}
	}
	return json.Marshal(cards)
}

// DecodeCards parses card layouts and validates each card.
func DecodeCards(data []byte) ([]*Card, error) {
	var cards []*Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("failed to decode cards: %w", err)
	}
	for _, c := range cards {
		if c == nil {
			return nil, fmt.Errorf("failed to decode cards: null card")
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		c.marked = make(map[string]struct{})
	}
	return cards, nil
}
