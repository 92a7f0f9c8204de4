package engine

import (
	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/samber/lo"
)

// CardState is a read-only view of one card.
type CardState struct {
	ID          string       `json:"id"`
	Rows        int          `json:"rows"`
	Columns     int          `json:"columns"`
	Spaces      []game.Space `json:"spaces"`
	Marked      []string     `json:"marked"`
	BingoSpaces []string     `json:"bingoSpaces"`
	Bingos      int          `json:"bingos"`
}

// State is a read-only snapshot of the machine.
type State struct {
	Phase             Phase        `json:"phase"`
	RoundID           string       `json:"roundId,omitempty"`
	BetMultiplier     int          `json:"betMultiplier,omitempty"`
	Bet               int          `json:"bet,omitempty"`
	SpacesToReveal    int          `json:"spacesToReveal"`
	Called            []game.Space `json:"called"`
	Current           *game.Space  `json:"current,omitempty"`
	Bingos            int          `json:"bingos"`
	Winnings          int          `json:"winnings"`
	LastCallRemaining int          `json:"lastCallRemaining"`
	Finished          bool         `json:"finished"`
	PendingBonusDraws int          `json:"pendingBonusDraws"`
	Cards             []CardState  `json:"cards"`
}

// State returns a snapshot that shares nothing with the machine.
func (m *Machine) State() State {
	st := State{
		Phase:             m.phase,
		Called:            []game.Space{},
		PendingBonusDraws: m.pendingBonus,
		Cards: lo.Map(m.cards, func(c *game.Card, _ int) CardState {
			return CardState{
				ID:          c.ID.String(),
				Rows:        c.Rows,
				Columns:     c.Columns,
				Spaces:      append([]game.Space(nil), c.Spaces...),
				Marked:      lo.Map(c.Marked(), func(s game.Space, _ int) string { return s.ID }),
				BingoSpaces: lo.Map(m.patterns.Spaces(c), func(s game.Space, _ int) string { return s.ID }),
				Bingos:      m.patterns.Count(c),
			}
		}),
	}
	if r := m.round; r != nil {
		st.RoundID = r.ID.String()
		st.BetMultiplier = r.BetMultiplier
		st.Bet = r.Bet
		st.SpacesToReveal = r.SpacesToReveal
		st.Called = append(st.Called, r.Called...)
		if r.Current != nil {
			current := *r.Current
			st.Current = &current
		}
		st.Bingos = r.Bingos
		st.Winnings = r.Winnings
		st.LastCallRemaining = r.LastCallRemaining
		st.Finished = r.Finished
	}
	return st
}
