// Package engine is the round state machine. It is a pure transition
// function: Apply takes an event and returns the effects the caller must carry
// out (debits, timers, ledger calls, feedback). It performs no I/O.
package engine

import (
	"fmt"
	"time"

	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/draw"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/pattern"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/payout"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/random"
	"github.com/google/uuid"
)

// CountdownInterval is the last-call tick period.
const CountdownInterval = time.Second

// Phase is the round lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseLastCall
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseLastCall:
		return "last_call"
	default:
		return "idle"
	}
}

// MarshalText renders the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Round is the ephemeral state of one round.
type Round struct {
	ID                uuid.UUID
	Epoch             uint64
	Bet               int
	BetMultiplier     int
	SpacesToReveal    int
	Called            []game.Space
	Current           *game.Space
	Winnings          int
	Bingos            int
	LastCallRemaining int
	Finished          bool

	called map[string]struct{}
	queue  *draw.Queue
	table  []payout.Row
}

// IsCalled reports whether a space has been called this round.
func (r *Round) IsCalled(spaceID string) bool {
	_, ok := r.called[spaceID]
	return ok
}

// Config wires a machine to its variant.
type Config struct {
	Variant *game.Config
	// Patterns defaults to pattern.ForVariant.
	Patterns pattern.Set
	// Payout defaults to a calculator over Variant and Patterns.
	Payout *payout.Calculator
	Source random.Source
}

// Machine holds the round state of one player.
// It is not safe for concurrent use; callers serialise Apply.
type Machine struct {
	variant  *game.Config
	patterns pattern.Set
	payout   *payout.Calculator
	src      random.Source

	phase        Phase
	epoch        uint64
	round        *Round
	cards        []*game.Card
	settings     game.Settings
	pendingBonus int
}

// New creates an idle machine with default settings and no cards.
func New(cfg Config) (*Machine, error) {
	if cfg.Variant == nil {
		return nil, fmt.Errorf("engine: variant is required")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("engine: random source is required")
	}
	patterns := cfg.Patterns
	if patterns == nil {
		var err error
		patterns, err = pattern.ForVariant(cfg.Variant)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}
	calc := cfg.Payout
	if calc == nil {
		calc = payout.NewCalculator(cfg.Variant, len(patterns))
	}
	return &Machine{
		variant:  cfg.Variant,
		patterns: patterns,
		payout:   calc,
		src:      cfg.Source,
		settings: game.DefaultSettings(),
	}, nil
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase { return m.phase }

// Epoch returns the identity of the current timer generation.
func (m *Machine) Epoch() uint64 { return m.epoch }

// Round returns the current or most recently finished round, or nil.
func (m *Machine) Round() *Round { return m.round }

// Cards returns the cards in play. Callers must not mutate them.
func (m *Machine) Cards() []*game.Card { return m.cards }

// Settings returns the current settings.
func (m *Machine) Settings() game.Settings { return m.settings }

// PendingBonusDraws returns the extra draws queued for the next round.
func (m *Machine) PendingBonusDraws() int { return m.pendingBonus }

// Patterns returns the winning patterns.
func (m *Machine) Patterns() pattern.Set { return m.patterns }

// Apply runs one event through the machine.
func (m *Machine) Apply(ev Event) []Effect {
	switch e := ev.(type) {
	case Begin:
		return m.begin(e)
	case Tick:
		return m.tick(e)
	case CountdownTick:
		return m.countdown(e)
	case Mark:
		return m.mark(e)
	case Reset:
		return m.reset()
	case SetCards:
		return m.setCards(e)
	case UpdateSettings:
		return m.updateSettings(e)
	case GrantBonusDraws:
		if e.N > 0 {
			m.pendingBonus += e.N
		}
		return nil
	default:
		return nil
	}
}

func reject(r Reason) []Effect {
	return []Effect{Rejected{Reason: r}}
}

func (m *Machine) begin(e Begin) []Effect {
	if m.phase != PhaseIdle {
		return reject(ReasonRoundInProgress)
	}
	if !m.variant.HasMultiplier(e.BetMultiplier) {
		return reject(ReasonInvalidBetMultiplier)
	}
	bet := m.variant.Bet(e.BetMultiplier)
	if e.Credits < bet {
		return reject(ReasonInsufficientCredits)
	}
	if len(m.cards) == 0 {
		return reject(ReasonNoCards)
	}

	m.epoch++
	for _, c := range m.cards {
		c.ClearMarks()
	}

	order := draw.Order(m.variant.AllSpaces(), m.variant.BaseDraws+m.pendingBonus, m.src)
	m.pendingBonus = 0
	m.round = &Round{
		ID:             uuid.New(),
		Epoch:          m.epoch,
		Bet:            bet,
		BetMultiplier:  e.BetMultiplier,
		SpacesToReveal: len(order),
		called:         make(map[string]struct{}, len(order)),
		queue:          draw.NewQueue(order),
		table:          m.payout.Table(e.BetMultiplier),
	}
	m.phase = PhaseActive

	return []Effect{
		Debit{Amount: bet},
		Cue{Haptic: providers.HapticChoose},
		StartReveal{Epoch: m.epoch, Delay: m.variant.StartDelay, Interval: m.settings.GameSpeed.Interval()},
	}
}

func (m *Machine) tick(e Tick) []Effect {
	if e.Epoch != m.epoch || m.phase != PhaseActive {
		return nil
	}
	r := m.round
	space, ok := r.queue.Next()
	if !ok {
		return m.endOfDraw(nil)
	}

	r.called[space.ID] = struct{}{}
	r.Called = append(r.Called, space)
	current := space
	r.Current = &current

	effects := []Effect{Revealed{Space: space, Called: len(r.Called), Remaining: r.SpacesToReveal - len(r.Called)}}
	if m.settings.SpeakSpaces {
		effects = append(effects, Speak{Text: space.Label})
	}
	if m.settings.AutoMark {
		effects = append(effects, m.autoMark(space)...)
	} else {
		effects = append(effects, Cue{Sound: providers.SoundCalled})
	}

	if len(r.Called) >= r.SpacesToReveal {
		return m.endOfDraw(effects)
	}
	return effects
}

// autoMark marks a revealed space on every card holding it and cues once.
func (m *Machine) autoMark(space game.Space) []Effect {
	before := m.round.Bingos
	var effects []Effect
	onCard := false
	for _, c := range m.cards {
		if !c.Contains(space.ID) {
			continue
		}
		onCard = true
		effects = append(effects, m.applyMark(c, space, true)...)
	}
	effects = append(effects, m.rescore()...)
	if onCard {
		effects = append(effects, m.cueFor(space, before))
	} else {
		effects = append(effects, Cue{Sound: providers.SoundCalled})
	}
	return effects
}

func (m *Machine) endOfDraw(effects []Effect) []Effect {
	effects = append(effects, StopReveal{Epoch: m.epoch})
	if !m.hasUnmarkedCalled() {
		return append(effects, m.finalize()...)
	}
	m.phase = PhaseLastCall
	m.round.LastCallRemaining = m.variant.LastCallSeconds
	return append(effects,
		LastCallStarted{Seconds: m.round.LastCallRemaining},
		StartCountdown{Epoch: m.epoch, Interval: CountdownInterval},
	)
}

func (m *Machine) countdown(e CountdownTick) []Effect {
	if e.Epoch != m.epoch || m.phase != PhaseLastCall {
		return nil
	}
	r := m.round
	if r.LastCallRemaining > 0 {
		r.LastCallRemaining--
	}
	effects := []Effect{CountdownChanged{Remaining: r.LastCallRemaining}}
	if r.LastCallRemaining > 0 {
		return effects
	}

	if m.settings.GracefulBingos {
		for _, c := range m.cards {
			for _, s := range c.UnmarkedCalled(r.called) {
				effects = append(effects, m.applyMark(c, s, true)...)
			}
		}
		effects = append(effects, m.rescore()...)
	}
	return append(effects, m.finalize()...)
}

func (m *Machine) mark(e Mark) []Effect {
	if m.phase == PhaseIdle {
		return reject(ReasonRoundNotActive)
	}
	c := m.card(e.CardID)
	if c == nil {
		return reject(ReasonCardNotFound)
	}
	r := m.round

	space, onCard := c.Space(e.SpaceID)
	if !onCard {
		space = game.NewSpace(e.SpaceID)
	}
	if !space.IsFreeSpace && !r.IsCalled(space.ID) {
		return []Effect{
			Rejected{Reason: ReasonSpaceNotCalled},
			Cue{Sound: providers.SoundMarkedNotCalled, Haptic: providers.HapticWrongNumber},
		}
	}
	if !onCard {
		return []Effect{
			Rejected{Reason: ReasonSpaceNotOnCard},
			Cue{Sound: providers.SoundCalled},
		}
	}

	before := r.Bingos
	effects := m.applyMark(c, space, false)
	effects = append(effects, m.rescore()...)
	effects = append(effects, m.cueFor(space, before))

	if m.phase == PhaseLastCall && !m.hasUnmarkedCalled() {
		effects = append(effects, m.finalize()...)
	}
	return effects
}

// applyMark marks a space and credits the jackpot the first time the bonus
// space is marked on a card.
func (m *Machine) applyMark(c *game.Card, space game.Space, auto bool) []Effect {
	if !c.Mark(space.ID) {
		return nil
	}
	effects := []Effect{Marked{CardID: c.ID, Space: space, Auto: auto}}
	if m.variant.JackpotEnabled() && m.variant.IsBonusSpace(space.ID) {
		effects = append(effects, CreditJackpot{BetMultiplier: m.round.BetMultiplier})
	}
	return effects
}

func (m *Machine) rescore() []Effect {
	r := m.round
	bingos := m.patterns.CountAll(m.cards)
	winnings := payout.Lookup(r.table, bingos)
	if bingos == r.Bingos && winnings == r.Winnings {
		return nil
	}
	r.Bingos = bingos
	r.Winnings = winnings
	return []Effect{WinningsChanged{Bingos: bingos, Winnings: winnings}}
}

// cueFor picks the feedback for a space marked on a card.
func (m *Machine) cueFor(space game.Space, bingosBefore int) Cue {
	switch {
	case space.IsFreeSpace:
		return Cue{Sound: providers.SoundWelcome, Haptic: providers.HapticChoose}
	case m.variant.IsBonusSpace(space.ID):
		return Cue{Sound: providers.SoundGo, Haptic: providers.HapticBingo}
	case m.round.Bingos > bingosBefore:
		return Cue{Sound: providers.SoundBingo, Haptic: providers.HapticBingo}
	default:
		return Cue{Sound: providers.SoundWelcome}
	}
}

func (m *Machine) finalize() []Effect {
	r := m.round
	effects := []Effect{StopReveal{Epoch: m.epoch}, StopCountdown{Epoch: m.epoch}}

	blackout := len(m.cards) > 0
	for _, c := range m.cards {
		if !c.IsBlackout() {
			blackout = false
			break
		}
	}
	if blackout && m.variant.JackpotEnabled() {
		effects = append(effects, ClaimJackpot{BetMultiplier: r.BetMultiplier, RoundID: r.ID})
	}
	if r.Winnings > 0 {
		effects = append(effects, Credit{Amount: r.Winnings})
	}

	r.Finished = true
	m.phase = PhaseIdle
	// timers still in flight for this round must not touch the next one
	m.epoch++

	return append(effects, RoundFinished{
		RoundID:           r.ID,
		BetMultiplier:     r.BetMultiplier,
		Bet:               r.Bet,
		Called:            len(r.Called),
		Bingos:            r.Bingos,
		Winnings:          r.Winnings,
		Blackout:          blackout,
		LastCallRemaining: r.LastCallRemaining,
	})
}

func (m *Machine) reset() []Effect {
	old := m.epoch
	m.epoch++
	m.phase = PhaseIdle
	m.round = nil
	for _, c := range m.cards {
		c.ClearMarks()
	}
	return []Effect{StopReveal{Epoch: old}, StopCountdown{Epoch: old}}
}

func (m *Machine) setCards(e SetCards) []Effect {
	if m.phase != PhaseIdle {
		return reject(ReasonRoundInProgress)
	}
	if len(e.Cards) == 0 {
		return reject(ReasonNoCards)
	}
	m.cards = e.Cards
	for _, c := range m.cards {
		c.ClearMarks()
	}
	m.round = nil
	return nil
}

func (m *Machine) updateSettings(e UpdateSettings) []Effect {
	prev := m.settings
	m.settings = e.Settings
	if m.phase == PhaseActive && prev.GameSpeed.Interval() != e.Settings.GameSpeed.Interval() {
		interval := e.Settings.GameSpeed.Interval()
		return []Effect{
			StopReveal{Epoch: m.epoch},
			StartReveal{Epoch: m.epoch, Delay: interval, Interval: interval},
		}
	}
	return nil
}

func (m *Machine) card(id uuid.UUID) *game.Card {
	for _, c := range m.cards {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (m *Machine) hasUnmarkedCalled() bool {
	for _, c := range m.cards {
		if len(c.UnmarkedCalled(m.round.called)) > 0 {
			return true
		}
	}
	return false
}
