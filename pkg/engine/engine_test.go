package engine

import (
	"testing"
	"time"

	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cardLabels = []string{"1", "2", "3", "4", "47", "5", "6", "16", "17"}

// drawScript returns a source that makes draw.Order yield want as its prefix.
func drawScript(t *testing.T, all []game.Space, want []string) random.Source {
	t.Helper()
	pool := append([]game.Space(nil), all...)
	values := make([]int, 0, len(want))
	for i, id := range want {
		k := -1
		for j := i; j < len(pool); j++ {
			if pool[j].ID == id {
				k = j
				break
			}
		}
		require.GreaterOrEqual(t, k, 0, "label %s not in pool", id)
		values = append(values, k-i)
		pool[i], pool[k] = pool[k], pool[i]
	}
	return random.NewSequence(values...)
}

func bonusCard() *game.Card {
	spaces := make([]game.Space, len(cardLabels))
	for i, l := range cardLabels {
		spaces[i] = game.NewSpace(l)
	}
	return game.NewCard(3, 3, spaces)
}

// defaultOrder calls every space of bonusCard first.
var defaultOrder = append(append([]string(nil), cardLabels...), "18", "19", "20", "21", "31", "32")

func newMachine(t *testing.T, cfg *game.Config, order []string, cards ...*game.Card) *Machine {
	t.Helper()
	m, err := New(Config{Variant: cfg, Source: drawScript(t, cfg.AllSpaces(), order)})
	require.NoError(t, err)
	require.Empty(t, m.Apply(SetCards{Cards: cards}))
	return m
}

func find[T Effect](effects []Effect) (T, bool) {
	for _, e := range effects {
		if v, ok := e.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func count[T Effect](effects []Effect) int {
	n := 0
	for _, e := range effects {
		if _, ok := e.(T); ok {
			n++
		}
	}
	return n
}

// tickAll reveals every queued space, marking each one that is on card unless skipped.
func tickAll(m *Machine, card *game.Card, skip ...string) []Effect {
	skipped := map[string]bool{}
	for _, s := range skip {
		skipped[s] = true
	}
	var all []Effect
	for m.Phase() == PhaseActive {
		effects := m.Apply(Tick{Epoch: m.Epoch()})
		all = append(all, effects...)
		rev, ok := find[Revealed](effects)
		if ok && card.Contains(rev.Space.ID) && !skipped[rev.Space.ID] && m.Phase() == PhaseActive {
			all = append(all, m.Apply(Mark{CardID: card.ID, SpaceID: rev.Space.ID})...)
		}
		if !ok {
			break
		}
	}
	return all
}

func TestBeginRejections(t *testing.T) {
	cfg := game.Bingo47()

	m, err := New(Config{Variant: cfg, Source: random.New(1)})
	require.NoError(t, err)
	assert.Equal(t, []Effect{Rejected{Reason: ReasonNoCards}}, m.Apply(Begin{Credits: 500, BetMultiplier: 1}))

	m = newMachine(t, cfg, defaultOrder, bonusCard())
	assert.Equal(t, []Effect{Rejected{Reason: ReasonInsufficientCredits}}, m.Apply(Begin{Credits: 99, BetMultiplier: 1}))
	assert.Equal(t, []Effect{Rejected{Reason: ReasonInvalidBetMultiplier}}, m.Apply(Begin{Credits: 500, BetMultiplier: 3}))
	assert.Equal(t, PhaseIdle, m.Phase())
	assert.Nil(t, m.Round())

	require.NotEmpty(t, m.Apply(Begin{Credits: 500, BetMultiplier: 1}))
	assert.Equal(t, []Effect{Rejected{Reason: ReasonRoundInProgress}}, m.Apply(Begin{Credits: 500, BetMultiplier: 1}))
}

func TestBeginDebitsAndStartsReveal(t *testing.T) {
	m := newMachine(t, game.Bingo47(), defaultOrder, bonusCard())
	effects := m.Apply(Begin{Credits: 1000, BetMultiplier: 5})

	debit, ok := find[Debit](effects)
	require.True(t, ok)
	assert.Equal(t, 500, debit.Amount)

	start, ok := find[StartReveal](effects)
	require.True(t, ok)
	assert.Equal(t, m.Epoch(), start.Epoch)
	assert.Equal(t, 500*time.Millisecond, start.Delay)
	assert.Equal(t, 2*time.Second, start.Interval)

	assert.Equal(t, PhaseActive, m.Phase())
	assert.Equal(t, 15, m.Round().SpacesToReveal)
}

func TestTicksRevealDrawOrder(t *testing.T) {
	m := newMachine(t, game.Bingo47(), defaultOrder, bonusCard())
	m.Apply(Begin{Credits: 1000, BetMultiplier: 1})

	seen := map[string]bool{}
	for i := 1; i <= 15; i++ {
		effects := m.Apply(Tick{Epoch: m.Epoch()})
		rev, ok := find[Revealed](effects)
		require.True(t, ok, "tick %d", i)
		assert.Equal(t, defaultOrder[i-1], rev.Space.ID)
		assert.Equal(t, i, rev.Called)
		assert.False(t, seen[rev.Space.ID], "duplicate call %s", rev.Space.ID)
		seen[rev.Space.ID] = true

		speak, ok := find[Speak](effects)
		assert.True(t, ok)
		assert.Equal(t, rev.Space.Label, speak.Text)

		if i < 15 {
			assert.LessOrEqual(t, len(m.Round().Called), m.Round().SpacesToReveal)
			assert.Equal(t, Cue{Sound: providers.SoundCalled}, effects[len(effects)-1])
		}
	}
	assert.Equal(t, PhaseLastCall, m.Phase(), "nothing was marked")
}

func TestStaleTimersAreIgnored(t *testing.T) {
	m := newMachine(t, game.Bingo47(), defaultOrder, bonusCard())
	m.Apply(Begin{Credits: 1000, BetMultiplier: 1})
	stale := m.Epoch()

	m.Apply(Tick{Epoch: stale})
	reset := m.Apply(Reset{})
	assert.Contains(t, reset, StopReveal{Epoch: stale})
	assert.Equal(t, PhaseIdle, m.Phase())

	assert.Empty(t, m.Apply(Tick{Epoch: stale}))
	assert.Empty(t, m.Apply(CountdownTick{Epoch: stale}))
	assert.Nil(t, m.Round())

	m.Apply(Begin{Credits: 1000, BetMultiplier: 1})
	assert.NotEqual(t, stale, m.Epoch())
	assert.Empty(t, m.Apply(Tick{Epoch: stale}), "an old timer cannot drive a new round")
	assert.Empty(t, m.Round().Called)
}

func TestMarkRejectsUncalledSpace(t *testing.T) {
	card := bonusCard()
	m := newMachine(t, game.Bingo47(), defaultOrder, card)

	assert.Equal(t, []Effect{Rejected{Reason: ReasonRoundNotActive}}, m.Apply(Mark{CardID: card.ID, SpaceID: "1"}))

	m.Apply(Begin{Credits: 1000, BetMultiplier: 1})
	m.Apply(Tick{Epoch: m.Epoch()})

	effects := m.Apply(Mark{CardID: card.ID, SpaceID: "2"})
	assert.Equal(t, []Effect{
		Rejected{Reason: ReasonSpaceNotCalled},
		Cue{Sound: providers.SoundMarkedNotCalled, Haptic: providers.HapticWrongNumber},
	}, effects)
	assert.Zero(t, card.MarkedCount())

	other := bonusCard()
	assert.Equal(t, []Effect{Rejected{Reason: ReasonCardNotFound}}, m.Apply(Mark{CardID: other.ID, SpaceID: "1"}))
}

func TestMarkCalledSpaceNotOnCard(t *testing.T) {
	card := bonusCard()
	order := append([]string{"66"}, defaultOrder...)
	m := newMachine(t, game.Bingo47(), order, card)
	m.Apply(Begin{Credits: 1000, BetMultiplier: 1})
	m.Apply(Tick{Epoch: m.Epoch()})

	effects := m.Apply(Mark{CardID: card.ID, SpaceID: "66"})
	rejected, ok := find[Rejected](effects)
	require.True(t, ok)
	assert.Equal(t, ReasonSpaceNotOnCard, rejected.Reason)
	assert.Zero(t, card.MarkedCount())
}

func TestMarkIsIdempotent(t *testing.T) {
	card := bonusCard()
	order := []string{"47", "1", "2", "3"}
	m := newMachine(t, game.Bingo47(), order, card)
	m.Apply(Begin{Credits: 1000, BetMultiplier: 2})

	m.Apply(Tick{Epoch: m.Epoch()})
	first := m.Apply(Mark{CardID: card.ID, SpaceID: "47"})
	assert.Equal(t, 1, count[Marked](first))
	assert.Contains(t, first, CreditJackpot{BetMultiplier: 2})
	assert.Contains(t, first, Cue{Sound: providers.SoundGo, Haptic: providers.HapticBingo})

	second := m.Apply(Mark{CardID: card.ID, SpaceID: "47"})
	assert.Zero(t, count[Marked](second))
	assert.Zero(t, count[CreditJackpot](second), "no duplicate jackpot credit")
	assert.Zero(t, count[WinningsChanged](second))
	assert.Equal(t, 1, card.MarkedCount())
}

func TestWinningsFollowBingos(t *testing.T) {
	card := bonusCard()
	m := newMachine(t, game.Bingo47(), []string{"1", "2", "3"}, card)
	m.Apply(Begin{Credits: 1000, BetMultiplier: 1})

	var last []Effect
	for i := 0; i < 3; i++ {
		rev := m.Apply(Tick{Epoch: m.Epoch()})
		id := rev[0].(Revealed).Space.ID
		last = m.Apply(Mark{CardID: card.ID, SpaceID: id})
	}
	assert.Contains(t, last, WinningsChanged{Bingos: 1, Winnings: 50})
	assert.Contains(t, last, Cue{Sound: providers.SoundBingo, Haptic: providers.HapticBingo})
	assert.Equal(t, 50, m.Round().Winnings)
}

// A full card blacks out, claims the jackpot once and finalizes.
func TestBlackoutClaimsJackpotOnce(t *testing.T) {
	card := bonusCard()
	m := newMachine(t, game.Bingo47(), defaultOrder, card)
	m.Apply(Begin{Credits: 100, BetMultiplier: 1})

	effects := tickAll(m, card)

	assert.Equal(t, 1, count[CreditJackpot](effects))
	assert.Equal(t, 1, count[ClaimJackpot](effects))
	claim, _ := find[ClaimJackpot](effects)
	assert.Equal(t, 1, claim.BetMultiplier)

	credit, ok := find[Credit](effects)
	require.True(t, ok)
	assert.Equal(t, 4700, credit.Amount, "eight lines at bet 100")

	done, ok := find[RoundFinished](effects)
	require.True(t, ok)
	assert.True(t, done.Blackout)
	assert.Equal(t, 8, done.Bingos)
	assert.Equal(t, 15, done.Called)
	assert.Equal(t, PhaseIdle, m.Phase())
	assert.True(t, m.Round().Finished)

	assert.Empty(t, m.Apply(Tick{Epoch: m.Epoch() - 1}), "no timer can reopen a finished round")
	assert.Empty(t, m.Apply(Tick{Epoch: m.Epoch()}))
	assert.Empty(t, m.Apply(CountdownTick{Epoch: m.Epoch()}))
}

// Marking the last unmarked spaces during last call ends the round
// with the countdown frozen.
func TestLastCallShortCircuits(t *testing.T) {
	card := bonusCard()
	m := newMachine(t, game.Bingo47(), defaultOrder, card)
	m.Apply(Begin{Credits: 100, BetMultiplier: 1})

	effects := tickAll(m, card, "2", "3")
	started, ok := find[LastCallStarted](effects)
	require.True(t, ok)
	assert.Equal(t, 10, started.Seconds)
	_, ok = find[StartCountdown](effects)
	assert.True(t, ok)
	assert.Equal(t, PhaseLastCall, m.Phase())

	for i := 0; i < 3; i++ {
		m.Apply(CountdownTick{Epoch: m.Epoch()})
	}
	assert.Equal(t, 7, m.Round().LastCallRemaining)
	assert.Empty(t, m.Apply(Tick{Epoch: m.Epoch()}), "reveal ticks are ignored during last call")

	mid := m.Apply(Mark{CardID: card.ID, SpaceID: "2"})
	assert.Zero(t, count[RoundFinished](mid))
	assert.Equal(t, PhaseLastCall, m.Phase())

	final := m.Apply(Mark{CardID: card.ID, SpaceID: "3"})
	done, ok := find[RoundFinished](final)
	require.True(t, ok)
	assert.Equal(t, 7, done.LastCallRemaining)
	assert.Contains(t, final, StopCountdown{Epoch: m.Epoch() - 1})
	assert.Equal(t, PhaseIdle, m.Phase())
	assert.Equal(t, 7, m.Round().LastCallRemaining)
}

// Graceful expiry auto-marks the remaining called space before
// finalizing, and the new line is paid.
func TestGracefulExpiryAutoMarks(t *testing.T) {
	card := bonusCard()
	m := newMachine(t, game.Bingo47(), defaultOrder, card)
	settings := game.DefaultSettings()
	settings.GracefulBingos = true
	m.Apply(UpdateSettings{Settings: settings})
	m.Apply(Begin{Credits: 100, BetMultiplier: 1})

	tickAll(m, card, "3")
	require.Equal(t, PhaseLastCall, m.Phase())
	assert.Equal(t, 5, m.Round().Bingos)

	var effects []Effect
	for i := 0; i < 9; i++ {
		effects = m.Apply(CountdownTick{Epoch: m.Epoch()})
		assert.Zero(t, count[RoundFinished](effects), "tick %d", i+1)
	}
	effects = m.Apply(CountdownTick{Epoch: m.Epoch()})

	assert.Contains(t, effects, CountdownChanged{Remaining: 0})
	assert.Contains(t, effects, Marked{CardID: card.ID, Space: game.NewSpace("3"), Auto: true})
	assert.Contains(t, effects, WinningsChanged{Bingos: 8, Winnings: 4700})
	done, ok := find[RoundFinished](effects)
	require.True(t, ok)
	assert.Equal(t, 4700, done.Winnings)
	assert.True(t, done.Blackout)
}

func TestExpiryWithoutGraceDoesNotCredit(t *testing.T) {
	card := bonusCard()
	m := newMachine(t, game.Bingo47(), defaultOrder, card)
	m.Apply(Begin{Credits: 100, BetMultiplier: 1})
	tickAll(m, card, "3")

	var effects []Effect
	for i := 0; i < 10; i++ {
		effects = m.Apply(CountdownTick{Epoch: m.Epoch()})
	}
	done, ok := find[RoundFinished](effects)
	require.True(t, ok)
	assert.Equal(t, 5, done.Bingos)
	assert.Equal(t, 500, done.Winnings)
	assert.False(t, done.Blackout)
	assert.Zero(t, count[ClaimJackpot](effects))
	assert.False(t, card.IsMarked("3"))
}

func TestAutoMarkOnReveal(t *testing.T) {
	card := bonusCard()
	m := newMachine(t, game.Bingo47(), []string{"47", "66"}, card)
	settings, err := game.DefaultSettings().ApplyMode(game.ModeAuto)
	require.NoError(t, err)
	m.Apply(UpdateSettings{Settings: settings})

	begin := m.Apply(Begin{Credits: 100, BetMultiplier: 1})
	start, _ := find[StartReveal](begin)
	assert.Equal(t, 150*time.Millisecond, start.Interval)

	effects := m.Apply(Tick{Epoch: m.Epoch()})
	assert.Zero(t, count[Speak](effects), "auto mode does not speak")
	assert.Contains(t, effects, Marked{CardID: card.ID, Space: game.NewSpace("47"), Auto: true})
	assert.Contains(t, effects, CreditJackpot{BetMultiplier: 1})
	assert.Contains(t, effects, Cue{Sound: providers.SoundGo, Haptic: providers.HapticBingo})

	effects = m.Apply(Tick{Epoch: m.Epoch()})
	assert.Contains(t, effects, Cue{Sound: providers.SoundCalled})
}

func TestFreeSpaceNeedsNoCall(t *testing.T) {
	cfg := game.Classic75()
	spaces := make([]game.Space, 25)
	for i := range spaces {
		spaces[i] = game.NewSpace(cfg.Labels[i*3])
	}
	spaces[12] = cfg.FreeSpaceCell()
	card := game.NewCard(5, 5, spaces)

	m, err := New(Config{Variant: cfg, Source: random.New(5)})
	require.NoError(t, err)
	m.Apply(SetCards{Cards: []*game.Card{card}})
	m.Apply(Begin{Credits: 100, BetMultiplier: 1})

	effects := m.Apply(Mark{CardID: card.ID, SpaceID: "FREE"})
	assert.Contains(t, effects, Marked{CardID: card.ID, Space: cfg.FreeSpaceCell(), Auto: false})
	assert.Contains(t, effects, Cue{Sound: providers.SoundWelcome, Haptic: providers.HapticChoose})
	assert.Zero(t, count[CreditJackpot](effects), "classic has no jackpot")
}

func TestBonusDrawsExtendNextRound(t *testing.T) {
	m := newMachine(t, game.Bingo47(), defaultOrder, bonusCard())
	m.Apply(GrantBonusDraws{N: 5})
	m.Apply(GrantBonusDraws{N: -2})
	assert.Equal(t, 5, m.PendingBonusDraws())

	m.Apply(Begin{Credits: 100, BetMultiplier: 1})
	assert.Equal(t, 20, m.Round().SpacesToReveal)
	assert.Zero(t, m.PendingBonusDraws())
}

func TestDrawClampsToLabelPool(t *testing.T) {
	m := newMachine(t, game.Bingo47(), defaultOrder, bonusCard())
	m.Apply(GrantBonusDraws{N: 100})
	m.Apply(Begin{Credits: 100, BetMultiplier: 1})
	assert.Equal(t, 30, m.Round().SpacesToReveal)
}

func TestSpeedChangeRestartsReveal(t *testing.T) {
	m := newMachine(t, game.Bingo47(), defaultOrder, bonusCard())
	m.Apply(Begin{Credits: 100, BetMultiplier: 1})

	settings := m.Settings()
	settings.GameSpeed = game.SpeedFast
	effects := m.Apply(UpdateSettings{Settings: settings})
	assert.Equal(t, []Effect{
		StopReveal{Epoch: m.Epoch()},
		StartReveal{Epoch: m.Epoch(), Delay: 500 * time.Millisecond, Interval: 500 * time.Millisecond},
	}, effects)

	settings.SpeakSpaces = false
	assert.Empty(t, m.Apply(UpdateSettings{Settings: settings}))
}

func TestSetCardsOnlyBetweenRounds(t *testing.T) {
	m := newMachine(t, game.Bingo47(), defaultOrder, bonusCard())
	m.Apply(Begin{Credits: 100, BetMultiplier: 1})
	assert.Equal(t, []Effect{Rejected{Reason: ReasonRoundInProgress}}, m.Apply(SetCards{Cards: []*game.Card{bonusCard()}}))

	m.Apply(Reset{})
	assert.Equal(t, []Effect{Rejected{Reason: ReasonNoCards}}, m.Apply(SetCards{}))
	assert.Empty(t, m.Apply(SetCards{Cards: []*game.Card{bonusCard(), bonusCard()}}))
	assert.Len(t, m.Cards(), 2)
}

func TestStateSnapshot(t *testing.T) {
	card := bonusCard()
	m := newMachine(t, game.Bingo47(), defaultOrder, card)
	st := m.State()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Empty(t, st.Called)

	m.Apply(Begin{Credits: 100, BetMultiplier: 1})
	for i := 0; i < 3; i++ {
		rev := m.Apply(Tick{Epoch: m.Epoch()})
		m.Apply(Mark{CardID: card.ID, SpaceID: rev[0].(Revealed).Space.ID})
	}

	st = m.State()
	assert.Equal(t, PhaseActive, st.Phase)
	assert.Len(t, st.Called, 3)
	require.NotNil(t, st.Current)
	assert.Equal(t, "3", st.Current.ID)
	require.Len(t, st.Cards, 1)
	assert.Equal(t, []string{"1", "2", "3"}, st.Cards[0].Marked)
	assert.Equal(t, []string{"1", "2", "3"}, st.Cards[0].BingoSpaces)
	assert.Equal(t, 1, st.Bingos)

	st.Called[0] = game.NewSpace("mutated")
	assert.Equal(t, "1", m.Round().Called[0].ID)

	text, err := st.Phase.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "active", string(text))
}
