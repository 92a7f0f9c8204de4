// Package session is the game view-model of one player. It owns the wallet,
// bet selection, cards, favorites and settings, persists them through a
// providers.Store, and carries out the effects of the round engine.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/bonus"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/broadcast"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/card"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/engine"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/jackpot"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/payout"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/random"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/scheduler"
	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// Options wires a session to its collaborators. Only Variant and Store are
// required; every other collaborator defaults to a no-op.
type Options struct {
	PlayerID string
	Variant  *game.Config
	Store    providers.Store
	// Ledger defaults to a ledger kept in Store under jackpot.StorageKey.
	Ledger      *jackpot.Ledger
	Purchases   providers.PurchaseProvider
	Ads         providers.AdProvider
	Leaderboard providers.LeaderboardProvider
	Cues        providers.CuePlayer
	Speaker     providers.Speaker
	Events      providers.EventPublisher
	Clock       clock.Clock
	Source      random.Source
	Logger      zerolog.Logger
	// EventBuffer is the per-listener buffer of Listen.
	EventBuffer int
}

// Session is safe for concurrent use. Every mutation, including timer
// callbacks, runs under one mutex.
type Session struct {
	mu sync.Mutex

	playerID    string
	variant     *game.Config
	store       providers.Store
	ledger      *jackpot.Ledger
	purchases   providers.PurchaseProvider
	ads         providers.AdProvider
	leaderboard providers.LeaderboardProvider
	cues        providers.CuePlayer
	speaker     providers.Speaker
	events      providers.EventPublisher
	clock       clock.Clock
	logger      zerolog.Logger

	machine   *engine.Machine
	generator *card.Generator
	calc      *payout.Calculator
	bonus     *bonus.Scheduler
	sched     *scheduler.Scheduler
	broad     *broadcast.Broadcaster[Event]

	reveal         *scheduler.Token
	revealEpoch    uint64
	countdown      *scheduler.Token
	countdownEpoch uint64

	credits       int
	betMultiplier int
	favorites     []*game.Card
	gamesPlayed   int
	totalBingos   int
	seenModes     bool
	lastJackpot   *jackpot.Claim
	background    bool
	closed        bool

	// ticks that fired in the window before a pause, applied on Foreground
	deferred []engine.Event
	// I/O queued under mu, run by unlock
	outbox       []func(context.Context)
	adsAvailable bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New loads the player's saved state and returns an idle session.
// Corrupt saved data falls back to defaults instead of failing.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.Variant == nil {
		return nil, fmt.Errorf("session: variant is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("session: store is required")
	}
	opts = withDefaults(opts)

	machine, err := engine.New(engine.Config{Variant: opts.Variant, Source: opts.Source})
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	gen, err := card.NewGenerator(opts.Variant, opts.Source)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	logger := opts.Logger.With().
		Str("component", "session").
		Str("player_id", opts.PlayerID).
		Str("variant", opts.Variant.GameCode).
		Logger()

	sessCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		playerID:    opts.PlayerID,
		variant:     opts.Variant,
		store:       opts.Store,
		ledger:      opts.Ledger,
		purchases:   opts.Purchases,
		ads:         opts.Ads,
		leaderboard: opts.Leaderboard,
		cues:        opts.Cues,
		speaker:     opts.Speaker,
		events:      opts.Events,
		clock:       opts.Clock,
		logger:      logger,
		machine:     machine,
		generator:   gen,
		calc:        payout.NewCalculator(opts.Variant, len(machine.Patterns())),
		bonus:       bonus.NewScheduler(opts.Variant.BonusOffer, opts.Variant.BonusBalls, opts.Source),
		sched:       scheduler.New(opts.Clock),
		broad:       broadcast.New[Event](opts.EventBuffer),
		ctx:         sessCtx,
		cancel:      cancel,
	}
	if s.ledger == nil {
		s.ledger = jackpot.NewLedger(jackpot.NewStoreBackend(opts.Store, logger), jackpot.Config{
			PayoutMultiplier: opts.Variant.Jackpot.Multiplier,
			BaselineFactor:   opts.Variant.Jackpot.BaselineFactor,
		}, logger)
	}

	if err := s.restore(ctx); err != nil {
		cancel()
		return nil, err
	}
	s.adsAvailable = s.ads.IsRewardAvailable(ctx)
	s.bonus.Advance(s.adsAvailable)

	logger.Debug().Int("credits", s.credits).Int("bet_multiplier", s.betMultiplier).Msg("Session started")
	return s, nil
}

// later queues I/O to run once mu is released. It must be called with mu held.
func (s *Session) later(fn func(ctx context.Context)) {
	s.outbox = append(s.outbox, fn)
}

// unlock releases mu and then runs the work queued while it was held.
func (s *Session) unlock() {
	work := s.outbox
	s.outbox = nil
	s.mu.Unlock()
	for _, fn := range work {
		fn(s.ctx)
	}
}

func withDefaults(opts Options) Options {
	var nop providers.Nop
	if opts.Purchases == nil {
		opts.Purchases = nop
	}
	if opts.Ads == nil {
		opts.Ads = nop
	}
	if opts.Leaderboard == nil {
		opts.Leaderboard = nop
	}
	if opts.Cues == nil {
		opts.Cues = nop
	}
	if opts.Speaker == nil {
		opts.Speaker = nop
	}
	if opts.Events == nil {
		opts.Events = nop
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Source == nil {
		opts.Source = random.NewTimeSeeded()
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}
	return opts
}

// PlayerID returns the owner of the session.
func (s *Session) PlayerID() string {
	return s.playerID
}

// Variant returns the variant the session plays.
func (s *Session) Variant() *game.Config {
	return s.variant
}

// Ledger returns the jackpot ledger the session credits and claims.
func (s *Session) Ledger() *jackpot.Ledger {
	return s.ledger
}

// Listen returns a channel of session events plus a cancel function.
func (s *Session) Listen(ctx context.Context) (<-chan Event, context.CancelFunc) {
	return s.broad.Listen(ctx)
}

// Background pauses both timers and keeps the time left on each.
func (s *Session) Background() {
	s.mu.Lock()
	defer s.unlock()
	if s.closed || s.background {
		return
	}
	s.background = true
	s.reveal.Pause()
	s.countdown.Pause()
	s.logger.Debug().Msg("Session backgrounded")
}

// Foreground resumes the timers with the time that was left when they paused.
func (s *Session) Foreground() {
	s.mu.Lock()
	defer s.unlock()
	if s.closed || !s.background {
		return
	}
	s.background = false
	deferred := s.deferred
	s.deferred = nil
	for _, e := range deferred {
		_ = s.execute(s.ctx, s.machine.Apply(e))
	}
	s.reveal.Resume()
	s.countdown.Resume()
	s.logger.Debug().Msg("Session foregrounded")
}

// Close abandons any round in progress and stops every listener. A closed
// session rejects further intents.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.reveal.Cancel()
	s.countdown.Cancel()
	s.cancel()
	s.broad.Close()
	s.logger.Debug().Msg("Session closed")
}
