package server

import (
	"context"
	"sync"
	"time"

	"github.com/Digital-Creators-Team/bingo-game-module/errors"
	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/jackpot"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	"github.com/Digital-Creators-Team/bingo-game-module/session"
	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// StoreFactory returns the store that holds one player's saved state.
type StoreFactory func(playerID string) providers.Store

// SessionConfig is the template every player session is built from.
type SessionConfig struct {
	Variant *game.Config
	Stores  StoreFactory
	// Ledger is shared by every session. Nil gives each player a ledger
	// kept in their own store.
	Ledger      *jackpot.Ledger
	Purchases   providers.PurchaseProvider
	Ads         providers.AdProvider
	Leaderboard providers.LeaderboardProvider
	Events      providers.EventPublisher
	Clock       clock.Clock
	// IdleTTL closes sessions that saw no request for this long and have
	// no open stream.
	IdleTTL time.Duration
	Logger  zerolog.Logger
}

// SessionManager hosts one session per player.
//
// Flow: HTTP Request -> gameRoutes -> GameHandler -> SessionManager -> session.Session
type SessionManager struct {
	cfg    SessionConfig
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*hosted
	closed   bool
}

type hosted struct {
	sess     *session.Session
	lastSeen time.Time
	streams  int
}

// NewSessionManager creates a session manager
func NewSessionManager(cfg SessionConfig) *SessionManager {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return &SessionManager{
		cfg:      cfg,
		logger:   cfg.Logger.With().Str("service", "sessions").Logger(),
		sessions: make(map[string]*hosted),
	}
}

// Variant returns the variant every session plays.
func (m *SessionManager) Variant() *game.Config {
	return m.cfg.Variant
}

// SharedLedger returns the ledger shared by all sessions, or nil.
func (m *SessionManager) SharedLedger() *jackpot.Ledger {
	return m.cfg.Ledger
}

// Get returns the player's session, restoring it from the store on first use.
func (m *SessionManager) Get(ctx context.Context, playerID string) (*session.Session, error) {
	return m.acquire(ctx, playerID, false)
}

// Hold returns the player's session and keeps it alive until release is
// called. Streams hold their session for as long as they are connected.
func (m *SessionManager) Hold(ctx context.Context, playerID string) (*session.Session, func(), error) {
	sess, err := m.acquire(ctx, playerID, true)
	if err != nil {
		return nil, nil, err
	}
	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if h, ok := m.sessions[playerID]; ok && h.sess == sess {
				h.streams--
				h.lastSeen = m.cfg.Clock.Now()
			}
		})
	}
	return sess, release, nil
}

func (m *SessionManager) acquire(ctx context.Context, playerID string, hold bool) (*session.Session, error) {
	if playerID == "" {
		return nil, errors.New(errors.ErrUnauthorized, "player id is required")
	}
	if sess, ok := m.lookup(playerID, hold); ok {
		return sess, nil
	}

	// Restoring reads the store, so it runs outside the lock.
	sess, err := m.open(ctx, playerID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		sess.Close()
		return nil, errors.New(errors.ErrServiceUnavailable, "server is shutting down")
	}
	if h, ok := m.sessions[playerID]; ok {
		// another request restored the same player first
		sess.Close()
		m.touch(h, hold)
		return h.sess, nil
	}
	h := &hosted{sess: sess}
	m.touch(h, hold)
	m.sessions[playerID] = h
	m.logger.Info().Str("player_id", playerID).Int("sessions", len(m.sessions)).Msg("Session opened")
	return sess, nil
}

func (m *SessionManager) lookup(playerID string, hold bool) (*session.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.sessions[playerID]
	if !ok {
		return nil, false
	}
	m.touch(h, hold)
	return h.sess, true
}

// touch must be called with mu held.
func (m *SessionManager) touch(h *hosted, hold bool) {
	h.lastSeen = m.cfg.Clock.Now()
	if hold {
		h.streams++
	}
}

func (m *SessionManager) open(ctx context.Context, playerID string) (*session.Session, error) {
	if m.cfg.Variant == nil || m.cfg.Stores == nil {
		return nil, errors.New(errors.ErrInternalServerError, "game not configured")
	}
	sess, err := session.New(ctx, session.Options{
		PlayerID:    playerID,
		Variant:     m.cfg.Variant.Clone(),
		Store:       m.cfg.Stores(playerID),
		Ledger:      m.cfg.Ledger,
		Purchases:   m.cfg.Purchases,
		Ads:         m.cfg.Ads,
		Leaderboard: m.cfg.Leaderboard,
		Events:      m.cfg.Events,
		Clock:       m.cfg.Clock,
		Logger:      m.cfg.Logger,
	})
	if err != nil {
		m.logger.Error().Err(err).Str("player_id", playerID).Msg("Failed to open session")
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrStoreError, "failed to restore player state")
	}
	return sess, nil
}

// Len returns the number of hosted sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle since before now-IdleTTL and returns how many
// were closed.
func (m *SessionManager) Sweep() int {
	if m.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.cfg.Clock.Now().Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	var idle []*session.Session
	for id, h := range m.sessions {
		if h.streams > 0 || h.lastSeen.After(cutoff) {
			continue
		}
		idle = append(idle, h.sess)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, sess := range idle {
		sess.Close()
	}
	if len(idle) > 0 {
		m.logger.Info().Int("closed", len(idle)).Int("sessions", m.Len()).Msg("Idle sessions closed")
	}
	return len(idle)
}

// Run sweeps idle sessions until ctx is done.
func (m *SessionManager) Run(ctx context.Context) {
	if m.cfg.IdleTTL <= 0 {
		return
	}
	interval := m.cfg.IdleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := m.cfg.Clock.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Close closes every session. Later requests are rejected.
func (m *SessionManager) Close() {
	m.mu.Lock()
	m.closed = true
	all := make([]*session.Session, 0, len(m.sessions))
	for _, h := range m.sessions {
		all = append(all, h.sess)
	}
	m.sessions = make(map[string]*hosted)
	m.mu.Unlock()

	for _, sess := range all {
		sess.Close()
	}
}
