package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Digital-Creators-Team/bingo-game-module/errors"
	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/jackpot"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	"github.com/Digital-Creators-Team/bingo-game-module/provider"
	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, ttl time.Duration, ledger *jackpot.Ledger) (*SessionManager, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	shared := provider.NewMemoryStore()
	m := NewSessionManager(SessionConfig{
		Variant: game.Bingo47(),
		Stores: func(playerID string) providers.Store {
			return providers.WithPrefix(shared, playerID+":")
		},
		Ledger:  ledger,
		Clock:   mock,
		IdleTTL: ttl,
		Logger:  zerolog.Nop(),
	})
	t.Cleanup(m.Close)
	return m, mock
}

func TestSessionManagerReusesSessions(t *testing.T) {
	m, _ := newManager(t, time.Minute, nil)
	ctx := context.Background()

	a, err := m.Get(ctx, "p1")
	require.NoError(t, err)
	b, err := m.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Same(t, a, b)

	other, err := m.Get(ctx, "p2")
	require.NoError(t, err)
	assert.NotSame(t, a, other)
	assert.Equal(t, 2, m.Len())

	_, err = m.Get(ctx, "")
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
}

func TestSessionManagerConcurrentFirstUse(t *testing.T) {
	m, _ := newManager(t, time.Minute, nil)

	var wg sync.WaitGroup
	got := make(chan interface{}, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Get(context.Background(), "p1")
			if err == nil {
				got <- s
			}
		}()
	}
	wg.Wait()
	close(got)

	var first interface{}
	n := 0
	for s := range got {
		if first == nil {
			first = s
		}
		assert.Same(t, first, s)
		n++
	}
	assert.Equal(t, 8, n)
	assert.Equal(t, 1, m.Len())
}

func TestSessionManagerSweepsIdleSessions(t *testing.T) {
	m, mock := newManager(t, time.Minute, nil)
	ctx := context.Background()

	idle, err := m.Get(ctx, "idle")
	require.NoError(t, err)
	require.NoError(t, idle.Refill(ctx))

	_, release, err := m.Hold(ctx, "streaming")
	require.NoError(t, err)

	mock.Add(30 * time.Second)
	_, err = m.Get(ctx, "recent")
	require.NoError(t, err)

	mock.Add(45 * time.Second)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 2, m.Len())

	// a closed session rejects intents; the player gets a fresh one
	// restored from the store on the next request
	assert.True(t, errors.Is(idle.Refill(ctx), errors.ErrServiceUnavailable))
	restored, err := m.Get(ctx, "idle")
	require.NoError(t, err)
	assert.NotSame(t, idle, restored)
	assert.Equal(t, 10000, restored.Snapshot(ctx).Credits)

	release()
	release()
	mock.Add(2 * time.Minute)
	assert.Equal(t, 3, m.Sweep())
	assert.Equal(t, 0, m.Len())
}

func TestSessionManagerSharesTheLedger(t *testing.T) {
	ledger := jackpot.NewLedger(jackpot.NewMemoryBackend(), jackpot.DefaultConfig(), zerolog.Nop())
	m, _ := newManager(t, time.Minute, ledger)
	ctx := context.Background()

	a, err := m.Get(ctx, "p1")
	require.NoError(t, err)
	b, err := m.Get(ctx, "p2")
	require.NoError(t, err)
	assert.Same(t, ledger, a.Ledger())
	assert.Same(t, ledger, b.Ledger())
	assert.Same(t, ledger, m.SharedLedger())

	_, err = ledger.Credit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(21), b.Snapshot(ctx).Jackpot)
}

func TestSessionManagerClose(t *testing.T) {
	m, _ := newManager(t, 0, nil)
	ctx := context.Background()

	s, err := m.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Sweep(), "no ttl means no sweeping")

	m.Close()
	assert.Equal(t, 0, m.Len())
	assert.True(t, errors.Is(s.BeginRound(ctx), errors.ErrServiceUnavailable))

	_, err = m.Get(ctx, "p1")
	assert.True(t, errors.Is(err, errors.ErrServiceUnavailable))
}
