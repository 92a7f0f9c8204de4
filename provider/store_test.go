package provider

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	coreredis "github.com/Digital-Creators-Team/bingo-game-module/db/redis"
	"github.com/Digital-Creators-Team/bingo-game-module/logging"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/jackpot"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*coreredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := coreredis.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestStores(t *testing.T) {
	client, _ := newMiniredis(t)
	stores := map[string]providers.Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(client, "bingo:p1", time.Hour, logging.Nop()),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "userCredits")
			assert.True(t, errors.Is(err, providers.ErrNotFound))

			require.NoError(t, store.Set(ctx, "userCredits", []byte("500")))
			got, err := store.Get(ctx, "userCredits")
			require.NoError(t, err)
			assert.Equal(t, "500", string(got))

			require.NoError(t, store.Set(ctx, "userCredits", []byte("400")))
			got, _ = store.Get(ctx, "userCredits")
			assert.Equal(t, "400", string(got))

			require.NoError(t, store.Delete(ctx, "userCredits"))
			_, err = store.Get(ctx, "userCredits")
			assert.True(t, errors.Is(err, providers.ErrNotFound))
		})
	}
}

func TestRedisStorePrefixAndTTL(t *testing.T) {
	client, mr := newMiniredis(t)
	store := NewRedisStore(client, "bingo:p1", time.Hour, logging.Nop())

	require.NoError(t, store.Set(context.Background(), "betMultiplier", []byte("5")))
	assert.True(t, mr.Exists("bingo:p1:betMultiplier"))
	assert.Equal(t, time.Hour, mr.TTL("bingo:p1:betMultiplier"))
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	store := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, store.Set(context.Background(), "k", buf))
	buf[0] = 'z'

	got, _ := store.Get(context.Background(), "k")
	assert.Equal(t, "abc", string(got))
	assert.Equal(t, 1, store.Len())
}

type fakeRow struct {
	value []byte
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.value
	return nil
}

type fakeQuerier struct {
	rows  map[string][]byte
	execs []string
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	v, ok := q.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{value: v}
}

func (q *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.execs = append(q.execs, sql)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestPostgresStoreQueries(t *testing.T) {
	db := &fakeQuerier{rows: map[string][]byte{"p1:userCredits": []byte("500")}}
	store := NewPostgresStore(db, "bingo_kv", "p1", logging.Nop())

	sqlStr, args, err := store.upsertQuery("userCredits", []byte("1"))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO bingo_kv (key,value,updated_at) VALUES ($1,$2,now()) "+
		"ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at", sqlStr)
	assert.Equal(t, []any{"p1:userCredits", []byte("1")}, args)

	sqlStr, args, err = store.selectQuery("userCredits")
	require.NoError(t, err)
	assert.Equal(t, "SELECT value FROM bingo_kv WHERE key = $1", sqlStr)
	assert.Equal(t, []any{"p1:userCredits"}, args)

	sqlStr, _, err = store.deleteQuery("userCredits")
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM bingo_kv WHERE key = $1", sqlStr)

	ctx := context.Background()
	got, err := store.Get(ctx, "userCredits")
	require.NoError(t, err)
	assert.Equal(t, "500", string(got))

	_, err = store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, providers.ErrNotFound))

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Set(ctx, "userCredits", []byte("1")))
	require.Len(t, db.execs, 2)
	assert.Contains(t, db.execs[0], "CREATE TABLE IF NOT EXISTS bingo_kv")
}

func TestRedisJackpotBackend(t *testing.T) {
	client, mr := newMiniredis(t)
	backend := NewRedisJackpotBackend(client, "bingo:jackpot", logging.Nop())
	ctx := context.Background()

	count, err := backend.Count(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(20), count, "unseen entries read as the baseline")
	assert.False(t, mr.Exists("bingo:jackpot"))

	count, err = backend.IncrBy(ctx, 1, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(21), count, "unseen entries are seeded at the baseline")
	assert.Equal(t, "21", mr.HGet("bingo:jackpot", "1"))

	prior, err := backend.Reset(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(21), prior)

	prior, err = backend.Reset(ctx, 10, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(200), prior)

	mr.HSet("bingo:jackpot", "bogus", "1")
	all, err := backend.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]int64{1: 20, 10: 200}, all)
}

func TestRedisJackpotConcurrentCredits(t *testing.T) {
	client, _ := newMiniredis(t)
	ledger := jackpot.NewLedger(NewRedisJackpotBackend(client, "bingo:jackpot", logging.Nop()), jackpot.DefaultConfig(), logging.Nop())
	defer ledger.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Credit(context.Background(), 2)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	claim, err := ledger.Claim(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(80), claim.Count)
	assert.Equal(t, int64(80*47), claim.Amount)
}
