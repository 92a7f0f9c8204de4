package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	coreredis "github.com/Digital-Creators-Team/bingo-game-module/db/redis"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	"github.com/rs/zerolog"
)

// RedisStore implements providers.Store on Redis strings.
type RedisStore struct {
	redis  *coreredis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

var _ providers.Store = (*RedisStore)(nil)

// NewRedisStore creates a store whose keys live under prefix.
// A zero ttl keeps values forever.
func NewRedisStore(redisClient *coreredis.Client, prefix string, ttl time.Duration, logger zerolog.Logger) *RedisStore {
	return &RedisStore{
		redis:  redisClient,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With().Str("component", "redis_store").Logger(),
	}
}

func (p *RedisStore) key(key string) string {
	if p.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", p.prefix, key)
}

// Get reads a value; absent keys return providers.ErrNotFound.
func (p *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := p.redis.Get(ctx, p.key(key))
	if errors.Is(err, coreredis.ErrKeyNotFound) {
		p.logger.Debug().Str("key", key).Msg("No stored value")
		return nil, providers.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set writes a value, refreshing its expiry.
func (p *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := p.redis.Set(ctx, p.key(key), value, p.ttl); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Delete removes a value.
func (p *RedisStore) Delete(ctx context.Context, key string) error {
	if err := p.redis.Delete(ctx, p.key(key)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
