package provider

import (
	"context"
	"fmt"
	"strconv"

	coreredis "github.com/Digital-Creators-Team/bingo-game-module/db/redis"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/jackpot"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// Unseen fields start at the baseline passed in ARGV.
var incrJackpotScript = redis.NewScript(`
local v = redis.call("HGET", KEYS[1], ARGV[1])
if not v then v = tonumber(ARGV[3]) else v = tonumber(v) end
v = v + tonumber(ARGV[2])
redis.call("HSET", KEYS[1], ARGV[1], tostring(v))
return v
`)

var resetJackpotScript = redis.NewScript(`
local v = redis.call("HGET", KEYS[1], ARGV[1])
if not v then v = ARGV[2] end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
return tonumber(v)
`)

// RedisJackpotBackend stores the ledger in one Redis hash so that every
// instance shares it. Field updates run as Lua scripts.
type RedisJackpotBackend struct {
	redis  *coreredis.Client
	key    string
	logger zerolog.Logger
}

var _ jackpot.Backend = (*RedisJackpotBackend)(nil)

// NewRedisJackpotBackend creates a backend over the hash at key.
func NewRedisJackpotBackend(redisClient *coreredis.Client, key string, logger zerolog.Logger) *RedisJackpotBackend {
	return &RedisJackpotBackend{
		redis:  redisClient,
		key:    key,
		logger: logger.With().Str("component", "redis_jackpot").Logger(),
	}
}

func (b *RedisJackpotBackend) Count(ctx context.Context, multiplier int, baseline int64) (int64, error) {
	v, err := b.redis.GetClient().HGet(ctx, b.key, strconv.Itoa(multiplier)).Int64()
	if err == redis.Nil {
		return baseline, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read jackpot %d: %w", multiplier, err)
	}
	return v, nil
}

func (b *RedisJackpotBackend) IncrBy(ctx context.Context, multiplier int, delta, baseline int64) (int64, error) {
	res, err := b.redis.Eval(ctx, incrJackpotScript, []string{b.key}, strconv.Itoa(multiplier), delta, baseline)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

func (b *RedisJackpotBackend) Reset(ctx context.Context, multiplier int, baseline int64) (int64, error) {
	res, err := b.redis.Eval(ctx, resetJackpotScript, []string{b.key}, strconv.Itoa(multiplier), baseline)
	if err != nil {
		return 0, err
	}
	return toInt64(res)
}

func (b *RedisJackpotBackend) All(ctx context.Context) (map[int]int64, error) {
	raw, err := b.redis.HGetAll(ctx, b.key)
	if err != nil {
		return nil, err
	}
	out := make(map[int]int64, len(raw))
	for field, value := range raw {
		m, err := strconv.Atoi(field)
		if err != nil || m <= 0 {
			b.logger.Warn().Str("field", field).Msg("Skipping invalid jackpot field")
			continue
		}
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			b.logger.Warn().Str("field", field).Str("value", value).Msg("Skipping invalid jackpot value")
			continue
		}
		out[m] = v
	}
	return out, nil
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected script result %T", v)
	}
}
