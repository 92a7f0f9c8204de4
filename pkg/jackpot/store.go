package jackpot

import (
	"context"
	stderrors "errors"
	"strconv"
	"sync"

	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// StorageKey is the Store key holding the serialized ledger.
const StorageKey = "jackpotStorage"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StoreBackend keeps the whole ledger as one JSON object in a player Store,
// keyed by the decimal bet multiplier.
type StoreBackend struct {
	mu     sync.Mutex
	store  providers.Store
	logger zerolog.Logger
}

// NewStoreBackend creates a backend over store.
func NewStoreBackend(store providers.Store, logger zerolog.Logger) *StoreBackend {
	return &StoreBackend{store: store, logger: logger}
}

// load reads and validates the ledger. Corrupt data and invalid entries are
// dropped rather than failing the caller.
func (s *StoreBackend) load(ctx context.Context) (map[int]int64, error) {
	data, err := s.store.Get(ctx, StorageKey)
	if stderrors.Is(err, providers.ErrNotFound) {
		return map[int]int64{}, nil
	}
	if err != nil {
		return nil, err
	}

	var raw map[string]int64
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn().Err(err).Msg("Corrupt jackpot storage, starting from baselines")
		return map[int]int64{}, nil
	}

	entries := make(map[int]int64, len(raw))
	for key, count := range raw {
		multiplier, err := strconv.Atoi(key)
		if err != nil || multiplier <= 0 || count < 0 {
			s.logger.Warn().Str("key", key).Int64("count", count).Msg("Dropping invalid jackpot entry")
			continue
		}
		entries[multiplier] = count
	}
	return entries, nil
}

func (s *StoreBackend) save(ctx context.Context, entries map[int]int64) error {
	raw := lo.MapKeys(entries, func(_ int64, k int) string { return strconv.Itoa(k) })
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, StorageKey, data)
}

func (s *StoreBackend) Count(ctx context.Context, multiplier int, baseline int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	if v, ok := entries[multiplier]; ok {
		return v, nil
	}
	return baseline, nil
}

func (s *StoreBackend) IncrBy(ctx context.Context, multiplier int, delta, baseline int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	v, ok := entries[multiplier]
	if !ok {
		v = baseline
	}
	v += delta
	entries[multiplier] = v
	if err := s.save(ctx, entries); err != nil {
		return 0, err
	}
	return v, nil
}

func (s *StoreBackend) Reset(ctx context.Context, multiplier int, baseline int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	prior, ok := entries[multiplier]
	if !ok {
		prior = baseline
	}
	entries[multiplier] = baseline
	if err := s.save(ctx, entries); err != nil {
		return 0, err
	}
	return prior, nil
}

func (s *StoreBackend) All(ctx context.Context) (map[int]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}
