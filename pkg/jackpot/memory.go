package jackpot

import (
	"context"
	"sync"

	"github.com/samber/lo"
)

// MemoryBackend keeps entries in process memory.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[int]int64
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[int]int64)}
}

func (m *MemoryBackend) Count(_ context.Context, multiplier int, baseline int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.entries[multiplier]; ok {
		return v, nil
	}
	return baseline, nil
}

func (m *MemoryBackend) IncrBy(_ context.Context, multiplier int, delta, baseline int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[multiplier]
	if !ok {
		v = baseline
	}
	v += delta
	m.entries[multiplier] = v
	return v, nil
}

func (m *MemoryBackend) Reset(_ context.Context, multiplier int, baseline int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prior, ok := m.entries[multiplier]
	if !ok {
		prior = baseline
	}
	m.entries[multiplier] = baseline
	return prior, nil
}

func (m *MemoryBackend) All(context.Context) (map[int]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Assign(m.entries), nil
}
