package jackpot

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidMultiplier is returned for non-positive bet multipliers.
var ErrInvalidMultiplier = errors.New("bet multiplier must be positive")

// Reason describes why a ledger entry changed.
type Reason string

const (
	ReasonCredit Reason = "credit"
	ReasonClaim  Reason = "claim"
	// ReasonSync marks updates relayed from another instance.
	ReasonSync Reason = "sync"
)

// Update represents a ledger entry value after a change.
type Update struct {
	Multiplier int       `json:"multiplier"`
	Count      int64     `json:"count"`
	Reason     Reason    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
}

// Claim is the result of paying out an entry.
type Claim struct {
	Multiplier int   `json:"multiplier"`
	Count      int64 `json:"count"`
	Amount     int64 `json:"amount"`
	Baseline   int64 `json:"baseline"`
}

// Backend persists ledger entries keyed by bet multiplier.
// Entries that were never written read as the supplied baseline.
// IncrBy and Reset must be atomic read-modify-write operations.
type Backend interface {
	Count(ctx context.Context, multiplier int, baseline int64) (int64, error)
	IncrBy(ctx context.Context, multiplier int, delta, baseline int64) (int64, error)
	// Reset sets the entry to baseline and returns the prior value.
	Reset(ctx context.Context, multiplier int, baseline int64) (int64, error)
	All(ctx context.Context) (map[int]int64, error)
}

// Config configures the ledger.
type Config struct {
	// PayoutMultiplier scales the count into credits on claim.
	PayoutMultiplier int64
	// BaselineFactor times the bet multiplier is the reset value.
	BaselineFactor int64
	// Buffer is the per-listener update buffer.
	Buffer int
}

// DefaultConfig matches the canonical variant.
func DefaultConfig() Config {
	return Config{PayoutMultiplier: 47, BaselineFactor: 20, Buffer: 64}
}
