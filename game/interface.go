package game

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Registry holds the registered variants by game code.
//
// Variants register themselves from init functions:
//
//	func init() {
//		game.Register(MyVariant())
//	}
//
// Get returns a copy, so callers may adjust the result (for example with
// ApplyDefaults from a YAML override) without affecting other sessions.
type Registry struct {
	mu       sync.RWMutex
	variants map[string]*Config
}

// NewRegistry creates a new variant registry
func NewRegistry() *Registry {
	return &Registry{
		variants: make(map[string]*Config),
	}
}

// Register registers a variant under its game code, replacing any previous one
func (r *Registry) Register(cfg *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants[cfg.GameCode] = cfg.Clone()
}

// Get returns a copy of the variant registered for a game code
func (r *Registry) Get(gameCode string) (*Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.variants[gameCode]
	if !ok {
		return nil, false
	}
	return cfg.Clone(), true
}

// GetAll returns all registered game codes in sorted order
func (r *Registry) GetAll() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := lo.Keys(r.variants)
	sort.Strings(codes)
	return codes
}

// DefaultRegistry is the default global registry
var DefaultRegistry = NewRegistry()

// Register registers a variant in the default registry
func Register(cfg *Config) {
	DefaultRegistry.Register(cfg)
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	out := *c
	out.Labels = append([]string(nil), c.Labels...)
	out.BetMultipliers = append([]int(nil), c.BetMultipliers...)
	out.CreditPacks = append([]CreditPack(nil), c.CreditPacks...)
	if c.Jackpot.Enabled != nil {
		out.Jackpot.Enabled = lo.ToPtr(*c.Jackpot.Enabled)
	}
	out.Payout.Tiers = append([]PayoutTier(nil), c.Payout.Tiers...)
	out.BonusOffer.Sizes = append([]int(nil), c.BonusOffer.Sizes...)
	out.BonusBalls.Sizes = append([]int(nil), c.BonusBalls.Sizes...)
	if c.Patterns != nil {
		out.Patterns = lo.Map(c.Patterns, func(p []int, _ int) []int {
			return append([]int(nil), p...)
		})
	}
	return &out
}
