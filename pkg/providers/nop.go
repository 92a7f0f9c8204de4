package providers

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by the no-op purchase provider.
var ErrUnavailable = errors.New("provider not configured")

// Nop implements every collaborator interface and does nothing.
// Rewarded ads are never available and purchases always fail.
type Nop struct{}

var (
	_ PurchaseProvider    = Nop{}
	_ LeaderboardProvider = Nop{}
	_ AdProvider          = Nop{}
	_ CuePlayer           = Nop{}
	_ Speaker             = Nop{}
	_ EventPublisher      = Nop{}
)

func (Nop) Products(context.Context) ([]Product, error) { return nil, nil }

func (Nop) Purchase(context.Context, string, string) (*PurchaseResult, error) {
	return nil, ErrUnavailable
}

func (Nop) SubmitScore(context.Context, string, string, int64) error { return nil }

func (Nop) IsRewardAvailable(context.Context) bool { return false }

func (Nop) PresentReward(context.Context) error { return ErrUnavailable }

func (Nop) PlaySound(Sound) {}

func (Nop) PlayHaptic(Haptic) {}

func (Nop) Speak(string) {}

func (Nop) Publish(context.Context, *GameEvent) error { return nil }

// prefixed scopes every key of a Store under a fixed prefix.
type prefixed struct {
	prefix string
	store  Store
}

// WithPrefix returns a Store that stores every key under prefix.
func WithPrefix(store Store, prefix string) Store {
	return &prefixed{prefix: prefix, store: store}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.store.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.store.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.store.Delete(ctx, p.prefix+key)
}
