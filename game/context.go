package game

import (
	"context"

	"github.com/rs/zerolog"
)

// PlayerContext carries the request-scoped player, variant and logger.
// It is set by the server middleware.
// Use game.MustFromContext(ctx) to get it (panics if not found)
// Use game.FromContext(ctx) to get it safely (returns nil if not found)
type PlayerContext struct {
	// Player information (nil when no auth middleware ran)
	player *Player

	// Logger for logging (always available)
	Logger zerolog.Logger

	// Variant the player is playing
	variant *Config
}

// NewPlayerContext creates a new PlayerContext
func NewPlayerContext(player *Player, variant *Config, logger zerolog.Logger) *PlayerContext {
	return &PlayerContext{
		player:  player,
		Logger:  logger,
		variant: variant,
	}
}

// Player returns the current player, or nil when unauthenticated
func (pc *PlayerContext) Player() *Player {
	return pc.player
}

// HasPlayer returns true if player information is available
func (pc *PlayerContext) HasPlayer() bool {
	return pc.player != nil
}

// PlayerID returns the player id, or "" when unauthenticated
func (pc *PlayerContext) PlayerID() string {
	if pc.player == nil {
		return ""
	}
	return pc.player.ID()
}

// Variant returns the variant configuration
func (pc *PlayerContext) Variant() *Config {
	return pc.variant
}

// WithContext attaches PlayerContext to a context
func WithContext(ctx context.Context, pc *PlayerContext) context.Context {
	return context.WithValue(ctx, contextKeyPlayerContext, pc)
}

// FromContext extracts PlayerContext from context
// Returns nil if not found
func FromContext(ctx context.Context) *PlayerContext {
	if pc, ok := ctx.Value(contextKeyPlayerContext).(*PlayerContext); ok {
		return pc
	}
	return nil
}

// MustFromContext extracts PlayerContext from context, panics if not found
func MustFromContext(ctx context.Context) *PlayerContext {
	pc := FromContext(ctx)
	if pc == nil {
		panic("PlayerContext not found in context - is the player context middleware installed?")
	}
	return pc
}

type contextKey string

const contextKeyPlayerContext contextKey = "player_context"
