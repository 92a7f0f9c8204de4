package server

import (
	"github.com/Digital-Creators-Team/bingo-game-module/auth"
	"github.com/Digital-Creators-Team/bingo-game-module/errors"
	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PlayerContextMiddleware injects a game.PlayerContext into the request
// context. It must run after the JWT middleware; requests without a player
// are rejected.
//
// The context logger is derived from the request logger set by the trace
// middleware, so it carries both trace_id and player_id.
//
// Usage:
//
//	games.Use(auth.JWTMiddleware(...))
//	games.Use(app.PlayerContextMiddleware())
func (a *App) PlayerContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, ok := auth.GetPlayerID(c)
		if !ok {
			Unauthorized(c, errors.New(errors.ErrUnauthorized, "Invalid or missing authentication token"))
			return
		}
		username, _ := auth.GetUsername(c)

		base := a.logger
		if l := zerolog.Ctx(c.Request.Context()); l.GetLevel() != zerolog.Disabled {
			base = *l
		}
		pc := game.NewPlayerContext(
			game.NewPlayer(playerID, username),
			a.variant,
			base.With().Str("player_id", playerID).Logger(),
		)
		c.Request = c.Request.WithContext(game.WithContext(c.Request.Context(), pc))
		c.Next()
	}
}
