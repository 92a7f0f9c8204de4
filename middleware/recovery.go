package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Digital-Creators-Team/bingo-game-module/types"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Recovery creates a recovery middleware that recovers from panics
func Recovery(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				traceID := GetTraceID(c)
				logger.Error().
					Str("trace_id", traceID).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("panic", fmt.Sprint(err)).
					Bytes("stack", debug.Stack()).
					Msg("Panic recovered")

				resp := types.NewErrorResponse(http.StatusInternalServerError, c.Request.URL.Path,
					http.StatusInternalServerError, "Internal server error").WithTraceID(traceID)
				c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
			}
		}()

		c.Next()
	}
}
