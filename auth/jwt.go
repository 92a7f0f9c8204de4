package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Digital-Creators-Team/bingo-game-module/types"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Context keys for player information
const (
	PlayerIDKey = "player_id"
	UsernameKey = "username"
	ClaimsKey   = "claims"
)

// ErrInvalidToken is returned by ParseToken for any token that fails
// verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims represents the JWT claims structure
type Claims struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig holds JWT middleware configuration
type JWTConfig struct {
	Secret      string
	TokenPrefix string // "Bearer"
	// QueryParam is checked when the Authorization header is absent.
	// Browsers cannot set headers on a WebSocket upgrade.
	QueryParam string
	SkipPaths  []string
}

// DefaultJWTConfig returns default JWT configuration
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:      secret,
		TokenPrefix: "Bearer",
		QueryParam:  "token",
		SkipPaths:   []string{"/health", "/api/health"},
	}
}

// JWTMiddleware creates a JWT authentication middleware
func JWTMiddleware(secret string, logger zerolog.Logger) gin.HandlerFunc {
	return JWTMiddlewareWithConfig(DefaultJWTConfig(secret), logger)
}

// JWTMiddlewareWithConfig creates a JWT middleware with custom configuration
func JWTMiddlewareWithConfig(config JWTConfig, logger zerolog.Logger) gin.HandlerFunc {
	skipPaths := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		tokenString, msg := extractToken(c, config)
		if tokenString == "" {
			logger.Warn().Str("path", c.Request.URL.Path).Msg(msg)
			unauthorized(c, msg)
			return
		}

		claims, err := ParseToken(config.Secret, tokenString)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to parse JWT token")
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(PlayerIDKey, claims.PlayerID)
		c.Set(UsernameKey, claims.Username)
		c.Set(ClaimsKey, claims)

		logger.Debug().
			Str("player_id", claims.PlayerID).
			Msg("JWT authentication successful")

		c.Next()
	}
}

// extractToken returns the raw token, or "" and the reason it is missing.
func extractToken(c *gin.Context, config JWTConfig) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if config.QueryParam != "" {
			if tok := c.Query(config.QueryParam); tok != "" {
				return tok, ""
			}
		}
		return "", "Missing Authorization header"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != config.TokenPrefix || parts[1] == "" {
		return "", "Invalid Authorization header format. Expected: " + config.TokenPrefix + " <token>"
	}
	return parts[1], ""
}

func unauthorized(c *gin.Context, msg string) {
	resp := types.NewErrorResponse(http.StatusUnauthorized, c.Request.URL.Path, http.StatusUnauthorized, msg)
	c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
}

// ParseToken verifies an HS256 token and returns its claims. Tokens without
// a player id are rejected.
func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.PlayerID == "" {
		return nil, errors.Join(ErrInvalidToken, errors.New("token has no player_id"))
	}
	return claims, nil
}

// GetPlayerID extracts the player id from context
func GetPlayerID(c *gin.Context) (string, bool) {
	v, exists := c.Get(PlayerIDKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// GetUsername extracts username from context
func GetUsername(c *gin.Context) (string, bool) {
	v, exists := c.Get(UsernameKey)
	if !exists {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}

// GetClaims extracts full claims from context
func GetClaims(c *gin.Context) (*Claims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

// GenerateToken signs a token for a player. It is used by `bingod token`
// and by tests.
func GenerateToken(secret, playerID, username string, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		PlayerID: playerID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
