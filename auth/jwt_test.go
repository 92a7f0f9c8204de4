package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(JWTMiddleware(testSecret, zerolog.Nop()))
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/me", func(c *gin.Context) {
		id, _ := GetPlayerID(c)
		name, _ := GetUsername(c)
		c.String(http.StatusOK, id+"/"+name)
	})
	return r
}

func get(r http.Handler, target, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateAndParseToken(t *testing.T) {
	tok, err := GenerateToken(testSecret, "player-1", "ada", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "player-1", claims.PlayerID)
	assert.Equal(t, "ada", claims.Username)
	assert.Equal(t, "player-1", claims.Subject)

	_, err = ParseToken("other-secret", tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejects(t *testing.T) {
	expired, err := GenerateToken(testSecret, "player-1", "", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	anonymous, err := GenerateToken(testSecret, "", "", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, anonymous)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{PlayerID: "player-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTMiddleware(t *testing.T) {
	r := newRouter()
	tok, err := GenerateToken(testSecret, "player-1", "ada", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
		header string
		status int
		body   string
	}{
		{name: "bearer header", target: "/me", header: "Bearer " + tok, status: http.StatusOK, body: "player-1/ada"},
		{name: "query token", target: "/me?token=" + tok, status: http.StatusOK, body: "player-1/ada"},
		{name: "skipped path", target: "/health", status: http.StatusOK, body: "ok"},
		{name: "missing", target: "/me", status: http.StatusUnauthorized},
		{name: "wrong scheme", target: "/me", header: "Basic " + tok, status: http.StatusUnauthorized},
		{name: "garbage", target: "/me", header: "Bearer nope", status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.target, tt.header)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"is_success":false`)
			}
		})
	}
}
