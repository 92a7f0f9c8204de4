package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Digital-Creators-Team/bingo-game-module/auth"
	"github.com/Digital-Creators-Team/bingo-game-module/config"
	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/card"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/random"
	"github.com/Digital-Creators-Team/bingo-game-module/provider"
	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "server-test-secret"

type testApp struct {
	app   *App
	clock *clock.Mock

	mu     sync.Mutex
	stores map[string]*provider.MemoryStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.Default()
	cfg.Environment = "test"
	cfg.JWT.Secret = testSecret

	ta := &testApp{clock: clock.NewMock(), stores: map[string]*provider.MemoryStore{}}
	ta.app = New(Options{Config: cfg, Logger: zerolog.Nop(), Clock: ta.clock})
	gin.SetMode(gin.TestMode)

	ta.app.SetStoreFactory(func(playerID string) providers.Store {
		ta.mu.Lock()
		defer ta.mu.Unlock()
		s, ok := ta.stores[playerID]
		if !ok {
			s = provider.NewMemoryStore()
			ta.stores[playerID] = s
		}
		return s
	})
	ta.app.RegisterGame(game.Bingo47())
	ta.app.UseCommonMiddlewares()
	ta.app.RegisterHealthCheck()
	ta.app.RegisterCommonGameRoutes()
	t.Cleanup(ta.app.Sessions().Close)
	return ta
}

func token(t *testing.T, playerID string) string {
	t.Helper()
	tok, err := auth.GenerateToken(testSecret, playerID, "tester", time.Hour)
	require.NoError(t, err)
	return tok
}

func (ta *testApp) do(t *testing.T, method, path, playerID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/games/bingo47"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if playerID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, playerID))
	}
	w := httptest.NewRecorder()
	ta.app.Router().ServeHTTP(w, req)
	return w
}

// data decodes a success envelope.
func data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp SuccessResponse[map[string]interface{}]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.IsSuccess, w.Body.String())
	return resp.Data
}

func list(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	var resp SuccessResponse[[]interface{}]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.IsSuccess, w.Body.String())
	return resp.Data
}

// failure asserts an error envelope and returns its application code.
func failure(t *testing.T, w *httptest.ResponseRecorder, status int) int {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.IsSuccess)
	assert.NotEmpty(t, resp.Error.TraceID)
	return resp.Error.ErrorCode
}

func firstCardID(t *testing.T, ta *testApp, playerID string) string {
	t.Helper()
	w := ta.do(t, http.MethodGet, "/cards", playerID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cards := list(t, w)
	require.NotEmpty(t, cards)
	return cards[0].(map[string]interface{})["id"].(string)
}

func TestHealthCheck(t *testing.T) {
	ta := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	ta.app.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Contains(t, w.Body.String(), `"game_code":"bingo47"`)
}

func TestRoutesRequireAToken(t *testing.T) {
	ta := newTestApp(t)
	w := ta.do(t, http.MethodGet, "/state", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, ta.app.Sessions().Len())
}

func TestGetStateOfAFreshPlayer(t *testing.T) {
	ta := newTestApp(t)
	snap := data(t, ta.do(t, http.MethodGet, "/state", "p1", nil))

	assert.Equal(t, "p1", snap["playerId"])
	assert.Equal(t, "bingo47", snap["gameCode"])
	assert.Equal(t, float64(500), snap["credits"])
	assert.Equal(t, float64(1), snap["betMultiplier"])
	assert.Equal(t, float64(100), snap["bet"])
	assert.Equal(t, float64(20), snap["jackpot"])
	assert.Equal(t, float64(940), snap["jackpotPayout"])
	assert.Equal(t, "idle", snap["round"].(map[string]interface{})["phase"])

	cfg := data(t, ta.do(t, http.MethodGet, "/config", "p1", nil))
	assert.NotEmpty(t, cfg)
}

func TestPlayersAreIsolated(t *testing.T) {
	ta := newTestApp(t)
	require.Equal(t, http.StatusOK, ta.do(t, http.MethodPost, "/credits/refill", "p1", nil).Code)

	assert.Equal(t, float64(10000), data(t, ta.do(t, http.MethodGet, "/state", "p1", nil))["credits"])
	assert.Equal(t, float64(500), data(t, ta.do(t, http.MethodGet, "/state", "p2", nil))["credits"])
	assert.Equal(t, 2, ta.app.Sessions().Len())
}

func TestBeginRound(t *testing.T) {
	ta := newTestApp(t)

	snap := data(t, ta.do(t, http.MethodPost, "/round", "p1", nil))
	assert.Equal(t, float64(400), snap["credits"])
	round := snap["round"].(map[string]interface{})
	assert.Equal(t, "active", round["phase"])
	assert.Equal(t, float64(15), round["spacesToReveal"])

	code := failure(t, ta.do(t, http.MethodPost, "/round", "p1", nil), http.StatusConflict)
	assert.Equal(t, 1002, code)

	code = failure(t, ta.do(t, http.MethodPost, "/bet/toggle", "p1", nil), http.StatusConflict)
	assert.Equal(t, 1002, code)
}

func TestBeginRoundWithoutCredits(t *testing.T) {
	ta := newTestApp(t)
	require.Equal(t, http.StatusOK, ta.do(t, http.MethodPut, "/bet", "p1", BetRequest{BetMultiplier: 10}).Code)

	code := failure(t, ta.do(t, http.MethodPost, "/round", "p1", nil), http.StatusUnprocessableEntity)
	assert.Equal(t, 1001, code)
}

func TestMarkSpaceValidation(t *testing.T) {
	ta := newTestApp(t)
	cardID := firstCardID(t, ta, "p1")

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   int
	}{
		{name: "missing fields", body: map[string]string{}, status: http.StatusBadRequest, code: 400},
		{name: "bad card id", body: MarkRequest{CardID: "nope", SpaceID: "1"}, status: http.StatusBadRequest, code: 400},
		{name: "no round", body: MarkRequest{CardID: cardID, SpaceID: "1"}, status: http.StatusConflict, code: 1003},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := failure(t, ta.do(t, http.MethodPost, "/round/marks", "p1", tt.body), tt.status)
			assert.Equal(t, tt.code, code)
		})
	}

	require.Equal(t, http.StatusOK, ta.do(t, http.MethodPost, "/round", "p1", nil).Code)
	code := failure(t, ta.do(t, http.MethodPost, "/round/marks", "p1", MarkRequest{CardID: cardID, SpaceID: "1"}), http.StatusUnprocessableEntity)
	assert.Equal(t, 1004, code, "nothing has been called yet")
}

func TestBetEndpoints(t *testing.T) {
	ta := newTestApp(t)

	snap := data(t, ta.do(t, http.MethodPost, "/bet/toggle", "p1", nil))
	assert.Equal(t, float64(2), snap["betMultiplier"])
	assert.Equal(t, float64(40), snap["jackpot"])

	code := failure(t, ta.do(t, http.MethodPut, "/bet", "p1", BetRequest{BetMultiplier: 3}), http.StatusUnprocessableEntity)
	assert.Equal(t, 1007, code)

	snap = data(t, ta.do(t, http.MethodPut, "/bet", "p1", BetRequest{BetMultiplier: 100}))
	assert.Equal(t, float64(10000), snap["bet"])

	snap = data(t, ta.do(t, http.MethodPost, "/bet/lower", "p1", nil))
	assert.Equal(t, float64(5), snap["betMultiplier"])
}

func TestPurchasesAndBonusOffer(t *testing.T) {
	ta := newTestApp(t)

	code := failure(t, ta.do(t, http.MethodPost, "/purchases", "p1", PurchaseRequest{ProductID: "com.example.unknown"}), http.StatusUnprocessableEntity)
	assert.Equal(t, 1009, code)

	// no purchase provider is configured
	code = failure(t, ta.do(t, http.MethodPost, "/purchases", "p1", PurchaseRequest{ProductID: "com.gudmilk.bingotap.credits.tier1"}), http.StatusBadGateway)
	assert.Equal(t, 1010, code)
	assert.Equal(t, float64(500), data(t, ta.do(t, http.MethodGet, "/state", "p1", nil))["credits"])

	assert.Empty(t, list(t, ta.do(t, http.MethodGet, "/products", "p1", nil)))

	code = failure(t, ta.do(t, http.MethodPost, "/bonus-offer/accept", "p1", nil), http.StatusConflict)
	assert.Equal(t, 1008, code)
}

func TestCardsAndFavoritesEndpoints(t *testing.T) {
	ta := newTestApp(t)
	first := firstCardID(t, ta, "p1")

	favs := list(t, ta.do(t, http.MethodPost, "/favorites", "p1", FavoriteRequest{CardID: first}))
	require.Len(t, favs, 1)
	favs = list(t, ta.do(t, http.MethodPost, "/favorites", "p1", FavoriteRequest{CardID: first}))
	require.Len(t, favs, 1, "adding twice keeps one favorite")

	w := ta.do(t, http.MethodPost, "/cards", "p1", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	second := data(t, w)["id"].(string)
	assert.NotEqual(t, first, second)
	assert.Equal(t, second, firstCardID(t, ta, "p1"))

	require.Equal(t, http.StatusOK, ta.do(t, http.MethodPost, "/favorites/"+first+"/use", "p1", nil).Code)
	assert.Equal(t, first, firstCardID(t, ta, "p1"))

	assert.Empty(t, list(t, ta.do(t, http.MethodDelete, "/favorites/"+first, "p1", nil)))

	code := failure(t, ta.do(t, http.MethodPost, "/favorites/"+first+"/use", "p1", nil), http.StatusNotFound)
	assert.Equal(t, 1006, code)

	gen, err := card.NewGenerator(game.Classic75(), random.New(1))
	require.NoError(t, err)
	code = failure(t, ta.do(t, http.MethodPut, "/cards", "p1", SetCardsRequest{
		Cards: []*game.Card{gen.Generate()},
	}), http.StatusBadRequest)
	assert.Equal(t, 400, code)
}

func TestSettingsEndpoints(t *testing.T) {
	ta := newTestApp(t)

	settings := data(t, ta.do(t, http.MethodGet, "/settings", "p1", nil))
	assert.Equal(t, "normal", settings["gameSpeed"])
	assert.Equal(t, true, settings["speakSpaces"])

	settings = data(t, ta.do(t, http.MethodPatch, "/settings", "p1", map[string]interface{}{"game_speed": "fast", "auto_mark": true}))
	assert.Equal(t, "fast", settings["gameSpeed"])
	assert.Equal(t, true, settings["autoMark"])
	assert.Equal(t, false, settings["speakSpaces"])

	code := failure(t, ta.do(t, http.MethodPatch, "/settings", "p1", map[string]interface{}{"volume": 11}), http.StatusBadRequest)
	assert.Equal(t, 400, code)

	code = failure(t, ta.do(t, http.MethodPut, "/settings/speed", "p1", SpeedRequest{Speed: "warp"}), http.StatusBadRequest)
	assert.Equal(t, 400, code)

	snap := data(t, ta.do(t, http.MethodPost, "/mode", "p1", ModeRequest{Mode: game.ModeAuto}))
	assert.Equal(t, true, snap["hasSeenGameModeSelection"])
	assert.Equal(t, "lightning", snap["settings"].(map[string]interface{})["gameSpeed"])

	snap = data(t, ta.do(t, http.MethodPost, "/background", "p1", nil))
	assert.Equal(t, true, snap["background"])
	snap = data(t, ta.do(t, http.MethodPost, "/foreground", "p1", nil))
	assert.Equal(t, false, snap["background"])
}

func TestGetJackpots(t *testing.T) {
	ta := newTestApp(t)
	resp := data(t, ta.do(t, http.MethodGet, "/jackpot", "p1", nil))

	assert.Equal(t, true, resp["enabled"])
	assert.Equal(t, float64(47), resp["payoutMultiplier"])
	entries := resp["entries"].([]interface{})
	require.Len(t, entries, len(game.Bingo47().BetMultipliers))
	first := entries[0].(map[string]interface{})
	assert.Equal(t, float64(1), first["betMultiplier"])
	assert.Equal(t, float64(20), first["count"])
	assert.Equal(t, float64(940), first["payout"])
}
