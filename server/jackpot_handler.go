package server

import (
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/jackpot"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// JackpotHandler serves the jackpot ledger of the caller's session.
type JackpotHandler struct {
	app    *App
	games  *GameHandler
	logger zerolog.Logger
}

// NewJackpotHandler creates a jackpot handler.
func NewJackpotHandler(app *App, games *GameHandler) *JackpotHandler {
	return &JackpotHandler{
		app:    app,
		games:  games,
		logger: app.logger.With().Str("handler", "jackpot").Logger(),
	}
}

// JackpotEntry is the ledger entry of one bet multiplier.
type JackpotEntry struct {
	BetMultiplier int   `json:"betMultiplier"`
	Count         int64 `json:"count"`
	Payout        int64 `json:"payout"`
}

// JackpotResponse lists every entry of the ledger.
type JackpotResponse struct {
	Enabled          bool           `json:"enabled"`
	PayoutMultiplier int64          `json:"payoutMultiplier"`
	Entries          []JackpotEntry `json:"entries"`
}

// GetJackpots godoc
// @Summary      Get jackpots
// @Description  Returns the jackpot count of every bet multiplier. Unseen entries show their baseline.
// @Tags         jackpot
// @Produce      json
// @Success      200  {object}  BaseResponse{data=JackpotResponse}
// @Security     BearerAuth
// @Router       /games/{game_code}/jackpot [get]
func (h *JackpotHandler) GetJackpots(c *gin.Context) {
	sess, ok := h.games.session(c)
	if !ok {
		return
	}
	variant := sess.Variant()
	resp := JackpotResponse{Enabled: variant.JackpotEnabled(), Entries: []JackpotEntry{}}
	if !resp.Enabled {
		OK(c, resp)
		return
	}

	ledger := sess.Ledger()
	resp.PayoutMultiplier = ledger.PayoutMultiplier()
	saved, err := ledger.Snapshot(c.Request.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to read jackpots, showing baselines")
		saved = map[int]int64{}
	}
	for _, m := range variant.BetMultipliers {
		count, ok := saved[m]
		if !ok {
			count = ledger.Baseline(m)
		}
		resp.Entries = append(resp.Entries, JackpotEntry{
			BetMultiplier: m,
			Count:         count,
			Payout:        count * resp.PayoutMultiplier,
		})
	}
	OK(c, resp)
}

// JackpotUpdate is pushed on the stream whenever a ledger entry changes.
type JackpotUpdate struct {
	BetMultiplier int            `json:"betMultiplier"`
	Count         int64          `json:"count"`
	Payout        int64          `json:"payout"`
	Reason        jackpot.Reason `json:"reason"`
}
