package server

import (
	"github.com/Digital-Creators-Team/bingo-game-module/errors"
	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// GameHandler handles the player intents of the game
//
// Flow: HTTP Request -> gameRoutes -> GameHandler -> SessionManager -> session.Session
//
// Responsibilities:
// - Resolve the player's session from the player context
// - Validate request parameters
// - Call the session and format the result
//
// Game rules live in the session and the round engine, not here.
type GameHandler struct {
	app    *App
	logger zerolog.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(app *App) *GameHandler {
	return &GameHandler{
		app:    app,
		logger: app.logger.With().Str("handler", "game").Logger(),
	}
}

// session resolves the caller's session. On failure the response has been
// written and ok is false.
func (h *GameHandler) session(c *gin.Context) (*session.Session, bool) {
	pc := game.FromContext(c.Request.Context())
	if pc == nil || !pc.HasPlayer() {
		Unauthorized(c, errors.New(errors.ErrUnauthorized, "Invalid or missing authentication token"))
		return nil, false
	}
	sess, err := h.app.sessions.Get(c.Request.Context(), pc.PlayerID())
	if err != nil {
		pc.Logger.Error().Err(err).Msg("Failed to get session")
		HandleAppError(c, err)
		return nil, false
	}
	return sess, true
}

// intent runs fn against the caller's session and answers with the
// resulting snapshot.
func (h *GameHandler) intent(c *gin.Context, name string, fn func(*session.Session) error) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := fn(sess); err != nil {
		game.MustFromContext(c.Request.Context()).Logger.Debug().
			Err(err).
			Str("intent", name).
			Msg("Intent rejected")
		HandleAppError(c, err)
		return
	}
	OK(c, sess.Snapshot(c.Request.Context()))
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		BadRequest(c, errors.Wrap(err, errors.ErrInvalidRequest, "Invalid request payload"))
		return false
	}
	return true
}

func parseCardID(c *gin.Context, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		BadRequest(c, errors.Wrap(err, errors.ErrInvalidRequest, "Invalid card id"))
		return uuid.Nil, false
	}
	return id, true
}

// GetConfig godoc
// @Summary      Get game configuration
// @Description  Returns the variant: card shape, bets, payout tiers and jackpot settings
// @Tags         game
// @Produce      json
// @Success      200  {object}  BaseResponse
// @Router       /games/{game_code}/config [get]
func (h *GameHandler) GetConfig(c *gin.Context) {
	OK(c, h.app.variant.Normalize())
}

// GetState godoc
// @Summary      Get player state
// @Description  Returns the whole session snapshot: wallet, bet, round, settings, jackpot
// @Tags         game
// @Produce      json
// @Success      200  {object}  BaseResponse{data=session.Snapshot}
// @Failure      401  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /games/{game_code}/state [get]
func (h *GameHandler) GetState(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	OK(c, sess.Snapshot(c.Request.Context()))
}

// BeginRound godoc
// @Summary      Start a round
// @Description  Debits the bet and starts revealing spaces
// @Tags         round
// @Produce      json
// @Success      200  {object}  BaseResponse{data=session.Snapshot}
// @Failure      409  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /games/{game_code}/round [post]
func (h *GameHandler) BeginRound(c *gin.Context) {
	h.intent(c, "begin_round", func(s *session.Session) error {
		return s.BeginRound(c.Request.Context())
	})
}

// MarkRequest is the body of a mark intent
type MarkRequest struct {
	CardID  string `json:"cardId" binding:"required"`
	SpaceID string `json:"spaceId" binding:"required"`
}

// MarkSpace godoc
// @Summary      Mark a space
// @Description  Marks a called space on a card in play
// @Tags         round
// @Accept       json
// @Produce      json
// @Param        request  body      MarkRequest  true  "Mark request"
// @Success      200      {object}  BaseResponse{data=session.Snapshot}
// @Failure      409      {object}  ErrorResponse
// @Failure      422      {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /games/{game_code}/round/marks [post]
func (h *GameHandler) MarkSpace(c *gin.Context) {
	var req MarkRequest
	if !bind(c, &req) {
		return
	}
	cardID, ok := parseCardID(c, req.CardID)
	if !ok {
		return
	}
	h.intent(c, "mark_space", func(s *session.Session) error {
		return s.MarkSpace(c.Request.Context(), cardID, req.SpaceID)
	})
}

// ToggleBet cycles to the next bet multiplier
func (h *GameHandler) ToggleBet(c *gin.Context) {
	h.intent(c, "toggle_bet", func(s *session.Session) error {
		return s.ToggleBetMultiplier(c.Request.Context())
	})
}

// LowerBet picks the largest affordable bet multiplier
func (h *GameHandler) LowerBet(c *gin.Context) {
	h.intent(c, "lower_bet", func(s *session.Session) error {
		return s.LowerBetToMaxPossible(c.Request.Context())
	})
}

// BetRequest selects a bet multiplier
type BetRequest struct {
	BetMultiplier int `json:"betMultiplier" binding:"required"`
}

// SetBet selects a bet multiplier directly
func (h *GameHandler) SetBet(c *gin.Context) {
	var req BetRequest
	if !bind(c, &req) {
		return
	}
	h.intent(c, "set_bet", func(s *session.Session) error {
		return s.SetBetMultiplier(c.Request.Context(), req.BetMultiplier)
	})
}

// Refill resets the balance to the refill amount
func (h *GameHandler) Refill(c *gin.Context) {
	h.intent(c, "refill", func(s *session.Session) error {
		return s.Refill(c.Request.Context())
	})
}

// GetProducts lists the purchasable credit packs
func (h *GameHandler) GetProducts(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	products, err := sess.Products(c.Request.Context())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, products)
}

// PurchaseRequest buys a credit pack
type PurchaseRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// PurchaseResponse reports a completed purchase and the new state
type PurchaseResponse struct {
	TransactionID string           `json:"transactionId"`
	ProductID     string           `json:"productId"`
	State         session.Snapshot `json:"state"`
}

// Purchase godoc
// @Summary      Buy a credit pack
// @Description  Credits are added only when the store reports success
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      PurchaseRequest  true  "Purchase request"
// @Success      200      {object}  BaseResponse{data=PurchaseResponse}
// @Failure      422      {object}  ErrorResponse
// @Failure      502      {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /games/{game_code}/purchases [post]
func (h *GameHandler) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if !bind(c, &req) {
		return
	}
	sess, ok := h.session(c)
	if !ok {
		return
	}
	res, err := sess.Purchase(c.Request.Context(), req.ProductID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, PurchaseResponse{
		TransactionID: res.TransactionID,
		ProductID:     res.ProductID,
		State:         sess.Snapshot(c.Request.Context()),
	})
}

// BonusResponse reports the bonus draws granted to the next round
type BonusResponse struct {
	BonusDraws int              `json:"bonusDraws"`
	State      session.Snapshot `json:"state"`
}

// AcceptBonusOffer shows a rewarded ad and grants the pending offer
func (h *GameHandler) AcceptBonusOffer(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	n, err := sess.AcceptBonusOffer(c.Request.Context())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, BonusResponse{BonusDraws: n, State: sess.Snapshot(c.Request.Context())})
}

// GetCards returns the cards in play
func (h *GameHandler) GetCards(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	OK(c, sess.Cards())
}

// NewCard replaces the cards in play with a fresh card
func (h *GameHandler) NewCard(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	card, err := sess.NewCard(c.Request.Context())
	if err != nil {
		HandleAppError(c, err)
		return
	}
	Created(c, card)
}

// SetCardsRequest replaces the cards in play
type SetCardsRequest struct {
	Cards []*game.Card `json:"cards" binding:"required,min=1"`
}

// SetCards replaces the cards in play with the given layouts
func (h *GameHandler) SetCards(c *gin.Context) {
	var req SetCardsRequest
	if !bind(c, &req) {
		return
	}
	h.intent(c, "set_cards", func(s *session.Session) error {
		return s.SetCards(c.Request.Context(), req.Cards)
	})
}

// GetFavorites returns the saved favorite cards
func (h *GameHandler) GetFavorites(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	OK(c, sess.Favorites())
}

// FavoriteRequest names a card
type FavoriteRequest struct {
	CardID string `json:"cardId" binding:"required"`
}

// AddFavorite saves a card in play as a favorite
func (h *GameHandler) AddFavorite(c *gin.Context) {
	var req FavoriteRequest
	if !bind(c, &req) {
		return
	}
	cardID, ok := parseCardID(c, req.CardID)
	if !ok {
		return
	}
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.AddFavorite(c.Request.Context(), cardID); err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, sess.Favorites())
}

// RemoveFavorite deletes a favorite
func (h *GameHandler) RemoveFavorite(c *gin.Context) {
	cardID, ok := parseCardID(c, c.Param("card_id"))
	if !ok {
		return
	}
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := sess.RemoveFavorite(c.Request.Context(), cardID); err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, sess.Favorites())
}

// UseFavorite puts a favorite card in play
func (h *GameHandler) UseFavorite(c *gin.Context) {
	cardID, ok := parseCardID(c, c.Param("card_id"))
	if !ok {
		return
	}
	h.intent(c, "use_favorite", func(s *session.Session) error {
		return s.UseFavorite(c.Request.Context(), cardID)
	})
}

// GetSettings returns the player settings
func (h *GameHandler) GetSettings(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	OK(c, sess.Settings())
}

// UpdateSettings godoc
// @Summary      Update settings
// @Description  Applies a partial patch: auto_mark, speak_spaces, game_speed, vibration_enabled, graceful_bingos
// @Tags         settings
// @Accept       json
// @Produce      json
// @Success      200  {object}  BaseResponse{data=game.Settings}
// @Failure      400  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /games/{game_code}/settings [patch]
func (h *GameHandler) UpdateSettings(c *gin.Context) {
	var patch map[string]interface{}
	if !bind(c, &patch) {
		return
	}
	sess, ok := h.session(c)
	if !ok {
		return
	}
	settings, err := sess.UpdateSettings(c.Request.Context(), patch)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, settings)
}

// SpeedRequest selects a reveal speed
type SpeedRequest struct {
	Speed game.GameSpeed `json:"speed" binding:"required"`
}

// SetGameSpeed changes the reveal speed
func (h *GameHandler) SetGameSpeed(c *gin.Context) {
	var req SpeedRequest
	if !bind(c, &req) {
		return
	}
	h.intent(c, "set_game_speed", func(s *session.Session) error {
		return s.SetGameSpeed(c.Request.Context(), req.Speed)
	})
}

// ModeRequest selects a game mode preset
type ModeRequest struct {
	Mode game.GameMode `json:"mode" binding:"required"`
}

// SelectGameMode applies a game mode preset
func (h *GameHandler) SelectGameMode(c *gin.Context) {
	var req ModeRequest
	if !bind(c, &req) {
		return
	}
	h.intent(c, "select_game_mode", func(s *session.Session) error {
		return s.SelectGameMode(c.Request.Context(), req.Mode)
	})
}

// Background pauses the round timers
func (h *GameHandler) Background(c *gin.Context) {
	h.intent(c, "background", func(s *session.Session) error {
		s.Background()
		return nil
	})
}

// Foreground resumes the round timers
func (h *GameHandler) Foreground(c *gin.Context) {
	h.intent(c, "foreground", func(s *session.Session) error {
		s.Foreground()
		return nil
	})
}
