package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Digital-Creators-Team/bingo-game-module/auth"
	"github.com/Digital-Creators-Team/bingo-game-module/config"
	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/middleware"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/jackpot"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// App represents the game service application
type App struct {
	engine     *gin.Engine
	config     *config.Config
	logger     zerolog.Logger
	variant    *game.Config
	sessionCfg SessionConfig
	sessions   *SessionManager
	httpServer *http.Server
	onShutdown []func()

	gameHandler    *GameHandler
	jackpotHandler *JackpotHandler
	streamHandler  *StreamHandler

	sweepCancel context.CancelFunc
}

// Options holds server configuration options
type Options struct {
	Config *config.Config
	Logger zerolog.Logger
	// Clock drives session timers and the idle sweep. Defaults to the wall clock.
	Clock clock.Clock
}

// New creates a new game service application
func New(opts Options) *App {
	if opts.Config.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	app := &App{
		engine: gin.New(),
		config: opts.Config,
		logger: opts.Logger,
		sessionCfg: SessionConfig{
			Clock:   opts.Clock,
			IdleTTL: opts.Config.Game.IdleSessionTTL,
			Logger:  opts.Logger,
		},
	}

	app.gameHandler = NewGameHandler(app)
	app.jackpotHandler = NewJackpotHandler(app, app.gameHandler)
	app.streamHandler = NewStreamHandler(app)
	return app
}

// SetStoreFactory sets where each player's state is saved
func (a *App) SetStoreFactory(stores StoreFactory) {
	a.sessionCfg.Stores = stores
}

// SetLedger shares one jackpot ledger between every session
func (a *App) SetLedger(ledger *jackpot.Ledger) {
	a.sessionCfg.Ledger = ledger
}

// SetPurchaseProvider sets the in-app purchase provider
func (a *App) SetPurchaseProvider(provider providers.PurchaseProvider) {
	a.sessionCfg.Purchases = provider
}

// SetAdProvider sets the rewarded ad provider
func (a *App) SetAdProvider(provider providers.AdProvider) {
	a.sessionCfg.Ads = provider
}

// SetLeaderboardProvider sets the leaderboard provider
func (a *App) SetLeaderboardProvider(provider providers.LeaderboardProvider) {
	a.sessionCfg.Leaderboard = provider
}

// SetEventPublisher sets where round and jackpot events are published
func (a *App) SetEventPublisher(publisher providers.EventPublisher) {
	a.sessionCfg.Events = publisher
}

// UseCommonMiddlewares adds common middlewares to the application
func (a *App) UseCommonMiddlewares() {
	// Recovery reads the trace id, so trace runs first
	a.engine.Use(middleware.TraceID(a.logger))
	a.engine.Use(middleware.Recovery(a.logger))
	a.engine.Use(middleware.Logging(a.logger))

	if a.config.Server.EnableCORS {
		a.engine.Use(middleware.CORS())
	}
}

// UseMiddleware adds a custom middleware
func (a *App) UseMiddleware(m gin.HandlerFunc) {
	a.engine.Use(m)
}

// RegisterGame registers THE variant served by this service
func (a *App) RegisterGame(variant *game.Config) {
	a.variant = variant
	a.sessionCfg.Variant = variant
	a.logger.Info().Str("game_code", variant.GameCode).Msg("Game variant registered")
}

// GetGame returns the registered variant
func (a *App) GetGame() *game.Config {
	return a.variant
}

// GetGameCode returns the game code of the registered variant
func (a *App) GetGameCode() string {
	if a.variant == nil {
		return ""
	}
	return a.variant.GameCode
}

// Sessions returns the session manager. It is nil until
// RegisterCommonGameRoutes ran.
func (a *App) Sessions() *SessionManager {
	return a.sessions
}

// RegisterHealthCheck adds health check endpoints
func (a *App) RegisterHealthCheck() {
	a.engine.GET("/health", a.healthCheck)
	a.engine.GET("/api/health", a.healthCheck)
}

func (a *App) healthCheck(c *gin.Context) {
	sessions := 0
	if a.sessions != nil {
		sessions = a.sessions.Len()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   a.config.Environment,
		"game_code": a.GetGameCode(),
		"sessions":  sessions,
	})
}

// RegisterCommonGameRoutes builds the session manager and registers the
// game API.
//
// Flow: HTTP Request -> gameRoutes -> GameHandler -> SessionManager -> session.Session
//
// Routes registered under /api/games/{game_code}:
//   - GET    /config                 -> GameHandler.GetConfig
//   - GET    /state                  -> GameHandler.GetState
//   - POST   /round                  -> GameHandler.BeginRound
//   - POST   /round/marks            -> GameHandler.MarkSpace
//   - POST   /bet/toggle             -> GameHandler.ToggleBet
//   - POST   /bet/lower              -> GameHandler.LowerBet
//   - PUT    /bet                    -> GameHandler.SetBet
//   - POST   /credits/refill         -> GameHandler.Refill
//   - GET    /products               -> GameHandler.GetProducts
//   - POST   /purchases              -> GameHandler.Purchase
//   - POST   /bonus-offer/accept     -> GameHandler.AcceptBonusOffer
//   - GET    /cards                  -> GameHandler.GetCards
//   - POST   /cards                  -> GameHandler.NewCard
//   - PUT    /cards                  -> GameHandler.SetCards
//   - GET    /favorites              -> GameHandler.GetFavorites
//   - POST   /favorites              -> GameHandler.AddFavorite
//   - DELETE /favorites/:card_id     -> GameHandler.RemoveFavorite
//   - POST   /favorites/:card_id/use -> GameHandler.UseFavorite
//   - GET    /settings               -> GameHandler.GetSettings
//   - PATCH  /settings               -> GameHandler.UpdateSettings
//   - PUT    /settings/speed         -> GameHandler.SetGameSpeed
//   - POST   /mode                   -> GameHandler.SelectGameMode
//   - POST   /background             -> GameHandler.Background
//   - POST   /foreground             -> GameHandler.Foreground
//   - GET    /jackpot                -> JackpotHandler.GetJackpots
//   - GET    /stream                 -> StreamHandler.Stream (WebSocket)
func (a *App) RegisterCommonGameRoutes() {
	if a.variant == nil {
		a.logger.Fatal().Msg("No game variant registered. Call RegisterGame() first.")
		return
	}
	if a.sessionCfg.Stores == nil {
		a.logger.Fatal().Msg("No store registered. Call SetStoreFactory() first.")
		return
	}
	a.sessions = NewSessionManager(a.sessionCfg)

	gameCode := a.variant.GameCode
	games := a.engine.Group("/api/games/" + gameCode)
	games.Use(auth.JWTMiddleware(a.config.JWT.Secret, a.logger))
	games.Use(a.PlayerContextMiddleware())

	// the stream outlives any request timeout
	games.GET("/stream", a.streamHandler.Stream)

	api := games.Group("", middleware.Timeout(a.config.Server.RequestTimeout))
	{
		api.GET("/config", a.gameHandler.GetConfig)
		api.GET("/state", a.gameHandler.GetState)

		api.POST("/round", a.gameHandler.BeginRound)
		api.POST("/round/marks", a.gameHandler.MarkSpace)

		api.POST("/bet/toggle", a.gameHandler.ToggleBet)
		api.POST("/bet/lower", a.gameHandler.LowerBet)
		api.PUT("/bet", a.gameHandler.SetBet)

		api.POST("/credits/refill", a.gameHandler.Refill)
		api.GET("/products", a.gameHandler.GetProducts)
		api.POST("/purchases", a.gameHandler.Purchase)
		api.POST("/bonus-offer/accept", a.gameHandler.AcceptBonusOffer)

		api.GET("/cards", a.gameHandler.GetCards)
		api.POST("/cards", a.gameHandler.NewCard)
		api.PUT("/cards", a.gameHandler.SetCards)
		api.GET("/favorites", a.gameHandler.GetFavorites)
		api.POST("/favorites", a.gameHandler.AddFavorite)
		api.DELETE("/favorites/:card_id", a.gameHandler.RemoveFavorite)
		api.POST("/favorites/:card_id/use", a.gameHandler.UseFavorite)

		api.GET("/settings", a.gameHandler.GetSettings)
		api.PATCH("/settings", a.gameHandler.UpdateSettings)
		api.PUT("/settings/speed", a.gameHandler.SetGameSpeed)
		api.POST("/mode", a.gameHandler.SelectGameMode)

		api.POST("/background", a.gameHandler.Background)
		api.POST("/foreground", a.gameHandler.Foreground)

		api.GET("/jackpot", a.jackpotHandler.GetJackpots)
	}

	a.logger.Info().
		Str("game_code", gameCode).
		Msg("Common game routes registered: /api/games/" + gameCode)
}

// Router returns the Gin engine for custom route registration
func (a *App) Router() *gin.Engine {
	return a.engine
}

// OnShutdown registers a function to be called on shutdown
func (a *App) OnShutdown(fn func()) {
	a.onShutdown = append(a.onShutdown, fn)
}

func (a *App) newHTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.engine,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}
}

func (a *App) startSweeper() {
	if a.sessions == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.sweepCancel = cancel
	go a.sessions.Run(ctx)
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunWithContext(ctx)
}

// RunWithContext starts the HTTP server and shuts it down when ctx is done
func (a *App) RunWithContext(ctx context.Context) error {
	a.httpServer = a.newHTTPServer()
	a.startSweeper()

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info().
			Int("port", a.config.Server.Port).
			Str("environment", a.config.Environment).
			Str("game_code", a.GetGameCode()).
			Msg("Starting HTTP server")

		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errChan:
		a.closeSessions()
		return err
	}
}

func (a *App) closeSessions() {
	if a.sweepCancel != nil {
		a.sweepCancel()
	}
	if a.sessions != nil {
		a.sessions.Close()
	}
}

func (a *App) shutdown() error {
	a.logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := a.httpServer.Shutdown(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("Error during server shutdown")
	}

	// sessions close after the listener so in-flight intents finish
	a.closeSessions()
	for _, fn := range a.onShutdown {
		fn()
	}

	if err == nil {
		a.logger.Info().Msg("Server shutdown complete")
	}
	return err
}

// Config returns the application configuration
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the application logger
func (a *App) Logger() zerolog.Logger {
	return a.logger
}
