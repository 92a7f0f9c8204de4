package wire

import (
	"context"
	"fmt"

	"github.com/Digital-Creators-Team/bingo-game-module/config"
	"github.com/Digital-Creators-Team/bingo-game-module/db/postgres"
	"github.com/Digital-Creators-Team/bingo-game-module/db/redis"
	"github.com/Digital-Creators-Team/bingo-game-module/events/amqp"
	"github.com/Digital-Creators-Team/bingo-game-module/events/kafka"
	"github.com/Digital-Creators-Team/bingo-game-module/game"
	"github.com/Digital-Creators-Team/bingo-game-module/logging"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/jackpot"
	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
	"github.com/Digital-Creators-Team/bingo-game-module/provider"
	"github.com/Digital-Creators-Team/bingo-game-module/server"
	"github.com/google/uuid"
	"github.com/google/wire"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Logical Kafka topics, resolved through config.KafkaConfig.Topic.
const (
	TopicLeaderboard    = "leaderboard"
	TopicRounds         = "rounds"
	TopicJackpotUpdates = "jackpot_updates"
)

// Backends groups the optional infrastructure clients. A nil field means
// the backend is not configured.
type Backends struct {
	Redis    *redis.Client
	Postgres *pgxpool.Pool
	Kafka    *kafka.Producer
	AMQP     *amqp.Publisher
}

// Collaborators groups what the app hands to every session.
type Collaborators struct {
	Stores      server.StoreFactory
	Ledger      *jackpot.Ledger
	Purchases   providers.PurchaseProvider
	Ads         providers.AdProvider
	Leaderboard providers.LeaderboardProvider
	Events      providers.EventPublisher
}

// ProvideLogger provides a zerolog.Logger
func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.Logging)
}

// ProvideVariant loads the variant from game.config_dir when set, otherwise
// it takes the registered variant named by game.variant. A loaded variant
// must carry the configured game code.
func ProvideVariant(cfg *config.Config) (*game.Config, error) {
	if cfg.Game.ConfigDir != "" {
		variant, err := game.LoadVariant(cfg.Game.ConfigDir, nil)
		if err != nil {
			return nil, err
		}
		if variant.GameCode != cfg.Game.Variant {
			return nil, fmt.Errorf("%s holds variant %q, want %q", cfg.Game.ConfigDir, variant.GameCode, cfg.Game.Variant)
		}
		return variant, nil
	}
	variant, ok := game.DefaultRegistry.Get(cfg.Game.Variant)
	if !ok {
		return nil, fmt.Errorf("unknown variant %q (registered: %v)", cfg.Game.Variant, game.DefaultRegistry.GetAll())
	}
	return variant, nil
}

// ProvideRedisClient provides a Redis client, or nil when redis.addr is empty.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	if cfg.Redis.Addr == "" {
		return nil, func() {}, nil
	}
	client, err := redis.New(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvidePostgresPool provides a pool, or nil unless game.store is postgres.
func ProvidePostgresPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if cfg.Game.Store != config.StorePostgres {
		return nil, func() {}, nil
	}
	pool, err := postgres.Connect(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	return pool, pool.Close, nil
}

// ProvideKafkaProducer provides a producer when Kafka carries the game events
// or the shared jackpot announcements.
func ProvideKafkaProducer(cfg *config.Config, logger zerolog.Logger) (*kafka.Producer, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, func() {}, nil
	}
	if cfg.Game.Events != config.EventsKafka && !cfg.Game.SharedJackpot {
		return nil, func() {}, nil
	}
	producer, err := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	if err != nil {
		return nil, nil, err
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideAMQPPublisher provides a RabbitMQ publisher when game.events is amqp.
func ProvideAMQPPublisher(cfg *config.Config, logger zerolog.Logger) (*amqp.Publisher, func(), error) {
	if cfg.Game.Events != config.EventsAMQP {
		return nil, func() {}, nil
	}
	pub, err := amqp.Dial(amqp.Config{URL: cfg.AMQP.URL, Exchange: cfg.AMQP.Exchange, Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	return pub, func() { _ = pub.Close() }, nil
}

// ProvideStoreFactory scopes the configured store to one player and game.
func ProvideStoreFactory(ctx context.Context, cfg *config.Config, variant *game.Config, b Backends, logger zerolog.Logger) (server.StoreFactory, error) {
	prefix := func(playerID string) string {
		return fmt.Sprintf("%s:%s:%s", cfg.Redis.KeyPrefix, variant.GameCode, playerID)
	}
	switch cfg.Game.Store {
	case config.StoreRedis:
		if b.Redis == nil {
			return nil, fmt.Errorf("redis store selected without a redis client")
		}
		return func(playerID string) providers.Store {
			return provider.NewRedisStore(b.Redis, prefix(playerID), 0, logger)
		}, nil
	case config.StorePostgres:
		if b.Postgres == nil {
			return nil, fmt.Errorf("postgres store selected without a pool")
		}
		shared := provider.NewPostgresStore(b.Postgres, cfg.Postgres.Table, "", logger)
		if err := shared.Migrate(ctx); err != nil {
			return nil, err
		}
		return func(playerID string) providers.Store {
			return providers.WithPrefix(shared, prefix(playerID)+":")
		}, nil
	default:
		return func(string) providers.Store { return provider.NewMemoryStore() }, nil
	}
}

// ProvideLedger provides the shared Redis ledger when game.shared_jackpot is
// set. Without it every player keeps a ledger in their own store.
func ProvideLedger(cfg *config.Config, variant *game.Config, b Backends, logger zerolog.Logger) *jackpot.Ledger {
	if !cfg.Game.SharedJackpot || b.Redis == nil {
		return nil
	}
	key := fmt.Sprintf("%s:%s:jackpot", cfg.Redis.KeyPrefix, variant.GameCode)
	return jackpot.NewLedger(provider.NewRedisJackpotBackend(b.Redis, key, logger), jackpot.Config{
		PayoutMultiplier: variant.Jackpot.Multiplier,
		BaselineFactor:   variant.Jackpot.BaselineFactor,
	}, logger)
}

// ProvideEventPublisher picks the transport named by game.events.
func ProvideEventPublisher(cfg *config.Config, b Backends, logger zerolog.Logger) providers.EventPublisher {
	switch {
	case cfg.Game.Events == config.EventsKafka && b.Kafka != nil:
		return provider.NewEventPublisher(b.Kafka, cfg.Kafka.Topic(TopicRounds), logger)
	case cfg.Game.Events == config.EventsAMQP && b.AMQP != nil:
		return provider.NewAMQPPublisher(b.AMQP, cfg.AMQP.RoutingKey)
	default:
		return providers.Nop{}
	}
}

// ProvideLeaderboard submits scores to Kafka when game.events is kafka.
func ProvideLeaderboard(cfg *config.Config, b Backends, logger zerolog.Logger) providers.LeaderboardProvider {
	if cfg.Game.Events != config.EventsKafka || b.Kafka == nil {
		return providers.Nop{}
	}
	return provider.NewLeaderboardProvider(b.Kafka, cfg.Kafka.Topic(TopicLeaderboard), logger)
}

// ProvidePurchaseProvider provides the HTTP store client when configured.
func ProvidePurchaseProvider(cfg *config.Config, logger zerolog.Logger) providers.PurchaseProvider {
	if !cfg.ExternalServices.PurchaseService.Enabled() {
		return providers.Nop{}
	}
	return provider.NewPurchaseProvider(cfg.ExternalServices.PurchaseService, logger)
}

// ProvideAdProvider provides the HTTP ad client when configured.
func ProvideAdProvider(cfg *config.Config, logger zerolog.Logger) providers.AdProvider {
	if !cfg.ExternalServices.AdService.Enabled() {
		return providers.Nop{}
	}
	return provider.NewAdProvider(cfg.ExternalServices.AdService, logger)
}

// ProvideJackpotSync relays shared ledger updates between instances over
// Kafka. It is nil unless the ledger is shared and Kafka is configured.
func ProvideJackpotSync(cfg *config.Config, variant *game.Config, ledger *jackpot.Ledger, b Backends, logger zerolog.Logger) *provider.JackpotSync {
	if ledger == nil || b.Kafka == nil {
		return nil
	}
	return provider.NewJackpotSync(ledger, b.Kafka, cfg.Kafka.Topic(TopicJackpotUpdates), uuid.NewString(), variant.GameCode, logger)
}

// ProvideServerOptions provides server options
func ProvideServerOptions(cfg *config.Config, logger zerolog.Logger) server.Options {
	return server.Options{
		Config: cfg,
		Logger: logger,
	}
}

// ProvideApp provides the main application with the variant registered and
// every collaborator set. Routes are left to the caller.
func ProvideApp(opts server.Options, variant *game.Config, c Collaborators) *server.App {
	app := server.New(opts)
	app.SetStoreFactory(c.Stores)
	if c.Ledger != nil {
		app.SetLedger(c.Ledger)
	}
	app.SetPurchaseProvider(c.Purchases)
	app.SetAdProvider(c.Ads)
	app.SetLeaderboardProvider(c.Leaderboard)
	app.SetEventPublisher(c.Events)
	app.RegisterGame(variant)
	return app
}

// ConfigSet is the wire provider set for configuration
var ConfigSet = wire.NewSet(
	config.Load,
	ProvideVariant,
)

// LoggingSet is the wire provider set for logging
var LoggingSet = wire.NewSet(
	ProvideLogger,
)

// BackendSet is the wire provider set for infrastructure clients
var BackendSet = wire.NewSet(
	ProvideRedisClient,
	ProvidePostgresPool,
	ProvideKafkaProducer,
	ProvideAMQPPublisher,
	wire.Struct(new(Backends), "*"),
)

// ProviderSet is the wire provider set for session collaborators
var ProviderSet = wire.NewSet(
	ProvideStoreFactory,
	ProvideLedger,
	ProvideEventPublisher,
	ProvideLeaderboard,
	ProvidePurchaseProvider,
	ProvideAdProvider,
	wire.Struct(new(Collaborators), "*"),
)

// ServerSet is the wire provider set for server
var ServerSet = wire.NewSet(
	ProvideServerOptions,
	ProvideApp,
)

// DefaultSet is the default wire provider set including all common providers
var DefaultSet = wire.NewSet(
	LoggingSet,
	ProviderSet,
	ServerSet,
)

// FullSet includes all providers including the infrastructure clients
var FullSet = wire.NewSet(
	DefaultSet,
	BackendSet,
	ProvideJackpotSync,
)
