package wire

import (
	"context"
	"os"

	"github.com/Digital-Creators-Team/bingo-game-module/config"
	"github.com/Digital-Creators-Team/bingo-game-module/events/kafka"
	"github.com/Digital-Creators-Team/bingo-game-module/server"
)

// InitializeApp builds the FullSet graph by hand, in dependency order. The
// returned cleanup closes every backend in reverse order; call it after the
// app has shut down.
func InitializeApp(ctx context.Context, cfg *config.Config) (*server.App, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*server.App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	logger := ProvideLogger(cfg)
	variant, err := ProvideVariant(cfg)
	if err != nil {
		return fail(err)
	}

	redisClient, closeRedis, err := ProvideRedisClient(cfg)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeRedis)
	pool, closePool, err := ProvidePostgresPool(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closePool)
	producer, closeProducer, err := ProvideKafkaProducer(cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeProducer)
	amqpPub, closeAMQP, err := ProvideAMQPPublisher(cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeAMQP)
	backends := Backends{Redis: redisClient, Postgres: pool, Kafka: producer, AMQP: amqpPub}

	stores, err := ProvideStoreFactory(ctx, cfg, variant, backends, logger)
	if err != nil {
		return fail(err)
	}
	ledger := ProvideLedger(cfg, variant, backends, logger)
	if ledger != nil {
		cleanups = append(cleanups, ledger.Close)
	}
	collaborators := Collaborators{
		Stores:      stores,
		Ledger:      ledger,
		Purchases:   ProvidePurchaseProvider(cfg, logger),
		Ads:         ProvideAdProvider(cfg, logger),
		Leaderboard: ProvideLeaderboard(cfg, backends, logger),
		Events:      ProvideEventPublisher(cfg, backends, logger),
	}
	app := ProvideApp(ProvideServerOptions(cfg, logger), variant, collaborators)

	if sync := ProvideJackpotSync(cfg, variant, ledger, backends, logger); sync != nil {
		syncCtx, stopSync := context.WithCancel(context.Background())
		go sync.Run(syncCtx)
		// every instance needs every update, so each gets its own group
		host, _ := os.Hostname()
		consumer := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic(TopicJackpotUpdates),
			ConsumerGroup: cfg.Kafka.ConsumerGroup + "-jackpot-" + host,
			Logger:        logger,
		}, sync.Handle)
		consumer.SetFilter(sync.Accept)
		if err := consumer.Start(); err != nil {
			stopSync()
			return fail(err)
		}
		app.OnShutdown(func() {
			_ = consumer.Stop()
			stopSync()
		})
	}

	return app, cleanup, nil
}
