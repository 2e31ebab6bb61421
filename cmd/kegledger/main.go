package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/KirkDiggler/kegledger/internal/common/clock"
	"github.com/KirkDiggler/kegledger/internal/common/uuid"
	"github.com/KirkDiggler/kegledger/internal/config"
	"github.com/KirkDiggler/kegledger/internal/handlers/intake"
	"github.com/KirkDiggler/kegledger/internal/logging"
	"github.com/KirkDiggler/kegledger/internal/metrics"
	"github.com/KirkDiggler/kegledger/internal/repositories/cache"
	"github.com/KirkDiggler/kegledger/internal/repositories/ledger"
	"github.com/KirkDiggler/kegledger/internal/services/dispatch"
	"github.com/KirkDiggler/kegledger/internal/services/events"
	"github.com/KirkDiggler/kegledger/internal/services/generation"
	"github.com/KirkDiggler/kegledger/internal/services/recording"
	"github.com/KirkDiggler/kegledger/internal/services/sessions"
	"github.com/KirkDiggler/kegledger/internal/services/stats"
)

func main() {
	// A .env file is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Fatal().Err(err).Msg("Failed to load .env")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("kegledger stopped")
	}

	logging.Info().Msg("kegledger has been shut down")
}

func run(ctx context.Context, cfg *config.Config) error {
	checks := map[string]metrics.HealthCheck{}

	// Initialize the ledger
	db, err := ledger.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	checks["database"] = db.PingContext

	store, err := ledger.NewSQL(&ledger.Config{DB: db})
	if err != nil {
		return fmt.Errorf("failed to create ledger: %w", err)
	}

	// Initialize the cache backing the generation counter and stats snapshots
	cacheStore, closeCache, err := openCache(cfg.Cache, checks)
	if err != nil {
		return err
	}
	defer closeCache()

	gen, err := generation.New(&generation.Config{
		Store: cacheStore,
		Clock: clock.New(),
	})
	if err != nil {
		return fmt.Errorf("failed to create generation client: %w", err)
	}

	// Initialize services
	sessionSvc, err := sessions.New(&sessions.Config{
		IdleTimeout: cfg.Site.IdleTimeout(),
		TimeZone:    cfg.Site.TimeZone,
	})
	if err != nil {
		return fmt.Errorf("failed to create session service: %w", err)
	}

	builder, err := stats.NewBuilder(&stats.Config{BatchSize: cfg.Stats.BatchSize})
	if err != nil {
		return fmt.Errorf("failed to create stats builder: %w", err)
	}

	eventBuilder, err := events.NewBuilder(&events.Config{
		LowVolumeThresholdPercent: cfg.Site.KegVolumeLowThresholdPercent,
	})
	if err != nil {
		return fmt.Errorf("failed to create event builder: %w", err)
	}

	worker, err := stats.NewWorker(&stats.WorkerConfig{
		Store:      store,
		Builder:    builder,
		Generation: gen,
	})
	if err != nil {
		return fmt.Errorf("failed to create stats worker: %w", err)
	}

	reader, err := stats.NewReader(&stats.ReaderConfig{
		Store:      store,
		Generation: gen,
		TTL:        cfg.Cache.StatsTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to create stats reader: %w", err)
	}

	// Event collaborators
	bus := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64},
		dispatch.NewWatermillLogger(logging.WithComponent("watermill")))
	defer bus.Close()

	registry := dispatch.NewRegistry()
	sink, err := dispatch.NewWatermillSink(&dispatch.WatermillConfig{
		Publisher:   bus,
		TopicPrefix: cfg.Events.TopicPrefix,
		UUID:        uuid.New(),
	})
	if err != nil {
		return fmt.Errorf("failed to create event sink: %w", err)
	}
	registry.Register(sink)

	if cfg.Events.AMQPURL != "" {
		conn, ch, err := dispatch.DialAMQP(cfg.Events.AMQPURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		broker, err := dispatch.NewAMQPSink(&dispatch.AMQPConfig{
			Channel:          ch,
			Queue:            cfg.Events.AMQPQueue,
			FailureThreshold: cfg.Events.BreakerFailures,
			OpenTimeout:      cfg.Events.BreakerTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create amqp sink: %w", err)
		}
		registry.Register(broker)
		checks["amqp"] = func(context.Context) error {
			if state := broker.State(); state == "open" {
				return fmt.Errorf("circuit breaker is %s", state)
			}
			return nil
		}
	}

	recorder, err := recording.New(&recording.Config{
		Store:      store,
		Sessions:   sessionSvc,
		Stats:      builder,
		Events:     eventBuilder,
		Clock:      clock.New(),
		Generation: gen,
		StatsMode:  recording.StatsMode(cfg.Stats.Mode),
		StatsQueue: worker,
		Dispatcher: registry,
	})
	if err != nil {
		return fmt.Errorf("failed to create recording service: %w", err)
	}

	commands, err := intake.New(&intake.Config{
		Subscriber: bus,
		Publisher:  bus,
		Service:    recorder,
		Stats:      reader,
		UUID:       uuid.New(),
	})
	if err != nil {
		return fmt.Errorf("failed to create command intake: %w", err)
	}

	// Supervise the long running services
	hook := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
	sup := suture.New("kegledger", suture.Spec{EventHook: hook.MustHook()})
	sup.Add(worker)
	sup.Add(commands)

	if cfg.Metrics.Addr != "" {
		server, err := metrics.NewServer(&metrics.ServerConfig{
			Addr:   cfg.Metrics.Addr,
			Checks: checks,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		sup.Add(server)
	}

	logging.Info().
		Str("database", cfg.Database.Driver).
		Str("cache", cfg.Cache.Backend).
		Str("stats_mode", cfg.Stats.Mode).
		Int("collaborators", registry.Len()).
		Msg("kegledger is now running")

	return sup.Serve(ctx)
}

// openCache opens the configured cache backend and registers its health check
func openCache(cfg config.CacheConfig, checks map[string]metrics.HealthCheck) (cache.Store, func(), error) {
	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store, err := cache.NewRedis(&cache.RedisConfig{
			RedisClient: client,
			KeyPrefix:   cfg.KeyPrefix,
		})
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
		return store, func() { client.Close() }, nil

	default:
		db, err := cache.OpenBadger(cfg.BadgerDir)
		if err != nil {
			return nil, nil, err
		}
		store, err := cache.NewBadger(&cache.BadgerConfig{DB: db})
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil
	}
}
