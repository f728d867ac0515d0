package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/uplink-dao/uplink-tweet/internal/cipher"
	"github.com/uplink-dao/uplink-tweet/internal/config"
	"github.com/uplink-dao/uplink-tweet/internal/db"
	"github.com/uplink-dao/uplink-tweet/internal/dispatch"
	"github.com/uplink-dao/uplink-tweet/internal/events"
	"github.com/uplink-dao/uplink-tweet/internal/invalidator"
	"github.com/uplink-dao/uplink-tweet/internal/lock"
	"github.com/uplink-dao/uplink-tweet/internal/logging"
	"github.com/uplink-dao/uplink-tweet/internal/poster"
	"github.com/uplink-dao/uplink-tweet/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// Missing .env is fine in containerized deployments where the
	// environment is injected directly.
	_ = godotenv.Load()

	cfg, err := config.New(instanceName(), config.FromEnv()...)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer logger.Close()
	logger.Info("starting tweet dispatcher", "instance", cfg.Instance,
		"schedule", cfg.Schedule, "batch_size", cfg.BatchSize)

	conn, err := db.Open(cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	locks := lock.NewPostgresDistributedLockManager(conn)
	if err := db.Init(ctx, conn, locks, logger, db.DefaultMigrationsDir); err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}

	credCipher, err := cipher.New(cfg.AppSecret)
	if err != nil {
		return err
	}

	broker, err := events.NewRabbitMQ(cfg.RabbitMQURL, events.AnnouncementStream{
		Exchange:   cfg.RabbitMQExchange,
		Queue:      cfg.AnnouncementQueue,
		RoutingKey: cfg.RabbitMQRoutingKey,
	})
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer broker.Close()

	queueStore := postgres.NewPostgresQueueStore(conn)
	contestStore := postgres.NewPostgresContestStore(conn)
	posters := poster.NewTwitterFactory(cfg.TwitterConsumerKey, cfg.TwitterConsumerSecret,
		poster.WithTimeout(cfg.PosterTimeout))

	dispatcher := dispatch.NewDispatcher(queueStore, contestStore, credCipher,
		posters, broker, locks, logger, cfg)

	inv := invalidator.New(cfg.FrontendHost, cfg.FrontendAPISecret, logger)
	go func() {
		if err := inv.Run(ctx, broker); err != nil && ctx.Err() == nil {
			logger.Error("cache invalidator stopped", "error", err)
		}
	}()

	scheduler := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
		cron.Recover(cron.DiscardLogger),
	))
	_, err = scheduler.AddFunc(cfg.Schedule, func() {
		if err := dispatcher.RunCycle(ctx); err != nil {
			logger.Error("dispatch cycle failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule dispatch cycle: %w", err)
	}

	scheduler.Start()
	logger.Info("dispatch schedule active", "expression", cfg.Schedule)

	<-ctx.Done()
	logger.Info("shutting down, waiting for in-flight cycle")

	// Stop returns once the running cycle, if any, completes.
	<-scheduler.Stop().Done()
	logger.Info("dispatcher stopped")
	return nil
}

// instanceName identifies this dispatcher in job claims and logs. The
// uuid suffix keeps replicas on the same host distinct.
func instanceName() string {
	host, err := os.Hostname()
	if err != nil {
		host = "dispatcher"
	}
	return host + "-" + uuid.NewString()[:8]
}
