package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/restock-backend/internal/attributes"
	"github.com/angelmondragon/restock-backend/internal/customers"
	"github.com/angelmondragon/restock-backend/internal/dispatch"
	"github.com/angelmondragon/restock-backend/internal/products"
	"github.com/angelmondragon/restock-backend/internal/restock"
	"github.com/angelmondragon/restock-backend/internal/subscriptions"
	"github.com/angelmondragon/restock-backend/pkg/config"
	"github.com/angelmondragon/restock-backend/pkg/db"
	"github.com/angelmondragon/restock-backend/pkg/logger"
	"github.com/angelmondragon/restock-backend/pkg/metrics"
	"github.com/angelmondragon/restock-backend/pkg/migrate"
	"github.com/angelmondragon/restock-backend/pkg/outbox"
	"github.com/angelmondragon/restock-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/restock-backend/pkg/pubsub"
	"github.com/angelmondragon/restock-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "restock-worker"})

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "restock-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	dbClient, err := db.New(cfg.DB)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	dispatchMetrics := metrics.NewDispatchMetrics(prometheus.NewRegistry())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	dispatchService, err := dispatch.NewService(dispatch.ServiceParams{
		Notifications: dispatch.NewNotificationRepository(dbClient.DB()),
		Publisher:     dispatch.NewGCPPublisher(pubsubClient.NotificationPublisher()),
		Logger:        logg,
		Metrics:       dispatchMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch service", err)
		os.Exit(1)
	}

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:       subscriptions.NewRepository(dbClient.DB(), redisClient, cfg.Redis.CacheTTL),
		Customers:  customers.NewRepository(dbClient.DB()),
		Products:   products.NewRepository(dbClient.DB()),
		Attributes: attributes.NewRepository(dbClient.DB()),
		Dispatcher: dispatchService,
		Outbox:     outboxService,
		DB:         dbClient,
		Logger:     logg,
		Metrics:    dispatchMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	idempotencyManager, err := idempotency.NewManager(redisClient, cfg.Redis.CacheTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	consumer, err := restock.NewConsumer(subscriptionService, idempotencyManager, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create restock consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		PubSub:   pubsubClient,
		Consumer: consumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting restock worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
