package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/restock-backend/api/controllers"
	"github.com/angelmondragon/restock-backend/api/routes"
	"github.com/angelmondragon/restock-backend/internal/attributes"
	"github.com/angelmondragon/restock-backend/internal/customers"
	"github.com/angelmondragon/restock-backend/internal/discounts"
	"github.com/angelmondragon/restock-backend/internal/dispatch"
	"github.com/angelmondragon/restock-backend/internal/products"
	"github.com/angelmondragon/restock-backend/internal/subscriptions"
	"github.com/angelmondragon/restock-backend/pkg/config"
	"github.com/angelmondragon/restock-backend/pkg/db"
	"github.com/angelmondragon/restock-backend/pkg/logger"
	"github.com/angelmondragon/restock-backend/pkg/metrics"
	"github.com/angelmondragon/restock-backend/pkg/migrate"
	"github.com/angelmondragon/restock-backend/pkg/outbox"
	"github.com/angelmondragon/restock-backend/pkg/pubsub"
	"github.com/angelmondragon/restock-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: cfg.App.ServiceName,
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

	healthDeps := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	var pubsubClient *pubsub.Client
	if cfg.GCP.ProjectID != "" {
		pubsubClient, err = pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		healthDeps["pubsub"] = pubsubClient
	} else {
		logg.Warn(context.Background(), "pubsub disabled, no gcp project configured")
	}

	registry := prometheus.NewRegistry()
	dispatchMetrics := metrics.NewDispatchMetrics(registry)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	subscriptionRepo := subscriptions.NewRepository(dbClient.DB(), redisClient, cfg.Redis.CacheTTL)
	customerRepo := customers.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	attributeRepo := attributes.NewRepository(dbClient.DB())

	dispatchParams := dispatch.ServiceParams{
		Notifications: dispatch.NewNotificationRepository(dbClient.DB()),
		Logger:        logg,
		Metrics:       dispatchMetrics,
	}
	if pubsubClient != nil {
		dispatchParams.Publisher = dispatch.NewGCPPublisher(pubsubClient.NotificationPublisher())
	}
	dispatchService, err := dispatch.NewService(dispatchParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch service", err)
		os.Exit(1)
	}

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:       subscriptionRepo,
		Customers:  customerRepo,
		Products:   productRepo,
		Attributes: attributeRepo,
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

	productService, err := products.NewService(products.ServiceParams{
		Repo:   productRepo,
		Outbox: outboxService,
		DB:     dbClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	var discountRegistry *discounts.Registry
	if cfg.Features.DiscountRules {
		roleRule, err := discounts.NewCustomerRoleRule(discounts.NewRequirementRepository(dbClient.DB()), customerRepo)
		if err != nil {
			logg.Error(context.Background(), "failed to create discount rule", err)
			os.Exit(1)
		}
		discountRegistry, err = discounts.NewRegistry(roleRule)
		if err != nil {
			logg.Error(context.Background(), "failed to create discount registry", err)
			os.Exit(1)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			Subscriptions: subscriptionService,
			Products:      productService,
			Discounts:     discountRegistry,
			Metrics:       registry,
			HealthDeps:    healthDeps,
		}),
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(stopCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
