package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/remakery/storefront-backend/api/routes"
	cartsvc "github.com/remakery/storefront-backend/internal/cart"
	checkoutsvc "github.com/remakery/storefront-backend/internal/checkout"
	"github.com/remakery/storefront-backend/internal/placement"
	"github.com/remakery/storefront-backend/pkg/config"
	"github.com/remakery/storefront-backend/pkg/logger"
	"github.com/remakery/storefront-backend/pkg/market"
	"github.com/remakery/storefront-backend/pkg/metrics"
	"github.com/remakery/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

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

	marketClient, err := market.NewClient(cfg.Market, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create market client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	cartService, err := cartsvc.NewService(cartsvc.ServiceParams{
		Market:       marketClient,
		Listings:     marketClient,
		Logger:       logg,
		Metrics:      checkoutMetrics,
		SyncDebounce: cfg.Cart.SyncDebounce.Milliseconds(),
		SyncTimeout:  cfg.Cart.SyncTimeout.Milliseconds(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutStore, err := checkoutsvc.NewStore(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout store", err)
		os.Exit(1)
	}

	placementService, err := placement.NewService(placement.ServiceParams{
		Cart:          cartService,
		Checkout:      checkoutStore,
		Orders:        marketClient,
		Logger:        logg,
		Metrics:       checkoutMetrics,
		CommitTimeout: cfg.Market.CommitTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create placement service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, marketClient, cartService, checkoutStore, placementService, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
