package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/uistate"
	orderswebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	var redisClient *redis.Client
	if !cfg.FeatureFlags.InMemoryState {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "in-memory cart state enabled: state, cache and idempotency are process local")
	}

	cartMetrics := metrics.NewCartMetrics(prometheus.DefaultRegisterer)

	var (
		cartCache    cart.Cache = cart.NoopCache{}
		stateStorage uistate.Storage
		stateKey     uistate.KeyFunc
	)
	if redisClient != nil {
		redisCache, err := cart.NewRedisCache(redisClient, cfg.Cart.CacheTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create cart cache", err)
			os.Exit(1)
		}
		cartCache = redisCache

		redisStorage, err := uistate.NewRedisStorage(redisClient, cfg.Cart.StateTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create cart state storage", err)
			os.Exit(1)
		}
		stateStorage = redisStorage
		stateKey = redisClient.CartStateKey
	} else {
		stateStorage = uistate.NewMemoryStorage()
		stateKey = redis.NewKeyspace(cfg.Redis.KeyNamespace).CartStateKey
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:    cart.NewRepository(dbClient.DB()),
		Tx:      dbClient,
		Cache:   cartCache,
		Metrics: cartMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	stateRegistry, err := uistate.NewRegistry(uistate.RegistryParams{
		Storage: stateStorage,
		KeyFunc: stateKey,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart state registry", err)
		os.Exit(1)
	}

	taxRate, err := cfg.Cart.Rate()
	if err != nil {
		logg.Error(context.Background(), "invalid tax rate", err)
		os.Exit(1)
	}
	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Carts:        cartService,
		State:        stateRegistry,
		TaxRate:      taxRate,
		CheckoutPath: cfg.Cart.CheckoutPath,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	orderWebhookService, err := orderswebhook.NewService(checkoutService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order webhook service", err)
		os.Exit(1)
	}
	var orderWebhookGuard *orderswebhook.IdempotencyGuard
	if redisClient != nil {
		orderWebhookGuard, err = orderswebhook.NewIdempotencyGuard(redisClient, cfg.Webhooks.IdempotencyTTL, "order-webhook")
		if err != nil {
			logg.Error(context.Background(), "failed to create order webhook guard", err)
			os.Exit(1)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"dialect":  dbClient.Dialect(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			cartService,
			stateRegistry,
			checkoutService,
			orderWebhookService,
			orderWebhookGuard,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server stopped")
	}
}
