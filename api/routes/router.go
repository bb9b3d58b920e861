package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	webhookcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/webhooks"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	orderswebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// NewRouter wires the HTTP surface. redisClient and the webhook guard are
// optional; without them idempotency, rate limiting and the order webhook
// are disabled.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	cartService cart.Service,
	stateRegistry cartcontrollers.StateRegistry,
	checkoutService checkoutsvc.Service,
	orderWebhookService *orderswebhook.Service,
	orderWebhookGuard *orderswebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var (
		idempotencyStore redis.IdempotencyStore
		redisPinger      controllers.Pinger
		webhookLimit     = passthrough
	)
	if redisClient != nil {
		idempotencyStore = redisClient
		redisPinger = redisClient
		webhookLimit = middleware.RateLimit("webhooks", cfg.Webhooks.RateLimit, cfg.Webhooks.RateWindow, redisClient, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Use(webhookLimit)
		if orderWebhookService != nil && orderWebhookGuard != nil {
			r.Post("/orders", webhookcontrollers.OrderWebhook(orderWebhookService, cfg.Webhooks.OrdersSecret, orderWebhookGuard, logg))
		} else if logg != nil {
			logg.Warn(context.Background(), "order webhook disabled: redis-backed idempotency guard not configured")
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(cartService, stateRegistry, logg))
			r.Delete("/", cartcontrollers.CartClearAll(checkoutService, logg))

			r.Route("/items", func(r chi.Router) {
				r.Post("/", cartcontrollers.CartAddItem(cartService, stateRegistry, logg))
				r.Delete("/", cartcontrollers.CartClear(cartService, stateRegistry, logg))
				r.Patch("/{itemId}", cartcontrollers.CartUpdateItem(cartService, stateRegistry, logg))
				r.Delete("/{itemId}", cartcontrollers.CartDeleteItem(cartService, stateRegistry, logg))
			})

			r.Route("/state", func(r chi.Router) {
				r.Get("/", cartcontrollers.StateFetch(stateRegistry, logg))
				r.Post("/open", cartcontrollers.StateOpen(stateRegistry, logg))
				r.Post("/close", cartcontrollers.StateClose(stateRegistry, logg))
				r.Post("/toggle", cartcontrollers.StateToggle(stateRegistry, logg))
				r.Put("/item-count", cartcontrollers.StateSetItemCount(stateRegistry, logg))
			})

			r.Route("/service-items", func(r chi.Router) {
				r.Post("/", cartcontrollers.ServiceItemAdd(stateRegistry, logg))
				r.Delete("/", cartcontrollers.ServiceItemsClear(stateRegistry, logg))
				r.Delete("/{itemId}", cartcontrollers.ServiceItemRemove(stateRegistry, logg))
			})

			r.Get("/summary", cartcontrollers.CartSummary(checkoutService, logg))
			r.Post("/checkout", cartcontrollers.CartCheckout(checkoutService, logg))
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler {
	return next
}
