package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Deps bundles what the HTTP surface needs. Idempotency, DB, Redis and
// Gatherer are optional; a nil Gatherer serves the default registry.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency redis.IdempotencyStore
	CartService cart.Service
	Gatherer    prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	var idempotent func(http.Handler) http.Handler
	if cfg.FeatureFlags.Idempotency && deps.Idempotency != nil {
		idempotent = middleware.Idempotency(deps.Idempotency, cfg.Cart.IdempotencyTTL, logg)
	} else {
		idempotent = func(next http.Handler) http.Handler { return next }
	}

	svc := deps.CartService
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOwner(logg))
			r.Get("/", cartcontrollers.CartFetch(svc, logg))
			r.Delete("/", cartcontrollers.CartClear(svc, logg))
			r.With(idempotent).Post("/items", cartcontrollers.CartAddItem(svc, logg))
			r.Put("/items/{productId}", cartcontrollers.CartUpdateItem(svc, logg))
			r.Delete("/items/{productId}", cartcontrollers.CartRemoveItem(svc, logg))
			r.Post("/shipping", cartcontrollers.CartSetShipping(svc, logg))
		})

		r.With(middleware.RequireUser(logg), idempotent).Post("/transfer", cartcontrollers.CartTransfer(svc, logg))
	})

	return r
}
