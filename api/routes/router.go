package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/quotecart/api/controllers"
	cartcontrollers "github.com/angelmondragon/quotecart/api/controllers/cart"
	catalogcontrollers "github.com/angelmondragon/quotecart/api/controllers/catalog"
	"github.com/angelmondragon/quotecart/api/middleware"
	"github.com/angelmondragon/quotecart/internal/catalog"
	"github.com/angelmondragon/quotecart/internal/submission"
	"github.com/angelmondragon/quotecart/pkg/config"
	"github.com/angelmondragon/quotecart/pkg/db"
	"github.com/angelmondragon/quotecart/pkg/logger"
	"github.com/angelmondragon/quotecart/pkg/metrics"
	"github.com/angelmondragon/quotecart/pkg/redis"
)

// Dependencies are the collaborators the router wires into handlers.
// Redis and Gatherer are optional.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Catalog     catalog.Service
	Carts       cartcontrollers.Carts
	Submissions submission.Service
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(deps Dependencies) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	checks := []controllers.Check{{Name: "db", Pinger: deps.DB}}
	var idempotencyStore redis.IdempotencyStore
	if deps.Redis != nil {
		checks = append(checks, controllers.Check{Name: "redis", Pinger: deps.Redis})
		idempotencyStore = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, checks...))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", catalogcontrollers.ProductList(deps.Catalog, logg))
		r.Get("/facets", catalogcontrollers.ProductFacets(deps.Catalog, logg))
		r.Get("/search", catalogcontrollers.ProductSearch(deps.Catalog, logg))
		r.Get("/{slug}", catalogcontrollers.ProductDetail(deps.Catalog, logg))
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.CartSession(middleware.CartSessionOptions{
			CookieName: cfg.Cart.SessionCookie,
			Secure:     cfg.Cart.SecureCookie,
			MaxAge:     cfg.Cart.TTL,
		}, logg))

		idempotent := r.With(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/", cartcontrollers.CartFetch(deps.Carts, logg))
		r.Delete("/", cartcontrollers.CartClear(deps.Carts, logg))
		idempotent.Post("/items", cartcontrollers.CartAddItem(deps.Carts, deps.Catalog, logg))
		r.Patch("/items/{itemID}", cartcontrollers.CartUpdateItem(deps.Carts, logg))
		r.Delete("/items/{itemID}", cartcontrollers.CartRemoveItem(deps.Carts, logg))
		idempotent.Post("/submit", cartcontrollers.CartSubmit(deps.Carts, deps.Submissions, logg))
	})

	return r
}
