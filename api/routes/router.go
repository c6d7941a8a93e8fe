package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/restock-backend/api/controllers"
	"github.com/angelmondragon/restock-backend/api/middleware"
	"github.com/angelmondragon/restock-backend/internal/discounts"
	productsvc "github.com/angelmondragon/restock-backend/internal/products"
	subscriptionsvc "github.com/angelmondragon/restock-backend/internal/subscriptions"
	"github.com/angelmondragon/restock-backend/pkg/config"
	"github.com/angelmondragon/restock-backend/pkg/enums"
	"github.com/angelmondragon/restock-backend/pkg/logger"
)

// RouterParams groups everything the HTTP surface needs.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	Subscriptions subscriptionsvc.Service
	Products      productsvc.Service
	Discounts     *discounts.Registry
	Metrics       prometheus.Gatherer
	HealthDeps    map[string]controllers.Pinger
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, params.HealthDeps))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Get("/ping", controllers.PrivatePing())

			r.Route("/v1/subscriptions", func(r chi.Router) {
				r.Post("/", controllers.SubscriptionCreate(params.Subscriptions, logg))
				r.Get("/", controllers.SubscriptionList(params.Subscriptions, logg))
				r.Get("/find", controllers.SubscriptionFind(params.Subscriptions, logg))
				r.Delete("/{subscriptionId}", controllers.SubscriptionDelete(params.Subscriptions, logg))
			})

			r.Post("/v1/discounts/requirements/{requirementId}/check", controllers.DiscountCheck(params.Discounts, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
		r.Get("/ping", controllers.AdminPing())

		r.Route("/v1/products/{productId}", func(r chi.Router) {
			r.Get("/subscriptions", controllers.ProductSubscribers(params.Subscriptions, logg))
			r.Post("/notify", controllers.ProductNotify(params.Subscriptions, logg))
			r.Post("/replenish", controllers.ProductReplenish(params.Products, logg))
		})
	})

	return r
}
