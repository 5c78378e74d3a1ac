package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/remakery/storefront-backend/api/controllers"
	cartcontrollers "github.com/remakery/storefront-backend/api/controllers/cart"
	checkoutcontrollers "github.com/remakery/storefront-backend/api/controllers/checkout"
	"github.com/remakery/storefront-backend/api/middleware"
	cartsvc "github.com/remakery/storefront-backend/internal/cart"
	checkoutsvc "github.com/remakery/storefront-backend/internal/checkout"
	"github.com/remakery/storefront-backend/internal/placement"
	"github.com/remakery/storefront-backend/internal/pricing"
	"github.com/remakery/storefront-backend/pkg/config"
	"github.com/remakery/storefront-backend/pkg/logger"
	"github.com/remakery/storefront-backend/pkg/market"
	"github.com/remakery/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	marketClient *market.Client,
	cartService cartsvc.Service,
	checkoutStore *checkoutsvc.Store,
	placementService placement.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	rates := pricing.Rates{
		FlatShippingFee: cfg.Pricing.ShippingFee(),
		CommissionRate:  cfg.Pricing.Commission(),
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.Fetch(cartService, rates, logg))
			r.Post("/items", cartcontrollers.AddItem(cartService, rates, logg))
			r.Patch("/items/{lineId}", cartcontrollers.UpdateItem(cartService, rates, logg))
			r.Delete("/items/{lineId}", cartcontrollers.RemoveItem(cartService, rates, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", checkoutcontrollers.Fetch(checkoutStore, cartService, rates, logg))
			r.Put("/address", checkoutcontrollers.SetAddress(checkoutStore, cartService, rates, logg))
			r.Put("/shipping", checkoutcontrollers.SetShipping(checkoutStore, cartService, rates, logg))
			r.Put("/payment", checkoutcontrollers.SetPayment(checkoutStore, cartService, rates, logg))
			r.Put("/saved-card", checkoutcontrollers.SaveCard(checkoutStore, cartService, rates, logg))
			r.Delete("/saved-card", checkoutcontrollers.RemoveCard(checkoutStore, cartService, rates, logg))
			r.Get("/step/{step}", checkoutcontrollers.StepGate(checkoutStore, logg))
			r.Post("/confirm", checkoutcontrollers.Confirm(placementService, logg))
		})

		r.Get("/addresses", controllers.AddressList(marketClient, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/purchases", controllers.OrderPurchases(marketClient, logg))
			r.Get("/sales", controllers.OrderSales(marketClient, logg))
			r.Get("/{orderId}", controllers.OrderDetail(marketClient, logg))
		})
	})

	return r
}
