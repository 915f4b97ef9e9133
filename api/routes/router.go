package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kiranakart/checkout-backend/api/controllers"
	"github.com/kiranakart/checkout-backend/api/middleware"
	addresssvc "github.com/kiranakart/checkout-backend/internal/address"
	"github.com/kiranakart/checkout-backend/internal/delivery"
	ordersvc "github.com/kiranakart/checkout-backend/internal/order"
	promosvc "github.com/kiranakart/checkout-backend/internal/promo"
	"github.com/kiranakart/checkout-backend/internal/validation"
	"github.com/kiranakart/checkout-backend/pkg/config"
	"github.com/kiranakart/checkout-backend/pkg/db"
	"github.com/kiranakart/checkout-backend/pkg/logger"
	pkgredis "github.com/kiranakart/checkout-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	addressService addresssvc.Service,
	promoService promosvc.Service,
	deliveryService *delivery.Service,
	orderService *ordersvc.Service,
	ordersRepo ordersvc.Repository,
	checker *validation.Checker,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	submitPolicy := middleware.NewSubmitRateLimitPolicy(
		"submit",
		cfg.SubmitLimit.Window,
		cfg.SubmitLimit.IPLimit,
		cfg.SubmitLimit.CustomerLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(addressService, logg))
			r.Post("/", controllers.AddressCreate(addressService, logg))
			r.Get("/suggest", controllers.AddressSuggest(addressService, logg))
			r.Get("/resolve", controllers.AddressResolve(addressService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/quote", controllers.CheckoutQuote(deliveryService, logg))
			r.Post("/quote/retry", controllers.CheckoutQuoteRetry(deliveryService, logg))
			r.Post("/validate", controllers.CheckoutValidate(checker, logg))
			r.With(middleware.SubmitRateLimit(submitPolicy, redisClient, logg)).
				Post("/submit", controllers.CheckoutSubmit(orderService, logg))
		})

		r.Post("/promo/validate", controllers.PromoValidate(promoService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderHistory(ordersRepo, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersRepo, logg))
		})
	})

	return r
}
