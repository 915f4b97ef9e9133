package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kiranakart/checkout-backend/api/routes"
	addresssvc "github.com/kiranakart/checkout-backend/internal/address"
	"github.com/kiranakart/checkout-backend/internal/delivery"
	ordersvc "github.com/kiranakart/checkout-backend/internal/order"
	promosvc "github.com/kiranakart/checkout-backend/internal/promo"
	"github.com/kiranakart/checkout-backend/internal/validation"
	"github.com/kiranakart/checkout-backend/pkg/config"
	"github.com/kiranakart/checkout-backend/pkg/db"
	"github.com/kiranakart/checkout-backend/pkg/logger"
	"github.com/kiranakart/checkout-backend/pkg/maps"
	"github.com/kiranakart/checkout-backend/pkg/metrics"
	"github.com/kiranakart/checkout-backend/pkg/migrate"
	pkgredis "github.com/kiranakart/checkout-backend/pkg/redis"
	"github.com/kiranakart/checkout-backend/pkg/upstream"
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

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	upstreamClient, err := upstream.NewClient(cfg.Upstream)
	if err != nil {
		logg.Error(context.Background(), "failed to create upstream client", err)
		os.Exit(1)
	}

	var places addresssvc.Places
	if cfg.GoogleMaps.APIKey != "" {
		mapsClient, err := maps.NewClient(cfg.GoogleMaps.APIKey)
		if err != nil {
			logg.Error(context.Background(), "failed to create maps client", err)
			os.Exit(1)
		}
		places = mapsClient
	} else {
		logg.Warn(context.Background(), "maps api key not set, address assistance disabled")
	}

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	checker := validation.New(cfg.Warehouse, nil)

	addressService := addresssvc.NewService(upstreamClient, places)
	promoService := promosvc.NewService(upstreamClient, logg)
	deliveryService := delivery.NewService(upstreamClient, cfg.Delivery, nil, logg, checkoutMetrics)
	ordersRepo := ordersvc.NewRepository(dbClient.DB())
	orderService := ordersvc.NewService(upstreamClient, upstreamClient, promoService, ordersRepo, checker, logg, checkoutMetrics)

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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			addressService,
			promoService,
			deliveryService,
			orderService,
			ordersRepo,
			checker,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
