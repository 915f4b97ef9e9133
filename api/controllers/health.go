package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/kiranakart/checkout-backend/api/responses"
	"github.com/kiranakart/checkout-backend/pkg/config"
	"github.com/kiranakart/checkout-backend/pkg/db"
	"github.com/kiranakart/checkout-backend/pkg/logger"
	pkgredis "github.com/kiranakart/checkout-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-KiranaKart-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the dependencies the request path needs. A failing ping
// flips the corresponding check to "down" and the status code to 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-KiranaKart-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		checks["db"] = pingStatus(ctx, logg, "db", dbP)
		checks["redis"] = pingStatus(ctx, logg, "redis", redisP)
		for _, status := range checks {
			if status != "up" {
				healthy = false
			}
		}

		if !healthy {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"checks": checks,
			})
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"status": "ready",
			"checks": checks,
		})
	}
}

type pinger interface {
	Ping(context.Context) error
}

func pingStatus(ctx context.Context, logg *logger.Logger, name string, p pinger) string {
	if p == nil {
		return "skipped"
	}
	if err := p.Ping(ctx); err != nil {
		if logg != nil {
			logg.Error(ctx, "readiness check failed: "+name, err)
		}
		return "down"
	}
	return "up"
}
