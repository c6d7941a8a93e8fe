package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/restock-backend/api/responses"
	"github.com/angelmondragon/restock-backend/pkg/config"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Restock-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the named dependencies and reports per-dependency status.
// Any failing dependency flips the response to 503.
func HealthReady(cfg *config.Config, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Restock-Env", cfg.App.Env)

		status := map[string]string{"status": "ready"}
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "up"
		}

		if !healthy {
			status["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
