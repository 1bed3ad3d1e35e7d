package controllers

import (
	"context"
	"net/http"

	"github.com/posbill/billsync-backend/api/responses"
	"github.com/posbill/billsync-backend/pkg/config"
	pkgerrors "github.com/posbill/billsync-backend/pkg/errors"
	"github.com/posbill/billsync-backend/pkg/logger"
)

// NamedPinger pairs a backing dependency with the name reported when its
// health check fails.
type NamedPinger struct {
	Name   string
	Pinger interface {
		Ping(context.Context) error
	}
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BillSync-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...NamedPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BillSync-Env", cfg.App.Env)
		for _, dep := range deps {
			if dep.Pinger == nil {
				continue
			}
			if err := dep.Pinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, dep.Name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
