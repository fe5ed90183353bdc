package controllers

import (
	"net/http"

	"github.com/codana-ai/billing-sync/api/responses"
	"github.com/codana-ai/billing-sync/pkg/config"
	"github.com/codana-ai/billing-sync/pkg/db"
	pkgerrors "github.com/codana-ai/billing-sync/pkg/errors"
	"github.com/codana-ai/billing-sync/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BillSync-Env", cfg.App.Env)
		responses.WriteJSON(w, http.StatusOK, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BillSync-Env", cfg.App.Env)

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
				return
			}
		}

		responses.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
