package controllers

import (
	"context"
	"net/http"

	"github.com/codana-ai/billing-sync/api/responses"
	"github.com/codana-ai/billing-sync/api/validators"
	"github.com/codana-ai/billing-sync/internal/subscriptions"
	pkgerrors "github.com/codana-ai/billing-sync/pkg/errors"
	"github.com/codana-ai/billing-sync/pkg/logger"
)

type RegisterService interface {
	Register(ctx context.Context, userID string, email *string) (*subscriptions.RegisterResult, error)
}

type registerRequest struct {
	UserID string  `json:"user_id"`
	Email  *string `json:"email,omitempty"`
}

// RegisterUser records an application identity so webhook linking has a user
// to attach customers to.
func RegisterUser(svc RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		var body registerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if body.UserID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "User ID is required"))
			return
		}

		result, err := svc.Register(ctx, body.UserID, body.Email)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, result)
	}
}
