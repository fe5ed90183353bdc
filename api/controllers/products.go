package controllers

import (
	"context"
	"net/http"

	"github.com/codana-ai/billing-sync/api/responses"
	pkgerrors "github.com/codana-ai/billing-sync/pkg/errors"
	"github.com/codana-ai/billing-sync/pkg/logger"
	"github.com/codana-ai/billing-sync/pkg/paddle"
)

type ProductLister interface {
	ListProducts(ctx context.Context) ([]paddle.Product, error)
}

type productResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ListProducts returns the provider's catalog products.
func ListProducts(svc ProductLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		products, err := svc.ListProducts(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list := make([]productResponse, 0, len(products))
		for _, product := range products {
			list = append(list, productResponse{ID: product.ID, Name: product.Name, Status: product.Status})
		}
		responses.WriteJSON(w, http.StatusOK, map[string]any{"products": list})
	}
}
