package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/restock-backend/api/responses"
	"github.com/angelmondragon/restock-backend/api/validators"
	"github.com/angelmondragon/restock-backend/internal/products"
	pkgerrors "github.com/angelmondragon/restock-backend/pkg/errors"
	"github.com/angelmondragon/restock-backend/pkg/logger"
)

type replenishPayload struct {
	StockQuantity int    `json:"stock_quantity" validate:"required,min=1"`
	StoreID       string `json:"store_id" validate:"omitempty,uuid"`
}

// ProductReplenish records incoming stock and queues the replenishment event
// the restock worker consumes. Admin only.
func ProductReplenish(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		_, actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload replenishPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		storeID, err := optionalStoreID(payload.StoreID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Replenish(ctx, products.ReplenishParams{
			ProductID:     productID,
			StoreID:       storeID,
			StockQuantity: payload.StockQuantity,
			Actor:         actor,
		}); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "queued"})
	}
}
