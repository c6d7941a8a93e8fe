package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/restock-backend/api/responses"
	"github.com/angelmondragon/restock-backend/api/validators"
	"github.com/angelmondragon/restock-backend/internal/discounts"
	pkgerrors "github.com/angelmondragon/restock-backend/pkg/errors"
	"github.com/angelmondragon/restock-backend/pkg/logger"
)

type discountCheckPayload struct {
	RuleSystemName string `json:"rule_system_name" validate:"required"`
	CustomerID     string `json:"customer_id" validate:"omitempty,uuid"`
	StoreID        string `json:"store_id" validate:"omitempty,uuid"`
}

// DiscountCheck evaluates a discount requirement rule for a customer. An
// absent customer id yields an ineligible result, not an error.
func DiscountCheck(reg *discounts.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reg == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount registry unavailable"))
			return
		}

		requirementID, err := uuid.Parse(chi.URLParam(r, "requirementId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount requirement id"))
			return
		}

		var payload discountCheckPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		customerID := uuid.Nil
		if payload.CustomerID != "" {
			customerID, err = uuid.Parse(payload.CustomerID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
				return
			}
		}

		storeID, err := optionalStoreID(payload.StoreID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := reg.Check(ctx, payload.RuleSystemName, &discounts.Request{
			DiscountRequirementID: requirementID,
			CustomerID:            customerID,
			StoreID:               storeID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
