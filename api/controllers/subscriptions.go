package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/restock-backend/api/middleware"
	"github.com/angelmondragon/restock-backend/api/responses"
	"github.com/angelmondragon/restock-backend/api/validators"
	"github.com/angelmondragon/restock-backend/internal/subscriptions"
	"github.com/angelmondragon/restock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restock-backend/pkg/errors"
	"github.com/angelmondragon/restock-backend/pkg/logger"
	"github.com/angelmondragon/restock-backend/pkg/outbox"
)

type createSubscriptionPayload struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	StoreID   string `json:"store_id" validate:"omitempty,uuid"`
}

// SubscriptionCreate registers the authenticated customer for a restock alert
// on one product.
func SubscriptionCreate(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		customerID, actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createSubscriptionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		storeID := uuid.Nil
		if payload.StoreID != "" {
			storeID, err = uuid.Parse(payload.StoreID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store id"))
				return
			}
		}

		sub, err := svc.Create(ctx, subscriptions.CreateParams{
			CustomerID: customerID,
			ProductID:  productID,
			StoreID:    storeID,
			Actor:      actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sub)
	}
}

// SubscriptionDelete removes one of the customer's subscriptions. Admins may
// delete any subscription.
func SubscriptionDelete(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		customerID, actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		subscriptionID, err := uuid.Parse(chi.URLParam(r, "subscriptionId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subscription id"))
			return
		}

		sub, err := svc.GetByID(ctx, subscriptionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if sub == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found"))
			return
		}
		if sub.CustomerID != customerID && middleware.RoleFromContext(ctx) != string(enums.RoleAdmin) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "subscription belongs to another customer"))
			return
		}

		if err := svc.Delete(ctx, subscriptionID, actor); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// SubscriptionFind returns the customer's active subscription for a product,
// or an empty object when none exists.
func SubscriptionFind(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		customerID, _, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		productID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("product_id")))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		storeID, err := optionalStoreID(r.URL.Query().Get("store_id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sub, err := svc.FindActive(ctx, customerID, productID, storeID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"subscription": sub, "subscribed": sub != nil})
	}
}

// SubscriptionList pages through the authenticated customer's subscriptions.
func SubscriptionList(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		customerID, _, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		limit, err := parseLimit(r.URL.Query().Get("limit"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		storeID, err := optionalStoreID(r.URL.Query().Get("store_id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListByCustomer(ctx, subscriptions.ListParams{
			SubjectID: customerID,
			StoreID:   storeID,
			Limit:     limit,
			Cursor:    strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ProductSubscribers pages through subscribers of one product. Admin only.
func ProductSubscribers(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		limit, err := parseLimit(r.URL.Query().Get("limit"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		storeID, err := optionalStoreID(r.URL.Query().Get("store_id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListByProduct(ctx, subscriptions.ListParams{
			SubjectID: productID,
			StoreID:   storeID,
			Limit:     limit,
			Cursor:    strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ProductNotify dispatches restock notifications for a product and purges the
// notified subscriptions. Admin only. The default run covers every store;
// passing store_id narrows the run to that store's subscriptions and leaves
// store-agnostic ones untouched.
func ProductNotify(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}
		storeID, err := optionalStoreID(r.URL.Query().Get("store_id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		notified, err := svc.NotifySubscribersOfRestock(ctx, productID, storeID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"notified_count": notified})
	}
}

func actorFromContext(r *http.Request) (uuid.UUID, *outbox.ActorRef, error) {
	raw := middleware.CustomerIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing")
	}
	customerID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid customer id")
	}

	actor := &outbox.ActorRef{
		CustomerID: customerID,
		Role:       middleware.RoleFromContext(r.Context()),
	}
	if raw := middleware.StoreIDFromContext(r.Context()); raw != "" {
		if storeID, err := uuid.Parse(raw); err == nil {
			actor.StoreID = &storeID
		}
	}
	return customerID, actor, nil
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer")
	}
	return value, nil
}

func optionalStoreID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	storeID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store id")
	}
	return storeID, nil
}
