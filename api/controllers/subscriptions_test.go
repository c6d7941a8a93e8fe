package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/restock-backend/api/middleware"
	"github.com/angelmondragon/restock-backend/internal/subscriptions"
	"github.com/angelmondragon/restock-backend/pkg/db/models"
	"github.com/angelmondragon/restock-backend/pkg/logger"
	"github.com/angelmondragon/restock-backend/pkg/outbox"
)

type testSubscriptionsService struct {
	createFn     func(ctx context.Context, params subscriptions.CreateParams) (*models.BackInStockSubscription, error)
	deleteFn     func(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) error
	getByIDFn    func(ctx context.Context, id uuid.UUID) (*models.BackInStockSubscription, error)
	findActiveFn func(ctx context.Context, customerID, productID, storeID uuid.UUID) (*models.BackInStockSubscription, error)
	listFn       func(ctx context.Context, params subscriptions.ListParams) (*subscriptions.CustomerSubscriptionsPage, error)
	notifyFn     func(ctx context.Context, productID, storeID uuid.UUID) (int, error)
}

func (s *testSubscriptionsService) Create(ctx context.Context, params subscriptions.CreateParams) (*models.BackInStockSubscription, error) {
	if s.createFn != nil {
		return s.createFn(ctx, params)
	}
	return &models.BackInStockSubscription{ID: uuid.New()}, nil
}

func (s *testSubscriptionsService) Update(ctx context.Context, sub *models.BackInStockSubscription, actor *outbox.ActorRef) error {
	return nil
}

func (s *testSubscriptionsService) Delete(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id, actor)
	}
	return nil
}

func (s *testSubscriptionsService) GetByID(ctx context.Context, id uuid.UUID) (*models.BackInStockSubscription, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (s *testSubscriptionsService) FindActive(ctx context.Context, customerID, productID, storeID uuid.UUID) (*models.BackInStockSubscription, error) {
	if s.findActiveFn != nil {
		return s.findActiveFn(ctx, customerID, productID, storeID)
	}
	return nil, nil
}

func (s *testSubscriptionsService) ListByCustomer(ctx context.Context, params subscriptions.ListParams) (*subscriptions.CustomerSubscriptionsPage, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &subscriptions.CustomerSubscriptionsPage{}, nil
}

func (s *testSubscriptionsService) ListByProduct(ctx context.Context, params subscriptions.ListParams) (*subscriptions.SubscribersPage, error) {
	return &subscriptions.SubscribersPage{}, nil
}

func (s *testSubscriptionsService) NotifySubscribersOfRestock(ctx context.Context, productID, storeID uuid.UUID) (int, error) {
	if s.notifyFn != nil {
		return s.notifyFn(ctx, productID, storeID)
	}
	return 0, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestSubscriptionCreateSuccess(t *testing.T) {
	customerID := uuid.New()
	productID := uuid.New()
	svc := &testSubscriptionsService{
		createFn: func(ctx context.Context, params subscriptions.CreateParams) (*models.BackInStockSubscription, error) {
			if params.CustomerID != customerID {
				t.Fatalf("unexpected customer %s", params.CustomerID)
			}
			if params.ProductID != productID {
				t.Fatalf("unexpected product %s", params.ProductID)
			}
			if params.StoreID != uuid.Nil {
				t.Fatalf("expected nil store id, got %s", params.StoreID)
			}
			return &models.BackInStockSubscription{ID: uuid.New(), CustomerID: customerID, ProductID: productID}, nil
		},
	}

	body := strings.NewReader(`{"product_id":"` + productID.String() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", body)
	req = req.WithContext(middleware.WithCustomerID(req.Context(), customerID.String()))

	resp := httptest.NewRecorder()
	SubscriptionCreate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data models.BackInStockSubscription `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.ID == uuid.Nil {
		t.Fatal("response missing subscription id")
	}
}

func TestSubscriptionCreateMissingCustomer(t *testing.T) {
	body := strings.NewReader(`{"product_id":"` + uuid.NewString() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", body)
	resp := httptest.NewRecorder()
	SubscriptionCreate(&testSubscriptionsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestSubscriptionCreateInvalidBody(t *testing.T) {
	body := strings.NewReader(`{"product_id":"not-a-uuid"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", body)
	req = req.WithContext(middleware.WithCustomerID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	SubscriptionCreate(&testSubscriptionsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSubscriptionDeleteForbiddenForOtherCustomer(t *testing.T) {
	owner := uuid.New()
	caller := uuid.New()
	subID := uuid.New()
	svc := &testSubscriptionsService{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*models.BackInStockSubscription, error) {
			return &models.BackInStockSubscription{ID: subID, CustomerID: owner}, nil
		},
		deleteFn: func(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) error {
			t.Fatal("delete should not be called")
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/subscriptions/"+subID.String(), nil)
	req = req.WithContext(middleware.WithCustomerID(req.Context(), caller.String()))
	req = addRouteParam(req, "subscriptionId", subID.String())

	resp := httptest.NewRecorder()
	SubscriptionDelete(svc, testLogger())(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestSubscriptionDeleteNotFound(t *testing.T) {
	subID := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/subscriptions/"+subID.String(), nil)
	req = req.WithContext(middleware.WithCustomerID(req.Context(), uuid.NewString()))
	req = addRouteParam(req, "subscriptionId", subID.String())

	resp := httptest.NewRecorder()
	SubscriptionDelete(&testSubscriptionsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestSubscriptionDeleteOwner(t *testing.T) {
	owner := uuid.New()
	subID := uuid.New()
	deleted := false
	svc := &testSubscriptionsService{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*models.BackInStockSubscription, error) {
			return &models.BackInStockSubscription{ID: subID, CustomerID: owner}, nil
		},
		deleteFn: func(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) error {
			deleted = true
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/subscriptions/"+subID.String(), nil)
	req = req.WithContext(middleware.WithCustomerID(req.Context(), owner.String()))
	req = addRouteParam(req, "subscriptionId", subID.String())

	resp := httptest.NewRecorder()
	SubscriptionDelete(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !deleted {
		t.Fatal("expected delete to be called")
	}
}

func TestSubscriptionListRejectsBadLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions?limit=zero", nil)
	req = req.WithContext(middleware.WithCustomerID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	SubscriptionList(&testSubscriptionsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestProductNotifyReturnsCount(t *testing.T) {
	productID := uuid.New()
	svc := &testSubscriptionsService{
		notifyFn: func(ctx context.Context, pid, sid uuid.UUID) (int, error) {
			if pid != productID {
				t.Fatalf("unexpected product %s", pid)
			}
			return 7, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/products/"+productID.String()+"/notify", nil)
	req = addRouteParam(req, "productId", productID.String())

	resp := httptest.NewRecorder()
	ProductNotify(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data map[string]int `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["notified_count"] != 7 {
		t.Fatalf("unexpected count %d", envelope.Data["notified_count"])
	}
}
