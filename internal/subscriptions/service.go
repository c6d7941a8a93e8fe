package subscriptions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restock-backend/internal/attributes"
	"github.com/angelmondragon/restock-backend/internal/customers"
	"github.com/angelmondragon/restock-backend/internal/products"
	dbpkg "github.com/angelmondragon/restock-backend/pkg/db"
	"github.com/angelmondragon/restock-backend/pkg/db/models"
	"github.com/angelmondragon/restock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restock-backend/pkg/errors"
	"github.com/angelmondragon/restock-backend/pkg/logger"
	"github.com/angelmondragon/restock-backend/pkg/metrics"
	"github.com/angelmondragon/restock-backend/pkg/outbox"
	"github.com/angelmondragon/restock-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/restock-backend/pkg/pagination"
)

// Dispatcher delivers a restock notification for one subscriber and reports
// how many channels received it.
type Dispatcher interface {
	SendRestockNotification(ctx context.Context, sub models.BackInStockSubscription, language string) (int, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines subscription lifecycle and dispatch operations.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.BackInStockSubscription, error)
	Update(ctx context.Context, sub *models.BackInStockSubscription, actor *outbox.ActorRef) error
	Delete(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BackInStockSubscription, error)
	FindActive(ctx context.Context, customerID, productID, storeID uuid.UUID) (*models.BackInStockSubscription, error)
	ListByCustomer(ctx context.Context, params ListParams) (*CustomerSubscriptionsPage, error)
	ListByProduct(ctx context.Context, params ListParams) (*SubscribersPage, error)
	NotifySubscribersOfRestock(ctx context.Context, productID, storeID uuid.UUID) (int, error)
}

// CreateParams carries the inputs for a new subscription.
type CreateParams struct {
	CustomerID uuid.UUID
	ProductID  uuid.UUID
	StoreID    uuid.UUID
	Actor      *outbox.ActorRef
}

// ListParams configures pagination for subscription listings. SubjectID is
// the customer id when listing by customer and the product id when listing by
// product.
type ListParams struct {
	SubjectID uuid.UUID
	StoreID   uuid.UUID
	Limit     int
	Cursor    string
}

// CustomerSubscriptionsPage wraps a customer's subscriptions and the cursor
// for the next page.
type CustomerSubscriptionsPage struct {
	Items  []CustomerSubscriptionRow `json:"items"`
	Cursor string                    `json:"cursor"`
}

// SubscribersPage wraps a product's subscribers and the cursor for the next page.
type SubscribersPage struct {
	Items  []SubscriberRow `json:"items"`
	Cursor string          `json:"cursor"`
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Repo       Repository
	Customers  customers.Repository
	Products   products.Repository
	Attributes attributes.Repository
	Dispatcher Dispatcher
	Outbox     eventEmitter
	DB         txRunner
	Logger     *logger.Logger
	Metrics    *metrics.DispatchMetrics
}

type service struct {
	repo       Repository
	customers  customers.Repository
	products   products.Repository
	attributes attributes.Repository
	dispatcher Dispatcher
	outbox     eventEmitter
	db         txRunner
	logg       *logger.Logger
	metrics    *metrics.DispatchMetrics
}

// NewService wires the subscription service dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "subscription repository required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "customer repository required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product repository required")
	}
	if params.Attributes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "attribute repository required")
	}
	if params.Dispatcher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "dispatcher required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox service required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database client required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:       params.Repo,
		customers:  params.Customers,
		products:   params.Products,
		attributes: params.Attributes,
		dispatcher: params.Dispatcher,
		outbox:     params.Outbox,
		db:         params.DB,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}, nil
}

// Create validates the customer and product, rejects duplicate triples, and
// persists the subscription together with its created event.
func (s *service) Create(ctx context.Context, params CreateParams) (*models.BackInStockSubscription, error) {
	if params.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if params.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	customer, err := s.customers.FindByID(ctx, params.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if !customer.Active || customer.Deleted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer cannot subscribe")
	}

	product, err := s.products.FindByID(ctx, params.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.Deleted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is no longer available")
	}

	existing, err := s.repo.FindActive(ctx, params.CustomerID, params.ProductID, params.StoreID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing subscription")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "subscription already exists")
	}

	sub := &models.BackInStockSubscription{
		CustomerID: params.CustomerID,
		ProductID:  params.ProductID,
		StoreID:    params.StoreID,
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Insert(ctx, sub); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubscriptionCreated,
			AggregateType: enums.AggregateSubscription,
			AggregateID:   sub.ID,
			Actor:         params.Actor,
			Version:       1,
			Data: payloads.SubscriptionCreatedEvent{
				SubscriptionID: sub.ID,
				CustomerID:     sub.CustomerID,
				ProductID:      sub.ProductID,
				StoreID:        sub.StoreID,
			},
		})
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "subscription already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
	}
	return sub, nil
}

// Update persists subscription changes with the matching updated event.
func (s *service) Update(ctx context.Context, sub *models.BackInStockSubscription, actor *outbox.ActorRef) error {
	if sub == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription is required")
	}
	if sub.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, sub); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubscriptionUpdated,
			AggregateType: enums.AggregateSubscription,
			AggregateID:   sub.ID,
			Actor:         actor,
			Version:       1,
			Data: payloads.SubscriptionUpdatedEvent{
				SubscriptionID: sub.ID,
				CustomerID:     sub.CustomerID,
				ProductID:      sub.ProductID,
				StoreID:        sub.StoreID,
			},
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
	}
	return nil
}

// Delete removes the subscription and emits the deleted event in one
// transaction.
func (s *service) Delete(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	}

	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubscriptionDeleted,
			AggregateType: enums.AggregateSubscription,
			AggregateID:   sub.ID,
			Actor:         actor,
			Version:       1,
			Data: payloads.SubscriptionDeletedEvent{
				SubscriptionID: sub.ID,
				CustomerID:     sub.CustomerID,
				ProductID:      sub.ProductID,
				StoreID:        sub.StoreID,
			},
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete subscription")
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.BackInStockSubscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	return sub, nil
}

func (s *service) FindActive(ctx context.Context, customerID, productID, storeID uuid.UUID) (*models.BackInStockSubscription, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	sub, err := s.repo.FindActive(ctx, customerID, productID, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find subscription")
	}
	return sub, nil
}

func (s *service) ListByCustomer(ctx context.Context, params ListParams) (*CustomerSubscriptionsPage, error) {
	if params.SubjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	query := ListByCustomerParams{
		CustomerID: params.SubjectID,
		StoreID:    params.StoreID,
		Limit:      params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListByCustomer(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &CustomerSubscriptionsPage{Items: rows, Cursor: cursor}, nil
}

func (s *service) ListByProduct(ctx context.Context, params ListParams) (*SubscribersPage, error) {
	if params.SubjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	query := ListByProductParams{
		ProductID: params.SubjectID,
		StoreID:   params.StoreID,
		Limit:     params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListByProduct(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscribers")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &SubscribersPage{Items: rows, Cursor: cursor}, nil
}

// NotifySubscribersOfRestock snapshots the product's subscribers, dispatches a
// notification per subscriber in their preferred language, and purges the
// snapshot only after every dispatch succeeded. Any dispatch failure aborts
// the run without deleting rows so the next restock retries everyone.
func (s *service) NotifySubscribersOfRestock(ctx context.Context, productID, storeID uuid.UUID) (int, error) {
	if productID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	snapshot, err := s.repo.ListAllByProduct(ctx, productID, storeID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "snapshot subscribers")
	}
	if len(snapshot) == 0 {
		return 0, nil
	}

	started := time.Now()
	total := 0
	for _, sub := range snapshot {
		language, err := attributes.CustomerLanguage(ctx, s.attributes, sub.CustomerID, sub.StoreID)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve customer language")
		}
		sent, err := s.dispatcher.SendRestockNotification(ctx, sub, language)
		if err != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"subscription_id": sub.ID.String(),
				"product_id":      productID.String(),
			})
			s.logg.Error(logCtx, "restock dispatch failed, keeping subscriptions", err)
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dispatch restock notification")
		}
		total += sent
	}

	ids := make([]uuid.UUID, 0, len(snapshot))
	for _, sub := range snapshot {
		ids = append(ids, sub.ID)
	}

	var purged int64
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		count, err := s.repo.WithTx(tx).DeleteByIDs(ctx, ids)
		if err != nil {
			return err
		}
		purged = count
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRestockNotificationsSent,
			AggregateType: enums.AggregateProduct,
			AggregateID:   productID,
			Version:       1,
			Data: payloads.RestockNotificationsSentEvent{
				ProductID:       productID,
				NotifiedCount:   total,
				SubscriberCount: len(snapshot),
				DispatchedAt:    time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge notified subscriptions")
	}

	s.metrics.AddPurged(int(purged))
	s.metrics.ObserveDuration("all", time.Since(started))

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id":       productID.String(),
		"subscriber_count": len(snapshot),
		"notified_count":   total,
		"purged_count":     purged,
	})
	s.logg.Info(logCtx, "restock notifications dispatched")
	return total, nil
}
