package products

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restock-backend/pkg/db/models"
	"github.com/angelmondragon/restock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restock-backend/pkg/errors"
	"github.com/angelmondragon/restock-backend/pkg/logger"
	"github.com/angelmondragon/restock-backend/pkg/outbox"
	"github.com/angelmondragon/restock-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes catalog operations relevant to restock handling.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Replenish(ctx context.Context, params ReplenishParams) error
}

// ReplenishParams carries a stock replenishment report.
type ReplenishParams struct {
	ProductID     uuid.UUID
	StoreID       uuid.UUID
	StockQuantity int
	Actor         *outbox.ActorRef
}

// ServiceParams groups dependencies for the product service.
type ServiceParams struct {
	Repo   Repository
	Outbox eventEmitter
	DB     txRunner
	Logger *logger.Logger
}

type service struct {
	repo   Repository
	outbox eventEmitter
	db     txRunner
	logg   *logger.Logger
}

// NewService wires the product service dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product repository required")
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
		repo:   params.Repo,
		outbox: params.Outbox,
		db:     params.DB,
		logg:   params.Logger,
	}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// Replenish records new stock for a product and queues the stock_replenished
// event the restock worker reacts to.
func (s *service) Replenish(ctx context.Context, params ReplenishParams) error {
	if params.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if params.StockQuantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must be positive")
	}

	product, err := s.repo.FindByID(ctx, params.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.Deleted {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is no longer available")
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).SetStockQuantity(ctx, params.ProductID, params.StockQuantity); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockReplenished,
			AggregateType: enums.AggregateProduct,
			AggregateID:   params.ProductID,
			Actor:         params.Actor,
			Version:       1,
			Data: payloads.StockReplenishedEvent{
				ProductID:     params.ProductID,
				StoreID:       params.StoreID,
				StockQuantity: params.StockQuantity,
				ReplenishedAt: time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record replenishment")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id":     params.ProductID.String(),
		"stock_quantity": params.StockQuantity,
	})
	s.logg.Info(logCtx, "stock replenishment recorded")
	return nil
}
