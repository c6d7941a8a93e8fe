package subscriptions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restock-backend/pkg/db/models"
	"github.com/angelmondragon/restock-backend/pkg/pagination"
	"github.com/angelmondragon/restock-backend/pkg/redis"
)

const cacheScope = "subscription"

// Repository exposes persistence helpers for back-in-stock subscriptions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, sub *models.BackInStockSubscription) error
	Update(ctx context.Context, sub *models.BackInStockSubscription) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.BackInStockSubscription, error)
	FindActive(ctx context.Context, customerID, productID, storeID uuid.UUID) (*models.BackInStockSubscription, error)
	ListByCustomer(ctx context.Context, params ListByCustomerParams) ([]CustomerSubscriptionRow, *pagination.Cursor, error)
	ListByProduct(ctx context.Context, params ListByProductParams) ([]SubscriberRow, *pagination.Cursor, error)
	ListAllByProduct(ctx context.Context, productID, storeID uuid.UUID) ([]models.BackInStockSubscription, error)
}

type repositoryImpl struct {
	db       *gorm.DB
	cache    redis.Cache
	cacheTTL time.Duration
}

// NewRepository returns a subscription repository. The cache is optional; when
// present GetByID reads through it.
func NewRepository(db *gorm.DB, cache redis.Cache, cacheTTL time.Duration) Repository {
	return &repositoryImpl{db: db, cache: cache, cacheTTL: cacheTTL}
}

// ListByCustomerParams selects a customer's subscriptions, optionally scoped
// to one store. A Nil store id matches every store.
type ListByCustomerParams struct {
	CustomerID uuid.UUID
	StoreID    uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
}

// ListByProductParams selects a product's subscribers, optionally scoped to
// one store.
type ListByProductParams struct {
	ProductID uuid.UUID
	StoreID   uuid.UUID
	Limit     int
	Cursor    *pagination.Cursor
}

// CustomerSubscriptionRow joins a subscription with its live product.
type CustomerSubscriptionRow struct {
	SubscriptionID uuid.UUID `gorm:"column:subscription_id"`
	ProductID      uuid.UUID `gorm:"column:product_id"`
	ProductName    string    `gorm:"column:product_name"`
	ProductSKU     string    `gorm:"column:product_sku"`
	StockQuantity  int       `gorm:"column:stock_quantity"`
	StoreID        uuid.UUID `gorm:"column:store_id"`
	CreatedAt      time.Time `gorm:"column:subscription_created_at"`
}

// SubscriberRow joins a subscription with its live customer.
type SubscriberRow struct {
	SubscriptionID uuid.UUID `gorm:"column:subscription_id"`
	CustomerID     uuid.UUID `gorm:"column:customer_id"`
	CustomerEmail  string    `gorm:"column:customer_email"`
	StoreID        uuid.UUID `gorm:"column:store_id"`
	CreatedAt      time.Time `gorm:"column:subscription_created_at"`
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx, cache: r.cache, cacheTTL: r.cacheTTL}
}

func (r *repositoryImpl) Insert(ctx context.Context, sub *models.BackInStockSubscription) error {
	if sub == nil {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repositoryImpl) Update(ctx context.Context, sub *models.BackInStockSubscription) error {
	if sub == nil {
		return gorm.ErrInvalidValue
	}
	if err := r.db.WithContext(ctx).Save(sub).Error; err != nil {
		return err
	}
	r.invalidate(ctx, sub.ID)
	return nil
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Delete(&models.BackInStockSubscription{}, "id = ?", id).Error; err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// DeleteByIDs removes the snapshot rows in one statement and reports how many
// actually existed.
func (r *repositoryImpl) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Delete(&models.BackInStockSubscription{}, "id IN ?", ids)
	if result.Error != nil {
		return 0, result.Error
	}
	for _, id := range ids {
		r.invalidate(ctx, id)
	}
	return result.RowsAffected, nil
}

// GetByID resolves a subscription, reading through the cache when configured.
// A Nil id short-circuits to no result.
func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.BackInStockSubscription, error) {
	if id == uuid.Nil {
		return nil, nil
	}

	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, r.cache.CacheKey(cacheScope, id.String())); err == nil {
			var sub models.BackInStockSubscription
			if unmarshalErr := json.Unmarshal([]byte(cached), &sub); unmarshalErr == nil {
				return &sub, nil
			}
		}
	}

	var sub models.BackInStockSubscription
	err := r.db.WithContext(ctx).First(&sub, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if r.cache != nil {
		if encoded, marshalErr := json.Marshal(sub); marshalErr == nil {
			_ = r.cache.Set(ctx, r.cache.CacheKey(cacheScope, id.String()), encoded, r.cacheTTL)
		}
	}
	return &sub, nil
}

// FindActive returns the most recent subscription matching the triple, or nil.
func (r *repositoryImpl) FindActive(ctx context.Context, customerID, productID, storeID uuid.UUID) (*models.BackInStockSubscription, error) {
	var sub models.BackInStockSubscription
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ? AND store_id = ?", customerID, productID, storeID).
		Order("created_at DESC").
		Order("id DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// ListByCustomer pages the customer's subscriptions joined with products that
// still exist in the catalog.
func (r *repositoryImpl) ListByCustomer(ctx context.Context, params ListByCustomerParams) ([]CustomerSubscriptionRow, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Table("back_in_stock_subscriptions s").
		Select("s.id AS subscription_id, s.store_id, s.created_at AS subscription_created_at, p.id AS product_id, p.name AS product_name, p.sku AS product_sku, p.stock_quantity").
		Joins("JOIN products p ON p.id = s.product_id").
		Where("s.customer_id = ? AND NOT p.deleted", params.CustomerID)

	if params.StoreID != uuid.Nil {
		query = query.Where("s.store_id = ?", params.StoreID)
	}
	if params.Cursor != nil {
		query = query.Where("(s.created_at, s.id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []CustomerSubscriptionRow
	if err := query.Order("s.created_at DESC, s.id DESC").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		rows = rows[:normalized]
		last := rows[normalized-1]
		return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.SubscriptionID}, nil
	}
	return rows, nil, nil
}

// ListByProduct pages the product's subscribers joined with customers that
// are still active and not deleted.
func (r *repositoryImpl) ListByProduct(ctx context.Context, params ListByProductParams) ([]SubscriberRow, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Table("back_in_stock_subscriptions s").
		Select("s.id AS subscription_id, s.store_id, s.created_at AS subscription_created_at, c.id AS customer_id, c.email AS customer_email").
		Joins("JOIN customers c ON c.id = s.customer_id").
		Where("s.product_id = ? AND c.active AND NOT c.deleted", params.ProductID)

	if params.StoreID != uuid.Nil {
		query = query.Where("s.store_id = ?", params.StoreID)
	}
	if params.Cursor != nil {
		query = query.Where("(s.created_at, s.id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []SubscriberRow
	if err := query.Order("s.created_at DESC, s.id DESC").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		rows = rows[:normalized]
		last := rows[normalized-1]
		return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.SubscriptionID}, nil
	}
	return rows, nil, nil
}

// ListAllByProduct snapshots every notifiable subscription for the product,
// newest first, without pagination. Only subscriptions whose customers are
// active and not deleted are included.
func (r *repositoryImpl) ListAllByProduct(ctx context.Context, productID, storeID uuid.UUID) ([]models.BackInStockSubscription, error) {
	query := r.db.WithContext(ctx).
		Model(&models.BackInStockSubscription{}).
		Joins("JOIN customers c ON c.id = back_in_stock_subscriptions.customer_id").
		Where("back_in_stock_subscriptions.product_id = ? AND c.active AND NOT c.deleted", productID)

	if storeID != uuid.Nil {
		query = query.Where("back_in_stock_subscriptions.store_id = ?", storeID)
	}

	var rows []models.BackInStockSubscription
	err := query.
		Order("back_in_stock_subscriptions.created_at DESC").
		Order("back_in_stock_subscriptions.id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) invalidate(ctx context.Context, id uuid.UUID) {
	if r.cache == nil || id == uuid.Nil {
		return
	}
	_ = r.cache.Del(ctx, r.cache.CacheKey(cacheScope, id.String()))
}
