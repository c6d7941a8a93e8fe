package attributes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restock-backend/pkg/db/models"
	"github.com/angelmondragon/restock-backend/pkg/enums"
)

// KeyLanguage stores the customer's preferred notification language.
const KeyLanguage = "language"

// Repository exposes persistence helpers for customer attributes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, customerID, storeID uuid.UUID, key string) (string, bool, error)
	Set(ctx context.Context, attr *models.CustomerAttribute) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an attribute repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Get resolves an attribute value, preferring the store-scoped row and
// falling back to the store-agnostic one (store_id = uuid.Nil).
func (r *repositoryImpl) Get(ctx context.Context, customerID, storeID uuid.UUID, key string) (string, bool, error) {
	value, found, err := r.lookup(ctx, customerID, storeID, key)
	if err != nil || found {
		return value, found, err
	}
	if storeID == uuid.Nil {
		return "", false, nil
	}
	return r.lookup(ctx, customerID, uuid.Nil, key)
}

func (r *repositoryImpl) lookup(ctx context.Context, customerID, storeID uuid.UUID, key string) (string, bool, error) {
	var attr models.CustomerAttribute
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND store_id = ? AND key = ?", customerID, storeID, key).
		First(&attr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return attr.Value, true, nil
}

func (r *repositoryImpl) Set(ctx context.Context, attr *models.CustomerAttribute) error {
	if attr == nil {
		return errors.New("attribute required")
	}
	return r.db.WithContext(ctx).
		Where("customer_id = ? AND store_id = ? AND key = ?", attr.CustomerID, attr.StoreID, attr.Key).
		Assign(map[string]any{"value": attr.Value}).
		FirstOrCreate(attr).Error
}

// CustomerLanguage returns the customer's preferred language for the store,
// defaulting when no preference is stored.
func CustomerLanguage(ctx context.Context, repo Repository, customerID, storeID uuid.UUID) (string, error) {
	value, found, err := repo.Get(ctx, customerID, storeID, KeyLanguage)
	if err != nil {
		return "", err
	}
	if !found {
		return enums.DefaultLanguage, nil
	}
	return enums.NormalizeLanguage(value), nil
}
