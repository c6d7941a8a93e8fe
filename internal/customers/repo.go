package customers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restock-backend/pkg/db/models"
	"github.com/angelmondragon/restock-backend/pkg/enums"
)

// Repository exposes persistence helpers for customer accounts and roles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	HasRole(ctx context.Context, customerID uuid.UUID, role enums.CustomerRole) (bool, error)
	HasRoleID(ctx context.Context, customerID, roleID uuid.UUID) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a customer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// HasRole reports whether the customer holds an active role with the given system name.
func (r *repositoryImpl) HasRole(ctx context.Context, customerID uuid.UUID, role enums.CustomerRole) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("customer_role_mappings m").
		Joins("JOIN customer_roles cr ON cr.id = m.role_id").
		Where("m.customer_id = ? AND cr.system_name = ? AND cr.active", customerID, role).
		Count(&count).Error
	return count > 0, err
}

// HasRoleID reports whether the customer is mapped to the given active role id.
func (r *repositoryImpl) HasRoleID(ctx context.Context, customerID, roleID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("customer_role_mappings m").
		Joins("JOIN customer_roles cr ON cr.id = m.role_id").
		Where("m.customer_id = ? AND m.role_id = ? AND cr.active", customerID, roleID).
		Count(&count).Error
	return count > 0, err
}
