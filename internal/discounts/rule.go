package discounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restock-backend/pkg/db/models"
)

// Request carries the inputs for one eligibility check.
type Request struct {
	DiscountRequirementID uuid.UUID
	CustomerID            uuid.UUID
	StoreID               uuid.UUID
}

// Result reports whether the customer satisfies the requirement. Reason is a
// short machine-readable hint for ineligible outcomes.
type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Rule evaluates one discount requirement kind. Implementations must treat
// missing customers or unknown requirements as ineligible rather than errors.
type Rule interface {
	SystemName() string
	Check(ctx context.Context, req *Request) (Result, error)
}

// RequirementRepository loads discount requirement rows.
type RequirementRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.DiscountRequirement, error)
}

type requirementRepositoryImpl struct {
	db *gorm.DB
}

// NewRequirementRepository binds the repository to the provided database.
func NewRequirementRepository(db *gorm.DB) RequirementRepository {
	return &requirementRepositoryImpl{db: db}
}

func (r *requirementRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.DiscountRequirement, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var requirement models.DiscountRequirement
	err := r.db.WithContext(ctx).First(&requirement, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &requirement, nil
}
