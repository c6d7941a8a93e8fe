package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscountRequirement binds a discount to an eligibility rule. Settings hold
// rule-specific configuration, e.g. the required role id for the customer
// role rule.
type DiscountRequirement struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DiscountID     uuid.UUID `gorm:"type:uuid;not null;index" json:"discount_id"`
	RuleSystemName string    `gorm:"not null" json:"rule_system_name"`
	Settings       string    `gorm:"not null;default:''" json:"settings"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DiscountRequirement) TableName() string {
	return "discount_requirements"
}
