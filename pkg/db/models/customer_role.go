package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/restock-backend/pkg/enums"
)

type CustomerRole struct {
	ID         uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name       string             `gorm:"not null" json:"name"`
	SystemName enums.CustomerRole `gorm:"uniqueIndex;not null" json:"system_name"`
	Active     bool               `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (CustomerRole) TableName() string {
	return "customer_roles"
}

type CustomerRoleMapping struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_customer_role_pair" json:"customer_id"`
	RoleID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_customer_role_pair" json:"role_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	Customer *Customer     `gorm:"foreignKey:CustomerID" json:"-"`
	Role     *CustomerRole `gorm:"foreignKey:RoleID" json:"-"`
}

func (CustomerRoleMapping) TableName() string {
	return "customer_role_mappings"
}
