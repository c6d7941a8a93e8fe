package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomerAttribute is a generic per-customer key/value setting. StoreID of
// uuid.Nil marks a store-agnostic value that applies everywhere.
type CustomerAttribute struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_customer_attr_key" json:"customer_id"`
	StoreID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_customer_attr_key" json:"store_id"`
	Key        string    `gorm:"not null;uniqueIndex:idx_customer_attr_key" json:"key"`
	Value      string    `gorm:"not null" json:"value"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"-"`
}

func (CustomerAttribute) TableName() string {
	return "customer_attributes"
}
