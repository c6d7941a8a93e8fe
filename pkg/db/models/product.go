package models

import (
	"time"

	"github.com/google/uuid"
)

// Product mirrors the catalog record relevant to stock subscriptions.
type Product struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	SKU           string    `gorm:"uniqueIndex;not null" json:"sku"`
	StockQuantity int       `gorm:"not null;default:0" json:"stock_quantity"`
	Published     bool      `gorm:"not null;default:true" json:"published"`
	Deleted       bool      `gorm:"not null;default:false" json:"deleted"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}
