package models

import (
	"time"

	"github.com/google/uuid"
)

// BackInStockSubscription records a customer's request to be told when a
// product is available again in a given store. The composite unique index
// keeps one live subscription per (customer, product, store) triple.
type BackInStockSubscription struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_subscription_triple" json:"customer_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_subscription_triple" json:"product_id"`
	StoreID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subscription_triple" json:"store_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Product  *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (BackInStockSubscription) TableName() string {
	return "back_in_stock_subscriptions"
}
