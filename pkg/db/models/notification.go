package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/restock-backend/pkg/enums"
)

// Notification is the in-app message written for a customer when a product
// they watch comes back in stock.
type Notification struct {
	ID         uuid.UUID                `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CustomerID uuid.UUID                `gorm:"type:uuid;not null;index" json:"customer_id"`
	Type       enums.NotificationType   `gorm:"not null" json:"type"`
	Status     enums.NotificationStatus `gorm:"not null;default:'pending'" json:"status"`
	Language   string                   `gorm:"not null;default:'en'" json:"language"`
	Payload    json.RawMessage          `gorm:"type:jsonb" json:"payload"`
	CreatedAt  time.Time                `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time                `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
