package payloads

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionCreatedEvent signals a new back-in-stock subscription.
type SubscriptionCreatedEvent struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	ProductID      uuid.UUID `json:"product_id"`
	StoreID        uuid.UUID `json:"store_id"`
}

// SubscriptionUpdatedEvent is emitted when a subscription row changes.
type SubscriptionUpdatedEvent struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	ProductID      uuid.UUID `json:"product_id"`
	StoreID        uuid.UUID `json:"store_id"`
}

// SubscriptionDeletedEvent is emitted when a subscription is removed, whether
// by the customer or by the notify-and-purge flow.
type SubscriptionDeletedEvent struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	ProductID      uuid.UUID `json:"product_id"`
	StoreID        uuid.UUID `json:"store_id"`
}

// StockReplenishedEvent tells the worker a product is available again.
type StockReplenishedEvent struct {
	ProductID     uuid.UUID `json:"product_id"`
	StoreID       uuid.UUID `json:"store_id"`
	StockQuantity int       `json:"stock_quantity"`
	ReplenishedAt time.Time `json:"replenished_at"`
}

// RestockNotificationsSentEvent reports the outcome of a dispatch run.
type RestockNotificationsSentEvent struct {
	ProductID       uuid.UUID `json:"product_id"`
	NotifiedCount   int       `json:"notified_count"`
	SubscriberCount int       `json:"subscriber_count"`
	DispatchedAt    time.Time `json:"dispatched_at"`
}
