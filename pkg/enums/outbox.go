package enums

// OutboxStatus tracks the publish lifecycle of an outbox event row.
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusPublishing OutboxStatus = "publishing"
	OutboxStatusPublished  OutboxStatus = "published"
	OutboxStatusFailed     OutboxStatus = "failed"
)

func (s OutboxStatus) IsValid() bool {
	switch s {
	case OutboxStatusPending, OutboxStatusPublishing, OutboxStatusPublished, OutboxStatusFailed:
		return true
	}
	return false
}

// OutboxEventType enumerates every domain event the service emits.
type OutboxEventType string

const (
	EventSubscriptionCreated      OutboxEventType = "subscription_created"
	EventSubscriptionUpdated      OutboxEventType = "subscription_updated"
	EventSubscriptionDeleted      OutboxEventType = "subscription_deleted"
	EventStockReplenished         OutboxEventType = "stock_replenished"
	EventRestockNotificationsSent OutboxEventType = "restock_notifications_sent"
)

func (t OutboxEventType) IsValid() bool {
	switch t {
	case EventSubscriptionCreated,
		EventSubscriptionUpdated,
		EventSubscriptionDeleted,
		EventStockReplenished,
		EventRestockNotificationsSent:
		return true
	}
	return false
}

// AggregateType names the aggregate an outbox event belongs to.
type AggregateType string

const (
	AggregateSubscription AggregateType = "subscription"
	AggregateProduct      AggregateType = "product"
)
