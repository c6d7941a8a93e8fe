package enums

// NotificationType classifies in-app notifications produced by dispatch.
type NotificationType string

const (
	NotificationBackInStock NotificationType = "back_in_stock"
)

func (t NotificationType) IsValid() bool {
	return t == NotificationBackInStock
}

// NotificationStatus tracks the delivery lifecycle of an in-app notification.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusRead    NotificationStatus = "read"
)

func (s NotificationStatus) IsValid() bool {
	switch s {
	case NotificationStatusPending, NotificationStatusSent, NotificationStatusRead:
		return true
	}
	return false
}
