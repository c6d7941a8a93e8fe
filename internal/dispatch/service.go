package dispatch

import (
	"context"
	"encoding/json"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restock-backend/pkg/db/models"
	"github.com/angelmondragon/restock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restock-backend/pkg/errors"
	"github.com/angelmondragon/restock-backend/pkg/logger"
	"github.com/angelmondragon/restock-backend/pkg/metrics"
)

const (
	channelInApp = "inapp"
	channelPush  = "push"

	publishTimeout = 10 * time.Second
)

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// Service fans a restock notification out to every delivery channel.
type Service interface {
	SendRestockNotification(ctx context.Context, sub models.BackInStockSubscription, language string) (int, error)
}

// ServiceParams groups dependencies for the dispatch service.
type ServiceParams struct {
	Notifications notificationWriter
	Publisher     publisher
	Logger        *logger.Logger
	Metrics       *metrics.DispatchMetrics
}

type service struct {
	notifications notificationWriter
	publisher     publisher
	logg          *logger.Logger
	metrics       *metrics.DispatchMetrics
}

// NewService wires the dispatch dependencies. The publisher is optional so
// tests and single-binary deployments can run without Pub/Sub.
func NewService(params ServiceParams) (Service, error) {
	if params.Notifications == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification writer required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		notifications: params.Notifications,
		publisher:     params.Publisher,
		logg:          params.Logger,
		metrics:       params.Metrics,
	}, nil
}

type restockPayload struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	ProductID      uuid.UUID `json:"product_id"`
	StoreID        uuid.UUID `json:"store_id"`
	Language       string    `json:"language"`
}

// SendRestockNotification writes the in-app notification row and, when a
// publisher is configured, pushes the fan-out message. It returns the number
// of channels that accepted the notification.
func (s *service) SendRestockNotification(ctx context.Context, sub models.BackInStockSubscription, language string) (int, error) {
	if sub.ID == uuid.Nil || sub.CustomerID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "subscription and customer ids are required")
	}
	language = enums.NormalizeLanguage(language)

	payload := restockPayload{
		SubscriptionID: sub.ID,
		ProductID:      sub.ProductID,
		StoreID:        sub.StoreID,
		Language:       language,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode notification payload")
	}

	sent := 0

	row := &models.Notification{
		CustomerID: sub.CustomerID,
		Type:       enums.NotificationBackInStock,
		Status:     enums.NotificationStatusPending,
		Language:   language,
		Payload:    encoded,
	}
	if err := s.notifications.Create(ctx, row); err != nil {
		s.metrics.IncFailure(channelInApp)
		return sent, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write in-app notification")
	}
	s.metrics.IncNotified(channelInApp)
	sent++

	if s.publisher != nil {
		publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		result := s.publisher.Publish(publishCtx, &gcppubsub.Message{
			Data: encoded,
			Attributes: map[string]string{
				"type":        string(enums.NotificationBackInStock),
				"customer_id": sub.CustomerID.String(),
				"language":    language,
			},
		})
		if result == nil {
			s.metrics.IncFailure(channelPush)
			return sent, pkgerrors.New(pkgerrors.CodeDependency, "notification publisher returned no result")
		}
		if _, err := result.Get(publishCtx); err != nil {
			s.metrics.IncFailure(channelPush)
			return sent, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish push notification")
		}
		s.metrics.IncNotified(channelPush)
		sent++
	}

	return sent, nil
}

// NotificationRepository persists in-app notification rows.
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository binds the repository to the provided database.
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// GCPPublisher adapts the Pub/Sub v2 publisher to the dispatch interface.
type GCPPublisher struct {
	inner *gcppubsub.Publisher
}

// NewGCPPublisher wraps a concrete Pub/Sub publisher; nil stays nil so the
// service treats the channel as disabled.
func NewGCPPublisher(inner *gcppubsub.Publisher) *GCPPublisher {
	if inner == nil {
		return nil
	}
	return &GCPPublisher{inner: inner}
}

func (p *GCPPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.inner == nil {
		return nil
	}
	return p.inner.Publish(ctx, msg)
}
