package restock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/restock-backend/pkg/enums"
	"github.com/angelmondragon/restock-backend/pkg/logger"
	"github.com/angelmondragon/restock-backend/pkg/outbox"
	"github.com/angelmondragon/restock-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/restock-backend/pkg/outbox/registry"
)

const consumerName = "restock"

type notifier interface {
	NotifySubscribersOfRestock(ctx context.Context, productID, storeID uuid.UUID) (int, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer reacts to stock replenishment events by running the
// notify-and-purge flow, guarded by Redis idempotency.
type Consumer struct {
	subscriptions notifier
	manager       idempotencyChecker
	decoders      *registry.DecoderRegistry
	logg          *logger.Logger
}

// NewConsumer builds a restock consumer with its versioned payload decoders.
func NewConsumer(subscriptions notifier, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventStockReplenished, 1, func(payload json.RawMessage) (interface{}, error) {
		var event payloads.StockReplenishedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return &event, nil
	})

	return &Consumer{
		subscriptions: subscriptions,
		manager:       manager,
		decoders:      decoders,
		logg:          logg,
	}, nil
}

// Process handles one domain event envelope. Only stock_replenished events
// are acted on; everything else acks immediately.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if eventType != enums.EventStockReplenished {
		c.logg.Info(logCtx, "event not handled by restock consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	decoded, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode stock replenished payload", err)
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return err
	}
	payload, ok := decoded.(*payloads.StockReplenishedEvent)
	if !ok {
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return fmt.Errorf("unexpected payload type %T", decoded)
	}
	if payload.ProductID == uuid.Nil {
		c.logg.Warn(logCtx, "stock replenished event missing product id")
		return nil
	}

	notified, err := c.subscriptions.NotifySubscribersOfRestock(ctx, payload.ProductID, payload.StoreID)
	if err != nil {
		c.logg.Error(logCtx, "restock notification run failed", err)
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return err
	}

	c.logg.Info(c.logg.WithField(logCtx, "notified_count", notified), "stock replenished event processed")
	return nil
}
