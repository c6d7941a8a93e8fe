package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/restock-backend/pkg/config"
	"github.com/angelmondragon/restock-backend/pkg/db/models"
	"github.com/angelmondragon/restock-backend/pkg/enums"
	"github.com/angelmondragon/restock-backend/pkg/outbox"
	"github.com/angelmondragon/restock-backend/pkg/outbox/payloads"
)

func testRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{
		DomainTopic:       "restock-domain-events",
		NotificationTopic: "restock-notifications",
	})
	require.NoError(t, err)
	return reg
}

func subscriptionCreatedRow(t *testing.T) models.OutboxEvent {
	t.Helper()
	data, err := json.Marshal(payloads.SubscriptionCreatedEvent{
		SubscriptionID: uuid.New(),
		CustomerID:     uuid.New(),
		ProductID:      uuid.New(),
	})
	require.NoError(t, err)

	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	require.NoError(t, err)

	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventSubscriptionCreated,
		AggregateType: enums.AggregateSubscription,
		AggregateID:   uuid.New(),
		Payload:       envelope,
	}
}

func TestResolveSubscriptionCreated(t *testing.T) {
	reg := testRegistry(t)

	resolved, err := reg.Resolve(subscriptionCreatedRow(t))
	require.NoError(t, err)
	require.Equal(t, "restock-domain-events", resolved.Descriptor.Topic)
	require.Equal(t, enums.EventSubscriptionCreated, resolved.Descriptor.EventType)
	require.NotEmpty(t, resolved.Envelope.EventID)

	payload, ok := resolved.Payload.(*payloads.SubscriptionCreatedEvent)
	require.True(t, ok, "unexpected payload type %T", resolved.Payload)
	require.NotEqual(t, uuid.Nil, payload.SubscriptionID)
}

func TestResolveUnknownEventType(t *testing.T) {
	reg := testRegistry(t)

	row := subscriptionCreatedRow(t)
	row.EventType = enums.OutboxEventType("order_placed")

	_, err := reg.Resolve(row)
	var nonRetryable NonRetryableError
	require.ErrorAs(t, err, &nonRetryable)
}

func TestResolveAggregateMismatch(t *testing.T) {
	reg := testRegistry(t)

	row := subscriptionCreatedRow(t)
	row.AggregateType = enums.AggregateProduct

	_, err := reg.Resolve(row)
	var nonRetryable NonRetryableError
	require.ErrorAs(t, err, &nonRetryable)
}

func TestResolveMissingAggregateID(t *testing.T) {
	reg := testRegistry(t)

	row := subscriptionCreatedRow(t)
	row.AggregateID = uuid.Nil

	_, err := reg.Resolve(row)
	var nonRetryable NonRetryableError
	require.ErrorAs(t, err, &nonRetryable)
}

func TestResolveMalformedEnvelope(t *testing.T) {
	reg := testRegistry(t)

	row := subscriptionCreatedRow(t)
	row.Payload = json.RawMessage(`{"version":`)

	_, err := reg.Resolve(row)
	var nonRetryable NonRetryableError
	require.ErrorAs(t, err, &nonRetryable)
}

func TestResolveEmptyPayloadData(t *testing.T) {
	reg := testRegistry(t)

	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage("null"),
	})
	require.NoError(t, err)

	row := subscriptionCreatedRow(t)
	row.Payload = envelope

	_, err = reg.Resolve(row)
	var nonRetryable NonRetryableError
	require.ErrorAs(t, err, &nonRetryable)
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{NotificationTopic: "restock-notifications"})
	require.Error(t, err)

	_, err = NewEventRegistry(config.PubSubConfig{DomainTopic: "restock-domain-events"})
	require.Error(t, err)
}

func TestNonRetryableErrorUnwrap(t *testing.T) {
	cause := errors.New("bad payload")
	err := NewNonRetryableError(cause)
	require.ErrorIs(t, err, cause)
}
