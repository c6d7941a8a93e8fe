package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/restock-backend/pkg/db/models"
	"github.com/angelmondragon/restock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restock-backend/pkg/errors"
	"github.com/angelmondragon/restock-backend/pkg/logger"
)

type fakeWriter struct {
	createFn func(ctx context.Context, notification *models.Notification) error
	rows     []*models.Notification
}

func (f *fakeWriter) Create(ctx context.Context, notification *models.Notification) error {
	f.rows = append(f.rows, notification)
	if f.createFn != nil {
		return f.createFn(ctx, notification)
	}
	return nil
}

type fakeResult struct {
	err error
}

func (f *fakeResult) Get(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

type fakePublisher struct {
	publishFn func(ctx context.Context, msg *gcppubsub.Message) publishResult
	messages  []*gcppubsub.Message
}

func (f *fakePublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if f.publishFn != nil {
		return f.publishFn(ctx, msg)
	}
	return &fakeResult{}
}

func newTestDispatch(t *testing.T, writer *fakeWriter, pub *fakePublisher) Service {
	t.Helper()
	params := ServiceParams{
		Notifications: writer,
		Logger:        logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}
	if pub != nil {
		params.Publisher = pub
	}
	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func testSubscription() models.BackInStockSubscription {
	return models.BackInStockSubscription{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		ProductID:  uuid.New(),
	}
}

func TestSendRestockNotification_BothChannels(t *testing.T) {
	writer := &fakeWriter{}
	pub := &fakePublisher{}
	svc := newTestDispatch(t, writer, pub)

	sent, err := svc.SendRestockNotification(context.Background(), testSubscription(), "fr")
	if err != nil {
		t.Fatalf("unexpected dispatch error: %v", err)
	}
	if sent != 2 {
		t.Fatalf("expected 2 channels, got %d", sent)
	}
	if len(writer.rows) != 1 {
		t.Fatalf("expected 1 notification row, got %d", len(writer.rows))
	}
	row := writer.rows[0]
	if row.Type != enums.NotificationBackInStock || row.Status != enums.NotificationStatusPending {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.Language != "fr" {
		t.Fatalf("unexpected language %q", row.Language)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(pub.messages))
	}
	var payload restockPayload
	if err := json.Unmarshal(pub.messages[0].Data, &payload); err != nil {
		t.Fatalf("invalid message payload: %v", err)
	}
	if payload.Language != "fr" {
		t.Fatalf("unexpected payload language %q", payload.Language)
	}
}

func TestSendRestockNotification_InAppOnlyWithoutPublisher(t *testing.T) {
	writer := &fakeWriter{}
	svc := newTestDispatch(t, writer, nil)

	sent, err := svc.SendRestockNotification(context.Background(), testSubscription(), "")
	if err != nil {
		t.Fatalf("unexpected dispatch error: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected 1 channel, got %d", sent)
	}
	if writer.rows[0].Language != enums.DefaultLanguage {
		t.Fatalf("expected default language, got %q", writer.rows[0].Language)
	}
}

func TestSendRestockNotification_WriteFailure(t *testing.T) {
	writer := &fakeWriter{
		createFn: func(ctx context.Context, notification *models.Notification) error {
			return errors.New("insert failed")
		},
	}
	svc := newTestDispatch(t, writer, &fakePublisher{})

	sent, err := svc.SendRestockNotification(context.Background(), testSubscription(), "en")
	if err == nil {
		t.Fatal("expected write error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if sent != 0 {
		t.Fatalf("expected 0 channels, got %d", sent)
	}
}

func TestSendRestockNotification_PublishFailure(t *testing.T) {
	writer := &fakeWriter{}
	pub := &fakePublisher{
		publishFn: func(ctx context.Context, msg *gcppubsub.Message) publishResult {
			return &fakeResult{err: errors.New("broker unavailable")}
		},
	}
	svc := newTestDispatch(t, writer, pub)

	sent, err := svc.SendRestockNotification(context.Background(), testSubscription(), "en")
	if err == nil {
		t.Fatal("expected publish error")
	}
	if sent != 1 {
		t.Fatalf("expected in-app channel to count, got %d", sent)
	}
}

func TestSendRestockNotification_RequiresIDs(t *testing.T) {
	svc := newTestDispatch(t, &fakeWriter{}, nil)

	_, err := svc.SendRestockNotification(context.Background(), models.BackInStockSubscription{}, "en")
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
