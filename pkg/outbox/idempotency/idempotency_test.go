package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeStore struct {
	setNXFn func(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	lastKey string
	lastTTL time.Duration
	deleted []string
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	if f.setNXFn != nil {
		return f.setNXFn(ctx, key, value, ttl)
	}
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "rsk:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	f.deleted = append(f.deleted, keys...)
	return nil
}

func TestCheckAndMarkProcessed_FirstTime(t *testing.T) {
	store := &fakeStore{}
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("unexpected manager error: %v", err)
	}

	eventID := uuid.New()
	already, err := manager.CheckAndMarkProcessed(context.Background(), "restock-worker", eventID)
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if already {
		t.Fatal("expected first delivery to not be marked processed")
	}

	wantKey := "rsk:idempotency:evt:processed:restock-worker:" + eventID.String()
	if store.lastKey != wantKey {
		t.Fatalf("expected key %q, got %q", wantKey, store.lastKey)
	}
	if store.lastTTL != time.Hour {
		t.Fatalf("expected ttl %v, got %v", time.Hour, store.lastTTL)
	}
}

func TestCheckAndMarkProcessed_AlreadyProcessed(t *testing.T) {
	store := &fakeStore{
		setNXFn: func(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
			return false, nil
		},
	}
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("unexpected manager error: %v", err)
	}

	already, err := manager.CheckAndMarkProcessed(context.Background(), "restock-worker", uuid.New())
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if !already {
		t.Fatal("expected duplicate delivery to be marked processed")
	}
}

func TestCheckAndMarkProcessed_StoreFailure(t *testing.T) {
	store := &fakeStore{
		setNXFn: func(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
			return false, errors.New("redis down")
		},
	}
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("unexpected manager error: %v", err)
	}

	if _, err := manager.CheckAndMarkProcessed(context.Background(), "restock-worker", uuid.New()); err == nil {
		t.Fatal("expected store error")
	}
}

func TestCheckAndMarkProcessed_RequiresConsumerAndEventID(t *testing.T) {
	manager, err := NewManager(&fakeStore{}, time.Hour)
	if err != nil {
		t.Fatalf("unexpected manager error: %v", err)
	}

	if _, err := manager.CheckAndMarkProcessed(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("expected missing consumer error")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "restock-worker", uuid.Nil); err == nil {
		t.Fatal("expected missing event id error")
	}
}

func TestDeleteReleasesMark(t *testing.T) {
	store := &fakeStore{}
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("unexpected manager error: %v", err)
	}

	eventID := uuid.New()
	if err := manager.Delete(context.Background(), "restock-worker", eventID); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	wantKey := "rsk:idempotency:evt:processed:restock-worker:" + eventID.String()
	if len(store.deleted) != 1 || store.deleted[0] != wantKey {
		t.Fatalf("expected delete of %q, got %v", wantKey, store.deleted)
	}
}

func TestNewManagerRequiresStore(t *testing.T) {
	if _, err := NewManager(nil, time.Hour); err == nil {
		t.Fatal("expected missing store error")
	}
}
