package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/donhangtem/orderboard-backend/internal/board"
	"github.com/donhangtem/orderboard-backend/pkg/enums"
	"github.com/donhangtem/orderboard-backend/pkg/logger"
	"github.com/donhangtem/orderboard-backend/pkg/outbox"
	"github.com/donhangtem/orderboard-backend/pkg/outbox/idempotency"
	"github.com/donhangtem/orderboard-backend/pkg/outbox/payloads"
)

type fakeBoardStore struct {
	merged []board.Event
}

func (f *fakeBoardStore) Merge(event board.Event) bool {
	f.merged = append(f.merged, event)
	return true
}

type memoryIdempotencyStore struct {
	keys   map[string]string
	setErr error
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{keys: make(map[string]string)}
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return m.keys[key], nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if m.setErr != nil {
		return false, m.setErr
	}
	if _, exists := m.keys[key]; exists {
		return false, nil
	}
	m.keys[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("ob:idempotency:%s:%s", scope, id)
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

func newTestConsumer(t *testing.T, store *fakeBoardStore, idemStore *memoryIdempotencyStore) *Consumer {
	t.Helper()
	manager, err := idempotency.NewManager(idemStore, time.Hour)
	if err != nil {
		t.Fatalf("build idempotency manager: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "feed-test", Level: zerolog.Disabled, Output: io.Discard})
	consumer, err := NewConsumer(store, &pubsub.Subscriber{}, manager, logg)
	if err != nil {
		t.Fatalf("build consumer: %v", err)
	}
	return consumer
}

func envelopeMessage(t *testing.T, eventType enums.OutboxEventType, eventID uuid.UUID, data any) *pubsub.Message {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	body, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	if err != nil {
		t.Fatal(err)
	}
	return &pubsub.Message{
		ID:         "msg-" + eventID.String(),
		Data:       body,
		Attributes: map[string]string{"event_type": string(eventType)},
	}
}

func snapshotFixture() payloads.OrderSnapshot {
	return payloads.OrderSnapshot{
		ID:        uuid.New(),
		Name:      "In lịch Tết",
		Factory:   "Xưởng B",
		Status:    enums.OrderStatusWaiting,
		UserID:    uuid.New(),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func TestProcessMergesInsertEvent(t *testing.T) {
	store := &fakeBoardStore{}
	consumer := newTestConsumer(t, store, newMemoryIdempotencyStore())

	snapshot := snapshotFixture()
	msg := envelopeMessage(t, enums.EventOrderInserted, uuid.New(), payloads.OrderInsertedEvent{Order: snapshot})

	if !consumer.process(context.Background(), msg) {
		t.Fatalf("expected ack")
	}
	if len(store.merged) != 1 {
		t.Fatalf("expected one merge, got %d", len(store.merged))
	}
	event := store.merged[0]
	if event.Type != enums.OrderEventInsert {
		t.Fatalf("unexpected event type %s", event.Type)
	}
	if event.Order.ID != snapshot.ID || event.Order.Name != snapshot.Name {
		t.Fatalf("snapshot not carried into board order")
	}
}

func TestProcessMergesDeleteEvent(t *testing.T) {
	store := &fakeBoardStore{}
	consumer := newTestConsumer(t, store, newMemoryIdempotencyStore())

	orderID := uuid.New()
	msg := envelopeMessage(t, enums.EventOrderDeleted, uuid.New(), payloads.OrderDeletedEvent{OrderID: orderID})

	if !consumer.process(context.Background(), msg) {
		t.Fatalf("expected ack")
	}
	if len(store.merged) != 1 || store.merged[0].Type != enums.OrderEventDelete {
		t.Fatalf("expected one delete merge, got %+v", store.merged)
	}
	if store.merged[0].OrderID != orderID {
		t.Fatalf("unexpected order id %s", store.merged[0].OrderID)
	}
}

func TestProcessSkipsDuplicateEvent(t *testing.T) {
	store := &fakeBoardStore{}
	consumer := newTestConsumer(t, store, newMemoryIdempotencyStore())

	eventID := uuid.New()
	msg := envelopeMessage(t, enums.EventOrderInserted, eventID, payloads.OrderInsertedEvent{Order: snapshotFixture()})

	if !consumer.process(context.Background(), msg) {
		t.Fatalf("expected ack on first delivery")
	}
	if !consumer.process(context.Background(), msg) {
		t.Fatalf("redelivery must still ack")
	}
	if len(store.merged) != 1 {
		t.Fatalf("duplicate delivery must not merge twice, got %d", len(store.merged))
	}
}

func TestProcessIgnoresForeignEventTypes(t *testing.T) {
	store := &fakeBoardStore{}
	consumer := newTestConsumer(t, store, newMemoryIdempotencyStore())

	msg := envelopeMessage(t, enums.EventNotificationRequested, uuid.New(), payloads.NotificationRequestedEvent{})
	if !consumer.process(context.Background(), msg) {
		t.Fatalf("foreign events must ack")
	}
	if len(store.merged) != 0 {
		t.Fatalf("foreign events must not merge")
	}
}

func TestProcessReleasesIdempotencyKeyOnBadPayload(t *testing.T) {
	store := &fakeBoardStore{}
	idemStore := newMemoryIdempotencyStore()
	consumer := newTestConsumer(t, store, idemStore)

	eventID := uuid.New()
	body, err := json.Marshal(outbox.PayloadEnvelope{
		Version: 1,
		EventID: eventID.String(),
		Data:    json.RawMessage(`"not an object"`),
	})
	if err != nil {
		t.Fatal(err)
	}
	msg := &pubsub.Message{
		Data:       body,
		Attributes: map[string]string{"event_type": string(enums.EventOrderInserted)},
	}

	if !consumer.process(context.Background(), msg) {
		t.Fatalf("malformed payload must ack")
	}
	if len(store.merged) != 0 {
		t.Fatalf("malformed payload must not merge")
	}
	if len(idemStore.keys) != 0 {
		t.Fatalf("idempotency key must be released, got %v", idemStore.keys)
	}
}

func TestProcessNacksOnIdempotencyFailure(t *testing.T) {
	store := &fakeBoardStore{}
	idemStore := newMemoryIdempotencyStore()
	idemStore.setErr = fmt.Errorf("redis down")
	consumer := newTestConsumer(t, store, idemStore)

	msg := envelopeMessage(t, enums.EventOrderInserted, uuid.New(), payloads.OrderInsertedEvent{Order: snapshotFixture()})
	if consumer.process(context.Background(), msg) {
		t.Fatalf("infrastructure failure must nack for redelivery")
	}
	if len(store.merged) != 0 {
		t.Fatalf("must not merge when the guard is unavailable")
	}
}
