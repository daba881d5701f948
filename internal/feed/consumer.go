package feed

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/donhangtem/orderboard-backend/internal/board"
	"github.com/donhangtem/orderboard-backend/pkg/enums"
	"github.com/donhangtem/orderboard-backend/pkg/logger"
	"github.com/donhangtem/orderboard-backend/pkg/outbox"
	"github.com/donhangtem/orderboard-backend/pkg/outbox/idempotency"
	"github.com/donhangtem/orderboard-backend/pkg/outbox/payloads"
	"github.com/donhangtem/orderboard-backend/pkg/outbox/registry"
)

const boardFeedConsumer = "board-feed"

type boardStore interface {
	Merge(event board.Event) bool
}

// Consumer drains the orders topic and folds each change into the board
// store. It is the remote half of reconciliation: the optimistic path
// already applied local writes, so duplicate inserts collapse inside Merge.
type Consumer struct {
	store        boardStore
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

// NewConsumer builds the change-feed consumer and registers the order
// event decoders it understands.
func NewConsumer(store boardStore, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if store == nil {
		return nil, fmt.Errorf("board store required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventOrderInserted, 1, func(payload json.RawMessage) (interface{}, error) {
		var event payloads.OrderInsertedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return event, nil
	})
	decoders.Register(enums.EventOrderUpdated, 1, func(payload json.RawMessage) (interface{}, error) {
		var event payloads.OrderUpdatedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return event, nil
	})
	decoders.Register(enums.EventOrderDeleted, 1, func(payload json.RawMessage) (interface{}, error) {
		var event payloads.OrderDeletedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return event, nil
	})

	return &Consumer{
		store:        store,
		subscription: subscription,
		idempotency:  manager,
		decoders:     decoders,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process returns whether the message should be acked. Malformed messages
// are acked; only transient infrastructure failures nack for redelivery.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) bool {
	rawType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	})

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil || !isOrderEvent(eventType) {
		c.logg.Info(logCtx, "skipping non-order event")
		return true
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return true
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return true
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, boardFeedConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return false
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return true
	}

	event, err := c.decode(eventType, envelope)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode order event", err)
		_ = c.idempotency.Delete(ctx, boardFeedConsumer, eventID)
		return true
	}

	applied := c.store.Merge(event)
	logCtx = c.logg.WithFields(logCtx, map[string]any{"applied": applied})
	c.logg.Info(logCtx, "change feed event merged")
	return true
}

func (c *Consumer) decode(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) (board.Event, error) {
	decoded, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		return board.Event{}, err
	}
	switch payload := decoded.(type) {
	case payloads.OrderInsertedEvent:
		return board.Event{Type: enums.OrderEventInsert, Order: orderFromSnapshot(payload.Order)}, nil
	case payloads.OrderUpdatedEvent:
		return board.Event{Type: enums.OrderEventUpdate, Order: orderFromSnapshot(payload.Order)}, nil
	case payloads.OrderDeletedEvent:
		return board.Event{Type: enums.OrderEventDelete, OrderID: payload.OrderID}, nil
	default:
		return board.Event{}, fmt.Errorf("unexpected payload type %T", decoded)
	}
}

func isOrderEvent(eventType enums.OutboxEventType) bool {
	switch eventType {
	case enums.EventOrderInserted, enums.EventOrderUpdated, enums.EventOrderDeleted:
		return true
	}
	return false
}

func orderFromSnapshot(snapshot payloads.OrderSnapshot) board.Order {
	return board.Order{
		ID:           snapshot.ID,
		Name:         snapshot.Name,
		Factory:      snapshot.Factory,
		Quantity:     snapshot.Quantity,
		Unit:         snapshot.Unit,
		DeliveryDate: snapshot.DeliveryDate,
		Status:       snapshot.Status,
		IsUrgent:     snapshot.IsUrgent,
		ImageURL:     snapshot.ImageURL,
		UserID:       snapshot.UserID,
		CompletedAt:  snapshot.CompletedAt,
		CreatedAt:    snapshot.CreatedAt,
		UpdatedAt:    snapshot.UpdatedAt,
	}
}
