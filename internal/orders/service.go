package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/donhangtem/orderboard-backend/pkg/db/models"
	"github.com/donhangtem/orderboard-backend/pkg/enums"
	pkgerrors "github.com/donhangtem/orderboard-backend/pkg/errors"
	"github.com/donhangtem/orderboard-backend/pkg/logger"
	"github.com/donhangtem/orderboard-backend/pkg/outbox"
	"github.com/donhangtem/orderboard-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ImageRemover deletes a stored order image by its public URL. A missing
// object is reported as success by the media layer.
type ImageRemover interface {
	RemoveByURL(ctx context.Context, url string) error
}

// Service defines order write operations. Every committed write lands an
// outbox event so the change feed mirrors the table.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Update(ctx context.Context, input UpdateOrderInput) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID, actor Actor) error
	ChangeStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, actor Actor) (*models.Order, error)
	ToggleUrgency(ctx context.Context, id uuid.UUID, actor Actor) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	images ImageRemover
	logg   *logger.Logger
	now    func() time.Time
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	Repo         Repository
	Tx           txRunner
	Outbox       outboxPublisher
	ImageRemover ImageRemover
	Logger       *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:   params.Repo,
		tx:     params.Tx,
		outbox: params.Outbox,
		images: params.ImageRemover,
		logg:   params.Logger,
		now:    time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order name required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	order := &models.Order{
		Name:         name,
		Factory:      strings.TrimSpace(input.Factory),
		Quantity:     input.Quantity,
		Unit:         strings.TrimSpace(input.Unit),
		DeliveryDate: input.DeliveryDate,
		Status:       enums.OrderStatusWaiting,
		IsUrgent:     false,
		ImageURL:     input.ImageURL,
		UserID:       input.Actor.UserID,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}
		if err := s.emitOrderEvent(ctx, tx, enums.EventOrderInserted, order, input.Actor); err != nil {
			return err
		}
		// Notification delivery is best effort. A failure to queue it must
		// not fail the order creation.
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateNotification,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: payloads.NotificationRequestedEvent{
				OrderID:   order.ID,
				OrderName: order.Name,
				Factory:   order.Factory,
				CreatedBy: input.Actor.UserID,
			},
		}); err != nil && s.logg != nil {
			s.logg.Error(ctx, "queue order notification", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Update(ctx context.Context, input UpdateOrderInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Factory != nil {
		updates["factory"] = strings.TrimSpace(*input.Factory)
	}
	if input.Quantity != nil {
		updates["quantity"] = *input.Quantity
	}
	if input.Unit != nil {
		updates["unit"] = strings.TrimSpace(*input.Unit)
	}
	if input.ClearDeliveryDate {
		updates["delivery_date"] = nil
	} else if input.DeliveryDate != nil {
		updates["delivery_date"] = *input.DeliveryDate
	}
	if input.ClearImageURL {
		updates["image_url"] = nil
	} else if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	return s.mutate(ctx, input.OrderID, input.Actor, func(order *models.Order) (map[string]any, error) {
		previousImage := order.ImageURL
		applyOrderUpdates(order, updates)
		if previousImage != nil && imageReplaced(previousImage, order.ImageURL) {
			s.removeImageAsync(ctx, *previousImage)
		}
		return updates, nil
	})
}

func (s *service) ChangeStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, actor Actor) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	return s.mutate(ctx, id, actor, func(order *models.Order) (map[string]any, error) {
		updates := map[string]any{"status": status}
		order.Status = status
		if status == enums.OrderStatusCompleted {
			if order.CompletedAt == nil {
				now := s.now().UTC()
				order.CompletedAt = &now
				updates["completed_at"] = now
			}
		} else if order.CompletedAt != nil {
			order.CompletedAt = nil
			updates["completed_at"] = nil
		}
		return updates, nil
	})
}

func (s *service) ToggleUrgency(ctx context.Context, id uuid.UUID, actor Actor) (*models.Order, error) {
	return s.mutate(ctx, id, actor, func(order *models.Order) (map[string]any, error) {
		order.IsUrgent = !order.IsUrgent
		return map[string]any{"is_urgent": order.IsUrgent}, nil
	})
}

// Delete removes the order image first, then the row. Both halves are
// idempotent: a missing stored object and a missing row are successes.
func (s *service) Delete(ctx context.Context, id uuid.UUID, actor Actor) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if order.ImageURL != nil && s.images != nil {
		if err := s.images.RemoveByURL(ctx, *order.ImageURL); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove order image")
		}
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.Delete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		if !found {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderDeleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   id,
			Version:       1,
			Actor:         actorRef(actor),
			Data:          payloads.OrderDeletedEvent{OrderID: id},
		})
	})
}

func (s *service) List(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

// mutate loads the order, applies the change inside one transaction, and
// emits the matching update event.
func (s *service) mutate(ctx context.Context, id uuid.UUID, actor Actor, apply func(order *models.Order) (map[string]any, error)) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		updates, err := apply(order)
		if err != nil {
			return err
		}
		if err := repo.Updates(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		order.UpdatedAt = s.now().UTC()

		if err := s.emitOrderEvent(ctx, tx, enums.EventOrderUpdated, order, actor); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) emitOrderEvent(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, order *models.Order, actor Actor) error {
	snapshot := snapshotOf(order)
	var data interface{}
	switch eventType {
	case enums.EventOrderInserted:
		data = payloads.OrderInsertedEvent{Order: snapshot}
	case enums.EventOrderUpdated:
		data = payloads.OrderUpdatedEvent{Order: snapshot}
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, "unsupported order event")
	}
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         actorRef(actor),
		Data:          data,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order event")
	}
	return nil
}

// removeImageAsync drops a replaced image in the background. Failures are
// logged only; the order write has already succeeded.
func (s *service) removeImageAsync(ctx context.Context, url string) {
	if s.images == nil {
		return
	}
	go func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.images.RemoveByURL(cleanupCtx, url); err != nil && s.logg != nil {
			s.logg.Error(ctx, "remove replaced order image", err)
		}
	}()
}

func applyOrderUpdates(order *models.Order, updates map[string]any) {
	for column, value := range updates {
		switch column {
		case "name":
			order.Name = value.(string)
		case "factory":
			order.Factory = value.(string)
		case "quantity":
			qty := value.(int)
			order.Quantity = &qty
		case "unit":
			order.Unit = value.(string)
		case "delivery_date":
			if value == nil {
				order.DeliveryDate = nil
			} else {
				date := value.(time.Time)
				order.DeliveryDate = &date
			}
		case "image_url":
			if value == nil {
				order.ImageURL = nil
			} else {
				url := value.(string)
				order.ImageURL = &url
			}
		}
	}
}

func imageReplaced(previous *string, current *string) bool {
	if previous == nil {
		return false
	}
	return current == nil || *current != *previous
}

func snapshotOf(order *models.Order) payloads.OrderSnapshot {
	return payloads.OrderSnapshot{
		ID:           order.ID,
		Name:         order.Name,
		Factory:      order.Factory,
		Quantity:     order.Quantity,
		Unit:         order.Unit,
		DeliveryDate: order.DeliveryDate,
		Status:       order.Status,
		IsUrgent:     order.IsUrgent,
		ImageURL:     order.ImageURL,
		UserID:       order.UserID,
		CompletedAt:  order.CompletedAt,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}

func actorRef(actor Actor) *outbox.ActorRef {
	if actor.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{
		UserID: actor.UserID,
		Role:   string(actor.Role),
	}
}
