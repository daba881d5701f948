package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/donhangtem/orderboard-backend/pkg/db/models"
	"github.com/donhangtem/orderboard-backend/pkg/logger"
	"github.com/donhangtem/orderboard-backend/pkg/metrics"
	"github.com/donhangtem/orderboard-backend/pkg/outbox/payloads"
)

type pushSender interface {
	Send(ctx context.Context, subscription models.PushSubscription, payload []byte) error
}

// pushMessage is the JSON body handed to the service worker.
type pushMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// Dispatcher fans one notification out to every registered subscription.
// Delivery is best effort: failures are aggregated for logging and stale
// endpoints are pruned, but nothing is retried or surfaced to the user.
type Dispatcher struct {
	repo   Repository
	sender pushSender
	push   *metrics.PushMetrics
	logg   *logger.Logger
}

// NewDispatcher builds a push dispatcher.
func NewDispatcher(repo Repository, sender pushSender, push *metrics.PushMetrics, logg *logger.Logger) (*Dispatcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	if sender == nil {
		return nil, fmt.Errorf("push sender required")
	}
	return &Dispatcher{repo: repo, sender: sender, push: push, logg: logg}, nil
}

// Dispatch sends the new-order notification to all subscriptions.
func (d *Dispatcher) Dispatch(ctx context.Context, event payloads.NotificationRequestedEvent) error {
	subscriptions, err := d.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subscriptions) == 0 {
		return nil
	}

	body := fmt.Sprintf("Đơn hàng mới: %s", event.OrderName)
	if event.Factory != "" {
		body = fmt.Sprintf("%s (%s)", body, event.Factory)
	}
	payload, err := json.Marshal(pushMessage{
		Title: "Orderboard",
		Body:  body,
		URL:   fmt.Sprintf("/orders/%s", event.OrderID),
	})
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	var dispatchErr error
	for _, subscription := range subscriptions {
		sendErr := d.sender.Send(ctx, subscription, payload)
		switch {
		case sendErr == nil:
			d.push.IncDispatch("delivered")
		case errors.Is(sendErr, ErrSubscriptionGone):
			d.prune(ctx, subscription)
		default:
			d.push.IncDispatch("failed")
			dispatchErr = multierr.Append(dispatchErr,
				fmt.Errorf("endpoint %s: %w", subscription.Endpoint, sendErr))
		}
	}
	return dispatchErr
}

func (d *Dispatcher) prune(ctx context.Context, subscription models.PushSubscription) {
	d.push.IncDispatch("gone")
	if err := d.repo.DeleteByID(ctx, subscription.ID); err != nil {
		if d.logg != nil {
			d.logg.Error(ctx, "prune stale push subscription", err)
		}
		return
	}
	d.push.IncPruned()
	if d.logg != nil {
		d.logg.Info(ctx, "pruned stale push subscription")
	}
}
