package orders

import (
	"context"
	"time"

	"github.com/odyssey-erp/commerce-console/internal/orders/status"
	"github.com/odyssey-erp/commerce-console/internal/shared"
)

// Order event types.
const (
	EventOrderSubmitted     = "order.submitted"
	EventOrderStatusChanged = "order.status_changed"
)

// Event is published after an order write commits.
type Event struct {
	Type       string         `json:"type"`
	OrderID    int64          `json:"order_id"`
	Number     string         `json:"number"`
	Status     status.Triple  `json:"status"`
	Changes    []StatusChange `json:"changes,omitempty"`
	GrandTotal float64        `json:"grand_total"`
	Actor      string         `json:"actor,omitempty"`
	At         time.Time      `json:"at"`
}

// Key partitions events so one order's events stay ordered.
func (e Event) Key() string {
	return e.Number
}

// EventPublisher hands order events to downstream consumers. Delivery is
// best effort; a failed publish never undoes the committed write.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event Event) error
}

func (s *Service) publish(ctx context.Context, eventType string, order Order, changes []StatusChange) {
	if s.events == nil {
		return
	}
	err := s.events.PublishOrderEvent(ctx, Event{
		Type:       eventType,
		OrderID:    order.ID,
		Number:     order.Number,
		Status:     order.Status,
		Changes:    changes,
		GrandTotal: order.Pricing.GrandTotal,
		Actor:      shared.ActorFromContext(ctx).Name,
		At:         s.now().UTC(),
	})
	s.observer.ObserveEvent(eventType, err == nil)
}
