// Package notify pushes staff-facing events out of the service. Delivery is
// best effort: callers log failures and carry on.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/qrdine/pkg/models"
	"go.uber.org/zap"
)

type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventWaiterCalled       EventType = "waiter.called"
)

// Event is the wire form published to brokers.
type Event struct {
	Type           EventType          `json:"type"`
	OrderID        string             `json:"orderId,omitempty"`
	CallID         string             `json:"callId,omitempty"`
	TableNumber    string             `json:"tableNumber"`
	Status         models.OrderStatus `json:"status,omitempty"`
	PreviousStatus models.OrderStatus `json:"previousStatus,omitempty"`
	Total          float64            `json:"total,omitempty"`
	ItemCount      int                `json:"itemCount,omitempty"`
	At             time.Time          `json:"at"`
}

func OrderCreatedEvent(o models.Order) Event {
	count := 0
	for _, it := range o.Items {
		count += it.Quantity
	}
	return Event{
		Type:        EventOrderCreated,
		OrderID:     o.ID,
		TableNumber: o.TableNumber,
		Status:      o.Status,
		Total:       o.Total,
		ItemCount:   count,
		At:          o.CreatedAt,
	}
}

func OrderStatusChangedEvent(o models.Order, from models.OrderStatus) Event {
	return Event{
		Type:           EventOrderStatusChanged,
		OrderID:        o.ID,
		TableNumber:    o.TableNumber,
		Status:         o.Status,
		PreviousStatus: from,
		At:             o.UpdatedAt,
	}
}

func WaiterCalledEvent(c models.WaiterCall) Event {
	return Event{
		Type:        EventWaiterCalled,
		CallID:      c.ID,
		TableNumber: c.TableNumber,
		At:          c.CreatedAt,
	}
}

// Text renders e as a one-line staff message.
func (e Event) Text() string {
	switch e.Type {
	case EventOrderCreated:
		return fmt.Sprintf("New order for table %s: %d item(s), $%.2f", e.TableNumber, e.ItemCount, e.Total)
	case EventOrderStatusChanged:
		return fmt.Sprintf("Order for table %s is now %s", e.TableNumber, e.Status)
	case EventWaiterCalled:
		return fmt.Sprintf("Table %s is calling a waiter", e.TableNumber)
	}
	return string(e.Type)
}

type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// LogNotifier writes events to the log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, e Event) error {
	n.logger.Info("Staff notification",
		zap.String("type", string(e.Type)),
		zap.String("table", e.TableNumber),
		zap.String("orderId", e.OrderID),
		zap.String("callId", e.CallID),
		zap.String("status", string(e.Status)),
	)
	return nil
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }
