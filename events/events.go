package events

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-ordering/models"
)

const (
	OrderCreated = "order.created"
	OrderUpdated = "order.updated"
	OrderDeleted = "order.deleted"
)

type Event struct {
	Type        string             `json:"event"`
	OrderID     uint               `json:"order_id"`
	PublicID    string             `json:"public_id"`
	CafeID      uint               `json:"cafe_id"`
	TableID     uint               `json:"table_id"`
	Status      models.OrderStatus `json:"status"`
	Paid        bool               `json:"paid"`
	PrepMinutes *int               `json:"prep_minutes,omitempty"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

func FromOrder(eventType string, order *models.Order) Event {
	return Event{
		Type:        eventType,
		OrderID:     order.ID,
		PublicID:    order.PublicID,
		CafeID:      order.CafeID,
		TableID:     order.TableID,
		Status:      order.Status,
		Paid:        order.Paid,
		PrepMinutes: order.PrepMinutes,
		OccurredAt:  time.Now().UTC(),
	}
}

// Publisher delivers order events after the change has been committed.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher and keeps going on failure.
type Multi struct {
	Publishers []Publisher
	Log        *logrus.Logger
}

func NewMulti(log *logrus.Logger, publishers ...Publisher) *Multi {
	return &Multi{Publishers: publishers, Log: log}
}

func (m *Multi) Publish(ctx context.Context, evt Event) error {
	var firstErr error
	for _, p := range m.Publishers {
		if err := p.Publish(ctx, evt); err != nil {
			if m.Log != nil {
				m.Log.WithFields(logrus.Fields{
					"event":    evt.Type,
					"order_id": evt.OrderID,
				}).Errorf("publish failed: %v", err)
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
