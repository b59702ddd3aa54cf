// Package events publishes domain events about orders and returns.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	OrderPlaced                = "order.placed"
	OrderStatusChanged         = "order.status_changed"
	OrderCancellationRequested = "order.cancellation_requested"
	OrderCancellationDecided   = "order.cancellation_decided"
	ReturnRequested            = "return.requested"
	ReturnReviewed             = "return.reviewed"
)

// Event is the envelope written to the event stream.
type Event struct {
	Type       string         `json:"type"`
	EntityID   uuid.UUID      `json:"entityId"`
	UserID     uuid.UUID      `json:"userId"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// Key is the partition key of the event.
func (e Event) Key() string {
	return e.Type + "." + e.EntityID.String()
}

// Publisher delivers events. Callers treat delivery as best effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
