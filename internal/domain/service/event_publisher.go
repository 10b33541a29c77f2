package service

import (
	"context"
)

// OrderEvent represents an order lifecycle event delivered to cooks and
// downstream consumers over the message queue.
type OrderEvent struct {
	RequestID   string   `json:"request_id,omitempty"` // For distributed tracing
	OrderID     string   `json:"order_id"`
	UserID      string   `json:"user_id"`
	Status      string   `json:"status"`
	TotalAmount int64    `json:"total_amount"`
	CookIDs     []string `json:"cook_ids"` // Cooks that own at least one line item
	OccurredAt  string   `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishOrderEvent publishes an order event for async processing
	PublishOrderEvent(ctx context.Context, event *OrderEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
