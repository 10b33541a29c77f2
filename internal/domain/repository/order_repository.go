// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"eatsy/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrOrderNotFound is a domain-specific error returned when an order is not found.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository defines the standard operations for order persistence.
type OrderRepository interface {
	// Create persists a new order together with its line items.
	Create(ctx context.Context, order *entity.Order) error

	// FindByID retrieves a single order with its line items.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)

	// ListByUserID retrieves all orders placed by a customer, newest first.
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.Order, error)

	// UpdateStatus transitions an order to a new lifecycle state.
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.OrderStatus) error
}
