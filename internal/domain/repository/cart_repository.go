// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"eatsy/internal/domain/entity"

	"github.com/google/uuid"
)

// CartRepository defines the operations for persisting a customer's shopping cart.
// Only the item list is stored; totals are derived state and are recomputed on load.
type CartRepository interface {
	// FindByUserID retrieves the cart for a user. A user with no persisted
	// cart gets a fresh empty cart, never an error.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Cart, error)

	// Save persists the cart's item list for a user, replacing any previous state.
	Save(ctx context.Context, userID uuid.UUID, cart *entity.Cart) error

	// Delete removes the persisted cart for a user.
	Delete(ctx context.Context, userID uuid.UUID) error
}
