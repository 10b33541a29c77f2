// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"eatsy/internal/domain/entity"

	"github.com/google/uuid"
)

// UpdateInstructionsInput carries a per-item note for the cook, e.g. "no chili".
type UpdateInstructionsInput struct {
	DishID       uuid.UUID
	Instructions string
}

// CartUsecase defines the interface for shopping cart operations.
// All mutators return the full cart after the change, with totals already
// recomputed, so callers never derive aggregates themselves.
type CartUsecase interface {
	// GetCart returns the user's current cart. Users without a cart get an
	// empty one.
	GetCart(ctx context.Context, userID uuid.UUID) (*entity.Cart, error)

	// AddItem adds one unit of a dish to the cart. Adding a dish already in
	// the cart increments its quantity instead of duplicating the line.
	AddItem(ctx context.Context, userID, dishID uuid.UUID) (*entity.Cart, error)

	// RemoveItem removes a dish's line item entirely, regardless of quantity.
	RemoveItem(ctx context.Context, userID, dishID uuid.UUID) (*entity.Cart, error)

	// UpdateQuantity sets the quantity of a line item. A quantity of zero or
	// less removes the line item.
	UpdateQuantity(ctx context.Context, userID, dishID uuid.UUID, quantity int) (*entity.Cart, error)

	// UpdateSpecialInstructions replaces the special instructions of a line item.
	UpdateSpecialInstructions(ctx context.Context, userID uuid.UUID, input *UpdateInstructionsInput) (*entity.Cart, error)

	// GetItemQuantity reports the quantity of a dish in the cart, zero when absent.
	GetItemQuantity(ctx context.Context, userID, dishID uuid.UUID) (int, error)

	// ClearCart empties the cart.
	ClearCart(ctx context.Context, userID uuid.UUID) error
}
