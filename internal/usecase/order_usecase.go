// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"eatsy/internal/domain/entity"

	"github.com/google/uuid"
)

// CheckoutInput defines the data required to turn the cart into an order.
type CheckoutInput struct {
	UserID uuid.UUID
	Note   string
}

// UpdateOrderStatusInput carries an order status transition requested by a cook.
type UpdateOrderStatusInput struct {
	CookID  uuid.UUID
	OrderID uuid.UUID
	Status  entity.OrderStatus
}

// CompletePickupInput carries the QR payload a cook scanned at handover.
type CompletePickupInput struct {
	CookID uuid.UUID
	QRData string
}

// OrderUsecase defines the interface for order lifecycle operations.
type OrderUsecase interface {
	// Checkout snapshots the user's cart into an immutable order, clears the
	// cart and announces the new order to the owning cooks.
	Checkout(ctx context.Context, input *CheckoutInput) (*entity.Order, error)

	// GetOrder retrieves a single order. Only the owning customer or a cook
	// with a line item in the order may read it.
	GetOrder(ctx context.Context, requesterID, orderID uuid.UUID) (*entity.Order, error)

	// ListOrders retrieves all orders placed by a customer, newest first.
	ListOrders(ctx context.Context, userID uuid.UUID) ([]*entity.Order, error)

	// UpdateStatus transitions an order, on behalf of a cook that owns at
	// least one of its line items.
	UpdateStatus(ctx context.Context, input *UpdateOrderStatusInput) (*entity.Order, error)

	// GetPickupQR returns the QR code image the customer shows at pickup.
	GetPickupQR(ctx context.Context, userID, orderID uuid.UUID) ([]byte, error)

	// CompletePickup resolves a scanned pickup QR to its order and marks the
	// order completed.
	CompletePickup(ctx context.Context, input *CompletePickupInput) (*entity.Order, error)
}
