// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle state of a submitted order.
type OrderStatus string

const (
	// OrderStatusPlaced is the initial state after checkout.
	OrderStatusPlaced OrderStatus = "placed"
	// OrderStatusAccepted means the cook confirmed the order.
	OrderStatusAccepted OrderStatus = "accepted"
	// OrderStatusReady means the order is ready for pickup.
	OrderStatusReady OrderStatus = "ready"
	// OrderStatusCompleted means the order was picked up.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled means the order was cancelled before completion.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid checks if the OrderStatus is a valid value.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPlaced, OrderStatusAccepted, OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// Order is a submitted, immutable snapshot of a cart at checkout time.
type Order struct {
	ID          uuid.UUID   // The unique identifier for the order.
	UserID      uuid.UUID   // The customer that placed the order.
	Items       []OrderItem // Line items copied from the cart at checkout.
	TotalAmount int64       // Sum of unit price x quantity over all items, in whole currency units.
	Note        string      // Optional free-text note for the whole order.
	Status      OrderStatus // Current lifecycle state.
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderItem is one line of an order, frozen at checkout.
type OrderItem struct {
	ID                  uuid.UUID // The unique identifier for the order line.
	OrderID             uuid.UUID // Links the line to its order.
	DishID              uuid.UUID // The dish that was ordered.
	Name                string    // Dish name at checkout time.
	UnitPrice           int64     // Unit price at checkout time, in whole currency units.
	Quantity            int       // Always >= 1.
	CookID              uuid.UUID // The cook responsible for this line.
	SpecialInstructions string    // Instructions carried over from the cart item.
}
