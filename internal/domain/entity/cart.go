// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"github.com/google/uuid"
)

// CartItem is one distinct dish entry in a cart, with its own quantity.
type CartItem struct {
	DishID              uuid.UUID `json:"dish_id"`              // Matches the underlying dish identifier; unique within a cart.
	Name                string    `json:"name"`                 // Display name of the dish.
	Description         string    `json:"description"`          // Short dish description for cart display.
	Price               int64     `json:"price"`                // Unit price in whole currency units.
	ImageURL            string    `json:"image_url"`            // Reference to the dish image.
	CookID              uuid.UUID `json:"cook_id"`              // The cook that owns the dish.
	CookName            string    `json:"cook_name"`            // Kitchen name shown alongside the item.
	Quantity            int       `json:"quantity"`             // Always >= 1 while the item is in the cart.
	SpecialInstructions string    `json:"special_instructions"` // Optional free-text instructions for the cook.
	Tags                []string  `json:"tags"`                 // Optional dish tags.
}

// Cart is the customer's in-progress, not-yet-submitted order.
//
// The item collection is the single source of truth: TotalItems and
// TotalAmount are derived aggregates, recomputed from the full collection
// after every mutation so they can never drift from the items. Only the
// collection is persisted; totals are rebuilt on rehydration.
type Cart struct {
	Items       []CartItem `json:"items"`
	TotalItems  int        `json:"total_items"`
	TotalAmount int64      `json:"total_amount"`
}

// NewCart returns an empty cart with zeroed aggregates.
func NewCart() *Cart {
	return &Cart{Items: []CartItem{}}
}

// AddItem merges an item into the cart. If an item with the same dish ID
// already exists its quantity is incremented by one and the incoming payload
// is otherwise ignored (identifier match wins); otherwise the item is
// appended with quantity 1, regardless of any quantity on the payload.
func (c *Cart) AddItem(item CartItem) {
	for i := range c.Items {
		if c.Items[i].DishID == item.DishID {
			c.Items[i].Quantity++
			c.recompute()

			return
		}
	}

	item.Quantity = 1
	c.Items = append(c.Items, item)
	c.recompute()
}

// RemoveItem deletes the line item with the given dish ID. Removing an
// absent ID is a no-op.
func (c *Cart) RemoveItem(dishID uuid.UUID) {
	filtered := c.Items[:0]
	for _, item := range c.Items {
		if item.DishID != dishID {
			filtered = append(filtered, item)
		}
	}
	c.Items = filtered
	c.recompute()
}

// UpdateQuantity sets the quantity of the matching line item. A quantity of
// zero or below removes the item entirely; quantities are never stored as 0
// or negative. An absent ID is a no-op.
func (c *Cart) UpdateQuantity(dishID uuid.UUID, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(dishID)

		return
	}

	for i := range c.Items {
		if c.Items[i].DishID == dishID {
			c.Items[i].Quantity = quantity

			break
		}
	}
	c.recompute()
}

// UpdateSpecialInstructions sets the free-text instructions on the matching
// line item. Totals are unaffected; an absent ID is a no-op.
func (c *Cart) UpdateSpecialInstructions(dishID uuid.UUID, instructions string) {
	for i := range c.Items {
		if c.Items[i].DishID == dishID {
			c.Items[i].SpecialInstructions = instructions

			return
		}
	}
}

// Clear resets the cart to its empty state.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.recompute()
}

// ItemQuantity returns the quantity of the matching line item, or 0 when the
// dish is not in the cart.
func (c *Cart) ItemQuantity(dishID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].DishID == dishID {
			return c.Items[i].Quantity
		}
	}

	return 0
}

// IsEmpty reports whether the cart holds no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Recompute rebuilds the derived aggregates from the item collection. It is
// exported for use after rehydrating a persisted cart, where stored totals
// are deliberately not trusted.
func (c *Cart) Recompute() {
	c.recompute()
}

func (c *Cart) recompute() {
	totalItems := 0
	var totalAmount int64
	for i := range c.Items {
		totalItems += c.Items[i].Quantity
		totalAmount += c.Items[i].Price * int64(c.Items[i].Quantity)
	}
	c.TotalItems = totalItems
	c.TotalAmount = totalAmount
}
