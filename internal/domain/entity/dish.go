// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Dish is a single menu item offered by a cook.
type Dish struct {
	ID          uuid.UUID // The unique identifier for the dish.
	CookID      uuid.UUID // The user ID of the cook offering the dish.
	CookName    string    // Denormalized kitchen name for listing views.
	Name        string    // Display name of the dish.
	Description string    // Longer description shown on the dish page.
	Price       int64     // Price in cents, to keep money arithmetic exact.
	ImageURL    string    // Public URL of the dish image.
	Tags        []string  // Cuisine/diet tags, e.g. "vegan", "thai".
	Available   bool      // Whether the dish can currently be ordered.
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CartItem converts the dish into a quantity-less cart line item payload.
func (d *Dish) CartItem() CartItem {
	return CartItem{
		DishID:      d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		ImageURL:    d.ImageURL,
		CookID:      d.CookID,
		CookName:    d.CookName,
		Tags:        d.Tags,
	}
}

// NearbyCook is a read model for cook discovery, pairing a cook profile with
// its distance from the query point.
type NearbyCook struct {
	UserID      uuid.UUID
	KitchenName string
	Bio         string
	Latitude    float64
	Longitude   float64
	Rating      float64
	DistanceKm  float64
}
