// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"eatsy/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrDishNotFound is a domain-specific error returned when a dish is not found.
var ErrDishNotFound = errors.New("dish not found")

// DishListFilter narrows ListDishes results. Zero values mean "no filter".
type DishListFilter struct {
	CookID        uuid.UUID // Only dishes owned by this cook.
	Tag           string    // Only dishes carrying this tag.
	OnlyAvailable bool      // Exclude dishes marked unavailable.
}

// DishRepository defines the standard operations for dish persistence.
type DishRepository interface {
	// Create persists a new dish entity to the storage.
	Create(ctx context.Context, dish *entity.Dish) error

	// FindByID retrieves a single dish by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Dish, error)

	// List retrieves dishes matching the filter, newest first.
	List(ctx context.Context, filter DishListFilter) ([]*entity.Dish, error)

	// Update modifies an existing dish entity in the storage.
	Update(ctx context.Context, dish *entity.Dish) error

	// Delete removes a dish by its ID.
	Delete(ctx context.Context, id uuid.UUID) error
}
