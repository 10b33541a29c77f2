// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"
	"io"

	"eatsy/internal/domain/entity"
	"eatsy/internal/domain/repository"

	"github.com/google/uuid"
)

// CreateDishInput defines the data required for a cook to publish a dish.
type CreateDishInput struct {
	CookID      uuid.UUID
	Name        string
	Description string
	Price       int64
	Tags        []string
	Available   bool
}

// UpdateDishInput carries the mutable dish fields. Nil pointers leave the
// corresponding field unchanged.
type UpdateDishInput struct {
	CookID      uuid.UUID
	DishID      uuid.UUID
	Name        *string
	Description *string
	Price       *int64
	Tags        []string
	Available   *bool
}

// UploadDishImageInput carries the raw image payload for a dish.
type UploadDishImageInput struct {
	CookID      uuid.UUID
	DishID      uuid.UUID
	ContentType string
	Body        io.Reader
}

// NearbyCooksInput defines the query point for cook discovery. RadiusKm of
// zero falls back to the configured default radius.
type NearbyCooksInput struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// CatalogUsecase defines the interface for dish catalog and cook discovery operations.
type CatalogUsecase interface {
	// CreateDish publishes a new dish owned by the given cook.
	CreateDish(ctx context.Context, input *CreateDishInput) (*entity.Dish, error)

	// GetDish retrieves a single dish by ID.
	GetDish(ctx context.Context, dishID uuid.UUID) (*entity.Dish, error)

	// ListDishes retrieves dishes matching the filter, newest first.
	ListDishes(ctx context.Context, filter repository.DishListFilter) ([]*entity.Dish, error)

	// UpdateDish modifies a dish. Only the owning cook may update it.
	UpdateDish(ctx context.Context, input *UpdateDishInput) (*entity.Dish, error)

	// DeleteDish removes a dish. Only the owning cook may delete it.
	DeleteDish(ctx context.Context, cookID, dishID uuid.UUID) error

	// UploadDishImage stores a dish photo and records its public URL on the dish.
	UploadDishImage(ctx context.Context, input *UploadDishImageInput) (*entity.Dish, error)

	// NearbyCooks lists cooks within the given radius of a point, closest first.
	NearbyCooks(ctx context.Context, input *NearbyCooksInput) ([]*entity.NearbyCook, error)
}
