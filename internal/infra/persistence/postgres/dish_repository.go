// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"eatsy/internal/domain/entity"
	domainerrors "eatsy/internal/domain/errors"
	"eatsy/internal/domain/repository"
	"eatsy/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// dishRepository implements the domain.DishRepository interface.
type dishRepository struct {
	db *gorm.DB
}

// NewDishRepository is the constructor for dishRepository.
func NewDishRepository(db *gorm.DB) repository.DishRepository {
	return &dishRepository{db: db}
}

// Create persists a new dish record.
func (repo *dishRepository) Create(ctx context.Context, dish *entity.Dish) error {
	dishM := fromDishDomain(dish)

	if err := repo.db.WithContext(ctx).Create(dishM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrDishNotFound.WrapMessage("invalid cook reference")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required dish information")
		}
		// For other database errors, return a generic database error
		return domainerrors.NewDatabaseExecuteError(err, "failed to create dish")
	}

	// Update the entity with generated values
	dish.ID = dishM.ID
	dish.CreatedAt = dishM.CreatedAt
	dish.UpdatedAt = dishM.UpdatedAt

	return nil
}

// FindByID retrieves a single dish by its unique ID.
func (repo *dishRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Dish, error) {
	var dishM model.DishModel
	err := repo.db.WithContext(ctx).First(&dishM, "id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrDishNotFound
		}

		return nil, errors.Wrap(err, "failed to find dish by id")
	}

	return toDishDomain(&dishM), nil
}

// List retrieves dishes matching the filter, newest first.
func (repo *dishRepository) List(ctx context.Context, filter repository.DishListFilter) ([]*entity.Dish, error) {
	tx := repo.db.WithContext(ctx).Model(&model.DishModel{})

	if filter.CookID != uuid.Nil {
		tx = tx.Where("cook_id = ?", filter.CookID)
	}
	if filter.Tag != "" {
		// Tags are stored as a JSONB array; containment covers the single-tag filter.
		tx = tx.Where("tags @> ?", `["`+filter.Tag+`"]`)
	}
	if filter.OnlyAvailable {
		tx = tx.Where("available = ?", true)
	}

	var dishModels []*model.DishModel
	if err := tx.Order("created_at DESC").Find(&dishModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list dishes")
	}

	dishes := make([]*entity.Dish, 0, len(dishModels))
	for _, dishM := range dishModels {
		dishes = append(dishes, toDishDomain(dishM))
	}

	return dishes, nil
}

// Update modifies an existing dish record.
func (repo *dishRepository) Update(ctx context.Context, dish *entity.Dish) error {
	dishM := fromDishDomain(dish)

	result := repo.db.WithContext(ctx).
		Model(&model.DishModel{}).
		Where("id = ?", dish.ID).
		Updates(map[string]any{
			"name":        dishM.Name,
			"description": dishM.Description,
			"price":       dishM.Price,
			"image_url":   dishM.ImageURL,
			"tags":        dishM.Tags,
			"available":   dishM.Available,
		})
	if result.Error != nil {
		if isNotNullConstraintViolation(result.Error) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required dish information")
		}

		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update dish")
	}

	if result.RowsAffected == 0 {
		return repository.ErrDishNotFound
	}

	return nil
}

// Delete removes a dish by its ID.
func (repo *dishRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Delete(&model.DishModel{}, "id = ?", id)
	if result.Error != nil {
		return errors.WithStack(result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrDishNotFound
	}

	return nil
}

// --- Mapper Functions ---

// toDishDomain converts a GORM DishModel to a domain Dish entity.
func toDishDomain(data *model.DishModel) *entity.Dish {
	if data == nil {
		return nil
	}

	return &entity.Dish{
		ID:          data.ID,
		CookID:      data.CookID,
		Name:        data.Name,
		Description: data.Description,
		Price:       data.Price,
		ImageURL:    data.ImageURL,
		Tags:        data.Tags,
		Available:   data.Available,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}

// fromDishDomain converts a domain Dish entity to a GORM DishModel.
func fromDishDomain(data *entity.Dish) *model.DishModel {
	if data == nil {
		return nil
	}

	return &model.DishModel{
		ID:          data.ID,
		CookID:      data.CookID,
		Name:        data.Name,
		Description: data.Description,
		Price:       data.Price,
		ImageURL:    data.ImageURL,
		Tags:        data.Tags,
		Available:   data.Available,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}
