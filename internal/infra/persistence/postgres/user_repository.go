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
	"gorm.io/gorm/clause"
)

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a domain.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves a single user by their unique ID, preloading their associated profiles.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Preload("CustomerProfile").
		Preload("CookProfile").
		First(&userM, "id = ?", id).Error

	if err != nil {
		// If the error is 'record not found', return a domain-specific error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		// Otherwise, return the original database error.
		return nil, errors.Wrap(err, "failed to find user by id")
	}

	// Map the persistence model back to a pure domain entity before returning.
	return toUserDomain(&userM), nil
}

// FindByEmail retrieves a single user by their email address, preloading profiles.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Preload("CustomerProfile").
		Preload("CookProfile").
		First(&userM, "email = ?", email).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	return toUserDomain(&userM), nil
}

// Create persists a new user entity, including its associated profiles, to the database.
// GORM's Create with associations will handle inserting into users, customer_profiles,
// and/or cook_profiles within a single statement batch.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	// Map the pure domain entity to a GORM persistence model.
	userM := fromUserDomain(user)

	// Execute the creation using the database connection.
	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrUserCreationFailed.WrapMessage("missing required user information")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserCreationFailed.WrapMessage("invalid foreign key reference")
		}
		// For other database errors, return a generic database error
		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	// Update the user entity with the generated ID and timestamps
	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	// Update profile IDs if they exist
	if user.CustomerProfile != nil && userM.CustomerProfile != nil {
		user.CustomerProfile.UserID = userM.CustomerProfile.UserID
		user.CustomerProfile.UpdatedAt = userM.CustomerProfile.UpdatedAt
	}
	if user.CookProfile != nil && userM.CookProfile != nil {
		user.CookProfile.UserID = userM.CookProfile.UserID
		user.CookProfile.UpdatedAt = userM.CookProfile.UpdatedAt
	}

	return nil
}

// Update modifies an existing user entity, including its associated profiles, in the database.
func (repo *userRepository) Update(ctx context.Context, user *entity.User) error {
	// Map the pure domain entity to a GORM persistence model.
	userM := fromUserDomain(user)

	// Use Session with FullSaveAssociations to update nested associations
	if err := repo.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(userM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrUserUpdateFailed.WrapMessage("missing required user information")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserUpdateFailed.WrapMessage("invalid foreign key reference")
		}
		// For other database errors, return a generic database error
		return domainerrors.NewDatabaseExecuteError(err, "failed to update user")
	}

	// Update the user entity with the updated timestamps
	user.UpdatedAt = userM.UpdatedAt
	if user.CustomerProfile != nil && userM.CustomerProfile != nil {
		user.CustomerProfile.UpdatedAt = userM.CustomerProfile.UpdatedAt
	}
	if user.CookProfile != nil && userM.CookProfile != nil {
		user.CookProfile.UpdatedAt = userM.CookProfile.UpdatedAt
	}

	return nil
}

// ListCooks retrieves all users that have a cook profile attached.
func (repo *userRepository) ListCooks(ctx context.Context) ([]*entity.User, error) {
	var userModels []*model.UserModel
	err := repo.db.WithContext(ctx).
		Joins("CookProfile").
		Where("\"CookProfile\".user_id IS NOT NULL").
		Find(&userModels).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cooks")
	}

	users := make([]*entity.User, 0, len(userModels))
	for _, userM := range userModels {
		users = append(users, toUserDomain(userM))
	}

	return users, nil
}

// AcquireSessionMutex locks the user's row with SELECT ... FOR UPDATE for the
// rest of the current transaction, serializing concurrent session-limit checks.
func (repo *userRepository) AcquireSessionMutex(ctx context.Context, userID uuid.UUID) error {
	var userM model.UserModel
	err := repo.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&userM, "id = ?", userID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrUserNotFound
		}

		return errors.Wrap(err, "failed to lock user row")
	}

	return nil
}

// --- Mapper Functions ---
// These helpers convert between domain entities and persistence models.

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:              data.ID,
		Email:           data.Email,
		Name:            data.Name,
		CustomerProfile: toCustomerProfileDomain(data.CustomerProfile),
		CookProfile:     toCookProfileDomain(data.CookProfile),
		CreatedAt:       data.CreatedAt,
		UpdatedAt:       data.UpdatedAt,
	}
}

// fromUserDomain converts a domain User entity to a GORM UserModel for persistence.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	return &model.UserModel{
		ID:              data.ID,
		Email:           data.Email,
		Name:            data.Name,
		CustomerProfile: fromCustomerProfileDomain(data.CustomerProfile),
		CookProfile:     fromCookProfileDomain(data.CookProfile),
	}
}

// toCustomerProfileDomain converts a GORM CustomerProfileModel to a domain CustomerProfile entity.
func toCustomerProfileDomain(data *model.CustomerProfileModel) *entity.CustomerProfile {
	if data == nil {
		return nil
	}

	return &entity.CustomerProfile{
		UserID:            data.UserID,
		DefaultAddress:    data.DefaultAddress,
		DietaryNotes:      data.DietaryNotes,
		FavouriteCuisines: data.FavouriteCuisines,
		UpdatedAt:         data.UpdatedAt,
	}
}

// fromCustomerProfileDomain converts a domain CustomerProfile entity to a GORM CustomerProfileModel.
func fromCustomerProfileDomain(data *entity.CustomerProfile) *model.CustomerProfileModel {
	if data == nil {
		return nil
	}

	return &model.CustomerProfileModel{
		UserID:            data.UserID,
		DefaultAddress:    data.DefaultAddress,
		DietaryNotes:      data.DietaryNotes,
		FavouriteCuisines: data.FavouriteCuisines,
		UpdatedAt:         data.UpdatedAt,
	}
}

// toCookProfileDomain converts a GORM CookProfileModel to a domain CookProfile entity.
func toCookProfileDomain(data *model.CookProfileModel) *entity.CookProfile {
	if data == nil {
		return nil
	}

	return &entity.CookProfile{
		UserID:      data.UserID,
		KitchenName: data.KitchenName,
		Bio:         data.Bio,
		Latitude:    data.Latitude,
		Longitude:   data.Longitude,
		Rating:      data.Rating,
		UpdatedAt:   data.UpdatedAt,
	}
}

// fromCookProfileDomain converts a domain CookProfile entity to a GORM CookProfileModel.
func fromCookProfileDomain(data *entity.CookProfile) *model.CookProfileModel {
	if data == nil {
		return nil
	}

	return &model.CookProfileModel{
		UserID:      data.UserID,
		KitchenName: data.KitchenName,
		Bio:         data.Bio,
		Latitude:    data.Latitude,
		Longitude:   data.Longitude,
		Rating:      data.Rating,
		UpdatedAt:   data.UpdatedAt,
	}
}
