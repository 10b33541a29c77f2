// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"eatsy/config"
	deliverycontext "eatsy/internal/delivery/context"
	"eatsy/internal/domain/entity"
	domainerrors "eatsy/internal/domain/errors"
	"eatsy/internal/domain/repository"
	"eatsy/internal/domain/service"
	"eatsy/internal/usecase"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Discovery radius defaults, used when the configuration leaves them unset.
const (
	defaultDiscoveryRadiusKm = 5.0
	maxDiscoveryRadiusKm     = 50.0
)

// catalogService implements the CatalogUsecase interface.
type catalogService struct {
	dishRepo        repository.DishRepository
	userRepo        repository.UserRepository
	imageStorage    service.ImageStorage
	defaultRadiusKm float64
	maxRadiusKm     float64
	logger          *slog.Logger
}

// CatalogServiceParams holds dependencies for catalogService, injected by Fx.
type CatalogServiceParams struct {
	fx.In

	DishRepo     repository.DishRepository
	UserRepo     repository.UserRepository
	ImageStorage service.ImageStorage
	Config       *config.Config
	Logger       *slog.Logger
}

// NewCatalogService is the constructor for catalogService.
func NewCatalogService(params CatalogServiceParams) usecase.CatalogUsecase {
	defaultRadius := defaultDiscoveryRadiusKm
	maxRadius := maxDiscoveryRadiusKm
	if cfg := params.Config.Discovery; cfg != nil {
		if cfg.DefaultRadiusKm > 0 {
			defaultRadius = cfg.DefaultRadiusKm
		}
		if cfg.MaxRadiusKm > 0 {
			maxRadius = cfg.MaxRadiusKm
		}
	}

	return &catalogService{
		dishRepo:        params.DishRepo,
		userRepo:        params.UserRepo,
		imageStorage:    params.ImageStorage,
		defaultRadiusKm: defaultRadius,
		maxRadiusKm:     maxRadius,
		logger:          params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *catalogService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreateDish publishes a new dish owned by the given cook.
func (srv *catalogService) CreateDish(ctx context.Context, input *usecase.CreateDishInput) (*entity.Dish, error) {
	cook, err := srv.loadCook(ctx, input.CookID)
	if err != nil {
		return nil, err
	}

	dish := &entity.Dish{
		CookID:      input.CookID,
		CookName:    cook.CookProfile.KitchenName,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Tags:        input.Tags,
		Available:   input.Available,
	}

	if err := srv.dishRepo.Create(ctx, dish); err != nil {
		srv.log(ctx).Error("Failed to create dish", slog.Any("cookID", input.CookID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to create dish")
	}
	srv.log(ctx).Info("Dish created", slog.Any("dishID", dish.ID), slog.Any("cookID", input.CookID))

	return dish, nil
}

// GetDish retrieves a single dish by ID.
func (srv *catalogService) GetDish(ctx context.Context, dishID uuid.UUID) (*entity.Dish, error) {
	dish, err := srv.dishRepo.FindByID(ctx, dishID)
	if err != nil {
		if errors.Is(err, repository.ErrDishNotFound) {
			return nil, domainerrors.ErrDishNotFound.WrapMessage("dish does not exist")
		}

		return nil, errors.Wrap(err, "failed to find dish")
	}

	srv.fillCookNames(ctx, dish)

	return dish, nil
}

// ListDishes retrieves dishes matching the filter, newest first.
func (srv *catalogService) ListDishes(ctx context.Context, filter repository.DishListFilter) ([]*entity.Dish, error) {
	dishes, err := srv.dishRepo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list dishes")
	}

	srv.fillCookNames(ctx, dishes...)

	return dishes, nil
}

// UpdateDish modifies a dish on behalf of its owning cook.
func (srv *catalogService) UpdateDish(ctx context.Context, input *usecase.UpdateDishInput) (*entity.Dish, error) {
	dish, err := srv.loadOwnedDish(ctx, input.CookID, input.DishID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		dish.Name = *input.Name
	}
	if input.Description != nil {
		dish.Description = *input.Description
	}
	if input.Price != nil {
		dish.Price = *input.Price
	}
	if input.Tags != nil {
		dish.Tags = input.Tags
	}
	if input.Available != nil {
		dish.Available = *input.Available
	}

	if err := srv.dishRepo.Update(ctx, dish); err != nil {
		srv.log(ctx).Error("Failed to update dish", slog.Any("dishID", input.DishID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to update dish")
	}

	return dish, nil
}

// DeleteDish removes a dish on behalf of its owning cook.
func (srv *catalogService) DeleteDish(ctx context.Context, cookID, dishID uuid.UUID) error {
	if _, err := srv.loadOwnedDish(ctx, cookID, dishID); err != nil {
		return err
	}

	if err := srv.dishRepo.Delete(ctx, dishID); err != nil {
		srv.log(ctx).Error("Failed to delete dish", slog.Any("dishID", dishID), slog.Any("error", err))

		return errors.Wrap(err, "failed to delete dish")
	}
	srv.log(ctx).Info("Dish deleted", slog.Any("dishID", dishID), slog.Any("cookID", cookID))

	return nil
}

// UploadDishImage stores a dish photo and records its public URL on the dish.
func (srv *catalogService) UploadDishImage(ctx context.Context, input *usecase.UploadDishImageInput) (*entity.Dish, error) {
	dish, err := srv.loadOwnedDish(ctx, input.CookID, input.DishID)
	if err != nil {
		return nil, err
	}

	// A fresh key per upload so stale CDN caches never serve the old image.
	key := fmt.Sprintf("dishes/%s/%s", input.DishID, uuid.NewString())

	url, err := srv.imageStorage.Upload(ctx, key, input.ContentType, input.Body)
	if err != nil {
		srv.log(ctx).Error("Failed to upload dish image", slog.Any("dishID", input.DishID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to upload dish image")
	}

	dish.ImageURL = url
	if err := srv.dishRepo.Update(ctx, dish); err != nil {
		return nil, errors.Wrap(err, "failed to record dish image url")
	}
	srv.log(ctx).Info("Dish image uploaded", slog.Any("dishID", input.DishID), slog.String("key", key))

	return dish, nil
}

// NearbyCooks lists cooks within the given radius of a point, closest first.
func (srv *catalogService) NearbyCooks(ctx context.Context, input *usecase.NearbyCooksInput) ([]*entity.NearbyCook, error) {
	radiusKm := input.RadiusKm
	if radiusKm <= 0 {
		radiusKm = srv.defaultRadiusKm
	}
	if radiusKm > srv.maxRadiusKm {
		radiusKm = srv.maxRadiusKm
	}

	cooks, err := srv.userRepo.ListCooks(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cooks")
	}

	origin := orb.Point{input.Longitude, input.Latitude}

	nearby := make([]*entity.NearbyCook, 0, len(cooks))
	for _, cook := range cooks {
		profile := cook.CookProfile
		if profile == nil {
			continue
		}

		distanceKm := geo.Distance(origin, orb.Point{profile.Longitude, profile.Latitude}) / 1000
		if distanceKm > radiusKm {
			continue
		}

		nearby = append(nearby, &entity.NearbyCook{
			UserID:      cook.ID,
			KitchenName: profile.KitchenName,
			Bio:         profile.Bio,
			Latitude:    profile.Latitude,
			Longitude:   profile.Longitude,
			Rating:      profile.Rating,
			DistanceKm:  distanceKm,
		})
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	return nearby, nil
}

// loadCook loads a user and ensures they carry a cook profile.
func (srv *catalogService) loadCook(ctx context.Context, cookID uuid.UUID) (*entity.User, error) {
	cook, err := srv.userRepo.FindByID(ctx, cookID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound.WrapMessage("cook does not exist")
		}

		return nil, errors.Wrap(err, "failed to find cook")
	}

	if cook.CookProfile == nil {
		return nil, errors.Wrap(domainerrors.ErrForbidden, "user has no cook profile")
	}

	return cook, nil
}

// loadOwnedDish loads a dish and verifies the cook owns it.
func (srv *catalogService) loadOwnedDish(ctx context.Context, cookID, dishID uuid.UUID) (*entity.Dish, error) {
	dish, err := srv.dishRepo.FindByID(ctx, dishID)
	if err != nil {
		if errors.Is(err, repository.ErrDishNotFound) {
			return nil, domainerrors.ErrDishNotFound.WrapMessage("dish does not exist")
		}

		return nil, errors.Wrap(err, "failed to find dish")
	}

	if dish.CookID != cookID {
		srv.log(ctx).Warn("Dish ownership violation", slog.Any("dishID", dishID), slog.Any("cookID", cookID))

		return nil, errors.Wrap(domainerrors.ErrDishOwnershipViolation, "dish belongs to another cook")
	}

	return dish, nil
}

// fillCookNames resolves the denormalized kitchen name for listing views.
// Lookups are cached per call, one per distinct cook.
func (srv *catalogService) fillCookNames(ctx context.Context, dishes ...*entity.Dish) {
	names := make(map[uuid.UUID]string)
	for _, dish := range dishes {
		if dish.CookName != "" {
			continue
		}

		name, ok := names[dish.CookID]
		if !ok {
			cook, err := srv.userRepo.FindByID(ctx, dish.CookID)
			if err == nil && cook.CookProfile != nil {
				name = cook.CookProfile.KitchenName
			}
			names[dish.CookID] = name
		}
		dish.CookName = name
	}
}
