// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"sync"

	deliverycontext "eatsy/internal/delivery/context"
	"eatsy/internal/domain/entity"
	domainerrors "eatsy/internal/domain/errors"
	"eatsy/internal/domain/repository"
	"eatsy/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// cartService implements the CartUsecase interface.
//
// Every mutation is a load-modify-store cycle against the cart repository,
// serialized by a single mutex so two concurrent mutations can never interleave
// their read and write halves and lose an update. The mutex also covers reads,
// which keeps GetCart from observing a half-written cycle.
type cartService struct {
	mu       sync.Mutex
	cartRepo repository.CartRepository
	dishRepo repository.DishRepository
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// CartServiceParams holds dependencies for cartService, injected by Fx.
type CartServiceParams struct {
	fx.In

	CartRepo repository.CartRepository
	DishRepo repository.DishRepository
	UserRepo repository.UserRepository
	Logger   *slog.Logger
}

// NewCartService is the constructor for cartService.
func NewCartService(params CartServiceParams) usecase.CartUsecase {
	return &cartService{
		cartRepo: params.CartRepo,
		dishRepo: params.DishRepo,
		userRepo: params.UserRepo,
		logger:   params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *cartService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetCart retrieves the user's current cart.
func (srv *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*entity.Cart, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	cart, err := srv.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load cart")
	}

	return cart, nil
}

// AddItem adds one unit of a dish to the user's cart.
func (srv *cartService) AddItem(ctx context.Context, userID, dishID uuid.UUID) (*entity.Cart, error) {
	// Dish validation happens before taking the cart lock so a slow catalog
	// query never blocks other customers' cart mutations.
	item, err := srv.buildCartItem(ctx, dishID)
	if err != nil {
		srv.log(ctx).Warn("Failed to add item to cart", slog.Any("userID", userID), slog.Any("dishID", dishID), slog.Any("error", err))

		return nil, err
	}

	return srv.mutate(ctx, userID, func(cart *entity.Cart) {
		cart.AddItem(*item)
	})
}

// RemoveItem removes a dish's line item from the user's cart.
func (srv *cartService) RemoveItem(ctx context.Context, userID, dishID uuid.UUID) (*entity.Cart, error) {
	return srv.mutate(ctx, userID, func(cart *entity.Cart) {
		cart.RemoveItem(dishID)
	})
}

// UpdateQuantity sets the quantity of a line item in the user's cart.
func (srv *cartService) UpdateQuantity(ctx context.Context, userID, dishID uuid.UUID, quantity int) (*entity.Cart, error) {
	return srv.mutate(ctx, userID, func(cart *entity.Cart) {
		cart.UpdateQuantity(dishID, quantity)
	})
}

// UpdateSpecialInstructions replaces the special instructions of a line item.
func (srv *cartService) UpdateSpecialInstructions(ctx context.Context, userID uuid.UUID, input *usecase.UpdateInstructionsInput) (*entity.Cart, error) {
	return srv.mutate(ctx, userID, func(cart *entity.Cart) {
		cart.UpdateSpecialInstructions(input.DishID, input.Instructions)
	})
}

// GetItemQuantity reports the quantity of a dish in the user's cart.
func (srv *cartService) GetItemQuantity(ctx context.Context, userID, dishID uuid.UUID) (int, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	cart, err := srv.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to load cart")
	}

	return cart.ItemQuantity(dishID), nil
}

// ClearCart empties the user's cart.
func (srv *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if err := srv.cartRepo.Delete(ctx, userID); err != nil {
		srv.log(ctx).Error("Failed to clear cart", slog.Any("userID", userID), slog.Any("error", err))

		return errors.Wrap(err, "failed to clear cart")
	}
	srv.log(ctx).Debug("Cart cleared", slog.Any("userID", userID))

	return nil
}

// mutate runs one serialized load-modify-store cycle and returns the cart
// after the write-through save.
func (srv *cartService) mutate(ctx context.Context, userID uuid.UUID, apply func(cart *entity.Cart)) (*entity.Cart, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	cart, err := srv.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load cart")
	}

	apply(cart)

	if err := srv.cartRepo.Save(ctx, userID, cart); err != nil {
		srv.log(ctx).Error("Failed to save cart", slog.Any("userID", userID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to save cart")
	}

	return cart, nil
}

// buildCartItem snapshots a dish into a cart line item payload, resolving the
// denormalized kitchen name from the owning cook's profile.
func (srv *cartService) buildCartItem(ctx context.Context, dishID uuid.UUID) (*entity.CartItem, error) {
	dish, err := srv.dishRepo.FindByID(ctx, dishID)
	if err != nil {
		if errors.Is(err, repository.ErrDishNotFound) {
			return nil, domainerrors.ErrDishNotFound.WrapMessage("dish does not exist")
		}

		return nil, errors.Wrap(err, "failed to load dish for cart")
	}

	if !dish.Available {
		return nil, domainerrors.ErrDishUnavailable.WrapMessage("dish is not available for ordering")
	}

	if dish.CookName == "" {
		cook, err := srv.userRepo.FindByID(ctx, dish.CookID)
		if err == nil && cook.CookProfile != nil {
			dish.CookName = cook.CookProfile.KitchenName
		}
	}

	item := dish.CartItem()

	return &item, nil
}
