// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "eatsy/internal/delivery/context"
	"eatsy/internal/domain/entity"
	domainerrors "eatsy/internal/domain/errors"
	"eatsy/internal/domain/repository"
	"eatsy/internal/domain/service"
	"eatsy/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// allowedStatusTransitions maps each order status to the states it may move to.
var allowedStatusTransitions = map[entity.OrderStatus][]entity.OrderStatus{
	entity.OrderStatusPlaced:   {entity.OrderStatusAccepted, entity.OrderStatusCancelled},
	entity.OrderStatusAccepted: {entity.OrderStatusReady, entity.OrderStatusCancelled},
	entity.OrderStatusReady:    {entity.OrderStatusCompleted},
}

// orderService implements the OrderUsecase interface.
type orderService struct {
	txManager      repository.TransactionManager
	cartRepo       repository.CartRepository
	orderRepo      repository.OrderRepository
	eventPublisher service.EventPublisher
	qrcodeService  service.QRCodeService
	logger         *slog.Logger
}

// OrderServiceParams holds dependencies for orderService, injected by Fx.
type OrderServiceParams struct {
	fx.In

	TxManager      repository.TransactionManager
	CartRepo       repository.CartRepository
	OrderRepo      repository.OrderRepository
	EventPublisher service.EventPublisher
	QRCodeService  service.QRCodeService
	Logger         *slog.Logger
}

// NewOrderService is the constructor for orderService.
func NewOrderService(params OrderServiceParams) usecase.OrderUsecase {
	return &orderService{
		txManager:      params.TxManager,
		cartRepo:       params.CartRepo,
		orderRepo:      params.OrderRepo,
		eventPublisher: params.EventPublisher,
		qrcodeService:  params.QRCodeService,
		logger:         params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *orderService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Checkout snapshots the user's cart into an immutable order, clears the cart
// and announces the new order to the owning cooks.
func (srv *orderService) Checkout(ctx context.Context, input *usecase.CheckoutInput) (*entity.Order, error) {
	srv.log(ctx).Info("Starting checkout", slog.Any("userID", input.UserID))

	cart, err := srv.cartRepo.FindByUserID(ctx, input.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load cart for checkout")
	}
	if cart.IsEmpty() {
		return nil, errors.Wrap(domainerrors.ErrCartEmpty, "cannot checkout an empty cart")
	}

	var order *entity.Order
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		dishRepo := repoFactory.NewDishRepository()
		orderRepo := repoFactory.NewOrderRepository()

		var buildErr error
		order, buildErr = srv.buildOrder(ctx, dishRepo, input, cart)
		if buildErr != nil {
			return buildErr
		}

		if err := orderRepo.Create(ctx, order); err != nil {
			return errors.Wrap(err, "failed to create order")
		}

		return nil
	})

	if err != nil {
		srv.log(ctx).Error("Failed to execute checkout transaction", slog.Any("userID", input.UserID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute checkout transaction")
	}

	// The order is committed; a failed cart cleanup only leaves a stale cart
	// behind, so it must not fail the checkout.
	if err := srv.cartRepo.Delete(ctx, input.UserID); err != nil {
		srv.log(ctx).Warn("Failed to clear cart after checkout", slog.Any("userID", input.UserID), slog.Any("error", err))
	}

	srv.publishOrderEvent(ctx, order)
	srv.log(ctx).Info("Checkout completed", slog.Any("orderID", order.ID), slog.Any("userID", input.UserID))

	return order, nil
}

// buildOrder freezes the cart into order line items, re-reading every dish so
// prices and availability reflect the catalog at checkout time, not at the
// moment the item entered the cart.
func (srv *orderService) buildOrder(ctx context.Context, dishRepo repository.DishRepository, input *usecase.CheckoutInput, cart *entity.Cart) (*entity.Order, error) {
	items := make([]entity.OrderItem, 0, len(cart.Items))
	var total int64

	for _, cartItem := range cart.Items {
		dish, err := dishRepo.FindByID(ctx, cartItem.DishID)
		if err != nil {
			if errors.Is(err, repository.ErrDishNotFound) {
				return nil, domainerrors.ErrDishUnavailable.WrapMessage("dish was removed from the catalog")
			}

			return nil, errors.Wrap(err, "failed to load dish for checkout")
		}
		if !dish.Available {
			return nil, domainerrors.ErrDishUnavailable.WrapMessage("dish is no longer available")
		}

		items = append(items, entity.OrderItem{
			DishID:              dish.ID,
			Name:                dish.Name,
			UnitPrice:           dish.Price,
			Quantity:            cartItem.Quantity,
			CookID:              dish.CookID,
			SpecialInstructions: cartItem.SpecialInstructions,
		})
		total += dish.Price * int64(cartItem.Quantity)
	}

	return &entity.Order{
		UserID:      input.UserID,
		Items:       items,
		TotalAmount: total,
		Note:        input.Note,
		Status:      entity.OrderStatusPlaced,
	}, nil
}

// GetOrder retrieves a single order for its customer or one of its cooks.
func (srv *orderService) GetOrder(ctx context.Context, requesterID, orderID uuid.UUID) (*entity.Order, error) {
	order, err := srv.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != requesterID && !orderHasCook(order, requesterID) {
		return nil, errors.Wrap(domainerrors.ErrOrderOwnershipViolation, "order belongs to another user")
	}

	return order, nil
}

// ListOrders retrieves all orders placed by a customer, newest first.
func (srv *orderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]*entity.Order, error) {
	orders, err := srv.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	return orders, nil
}

// UpdateStatus transitions an order on behalf of a cook that owns at least
// one of its line items.
func (srv *orderService) UpdateStatus(ctx context.Context, input *usecase.UpdateOrderStatusInput) (*entity.Order, error) {
	if !input.Status.IsValid() {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "unknown order status")
	}

	var order *entity.Order
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		orderRepo := repoFactory.NewOrderRepository()

		var loadErr error
		order, loadErr = orderRepo.FindByID(ctx, input.OrderID)
		if loadErr != nil {
			if errors.Is(loadErr, repository.ErrOrderNotFound) {
				return domainerrors.ErrOrderNotFound.WrapMessage("order does not exist")
			}

			return errors.Wrap(loadErr, "failed to find order")
		}

		if !orderHasCook(order, input.CookID) {
			return errors.Wrap(domainerrors.ErrOrderOwnershipViolation, "cook has no line item in this order")
		}

		if !statusTransitionAllowed(order.Status, input.Status) {
			return domainerrors.ErrConflict.WrapMessage("order status transition not allowed")
		}

		if err := orderRepo.UpdateStatus(ctx, input.OrderID, input.Status); err != nil {
			return errors.Wrap(err, "failed to update order status")
		}
		order.Status = input.Status

		return nil
	})

	if err != nil {
		srv.log(ctx).Error("Failed to update order status", slog.Any("orderID", input.OrderID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute order status transaction")
	}

	srv.publishOrderEvent(ctx, order)
	srv.log(ctx).Info("Order status updated", slog.Any("orderID", order.ID), slog.Any("status", order.Status))

	return order, nil
}

// GetPickupQR returns the QR code image the customer shows at pickup.
func (srv *orderService) GetPickupQR(ctx context.Context, userID, orderID uuid.UUID) ([]byte, error) {
	order, err := srv.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		return nil, errors.Wrap(domainerrors.ErrOrderOwnershipViolation, "order belongs to another user")
	}

	qr, err := srv.qrcodeService.GeneratePickupQR(orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate pickup qr code")
	}

	return qr, nil
}

// CompletePickup resolves a scanned pickup QR to its order and marks the
// order completed.
func (srv *orderService) CompletePickup(ctx context.Context, input *usecase.CompletePickupInput) (*entity.Order, error) {
	orderID, err := srv.qrcodeService.ParsePickupQR(input.QRData)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse pickup qr code")
	}

	return srv.UpdateStatus(ctx, &usecase.UpdateOrderStatusInput{
		CookID:  input.CookID,
		OrderID: orderID,
		Status:  entity.OrderStatusCompleted,
	})
}

func (srv *orderService) loadOrder(ctx context.Context, orderID uuid.UUID) (*entity.Order, error) {
	order, err := srv.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, domainerrors.ErrOrderNotFound.WrapMessage("order does not exist")
		}

		return nil, errors.Wrap(err, "failed to find order")
	}

	return order, nil
}

// publishOrderEvent announces an order lifecycle change. Publishing is
// best-effort: the order is already committed, so a broker outage must not
// fail the request.
func (srv *orderService) publishOrderEvent(ctx context.Context, order *entity.Order) {
	event := &service.OrderEvent{
		RequestID:   deliverycontext.GetRequestIDFromContext(ctx),
		OrderID:     order.ID.String(),
		UserID:      order.UserID.String(),
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		CookIDs:     distinctCookIDs(order),
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	}

	if err := srv.eventPublisher.PublishOrderEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish order event", slog.Any("orderID", order.ID), slog.Any("error", err))
	}
}

// orderHasCook reports whether the cook owns at least one line item.
func orderHasCook(order *entity.Order, cookID uuid.UUID) bool {
	for i := range order.Items {
		if order.Items[i].CookID == cookID {
			return true
		}
	}

	return false
}

// statusTransitionAllowed reports whether an order may move between two states.
func statusTransitionAllowed(from, to entity.OrderStatus) bool {
	for _, allowed := range allowedStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// distinctCookIDs collects the unique cooks across an order's line items.
func distinctCookIDs(order *entity.Order) []string {
	seen := make(map[uuid.UUID]struct{}, len(order.Items))
	ids := make([]string, 0, len(order.Items))
	for i := range order.Items {
		cookID := order.Items[i].CookID
		if _, ok := seen[cookID]; ok {
			continue
		}
		seen[cookID] = struct{}{}
		ids = append(ids, cookID.String())
	}

	return ids
}
