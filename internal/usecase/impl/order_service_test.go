package impl

import (
	"context"
	"testing"

	"eatsy/internal/domain/entity"
	domainerrors "eatsy/internal/domain/errors"
	"eatsy/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderServiceFixture struct {
	service   usecase.OrderUsecase
	cartRepo  *fakeCartRepo
	dishRepo  *fakeDishRepo
	orderRepo *fakeOrderRepo
	publisher *fakePublisher
}

func newOrderServiceFixture() *orderServiceFixture {
	cartRepo := newFakeCartRepo()
	dishRepo := newFakeDishRepo()
	orderRepo := newFakeOrderRepo()
	publisher := &fakePublisher{}
	factory := &fakeRepoFactory{
		userRepo:    newFakeUserRepo(),
		authRepo:    newFakeAuthRepo(),
		refreshRepo: newFakeRefreshTokenRepo(),
		dishRepo:    dishRepo,
		orderRepo:   orderRepo,
	}

	return &orderServiceFixture{
		service: NewOrderService(OrderServiceParams{
			TxManager:      &fakeTxManager{factory: factory},
			CartRepo:       cartRepo,
			OrderRepo:      orderRepo,
			EventPublisher: publisher,
			QRCodeService:  &fakeQRCodeService{},
			Logger:         newDiscardLogger(),
		}),
		cartRepo:  cartRepo,
		dishRepo:  dishRepo,
		orderRepo: orderRepo,
		publisher: publisher,
	}
}

// seedCartWithDish puts a dish into the catalog and one unit of it into the
// user's cart, returning the dish.
func (f *orderServiceFixture) seedCartWithDish(t *testing.T, userID uuid.UUID, dish *entity.Dish, quantity int) *entity.Dish {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.dishRepo.Create(ctx, dish))

	cart, err := f.cartRepo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	cart.AddItem(dish.CartItem())
	cart.UpdateQuantity(dish.ID, quantity)
	require.NoError(t, f.cartRepo.Save(ctx, userID, cart))

	return dish
}

func TestOrderService_Checkout_Success(t *testing.T) {
	fixture := newOrderServiceFixture()
	userID := uuid.New()
	cookID := uuid.New()
	fixture.seedCartWithDish(t, userID, &entity.Dish{
		Name: "牛肉麵", CookID: cookID, Price: 180, Available: true,
	}, 2)

	order, err := fixture.service.Checkout(context.Background(), &usecase.CheckoutInput{
		UserID: userID,
		Note:   "下午五點取餐",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPlaced, order.Status)
	assert.Equal(t, userID, order.UserID)
	assert.Equal(t, "下午五點取餐", order.Note)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, int64(360), order.TotalAmount)

	// The cart is cleared after a committed checkout.
	cart, err := fixture.cartRepo.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	// The placed event names the owning cook.
	require.Len(t, fixture.publisher.events, 1)
	event := fixture.publisher.events[0]
	assert.Equal(t, string(entity.OrderStatusPlaced), event.Status)
	assert.Equal(t, []string{cookID.String()}, event.CookIDs)
}

func TestOrderService_Checkout_EmptyCart(t *testing.T) {
	fixture := newOrderServiceFixture()

	_, err := fixture.service.Checkout(context.Background(), &usecase.CheckoutInput{UserID: uuid.New()})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrCartEmpty)
}

func TestOrderService_Checkout_ReReadsPriceAtCheckoutTime(t *testing.T) {
	fixture := newOrderServiceFixture()
	userID := uuid.New()
	dish := fixture.seedCartWithDish(t, userID, &entity.Dish{
		Name: "滷肉飯", CookID: uuid.New(), Price: 60, Available: true,
	}, 1)

	// Price changed after the item entered the cart.
	dish.Price = 75
	require.NoError(t, fixture.dishRepo.Update(context.Background(), dish))

	order, err := fixture.service.Checkout(context.Background(), &usecase.CheckoutInput{UserID: userID})

	require.NoError(t, err)
	assert.Equal(t, int64(75), order.Items[0].UnitPrice)
	assert.Equal(t, int64(75), order.TotalAmount)
}

func TestOrderService_Checkout_DishRemovedFromCatalog(t *testing.T) {
	fixture := newOrderServiceFixture()
	userID := uuid.New()
	dish := fixture.seedCartWithDish(t, userID, &entity.Dish{
		Name: "限量菜", CookID: uuid.New(), Price: 200, Available: true,
	}, 1)
	require.NoError(t, fixture.dishRepo.Delete(context.Background(), dish.ID))

	_, err := fixture.service.Checkout(context.Background(), &usecase.CheckoutInput{UserID: userID})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrDishUnavailable)
}

func TestOrderService_Checkout_DishNoLongerAvailable(t *testing.T) {
	fixture := newOrderServiceFixture()
	userID := uuid.New()
	dish := fixture.seedCartWithDish(t, userID, &entity.Dish{
		Name: "限量菜", CookID: uuid.New(), Price: 200, Available: true,
	}, 1)
	dish.Available = false
	require.NoError(t, fixture.dishRepo.Update(context.Background(), dish))

	_, err := fixture.service.Checkout(context.Background(), &usecase.CheckoutInput{UserID: userID})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrDishUnavailable)
}

func TestOrderService_Checkout_DistinctCookIDsInEvent(t *testing.T) {
	fixture := newOrderServiceFixture()
	userID := uuid.New()
	cookID := uuid.New()
	ctx := context.Background()

	first := &entity.Dish{Name: "菜一", CookID: cookID, Price: 100, Available: true}
	second := &entity.Dish{Name: "菜二", CookID: cookID, Price: 120, Available: true}
	require.NoError(t, fixture.dishRepo.Create(ctx, first))
	require.NoError(t, fixture.dishRepo.Create(ctx, second))

	cart, err := fixture.cartRepo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	cart.AddItem(first.CartItem())
	cart.AddItem(second.CartItem())
	require.NoError(t, fixture.cartRepo.Save(ctx, userID, cart))

	_, err = fixture.service.Checkout(ctx, &usecase.CheckoutInput{UserID: userID})

	require.NoError(t, err)
	require.Len(t, fixture.publisher.events, 1)
	assert.Equal(t, []string{cookID.String()}, fixture.publisher.events[0].CookIDs)
}

func TestOrderService_GetOrder_OwnershipEnforced(t *testing.T) {
	fixture := newOrderServiceFixture()
	userID := uuid.New()
	cookID := uuid.New()
	order := &entity.Order{
		UserID: userID,
		Items:  []entity.OrderItem{{DishID: uuid.New(), CookID: cookID, Quantity: 1}},
		Status: entity.OrderStatusPlaced,
	}
	require.NoError(t, fixture.orderRepo.Create(context.Background(), order))

	// Customer and cook can read it.
	_, err := fixture.service.GetOrder(context.Background(), userID, order.ID)
	require.NoError(t, err)
	_, err = fixture.service.GetOrder(context.Background(), cookID, order.ID)
	require.NoError(t, err)

	// A stranger cannot.
	_, err = fixture.service.GetOrder(context.Background(), uuid.New(), order.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrOrderOwnershipViolation)
}

func TestOrderService_UpdateStatus_HappyPath(t *testing.T) {
	fixture := newOrderServiceFixture()
	cookID := uuid.New()
	order := &entity.Order{
		UserID: uuid.New(),
		Items:  []entity.OrderItem{{DishID: uuid.New(), CookID: cookID, Quantity: 1}},
		Status: entity.OrderStatusPlaced,
	}
	require.NoError(t, fixture.orderRepo.Create(context.Background(), order))

	updated, err := fixture.service.UpdateStatus(context.Background(), &usecase.UpdateOrderStatusInput{
		CookID:  cookID,
		OrderID: order.ID,
		Status:  entity.OrderStatusAccepted,
	})

	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusAccepted, updated.Status)
	require.Len(t, fixture.publisher.events, 1)
	assert.Equal(t, string(entity.OrderStatusAccepted), fixture.publisher.events[0].Status)
}

func TestOrderService_UpdateStatus_InvalidStatus(t *testing.T) {
	fixture := newOrderServiceFixture()

	_, err := fixture.service.UpdateStatus(context.Background(), &usecase.UpdateOrderStatusInput{
		CookID:  uuid.New(),
		OrderID: uuid.New(),
		Status:  entity.OrderStatus("teleported"),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestOrderService_UpdateStatus_ForbiddenForOtherCook(t *testing.T) {
	fixture := newOrderServiceFixture()
	order := &entity.Order{
		UserID: uuid.New(),
		Items:  []entity.OrderItem{{DishID: uuid.New(), CookID: uuid.New(), Quantity: 1}},
		Status: entity.OrderStatusPlaced,
	}
	require.NoError(t, fixture.orderRepo.Create(context.Background(), order))

	_, err := fixture.service.UpdateStatus(context.Background(), &usecase.UpdateOrderStatusInput{
		CookID:  uuid.New(),
		OrderID: order.ID,
		Status:  entity.OrderStatusAccepted,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrOrderOwnershipViolation)
}

func TestOrderService_UpdateStatus_TransitionMatrix(t *testing.T) {
	cases := []struct {
		name    string
		from    entity.OrderStatus
		to      entity.OrderStatus
		allowed bool
	}{
		{name: "placed to accepted", from: entity.OrderStatusPlaced, to: entity.OrderStatusAccepted, allowed: true},
		{name: "placed to cancelled", from: entity.OrderStatusPlaced, to: entity.OrderStatusCancelled, allowed: true},
		{name: "placed to completed skips preparation", from: entity.OrderStatusPlaced, to: entity.OrderStatusCompleted, allowed: false},
		{name: "accepted to ready", from: entity.OrderStatusAccepted, to: entity.OrderStatusReady, allowed: true},
		{name: "accepted to cancelled", from: entity.OrderStatusAccepted, to: entity.OrderStatusCancelled, allowed: true},
		{name: "ready to completed", from: entity.OrderStatusReady, to: entity.OrderStatusCompleted, allowed: true},
		{name: "ready to cancelled after preparation", from: entity.OrderStatusReady, to: entity.OrderStatusCancelled, allowed: false},
		{name: "completed is terminal", from: entity.OrderStatusCompleted, to: entity.OrderStatusCancelled, allowed: false},
		{name: "cancelled is terminal", from: entity.OrderStatusCancelled, to: entity.OrderStatusAccepted, allowed: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fixture := newOrderServiceFixture()
			cookID := uuid.New()
			order := &entity.Order{
				UserID: uuid.New(),
				Items:  []entity.OrderItem{{DishID: uuid.New(), CookID: cookID, Quantity: 1}},
				Status: tc.from,
			}
			require.NoError(t, fixture.orderRepo.Create(context.Background(), order))

			_, err := fixture.service.UpdateStatus(context.Background(), &usecase.UpdateOrderStatusInput{
				CookID:  cookID,
				OrderID: order.ID,
				Status:  tc.to,
			})

			if tc.allowed {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, domainerrors.ErrConflict)
			}
		})
	}
}

func TestOrderService_GetPickupQR_OwnerOnly(t *testing.T) {
	fixture := newOrderServiceFixture()
	userID := uuid.New()
	order := &entity.Order{
		UserID: userID,
		Items:  []entity.OrderItem{{DishID: uuid.New(), CookID: uuid.New(), Quantity: 1}},
		Status: entity.OrderStatusReady,
	}
	require.NoError(t, fixture.orderRepo.Create(context.Background(), order))

	qr, err := fixture.service.GetPickupQR(context.Background(), userID, order.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, qr)

	_, err = fixture.service.GetPickupQR(context.Background(), uuid.New(), order.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrOrderOwnershipViolation)
}

func TestOrderService_CompletePickup_ResolvesQRToOrder(t *testing.T) {
	fixture := newOrderServiceFixture()
	cookID := uuid.New()
	order := &entity.Order{
		UserID: uuid.New(),
		Items:  []entity.OrderItem{{DishID: uuid.New(), CookID: cookID, Quantity: 1}},
		Status: entity.OrderStatusReady,
	}
	require.NoError(t, fixture.orderRepo.Create(context.Background(), order))

	completed, err := fixture.service.CompletePickup(context.Background(), &usecase.CompletePickupInput{
		CookID: cookID,
		QRData: "qr:" + order.ID.String(),
	})

	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCompleted, completed.Status)
}

func TestOrderService_CompletePickup_BadQRPayload(t *testing.T) {
	fixture := newOrderServiceFixture()

	_, err := fixture.service.CompletePickup(context.Background(), &usecase.CompletePickupInput{
		CookID: uuid.New(),
		QRData: "not-a-pickup-code",
	})

	require.Error(t, err)
}
