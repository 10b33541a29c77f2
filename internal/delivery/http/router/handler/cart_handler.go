package handler

import (
	"log/slog"
	"net/http"

	"eatsy/internal/delivery/http/middleware"
	"eatsy/internal/delivery/http/response"
	"eatsy/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// CartHandler holds dependencies for shopping cart handlers.
type CartHandler struct {
	uc     usecase.CartUsecase
	logger *slog.Logger
}

// NewCartHandler is the constructor for CartHandler, injected by Fx.
func NewCartHandler(uc usecase.CartUsecase, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		uc:     uc,
		logger: logger,
	}
}

type addCartItemRequest struct {
	DishID uuid.UUID `json:"dish_id" validate:"required"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type updateInstructionsRequest struct {
	Instructions string `json:"instructions"`
}

// GetCart returns the current user's cart.
func (h *CartHandler) GetCart(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	cart, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, cart)
}

// AddItem adds one unit of a dish to the cart.
func (h *CartHandler) AddItem(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	var req addCartItemRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid cart item input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	cart, err := h.uc.AddItem(c.Request().Context(), userID, req.DishID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, cart)
}

// RemoveItem removes a dish's line item from the cart.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	dishID, err := uuid.Parse(c.Param("dishId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid dish ID")
	}

	cart, err := h.uc.RemoveItem(c.Request().Context(), userID, dishID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, cart)
}

// UpdateQuantity sets the quantity of a line item. Zero or below removes it.
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	dishID, err := uuid.Parse(c.Param("dishId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid dish ID")
	}

	var req updateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid quantity input")
	}

	cart, err := h.uc.UpdateQuantity(c.Request().Context(), userID, dishID, req.Quantity)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, cart)
}

// UpdateInstructions replaces the special instructions of a line item.
func (h *CartHandler) UpdateInstructions(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	dishID, err := uuid.Parse(c.Param("dishId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid dish ID")
	}

	var req updateInstructionsRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid instructions input")
	}

	cart, err := h.uc.UpdateSpecialInstructions(c.Request().Context(), userID, &usecase.UpdateInstructionsInput{
		DishID:       dishID,
		Instructions: req.Instructions,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, cart)
}

// GetItemQuantity reports how many units of a dish the cart holds.
func (h *CartHandler) GetItemQuantity(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	dishID, err := uuid.Parse(c.Param("dishId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid dish ID")
	}

	quantity, err := h.uc.GetItemQuantity(c.Request().Context(), userID, dishID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]int{"quantity": quantity})
}

// ClearCart empties the current user's cart.
func (h *CartHandler) ClearCart(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	if err := h.uc.ClearCart(c.Request().Context(), userID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Cart cleared"})
}
