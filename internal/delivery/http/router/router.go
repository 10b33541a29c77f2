// Package router contains routing setup for the HTTP delivery.
package router

import (
	"eatsy/internal/delivery/http/middleware"
	"eatsy/internal/delivery/http/router/handler"
	"eatsy/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// RouterParams holds all the handlers to register, injected by Fx.
type RouterParams struct {
	fx.In

	UserHandler    *handler.UserHandler
	SessionHandler *handler.SessionHandler
	CartHandler    *handler.CartHandler
	CatalogHandler *handler.CatalogHandler
	OrderHandler   *handler.OrderHandler
	AuthMiddleware *middleware.AuthMiddleware
}

type router struct {
	userHandler    *handler.UserHandler
	sessionHandler *handler.SessionHandler
	cartHandler    *handler.CartHandler
	catalogHandler *handler.CatalogHandler
	orderHandler   *handler.OrderHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:    params.UserHandler,
		sessionHandler: params.SessionHandler,
		cartHandler:    params.CartHandler,
		catalogHandler: params.CatalogHandler,
		orderHandler:   params.OrderHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Auth routes (no authentication required)
	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register/customer", r.userHandler.RegisterCustomer)
		authGroup.POST("/register/cook", r.userHandler.RegisterCook)
		authGroup.POST("/login", r.userHandler.Login)
		authGroup.POST("/refresh", r.userHandler.RefreshToken)
		authGroup.POST("/logout", r.userHandler.Logout)
	}

	apiGroup := e.Group("/api/v1")

	// Public catalog and discovery routes
	apiGroup.GET("/dishes", r.catalogHandler.ListDishes)
	apiGroup.GET("/dishes/:id", r.catalogHandler.GetDish)
	apiGroup.GET("/cooks/nearby", r.catalogHandler.NearbyCooks)

	// Routes that require authentication
	authedGroup := apiGroup.Group("")
	authedGroup.Use(r.authMiddleware.Authenticate)
	{
		authedGroup.GET("/user/profile", r.userHandler.GetProfile)
		authedGroup.POST("/auth/logout-all", r.userHandler.LogoutAllDevices)

		authedGroup.GET("/sessions", r.sessionHandler.ListSessions)
		authedGroup.GET("/sessions/:id", r.sessionHandler.GetSession)
		authedGroup.DELETE("/sessions/:id", r.sessionHandler.RevokeSession)
		authedGroup.DELETE("/sessions", r.sessionHandler.RevokeAllSessions)
		authedGroup.POST("/sessions/revoke-others", r.sessionHandler.RevokeOtherSessions)

		authedGroup.GET("/cart", r.cartHandler.GetCart)
		authedGroup.POST("/cart/items", r.cartHandler.AddItem)
		authedGroup.DELETE("/cart/items/:dishId", r.cartHandler.RemoveItem)
		authedGroup.PUT("/cart/items/:dishId/quantity", r.cartHandler.UpdateQuantity)
		authedGroup.PUT("/cart/items/:dishId/instructions", r.cartHandler.UpdateInstructions)
		authedGroup.GET("/cart/items/:dishId/quantity", r.cartHandler.GetItemQuantity)
		authedGroup.DELETE("/cart", r.cartHandler.ClearCart)

		authedGroup.POST("/orders", r.orderHandler.Checkout)
		authedGroup.GET("/orders", r.orderHandler.ListOrders)
		authedGroup.GET("/orders/:id", r.orderHandler.GetOrder)
		authedGroup.GET("/orders/:id/qr", r.orderHandler.GetPickupQR)
	}

	// Cook routes that require authentication and the "cook" role
	cookGroup := apiGroup.Group("/cook")
	cookGroup.Use(r.authMiddleware.Authenticate)
	cookGroup.Use(r.authMiddleware.RequireRole(entity.RoleCook))
	{
		cookGroup.POST("/dishes", r.catalogHandler.CreateDish)
		cookGroup.PUT("/dishes/:id", r.catalogHandler.UpdateDish)
		cookGroup.DELETE("/dishes/:id", r.catalogHandler.DeleteDish)
		cookGroup.POST("/dishes/:id/image", r.catalogHandler.UploadDishImage)

		cookGroup.PUT("/orders/:id/status", r.orderHandler.UpdateStatus)
		cookGroup.POST("/orders/pickup", r.orderHandler.CompletePickup)
	}
}
