// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"cart/internal/delivery/http/middleware"
	"cart/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	CartHandler    *handler.CartHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	cartHandler    *handler.CartHandler
	authMiddleware *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		cartHandler:    params.CartHandler,
		authMiddleware: params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Cart routes require an authenticated user
	cartGroup := e.Group("/api/cart")
	cartGroup.Use(r.authMiddleware.Authenticate)
	{
		cartGroup.GET("", r.cartHandler.GetCart)
		cartGroup.POST("/items", r.cartHandler.AddItem)
		cartGroup.PUT("/:cartId/items/:itemId", r.cartHandler.UpdateItemQuantity)
		cartGroup.DELETE("/:cartId/items/:itemId", r.cartHandler.RemoveItem)
		cartGroup.DELETE("/:cartId", r.cartHandler.ClearCart)
	}
}
