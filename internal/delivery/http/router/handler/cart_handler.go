// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"cart/internal/delivery/http/middleware"
	"cart/internal/delivery/http/response"
	"cart/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AddItemRequest is the payload for adding a product to the cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// UpdateQuantityRequest is the payload for setting a line's quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// CartHandler holds dependencies for cart-related handlers.
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

// GetCart returns the authenticated user's cart, creating an empty one on
// first access.
func (h *CartHandler) GetCart(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	cart, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, cart, "Cart retrieved successfully")
}

// AddItem adds a product to the authenticated user's cart.
func (h *CartHandler) AddItem(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	var req AddItemRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid add item input")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid add item input")
	}

	cart, err := h.uc.AddItem(c.Request().Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, cart, "Item added to cart")
}

// UpdateItemQuantity sets the quantity of a cart line to an absolute value.
func (h *CartHandler) UpdateItemQuantity(c echo.Context) error {
	cartID, err := uuid.Parse(c.Param("cartId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid cart ID")
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid item ID")
	}

	var req UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid update quantity input")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid update quantity input")
	}

	cart, err := h.uc.UpdateItemQuantity(c.Request().Context(), cartID, itemID, req.Quantity)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, cart, "Item quantity updated")
}

// RemoveItem removes a line from the cart.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	cartID, err := uuid.Parse(c.Param("cartId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid cart ID")
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid item ID")
	}

	cart, err := h.uc.RemoveItem(c.Request().Context(), cartID, itemID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, cart, "Item removed from cart")
}

// ClearCart empties the cart. Clearing an absent cart still returns 204.
func (h *CartHandler) ClearCart(c echo.Context) error {
	cartID, err := uuid.Parse(c.Param("cartId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid cart ID")
	}

	if err := h.uc.ClearCart(c.Request().Context(), cartID); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}
