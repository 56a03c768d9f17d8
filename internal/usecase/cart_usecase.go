// Package usecase defines the application-facing interfaces and view types.
package usecase

import (
	"context"
	"time"

	"cart/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItemView is the external representation of one cart line.
type CartItemView struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// CartView is the external representation of a cart, with derived totals.
type CartView struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Items       []CartItemView  `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalItems  int             `json:"total_items"`
}

// NewCartView maps a cart aggregate to its external representation.
func NewCartView(cart *entity.Cart) *CartView {
	items := make([]CartItemView, 0, len(cart.Items))
	for i := range cart.Items {
		item := &cart.Items[i]
		items = append(items, CartItemView{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			TotalPrice:  item.TotalPrice(),
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
		})
	}

	return &CartView{
		ID:          cart.ID,
		UserID:      cart.UserID,
		Items:       items,
		TotalAmount: cart.TotalAmount(),
		TotalItems:  cart.TotalItems(),
	}
}

// CartUsecase defines the interface for cart management use cases
type CartUsecase interface {
	// GetCart retrieves the user's cart, creating an empty one lazily.
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)

	// AddItem adds quantity of a product to the user's cart; quantities
	// accumulate on an existing line for the same product.
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error)

	// UpdateItemQuantity sets a line's quantity to an absolute value.
	UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*CartView, error)

	// RemoveItem removes a line from the cart.
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*CartView, error)

	// ClearCart empties the cart's items. Clearing an absent cart succeeds.
	ClearCart(ctx context.Context, cartID uuid.UUID) error
}
