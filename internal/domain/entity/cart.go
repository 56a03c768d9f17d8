// Package entity contains the core business objects of the project.
package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Mutation errors raised by the Cart aggregate. The usecase layer translates
// these into the externally visible error taxonomy.
var (
	// ErrInvalidQuantity is returned when a requested quantity is zero or negative.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrItemNotFound is returned when a line item id is not present in the cart.
	ErrItemNotFound = errors.New("cart item not found")
)

// InsufficientStockError is returned when a mutation would push a line's
// quantity past the stock reported by the catalog at mutation time.
type InsufficientStockError struct {
	ProductName       string
	RequestedQuantity int // cumulative quantity the mutation tried to set
	AvailableStock    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.RequestedQuantity, e.AvailableStock)
}

// CartItem is one product line within a cart. ProductName and UnitPrice are a
// snapshot taken from the catalog at the mutation that created or last updated
// the line; later catalog changes do not flow back into it.
type CartItem struct {
	ID          uuid.UUID       `json:"id"`
	CartID      uuid.UUID       `json:"cart_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// TotalPrice is the derived line total (unit price x quantity). Never stored.
func (i *CartItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is a user's in-progress collection of selected products. Items are
// unique by product id; repeated adds accumulate quantity on the existing line.
type Cart struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Items     []CartItem `json:"items"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// NewCart creates an empty active cart for a user.
func NewCart(userID uuid.UUID) *Cart {
	return &Cart{
		ID:        uuid.New(),
		UserID:    userID,
		Items:     []CartItem{},
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
}

// TotalAmount is the derived cart total over all lines.
func (c *Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].TotalPrice())
	}

	return total
}

// TotalItems is the derived sum of quantities over all lines.
func (c *Cart) TotalItems() int {
	total := 0
	for i := range c.Items {
		total += c.Items[i].Quantity
	}

	return total
}

// FindItem returns the line with the given item id, or nil.
func (c *Cart) FindItem(itemID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}

	return nil
}

// FindItemByProduct returns the line for the given product id, or nil.
func (c *Cart) FindItemByProduct(productID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}

	return nil
}

// AddOrAccumulate adds quantity of a product to the cart. If a line for the
// product already exists the quantity accumulates on it; either way the name
// and price snapshot is refreshed from the supplied catalog facts. The stock
// check runs against the cumulative quantity, and the cart is left unmodified
// on any failure.
func (c *Cart) AddOrAccumulate(product *CatalogProduct, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	now := time.Now().UTC()
	existing := c.FindItemByProduct(product.ID)

	cumulative := quantity
	if existing != nil {
		cumulative = existing.Quantity + quantity
	}
	if cumulative > product.StockQuantity {
		return &InsufficientStockError{
			ProductName:       product.Name,
			RequestedQuantity: cumulative,
			AvailableStock:    product.StockQuantity,
		}
	}

	if existing == nil {
		c.Items = append(c.Items, CartItem{
			ID:          uuid.New(),
			CartID:      c.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    quantity,
			CreatedAt:   now,
		})
	} else {
		existing.ProductName = product.Name
		existing.UnitPrice = product.Price
		existing.Quantity = cumulative
		existing.UpdatedAt = &now
	}

	c.UpdatedAt = &now

	return nil
}

// SetItemQuantity sets a line's quantity to an absolute value (not additive)
// and refreshes its snapshot from the supplied catalog facts. The cart is left
// unmodified on any failure.
func (c *Cart) SetItemQuantity(itemID uuid.UUID, quantity int, product *CatalogProduct) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	item := c.FindItem(itemID)
	if item == nil {
		return ErrItemNotFound
	}

	if quantity > product.StockQuantity {
		return &InsufficientStockError{
			ProductName:       product.Name,
			RequestedQuantity: quantity,
			AvailableStock:    product.StockQuantity,
		}
	}

	now := time.Now().UTC()
	item.ProductName = product.Name
	item.UnitPrice = product.Price
	item.Quantity = quantity
	item.UpdatedAt = &now
	c.UpdatedAt = &now

	return nil
}

// RemoveItem removes a line unconditionally. No stock check applies to removal.
func (c *Cart) RemoveItem(itemID uuid.UUID) error {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			now := time.Now().UTC()
			c.UpdatedAt = &now

			return nil
		}
	}

	return ErrItemNotFound
}

// ClearItems empties the cart. Clearing an already-empty cart is a no-op.
func (c *Cart) ClearItems() {
	if len(c.Items) == 0 {
		return
	}

	c.Items = c.Items[:0]
	now := time.Now().UTC()
	c.UpdatedAt = &now
}
