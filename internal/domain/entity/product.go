package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogProduct is the authoritative name/price/stock snapshot for a product,
// fetched live from the Product service at mutation time. The cart never owns
// this data; it only copies name and price into the line it is mutating.
type CatalogProduct struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
}
