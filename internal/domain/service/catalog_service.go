// Package service defines interfaces for external collaborators the cart
// service depends on.
package service

import (
	"context"

	"cart/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// ErrProductNotFound is returned when the catalog reports the product
	// does not exist. Distinct from transport failure.
	ErrProductNotFound = errors.New("product not found in catalog")
	// ErrCatalogUnavailable is returned for any catalog failure other than
	// not-found: timeout, connection refused, malformed response. The cart
	// service does not retry it within the request.
	ErrCatalogUnavailable = errors.New("product catalog unavailable")
)

// ProductCatalogService resolves current name/price/stock for a product from
// the Product service. Results are used for validation and snapshotting only.
type ProductCatalogService interface {
	FetchProduct(ctx context.Context, productID uuid.UUID) (*entity.CatalogProduct, error)
}
