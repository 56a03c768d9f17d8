// Package impl contains the concrete use case implementations.
package impl

import (
	"context"
	"log/slog"

	"cart/config"
	"cart/internal/domain/entity"
	domainerrors "cart/internal/domain/errors"
	"cart/internal/domain/repository"
	"cart/internal/domain/service"
	"cart/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const defaultUpdateRetries = 3

type cartService struct {
	cartRepo      repository.CartRepository
	catalog       service.ProductCatalogService
	logger        *slog.Logger
	updateRetries int
}

// CartServiceParams holds dependencies for CartService, injected by Fx.
type CartServiceParams struct {
	fx.In

	CartRepo repository.CartRepository
	Catalog  service.ProductCatalogService
	Logger   *slog.Logger
	Config   *config.Config
}

// NewCartService creates a new cart service instance
func NewCartService(params CartServiceParams) usecase.CartUsecase {
	retries := defaultUpdateRetries
	if params.Config != nil && params.Config.Cart.UpdateRetries > 0 {
		retries = params.Config.Cart.UpdateRetries
	}

	return &cartService{
		cartRepo:      params.CartRepo,
		catalog:       params.Catalog,
		logger:        params.Logger,
		updateRetries: retries,
	}
}

// GetCart retrieves the user's cart, creating an empty one lazily.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*usecase.CartView, error) {
	stored, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, domainerrors.ErrCartStoreFailed.WithDetails(err.Error())
	}

	return usecase.NewCartView(stored.Cart), nil
}

// AddItem adds quantity of a product to the user's cart.
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*usecase.CartView, error) {
	if quantity <= 0 {
		return nil, domainerrors.ErrInvalidQuantity.WithDetailsf("requested quantity: %d", quantity)
	}

	// Stock is enforced against live catalog data at every mutation, never
	// against a cached snapshot.
	product, err := s.fetchProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.mutateByUser(ctx, userID, func(cart *entity.Cart) error {
		return cart.AddOrAccumulate(product, quantity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cart item added",
		slog.String("cart_id", cart.ID.String()),
		slog.String("product_id", productID.String()),
		slog.Int("quantity", quantity),
	)

	return usecase.NewCartView(cart), nil
}

// UpdateItemQuantity sets a line's quantity to an absolute value.
func (s *cartService) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*usecase.CartView, error) {
	if quantity <= 0 {
		return nil, domainerrors.ErrInvalidQuantity.WithDetailsf("requested quantity: %d", quantity)
	}

	cart, err := s.mutateByID(ctx, cartID, func(cart *entity.Cart) error {
		item := cart.FindItem(itemID)
		if item == nil {
			return entity.ErrItemNotFound
		}

		// Re-fetch catalog facts for this line; the product may have been
		// deleted or restocked since it was added.
		product, err := s.fetchProduct(ctx, item.ProductID)
		if err != nil {
			return err
		}

		return cart.SetItemQuantity(itemID, quantity, product)
	})
	if err != nil {
		return nil, err
	}

	return usecase.NewCartView(cart), nil
}

// RemoveItem removes a line from the cart.
func (s *cartService) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*usecase.CartView, error) {
	cart, err := s.mutateByID(ctx, cartID, func(cart *entity.Cart) error {
		return cart.RemoveItem(itemID)
	})
	if err != nil {
		return nil, err
	}

	return usecase.NewCartView(cart), nil
}

// ClearCart empties the cart's items. Clearing an absent cart is a no-op.
func (s *cartService) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	_, err := s.mutateByID(ctx, cartID, func(cart *entity.Cart) error {
		cart.ClearItems()

		return nil
	})
	if errors.Is(err, domainerrors.ErrCartNotFound) {
		// Clearing nothing is not an error.
		return nil
	}

	return err
}

// fetchProduct resolves catalog facts and translates collaborator errors into
// the external taxonomy.
func (s *cartService) fetchProduct(ctx context.Context, productID uuid.UUID) (*entity.CatalogProduct, error) {
	product, err := s.catalog.FetchProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			return nil, domainerrors.ErrProductNotFound.WithDetailsf("product id: %s", productID)
		}

		return nil, domainerrors.ErrCatalogUnavailable.WithDetails(err.Error())
	}

	return product, nil
}

// mutateByUser resolves the user's cart (creating it if absent), applies the
// mutation, and persists with optimistic concurrency. On a version conflict
// the whole read-apply-write cycle reruns with fresh state.
func (s *cartService) mutateByUser(ctx context.Context, userID uuid.UUID, apply func(*entity.Cart) error) (*entity.Cart, error) {
	return s.mutateWithRetry(ctx, apply, func(ctx context.Context) (*repository.VersionedCart, error) {
		return s.cartRepo.GetByUserID(ctx, userID)
	})
}

// mutateByID is mutateByUser for id-addressed operations; a cart id with no
// persisted history surfaces as ErrCartNotFound.
func (s *cartService) mutateByID(ctx context.Context, cartID uuid.UUID, apply func(*entity.Cart) error) (*entity.Cart, error) {
	return s.mutateWithRetry(ctx, apply, func(ctx context.Context) (*repository.VersionedCart, error) {
		return s.cartRepo.GetByID(ctx, cartID)
	})
}

func (s *cartService) mutateWithRetry(ctx context.Context, apply func(*entity.Cart) error, read func(context.Context) (*repository.VersionedCart, error)) (*entity.Cart, error) {
	for attempt := 0; attempt < s.updateRetries; attempt++ {
		stored, err := read(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrCartNotFound) {
				return nil, domainerrors.ErrCartNotFound
			}

			return nil, domainerrors.ErrCartStoreFailed.WithDetails(err.Error())
		}

		if err := apply(stored.Cart); err != nil {
			return nil, translateDomainError(err)
		}

		updated, err := s.cartRepo.Update(ctx, stored.Cart, stored.Version)
		if err == nil {
			return updated.Cart, nil
		}
		if errors.Is(err, repository.ErrVersionConflict) {
			s.logger.Debug("cart update conflicted, retrying",
				slog.String("cart_id", stored.Cart.ID.String()),
				slog.Int("attempt", attempt+1),
			)

			continue
		}
		if errors.Is(err, repository.ErrCartNotFound) {
			// The record expired between read and write; treat like any
			// other never-persisted cart.
			return nil, domainerrors.ErrCartNotFound
		}

		return nil, domainerrors.ErrCartStoreFailed.WithDetails(err.Error())
	}

	return nil, domainerrors.ErrCartConflict
}

// translateDomainError maps aggregate mutation errors onto the external
// taxonomy; catalog errors are already translated and pass through.
func translateDomainError(err error) error {
	var stockErr *entity.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return domainerrors.ErrInsufficientStock.WithDetailsf(
			"insufficient stock for %q: requested %d, available %d",
			stockErr.ProductName, stockErr.RequestedQuantity, stockErr.AvailableStock)
	case errors.Is(err, entity.ErrInvalidQuantity):
		return domainerrors.ErrInvalidQuantity
	case errors.Is(err, entity.ErrItemNotFound):
		return domainerrors.ErrCartItemNotFound
	default:
		return err
	}
}
