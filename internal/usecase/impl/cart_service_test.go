package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"cart/config"
	"cart/internal/domain/entity"
	domainerrors "cart/internal/domain/errors"
	"cart/internal/domain/repository"
	"cart/internal/domain/service"
	"cart/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// cartServiceFixtures holds all test dependencies for cart service tests.
type cartServiceFixtures struct {
	service  usecase.CartUsecase
	cartRepo *mockCartRepository
	catalog  *mockCatalogService
}

func createTestCartService(t *testing.T) cartServiceFixtures {
	t.Helper()

	cartRepo := &mockCartRepository{}
	catalog := &mockCatalogService{}
	svc := NewCartService(CartServiceParams{
		CartRepo: cartRepo,
		Catalog:  catalog,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:   &config.Config{},
	})

	t.Cleanup(func() {
		cartRepo.AssertExpectations(t)
		catalog.AssertExpectations(t)
	})

	return cartServiceFixtures{service: svc, cartRepo: cartRepo, catalog: catalog}
}

func storedCart(userID uuid.UUID, version int64) *repository.VersionedCart {
	return &repository.VersionedCart{Cart: entity.NewCart(userID), Version: version}
}

func widgetProduct(id uuid.UUID, stock int) *entity.CatalogProduct {
	return &entity.CatalogProduct{
		ID:            id,
		Name:          "Widget",
		Price:         decimal.RequireFromString("9.99"),
		StockQuantity: stock,
	}
}

func TestCartService_GetCart_LazyCreation(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()
	userID := uuid.New()

	fx.cartRepo.On("GetByUserID", ctx, userID).Return(storedCart(userID, 1), nil)

	view, err := fx.service.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, view.UserID)
	assert.Empty(t, view.Items)
	assert.True(t, view.TotalAmount.IsZero())
	assert.Zero(t, view.TotalItems)
}

func TestCartService_AddItem_Success(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()
	stored := storedCart(userID, 1)

	fx.catalog.On("FetchProduct", ctx, productID).Return(widgetProduct(productID, 10), nil)
	fx.cartRepo.On("GetByUserID", ctx, userID).Return(stored, nil)
	fx.cartRepo.On("Update", ctx, stored.Cart, int64(1)).
		Return(&repository.VersionedCart{Cart: stored.Cart, Version: 2}, nil)

	view, err := fx.service.AddItem(ctx, userID, productID, 2)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.True(t, view.TotalAmount.Equal(decimal.RequireFromString("19.98")))
	assert.Equal(t, 2, view.TotalItems)
}

func TestCartService_AddItem_InvalidQuantity(t *testing.T) {
	fx := createTestCartService(t)

	_, err := fx.service.AddItem(context.Background(), uuid.New(), uuid.New(), 0)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidQuantity)
}

func TestCartService_AddItem_ProductNotFound(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()
	productID := uuid.New()

	fx.catalog.On("FetchProduct", ctx, productID).Return(nil, service.ErrProductNotFound)

	_, err := fx.service.AddItem(ctx, uuid.New(), productID, 1)
	assert.ErrorIs(t, err, domainerrors.ErrProductNotFound)
}

func TestCartService_AddItem_CatalogUnavailable(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()
	productID := uuid.New()

	fx.catalog.On("FetchProduct", ctx, productID).
		Return(nil, errors.Wrap(service.ErrCatalogUnavailable, "connection refused"))

	_, err := fx.service.AddItem(ctx, uuid.New(), productID, 1)
	assert.ErrorIs(t, err, domainerrors.ErrCatalogUnavailable)
}

func TestCartService_AddItem_InsufficientStock(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()
	stored := storedCart(userID, 1)
	require.NoError(t, stored.Cart.AddOrAccumulate(widgetProduct(productID, 5), 5))

	fx.catalog.On("FetchProduct", ctx, productID).Return(widgetProduct(productID, 5), nil)
	fx.cartRepo.On("GetByUserID", ctx, userID).Return(stored, nil)

	// Cumulative 6 > stock 5; nothing is persisted.
	_, err := fx.service.AddItem(ctx, userID, productID, 1)
	assert.ErrorIs(t, err, domainerrors.ErrInsufficientStock)
	fx.cartRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 5, stored.Cart.Items[0].Quantity)
}

func TestCartService_AddItem_RetriesOnVersionConflict(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()

	fx.catalog.On("FetchProduct", ctx, productID).Return(widgetProduct(productID, 10), nil)

	first := storedCart(userID, 1)
	second := storedCart(userID, 2)
	fx.cartRepo.On("GetByUserID", ctx, userID).Return(first, nil).Once()
	fx.cartRepo.On("GetByUserID", ctx, userID).Return(second, nil).Once()
	fx.cartRepo.On("Update", ctx, first.Cart, int64(1)).
		Return(nil, repository.ErrVersionConflict).Once()
	fx.cartRepo.On("Update", ctx, second.Cart, int64(2)).
		Return(&repository.VersionedCart{Cart: second.Cart, Version: 3}, nil).Once()

	view, err := fx.service.AddItem(ctx, userID, productID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, view.TotalItems)
}

func TestCartService_AddItem_ConflictRetriesExhausted(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()

	fx.catalog.On("FetchProduct", ctx, productID).Return(widgetProduct(productID, 10), nil)
	fx.cartRepo.On("GetByUserID", ctx, userID).
		Return(storedCart(userID, 1), nil).Times(defaultUpdateRetries)
	fx.cartRepo.On("Update", ctx, mock.Anything, int64(1)).
		Return(nil, repository.ErrVersionConflict).Times(defaultUpdateRetries)

	_, err := fx.service.AddItem(ctx, userID, productID, 1)
	assert.ErrorIs(t, err, domainerrors.ErrCartConflict)
}

func TestCartService_UpdateItemQuantity_Success(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()
	stored := storedCart(userID, 3)
	require.NoError(t, stored.Cart.AddOrAccumulate(widgetProduct(productID, 10), 2))
	itemID := stored.Cart.Items[0].ID
	cartID := stored.Cart.ID

	fx.cartRepo.On("GetByID", ctx, cartID).Return(stored, nil)
	fx.catalog.On("FetchProduct", ctx, productID).Return(widgetProduct(productID, 10), nil)
	fx.cartRepo.On("Update", ctx, stored.Cart, int64(3)).
		Return(&repository.VersionedCart{Cart: stored.Cart, Version: 4}, nil)

	view, err := fx.service.UpdateItemQuantity(ctx, cartID, itemID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Items[0].Quantity)
	assert.True(t, view.TotalAmount.Equal(decimal.RequireFromString("9.99")))
}

func TestCartService_UpdateItemQuantity_CartNotFound(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()
	cartID := uuid.New()

	fx.cartRepo.On("GetByID", ctx, cartID).Return(nil, repository.ErrCartNotFound)

	_, err := fx.service.UpdateItemQuantity(ctx, cartID, uuid.New(), 1)
	assert.ErrorIs(t, err, domainerrors.ErrCartNotFound)
}

func TestCartService_UpdateItemQuantity_ItemNotFound(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()
	stored := storedCart(uuid.New(), 1)

	fx.cartRepo.On("GetByID", ctx, stored.Cart.ID).Return(stored, nil)

	_, err := fx.service.UpdateItemQuantity(ctx, stored.Cart.ID, uuid.New(), 1)
	assert.ErrorIs(t, err, domainerrors.ErrCartItemNotFound)
}

func TestCartService_UpdateItemQuantity_ProductDeletedFromCatalog(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()
	productID := uuid.New()
	stored := storedCart(uuid.New(), 1)
	require.NoError(t, stored.Cart.AddOrAccumulate(widgetProduct(productID, 10), 1))

	fx.cartRepo.On("GetByID", ctx, stored.Cart.ID).Return(stored, nil)
	fx.catalog.On("FetchProduct", ctx, productID).Return(nil, service.ErrProductNotFound)

	_, err := fx.service.UpdateItemQuantity(ctx, stored.Cart.ID, stored.Cart.Items[0].ID, 1)
	assert.ErrorIs(t, err, domainerrors.ErrProductNotFound)
}

func TestCartService_RemoveItem_Success(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()
	productID := uuid.New()
	stored := storedCart(uuid.New(), 1)
	require.NoError(t, stored.Cart.AddOrAccumulate(widgetProduct(productID, 10), 2))
	itemID := stored.Cart.Items[0].ID

	fx.cartRepo.On("GetByID", ctx, stored.Cart.ID).Return(stored, nil)
	fx.cartRepo.On("Update", ctx, stored.Cart, int64(1)).
		Return(&repository.VersionedCart{Cart: stored.Cart, Version: 2}, nil)

	view, err := fx.service.RemoveItem(ctx, stored.Cart.ID, itemID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.TotalAmount.IsZero())
}

func TestCartService_RemoveItem_ItemNotFound(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()
	stored := storedCart(uuid.New(), 1)

	fx.cartRepo.On("GetByID", ctx, stored.Cart.ID).Return(stored, nil)

	_, err := fx.service.RemoveItem(ctx, stored.Cart.ID, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrCartItemNotFound)
	fx.cartRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartService_ClearCart_AbsentCartIsNoop(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()
	cartID := uuid.New()

	fx.cartRepo.On("GetByID", ctx, cartID).Return(nil, repository.ErrCartNotFound)

	assert.NoError(t, fx.service.ClearCart(ctx, cartID))
}

func TestCartService_ClearCart_EmptiesAndPersists(t *testing.T) {
	fx := createTestCartService(t)
	ctx := context.Background()
	stored := storedCart(uuid.New(), 2)
	require.NoError(t, stored.Cart.AddOrAccumulate(widgetProduct(uuid.New(), 10), 3))

	fx.cartRepo.On("GetByID", ctx, stored.Cart.ID).Return(stored, nil)
	fx.cartRepo.On("Update", ctx, stored.Cart, int64(2)).
		Return(&repository.VersionedCart{Cart: stored.Cart, Version: 3}, nil)

	require.NoError(t, fx.service.ClearCart(ctx, stored.Cart.ID))
	assert.Empty(t, stored.Cart.Items)
}
