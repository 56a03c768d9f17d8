package impl

import (
	"context"

	"cart/internal/domain/entity"
	"cart/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// mockCartRepository is a hand-written testify mock for repository.CartRepository.
type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) GetByID(ctx context.Context, cartID uuid.UUID) (*repository.VersionedCart, error) {
	args := m.Called(ctx, cartID)
	if v, ok := args.Get(0).(*repository.VersionedCart); ok {
		return v, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockCartRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*repository.VersionedCart, error) {
	args := m.Called(ctx, userID)
	if v, ok := args.Get(0).(*repository.VersionedCart); ok {
		return v, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockCartRepository) Create(ctx context.Context, cart *entity.Cart) (*repository.VersionedCart, error) {
	args := m.Called(ctx, cart)
	if v, ok := args.Get(0).(*repository.VersionedCart); ok {
		return v, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockCartRepository) Update(ctx context.Context, cart *entity.Cart, expectedVersion int64) (*repository.VersionedCart, error) {
	args := m.Called(ctx, cart, expectedVersion)
	if v, ok := args.Get(0).(*repository.VersionedCart); ok {
		return v, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *mockCartRepository) Delete(ctx context.Context, cartID uuid.UUID) error {
	args := m.Called(ctx, cartID)

	return args.Error(0)
}

// mockCatalogService is a hand-written testify mock for service.ProductCatalogService.
type mockCatalogService struct {
	mock.Mock
}

func (m *mockCatalogService) FetchProduct(ctx context.Context, productID uuid.UUID) (*entity.CatalogProduct, error) {
	args := m.Called(ctx, productID)
	if v, ok := args.Get(0).(*entity.CatalogProduct); ok {
		return v, args.Error(1)
	}

	return nil, args.Error(1)
}
