// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"cart/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for cart persistence.
var (
	// ErrCartNotFound is returned when no cart record exists for the given id.
	// Whether absence is an error is the caller's decision; user-keyed lookups
	// never return it because they create the cart lazily.
	ErrCartNotFound = errors.New("cart not found")
	// ErrVersionConflict is returned when an update's expected version no
	// longer matches the stored record; the caller must re-read and retry.
	ErrVersionConflict = errors.New("cart version conflict")
	// ErrCartAlreadyExists is returned when creating a cart whose id is taken.
	ErrCartAlreadyExists = errors.New("cart already exists")
)

// VersionedCart pairs a cart with the store version it was read at. Updates
// must present the version back so the store can reject stale writes.
type VersionedCart struct {
	Cart    *entity.Cart
	Version int64
}

// CartRepository defines the interface for cart persistence. Carts are
// addressable by their own id or by the owning user's id; the store keeps a
// single authoritative record per cart plus a user-to-cart index, both under
// the same expiration policy, so the two access paths cannot diverge.
type CartRepository interface {
	// GetByID fetches the cart record and refreshes its sliding expiration.
	// Returns ErrCartNotFound if nothing is persisted (or it expired).
	GetByID(ctx context.Context, cartID uuid.UUID) (*VersionedCart, error)

	// GetByUserID fetches the user's cart. If the user has none, a fresh
	// empty cart is created and persisted before returning — callers must be
	// aware this read may write.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*VersionedCart, error)

	// Create persists a new cart at version 1, writing the record and the
	// user index atomically. Returns ErrCartAlreadyExists on an id collision.
	Create(ctx context.Context, cart *entity.Cart) (*VersionedCart, error)

	// Update overwrites the record if and only if the stored version still
	// equals expectedVersion, then bumps the version. Returns
	// ErrVersionConflict on a stale write and ErrCartNotFound if the record
	// expired mid-flight.
	Update(ctx context.Context, cart *entity.Cart, expectedVersion int64) (*VersionedCart, error)

	// Delete removes the cart record and the owning user's index entry.
	// Deleting an absent cart is a no-op.
	Delete(ctx context.Context, cartID uuid.UUID) error
}
