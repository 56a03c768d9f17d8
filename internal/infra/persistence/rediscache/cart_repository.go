package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"cart/config"
	"cart/internal/domain/entity"
	"cart/internal/domain/repository"
	"cart/internal/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const (
	defaultAbsoluteTTL = 30 * 24 * time.Hour
	defaultSlidingTTL  = 2 * time.Hour
)

// cartRecord is the serialized form of a cart in Redis. The version stamp
// makes updates compare-and-swap; the store rejects writes whose version has
// moved since the caller read.
type cartRecord struct {
	Version int64        `json:"version"`
	Cart    *entity.Cart `json:"cart"`
}

// createScript writes the cart record and the user index atomically, both
// under the same expiry. Returns -1 if the record key is already taken.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return -1
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// updateScript is the compare-and-swap write: it replaces the record only if
// the stored version still equals the expected one, re-arming both keys'
// expiry. Returns -2 if the record is gone and -1 on a version mismatch.
var updateScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
	return -2
end
if tonumber(cjson.decode(current)['version']) ~= tonumber(ARGV[1]) then
	return -1
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[4])
redis.call('SET', KEYS[2], ARGV[3], 'PX', ARGV[4])
return 1
`)

// CartRepository persists carts as one authoritative record keyed by cart id
// plus a small user-to-cart index entry, so a cart is reachable by either key
// without writing the full payload twice.
type CartRepository struct {
	client      *redis.Client
	logger      *slog.Logger
	absoluteTTL time.Duration
	slidingTTL  time.Duration
}

// CartRepositoryParams holds dependencies for CartRepository, injected by Fx.
type CartRepositoryParams struct {
	fx.In

	Client *redis.Client
	Logger *slog.Logger
	Config *config.Config
}

// NewCartRepository creates the Redis cart repository.
func NewCartRepository(params CartRepositoryParams) repository.CartRepository {
	absolute := params.Config.Cart.AbsoluteTTL
	if absolute <= 0 {
		absolute = defaultAbsoluteTTL
	}
	sliding := params.Config.Cart.SlidingTTL
	if sliding <= 0 {
		sliding = defaultSlidingTTL
	}

	return &CartRepository{
		client:      params.Client,
		logger:      params.Logger,
		absoluteTTL: absolute,
		slidingTTL:  sliding,
	}
}

func cartKey(cartID uuid.UUID) string {
	return fmt.Sprintf("cart:%s", cartID)
}

func userCartKey(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:cart", userID)
}

// ttlFor computes the next expiry: the sliding window, capped by the time
// remaining until the cart's absolute deadline.
func (r *CartRepository) ttlFor(cart *entity.Cart) time.Duration {
	remaining := time.Until(cart.CreatedAt.Add(r.absoluteTTL))
	if remaining < r.slidingTTL {
		// Clamp: Redis rejects non-positive expiries, and an overdue record
		// should vanish on its next expiry tick anyway.
		return max(remaining, time.Millisecond)
	}

	return r.slidingTTL
}

// GetByID fetches the cart record and refreshes its sliding expiration.
func (r *CartRepository) GetByID(ctx context.Context, cartID uuid.UUID) (*repository.VersionedCart, error) {
	record, err := r.getRecord(ctx, cartKey(cartID))
	if err != nil {
		return nil, err
	}

	r.touch(ctx, record.Cart)

	return &repository.VersionedCart{Cart: record.Cart, Version: record.Version}, nil
}

// GetByUserID fetches the user's cart through the index, creating and
// persisting a fresh empty cart if the user has none.
func (r *CartRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*repository.VersionedCart, error) {
	cartID, err := r.client.Get(ctx, userCartKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, errors.Wrap(err, "failed to get user cart index")
	}

	if err == nil {
		id, parseErr := uuid.Parse(cartID)
		if parseErr != nil {
			return nil, errors.Wrapf(parseErr, "corrupt user cart index for user %s", userID)
		}

		stored, getErr := r.GetByID(ctx, id)
		if getErr == nil {
			return stored, nil
		}
		if !errors.Is(getErr, repository.ErrCartNotFound) {
			return nil, getErr
		}
		// Index outlived the record (eviction between keys); fall through
		// and start the user over with a fresh cart.
	}

	return r.Create(ctx, entity.NewCart(userID))
}

// Create persists a new cart at version 1.
func (r *CartRepository) Create(ctx context.Context, cart *entity.Cart) (*repository.VersionedCart, error) {
	record := &cartRecord{Version: 1, Cart: cart}
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize cart")
	}

	keys := []string{cartKey(cart.ID), userCartKey(cart.UserID)}
	result, err := createScript.Run(ctx, r.client, keys,
		payload, cart.ID.String(), r.ttlFor(cart).Milliseconds()).Int()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cart")
	}
	if result == -1 {
		return nil, repository.ErrCartAlreadyExists
	}

	r.logger.Debug("cart created",
		slog.String("cart_id", cart.ID.String()),
		slog.String("user_id", cart.UserID.String()),
	)

	return &repository.VersionedCart{Cart: cart, Version: record.Version}, nil
}

// Update overwrites the record via compare-and-swap on the version stamp.
func (r *CartRepository) Update(ctx context.Context, cart *entity.Cart, expectedVersion int64) (*repository.VersionedCart, error) {
	record := &cartRecord{Version: expectedVersion + 1, Cart: cart}
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize cart")
	}

	keys := []string{cartKey(cart.ID), userCartKey(cart.UserID)}
	result, err := updateScript.Run(ctx, r.client, keys,
		expectedVersion, payload, cart.ID.String(), r.ttlFor(cart).Milliseconds()).Int()
	if err != nil {
		return nil, errors.Wrap(err, "failed to update cart")
	}

	switch result {
	case -2:
		return nil, repository.ErrCartNotFound
	case -1:
		return nil, repository.ErrVersionConflict
	}

	return &repository.VersionedCart{Cart: cart, Version: record.Version}, nil
}

// Delete removes the cart record and the owning user's index entry.
func (r *CartRepository) Delete(ctx context.Context, cartID uuid.UUID) error {
	record, err := r.getRecord(ctx, cartKey(cartID))
	if errors.Is(err, repository.ErrCartNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.client.Del(ctx, cartKey(cartID), userCartKey(record.Cart.UserID)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete cart")
	}

	return nil
}

func (r *CartRepository) getRecord(ctx context.Context, key string) (*cartRecord, error) {
	payload, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrCartNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get cart record")
	}

	record := new(cartRecord)
	if err := json.Unmarshal(payload, record); err != nil {
		return nil, errors.Wrap(err, "failed to deserialize cart record")
	}

	return record, nil
}

// touch re-arms the sliding expiration on both keys after a read. Failure is
// logged, not surfaced: the read itself succeeded.
func (r *CartRepository) touch(ctx context.Context, cart *entity.Cart) {
	ttl := r.ttlFor(cart)
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.PExpire(ctx, cartKey(cart.ID), ttl)
		pipe.PExpire(ctx, userCartKey(cart.UserID), ttl)

		return nil
	})
	if err != nil {
		r.logger.Warn("failed to refresh cart expiration",
			slog.String("cart_id", cart.ID.String()),
			slog.Any("error", err),
		)
	}
}
