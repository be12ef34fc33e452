package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"homeser-core/apperrors"
	"homeser-core/models"

	"github.com/redis/go-redis/v9"
)

// watchRetries bounds retries for the WATCH-race case only; a stale
// expected version from the caller is never retried here.
const watchRetries = 3

// CartRepository stores one cart document per user in Redis. Mutations are
// applied through an optimistic WATCH transaction: no lock is held across
// the catalog lookup and the write, and at most one of two racing writers at
// the same version succeeds.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *CartRepository) key(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

// Get returns the stored cart, or nil when the user has none yet.
func (r *CartRepository) Get(ctx context.Context, userID string) (*models.Cart, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// Mutate applies a compare-and-swap mutation: the stored version must match
// expectedVersion, and the write only commits if no concurrent writer
// touched the key meanwhile. The version increments on every successful
// mutation. Returns ErrVersionConflict on either failure mode.
func (r *CartRepository) Mutate(ctx context.Context, userID string, expectedVersion int64, apply func(*models.Cart) error) (*models.Cart, error) {
	key := r.key(userID)

	var updated *models.Cart
	txf := func(tx *redis.Tx) error {
		cart, err := r.getWatched(ctx, tx, userID)
		if err != nil {
			return err
		}
		if cart == nil {
			cart = models.NewCart(userID)
		}
		if cart.Version != expectedVersion {
			return apperrors.ErrVersionConflict
		}

		if err := apply(cart); err != nil {
			return err
		}

		cart.Version++
		cart.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(cart)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = cart
		return nil
	}

	for i := 0; i < watchRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			// A concurrent writer won the race. The stored version has
			// moved, so the next attempt fails the version check and the
			// caller gets a clean conflict.
			continue
		}
		return nil, err
	}
	return nil, apperrors.ErrVersionConflict
}

func (r *CartRepository) getWatched(ctx context.Context, tx *redis.Tx, userID string) (*models.Cart, error) {
	data, err := tx.Get(ctx, r.key(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// Clear empties the cart guarded by the version the checkout snapshotted, so
// a cart the user mutated mid-checkout is not clobbered.
func (r *CartRepository) Clear(ctx context.Context, userID string, expectedVersion int64) (*models.Cart, error) {
	return r.Mutate(ctx, userID, expectedVersion, func(cart *models.Cart) error {
		cart.Clear()
		return nil
	})
}

// Checkout idempotency keys: user id + cart version fingerprint an attempt,
// mapping to the order id it produced.

func (r *CartRepository) checkoutKey(userID string, version int64) string {
	return fmt.Sprintf("idem:checkout:%s:%d", userID, version)
}

// ReserveCheckout claims the checkout slot for a cart fingerprint. When the
// slot is already taken it returns the order id of the prior attempt and
// reserved=false.
func (r *CartRepository) ReserveCheckout(ctx context.Context, userID string, version int64, orderID string, ttl time.Duration) (string, bool, error) {
	key := r.checkoutKey(userID, version)

	ok, err := r.client.SetNX(ctx, key, orderID, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return orderID, true, nil
	}

	existing, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// Reservation expired between SetNX and Get; treat as conflict,
		// the caller retries.
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return existing, false, nil
}

// ReleaseCheckout drops a reservation after a failed order creation so the
// user can retry the same cart.
func (r *CartRepository) ReleaseCheckout(ctx context.Context, userID string, version int64) error {
	return r.client.Del(ctx, r.checkoutKey(userID, version)).Err()
}
