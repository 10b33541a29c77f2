package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"eatsy/config"
	"eatsy/internal/domain/entity"
	"eatsy/internal/domain/repository"
	"eatsy/internal/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "eatsy:"

// persistedCart is the wire form of a cart in Redis. Only the item list is
// stored; totals are derived state and are recomputed on every load.
type persistedCart struct {
	Items []entity.CartItem `json:"items"`
}

// cartRepository implements the domain.CartRepository interface on Redis.
// Carts never expire on their own; they live until explicitly cleared.
type cartRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewCartRepository is the constructor for cartRepository.
func NewCartRepository(client *redis.Client, cfg *config.Config) repository.CartRepository {
	keyPrefix := defaultKeyPrefix
	if cfg.Cart != nil && cfg.Cart.KeyPrefix != "" {
		keyPrefix = cfg.Cart.KeyPrefix
	} else if cfg.Redis != nil && cfg.Redis.KeyPrefix != "" {
		keyPrefix = cfg.Redis.KeyPrefix
	}

	return &cartRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// FindByUserID retrieves the cart for a user. A user with no persisted cart
// gets a fresh empty cart, never an error.
func (repo *cartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Cart, error) {
	raw, err := repo.client.Get(ctx, repo.cartKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return entity.NewCart(), nil
		}

		return nil, errors.Wrap(err, "failed to load cart")
	}

	var stored persistedCart
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, errors.Wrap(err, "failed to decode cart")
	}

	cart := &entity.Cart{Items: stored.Items}
	cart.Recompute()

	return cart, nil
}

// Save persists the cart's item list for a user, replacing any previous state.
func (repo *cartRepository) Save(ctx context.Context, userID uuid.UUID, cart *entity.Cart) error {
	raw, err := json.Marshal(persistedCart{Items: cart.Items})
	if err != nil {
		return errors.Wrap(err, "failed to encode cart")
	}

	// TTL zero: the cart persists until explicitly cleared.
	if err := repo.client.Set(ctx, repo.cartKey(userID), raw, 0).Err(); err != nil {
		return errors.Wrap(err, "failed to save cart")
	}

	return nil
}

// Delete removes the persisted cart for a user.
func (repo *cartRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := repo.client.Del(ctx, repo.cartKey(userID)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete cart")
	}

	return nil
}

func (repo *cartRepository) cartKey(userID uuid.UUID) string {
	return fmt.Sprintf("%scart:%s", repo.keyPrefix, userID)
}
