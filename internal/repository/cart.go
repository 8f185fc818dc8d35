package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/rcaps4street/storefront/internal/domain/cart"
)

// cartKey namespaces cart lists in Redis: cart:{session_id}.
const cartKey = "cart:%s"

// DefaultCartTTL is how long an idle cart survives before Redis evicts it.
// Every cart operation refreshes the TTL, so only abandoned sessions expire.
const DefaultCartTTL = 72 * time.Hour

// NewRedis creates a Redis client from either a redis:// URL or a bare
// host:port address.
func NewRedis(addr string) (*redis.Client, error) {
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, errors.Wrap(err, "parse redis url")
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

var _ cart.Store = (*RedisCartStore)(nil)

// RedisCartStore holds each session's cart as a Redis list. The list keeps
// the raw multiset semantics: one element per added item, repetition encodes
// quantity. Carts are session-scoped state, so they live in Redis with a
// TTL instead of the durable stores.
type RedisCartStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCartStore creates a cart store. A non-positive ttl falls back to
// DefaultCartTTL.
func NewRedisCartStore(rdb *redis.Client, ttl time.Duration) *RedisCartStore {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &RedisCartStore{rdb: rdb, ttl: ttl}
}

// Get returns the cart's id sequence; a missing key is an empty cart.
func (s *RedisCartStore) Get(ctx context.Context, sessionID string) ([]string, error) {
	ids, err := s.rdb.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "read cart")
	}
	return ids, nil
}

// Add appends one occurrence of productID and returns the new item count.
func (s *RedisCartStore) Add(ctx context.Context, sessionID, productID string) (int, error) {
	key := s.key(sessionID)

	pipe := s.rdb.TxPipeline()
	count := pipe.RPush(ctx, key, productID)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, errors.Wrap(err, "add to cart")
	}
	return int(count.Val()), nil
}

// Remove deletes every occurrence of productID from the cart.
func (s *RedisCartStore) Remove(ctx context.Context, sessionID, productID string) error {
	if err := s.rdb.LRem(ctx, s.key(sessionID), 0, productID).Err(); err != nil {
		return errors.Wrap(err, "remove from cart")
	}
	return nil
}

// Clear drops the cart entirely. Clearing a missing key is a no-op.
func (s *RedisCartStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

func (s *RedisCartStore) key(sessionID string) string {
	return fmt.Sprintf(cartKey, sessionID)
}
