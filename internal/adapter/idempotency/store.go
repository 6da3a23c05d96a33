package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard reports whether a payment event key has been processed before.
type Guard interface {
	// Seen claims key and returns true if it was already claimed.
	Seen(ctx context.Context, key string) (bool, error)
	// Forget drops a claim so a failed attempt can be retried.
	Forget(ctx context.Context, key string) error
	Close() error
}

type redisClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Store is a redis backed Guard.
type Store struct {
	rdb redisClient
	ttl time.Duration
}

func NewStore(rdb redisClient, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// PaymentKey builds the guard key for a payment reference.
func PaymentKey(reference string) string {
	return fmt.Sprintf("idem:payment:%s", reference)
}

func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (s *Store) Forget(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

// NopGuard never reports a key as seen; the orders table still rejects duplicate references.
type NopGuard struct{}

func (NopGuard) Seen(context.Context, string) (bool, error) { return false, nil }
func (NopGuard) Forget(context.Context, string) error       { return nil }
func (NopGuard) Close() error                               { return nil }
