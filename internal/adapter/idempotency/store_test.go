package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"github.com/polkiloo/atelier/internal/config"
)

type redisStub struct {
	keys   map[string]time.Duration
	err    error
	closed bool
}

func newRedisStub() *redisStub {
	return &redisStub{keys: make(map[string]time.Duration)}
}

func (r *redisStub) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "setnx", key, value)
	if r.err != nil {
		cmd.SetErr(r.err)
		return cmd
	}
	_, exists := r.keys[key]
	if !exists {
		r.keys[key] = expiration
	}
	cmd.SetVal(!exists)
	return cmd
}

func (r *redisStub) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "del")
	if r.err != nil {
		cmd.SetErr(r.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := r.keys[k]; ok {
			delete(r.keys, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (r *redisStub) Close() error {
	r.closed = true
	return nil
}

func TestStoreSeen(t *testing.T) {
	rdb := newRedisStub()
	store := NewStore(rdb, time.Hour)
	ctx := context.Background()
	key := PaymentKey("pay_1")

	assert.Equal(t, "idem:payment:pay_1", key)

	seen, err := store.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Equal(t, time.Hour, rdb.keys[key])

	seen, err = store.Seen(ctx, key)
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, store.Forget(ctx, key))
	seen, err = store.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Close())
	assert.True(t, rdb.closed)
}

func TestStoreErrors(t *testing.T) {
	rdb := newRedisStub()
	rdb.err = errors.New("redis down")
	store := NewStore(rdb, time.Hour)

	_, err := store.Seen(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, store.Forget(context.Background(), "k"))
}

func TestNopGuard(t *testing.T) {
	var g Guard = NopGuard{}
	seen, err := g.Seen(context.Background(), "k")
	assert.NoError(t, err)
	assert.False(t, seen)
	assert.NoError(t, g.Forget(context.Background(), "k"))
	assert.NoError(t, g.Close())
}

func TestNewGuardSelectsImplementation(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	assert.IsType(t, NopGuard{}, newGuard(guardParams{Config: &config.Config{}, Logger: logger}))

	guard := newGuard(guardParams{Config: &config.Config{RedisAddr: "localhost:6379", IdempotencyTTL: time.Hour}, Logger: logger})
	assert.IsType(t, &Store{}, guard)
	assert.NoError(t, guard.Close())
}

func TestRegisterLifecycleClosesGuard(t *testing.T) {
	rdb := newRedisStub()
	lc := fxtest.NewLifecycle(t)
	registerLifecycle(lc, NewStore(rdb, time.Minute))

	lc.RequireStart()
	lc.RequireStop()
	assert.True(t, rdb.closed)
}
