package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry-engine/internal/infrastructure/config"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreWithClient(client, ttl)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore_ReserveOnce(t *testing.T) {
	s, mr := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	ok, err := s.Reserve(ctx, "cook-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Reserve(ctx, "cook-1")
	require.NoError(t, err)
	assert.False(t, ok)

	entry, err := s.Lookup(ctx, "cook-1")
	require.NoError(t, err)
	assert.Equal(t, StatePending, entry.State)

	assert.True(t, mr.Exists(keyPrefix+"cook-1"))
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+"cook-1"))
}

func TestRedisStore_CompleteKeepsTTL(t *testing.T) {
	s, mr := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	_, err := s.Reserve(ctx, "cook-1")
	require.NoError(t, err)
	mr.FastForward(10 * time.Minute)

	require.NoError(t, s.Complete(ctx, "cook-1", []byte(`{"updates":[]}`)))

	entry, err := s.Lookup(ctx, "cook-1")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, entry.State)
	assert.JSONEq(t, `{"updates":[]}`, string(entry.Result))
	assert.Equal(t, 50*time.Minute, mr.TTL(keyPrefix+"cook-1"))

	// 完成後仍不能再次保留
	ok, err := s.Reserve(ctx, "cook-1")
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(time.Hour)
	_, err = s.Lookup(ctx, "cook-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ReleaseAllowsRetry(t *testing.T) {
	s, _ := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	_, err := s.Reserve(ctx, "cook-1")
	require.NoError(t, err)
	require.NoError(t, s.Release(ctx, "cook-1"))

	_, err = s.Lookup(ctx, "cook-1")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Reserve(ctx, "cook-1")
	require.NoError(t, err)
	assert.True(t, ok)

	// 不存在的鍵也可以釋放
	assert.NoError(t, s.Release(ctx, "missing"))
}

func TestRedisStore_CompleteUnknownKey(t *testing.T) {
	s, _ := newTestRedisStore(t, time.Hour)

	err := s.Complete(context.Background(), "missing", []byte(`{}`))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_PingAndBackend(t *testing.T) {
	s, mr := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	assert.NoError(t, s.Ping(ctx))
	assert.Equal(t, config.BackendRedis, s.Backend())

	mr.SetError("server down")
	assert.Error(t, s.Ping(ctx))
	_, err := s.Reserve(ctx, "cook-1")
	assert.Error(t, err)
}

func TestNewRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(config.RedisConfig{Addr: mr.Addr()}, config.IdempotencyConfig{TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ok, err := s.Reserve(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"k"))

	_, err = NewRedisStore(config.RedisConfig{Addr: "127.0.0.1:1"}, config.IdempotencyConfig{TTL: time.Minute})
	assert.Error(t, err)
}
