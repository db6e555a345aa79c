package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/retail/backoffice/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func failingConnect(context.Context, config.RedisConfig) (*redis.Client, error) {
	return nil, errors.New("connection refused")
}

func TestIdempotencyStoreFactory_CreateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("uses in-memory store when Redis is not configured", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{})
		f.connect = func(context.Context, config.RedisConfig) (*redis.Client, error) {
			t.Fatal("must not connect when Redis is disabled")
			return nil, nil
		}

		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("falls back to in-memory with a warning", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		f := NewIdempotencyStoreFactory(
			config.RedisConfig{Host: "redis.invalid", Port: 6379},
			WithLogger(zap.New(core)),
		)
		f.connect = failingConnect

		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		defer store.Close()

		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
		require.Equal(t, 1, logs.Len())
		assert.Contains(t, logs.All()[0].Message, "falling back")
	})

	t.Run("fails when fallback is disabled", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(
			config.RedisConfig{Host: "redis.invalid", Port: 6379},
			WithInMemoryFallback(false),
		)
		f.connect = failingConnect

		store, err := f.CreateStore(ctx)
		require.Error(t, err)
		assert.Nil(t, store)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestRedisIdempotencyStore_DefaultPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	store := NewRedisIdempotencyStore(client, "")
	assert.Equal(t, DefaultKeyPrefix, store.keyPrefix)
	assert.Same(t, client, store.Client())
	assert.NoError(t, store.Close(), "a borrowed client is not closed by the store")
}
