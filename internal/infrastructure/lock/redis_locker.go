package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/retail/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultKeyPrefix namespaces lock keys in a shared Redis
const DefaultKeyPrefix = "backoffice:lock:"

const retryInterval = 50 * time.Millisecond

// RedisLocker serializes writers across instances with Redis locks
type RedisLocker struct {
	client       *redislock.Client
	keyPrefix    string
	ttl          time.Duration
	retryTimeout time.Duration
	logger       *zap.Logger
}

// RedisLockerOption configures a RedisLocker
type RedisLockerOption func(*RedisLocker)

// WithKeyPrefix overrides DefaultKeyPrefix
func WithKeyPrefix(prefix string) RedisLockerOption {
	return func(l *RedisLocker) { l.keyPrefix = prefix }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) RedisLockerOption {
	return func(l *RedisLocker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewRedisLocker creates a locker. ttl bounds how long a crashed holder
// blocks others; retryTimeout bounds how long Acquire waits for a busy key.
func NewRedisLocker(rdb *redis.Client, ttl, retryTimeout time.Duration, opts ...RedisLockerOption) *RedisLocker {
	l := &RedisLocker{
		client:       redislock.New(rdb),
		keyPrefix:    DefaultKeyPrefix,
		ttl:          ttl,
		retryTimeout: retryTimeout,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire obtains every key in sorted order. When one key cannot be
// obtained within the retry timeout the keys already held are released
// and ErrLockNotAcquired is returned.
func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalizeKeys(keys)
	held := make([]*redislock.Lock, 0, len(keys))

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				l.logger.Warn("Failed to release lock", zap.String("key", held[i].Key()), zap.Error(err))
			}
		}
	}

	for _, key := range keys {
		lk, err := l.obtain(ctx, key)
		if err != nil {
			release()
			return nil, err
		}
		held = append(held, lk)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (l *RedisLocker) obtain(ctx context.Context, key string) (*redislock.Lock, error) {
	obtainCtx, cancel := context.WithTimeout(ctx, l.retryTimeout)
	defer cancel()

	lk, err := l.client.Obtain(obtainCtx, l.keyPrefix+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(retryInterval),
	})
	switch {
	case err == nil:
		return lk, nil
	case errors.Is(err, redislock.ErrNotObtained), errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		l.logger.Warn("Could not obtain lock", zap.String("key", key), zap.Duration("waited", l.retryTimeout))
		return nil, fmt.Errorf("%s: %w", key, shared.ErrLockNotAcquired)
	default:
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
}

// normalizeKeys sorts and de-duplicates keys so concurrent callers always
// take overlapping locks in the same order
func normalizeKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var _ shared.Locker = (*RedisLocker)(nil)
