package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/retail/backoffice/internal/domain/shared"
)

// InMemoryLocker serializes writers inside one process.
// Each key is a one-slot channel; holding the slot holds the lock.
type InMemoryLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewInMemoryLocker creates an empty locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{slots: make(map[string]chan struct{})}
}

func (l *InMemoryLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[key] = s
	}
	return s
}

// Acquire takes every key in sorted order, waiting until each is free or ctx is done
func (l *InMemoryLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalizeKeys(keys)
	held := make([]chan struct{}, 0, len(keys))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	for _, key := range keys {
		s := l.slot(key)
		select {
		case s <- struct{}{}:
			held = append(held, s)
		case <-ctx.Done():
			release()
			return nil, fmt.Errorf("%s: %w", key, shared.ErrLockNotAcquired)
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

var _ shared.Locker = (*InMemoryLocker)(nil)
