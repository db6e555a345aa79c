package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultIdempotencyTTL is how long an accepted request key is remembered
const DefaultIdempotencyTTL = 24 * time.Hour

// Unit describes the guards around one command
type Unit struct {
	// Name is used in logs
	Name string
	// IdempotencyKey rejects a second submission of the same command when set
	IdempotencyKey string
	// LockKeys are the entities the command writes; see the Key* helpers
	LockKeys []string
}

// Runner executes commands: claim the idempotency key, lock the touched
// entities, run everything in one transaction, publish events after commit.
// Any failure rolls back the whole transaction and releases the key.
type Runner struct {
	scope          TransactionScope
	locker         shared.Locker
	idempotency    shared.IdempotencyStore
	publisher      shared.EventPublisher
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithLocker serializes writers of the same entities
func WithLocker(l shared.Locker) RunnerOption {
	return func(r *Runner) { r.locker = l }
}

// WithIdempotency enables duplicate-submission checks
func WithIdempotency(store shared.IdempotencyStore, ttl time.Duration) RunnerOption {
	return func(r *Runner) {
		r.idempotency = store
		if ttl > 0 {
			r.idempotencyTTL = ttl
		}
	}
}

// WithPublisher publishes collected domain events after commit
func WithPublisher(p shared.EventPublisher) RunnerOption {
	return func(r *Runner) { r.publisher = p }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner over a transaction scope
func NewRunner(scope TransactionScope, opts ...RunnerOption) *Runner {
	r := &Runner{
		scope:          scope,
		idempotencyTTL: DefaultIdempotencyTTL,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scope returns the underlying transaction scope
func (r *Runner) Scope() TransactionScope {
	return r.scope
}

// Repositories returns non-transactional repositories for reads
func (r *Runner) Repositories() Repositories {
	return r.scope.Repositories()
}

// Logger returns the runner's logger
func (r *Runner) Logger() *zap.Logger {
	return r.logger
}

// Run executes fn as one unit of work
func (r *Runner) Run(ctx context.Context, u Unit, fn func(tx *Tx) error) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "unit", u.Name,
		telemetry.WithAttribute(telemetry.SpanAttrOperation, u.Name),
		telemetry.WithAttribute(telemetry.SpanAttrLockKeys, u.LockKeys),
	)
	defer func() {
		if err != nil {
			telemetry.SetAttributes(span, telemetry.SpanAttrErrorKind, string(shared.KindOf(err)))
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetOK(span)
		}
		span.End()
	}()
	if u.IdempotencyKey != "" {
		telemetry.SetAttributes(span, telemetry.SpanAttrIdempotencyKey, u.IdempotencyKey)
	}

	if u.IdempotencyKey != "" && r.idempotency != nil {
		key := u.Name + ":" + u.IdempotencyKey
		claimed, claimErr := r.idempotency.Claim(ctx, key, r.idempotencyTTL)
		if claimErr != nil {
			return fmt.Errorf("claim idempotency key: %w", claimErr)
		}
		if !claimed {
			r.logger.Warn("Duplicate request rejected",
				zap.String("operation", u.Name),
				zap.String("idempotency_key", u.IdempotencyKey))
			return shared.ErrDuplicateRequest
		}
		defer func() {
			if err == nil {
				return
			}
			if relErr := r.idempotency.Release(context.WithoutCancel(ctx), key); relErr != nil {
				r.logger.Error("Failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
			}
		}()
	}

	if r.locker != nil && len(u.LockKeys) > 0 {
		release, lockErr := r.locker.Acquire(ctx, u.LockKeys...)
		if lockErr != nil {
			return lockErr
		}
		defer release()
	}

	var events []shared.DomainEvent
	err = r.scope.Execute(ctx, func(repos Repositories) error {
		tx := NewTx(repos)
		if fnErr := fn(tx); fnErr != nil {
			return fnErr
		}
		events = tx.Events()
		return nil
	})
	if err != nil {
		r.logRejection(u.Name, err)
		return err
	}

	if r.publisher != nil && len(events) > 0 {
		telemetry.SetAttributes(span, telemetry.SpanAttrEvents, len(events))
		if pubErr := r.publisher.Publish(ctx, events...); pubErr != nil {
			r.logger.Error("Failed to publish domain events",
				zap.String("operation", u.Name), zap.Int("count", len(events)), zap.Error(pubErr))
		}
	}
	return nil
}

func (r *Runner) logRejection(name string, err error) {
	kind := shared.KindOf(err)
	if kind == shared.KindInternal && !errors.Is(err, shared.ErrConcurrencyConflict) {
		r.logger.Error("Operation failed", zap.String("operation", name), zap.Error(err))
		return
	}
	r.logger.Warn("Operation rejected",
		zap.String("operation", name), zap.String("kind", string(kind)), zap.Error(err))
}
