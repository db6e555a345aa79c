package treasury

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TreasuryRepository persists the treasury singleton
type TreasuryRepository interface {
	// Get returns the treasury, creating it with a zero balance on first access
	Get(ctx context.Context) (*Treasury, error)

	// Save writes the treasury guarded by its version.
	// Returns shared.ErrConcurrencyConflict if another writer saved first.
	Save(ctx context.Context, t *Treasury) error
}

// TransactionFilter narrows treasury transaction listings
type TransactionFilter struct {
	From     *time.Time
	To       *time.Time
	Type     TransactionType
	Page     int
	PageSize int
}

// TransactionRepository persists treasury transactions
type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// Save updates the reversal markers of an existing transaction
	Save(ctx context.Context, tx *Transaction) error
	FindAll(ctx context.Context, filter TransactionFilter) ([]*Transaction, int64, error)
	// FindByReferenceID returns transactions posted for a document
	FindByReferenceID(ctx context.Context, refID uuid.UUID) ([]*Transaction, error)
}

// CashboxRepository persists daily cashboxes keyed by calendar date
type CashboxRepository interface {
	// FindByDate returns the cashbox of a YYYY-MM-DD day or shared.ErrNotFound
	FindByDate(ctx context.Context, day string) (*DailyCashbox, error)
	// FindLatestBefore returns the most recent cashbox dated before day, or shared.ErrNotFound
	FindLatestBefore(ctx context.Context, day string) (*DailyCashbox, error)
	Create(ctx context.Context, c *DailyCashbox) error
	// Save recomputes derived fields and writes the cashbox guarded by its version
	Save(ctx context.Context, c *DailyCashbox) error
	FindRange(ctx context.Context, fromDay, toDay string) ([]*DailyCashbox, error)
}
