package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
)

// EntryFilter narrows entry listings
type EntryFilter struct {
	Account  Account
	Type     EntryType
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// EntryRepository persists journal entries. It exposes no update or delete.
type EntryRepository interface {
	// Create inserts a new entry
	Create(ctx context.Context, entry *Entry) error

	// FindByID finds an entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Entry, error)

	// FindByAccount returns entries touching account within [from, to], ordered by entry number
	FindByAccount(ctx context.Context, account Account, from, to *time.Time) ([]*Entry, error)

	// FindByReference returns entries posted for a document, ordered by entry number
	FindByReference(ctx context.Context, ref shared.Reference) ([]*Entry, error)

	// FindAll lists entries matching the filter, newest first
	FindAll(ctx context.Context, filter EntryFilter) ([]*Entry, int64, error)

	// SumByAccount returns debit and credit totals of account for entries dated before the given time
	SumByAccount(ctx context.Context, account Account, before time.Time) (AccountTotals, error)

	// TotalsAsOf returns debit and credit totals per account for entries dated up to asOf (inclusive)
	TotalsAsOf(ctx context.Context, asOf time.Time) ([]AccountTotals, error)

	// ExistsReversalOf reports whether a reversal entry for the given entry exists
	ExistsReversalOf(ctx context.Context, entryID uuid.UUID) (bool, error)
}
