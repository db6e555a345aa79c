package shared

import (
	"context"
	"time"
)

// IdempotencyStore records request keys that have already been accepted so a
// duplicate submission of the same financial command is rejected instead of
// being applied twice.
type IdempotencyStore interface {
	// Claim marks key as in use for ttl.
	// Returns true if the key was newly claimed, false if it already existed.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release removes a claim, used when the guarded command failed and may be resubmitted
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}

// Locker serializes writers to the same entity across processes.
// Acquire takes every key (in sorted order) or none; release must be called once.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// SequenceGenerator hands out strictly increasing numbers per sequence name
type SequenceGenerator interface {
	Next(ctx context.Context, name string) (int64, error)
}

// Sequence names used for document numbering
const (
	SequenceJournalEntry        = "journal_entry"
	SequenceInvoice             = "invoice"
	SequencePurchaseOrder       = "purchase_order"
	SequenceSalesReturn         = "sales_return"
	SequenceTreasuryTransaction = "treasury_transaction"
	SequenceInventoryCount      = "inventory_count"
)
