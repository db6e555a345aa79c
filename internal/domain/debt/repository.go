package debt

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
)

// Filter narrows debt listings
type Filter struct {
	DebtorID   *uuid.UUID
	DebtorType DebtorType
	Status     Status
	DueFrom    *time.Time
	DueTo      *time.Time
	Page       int
	PageSize   int
}

// DebtRepository persists debts together with their installments
type DebtRepository interface {
	Create(ctx context.Context, d *Debt) error
	FindByID(ctx context.Context, id uuid.UUID) (*Debt, error)
	// FindByReference returns the debt created for a document, or shared.ErrNotFound
	FindByReference(ctx context.Context, ref shared.Reference) (*Debt, error)
	// Save writes the debt guarded by its version
	Save(ctx context.Context, d *Debt) error
	// FindAll lists debts ordered by due date, earliest first
	FindAll(ctx context.Context, filter Filter) ([]*Debt, int64, error)
	// FindOpen returns active and overdue debts, optionally for one debtor type
	FindOpen(ctx context.Context, debtorType DebtorType) ([]*Debt, error)
	FindByDebtor(ctx context.Context, debtorID uuid.UUID, debtorType DebtorType) ([]*Debt, error)
	// FindClosedReferences returns the IDs of documents of one type whose debt
	// was written off or cancelled
	FindClosedReferences(ctx context.Context, refType shared.ReferenceType) (map[uuid.UUID]bool, error)
}

// PaymentRepository persists payments
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	Save(ctx context.Context, p *Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	// FindByDebt returns a debt's payments, newest first
	FindByDebt(ctx context.Context, debtID uuid.UUID) ([]*Payment, error)
}
