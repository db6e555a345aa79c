package core

import (
	"context"

	"github.com/retail/backoffice/internal/domain/debt"
	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/domain/inventorycount"
	"github.com/retail/backoffice/internal/domain/ledger"
	"github.com/retail/backoffice/internal/domain/partner"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/retail/backoffice/internal/domain/trade"
	"github.com/retail/backoffice/internal/domain/treasury"
)

// Repositories gives access to every repository of the back office.
// Repositories handed out by TransactionScope.Execute share one database transaction.
type Repositories interface {
	Entries() ledger.EntryRepository
	Treasury() treasury.TreasuryRepository
	TreasuryTransactions() treasury.TransactionRepository
	Cashboxes() treasury.CashboxRepository
	Debts() debt.DebtRepository
	DebtPayments() debt.PaymentRepository
	Products() stock.ProductRepository
	Movements() stock.MovementRepository
	Invoices() trade.InvoiceRepository
	PurchaseOrders() trade.PurchaseOrderRepository
	SalesReturns() trade.SalesReturnRepository
	Customers() partner.CustomerRepository
	Suppliers() partner.SupplierRepository
	Counts() inventorycount.CountRepository
	Users() identity.UserRepository
	Sequences() shared.SequenceGenerator
}

// TransactionScope runs a unit of work atomically.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back; otherwise it is committed.
	Execute(ctx context.Context, fn func(repos Repositories) error) error

	// Repositories returns repositories bound to no transaction, for reads
	Repositories() Repositories
}

// Tx is the state of one running unit of work: the transactional repositories
// plus the domain events collected while it runs. Events are published only
// after the transaction commits.
type Tx struct {
	Repositories
	events []shared.DomainEvent
}

// NewTx wraps repositories for a unit of work
func NewTx(repos Repositories) *Tx {
	return &Tx{Repositories: repos}
}

// Collect drains pending events from aggregates touched by the unit of work
func (t *Tx) Collect(sources ...shared.EventSource) {
	t.events = append(t.events, shared.DrainEvents(sources...)...)
}

// Events returns the collected events
func (t *Tx) Events() []shared.DomainEvent {
	return t.events
}

// NextNumber draws the next value of a named sequence
func (t *Tx) NextNumber(ctx context.Context, name string) (int64, error) {
	return t.Sequences().Next(ctx, name)
}
