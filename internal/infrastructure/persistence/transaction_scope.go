package persistence

import (
	"context"

	"github.com/retail/backoffice/internal/application/core"
	"github.com/retail/backoffice/internal/domain/debt"
	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/domain/inventorycount"
	"github.com/retail/backoffice/internal/domain/ledger"
	"github.com/retail/backoffice/internal/domain/partner"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/retail/backoffice/internal/domain/trade"
	"github.com/retail/backoffice/internal/domain/treasury"
	"gorm.io/gorm"
)

// GormTransactionScope implements core.TransactionScope using GORM transactions.
// Every repository handed to fn shares the same database transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos core.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{db: tx})
	})
}

// Repositories returns repositories outside any transaction, for reads
func (s *GormTransactionScope) Repositories() core.Repositories {
	return &gormRepositories{db: s.db}
}

// gormRepositories builds repositories over one *gorm.DB, which is either the
// pool or a running transaction.
type gormRepositories struct {
	db *gorm.DB
}

func (r *gormRepositories) Entries() ledger.EntryRepository {
	return NewGormEntryRepository(r.db)
}

func (r *gormRepositories) Treasury() treasury.TreasuryRepository {
	return NewGormTreasuryRepository(r.db)
}

func (r *gormRepositories) TreasuryTransactions() treasury.TransactionRepository {
	return NewGormTreasuryTransactionRepository(r.db)
}

func (r *gormRepositories) Cashboxes() treasury.CashboxRepository {
	return NewGormCashboxRepository(r.db)
}

func (r *gormRepositories) Debts() debt.DebtRepository {
	return NewGormDebtRepository(r.db)
}

func (r *gormRepositories) DebtPayments() debt.PaymentRepository {
	return NewGormDebtPaymentRepository(r.db)
}

func (r *gormRepositories) Products() stock.ProductRepository {
	return NewGormProductRepository(r.db)
}

func (r *gormRepositories) Movements() stock.MovementRepository {
	return NewGormMovementRepository(r.db)
}

func (r *gormRepositories) Invoices() trade.InvoiceRepository {
	return NewGormInvoiceRepository(r.db)
}

func (r *gormRepositories) PurchaseOrders() trade.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.db)
}

func (r *gormRepositories) SalesReturns() trade.SalesReturnRepository {
	return NewGormSalesReturnRepository(r.db)
}

func (r *gormRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.db)
}

func (r *gormRepositories) Suppliers() partner.SupplierRepository {
	return NewGormSupplierRepository(r.db)
}

func (r *gormRepositories) Counts() inventorycount.CountRepository {
	return NewGormCountRepository(r.db)
}

func (r *gormRepositories) Users() identity.UserRepository {
	return NewGormUserRepository(r.db)
}

func (r *gormRepositories) Sequences() shared.SequenceGenerator {
	return NewGormSequenceGenerator(r.db)
}

// Ensure GormTransactionScope implements TransactionScope
var _ core.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormRepositories implements Repositories
var _ core.Repositories = (*gormRepositories)(nil)
