package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	appdebt "github.com/retail/backoffice/internal/application/debt"
	appidentity "github.com/retail/backoffice/internal/application/identity"
	appcount "github.com/retail/backoffice/internal/application/inventorycount"
	appledger "github.com/retail/backoffice/internal/application/ledger"
	apppartner "github.com/retail/backoffice/internal/application/partner"
	"github.com/retail/backoffice/internal/application/sales"
	appstock "github.com/retail/backoffice/internal/application/stock"
	apptreasury "github.com/retail/backoffice/internal/application/treasury"
	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/domain/partner"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/retail/backoffice/internal/infrastructure/cache"
	"github.com/retail/backoffice/internal/infrastructure/event"
	"github.com/retail/backoffice/internal/infrastructure/lock"
	"github.com/retail/backoffice/internal/infrastructure/persistence"
	"github.com/retail/backoffice/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the password of every seeded user
const TestPassword = "correct-horse-9"

var farFuture = time.Date(2999, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	passwordHash     string
	passwordHashOnce sync.Once
)

// NewSQLiteDB opens a fresh file-backed SQLite database with the full schema.
// WAL mode lets reads outside a running transaction proceed while it holds the write lock.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "backoffice.db") + "?_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// Stack is the complete service graph over one test database
type Stack struct {
	DB     *gorm.DB
	Runner *core.Runner
	Bus    *event.InMemoryEventBus
	Logger *zap.Logger

	Auth         *appidentity.AuthService
	Users        *appidentity.UserService
	Ledger       *appledger.LedgerService
	Treasury     *apptreasury.TreasuryService
	Stock        *appstock.StockService
	Debts        *appdebt.DebtService
	Customers    *apppartner.CustomerService
	Suppliers    *apppartner.SupplierService
	Orchestrator *sales.Orchestrator
	Counts       *appcount.CountService

	Admin       *identity.User
	Manager     *identity.User
	Cashier     *identity.User
	Storekeeper *identity.User
}

type stackOptions struct {
	db      *gorm.DB
	logger  *zap.Logger
	metrics core.Metrics
	config  sales.Config
}

// StackOption customizes NewStack
type StackOption func(*stackOptions)

// WithStackDB runs the stack over db instead of a fresh SQLite file, e.g.
// a migrated PostgreSQL container
func WithStackDB(db *gorm.DB) StackOption {
	return func(o *stackOptions) { o.db = db }
}

// WithStackLogger routes service logs to l, e.g. a zaptest observer
func WithStackLogger(l *zap.Logger) StackOption {
	return func(o *stackOptions) { o.logger = l }
}

// WithStackMetrics records business metrics into m
func WithStackMetrics(m core.Metrics) StackOption {
	return func(o *stackOptions) { o.metrics = m }
}

// WithSalesConfig overrides payment terms
func WithSalesConfig(cfg sales.Config) StackOption {
	return func(o *stackOptions) { o.config = cfg }
}

// NewStack wires every service the way the server does, over a fresh
// database seeded with one user per role
func NewStack(t *testing.T, opts ...StackOption) *Stack {
	t.Helper()
	o := stackOptions{logger: zap.NewNop(), metrics: core.NopMetrics{}}
	for _, opt := range opts {
		opt(&o)
	}

	db := o.db
	if db == nil {
		db = NewSQLiteDB(t)
	}
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	bus := event.NewInMemoryEventBus(o.logger)
	runner := core.NewRunner(persistence.NewGormTransactionScope(db),
		core.WithLocker(lock.NewInMemoryLocker()),
		core.WithIdempotency(store, 0),
		core.WithPublisher(bus),
		core.WithLogger(o.logger),
	)
	userRepo := runner.Repositories().Users()

	s := &Stack{DB: db, Runner: runner, Bus: bus, Logger: o.logger}
	s.Auth = appidentity.NewAuthService(userRepo, o.logger)
	s.Users = appidentity.NewUserService(userRepo, s.Auth, o.logger)
	s.Ledger = appledger.NewLedgerService(runner, o.logger)
	s.Treasury = apptreasury.NewTreasuryService(runner, s.Ledger, s.Auth, o.logger)
	s.Stock = appstock.NewStockService(runner, s.Ledger, o.metrics, o.logger)
	s.Debts = appdebt.NewDebtService(runner, s.Ledger, s.Treasury, s.Auth, o.metrics, o.logger)
	s.Customers = apppartner.NewCustomerService(runner, o.logger)
	s.Suppliers = apppartner.NewSupplierService(runner, o.logger)
	s.Orchestrator = sales.NewOrchestrator(sales.Dependencies{
		Runner:   runner,
		Ledger:   s.Ledger,
		Treasury: s.Treasury,
		Stock:    s.Stock,
		Debts:    s.Debts,
		Auth:     s.Auth,
		Metrics:  o.metrics,
		Logger:   o.logger,
	}, o.config)
	s.Counts = appcount.NewCountService(runner, s.Ledger, s.Stock, s.Auth, o.logger)

	s.Admin = s.SeedUser(t, "admin", identity.RoleAdmin)
	s.Manager = s.SeedUser(t, "manager", identity.RoleManager)
	s.Cashier = s.SeedUser(t, "cashier", identity.RoleCashier)
	s.Storekeeper = s.SeedUser(t, "storekeeper", identity.RoleStorekeeper)
	return s
}

// SeedUser stores an active user whose password is TestPassword. The hash
// uses the minimum bcrypt cost to keep tests fast.
func (s *Stack) SeedUser(t *testing.T, username string, role identity.Role) *identity.User {
	t.Helper()
	passwordHashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		passwordHash = string(h)
	})
	u := &identity.User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          username,
		DisplayName:       username,
		PasswordHash:      passwordHash,
		Role:              role,
		Active:            true,
	}
	require.NoError(t, s.Runner.Repositories().Users().Create(context.Background(), u))
	return u
}

// ProductSpec describes a seeded product
type ProductSpec struct {
	Code           string
	BuyPrice       int64
	SellPrice      int64
	WholesalePrice int64
	MinLevel       int64
	WarehouseQty   int64
	ShopQty        int64
	Category       string
}

// SeedProduct creates a product and registers its opening stock
func (s *Stack) SeedProduct(t *testing.T, ps ProductSpec) *stock.Product {
	t.Helper()
	ctx := context.Background()
	p, err := s.Stock.CreateProduct(ctx, appstock.CreateProductCommand{
		Code:           ps.Code,
		Name:           "Product " + ps.Code,
		Category:       ps.Category,
		MinLevel:       decimal.NewFromInt(ps.MinLevel),
		BuyPrice:       decimal.NewFromInt(ps.BuyPrice),
		SellPrice:      decimal.NewFromInt(ps.SellPrice),
		WholesalePrice: decimal.NewFromInt(ps.WholesalePrice),
	})
	require.NoError(t, err)
	if ps.WarehouseQty == 0 && ps.ShopQty == 0 {
		return p
	}
	res, err := s.Stock.RegisterInitialBalance(ctx, appstock.InitialBalanceCommand{
		ProductID:    p.ID,
		WarehouseQty: decimal.NewFromInt(ps.WarehouseQty),
		ShopQty:      decimal.NewFromInt(ps.ShopQty),
	}, s.Storekeeper.ID)
	require.NoError(t, err)
	return res.Product
}

// SeedCustomer creates a customer; a zero creditLimit means unlimited
func (s *Stack) SeedCustomer(t *testing.T, code string, creditLimit int64) *partner.Customer {
	t.Helper()
	cmd := apppartner.CreateCustomerCommand{Code: code, Name: "Customer " + code}
	if creditLimit > 0 {
		limit := decimal.NewFromInt(creditLimit)
		cmd.CreditLimit = &limit
	}
	c, err := s.Customers.Create(context.Background(), cmd)
	require.NoError(t, err)
	return c
}

// SeedSupplier creates a supplier
func (s *Stack) SeedSupplier(t *testing.T, code string) *partner.Supplier {
	t.Helper()
	sup, err := s.Suppliers.Create(context.Background(), apppartner.CreateSupplierCommand{Code: code, Name: "Supplier " + code})
	require.NoError(t, err)
	return sup
}

// FundTreasury puts cash into the treasury through a manual income
func (s *Stack) FundTreasury(t *testing.T, amount int64) {
	t.Helper()
	_, err := s.Treasury.AddManualIncome(context.Background(), apptreasury.ManualCashCommand{
		Amount: decimal.NewFromInt(amount),
		Reason: "Opening float",
	}, s.Manager.ID)
	require.NoError(t, err)
}

// Product reloads a product
func (s *Stack) Product(t *testing.T, id uuid.UUID) *stock.Product {
	t.Helper()
	p, err := s.Stock.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p
}

// Customer reloads a customer
func (s *Stack) Customer(t *testing.T, id uuid.UUID) *partner.Customer {
	t.Helper()
	c, err := s.Customers.GetByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

// Balance returns the current treasury balance
func (s *Stack) Balance(t *testing.T) decimal.Decimal {
	t.Helper()
	b, err := s.Treasury.GetCurrentBalance(context.Background())
	require.NoError(t, err)
	return b
}

// RequireBalanced asserts that total debits equal total credits in the trial balance
func (s *Stack) RequireBalanced(t *testing.T) {
	t.Helper()
	tb, err := s.Ledger.GetTrialBalance(context.Background(), farFuture)
	require.NoError(t, err)
	require.True(t, tb.Balanced,
		"trial balance out of balance: debit %s credit %s", tb.TotalDebit, tb.TotalCredit)
}

// Dec is shorthand for decimal.NewFromInt
func Dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// RequireDecimal asserts two decimals are numerically equal
func RequireDecimal(t *testing.T, want, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.True(t, want.Equal(got), append([]interface{}{"want %s, got %s", want, got}, msgAndArgs...)...)
}
