// Package sales coordinates the multi-entity operations of the back office:
// sales, purchases, payments and returns. Each operation touches stock, the
// ledger, the treasury, debts and partner balances in a single transaction.
package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	appdebt "github.com/retail/backoffice/internal/application/debt"
	appledger "github.com/retail/backoffice/internal/application/ledger"
	appstock "github.com/retail/backoffice/internal/application/stock"
	apptreasury "github.com/retail/backoffice/internal/application/treasury"
	"github.com/retail/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

// Default payment terms used when neither the command nor the partner sets one
const (
	DefaultCustomerPaymentTermsDays = 15
	DefaultSupplierPaymentTermsDays = 30
)

// Config holds the business defaults of the orchestrator
type Config struct {
	CustomerPaymentTermsDays int
	SupplierPaymentTermsDays int
}

func (c Config) withDefaults() Config {
	if c.CustomerPaymentTermsDays <= 0 {
		c.CustomerPaymentTermsDays = DefaultCustomerPaymentTermsDays
	}
	if c.SupplierPaymentTermsDays <= 0 {
		c.SupplierPaymentTermsDays = DefaultSupplierPaymentTermsDays
	}
	return c
}

// Orchestrator runs the operations that span several engines
type Orchestrator struct {
	runner   *core.Runner
	ledger   *appledger.LedgerService
	treasury *apptreasury.TreasuryService
	stock    *appstock.StockService
	debts    *appdebt.DebtService
	auth     core.Authorizer
	metrics  core.Metrics
	cfg      Config
	logger   *zap.Logger
}

// Dependencies groups the collaborators of the orchestrator
type Dependencies struct {
	Runner   *core.Runner
	Ledger   *appledger.LedgerService
	Treasury *apptreasury.TreasuryService
	Stock    *appstock.StockService
	Debts    *appdebt.DebtService
	Auth     core.Authorizer
	Metrics  core.Metrics
	Logger   *zap.Logger
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(deps Dependencies, cfg Config) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = core.NopMetrics{}
	}
	return &Orchestrator{
		runner:   deps.Runner,
		ledger:   deps.Ledger,
		treasury: deps.Treasury,
		stock:    deps.Stock,
		debts:    deps.Debts,
		auth:     deps.Auth,
		metrics:  metrics,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// run wraps Runner.Run and counts rejections by kind
func (o *Orchestrator) run(ctx context.Context, u core.Unit, fn func(tx *core.Tx) error) error {
	err := o.runner.Run(ctx, u, fn)
	if err != nil {
		o.metrics.RecordRejection(ctx, u.Name, string(shared.KindOf(err)))
	}
	return err
}

// dueIn returns midnight of the day that is days after now
func dueIn(now time.Time, days int) time.Time {
	return shared.StartOfDay(now).AddDate(0, 0, days)
}

// debtLockKey returns the lock key of the debt created for a document, if any
func (o *Orchestrator) debtLockKey(ctx context.Context, ref shared.Reference) ([]string, error) {
	d, err := o.runner.Repositories().Debts().FindByReference(ctx, ref)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []string{core.KeyDebt(d.ID)}, nil
}

func customerKeys(id *uuid.UUID) []string {
	if id == nil {
		return nil
	}
	return []string{core.KeyCustomer(*id)}
}
