package debt

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	appledger "github.com/retail/backoffice/internal/application/ledger"
	apptreasury "github.com/retail/backoffice/internal/application/treasury"
	"github.com/retail/backoffice/internal/domain/debt"
	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/domain/ledger"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/treasury"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DebtService tracks receivables and payables, their payments and aging
type DebtService struct {
	runner   *core.Runner
	ledger   *appledger.LedgerService
	treasury *apptreasury.TreasuryService
	auth     core.Authorizer
	metrics  core.Metrics
	logger   *zap.Logger
}

// NewDebtService creates a new DebtService
func NewDebtService(
	runner *core.Runner,
	ledgerService *appledger.LedgerService,
	treasuryService *apptreasury.TreasuryService,
	auth core.Authorizer,
	metrics core.Metrics,
	logger *zap.Logger,
) *DebtService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = core.NopMetrics{}
	}
	return &DebtService{
		runner:   runner,
		ledger:   ledgerService,
		treasury: treasuryService,
		auth:     auth,
		metrics:  metrics,
		logger:   logger,
	}
}

// LedgerReference is the reference payments and write-offs of d are posted under:
// the originating document, or the debt itself for manual debts
func LedgerReference(d *debt.Debt) shared.Reference {
	if d.IsManual() {
		return shared.NewReference(shared.ReferenceDebt, d.ID)
	}
	return d.Reference
}

// CreateDebtTx creates a debt inside a unit of work. A debt for a document is
// created once: when one already exists for the reference it is returned with created=false.
func (s *DebtService) CreateDebtTx(ctx context.Context, tx *core.Tx, in debt.NewDebtInput) (*debt.Debt, bool, error) {
	if !in.Reference.IsZero() && in.Reference.Type != shared.ReferenceManual {
		existing, err := tx.Debts().FindByReference(ctx, in.Reference)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, false, err
		}
	}
	d, err := debt.NewDebt(in)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Debts().Create(ctx, d); err != nil {
		return nil, false, err
	}
	return d, true, nil
}

// CreateDebtCommand registers a debt that did not come from a sale or purchase
type CreateDebtCommand struct {
	DebtorID    uuid.UUID       `json:"debtor_id" validate:"required"`
	DebtorType  debt.DebtorType `json:"debtor_type" validate:"required,oneof=Customer Supplier"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	DueDate     time.Time       `json:"due_date" validate:"required"`
	Description string          `json:"description" validate:"max=500"`
}

// CreateDebt records a manual debt. It raises the partner's balance and books
// the amount against owner equity: Dr Receivables / Cr Owner Equity for a
// customer, Dr Owner Equity / Cr Payables for a supplier.
func (s *DebtService) CreateDebt(ctx context.Context, cmd CreateDebtCommand, userID uuid.UUID) (*debt.Debt, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	partnerKey := core.KeyCustomer(cmd.DebtorID)
	if cmd.DebtorType == debt.DebtorSupplier {
		partnerKey = core.KeySupplier(cmd.DebtorID)
	}

	var created *debt.Debt
	err := s.runner.Run(ctx, core.Unit{Name: "debt.create", LockKeys: []string{partnerKey}}, func(tx *core.Tx) error {
		if err := s.adjustPartnerBalance(ctx, tx, cmd.DebtorID, cmd.DebtorType, cmd.Amount); err != nil {
			return err
		}
		d, _, err := s.CreateDebtTx(ctx, tx, debt.NewDebtInput{
			DebtorID:    cmd.DebtorID,
			DebtorType:  cmd.DebtorType,
			Amount:      valueRound(cmd.Amount),
			DueDate:     cmd.DueDate,
			Reference:   shared.ManualReference(),
			Description: cmd.Description,
			CreatedBy:   userID,
		})
		if err != nil {
			return err
		}
		req := ledger.PostingRequest{
			Type:        ledger.EntryTypeOpening,
			Amount:      d.OriginalAmount,
			Description: "Manual debt: " + cmd.Description,
			Reference:   LedgerReference(d),
			CreatedBy:   userID,
		}
		if d.IsReceivable() {
			req.DebitAccount, req.CreditAccount = ledger.AccountReceivables, ledger.AccountOwnerEquity
		} else {
			req.DebitAccount, req.CreditAccount = ledger.AccountOwnerEquity, ledger.AccountPayables
		}
		if _, err := s.ledger.PostTx(ctx, tx, req); err != nil {
			return err
		}
		created = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Manual debt created",
		zap.String("debt_id", created.ID.String()),
		zap.String("debtor_type", string(created.DebtorType)),
		zap.String("amount", created.OriginalAmount.String()))
	return created, nil
}

func valueRound(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// adjustPartnerBalance raises (positive delta) or lowers (negative delta) what
// the partner owes or is owed. Lowering never goes below zero.
func (s *DebtService) adjustPartnerBalance(ctx context.Context, tx *core.Tx, partnerID uuid.UUID, debtorType debt.DebtorType, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	if debtorType == debt.DebtorSupplier {
		sup, err := tx.Suppliers().FindByID(ctx, partnerID)
		if err != nil {
			return err
		}
		if delta.IsPositive() {
			if err := sup.IncreaseBalance(delta); err != nil {
				return err
			}
		} else if cut := decimal.Min(delta.Neg(), sup.Balance); cut.IsPositive() {
			if err := sup.DecreaseBalance(cut); err != nil {
				return err
			}
		}
		return tx.Suppliers().Save(ctx, sup)
	}

	cust, err := tx.Customers().FindByID(ctx, partnerID)
	if err != nil {
		return err
	}
	if delta.IsPositive() {
		if err := cust.IncreaseBalance(delta); err != nil {
			return err
		}
	} else if cut := decimal.Min(delta.Neg(), cust.Balance); cut.IsPositive() {
		if err := cust.DecreaseBalance(cut); err != nil {
			return err
		}
	}
	return tx.Customers().Save(ctx, cust)
}

// InstallmentPlanCommand schedules the remaining amount of a debt
type InstallmentPlanCommand struct {
	DebtID    uuid.UUID     `json:"debt_id" validate:"required"`
	Count     int           `json:"count" validate:"gte=1,lte=120"`
	Interval  debt.Interval `json:"interval" validate:"required,oneof=weekly biweekly monthly"`
	StartDate time.Time     `json:"start_date" validate:"required"`
}

// CreateInstallmentPlan replaces the open installments of a debt
func (s *DebtService) CreateInstallmentPlan(ctx context.Context, cmd InstallmentPlanCommand) (*debt.Debt, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	var out *debt.Debt
	err := s.runner.Run(ctx, core.Unit{Name: "debt.installment_plan", LockKeys: []string{core.KeyDebt(cmd.DebtID)}}, func(tx *core.Tx) error {
		d, err := tx.Debts().FindByID(ctx, cmd.DebtID)
		if err != nil {
			return err
		}
		if err := d.CreateInstallmentPlan(cmd.Count, cmd.Interval, cmd.StartDate); err != nil {
			return err
		}
		out = d
		return tx.Debts().Save(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PaymentCommand records money against a debt
type PaymentCommand struct {
	DebtID         uuid.UUID            `json:"debt_id" validate:"required"`
	Amount         decimal.Decimal      `json:"amount" validate:"gt=0"`
	Method         shared.PaymentMethod `json:"method" validate:"required,oneof=cash bank_transfer check cash_wallet"`
	Note           string               `json:"note" validate:"max=500"`
	Date           *time.Time           `json:"date"`
	IdempotencyKey string               `json:"idempotency_key"`
}

// PaymentInput is a payment applied by the shared payment path
type PaymentInput struct {
	Amount decimal.Decimal
	Method shared.PaymentMethod
	Note   string
	Date   time.Time
	UserID uuid.UUID
}

// PaymentResult is the outcome of a payment
type PaymentResult struct {
	Debt    *debt.Debt
	Payment *debt.Payment
	Entry   *ledger.Entry
}

// RecordPayment applies a payment to a debt
func (s *DebtService) RecordPayment(ctx context.Context, cmd PaymentCommand, userID uuid.UUID) (*PaymentResult, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	keys, err := s.LockKeysForDebt(ctx, cmd.DebtID)
	if err != nil {
		return nil, err
	}
	in := PaymentInput{Amount: cmd.Amount, Method: cmd.Method, Note: cmd.Note, UserID: userID, Date: time.Now()}
	if cmd.Date != nil {
		in.Date = *cmd.Date
	}

	var result *PaymentResult
	err = s.runner.Run(ctx, core.Unit{Name: "debt.record_payment", IdempotencyKey: cmd.IdempotencyKey, LockKeys: keys}, func(tx *core.Tx) error {
		d, err := tx.Debts().FindByID(ctx, cmd.DebtID)
		if err != nil {
			return err
		}
		result, err = s.PayDebtTx(ctx, tx, d, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordPayment(ctx, string(result.Debt.DebtorType), result.Payment.Amount)
	return result, nil
}

// LockKeysForDebt returns the entities a payment on the debt writes
func (s *DebtService) LockKeysForDebt(ctx context.Context, debtID uuid.UUID) ([]string, error) {
	d, err := s.runner.Repositories().Debts().FindByID(ctx, debtID)
	if err != nil {
		return nil, err
	}
	keys := []string{core.KeyDebt(d.ID), core.KeyTreasury}
	if d.IsReceivable() {
		keys = append(keys, core.KeyCustomer(d.DebtorID))
	} else {
		keys = append(keys, core.KeySupplier(d.DebtorID))
	}
	switch d.Reference.Type {
	case shared.ReferenceInvoice:
		keys = append(keys, core.KeyInvoice(d.Reference.ID))
	case shared.ReferencePurchaseOrder:
		keys = append(keys, core.KeyPurchaseOrder(d.Reference.ID))
	}
	return keys, nil
}

// PayDebtTx is the single payment path used by debt payments, invoice payments
// and settlements. Inside the running unit of work it
//   - records the payment on the debt (settling it at zero),
//   - mirrors it on the originating invoice or purchase order,
//   - posts the ledger entry,
//   - moves treasury cash for cash-like methods,
//   - lowers the partner balance.
func (s *DebtService) PayDebtTx(ctx context.Context, tx *core.Tx, d *debt.Debt, in PaymentInput) (*PaymentResult, error) {
	if in.Method.IsInternal() {
		return nil, shared.NewValidationError("INVALID_PAYMENT_METHOD", "Internal transfers are reserved for synchronization")
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}
	p, err := d.RecordPayment(in.Amount, in.Method, in.Note, in.Date, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := tx.Debts().Save(ctx, d); err != nil {
		return nil, err
	}
	if err := tx.DebtPayments().Create(ctx, p); err != nil {
		return nil, err
	}
	tx.Collect(d)

	if err := s.mirrorOnDocument(ctx, tx, d, in); err != nil {
		return nil, err
	}

	ref := LedgerReference(d)
	req := ledger.PostingRequest{
		Date:        in.Date,
		Type:        ledger.EntryTypePayment,
		Amount:      in.Amount,
		Description: paymentDescription(d, in.Note),
		Reference:   ref,
		CreatedBy:   in.UserID,
	}
	settlement := ledger.SettlementAccount(in.Method)
	if d.IsReceivable() {
		req.DebitAccount, req.CreditAccount = settlement, ledger.AccountReceivables
	} else {
		req.DebitAccount, req.CreditAccount = ledger.AccountPayables, settlement
	}
	entry, err := s.ledger.PostTx(ctx, tx, req)
	if err != nil {
		return nil, err
	}

	if in.Method.MovesCash() {
		partnerID := d.DebtorID
		cash := treasury.NewTransactionInput{
			Type:        treasury.TransactionTypeIncome,
			Amount:      in.Amount,
			Description: req.Description,
			Reference:   ref,
			PartnerID:   &partnerID,
			Method:      in.Method,
			Date:        in.Date,
			CreatedBy:   in.UserID,
		}
		line := apptreasury.CashboxSales
		if !d.IsReceivable() {
			cash.Type = treasury.TransactionTypeExpense
			line = apptreasury.CashboxPurchases
		}
		if _, err := s.treasury.PostDocumentCashTx(ctx, tx, cash, line); err != nil {
			return nil, err
		}
	}

	if err := s.adjustPartnerBalance(ctx, tx, d.DebtorID, d.DebtorType, in.Amount.Neg()); err != nil {
		return nil, err
	}

	s.logger.Info("Debt payment recorded",
		zap.String("debt_id", d.ID.String()),
		zap.String("amount", in.Amount.String()),
		zap.String("method", string(in.Method)),
		zap.String("status", string(d.Status)))
	return &PaymentResult{Debt: d, Payment: p, Entry: entry}, nil
}

func paymentDescription(d *debt.Debt, note string) string {
	desc := "Payment received"
	if !d.IsReceivable() {
		desc = "Payment to supplier"
	}
	if note != "" {
		desc += ": " + note
	}
	return desc
}

// mirrorOnDocument records the same payment on the invoice or purchase order
// the debt came from. When the document shows less outstanding than the debt
// (the two have drifted apart) only what fits is applied; SyncDebts realigns the rest.
func (s *DebtService) mirrorOnDocument(ctx context.Context, tx *core.Tx, d *debt.Debt, in PaymentInput) error {
	switch d.Reference.Type {
	case shared.ReferenceInvoice:
		inv, err := tx.Invoices().FindByID(ctx, d.Reference.ID)
		if err != nil {
			return err
		}
		applied := decimal.Min(in.Amount, inv.Outstanding())
		if applied.IsPositive() && !inv.IsReversed {
			if _, err := inv.RecordPayment(applied, in.Method, in.Note, in.Date, in.UserID); err != nil {
				return err
			}
			if err := tx.Invoices().Save(ctx, inv); err != nil {
				return err
			}
		}
		if applied.LessThan(in.Amount) {
			s.logger.Warn("Invoice and debt disagree on the outstanding amount",
				zap.String("invoice", inv.Number), zap.String("debt_id", d.ID.String()))
		}
	case shared.ReferencePurchaseOrder:
		po, err := tx.PurchaseOrders().FindByID(ctx, d.Reference.ID)
		if err != nil {
			return err
		}
		applied := decimal.Min(in.Amount, po.Outstanding())
		if applied.IsPositive() {
			if _, err := po.RecordPayment(applied, in.Method, in.Note, in.Date, in.UserID); err != nil {
				return err
			}
			if err := tx.PurchaseOrders().Save(ctx, po); err != nil {
				return err
			}
		}
		if applied.LessThan(in.Amount) {
			s.logger.Warn("Purchase order and debt disagree on the outstanding amount",
				zap.String("purchase_order", po.Number), zap.String("debt_id", d.ID.String()))
		}
	}
	return nil
}

// WriteOff closes an uncollectable debt. Managers and admins only.
// Receivables: Dr Bad Debt Expense / Cr Receivables. Payables: Dr Payables / Cr Other Income.
func (s *DebtService) WriteOff(ctx context.Context, debtID uuid.UUID, reason string, userID uuid.UUID) (*debt.Debt, error) {
	if err := s.auth.RequireRole(ctx, userID, identity.PrivilegedRoles...); err != nil {
		return nil, err
	}
	keys, err := s.LockKeysForDebt(ctx, debtID)
	if err != nil {
		return nil, err
	}

	var out *debt.Debt
	err = s.runner.Run(ctx, core.Unit{Name: "debt.write_off", LockKeys: keys}, func(tx *core.Tx) error {
		d, err := tx.Debts().FindByID(ctx, debtID)
		if err != nil {
			return err
		}
		if err := d.WriteOff(reason, userID); err != nil {
			return err
		}
		if err := tx.Debts().Save(ctx, d); err != nil {
			return err
		}
		tx.Collect(d)

		amount := d.RemainingAmount
		if amount.IsPositive() {
			req := ledger.PostingRequest{
				Type:        ledger.EntryTypeWriteOff,
				Amount:      amount,
				Description: "Write-off: " + reason,
				Reference:   LedgerReference(d),
				CreatedBy:   userID,
			}
			if d.IsReceivable() {
				req.DebitAccount, req.CreditAccount = ledger.AccountBadDebtExpense, ledger.AccountReceivables
			} else {
				req.DebitAccount, req.CreditAccount = ledger.AccountPayables, ledger.AccountOtherIncome
			}
			if _, err := s.ledger.PostTx(ctx, tx, req); err != nil {
				return err
			}
			if err := s.adjustPartnerBalance(ctx, tx, d.DebtorID, d.DebtorType, amount.Neg()); err != nil {
				return err
			}
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Debt written off",
		zap.String("debt_id", debtID.String()),
		zap.String("amount", out.RemainingAmount.String()),
		zap.String("user_id", userID.String()))
	return out, nil
}

// MarkOverdue moves debts past their due date to overdue and flags late
// installments. Each debt is saved in its own transaction so one conflict does
// not hold back the rest. Returns the number of debts changed.
func (s *DebtService) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	open, err := s.runner.Repositories().Debts().FindOpen(ctx, "")
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, candidate := range open {
		id := candidate.ID
		var updated bool
		err := s.runner.Run(ctx, core.Unit{Name: "debt.mark_overdue", LockKeys: []string{core.KeyDebt(id)}}, func(tx *core.Tx) error {
			d, err := tx.Debts().FindByID(ctx, id)
			if err != nil {
				return err
			}
			if !d.MarkOverdue(now) {
				return nil
			}
			updated = true
			return tx.Debts().Save(ctx, d)
		})
		if err != nil {
			s.logger.Warn("Failed to mark debt overdue", zap.String("debt_id", id.String()), zap.Error(err))
			continue
		}
		if updated {
			changed++
		}
	}
	return changed, nil
}

// DebtDetail is a debt with its payment history
type DebtDetail struct {
	Debt     *debt.Debt
	Payments []*debt.Payment
}

// GetDebt returns a debt with its payments and installments
func (s *DebtService) GetDebt(ctx context.Context, id uuid.UUID) (*DebtDetail, error) {
	repos := s.runner.Repositories()
	d, err := repos.Debts().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := repos.DebtPayments().FindByDebt(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DebtDetail{Debt: d, Payments: payments}, nil
}

// ListDebts lists debts, earliest due first
func (s *DebtService) ListDebts(ctx context.Context, filter debt.Filter) ([]*debt.Debt, int64, error) {
	filter.Page, filter.PageSize = core.Page(filter.Page, filter.PageSize)
	return s.runner.Repositories().Debts().FindAll(ctx, filter)
}

// CancelDocumentDebtTx voids the debt of a reversed document. Its payments are
// marked reversed first, so the remaining amount returns to the original amount.
// Refunding the money is up to the caller.
func (s *DebtService) CancelDocumentDebtTx(ctx context.Context, tx *core.Tx, ref shared.Reference, userID uuid.UUID, reason string) (*debt.Debt, []*debt.Payment, error) {
	d, err := tx.Debts().FindByReference(ctx, ref)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if d.Status.IsTerminal() {
		return d, nil, nil
	}
	payments, err := tx.DebtPayments().FindByDebt(ctx, d.ID)
	if err != nil {
		return nil, nil, err
	}
	now := time.Now()
	var reversed []*debt.Payment
	for _, p := range payments {
		if p.IsReversed {
			continue
		}
		if err := d.ReversePayment(p, userID, now); err != nil {
			return nil, nil, err
		}
		if err := tx.DebtPayments().Save(ctx, p); err != nil {
			return nil, nil, err
		}
		reversed = append(reversed, p)
	}
	if err := d.Cancel(reason); err != nil {
		return nil, nil, err
	}
	if err := tx.Debts().Save(ctx, d); err != nil {
		return nil, nil, err
	}
	return d, reversed, nil
}
