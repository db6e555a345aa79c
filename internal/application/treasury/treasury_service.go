package treasury

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	appledger "github.com/retail/backoffice/internal/application/ledger"
	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/domain/ledger"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/treasury"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CashboxLine is the cashbox figure a document-driven cash movement lands on
type CashboxLine int

const (
	// CashboxSales collects cash from customers; refunds reduce it
	CashboxSales CashboxLine = iota
	// CashboxPurchases collects cash paid to suppliers
	CashboxPurchases
)

// TreasuryService owns the cash balance, its transactions and the daily cashbox
type TreasuryService struct {
	runner *core.Runner
	ledger *appledger.LedgerService
	auth   core.Authorizer
	logger *zap.Logger
}

// NewTreasuryService creates a new TreasuryService
func NewTreasuryService(runner *core.Runner, ledgerService *appledger.LedgerService, auth core.Authorizer, logger *zap.Logger) *TreasuryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TreasuryService{runner: runner, ledger: ledgerService, auth: auth, logger: logger}
}

// ManualCashCommand is an operator-entered income or expense
type ManualCashCommand struct {
	Date           *time.Time      `json:"date"`
	Amount         decimal.Decimal `json:"amount" validate:"gt=0"`
	Reason         string          `json:"reason" validate:"required,max=500"`
	Category       string          `json:"category" validate:"omitempty,max=50"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// ManualCashResult is the outcome of a manual cash command
type ManualCashResult struct {
	Transaction *treasury.Transaction
	Entry       *ledger.Entry
	Cashbox     *treasury.DailyCashbox
}

// AddManualIncome records cash received outside of sales: Dr Cash / Cr Other Income
func (s *TreasuryService) AddManualIncome(ctx context.Context, cmd ManualCashCommand, userID uuid.UUID) (*ManualCashResult, error) {
	return s.addManual(ctx, cmd, userID, treasury.TransactionTypeIncome)
}

// AddManualExpense records cash paid out: Dr <category expense> / Cr Cash.
// Rejected with InsufficientFunds when the treasury holds less than the amount.
func (s *TreasuryService) AddManualExpense(ctx context.Context, cmd ManualCashCommand, userID uuid.UUID) (*ManualCashResult, error) {
	return s.addManual(ctx, cmd, userID, treasury.TransactionTypeExpense)
}

func (s *TreasuryService) addManual(ctx context.Context, cmd ManualCashCommand, userID uuid.UUID, txType treasury.TransactionType) (*ManualCashResult, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	date := time.Now()
	if cmd.Date != nil {
		date = *cmd.Date
	}
	name := "treasury.manual_income"
	if txType == treasury.TransactionTypeExpense {
		name = "treasury.manual_expense"
	}

	result := &ManualCashResult{}
	err := s.runner.Run(ctx, core.Unit{
		Name:           name,
		IdempotencyKey: cmd.IdempotencyKey,
		LockKeys:       []string{core.KeyTreasury},
	}, func(tx *core.Tx) error {
		t, box, err := s.apply(ctx, tx, treasury.NewTransactionInput{
			Type:        txType,
			Amount:      cmd.Amount,
			Description: cmd.Reason,
			Reference:   shared.ManualReference(),
			Method:      shared.PaymentMethodCash,
			Date:        date,
			CreatedBy:   userID,
		}, func(box *treasury.DailyCashbox, t *treasury.Transaction) error {
			if txType == treasury.TransactionTypeIncome {
				_, err := box.AddManualIncome(cmd.Amount, cmd.Reason, cmd.Category, t.ID, userID)
				return err
			}
			_, err := box.AddManualExpense(cmd.Amount, cmd.Reason, cmd.Category, t.ID, userID)
			return err
		})
		if err != nil {
			return err
		}

		req := ledger.PostingRequest{
			Date:        date,
			Amount:      cmd.Amount,
			Description: cmd.Reason,
			Reference:   shared.NewReference(shared.ReferenceTreasuryTransaction, t.ID),
			CreatedBy:   userID,
		}
		if txType == treasury.TransactionTypeIncome {
			req.Type = ledger.EntryTypeIncome
			req.DebitAccount = ledger.AccountCash
			req.CreditAccount = ledger.AccountOtherIncome
		} else {
			req.Type = ledger.EntryTypeExpense
			req.DebitAccount = ledger.ExpenseCategory(cmd.Category).Account()
			req.CreditAccount = ledger.AccountCash
		}
		entry, err := s.ledger.PostTx(ctx, tx, req)
		if err != nil {
			return err
		}
		result.Transaction, result.Entry, result.Cashbox = t, entry, box
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Manual cash movement recorded",
		zap.String("number", result.Transaction.Number),
		zap.String("type", string(txType)),
		zap.String("amount", cmd.Amount.String()),
		zap.String("user_id", userID.String()))
	return result, nil
}

// PostDocumentCashTx applies a cash movement caused by a document inside a
// running unit of work and books it on the cashbox line of its day.
// The caller posts the ledger entries.
func (s *TreasuryService) PostDocumentCashTx(ctx context.Context, tx *core.Tx, in treasury.NewTransactionInput, line CashboxLine) (*treasury.Transaction, error) {
	if in.Reference.IsZero() || in.Reference.Type == shared.ReferenceManual {
		return nil, shared.NewValidationError("INVALID_REFERENCE", "Document cash movements need a document reference")
	}
	t, _, err := s.apply(ctx, tx, in, func(box *treasury.DailyCashbox, t *treasury.Transaction) error {
		if line == CashboxPurchases {
			box.ApplyPurchaseExpense(t.SignedAmount().Neg())
			return nil
		}
		box.ApplySalesIncome(t.SignedAmount())
		return nil
	})
	return t, err
}

// apply loads the cashbox of the transaction's day before touching the
// treasury, so a newly opened cashbox starts from the balance before this movement
func (s *TreasuryService) apply(
	ctx context.Context,
	tx *core.Tx,
	in treasury.NewTransactionInput,
	onCashbox func(box *treasury.DailyCashbox, t *treasury.Transaction) error,
) (*treasury.Transaction, *treasury.DailyCashbox, error) {
	if in.Date.IsZero() {
		in.Date = time.Now()
	}
	box, created, err := s.cashboxTx(ctx, tx, in.Date)
	if err != nil {
		return nil, nil, err
	}
	tr, err := tx.Treasury().Get(ctx)
	if err != nil {
		return nil, nil, err
	}

	seq, err := tx.NextNumber(ctx, shared.SequenceTreasuryTransaction)
	if err != nil {
		return nil, nil, err
	}
	t, err := treasury.NewTransaction(in, seq)
	if err != nil {
		return nil, nil, err
	}
	if err := tr.Apply(t); err != nil {
		if shared.KindOf(err) == shared.KindInsufficientFunds {
			s.logger.Warn("Expense rejected",
				zap.String("balance", tr.Balance.String()),
				zap.String("amount", in.Amount.String()),
				zap.String("reference", in.Reference.String()))
		}
		return nil, nil, err
	}
	if err := tx.Treasury().Save(ctx, tr); err != nil {
		return nil, nil, err
	}
	if err := tx.TreasuryTransactions().Create(ctx, t); err != nil {
		return nil, nil, err
	}

	if err := onCashbox(box, t); err != nil {
		return nil, nil, err
	}
	if err := s.saveCashbox(ctx, tx, box, created); err != nil {
		return nil, nil, err
	}
	return t, box, nil
}

// cashboxTx returns the cashbox of date's day, opening it when missing.
// A new cashbox opens with the previous cashbox's closing balance, or the
// treasury balance when there is no earlier cashbox.
func (s *TreasuryService) cashboxTx(ctx context.Context, tx *core.Tx, date time.Time) (*treasury.DailyCashbox, bool, error) {
	day := shared.DayKey(date)
	box, err := tx.Cashboxes().FindByDate(ctx, day)
	if err == nil {
		return box, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	opening := decimal.Zero
	prev, err := tx.Cashboxes().FindLatestBefore(ctx, day)
	switch {
	case err == nil:
		opening = prev.ClosingBalance
	case errors.Is(err, shared.ErrNotFound):
		tr, err := tx.Treasury().Get(ctx)
		if err != nil {
			return nil, false, err
		}
		opening = tr.Balance
	default:
		return nil, false, err
	}
	return treasury.NewDailyCashbox(date, opening), true, nil
}

func (s *TreasuryService) saveCashbox(ctx context.Context, tx *core.Tx, box *treasury.DailyCashbox, created bool) error {
	box.Recalculate()
	if created {
		return tx.Cashboxes().Create(ctx, box)
	}
	return tx.Cashboxes().Save(ctx, box)
}

// GetDailyCashbox returns the cashbox of a day, opening it on first access
func (s *TreasuryService) GetDailyCashbox(ctx context.Context, date time.Time) (*treasury.DailyCashbox, error) {
	var box *treasury.DailyCashbox
	err := s.runner.Run(ctx, core.Unit{Name: "treasury.get_cashbox", LockKeys: []string{core.KeyTreasury}}, func(tx *core.Tx) error {
		b, created, err := s.cashboxTx(ctx, tx, date)
		if err != nil {
			return err
		}
		if created {
			if err := s.saveCashbox(ctx, tx, b, true); err != nil {
				return err
			}
		}
		box = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return box, nil
}

// ListCashboxes returns the stored cashboxes between two days
func (s *TreasuryService) ListCashboxes(ctx context.Context, from, to time.Time) ([]*treasury.DailyCashbox, error) {
	return s.runner.Repositories().Cashboxes().FindRange(ctx, shared.DayKey(from), shared.DayKey(to))
}

// GetCurrentBalance reads the treasury balance
func (s *TreasuryService) GetCurrentBalance(ctx context.Context) (decimal.Decimal, error) {
	tr, err := s.runner.Repositories().Treasury().Get(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return tr.Balance, nil
}

// ReconcileCommand records the counted closing cash of a day
type ReconcileCommand struct {
	Date          time.Time       `json:"date" validate:"required"`
	ActualClosing decimal.Decimal `json:"actual_closing" validate:"gte=0"`
	Notes         string          `json:"notes" validate:"max=1000"`
}

// ReconcileCashbox stores the operator-observed closing balance. The treasury
// balance is not touched.
func (s *TreasuryService) ReconcileCashbox(ctx context.Context, cmd ReconcileCommand, userID uuid.UUID) (*treasury.DailyCashbox, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	var box *treasury.DailyCashbox
	err := s.runner.Run(ctx, core.Unit{Name: "treasury.reconcile", LockKeys: []string{core.KeyTreasury}}, func(tx *core.Tx) error {
		b, created, err := s.cashboxTx(ctx, tx, cmd.Date)
		if err != nil {
			return err
		}
		if err := b.Reconcile(cmd.ActualClosing, userID, cmd.Notes); err != nil {
			return err
		}
		box = b
		return s.saveCashbox(ctx, tx, b, created)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Cashbox reconciled",
		zap.String("date", box.Date),
		zap.String("difference", box.Difference.String()),
		zap.String("user_id", userID.String()))
	return box, nil
}

// UndoTransaction reverses a manual treasury transaction: the original is marked
// reversed, a compensating transaction restores the balance, the ledger entries
// are reversed and the cashbox of the original day drops the line.
// Only managers and admins may undo. Transactions caused by documents are
// undone through their document (sale reversal, debt payment) instead.
func (s *TreasuryService) UndoTransaction(ctx context.Context, id, userID uuid.UUID, reason string) (*treasury.Transaction, error) {
	if err := s.auth.RequireRole(ctx, userID, identity.PrivilegedRoles...); err != nil {
		return nil, err
	}

	var comp *treasury.Transaction
	err := s.runner.Run(ctx, core.Unit{Name: "treasury.undo", LockKeys: []string{core.KeyTreasury}}, func(tx *core.Tx) error {
		orig, err := tx.TreasuryTransactions().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !orig.IsReversed && !orig.IsCompensating() && orig.Reference.Type != shared.ReferenceManual {
			return shared.NewConflictError("DOCUMENT_TRANSACTION",
				"Transaction "+orig.Number+" belongs to "+orig.Reference.String()+" and must be reversed through it")
		}

		box, created, err := s.cashboxTx(ctx, tx, orig.Date)
		if err != nil {
			return err
		}
		seq, err := tx.NextNumber(ctx, shared.SequenceTreasuryTransaction)
		if err != nil {
			return err
		}
		c, err := orig.Reverse(userID, seq, reason)
		if err != nil {
			return err
		}

		tr, err := tx.Treasury().Get(ctx)
		if err != nil {
			return err
		}
		if err := tr.Apply(c); err != nil {
			return err
		}
		if err := tx.Treasury().Save(ctx, tr); err != nil {
			return err
		}
		if err := tx.TreasuryTransactions().Save(ctx, orig); err != nil {
			return err
		}
		if err := tx.TreasuryTransactions().Create(ctx, c); err != nil {
			return err
		}

		desc := "Undo " + orig.Number
		if reason != "" {
			desc += ": " + reason
		}
		if _, err := s.ledger.ReverseReferenceTx(ctx, tx,
			shared.NewReference(shared.ReferenceTreasuryTransaction, orig.ID), userID, desc); err != nil {
			return err
		}

		box.RemoveTransactionEffect(orig)
		if err := s.saveCashbox(ctx, tx, box, created); err != nil {
			return err
		}
		comp = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Treasury transaction undone",
		zap.String("original_id", id.String()),
		zap.String("compensating", comp.Number),
		zap.String("user_id", userID.String()))
	return comp, nil
}

// GetTransaction returns one treasury transaction
func (s *TreasuryService) GetTransaction(ctx context.Context, id uuid.UUID) (*treasury.Transaction, error) {
	return s.runner.Repositories().TreasuryTransactions().FindByID(ctx, id)
}

// ListTransactions lists treasury transactions, newest first
func (s *TreasuryService) ListTransactions(ctx context.Context, filter treasury.TransactionFilter) ([]*treasury.Transaction, int64, error) {
	filter.Page, filter.PageSize = core.Page(filter.Page, filter.PageSize)
	if filter.From != nil {
		f := shared.StartOfDay(*filter.From)
		filter.From = &f
	}
	if filter.To != nil {
		t := shared.EndOfDay(*filter.To)
		filter.To = &t
	}
	return s.runner.Repositories().TreasuryTransactions().FindAll(ctx, filter)
}
