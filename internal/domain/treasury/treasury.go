package treasury

import (
	"time"

	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TreasuryKey is the storage key of the single treasury record
const TreasuryKey = "main"

// Treasury holds the business's current cash balance. There is exactly one.
// It is only changed by applying treasury transactions.
type Treasury struct {
	shared.BaseAggregateRoot
	Key         string
	Balance     decimal.Decimal
	LastUpdated time.Time
}

// NewTreasury creates the treasury record with a zero balance
func NewTreasury() *Treasury {
	return &Treasury{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Key:               TreasuryKey,
		Balance:           decimal.Zero,
		LastUpdated:       time.Now(),
	}
}

// Apply changes the balance by the signed effect of tx.
// An expense larger than the current balance is rejected and leaves the balance untouched.
func (t *Treasury) Apply(tx *Transaction) error {
	if tx == nil {
		return shared.NewValidationError("INVALID_TRANSACTION", "Transaction cannot be nil")
	}
	if !tx.Amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Transaction amount must be positive")
	}

	switch tx.Type {
	case TransactionTypeIncome:
		t.Balance = t.Balance.Add(tx.Amount)
	case TransactionTypeExpense:
		if t.Balance.LessThan(tx.Amount) {
			return shared.NewInsufficientFundsError(t.Balance, tx.Amount)
		}
		t.Balance = t.Balance.Sub(tx.Amount)
	default:
		return shared.NewValidationError("INVALID_TRANSACTION_TYPE", "Unknown transaction type")
	}

	t.LastUpdated = time.Now()
	t.Touch()
	return nil
}

// CanPay reports whether an expense of amount would be accepted
func (t *Treasury) CanPay(amount decimal.Decimal) bool {
	return t.Balance.GreaterThanOrEqual(amount)
}
