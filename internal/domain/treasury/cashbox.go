package treasury

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CashboxEntry is one operator-entered income or expense line of a cashbox.
// It is owned by its DailyCashbox and stored with it.
type CashboxEntry struct {
	ID            uuid.UUID       `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
	Category      string          `json:"category,omitempty"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	CreatedBy     uuid.UUID       `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	IsReversed    bool            `json:"is_reversed,omitempty"`
}

// DailyCashbox aggregates the cash movements of one calendar day.
// Totals, net change, closing balance and difference are derived fields and are
// recomputed by Recalculate from their sources before every save.
type DailyCashbox struct {
	shared.BaseAggregateRoot
	Date             string
	OpeningBalance   decimal.Decimal
	SalesIncome      decimal.Decimal
	PurchaseExpenses decimal.Decimal
	ManualIncome     []CashboxEntry
	ManualExpenses   []CashboxEntry

	TotalIncome    decimal.Decimal
	TotalExpenses  decimal.Decimal
	NetChange      decimal.Decimal
	ClosingBalance decimal.Decimal
	Difference     decimal.Decimal

	IsReconciled  bool
	ActualClosing *decimal.Decimal
	ReconciledBy  *uuid.UUID
	ReconciledAt  *time.Time
	Notes         string
}

// NewDailyCashbox opens the cashbox of date with the given opening balance
func NewDailyCashbox(date time.Time, openingBalance decimal.Decimal) *DailyCashbox {
	c := &DailyCashbox{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Date:              shared.DayKey(date),
		OpeningBalance:    openingBalance,
		SalesIncome:       decimal.Zero,
		PurchaseExpenses:  decimal.Zero,
		ManualIncome:      []CashboxEntry{},
		ManualExpenses:    []CashboxEntry{},
	}
	c.Recalculate()
	return c
}

// Recalculate derives the totals from sales income, purchase expenses and the
// non-reversed manual lines. Until the day is reconciled the closing balance is
// the expected one and the difference is zero.
func (c *DailyCashbox) Recalculate() {
	manualIn := decimal.Zero
	for _, e := range c.ManualIncome {
		if !e.IsReversed {
			manualIn = manualIn.Add(e.Amount)
		}
	}
	manualOut := decimal.Zero
	for _, e := range c.ManualExpenses {
		if !e.IsReversed {
			manualOut = manualOut.Add(e.Amount)
		}
	}

	c.TotalIncome = c.SalesIncome.Add(manualIn)
	c.TotalExpenses = c.PurchaseExpenses.Add(manualOut)
	c.NetChange = c.TotalIncome.Sub(c.TotalExpenses)

	expected := c.ExpectedClosing()
	if c.IsReconciled && c.ActualClosing != nil {
		c.ClosingBalance = *c.ActualClosing
	} else {
		c.ClosingBalance = expected
	}
	c.Difference = c.ClosingBalance.Sub(expected)
}

// ExpectedClosing is the opening balance plus the day's net change
func (c *DailyCashbox) ExpectedClosing() decimal.Decimal {
	return c.OpeningBalance.Add(c.NetChange)
}

// AddManualIncome appends an operator income line tied to its treasury transaction
func (c *DailyCashbox) AddManualIncome(amount decimal.Decimal, reason, category string, txID, userID uuid.UUID) (*CashboxEntry, error) {
	entry, err := newCashboxEntry(amount, reason, category, txID, userID)
	if err != nil {
		return nil, err
	}
	c.ManualIncome = append(c.ManualIncome, *entry)
	c.Touch()
	c.Recalculate()
	return entry, nil
}

// AddManualExpense appends an operator expense line tied to its treasury transaction
func (c *DailyCashbox) AddManualExpense(amount decimal.Decimal, reason, category string, txID, userID uuid.UUID) (*CashboxEntry, error) {
	entry, err := newCashboxEntry(amount, reason, category, txID, userID)
	if err != nil {
		return nil, err
	}
	c.ManualExpenses = append(c.ManualExpenses, *entry)
	c.Touch()
	c.Recalculate()
	return entry, nil
}

func newCashboxEntry(amount decimal.Decimal, reason, category string, txID, userID uuid.UUID) (*CashboxEntry, error) {
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Amount must be positive")
	}
	if reason == "" {
		return nil, shared.NewValidationError("INVALID_REASON", "Reason is required")
	}
	return &CashboxEntry{
		ID:            uuid.New(),
		Amount:        amount,
		Reason:        reason,
		Category:      category,
		TransactionID: txID,
		CreatedBy:     userID,
		CreatedAt:     time.Now(),
	}, nil
}

// ApplySalesIncome changes the day's sales income by a signed delta.
// Refunds and sale reversals pass a negative delta.
func (c *DailyCashbox) ApplySalesIncome(delta decimal.Decimal) {
	c.SalesIncome = c.SalesIncome.Add(delta)
	c.Touch()
	c.Recalculate()
}

// ApplyPurchaseExpense changes the day's purchase expenses by a signed delta
func (c *DailyCashbox) ApplyPurchaseExpense(delta decimal.Decimal) {
	c.PurchaseExpenses = c.PurchaseExpenses.Add(delta)
	c.Touch()
	c.Recalculate()
}

// RemoveTransactionEffect takes a reversed treasury transaction back out of this
// cashbox. Manual lines are flagged reversed; document-driven transactions are
// subtracted from sales income or purchase expenses.
func (c *DailyCashbox) RemoveTransactionEffect(tx *Transaction) {
	for i := range c.ManualIncome {
		if c.ManualIncome[i].TransactionID == tx.ID {
			c.ManualIncome[i].IsReversed = true
			c.Touch()
			c.Recalculate()
			return
		}
	}
	for i := range c.ManualExpenses {
		if c.ManualExpenses[i].TransactionID == tx.ID {
			c.ManualExpenses[i].IsReversed = true
			c.Touch()
			c.Recalculate()
			return
		}
	}
	if tx.Type == TransactionTypeIncome {
		c.ApplySalesIncome(tx.Amount.Neg())
		return
	}
	c.ApplyPurchaseExpense(tx.Amount.Neg())
}

// Reconcile records the closing balance counted by the operator. It only
// affects this record's closing balance and difference, never the treasury.
func (c *DailyCashbox) Reconcile(actualClosing decimal.Decimal, userID uuid.UUID, notes string) error {
	if actualClosing.IsNegative() {
		return shared.NewValidationError("INVALID_AMOUNT", "Actual closing balance cannot be negative")
	}
	now := time.Now()
	c.ActualClosing = &actualClosing
	c.IsReconciled = true
	c.ReconciledBy = &userID
	c.ReconciledAt = &now
	c.Notes = notes
	c.Touch()
	c.Recalculate()
	return nil
}
