package treasury

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDifferenceInvariant(t *testing.T, c *DailyCashbox) {
	t.Helper()
	expected := c.OpeningBalance.Add(c.TotalIncome).Sub(c.TotalExpenses)
	assert.True(t, c.Difference.Equal(c.ClosingBalance.Sub(expected)),
		"difference %s != closing %s - expected %s", c.Difference, c.ClosingBalance, expected)
}

func TestDailyCashbox_Recalculate(t *testing.T) {
	day := time.Date(2024, 5, 2, 15, 0, 0, 0, time.UTC)
	c := NewDailyCashbox(day, decimal.NewFromInt(1000))
	assert.Equal(t, "2024-05-02", c.Date)
	assert.True(t, c.ClosingBalance.Equal(decimal.NewFromInt(1000)))

	c.ApplySalesIncome(decimal.NewFromInt(400))
	c.ApplyPurchaseExpense(decimal.NewFromInt(150))
	_, err := c.AddManualIncome(decimal.NewFromInt(50), "Scrap sale", "", uuid.New(), uuid.New())
	require.NoError(t, err)
	_, err = c.AddManualExpense(decimal.NewFromInt(80), "Electricity", "utilities", uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.True(t, c.TotalIncome.Equal(decimal.NewFromInt(450)))
	assert.True(t, c.TotalExpenses.Equal(decimal.NewFromInt(230)))
	assert.True(t, c.NetChange.Equal(decimal.NewFromInt(220)))
	assert.True(t, c.ClosingBalance.Equal(decimal.NewFromInt(1220)))
	assert.True(t, c.Difference.IsZero())
	assertDifferenceInvariant(t, c)
}

func TestDailyCashbox_ManualEntryValidation(t *testing.T) {
	c := NewDailyCashbox(time.Now(), decimal.Zero)
	_, err := c.AddManualExpense(decimal.Zero, "x", "", uuid.New(), uuid.New())
	assert.Error(t, err)
	_, err = c.AddManualIncome(decimal.NewFromInt(5), "", "", uuid.New(), uuid.New())
	assert.Error(t, err)
	assert.Empty(t, c.ManualIncome)
	assert.Empty(t, c.ManualExpenses)
}

func TestDailyCashbox_Reconcile(t *testing.T) {
	c := NewDailyCashbox(time.Now(), decimal.NewFromInt(100))
	c.ApplySalesIncome(decimal.NewFromInt(60))

	require.NoError(t, c.Reconcile(decimal.NewFromInt(150), uuid.New(), "ten missing"))
	assert.True(t, c.IsReconciled)
	assert.True(t, c.ClosingBalance.Equal(decimal.NewFromInt(150)))
	assert.True(t, c.Difference.Equal(decimal.NewFromInt(-10)))
	assertDifferenceInvariant(t, c)

	// later activity keeps the observed closing and moves the difference
	c.ApplySalesIncome(decimal.NewFromInt(10))
	assert.True(t, c.Difference.Equal(decimal.NewFromInt(-20)))
	assertDifferenceInvariant(t, c)

	assert.Error(t, c.Reconcile(decimal.NewFromInt(-1), uuid.New(), ""))
}

func TestDailyCashbox_RemoveTransactionEffect(t *testing.T) {
	c := NewDailyCashbox(time.Now(), decimal.Zero)
	manual := newTx(t, TransactionTypeExpense, 30)
	_, err := c.AddManualExpense(manual.Amount, "Supplies", "supplies", manual.ID, uuid.New())
	require.NoError(t, err)
	sale := newTx(t, TransactionTypeIncome, 90)
	c.ApplySalesIncome(sale.Amount)

	c.RemoveTransactionEffect(manual)
	assert.True(t, c.ManualExpenses[0].IsReversed)
	assert.True(t, c.TotalExpenses.IsZero())

	c.RemoveTransactionEffect(sale)
	assert.True(t, c.SalesIncome.IsZero())
	assertDifferenceInvariant(t, c)
}
