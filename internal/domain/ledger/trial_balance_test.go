package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTrialBalance(t *testing.T) {
	asOf := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	totals := []AccountTotals{
		{Account: AccountCash, Debit: decimal.NewFromInt(1000), Credit: decimal.NewFromInt(200)},
		{Account: AccountSalesRevenue, Credit: decimal.NewFromInt(1000), Debit: decimal.Zero},
		{Account: AccountRentExpense, Debit: decimal.NewFromInt(200), Credit: decimal.Zero},
		{Account: AccountBank, Debit: decimal.Zero, Credit: decimal.Zero},
	}

	tb := BuildTrialBalance(asOf, totals)
	assert.True(t, tb.Balanced)
	assert.True(t, tb.TotalDebit.Equal(decimal.NewFromInt(1200)))
	assert.True(t, tb.TotalCredit.Equal(decimal.NewFromInt(1200)))
	require.Len(t, tb.Rows, 3)
	assert.Equal(t, AccountCash, tb.Rows[0].Account)

	row, ok := tb.RowFor(AccountSalesRevenue)
	require.True(t, ok)
	assert.True(t, row.Balance.Equal(decimal.NewFromInt(1000)))

	_, ok = tb.RowFor(AccountBank)
	assert.False(t, ok)
}

func TestBuildTrialBalance_MergesDuplicateAccounts(t *testing.T) {
	tb := BuildTrialBalance(time.Now(), []AccountTotals{
		{Account: AccountCash, Debit: decimal.NewFromInt(10), Credit: decimal.Zero},
		{Account: AccountCash, Debit: decimal.NewFromInt(5), Credit: decimal.Zero},
		{Account: AccountOwnerEquity, Debit: decimal.Zero, Credit: decimal.NewFromInt(10)},
	})
	assert.False(t, tb.Balanced)
	row, _ := tb.RowFor(AccountCash)
	assert.True(t, row.TotalDebit.Equal(decimal.NewFromInt(15)))
}
