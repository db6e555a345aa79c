package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountTotals holds summed postings of one account
type AccountTotals struct {
	Account Account
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// TrialBalanceRow is one account line of a trial balance
type TrialBalanceRow struct {
	Account     Account
	AccountType AccountType
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	// Balance is expressed on the account's normal side
	Balance decimal.Decimal
}

// TrialBalance lists every account with postings up to AsOf
type TrialBalance struct {
	AsOf        time.Time
	Rows        []TrialBalanceRow
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Balanced    bool
}

// BuildTrialBalance orders totals by the chart and checks that debits equal credits.
// Accounts without postings are omitted.
func BuildTrialBalance(asOf time.Time, totals []AccountTotals) *TrialBalance {
	byAccount := make(map[Account]AccountTotals, len(totals))
	for _, t := range totals {
		cur, ok := byAccount[t.Account]
		if !ok {
			byAccount[t.Account] = t
			continue
		}
		cur.Debit = cur.Debit.Add(t.Debit)
		cur.Credit = cur.Credit.Add(t.Credit)
		byAccount[t.Account] = cur
	}

	tb := &TrialBalance{
		AsOf:        asOf,
		Rows:        make([]TrialBalanceRow, 0, len(byAccount)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, account := range AllAccounts() {
		t, ok := byAccount[account]
		if !ok || (t.Debit.IsZero() && t.Credit.IsZero()) {
			continue
		}
		tb.Rows = append(tb.Rows, TrialBalanceRow{
			Account:     account,
			AccountType: account.Type(),
			TotalDebit:  t.Debit,
			TotalCredit: t.Credit,
			Balance:     OpeningBalanceFromTotals(account, t.Debit, t.Credit),
		})
		tb.TotalDebit = tb.TotalDebit.Add(t.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(t.Credit)
	}
	tb.Balanced = tb.TotalDebit.Equal(tb.TotalCredit)
	return tb
}

// RowFor returns the row of an account, if present
func (tb *TrialBalance) RowFor(account Account) (TrialBalanceRow, bool) {
	for _, r := range tb.Rows {
		if r.Account == account {
			return r, true
		}
	}
	return TrialBalanceRow{}, false
}
