package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerLine is one entry as seen from a single account
type LedgerLine struct {
	Entry   *Entry
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Balance decimal.Decimal
}

// AccountLedger is the running-balance view of one account over a date range
type AccountLedger struct {
	Account        Account
	AccountType    AccountType
	From           *time.Time
	To             *time.Time
	OpeningBalance decimal.Decimal
	Lines          []LedgerLine
	TotalDebit     decimal.Decimal
	TotalCredit    decimal.Decimal
	ClosingBalance decimal.Decimal
}

// OpeningBalanceFromTotals converts debit/credit sums into a normal-side balance
func OpeningBalanceFromTotals(account Account, debit, credit decimal.Decimal) decimal.Decimal {
	if account.Type().IncreasesOnDebit() {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// BuildAccountLedger walks entries in order and accumulates the running balance.
// Entries must already be sorted by entry number and touch account.
func BuildAccountLedger(account Account, from, to *time.Time, opening decimal.Decimal, entries []*Entry) *AccountLedger {
	l := &AccountLedger{
		Account:        account,
		AccountType:    account.Type(),
		From:           from,
		To:             to,
		OpeningBalance: opening,
		Lines:          make([]LedgerLine, 0, len(entries)),
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
	}

	balance := opening
	for _, e := range entries {
		if !e.Touches(account) {
			continue
		}
		line := LedgerLine{Entry: e, Debit: decimal.Zero, Credit: decimal.Zero}
		if e.DebitAccount == account {
			line.Debit = e.Amount
			l.TotalDebit = l.TotalDebit.Add(e.Amount)
		} else {
			line.Credit = e.Amount
			l.TotalCredit = l.TotalCredit.Add(e.Amount)
		}
		balance = balance.Add(e.SignedAmountFor(account))
		line.Balance = balance
		l.Lines = append(l.Lines, line)
	}
	l.ClosingBalance = balance
	return l
}
