package handler

import (
	"time"

	"github.com/google/uuid"
	appdebt "github.com/retail/backoffice/internal/application/debt"
	apptreasury "github.com/retail/backoffice/internal/application/treasury"
	"github.com/retail/backoffice/internal/domain/debt"
	"github.com/retail/backoffice/internal/domain/ledger"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/treasury"
	"github.com/shopspring/decimal"
)

// EntryResponse represents a ledger entry in API responses
type EntryResponse struct {
	ID            uuid.UUID        `json:"id"`
	Number        string           `json:"number"`
	Date          time.Time        `json:"date"`
	Type          string           `json:"type"`
	DebitAccount  string           `json:"debit_account"`
	CreditAccount string           `json:"credit_account"`
	Amount        decimal.Decimal  `json:"amount"`
	Description   string           `json:"description,omitempty"`
	Reference     shared.Reference `json:"reference"`
	ReversalOf    *uuid.UUID       `json:"reversal_of,omitempty"`
	CreatedBy     uuid.UUID        `json:"created_by"`
	CreatedAt     time.Time        `json:"created_at"`
}

func toEntryResponse(e *ledger.Entry) *EntryResponse {
	if e == nil {
		return nil
	}
	return &EntryResponse{
		ID:            e.ID,
		Number:        e.Number,
		Date:          e.Date,
		Type:          string(e.Type),
		DebitAccount:  string(e.DebitAccount),
		CreditAccount: string(e.CreditAccount),
		Amount:        e.Amount,
		Description:   e.Description,
		Reference:     e.Reference,
		ReversalOf:    e.ReversalOf,
		CreatedBy:     e.CreatedBy,
		CreatedAt:     e.CreatedAt,
	}
}

func toEntryResponses(entries []*ledger.Entry) []*EntryResponse {
	out := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = toEntryResponse(e)
	}
	return out
}

// LedgerLineResponse is one line of an account ledger with its running balance
type LedgerLineResponse struct {
	Entry   *EntryResponse  `json:"entry"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Balance decimal.Decimal `json:"balance"`
}

// AccountLedgerResponse is the ledger of one account over a period
type AccountLedgerResponse struct {
	Account        string               `json:"account"`
	AccountType    string               `json:"account_type"`
	From           *time.Time           `json:"from,omitempty"`
	To             *time.Time           `json:"to,omitempty"`
	OpeningBalance decimal.Decimal      `json:"opening_balance"`
	Lines          []LedgerLineResponse `json:"lines"`
	TotalDebit     decimal.Decimal      `json:"total_debit"`
	TotalCredit    decimal.Decimal      `json:"total_credit"`
	ClosingBalance decimal.Decimal      `json:"closing_balance"`
}

func toAccountLedgerResponse(l *ledger.AccountLedger) AccountLedgerResponse {
	lines := make([]LedgerLineResponse, len(l.Lines))
	for i, line := range l.Lines {
		lines[i] = LedgerLineResponse{
			Entry:   toEntryResponse(line.Entry),
			Debit:   line.Debit,
			Credit:  line.Credit,
			Balance: line.Balance,
		}
	}
	return AccountLedgerResponse{
		Account:        string(l.Account),
		AccountType:    string(l.AccountType),
		From:           l.From,
		To:             l.To,
		OpeningBalance: l.OpeningBalance,
		Lines:          lines,
		TotalDebit:     l.TotalDebit,
		TotalCredit:    l.TotalCredit,
		ClosingBalance: l.ClosingBalance,
	}
}

// TrialBalanceRowResponse is one account of the trial balance
type TrialBalanceRowResponse struct {
	Account     string          `json:"account"`
	AccountType string          `json:"account_type"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// TrialBalanceResponse is the trial balance at a point in time
type TrialBalanceResponse struct {
	AsOf        time.Time                 `json:"as_of"`
	Rows        []TrialBalanceRowResponse `json:"rows"`
	TotalDebit  decimal.Decimal           `json:"total_debit"`
	TotalCredit decimal.Decimal           `json:"total_credit"`
	Balanced    bool                      `json:"balanced"`
}

func toTrialBalanceResponse(tb *ledger.TrialBalance) TrialBalanceResponse {
	rows := make([]TrialBalanceRowResponse, len(tb.Rows))
	for i, r := range tb.Rows {
		rows[i] = TrialBalanceRowResponse{
			Account:     string(r.Account),
			AccountType: string(r.AccountType),
			TotalDebit:  r.TotalDebit,
			TotalCredit: r.TotalCredit,
			Balance:     r.Balance,
		}
	}
	return TrialBalanceResponse{
		AsOf:        tb.AsOf,
		Rows:        rows,
		TotalDebit:  tb.TotalDebit,
		TotalCredit: tb.TotalCredit,
		Balanced:    tb.Balanced,
	}
}

// TransactionResponse represents a treasury transaction in API responses
type TransactionResponse struct {
	ID          uuid.UUID        `json:"id"`
	Number      string           `json:"number"`
	Type        string           `json:"type"`
	Amount      decimal.Decimal  `json:"amount"`
	Description string           `json:"description,omitempty"`
	Reference   shared.Reference `json:"reference"`
	PartnerID   *uuid.UUID       `json:"partner_id,omitempty"`
	Method      string           `json:"method,omitempty"`
	Date        time.Time        `json:"date"`
	CreatedBy   uuid.UUID        `json:"created_by"`
	IsReversed  bool             `json:"is_reversed"`
	ReversedAt  *time.Time       `json:"reversed_at,omitempty"`
	ReversedBy  *uuid.UUID       `json:"reversed_by,omitempty"`
	ReversalOf  *uuid.UUID       `json:"reversal_of,omitempty"`
}

func toTransactionResponse(t *treasury.Transaction) *TransactionResponse {
	if t == nil {
		return nil
	}
	return &TransactionResponse{
		ID:          t.ID,
		Number:      t.Number,
		Type:        string(t.Type),
		Amount:      t.Amount,
		Description: t.Description,
		Reference:   t.Reference,
		PartnerID:   t.PartnerID,
		Method:      string(t.Method),
		Date:        t.Date,
		CreatedBy:   t.CreatedBy,
		IsReversed:  t.IsReversed,
		ReversedAt:  t.ReversedAt,
		ReversedBy:  t.ReversedBy,
		ReversalOf:  t.ReversalOf,
	}
}

func toTransactionResponses(txs []*treasury.Transaction) []*TransactionResponse {
	out := make([]*TransactionResponse, len(txs))
	for i, t := range txs {
		out[i] = toTransactionResponse(t)
	}
	return out
}

// CashboxResponse represents one day of the cashbox
type CashboxResponse struct {
	Date             string                  `json:"date"`
	OpeningBalance   decimal.Decimal         `json:"opening_balance"`
	SalesIncome      decimal.Decimal         `json:"sales_income"`
	PurchaseExpenses decimal.Decimal         `json:"purchase_expenses"`
	ManualIncome     []treasury.CashboxEntry `json:"manual_income"`
	ManualExpenses   []treasury.CashboxEntry `json:"manual_expenses"`
	TotalIncome      decimal.Decimal         `json:"total_income"`
	TotalExpenses    decimal.Decimal         `json:"total_expenses"`
	NetChange        decimal.Decimal         `json:"net_change"`
	ClosingBalance   decimal.Decimal         `json:"closing_balance"`
	Difference       decimal.Decimal         `json:"difference"`
	IsReconciled     bool                    `json:"is_reconciled"`
	ActualClosing    *decimal.Decimal        `json:"actual_closing,omitempty"`
	ReconciledBy     *uuid.UUID              `json:"reconciled_by,omitempty"`
	ReconciledAt     *time.Time              `json:"reconciled_at,omitempty"`
	Notes            string                  `json:"notes,omitempty"`
}

func toCashboxResponse(c *treasury.DailyCashbox) *CashboxResponse {
	if c == nil {
		return nil
	}
	income := c.ManualIncome
	if income == nil {
		income = []treasury.CashboxEntry{}
	}
	expenses := c.ManualExpenses
	if expenses == nil {
		expenses = []treasury.CashboxEntry{}
	}
	return &CashboxResponse{
		Date:             c.Date,
		OpeningBalance:   c.OpeningBalance,
		SalesIncome:      c.SalesIncome,
		PurchaseExpenses: c.PurchaseExpenses,
		ManualIncome:     income,
		ManualExpenses:   expenses,
		TotalIncome:      c.TotalIncome,
		TotalExpenses:    c.TotalExpenses,
		NetChange:        c.NetChange,
		ClosingBalance:   c.ClosingBalance,
		Difference:       c.Difference,
		IsReconciled:     c.IsReconciled,
		ActualClosing:    c.ActualClosing,
		ReconciledBy:     c.ReconciledBy,
		ReconciledAt:     c.ReconciledAt,
		Notes:            c.Notes,
	}
}

// ManualCashResponse is the outcome of a manual income or expense
type ManualCashResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Entry       *EntryResponse       `json:"entry"`
	Cashbox     *CashboxResponse     `json:"cashbox"`
}

func toManualCashResponse(r *apptreasury.ManualCashResult) ManualCashResponse {
	return ManualCashResponse{
		Transaction: toTransactionResponse(r.Transaction),
		Entry:       toEntryResponse(r.Entry),
		Cashbox:     toCashboxResponse(r.Cashbox),
	}
}

// DebtResponse represents a debt in API responses
type DebtResponse struct {
	ID              uuid.UUID          `json:"id"`
	DebtorID        uuid.UUID          `json:"debtor_id"`
	DebtorType      string             `json:"debtor_type"`
	OriginalAmount  decimal.Decimal    `json:"original_amount"`
	RemainingAmount decimal.Decimal    `json:"remaining_amount"`
	PaidAmount      decimal.Decimal    `json:"paid_amount"`
	DueDate         time.Time          `json:"due_date"`
	Status          string             `json:"status"`
	Reference       shared.Reference   `json:"reference"`
	Description     string             `json:"description,omitempty"`
	Installments    []debt.Installment `json:"installments,omitempty"`
	WriteOffReason  string             `json:"write_off_reason,omitempty"`
	WrittenOffBy    *uuid.UUID         `json:"written_off_by,omitempty"`
	WrittenOffAt    *time.Time         `json:"written_off_at,omitempty"`
	CancelReason    string             `json:"cancel_reason,omitempty"`
	CreatedBy       uuid.UUID          `json:"created_by"`
	CreatedAt       time.Time          `json:"created_at"`
	Version         int                `json:"version"`
}

func toDebtResponse(d *debt.Debt) *DebtResponse {
	if d == nil {
		return nil
	}
	return &DebtResponse{
		ID:              d.ID,
		DebtorID:        d.DebtorID,
		DebtorType:      string(d.DebtorType),
		OriginalAmount:  d.OriginalAmount,
		RemainingAmount: d.RemainingAmount,
		PaidAmount:      d.PaidAmount(),
		DueDate:         d.DueDate,
		Status:          string(d.Status),
		Reference:       d.Reference,
		Description:     d.Description,
		Installments:    d.Installments,
		WriteOffReason:  d.WriteOffReason,
		WrittenOffBy:    d.WrittenOffBy,
		WrittenOffAt:    d.WrittenOffAt,
		CancelReason:    d.CancelReason,
		CreatedBy:       d.CreatedBy,
		CreatedAt:       d.CreatedAt,
		Version:         d.Version,
	}
}

func toDebtResponses(debts []*debt.Debt) []*DebtResponse {
	out := make([]*DebtResponse, len(debts))
	for i, d := range debts {
		out[i] = toDebtResponse(d)
	}
	return out
}

// DebtPaymentResponse represents a payment against a debt
type DebtPaymentResponse struct {
	ID         uuid.UUID       `json:"id"`
	DebtID     uuid.UUID       `json:"debt_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Note       string          `json:"note,omitempty"`
	Date       time.Time       `json:"date"`
	RecordedBy uuid.UUID       `json:"recorded_by"`
	IsReversed bool            `json:"is_reversed"`
}

func toDebtPaymentResponse(p *debt.Payment) *DebtPaymentResponse {
	if p == nil {
		return nil
	}
	return &DebtPaymentResponse{
		ID:         p.ID,
		DebtID:     p.DebtID,
		Amount:     p.Amount,
		Method:     string(p.Method),
		Note:       p.Note,
		Date:       p.Date,
		RecordedBy: p.RecordedBy,
		IsReversed: p.IsReversed,
	}
}

// DebtDetailResponse is a debt with its payment history
type DebtDetailResponse struct {
	Debt     *DebtResponse          `json:"debt"`
	Payments []*DebtPaymentResponse `json:"payments"`
}

func toDebtDetailResponse(d *appdebt.DebtDetail) DebtDetailResponse {
	payments := make([]*DebtPaymentResponse, len(d.Payments))
	for i, p := range d.Payments {
		payments[i] = toDebtPaymentResponse(p)
	}
	return DebtDetailResponse{Debt: toDebtResponse(d.Debt), Payments: payments}
}

// PaymentResultResponse is the outcome of a debt or document payment
type PaymentResultResponse struct {
	Debt    *DebtResponse        `json:"debt"`
	Payment *DebtPaymentResponse `json:"payment"`
	Entry   *EntryResponse       `json:"entry"`
}

func toPaymentResultResponse(r *appdebt.PaymentResult) PaymentResultResponse {
	return PaymentResultResponse{
		Debt:    toDebtResponse(r.Debt),
		Payment: toDebtPaymentResponse(r.Payment),
		Entry:   toEntryResponse(r.Entry),
	}
}
