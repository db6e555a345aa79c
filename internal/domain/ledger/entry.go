package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EntryType describes the business event behind a journal entry
type EntryType string

const (
	EntryTypeSale       EntryType = "SALE"
	EntryTypePurchase   EntryType = "PURCHASE"
	EntryTypePayment    EntryType = "PAYMENT"
	EntryTypeAdjustment EntryType = "ADJUSTMENT"
	EntryTypeCOGS       EntryType = "COGS"
	EntryTypeExpense    EntryType = "EXPENSE"
	EntryTypeIncome     EntryType = "INCOME"
	EntryTypeTransfer   EntryType = "TRANSFER"
	EntryTypeReturn     EntryType = "RETURN"
	EntryTypeReturnCOGS EntryType = "RETURN_COGS"
	EntryTypeReversal   EntryType = "REVERSAL"
	EntryTypeOpening    EntryType = "OPENING"
	EntryTypeWriteOff   EntryType = "WRITE_OFF"
)

// IsValid checks if the entry type is known
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeSale, EntryTypePurchase, EntryTypePayment, EntryTypeAdjustment,
		EntryTypeCOGS, EntryTypeExpense, EntryTypeIncome, EntryTypeTransfer,
		EntryTypeReturn, EntryTypeReturnCOGS, EntryTypeReversal, EntryTypeOpening,
		EntryTypeWriteOff:
		return true
	}
	return false
}

// String returns the string representation of EntryType
func (t EntryType) String() string {
	return string(t)
}

// Entry is one immutable double-entry posting: the same amount is debited to
// one account and credited to another. Entries are never updated; corrections
// are new entries in the opposite direction.
type Entry struct {
	ID            uuid.UUID
	EntryNumber   int64
	Number        string
	Date          time.Time
	Type          EntryType
	DebitAccount  Account
	CreditAccount Account
	Amount        decimal.Decimal
	Description   string
	Reference     shared.Reference
	ReversalOf    *uuid.UUID
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
}

// PostingRequest carries the caller-supplied fields of a new entry
type PostingRequest struct {
	Date          time.Time
	Type          EntryType
	DebitAccount  Account
	CreditAccount Account
	Amount        decimal.Decimal
	Description   string
	Reference     shared.Reference
	CreatedBy     uuid.UUID
}

// FormatEntryNumber renders the display number of an entry sequence value
func FormatEntryNumber(n int64) string {
	return fmt.Sprintf("JE-%06d", n)
}

// NewEntry validates a posting and builds the entry with its sequence number
func NewEntry(req PostingRequest, sequence int64) (*Entry, error) {
	if !req.Type.IsValid() {
		return nil, shared.NewValidationError("INVALID_ENTRY_TYPE", fmt.Sprintf("Unknown entry type %q", req.Type))
	}
	if !req.DebitAccount.IsValid() {
		return nil, shared.NewValidationError("INVALID_ACCOUNT", fmt.Sprintf("Unknown debit account %q", req.DebitAccount))
	}
	if !req.CreditAccount.IsValid() {
		return nil, shared.NewValidationError("INVALID_ACCOUNT", fmt.Sprintf("Unknown credit account %q", req.CreditAccount))
	}
	if req.DebitAccount == req.CreditAccount {
		return nil, shared.NewValidationError("SAME_ACCOUNT", "Debit and credit accounts must differ")
	}
	if !req.Amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Entry amount must be positive")
	}
	if sequence <= 0 {
		return nil, shared.NewValidationError("INVALID_SEQUENCE", "Entry number must be positive")
	}
	ref := req.Reference
	if ref.IsZero() {
		ref = shared.ManualReference()
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	date := req.Date
	if date.IsZero() {
		date = now
	}

	return &Entry{
		ID:            uuid.New(),
		EntryNumber:   sequence,
		Number:        FormatEntryNumber(sequence),
		Date:          date,
		Type:          req.Type,
		DebitAccount:  req.DebitAccount,
		CreditAccount: req.CreditAccount,
		Amount:        req.Amount,
		Description:   req.Description,
		Reference:     ref,
		CreatedBy:     req.CreatedBy,
		CreatedAt:     now,
	}, nil
}

// NewReversal builds the offsetting entry of e: accounts swapped, same amount,
// same reference, type REVERSAL.
func NewReversal(e *Entry, sequence int64, userID uuid.UUID, description string) (*Entry, error) {
	if e.Type == EntryTypeReversal {
		return nil, shared.NewConflictError("REVERSAL_OF_REVERSAL", "A reversal entry cannot itself be reversed")
	}
	if description == "" {
		description = "Reversal of " + e.Number
	}
	rev, err := NewEntry(PostingRequest{
		Type:          EntryTypeReversal,
		DebitAccount:  e.CreditAccount,
		CreditAccount: e.DebitAccount,
		Amount:        e.Amount,
		Description:   description,
		Reference:     e.Reference,
		CreatedBy:     userID,
	}, sequence)
	if err != nil {
		return nil, err
	}
	id := e.ID
	rev.ReversalOf = &id
	return rev, nil
}

// SettlementAccount is the cash-side account a payment method posts to
func SettlementAccount(method shared.PaymentMethod) Account {
	if method.IsBank() {
		return AccountBank
	}
	return AccountCash
}

// Touches reports whether the entry posts to account
func (e *Entry) Touches(account Account) bool {
	return e.DebitAccount == account || e.CreditAccount == account
}

// SignedAmountFor returns the entry's effect on the balance of account,
// following the account's normal side. Zero if the entry does not touch it.
func (e *Entry) SignedAmountFor(account Account) decimal.Decimal {
	increasesOnDebit := account.Type().IncreasesOnDebit()
	switch account {
	case e.DebitAccount:
		if increasesOnDebit {
			return e.Amount
		}
		return e.Amount.Neg()
	case e.CreditAccount:
		if increasesOnDebit {
			return e.Amount.Neg()
		}
		return e.Amount
	}
	return decimal.Zero
}
