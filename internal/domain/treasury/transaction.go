package treasury

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a treasury transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// IsValid checks if the transaction type is known
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Inverse returns the opposite direction
func (t TransactionType) Inverse() TransactionType {
	if t == TransactionTypeIncome {
		return TransactionTypeExpense
	}
	return TransactionTypeIncome
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// Transaction is an append-only record of cash entering or leaving the treasury.
// Undoing one marks it reversed and produces a compensating transaction; nothing is deleted.
type Transaction struct {
	shared.BaseAggregateRoot
	Number      string
	Type        TransactionType
	Amount      decimal.Decimal
	Description string
	Reference   shared.Reference
	PartnerID   *uuid.UUID
	Method      shared.PaymentMethod
	Date        time.Time
	CreatedBy   uuid.UUID
	IsReversed  bool
	ReversedAt  *time.Time
	ReversedBy  *uuid.UUID
	ReversalOf  *uuid.UUID
}

// NewTransactionInput carries the fields of a new treasury transaction
type NewTransactionInput struct {
	Type        TransactionType
	Amount      decimal.Decimal
	Description string
	Reference   shared.Reference
	PartnerID   *uuid.UUID
	Method      shared.PaymentMethod
	Date        time.Time
	CreatedBy   uuid.UUID
}

// FormatTransactionNumber renders the display number of a treasury transaction
func FormatTransactionNumber(n int64) string {
	return fmt.Sprintf("TT-%06d", n)
}

// NewTransaction validates and creates a treasury transaction
func NewTransaction(in NewTransactionInput, sequence int64) (*Transaction, error) {
	if !in.Type.IsValid() {
		return nil, shared.NewValidationError("INVALID_TRANSACTION_TYPE", fmt.Sprintf("Unknown transaction type %q", in.Type))
	}
	if !in.Amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Transaction amount must be positive")
	}
	ref := in.Reference
	if ref.IsZero() {
		ref = shared.ManualReference()
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	method := in.Method
	if method == "" {
		method = shared.PaymentMethodCash
	}
	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	return &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            FormatTransactionNumber(sequence),
		Type:              in.Type,
		Amount:            in.Amount,
		Description:       in.Description,
		Reference:         ref,
		PartnerID:         in.PartnerID,
		Method:            method,
		Date:              date,
		CreatedBy:         in.CreatedBy,
	}, nil
}

// IsCompensating reports whether this transaction undoes another one
func (t *Transaction) IsCompensating() bool {
	return t.ReversalOf != nil
}

// SignedAmount returns +amount for income and -amount for expense
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Reverse marks the transaction reversed and returns the compensating record,
// which has the inverse type and the same amount. A transaction can be reversed
// once, and compensating records cannot be reversed.
func (t *Transaction) Reverse(userID uuid.UUID, sequence int64, reason string) (*Transaction, error) {
	if t.IsReversed {
		return nil, shared.NewConflictError("ALREADY_REVERSED", fmt.Sprintf("Transaction %s has already been reversed", t.Number))
	}
	if t.IsCompensating() {
		return nil, shared.NewConflictError("COMPENSATING_TRANSACTION", fmt.Sprintf("Transaction %s is itself a reversal", t.Number))
	}

	desc := "Reversal of " + t.Number
	if reason != "" {
		desc += ": " + reason
	}
	comp, err := NewTransaction(NewTransactionInput{
		Type:        t.Type.Inverse(),
		Amount:      t.Amount,
		Description: desc,
		Reference:   shared.NewReference(shared.ReferenceTreasuryTransaction, t.ID),
		PartnerID:   t.PartnerID,
		Method:      t.Method,
		CreatedBy:   userID,
	}, sequence)
	if err != nil {
		return nil, err
	}
	originalID := t.ID
	comp.ReversalOf = &originalID

	now := time.Now()
	t.IsReversed = true
	t.ReversedAt = &now
	t.ReversedBy = &userID
	t.Touch()
	return comp, nil
}
