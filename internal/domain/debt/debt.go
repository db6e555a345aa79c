package debt

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DebtorType identifies which side owes the money
type DebtorType string

const (
	// DebtorCustomer is a receivable: the customer owes the business
	DebtorCustomer DebtorType = "Customer"
	// DebtorSupplier is a payable: the business owes the supplier
	DebtorSupplier DebtorType = "Supplier"
)

// IsValid checks if the debtor type is known
func (t DebtorType) IsValid() bool {
	return t == DebtorCustomer || t == DebtorSupplier
}

// String returns the string representation of DebtorType
func (t DebtorType) String() string {
	return string(t)
}

// Status is the lifecycle state of a debt
type Status string

const (
	StatusActive     Status = "active"
	StatusOverdue    Status = "overdue"
	StatusSettled    Status = "settled"
	StatusWrittenOff Status = "written_off"
	// StatusCancelled marks a debt voided because its source document was reversed
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusOverdue, StatusSettled, StatusWrittenOff, StatusCancelled:
		return true
	}
	return false
}

// IsOpen reports whether the debt still accepts payments
func (s Status) IsOpen() bool {
	return s == StatusActive || s == StatusOverdue
}

// IsTerminal reports whether no further transition is allowed
func (s Status) IsTerminal() bool {
	return s == StatusWrittenOff || s == StatusCancelled
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Debt tracks money owed between the business and a customer or supplier.
// originalAmount == remainingAmount + sum of its non-reversed payments at all times.
type Debt struct {
	shared.BaseAggregateRoot
	DebtorID        uuid.UUID
	DebtorType      DebtorType
	OriginalAmount  decimal.Decimal
	RemainingAmount decimal.Decimal
	DueDate         time.Time
	Status          Status
	Reference       shared.Reference
	Description     string
	CreatedBy       uuid.UUID
	Installments    []Installment

	WriteOffReason string
	WrittenOffBy   *uuid.UUID
	WrittenOffAt   *time.Time
	CancelReason   string
}

// NewDebtInput carries the fields of a new debt
type NewDebtInput struct {
	DebtorID    uuid.UUID
	DebtorType  DebtorType
	Amount      decimal.Decimal
	DueDate     time.Time
	Reference   shared.Reference
	Description string
	CreatedBy   uuid.UUID
}

// NewDebt validates and creates an active debt with nothing paid
func NewDebt(in NewDebtInput) (*Debt, error) {
	if in.DebtorID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_DEBTOR", "Debtor is required")
	}
	if !in.DebtorType.IsValid() {
		return nil, shared.NewValidationError("INVALID_DEBTOR_TYPE", fmt.Sprintf("Unknown debtor type %q", in.DebtorType))
	}
	if !in.Amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Debt amount must be greater than zero")
	}
	if in.DueDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DUE_DATE", "Due date is required")
	}
	ref := in.Reference
	if ref.IsZero() {
		ref = shared.ManualReference()
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	return &Debt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DebtorID:          in.DebtorID,
		DebtorType:        in.DebtorType,
		OriginalAmount:    in.Amount,
		RemainingAmount:   in.Amount,
		DueDate:           in.DueDate,
		Status:            StatusActive,
		Reference:         ref,
		Description:       in.Description,
		CreatedBy:         in.CreatedBy,
		Installments:      []Installment{},
	}, nil
}

// IsReceivable reports whether a customer owes this debt
func (d *Debt) IsReceivable() bool {
	return d.DebtorType == DebtorCustomer
}

// PaidAmount is the part of the original amount covered by non-reversed payments
func (d *Debt) PaidAmount() decimal.Decimal {
	return d.OriginalAmount.Sub(d.RemainingAmount)
}

// IsManual reports whether the debt was entered by hand rather than created for a document
func (d *Debt) IsManual() bool {
	return d.Reference.Type == shared.ReferenceManual
}

// RecordPayment validates the amount against the remaining balance, creates the
// payment and applies it. The debt settles when nothing remains.
func (d *Debt) RecordPayment(amount decimal.Decimal, method shared.PaymentMethod, note string, date time.Time, userID uuid.UUID) (*Payment, error) {
	if err := d.CanAcceptPayment(amount); err != nil {
		return nil, err
	}
	p, err := NewPayment(d.ID, amount, method, note, date, userID)
	if err != nil {
		return nil, err
	}

	d.RemainingAmount = d.RemainingAmount.Sub(amount)
	d.allocateToInstallments(amount)
	if d.RemainingAmount.IsZero() {
		d.Status = StatusSettled
		d.AddDomainEvent(NewDebtSettledEvent(d))
	}
	d.Touch()
	return p, nil
}

// CanAcceptPayment checks the status and bounds of a payment without changing anything
func (d *Debt) CanAcceptPayment(amount decimal.Decimal) error {
	if !d.Status.IsOpen() {
		return shared.NewConflictError("DEBT_NOT_OPEN", fmt.Sprintf("Cannot pay a debt with status %s", d.Status))
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThan(d.RemainingAmount) {
		return shared.NewValidationError("AMOUNT_EXCEEDS_REMAINING",
			fmt.Sprintf("Amount %s exceeds remaining debt %s", amount.StringFixed(2), d.RemainingAmount.StringFixed(2)))
	}
	return nil
}

// ReversePayment marks a payment reversed and puts its amount back on the debt.
// A settled debt reopens as active, or overdue when its due date has passed.
func (d *Debt) ReversePayment(p *Payment, userID uuid.UUID, now time.Time) error {
	if p.DebtID != d.ID {
		return shared.NewValidationError("PAYMENT_MISMATCH", "Payment does not belong to this debt")
	}
	if p.IsReversed {
		return shared.NewConflictError("ALREADY_REVERSED", "Payment has already been reversed")
	}
	if d.Status.IsTerminal() {
		return shared.NewConflictError("DEBT_CLOSED", fmt.Sprintf("Cannot reverse a payment of a %s debt", d.Status))
	}

	p.markReversed(userID, now)
	d.RemainingAmount = d.RemainingAmount.Add(p.Amount)
	d.releaseFromInstallments(p.Amount)
	if d.Status == StatusSettled {
		d.Status = StatusActive
		if d.DaysOverdue(now) > 0 {
			d.Status = StatusOverdue
		}
	}
	d.Touch()
	return nil
}

// Reduce lowers both the original and remaining amounts, used when goods sold on
// credit are returned against the debt.
func (d *Debt) Reduce(amount decimal.Decimal) error {
	if !d.Status.IsOpen() {
		return shared.NewConflictError("DEBT_NOT_OPEN", fmt.Sprintf("Cannot reduce a debt with status %s", d.Status))
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Reduction must be positive")
	}
	if amount.GreaterThan(d.RemainingAmount) {
		return shared.NewValidationError("AMOUNT_EXCEEDS_REMAINING", "Reduction exceeds remaining debt")
	}
	d.OriginalAmount = d.OriginalAmount.Sub(amount)
	d.RemainingAmount = d.RemainingAmount.Sub(amount)
	d.shrinkInstallments(amount)
	if d.RemainingAmount.IsZero() {
		d.Status = StatusSettled
		d.AddDomainEvent(NewDebtSettledEvent(d))
	}
	d.Touch()
	return nil
}

// Cancel voids the debt after its source document was reversed. Amounts are left
// as they are so the payment invariant keeps holding.
func (d *Debt) Cancel(reason string) error {
	if d.Status.IsTerminal() {
		return shared.NewConflictError("DEBT_CLOSED", fmt.Sprintf("Debt is already %s", d.Status))
	}
	d.Status = StatusCancelled
	d.CancelReason = reason
	d.cancelOpenInstallments()
	d.Touch()
	return nil
}

// WriteOff closes an uncollectable debt. The remaining amount stays recorded.
func (d *Debt) WriteOff(reason string, userID uuid.UUID) error {
	switch d.Status {
	case StatusSettled:
		return shared.NewConflictError("DEBT_SETTLED", "Cannot write off a settled debt")
	case StatusWrittenOff:
		return shared.NewConflictError("DEBT_WRITTEN_OFF", "Debt has already been written off")
	case StatusCancelled:
		return shared.NewConflictError("DEBT_CANCELLED", "Cannot write off a cancelled debt")
	}
	if reason == "" {
		return shared.NewValidationError("INVALID_REASON", "Write-off reason is required")
	}
	now := time.Now()
	d.Status = StatusWrittenOff
	d.WriteOffReason = reason
	d.WrittenOffBy = &userID
	d.WrittenOffAt = &now
	d.cancelOpenInstallments()
	d.AddDomainEvent(NewDebtWrittenOffEvent(d))
	d.Touch()
	return nil
}

// MarkOverdue moves an active debt past its due date to overdue and flags
// late installments. Returns true if anything changed.
func (d *Debt) MarkOverdue(now time.Time) bool {
	changed := false
	if d.Status == StatusActive && d.DaysOverdue(now) > 0 {
		d.Status = StatusOverdue
		changed = true
	}
	if d.Status.IsOpen() {
		for i := range d.Installments {
			if d.Installments[i].markOverdue(now) {
				changed = true
			}
		}
	}
	if changed {
		d.Touch()
	}
	return changed
}

// DaysOverdue is the number of whole days between the due date and now; zero or negative when not yet due
func (d *Debt) DaysOverdue(now time.Time) int {
	return DaysBetween(d.DueDate, now)
}

// CheckInvariant verifies the amounts against the debt's payments
func (d *Debt) CheckInvariant(payments []*Payment) error {
	paid := decimal.Zero
	for _, p := range payments {
		if p.DebtID == d.ID && !p.IsReversed {
			paid = paid.Add(p.Amount)
		}
	}
	if !d.OriginalAmount.Equal(d.RemainingAmount.Add(paid)) {
		return shared.NewDomainError("DEBT_INVARIANT",
			fmt.Sprintf("Debt %s: original %s != remaining %s + paid %s", d.ID, d.OriginalAmount, d.RemainingAmount, paid))
	}
	return nil
}
