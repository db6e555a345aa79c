package debt

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InstallmentStatus is the state of one scheduled installment
type InstallmentStatus string

const (
	InstallmentPending   InstallmentStatus = "PENDING"
	InstallmentOverdue   InstallmentStatus = "OVERDUE"
	InstallmentPaid      InstallmentStatus = "PAID"
	InstallmentCancelled InstallmentStatus = "CANCELLED"
)

// IsOpen reports whether the installment still expects money
func (s InstallmentStatus) IsOpen() bool {
	return s == InstallmentPending || s == InstallmentOverdue
}

// Interval is the spacing between installment due dates
type Interval string

const (
	IntervalWeekly   Interval = "weekly"
	IntervalBiweekly Interval = "biweekly"
	IntervalMonthly  Interval = "monthly"
)

// IsValid checks if the interval is known
func (i Interval) IsValid() bool {
	return i == IntervalWeekly || i == IntervalBiweekly || i == IntervalMonthly
}

// DueDate returns the due date of the n-th installment (0-based) starting at start
func (i Interval) DueDate(start time.Time, n int) time.Time {
	switch i {
	case IntervalWeekly:
		return start.AddDate(0, 0, 7*n)
	case IntervalBiweekly:
		return start.AddDate(0, 0, 14*n)
	default:
		return start.AddDate(0, n, 0)
	}
}

// Installment is one dated part of a debt's payment plan
type Installment struct {
	ID         uuid.UUID         `json:"id"`
	Sequence   int               `json:"sequence"`
	DueDate    time.Time         `json:"due_date"`
	Amount     decimal.Decimal   `json:"amount"`
	PaidAmount decimal.Decimal   `json:"paid_amount"`
	Status     InstallmentStatus `json:"status"`
}

// Outstanding is what is still owed on the installment
func (in *Installment) Outstanding() decimal.Decimal {
	return in.Amount.Sub(in.PaidAmount)
}

func (in *Installment) markOverdue(now time.Time) bool {
	if in.Status == InstallmentPending && DaysBetween(in.DueDate, now) > 0 {
		in.Status = InstallmentOverdue
		return true
	}
	return false
}

// CreateInstallmentPlan replaces the open installments with count new ones that
// split the remaining amount into whole cents. The last installment absorbs the
// rounding difference.
func (d *Debt) CreateInstallmentPlan(count int, interval Interval, startDate time.Time) error {
	if !d.Status.IsOpen() {
		return shared.NewConflictError("DEBT_NOT_OPEN", fmt.Sprintf("Cannot schedule a debt with status %s", d.Status))
	}
	if count < 1 {
		return shared.NewValidationError("INVALID_INSTALLMENT_COUNT", "Installment count must be at least 1")
	}
	if !interval.IsValid() {
		return shared.NewValidationError("INVALID_INTERVAL", fmt.Sprintf("Unknown interval %q", interval))
	}
	if startDate.IsZero() {
		return shared.NewValidationError("INVALID_START_DATE", "Start date is required")
	}

	parts, err := splitLastAbsorbs(d.RemainingAmount, count)
	if err != nil {
		return shared.NewValidationError("INVALID_INSTALLMENT_COUNT", err.Error())
	}

	d.cancelOpenInstallments()
	next := 1
	for _, in := range d.Installments {
		if in.Sequence >= next {
			next = in.Sequence + 1
		}
	}
	for i, amount := range parts {
		d.Installments = append(d.Installments, Installment{
			ID:         uuid.New(),
			Sequence:   next + i,
			DueDate:    interval.DueDate(startDate, i),
			Amount:     amount,
			PaidAmount: decimal.Zero,
			Status:     InstallmentPending,
		})
	}
	d.Touch()
	return nil
}

// splitLastAbsorbs splits amount into n cent-rounded parts, putting the leftover on the last one
func splitLastAbsorbs(amount decimal.Decimal, n int) ([]decimal.Decimal, error) {
	parts, err := valueobject.Allocate(amount, n)
	if err != nil {
		return nil, err
	}
	base := parts[n-1]
	total := valueobject.Sum(parts...)
	for i := range parts {
		parts[i] = base
	}
	parts[n-1] = base.Add(total.Sub(base.Mul(decimal.NewFromInt(int64(n)))))
	return parts, nil
}

// OpenInstallments returns unpaid installments ordered by due date
func (d *Debt) OpenInstallments() []*Installment {
	var open []*Installment
	for i := range d.Installments {
		if d.Installments[i].Status.IsOpen() {
			open = append(open, &d.Installments[i])
		}
	}
	sort.SliceStable(open, func(a, b int) bool { return open[a].DueDate.Before(open[b].DueDate) })
	return open
}

// allocateToInstallments applies a payment to the earliest due installments first
func (d *Debt) allocateToInstallments(amount decimal.Decimal) {
	left := amount
	for _, in := range d.OpenInstallments() {
		if !left.IsPositive() {
			return
		}
		pay := decimal.Min(left, in.Outstanding())
		in.PaidAmount = in.PaidAmount.Add(pay)
		left = left.Sub(pay)
		if in.Outstanding().IsZero() {
			in.Status = InstallmentPaid
		}
	}
}

// releaseFromInstallments undoes payment allocation starting from the latest paid installment
func (d *Debt) releaseFromInstallments(amount decimal.Decimal) {
	left := amount
	for i := len(d.Installments) - 1; i >= 0 && left.IsPositive(); i-- {
		in := &d.Installments[i]
		if in.Status == InstallmentCancelled || !in.PaidAmount.IsPositive() {
			continue
		}
		back := decimal.Min(left, in.PaidAmount)
		in.PaidAmount = in.PaidAmount.Sub(back)
		left = left.Sub(back)
		if in.Status == InstallmentPaid {
			in.Status = InstallmentPending
		}
	}
}

// shrinkInstallments removes a reduction from the latest open installments
func (d *Debt) shrinkInstallments(amount decimal.Decimal) {
	open := d.OpenInstallments()
	left := amount
	for i := len(open) - 1; i >= 0 && left.IsPositive(); i-- {
		in := open[i]
		cut := decimal.Min(left, in.Outstanding())
		in.Amount = in.Amount.Sub(cut)
		left = left.Sub(cut)
		if in.Outstanding().IsZero() {
			if in.Amount.IsZero() {
				in.Status = InstallmentCancelled
			} else {
				in.Status = InstallmentPaid
			}
		}
	}
}

func (d *Debt) cancelOpenInstallments() {
	for i := range d.Installments {
		if d.Installments[i].Status.IsOpen() {
			d.Installments[i].Status = InstallmentCancelled
		}
	}
}
