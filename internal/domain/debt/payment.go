package debt

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Payment is money received or paid against a debt. Payments are never deleted;
// a mistaken one is marked reversed.
type Payment struct {
	shared.BaseEntity
	DebtID     uuid.UUID
	Amount     decimal.Decimal
	Method     shared.PaymentMethod
	Note       string
	Date       time.Time
	RecordedBy uuid.UUID
	IsReversed bool
	ReversedAt *time.Time
	ReversedBy *uuid.UUID
}

// NewPayment validates and creates a payment record
func NewPayment(debtID uuid.UUID, amount decimal.Decimal, method shared.PaymentMethod, note string, date time.Time, userID uuid.UUID) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Unknown payment method %q", method))
	}
	if date.IsZero() {
		date = time.Now()
	}
	return &Payment{
		BaseEntity: shared.NewBaseEntity(),
		DebtID:     debtID,
		Amount:     amount,
		Method:     method,
		Note:       note,
		Date:       date,
		RecordedBy: userID,
	}, nil
}

func (p *Payment) markReversed(userID uuid.UUID, at time.Time) {
	p.IsReversed = true
	p.ReversedAt = &at
	p.ReversedBy = &userID
	p.Touch()
}
