package debt

import (
	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeDebt is the aggregate type for debts
const AggregateTypeDebt = "Debt"

// Event type constants
const (
	EventTypeDebtSettled    = "DebtSettled"
	EventTypeDebtWrittenOff = "DebtWrittenOff"
)

// DebtSettledEvent is raised when a debt's remaining amount reaches zero
type DebtSettledEvent struct {
	shared.BaseDomainEvent
	DebtorID       uuid.UUID       `json:"debtor_id"`
	DebtorType     DebtorType      `json:"debtor_type"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
}

// NewDebtSettledEvent creates a DebtSettledEvent
func NewDebtSettledEvent(d *Debt) *DebtSettledEvent {
	return &DebtSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDebtSettled, AggregateTypeDebt, d.ID),
		DebtorID:        d.DebtorID,
		DebtorType:      d.DebtorType,
		OriginalAmount:  d.OriginalAmount,
	}
}

// DebtWrittenOffEvent is raised when an uncollectable debt is written off
type DebtWrittenOffEvent struct {
	shared.BaseDomainEvent
	DebtorID uuid.UUID       `json:"debtor_id"`
	Amount   decimal.Decimal `json:"amount"`
	Reason   string          `json:"reason"`
}

// NewDebtWrittenOffEvent creates a DebtWrittenOffEvent
func NewDebtWrittenOffEvent(d *Debt) *DebtWrittenOffEvent {
	return &DebtWrittenOffEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDebtWrittenOff, AggregateTypeDebt, d.ID),
		DebtorID:        d.DebtorID,
		Amount:          d.RemainingAmount,
		Reason:          d.WriteOffReason,
	}
}
