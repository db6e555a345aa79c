package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/debt"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DebtModel is the persistence model for the Debt aggregate. Installments are
// stored as JSON with the debt.
type DebtModel struct {
	AggregateModel
	DebtorID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	DebtorType      debt.DebtorType `gorm:"type:varchar(20);not null;index"`
	OriginalAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DueDate         time.Time       `gorm:"not null;index"`
	Status          debt.Status     `gorm:"type:varchar(20);not null;index"`
	ReferenceColumns
	Description    string             `gorm:"type:text"`
	CreatedBy      uuid.UUID          `gorm:"type:uuid"`
	Installments   []debt.Installment `gorm:"type:jsonb;serializer:json"`
	WriteOffReason string             `gorm:"type:text"`
	WrittenOffBy   *uuid.UUID         `gorm:"type:uuid"`
	WrittenOffAt   *time.Time
	CancelReason   string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DebtModel) TableName() string {
	return "debts"
}

// ToDomain converts the persistence model to a domain Debt
func (m *DebtModel) ToDomain() *debt.Debt {
	d := &debt.Debt{
		BaseAggregateRoot: m.ToAggregateRoot(),
		DebtorID:          m.DebtorID,
		DebtorType:        m.DebtorType,
		OriginalAmount:    m.OriginalAmount,
		RemainingAmount:   m.RemainingAmount,
		DueDate:           m.DueDate,
		Status:            m.Status,
		Reference:         m.ToReference(),
		Description:       m.Description,
		CreatedBy:         m.CreatedBy,
		Installments:      m.Installments,
		WriteOffReason:    m.WriteOffReason,
		WrittenOffBy:      m.WrittenOffBy,
		WrittenOffAt:      m.WrittenOffAt,
		CancelReason:      m.CancelReason,
	}
	if d.Installments == nil {
		d.Installments = []debt.Installment{}
	}
	return d
}

// DebtModelFromDomain creates a persistence model from a domain Debt
func DebtModelFromDomain(d *debt.Debt) *DebtModel {
	m := &DebtModel{
		DebtorID:         d.DebtorID,
		DebtorType:       d.DebtorType,
		OriginalAmount:   d.OriginalAmount,
		RemainingAmount:  d.RemainingAmount,
		DueDate:          d.DueDate,
		Status:           d.Status,
		ReferenceColumns: ReferenceColumnsFrom(d.Reference),
		Description:      d.Description,
		CreatedBy:        d.CreatedBy,
		Installments:     d.Installments,
		WriteOffReason:   d.WriteOffReason,
		WrittenOffBy:     d.WrittenOffBy,
		WrittenOffAt:     d.WrittenOffAt,
		CancelReason:     d.CancelReason,
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	return m
}

// DebtPaymentModel is the persistence model for a debt payment
type DebtPaymentModel struct {
	BaseModel
	DebtID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	Amount     decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Method     shared.PaymentMethod `gorm:"type:varchar(20);not null"`
	Note       string               `gorm:"type:text"`
	Date       time.Time            `gorm:"not null"`
	RecordedBy uuid.UUID            `gorm:"type:uuid"`
	IsReversed bool                 `gorm:"not null;default:false"`
	ReversedAt *time.Time
	ReversedBy *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (DebtPaymentModel) TableName() string {
	return "debt_payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *DebtPaymentModel) ToDomain() *debt.Payment {
	return &debt.Payment{
		BaseEntity: m.BaseModel.ToDomain(),
		DebtID:     m.DebtID,
		Amount:     m.Amount,
		Method:     m.Method,
		Note:       m.Note,
		Date:       m.Date,
		RecordedBy: m.RecordedBy,
		IsReversed: m.IsReversed,
		ReversedAt: m.ReversedAt,
		ReversedBy: m.ReversedBy,
	}
}

// DebtPaymentModelFromDomain creates a persistence model from a domain Payment
func DebtPaymentModelFromDomain(p *debt.Payment) *DebtPaymentModel {
	m := &DebtPaymentModel{
		DebtID:     p.DebtID,
		Amount:     p.Amount,
		Method:     p.Method,
		Note:       p.Note,
		Date:       p.Date,
		RecordedBy: p.RecordedBy,
		IsReversed: p.IsReversed,
		ReversedAt: p.ReversedAt,
		ReversedBy: p.ReversedBy,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
