package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/treasury"
	"github.com/shopspring/decimal"
)

// TreasuryModel is the persistence model for the treasury singleton
type TreasuryModel struct {
	AggregateModel
	Key         string          `gorm:"column:treasury_key;type:varchar(20);not null;uniqueIndex"`
	Balance     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	LastUpdated time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TreasuryModel) TableName() string {
	return "treasury"
}

// ToDomain converts the persistence model to the domain Treasury
func (m *TreasuryModel) ToDomain() *treasury.Treasury {
	return &treasury.Treasury{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Key:               m.Key,
		Balance:           m.Balance,
		LastUpdated:       m.LastUpdated,
	}
}

// TreasuryModelFromDomain creates a persistence model from the domain Treasury
func TreasuryModelFromDomain(t *treasury.Treasury) *TreasuryModel {
	m := &TreasuryModel{
		Key:         t.Key,
		Balance:     t.Balance,
		LastUpdated: t.LastUpdated,
	}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	return m
}

// TreasuryTransactionModel is the persistence model for a treasury transaction
type TreasuryTransactionModel struct {
	AggregateModel
	Number      string                   `gorm:"type:varchar(20);not null;uniqueIndex"`
	Type        treasury.TransactionType `gorm:"type:varchar(20);not null;index"`
	Amount      decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	Description string                   `gorm:"type:text"`
	ReferenceColumns
	PartnerID  *uuid.UUID           `gorm:"type:uuid;index"`
	Method     shared.PaymentMethod `gorm:"type:varchar(20)"`
	Date       time.Time            `gorm:"not null;index"`
	CreatedBy  uuid.UUID            `gorm:"type:uuid"`
	IsReversed bool                 `gorm:"not null;default:false"`
	ReversedAt *time.Time
	ReversedBy *uuid.UUID `gorm:"type:uuid"`
	ReversalOf *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (TreasuryTransactionModel) TableName() string {
	return "treasury_transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *TreasuryTransactionModel) ToDomain() *treasury.Transaction {
	return &treasury.Transaction{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Number:            m.Number,
		Type:              m.Type,
		Amount:            m.Amount,
		Description:       m.Description,
		Reference:         m.ToReference(),
		PartnerID:         m.PartnerID,
		Method:            m.Method,
		Date:              m.Date,
		CreatedBy:         m.CreatedBy,
		IsReversed:        m.IsReversed,
		ReversedAt:        m.ReversedAt,
		ReversedBy:        m.ReversedBy,
		ReversalOf:        m.ReversalOf,
	}
}

// TreasuryTransactionModelFromDomain creates a persistence model from a domain Transaction
func TreasuryTransactionModelFromDomain(tx *treasury.Transaction) *TreasuryTransactionModel {
	m := &TreasuryTransactionModel{
		Number:           tx.Number,
		Type:             tx.Type,
		Amount:           tx.Amount,
		Description:      tx.Description,
		ReferenceColumns: ReferenceColumnsFrom(tx.Reference),
		PartnerID:        tx.PartnerID,
		Method:           tx.Method,
		Date:             tx.Date,
		CreatedBy:        tx.CreatedBy,
		IsReversed:       tx.IsReversed,
		ReversedAt:       tx.ReversedAt,
		ReversedBy:       tx.ReversedBy,
		ReversalOf:       tx.ReversalOf,
	}
	m.FromDomainAggregateRoot(tx.BaseAggregateRoot)
	return m
}

// CashboxModel is the persistence model for a daily cashbox. Manual lines are
// stored as JSON with the cashbox.
type CashboxModel struct {
	AggregateModel
	Date             string                  `gorm:"type:varchar(10);not null;uniqueIndex"`
	OpeningBalance   decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	SalesIncome      decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	PurchaseExpenses decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	ManualIncome     []treasury.CashboxEntry `gorm:"type:jsonb;serializer:json"`
	ManualExpenses   []treasury.CashboxEntry `gorm:"type:jsonb;serializer:json"`
	TotalIncome      decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	TotalExpenses    decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	NetChange        decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	ClosingBalance   decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	Difference       decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	IsReconciled     bool                    `gorm:"not null;default:false"`
	ActualClosing    *decimal.Decimal        `gorm:"type:decimal(18,2)"`
	ReconciledBy     *uuid.UUID              `gorm:"type:uuid"`
	ReconciledAt     *time.Time
	Notes            string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CashboxModel) TableName() string {
	return "daily_cashboxes"
}

// ToDomain converts the persistence model to a domain DailyCashbox
func (m *CashboxModel) ToDomain() *treasury.DailyCashbox {
	c := &treasury.DailyCashbox{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Date:              m.Date,
		OpeningBalance:    m.OpeningBalance,
		SalesIncome:       m.SalesIncome,
		PurchaseExpenses:  m.PurchaseExpenses,
		ManualIncome:      m.ManualIncome,
		ManualExpenses:    m.ManualExpenses,
		TotalIncome:       m.TotalIncome,
		TotalExpenses:     m.TotalExpenses,
		NetChange:         m.NetChange,
		ClosingBalance:    m.ClosingBalance,
		Difference:        m.Difference,
		IsReconciled:      m.IsReconciled,
		ActualClosing:     m.ActualClosing,
		ReconciledBy:      m.ReconciledBy,
		ReconciledAt:      m.ReconciledAt,
		Notes:             m.Notes,
	}
	if c.ManualIncome == nil {
		c.ManualIncome = []treasury.CashboxEntry{}
	}
	if c.ManualExpenses == nil {
		c.ManualExpenses = []treasury.CashboxEntry{}
	}
	return c
}

// CashboxModelFromDomain creates a persistence model from a domain DailyCashbox
func CashboxModelFromDomain(c *treasury.DailyCashbox) *CashboxModel {
	m := &CashboxModel{
		Date:             c.Date,
		OpeningBalance:   c.OpeningBalance,
		SalesIncome:      c.SalesIncome,
		PurchaseExpenses: c.PurchaseExpenses,
		ManualIncome:     c.ManualIncome,
		ManualExpenses:   c.ManualExpenses,
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
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}
