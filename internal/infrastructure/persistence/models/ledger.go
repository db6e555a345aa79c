package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// EntryModel is the persistence model for a journal entry. Rows are inserted
// once and never updated.
type EntryModel struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey"`
	EntryNumber   int64            `gorm:"not null;uniqueIndex"`
	Number        string           `gorm:"type:varchar(20);not null"`
	Date          time.Time        `gorm:"not null;index"`
	Type          ledger.EntryType `gorm:"type:varchar(20);not null;index"`
	DebitAccount  ledger.Account   `gorm:"type:varchar(30);not null;index"`
	CreditAccount ledger.Account   `gorm:"type:varchar(30);not null;index"`
	Amount        decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	Description   string           `gorm:"type:text"`
	ReferenceColumns
	ReversalOf *uuid.UUID `gorm:"type:uuid;index"`
	CreatedBy  uuid.UUID  `gorm:"type:uuid"`
	CreatedAt  time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EntryModel) TableName() string {
	return "journal_entries"
}

// ToDomain converts the persistence model to a domain Entry
func (m *EntryModel) ToDomain() *ledger.Entry {
	return &ledger.Entry{
		ID:            m.ID,
		EntryNumber:   m.EntryNumber,
		Number:        m.Number,
		Date:          m.Date,
		Type:          m.Type,
		DebitAccount:  m.DebitAccount,
		CreditAccount: m.CreditAccount,
		Amount:        m.Amount,
		Description:   m.Description,
		Reference:     m.ToReference(),
		ReversalOf:    m.ReversalOf,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

// EntryModelFromDomain creates a persistence model from a domain Entry
func EntryModelFromDomain(e *ledger.Entry) *EntryModel {
	return &EntryModel{
		ID:               e.ID,
		EntryNumber:      e.EntryNumber,
		Number:           e.Number,
		Date:             e.Date,
		Type:             e.Type,
		DebitAccount:     e.DebitAccount,
		CreditAccount:    e.CreditAccount,
		Amount:           e.Amount,
		Description:      e.Description,
		ReferenceColumns: ReferenceColumnsFrom(e.Reference),
		ReversalOf:       e.ReversalOf,
		CreatedBy:        e.CreatedBy,
		CreatedAt:        e.CreatedAt,
	}
}
