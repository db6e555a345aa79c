package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/inventorycount"
)

// CountModel is the persistence model for an inventory count session.
// Snapshot items are stored as JSON with the count.
type CountModel struct {
	AggregateModel
	Number      string                `gorm:"type:varchar(30);not null;uniqueIndex"`
	Scope       inventorycount.Scope  `gorm:"type:varchar(20);not null"`
	Category    string                `gorm:"type:varchar(100)"`
	IsBlind     bool                  `gorm:"not null;default:false"`
	Notes       string                `gorm:"type:text"`
	Status      inventorycount.Status `gorm:"type:varchar(20);not null;index"`
	SnapshotAt  time.Time             `gorm:"not null"`
	Items       []inventorycount.Item `gorm:"type:jsonb;serializer:json"`
	CreatedBy   uuid.UUID             `gorm:"type:uuid"`
	CompletedAt *time.Time
	CompletedBy *uuid.UUID `gorm:"type:uuid"`
	UnlockedAt  *time.Time
	UnlockedBy  *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (CountModel) TableName() string {
	return "inventory_counts"
}

// ToDomain converts the persistence model to a domain Count
func (m *CountModel) ToDomain() *inventorycount.Count {
	c := &inventorycount.Count{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Number:            m.Number,
		Scope:             m.Scope,
		Category:          m.Category,
		IsBlind:           m.IsBlind,
		Notes:             m.Notes,
		Status:            m.Status,
		SnapshotAt:        m.SnapshotAt,
		Items:             m.Items,
		CreatedBy:         m.CreatedBy,
		CompletedAt:       m.CompletedAt,
		CompletedBy:       m.CompletedBy,
		UnlockedAt:        m.UnlockedAt,
		UnlockedBy:        m.UnlockedBy,
	}
	if c.Items == nil {
		c.Items = []inventorycount.Item{}
	}
	return c
}

// CountModelFromDomain creates a persistence model from a domain Count
func CountModelFromDomain(c *inventorycount.Count) *CountModel {
	m := &CountModel{
		Number:      c.Number,
		Scope:       c.Scope,
		Category:    c.Category,
		IsBlind:     c.IsBlind,
		Notes:       c.Notes,
		Status:      c.Status,
		SnapshotAt:  c.SnapshotAt,
		Items:       c.Items,
		CreatedBy:   c.CreatedBy,
		CompletedAt: c.CompletedAt,
		CompletedBy: c.CompletedBy,
		UnlockedAt:  c.UnlockedAt,
		UnlockedBy:  c.UnlockedBy,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}
