package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel extends BaseModel with the optimistic-lock version
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// ToAggregateRoot rebuilds the domain aggregate root fields
func (m *AggregateModel) ToAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: m.ToDomain(),
		Version:    m.Version,
	}
}

// ReferenceColumns stores a shared.Reference as two columns
type ReferenceColumns struct {
	ReferenceType shared.ReferenceType `gorm:"type:varchar(30);not null;index"`
	ReferenceID   uuid.UUID            `gorm:"type:uuid;not null;index"`
}

// ToReference converts the columns back to a Reference
func (c ReferenceColumns) ToReference() shared.Reference {
	return shared.Reference{Type: c.ReferenceType, ID: c.ReferenceID}
}

// ReferenceColumnsFrom converts a Reference to its columns
func ReferenceColumnsFrom(ref shared.Reference) ReferenceColumns {
	if ref.IsZero() {
		ref = shared.ManualReference()
	}
	return ReferenceColumns{ReferenceType: ref.Type, ReferenceID: ref.ID}
}

// AllModels lists every model in dependency order, for AutoMigrate in tests
// and embedded sqlite deployments
func AllModels() []any {
	return []any{
		&SequenceModel{},
		&UserModel{},
		&CustomerModel{},
		&SupplierModel{},
		&ProductModel{},
		&MovementModel{},
		&EntryModel{},
		&TreasuryModel{},
		&TreasuryTransactionModel{},
		&CashboxModel{},
		&DebtModel{},
		&DebtPaymentModel{},
		&InvoiceModel{},
		&InvoiceItemModel{},
		&PurchaseOrderModel{},
		&PurchaseOrderItemModel{},
		&SalesReturnModel{},
		&SalesReturnItemModel{},
		&CountModel{},
	}
}

// NextVersion moves the model to the version it will have after an update and
// returns the version the row is expected to hold now
func (m *AggregateModel) NextVersion() int {
	expected := m.Version
	m.Version = expected + 1
	return expected
}
