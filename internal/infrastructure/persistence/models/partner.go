package models

import (
	"time"

	"github.com/retail/backoffice/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer aggregate
type CustomerModel struct {
	AggregateModel
	Code             string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name             string          `gorm:"type:varchar(200);not null"`
	Phone            string          `gorm:"type:varchar(50)"`
	Email            string          `gorm:"type:varchar(200)"`
	Address          string          `gorm:"type:text"`
	PriceType        string          `gorm:"type:varchar(20);not null;default:'retail'"`
	CreditLimit      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Balance          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CreditBalance    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalPurchases   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	LastPurchaseDate *time.Time
	PaymentTermsDays int            `gorm:"not null;default:0"`
	Status           partner.Status `gorm:"type:varchar(20);not null;default:'active';index"`
	Notes            string         `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Phone:             m.Phone,
		Email:             m.Email,
		Address:           m.Address,
		PriceType:         partner.PriceType(m.PriceType),
		CreditLimit:       m.CreditLimit,
		Balance:           m.Balance,
		CreditBalance:     m.CreditBalance,
		TotalPurchases:    m.TotalPurchases,
		LastPurchaseDate:  m.LastPurchaseDate,
		PaymentTermsDays:  m.PaymentTermsDays,
		Status:            m.Status,
		Notes:             m.Notes,
	}
}

// CustomerModelFromDomain creates a persistence model from a domain Customer
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{
		Code:             c.Code,
		Name:             c.Name,
		Phone:            c.Phone,
		Email:            c.Email,
		Address:          c.Address,
		PriceType:        string(c.PriceType),
		CreditLimit:      c.CreditLimit,
		Balance:          c.Balance,
		CreditBalance:    c.CreditBalance,
		TotalPurchases:   c.TotalPurchases,
		LastPurchaseDate: c.LastPurchaseDate,
		PaymentTermsDays: c.PaymentTermsDays,
		Status:           c.Status,
		Notes:            c.Notes,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// SupplierModel is the persistence model for the Supplier aggregate
type SupplierModel struct {
	AggregateModel
	Code             string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name             string          `gorm:"type:varchar(200);not null"`
	Phone            string          `gorm:"type:varchar(50)"`
	Email            string          `gorm:"type:varchar(200)"`
	Address          string          `gorm:"type:text"`
	Balance          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalPurchases   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	LastPurchaseDate *time.Time
	PaymentTermsDays int            `gorm:"not null;default:0"`
	Status           partner.Status `gorm:"type:varchar(20);not null;default:'active';index"`
	Notes            string         `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier
func (m *SupplierModel) ToDomain() *partner.Supplier {
	return &partner.Supplier{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Phone:             m.Phone,
		Email:             m.Email,
		Address:           m.Address,
		Balance:           m.Balance,
		TotalPurchases:    m.TotalPurchases,
		LastPurchaseDate:  m.LastPurchaseDate,
		PaymentTermsDays:  m.PaymentTermsDays,
		Status:            m.Status,
		Notes:             m.Notes,
	}
}

// SupplierModelFromDomain creates a persistence model from a domain Supplier
func SupplierModelFromDomain(s *partner.Supplier) *SupplierModel {
	m := &SupplierModel{
		Code:             s.Code,
		Name:             s.Name,
		Phone:            s.Phone,
		Email:            s.Email,
		Address:          s.Address,
		Balance:          s.Balance,
		TotalPurchases:   s.TotalPurchases,
		LastPurchaseDate: s.LastPurchaseDate,
		PaymentTermsDays: s.PaymentTermsDays,
		Status:           s.Status,
		Notes:            s.Notes,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}
