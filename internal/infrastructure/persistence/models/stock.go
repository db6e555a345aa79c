package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate
type ProductModel struct {
	AggregateModel
	Code           string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name           string              `gorm:"type:varchar(200);not null"`
	Category       string              `gorm:"type:varchar(100);index"`
	Unit           string              `gorm:"type:varchar(20)"`
	WarehouseQty   decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	ShopQty        decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	StockQty       decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	MinLevel       decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	BuyPrice       decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	SellPrice      decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	WholesalePrice decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0"`
	Status         stock.ProductStatus `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *stock.Product {
	return &stock.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Category:          m.Category,
		Unit:              m.Unit,
		WarehouseQty:      m.WarehouseQty,
		ShopQty:           m.ShopQty,
		StockQty:          m.StockQty,
		MinLevel:          m.MinLevel,
		BuyPrice:          m.BuyPrice,
		SellPrice:         m.SellPrice,
		WholesalePrice:    m.WholesalePrice,
		Status:            m.Status,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *stock.Product) *ProductModel {
	m := &ProductModel{
		Code:           p.Code,
		Name:           p.Name,
		Category:       p.Category,
		Unit:           p.Unit,
		WarehouseQty:   p.WarehouseQty,
		ShopQty:        p.ShopQty,
		StockQty:       p.StockQty,
		MinLevel:       p.MinLevel,
		BuyPrice:       p.BuyPrice,
		SellPrice:      p.SellPrice,
		WholesalePrice: p.WholesalePrice,
		Status:         p.Status,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// MovementModel is the persistence model for the append-only movement log
type MovementModel struct {
	ID        uuid.UUID          `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID          `gorm:"type:uuid;not null;index"`
	Type      stock.MovementType `gorm:"type:varchar(20);not null;index"`
	Quantity  decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Location  stock.Location     `gorm:"type:varchar(20);not null"`
	// Quantities of the product after the movement was applied
	WarehouseAfter decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ShopAfter      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReferenceColumns
	Note      string    `gorm:"type:text"`
	CreatedBy uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (MovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain Movement
func (m *MovementModel) ToDomain() *stock.Movement {
	return &stock.Movement{
		ID:             m.ID,
		ProductID:      m.ProductID,
		Type:           m.Type,
		Quantity:       m.Quantity,
		Location:       m.Location,
		WarehouseAfter: m.WarehouseAfter,
		ShopAfter:      m.ShopAfter,
		Reference:      m.ToReference(),
		Note:           m.Note,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}

// MovementModelFromDomain creates a persistence model from a domain Movement
func MovementModelFromDomain(mv *stock.Movement) *MovementModel {
	return &MovementModel{
		ID:               mv.ID,
		ProductID:        mv.ProductID,
		Type:             mv.Type,
		Quantity:         mv.Quantity,
		Location:         mv.Location,
		WarehouseAfter:   mv.WarehouseAfter,
		ShopAfter:        mv.ShopAfter,
		ReferenceColumns: ReferenceColumnsFrom(mv.Reference),
		Note:             mv.Note,
		CreatedBy:        mv.CreatedBy,
		CreatedAt:        mv.CreatedAt,
	}
}
