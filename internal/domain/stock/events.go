package stock

import (
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeProduct is the aggregate type for products
const AggregateTypeProduct = "Product"

// EventTypeStockBelowMinimum is raised when stock drops to or under the minimum level
const EventTypeStockBelowMinimum = "StockBelowMinimum"

// StockBelowMinimumEvent tells the alerting side that a product needs restocking
type StockBelowMinimumEvent struct {
	shared.BaseDomainEvent
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	StockQty    decimal.Decimal `json:"stock_qty"`
	MinLevel    decimal.Decimal `json:"min_level"`
}

// NewStockBelowMinimumEvent creates a StockBelowMinimumEvent
func NewStockBelowMinimumEvent(p *Product) *StockBelowMinimumEvent {
	return &StockBelowMinimumEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowMinimum, AggregateTypeProduct, p.ID),
		ProductCode:     p.Code,
		ProductName:     p.Name,
		StockQty:        p.StockQty,
		MinLevel:        p.MinLevel,
	}
}
