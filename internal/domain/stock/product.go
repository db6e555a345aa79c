package stock

import (
	"fmt"
	"strings"

	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus is the lifecycle state of a product. Products are archived, never deleted.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

// Location is where stock physically sits
type Location string

const (
	LocationWarehouse Location = "warehouse"
	LocationShop      Location = "shop"
)

// IsValid checks if the location is known
func (l Location) IsValid() bool {
	return l == LocationWarehouse || l == LocationShop
}

// String returns the string representation of Location
func (l Location) String() string {
	return string(l)
}

// Product is a sellable item with per-location quantities.
// StockQty always equals WarehouseQty + ShopQty; quantities only change through movements.
type Product struct {
	shared.BaseAggregateRoot
	Code           string
	Name           string
	Category       string
	Unit           string
	WarehouseQty   decimal.Decimal
	ShopQty        decimal.Decimal
	StockQty       decimal.Decimal
	MinLevel       decimal.Decimal
	BuyPrice       decimal.Decimal
	SellPrice      decimal.Decimal
	WholesalePrice decimal.Decimal
	Status         ProductStatus
}

// NewProductInput carries the fields of a new product
type NewProductInput struct {
	Code           string
	Name           string
	Category       string
	Unit           string
	MinLevel       decimal.Decimal
	BuyPrice       decimal.Decimal
	SellPrice      decimal.Decimal
	WholesalePrice decimal.Decimal
}

// NewProduct creates an active product with empty stock
func NewProduct(in NewProductInput) (*Product, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, shared.NewValidationError("INVALID_CODE", "Product code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewValidationError("INVALID_CODE", "Product code cannot exceed 50 characters")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Product name cannot be empty")
	}
	for field, v := range map[string]decimal.Decimal{
		"min level":       in.MinLevel,
		"buy price":       in.BuyPrice,
		"sell price":      in.SellPrice,
		"wholesale price": in.WholesalePrice,
	} {
		if v.IsNegative() {
			return nil, shared.NewValidationError("INVALID_PRICE", fmt.Sprintf("Product %s cannot be negative", field))
		}
	}
	unit := in.Unit
	if unit == "" {
		unit = "pcs"
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Category:          in.Category,
		Unit:              unit,
		WarehouseQty:      decimal.Zero,
		ShopQty:           decimal.Zero,
		StockQty:          decimal.Zero,
		MinLevel:          in.MinLevel,
		BuyPrice:          in.BuyPrice,
		SellPrice:         in.SellPrice,
		WholesalePrice:    in.WholesalePrice,
		Status:            ProductStatusActive,
	}, nil
}

// IsActive reports whether the product can be traded
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// IsLowStock reports whether total stock is at or below the minimum level
func (p *Product) IsLowStock() bool {
	return p.StockQty.LessThanOrEqual(p.MinLevel)
}

// QtyAt returns the quantity held at a location
func (p *Product) QtyAt(loc Location) decimal.Decimal {
	if loc == LocationShop {
		return p.ShopQty
	}
	return p.WarehouseQty
}

// Available returns the quantity that can be drawn from loc, or from both
// locations when loc is empty
func (p *Product) Available(loc Location) decimal.Decimal {
	if loc == "" {
		return p.StockQty
	}
	return p.QtyAt(loc)
}

// Archive takes the product out of trading while keeping it resolvable
func (p *Product) Archive() error {
	if p.Status == ProductStatusArchived {
		return shared.NewConflictError("ALREADY_ARCHIVED", "Product is already archived")
	}
	p.Status = ProductStatusArchived
	p.Touch()
	return nil
}

// WholesaleOrSellPrice is the wholesale price, or the sell price when no
// wholesale price is set
func (p *Product) WholesaleOrSellPrice() decimal.Decimal {
	if p.WholesalePrice.IsPositive() {
		return p.WholesalePrice
	}
	return p.SellPrice
}

// UpdatePrices changes buy, sell and wholesale prices
func (p *Product) UpdatePrices(buy, sell, wholesale decimal.Decimal) error {
	if buy.IsNegative() || sell.IsNegative() || wholesale.IsNegative() {
		return shared.NewValidationError("INVALID_PRICE", "Prices cannot be negative")
	}
	p.BuyPrice = buy
	p.SellPrice = sell
	p.WholesalePrice = wholesale
	p.Touch()
	return nil
}

func (p *Product) setQty(loc Location, qty decimal.Decimal) {
	if loc == LocationShop {
		p.setQuantities(p.WarehouseQty, qty)
		return
	}
	p.setQuantities(qty, p.ShopQty)
}

// setQuantities is the only writer of the quantity fields
func (p *Product) setQuantities(warehouse, shop decimal.Decimal) {
	wasLow := p.IsLowStock()
	p.WarehouseQty = warehouse
	p.ShopQty = shop
	p.StockQty = p.WarehouseQty.Add(p.ShopQty)
	p.Touch()
	if !wasLow && p.IsLowStock() {
		p.AddDomainEvent(NewStockBelowMinimumEvent(p))
	}
}

func (p *Product) shortage(loc Location, requested decimal.Decimal) *shared.InsufficientStockError {
	available := p.Available(loc)
	return shared.NewInsufficientStockError(shared.StockShortage{
		ProductID:   p.ID,
		ProductName: p.Name,
		Location:    string(loc),
		Requested:   requested,
		Available:   available,
		Shortfall:   requested.Sub(available),
	})
}
