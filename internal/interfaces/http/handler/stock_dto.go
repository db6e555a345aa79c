package handler

import (
	"time"

	"github.com/google/uuid"
	appstock "github.com/retail/backoffice/internal/application/stock"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Category       string          `json:"category,omitempty"`
	Unit           string          `json:"unit,omitempty"`
	WarehouseQty   decimal.Decimal `json:"warehouse_qty"`
	ShopQty        decimal.Decimal `json:"shop_qty"`
	StockQty       decimal.Decimal `json:"stock_qty"`
	MinLevel       decimal.Decimal `json:"min_level"`
	BuyPrice       decimal.Decimal `json:"buy_price"`
	SellPrice      decimal.Decimal `json:"sell_price"`
	WholesalePrice decimal.Decimal `json:"wholesale_price"`
	Status         string          `json:"status"`
	LowStock       bool            `json:"low_stock"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

func toProductResponse(p *stock.Product) *ProductResponse {
	if p == nil {
		return nil
	}
	return &ProductResponse{
		ID:             p.ID,
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
		Status:         string(p.Status),
		LowStock:       p.IsLowStock(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		Version:        p.Version,
	}
}

func toProductResponses(products []*stock.Product) []*ProductResponse {
	out := make([]*ProductResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	return out
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID             uuid.UUID        `json:"id"`
	ProductID      uuid.UUID        `json:"product_id"`
	Type           string           `json:"type"`
	Quantity       decimal.Decimal  `json:"quantity"`
	Location       string           `json:"location,omitempty"`
	WarehouseAfter decimal.Decimal  `json:"warehouse_after"`
	ShopAfter      decimal.Decimal  `json:"shop_after"`
	Reference      shared.Reference `json:"reference"`
	Note           string           `json:"note,omitempty"`
	CreatedBy      uuid.UUID        `json:"created_by"`
	CreatedAt      time.Time        `json:"created_at"`
}

func toMovementResponse(m *stock.Movement) *MovementResponse {
	if m == nil {
		return nil
	}
	return &MovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		Type:           string(m.Type),
		Quantity:       m.Quantity,
		Location:       string(m.Location),
		WarehouseAfter: m.WarehouseAfter,
		ShopAfter:      m.ShopAfter,
		Reference:      m.Reference,
		Note:           m.Note,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}

func toMovementResponses(movements []*stock.Movement) []*MovementResponse {
	out := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		out[i] = toMovementResponse(m)
	}
	return out
}

// InitialBalanceResponse is the outcome of registering opening stock
type InitialBalanceResponse struct {
	Product   *ProductResponse    `json:"product"`
	Movements []*MovementResponse `json:"movements"`
	Entry     *EntryResponse      `json:"entry,omitempty"`
}

func toInitialBalanceResponse(r *appstock.InitialBalanceResult) InitialBalanceResponse {
	return InitialBalanceResponse{
		Product:   toProductResponse(r.Product),
		Movements: toMovementResponses(r.Movements),
		Entry:     toEntryResponse(r.Entry),
	}
}

// ImportResponse reports a catalog import
type ImportResponse struct {
	Created  int                       `json:"created"`
	Products []*ProductResponse        `json:"products"`
	Failed   []appstock.ImportRowError `json:"failed"`
}
