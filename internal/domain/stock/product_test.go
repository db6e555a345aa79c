package stock

import (
	"testing"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newTestProduct(t *testing.T, warehouse, shop, minLevel int64) *Product {
	t.Helper()
	p, err := NewProduct(NewProductInput{
		Code:      "sku-1",
		Name:      "Olive Oil 1L",
		MinLevel:  d(minLevel),
		BuyPrice:  d(6),
		SellPrice: d(10),
	})
	require.NoError(t, err)
	if warehouse > 0 || shop > 0 {
		_, err = p.Open(d(warehouse), d(shop), MovementContext{})
		require.NoError(t, err)
	}
	p.ClearDomainEvents()
	return p
}

func assertStockInvariant(t *testing.T, p *Product) {
	t.Helper()
	assert.True(t, p.StockQty.Equal(p.WarehouseQty.Add(p.ShopQty)),
		"stock %s != warehouse %s + shop %s", p.StockQty, p.WarehouseQty, p.ShopQty)
}

func TestNewProduct(t *testing.T) {
	p, err := NewProduct(NewProductInput{Code: " abc ", Name: "Tea"})
	require.NoError(t, err)
	assert.Equal(t, "ABC", p.Code)
	assert.Equal(t, "pcs", p.Unit)
	assert.True(t, p.IsActive())

	_, err = NewProduct(NewProductInput{Code: "", Name: "Tea"})
	assert.Error(t, err)
	_, err = NewProduct(NewProductInput{Code: "X", Name: "Tea", SellPrice: d(-1)})
	assert.Error(t, err)
}

func TestProduct_WithdrawAnywhere_ShopFirst(t *testing.T) {
	p := newTestProduct(t, 10, 5, 5)

	movements, err := p.WithdrawAnywhere(d(11), MovementContext{Reference: shared.NewReference(shared.ReferenceInvoice, uuid.New())})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, LocationShop, movements[0].Location)
	assert.True(t, movements[0].Quantity.Equal(d(-5)))
	assert.Equal(t, LocationWarehouse, movements[1].Location)
	assert.True(t, movements[1].Quantity.Equal(d(-6)))

	assert.True(t, p.ShopQty.IsZero())
	assert.True(t, p.WarehouseQty.Equal(d(4)))
	assert.True(t, p.StockQty.Equal(d(4)))
	assert.True(t, p.IsLowStock())
	assertStockInvariant(t, p)

	events := p.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeStockBelowMinimum, events[0].EventType())
}

func TestProduct_WithdrawRejectsShortage(t *testing.T) {
	p := newTestProduct(t, 10, 2, 0)

	_, err := p.Withdraw(LocationShop, d(3), MovementContext{})
	require.Error(t, err)
	var stockErr *shared.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Shortages, 1)
	assert.True(t, stockErr.Shortages[0].Shortfall.Equal(d(1)))
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.True(t, p.ShopQty.Equal(d(2)))

	_, err = p.WithdrawAnywhere(d(13), MovementContext{})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.True(t, p.StockQty.Equal(d(12)))
}

func TestProduct_Transfer(t *testing.T) {
	p := newTestProduct(t, 10, 0, 3)

	m, err := p.Transfer(MovementTransferToShop, d(4), MovementContext{})
	require.NoError(t, err)
	assert.Equal(t, LocationWarehouse, m.Location)
	assert.True(t, m.ShopAfter.Equal(d(4)))
	assert.True(t, p.WarehouseQty.Equal(d(6)))
	assert.True(t, p.StockQty.Equal(d(10)))
	assert.Empty(t, p.GetDomainEvents())

	_, err = p.Transfer(MovementTransferToWarehouse, d(5), MovementContext{})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.True(t, p.ShopQty.Equal(d(4)))
	assertStockInvariant(t, p)

	_, err = p.Transfer(MovementIn, d(1), MovementContext{})
	assert.Error(t, err)
}

func TestProduct_Adjust(t *testing.T) {
	p := newTestProduct(t, 0, 5, 0)

	m, err := p.Adjust(LocationShop, d(3), MovementContext{})
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, MovementAdjust, m.Type)
	assert.True(t, m.Quantity.Equal(d(-2)))
	assert.True(t, p.ShopQty.Equal(d(3)))

	m, err = p.Adjust(LocationShop, d(3), MovementContext{})
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = p.Adjust(LocationShop, d(-1), MovementContext{})
	assert.Error(t, err)
	assertStockInvariant(t, p)
}

func TestProduct_Open(t *testing.T) {
	p := newTestProduct(t, 0, 0, 0)
	movements, err := p.Open(d(10), d(5), MovementContext{})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, MovementOpening, movements[0].Type)
	assert.True(t, p.StockQty.Equal(d(15)))

	_, err = p.Open(d(1), d(0), MovementContext{})
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
}

func TestProduct_Archive(t *testing.T) {
	p := newTestProduct(t, 0, 0, 0)
	require.NoError(t, p.Archive())
	assert.False(t, p.IsActive())
	assert.Error(t, p.Archive())
}

func TestCheckAvailability(t *testing.T) {
	p := newTestProduct(t, 10, 5, 0)
	products := map[uuid.UUID]*Product{p.ID: p}

	results, err := CheckAvailability(products, []Requirement{
		{ProductID: p.ID, Quantity: d(8)},
		{ProductID: p.ID, Quantity: d(8)},
		{ProductID: p.ID, Quantity: d(6), Location: LocationShop},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Requested.Equal(d(16)))
	// the shop line claims the whole shop, so only the warehouse is left
	assert.True(t, results[0].Available.Equal(d(10)))
	assert.True(t, results[0].Shortfall.Equal(d(6)))
	assert.True(t, results[1].Available.Equal(d(5)))
	assert.False(t, results[1].Sufficient())

	err = ShortageError(results)
	var stockErr *shared.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Len(t, stockErr.Shortages, 2)

	ok, err := CheckAvailability(products, []Requirement{{ProductID: p.ID, Quantity: d(15)}})
	require.NoError(t, err)
	assert.NoError(t, ShortageError(ok))

	_, err = CheckAvailability(products, []Requirement{{ProductID: uuid.New(), Quantity: d(1)}})
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}

func TestCheckAvailability_LocationLinesClaimFirst(t *testing.T) {
	tests := []struct {
		name            string
		warehouse, shop int64
		reqs            func(id uuid.UUID) []Requirement
		anywhereShort   int64
	}{
		{
			name: "shop line leaves too little for the rest",
			shop: 5,
			reqs: func(id uuid.UUID) []Requirement {
				return []Requirement{{ProductID: id, Quantity: d(3), Location: LocationShop}, {ProductID: id, Quantity: d(3)}}
			},
			anywhereShort: 1,
		},
		{
			name:      "warehouse covers what the shop line leaves",
			warehouse: 2,
			shop:      5,
			reqs: func(id uuid.UUID) []Requirement {
				return []Requirement{{ProductID: id, Quantity: d(3)}, {ProductID: id, Quantity: d(3), Location: LocationShop}}
			},
		},
		{
			name:      "an over-claimed location frees nothing",
			warehouse: 4,
			shop:      1,
			reqs: func(id uuid.UUID) []Requirement {
				return []Requirement{{ProductID: id, Quantity: d(3), Location: LocationShop}, {ProductID: id, Quantity: d(5)}}
			},
			anywhereShort: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProduct(t, tt.warehouse, tt.shop, 0)
			results, err := CheckAvailability(map[uuid.UUID]*Product{p.ID: p}, tt.reqs(p.ID))
			require.NoError(t, err)
			for _, r := range results {
				if r.Location == "" {
					assert.True(t, r.Shortfall.Equal(d(tt.anywhereShort)), "shortfall %s", r.Shortfall)
				}
			}
		})
	}
}
