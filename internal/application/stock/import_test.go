package stock_test

import (
	"context"
	"testing"
	"time"

	appstock "github.com/retail/backoffice/internal/application/stock"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func importRow(line int, code string, buy int64, warehouse, shop int64) appstock.ProductImportRow {
	return appstock.ProductImportRow{
		Line: line,
		Product: appstock.CreateProductCommand{
			Code:      code,
			Name:      "Product " + code,
			BuyPrice:  testutil.Dec(buy),
			SellPrice: testutil.Dec(buy * 2),
		},
		WarehouseQty: testutil.Dec(warehouse),
		ShopQty:      testutil.Dec(shop),
	}
}

func TestImportProducts(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	s.SeedProduct(t, testutil.ProductSpec{Code: "RICE", BuyPrice: 3, SellPrice: 5})

	res, err := s.Stock.ImportProducts(ctx, []appstock.ProductImportRow{
		importRow(2, "SUGAR", 4, 10, 5),
		importRow(3, "RICE", 3, 1, 0),
		importRow(4, "SALT", 1, 0, 0),
		{Line: 5, Product: appstock.CreateProductCommand{Code: "NONAME"}},
		importRow(6, "VINEGAR", 2, -1, 0),
	}, s.Storekeeper.ID)
	require.NoError(t, err)

	require.Len(t, res.Created, 2)
	sugar := s.Product(t, res.Created[0].ID)
	testutil.RequireDecimal(t, testutil.Dec(10), sugar.WarehouseQty)
	testutil.RequireDecimal(t, testutil.Dec(5), sugar.ShopQty)
	testutil.RequireDecimal(t, testutil.Dec(0), s.Product(t, res.Created[1].ID).StockQty)

	require.Len(t, res.Failed, 3)
	assert.Equal(t, 3, res.Failed[0].Line)
	assert.Equal(t, "PRODUCT_CODE_EXISTS", res.Failed[0].Code)
	assert.Equal(t, 5, res.Failed[1].Line)
	assert.Equal(t, 6, res.Failed[2].Line)
	assert.Equal(t, "INVALID_QUANTITY", res.Failed[2].Code)

	// 15 units at 4 booked as opening inventory against owner equity
	tb, err := s.Ledger.GetTrialBalance(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, tb.TotalDebit.Equal(testutil.Dec(60)), tb.TotalDebit.String())
	s.RequireBalanced(t)
}

func TestImportProducts_Empty(t *testing.T) {
	s := testutil.NewStack(t)
	_, err := s.Stock.ImportProducts(context.Background(), nil, s.Storekeeper.ID)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}
