//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/retail/backoffice/internal/application/sales"
	"github.com/retail/backoffice/internal/domain/debt"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/trade"
	"github.com/retail/backoffice/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_SaleReversalRoundTrip(t *testing.T) {
	tdb := NewTestDB(t)
	s := testutil.NewStack(t, testutil.WithStackDB(tdb.DB))
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "FLOUR", BuyPrice: 4, SellPrice: 7, ShopQty: 10, WarehouseQty: 5})

	sale, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
		PaymentType: trade.PaymentTypeCash,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(12)}},
	}, s.Cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", sale.Invoice.Number)
	testutil.RequireDecimal(t, testutil.Dec(84), s.Balance(t))

	got := s.Product(t, p.ID)
	testutil.RequireDecimal(t, testutil.Dec(0), got.ShopQty)
	testutil.RequireDecimal(t, testutil.Dec(3), got.WarehouseQty)

	_, err = s.Orchestrator.ReverseSale(ctx, sale.Invoice.ID, s.Manager.ID, "till error")
	require.NoError(t, err)

	got = s.Product(t, p.ID)
	testutil.RequireDecimal(t, testutil.Dec(10), got.ShopQty)
	testutil.RequireDecimal(t, testutil.Dec(5), got.WarehouseQty)
	testutil.RequireDecimal(t, testutil.Dec(0), s.Balance(t))
	s.RequireBalanced(t)
}

func TestPostgres_ConcurrentSalesNeverOversell(t *testing.T) {
	tdb := NewTestDB(t)
	s := testutil.NewStack(t, testutil.WithStackDB(tdb.DB))
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "EGGS", BuyPrice: 2, SellPrice: 3, ShopQty: 3})

	const buyers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		numbers  = map[string]bool{}
		rejected int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
				PaymentType: trade.PaymentTypeCash,
				Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(1)}},
			}, s.Cashier.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.Equal(t, shared.KindInsufficientStock, shared.KindOf(err))
				rejected++
				return
			}
			numbers[res.Invoice.Number] = true
		}()
	}
	wg.Wait()

	assert.Len(t, numbers, 3, "invoice numbers must be unique")
	assert.Equal(t, buyers-3, rejected)
	testutil.RequireDecimal(t, testutil.Dec(0), s.Product(t, p.ID).ShopQty)
	testutil.RequireDecimal(t, testutil.Dec(9), s.Balance(t))
	s.RequireBalanced(t)
}

func TestPostgres_CreditSaleSettledByPayments(t *testing.T) {
	tdb := NewTestDB(t)
	s := testutil.NewStack(t, testutil.WithStackDB(tdb.DB))
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "TEA", BuyPrice: 20, SellPrice: 50, ShopQty: 4})
	c := s.SeedCustomer(t, "C-100", 500)

	sale, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
		CustomerID:  &c.ID,
		PaymentType: trade.PaymentTypeCredit,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(2)}},
	}, s.Cashier.ID)
	require.NoError(t, err)
	require.NotNil(t, sale.Debt)
	testutil.RequireDecimal(t, testutil.Dec(100), s.Customer(t, c.ID).Balance)

	for _, amount := range []int64{30, 70} {
		_, err := s.Orchestrator.RecordCustomerPayment(ctx, sales.DocumentPaymentCommand{
			DocumentID: sale.Invoice.ID,
			Amount:     testutil.Dec(amount),
			Method:     shared.PaymentMethodCash,
		}, s.Cashier.ID)
		require.NoError(t, err)
	}

	settled, err := s.Debts.GetDebt(ctx, sale.Debt.ID)
	require.NoError(t, err)
	assert.Equal(t, debt.StatusSettled, settled.Debt.Status)
	assert.Len(t, settled.Payments, 2)
	testutil.RequireDecimal(t, testutil.Dec(0), s.Customer(t, c.ID).Balance)
	testutil.RequireDecimal(t, testutil.Dec(100), s.Balance(t))
	s.RequireBalanced(t)
}
