package sales_test

import (
	"context"
	"errors"
	"testing"

	"github.com/retail/backoffice/internal/application/sales"
	"github.com/retail/backoffice/internal/domain/debt"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/retail/backoffice/internal/domain/trade"
	"github.com/retail/backoffice/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents_PublishedAfterCommit(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	handler := testutil.NewMockEventHandler(stock.EventTypeStockBelowMinimum, debt.EventTypeDebtSettled)
	s.Bus.Subscribe(handler)

	p := s.SeedProduct(t, testutil.ProductSpec{Code: "TEA", BuyPrice: 2, SellPrice: 5, MinLevel: 3, ShopQty: 10})
	c := s.SeedCustomer(t, "C-1", 0)
	require.Zero(t, handler.HandledCount())

	sale, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
		CustomerID:  &c.ID,
		PaymentType: trade.PaymentTypeCredit,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(7)}},
	}, s.Cashier.ID)
	require.NoError(t, err)

	low := testutil.EventsOfType(handler.Handled(), stock.EventTypeStockBelowMinimum)
	require.Len(t, low, 1)
	assert.Equal(t, p.ID, low[0].AggregateID())
	evt, ok := low[0].(*stock.StockBelowMinimumEvent)
	require.True(t, ok)
	testutil.RequireDecimal(t, testutil.Dec(3), evt.StockQty)

	// already below minimum, so a second sale raises nothing new
	_, err = s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
		PaymentType: trade.PaymentTypeCash,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(1)}},
	}, s.Cashier.ID)
	require.NoError(t, err)
	assert.Len(t, testutil.EventsOfType(handler.Handled(), stock.EventTypeStockBelowMinimum), 1)

	_, err = s.Orchestrator.RecordCustomerPayment(ctx, sales.DocumentPaymentCommand{
		DocumentID: sale.Invoice.ID, Amount: testutil.Dec(35), Method: shared.PaymentMethodCash,
	}, s.Cashier.ID)
	require.NoError(t, err)

	settled := testutil.EventsOfType(handler.Handled(), debt.EventTypeDebtSettled)
	require.Len(t, settled, 1)
	assert.Equal(t, sale.Debt.ID, settled[0].AggregateID())
}

func TestEvents_FailingHandlerKeepsBusinessState(t *testing.T) {
	s := testutil.NewStack(t)
	handler := testutil.NewMockEventHandler(stock.EventTypeStockBelowMinimum)
	handler.SetError(errors.New("alerting unavailable"))
	s.Bus.Subscribe(handler)

	p := s.SeedProduct(t, testutil.ProductSpec{Code: "SOAP", BuyPrice: 1, SellPrice: 2, MinLevel: 5, ShopQty: 6})
	res, err := s.Orchestrator.RecordSale(context.Background(), sales.RecordSaleCommand{
		PaymentType: trade.PaymentTypeCash,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(2)}},
	}, s.Cashier.ID)
	require.NoError(t, err)
	assert.NotNil(t, res.Invoice)

	assert.Equal(t, 1, handler.HandledCount())
	assert.Equal(t, int64(1), s.Bus.Failures())
	testutil.RequireDecimal(t, testutil.Dec(4), s.Product(t, p.ID).StockQty)
	testutil.RequireDecimal(t, testutil.Dec(4), s.Balance(t))
	s.RequireBalanced(t)
}
