package sales_test

import (
	"context"
	"errors"
	"testing"
	"time"

	apppartner "github.com/retail/backoffice/internal/application/partner"
	"github.com/retail/backoffice/internal/application/sales"
	"github.com/retail/backoffice/internal/domain/debt"
	"github.com/retail/backoffice/internal/domain/ledger"
	"github.com/retail/backoffice/internal/domain/partner"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/retail/backoffice/internal/domain/trade"
	"github.com/retail/backoffice/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecordSale_Cash(t *testing.T) {
	metrics := testutil.NewMetricsRecorder()
	s := testutil.NewStack(t, testutil.WithStackMetrics(metrics))
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "RICE", BuyPrice: 6, SellPrice: 10, WarehouseQty: 10, ShopQty: 2})
	s.FundTreasury(t, 100)

	res, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
		PaymentType: trade.PaymentTypeCash,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(5)}},
	}, s.Cashier.ID)
	require.NoError(t, err)

	inv := res.Invoice
	assert.Equal(t, "INV-000001", inv.Number)
	testutil.RequireDecimal(t, testutil.Dec(50), inv.Total)
	testutil.RequireDecimal(t, testutil.Dec(20), inv.Profit)
	assert.Equal(t, trade.PaymentStatusPaid, inv.PaymentStatus)
	assert.Nil(t, res.Debt)

	// shop first, then the warehouse
	require.Len(t, res.Movements, 2)
	got := s.Product(t, p.ID)
	testutil.RequireDecimal(t, testutil.Dec(0), got.ShopQty)
	testutil.RequireDecimal(t, testutil.Dec(7), got.WarehouseQty)

	require.Len(t, res.Entries, 2)
	assert.Equal(t, ledger.AccountCash, res.Entries[0].DebitAccount)
	assert.Equal(t, ledger.AccountSalesRevenue, res.Entries[0].CreditAccount)
	assert.Equal(t, ledger.AccountCOGS, res.Entries[1].DebitAccount)
	testutil.RequireDecimal(t, testutil.Dec(30), res.Entries[1].Amount)

	require.NotNil(t, res.Transaction)
	testutil.RequireDecimal(t, testutil.Dec(150), s.Balance(t))
	assert.Equal(t, 1, metrics.Sales["cash"])
	s.RequireBalanced(t)
}

func TestRecordSale_BankSkipsTreasury(t *testing.T) {
	s := testutil.NewStack(t)
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "OIL", BuyPrice: 3, SellPrice: 5, ShopQty: 10})

	res, err := s.Orchestrator.RecordSale(context.Background(), sales.RecordSaleCommand{
		PaymentType: trade.PaymentTypeBank,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(2), Location: stock.LocationShop}},
	}, s.Cashier.ID)
	require.NoError(t, err)
	assert.Nil(t, res.Transaction)
	assert.Equal(t, ledger.AccountBank, res.Entries[0].DebitAccount)
	testutil.RequireDecimal(t, testutil.Dec(0), s.Balance(t))
	s.RequireBalanced(t)
}

func TestRecordSale_CreditOpensDebt(t *testing.T) {
	s := testutil.NewStack(t, testutil.WithSalesConfig(sales.Config{CustomerPaymentTermsDays: 7}))
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "FLOUR", BuyPrice: 20, SellPrice: 40, WarehouseQty: 10})
	c := s.SeedCustomer(t, "C-1", 500)

	price := testutil.Dec(45)
	res, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
		CustomerID:  &c.ID,
		PaymentType: trade.PaymentTypeCredit,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(4), UnitPrice: &price}},
		Discount:    testutil.Dec(20),
	}, s.Cashier.ID)
	require.NoError(t, err)

	inv := res.Invoice
	testutil.RequireDecimal(t, testutil.Dec(160), inv.Total)
	assert.Equal(t, trade.PaymentStatusPending, inv.PaymentStatus)
	assert.Equal(t, c.Name, inv.CustomerName)
	require.NotNil(t, inv.DueDate)
	assert.Equal(t, shared.StartOfDay(time.Now()).AddDate(0, 0, 7), *inv.DueDate)
	assert.Equal(t, ledger.AccountReceivables, res.Entries[0].DebitAccount)

	require.NotNil(t, res.Debt)
	assert.Equal(t, debt.DebtorCustomer, res.Debt.DebtorType)
	testutil.RequireDecimal(t, testutil.Dec(160), res.Debt.RemainingAmount)

	got := s.Customer(t, c.ID)
	testutil.RequireDecimal(t, testutil.Dec(160), got.Balance)
	testutil.RequireDecimal(t, testutil.Dec(160), got.TotalPurchases)
	testutil.RequireDecimal(t, testutil.Dec(0), s.Balance(t))
	s.RequireBalanced(t)
}

func TestRecordSale_SplitAcrossLocationsFlagsLowStock(t *testing.T) {
	s := testutil.NewStack(t)
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "P", BuyPrice: 1, SellPrice: 2, MinLevel: 5, WarehouseQty: 10, ShopQty: 5})
	require.False(t, s.Product(t, p.ID).IsLowStock())

	_, err := s.Orchestrator.RecordSale(context.Background(), sales.RecordSaleCommand{
		PaymentType: trade.PaymentTypeCash,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(11)}},
	}, s.Cashier.ID)
	require.NoError(t, err)

	got := s.Product(t, p.ID)
	testutil.RequireDecimal(t, testutil.Dec(4), got.StockQty)
	testutil.RequireDecimal(t, testutil.Dec(0), got.ShopQty)
	testutil.RequireDecimal(t, testutil.Dec(4), got.WarehouseQty)
	assert.True(t, got.IsLowStock())
}

func TestRecordSale_LocationLinesWithdrawFirst(t *testing.T) {
	s := testutil.NewStack(t)
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "TEA", BuyPrice: 1, SellPrice: 2, WarehouseQty: 2, ShopQty: 5})

	_, err := s.Orchestrator.RecordSale(context.Background(), sales.RecordSaleCommand{
		PaymentType: trade.PaymentTypeCash,
		Items: []sales.SaleLine{
			{ProductID: p.ID, Quantity: testutil.Dec(3)},
			{ProductID: p.ID, Quantity: testutil.Dec(3), Location: stock.LocationShop},
		},
	}, s.Cashier.ID)
	require.NoError(t, err)

	got := s.Product(t, p.ID)
	testutil.RequireDecimal(t, testutil.Dec(0), got.ShopQty)
	testutil.RequireDecimal(t, testutil.Dec(1), got.WarehouseQty)
	s.RequireBalanced(t)
}

func TestRecordSale_CreditLimitBoundary(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "RICE", BuyPrice: 20, SellPrice: 50, WarehouseQty: 30})
	c := s.SeedCustomer(t, "C-1", 1000)

	credit := func(qty int64) error {
		_, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
			CustomerID:  &c.ID,
			PaymentType: trade.PaymentTypeCredit,
			Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(qty)}},
		}, s.Cashier.ID)
		return err
	}
	require.NoError(t, credit(16))
	testutil.RequireDecimal(t, testutil.Dec(800), s.Customer(t, c.ID).Balance)

	err := credit(6)
	assert.Equal(t, shared.KindCreditLimitExceeded, shared.KindOf(err))
	testutil.RequireDecimal(t, testutil.Dec(800), s.Customer(t, c.ID).Balance)
	testutil.RequireDecimal(t, testutil.Dec(14), s.Product(t, p.ID).StockQty)

	require.NoError(t, credit(3))
	testutil.RequireDecimal(t, testutil.Dec(950), s.Customer(t, c.ID).Balance)
	s.RequireBalanced(t)
}

func TestRecordSale_WholesaleCustomerPrice(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	bulk := s.SeedProduct(t, testutil.ProductSpec{Code: "FLOUR", BuyPrice: 6, SellPrice: 10, WholesalePrice: 8, WarehouseQty: 20})
	plain := s.SeedProduct(t, testutil.ProductSpec{Code: "SALT", BuyPrice: 1, SellPrice: 3, WarehouseQty: 20})
	trader, err := s.Customers.Create(ctx, apppartner.CreateCustomerCommand{Code: "T-1", Name: "Corner shop", PriceType: "wholesale"})
	require.NoError(t, err)
	walkIn := s.SeedCustomer(t, "C-1", 0)

	agreed := testutil.Dec(7)
	tests := []struct {
		name     string
		customer *partner.Customer
		line     sales.SaleLine
		total    int64
	}{
		{"wholesale price", trader, sales.SaleLine{ProductID: bulk.ID, Quantity: testutil.Dec(5)}, 40},
		{"no wholesale price falls back to the sell price", trader, sales.SaleLine{ProductID: plain.ID, Quantity: testutil.Dec(5)}, 15},
		{"explicit price wins", trader, sales.SaleLine{ProductID: bulk.ID, Quantity: testutil.Dec(5), UnitPrice: &agreed}, 35},
		{"retail customer pays the sell price", walkIn, sales.SaleLine{ProductID: bulk.ID, Quantity: testutil.Dec(5)}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
				CustomerID:  &tt.customer.ID,
				PaymentType: trade.PaymentTypeCash,
				Items:       []sales.SaleLine{tt.line},
			}, s.Cashier.ID)
			require.NoError(t, err)
			testutil.RequireDecimal(t, testutil.Dec(tt.total), res.Invoice.Total)
		})
	}
	s.RequireBalanced(t)
}

func TestRecordSale_Rejections(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	metrics := testutil.NewMetricsRecorder()
	s := testutil.NewStack(t, testutil.WithStackLogger(zap.New(core)), testutil.WithStackMetrics(metrics))
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "SUGAR", BuyPrice: 10, SellPrice: 20, ShopQty: 5, WarehouseQty: 5})
	c := s.SeedCustomer(t, "C-1", 100)

	t.Run("credit needs a customer", func(t *testing.T) {
		_, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
			PaymentType: trade.PaymentTypeCredit,
			Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(1)}},
		}, s.Cashier.ID)
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	})

	t.Run("credit limit", func(t *testing.T) {
		_, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
			CustomerID:  &c.ID,
			PaymentType: trade.PaymentTypeCredit,
			Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(6)}},
		}, s.Cashier.ID)
		require.Error(t, err)
		assert.Equal(t, shared.KindCreditLimitExceeded, shared.KindOf(err))
		assert.Equal(t, 1, logs.FilterMessage("Credit sale rejected").Len())
		assert.Equal(t, 1, metrics.Rejections["sales.record_sale:CREDIT_LIMIT_EXCEEDED"])
	})

	t.Run("insufficient stock at the requested location", func(t *testing.T) {
		_, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
			PaymentType: trade.PaymentTypeCash,
			Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(6), Location: stock.LocationShop}},
		}, s.Cashier.ID)
		var shortage *shared.InsufficientStockError
		require.True(t, errors.As(err, &shortage))
		require.Len(t, shortage.Shortages, 1)
		assert.Equal(t, string(stock.LocationShop), shortage.Shortages[0].Location)
		testutil.RequireDecimal(t, testutil.Dec(1), shortage.Shortages[0].Shortfall)
	})

	t.Run("location line leaves too little for a line without one", func(t *testing.T) {
		_, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
			PaymentType: trade.PaymentTypeCash,
			Items: []sales.SaleLine{
				{ProductID: p.ID, Quantity: testutil.Dec(5), Location: stock.LocationShop},
				{ProductID: p.ID, Quantity: testutil.Dec(6)},
			},
		}, s.Cashier.ID)
		var shortage *shared.InsufficientStockError
		require.True(t, errors.As(err, &shortage))
		require.Len(t, shortage.Shortages, 1)
		assert.Empty(t, shortage.Shortages[0].Location)
		testutil.RequireDecimal(t, testutil.Dec(5), shortage.Shortages[0].Available)
		testutil.RequireDecimal(t, testutil.Dec(1), shortage.Shortages[0].Shortfall)
	})

	t.Run("archived customer", func(t *testing.T) {
		other := s.SeedCustomer(t, "C-OLD", 0)
		_, err := s.Customers.Archive(ctx, other.ID)
		require.NoError(t, err)
		_, err = s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
			CustomerID:  &other.ID,
			PaymentType: trade.PaymentTypeCash,
			Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(1)}},
		}, s.Cashier.ID)
		assert.Equal(t, shared.KindConflict, shared.KindOf(err))
	})

	// nothing moved
	got := s.Product(t, p.ID)
	testutil.RequireDecimal(t, testutil.Dec(10), got.StockQty)
	testutil.RequireDecimal(t, testutil.Dec(0), s.Customer(t, c.ID).Balance)
	invoices, total, err := s.Orchestrator.ListInvoices(ctx, trade.InvoiceFilter{})
	require.NoError(t, err)
	assert.Empty(t, invoices)
	assert.Zero(t, total)
	s.RequireBalanced(t)
}

func TestRecordSale_DuplicateIdempotencyKey(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "TEA", BuyPrice: 1, SellPrice: 3, ShopQty: 10})
	cmd := sales.RecordSaleCommand{
		PaymentType:    trade.PaymentTypeCash,
		Items:          []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(1)}},
		IdempotencyKey: "till-1-0001",
	}

	_, err := s.Orchestrator.RecordSale(ctx, cmd, s.Cashier.ID)
	require.NoError(t, err)
	_, err = s.Orchestrator.RecordSale(ctx, cmd, s.Cashier.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrDuplicateRequest))

	testutil.RequireDecimal(t, testutil.Dec(9), s.Product(t, p.ID).ShopQty)
}

func TestReverseSale_Cash(t *testing.T) {
	metrics := testutil.NewMetricsRecorder()
	s := testutil.NewStack(t, testutil.WithStackMetrics(metrics))
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "SOAP", BuyPrice: 2, SellPrice: 5, WarehouseQty: 10, ShopQty: 1})
	s.FundTreasury(t, 20)

	sale, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
		PaymentType: trade.PaymentTypeCash,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(3)}},
	}, s.Cashier.ID)
	require.NoError(t, err)
	testutil.RequireDecimal(t, testutil.Dec(35), s.Balance(t))

	_, err = s.Orchestrator.ReverseSale(ctx, sale.Invoice.ID, s.Cashier.ID, "wrong till")
	assert.Equal(t, shared.KindAuthorization, shared.KindOf(err))

	res, err := s.Orchestrator.ReverseSale(ctx, sale.Invoice.ID, s.Manager.ID, "wrong till")
	require.NoError(t, err)
	assert.True(t, res.Invoice.IsReversed)
	require.Len(t, res.Refunds, 1)
	testutil.RequireDecimal(t, testutil.Dec(15), res.Refunds[0].Amount)
	assert.Len(t, res.Entries, 2)

	// stock returns to where it left
	got := s.Product(t, p.ID)
	testutil.RequireDecimal(t, testutil.Dec(1), got.ShopQty)
	testutil.RequireDecimal(t, testutil.Dec(10), got.WarehouseQty)
	testutil.RequireDecimal(t, testutil.Dec(20), s.Balance(t))
	assert.Equal(t, 1, metrics.Reversals)
	s.RequireBalanced(t)

	t.Run("only once", func(t *testing.T) {
		_, err := s.Orchestrator.ReverseSale(ctx, sale.Invoice.ID, s.Manager.ID, "")
		assert.Equal(t, shared.KindConflict, shared.KindOf(err))
	})
}

func TestReverseSale_CreditRefundsCollectedPayments(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "BEANS", BuyPrice: 5, SellPrice: 10, WarehouseQty: 20})
	c := s.SeedCustomer(t, "C-1", 0)

	sale, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
		CustomerID:  &c.ID,
		PaymentType: trade.PaymentTypeCredit,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(10)}},
	}, s.Cashier.ID)
	require.NoError(t, err)

	_, err = s.Orchestrator.RecordCustomerPayment(ctx, sales.DocumentPaymentCommand{
		DocumentID: sale.Invoice.ID,
		Amount:     testutil.Dec(40),
		Method:     shared.PaymentMethodCash,
	}, s.Cashier.ID)
	require.NoError(t, err)
	testutil.RequireDecimal(t, testutil.Dec(40), s.Balance(t))
	testutil.RequireDecimal(t, testutil.Dec(60), s.Customer(t, c.ID).Balance)

	res, err := s.Orchestrator.ReverseSale(ctx, sale.Invoice.ID, s.Admin.ID, "customer dispute")
	require.NoError(t, err)
	require.NotNil(t, res.Debt)
	assert.Equal(t, debt.StatusCancelled, res.Debt.Status)
	require.Len(t, res.Refunds, 1)
	testutil.RequireDecimal(t, testutil.Dec(40), res.Refunds[0].Amount)

	testutil.RequireDecimal(t, testutil.Dec(0), s.Balance(t))
	got := s.Customer(t, c.ID)
	testutil.RequireDecimal(t, testutil.Dec(0), got.Balance)
	testutil.RequireDecimal(t, testutil.Dec(0), got.TotalPurchases)
	testutil.RequireDecimal(t, testutil.Dec(20), s.Product(t, p.ID).WarehouseQty)
	s.RequireBalanced(t)
}

func TestProcessSaleReturn_Cash(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "JAM", BuyPrice: 4, SellPrice: 10, WarehouseQty: 10})

	sale, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
		PaymentType: trade.PaymentTypeCash,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(4), Location: stock.LocationWarehouse}},
	}, s.Cashier.ID)
	require.NoError(t, err)

	res, err := s.Orchestrator.ProcessSaleReturn(ctx, sales.SaleReturnCommand{
		InvoiceID:    sale.Invoice.ID,
		Items:        []sales.ReturnItem{{ProductID: p.ID, Quantity: testutil.Dec(1), Reason: "dented lid"}},
		RefundMethod: trade.RefundCash,
	}, s.Cashier.ID)
	require.NoError(t, err)

	testutil.RequireDecimal(t, testutil.Dec(10), res.Return.TotalRefund)
	testutil.RequireDecimal(t, testutil.Dec(10), res.Return.TreasuryDeducted)
	require.NotNil(t, res.Transaction)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, ledger.AccountSalesReturns, res.Entries[0].DebitAccount)
	assert.Equal(t, ledger.AccountCash, res.Entries[0].CreditAccount)
	assert.Equal(t, ledger.AccountInventory, res.Entries[1].DebitAccount)
	testutil.RequireDecimal(t, testutil.Dec(4), res.Entries[1].Amount)

	testutil.RequireDecimal(t, testutil.Dec(30), s.Balance(t))
	testutil.RequireDecimal(t, testutil.Dec(7), s.Product(t, p.ID).WarehouseQty)

	detail, err := s.Orchestrator.GetInvoice(ctx, sale.Invoice.ID)
	require.NoError(t, err)
	require.Len(t, detail.Returns, 1)
	testutil.RequireDecimal(t, testutil.Dec(1), detail.Invoice.Items[0].ReturnedQty)
	s.RequireBalanced(t)

	t.Run("cannot return more than sold", func(t *testing.T) {
		_, err := s.Orchestrator.ProcessSaleReturn(ctx, sales.SaleReturnCommand{
			InvoiceID:    sale.Invoice.ID,
			Items:        []sales.ReturnItem{{ProductID: p.ID, Quantity: testutil.Dec(4)}},
			RefundMethod: trade.RefundCash,
		}, s.Cashier.ID)
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	})

	t.Run("an invoice with returns cannot be reversed", func(t *testing.T) {
		_, err := s.Orchestrator.ReverseSale(ctx, sale.Invoice.ID, s.Manager.ID, "")
		assert.Equal(t, shared.KindConflict, shared.KindOf(err))
	})
}

func TestProcessSaleReturn_CustomerBalance(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "NUTS", BuyPrice: 30, SellPrice: 50, ShopQty: 5})
	c := s.SeedCustomer(t, "C-1", 0)

	sale, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
		CustomerID:  &c.ID,
		PaymentType: trade.PaymentTypeCredit,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(2)}},
	}, s.Cashier.ID)
	require.NoError(t, err)
	_, err = s.Orchestrator.RecordCustomerPayment(ctx, sales.DocumentPaymentCommand{
		DocumentID: sale.Invoice.ID, Amount: testutil.Dec(80), Method: shared.PaymentMethodCash,
	}, s.Cashier.ID)
	require.NoError(t, err)

	// 20 still owed; returning one unit clears it and leaves 30 of store credit
	res, err := s.Orchestrator.ProcessSaleReturn(ctx, sales.SaleReturnCommand{
		InvoiceID:    sale.Invoice.ID,
		Items:        []sales.ReturnItem{{ProductID: p.ID, Quantity: testutil.Dec(1)}},
		RefundMethod: trade.RefundCustomerBalance,
	}, s.Cashier.ID)
	require.NoError(t, err)
	assert.Nil(t, res.Transaction)
	testutil.RequireDecimal(t, testutil.Dec(20), res.Return.AppliedToDebt)
	testutil.RequireDecimal(t, testutil.Dec(30), res.Return.CreditBalanceAdded)
	assert.Equal(t, ledger.AccountReceivables, res.Entries[0].CreditAccount)
	testutil.RequireDecimal(t, testutil.Dec(0), res.Invoice.Outstanding())

	got := s.Customer(t, c.ID)
	testutil.RequireDecimal(t, testutil.Dec(0), got.Balance)
	testutil.RequireDecimal(t, testutil.Dec(30), got.CreditBalance)

	d, err := s.Runner.Repositories().Debts().FindByReference(ctx, shared.NewReference(shared.ReferenceInvoice, sale.Invoice.ID))
	require.NoError(t, err)
	assert.True(t, d.RemainingAmount.IsZero())
	testutil.RequireDecimal(t, testutil.Dec(80), s.Balance(t))
	testutil.RequireDecimal(t, testutil.Dec(4), s.Product(t, p.ID).ShopQty)
	s.RequireBalanced(t)
}

func TestPurchaseOrder_Lifecycle(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "CANS", BuyPrice: 3, SellPrice: 5})
	sup := s.SeedSupplier(t, "S-1")

	po, err := s.Orchestrator.CreatePurchaseOrder(ctx, sales.CreatePurchaseOrderCommand{
		SupplierID: sup.ID,
		Items:      []sales.PurchaseLine{{ProductID: p.ID, Quantity: testutil.Dec(10)}},
	}, s.Storekeeper.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.PurchaseOrderStatusPending, po.Status)
	testutil.RequireDecimal(t, testutil.Dec(30), po.TotalCost)
	// pending orders move nothing
	testutil.RequireDecimal(t, testutil.Dec(0), s.Product(t, p.ID).StockQty)

	t.Run("cash receipt needs funds", func(t *testing.T) {
		_, err := s.Orchestrator.RecordPurchaseReceive(ctx, sales.ReceiveCommand{
			PurchaseOrderID: po.ID, PaymentType: trade.PaymentTypeCash,
		}, s.Storekeeper.ID)
		require.Error(t, err)
		assert.Equal(t, shared.KindInsufficientFunds, shared.KindOf(err))

		got, err := s.Orchestrator.GetPurchaseOrder(ctx, po.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.PurchaseOrderStatusPending, got.Status)
		testutil.RequireDecimal(t, testutil.Dec(0), s.Product(t, p.ID).StockQty)
	})

	s.FundTreasury(t, 50)
	res, err := s.Orchestrator.RecordPurchaseReceive(ctx, sales.ReceiveCommand{
		PurchaseOrderID: po.ID, PaymentType: trade.PaymentTypeCash,
	}, s.Storekeeper.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.PurchaseOrderStatusReceived, res.PurchaseOrder.Status)
	assert.Equal(t, ledger.AccountInventory, res.Entry.DebitAccount)
	assert.Equal(t, ledger.AccountCash, res.Entry.CreditAccount)
	testutil.RequireDecimal(t, testutil.Dec(10), s.Product(t, p.ID).WarehouseQty)
	testutil.RequireDecimal(t, testutil.Dec(20), s.Balance(t))
	s.RequireBalanced(t)

	t.Run("received orders cannot be cancelled", func(t *testing.T) {
		_, err := s.Orchestrator.CancelPurchaseOrder(ctx, po.ID)
		assert.Equal(t, shared.KindConflict, shared.KindOf(err))
	})
}

func TestPurchaseOrder_CreditAndSupplierPayment(t *testing.T) {
	metrics := testutil.NewMetricsRecorder()
	s := testutil.NewStack(t, testutil.WithStackMetrics(metrics))
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "TUNA", BuyPrice: 8, SellPrice: 12})
	sup := s.SeedSupplier(t, "S-1")
	s.FundTreasury(t, 100)

	cost := testutil.Dec(9)
	po, err := s.Orchestrator.CreatePurchaseOrder(ctx, sales.CreatePurchaseOrderCommand{
		SupplierID: sup.ID,
		Items:      []sales.PurchaseLine{{ProductID: p.ID, Quantity: testutil.Dec(10), CostPrice: &cost, Location: stock.LocationShop}},
	}, s.Storekeeper.ID)
	require.NoError(t, err)

	res, err := s.Orchestrator.RecordPurchaseReceive(ctx, sales.ReceiveCommand{
		PurchaseOrderID: po.ID, PaymentType: trade.PaymentTypeCredit,
	}, s.Storekeeper.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Debt)
	assert.False(t, res.Debt.IsReceivable())
	assert.Equal(t, ledger.AccountPayables, res.Entry.CreditAccount)
	testutil.RequireDecimal(t, testutil.Dec(10), s.Product(t, p.ID).ShopQty)

	got, err := s.Suppliers.GetByID(ctx, sup.ID)
	require.NoError(t, err)
	testutil.RequireDecimal(t, testutil.Dec(90), got.Balance)

	pay, err := s.Orchestrator.SettleDebt(ctx, sales.SettleDebtCommand{
		Type:   sales.SettlePayable,
		ID:     po.ID,
		Amount: testutil.Dec(90),
		Method: shared.PaymentMethodCash,
	}, s.Manager.ID)
	require.NoError(t, err)
	assert.Equal(t, debt.StatusSettled, pay.Debt.Status)
	assert.Equal(t, ledger.AccountPayables, pay.Entry.DebitAccount)
	testutil.RequireDecimal(t, testutil.Dec(90), metrics.Payments["Supplier"])

	after, err := s.Orchestrator.GetPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.PaymentStatusPaid, after.PaymentStatus)
	testutil.RequireDecimal(t, testutil.Dec(10), s.Balance(t))
	got, err = s.Suppliers.GetByID(ctx, sup.ID)
	require.NoError(t, err)
	testutil.RequireDecimal(t, testutil.Dec(0), got.Balance)
	s.RequireBalanced(t)
}

func TestCancelPurchaseOrder(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "PASTA", BuyPrice: 2, SellPrice: 3})
	sup := s.SeedSupplier(t, "S-1")

	po, err := s.Orchestrator.CreatePurchaseOrder(ctx, sales.CreatePurchaseOrderCommand{
		SupplierID: sup.ID,
		Items:      []sales.PurchaseLine{{ProductID: p.ID, Quantity: testutil.Dec(3)}},
	}, s.Storekeeper.ID)
	require.NoError(t, err)

	cancelled, err := s.Orchestrator.CancelPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.PurchaseOrderStatusCancelled, cancelled.Status)

	_, err = s.Orchestrator.RecordPurchaseReceive(ctx, sales.ReceiveCommand{
		PurchaseOrderID: po.ID, PaymentType: trade.PaymentTypeBank,
	}, s.Storekeeper.ID)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
}

func TestRecordCustomerPayment(t *testing.T) {
	metrics := testutil.NewMetricsRecorder()
	s := testutil.NewStack(t, testutil.WithStackMetrics(metrics))
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "CHEESE", BuyPrice: 10, SellPrice: 25, ShopQty: 4, WarehouseQty: 2})
	c := s.SeedCustomer(t, "C-1", 0)

	sale, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
		CustomerID:  &c.ID,
		PaymentType: trade.PaymentTypeCredit,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(4)}},
	}, s.Cashier.ID)
	require.NoError(t, err)

	t.Run("amount above outstanding", func(t *testing.T) {
		_, err := s.Orchestrator.RecordCustomerPayment(ctx, sales.DocumentPaymentCommand{
			DocumentID: sale.Invoice.ID, Amount: testutil.Dec(101), Method: shared.PaymentMethodCash,
		}, s.Cashier.ID)
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	})

	t.Run("internal transfer is not a payment method", func(t *testing.T) {
		_, err := s.Orchestrator.RecordCustomerPayment(ctx, sales.DocumentPaymentCommand{
			DocumentID: sale.Invoice.ID, Amount: testutil.Dec(10), Method: shared.PaymentMethodInternalTransfer,
		}, s.Cashier.ID)
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	})

	res, err := s.Orchestrator.RecordCustomerPayment(ctx, sales.DocumentPaymentCommand{
		DocumentID: sale.Invoice.ID, Amount: testutil.Dec(30), Method: shared.PaymentMethodBankTransfer,
	}, s.Cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.AccountBank, res.Entry.DebitAccount)
	testutil.RequireDecimal(t, testutil.Dec(70), res.Debt.RemainingAmount)

	detail, err := s.Orchestrator.GetInvoice(ctx, sale.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.PaymentStatusPartial, detail.Invoice.PaymentStatus)
	testutil.RequireDecimal(t, testutil.Dec(70), detail.Invoice.Outstanding())
	testutil.RequireDecimal(t, testutil.Dec(70), s.Customer(t, c.ID).Balance)
	testutil.RequireDecimal(t, testutil.Dec(0), s.Balance(t))

	// settling by debt ID reaches the same invoice
	res, err = s.Orchestrator.SettleDebt(ctx, sales.SettleDebtCommand{
		Type: sales.SettleReceivable, ID: res.Debt.ID, Amount: testutil.Dec(70), Method: shared.PaymentMethodCash,
	}, s.Cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, debt.StatusSettled, res.Debt.Status)

	detail, err = s.Orchestrator.GetInvoice(ctx, sale.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.PaymentStatusPaid, detail.Invoice.PaymentStatus)
	testutil.RequireDecimal(t, testutil.Dec(70), s.Balance(t))
	testutil.RequireDecimal(t, testutil.Dec(100), metrics.Payments["Customer"])
	s.RequireBalanced(t)

	t.Run("cash invoices take no later payments", func(t *testing.T) {
		cash, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
			PaymentType: trade.PaymentTypeCash,
			Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(1), Location: stock.LocationWarehouse}},
		}, s.Cashier.ID)
		require.NoError(t, err)
		_, err = s.Orchestrator.RecordCustomerPayment(ctx, sales.DocumentPaymentCommand{
			DocumentID: cash.Invoice.ID, Amount: testutil.Dec(1), Method: shared.PaymentMethodCash,
		}, s.Cashier.ID)
		assert.Error(t, err)
	})
}

func TestSettleDebt_TypeMismatch(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "EGGS", BuyPrice: 1, SellPrice: 2, ShopQty: 10})
	c := s.SeedCustomer(t, "C-1", 0)

	sale, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
		CustomerID:  &c.ID,
		PaymentType: trade.PaymentTypeCredit,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(5)}},
	}, s.Cashier.ID)
	require.NoError(t, err)

	_, err = s.Orchestrator.SettleDebt(ctx, sales.SettleDebtCommand{
		Type: sales.SettlePayable, ID: sale.Debt.ID, Amount: testutil.Dec(1), Method: shared.PaymentMethodCash,
	}, s.Cashier.ID)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestSyncDebts_RebuildsMissingDebt(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "RICE", BuyPrice: 5, SellPrice: 10, WarehouseQty: 10})
	c := s.SeedCustomer(t, "C-1", 0)

	sale, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
		CustomerID:  &c.ID,
		PaymentType: trade.PaymentTypeCredit,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(10)}},
	}, s.Cashier.ID)
	require.NoError(t, err)
	_, err = s.Orchestrator.RecordCustomerPayment(ctx, sales.DocumentPaymentCommand{
		DocumentID: sale.Invoice.ID, Amount: testutil.Dec(30), Method: shared.PaymentMethodCash,
	}, s.Cashier.ID)
	require.NoError(t, err)

	report, err := s.Debts.SyncDebts(ctx, c.ID, debt.DebtorCustomer, s.Manager.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DocumentsChecked)
	assert.False(t, report.Changed())

	require.NoError(t, s.DB.Exec("DELETE FROM debts WHERE reference_id = ?", sale.Invoice.ID).Error)

	report, err = s.Debts.SyncDebts(ctx, c.ID, debt.DebtorCustomer, s.Manager.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DebtsCreated)
	assert.Equal(t, 1, report.SyncPayments)

	d, err := s.Runner.Repositories().Debts().FindByReference(ctx, shared.NewReference(shared.ReferenceInvoice, sale.Invoice.ID))
	require.NoError(t, err)
	testutil.RequireDecimal(t, testutil.Dec(100), d.OriginalAmount)
	testutil.RequireDecimal(t, testutil.Dec(70), d.RemainingAmount)
	// bookkeeping only
	testutil.RequireDecimal(t, testutil.Dec(30), s.Balance(t))
	s.RequireBalanced(t)
}

func TestReverseSale_WrittenOffDebt(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "SUGAR", BuyPrice: 5, SellPrice: 10, WarehouseQty: 50})
	c := s.SeedCustomer(t, "C-1", 0)

	credit := func(qty int64) *sales.SaleResult {
		res, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
			CustomerID:  &c.ID,
			PaymentType: trade.PaymentTypeCredit,
			Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(qty)}},
		}, s.Cashier.ID)
		require.NoError(t, err)
		return res
	}
	first, second := credit(10), credit(20)
	testutil.RequireDecimal(t, testutil.Dec(300), s.Customer(t, c.ID).Balance)

	_, err := s.Debts.WriteOff(ctx, first.Debt.ID, "customer moved away", s.Manager.ID)
	require.NoError(t, err)
	testutil.RequireDecimal(t, testutil.Dec(200), s.Customer(t, c.ID).Balance)

	_, err = s.Orchestrator.ReverseSale(ctx, first.Invoice.ID, s.Admin.ID, "wrong customer")
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
	testutil.RequireDecimal(t, testutil.Dec(200), s.Customer(t, c.ID).Balance)
	testutil.RequireDecimal(t, testutil.Dec(30), s.Product(t, p.ID).WarehouseQty)

	t.Run("the other sale still reverses", func(t *testing.T) {
		_, err := s.Orchestrator.ReverseSale(ctx, second.Invoice.ID, s.Admin.ID, "wrong customer")
		require.NoError(t, err)
		testutil.RequireDecimal(t, testutil.Dec(0), s.Customer(t, c.ID).Balance)
		s.RequireBalanced(t)
	})
}

func TestProcessSaleReturn_WrittenOffDebtBecomesStoreCredit(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "NUTS", BuyPrice: 30, SellPrice: 50, ShopQty: 5})
	c := s.SeedCustomer(t, "C-1", 0)

	sale, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
		CustomerID:  &c.ID,
		PaymentType: trade.PaymentTypeCredit,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(2)}},
	}, s.Cashier.ID)
	require.NoError(t, err)
	_, err = s.Debts.WriteOff(ctx, sale.Debt.ID, "uncollectable", s.Manager.ID)
	require.NoError(t, err)

	res, err := s.Orchestrator.ProcessSaleReturn(ctx, sales.SaleReturnCommand{
		InvoiceID:    sale.Invoice.ID,
		Items:        []sales.ReturnItem{{ProductID: p.ID, Quantity: testutil.Dec(1)}},
		RefundMethod: trade.RefundCustomerBalance,
	}, s.Cashier.ID)
	require.NoError(t, err)
	testutil.RequireDecimal(t, testutil.Dec(0), res.Return.AppliedToDebt)
	testutil.RequireDecimal(t, testutil.Dec(50), res.Return.CreditBalanceAdded)

	got := s.Customer(t, c.ID)
	testutil.RequireDecimal(t, testutil.Dec(0), got.Balance)
	testutil.RequireDecimal(t, testutil.Dec(50), got.CreditBalance)
	s.RequireBalanced(t)
}

func TestRecordCustomerPayment_RebuildsMissingDebtWithPaidAmount(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	p := s.SeedProduct(t, testutil.ProductSpec{Code: "RICE", BuyPrice: 5, SellPrice: 10, WarehouseQty: 10})
	c := s.SeedCustomer(t, "C-1", 0)

	sale, err := s.Orchestrator.RecordSale(ctx, sales.RecordSaleCommand{
		CustomerID:  &c.ID,
		PaymentType: trade.PaymentTypeCredit,
		Items:       []sales.SaleLine{{ProductID: p.ID, Quantity: testutil.Dec(10)}},
	}, s.Cashier.ID)
	require.NoError(t, err)
	pay := func(amount int64) {
		_, err := s.Orchestrator.RecordCustomerPayment(ctx, sales.DocumentPaymentCommand{
			DocumentID: sale.Invoice.ID, Amount: testutil.Dec(amount), Method: shared.PaymentMethodCash,
		}, s.Cashier.ID)
		require.NoError(t, err)
	}
	pay(40)
	require.NoError(t, s.DB.Exec("DELETE FROM debts WHERE reference_id = ?", sale.Invoice.ID).Error)

	pay(10)
	d, err := s.Runner.Repositories().Debts().FindByReference(ctx, shared.NewReference(shared.ReferenceInvoice, sale.Invoice.ID))
	require.NoError(t, err)
	testutil.RequireDecimal(t, testutil.Dec(100), d.OriginalAmount)
	testutil.RequireDecimal(t, testutil.Dec(50), d.RemainingAmount)

	inv, err := s.Orchestrator.GetInvoice(ctx, sale.Invoice.ID)
	require.NoError(t, err)
	testutil.RequireDecimal(t, testutil.Dec(50), inv.Invoice.Outstanding())

	report, err := s.Debts.SyncDebts(ctx, c.ID, debt.DebtorCustomer, s.Manager.ID)
	require.NoError(t, err)
	assert.False(t, report.Changed())
	testutil.RequireDecimal(t, testutil.Dec(50), s.Balance(t))
	s.RequireBalanced(t)
}
