package trade

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func creditInvoice(t *testing.T, lines ...InvoiceLineInput) *Invoice {
	t.Helper()
	cust := uuid.New()
	inv, err := NewInvoice(NewInvoiceInput{
		CustomerID:  &cust,
		PaymentType: PaymentTypeCredit,
		Lines:       lines,
		CreatedBy:   uuid.New(),
	}, 1)
	require.NoError(t, err)
	return inv
}

func line(pid uuid.UUID, qty, price, cost string) InvoiceLineInput {
	return InvoiceLineInput{ProductID: pid, ProductName: "Item", Quantity: dec(qty), UnitPrice: dec(price), CostPrice: dec(cost)}
}

func TestNewInvoice_Totals(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	inv, err := NewInvoice(NewInvoiceInput{
		PaymentType: PaymentTypeCash,
		Lines:       []InvoiceLineInput{line(a, "2", "10", "6"), line(b, "1", "30", "20")},
		Discount:    dec("5"),
		Tax:         dec("3"),
	}, 42)
	require.NoError(t, err)
	assert.Equal(t, "INV-000042", inv.Number)
	assert.True(t, inv.Subtotal.Equal(dec("50")))
	assert.True(t, inv.Total.Equal(dec("48")))
	assert.True(t, inv.TotalCost.Equal(dec("32")))
	assert.True(t, inv.Profit.Equal(dec("13")))
	assert.Equal(t, PaymentStatusPaid, inv.PaymentStatus)
	assert.True(t, inv.PaidAmount.Equal(inv.Total))
	assert.True(t, inv.Outstanding().IsZero())
	require.Len(t, inv.Payments, 1)
	assert.Equal(t, shared.PaymentMethodCash, inv.Payments[0].Method)
}

func TestNewInvoice_Validation(t *testing.T) {
	p := uuid.New()
	tests := []struct {
		name string
		in   NewInvoiceInput
	}{
		{"credit without customer", NewInvoiceInput{PaymentType: PaymentTypeCredit, Lines: []InvoiceLineInput{line(p, "1", "1", "0")}}},
		{"no lines", NewInvoiceInput{PaymentType: PaymentTypeCash}},
		{"bad payment type", NewInvoiceInput{PaymentType: "barter", Lines: []InvoiceLineInput{line(p, "1", "1", "0")}}},
		{"zero qty", NewInvoiceInput{PaymentType: PaymentTypeCash, Lines: []InvoiceLineInput{line(p, "0", "1", "0")}}},
		{"discount above subtotal", NewInvoiceInput{PaymentType: PaymentTypeCash, Lines: []InvoiceLineInput{line(p, "1", "1", "0")}, Discount: dec("2")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInvoice(tt.in, 1)
			assert.Equal(t, shared.KindValidation, shared.KindOf(err))
		})
	}
}

func TestInvoice_PaymentStatusProgression(t *testing.T) {
	inv := creditInvoice(t, line(uuid.New(), "1", "100", "50"))
	assert.Equal(t, PaymentStatusPending, inv.PaymentStatus)

	_, err := inv.RecordPayment(dec("100.01"), shared.PaymentMethodCash, "", time.Now(), uuid.New())
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	assert.True(t, inv.PaidAmount.IsZero())
	assert.Empty(t, inv.Payments)

	_, err = inv.RecordPayment(dec("40"), shared.PaymentMethodCash, "", time.Now(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPartial, inv.PaymentStatus)

	_, err = inv.RecordPayment(dec("60"), shared.PaymentMethodBankTransfer, "", time.Now(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, inv.PaymentStatus)
	assert.Len(t, inv.CollectedAfterSale(), 2)
}

func TestInvoice_Reverse(t *testing.T) {
	inv := creditInvoice(t, line(uuid.New(), "1", "100", "50"))
	_, err := inv.RecordPayment(dec("30"), shared.PaymentMethodCash, "", time.Now(), uuid.New())
	require.NoError(t, err)

	require.NoError(t, inv.Reverse(uuid.New(), "wrong customer"))
	assert.True(t, inv.IsReversed)
	assert.True(t, inv.Payments[0].IsReversed)
	assert.True(t, inv.PaidAmount.IsZero())

	assert.Equal(t, shared.KindConflict, shared.KindOf(inv.Reverse(uuid.New(), "")))
	_, err = inv.RecordPayment(dec("1"), shared.PaymentMethodCash, "", time.Now(), uuid.New())
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
}

func TestInvoice_RegisterReturn(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	inv, err := NewInvoice(NewInvoiceInput{
		PaymentType: PaymentTypeCash,
		Lines:       []InvoiceLineInput{line(a, "3", "10", "4"), line(b, "1", "20", "15")},
		Discount:    dec("5"),
	}, 1)
	require.NoError(t, err)
	require.True(t, inv.Total.Equal(dec("45")))

	items, err := inv.RegisterReturn([]ReturnLine{{ProductID: a, Quantity: dec("1"), Reason: "damaged"}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].RefundAmount.Equal(dec("9")))
	assert.True(t, items[0].CostAmount.Equal(dec("4")))
	assert.True(t, inv.Items[0].ReturnedQty.Equal(dec("1")))

	_, err = inv.RegisterReturn([]ReturnLine{{ProductID: a, Quantity: dec("3")}})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	assert.True(t, inv.Items[0].ReturnedQty.Equal(dec("1")))

	items, err = inv.RegisterReturn([]ReturnLine{{ProductID: a, Quantity: dec("2")}, {ProductID: b, Quantity: dec("1")}})
	require.NoError(t, err)
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.RefundAmount)
	}
	assert.True(t, inv.ReturnedAmount.Equal(inv.Total), "full return refunds the whole total")
	assert.True(t, total.Equal(dec("36")))

	assert.Equal(t, shared.KindConflict, shared.KindOf(inv.Reverse(uuid.New(), "")))
}

func TestInvoice_ApplyCredit(t *testing.T) {
	inv := creditInvoice(t, line(uuid.New(), "1", "100", "50"))
	_, err := inv.RecordPayment(dec("70"), shared.PaymentMethodCash, "", time.Now(), uuid.New())
	require.NoError(t, err)

	applied := inv.ApplyCredit(dec("50"))
	assert.True(t, applied.Equal(dec("30")))
	assert.True(t, inv.Outstanding().IsZero())
	assert.Equal(t, PaymentStatusPaid, inv.PaymentStatus)
}

func TestPurchaseOrder_Lifecycle(t *testing.T) {
	p := uuid.New()
	po, err := NewPurchaseOrder(uuid.New(), "Acme", []PurchaseOrderLineInput{
		{ProductID: p, Quantity: dec("10"), CostPrice: dec("2.5")},
	}, nil, "", uuid.New(), 3)
	require.NoError(t, err)
	assert.Equal(t, "PO-000003", po.Number)
	assert.True(t, po.TotalCost.Equal(dec("25")))
	assert.True(t, po.Outstanding().IsZero())

	assert.Error(t, po.CanAcceptPayment(dec("1")))
	require.NoError(t, po.Receive(PaymentTypeCredit, nil, time.Now(), uuid.New()))
	assert.Equal(t, PurchaseOrderStatusReceived, po.Status)
	assert.True(t, po.Outstanding().Equal(dec("25")))
	assert.Equal(t, shared.KindConflict, shared.KindOf(po.Cancel()))

	_, err = po.RecordPayment(dec("25"), shared.PaymentMethodCash, "", time.Now(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, po.PaymentStatus)

	cash, err := NewPurchaseOrder(uuid.New(), "Acme", []PurchaseOrderLineInput{{ProductID: p, Quantity: dec("1"), CostPrice: dec("1")}}, nil, "", uuid.New(), 4)
	require.NoError(t, err)
	require.NoError(t, cash.Receive(PaymentTypeCash, nil, time.Now(), uuid.New()))
	assert.Equal(t, PaymentStatusPaid, cash.PaymentStatus)

	pending, _ := NewPurchaseOrder(uuid.New(), "Acme", []PurchaseOrderLineInput{{ProductID: p, Quantity: dec("1"), CostPrice: dec("1")}}, nil, "", uuid.New(), 5)
	require.NoError(t, pending.Cancel())
	assert.Error(t, pending.Receive(PaymentTypeCash, nil, time.Now(), uuid.New()))
}

func TestDocumentPayments_ValueScan(t *testing.T) {
	payments := DocumentPayments{{ID: uuid.New(), Amount: dec("12.5"), Method: shared.PaymentMethodCash}}
	v, err := payments.Value()
	require.NoError(t, err)

	var back DocumentPayments
	require.NoError(t, back.Scan(v))
	require.Len(t, back, 1)
	assert.True(t, back.Total().Equal(dec("12.5")))

	require.NoError(t, back.Scan(nil))
	assert.Empty(t, back)
	assert.Error(t, back.Scan(42))
}
