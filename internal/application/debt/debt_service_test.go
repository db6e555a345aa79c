package debt_test

import (
	"context"
	"testing"
	"time"

	appdebt "github.com/retail/backoffice/internal/application/debt"
	"github.com/retail/backoffice/internal/domain/debt"
	"github.com/retail/backoffice/internal/domain/ledger"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createCustomerDebt(t *testing.T, s *testutil.Stack, amount int64, due time.Time) *debt.Debt {
	t.Helper()
	c := s.SeedCustomer(t, "C-"+decimal.NewFromInt(amount).String()+"-"+due.Format("0102"), 0)
	d, err := s.Debts.CreateDebt(context.Background(), appdebt.CreateDebtCommand{
		DebtorID:    c.ID,
		DebtorType:  debt.DebtorCustomer,
		Amount:      testutil.Dec(amount),
		DueDate:     due,
		Description: "Carried over from the paper ledger",
	}, s.Manager.ID)
	require.NoError(t, err)
	return d
}

func TestCreateDebt_Customer(t *testing.T) {
	s := testutil.NewStack(t)
	d := createCustomerDebt(t, s, 250, time.Now().AddDate(0, 1, 0))

	assert.Equal(t, debt.StatusActive, d.Status)
	assert.True(t, d.IsManual())
	testutil.RequireDecimal(t, testutil.Dec(250), d.RemainingAmount)
	testutil.RequireDecimal(t, testutil.Dec(250), s.Customer(t, d.DebtorID).Balance)

	entries, err := s.Ledger.EntriesByReference(context.Background(), appdebt.LedgerReference(d))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.AccountReceivables, entries[0].DebitAccount)
	assert.Equal(t, ledger.AccountOwnerEquity, entries[0].CreditAccount)
	s.RequireBalanced(t)
}

func TestCreateDebt_Supplier(t *testing.T) {
	s := testutil.NewStack(t)
	sup := s.SeedSupplier(t, "S-1")

	d, err := s.Debts.CreateDebt(context.Background(), appdebt.CreateDebtCommand{
		DebtorID:   sup.ID,
		DebtorType: debt.DebtorSupplier,
		Amount:     testutil.Dec(80),
		DueDate:    time.Now().AddDate(0, 0, 10),
	}, s.Manager.ID)
	require.NoError(t, err)
	assert.False(t, d.IsReceivable())

	got, err := s.Suppliers.GetByID(context.Background(), sup.ID)
	require.NoError(t, err)
	testutil.RequireDecimal(t, testutil.Dec(80), got.Balance)
	s.RequireBalanced(t)
}

func TestRecordPayment_CashSettlesDebt(t *testing.T) {
	metrics := testutil.NewMetricsRecorder()
	s := testutil.NewStack(t, testutil.WithStackMetrics(metrics))
	ctx := context.Background()
	d := createCustomerDebt(t, s, 100, time.Now().AddDate(0, 1, 0))

	res, err := s.Debts.RecordPayment(ctx, appdebt.PaymentCommand{
		DebtID: d.ID, Amount: testutil.Dec(60), Method: shared.PaymentMethodCash,
	}, s.Cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, debt.StatusActive, res.Debt.Status)
	assert.Equal(t, ledger.AccountCash, res.Entry.DebitAccount)
	assert.Equal(t, ledger.AccountReceivables, res.Entry.CreditAccount)
	testutil.RequireDecimal(t, testutil.Dec(60), s.Balance(t))

	t.Run("overpayment rejected", func(t *testing.T) {
		_, err := s.Debts.RecordPayment(ctx, appdebt.PaymentCommand{
			DebtID: d.ID, Amount: testutil.Dec(41), Method: shared.PaymentMethodCash,
		}, s.Cashier.ID)
		require.Error(t, err)
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
		testutil.RequireDecimal(t, testutil.Dec(60), s.Balance(t))
	})

	res, err = s.Debts.RecordPayment(ctx, appdebt.PaymentCommand{
		DebtID: d.ID, Amount: testutil.Dec(40), Method: shared.PaymentMethodCash,
	}, s.Cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, debt.StatusSettled, res.Debt.Status)
	testutil.RequireDecimal(t, decimal.Zero, res.Debt.RemainingAmount)
	testutil.RequireDecimal(t, decimal.Zero, s.Customer(t, d.DebtorID).Balance)
	testutil.RequireDecimal(t, testutil.Dec(100), s.Balance(t))
	testutil.RequireDecimal(t, testutil.Dec(100), metrics.Payments[string(debt.DebtorCustomer)])

	detail, err := s.Debts.GetDebt(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Payments, 2)
	require.NoError(t, detail.Debt.CheckInvariant(detail.Payments))

	_, err = s.Debts.RecordPayment(ctx, appdebt.PaymentCommand{
		DebtID: d.ID, Amount: testutil.Dec(1), Method: shared.PaymentMethodCash,
	}, s.Cashier.ID)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
	s.RequireBalanced(t)
}

func TestRecordPayment_TwoPaymentsSettle(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	d := createCustomerDebt(t, s, 1000, time.Now().AddDate(0, 1, 0))

	tests := []struct {
		amount    int64
		remaining int64
		status    debt.Status
	}{
		{400, 600, debt.StatusActive},
		{600, 0, debt.StatusSettled},
	}
	for _, tt := range tests {
		res, err := s.Debts.RecordPayment(ctx, appdebt.PaymentCommand{
			DebtID: d.ID, Amount: testutil.Dec(tt.amount), Method: shared.PaymentMethodCash,
		}, s.Cashier.ID)
		require.NoError(t, err)
		testutil.RequireDecimal(t, testutil.Dec(tt.remaining), res.Debt.RemainingAmount)
		assert.Equal(t, tt.status, res.Debt.Status)
	}
	testutil.RequireDecimal(t, testutil.Dec(1000), s.Balance(t))
	s.RequireBalanced(t)
}

func TestRecordPayment_BankTransferSkipsTreasury(t *testing.T) {
	s := testutil.NewStack(t)
	d := createCustomerDebt(t, s, 100, time.Now().AddDate(0, 1, 0))

	res, err := s.Debts.RecordPayment(context.Background(), appdebt.PaymentCommand{
		DebtID: d.ID, Amount: testutil.Dec(100), Method: shared.PaymentMethodBankTransfer,
	}, s.Cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.AccountBank, res.Entry.DebitAccount)
	testutil.RequireDecimal(t, decimal.Zero, s.Balance(t))
	s.RequireBalanced(t)
}

func TestRecordPayment_InternalTransferRejected(t *testing.T) {
	s := testutil.NewStack(t)
	d := createCustomerDebt(t, s, 100, time.Now().AddDate(0, 1, 0))

	_, err := s.Debts.RecordPayment(context.Background(), appdebt.PaymentCommand{
		DebtID: d.ID, Amount: testutil.Dec(10), Method: shared.PaymentMethodInternalTransfer,
	}, s.Cashier.ID)
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestRecordPayment_SupplierNeedsCash(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	sup := s.SeedSupplier(t, "S-CASH")
	d, err := s.Debts.CreateDebt(ctx, appdebt.CreateDebtCommand{
		DebtorID: sup.ID, DebtorType: debt.DebtorSupplier, Amount: testutil.Dec(90), DueDate: time.Now(),
	}, s.Manager.ID)
	require.NoError(t, err)
	s.FundTreasury(t, 50)

	_, err = s.Debts.RecordPayment(ctx, appdebt.PaymentCommand{
		DebtID: d.ID, Amount: testutil.Dec(90), Method: shared.PaymentMethodCash,
	}, s.Manager.ID)
	require.Error(t, err)
	assert.Equal(t, shared.KindInsufficientFunds, shared.KindOf(err))

	detail, err := s.Debts.GetDebt(ctx, d.ID)
	require.NoError(t, err)
	testutil.RequireDecimal(t, testutil.Dec(90), detail.Debt.RemainingAmount)
	assert.Empty(t, detail.Payments)
	testutil.RequireDecimal(t, testutil.Dec(50), s.Balance(t))

	res, err := s.Debts.RecordPayment(ctx, appdebt.PaymentCommand{
		DebtID: d.ID, Amount: testutil.Dec(50), Method: shared.PaymentMethodCash,
	}, s.Manager.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.AccountPayables, res.Entry.DebitAccount)
	assert.Equal(t, ledger.AccountCash, res.Entry.CreditAccount)
	testutil.RequireDecimal(t, decimal.Zero, s.Balance(t))
	s.RequireBalanced(t)
}

func TestCreateInstallmentPlan(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	d := createCustomerDebt(t, s, 100, time.Now().AddDate(0, 3, 0))
	start := time.Now().AddDate(0, 0, 7)

	planned, err := s.Debts.CreateInstallmentPlan(ctx, appdebt.InstallmentPlanCommand{
		DebtID: d.ID, Count: 3, Interval: debt.IntervalMonthly, StartDate: start,
	})
	require.NoError(t, err)
	require.Len(t, planned.Installments, 3)
	testutil.RequireDecimal(t, decimal.RequireFromString("33.33"), planned.Installments[0].Amount)
	testutil.RequireDecimal(t, decimal.RequireFromString("33.34"), planned.Installments[2].Amount)

	res, err := s.Debts.RecordPayment(ctx, appdebt.PaymentCommand{
		DebtID: d.ID, Amount: testutil.Dec(40), Method: shared.PaymentMethodCash,
	}, s.Cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, debt.InstallmentPaid, res.Debt.Installments[0].Status)
	testutil.RequireDecimal(t, decimal.RequireFromString("6.67"), res.Debt.Installments[1].PaidAmount)

	_, err = s.Debts.CreateInstallmentPlan(ctx, appdebt.InstallmentPlanCommand{
		DebtID: d.ID, Count: 2, Interval: "daily", StartDate: start,
	})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestWriteOff(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	d := createCustomerDebt(t, s, 70, time.Now().AddDate(0, 0, -30))

	_, err := s.Debts.WriteOff(ctx, d.ID, "Customer left town", s.Cashier.ID)
	assert.Equal(t, shared.KindAuthorization, shared.KindOf(err))

	_, err = s.Debts.WriteOff(ctx, d.ID, "", s.Manager.ID)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	out, err := s.Debts.WriteOff(ctx, d.ID, "Customer left town", s.Manager.ID)
	require.NoError(t, err)
	assert.Equal(t, debt.StatusWrittenOff, out.Status)
	testutil.RequireDecimal(t, decimal.Zero, s.Customer(t, d.DebtorID).Balance)

	entries, err := s.Ledger.EntriesByReference(ctx, appdebt.LedgerReference(d))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.AccountBadDebtExpense, entries[1].DebitAccount)

	_, err = s.Debts.RecordPayment(ctx, appdebt.PaymentCommand{
		DebtID: d.ID, Amount: testutil.Dec(10), Method: shared.PaymentMethodCash,
	}, s.Cashier.ID)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
	s.RequireBalanced(t)
}

func TestMarkOverdue(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	late := createCustomerDebt(t, s, 30, time.Now().AddDate(0, 0, -3))
	onTime := createCustomerDebt(t, s, 40, time.Now().AddDate(0, 0, 3))

	changed, err := s.Debts.MarkOverdue(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	got, err := s.Debts.GetDebt(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, debt.StatusOverdue, got.Debt.Status)
	got, err = s.Debts.GetDebt(ctx, onTime.ID)
	require.NoError(t, err)
	assert.Equal(t, debt.StatusActive, got.Debt.Status)

	// a second run changes nothing
	changed, err = s.Debts.MarkOverdue(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, changed)

	overdue, total, err := s.Debts.ListDebts(ctx, debt.Filter{Status: debt.StatusOverdue})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, late.ID, overdue[0].ID)
}

func TestGetDebtOverview(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	createCustomerDebt(t, s, 30, time.Now().AddDate(0, 0, -45))
	createCustomerDebt(t, s, 20, time.Now().AddDate(0, 0, 5))
	sup := s.SeedSupplier(t, "S-OV")
	_, err := s.Debts.CreateDebt(ctx, appdebt.CreateDebtCommand{
		DebtorID: sup.ID, DebtorType: debt.DebtorSupplier, Amount: testutil.Dec(25), DueDate: time.Now(),
	}, s.Manager.ID)
	require.NoError(t, err)

	ov, err := s.Debts.GetDebtOverview(ctx, time.Now())
	require.NoError(t, err)
	testutil.RequireDecimal(t, testutil.Dec(50), ov.Receivables.Total)
	testutil.RequireDecimal(t, testutil.Dec(25), ov.Payables.Total)
	testutil.RequireDecimal(t, testutil.Dec(25), ov.TotalNet)
	require.NotNil(t, ov.LiquidityPulse)
	testutil.RequireDecimal(t, testutil.Dec(2), *ov.LiquidityPulse)
	assert.Len(t, ov.Receivables.ByDebtor, 2)
}
