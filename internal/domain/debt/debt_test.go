package debt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDebt(t *testing.T, amount int64, due time.Time) *Debt {
	t.Helper()
	d, err := NewDebt(NewDebtInput{
		DebtorID:   uuid.New(),
		DebtorType: DebtorCustomer,
		Amount:     decimal.NewFromInt(amount),
		DueDate:    due,
		Reference:  shared.NewReference(shared.ReferenceInvoice, uuid.New()),
		CreatedBy:  uuid.New(),
	})
	require.NoError(t, err)
	return d
}

func TestNewDebt_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   NewDebtInput
	}{
		{"missing debtor", NewDebtInput{DebtorType: DebtorCustomer, Amount: decimal.NewFromInt(1), DueDate: time.Now()}},
		{"bad debtor type", NewDebtInput{DebtorID: uuid.New(), DebtorType: "Bank", Amount: decimal.NewFromInt(1), DueDate: time.Now()}},
		{"zero amount", NewDebtInput{DebtorID: uuid.New(), DebtorType: DebtorCustomer, Amount: decimal.Zero, DueDate: time.Now()}},
		{"no due date", NewDebtInput{DebtorID: uuid.New(), DebtorType: DebtorSupplier, Amount: decimal.NewFromInt(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDebt(tt.in)
			assert.Equal(t, shared.KindValidation, shared.KindOf(err))
		})
	}
}

func TestDebt_PaymentsSettleAtZero(t *testing.T) {
	d := newTestDebt(t, 1000, time.Now().AddDate(0, 0, 10))
	user := uuid.New()

	p1, err := d.RecordPayment(decimal.NewFromInt(400), shared.PaymentMethodCash, "", time.Now(), user)
	require.NoError(t, err)
	assert.True(t, d.RemainingAmount.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, StatusActive, d.Status)

	p2, err := d.RecordPayment(decimal.NewFromInt(600), shared.PaymentMethodBankTransfer, "", time.Now(), user)
	require.NoError(t, err)
	assert.True(t, d.RemainingAmount.IsZero())
	assert.Equal(t, StatusSettled, d.Status)
	require.NoError(t, d.CheckInvariant([]*Payment{p1, p2}))

	events := d.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeDebtSettled, events[0].EventType())

	_, err = d.RecordPayment(decimal.NewFromInt(1), shared.PaymentMethodCash, "", time.Now(), user)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
}

func TestDebt_PaymentAboveRemainingRejected(t *testing.T) {
	d := newTestDebt(t, 100, time.Now())
	_, err := d.RecordPayment(decimal.NewFromFloat(100.01), shared.PaymentMethodCash, "", time.Now(), uuid.New())
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	assert.True(t, d.RemainingAmount.Equal(decimal.NewFromInt(100)))

	_, err = d.RecordPayment(decimal.NewFromInt(10), "crypto", "", time.Now(), uuid.New())
	assert.Error(t, err)
	assert.True(t, d.RemainingAmount.Equal(decimal.NewFromInt(100)))
}

func TestDebt_ReversePaymentReopens(t *testing.T) {
	d := newTestDebt(t, 200, time.Now().AddDate(0, 0, -5))
	p, err := d.RecordPayment(decimal.NewFromInt(200), shared.PaymentMethodCash, "", time.Now(), uuid.New())
	require.NoError(t, err)
	require.Equal(t, StatusSettled, d.Status)

	require.NoError(t, d.ReversePayment(p, uuid.New(), time.Now()))
	assert.True(t, p.IsReversed)
	assert.Equal(t, StatusOverdue, d.Status)
	assert.True(t, d.RemainingAmount.Equal(decimal.NewFromInt(200)))
	require.NoError(t, d.CheckInvariant([]*Payment{p}))

	assert.Error(t, d.ReversePayment(p, uuid.New(), time.Now()))
}

func TestDebt_Reduce(t *testing.T) {
	d := newTestDebt(t, 500, time.Now())
	p, err := d.RecordPayment(decimal.NewFromInt(100), shared.PaymentMethodCash, "", time.Now(), uuid.New())
	require.NoError(t, err)

	require.NoError(t, d.Reduce(decimal.NewFromInt(150)))
	assert.True(t, d.OriginalAmount.Equal(decimal.NewFromInt(350)))
	assert.True(t, d.RemainingAmount.Equal(decimal.NewFromInt(250)))
	require.NoError(t, d.CheckInvariant([]*Payment{p}))

	assert.Error(t, d.Reduce(decimal.NewFromInt(251)))
	require.NoError(t, d.Reduce(decimal.NewFromInt(250)))
	assert.Equal(t, StatusSettled, d.Status)
}

func TestDebt_WriteOffAndCancel(t *testing.T) {
	d := newTestDebt(t, 300, time.Now())
	assert.Error(t, d.WriteOff("", uuid.New()))
	require.NoError(t, d.WriteOff("customer vanished", uuid.New()))
	assert.Equal(t, StatusWrittenOff, d.Status)
	assert.Equal(t, shared.KindConflict, shared.KindOf(d.WriteOff("again", uuid.New())))
	assert.Equal(t, shared.KindConflict, shared.KindOf(d.Cancel("reversed")))

	settled := newTestDebt(t, 10, time.Now())
	_, err := settled.RecordPayment(decimal.NewFromInt(10), shared.PaymentMethodCash, "", time.Now(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, shared.KindConflict, shared.KindOf(settled.WriteOff("x", uuid.New())))

	c := newTestDebt(t, 10, time.Now())
	require.NoError(t, c.Cancel("invoice reversed"))
	assert.Equal(t, StatusCancelled, c.Status)
	assert.True(t, c.RemainingAmount.Equal(decimal.NewFromInt(10)))
}

func TestDebt_MarkOverdue(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	dueToday := newTestDebt(t, 100, now)
	assert.False(t, dueToday.MarkOverdue(now))
	assert.Equal(t, StatusActive, dueToday.Status)

	late := newTestDebt(t, 100, now.AddDate(0, 0, -1))
	assert.True(t, late.MarkOverdue(now))
	assert.Equal(t, StatusOverdue, late.Status)
	assert.False(t, late.MarkOverdue(now))
}

func TestDebt_InstallmentPlan(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	d := newTestDebt(t, 100, start)

	require.NoError(t, d.CreateInstallmentPlan(3, IntervalWeekly, start))
	require.Len(t, d.Installments, 3)
	assert.True(t, d.Installments[0].Amount.Equal(decimal.RequireFromString("33.33")))
	assert.True(t, d.Installments[1].Amount.Equal(decimal.RequireFromString("33.33")))
	assert.True(t, d.Installments[2].Amount.Equal(decimal.RequireFromString("33.34")))
	assert.Equal(t, start.AddDate(0, 0, 14), d.Installments[2].DueDate)

	_, err := d.RecordPayment(decimal.NewFromInt(40), shared.PaymentMethodCash, "", time.Now(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, InstallmentPaid, d.Installments[0].Status)
	assert.True(t, d.Installments[1].PaidAmount.Equal(decimal.RequireFromString("6.67")))
	assert.Equal(t, InstallmentPending, d.Installments[1].Status)

	require.NoError(t, d.CreateInstallmentPlan(2, IntervalMonthly, start))
	open := d.OpenInstallments()
	require.Len(t, open, 2)
	assert.True(t, open[0].Amount.Add(open[1].Amount).Equal(d.RemainingAmount))
	assert.Equal(t, 4, open[0].Sequence)

	assert.Error(t, d.CreateInstallmentPlan(0, IntervalMonthly, start))
	assert.Error(t, d.CreateInstallmentPlan(2, "daily", start))
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		days int
		tier AgingTier
	}{
		{-3, TierCurrent}, {0, TierCurrent}, {1, Tier1}, {30, Tier1},
		{31, Tier2}, {60, Tier2}, {61, Tier3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.tier, TierFor(tt.days), "days=%d", tt.days)
	}
}

func TestBuildOverview(t *testing.T) {
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	alice, bob, acme := uuid.New(), uuid.New(), uuid.New()
	items := []OpenItem{
		{DebtorID: alice, DebtorName: "Alice", DebtorType: DebtorCustomer, Balance: decimal.NewFromInt(500), DueDate: now.AddDate(0, 0, -90)},
		{DebtorID: bob, DebtorName: "Bob", DebtorType: DebtorCustomer, Balance: decimal.NewFromInt(300), DueDate: now.AddDate(0, 0, 5)},
		{DebtorID: alice, DebtorName: "Alice", DebtorType: DebtorCustomer, Balance: decimal.NewFromInt(200), DueDate: now.AddDate(0, 0, -10)},
		{DebtorID: acme, DebtorName: "Acme", DebtorType: DebtorSupplier, Balance: decimal.NewFromInt(400), DueDate: now.AddDate(0, 0, -40)},
		{DebtorID: bob, DebtorType: DebtorCustomer, Balance: decimal.Zero, DueDate: now},
	}

	o := BuildOverview(now, items, map[uuid.UUID]decimal.Decimal{alice: decimal.NewFromInt(1000)})
	assert.True(t, o.Receivables.Total.Equal(decimal.NewFromInt(1000)))
	assert.True(t, o.Payables.Total.Equal(decimal.NewFromInt(400)))
	assert.True(t, o.TotalNet.Equal(decimal.NewFromInt(600)))
	require.NotNil(t, o.LiquidityPulse)
	assert.True(t, o.LiquidityPulse.Equal(decimal.NewFromFloat(2.5)))
	assert.Equal(t, 1, o.Receivables.Tiers[Tier3].Count)
	assert.Equal(t, 1, o.Payables.Tiers[Tier2].Count)
	assert.Equal(t, RiskCritical, o.RiskScore)

	require.Len(t, o.Receivables.ByDebtor, 2)
	assert.Equal(t, alice, o.Receivables.ByDebtor[0].DebtorID)
	assert.Equal(t, 90, o.Receivables.ByDebtor[0].OldestDays)
	assert.True(t, o.Receivables.ByDebtor[0].CreditLimit.Equal(decimal.NewFromInt(1000)))
}

func TestBuildOverview_NoPayables(t *testing.T) {
	o := BuildOverview(time.Now(), []OpenItem{
		{DebtorID: uuid.New(), DebtorType: DebtorCustomer, Balance: decimal.NewFromInt(10), DueDate: time.Now()},
	}, nil)
	assert.Nil(t, o.LiquidityPulse)
	assert.Equal(t, RiskHealthy, o.RiskScore)

	empty := BuildOverview(time.Now(), nil, nil)
	assert.Equal(t, RiskHealthy, empty.RiskScore)
	assert.True(t, empty.Receivables.Total.IsZero())
}
