package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("NewBusinessMetrics: meter cannot be nil")

// Snapshot is the periodically sampled financial position
type Snapshot struct {
	TreasuryBalance  decimal.Decimal
	Receivables      decimal.Decimal
	Payables         decimal.Decimal
	LowStockProducts int
}

// BusinessMetrics records sales, payments, stock shortages and rejected
// operations, plus gauges of the financial position.
type BusinessMetrics struct {
	logger *zap.Logger

	salesTotal     *Counter
	salesAmount    *AmountCounter
	reversalsTotal *Counter
	reversalAmount *AmountCounter
	paymentsTotal  *Counter
	paymentAmount  *AmountCounter
	shortageLines  *Counter
	rejections     *Counter

	treasuryBalance *FloatGauge
	openDebt        *FloatGauge
	lowStock        *FloatGauge
}

// NewBusinessMetrics creates every instrument on meter
func NewBusinessMetrics(meter metric.Meter, logger *zap.Logger) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{logger: logger}
	var err error

	counters := []struct {
		dst                     **Counter
		name, description, unit string
	}{
		{&bm.salesTotal, "backoffice_sales_total", "Sales recorded", "{invoices}"},
		{&bm.reversalsTotal, "backoffice_sale_reversals_total", "Sales reversed", "{invoices}"},
		{&bm.paymentsTotal, "backoffice_payments_total", "Debt payments recorded", "{payments}"},
		{&bm.shortageLines, "backoffice_stock_shortage_lines_total", "Requested lines rejected for insufficient stock", "{lines}"},
		{&bm.rejections, "backoffice_operation_rejections_total", "Operations rejected, by error kind", "{operations}"},
	}
	for _, c := range counters {
		if *c.dst, err = NewCounter(meter, c.name, c.description, c.unit); err != nil {
			return nil, err
		}
	}

	amounts := []struct {
		dst                     **AmountCounter
		name, description, unit string
	}{
		{&bm.salesAmount, "backoffice_sales_amount_total", "Invoice totals of recorded sales", "{currency}"},
		{&bm.reversalAmount, "backoffice_sale_reversals_amount_total", "Invoice totals of reversed sales", "{currency}"},
		{&bm.paymentAmount, "backoffice_payments_amount_total", "Amounts of recorded debt payments", "{currency}"},
	}
	for _, a := range amounts {
		if *a.dst, err = NewAmountCounter(meter, a.name, a.description, a.unit); err != nil {
			return nil, err
		}
	}

	if bm.treasuryBalance, err = NewFloatGauge(meter, "backoffice_treasury_balance", "Current treasury balance", "{currency}"); err != nil {
		return nil, err
	}
	if bm.openDebt, err = NewFloatGauge(meter, "backoffice_open_debt", "Open receivables and payables", "{currency}"); err != nil {
		return nil, err
	}
	if bm.lowStock, err = NewFloatGauge(meter, "backoffice_low_stock_products", "Products at or below minimum level", "{products}"); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordSale counts a committed sale and its total
func (bm *BusinessMetrics) RecordSale(ctx context.Context, paymentType string, total decimal.Decimal) {
	bm.salesTotal.Inc(ctx, AttrPaymentType.String(paymentType))
	bm.salesAmount.Add(ctx, total.InexactFloat64(), AttrPaymentType.String(paymentType))
}

// RecordSaleReversal counts a reversed sale and its total
func (bm *BusinessMetrics) RecordSaleReversal(ctx context.Context, total decimal.Decimal) {
	bm.reversalsTotal.Inc(ctx)
	bm.reversalAmount.Add(ctx, total.InexactFloat64())
}

// RecordPayment counts a debt payment by debtor side
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, debtorType string, amount decimal.Decimal) {
	bm.paymentsTotal.Inc(ctx, AttrDebtorType.String(debtorType))
	bm.paymentAmount.Add(ctx, amount.InexactFloat64(), AttrDebtorType.String(debtorType))
}

// RecordStockShortage counts lines rejected for insufficient stock
func (bm *BusinessMetrics) RecordStockShortage(ctx context.Context, lines int) {
	bm.shortageLines.Add(ctx, int64(lines))
}

// RecordRejection counts a rejected operation
func (bm *BusinessMetrics) RecordRejection(ctx context.Context, operation, kind string) {
	bm.rejections.Inc(ctx, AttrOperation.String(operation), AttrErrorKind.String(kind))
}

// RecordSnapshot records the sampled financial position
func (bm *BusinessMetrics) RecordSnapshot(ctx context.Context, s Snapshot) {
	bm.treasuryBalance.Record(ctx, s.TreasuryBalance.InexactFloat64())
	bm.openDebt.Record(ctx, s.Receivables.InexactFloat64(), AttrSide.String("receivable"))
	bm.openDebt.Record(ctx, s.Payables.InexactFloat64(), AttrSide.String("payable"))
	bm.lowStock.Record(ctx, float64(s.LowStockProducts))
	bm.logger.Debug("Business snapshot recorded",
		zap.String("treasury_balance", s.TreasuryBalance.String()),
		zap.String("receivables", s.Receivables.String()),
		zap.String("payables", s.Payables.String()),
		zap.Int("low_stock_products", s.LowStockProducts),
	)
}
