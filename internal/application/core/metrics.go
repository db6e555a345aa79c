package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// Metrics records business counters. The telemetry package provides the
// OpenTelemetry implementation; NopMetrics is used when telemetry is off.
type Metrics interface {
	RecordSale(ctx context.Context, paymentType string, total decimal.Decimal)
	RecordSaleReversal(ctx context.Context, total decimal.Decimal)
	RecordPayment(ctx context.Context, debtorType string, amount decimal.Decimal)
	RecordStockShortage(ctx context.Context, lines int)
	RecordRejection(ctx context.Context, operation, kind string)
}

// NopMetrics discards every measurement
type NopMetrics struct{}

func (NopMetrics) RecordSale(context.Context, string, decimal.Decimal)    {}
func (NopMetrics) RecordSaleReversal(context.Context, decimal.Decimal)    {}
func (NopMetrics) RecordPayment(context.Context, string, decimal.Decimal) {}
func (NopMetrics) RecordStockShortage(context.Context, int)               {}
func (NopMetrics) RecordRejection(context.Context, string, string)        {}

var _ Metrics = NopMetrics{}
