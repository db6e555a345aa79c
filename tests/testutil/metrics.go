package testutil

import (
	"context"
	"sync"

	"github.com/retail/backoffice/internal/application/core"
	"github.com/shopspring/decimal"
)

// MetricsRecorder captures business metrics for assertions
type MetricsRecorder struct {
	mu         sync.Mutex
	Sales      map[string]int
	SalesTotal decimal.Decimal
	Reversals  int
	Payments   map[string]decimal.Decimal
	Shortages  int
	Rejections map[string]int
}

var _ core.Metrics = (*MetricsRecorder)(nil)

// NewMetricsRecorder creates an empty recorder
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{
		Sales:      make(map[string]int),
		Payments:   make(map[string]decimal.Decimal),
		Rejections: make(map[string]int),
	}
}

func (m *MetricsRecorder) RecordSale(_ context.Context, paymentType string, total decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sales[paymentType]++
	m.SalesTotal = m.SalesTotal.Add(total)
}

func (m *MetricsRecorder) RecordSaleReversal(_ context.Context, _ decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reversals++
}

func (m *MetricsRecorder) RecordPayment(_ context.Context, debtorType string, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Payments[debtorType] = m.Payments[debtorType].Add(amount)
}

func (m *MetricsRecorder) RecordStockShortage(_ context.Context, lines int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Shortages += lines
}

func (m *MetricsRecorder) RecordRejection(_ context.Context, operation, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rejections[operation+":"+kind]++
}

// ShortageLines returns the number of short lines recorded so far
func (m *MetricsRecorder) ShortageLines() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Shortages
}
