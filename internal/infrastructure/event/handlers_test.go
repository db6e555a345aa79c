package event

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/debt"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLowStockAlertHandler(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewLowStockAlertHandler(zap.New(core))

	p, err := stock.NewProduct(stock.NewProductInput{
		Code:      "RICE-5KG",
		Name:      "Rice 5kg",
		Unit:      "bag",
		MinLevel:  decimal.NewFromInt(10),
		BuyPrice:  decimal.NewFromInt(40),
		SellPrice: decimal.NewFromInt(55),
	})
	require.NoError(t, err)

	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(h)
	require.NoError(t, bus.Publish(context.Background(), stock.NewStockBelowMinimumEvent(p)))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "RICE-5KG", entry.ContextMap()["product_code"])
	assert.Equal(t, "10", entry.ContextMap()["min_level"])
	assert.Zero(t, bus.Failures())
}

func TestLowStockAlertHandler_RejectsForeignEvent(t *testing.T) {
	h := NewLowStockAlertHandler(nil)
	err := h.Handle(context.Background(), newTestEvent(stock.EventTypeStockBelowMinimum))
	assert.Error(t, err)
}

func TestDebtLifecycleHandler(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewDebtLifecycleHandler(zap.New(core))

	d, err := debt.NewDebt(debt.NewDebtInput{
		DebtorID:   uuid.New(),
		DebtorType: debt.DebtorCustomer,
		Amount:     decimal.NewFromInt(300),
		DueDate:    time.Now().AddDate(0, 0, 30),
		CreatedBy:  uuid.New(),
	})
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), debt.NewDebtSettledEvent(d)))
	require.NoError(t, h.Handle(context.Background(), debt.NewDebtWrittenOffEvent(d)))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "Debt settled", logs.All()[0].Message)
	assert.Equal(t, "300", logs.All()[0].ContextMap()["original_amount"])
	assert.Equal(t, "Debt written off", logs.All()[1].Message)
}
