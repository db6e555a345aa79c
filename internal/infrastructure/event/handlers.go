package event

import (
	"context"
	"fmt"

	"github.com/retail/backoffice/internal/domain/debt"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/retail/backoffice/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LowStockAlertHandler reports products that fell to or below their minimum
// level. Delivery to people is outside this service; the structured log line
// is what the alerting pipeline consumes.
type LowStockAlertHandler struct {
	logger *zap.Logger
}

// NewLowStockAlertHandler creates the handler
func NewLowStockAlertHandler(l *zap.Logger) *LowStockAlertHandler {
	return &LowStockAlertHandler{logger: logger.OrNop(l)}
}

// EventTypes returns StockBelowMinimum
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{stock.EventTypeStockBelowMinimum}
}

// Handle logs the alert
func (h *LowStockAlertHandler) Handle(ctx context.Context, e shared.DomainEvent) error {
	ev, ok := e.(*stock.StockBelowMinimumEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T for %s", e, e.EventType())
	}
	logger.WithLogger(ctx, h.logger).Warn("Stock below minimum level",
		zap.String("product_id", ev.AggregateID().String()),
		zap.String("product_code", ev.ProductCode),
		zap.String("product_name", ev.ProductName),
		zap.String("stock_qty", ev.StockQty.String()),
		zap.String("min_level", ev.MinLevel.String()),
	)
	return nil
}

// DebtLifecycleHandler records debt settlements and write-offs in the audit log
type DebtLifecycleHandler struct {
	logger *zap.Logger
}

// NewDebtLifecycleHandler creates the handler
func NewDebtLifecycleHandler(l *zap.Logger) *DebtLifecycleHandler {
	return &DebtLifecycleHandler{logger: logger.OrNop(l)}
}

// EventTypes returns DebtSettled and DebtWrittenOff
func (h *DebtLifecycleHandler) EventTypes() []string {
	return []string{debt.EventTypeDebtSettled, debt.EventTypeDebtWrittenOff}
}

// Handle logs the lifecycle change
func (h *DebtLifecycleHandler) Handle(ctx context.Context, e shared.DomainEvent) error {
	l := logger.WithLogger(ctx, h.logger)
	switch ev := e.(type) {
	case *debt.DebtSettledEvent:
		l.Info("Debt settled",
			zap.String("debt_id", ev.AggregateID().String()),
			zap.String("debtor_id", ev.DebtorID.String()),
			zap.String("debtor_type", string(ev.DebtorType)),
			zap.String("original_amount", ev.OriginalAmount.String()))
	case *debt.DebtWrittenOffEvent:
		l.Info("Debt written off",
			zap.String("debt_id", ev.AggregateID().String()),
			zap.String("debtor_id", ev.DebtorID.String()),
			zap.String("amount", ev.Amount.String()),
			zap.String("reason", ev.Reason))
	default:
		return fmt.Errorf("unexpected event %T for %s", e, e.EventType())
	}
	return nil
}
