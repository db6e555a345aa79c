package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/retail/backoffice/internal/infrastructure/config"
	"github.com/retail/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Job names
const (
	JobDebtAging    = "debt-aging"
	JobLowStockScan = "low-stock-scan"
	JobMetrics      = "metrics-snapshot"
)

// OverdueMarker moves debts and installments past their due date to overdue
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}

// LowStockSource lists active products at or below their minimum level
type LowStockSource interface {
	LowStockProducts(ctx context.Context) ([]*stock.Product, error)
}

// DebtAgingTask marks overdue debts as of now()
func DebtAgingTask(debts OverdueMarker, now func() time.Time, logger *zap.Logger) Task {
	return func(ctx context.Context) error {
		n, err := debts.MarkOverdue(ctx, now())
		if err != nil {
			return fmt.Errorf("mark overdue debts: %w", err)
		}
		if n > 0 {
			logger.Info("Debts marked overdue", zap.Int("count", n))
		}
		return nil
	}
}

// LowStockScanTask logs every product at or below its minimum level
func LowStockScanTask(products LowStockSource, logger *zap.Logger) Task {
	return func(ctx context.Context) error {
		low, err := products.LowStockProducts(ctx)
		if err != nil {
			return fmt.Errorf("list low stock products: %w", err)
		}
		for _, p := range low {
			logger.Warn("Stock below minimum level",
				zap.String("product_id", p.ID.String()),
				zap.String("product_code", p.Code),
				zap.String("stock_qty", p.StockQty.String()),
				zap.String("min_level", p.MinLevel.String()),
			)
		}
		logger.Info("Low stock scan finished", zap.Int("products", len(low)))
		return nil
	}
}

// SnapshotSource computes the current business gauges
type SnapshotSource func(ctx context.Context) (telemetry.Snapshot, error)

// SnapshotRecorder publishes business gauges
type SnapshotRecorder interface {
	RecordSnapshot(ctx context.Context, s telemetry.Snapshot)
}

// MetricsSnapshotTask refreshes the treasury, debt and low-stock gauges
func MetricsSnapshotTask(source SnapshotSource, recorder SnapshotRecorder) Task {
	return func(ctx context.Context) error {
		snap, err := source(ctx)
		if err != nil {
			return fmt.Errorf("compute metrics snapshot: %w", err)
		}
		recorder.RecordSnapshot(ctx, snap)
		return nil
	}
}

// RegisterDefaultJobs registers debt aging and the low-stock scan with their configured intervals
func RegisterDefaultJobs(js *JobScheduler, cfg config.SchedulerConfig, debts OverdueMarker, products LowStockSource, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := js.Register(JobDebtAging, cfg.DebtAgingInterval, DebtAgingTask(debts, time.Now, logger.With(zap.String("job", JobDebtAging)))); err != nil {
		return err
	}
	return js.Register(JobLowStockScan, cfg.LowStockScanInterval, LowStockScanTask(products, logger.With(zap.String("job", JobLowStockScan))))
}
