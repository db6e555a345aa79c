package stock

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductImportRow is one product of a catalog import with its opening stock
type ProductImportRow struct {
	Line         int
	Product      CreateProductCommand
	WarehouseQty decimal.Decimal
	ShopQty      decimal.Decimal
}

// ImportRowError reports why one line of an import was not applied
type ImportRowError struct {
	Line    int    `json:"line"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult is the outcome of a catalog import
type ImportResult struct {
	Created []*stock.Product
	Failed  []ImportRowError
}

// ImportProducts creates each row's product and registers its opening
// balance. Rows are independent: a rejected row is reported and the import
// continues. Infrastructure failures abort the import.
func (s *StockService) ImportProducts(ctx context.Context, rows []ProductImportRow, userID uuid.UUID) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, shared.NewValidationError("EMPTY_IMPORT", "Import contains no products")
	}

	result := &ImportResult{}
	for _, row := range rows {
		p, err := s.importRow(ctx, row, userID)
		if err != nil {
			var de *shared.DomainError
			if !errors.As(err, &de) || de.Kind == shared.KindInternal {
				return nil, err
			}
			result.Failed = append(result.Failed, ImportRowError{Line: row.Line, Code: de.Code, Message: de.Message})
			continue
		}
		result.Created = append(result.Created, p)
	}

	s.logger.Info("Product import finished",
		zap.Int("rows", len(rows)),
		zap.Int("created", len(result.Created)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

func (s *StockService) importRow(ctx context.Context, row ProductImportRow, userID uuid.UUID) (*stock.Product, error) {
	if row.WarehouseQty.IsNegative() || row.ShopQty.IsNegative() {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Opening quantities cannot be negative")
	}
	p, err := s.CreateProduct(ctx, row.Product)
	if err != nil {
		return nil, err
	}
	if row.WarehouseQty.IsZero() && row.ShopQty.IsZero() {
		return p, nil
	}
	opened, err := s.RegisterInitialBalance(ctx, InitialBalanceCommand{
		ProductID:    p.ID,
		WarehouseQty: row.WarehouseQty,
		ShopQty:      row.ShopQty,
	}, userID)
	if err != nil {
		return nil, err
	}
	return opened.Product, nil
}
