package csvimport

import (
	"errors"
	"fmt"
	"io"
	"strings"

	appstock "github.com/retail/backoffice/internal/application/stock"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product file columns. Only code and name are required.
const (
	ColCode           = "code"
	ColName           = "name"
	ColCategory       = "category"
	ColUnit           = "unit"
	ColMinLevel       = "min_level"
	ColBuyPrice       = "buy_price"
	ColSellPrice      = "sell_price"
	ColWholesalePrice = "wholesale_price"
	ColWarehouseQty   = "warehouse_qty"
	ColShopQty        = "shop_qty"
)

// MaxProductRows bounds one import file
const MaxProductRows = 5000

// ParseProducts reads a product file into import rows. Bad rows are reported
// per line and left out; encoding problems and missing columns fail the whole file.
func ParseProducts(r io.Reader, opts ...ParserOption) ([]appstock.ProductImportRow, []appstock.ImportRowError, error) {
	p, err := NewParser(r, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := p.ParseHeader(); err != nil {
		return nil, nil, err
	}
	if missing := p.MissingHeaders(ColCode, ColName); len(missing) > 0 {
		return nil, nil, shared.NewValidationError("IMPORT_MISSING_COLUMNS",
			"Missing required columns: "+strings.Join(missing, ", "))
	}

	var (
		rows   []appstock.ProductImportRow
		failed []appstock.ImportRowError
		seen   = make(map[string]int)
	)
	for {
		row, err := p.ReadRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			failed = append(failed, appstock.ImportRowError{Line: p.currentRow, Code: "IMPORT_MALFORMED_ROW", Message: err.Error()})
			continue
		}
		if row.IsEmpty() {
			continue
		}
		if len(rows)+len(failed) >= MaxProductRows {
			return nil, nil, shared.NewValidationError("IMPORT_TOO_MANY_ROWS",
				fmt.Sprintf("Import files are limited to %d products", MaxProductRows))
		}

		code := strings.ToUpper(row.Get(ColCode))
		if first, dup := seen[code]; dup && code != "" {
			failed = append(failed, appstock.ImportRowError{
				Line:    row.Line,
				Code:    "IMPORT_DUPLICATE_CODE",
				Message: fmt.Sprintf("Product code %s already appears on line %d", code, first),
			})
			continue
		}
		seen[code] = row.Line

		parsed, rowErr := toProductRow(row)
		if rowErr != nil {
			failed = append(failed, *rowErr)
			continue
		}
		rows = append(rows, parsed)
	}
	return rows, failed, nil
}

func toProductRow(row *Row) (appstock.ProductImportRow, *appstock.ImportRowError) {
	out := appstock.ProductImportRow{
		Line: row.Line,
		Product: appstock.CreateProductCommand{
			Code:     row.Get(ColCode),
			Name:     row.Get(ColName),
			Category: row.Get(ColCategory),
			Unit:     row.Get(ColUnit),
		},
	}

	fields := []struct {
		column string
		dst    *decimal.Decimal
	}{
		{ColMinLevel, &out.Product.MinLevel},
		{ColBuyPrice, &out.Product.BuyPrice},
		{ColSellPrice, &out.Product.SellPrice},
		{ColWholesalePrice, &out.Product.WholesalePrice},
		{ColWarehouseQty, &out.WarehouseQty},
		{ColShopQty, &out.ShopQty},
	}
	for _, f := range fields {
		raw := row.Get(f.column)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return out, &appstock.ImportRowError{
				Line:    row.Line,
				Code:    "IMPORT_INVALID_NUMBER",
				Message: fmt.Sprintf("Column %s: %q is not a number", f.column, raw),
			}
		}
		*f.dst = v
	}
	return out, nil
}
