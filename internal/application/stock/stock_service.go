package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	appledger "github.com/retail/backoffice/internal/application/ledger"
	"github.com/retail/backoffice/internal/domain/ledger"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/shared/valueobject"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockService keeps per-location product quantities and the movement log
type StockService struct {
	runner  *core.Runner
	ledger  *appledger.LedgerService
	metrics core.Metrics
	logger  *zap.Logger
}

// NewStockService creates a new StockService
func NewStockService(runner *core.Runner, ledgerService *appledger.LedgerService, metrics core.Metrics, logger *zap.Logger) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = core.NopMetrics{}
	}
	return &StockService{runner: runner, ledger: ledgerService, metrics: metrics, logger: logger}
}

// CreateProductCommand creates a product with empty stock
type CreateProductCommand struct {
	Code           string          `json:"code" validate:"required,max=50"`
	Name           string          `json:"name" validate:"required,max=200"`
	Category       string          `json:"category" validate:"max=100"`
	Unit           string          `json:"unit" validate:"max=20"`
	MinLevel       decimal.Decimal `json:"min_level" validate:"gte=0"`
	BuyPrice       decimal.Decimal `json:"buy_price" validate:"gte=0"`
	SellPrice      decimal.Decimal `json:"sell_price" validate:"gte=0"`
	WholesalePrice decimal.Decimal `json:"wholesale_price" validate:"gte=0"`
}

// CreateProduct registers a new product
func (s *StockService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*stock.Product, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	p, err := stock.NewProduct(stock.NewProductInput{
		Code:           cmd.Code,
		Name:           cmd.Name,
		Category:       cmd.Category,
		Unit:           cmd.Unit,
		MinLevel:       cmd.MinLevel,
		BuyPrice:       cmd.BuyPrice,
		SellPrice:      cmd.SellPrice,
		WholesalePrice: cmd.WholesalePrice,
	})
	if err != nil {
		return nil, err
	}
	err = s.runner.Run(ctx, core.Unit{Name: "stock.create_product"}, func(tx *core.Tx) error {
		exists, err := tx.Products().ExistsByCode(ctx, p.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewConflictError("PRODUCT_CODE_EXISTS", fmt.Sprintf("Product code %s already exists", p.Code))
		}
		return tx.Products().Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ArchiveProduct takes a product out of trading. Its history stays resolvable.
func (s *StockService) ArchiveProduct(ctx context.Context, id uuid.UUID) (*stock.Product, error) {
	var product *stock.Product
	err := s.runner.Run(ctx, core.Unit{Name: "stock.archive_product", LockKeys: []string{core.KeyProduct(id)}}, func(tx *core.Tx) error {
		p, err := tx.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := p.Archive(); err != nil {
			return err
		}
		product = p
		return tx.Products().Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct returns one product
func (s *StockService) GetProduct(ctx context.Context, id uuid.UUID) (*stock.Product, error) {
	return s.runner.Repositories().Products().FindByID(ctx, id)
}

// ListProducts lists products
func (s *StockService) ListProducts(ctx context.Context, filter stock.ProductFilter) ([]*stock.Product, int64, error) {
	filter.Page, filter.PageSize = core.Page(filter.Page, filter.PageSize)
	return s.runner.Repositories().Products().FindAll(ctx, filter)
}

// LowStockProducts returns active products at or below their minimum level
func (s *StockService) LowStockProducts(ctx context.Context) ([]*stock.Product, error) {
	return s.runner.Repositories().Products().FindLowStock(ctx)
}

// ListMovements lists the movement log
func (s *StockService) ListMovements(ctx context.Context, filter stock.MovementFilter) ([]*stock.Movement, int64, error) {
	filter.Page, filter.PageSize = core.Page(filter.Page, filter.PageSize)
	return s.runner.Repositories().Movements().FindAll(ctx, filter)
}

// ValidateStockAvailability checks requested quantities without changing anything.
// Duplicate lines of the same product and location are summed first.
func (s *StockService) ValidateStockAvailability(ctx context.Context, reqs []stock.Requirement) ([]stock.Availability, error) {
	products, err := s.runner.Repositories().Products().FindByIDs(ctx, requirementProductIDs(reqs))
	if err != nil {
		return nil, err
	}
	return stock.CheckAvailability(products, reqs)
}

// LoadAndCheckTx loads the products of reqs inside a unit of work and returns
// an InsufficientStockError listing every short line
func (s *StockService) LoadAndCheckTx(ctx context.Context, tx *core.Tx, reqs []stock.Requirement) (map[uuid.UUID]*stock.Product, error) {
	products, err := tx.Products().FindByIDs(ctx, requirementProductIDs(reqs))
	if err != nil {
		return nil, err
	}
	results, err := stock.CheckAvailability(products, reqs)
	if err != nil {
		return nil, err
	}
	if err := stock.ShortageError(results); err != nil {
		lines := 0
		for _, r := range results {
			if !r.Sufficient() {
				lines++
			}
		}
		s.metrics.RecordStockShortage(ctx, lines)
		return nil, err
	}
	return products, nil
}

func requirementProductIDs(reqs []stock.Requirement) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(reqs))
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		if !seen[r.ProductID] {
			seen[r.ProductID] = true
			ids = append(ids, r.ProductID)
		}
	}
	return ids
}

// MoveStockCommand is one requested stock change.
// For ADJUST, Quantity is the absolute quantity the location must hold.
type MoveStockCommand struct {
	ProductID uuid.UUID          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal    `json:"quantity" validate:"gte=0"`
	Type      stock.MovementType `json:"type" validate:"required"`
	Location  stock.Location     `json:"location"`
	Note      string             `json:"note" validate:"max=500"`
	Reference *shared.Reference  `json:"reference"`
}

func (c MoveStockCommand) requirement() (stock.Requirement, bool) {
	switch c.Type {
	case stock.MovementOutSale:
		return stock.Requirement{ProductID: c.ProductID, Quantity: c.Quantity, Location: c.Location}, true
	case stock.MovementTransferToShop:
		return stock.Requirement{ProductID: c.ProductID, Quantity: c.Quantity, Location: stock.LocationWarehouse}, true
	case stock.MovementTransferToWarehouse:
		return stock.Requirement{ProductID: c.ProductID, Quantity: c.Quantity, Location: stock.LocationShop}, true
	}
	return stock.Requirement{}, false
}

// MoveStock applies one movement
func (s *StockService) MoveStock(ctx context.Context, cmd MoveStockCommand, userID uuid.UUID) ([]*stock.Movement, error) {
	return s.BulkMoveStock(ctx, []MoveStockCommand{cmd}, userID)
}

// BulkMoveStock validates every line against current stock first and then
// applies all of them in one transaction. Either every line is applied or none.
func (s *StockService) BulkMoveStock(ctx context.Context, cmds []MoveStockCommand, userID uuid.UUID) ([]*stock.Movement, error) {
	if len(cmds) == 0 {
		return nil, shared.NewValidationError("EMPTY_REQUEST", "At least one movement is required")
	}
	var reqs []stock.Requirement
	ids := make([]uuid.UUID, 0, len(cmds))
	for _, c := range cmds {
		if err := core.Validate(c); err != nil {
			return nil, err
		}
		if !c.Type.IsValid() {
			return nil, shared.NewValidationError("INVALID_MOVEMENT_TYPE", fmt.Sprintf("Unknown movement type %q", c.Type))
		}
		if c.Type == stock.MovementOpening {
			return nil, shared.NewValidationError("INVALID_MOVEMENT_TYPE", "Opening balances are registered with registerInitialBalance")
		}
		if c.Type != stock.MovementAdjust && !c.Quantity.IsPositive() {
			return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be positive")
		}
		if r, ok := c.requirement(); ok {
			reqs = append(reqs, r)
		}
		ids = append(ids, c.ProductID)
	}

	var movements []*stock.Movement
	err := s.runner.Run(ctx, core.Unit{Name: "stock.move", LockKeys: core.KeyProducts(ids)}, func(tx *core.Tx) error {
		if len(reqs) > 0 {
			if _, err := s.LoadAndCheckTx(ctx, tx, reqs); err != nil {
				return err
			}
		}
		products, err := tx.Products().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for _, c := range cmds {
			p, ok := products[c.ProductID]
			if !ok {
				return shared.NewNotFoundError("Product", c.ProductID)
			}
			if !p.IsActive() && c.Type != stock.MovementAdjust {
				return shared.NewConflictError("PRODUCT_ARCHIVED", fmt.Sprintf("Product %s is archived", p.Code))
			}
			mc := stock.MovementContext{Note: c.Note, UserID: userID}
			if c.Reference != nil {
				mc.Reference = *c.Reference
			}
			ms, err := applyMove(p, c, mc)
			if err != nil {
				return err
			}
			movements = append(movements, ms...)
		}
		for _, p := range products {
			if err := tx.Products().Save(ctx, p); err != nil {
				return err
			}
			tx.Collect(p)
		}
		return tx.Movements().CreateBatch(ctx, movements)
	})
	if err != nil {
		return nil, err
	}
	return movements, nil
}

func applyMove(p *stock.Product, c MoveStockCommand, mc stock.MovementContext) ([]*stock.Movement, error) {
	switch c.Type {
	case stock.MovementIn:
		loc := c.Location
		if loc == "" {
			loc = stock.LocationWarehouse
		}
		m, err := p.Receive(loc, c.Quantity, mc)
		return single(m, err)
	case stock.MovementOutSale:
		if c.Location == "" {
			return p.WithdrawAnywhere(c.Quantity, mc)
		}
		m, err := p.Withdraw(c.Location, c.Quantity, mc)
		return single(m, err)
	case stock.MovementTransferToShop, stock.MovementTransferToWarehouse:
		m, err := p.Transfer(c.Type, c.Quantity, mc)
		return single(m, err)
	case stock.MovementAdjust:
		m, err := p.Adjust(c.Location, c.Quantity, mc)
		return single(m, err)
	}
	return nil, shared.NewValidationError("INVALID_MOVEMENT_TYPE", fmt.Sprintf("Unsupported movement type %q", c.Type))
}

func single(m *stock.Movement, err error) ([]*stock.Movement, error) {
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	return []*stock.Movement{m}, nil
}

// SaveTx persists changed products and their new movements inside a unit of
// work and collects the products' events
func (s *StockService) SaveTx(ctx context.Context, tx *core.Tx, products []*stock.Product, movements []*stock.Movement) error {
	for _, p := range products {
		if err := tx.Products().Save(ctx, p); err != nil {
			return err
		}
		tx.Collect(p)
	}
	if len(movements) == 0 {
		return nil
	}
	return tx.Movements().CreateBatch(ctx, movements)
}

// InitialBalanceCommand seeds the opening stock of a product
type InitialBalanceCommand struct {
	ProductID    uuid.UUID        `json:"product_id" validate:"required"`
	WarehouseQty decimal.Decimal  `json:"warehouse_qty" validate:"gte=0"`
	ShopQty      decimal.Decimal  `json:"shop_qty" validate:"gte=0"`
	BuyPrice     *decimal.Decimal `json:"buy_price"`
}

// InitialBalanceResult is the outcome of registering an opening balance
type InitialBalanceResult struct {
	Product   *stock.Product
	Movements []*stock.Movement
	Entry     *ledger.Entry
}

// RegisterInitialBalance records OPENING movements and books the opening value
// as Dr Inventory / Cr Owner Equity. Rejected once the product has any movement.
func (s *StockService) RegisterInitialBalance(ctx context.Context, cmd InitialBalanceCommand, userID uuid.UUID) (*InitialBalanceResult, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	if cmd.BuyPrice != nil && cmd.BuyPrice.IsNegative() {
		return nil, shared.NewValidationError("INVALID_PRICE", "Buy price cannot be negative")
	}

	result := &InitialBalanceResult{}
	err := s.runner.Run(ctx, core.Unit{Name: "stock.initial_balance", LockKeys: []string{core.KeyProduct(cmd.ProductID)}}, func(tx *core.Tx) error {
		p, err := tx.Products().FindByID(ctx, cmd.ProductID)
		if err != nil {
			return err
		}
		n, err := tx.Movements().CountByProduct(ctx, p.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return shared.NewConflictError("OPENING_EXISTS", fmt.Sprintf("Product %s already has stock movements", p.Code))
		}
		if cmd.BuyPrice != nil {
			if err := p.UpdatePrices(*cmd.BuyPrice, p.SellPrice, p.WholesalePrice); err != nil {
				return err
			}
		}

		ref := shared.NewReference(shared.ReferenceProduct, p.ID)
		movements, err := p.Open(cmd.WarehouseQty, cmd.ShopQty, stock.MovementContext{
			Reference: ref,
			Note:      "Opening balance",
			UserID:    userID,
		})
		if err != nil {
			return err
		}
		if err := s.SaveTx(ctx, tx, []*stock.Product{p}, movements); err != nil {
			return err
		}

		value := valueobject.RoundMoney(p.StockQty.Mul(p.BuyPrice))
		if value.IsPositive() {
			entry, err := s.ledger.PostTx(ctx, tx, ledger.PostingRequest{
				Date:          time.Now(),
				Type:          ledger.EntryTypeOpening,
				DebitAccount:  ledger.AccountInventory,
				CreditAccount: ledger.AccountOwnerEquity,
				Amount:        value,
				Description:   "Opening stock " + p.Code,
				Reference:     ref,
				CreatedBy:     userID,
			})
			if err != nil {
				return err
			}
			result.Entry = entry
		}
		result.Product, result.Movements = p, movements
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Opening balance registered",
		zap.String("product_id", cmd.ProductID.String()),
		zap.String("warehouse_qty", cmd.WarehouseQty.String()),
		zap.String("shop_qty", cmd.ShopQty.String()))
	return result, nil
}
