package inventorycount

import (
	"context"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	appledger "github.com/retail/backoffice/internal/application/ledger"
	appstock "github.com/retail/backoffice/internal/application/stock"
	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/domain/inventorycount"
	"github.com/retail/backoffice/internal/domain/ledger"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/shared/valueobject"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CountService runs physical inventory sessions
type CountService struct {
	runner *core.Runner
	ledger *appledger.LedgerService
	stock  *appstock.StockService
	auth   core.Authorizer
	logger *zap.Logger
}

// NewCountService creates a new CountService
func NewCountService(runner *core.Runner, ledgerService *appledger.LedgerService, stockService *appstock.StockService, auth core.Authorizer, logger *zap.Logger) *CountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CountService{runner: runner, ledger: ledgerService, stock: stockService, auth: auth, logger: logger}
}

// CreateCountCommand opens a count session
type CreateCountCommand struct {
	Location inventorycount.Scope `json:"location" validate:"required,oneof=warehouse shop both"`
	Category string               `json:"category" validate:"max=100"`
	IsBlind  bool                 `json:"is_blind"`
	Notes    string               `json:"notes" validate:"max=1000"`
}

// CountView is a count as shown to the counter. Expected quantities are blank
// while a blind count is being entered.
type CountView struct {
	Count          *inventorycount.Count
	Items          []inventorycount.Item
	ExpectedHidden bool
}

func viewOf(c *inventorycount.Count) *CountView {
	return &CountView{Count: c, Items: c.Redacted(), ExpectedHidden: c.HidesExpected()}
}

// CreateCount snapshots the expected quantities of every active product in
// scope, optionally limited to one category
func (s *CountService) CreateCount(ctx context.Context, cmd CreateCountCommand, userID uuid.UUID) (*CountView, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	var count *inventorycount.Count
	err := s.runner.Run(ctx, core.Unit{Name: "count.create"}, func(tx *core.Tx) error {
		products, err := tx.Products().FindForCount(ctx, cmd.Category)
		if err != nil {
			return err
		}
		seq, err := tx.NextNumber(ctx, shared.SequenceInventoryCount)
		if err != nil {
			return err
		}
		count, err = inventorycount.NewCount(cmd.Location, cmd.Category, cmd.IsBlind, cmd.Notes, products, userID, seq)
		if err != nil {
			return err
		}
		return tx.Counts().Create(ctx, count)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Inventory count created",
		zap.String("number", count.Number),
		zap.String("location", string(count.Scope)),
		zap.Int("items", len(count.Items)),
		zap.Bool("blind", count.IsBlind))
	return viewOf(count), nil
}

// GetCount returns a count, hiding expected quantities of a blind draft
func (s *CountService) GetCount(ctx context.Context, id uuid.UUID) (*CountView, error) {
	c, err := s.runner.Repositories().Counts().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return viewOf(c), nil
}

// ListCounts lists count sessions, newest first
func (s *CountService) ListCounts(ctx context.Context, filter inventorycount.Filter) ([]*inventorycount.Count, int64, error) {
	filter.Page, filter.PageSize = core.Page(filter.Page, filter.PageSize)
	return s.runner.Repositories().Counts().FindAll(ctx, filter)
}

// ActualItem is one counted quantity
type ActualItem struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	ActualQty decimal.Decimal `json:"actual_qty" validate:"gte=0"`
	Reason    string          `json:"reason" validate:"max=500"`
}

// UpdateActualQuantities records counted quantities on a draft count
func (s *CountService) UpdateActualQuantities(ctx context.Context, id uuid.UUID, items []ActualItem, userID uuid.UUID) (*CountView, error) {
	if len(items) == 0 {
		return nil, shared.NewValidationError("EMPTY_REQUEST", "At least one counted item is required")
	}
	inputs := make([]inventorycount.ActualInput, 0, len(items))
	for _, it := range items {
		if err := core.Validate(it); err != nil {
			return nil, err
		}
		inputs = append(inputs, inventorycount.ActualInput{ProductID: it.ProductID, ActualQty: it.ActualQty, Reason: it.Reason})
	}

	var count *inventorycount.Count
	err := s.runner.Run(ctx, core.Unit{Name: "count.update", LockKeys: []string{core.KeyCount(id)}}, func(tx *core.Tx) error {
		c, err := tx.Counts().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := c.UpdateActualQuantities(inputs); err != nil {
			return err
		}
		count = c
		return tx.Counts().Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Count quantities updated",
		zap.String("number", count.Number),
		zap.Int("items", len(items)),
		zap.String("user_id", userID.String()))
	return viewOf(count), nil
}

// Adjustment is one stock correction applied by a completed count
type Adjustment struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Location    stock.Location  `json:"location"`
	Delta       decimal.Decimal `json:"delta"`
}

// CompletionResult is the outcome of completing a count
type CompletionResult struct {
	Count       *inventorycount.Count
	Adjustments []Adjustment
	Entries     []*ledger.Entry
}

// CompleteCount locks the count and sets stock to the counted quantities.
// Each product's net change is valued at its snapshotted buy price: a shortage
// posts Dr Shortage Expense / Cr Inventory, a surplus Dr Inventory / Cr Surplus
// Income. Uncounted items are left alone.
func (s *CountService) CompleteCount(ctx context.Context, id, userID uuid.UUID) (*CompletionResult, error) {
	pre, err := s.runner.Repositories().Counts().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	keys := append(core.KeyProducts(pre.ProductIDs()), core.KeyCount(id))

	result := &CompletionResult{}
	err = s.runner.Run(ctx, core.Unit{Name: "count.complete", LockKeys: keys}, func(tx *core.Tx) error {
		c, err := tx.Counts().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := c.Complete(userID); err != nil {
			return err
		}
		products, err := tx.Products().FindByIDs(ctx, c.ProductIDs())
		if err != nil {
			return err
		}

		ref := shared.NewReference(shared.ReferenceInventoryCount, c.ID)
		mc := stock.MovementContext{Reference: ref, Note: "Inventory count " + c.Number, UserID: userID}
		var touched []*stock.Product
		var movements []*stock.Movement
		for i := range c.Items {
			it := &c.Items[i]
			targets := c.Targets(it)
			if len(targets) == 0 {
				continue
			}
			p, ok := products[it.ProductID]
			if !ok {
				return shared.NewNotFoundError("Product", it.ProductID)
			}
			net := decimal.Zero
			moved := false
			for _, target := range targets {
				m, err := p.Adjust(target.Location, target.Quantity, mc)
				if err != nil {
					return err
				}
				if m == nil {
					continue
				}
				movements = append(movements, m)
				moved = true
				net = net.Add(m.Quantity)
				result.Adjustments = append(result.Adjustments, Adjustment{
					ProductID:   p.ID,
					ProductName: p.Name,
					Location:    target.Location,
					Delta:       m.Quantity,
				})
			}
			if moved {
				touched = append(touched, p)
			}

			value := valueobject.RoundMoney(net.Abs().Mul(it.BuyPrice))
			if !value.IsPositive() {
				continue
			}
			req := ledger.PostingRequest{
				Type:        ledger.EntryTypeAdjustment,
				Amount:      value,
				Description: "Count " + c.Number + ": " + p.Name,
				Reference:   ref,
				CreatedBy:   userID,
			}
			if net.IsNegative() {
				req.DebitAccount, req.CreditAccount = ledger.AccountShortageExpense, ledger.AccountInventory
			} else {
				req.DebitAccount, req.CreditAccount = ledger.AccountInventory, ledger.AccountSurplusIncome
			}
			e, err := s.ledger.PostTx(ctx, tx, req)
			if err != nil {
				return err
			}
			result.Entries = append(result.Entries, e)
		}

		if err := s.stock.SaveTx(ctx, tx, touched, movements); err != nil {
			return err
		}
		if err := tx.Counts().Save(ctx, c); err != nil {
			return err
		}
		result.Count = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Inventory count completed",
		zap.String("number", result.Count.Number),
		zap.Int("adjustments", len(result.Adjustments)),
		zap.Int("entries", len(result.Entries)))
	return result, nil
}

// UnlockCount reopens a completed count. Managers and admins only, and the
// acting user must confirm their password. Adjustments already applied stay.
func (s *CountService) UnlockCount(ctx context.Context, id uuid.UUID, password string, userID uuid.UUID) (*CountView, error) {
	if err := s.auth.RequireRole(ctx, userID, identity.PrivilegedRoles...); err != nil {
		return nil, err
	}
	if err := s.auth.VerifyPassword(ctx, userID, password); err != nil {
		s.logger.Warn("Count unlock denied", zap.String("count_id", id.String()), zap.String("user_id", userID.String()))
		return nil, err
	}

	var count *inventorycount.Count
	err := s.runner.Run(ctx, core.Unit{Name: "count.unlock", LockKeys: []string{core.KeyCount(id)}}, func(tx *core.Tx) error {
		c, err := tx.Counts().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := c.Unlock(userID); err != nil {
			return err
		}
		count = c
		return tx.Counts().Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Inventory count unlocked", zap.String("number", count.Number), zap.String("user_id", userID.String()))
	return viewOf(count), nil
}

// GetRecentMovementsSince returns movements of the count's products recorded
// after its snapshot, so the counter can tell stock that moved while counting.
// The count's own adjustments are left out.
func (s *CountService) GetRecentMovementsSince(ctx context.Context, countID uuid.UUID) ([]*stock.Movement, error) {
	repos := s.runner.Repositories()
	c, err := repos.Counts().FindByID(ctx, countID)
	if err != nil {
		return nil, err
	}
	all, err := repos.Movements().FindSince(ctx, c.ProductIDs(), c.SnapshotAt)
	if err != nil {
		return nil, err
	}
	own := shared.NewReference(shared.ReferenceInventoryCount, c.ID)
	movements := make([]*stock.Movement, 0, len(all))
	for _, m := range all {
		if m.Reference != own {
			movements = append(movements, m)
		}
	}
	return movements, nil
}

