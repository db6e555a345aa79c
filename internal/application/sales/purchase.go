package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	apptreasury "github.com/retail/backoffice/internal/application/treasury"
	"github.com/retail/backoffice/internal/domain/debt"
	"github.com/retail/backoffice/internal/domain/ledger"
	"github.com/retail/backoffice/internal/domain/partner"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/retail/backoffice/internal/domain/trade"
	"github.com/retail/backoffice/internal/domain/treasury"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PurchaseLine is one ordered product. CostPrice defaults to the product's buy price.
type PurchaseLine struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity" validate:"gt=0"`
	CostPrice *decimal.Decimal `json:"cost_price"`
	Location  stock.Location   `json:"location" validate:"omitempty,oneof=warehouse shop"`
}

// CreatePurchaseOrderCommand places an order with a supplier
type CreatePurchaseOrderCommand struct {
	SupplierID   uuid.UUID      `json:"supplier_id" validate:"required"`
	Items        []PurchaseLine `json:"items" validate:"required,min=1,dive"`
	ExpectedDate *time.Time     `json:"expected_date"`
	Notes        string         `json:"notes" validate:"max=1000"`
}

// CreatePurchaseOrder records a pending order. Nothing moves until it is received.
func (o *Orchestrator) CreatePurchaseOrder(ctx context.Context, cmd CreatePurchaseOrderCommand, userID uuid.UUID) (*trade.PurchaseOrder, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	var po *trade.PurchaseOrder
	err := o.run(ctx, core.Unit{Name: "sales.create_purchase_order"}, func(tx *core.Tx) error {
		sup, err := tx.Suppliers().FindByID(ctx, cmd.SupplierID)
		if err != nil {
			return err
		}
		if !sup.IsActive() {
			return shared.NewConflictError("SUPPLIER_ARCHIVED", fmt.Sprintf("Supplier %s is archived", sup.Code))
		}
		ids := make([]uuid.UUID, 0, len(cmd.Items))
		for _, it := range cmd.Items {
			ids = append(ids, it.ProductID)
		}
		products, err := tx.Products().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		lines := make([]trade.PurchaseOrderLineInput, 0, len(cmd.Items))
		for _, it := range cmd.Items {
			p, ok := products[it.ProductID]
			if !ok {
				return shared.NewNotFoundError("Product", it.ProductID)
			}
			cost := p.BuyPrice
			if it.CostPrice != nil {
				cost = *it.CostPrice
			}
			lines = append(lines, trade.PurchaseOrderLineInput{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    it.Quantity,
				CostPrice:   cost,
				Location:    it.Location,
			})
		}
		seq, err := tx.NextNumber(ctx, shared.SequencePurchaseOrder)
		if err != nil {
			return err
		}
		po, err = trade.NewPurchaseOrder(sup.ID, sup.Name, lines, cmd.ExpectedDate, cmd.Notes, userID, seq)
		if err != nil {
			return err
		}
		return tx.PurchaseOrders().Create(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	o.logger.Info("Purchase order created",
		zap.String("number", po.Number),
		zap.String("supplier", po.SupplierName),
		zap.String("total", po.TotalCost.String()))
	return po, nil
}

// CancelPurchaseOrder abandons a pending order
func (o *Orchestrator) CancelPurchaseOrder(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var po *trade.PurchaseOrder
	err := o.run(ctx, core.Unit{Name: "sales.cancel_purchase_order", LockKeys: []string{core.KeyPurchaseOrder(id)}}, func(tx *core.Tx) error {
		found, err := tx.PurchaseOrders().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := found.Cancel(); err != nil {
			return err
		}
		po = found
		return tx.PurchaseOrders().Save(ctx, found)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

// ReceiveCommand receives a pending purchase order
type ReceiveCommand struct {
	PurchaseOrderID uuid.UUID         `json:"purchase_order_id" validate:"required"`
	PaymentType     trade.PaymentType `json:"payment_type" validate:"required,oneof=cash bank credit"`
	DueDate         *time.Time        `json:"due_date"`
	IdempotencyKey  string            `json:"idempotency_key"`
}

// ReceiveResult is the outcome of receiving a purchase order
type ReceiveResult struct {
	PurchaseOrder *trade.PurchaseOrder
	Movements     []*stock.Movement
	Entry         *ledger.Entry
	Transaction   *treasury.Transaction
	Debt          *debt.Debt
}

// RecordPurchaseReceive puts the ordered goods into stock and books what they
// cost: Dr Inventory against Cash, Bank or Payables. A cash receipt is paid out
// of the treasury and fails when the treasury cannot cover it; a credit receipt
// opens a payable debt.
func (o *Orchestrator) RecordPurchaseReceive(ctx context.Context, cmd ReceiveCommand, userID uuid.UUID) (*ReceiveResult, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	pre, err := o.runner.Repositories().PurchaseOrders().FindByID(ctx, cmd.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(pre.Items))
	for _, it := range pre.Items {
		ids = append(ids, it.ProductID)
	}
	keys := append(core.KeyProducts(ids), core.KeyPurchaseOrder(pre.ID), core.KeySupplier(pre.SupplierID))
	if cmd.PaymentType == trade.PaymentTypeCash {
		keys = append(keys, core.KeyTreasury)
	}

	result := &ReceiveResult{}
	err = o.run(ctx, core.Unit{Name: "sales.receive_purchase", IdempotencyKey: cmd.IdempotencyKey, LockKeys: keys}, func(tx *core.Tx) error {
		po, err := tx.PurchaseOrders().FindByID(ctx, cmd.PurchaseOrderID)
		if err != nil {
			return err
		}
		sup, err := tx.Suppliers().FindByID(ctx, po.SupplierID)
		if err != nil {
			return err
		}

		now := time.Now()
		var dueDate *time.Time
		if cmd.PaymentType == trade.PaymentTypeCredit {
			due := dueIn(now, o.supplierTerms(sup))
			if cmd.DueDate != nil {
				due = *cmd.DueDate
			}
			dueDate = &due
		}
		if err := po.Receive(cmd.PaymentType, dueDate, now, userID); err != nil {
			return err
		}

		products, err := tx.Products().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		ref := shared.NewReference(shared.ReferencePurchaseOrder, po.ID)
		mc := stock.MovementContext{Reference: ref, Note: "Receipt of " + po.Number, UserID: userID}
		touched := make([]*stock.Product, 0, len(products))
		seen := make(map[uuid.UUID]bool)
		for _, it := range po.Items {
			p, ok := products[it.ProductID]
			if !ok {
				return shared.NewNotFoundError("Product", it.ProductID)
			}
			m, err := p.Receive(it.ReceiveLocation(), it.Quantity, mc)
			if err != nil {
				return err
			}
			result.Movements = append(result.Movements, m)
			if !seen[p.ID] {
				seen[p.ID] = true
				touched = append(touched, p)
			}
		}
		if err := o.stock.SaveTx(ctx, tx, touched, result.Movements); err != nil {
			return err
		}

		credit := ledger.AccountPayables
		if !po.IsCredit() {
			credit = ledger.SettlementAccount(cmd.PaymentType.Method())
		}
		result.Entry, err = o.ledger.PostTx(ctx, tx, ledger.PostingRequest{
			Date:          now,
			Type:          ledger.EntryTypePurchase,
			DebitAccount:  ledger.AccountInventory,
			CreditAccount: credit,
			Amount:        po.TotalCost,
			Description:   "Purchase " + po.Number,
			Reference:     ref,
			CreatedBy:     userID,
		})
		if err != nil {
			return err
		}

		switch po.PaymentType {
		case trade.PaymentTypeCash:
			supplierID := sup.ID
			result.Transaction, err = o.treasury.PostDocumentCashTx(ctx, tx, treasury.NewTransactionInput{
				Type:        treasury.TransactionTypeExpense,
				Amount:      po.TotalCost,
				Description: "Purchase " + po.Number,
				Reference:   ref,
				PartnerID:   &supplierID,
				Method:      shared.PaymentMethodCash,
				Date:        now,
				CreatedBy:   userID,
			}, apptreasury.CashboxPurchases)
			if err != nil {
				return err
			}
		case trade.PaymentTypeCredit:
			result.Debt, _, err = o.debts.CreateDebtTx(ctx, tx, debt.NewDebtInput{
				DebtorID:    sup.ID,
				DebtorType:  debt.DebtorSupplier,
				Amount:      po.TotalCost,
				DueDate:     *po.DueDate,
				Reference:   ref,
				Description: "Credit purchase " + po.Number,
				CreatedBy:   userID,
			})
			if err != nil {
				return err
			}
			if err := sup.IncreaseBalance(po.TotalCost); err != nil {
				return err
			}
		}

		sup.RecordPurchase(po.TotalCost, now)
		if err := tx.Suppliers().Save(ctx, sup); err != nil {
			return err
		}
		if err := tx.PurchaseOrders().Save(ctx, po); err != nil {
			return err
		}
		result.PurchaseOrder = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.logger.Info("Purchase order received",
		zap.String("number", result.PurchaseOrder.Number),
		zap.String("payment_type", string(cmd.PaymentType)),
		zap.String("total", result.PurchaseOrder.TotalCost.String()))
	return result, nil
}

func (o *Orchestrator) supplierTerms(s *partner.Supplier) int {
	if s != nil && s.PaymentTermsDays > 0 {
		return s.PaymentTermsDays
	}
	return o.cfg.SupplierPaymentTermsDays
}

func purchaseDue(po *trade.PurchaseOrder) time.Time {
	switch {
	case po.DueDate != nil:
		return *po.DueDate
	case po.ReceivedDate != nil:
		return *po.ReceivedDate
	}
	return po.CreatedAt
}
