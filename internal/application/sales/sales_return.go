package sales

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	apptreasury "github.com/retail/backoffice/internal/application/treasury"
	"github.com/retail/backoffice/internal/domain/ledger"
	"github.com/retail/backoffice/internal/domain/partner"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/retail/backoffice/internal/domain/trade"
	"github.com/retail/backoffice/internal/domain/treasury"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReturnItem is one returned product
type ReturnItem struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	Reason    string          `json:"reason" validate:"max=500"`
}

// SaleReturnCommand returns goods against an invoice
type SaleReturnCommand struct {
	InvoiceID      uuid.UUID          `json:"invoice_id" validate:"required"`
	Items          []ReturnItem       `json:"items" validate:"required,min=1,dive"`
	RefundMethod   trade.RefundMethod `json:"refund_method" validate:"required,oneof=cash customerBalance"`
	Reason         string             `json:"reason" validate:"max=500"`
	IdempotencyKey string             `json:"idempotency_key"`
}

// SaleReturnResult is the outcome of a return
type SaleReturnResult struct {
	Return      *trade.SalesReturn
	Invoice     *trade.Invoice
	Movements   []*stock.Movement
	Entries     []*ledger.Entry
	Transaction *treasury.Transaction
}

// ProcessSaleReturn takes goods back. The stock returns to the location it was
// sold from (the shop when the sale drew from anywhere). The refund is priced
// from what was charged and booked as Dr Sales Returns against Cash or
// Receivables, with the cost moved back from COGS to Inventory.
//
// A cash refund is paid from the treasury. A customer-balance refund first pays
// down what the customer owes on the invoice and its debt; anything beyond that
// becomes store credit.
func (o *Orchestrator) ProcessSaleReturn(ctx context.Context, cmd SaleReturnCommand, userID uuid.UUID) (*SaleReturnResult, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	pre, err := o.runner.Repositories().Invoices().FindByID(ctx, cmd.InvoiceID)
	if err != nil {
		return nil, err
	}
	invRef := shared.NewReference(shared.ReferenceInvoice, pre.ID)
	keys := append(core.KeyProducts(pre.ProductIDs()), core.KeyInvoice(pre.ID))
	keys = append(keys, customerKeys(pre.CustomerID)...)
	if cmd.RefundMethod == trade.RefundCash {
		keys = append(keys, core.KeyTreasury)
	}
	debtKeys, err := o.debtLockKey(ctx, invRef)
	if err != nil {
		return nil, err
	}
	keys = append(keys, debtKeys...)

	result := &SaleReturnResult{}
	err = o.run(ctx, core.Unit{Name: "sales.process_return", IdempotencyKey: cmd.IdempotencyKey, LockKeys: keys}, func(tx *core.Tx) error {
		inv, err := tx.Invoices().FindByID(ctx, cmd.InvoiceID)
		if err != nil {
			return err
		}
		lines := make([]trade.ReturnLine, 0, len(cmd.Items))
		for _, it := range cmd.Items {
			lines = append(lines, trade.ReturnLine{ProductID: it.ProductID, Quantity: it.Quantity, Reason: it.Reason})
		}
		items, err := inv.RegisterReturn(lines)
		if err != nil {
			return err
		}
		seq, err := tx.NextNumber(ctx, shared.SequenceSalesReturn)
		if err != nil {
			return err
		}
		ret, err := trade.NewSalesReturn(inv, items, cmd.RefundMethod, cmd.Reason, userID, seq)
		if err != nil {
			return err
		}
		ref := shared.NewReference(shared.ReferenceSalesReturn, ret.ID)
		now := ret.Date

		if err := o.restockReturn(ctx, tx, inv, ret, ref, userID, result); err != nil {
			return err
		}

		var customer *partner.Customer
		if inv.CustomerID != nil {
			customer, err = tx.Customers().FindByID(ctx, *inv.CustomerID)
			if err != nil {
				return err
			}
		}

		credit := ledger.AccountReceivables
		if cmd.RefundMethod == trade.RefundCash {
			credit = ledger.AccountCash
			result.Transaction, err = o.treasury.PostDocumentCashTx(ctx, tx, treasury.NewTransactionInput{
				Type:        treasury.TransactionTypeExpense,
				Amount:      ret.TotalRefund,
				Description: "Return " + ret.Number + " for " + inv.Number,
				Reference:   ref,
				PartnerID:   inv.CustomerID,
				Method:      shared.PaymentMethodCash,
				Date:        now,
				CreatedBy:   userID,
			}, apptreasury.CashboxSales)
			if err != nil {
				return err
			}
			ret.TreasuryDeducted = ret.TotalRefund
		} else if err := o.creditCustomer(ctx, tx, inv, customer, ret); err != nil {
			return err
		}

		if ret.TotalRefund.IsPositive() {
			e, err := o.ledger.PostTx(ctx, tx, ledger.PostingRequest{
				Date:          now,
				Type:          ledger.EntryTypeReturn,
				DebitAccount:  ledger.AccountSalesReturns,
				CreditAccount: credit,
				Amount:        ret.TotalRefund,
				Description:   "Return " + ret.Number + " for " + inv.Number,
				Reference:     ref,
				CreatedBy:     userID,
			})
			if err != nil {
				return err
			}
			result.Entries = append(result.Entries, e)
		}
		if ret.TotalCost.IsPositive() {
			e, err := o.ledger.PostTx(ctx, tx, ledger.PostingRequest{
				Date:          now,
				Type:          ledger.EntryTypeReturnCOGS,
				DebitAccount:  ledger.AccountInventory,
				CreditAccount: ledger.AccountCOGS,
				Amount:        ret.TotalCost,
				Description:   "Cost of return " + ret.Number,
				Reference:     ref,
				CreatedBy:     userID,
			})
			if err != nil {
				return err
			}
			result.Entries = append(result.Entries, e)
		}

		if customer != nil {
			customer.RollbackPurchase(ret.TotalRefund)
			if err := tx.Customers().Save(ctx, customer); err != nil {
				return err
			}
		}
		if err := tx.Invoices().Save(ctx, inv); err != nil {
			return err
		}
		if err := tx.SalesReturns().Create(ctx, ret); err != nil {
			return err
		}
		result.Return, result.Invoice = ret, inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.logger.Info("Sale return processed",
		zap.String("return", result.Return.Number),
		zap.String("invoice", result.Invoice.Number),
		zap.String("refund", result.Return.TotalRefund.String()),
		zap.String("method", string(cmd.RefundMethod)))
	return result, nil
}

func (o *Orchestrator) restockReturn(ctx context.Context, tx *core.Tx, inv *trade.Invoice, ret *trade.SalesReturn, ref shared.Reference, userID uuid.UUID, result *SaleReturnResult) error {
	products, err := tx.Products().FindByIDs(ctx, inv.ProductIDs())
	if err != nil {
		return err
	}
	mc := stock.MovementContext{Reference: ref, Note: "Return " + ret.Number, UserID: userID}
	touched := make([]*stock.Product, 0, len(ret.Items))
	seen := make(map[uuid.UUID]bool)
	for _, it := range ret.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return shared.NewNotFoundError("Product", it.ProductID)
		}
		loc := it.Location
		if loc == "" {
			loc = stock.LocationShop
		}
		m, err := p.Receive(loc, it.Quantity, mc)
		if err != nil {
			return err
		}
		result.Movements = append(result.Movements, m)
		if !seen[p.ID] {
			seen[p.ID] = true
			touched = append(touched, p)
		}
	}
	return o.stock.SaveTx(ctx, tx, touched, result.Movements)
}

// creditCustomer applies a customer-balance refund: the invoice outstanding and
// its debt shrink first, then the rest becomes store credit. An invoice whose
// debt is closed has nothing left to shrink, so the whole refund is store credit.
func (o *Orchestrator) creditCustomer(ctx context.Context, tx *core.Tx, inv *trade.Invoice, customer *partner.Customer, ret *trade.SalesReturn) error {
	if customer == nil {
		return shared.NewValidationError("CUSTOMER_REQUIRED", "A customer balance refund requires a customer")
	}
	d, err := tx.Debts().FindByReference(ctx, shared.NewReference(shared.ReferenceInvoice, inv.ID))
	switch {
	case errors.Is(err, shared.ErrNotFound):
		d = nil
	case err != nil:
		return err
	}

	applied := decimal.Zero
	if d == nil || d.Status.IsOpen() {
		applied = inv.ApplyCredit(ret.TotalRefund)
	}
	if applied.IsPositive() {
		if d != nil {
			if cut := decimal.Min(applied, d.RemainingAmount); cut.IsPositive() {
				if err := d.Reduce(cut); err != nil {
					return err
				}
				if err := tx.Debts().Save(ctx, d); err != nil {
					return err
				}
				tx.Collect(d)
			}
		}
		if cut := decimal.Min(applied, customer.Balance); cut.IsPositive() {
			if err := customer.DecreaseBalance(cut); err != nil {
				return err
			}
		}
	}
	ret.AppliedToDebt = applied
	if overflow := ret.TotalRefund.Sub(applied); overflow.IsPositive() {
		if err := customer.AddCreditBalance(overflow); err != nil {
			return err
		}
		ret.CreditBalanceAdded = overflow
	}
	return nil
}

