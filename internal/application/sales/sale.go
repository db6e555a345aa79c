package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	apptreasury "github.com/retail/backoffice/internal/application/treasury"
	"github.com/retail/backoffice/internal/domain/debt"
	"github.com/retail/backoffice/internal/domain/identity"
	"github.com/retail/backoffice/internal/domain/ledger"
	"github.com/retail/backoffice/internal/domain/partner"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/retail/backoffice/internal/domain/trade"
	"github.com/retail/backoffice/internal/domain/treasury"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleLine is one line of a sale. UnitPrice defaults to the product's sell
// price, or its wholesale price for wholesale customers.
type SaleLine struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Location  stock.Location   `json:"location" validate:"omitempty,oneof=warehouse shop"`
}

// RecordSaleCommand records a sale
type RecordSaleCommand struct {
	CustomerID     *uuid.UUID        `json:"customer_id"`
	CustomerName   string            `json:"customer_name" validate:"max=200"`
	PaymentType    trade.PaymentType `json:"payment_type" validate:"required,oneof=cash bank credit"`
	Items          []SaleLine        `json:"items" validate:"required,min=1,dive"`
	Discount       decimal.Decimal   `json:"discount" validate:"gte=0"`
	Tax            decimal.Decimal   `json:"tax" validate:"gte=0"`
	DueDate        *time.Time        `json:"due_date"`
	Notes          string            `json:"notes" validate:"max=1000"`
	IdempotencyKey string            `json:"idempotency_key"`
}

// SaleResult is the outcome of recording a sale
type SaleResult struct {
	Invoice     *trade.Invoice
	Movements   []*stock.Movement
	Entries     []*ledger.Entry
	Transaction *treasury.Transaction
	Debt        *debt.Debt
}

// RecordSale validates stock and credit, then in one transaction withdraws the
// goods, writes the invoice, posts the sale and cost entries, takes cash into
// the treasury and, for credit sales, opens the customer's debt.
func (o *Orchestrator) RecordSale(ctx context.Context, cmd RecordSaleCommand, userID uuid.UUID) (*SaleResult, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	if cmd.PaymentType == trade.PaymentTypeCredit && cmd.CustomerID == nil {
		return nil, shared.NewValidationError("CUSTOMER_REQUIRED", "A credit sale requires a customer")
	}

	reqs := make([]stock.Requirement, 0, len(cmd.Items))
	productIDs := make([]uuid.UUID, 0, len(cmd.Items))
	for _, it := range cmd.Items {
		reqs = append(reqs, stock.Requirement{ProductID: it.ProductID, Quantity: it.Quantity, Location: it.Location})
		productIDs = append(productIDs, it.ProductID)
	}
	keys := append(core.KeyProducts(productIDs), customerKeys(cmd.CustomerID)...)
	if cmd.PaymentType == trade.PaymentTypeCash {
		keys = append(keys, core.KeyTreasury)
	}

	result := &SaleResult{}
	err := o.run(ctx, core.Unit{Name: "sales.record_sale", IdempotencyKey: cmd.IdempotencyKey, LockKeys: keys}, func(tx *core.Tx) error {
		var customer *partner.Customer
		customerName := cmd.CustomerName
		if cmd.CustomerID != nil {
			c, err := tx.Customers().FindByID(ctx, *cmd.CustomerID)
			if err != nil {
				return err
			}
			if !c.IsActive() {
				return shared.NewConflictError("CUSTOMER_ARCHIVED", fmt.Sprintf("Customer %s is archived", c.Code))
			}
			customer, customerName = c, c.Name
		}

		products, err := o.stock.LoadAndCheckTx(ctx, tx, reqs)
		if err != nil {
			return err
		}
		lines := make([]trade.InvoiceLineInput, 0, len(cmd.Items))
		for _, it := range cmd.Items {
			p := products[it.ProductID]
			if !p.IsActive() {
				return shared.NewConflictError("PRODUCT_ARCHIVED", fmt.Sprintf("Product %s is archived", p.Code))
			}
			price := p.SellPrice
			if customer != nil && customer.PriceType == partner.PriceTypeWholesale {
				price = p.WholesaleOrSellPrice()
			}
			if it.UnitPrice != nil {
				price = *it.UnitPrice
			}
			lines = append(lines, trade.InvoiceLineInput{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    it.Quantity,
				UnitPrice:   price,
				CostPrice:   p.BuyPrice,
				Location:    it.Location,
			})
		}

		now := time.Now()
		var dueDate *time.Time
		if cmd.PaymentType == trade.PaymentTypeCredit {
			due := dueIn(now, o.customerTerms(customer))
			if cmd.DueDate != nil {
				due = *cmd.DueDate
			}
			dueDate = &due
		}
		seq, err := tx.NextNumber(ctx, shared.SequenceInvoice)
		if err != nil {
			return err
		}
		inv, err := trade.NewInvoice(trade.NewInvoiceInput{
			CustomerID:   cmd.CustomerID,
			CustomerName: customerName,
			PaymentType:  cmd.PaymentType,
			Lines:        lines,
			Discount:     cmd.Discount,
			Tax:          cmd.Tax,
			DueDate:      dueDate,
			Date:         now,
			Notes:        cmd.Notes,
			CreatedBy:    userID,
		}, seq)
		if err != nil {
			return err
		}
		if inv.IsCredit() {
			if err := customer.CheckCredit(inv.Total); err != nil {
				o.logger.Warn("Credit sale rejected",
					zap.String("customer_id", customer.ID.String()),
					zap.String("balance", customer.Balance.String()),
					zap.String("limit", customer.CreditLimit.String()),
					zap.String("amount", inv.Total.String()))
				return err
			}
		}

		ref := shared.NewReference(shared.ReferenceInvoice, inv.ID)
		mc := stock.MovementContext{Reference: ref, Note: "Sale " + inv.Number, UserID: userID}
		touched := make([]*stock.Product, 0, len(products))
		seen := make(map[uuid.UUID]bool, len(products))
		// lines pinned to a location go first so lines without one take what is left
		for _, anywhere := range []bool{false, true} {
			for _, item := range inv.Items {
				if (item.Location == "") != anywhere {
					continue
				}
				p := products[item.ProductID]
				var ms []*stock.Movement
				if anywhere {
					ms, err = p.WithdrawAnywhere(item.Quantity, mc)
				} else {
					var m *stock.Movement
					m, err = p.Withdraw(item.Location, item.Quantity, mc)
					ms = []*stock.Movement{m}
				}
				if err != nil {
					return err
				}
				result.Movements = append(result.Movements, ms...)
				if !seen[p.ID] {
					seen[p.ID] = true
					touched = append(touched, p)
				}
			}
		}
		if err := o.stock.SaveTx(ctx, tx, touched, result.Movements); err != nil {
			return err
		}
		if err := tx.Invoices().Create(ctx, inv); err != nil {
			return err
		}

		debitAccount := ledger.AccountReceivables
		if !inv.IsCredit() {
			debitAccount = ledger.SettlementAccount(cmd.PaymentType.Method())
		}
		saleEntry, err := o.ledger.PostTx(ctx, tx, ledger.PostingRequest{
			Date:          now,
			Type:          ledger.EntryTypeSale,
			DebitAccount:  debitAccount,
			CreditAccount: ledger.AccountSalesRevenue,
			Amount:        inv.Total,
			Description:   "Sale " + inv.Number,
			Reference:     ref,
			CreatedBy:     userID,
		})
		if err != nil {
			return err
		}
		result.Entries = append(result.Entries, saleEntry)
		if inv.TotalCost.IsPositive() {
			cogs, err := o.ledger.PostTx(ctx, tx, ledger.PostingRequest{
				Date:          now,
				Type:          ledger.EntryTypeCOGS,
				DebitAccount:  ledger.AccountCOGS,
				CreditAccount: ledger.AccountInventory,
				Amount:        inv.TotalCost,
				Description:   "Cost of sale " + inv.Number,
				Reference:     ref,
				CreatedBy:     userID,
			})
			if err != nil {
				return err
			}
			result.Entries = append(result.Entries, cogs)
		}

		switch inv.PaymentType {
		case trade.PaymentTypeCash:
			t, err := o.treasury.PostDocumentCashTx(ctx, tx, treasury.NewTransactionInput{
				Type:        treasury.TransactionTypeIncome,
				Amount:      inv.Total,
				Description: "Sale " + inv.Number,
				Reference:   ref,
				PartnerID:   cmd.CustomerID,
				Method:      shared.PaymentMethodCash,
				Date:        now,
				CreatedBy:   userID,
			}, apptreasury.CashboxSales)
			if err != nil {
				return err
			}
			result.Transaction = t
		case trade.PaymentTypeCredit:
			d, _, err := o.debts.CreateDebtTx(ctx, tx, debt.NewDebtInput{
				DebtorID:    customer.ID,
				DebtorType:  debt.DebtorCustomer,
				Amount:      inv.Total,
				DueDate:     *inv.DueDate,
				Reference:   ref,
				Description: "Credit sale " + inv.Number,
				CreatedBy:   userID,
			})
			if err != nil {
				return err
			}
			result.Debt = d
			if err := customer.IncreaseBalance(inv.Total); err != nil {
				return err
			}
		}

		if customer != nil {
			customer.RecordPurchase(inv.Total, now)
			if err := tx.Customers().Save(ctx, customer); err != nil {
				return err
			}
		}
		result.Invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.metrics.RecordSale(ctx, string(cmd.PaymentType), result.Invoice.Total)
	o.logger.Info("Sale recorded",
		zap.String("invoice", result.Invoice.Number),
		zap.String("payment_type", string(cmd.PaymentType)),
		zap.String("total", result.Invoice.Total.String()),
		zap.Int("movements", len(result.Movements)))
	return result, nil
}

func (o *Orchestrator) customerTerms(c *partner.Customer) int {
	if c != nil && c.PaymentTermsDays > 0 {
		return c.PaymentTermsDays
	}
	return o.cfg.CustomerPaymentTermsDays
}

// ReversalResult is the outcome of a sale reversal
type ReversalResult struct {
	Invoice   *trade.Invoice
	Movements []*stock.Movement
	Entries   []*ledger.Entry
	Refunds   []*treasury.Transaction
	Debt      *debt.Debt
}

// refund is cash that went into the treasury for the sale and has to go back out
type refund struct {
	amount decimal.Decimal
	method shared.PaymentMethod
}

// ReverseSale voids an invoice. Managers and admins only. Stock goes back to
// the locations it left, every ledger entry of the invoice is reversed, cash
// collected for it is refunded from the treasury, and its debt is cancelled.
// A sale whose debt was written off cannot be reversed.
func (o *Orchestrator) ReverseSale(ctx context.Context, invoiceID, userID uuid.UUID, reason string) (*ReversalResult, error) {
	if err := o.auth.RequireRole(ctx, userID, identity.PrivilegedRoles...); err != nil {
		return nil, err
	}
	pre, err := o.runner.Repositories().Invoices().FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	ref := shared.NewReference(shared.ReferenceInvoice, pre.ID)
	keys := append(core.KeyProducts(pre.ProductIDs()), core.KeyInvoice(pre.ID), core.KeyTreasury)
	keys = append(keys, customerKeys(pre.CustomerID)...)
	debtKeys, err := o.debtLockKey(ctx, ref)
	if err != nil {
		return nil, err
	}
	keys = append(keys, debtKeys...)

	result := &ReversalResult{}
	err = o.run(ctx, core.Unit{Name: "sales.reverse_sale", LockKeys: keys}, func(tx *core.Tx) error {
		inv, err := tx.Invoices().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		balanceCut := inv.Outstanding()

		var refunds []refund
		if inv.IsCredit() {
			linked, err := tx.Debts().FindByReference(ctx, ref)
			switch {
			case err == nil:
				if linked.Status == debt.StatusWrittenOff {
					return shared.NewConflictError("DEBT_WRITTEN_OFF",
						fmt.Sprintf("Invoice %s has a written-off debt and cannot be reversed", inv.Number))
				}
				balanceCut = decimal.Zero
				if linked.Status.IsOpen() {
					balanceCut = linked.RemainingAmount
				}
			case !errors.Is(err, shared.ErrNotFound):
				return err
			}
			d, reversed, err := o.debts.CancelDocumentDebtTx(ctx, tx, ref, userID, "Sale "+inv.Number+" reversed")
			if err != nil {
				return err
			}
			if d != nil {
				result.Debt = d
				tx.Collect(d)
				for _, p := range reversed {
					refunds = append(refunds, refund{amount: p.Amount, method: p.Method})
				}
			} else {
				for _, p := range inv.CollectedAfterSale() {
					refunds = append(refunds, refund{amount: p.Amount, method: p.Method})
				}
			}
		} else {
			for _, p := range inv.Payments {
				if !p.IsReversed {
					refunds = append(refunds, refund{amount: p.Amount, method: p.Method})
				}
			}
		}

		if err := inv.Reverse(userID, reason); err != nil {
			return err
		}
		if err := tx.Invoices().Save(ctx, inv); err != nil {
			return err
		}

		if err := o.restoreStock(ctx, tx, inv, ref, userID, result); err != nil {
			return err
		}

		desc := "Reversal of " + inv.Number
		if reason != "" {
			desc += ": " + reason
		}
		entries, err := o.ledger.ReverseReferenceTx(ctx, tx, ref, userID, desc)
		if err != nil {
			return err
		}
		result.Entries = entries

		now := time.Now()
		for _, r := range refunds {
			if !r.method.MovesCash() {
				continue
			}
			t, err := o.treasury.PostDocumentCashTx(ctx, tx, treasury.NewTransactionInput{
				Type:        treasury.TransactionTypeExpense,
				Amount:      r.amount,
				Description: "Refund for " + inv.Number,
				Reference:   ref,
				PartnerID:   inv.CustomerID,
				Method:      r.method,
				Date:        now,
				CreatedBy:   userID,
			}, apptreasury.CashboxSales)
			if err != nil {
				return err
			}
			result.Refunds = append(result.Refunds, t)
		}

		if inv.CustomerID != nil {
			c, err := tx.Customers().FindByID(ctx, *inv.CustomerID)
			if err != nil {
				return err
			}
			if inv.IsCredit() {
				if cut := decimal.Min(balanceCut, c.Balance); cut.IsPositive() {
					if err := c.DecreaseBalance(cut); err != nil {
						return err
					}
				}
			}
			c.RollbackPurchase(inv.Total)
			if err := tx.Customers().Save(ctx, c); err != nil {
				return err
			}
		}
		result.Invoice = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.metrics.RecordSaleReversal(ctx, result.Invoice.Total)
	o.logger.Info("Sale reversed",
		zap.String("invoice", result.Invoice.Number),
		zap.String("total", result.Invoice.Total.String()),
		zap.Int("refunds", len(result.Refunds)),
		zap.String("user_id", userID.String()))
	return result, nil
}

// restoreStock puts back every quantity the invoice withdrew, at the location
// it was withdrawn from
func (o *Orchestrator) restoreStock(ctx context.Context, tx *core.Tx, inv *trade.Invoice, ref shared.Reference, userID uuid.UUID, result *ReversalResult) error {
	withdrawn, err := tx.Movements().FindByReference(ctx, ref)
	if err != nil {
		return err
	}
	products, err := tx.Products().FindByIDs(ctx, inv.ProductIDs())
	if err != nil {
		return err
	}
	mc := stock.MovementContext{Reference: ref, Note: "Reversal of " + inv.Number, UserID: userID}
	touched := make([]*stock.Product, 0, len(products))
	seen := make(map[uuid.UUID]bool)
	for _, m := range withdrawn {
		if m.Type != stock.MovementOutSale {
			continue
		}
		p, ok := products[m.ProductID]
		if !ok {
			return shared.NewNotFoundError("Product", m.ProductID)
		}
		back, err := p.Receive(m.Location, m.Quantity.Abs(), mc)
		if err != nil {
			return err
		}
		result.Movements = append(result.Movements, back)
		if !seen[p.ID] {
			seen[p.ID] = true
			touched = append(touched, p)
		}
	}
	return o.stock.SaveTx(ctx, tx, touched, result.Movements)
}
