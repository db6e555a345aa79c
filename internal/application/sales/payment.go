package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	appdebt "github.com/retail/backoffice/internal/application/debt"
	"github.com/retail/backoffice/internal/domain/debt"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DocumentPaymentCommand pays part or all of an invoice or purchase order
type DocumentPaymentCommand struct {
	DocumentID     uuid.UUID            `json:"document_id" validate:"required"`
	Amount         decimal.Decimal      `json:"amount" validate:"gt=0"`
	Method         shared.PaymentMethod `json:"method" validate:"required,oneof=cash bank_transfer check cash_wallet"`
	Note           string               `json:"note" validate:"max=500"`
	Date           *time.Time           `json:"date"`
	IdempotencyKey string               `json:"idempotency_key"`
}

func (c DocumentPaymentCommand) input(userID uuid.UUID) appdebt.PaymentInput {
	in := appdebt.PaymentInput{Amount: c.Amount, Method: c.Method, Note: c.Note, UserID: userID, Date: time.Now()}
	if c.Date != nil {
		in.Date = *c.Date
	}
	return in
}

// RecordCustomerPayment takes a payment against a credit invoice through the
// same path as debt payments, so the invoice, its debt, the ledger, the
// treasury and the customer balance move together
func (o *Orchestrator) RecordCustomerPayment(ctx context.Context, cmd DocumentPaymentCommand, userID uuid.UUID) (*appdebt.PaymentResult, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	pre, err := o.runner.Repositories().Invoices().FindByID(ctx, cmd.DocumentID)
	if err != nil {
		return nil, err
	}
	ref := shared.NewReference(shared.ReferenceInvoice, pre.ID)
	keys := append([]string{core.KeyInvoice(pre.ID), core.KeyTreasury}, customerKeys(pre.CustomerID)...)
	debtKeys, err := o.debtLockKey(ctx, ref)
	if err != nil {
		return nil, err
	}
	keys = append(keys, debtKeys...)

	var result *appdebt.PaymentResult
	err = o.run(ctx, core.Unit{Name: "sales.customer_payment", IdempotencyKey: cmd.IdempotencyKey, LockKeys: keys}, func(tx *core.Tx) error {
		inv, err := tx.Invoices().FindByID(ctx, cmd.DocumentID)
		if err != nil {
			return err
		}
		if err := inv.CanAcceptPayment(cmd.Amount); err != nil {
			return err
		}
		if !inv.IsCredit() || inv.CustomerID == nil {
			return shared.NewConflictError("NOT_A_CREDIT_INVOICE", "Only credit invoices take later payments")
		}
		due := inv.Date
		if inv.DueDate != nil {
			due = *inv.DueDate
		}
		d, err := o.debts.EnsureDocumentDebtTx(ctx, tx, debt.NewDebtInput{
			DebtorID:    *inv.CustomerID,
			DebtorType:  debt.DebtorCustomer,
			Amount:      inv.Total.Sub(inv.CreditedAmount),
			DueDate:     due,
			Reference:   ref,
			Description: "Credit sale " + inv.Number,
			CreatedBy:   userID,
		}, inv.PaidAmount)
		if err != nil {
			return err
		}
		result, err = o.debts.PayDebtTx(ctx, tx, d, cmd.input(userID))
		return err
	})
	if err != nil {
		return nil, err
	}
	o.metrics.RecordPayment(ctx, string(result.Debt.DebtorType), result.Payment.Amount)
	return result, nil
}

// RecordSupplierPayment pays a received credit purchase order
func (o *Orchestrator) RecordSupplierPayment(ctx context.Context, cmd DocumentPaymentCommand, userID uuid.UUID) (*appdebt.PaymentResult, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	pre, err := o.runner.Repositories().PurchaseOrders().FindByID(ctx, cmd.DocumentID)
	if err != nil {
		return nil, err
	}
	ref := shared.NewReference(shared.ReferencePurchaseOrder, pre.ID)
	keys := []string{core.KeyPurchaseOrder(pre.ID), core.KeySupplier(pre.SupplierID), core.KeyTreasury}
	debtKeys, err := o.debtLockKey(ctx, ref)
	if err != nil {
		return nil, err
	}
	keys = append(keys, debtKeys...)

	var result *appdebt.PaymentResult
	err = o.run(ctx, core.Unit{Name: "sales.supplier_payment", IdempotencyKey: cmd.IdempotencyKey, LockKeys: keys}, func(tx *core.Tx) error {
		po, err := tx.PurchaseOrders().FindByID(ctx, cmd.DocumentID)
		if err != nil {
			return err
		}
		if err := po.CanAcceptPayment(cmd.Amount); err != nil {
			return err
		}
		d, err := o.debts.EnsureDocumentDebtTx(ctx, tx, debt.NewDebtInput{
			DebtorID:    po.SupplierID,
			DebtorType:  debt.DebtorSupplier,
			Amount:      po.TotalCost,
			DueDate:     purchaseDue(po),
			Reference:   ref,
			Description: "Credit purchase " + po.Number,
			CreatedBy:   userID,
		}, po.PaidAmount)
		if err != nil {
			return err
		}
		result, err = o.debts.PayDebtTx(ctx, tx, d, cmd.input(userID))
		return err
	})
	if err != nil {
		return nil, err
	}
	o.metrics.RecordPayment(ctx, string(result.Debt.DebtorType), result.Payment.Amount)
	return result, nil
}

// SettlementType selects the side of a settlement
type SettlementType string

const (
	SettleReceivable SettlementType = "receivable"
	SettlePayable    SettlementType = "payable"
)

// SettleDebtCommand pays a receivable or payable. ID is an invoice or purchase
// order ID, or the ID of a debt.
type SettleDebtCommand struct {
	Type           SettlementType       `json:"type" validate:"required,oneof=receivable payable"`
	ID             uuid.UUID            `json:"id" validate:"required"`
	Amount         decimal.Decimal      `json:"amount" validate:"gt=0"`
	Method         shared.PaymentMethod `json:"method" validate:"required,oneof=cash bank_transfer check cash_wallet"`
	Note           string               `json:"note" validate:"max=500"`
	IdempotencyKey string               `json:"idempotency_key"`
}

// SettleDebt resolves the ID to a document or a debt and pays it
func (o *Orchestrator) SettleDebt(ctx context.Context, cmd SettleDebtCommand, userID uuid.UUID) (*appdebt.PaymentResult, error) {
	if err := core.Validate(cmd); err != nil {
		return nil, err
	}
	repos := o.runner.Repositories()
	doc := DocumentPaymentCommand{
		DocumentID:     cmd.ID,
		Amount:         cmd.Amount,
		Method:         cmd.Method,
		Note:           cmd.Note,
		IdempotencyKey: cmd.IdempotencyKey,
	}

	if cmd.Type == SettleReceivable {
		_, err := repos.Invoices().FindByID(ctx, cmd.ID)
		if err == nil {
			return o.RecordCustomerPayment(ctx, doc, userID)
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	} else {
		_, err := repos.PurchaseOrders().FindByID(ctx, cmd.ID)
		if err == nil {
			return o.RecordSupplierPayment(ctx, doc, userID)
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	d, err := repos.Debts().FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}
	if d.IsReceivable() != (cmd.Type == SettleReceivable) {
		return nil, shared.NewValidationError("SETTLEMENT_TYPE_MISMATCH", "Debt "+d.ID.String()+" is not a "+string(cmd.Type))
	}
	return o.debts.RecordPayment(ctx, appdebt.PaymentCommand{
		DebtID:         d.ID,
		Amount:         cmd.Amount,
		Method:         cmd.Method,
		Note:           cmd.Note,
		IdempotencyKey: cmd.IdempotencyKey,
	}, userID)
}
