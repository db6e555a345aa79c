package debt

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	"github.com/retail/backoffice/internal/domain/debt"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SyncReport counts what SyncDebts changed for one debtor
type SyncReport struct {
	DebtorID         uuid.UUID       `json:"debtor_id"`
	DebtorType       debt.DebtorType `json:"debtor_type"`
	DocumentsChecked int             `json:"documents_checked"`
	DebtsCreated     int             `json:"debts_created"`
	SyncPayments     int             `json:"sync_payments"`
	DocumentCatchUps int             `json:"document_catch_ups"`
	DebtsCancelled   int             `json:"debts_cancelled"`
}

// Changed reports whether anything was written
func (r *SyncReport) Changed() bool {
	return r.DebtsCreated+r.SyncPayments+r.DocumentCatchUps+r.DebtsCancelled > 0
}

// documentBalance is the part of an invoice or purchase order sync compares
type documentBalance struct {
	ref      shared.Reference
	number   string
	amount   decimal.Decimal // what the debt should have been created for
	paid     decimal.Decimal
	dueDate  time.Time
	reversed bool
	catchUp  func(amount decimal.Decimal, userID uuid.UUID) error
	save     func(ctx context.Context) error
}

// SyncDebts realigns a debtor's debts with their credit documents. Money moved
// here is bookkeeping between two records of the same obligation, so the
// payments it books use internal_transfer and post nothing to the ledger or treasury.
func (s *DebtService) SyncDebts(ctx context.Context, debtorID uuid.UUID, debtorType debt.DebtorType, userID uuid.UUID) (*SyncReport, error) {
	if !debtorType.IsValid() {
		return nil, shared.NewValidationError("INVALID_DEBTOR_TYPE", "Debtor type must be Customer or Supplier")
	}
	partnerKey := core.KeyCustomer(debtorID)
	if debtorType == debt.DebtorSupplier {
		partnerKey = core.KeySupplier(debtorID)
	}

	report := &SyncReport{DebtorID: debtorID, DebtorType: debtorType}
	err := s.runner.Run(ctx, core.Unit{Name: "debt.sync", LockKeys: []string{partnerKey}}, func(tx *core.Tx) error {
		docs, err := s.creditDocuments(ctx, tx, debtorID, debtorType)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			report.DocumentsChecked++
			if err := s.syncDocument(ctx, tx, debtorID, debtorType, doc, userID, report); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if report.Changed() {
		s.logger.Info("Debts synchronized",
			zap.String("debtor_id", debtorID.String()),
			zap.Int("created", report.DebtsCreated),
			zap.Int("sync_payments", report.SyncPayments),
			zap.Int("catch_ups", report.DocumentCatchUps),
			zap.Int("cancelled", report.DebtsCancelled))
	}
	return report, nil
}

func (s *DebtService) creditDocuments(ctx context.Context, tx *core.Tx, debtorID uuid.UUID, debtorType debt.DebtorType) ([]documentBalance, error) {
	var docs []documentBalance
	if debtorType == debt.DebtorCustomer {
		if _, err := tx.Customers().FindByID(ctx, debtorID); err != nil {
			return nil, err
		}
		invoices, err := tx.Invoices().FindCreditByCustomer(ctx, debtorID)
		if err != nil {
			return nil, err
		}
		for _, inv := range invoices {
			inv := inv
			due := inv.Date
			if inv.DueDate != nil {
				due = *inv.DueDate
			}
			docs = append(docs, documentBalance{
				ref:      shared.NewReference(shared.ReferenceInvoice, inv.ID),
				number:   inv.Number,
				amount:   inv.Total.Sub(inv.CreditedAmount),
				paid:     inv.PaidAmount,
				dueDate:  due,
				reversed: inv.IsReversed,
				catchUp: func(amount decimal.Decimal, userID uuid.UUID) error {
					return inv.CatchUpPayment(decimal.Min(amount, inv.Outstanding()), userID)
				},
				save: func(ctx context.Context) error { return tx.Invoices().Save(ctx, inv) },
			})
		}
		return docs, nil
	}

	if _, err := tx.Suppliers().FindByID(ctx, debtorID); err != nil {
		return nil, err
	}
	orders, err := tx.PurchaseOrders().FindCreditBySupplier(ctx, debtorID)
	if err != nil {
		return nil, err
	}
	for _, po := range orders {
		po := po
		docs = append(docs, documentBalance{
			ref:     shared.NewReference(shared.ReferencePurchaseOrder, po.ID),
			number:  po.Number,
			amount:  po.TotalCost,
			paid:    po.PaidAmount,
			dueDate: purchaseDueDate(po),
			catchUp: func(amount decimal.Decimal, userID uuid.UUID) error {
				return po.CatchUpPayment(decimal.Min(amount, po.Outstanding()), userID)
			},
			save: func(ctx context.Context) error { return tx.PurchaseOrders().Save(ctx, po) },
		})
	}
	return docs, nil
}

func (s *DebtService) syncDocument(ctx context.Context, tx *core.Tx, debtorID uuid.UUID, debtorType debt.DebtorType, doc documentBalance, userID uuid.UUID, report *SyncReport) error {
	d, err := tx.Debts().FindByReference(ctx, doc.ref)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	found := err == nil

	if doc.reversed {
		if found && !d.Status.IsTerminal() {
			if _, _, err := s.CancelDocumentDebtTx(ctx, tx, doc.ref, userID, "Document "+doc.number+" reversed"); err != nil {
				return err
			}
			report.DebtsCancelled++
		}
		return nil
	}

	if !found {
		if !doc.amount.Sub(doc.paid).IsPositive() {
			return nil
		}
		d, _, err = s.CreateDebtTx(ctx, tx, debt.NewDebtInput{
			DebtorID:    debtorID,
			DebtorType:  debtorType,
			Amount:      doc.amount,
			DueDate:     doc.dueDate,
			Reference:   doc.ref,
			Description: "Synchronized from " + doc.number,
			CreatedBy:   userID,
		})
		if err != nil {
			return err
		}
		report.DebtsCreated++
	}
	if d.Status.IsTerminal() {
		return nil
	}

	debtPaid := d.PaidAmount()
	switch {
	case doc.paid.GreaterThan(debtPaid):
		amount := decimal.Min(doc.paid.Sub(debtPaid), d.RemainingAmount)
		if !amount.IsPositive() {
			return nil
		}
		p, err := d.RecordPayment(amount, shared.PaymentMethodInternalTransfer, "Synchronized from "+doc.number, time.Now(), userID)
		if err != nil {
			return err
		}
		if err := tx.Debts().Save(ctx, d); err != nil {
			return err
		}
		if err := tx.DebtPayments().Create(ctx, p); err != nil {
			return err
		}
		tx.Collect(d)
		report.SyncPayments++
	case debtPaid.GreaterThan(doc.paid):
		if err := doc.catchUp(debtPaid.Sub(doc.paid), userID); err != nil {
			return err
		}
		if err := doc.save(ctx); err != nil {
			return err
		}
		report.DocumentCatchUps++
	}
	return nil
}

// EnsureDocumentDebtTx returns the debt of a credit document. A missing debt
// is created for the document's full amount (in.Amount), and what the document
// already collected is booked on it as an internal_transfer payment, the same
// way SyncDebts rebuilds one.
func (s *DebtService) EnsureDocumentDebtTx(ctx context.Context, tx *core.Tx, in debt.NewDebtInput, paid decimal.Decimal) (*debt.Debt, error) {
	d, created, err := s.CreateDebtTx(ctx, tx, in)
	if err != nil {
		return nil, err
	}
	if !created {
		return d, nil
	}
	s.logger.Warn("Credit document had no debt; created one",
		zap.String("reference", in.Reference.String()),
		zap.String("amount", in.Amount.String()),
		zap.String("already_paid", paid.String()))

	if amount := decimal.Min(paid, d.RemainingAmount); amount.IsPositive() {
		p, err := d.RecordPayment(amount, shared.PaymentMethodInternalTransfer, "Collected before the debt was opened", time.Now(), in.CreatedBy)
		if err != nil {
			return nil, err
		}
		if err := tx.Debts().Save(ctx, d); err != nil {
			return nil, err
		}
		if err := tx.DebtPayments().Create(ctx, p); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func purchaseDueDate(po *trade.PurchaseOrder) time.Time {
	switch {
	case po.DueDate != nil:
		return *po.DueDate
	case po.ReceivedDate != nil:
		return *po.ReceivedDate
	default:
		return po.CreatedAt
	}
}

// GetDebtOverview ages every open receivable and payable as of now: open credit
// invoices, received credit purchase orders and manual debts. Documents whose
// debt was written off or cancelled are left out.
func (s *DebtService) GetDebtOverview(ctx context.Context, now time.Time) (*debt.Overview, error) {
	repos := s.runner.Repositories()
	var items []debt.OpenItem

	invoices, err := repos.Invoices().FindOpenCredit(ctx, nil)
	if err != nil {
		return nil, err
	}
	closedInvoices, err := repos.Debts().FindClosedReferences(ctx, shared.ReferenceInvoice)
	if err != nil {
		return nil, err
	}
	customerIDs := make([]uuid.UUID, 0, len(invoices))
	for _, inv := range invoices {
		if inv.CustomerID == nil || closedInvoices[inv.ID] {
			continue
		}
		ref := shared.NewReference(shared.ReferenceInvoice, inv.ID)
		due := inv.Date
		if inv.DueDate != nil {
			due = *inv.DueDate
		}
		items = append(items, debt.OpenItem{
			DebtorID:   *inv.CustomerID,
			DebtorName: inv.CustomerName,
			DebtorType: debt.DebtorCustomer,
			Reference:  ref,
			Balance:    inv.Outstanding(),
			DueDate:    due,
		})
		customerIDs = append(customerIDs, *inv.CustomerID)
	}

	orders, err := repos.PurchaseOrders().FindOpenCredit(ctx, nil)
	if err != nil {
		return nil, err
	}
	closedOrders, err := repos.Debts().FindClosedReferences(ctx, shared.ReferencePurchaseOrder)
	if err != nil {
		return nil, err
	}
	for _, po := range orders {
		if closedOrders[po.ID] {
			continue
		}
		ref := shared.NewReference(shared.ReferencePurchaseOrder, po.ID)
		items = append(items, debt.OpenItem{
			DebtorID:   po.SupplierID,
			DebtorName: po.SupplierName,
			DebtorType: debt.DebtorSupplier,
			Reference:  ref,
			Balance:    po.Outstanding(),
			DueDate:    purchaseDueDate(po),
		})
	}

	manual, err := s.openManualDebts(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range manual {
		items = append(items, debt.OpenItem{
			DebtorID:   d.DebtorID,
			DebtorType: d.DebtorType,
			Reference:  LedgerReference(d),
			Balance:    d.RemainingAmount,
			DueDate:    d.DueDate,
		})
		if d.IsReceivable() {
			customerIDs = append(customerIDs, d.DebtorID)
		}
	}

	creditLimits := make(map[uuid.UUID]decimal.Decimal)
	if len(customerIDs) > 0 {
		customers, err := repos.Customers().FindByIDs(ctx, customerIDs)
		if err != nil {
			return nil, err
		}
		for id, c := range customers {
			creditLimits[id] = c.CreditLimit
		}
		for i := range items {
			if items[i].DebtorName == "" && items[i].DebtorType == debt.DebtorCustomer {
				if c, ok := customers[items[i].DebtorID]; ok {
					items[i].DebtorName = c.Name
				}
			}
		}
	}
	if err := s.nameSuppliers(ctx, items); err != nil {
		return nil, err
	}

	return debt.BuildOverview(now, items, creditLimits), nil
}

func (s *DebtService) openManualDebts(ctx context.Context) ([]*debt.Debt, error) {
	open, err := s.runner.Repositories().Debts().FindOpen(ctx, "")
	if err != nil {
		return nil, err
	}
	manual := make([]*debt.Debt, 0, len(open))
	for _, d := range open {
		if d.IsManual() {
			manual = append(manual, d)
		}
	}
	return manual, nil
}

func (s *DebtService) nameSuppliers(ctx context.Context, items []debt.OpenItem) error {
	var ids []uuid.UUID
	for _, it := range items {
		if it.DebtorName == "" && it.DebtorType == debt.DebtorSupplier {
			ids = append(ids, it.DebtorID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	suppliers, err := s.runner.Repositories().Suppliers().FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range items {
		if sup, ok := suppliers[items[i].DebtorID]; ok && items[i].DebtorName == "" {
			items[i].DebtorName = sup.Name
		}
	}
	return nil
}
