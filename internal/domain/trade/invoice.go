package trade

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/shared/valueobject"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// InvoiceItem is one sold line. Name and cost are snapshotted at sale time.
type InvoiceItem struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	CostPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	Profit      decimal.Decimal
	// Location pins the sale to one stock location; empty draws shop first
	Location    stock.Location
	ReturnedQty decimal.Decimal
}

// ReturnableQty is what can still be returned on the line
func (i *InvoiceItem) ReturnableQty() decimal.Decimal {
	return i.Quantity.Sub(i.ReturnedQty)
}

// InvoiceLineInput describes one line of a new invoice
type InvoiceLineInput struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	CostPrice   decimal.Decimal
	Location    stock.Location
}

// NewInvoiceInput carries everything needed to build a sale
type NewInvoiceInput struct {
	CustomerID   *uuid.UUID
	CustomerName string
	PaymentType  PaymentType
	Lines        []InvoiceLineInput
	Discount     decimal.Decimal
	Tax          decimal.Decimal
	DueDate      *time.Time
	Date         time.Time
	Notes        string
	CreatedBy    uuid.UUID
}

// Invoice is a recorded sale
type Invoice struct {
	shared.BaseAggregateRoot
	Number       string
	Date         time.Time
	CustomerID   *uuid.UUID
	CustomerName string
	Items        []InvoiceItem
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	TotalCost    decimal.Decimal
	Profit       decimal.Decimal

	PaymentType   PaymentType
	PaymentStatus PaymentStatus
	PaidAmount    decimal.Decimal
	Payments      DocumentPayments
	DueDate       *time.Time

	// ReturnedAmount is the value of goods returned against this invoice
	ReturnedAmount decimal.Decimal
	// CreditedAmount is the part of ReturnedAmount that reduced the outstanding balance
	CreditedAmount decimal.Decimal

	IsReversed     bool
	ReversedAt     *time.Time
	ReversedBy     *uuid.UUID
	ReversalReason string

	Notes     string
	CreatedBy uuid.UUID
}

// FormatInvoiceNumber renders the display number of an invoice
func FormatInvoiceNumber(n int64) string {
	return fmt.Sprintf("INV-%06d", n)
}

// NewInvoice validates the lines and computes the totals of a sale.
// Cash and bank sales are paid in full on creation.
func NewInvoice(in NewInvoiceInput, sequence int64) (*Invoice, error) {
	if !in.PaymentType.IsValid() {
		return nil, shared.NewValidationError("INVALID_PAYMENT_TYPE", fmt.Sprintf("Unknown payment type %q", in.PaymentType))
	}
	if in.PaymentType == PaymentTypeCredit && (in.CustomerID == nil || *in.CustomerID == uuid.Nil) {
		return nil, shared.NewValidationError("CUSTOMER_REQUIRED", "A credit sale requires a customer")
	}
	if len(in.Lines) == 0 {
		return nil, shared.NewValidationError("EMPTY_INVOICE", "Invoice must have at least one item")
	}
	if in.Discount.IsNegative() || in.Tax.IsNegative() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Discount and tax cannot be negative")
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            FormatInvoiceNumber(sequence),
		Date:              in.Date,
		CustomerID:        in.CustomerID,
		CustomerName:      in.CustomerName,
		Items:             make([]InvoiceItem, 0, len(in.Lines)),
		Discount:          valueobject.RoundMoney(in.Discount),
		Tax:               valueobject.RoundMoney(in.Tax),
		PaymentType:       in.PaymentType,
		PaidAmount:        decimal.Zero,
		Payments:          DocumentPayments{},
		DueDate:           in.DueDate,
		ReturnedAmount:    decimal.Zero,
		CreditedAmount:    decimal.Zero,
		Notes:             in.Notes,
		CreatedBy:         in.CreatedBy,
	}
	if inv.Date.IsZero() {
		inv.Date = time.Now()
	}

	subtotal, totalCost := decimal.Zero, decimal.Zero
	for _, l := range in.Lines {
		if l.ProductID == uuid.Nil {
			return nil, shared.NewValidationError("INVALID_PRODUCT", "Product ID cannot be empty")
		}
		if !l.Quantity.IsPositive() {
			return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be positive")
		}
		if l.UnitPrice.IsNegative() || l.CostPrice.IsNegative() {
			return nil, shared.NewValidationError("INVALID_PRICE", "Prices cannot be negative")
		}
		if l.Location != "" && !l.Location.IsValid() {
			return nil, shared.NewValidationError("INVALID_LOCATION", fmt.Sprintf("Unknown location %q", l.Location))
		}
		lineTotal := valueobject.RoundMoney(l.Quantity.Mul(l.UnitPrice))
		lineCost := valueobject.RoundMoney(l.Quantity.Mul(l.CostPrice))
		inv.Items = append(inv.Items, InvoiceItem{
			ID:          uuid.New(),
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			CostPrice:   l.CostPrice,
			LineTotal:   lineTotal,
			Profit:      lineTotal.Sub(lineCost),
			Location:    l.Location,
			ReturnedQty: decimal.Zero,
		})
		subtotal = subtotal.Add(lineTotal)
		totalCost = totalCost.Add(lineCost)
	}
	if inv.Discount.GreaterThan(subtotal) {
		return nil, shared.NewValidationError("INVALID_DISCOUNT", "Discount cannot exceed the subtotal")
	}

	inv.Subtotal = subtotal
	inv.Total = subtotal.Sub(inv.Discount).Add(inv.Tax)
	inv.TotalCost = totalCost
	inv.Profit = subtotal.Sub(inv.Discount).Sub(totalCost)
	if !inv.Total.IsPositive() {
		return nil, shared.NewValidationError("INVALID_TOTAL", "Invoice total must be positive")
	}

	if in.PaymentType != PaymentTypeCredit {
		pay, err := newDocumentPayment(inv.Total, in.PaymentType.Method(), "Paid at sale", inv.Date, in.CreatedBy)
		if err != nil {
			return nil, err
		}
		inv.Payments = append(inv.Payments, pay)
		inv.PaidAmount = inv.Total
	}
	inv.PaymentStatus = paymentStatusFor(inv.PaidAmount, inv.Outstanding())
	return inv, nil
}

// IsCredit reports whether the sale was made on credit
func (inv *Invoice) IsCredit() bool {
	return inv.PaymentType == PaymentTypeCredit
}

// Outstanding is what the customer still owes on the invoice
func (inv *Invoice) Outstanding() decimal.Decimal {
	return decimal.Max(inv.Total.Sub(inv.PaidAmount).Sub(inv.CreditedAmount), decimal.Zero)
}

// ProductIDs returns the distinct products on the invoice
func (inv *Invoice) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(inv.Items))
	ids := make([]uuid.UUID, 0, len(inv.Items))
	for _, it := range inv.Items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	return ids
}

// CanAcceptPayment checks a customer payment without changing anything
func (inv *Invoice) CanAcceptPayment(amount decimal.Decimal) error {
	if inv.IsReversed {
		return shared.NewConflictError("INVOICE_REVERSED", fmt.Sprintf("Invoice %s has been reversed", inv.Number))
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThan(inv.Outstanding()) {
		return shared.NewValidationError("AMOUNT_EXCEEDS_REMAINING",
			fmt.Sprintf("Amount %s exceeds remaining invoice balance %s", amount.StringFixed(2), inv.Outstanding().StringFixed(2)))
	}
	return nil
}

// RecordPayment appends a customer payment and moves the payment status forward
func (inv *Invoice) RecordPayment(amount decimal.Decimal, method shared.PaymentMethod, note string, date time.Time, userID uuid.UUID) (*DocumentPayment, error) {
	if err := inv.CanAcceptPayment(amount); err != nil {
		return nil, err
	}
	pay, err := newDocumentPayment(amount, method, note, date, userID)
	if err != nil {
		return nil, err
	}
	inv.Payments = append(inv.Payments, pay)
	inv.PaidAmount = inv.PaidAmount.Add(amount)
	inv.PaymentStatus = paymentStatusFor(inv.PaidAmount, inv.Outstanding())
	inv.Touch()
	return &inv.Payments[len(inv.Payments)-1], nil
}

// CollectedAfterSale returns the non-reversed payments received after the sale itself
func (inv *Invoice) CollectedAfterSale() []DocumentPayment {
	var out []DocumentPayment
	for i, p := range inv.Payments {
		if p.IsReversed {
			continue
		}
		if i == 0 && !inv.IsCredit() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Reverse voids the sale. Every payment is marked reversed; the caller refunds them.
func (inv *Invoice) Reverse(userID uuid.UUID, reason string) error {
	if inv.IsReversed {
		return shared.NewConflictError("ALREADY_REVERSED", fmt.Sprintf("Invoice %s has already been reversed", inv.Number))
	}
	if inv.ReturnedAmount.IsPositive() {
		return shared.NewConflictError("INVOICE_HAS_RETURNS", fmt.Sprintf("Invoice %s has returns and cannot be reversed", inv.Number))
	}
	now := time.Now()
	for i := range inv.Payments {
		inv.Payments[i].IsReversed = true
	}
	inv.IsReversed = true
	inv.ReversedAt = &now
	inv.ReversedBy = &userID
	inv.ReversalReason = reason
	inv.PaidAmount = decimal.Zero
	inv.PaymentStatus = PaymentStatusPending
	inv.Touch()
	return nil
}

// ReturnLine is a requested return quantity for one product of the invoice
type ReturnLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	Reason    string
}

// RegisterReturn validates quantities against what remains returnable, marks
// them returned and prices the refund. The refund of each line follows the
// price actually charged, so a full return refunds exactly the invoice total.
func (inv *Invoice) RegisterReturn(lines []ReturnLine) ([]SalesReturnItem, error) {
	if inv.IsReversed {
		return nil, shared.NewConflictError("INVOICE_REVERSED", fmt.Sprintf("Invoice %s has been reversed", inv.Number))
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("EMPTY_RETURN", "Return must have at least one item")
	}

	requested := make(map[uuid.UUID]decimal.Decimal)
	reasons := make(map[uuid.UUID]string)
	order := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if !l.Quantity.IsPositive() {
			return nil, shared.NewValidationError("INVALID_QUANTITY", "Return quantity must be positive")
		}
		if _, ok := requested[l.ProductID]; !ok {
			order = append(order, l.ProductID)
			requested[l.ProductID] = decimal.Zero
		}
		requested[l.ProductID] = requested[l.ProductID].Add(l.Quantity)
		if l.Reason != "" {
			reasons[l.ProductID] = l.Reason
		}
	}

	for _, pid := range order {
		returnable := decimal.Zero
		for _, it := range inv.Items {
			if it.ProductID == pid {
				returnable = returnable.Add(it.ReturnableQty())
			}
		}
		if requested[pid].GreaterThan(returnable) {
			return nil, shared.NewValidationError("RETURN_EXCEEDS_SOLD",
				fmt.Sprintf("Return quantity %s for product %s exceeds returnable %s", requested[pid], pid, returnable))
		}
	}

	items := make([]SalesReturnItem, 0, len(order))
	for _, pid := range order {
		left := requested[pid]
		for i := range inv.Items {
			it := &inv.Items[i]
			if it.ProductID != pid || !left.IsPositive() {
				continue
			}
			qty := decimal.Min(left, it.ReturnableQty())
			if !qty.IsPositive() {
				continue
			}
			it.ReturnedQty = it.ReturnedQty.Add(qty)
			left = left.Sub(qty)
			items = append(items, SalesReturnItem{
				ID:          uuid.New(),
				ProductID:   pid,
				ProductName: it.ProductName,
				Quantity:    qty,
				UnitPrice:   it.UnitPrice,
				CostAmount:  valueobject.RoundMoney(qty.Mul(it.CostPrice)),
				Reason:      reasons[pid],
				Location:    it.Location,
			})
		}
	}

	inv.priceRefunds(items)
	refund := decimal.Zero
	for _, it := range items {
		refund = refund.Add(it.RefundAmount)
	}
	inv.ReturnedAmount = inv.ReturnedAmount.Add(refund)
	inv.Touch()
	return items, nil
}

// priceRefunds scales each line by the ratio of total to subtotal, so discount
// and tax are returned in proportion. Once everything is returned the last line
// takes whatever is left of the total.
func (inv *Invoice) priceRefunds(items []SalesReturnItem) {
	ratio := decimal.NewFromInt(1)
	if inv.Subtotal.IsPositive() {
		ratio = inv.Total.Div(inv.Subtotal)
	}
	for i := range items {
		items[i].RefundAmount = valueobject.RoundMoney(items[i].Quantity.Mul(items[i].UnitPrice).Mul(ratio))
	}
	if inv.fullyReturned() && len(items) > 0 {
		assigned := decimal.Zero
		for _, it := range items[:len(items)-1] {
			assigned = assigned.Add(it.RefundAmount)
		}
		items[len(items)-1].RefundAmount = inv.Total.Sub(inv.ReturnedAmount).Sub(assigned)
	}
}

func (inv *Invoice) fullyReturned() bool {
	for _, it := range inv.Items {
		if it.ReturnableQty().IsPositive() {
			return false
		}
	}
	return true
}

// ApplyCredit lets a customer-balance refund pay down the outstanding balance.
// It returns the part that was applied; the rest is left for the caller.
func (inv *Invoice) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	applied := decimal.Min(amount, inv.Outstanding())
	if !applied.IsPositive() {
		return decimal.Zero
	}
	inv.CreditedAmount = inv.CreditedAmount.Add(applied)
	inv.PaymentStatus = paymentStatusFor(inv.PaidAmount, inv.Outstanding())
	inv.Touch()
	return applied
}

// CatchUpPayment records money already booked on the linked debt so the
// invoice agrees with it again
func (inv *Invoice) CatchUpPayment(amount decimal.Decimal, userID uuid.UUID) error {
	_, err := inv.RecordPayment(amount, shared.PaymentMethodInternalTransfer, "Synchronized from debt", time.Now(), userID)
	return err
}
