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

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusPending   PurchaseOrderStatus = "PENDING"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "RECEIVED"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "CANCELLED"
)

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// PurchaseOrderItem is one ordered line
type PurchaseOrderItem struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
	CostPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	ReceivedQty decimal.Decimal
	// Location receives the goods; empty means the warehouse
	Location stock.Location
}

// ReceiveLocation is where the line's goods are put away
func (i *PurchaseOrderItem) ReceiveLocation() stock.Location {
	if i.Location == "" {
		return stock.LocationWarehouse
	}
	return i.Location
}

// PurchaseOrderLineInput describes one line of a new purchase order
type PurchaseOrderLineInput struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
	CostPrice   decimal.Decimal
	Location    stock.Location
}

// PurchaseOrder is an order placed with a supplier
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	Number        string
	SupplierID    uuid.UUID
	SupplierName  string
	Items         []PurchaseOrderItem
	TotalCost     decimal.Decimal
	Status        PurchaseOrderStatus
	PaymentType   PaymentType
	PaymentStatus PaymentStatus
	PaidAmount    decimal.Decimal
	Payments      DocumentPayments
	ExpectedDate  *time.Time
	ReceivedDate  *time.Time
	DueDate       *time.Time
	CancelledAt   *time.Time
	Notes         string
	CreatedBy     uuid.UUID
}

// FormatPurchaseOrderNumber renders the display number of a purchase order
func FormatPurchaseOrderNumber(n int64) string {
	return fmt.Sprintf("PO-%06d", n)
}

// NewPurchaseOrder creates a pending purchase order
func NewPurchaseOrder(supplierID uuid.UUID, supplierName string, lines []PurchaseOrderLineInput, expected *time.Time, notes string, userID uuid.UUID, sequence int64) (*PurchaseOrder, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_SUPPLIER", "Supplier is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("EMPTY_ORDER", "Purchase order must have at least one item")
	}
	po := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            FormatPurchaseOrderNumber(sequence),
		SupplierID:        supplierID,
		SupplierName:      supplierName,
		Items:             make([]PurchaseOrderItem, 0, len(lines)),
		TotalCost:         decimal.Zero,
		Status:            PurchaseOrderStatusPending,
		PaymentStatus:     PaymentStatusPending,
		PaidAmount:        decimal.Zero,
		Payments:          DocumentPayments{},
		ExpectedDate:      expected,
		Notes:             notes,
		CreatedBy:         userID,
	}
	for _, l := range lines {
		if l.ProductID == uuid.Nil {
			return nil, shared.NewValidationError("INVALID_PRODUCT", "Product ID cannot be empty")
		}
		if !l.Quantity.IsPositive() {
			return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be positive")
		}
		if l.CostPrice.IsNegative() {
			return nil, shared.NewValidationError("INVALID_PRICE", "Cost price cannot be negative")
		}
		if l.Location != "" && !l.Location.IsValid() {
			return nil, shared.NewValidationError("INVALID_LOCATION", fmt.Sprintf("Unknown location %q", l.Location))
		}
		lineTotal := valueobject.RoundMoney(l.Quantity.Mul(l.CostPrice))
		po.Items = append(po.Items, PurchaseOrderItem{
			ID:          uuid.New(),
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			CostPrice:   l.CostPrice,
			LineTotal:   lineTotal,
			ReceivedQty: decimal.Zero,
			Location:    l.Location,
		})
		po.TotalCost = po.TotalCost.Add(lineTotal)
	}
	if !po.TotalCost.IsPositive() {
		return nil, shared.NewValidationError("INVALID_TOTAL", "Purchase order total must be positive")
	}
	return po, nil
}

// IsCredit reports whether the order was received on credit
func (po *PurchaseOrder) IsCredit() bool {
	return po.PaymentType == PaymentTypeCredit
}

// Outstanding is what the business still owes on the order
func (po *PurchaseOrder) Outstanding() decimal.Decimal {
	if po.Status != PurchaseOrderStatusReceived {
		return decimal.Zero
	}
	return decimal.Max(po.TotalCost.Sub(po.PaidAmount), decimal.Zero)
}

// Receive marks the goods as arrived. Cash and bank receipts are paid in full.
func (po *PurchaseOrder) Receive(paymentType PaymentType, dueDate *time.Time, at time.Time, userID uuid.UUID) error {
	if po.Status != PurchaseOrderStatusPending {
		return shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot receive purchase order in %s status", po.Status))
	}
	if !paymentType.IsValid() {
		return shared.NewValidationError("INVALID_PAYMENT_TYPE", fmt.Sprintf("Unknown payment type %q", paymentType))
	}
	for i := range po.Items {
		po.Items[i].ReceivedQty = po.Items[i].Quantity
	}
	po.Status = PurchaseOrderStatusReceived
	po.PaymentType = paymentType
	po.ReceivedDate = &at
	po.DueDate = dueDate
	if paymentType != PaymentTypeCredit {
		pay, err := newDocumentPayment(po.TotalCost, paymentType.Method(), "Paid on receipt", at, userID)
		if err != nil {
			return err
		}
		po.Payments = append(po.Payments, pay)
		po.PaidAmount = po.TotalCost
	}
	po.PaymentStatus = paymentStatusFor(po.PaidAmount, po.Outstanding())
	po.Touch()
	return nil
}

// Cancel abandons a pending order
func (po *PurchaseOrder) Cancel() error {
	if po.Status != PurchaseOrderStatusPending {
		return shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot cancel purchase order in %s status", po.Status))
	}
	now := time.Now()
	po.Status = PurchaseOrderStatusCancelled
	po.CancelledAt = &now
	po.Touch()
	return nil
}

// CanAcceptPayment checks a supplier payment without changing anything
func (po *PurchaseOrder) CanAcceptPayment(amount decimal.Decimal) error {
	if po.Status != PurchaseOrderStatusReceived {
		return shared.NewConflictError("INVALID_STATE", "Only received purchase orders can be paid")
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThan(po.Outstanding()) {
		return shared.NewValidationError("AMOUNT_EXCEEDS_REMAINING",
			fmt.Sprintf("Amount %s exceeds remaining order balance %s", amount.StringFixed(2), po.Outstanding().StringFixed(2)))
	}
	return nil
}

// RecordPayment appends a supplier payment
func (po *PurchaseOrder) RecordPayment(amount decimal.Decimal, method shared.PaymentMethod, note string, date time.Time, userID uuid.UUID) (*DocumentPayment, error) {
	if err := po.CanAcceptPayment(amount); err != nil {
		return nil, err
	}
	pay, err := newDocumentPayment(amount, method, note, date, userID)
	if err != nil {
		return nil, err
	}
	po.Payments = append(po.Payments, pay)
	po.PaidAmount = po.PaidAmount.Add(amount)
	po.PaymentStatus = paymentStatusFor(po.PaidAmount, po.Outstanding())
	po.Touch()
	return &po.Payments[len(po.Payments)-1], nil
}

// CatchUpPayment records money already booked on the linked debt
func (po *PurchaseOrder) CatchUpPayment(amount decimal.Decimal, userID uuid.UUID) error {
	_, err := po.RecordPayment(amount, shared.PaymentMethodInternalTransfer, "Synchronized from debt", time.Now(), userID)
	return err
}
