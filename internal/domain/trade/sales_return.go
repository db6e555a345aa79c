package trade

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// RefundMethod is how a return is paid back
type RefundMethod string

const (
	RefundCash            RefundMethod = "cash"
	RefundCustomerBalance RefundMethod = "customerBalance"
)

// IsValid checks if the refund method is known
func (m RefundMethod) IsValid() bool {
	return m == RefundCash || m == RefundCustomerBalance
}

// SalesReturnItem is one returned line
type SalesReturnItem struct {
	ID           uuid.UUID
	ProductID    uuid.UUID
	ProductName  string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	RefundAmount decimal.Decimal
	CostAmount   decimal.Decimal
	Reason       string
	Location     stock.Location
}

// SalesReturn records goods given back against an invoice. The invoice itself
// only tracks returned quantities; this record carries the money.
type SalesReturn struct {
	shared.BaseAggregateRoot
	Number       string
	Date         time.Time
	InvoiceID    uuid.UUID
	CustomerID   *uuid.UUID
	Items        []SalesReturnItem
	TotalRefund  decimal.Decimal
	TotalCost    decimal.Decimal
	RefundMethod RefundMethod
	// AppliedToDebt is the part of the refund that reduced what the customer owed
	AppliedToDebt decimal.Decimal
	// CreditBalanceAdded is the part that became store credit
	CreditBalanceAdded decimal.Decimal
	// TreasuryDeducted is the cash paid out
	TreasuryDeducted decimal.Decimal
	Reason           string
	CreatedBy        uuid.UUID
}

// FormatReturnNumber renders the display number of a sales return
func FormatReturnNumber(n int64) string {
	return fmt.Sprintf("RET-%06d", n)
}

// NewSalesReturn builds a return for priced items
func NewSalesReturn(inv *Invoice, items []SalesReturnItem, method RefundMethod, reason string, userID uuid.UUID, sequence int64) (*SalesReturn, error) {
	if !method.IsValid() {
		return nil, shared.NewValidationError("INVALID_REFUND_METHOD", fmt.Sprintf("Unknown refund method %q", method))
	}
	if method == RefundCustomerBalance && inv.CustomerID == nil {
		return nil, shared.NewValidationError("CUSTOMER_REQUIRED", "A customer balance refund requires a customer")
	}
	if len(items) == 0 {
		return nil, shared.NewValidationError("EMPTY_RETURN", "Return must have at least one item")
	}

	r := &SalesReturn{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		Number:             FormatReturnNumber(sequence),
		Date:               time.Now(),
		InvoiceID:          inv.ID,
		CustomerID:         inv.CustomerID,
		Items:              items,
		TotalRefund:        decimal.Zero,
		TotalCost:          decimal.Zero,
		RefundMethod:       method,
		AppliedToDebt:      decimal.Zero,
		CreditBalanceAdded: decimal.Zero,
		TreasuryDeducted:   decimal.Zero,
		Reason:             reason,
		CreatedBy:          userID,
	}
	for _, it := range items {
		r.TotalRefund = r.TotalRefund.Add(it.RefundAmount)
		r.TotalCost = r.TotalCost.Add(it.CostAmount)
	}
	return r, nil
}
