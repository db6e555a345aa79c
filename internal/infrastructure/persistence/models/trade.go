package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/retail/backoffice/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate.
// Items live in invoice_items; payments are stored as JSON.
type InvoiceModel struct {
	AggregateModel
	Number         string                 `gorm:"type:varchar(30);not null;uniqueIndex"`
	Date           time.Time              `gorm:"not null;index"`
	CustomerID     *uuid.UUID             `gorm:"type:uuid;index"`
	CustomerName   string                 `gorm:"type:varchar(200)"`
	Subtotal       decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Discount       decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	Tax            decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	Total          decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	TotalCost      decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Profit         decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	PaymentType    trade.PaymentType      `gorm:"type:varchar(20);not null;index"`
	PaymentStatus  trade.PaymentStatus    `gorm:"type:varchar(20);not null;index"`
	PaidAmount     decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	Payments       trade.DocumentPayments `gorm:"type:jsonb"`
	DueDate        *time.Time
	ReturnedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CreditedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	IsReversed     bool            `gorm:"not null;default:false;index"`
	ReversedAt     *time.Time
	ReversedBy     *uuid.UUID `gorm:"type:uuid"`
	ReversalReason string     `gorm:"type:text"`
	Notes          string     `gorm:"type:text"`
	CreatedBy      uuid.UUID  `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceItemModel is one line of an invoice
type InvoiceItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo      int             `gorm:"not null"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Profit      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Location    stock.Location  `gorm:"type:varchar(20)"`
	ReturnedQty decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence models to a domain Invoice
func (m *InvoiceModel) ToDomain(items []InvoiceItemModel) *trade.Invoice {
	inv := &trade.Invoice{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Number:            m.Number,
		Date:              m.Date,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		Items:             make([]trade.InvoiceItem, 0, len(items)),
		Subtotal:          m.Subtotal,
		Discount:          m.Discount,
		Tax:               m.Tax,
		Total:             m.Total,
		TotalCost:         m.TotalCost,
		Profit:            m.Profit,
		PaymentType:       m.PaymentType,
		PaymentStatus:     m.PaymentStatus,
		PaidAmount:        m.PaidAmount,
		Payments:          m.Payments,
		DueDate:           m.DueDate,
		ReturnedAmount:    m.ReturnedAmount,
		CreditedAmount:    m.CreditedAmount,
		IsReversed:        m.IsReversed,
		ReversedAt:        m.ReversedAt,
		ReversedBy:        m.ReversedBy,
		ReversalReason:    m.ReversalReason,
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
	}
	if inv.Payments == nil {
		inv.Payments = trade.DocumentPayments{}
	}
	for _, it := range items {
		inv.Items = append(inv.Items, trade.InvoiceItem{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			CostPrice:   it.CostPrice,
			LineTotal:   it.LineTotal,
			Profit:      it.Profit,
			Location:    it.Location,
			ReturnedQty: it.ReturnedQty,
		})
	}
	return inv
}

// InvoiceModelFromDomain creates persistence models from a domain Invoice
func InvoiceModelFromDomain(inv *trade.Invoice) (*InvoiceModel, []InvoiceItemModel) {
	m := &InvoiceModel{
		Number:         inv.Number,
		Date:           inv.Date,
		CustomerID:     inv.CustomerID,
		CustomerName:   inv.CustomerName,
		Subtotal:       inv.Subtotal,
		Discount:       inv.Discount,
		Tax:            inv.Tax,
		Total:          inv.Total,
		TotalCost:      inv.TotalCost,
		Profit:         inv.Profit,
		PaymentType:    inv.PaymentType,
		PaymentStatus:  inv.PaymentStatus,
		PaidAmount:     inv.PaidAmount,
		Payments:       inv.Payments,
		DueDate:        inv.DueDate,
		ReturnedAmount: inv.ReturnedAmount,
		CreditedAmount: inv.CreditedAmount,
		IsReversed:     inv.IsReversed,
		ReversedAt:     inv.ReversedAt,
		ReversedBy:     inv.ReversedBy,
		ReversalReason: inv.ReversalReason,
		Notes:          inv.Notes,
		CreatedBy:      inv.CreatedBy,
	}
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)

	items := make([]InvoiceItemModel, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = InvoiceItemModel{
			ID:          it.ID,
			InvoiceID:   inv.ID,
			LineNo:      i + 1,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			CostPrice:   it.CostPrice,
			LineTotal:   it.LineTotal,
			Profit:      it.Profit,
			Location:    it.Location,
			ReturnedQty: it.ReturnedQty,
		}
	}
	return m, items
}

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate
type PurchaseOrderModel struct {
	AggregateModel
	Number        string                    `gorm:"type:varchar(30);not null;uniqueIndex"`
	SupplierID    uuid.UUID                 `gorm:"type:uuid;not null;index"`
	SupplierName  string                    `gorm:"type:varchar(200)"`
	TotalCost     decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	Status        trade.PurchaseOrderStatus `gorm:"type:varchar(20);not null;index"`
	PaymentType   trade.PaymentType         `gorm:"type:varchar(20);not null"`
	PaymentStatus trade.PaymentStatus       `gorm:"type:varchar(20);not null"`
	PaidAmount    decimal.Decimal           `gorm:"type:decimal(18,2);not null;default:0"`
	Payments      trade.DocumentPayments    `gorm:"type:jsonb"`
	ExpectedDate  *time.Time
	ReceivedDate  *time.Time
	DueDate       *time.Time
	CancelledAt   *time.Time
	Notes         string    `gorm:"type:text"`
	CreatedBy     uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// PurchaseOrderItemModel is one line of a purchase order
type PurchaseOrderItemModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo          int             `gorm:"not null"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName     string          `gorm:"type:varchar(200)"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CostPrice       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ReceivedQty     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Location        stock.Location  `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the persistence models to a domain PurchaseOrder
func (m *PurchaseOrderModel) ToDomain(items []PurchaseOrderItemModel) *trade.PurchaseOrder {
	po := &trade.PurchaseOrder{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Number:            m.Number,
		SupplierID:        m.SupplierID,
		SupplierName:      m.SupplierName,
		Items:             make([]trade.PurchaseOrderItem, 0, len(items)),
		TotalCost:         m.TotalCost,
		Status:            m.Status,
		PaymentType:       m.PaymentType,
		PaymentStatus:     m.PaymentStatus,
		PaidAmount:        m.PaidAmount,
		Payments:          m.Payments,
		ExpectedDate:      m.ExpectedDate,
		ReceivedDate:      m.ReceivedDate,
		DueDate:           m.DueDate,
		CancelledAt:       m.CancelledAt,
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
	}
	if po.Payments == nil {
		po.Payments = trade.DocumentPayments{}
	}
	for _, it := range items {
		po.Items = append(po.Items, trade.PurchaseOrderItem{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			CostPrice:   it.CostPrice,
			LineTotal:   it.LineTotal,
			ReceivedQty: it.ReceivedQty,
			Location:    it.Location,
		})
	}
	return po
}

// PurchaseOrderModelFromDomain creates persistence models from a domain PurchaseOrder
func PurchaseOrderModelFromDomain(po *trade.PurchaseOrder) (*PurchaseOrderModel, []PurchaseOrderItemModel) {
	m := &PurchaseOrderModel{
		Number:        po.Number,
		SupplierID:    po.SupplierID,
		SupplierName:  po.SupplierName,
		TotalCost:     po.TotalCost,
		Status:        po.Status,
		PaymentType:   po.PaymentType,
		PaymentStatus: po.PaymentStatus,
		PaidAmount:    po.PaidAmount,
		Payments:      po.Payments,
		ExpectedDate:  po.ExpectedDate,
		ReceivedDate:  po.ReceivedDate,
		DueDate:       po.DueDate,
		CancelledAt:   po.CancelledAt,
		Notes:         po.Notes,
		CreatedBy:     po.CreatedBy,
	}
	m.FromDomainAggregateRoot(po.BaseAggregateRoot)

	items := make([]PurchaseOrderItemModel, len(po.Items))
	for i, it := range po.Items {
		items[i] = PurchaseOrderItemModel{
			ID:              it.ID,
			PurchaseOrderID: po.ID,
			LineNo:          i + 1,
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			Quantity:        it.Quantity,
			CostPrice:       it.CostPrice,
			LineTotal:       it.LineTotal,
			ReceivedQty:     it.ReceivedQty,
			Location:        it.Location,
		}
	}
	return m, items
}

// SalesReturnModel is the persistence model for the SalesReturn aggregate
type SalesReturnModel struct {
	AggregateModel
	Number             string             `gorm:"type:varchar(30);not null;uniqueIndex"`
	Date               time.Time          `gorm:"not null;index"`
	InvoiceID          uuid.UUID          `gorm:"type:uuid;not null;index"`
	CustomerID         *uuid.UUID         `gorm:"type:uuid;index"`
	TotalRefund        decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	TotalCost          decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	RefundMethod       trade.RefundMethod `gorm:"type:varchar(20);not null"`
	AppliedToDebt      decimal.Decimal    `gorm:"type:decimal(18,2);not null;default:0"`
	CreditBalanceAdded decimal.Decimal    `gorm:"type:decimal(18,2);not null;default:0"`
	TreasuryDeducted   decimal.Decimal    `gorm:"type:decimal(18,2);not null;default:0"`
	Reason             string             `gorm:"type:text"`
	CreatedBy          uuid.UUID          `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (SalesReturnModel) TableName() string {
	return "sales_returns"
}

// SalesReturnItemModel is one line of a sales return
type SalesReturnItemModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SalesReturnID uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo        int             `gorm:"not null"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName   string          `gorm:"type:varchar(200)"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	RefundAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CostAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Reason        string          `gorm:"type:text"`
	Location      stock.Location  `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (SalesReturnItemModel) TableName() string {
	return "sales_return_items"
}

// ToDomain converts the persistence models to a domain SalesReturn
func (m *SalesReturnModel) ToDomain(items []SalesReturnItemModel) *trade.SalesReturn {
	r := &trade.SalesReturn{
		BaseAggregateRoot:  m.ToAggregateRoot(),
		Number:             m.Number,
		Date:               m.Date,
		InvoiceID:          m.InvoiceID,
		CustomerID:         m.CustomerID,
		Items:              make([]trade.SalesReturnItem, 0, len(items)),
		TotalRefund:        m.TotalRefund,
		TotalCost:          m.TotalCost,
		RefundMethod:       m.RefundMethod,
		AppliedToDebt:      m.AppliedToDebt,
		CreditBalanceAdded: m.CreditBalanceAdded,
		TreasuryDeducted:   m.TreasuryDeducted,
		Reason:             m.Reason,
		CreatedBy:          m.CreatedBy,
	}
	for _, it := range items {
		r.Items = append(r.Items, trade.SalesReturnItem{
			ID:           it.ID,
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			RefundAmount: it.RefundAmount,
			CostAmount:   it.CostAmount,
			Reason:       it.Reason,
			Location:     it.Location,
		})
	}
	return r
}

// SalesReturnModelFromDomain creates persistence models from a domain SalesReturn
func SalesReturnModelFromDomain(r *trade.SalesReturn) (*SalesReturnModel, []SalesReturnItemModel) {
	m := &SalesReturnModel{
		Number:             r.Number,
		Date:               r.Date,
		InvoiceID:          r.InvoiceID,
		CustomerID:         r.CustomerID,
		TotalRefund:        r.TotalRefund,
		TotalCost:          r.TotalCost,
		RefundMethod:       r.RefundMethod,
		AppliedToDebt:      r.AppliedToDebt,
		CreditBalanceAdded: r.CreditBalanceAdded,
		TreasuryDeducted:   r.TreasuryDeducted,
		Reason:             r.Reason,
		CreatedBy:          r.CreatedBy,
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)

	items := make([]SalesReturnItemModel, len(r.Items))
	for i, it := range r.Items {
		items[i] = SalesReturnItemModel{
			ID:            it.ID,
			SalesReturnID: r.ID,
			LineNo:        i + 1,
			ProductID:     it.ProductID,
			ProductName:   it.ProductName,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			RefundAmount:  it.RefundAmount,
			CostAmount:    it.CostAmount,
			Reason:        it.Reason,
			Location:      it.Location,
		}
	}
	return m, items
}
