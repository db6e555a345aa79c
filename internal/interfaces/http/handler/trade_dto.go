package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/sales"
	"github.com/retail/backoffice/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// InvoiceItemResponse is one invoice line in API responses
type InvoiceItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Profit      decimal.Decimal `json:"profit"`
	Location    string          `json:"location,omitempty"`
	ReturnedQty decimal.Decimal `json:"returned_qty"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID             uuid.UUID               `json:"id"`
	Number         string                  `json:"number"`
	Date           time.Time               `json:"date"`
	CustomerID     *uuid.UUID              `json:"customer_id,omitempty"`
	CustomerName   string                  `json:"customer_name,omitempty"`
	Items          []InvoiceItemResponse   `json:"items"`
	Subtotal       decimal.Decimal         `json:"subtotal"`
	Discount       decimal.Decimal         `json:"discount"`
	Tax            decimal.Decimal         `json:"tax"`
	Total          decimal.Decimal         `json:"total"`
	TotalCost      decimal.Decimal         `json:"total_cost"`
	Profit         decimal.Decimal         `json:"profit"`
	PaymentType    string                  `json:"payment_type"`
	PaymentStatus  string                  `json:"payment_status"`
	PaidAmount     decimal.Decimal         `json:"paid_amount"`
	Remaining      decimal.Decimal         `json:"remaining"`
	Payments       []trade.DocumentPayment `json:"payments"`
	DueDate        *time.Time              `json:"due_date,omitempty"`
	ReturnedAmount decimal.Decimal         `json:"returned_amount"`
	CreditedAmount decimal.Decimal         `json:"credited_amount"`
	IsReversed     bool                    `json:"is_reversed"`
	ReversedAt     *time.Time              `json:"reversed_at,omitempty"`
	ReversedBy     *uuid.UUID              `json:"reversed_by,omitempty"`
	ReversalReason string                  `json:"reversal_reason,omitempty"`
	Notes          string                  `json:"notes,omitempty"`
	CreatedBy      uuid.UUID               `json:"created_by"`
	CreatedAt      time.Time               `json:"created_at"`
	Version        int                     `json:"version"`
}

func toInvoiceResponse(inv *trade.Invoice) *InvoiceResponse {
	if inv == nil {
		return nil
	}
	items := make([]InvoiceItemResponse, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = InvoiceItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			CostPrice:   it.CostPrice,
			LineTotal:   it.LineTotal,
			Profit:      it.Profit,
			Location:    string(it.Location),
			ReturnedQty: it.ReturnedQty,
		}
	}
	payments := inv.Payments
	if payments == nil {
		payments = trade.DocumentPayments{}
	}
	return &InvoiceResponse{
		ID:             inv.ID,
		Number:         inv.Number,
		Date:           inv.Date,
		CustomerID:     inv.CustomerID,
		CustomerName:   inv.CustomerName,
		Items:          items,
		Subtotal:       inv.Subtotal,
		Discount:       inv.Discount,
		Tax:            inv.Tax,
		Total:          inv.Total,
		TotalCost:      inv.TotalCost,
		Profit:         inv.Profit,
		PaymentType:    string(inv.PaymentType),
		PaymentStatus:  string(inv.PaymentStatus),
		PaidAmount:     inv.PaidAmount,
		Remaining:      inv.Outstanding(),
		Payments:       payments,
		DueDate:        inv.DueDate,
		ReturnedAmount: inv.ReturnedAmount,
		CreditedAmount: inv.CreditedAmount,
		IsReversed:     inv.IsReversed,
		ReversedAt:     inv.ReversedAt,
		ReversedBy:     inv.ReversedBy,
		ReversalReason: inv.ReversalReason,
		Notes:          inv.Notes,
		CreatedBy:      inv.CreatedBy,
		CreatedAt:      inv.CreatedAt,
		Version:        inv.Version,
	}
}

func toInvoiceResponses(invoices []*trade.Invoice) []*InvoiceResponse {
	out := make([]*InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		out[i] = toInvoiceResponse(inv)
	}
	return out
}

// PurchaseOrderItemResponse is one ordered line in API responses
type PurchaseOrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	ReceivedQty decimal.Decimal `json:"received_qty"`
	Location    string          `json:"location"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID            uuid.UUID                   `json:"id"`
	Number        string                      `json:"number"`
	SupplierID    uuid.UUID                   `json:"supplier_id"`
	SupplierName  string                      `json:"supplier_name"`
	Items         []PurchaseOrderItemResponse `json:"items"`
	TotalCost     decimal.Decimal             `json:"total_cost"`
	Status        string                      `json:"status"`
	PaymentType   string                      `json:"payment_type,omitempty"`
	PaymentStatus string                      `json:"payment_status,omitempty"`
	PaidAmount    decimal.Decimal             `json:"paid_amount"`
	Payments      []trade.DocumentPayment     `json:"payments"`
	ExpectedDate  *time.Time                  `json:"expected_date,omitempty"`
	ReceivedDate  *time.Time                  `json:"received_date,omitempty"`
	DueDate       *time.Time                  `json:"due_date,omitempty"`
	CancelledAt   *time.Time                  `json:"cancelled_at,omitempty"`
	Notes         string                      `json:"notes,omitempty"`
	CreatedBy     uuid.UUID                   `json:"created_by"`
	CreatedAt     time.Time                   `json:"created_at"`
	Version       int                         `json:"version"`
}

func toPurchaseOrderResponse(po *trade.PurchaseOrder) *PurchaseOrderResponse {
	if po == nil {
		return nil
	}
	items := make([]PurchaseOrderItemResponse, len(po.Items))
	for i, it := range po.Items {
		items[i] = PurchaseOrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			CostPrice:   it.CostPrice,
			LineTotal:   it.LineTotal,
			ReceivedQty: it.ReceivedQty,
			Location:    string(it.Location),
		}
	}
	payments := po.Payments
	if payments == nil {
		payments = trade.DocumentPayments{}
	}
	return &PurchaseOrderResponse{
		ID:            po.ID,
		Number:        po.Number,
		SupplierID:    po.SupplierID,
		SupplierName:  po.SupplierName,
		Items:         items,
		TotalCost:     po.TotalCost,
		Status:        string(po.Status),
		PaymentType:   string(po.PaymentType),
		PaymentStatus: string(po.PaymentStatus),
		PaidAmount:    po.PaidAmount,
		Payments:      payments,
		ExpectedDate:  po.ExpectedDate,
		ReceivedDate:  po.ReceivedDate,
		DueDate:       po.DueDate,
		CancelledAt:   po.CancelledAt,
		Notes:         po.Notes,
		CreatedBy:     po.CreatedBy,
		CreatedAt:     po.CreatedAt,
		Version:       po.Version,
	}
}

func toPurchaseOrderResponses(orders []*trade.PurchaseOrder) []*PurchaseOrderResponse {
	out := make([]*PurchaseOrderResponse, len(orders))
	for i, po := range orders {
		out[i] = toPurchaseOrderResponse(po)
	}
	return out
}

// SalesReturnItemResponse is one returned line in API responses
type SalesReturnItemResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	CostAmount   decimal.Decimal `json:"cost_amount"`
	Reason       string          `json:"reason,omitempty"`
	Location     string          `json:"location"`
}

// SalesReturnResponse represents a sales return in API responses
type SalesReturnResponse struct {
	ID                 uuid.UUID                 `json:"id"`
	Number             string                    `json:"number"`
	Date               time.Time                 `json:"date"`
	InvoiceID          uuid.UUID                 `json:"invoice_id"`
	CustomerID         *uuid.UUID                `json:"customer_id,omitempty"`
	Items              []SalesReturnItemResponse `json:"items"`
	TotalRefund        decimal.Decimal           `json:"total_refund"`
	TotalCost          decimal.Decimal           `json:"total_cost"`
	RefundMethod       string                    `json:"refund_method"`
	AppliedToDebt      decimal.Decimal           `json:"applied_to_debt"`
	CreditBalanceAdded decimal.Decimal           `json:"credit_balance_added"`
	TreasuryDeducted   decimal.Decimal           `json:"treasury_deducted"`
	Reason             string                    `json:"reason,omitempty"`
	CreatedBy          uuid.UUID                 `json:"created_by"`
}

func toSalesReturnResponse(ret *trade.SalesReturn) *SalesReturnResponse {
	if ret == nil {
		return nil
	}
	items := make([]SalesReturnItemResponse, len(ret.Items))
	for i, it := range ret.Items {
		items[i] = SalesReturnItemResponse{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			RefundAmount: it.RefundAmount,
			CostAmount:   it.CostAmount,
			Reason:       it.Reason,
			Location:     string(it.Location),
		}
	}
	return &SalesReturnResponse{
		ID:                 ret.ID,
		Number:             ret.Number,
		Date:               ret.Date,
		InvoiceID:          ret.InvoiceID,
		CustomerID:         ret.CustomerID,
		Items:              items,
		TotalRefund:        ret.TotalRefund,
		TotalCost:          ret.TotalCost,
		RefundMethod:       string(ret.RefundMethod),
		AppliedToDebt:      ret.AppliedToDebt,
		CreditBalanceAdded: ret.CreditBalanceAdded,
		TreasuryDeducted:   ret.TreasuryDeducted,
		Reason:             ret.Reason,
		CreatedBy:          ret.CreatedBy,
	}
}

// InvoiceDetailResponse is an invoice with the returns taken against it
type InvoiceDetailResponse struct {
	Invoice *InvoiceResponse       `json:"invoice"`
	Returns []*SalesReturnResponse `json:"returns"`
}

func toInvoiceDetailResponse(d *sales.InvoiceDetail) InvoiceDetailResponse {
	returns := make([]*SalesReturnResponse, len(d.Returns))
	for i, r := range d.Returns {
		returns[i] = toSalesReturnResponse(r)
	}
	return InvoiceDetailResponse{Invoice: toInvoiceResponse(d.Invoice), Returns: returns}
}

// SaleResponse is the outcome of recording a sale
type SaleResponse struct {
	Invoice     *InvoiceResponse     `json:"invoice"`
	Movements   []*MovementResponse  `json:"movements"`
	Entries     []*EntryResponse     `json:"entries"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
	Debt        *DebtResponse        `json:"debt,omitempty"`
}

func toSaleResponse(r *sales.SaleResult) SaleResponse {
	return SaleResponse{
		Invoice:     toInvoiceResponse(r.Invoice),
		Movements:   toMovementResponses(r.Movements),
		Entries:     toEntryResponses(r.Entries),
		Transaction: toTransactionResponse(r.Transaction),
		Debt:        toDebtResponse(r.Debt),
	}
}

// ReversalResponse is the outcome of a sale reversal
type ReversalResponse struct {
	Invoice   *InvoiceResponse       `json:"invoice"`
	Movements []*MovementResponse    `json:"movements"`
	Entries   []*EntryResponse       `json:"entries"`
	Refunds   []*TransactionResponse `json:"refunds"`
	Debt      *DebtResponse          `json:"debt,omitempty"`
}

func toReversalResponse(r *sales.ReversalResult) ReversalResponse {
	return ReversalResponse{
		Invoice:   toInvoiceResponse(r.Invoice),
		Movements: toMovementResponses(r.Movements),
		Entries:   toEntryResponses(r.Entries),
		Refunds:   toTransactionResponses(r.Refunds),
		Debt:      toDebtResponse(r.Debt),
	}
}

// SaleReturnResponse is the outcome of a return
type SaleReturnResponse struct {
	Return      *SalesReturnResponse `json:"return"`
	Invoice     *InvoiceResponse     `json:"invoice"`
	Movements   []*MovementResponse  `json:"movements"`
	Entries     []*EntryResponse     `json:"entries"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
}

func toSaleReturnResponse(r *sales.SaleReturnResult) SaleReturnResponse {
	return SaleReturnResponse{
		Return:      toSalesReturnResponse(r.Return),
		Invoice:     toInvoiceResponse(r.Invoice),
		Movements:   toMovementResponses(r.Movements),
		Entries:     toEntryResponses(r.Entries),
		Transaction: toTransactionResponse(r.Transaction),
	}
}

// ReceiveResponse is the outcome of receiving a purchase order
type ReceiveResponse struct {
	PurchaseOrder *PurchaseOrderResponse `json:"purchase_order"`
	Movements     []*MovementResponse    `json:"movements"`
	Entry         *EntryResponse         `json:"entry"`
	Transaction   *TransactionResponse   `json:"transaction,omitempty"`
	Debt          *DebtResponse          `json:"debt,omitempty"`
}

func toReceiveResponse(r *sales.ReceiveResult) ReceiveResponse {
	return ReceiveResponse{
		PurchaseOrder: toPurchaseOrderResponse(r.PurchaseOrder),
		Movements:     toMovementResponses(r.Movements),
		Entry:         toEntryResponse(r.Entry),
		Transaction:   toTransactionResponse(r.Transaction),
		Debt:          toDebtResponse(r.Debt),
	}
}
