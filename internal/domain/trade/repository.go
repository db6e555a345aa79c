package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	CustomerID    *uuid.UUID
	PaymentType   PaymentType
	PaymentStatus PaymentStatus
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
}

// InvoiceRepository persists invoices with their items and payments
type InvoiceRepository interface {
	Create(ctx context.Context, inv *Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// Save writes the invoice guarded by its version
	Save(ctx context.Context, inv *Invoice) error
	FindAll(ctx context.Context, filter InvoiceFilter) ([]*Invoice, int64, error)
	// FindOpenCredit returns non-reversed credit invoices with an outstanding balance
	FindOpenCredit(ctx context.Context, customerID *uuid.UUID) ([]*Invoice, error)
	// FindCreditByCustomer returns every credit invoice of a customer, reversed ones included
	FindCreditByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Invoice, error)
}

// PurchaseOrderFilter narrows purchase order listings
type PurchaseOrderFilter struct {
	SupplierID *uuid.UUID
	Status     PurchaseOrderStatus
	Page       int
	PageSize   int
}

// PurchaseOrderRepository persists purchase orders
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	Save(ctx context.Context, po *PurchaseOrder) error
	FindAll(ctx context.Context, filter PurchaseOrderFilter) ([]*PurchaseOrder, int64, error)
	// FindOpenCredit returns received credit orders with an outstanding balance
	FindOpenCredit(ctx context.Context, supplierID *uuid.UUID) ([]*PurchaseOrder, error)
	// FindCreditBySupplier returns every received credit order of a supplier
	FindCreditBySupplier(ctx context.Context, supplierID uuid.UUID) ([]*PurchaseOrder, error)
}

// SalesReturnRepository persists sales returns
type SalesReturnRepository interface {
	Create(ctx context.Context, r *SalesReturn) error
	FindByID(ctx context.Context, id uuid.UUID) (*SalesReturn, error)
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*SalesReturn, error)
}
