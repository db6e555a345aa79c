package sales

import (
	"context"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/application/core"
	"github.com/retail/backoffice/internal/domain/trade"
)

// InvoiceDetail is an invoice with the returns booked against it
type InvoiceDetail struct {
	Invoice *trade.Invoice
	Returns []*trade.SalesReturn
}

// GetInvoice returns an invoice and its returns
func (o *Orchestrator) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceDetail, error) {
	repos := o.runner.Repositories()
	inv, err := repos.Invoices().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	returns, err := repos.SalesReturns().FindByInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return &InvoiceDetail{Invoice: inv, Returns: returns}, nil
}

// ListInvoices lists invoices, newest first
func (o *Orchestrator) ListInvoices(ctx context.Context, filter trade.InvoiceFilter) ([]*trade.Invoice, int64, error) {
	filter.Page, filter.PageSize = core.Page(filter.Page, filter.PageSize)
	return o.runner.Repositories().Invoices().FindAll(ctx, filter)
}

// GetPurchaseOrder returns a purchase order with its items
func (o *Orchestrator) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	return o.runner.Repositories().PurchaseOrders().FindByID(ctx, id)
}

// ListPurchaseOrders lists purchase orders, newest first
func (o *Orchestrator) ListPurchaseOrders(ctx context.Context, filter trade.PurchaseOrderFilter) ([]*trade.PurchaseOrder, int64, error) {
	filter.Page, filter.PageSize = core.Page(filter.Page, filter.PageSize)
	return o.runner.Repositories().PurchaseOrders().FindAll(ctx, filter)
}

// GetSalesReturn returns one sales return
func (o *Orchestrator) GetSalesReturn(ctx context.Context, id uuid.UUID) (*trade.SalesReturn, error) {
	return o.runner.Repositories().SalesReturns().FindByID(ctx, id)
}
