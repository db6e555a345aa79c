package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/trade"
	"github.com/retail/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements InvoiceRepository using GORM.
// Items are stored in invoice_items and loaded with their invoice.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Create inserts an invoice with its items
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *trade.Invoice) error {
	model, items := models.InvoiceModelFromDomain(inv)
	db := r.db.WithContext(ctx)
	if err := db.Create(model).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.Create(&items).Error
}

// FindByID finds an invoice with its items
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Invoice", id)
	}
	invoices, err := r.withItems(ctx, []models.InvoiceModel{model})
	if err != nil {
		return nil, err
	}
	return invoices[0], nil
}

// Save writes the invoice guarded by its version and upserts its items
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *trade.Invoice) error {
	model, items := models.InvoiceModelFromDomain(inv)
	db := r.db.WithContext(ctx)
	if err := updateVersioned(db, model, inv); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"returned_qty"}),
	}).Create(&items).Error
}

// FindAll lists invoices, newest first
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter trade.InvoiceFilter) ([]*trade.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.PaymentType != "" {
		query = query.Where("payment_type = ?", filter.PaymentType)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InvoiceModel
	if err := paginate(query.Order("date DESC").Order("number DESC"), filter.Page, filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	invoices, err := r.withItems(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// FindOpenCredit returns live credit invoices that still have an outstanding balance
func (r *GormInvoiceRepository) FindOpenCredit(ctx context.Context, customerID *uuid.UUID) ([]*trade.Invoice, error) {
	query := r.db.WithContext(ctx).
		Where("payment_type = ? AND is_reversed = ?", trade.PaymentTypeCredit, false).
		Where("total - paid_amount - credited_amount > 0")
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}
	var rows []models.InvoiceModel
	if err := query.Order("date ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withItems(ctx, rows)
}

// FindCreditByCustomer returns every credit invoice of a customer, reversed ones included
func (r *GormInvoiceRepository) FindCreditByCustomer(ctx context.Context, customerID uuid.UUID) ([]*trade.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND payment_type = ?", customerID, trade.PaymentTypeCredit).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withItems(ctx, rows)
}

func (r *GormInvoiceRepository) withItems(ctx context.Context, rows []models.InvoiceModel) ([]*trade.Invoice, error) {
	if len(rows) == 0 {
		return []*trade.Invoice{}, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	var items []models.InvoiceItemModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id IN ?", ids).
		Order("line_no ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	byInvoice := make(map[uuid.UUID][]models.InvoiceItemModel, len(rows))
	for _, it := range items {
		byInvoice[it.InvoiceID] = append(byInvoice[it.InvoiceID], it)
	}

	invoices := make([]*trade.Invoice, len(rows))
	for i := range rows {
		invoices[i] = rows[i].ToDomain(byInvoice[rows[i].ID])
	}
	return invoices, nil
}
