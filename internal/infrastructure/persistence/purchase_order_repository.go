package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/trade"
	"github.com/retail/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// Create inserts a purchase order with its items
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, po *trade.PurchaseOrder) error {
	model, items := models.PurchaseOrderModelFromDomain(po)
	db := r.db.WithContext(ctx)
	if err := db.Create(model).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.Create(&items).Error
}

// FindByID finds a purchase order with its items
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Purchase order", id)
	}
	orders, err := r.withItems(ctx, []models.PurchaseOrderModel{model})
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

// Save writes the purchase order guarded by its version and upserts its items
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, po *trade.PurchaseOrder) error {
	model, items := models.PurchaseOrderModelFromDomain(po)
	db := r.db.WithContext(ctx)
	if err := updateVersioned(db, model, po); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"received_qty"}),
	}).Create(&items).Error
}

// FindAll lists purchase orders, newest first
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter trade.PurchaseOrderFilter) ([]*trade.PurchaseOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{})
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PurchaseOrderModel
	if err := paginate(query.Order("created_at DESC"), filter.Page, filter.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	orders, err := r.withItems(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// FindOpenCredit returns received credit orders with an outstanding balance
func (r *GormPurchaseOrderRepository) FindOpenCredit(ctx context.Context, supplierID *uuid.UUID) ([]*trade.PurchaseOrder, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND payment_type = ?", trade.PurchaseOrderStatusReceived, trade.PaymentTypeCredit).
		Where("total_cost - paid_amount > 0")
	if supplierID != nil {
		query = query.Where("supplier_id = ?", *supplierID)
	}
	var rows []models.PurchaseOrderModel
	if err := query.Order("received_date ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withItems(ctx, rows)
}

// FindCreditBySupplier returns every received credit order of a supplier
func (r *GormPurchaseOrderRepository) FindCreditBySupplier(ctx context.Context, supplierID uuid.UUID) ([]*trade.PurchaseOrder, error) {
	var rows []models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND status = ? AND payment_type = ?",
			supplierID, trade.PurchaseOrderStatusReceived, trade.PaymentTypeCredit).
		Order("received_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withItems(ctx, rows)
}

func (r *GormPurchaseOrderRepository) withItems(ctx context.Context, rows []models.PurchaseOrderModel) ([]*trade.PurchaseOrder, error) {
	if len(rows) == 0 {
		return []*trade.PurchaseOrder{}, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	var items []models.PurchaseOrderItemModel
	if err := r.db.WithContext(ctx).
		Where("purchase_order_id IN ?", ids).
		Order("line_no ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	byOrder := make(map[uuid.UUID][]models.PurchaseOrderItemModel, len(rows))
	for _, it := range items {
		byOrder[it.PurchaseOrderID] = append(byOrder[it.PurchaseOrderID], it)
	}

	orders := make([]*trade.PurchaseOrder, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain(byOrder[rows[i].ID])
	}
	return orders, nil
}

// GormSalesReturnRepository implements SalesReturnRepository using GORM
type GormSalesReturnRepository struct {
	db *gorm.DB
}

// NewGormSalesReturnRepository creates a new GormSalesReturnRepository
func NewGormSalesReturnRepository(db *gorm.DB) *GormSalesReturnRepository {
	return &GormSalesReturnRepository{db: db}
}

// Create inserts a sales return with its items
func (r *GormSalesReturnRepository) Create(ctx context.Context, ret *trade.SalesReturn) error {
	model, items := models.SalesReturnModelFromDomain(ret)
	db := r.db.WithContext(ctx)
	if err := db.Create(model).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.Create(&items).Error
}

// FindByID finds a sales return with its items
func (r *GormSalesReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesReturn, error) {
	var model models.SalesReturnModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Sales return", id)
	}
	returns, err := r.withItems(ctx, []models.SalesReturnModel{model})
	if err != nil {
		return nil, err
	}
	return returns[0], nil
}

// FindByInvoice returns the returns recorded against an invoice, oldest first
func (r *GormSalesReturnRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*trade.SalesReturn, error) {
	var rows []models.SalesReturnModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withItems(ctx, rows)
}

func (r *GormSalesReturnRepository) withItems(ctx context.Context, rows []models.SalesReturnModel) ([]*trade.SalesReturn, error) {
	if len(rows) == 0 {
		return []*trade.SalesReturn{}, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	var items []models.SalesReturnItemModel
	if err := r.db.WithContext(ctx).
		Where("sales_return_id IN ?", ids).
		Order("line_no ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	byReturn := make(map[uuid.UUID][]models.SalesReturnItemModel, len(rows))
	for _, it := range items {
		byReturn[it.SalesReturnID] = append(byReturn[it.SalesReturnID], it)
	}

	returns := make([]*trade.SalesReturn, len(rows))
	for i := range rows {
		returns[i] = rows[i].ToDomain(byReturn[rows[i].ID])
	}
	return returns, nil
}
