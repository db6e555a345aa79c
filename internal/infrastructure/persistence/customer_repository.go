package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/partner"
	"github.com/retail/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// Create inserts a new customer
func (r *GormCustomerRepository) Create(ctx context.Context, c *partner.Customer) error {
	return r.db.WithContext(ctx).Create(models.CustomerModelFromDomain(c)).Error
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Customer", id)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple customers keyed by ID; missing IDs are absent from the map
func (r *GormCustomerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*partner.Customer, error) {
	result := make(map[uuid.UUID]*partner.Customer, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.CustomerModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].ToDomain()
	}
	return result, nil
}

// ExistsByCode checks if a customer code is taken
func (r *GormCustomerRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CustomerModel{}).
		Where("code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save writes the customer guarded by its version
func (r *GormCustomerRepository) Save(ctx context.Context, c *partner.Customer) error {
	return updateVersioned(r.db.WithContext(ctx), models.CustomerModelFromDomain(c), c)
}

// FindAll lists customers ordered by name
func (r *GormCustomerRepository) FindAll(ctx context.Context, filter partner.Filter) ([]*partner.Customer, int64, error) {
	query := applyPartnerFilter(r.db.WithContext(ctx).Model(&models.CustomerModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CustomerModel
	if err := paginate(query.Order("name ASC"), filter.Page, filter.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	customers := make([]*partner.Customer, len(rows))
	for i := range rows {
		customers[i] = rows[i].ToDomain()
	}
	return customers, total, nil
}

func applyPartnerFilter(query *gorm.DB, filter partner.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(strings.ToLower(filter.Search))
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ? OR phone LIKE ?", pattern, pattern, pattern)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return query
}

// GormSupplierRepository implements SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// Create inserts a new supplier
func (r *GormSupplierRepository) Create(ctx context.Context, s *partner.Supplier) error {
	return r.db.WithContext(ctx).Create(models.SupplierModelFromDomain(s)).Error
}

// FindByID finds a supplier by its ID
func (r *GormSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	var model models.SupplierModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Supplier", id)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple suppliers keyed by ID
func (r *GormSupplierRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*partner.Supplier, error) {
	result := make(map[uuid.UUID]*partner.Supplier, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.SupplierModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].ToDomain()
	}
	return result, nil
}

// ExistsByCode checks if a supplier code is taken
func (r *GormSupplierRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SupplierModel{}).
		Where("code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save writes the supplier guarded by its version
func (r *GormSupplierRepository) Save(ctx context.Context, s *partner.Supplier) error {
	return updateVersioned(r.db.WithContext(ctx), models.SupplierModelFromDomain(s), s)
}

// FindAll lists suppliers ordered by name
func (r *GormSupplierRepository) FindAll(ctx context.Context, filter partner.Filter) ([]*partner.Supplier, int64, error) {
	query := applyPartnerFilter(r.db.WithContext(ctx).Model(&models.SupplierModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SupplierModel
	if err := paginate(query.Order("name ASC"), filter.Page, filter.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	suppliers := make([]*partner.Supplier, len(rows))
	for i := range rows {
		suppliers[i] = rows[i].ToDomain()
	}
	return suppliers, total, nil
}
