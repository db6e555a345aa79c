package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/stock"
	"github.com/retail/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, p *stock.Product) error {
	return r.db.WithContext(ctx).Create(models.ProductModelFromDomain(p)).Error
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Product", id)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads products keyed by ID; missing IDs are absent from the map
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*stock.Product, error) {
	result := make(map[uuid.UUID]*stock.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].ToDomain()
	}
	return result, nil
}

// FindByCode finds a product by its code
func (r *GormProductRepository) FindByCode(ctx context.Context, code string) (*stock.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(code)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByCode checks if a product code is taken
func (r *GormProductRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save writes the product guarded by its version
func (r *GormProductRepository) Save(ctx context.Context, p *stock.Product) error {
	return updateVersioned(r.db.WithContext(ctx), models.ProductModelFromDomain(p), p)
}

// FindAll lists products ordered by name
func (r *GormProductRepository) FindAll(ctx context.Context, filter stock.ProductFilter) ([]*stock.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})
	if filter.Search != "" {
		pattern := likePattern(strings.ToLower(filter.Search))
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	switch {
	case filter.Status != "":
		query = query.Where("status = ?", filter.Status)
	case !filter.IncludeArchived:
		query = query.Where("status <> ?", stock.ProductStatusArchived)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductModel
	if err := paginate(query.Order("name ASC"), filter.Page, filter.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return productsToDomain(rows), total, nil
}

// FindLowStock returns active products at or below their minimum level
func (r *GormProductRepository) FindLowStock(ctx context.Context) ([]*stock.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND stock_qty <= min_level", stock.ProductStatusActive).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

// FindForCount returns active products of a category (all when empty) ordered by code
func (r *GormProductRepository) FindForCount(ctx context.Context, category string) ([]*stock.Product, error) {
	query := r.db.WithContext(ctx).Where("status = ?", stock.ProductStatusActive)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var rows []models.ProductModel
	if err := query.Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

func productsToDomain(rows []models.ProductModel) []*stock.Product {
	products := make([]*stock.Product, len(rows))
	for i := range rows {
		products[i] = rows[i].ToDomain()
	}
	return products
}

// GormMovementRepository implements MovementRepository using GORM.
// Movements are append-only.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Create inserts a movement
func (r *GormMovementRepository) Create(ctx context.Context, m *stock.Movement) error {
	return r.db.WithContext(ctx).Create(models.MovementModelFromDomain(m)).Error
}

// CreateBatch inserts movements in one statement
func (r *GormMovementRepository) CreateBatch(ctx context.Context, ms []*stock.Movement) error {
	if len(ms) == 0 {
		return nil
	}
	rows := make([]*models.MovementModel, len(ms))
	for i, m := range ms {
		rows[i] = models.MovementModelFromDomain(m)
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 100).Error
}

// FindAll lists movements, newest first
func (r *GormMovementRepository) FindAll(ctx context.Context, filter stock.MovementFilter) ([]*stock.Movement, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MovementModel{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}
	if filter.Until != nil {
		query = query.Where("created_at <= ?", *filter.Until)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.MovementModel
	if err := paginate(query.Order("created_at DESC"), filter.Page, filter.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return movementsToDomain(rows), total, nil
}

// FindByReference returns the movements of a document in creation order
func (r *GormMovementRepository) FindByReference(ctx context.Context, ref shared.Reference) ([]*stock.Movement, error) {
	var rows []models.MovementModel
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", ref.Type, ref.ID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return movementsToDomain(rows), nil
}

// CountByProduct counts the movements of a product
func (r *GormMovementRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.MovementModel{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindSince returns movements of the given products created after since
func (r *GormMovementRepository) FindSince(ctx context.Context, productIDs []uuid.UUID, since time.Time) ([]*stock.Movement, error) {
	if len(productIDs) == 0 {
		return []*stock.Movement{}, nil
	}
	var rows []models.MovementModel
	if err := r.db.WithContext(ctx).
		Where("product_id IN ? AND created_at > ?", productIDs, since).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return movementsToDomain(rows), nil
}

func movementsToDomain(rows []models.MovementModel) []*stock.Movement {
	ms := make([]*stock.Movement, len(rows))
	for i := range rows {
		ms[i] = rows[i].ToDomain()
	}
	return ms
}
