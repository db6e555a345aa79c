package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/inventorycount"
	"github.com/retail/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCountRepository implements CountRepository using GORM
type GormCountRepository struct {
	db *gorm.DB
}

// NewGormCountRepository creates a new GormCountRepository
func NewGormCountRepository(db *gorm.DB) *GormCountRepository {
	return &GormCountRepository{db: db}
}

// Create inserts a count session
func (r *GormCountRepository) Create(ctx context.Context, c *inventorycount.Count) error {
	return r.db.WithContext(ctx).Create(models.CountModelFromDomain(c)).Error
}

// FindByID finds a count session by ID
func (r *GormCountRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventorycount.Count, error) {
	var model models.CountModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Inventory count", id)
	}
	return model.ToDomain(), nil
}

// Save writes the count guarded by its version
func (r *GormCountRepository) Save(ctx context.Context, c *inventorycount.Count) error {
	return updateVersioned(r.db.WithContext(ctx), models.CountModelFromDomain(c), c)
}

// FindAll lists counts, newest first
func (r *GormCountRepository) FindAll(ctx context.Context, filter inventorycount.Filter) ([]*inventorycount.Count, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CountModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CountModel
	if err := paginate(query.Order("created_at DESC"), filter.Page, filter.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	counts := make([]*inventorycount.Count, len(rows))
	for i := range rows {
		counts[i] = rows[i].ToDomain()
	}
	return counts, total, nil
}
