package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/treasury"
	"github.com/retail/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTreasuryRepository implements TreasuryRepository using GORM
type GormTreasuryRepository struct {
	db *gorm.DB
}

// NewGormTreasuryRepository creates a new GormTreasuryRepository
func NewGormTreasuryRepository(db *gorm.DB) *GormTreasuryRepository {
	return &GormTreasuryRepository{db: db}
}

// Get returns the treasury record, creating it with a zero balance on first access
func (r *GormTreasuryRepository) Get(ctx context.Context) (*treasury.Treasury, error) {
	db := r.db.WithContext(ctx)
	var model models.TreasuryModel
	err := db.Where("treasury_key = ?", treasury.TreasuryKey).First(&model).Error
	if err == nil {
		return model.ToDomain(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Two first accesses may race; the loser's insert is ignored and it reads the winner's row
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.TreasuryModelFromDomain(treasury.NewTreasury())).Error; err != nil {
		return nil, err
	}
	if err := db.Where("treasury_key = ?", treasury.TreasuryKey).First(&model).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save writes the treasury guarded by its version
func (r *GormTreasuryRepository) Save(ctx context.Context, t *treasury.Treasury) error {
	return updateVersioned(r.db.WithContext(ctx), models.TreasuryModelFromDomain(t), t)
}

// GormTreasuryTransactionRepository implements TransactionRepository using GORM
type GormTreasuryTransactionRepository struct {
	db *gorm.DB
}

// NewGormTreasuryTransactionRepository creates a new GormTreasuryTransactionRepository
func NewGormTreasuryTransactionRepository(db *gorm.DB) *GormTreasuryTransactionRepository {
	return &GormTreasuryTransactionRepository{db: db}
}

// Create inserts a treasury transaction
func (r *GormTreasuryTransactionRepository) Create(ctx context.Context, tx *treasury.Transaction) error {
	return r.db.WithContext(ctx).Create(models.TreasuryTransactionModelFromDomain(tx)).Error
}

// FindByID finds a treasury transaction by ID
func (r *GormTreasuryTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*treasury.Transaction, error) {
	var model models.TreasuryTransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Treasury transaction", id)
	}
	return model.ToDomain(), nil
}

// Save writes the reversal markers of a transaction guarded by its version
func (r *GormTreasuryTransactionRepository) Save(ctx context.Context, tx *treasury.Transaction) error {
	return updateVersioned(r.db.WithContext(ctx), models.TreasuryTransactionModelFromDomain(tx), tx)
}

// FindAll lists transactions, newest first
func (r *GormTreasuryTransactionRepository) FindAll(ctx context.Context, filter treasury.TransactionFilter) ([]*treasury.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TreasuryTransactionModel{})
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.TreasuryTransactionModel
	if err := paginate(query.Order("date DESC").Order("number DESC"), filter.Page, filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return treasuryTransactionsToDomain(rows), total, nil
}

// FindByReferenceID returns the transactions posted for a document
func (r *GormTreasuryTransactionRepository) FindByReferenceID(ctx context.Context, refID uuid.UUID) ([]*treasury.Transaction, error) {
	var rows []models.TreasuryTransactionModel
	if err := r.db.WithContext(ctx).
		Where("reference_id = ? AND reference_type <> ?", refID, shared.ReferenceManual).
		Order("number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return treasuryTransactionsToDomain(rows), nil
}

func treasuryTransactionsToDomain(rows []models.TreasuryTransactionModel) []*treasury.Transaction {
	txs := make([]*treasury.Transaction, len(rows))
	for i := range rows {
		txs[i] = rows[i].ToDomain()
	}
	return txs
}

// GormCashboxRepository implements CashboxRepository using GORM
type GormCashboxRepository struct {
	db *gorm.DB
}

// NewGormCashboxRepository creates a new GormCashboxRepository
func NewGormCashboxRepository(db *gorm.DB) *GormCashboxRepository {
	return &GormCashboxRepository{db: db}
}

// FindByDate returns the cashbox of a YYYY-MM-DD day
func (r *GormCashboxRepository) FindByDate(ctx context.Context, day string) (*treasury.DailyCashbox, error) {
	var model models.CashboxModel
	if err := r.db.WithContext(ctx).Where("date = ?", day).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLatestBefore returns the most recent cashbox dated before day
func (r *GormCashboxRepository) FindLatestBefore(ctx context.Context, day string) (*treasury.DailyCashbox, error) {
	var model models.CashboxModel
	if err := r.db.WithContext(ctx).
		Where("date < ?", day).
		Order("date DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a cashbox after deriving its totals
func (r *GormCashboxRepository) Create(ctx context.Context, c *treasury.DailyCashbox) error {
	c.Recalculate()
	return r.db.WithContext(ctx).Create(models.CashboxModelFromDomain(c)).Error
}

// Save derives the totals and writes the cashbox guarded by its version
func (r *GormCashboxRepository) Save(ctx context.Context, c *treasury.DailyCashbox) error {
	c.Recalculate()
	return updateVersioned(r.db.WithContext(ctx), models.CashboxModelFromDomain(c), c)
}

// FindRange returns the cashboxes of [fromDay, toDay] in date order
func (r *GormCashboxRepository) FindRange(ctx context.Context, fromDay, toDay string) ([]*treasury.DailyCashbox, error) {
	var rows []models.CashboxModel
	if err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", fromDay, toDay).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	boxes := make([]*treasury.DailyCashbox, len(rows))
	for i := range rows {
		boxes[i] = rows[i].ToDomain()
	}
	return boxes, nil
}
