package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/debt"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDebtRepository implements DebtRepository using GORM
type GormDebtRepository struct {
	db *gorm.DB
}

// NewGormDebtRepository creates a new GormDebtRepository
func NewGormDebtRepository(db *gorm.DB) *GormDebtRepository {
	return &GormDebtRepository{db: db}
}

// Create inserts a new debt
func (r *GormDebtRepository) Create(ctx context.Context, d *debt.Debt) error {
	return r.db.WithContext(ctx).Create(models.DebtModelFromDomain(d)).Error
}

// FindByID finds a debt by ID
func (r *GormDebtRepository) FindByID(ctx context.Context, id uuid.UUID) (*debt.Debt, error) {
	var model models.DebtModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Debt", id)
	}
	return model.ToDomain(), nil
}

// FindByReference returns the debt created for a document
func (r *GormDebtRepository) FindByReference(ctx context.Context, ref shared.Reference) (*debt.Debt, error) {
	var model models.DebtModel
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", ref.Type, ref.ID).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save writes the debt guarded by its version
func (r *GormDebtRepository) Save(ctx context.Context, d *debt.Debt) error {
	return updateVersioned(r.db.WithContext(ctx), models.DebtModelFromDomain(d), d)
}

// FindAll lists debts by due date, earliest first
func (r *GormDebtRepository) FindAll(ctx context.Context, filter debt.Filter) ([]*debt.Debt, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DebtModel{})
	if filter.DebtorID != nil {
		query = query.Where("debtor_id = ?", *filter.DebtorID)
	}
	if filter.DebtorType != "" {
		query = query.Where("debtor_type = ?", filter.DebtorType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.DebtModel
	if err := paginate(query.Order("due_date ASC"), filter.Page, filter.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return debtsToDomain(rows), total, nil
}

// FindOpen returns active and overdue debts, optionally of one debtor type
func (r *GormDebtRepository) FindOpen(ctx context.Context, debtorType debt.DebtorType) ([]*debt.Debt, error) {
	query := r.db.WithContext(ctx).Where("status IN ?", []debt.Status{debt.StatusActive, debt.StatusOverdue})
	if debtorType != "" {
		query = query.Where("debtor_type = ?", debtorType)
	}
	var rows []models.DebtModel
	if err := query.Order("due_date ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return debtsToDomain(rows), nil
}

// FindByDebtor returns every debt of one customer or supplier
func (r *GormDebtRepository) FindByDebtor(ctx context.Context, debtorID uuid.UUID, debtorType debt.DebtorType) ([]*debt.Debt, error) {
	var rows []models.DebtModel
	if err := r.db.WithContext(ctx).
		Where("debtor_id = ? AND debtor_type = ?", debtorID, debtorType).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return debtsToDomain(rows), nil
}

// FindClosedReferences returns the documents of refType whose debt is written off or cancelled
func (r *GormDebtRepository) FindClosedReferences(ctx context.Context, refType shared.ReferenceType) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.DebtModel{}).
		Where("reference_type = ? AND status IN ?", refType, []debt.Status{debt.StatusWrittenOff, debt.StatusCancelled}).
		Pluck("reference_id", &ids).Error; err != nil {
		return nil, err
	}
	closed := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		closed[id] = true
	}
	return closed, nil
}

func debtsToDomain(rows []models.DebtModel) []*debt.Debt {
	debts := make([]*debt.Debt, len(rows))
	for i := range rows {
		debts[i] = rows[i].ToDomain()
	}
	return debts
}

// GormDebtPaymentRepository implements PaymentRepository using GORM
type GormDebtPaymentRepository struct {
	db *gorm.DB
}

// NewGormDebtPaymentRepository creates a new GormDebtPaymentRepository
func NewGormDebtPaymentRepository(db *gorm.DB) *GormDebtPaymentRepository {
	return &GormDebtPaymentRepository{db: db}
}

// Create inserts a payment
func (r *GormDebtPaymentRepository) Create(ctx context.Context, p *debt.Payment) error {
	return r.db.WithContext(ctx).Create(models.DebtPaymentModelFromDomain(p)).Error
}

// Save updates a payment's reversal markers
func (r *GormDebtPaymentRepository) Save(ctx context.Context, p *debt.Payment) error {
	result := r.db.WithContext(ctx).Model(&models.DebtPaymentModel{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"is_reversed": p.IsReversed,
			"reversed_at": p.ReversedAt,
			"reversed_by": p.ReversedBy,
			"updated_at":  p.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Payment", p.ID)
	}
	return nil
}

// FindByID finds a payment by ID
func (r *GormDebtPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*debt.Payment, error) {
	var model models.DebtPaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Payment", id)
	}
	return model.ToDomain(), nil
}

// FindByDebt returns the payments of a debt, newest first
func (r *GormDebtPaymentRepository) FindByDebt(ctx context.Context, debtID uuid.UUID) ([]*debt.Payment, error) {
	var rows []models.DebtPaymentModel
	if err := r.db.WithContext(ctx).
		Where("debt_id = ?", debtID).
		Order("date DESC").Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]*debt.Payment, len(rows))
	for i := range rows {
		payments[i] = rows[i].ToDomain()
	}
	return payments, nil
}
