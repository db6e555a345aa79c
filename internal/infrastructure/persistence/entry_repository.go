package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/ledger"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/shared/valueobject"
	"github.com/retail/backoffice/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormEntryRepository implements EntryRepository using GORM.
// Journal rows are only ever inserted.
type GormEntryRepository struct {
	db *gorm.DB
}

// NewGormEntryRepository creates a new GormEntryRepository
func NewGormEntryRepository(db *gorm.DB) *GormEntryRepository {
	return &GormEntryRepository{db: db}
}

// Create inserts a new entry
func (r *GormEntryRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	return r.db.WithContext(ctx).Create(models.EntryModelFromDomain(entry)).Error
}

// FindByID finds an entry by ID
func (r *GormEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	var model models.EntryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err, "Journal entry", id)
	}
	return model.ToDomain(), nil
}

// FindByAccount returns entries touching account within [from, to] ordered by entry number
func (r *GormEntryRepository) FindByAccount(ctx context.Context, account ledger.Account, from, to *time.Time) ([]*ledger.Entry, error) {
	query := r.db.WithContext(ctx).Where("debit_account = ? OR credit_account = ?", account, account)
	if from != nil {
		query = query.Where("date >= ?", *from)
	}
	if to != nil {
		query = query.Where("date <= ?", *to)
	}
	var rows []models.EntryModel
	if err := query.Order("entry_number ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return entriesToDomain(rows), nil
}

// FindByReference returns the entries posted for a document
func (r *GormEntryRepository) FindByReference(ctx context.Context, ref shared.Reference) ([]*ledger.Entry, error) {
	var rows []models.EntryModel
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", ref.Type, ref.ID).
		Order("entry_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return entriesToDomain(rows), nil
}

// FindAll lists entries, newest first
func (r *GormEntryRepository) FindAll(ctx context.Context, filter ledger.EntryFilter) ([]*ledger.Entry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.EntryModel{})
	if filter.Account != "" {
		query = query.Where("debit_account = ? OR credit_account = ?", filter.Account, filter.Account)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
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

	var rows []models.EntryModel
	if err := paginate(query.Order("entry_number DESC"), filter.Page, filter.PageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return entriesToDomain(rows), total, nil
}

// SumByAccount totals the debits and credits of account for entries dated before the given time
func (r *GormEntryRepository) SumByAccount(ctx context.Context, account ledger.Account, before time.Time) (ledger.AccountTotals, error) {
	totals := ledger.AccountTotals{Account: account, Debit: decimal.Zero, Credit: decimal.Zero}

	debit, err := sumColumn(r.db.WithContext(ctx).Model(&models.EntryModel{}).
		Where("debit_account = ? AND date < ?", account, before), "SUM(amount)")
	if err != nil {
		return totals, err
	}
	credit, err := sumColumn(r.db.WithContext(ctx).Model(&models.EntryModel{}).
		Where("credit_account = ? AND date < ?", account, before), "SUM(amount)")
	if err != nil {
		return totals, err
	}
	totals.Debit = debit
	totals.Credit = credit
	return totals, nil
}

type accountSum struct {
	Account ledger.Account
	Total   decimal.NullDecimal
}

// TotalsAsOf returns per-account debit and credit totals for entries dated up to asOf
func (r *GormEntryRepository) TotalsAsOf(ctx context.Context, asOf time.Time) ([]ledger.AccountTotals, error) {
	var debits, credits []accountSum
	if err := r.db.WithContext(ctx).Model(&models.EntryModel{}).
		Select("debit_account AS account, SUM(amount) AS total").
		Where("date <= ?", asOf).
		Group("debit_account").
		Scan(&debits).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.EntryModel{}).
		Select("credit_account AS account, SUM(amount) AS total").
		Where("date <= ?", asOf).
		Group("credit_account").
		Scan(&credits).Error; err != nil {
		return nil, err
	}

	byAccount := make(map[ledger.Account]*ledger.AccountTotals)
	get := func(a ledger.Account) *ledger.AccountTotals {
		t, ok := byAccount[a]
		if !ok {
			t = &ledger.AccountTotals{Account: a, Debit: decimal.Zero, Credit: decimal.Zero}
			byAccount[a] = t
		}
		return t
	}
	for _, d := range debits {
		get(d.Account).Debit = valueobject.RoundMoney(d.Total.Decimal)
	}
	for _, c := range credits {
		get(c.Account).Credit = valueobject.RoundMoney(c.Total.Decimal)
	}

	result := make([]ledger.AccountTotals, 0, len(byAccount))
	for _, account := range ledger.AllAccounts() {
		if t, ok := byAccount[account]; ok {
			result = append(result, *t)
		}
	}
	return result, nil
}

// ExistsReversalOf reports whether the entry was already reversed
func (r *GormEntryRepository) ExistsReversalOf(ctx context.Context, entryID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.EntryModel{}).
		Where("reversal_of = ?", entryID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func entriesToDomain(rows []models.EntryModel) []*ledger.Entry {
	entries := make([]*ledger.Entry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries
}
