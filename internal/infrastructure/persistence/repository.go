package persistence

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/retail/backoffice/internal/domain/shared"
	"github.com/retail/backoffice/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// versionedModel is implemented by models embedding models.AggregateModel
type versionedModel interface {
	NextVersion() int
}

// versionedAggregate is implemented by domain aggregate roots
type versionedAggregate interface {
	IncrementVersion()
}

// updateVersioned writes every column of model guarded by the version read
// from storage. A writer that lost the race affects no row and gets
// ErrConcurrencyConflict. On success the aggregate's version is bumped.
func updateVersioned(db *gorm.DB, model versionedModel, agg versionedAggregate) error {
	expected := model.NextVersion()
	result := db.Model(model).
		Where("version = ?", expected).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	agg.IncrementVersion()
	return nil
}

// translateNotFound converts gorm's missing-row error into a domain not-found error
func translateNotFound(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(entity, id)
	}
	return err
}

// paginate applies page and page size to a query; non-positive values disable paging
func paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		return query
	}
	if page <= 0 {
		page = 1
	}
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}

// likePattern builds a case-insensitive LIKE pattern for a search term
func likePattern(search string) string {
	return "%" + search + "%"
}

// sumColumn scans a single aggregate value into a decimal rounded to cents.
// SQLite returns sums as floats, PostgreSQL as numeric strings.
func sumColumn(query *gorm.DB, expr string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := query.Select(fmt.Sprintf("COALESCE(%s, 0)", expr)).Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return valueobject.RoundMoney(total.Decimal), nil
}
