package persistence

import (
	"context"
	"fmt"

	"github.com/retail/backoffice/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceGenerator hands out numbers from the sequences table. Used inside
// a transaction, the row update holds the counter until commit, so concurrent
// writers receive distinct values and a rolled-back unit of work gives its
// number back.
type GormSequenceGenerator struct {
	db *gorm.DB
}

// NewGormSequenceGenerator creates a new GormSequenceGenerator
func NewGormSequenceGenerator(db *gorm.DB) *GormSequenceGenerator {
	return &GormSequenceGenerator{db: db}
}

// Next increments and returns the named counter
func (g *GormSequenceGenerator) Next(ctx context.Context, name string) (int64, error) {
	db := g.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.SequenceModel{Name: name, Value: 0}).Error; err != nil {
		return 0, fmt.Errorf("init sequence %s: %w", name, err)
	}
	result := db.Model(&models.SequenceModel{}).
		Where("name = ?", name).
		UpdateColumn("value", gorm.Expr("value + 1"))
	if result.Error != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", name, result.Error)
	}

	var seq models.SequenceModel
	if err := db.Where("name = ?", name).First(&seq).Error; err != nil {
		return 0, fmt.Errorf("read sequence %s: %w", name, err)
	}
	return seq.Value, nil
}
