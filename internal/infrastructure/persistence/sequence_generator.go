package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/minegocio/backend/internal/domain/trade"
	"github.com/minegocio/backend/internal/infrastructure/persistence/models"
)

// GormSequenceGenerator hands out values from the sequence_counters table.
// The increment takes a row lock that is held until the caller's transaction
// ends, so concurrent callers are serialised and a rollback leaves no gap.
type GormSequenceGenerator struct {
	db *gorm.DB
}

// NewGormSequenceGenerator creates a new GormSequenceGenerator
func NewGormSequenceGenerator(db *gorm.DB) *GormSequenceGenerator {
	return &GormSequenceGenerator{db: db}
}

// Next increments the named counter and returns its new value. A missing
// counter is created starting at 1.
func (g *GormSequenceGenerator) Next(ctx context.Context, name string) (int64, error) {
	db := g.db.WithContext(ctx)
	for attempt := 0; ; attempt++ {
		result := db.Model(&models.SequenceCounterModel{}).
			Where("name = ?", name).
			UpdateColumn("value", gorm.Expr("value + 1"))
		if result.Error != nil {
			return 0, translateError("next "+name, result.Error)
		}
		if result.RowsAffected > 0 {
			break
		}
		if attempt > 0 {
			return 0, fmt.Errorf("sequence %s could not be created", name)
		}
		if err := g.Ensure(ctx, name); err != nil {
			return 0, err
		}
	}

	var value int64
	if err := db.Model(&models.SequenceCounterModel{}).
		Select("value").
		Where("name = ?", name).
		Scan(&value).Error; err != nil {
		return 0, translateError("read "+name, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("sequence %s returned non-positive value %d", name, value)
	}
	return value, nil
}

// Advance raises the named counter to value when it is lower. The update
// locks the row like Next does, so a concurrent Next sees the raised value.
func (g *GormSequenceGenerator) Advance(ctx context.Context, name string, value int64) error {
	if err := g.Ensure(ctx, name); err != nil {
		return err
	}
	err := g.db.WithContext(ctx).
		Model(&models.SequenceCounterModel{}).
		Where("name = ? AND value < ?", name, value).
		UpdateColumn("value", value).Error
	return translateError("advance "+name, err)
}

// Ensure creates the named counter at zero unless it already exists
func (g *GormSequenceGenerator) Ensure(ctx context.Context, name string) error {
	err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&models.SequenceCounterModel{Name: name, Value: 0}).Error
	return translateError("ensure "+name, err)
}

var _ trade.SequenceGenerator = (*GormSequenceGenerator)(nil)
