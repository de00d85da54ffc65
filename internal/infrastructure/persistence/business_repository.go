package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/minegocio/backend/internal/domain/business"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/infrastructure/persistence/models"
)

// GormBusinessRepository implements business.Repository using GORM
type GormBusinessRepository struct {
	db *gorm.DB
}

// NewGormBusinessRepository creates a new GormBusinessRepository
func NewGormBusinessRepository(db *gorm.DB) *GormBusinessRepository {
	return &GormBusinessRepository{db: db}
}

// Find returns the singleton row
func (r *GormBusinessRepository) Find(ctx context.Context) (*business.Business, error) {
	var model models.BusinessModel
	if err := r.db.WithContext(ctx).First(&model, business.SingletonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, translateError("find business", err)
	}
	return model.ToDomain(), nil
}

// CreateIfAbsent inserts b with ON CONFLICT DO NOTHING so racing first
// reads converge on one row.
func (r *GormBusinessRepository) CreateIfAbsent(ctx context.Context, b *business.Business) error {
	model := &models.BusinessModel{}
	model.FromDomain(b)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(model).Error
	return translateError("create business", err)
}

// Save writes every field of the singleton row
func (r *GormBusinessRepository) Save(ctx context.Context, b *business.Business) error {
	model := &models.BusinessModel{}
	model.FromDomain(b)
	result := r.db.WithContext(ctx).Model(&models.BusinessModel{}).
		Where("id = ?", business.SingletonID).
		Updates(map[string]any{
			"name":       model.Name,
			"owner_name": model.OwnerName,
			"phone":      model.Phone,
			"email":      model.Email,
			"address":    model.Address,
			"currency":   model.Currency,
			"tax_rate":   model.TaxRate,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return translateError("save business", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	b.ID = business.SingletonID
	return nil
}

var _ business.Repository = (*GormBusinessRepository)(nil)
