package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/business"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/shared/valueobject"
)

// BusinessModel is the persistence model for the business settings row.
// The check constraint keeps the table at a single row with id 1.
type BusinessModel struct {
	ID        int64                `gorm:"primaryKey;autoIncrement:false;check:chk_businesses_singleton,id = 1"`
	Name      string               `gorm:"type:varchar(100);not null"`
	OwnerName string               `gorm:"type:varchar(100);not null"`
	Phone     string               `gorm:"type:varchar(20)"`
	Email     string               `gorm:"type:varchar(100)"`
	Address   string               `gorm:"type:varchar(200)"`
	Currency  valueobject.Currency `gorm:"type:varchar(3);not null"`
	TaxRate   decimal.Decimal      `gorm:"type:numeric(5,4);not null;check:chk_businesses_tax_rate,tax_rate >= 0 AND tax_rate <= 1"`
	CreatedAt time.Time            `gorm:"not null"`
	UpdatedAt time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BusinessModel) TableName() string {
	return "businesses"
}

// ToDomain converts the persistence model to the domain Business
func (m *BusinessModel) ToDomain() *business.Business {
	return &business.Business{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Name:       m.Name,
		OwnerName:  m.OwnerName,
		Phone:      m.Phone,
		Email:      m.Email,
		Address:    m.Address,
		Currency:   m.Currency,
		TaxRate:    m.TaxRate,
	}
}

// FromDomain populates the persistence model. The ID is always the singleton ID.
func (m *BusinessModel) FromDomain(b *business.Business) {
	m.ID = business.SingletonID
	m.Name = b.Name
	m.OwnerName = b.OwnerName
	m.Phone = b.Phone
	m.Email = b.Email
	m.Address = b.Address
	m.Currency = b.Currency
	m.TaxRate = b.TaxRate
	m.CreatedAt = b.CreatedAt
	m.UpdatedAt = b.UpdatedAt
}
