package models

import (
	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/catalog"
	"github.com/minegocio/backend/internal/domain/shared"
)

// ProductModel is the persistence model for the Product domain entity.
// Barcode is nullable so the unique index admits many products without one.
type ProductModel struct {
	AggregateModel
	Name        string              `gorm:"type:varchar(200);not null;index"`
	Description string              `gorm:"type:text"`
	Barcode     *string             `gorm:"type:varchar(50);uniqueIndex"`
	CategoryID  *int64              `gorm:"index"`
	CostPrice   decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	SalePrice   decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	Stock       int                 `gorm:"not null;check:chk_products_stock_non_negative,stock >= 0"`
	MinStock    int                 `gorm:"not null;check:chk_products_min_stock_non_negative,min_stock >= 0"`
	IsActive    bool                `gorm:"not null;index"`

	Category *CategoryModel `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Description:       m.Description,
		CategoryID:        m.CategoryID,
		SalePrice:         m.SalePrice,
		Stock:             m.Stock,
		MinStock:          m.MinStock,
		IsActive:          m.IsActive,
	}
	if m.Barcode != nil {
		p.Barcode = *m.Barcode
	}
	if m.CostPrice.Valid {
		cost := m.CostPrice.Decimal
		p.CostPrice = &cost
	}
	return p
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Description = p.Description
	m.Barcode = nil
	if p.Barcode != "" {
		barcode := p.Barcode
		m.Barcode = &barcode
	}
	m.CategoryID = p.CategoryID
	m.CostPrice = decimal.NullDecimal{}
	if p.CostPrice != nil {
		m.CostPrice = decimal.NewNullDecimal(*p.CostPrice)
	}
	m.SalePrice = p.SalePrice
	m.Stock = p.Stock
	m.MinStock = p.MinStock
	m.IsActive = p.IsActive
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// CategoryModel is the persistence model for the Category domain entity.
type CategoryModel struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	IsActive    bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category entity.
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseEntity:  shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Name:        m.Name,
		Description: m.Description,
		IsActive:    m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Category entity.
func (m *CategoryModel) FromDomain(c *catalog.Category) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Name = c.Name
	m.Description = c.Description
	m.IsActive = c.IsActive
}

// CategoryModelFromDomain creates a new persistence model from a domain Category entity.
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{}
	m.FromDomain(c)
	return m
}
