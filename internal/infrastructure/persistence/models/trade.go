package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/trade"
)

// SaleModel is the persistence model for the Sale aggregate root.
type SaleModel struct {
	AggregateModel
	SaleNumber    string              `gorm:"type:varchar(20);not null;uniqueIndex"`
	CustomerName  string              `gorm:"type:varchar(100)"`
	Total         decimal.Decimal     `gorm:"type:numeric(12,2);not null;check:chk_sales_total_non_negative,total >= 0"`
	PaymentMethod trade.PaymentMethod `gorm:"type:varchar(20);not null;index"`
	SaleDate      time.Time           `gorm:"type:date;not null;index"`
	SoldBy        int64               `gorm:"not null;index"`
	Notes         string              `gorm:"type:text"`
	DeletedAt     gorm.DeletedAt      `gorm:"index"`

	Seller *UserModel `gorm:"foreignKey:SoldBy;constraint:OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale. Items are loaded separately.
func (m *SaleModel) ToDomain() *trade.Sale {
	return &trade.Sale{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		SaleNumber:        m.SaleNumber,
		CustomerName:      m.CustomerName,
		Total:             m.Total,
		PaymentMethod:     m.PaymentMethod,
		SaleDate:          m.SaleDate,
		SoldBy:            m.SoldBy,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Sale
func (m *SaleModel) FromDomain(s *trade.Sale) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.SaleNumber = s.SaleNumber
	m.CustomerName = s.CustomerName
	m.Total = s.Total
	m.PaymentMethod = s.PaymentMethod
	m.SaleDate = DateOnly(s.SaleDate)
	m.SoldBy = s.SoldBy
	m.Notes = s.Notes
}

// SaleItemModel is the persistence model for a sale line.
type SaleItemModel struct {
	BaseModel
	SaleID    int64           `gorm:"not null;index"`
	ProductID int64           `gorm:"not null;index"`
	Quantity  int             `gorm:"not null;check:chk_sale_items_quantity_positive,quantity > 0"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	LineTotal decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DeletedAt gorm.DeletedAt  `gorm:"index"`

	Sale    *SaleModel    `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	Product *ProductModel `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the persistence model to a domain SaleItem
func (m *SaleItemModel) ToDomain() *trade.SaleItem {
	return &trade.SaleItem{
		LineItem: trade.LineItem{
			BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
			ProductID:  m.ProductID,
			Quantity:   m.Quantity,
			LineTotal:  m.LineTotal,
			DeletedAt:  deletedAtPtr(m.DeletedAt.Time, m.DeletedAt.Valid),
		},
		SaleID:    m.SaleID,
		UnitPrice: m.UnitPrice,
	}
}

// FromDomain populates the persistence model from a domain SaleItem
func (m *SaleItemModel) FromDomain(i *trade.SaleItem) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.SaleID = i.SaleID
	m.ProductID = i.ProductID
	m.Quantity = i.Quantity
	m.UnitPrice = i.UnitPrice
	m.LineTotal = i.LineTotal
	m.DeletedAt = gorm.DeletedAt{}
	if i.DeletedAt != nil {
		m.DeletedAt = gorm.DeletedAt{Time: *i.DeletedAt, Valid: true}
	}
}

// PurchaseModel is the persistence model for the Purchase aggregate root.
type PurchaseModel struct {
	AggregateModel
	SupplierName string          `gorm:"type:varchar(100)"`
	Total        decimal.Decimal `gorm:"type:numeric(12,2);not null;check:chk_purchases_total_non_negative,total >= 0"`
	Notes        string          `gorm:"type:text"`
	PurchaseDate time.Time       `gorm:"type:date;not null;index"`
	ReceivedBy   int64           `gorm:"not null;index"`
	DeletedAt    gorm.DeletedAt  `gorm:"index"`

	Receiver *UserModel `gorm:"foreignKey:ReceivedBy;constraint:OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (PurchaseModel) TableName() string {
	return "purchases"
}

// ToDomain converts the persistence model to a domain Purchase. Items are loaded separately.
func (m *PurchaseModel) ToDomain() *trade.Purchase {
	return &trade.Purchase{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		SupplierName:      m.SupplierName,
		Total:             m.Total,
		Notes:             m.Notes,
		PurchaseDate:      m.PurchaseDate,
		ReceivedBy:        m.ReceivedBy,
	}
}

// FromDomain populates the persistence model from a domain Purchase
func (m *PurchaseModel) FromDomain(p *trade.Purchase) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.SupplierName = p.SupplierName
	m.Total = p.Total
	m.Notes = p.Notes
	m.PurchaseDate = DateOnly(p.PurchaseDate)
	m.ReceivedBy = p.ReceivedBy
}

// PurchaseItemModel is the persistence model for a purchase line.
type PurchaseItemModel struct {
	BaseModel
	PurchaseID int64           `gorm:"not null;index"`
	ProductID  int64           `gorm:"not null;index"`
	Quantity   int             `gorm:"not null;check:chk_purchase_items_quantity_positive,quantity > 0"`
	UnitCost   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	LineTotal  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DeletedAt  gorm.DeletedAt  `gorm:"index"`

	Purchase *PurchaseModel `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
	Product  *ProductModel  `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (PurchaseItemModel) TableName() string {
	return "purchase_items"
}

// ToDomain converts the persistence model to a domain PurchaseItem
func (m *PurchaseItemModel) ToDomain() *trade.PurchaseItem {
	return &trade.PurchaseItem{
		LineItem: trade.LineItem{
			BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
			ProductID:  m.ProductID,
			Quantity:   m.Quantity,
			LineTotal:  m.LineTotal,
			DeletedAt:  deletedAtPtr(m.DeletedAt.Time, m.DeletedAt.Valid),
		},
		PurchaseID: m.PurchaseID,
		UnitCost:   m.UnitCost,
	}
}

// FromDomain populates the persistence model from a domain PurchaseItem
func (m *PurchaseItemModel) FromDomain(i *trade.PurchaseItem) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.PurchaseID = i.PurchaseID
	m.ProductID = i.ProductID
	m.Quantity = i.Quantity
	m.UnitCost = i.UnitCost
	m.LineTotal = i.LineTotal
	m.DeletedAt = gorm.DeletedAt{}
	if i.DeletedAt != nil {
		m.DeletedAt = gorm.DeletedAt{Time: *i.DeletedAt, Valid: true}
	}
}
