package trade

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/trade"
)

// ==================== Sale DTOs ====================

// CreateSaleRequest represents a request to create a sale.
// SaleNumber is normally left empty and assigned from the counter.
type CreateSaleRequest struct {
	SaleNumber    string                `json:"sale_number" binding:"omitempty,max=20"`
	CustomerName  string                `json:"customer_name" binding:"max=100"`
	PaymentMethod string                `json:"payment_method" binding:"required,oneof=cash card transfer credit"`
	SaleDate      string                `json:"sale_date" binding:"omitempty,datetime=2006-01-02"`
	Notes         string                `json:"notes" binding:"max=1000"`
	Items         []CreateSaleItemInput `json:"items" binding:"omitempty,dive"`
}

// CreateSaleItemInput is one line of a new sale
type CreateSaleItemInput struct {
	ProductID int64           `json:"product_id" binding:"required,gt=0"`
	Quantity  int             `json:"quantity" binding:"required,gt=0,lte=2147483647"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"money2"`
}

// UpdateSaleItemRequest represents a request to change a sale line
type UpdateSaleItemRequest struct {
	Quantity  int             `json:"quantity" binding:"required,gt=0,lte=2147483647"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"money2"`
}

// UpdateSaleRequest changes the header of a sale. Nil fields are kept.
type UpdateSaleRequest struct {
	CustomerName  *string `json:"customer_name" binding:"omitempty,max=100"`
	PaymentMethod *string `json:"payment_method" binding:"omitempty,oneof=cash card transfer credit"`
	SaleDate      *string `json:"sale_date" binding:"omitempty,datetime=2006-01-02"`
	Notes         *string `json:"notes" binding:"omitempty,max=1000"`
	Version       *int    `json:"version" binding:"omitempty,gt=0"`
}

// SaleStatsResponse summarises recent sales for the sales screen.
// PaymentMethods holds the current month's amount per method.
type SaleStatsResponse struct {
	TodayTotal     decimal.Decimal            `json:"today_total"`
	TodayCount     int                        `json:"today_count"`
	WeekTotal      decimal.Decimal            `json:"week_total"`
	MonthTotal     decimal.Decimal            `json:"month_total"`
	PaymentMethods map[string]decimal.Decimal `json:"payment_methods"`
}

// SaleListFilter represents filter options for the sale list
type SaleListFilter struct {
	Search        string `form:"search"`
	From          string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To            string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	SoldBy        *int64 `form:"sold_by"`
	PaymentMethod string `form:"payment_method" binding:"omitempty,oneof=cash card transfer credit"`
	Page          int    `form:"page" binding:"min=0"`
	PageSize      int    `form:"page_size" binding:"min=0,max=100"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID            int64              `json:"id"`
	SaleNumber    string             `json:"sale_number"`
	CustomerName  string             `json:"customer_name"`
	Total         decimal.Decimal    `json:"total"`
	PaymentMethod string             `json:"payment_method"`
	SaleDate      string             `json:"sale_date"`
	SoldBy        int64              `json:"sold_by"`
	Notes         string             `json:"notes"`
	Items         []SaleItemResponse `json:"items,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Version       int                `json:"version"`
}

// SaleItemResponse represents a sale line in API responses
type SaleItemResponse struct {
	ID        int64           `json:"id"`
	SaleID    int64           `json:"sale_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SaleItemsResponse lists the live lines of a sale with their summary
type SaleItemsResponse struct {
	SaleID  int64              `json:"sale_id"`
	Items   []SaleItemResponse `json:"items"`
	Summary trade.ItemSummary  `json:"summary"`
}

// ToSaleResponse converts a domain Sale to SaleResponse
func ToSaleResponse(s *trade.Sale) SaleResponse {
	resp := SaleResponse{
		ID:            s.ID,
		SaleNumber:    s.SaleNumber,
		CustomerName:  s.CustomerName,
		Total:         s.Total,
		PaymentMethod: s.PaymentMethod.String(),
		SaleDate:      s.SaleDate.Format(time.DateOnly),
		SoldBy:        s.SoldBy,
		Notes:         s.Notes,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		Version:       s.Version,
	}
	if len(s.Items) > 0 {
		resp.Items = ToSaleItemResponses(s.Items)
	}
	return resp
}

// ToSaleResponses converts a slice of sales
func ToSaleResponses(sales []trade.Sale) []SaleResponse {
	out := make([]SaleResponse, len(sales))
	for i := range sales {
		out[i] = ToSaleResponse(&sales[i])
	}
	return out
}

// ToSaleItemResponse converts a domain SaleItem to SaleItemResponse
func ToSaleItemResponse(item *trade.SaleItem) SaleItemResponse {
	return SaleItemResponse{
		ID:        item.ID,
		SaleID:    item.SaleID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
		LineTotal: item.LineTotal,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

// ToSaleItemResponses converts a slice of sale items
func ToSaleItemResponses(items []trade.SaleItem) []SaleItemResponse {
	out := make([]SaleItemResponse, len(items))
	for i := range items {
		out[i] = ToSaleItemResponse(&items[i])
	}
	return out
}

// ==================== Purchase DTOs ====================

// CreatePurchaseRequest represents a request to record received goods
type CreatePurchaseRequest struct {
	SupplierName string                    `json:"supplier_name" binding:"max=100"`
	PurchaseDate string                    `json:"purchase_date" binding:"omitempty,datetime=2006-01-02"`
	Notes        string                    `json:"notes" binding:"max=1000"`
	Items        []CreatePurchaseItemInput `json:"items" binding:"omitempty,dive"`
}

// CreatePurchaseItemInput is one line of a new purchase
type CreatePurchaseItemInput struct {
	ProductID int64           `json:"product_id" binding:"required,gt=0"`
	Quantity  int             `json:"quantity" binding:"required,gt=0,lte=2147483647"`
	UnitCost  decimal.Decimal `json:"unit_cost" binding:"money2"`
}

// UpdatePurchaseItemRequest represents a request to change a purchase line
type UpdatePurchaseItemRequest struct {
	Quantity int             `json:"quantity" binding:"required,gt=0,lte=2147483647"`
	UnitCost decimal.Decimal `json:"unit_cost" binding:"money2"`
}

// UpdatePurchaseRequest changes the header of a purchase. Nil fields are
// kept. Only the owner may hand a purchase to another receiver.
type UpdatePurchaseRequest struct {
	SupplierName *string `json:"supplier_name" binding:"omitempty,max=100"`
	Notes        *string `json:"notes" binding:"omitempty,max=1000"`
	PurchaseDate *string `json:"purchase_date" binding:"omitempty,datetime=2006-01-02"`
	ReceivedBy   *int64  `json:"received_by" binding:"omitempty,gt=0"`
	Version      *int    `json:"version" binding:"omitempty,gt=0"`
}

// PurchaseStatsFilter narrows the purchase statistics
type PurchaseStatsFilter struct {
	From         string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	To           string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
	ReceivedBy   *int64 `form:"received_by" binding:"omitempty,gt=0"`
	SupplierName string `form:"supplier_name" binding:"max=100"`
}

// PurchaseStatsResponse aggregates the purchases matching a filter.
// MonthlyPurchases always covers the six months ending with the current one.
type PurchaseStatsResponse struct {
	TotalPurchases   int                    `json:"total_purchases"`
	TotalAmount      decimal.Decimal        `json:"total_amount"`
	AverageAmount    decimal.Decimal        `json:"average_amount"`
	MinAmount        decimal.Decimal        `json:"min_amount"`
	MaxAmount        decimal.Decimal        `json:"max_amount"`
	MonthlyPurchases []MonthlyPurchaseStat  `json:"monthly_purchases"`
	TopSuppliers     []SupplierPurchaseStat `json:"top_suppliers"`
}

// MonthlyPurchaseStat is one month of purchases
type MonthlyPurchaseStat struct {
	Month       string          `json:"month"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// SupplierPurchaseStat is one supplier's share of the purchases
type SupplierPurchaseStat struct {
	SupplierName string          `json:"supplier_name"`
	Count        int             `json:"count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// PurchaseSummaryResponse is a purchase with named lines and totals
type PurchaseSummaryResponse struct {
	PurchaseID    int64                 `json:"purchase_id"`
	SupplierName  string                `json:"supplier_name"`
	PurchaseDate  string                `json:"purchase_date"`
	ReceivedBy    int64                 `json:"received_by"`
	TotalItems    int                   `json:"total_items"`
	TotalQuantity int                   `json:"total_quantity"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	Items         []PurchaseSummaryLine `json:"items"`
}

// PurchaseSummaryLine is one line of a purchase summary
type PurchaseSummaryLine struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// ProductPurchaseResponse is one purchase line of a product with its purchase
type ProductPurchaseResponse struct {
	PurchaseItemID int64           `json:"purchase_item_id"`
	PurchaseID     int64           `json:"purchase_id"`
	SupplierName   string          `json:"supplier_name"`
	PurchaseDate   string          `json:"purchase_date"`
	ReceivedBy     int64           `json:"received_by"`
	Quantity       int             `json:"quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	LineTotal      decimal.Decimal `json:"line_total"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PurchaseListFilter represents filter options for the purchase list
type PurchaseListFilter struct {
	Search     string `form:"search"`
	From       string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To         string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	ReceivedBy *int64 `form:"received_by"`
	Page       int    `form:"page" binding:"min=0"`
	PageSize   int    `form:"page_size" binding:"min=0,max=100"`
}

// PurchaseResponse represents a purchase in API responses
type PurchaseResponse struct {
	ID           int64                  `json:"id"`
	SupplierName string                 `json:"supplier_name"`
	Total        decimal.Decimal        `json:"total"`
	Notes        string                 `json:"notes"`
	PurchaseDate string                 `json:"purchase_date"`
	ReceivedBy   int64                  `json:"received_by"`
	CanDelete    bool                   `json:"can_delete"`
	Items        []PurchaseItemResponse `json:"items,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	Version      int                    `json:"version"`
}

// PurchaseItemResponse represents a purchase line in API responses
type PurchaseItemResponse struct {
	ID         int64           `json:"id"`
	PurchaseID int64           `json:"purchase_id"`
	ProductID  int64           `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	LineTotal  decimal.Decimal `json:"line_total"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ToPurchaseResponse converts a domain Purchase to PurchaseResponse.
// now decides the can_delete flag.
func ToPurchaseResponse(p *trade.Purchase, now time.Time) PurchaseResponse {
	resp := PurchaseResponse{
		ID:           p.ID,
		SupplierName: p.SupplierName,
		Total:        p.Total,
		Notes:        p.Notes,
		PurchaseDate: p.PurchaseDate.Format(time.DateOnly),
		ReceivedBy:   p.ReceivedBy,
		CanDelete:    p.CanDelete(now),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		Version:      p.Version,
	}
	if len(p.Items) > 0 {
		resp.Items = make([]PurchaseItemResponse, len(p.Items))
		for i := range p.Items {
			resp.Items[i] = ToPurchaseItemResponse(&p.Items[i])
		}
	}
	return resp
}

// ToPurchaseItemResponse converts a domain PurchaseItem to PurchaseItemResponse
func ToPurchaseItemResponse(item *trade.PurchaseItem) PurchaseItemResponse {
	return PurchaseItemResponse{
		ID:         item.ID,
		PurchaseID: item.PurchaseID,
		ProductID:  item.ProductID,
		Quantity:   item.Quantity,
		UnitCost:   item.UnitCost,
		LineTotal:  item.LineTotal,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
}
