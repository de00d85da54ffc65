package business

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/business"
	"github.com/minegocio/backend/internal/domain/shared/valueobject"
)

// UpdateBusinessRequest carries optional settings changes
type UpdateBusinessRequest struct {
	Name      *string          `json:"name" binding:"omitempty,min=1,max=100"`
	OwnerName *string          `json:"owner_name" binding:"omitempty,min=1,max=100"`
	Phone     *string          `json:"phone" binding:"omitempty,max=20"`
	Email     *string          `json:"email" binding:"omitempty,max=100"`
	Address   *string          `json:"address" binding:"omitempty,max=200"`
	Currency  *string          `json:"currency" binding:"omitempty,currency"`
	TaxRate   *decimal.Decimal `json:"tax_rate"`
}

func (r UpdateBusinessRequest) toUpdate() business.Update {
	return business.Update{
		Name:      r.Name,
		OwnerName: r.OwnerName,
		Phone:     r.Phone,
		Email:     r.Email,
		Address:   r.Address,
		Currency:  r.Currency,
		TaxRate:   r.TaxRate,
	}
}

// BusinessResponse represents the settings row in API responses
type BusinessResponse struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	OwnerName      string          `json:"owner_name"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	Address        string          `json:"address"`
	Currency       string          `json:"currency"`
	CurrencySymbol string          `json:"currency_symbol"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToBusinessResponse converts the domain row to its response
func ToBusinessResponse(b *business.Business) BusinessResponse {
	return BusinessResponse{
		ID:             b.ID,
		Name:           b.Name,
		OwnerName:      b.OwnerName,
		Phone:          b.Phone,
		Email:          b.Email,
		Address:        b.Address,
		Currency:       b.Currency.String(),
		CurrencySymbol: b.Currency.Symbol(),
		TaxRate:        b.TaxRate,
		UpdatedAt:      b.UpdatedAt,
	}
}

// CurrencyResponse is one entry of the currency allow-list
type CurrencyResponse struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

func supportedCurrencies() []CurrencyResponse {
	codes := valueobject.SupportedCurrencies()
	out := make([]CurrencyResponse, len(codes))
	for i, c := range codes {
		out[i] = CurrencyResponse{Code: c.String(), Symbol: c.Symbol()}
	}
	return out
}
