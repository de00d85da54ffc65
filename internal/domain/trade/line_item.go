package trade

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/domain/shared/valueobject"
)

// LineItem holds the fields sale and purchase lines share.
// LineTotal is always derived from Quantity and the unit amount.
type LineItem struct {
	shared.BaseEntity
	ProductID int64
	Quantity  int
	LineTotal decimal.Decimal
	DeletedAt *time.Time
}

// IsDeleted reports whether the line was soft deleted
func (l *LineItem) IsDeleted() bool {
	return l.DeletedAt != nil
}

// MarkDeleted soft deletes the line
func (l *LineItem) MarkDeleted(at time.Time) error {
	if l.DeletedAt != nil {
		return shared.NewDomainError("ALREADY_DELETED", "Line item is already deleted")
	}
	l.DeletedAt = &at
	l.UpdatedAt = at
	return nil
}

func (l *LineItem) apply(quantity int, unitAmount decimal.Decimal, priceField string) error {
	total, err := valueobject.ComputeLineTotal(quantity, unitAmount, priceField)
	if err != nil {
		return err
	}
	l.Quantity = quantity
	l.LineTotal = total
	l.Touch()
	return nil
}

func requireRef(field string, id int64) error {
	if id <= 0 {
		return shared.NewValidationError(field, "is required")
	}
	return nil
}

// calendarDay renders the date part of t in its own location.
func calendarDay(t time.Time) string {
	return t.Format(time.DateOnly)
}

func validateNotFuture(field string, date, now time.Time) error {
	if date.IsZero() {
		return shared.NewValidationError(field, "is required")
	}
	if calendarDay(date) > calendarDay(now) {
		return shared.NewValidationError(field, "cannot be in the future")
	}
	return nil
}
