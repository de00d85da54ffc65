package trade

import (
	"time"

	"github.com/minegocio/backend/internal/domain/shared"
)

// parseDate reads a YYYY-MM-DD calendar date. An empty string yields the
// zero time, which the domain constructors replace with today.
func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return time.Time{}, shared.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

// parseOptionalDate reads a date that may be absent from an update
func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := parseDate(field, *value)
	if err != nil {
		return nil, err
	}
	if t.IsZero() {
		return nil, shared.NewValidationError(field, "must not be empty")
	}
	return &t, nil
}

// startOfWeek returns midnight of the Monday on or before t
func startOfWeek(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// parseRange reads optional inclusive from/to bounds
func parseRange(from, to string) (*time.Time, *time.Time, error) {
	var fromPtr, toPtr *time.Time
	if from != "" {
		t, err := parseDate("from", from)
		if err != nil {
			return nil, nil, err
		}
		fromPtr = &t
	}
	if to != "" {
		t, err := parseDate("to", to)
		if err != nil {
			return nil, nil, err
		}
		toPtr = &t
	}
	if fromPtr != nil && toPtr != nil && toPtr.Before(*fromPtr) {
		return nil, nil, shared.NewValidationError("to", "must not be before from")
	}
	return fromPtr, toPtr, nil
}
