package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/minegocio/backend/internal/domain/shared/valueobject"
	"github.com/minegocio/backend/internal/interfaces/http/dto"
)

// SetupValidator configures gin's validator: json field names in errors,
// decimals validated through their string form, and the money2 and
// currency tags.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	RegisterValidations(v)
	return nil
}

// RegisterValidations installs the custom tags on v
func RegisterValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("money2", validateMoney2)
	_ = v.RegisterValidation("currency", validateCurrency)
}

// validateMoney2 accepts non-negative amounts with at most two decimals
func validateMoney2(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return false
	}
	if d.IsNegative() {
		return false
	}
	return d.Equal(d.Round(valueobject.MoneyScale))
}

func validateCurrency(fl validator.FieldLevel) bool {
	_, err := valueobject.ParseCurrency(fl.Field().String())
	return err == nil
}

// BindingError converts a gin binding failure into the error body. Field
// errors become VALIDATION_ERROR with one message per field, an oversized
// body becomes REQUEST_TOO_LARGE, anything else is a malformed request.
func BindingError(err error) *dto.ErrorInfo {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		for _, e := range fieldErrs {
			fields[fieldPath(e)] = getValidationMessage(e)
		}
		return &dto.ErrorInfo{
			Code:    dto.ErrCodeValidation,
			Message: "Request validation failed",
			Details: map[string]any{"fields": fields},
		}
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &dto.ErrorInfo{Code: dto.ErrCodeRequestTooLarge, Message: "Request body exceeds maximum allowed size"}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &dto.ErrorInfo{
			Code:    dto.ErrCodeValidation,
			Message: "Request validation failed",
			Details: map[string]any{"fields": map[string]string{typeErr.Field: "Invalid type"}},
		}
	}

	return &dto.ErrorInfo{Code: dto.ErrCodeBadRequest, Message: "Malformed request body"}
}

// fieldPath drops the top-level struct name: "CreateSaleRequest.items[0].quantity"
// becomes "items[0].quantity".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "datetime":
		return "Must be a date in the format YYYY-MM-DD"
	case "money2":
		return "Must be a non-negative amount with at most 2 decimals"
	case "currency":
		return "Unsupported currency"
	default:
		return "Invalid value"
	}
}
