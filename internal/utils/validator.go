// internal/utils/validator.go
package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/storefront-backend/internal/catalog"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("sort_key", validateSortKey)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateSortKey(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || catalog.IsValidSortKey(value)
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of " + e.Param()
	case "sort_key":
		return "Sort must be one of newest, price_asc, price_desc, name_asc, name_desc"
	default:
		return e.Field() + " is invalid"
	}
}
