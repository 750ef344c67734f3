package util

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

func ValidateStruct(s any) error {
	return Validator().Struct(s)
}

// ValidationDetails flattens validator errors into per-field messages
// suitable for a 400 response body.
func ValidationDetails(err error) []string {
	var details []string

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	for _, fieldErr := range validationErrs {
		field := strings.ToLower(fieldErr.Field())
		switch fieldErr.Tag() {
		case "required":
			details = append(details, fmt.Sprintf("%s is required", field))
		case "email":
			details = append(details, fmt.Sprintf("%s must be a valid email address", field))
		case "min":
			details = append(details, fmt.Sprintf("%s must be at least %s characters", field, fieldErr.Param()))
		case "max":
			details = append(details, fmt.Sprintf("%s must be at most %s characters", field, fieldErr.Param()))
		default:
			details = append(details, fmt.Sprintf("%s is invalid", field))
		}
	}

	return details
}
