package validator

import (
	"errors"
	"strings"
)

// FieldError describes one failed rule
type FieldError struct {
	Field     string `json:"field"`
	Namespace string `json:"namespace"`
	Tag       string `json:"tag"`
	Value     any    `json:"value"`
	Message   string `json:"message"`
}

// ValidationErrors is returned when at least one rule fails
type ValidationErrors struct {
	fields []FieldError
}

func (ve *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve.fields))
	for _, f := range ve.fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Errors returns the failed rules in declaration order
func (ve *ValidationErrors) Errors() []FieldError {
	return ve.fields
}

// IsValidationError reports whether err carries ValidationErrors
func IsValidationError(err error) bool {
	var ve *ValidationErrors
	return errors.As(err, &ve)
}

// HasFieldError reports whether field failed validation
func HasFieldError(err error, field string) bool {
	var ve *ValidationErrors
	if !errors.As(err, &ve) {
		return false
	}
	for _, f := range ve.fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
