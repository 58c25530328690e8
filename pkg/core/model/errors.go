package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrNotFound = errors.New("not found")

// ValidationError reports a malformed entity. It is returned at construction
// time and never coerced into a valid value.
type ValidationError struct {
	Entity  string
	ID      string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("invalid %s %s: %s %s", e.Entity, e.ID, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s %s", e.Entity, e.Field, e.Message)
}

// fromValidatorError converts the first struct-tag failure into a ValidationError
func fromValidatorError(entity, id string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Entity: entity, ID: id, Field: "value", Message: err.Error()}
	}
	fe := verrs[0]
	msg := fmt.Sprintf("failed %q check", fe.Tag())
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "gte", "min":
		msg = fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "lte", "max":
		msg = fmt.Sprintf("must be at most %s, got %v", fe.Param(), fe.Value())
	case "oneof":
		msg = fmt.Sprintf("must be one of [%s], got %v", fe.Param(), fe.Value())
	}
	return &ValidationError{Entity: entity, ID: id, Field: lowerFirst(fe.Field()), Message: msg}
}

// ValidateStruct runs the struct-tag rules on any model value
func ValidateStruct(entity, id string, v any) error {
	if err := validate.Struct(v); err != nil {
		return fromValidatorError(entity, id, err)
	}
	return nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
