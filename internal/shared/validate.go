package shared

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct runs `validate` struct tags and converts the first failure into a [ValidationError].
//
// Messages follow the form copy shown to users, e.g. "Email is required" or "Enter a valid email".
func ValidateStruct(v any) error {
	err := formValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := fieldErrs[0]
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: strings.ToLower(label), Message: label + " is required"}
	case "email":
		return &ValidationError{Field: strings.ToLower(label), Message: "Enter a valid email"}
	default:
		return &ValidationError{Field: strings.ToLower(label), Message: label + " is invalid"}
	}
}
