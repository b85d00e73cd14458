package utils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/clover/pkg/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct's validation tags and converts any failure into
// a field-level ValidationError.
func Validate[T any](value T) error {
	if err := validate.Struct(value); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	// Report the first failing field; callers reject the whole input anyway.
	fe := verrs[0]
	return models.NewValidationError(
		strings.ToLower(fe.StructField()),
		fmt.Sprintf("rule '%s' expected '%s', got '%v'", fe.Tag(), fe.Param(), fe.Value()),
	)
}
