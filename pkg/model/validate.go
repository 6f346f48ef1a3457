package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/newtron-network/netpec/pkg/util"
)

// validate is a singleton validator instance
var validate = validator.New()

// Validator returns the shared struct validator so that other packages
// validate with the same instance.
func Validator() *validator.Validate {
	return validate
}

// Validate checks the record's struct tags
func (s SourceRecord) Validate() error {
	return ValidateStruct(s)
}

// ValidateStruct validates v and converts field errors into a
// *util.ValidationError listing every failing field.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	vb := &util.ValidationBuilder{}
	for _, e := range fieldErrs {
		vb.AddError(formatFieldError(e))
	}
	return vb.Build()
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: field is required", field)
	case "oneof":
		return fmt.Sprintf("%s: %q must be one of [%s]", field, e.Value(), e.Param())
	case "ipv4":
		return fmt.Sprintf("%s: %q is not an IPv4 address", field, e.Value())
	case "gte":
		return fmt.Sprintf("%s: must be at least %s", field, e.Param())
	case "len":
		return fmt.Sprintf("%s: must have exactly %s entries", field, e.Param())
	case "numeric":
		return fmt.Sprintf("%s: %q is not numeric", field, e.Value())
	default:
		return fmt.Sprintf("%s: validation failed (%s)", field, e.Tag())
	}
}
