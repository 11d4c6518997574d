package validation

import (
	stderrors "errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"hajzi/pkg/errors"
)

// New returns a validator that reports field names by their json tag.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Check validates s and converts a rule failure into a VALIDATION_ERROR.
func Check(v *validator.Validate, s interface{}) error {
	if err := v.Struct(s); err != nil {
		return errors.Validation(Message(err), err)
	}
	return nil
}

// Message renders the first failing rule as a human readable sentence.
func Message(err error) string {
	var validationErr validator.ValidationErrors
	if stderrors.As(err, &validationErr) && len(validationErr) > 0 {
		return fieldMessage(validationErr[0])
	}
	return "Invalid input data"
}

func fieldMessage(err validator.FieldError) string {
	field := lowerFirst(err.Field())
	param := err.Param()

	switch err.Tag() {
	case "required":
		return field + " is required"
	case "required_without":
		return field + " is required when " + lowerFirst(param) + " is empty"
	case "min":
		return field + " must be at least " + param
	case "max":
		return field + " must be at most " + param
	case "oneof":
		return field + " must be one of: " + param
	case "email":
		return field + " must be a valid email address"
	case "url":
		return field + " must be a valid URL"
	case "datetime":
		return field + " must match the format " + param
	case "nefield":
		return field + " must differ from " + lowerFirst(param)
	default:
		return field + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
