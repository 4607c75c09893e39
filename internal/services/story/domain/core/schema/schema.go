// Package schema validates record shapes declared with validator struct tags.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/errors"
)

// ErrInvalid matches every schema validation error through errors.Is.
var ErrInvalid = apperrors.New(apperrors.CodeSchemaValidation, "record shape is invalid")

// recordValidate is shared by every record type; validator caches struct
// metadata so one instance is reused.
var recordValidate *validator.Validate

func init() {
	recordValidate = validator.New(validator.WithRequiredStructEnabled())
	recordValidate.RegisterTagNameFunc(jsonFieldName)
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// Violations validates v against its struct tags and returns one message per
// failing field, using JSON field paths. It returns nil when v is valid.
func Violations(v any) []string {
	err := recordValidate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, describe(fe))
	}
	return out
}

func describe(fe validator.FieldError) string {
	path := fe.Namespace()
	if _, rest, ok := strings.Cut(path, "."); ok {
		path = rest
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", path, fe.Param(), fe.Value())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", path, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", path, fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a uuid", path)
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s", path, fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s failed %s", path, fe.Tag())
	}
}

// Check validates v and returns a schema validation error describing every
// violation, or nil.
func Check(record string, v any) error {
	return FromViolations(record, Violations(v))
}

// FromViolations builds a schema validation error for record, or returns nil
// when violations is empty.
func FromViolations(record string, violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return apperrors.WithMetadata(
		apperrors.CodeSchemaValidation,
		fmt.Sprintf("%s is invalid: %s", record, strings.Join(violations, "; ")),
		map[string]string{
			"record":     record,
			"violations": strings.Join(violations, "; "),
		},
	)
}

// Invalid returns a schema validation error for a single field.
func Invalid(record, field, reason string) error {
	return FromViolations(record, []string{fmt.Sprintf("%s %s", field, reason)})
}
