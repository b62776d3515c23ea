package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/srag/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func structValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by the keys they are configured with.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, opts, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
			if name == "-" {
				return "-"
			}
			if name == "" && strings.Contains(opts, "squash") {
				return ""
			}
			if name == "" {
				return toSnakeCase(fld.Name)
			}
			return name
		})
	})
	return validate
}

// Struct checks s against its `validate` tags.
func Struct(s any) error {
	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.Validation(err.Error()).WithCause(err)
	}

	v := New()
	for _, e := range fieldErrs {
		v.AddError(fieldPath(e.Namespace()), message(e))
	}
	return v.Err()
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte", "min":
		return "must be at least " + e.Param()
	case "lte", "max":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	default:
		return fmt.Sprintf("failed %q", e.Tag())
	}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
