package section

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate applies each field's rules to the given values.
func (s Section) Validate(v Values) error {
	var msgs []string
	for _, f := range s.Fields {
		if f.Rules == "" {
			continue
		}
		val, ok := v[f.Name]
		if !ok || val == nil {
			val = coerce(f.Kind, nil)
		}
		if err := validate.Var(val, f.Rules); err != nil {
			msgs = append(msgs, formatFieldError(f, err))
		}
	}
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

func formatFieldError(f Field, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Sprintf("%s is invalid", f.Label)
	}
	e := verrs[0]
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", f.Label)
	case "min":
		if f.Kind == KindList && e.Kind() == reflect.Slice {
			return fmt.Sprintf("%s needs at least %s entries", f.Label, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", f.Label, e.Param())
	case "max":
		if f.Kind == KindList && e.Kind() == reflect.Slice {
			return fmt.Sprintf("%s can have at most %s entries", f.Label, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", f.Label, e.Param())
	case "numeric":
		return fmt.Sprintf("%s must be a number", f.Label)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f.Label, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", f.Label)
	}
}
