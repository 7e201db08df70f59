package config

import (
	"reflect"

	pserr "github.com/peoplesuite/peoplesuite-core/pkg/errors"
)

// Validator is an optional interface that configuration structs may
// implement for custom validation. If the struct passed to [Loader.Load]
// implements Validator, its Validate method runs after the tag-based
// `required` checks succeed.
//
// Validate should return the first validation failure, or nil. Errors
// that already are [*pserr.Error] pass through unchanged; anything else
// is wrapped with [pserr.CodeValidation].
type Validator interface {
	Validate() error
}

// validate runs required-tag validation and then the Validator interface
// if the struct implements it.
func validate(cfg any, rv reflect.Value) error {
	if err := validateRequired(rv, ""); err != nil {
		return err
	}

	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			if _, isPlatformErr := pserr.AsError(err); isPlatformErr {
				return err
			}
			return pserr.Wrap(err, pserr.CodeValidation,
				"config: custom validation failed")
		}
	}

	return nil
}

// validateRequired recursively checks that fields tagged
// `required:"true"` hold non-zero values. The path parameter carries the
// dotted field path for error messages (e.g., "Resolver.BaseURL").
func validateRequired(rv reflect.Value, path string) error {
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rv.Field(i)
		sf := rt.Field(i)

		if !field.CanSet() {
			continue
		}

		fieldPath := sf.Name
		if path != "" {
			fieldPath = path + "." + sf.Name
		}

		if field.Kind() == reflect.Struct && sf.Type != durationType {
			if err := validateRequired(field, fieldPath); err != nil {
				return err
			}
			continue
		}

		if sf.Tag.Get("required") != "true" {
			continue
		}

		if field.IsZero() {
			return pserr.Newf(pserr.CodeValidationRequired,
				"config: required field %q is not set", fieldPath)
		}
	}

	return nil
}
