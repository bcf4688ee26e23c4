// Package validation wraps go-playground/validator with conversion to the
// application's error taxonomy.
//
// Request structs declare their rules with `validate:"..."` tags; handlers
// call Validate after decoding the JSON body and pass any error straight to
// writeError, which maps it to 400. The original app accepted documents
// as-is with no field checks; requiring the handful of fields each route
// actually depends on closes that gap without inventing a schema layer.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nahid/queryhive-server/internal/apperror"
)

// Validator wraps validator/v10 with apperror conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for this API.
func New() *Validator {
	v := validator.New()

	// Report field names as their JSON tags, so error messages match what
	// the client actually sent ("queryTitle", not "QueryTitle").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Strip options like omitempty
		if i := strings.IndexByte(name, ','); i >= 0 {
			name = name[:i]
		}
		if name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns an apperror validation error
// naming the first offending field, or nil.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.ValidationFailed("", "invalid request body")
	}

	e := fieldErrs[0]
	return apperror.ValidationFailed(e.Field(),
		fmt.Sprintf("%s %s", e.Field(), friendlyMessage(e)))
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}
