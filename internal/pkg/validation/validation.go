// Package validation checks input structs against their validate tags and
// converts failures into BadRequest errors with per-field messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"ponyfiction/internal/pkg/httperr"
)

var loginRegexp = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,48}$`)

var (
	once     sync.Once
	instance *validator.Validate
)

func validate() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("login", func(fl validator.FieldLevel) bool {
			return loginRegexp.MatchString(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// Struct validates s and returns a *httperr.HTTPError on failure.
func Struct(s interface{}) error {
	err := validate().Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validate input failed: %w", err)
	}
	return httperr.BadRequest("Validation failed", extractFieldErrors(validationErrors)...)
}

func extractFieldErrors(validationErrors validator.ValidationErrors) []httperr.FieldError {
	fieldErrors := make([]httperr.FieldError, 0, len(validationErrors))
	for _, err := range validationErrors {
		var msg string

		switch err.Tag() {
		case "required":
			msg = "is required"
		case "min":
			if err.Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", err.Param())
			}
		case "max":
			if err.Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", err.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", err.Param())
			}
		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", err.Param())
		case "email":
			msg = "must be a valid email address"
		case "login":
			msg = "must contain 2 to 48 latin letters, digits, underscores or dashes"
		case "dive":
			msg = "some items are invalid"
		default:
			if err.Param() != "" {
				msg = fmt.Sprintf("%s:%s", err.Tag(), err.Param())
			} else {
				msg = err.Tag()
			}
		}

		fieldErrors = append(fieldErrors, httperr.FieldError{
			Field: fieldPath(err),
			Error: msg,
		})
	}
	return fieldErrors
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return err.Field()
}
