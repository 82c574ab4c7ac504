// Package validation checks request DTOs against their struct tags and
// reports problems keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"contact-service/internal/apperrors"

	"github.com/go-playground/validator/v10"
)

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	attrKeyPattern  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _]*$`)
	tagColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// Validator implements echo.Validator
type Validator struct {
	validate *validator.Validate
}

// New returns a validator with JSON field names and the service's custom rules
func New() *Validator {
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

	_ = v.RegisterValidation("slug", matches(slugPattern))
	_ = v.RegisterValidation("attrkey", matches(attrKeyPattern))
	_ = v.RegisterValidation("tagcolor", matches(tagColorPattern))

	return &Validator{validate: v}
}

func matches(p *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return p.MatchString(fl.Field().String())
	}
}

// Validate checks i and returns a VALIDATION error listing each failing field
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Validation(err.Error())
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fieldPath(fe)] = formatFieldError(fe)
	}
	return apperrors.FieldValidation("Validation failed", fields)
}

// fieldPath drops the root struct name: "CreateContactRequest.name" -> "name"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "slug":
		return "must contain lower-case letters, digits and single hyphens"
	case "attrkey":
		return "must contain letters, digits, spaces or underscores"
	case "tagcolor":
		return "must be a hex color such as #4F46E5"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	}
	return "is invalid"
}
