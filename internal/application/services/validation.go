package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/ports"
)

// FirstReleaseYear is the earliest accepted game release year.
const FirstReleaseYear = 1958

// NewValidator returns a validator with the release_year rule bound to clock.
// A release year is accepted in [FirstReleaseYear, current year + 2].
func NewValidator(clock ports.Clock) *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("release_year", func(fl validator.FieldLevel) bool {
		year := int(fl.Field().Int())
		return year >= FirstReleaseYear && year <= clock().Year()+2
	})
	return v
}

// validateStruct runs v and converts the first failure into a ValidationError.
func validateStruct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("failed to validate %T: %w", s, err)
	}

	fe := verrs[0]
	return &entities.ValidationError{Field: lowerFirst(fe.Field()), Reason: describeTag(fe)}
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "release_year":
		return fmt.Sprintf("must be between %d and two years from now", FirstReleaseYear)
	}
	return fmt.Sprintf("failed %s check", fe.Tag())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
