package service

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yourname/snusquit/internal"
	"github.com/yourname/snusquit/internal/storage"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(internal.DateLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return storage.ValidID(fl.Field().String())
	})
	v.RegisterAlias("craving", "gte=1,lte=10")
	return v
}

// validateStruct runs the struct tags and reports the first failing field.
func validateStruct(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return internal.Invalid("invalid request body")
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return internal.Invalid("%s is required", field)
	case "objectid":
		return internal.Invalid("Invalid %s", field)
	case "date":
		return internal.Invalid("%s must be a date (YYYY-MM-DD)", field)
	case "oneof":
		return internal.Invalid("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "craving":
		return internal.Invalid("%s must be between 1 and 10", field)
	case "gte":
		return internal.Invalid("%s must be at least %s", field, fe.Param())
	default:
		return internal.Invalid("%s is invalid", field)
	}
}

// ValidateUserID checks a path-supplied user reference.
func ValidateUserID(id string) error {
	if !storage.ValidID(id) {
		return internal.Invalid("Invalid user_id")
	}
	return nil
}
