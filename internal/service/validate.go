package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"fsanano/food-market/internal/apperr"
)

var inputs = newInputValidator()

func newInputValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// notblank rejects strings that are empty once trimmed.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	// known accepts enum values whose type reports them as valid.
	_ = v.RegisterValidation("known", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(interface{ Valid() bool })
		return ok && e.Valid()
	})
	return v
}

// check validates the struct tags of in. The result is never nil so callers
// can append rules that tags cannot express before calling OrNil.
func check(in any) *apperr.ValidationError {
	v := apperr.NewValidation()

	err := inputs.Struct(in)
	if err == nil {
		return v
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return v.Add("input", err.Error())
	}
	for _, fe := range fields {
		v.Add(fieldKey(fe), describeRule(fe))
	}
	return v
}

// fieldKey turns "PlaceOrderInput.items[0].quantity" into "items.0.quantity".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	return strings.NewReplacer("[", ".", "]", "").Replace(ns)
}

func describeRule(fe validator.FieldError) string {
	countable := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map

	switch fe.Tag() {
	case "required", "notblank", "required_with", "required_without":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "latitude":
		return "must be between -90 and 90"
	case "longitude":
		return "must be between -180 and 180"
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "known":
		return "is not a known value"
	case "min", "gte":
		switch {
		case fe.Kind() == reflect.String:
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		case countable:
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max", "lte":
		switch {
		case fe.Kind() == reflect.String:
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		case countable:
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "ltfield":
		return "must be less than " + strings.ToLower(fe.Param())
	}
	return "is invalid"
}
