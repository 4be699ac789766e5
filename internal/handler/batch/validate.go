package batch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"RollSpread/internal/domain/models"
	"RollSpread/internal/services/spread"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateDefinition applies defaults to def and validates it. Every failing
// field is reported in one spread.FieldErrors.
func ValidateDefinition(ctx context.Context, def *models.SpreadDefinition) error {
	if err := defaults.Set(def); err != nil {
		return fmt.Errorf("set defaults: %w", err)
	}
	if err := validate.StructCtx(ctx, def); err != nil {
		return validatorDefaultRules(err)
	}
	return nil
}

func validatorDefaultRules(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errs := make(spread.FieldErrors, 0, len(validationErrors))
		for _, e := range validationErrors {
			errs = append(errs, &spread.InvalidInputError{
				Field:  fieldPath(e),
				Reason: getErrorMessage(e),
			})
		}
		return errs.Err()
	}
	return spread.FieldErrors{{Field: "definition", Reason: err.Error()}}
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
