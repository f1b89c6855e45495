package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"distribuidora/internal/core/tenant"
)

// RegisterValidators installs the custom tags used by request DTOs on gin's
// validator engine:
//
//	tenant      the value names a city of the registry
//	upper_enum  the upper-cased value is one of the space separated params
func RegisterValidators(registry *tenant.Registry) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return registerOn(v, registry)
}

func registerOn(v *validator.Validate, registry *tenant.Registry) error {
	if err := v.RegisterValidation("tenant", func(fl validator.FieldLevel) bool {
		_, err := registry.Resolve(fl.Field().String())
		return err == nil
	}); err != nil {
		return fmt.Errorf("register tenant validator: %w", err)
	}
	if err := v.RegisterValidation("upper_enum", validateUpperEnum); err != nil {
		return fmt.Errorf("register upper_enum validator: %w", err)
	}
	return nil
}

func validateUpperEnum(fl validator.FieldLevel) bool {
	val := Upper(fl.Field().String())
	for _, opt := range strings.Fields(fl.Param()) {
		if val == opt {
			return true
		}
	}
	return false
}

// FieldErrors flattens validator errors into field -> rule pairs for the
// error details of a 400 response.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[fe.Field()] = rule
	}
	return out
}
