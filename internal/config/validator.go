package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/webrewind/webrewind/internal/errorwrapper"
)

var validate = validator.New()

// ValidateConfig checks every section's struct tags and reports the first
// violation as a ValidationError.
func ValidateConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return errorwrapper.NewValidationError("config", nil, "config cannot be nil")
	}
	if err := validate.Struct(cfg); err != nil {
		if invalid, ok := err.(*validator.InvalidValidationError); ok {
			return errorwrapper.WrapError(invalid, "config validation internal error")
		}
		for _, fieldErr := range err.(validator.ValidationErrors) {
			return errorwrapper.NewValidationError(
				fieldErr.Namespace(),
				fieldErr.Value(),
				"failed '"+fieldErr.Tag()+"' constraint",
			)
		}
	}
	return nil
}
