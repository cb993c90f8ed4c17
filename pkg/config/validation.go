package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				return fmt.Errorf("invalid config: field %s failed rule %q",
					fieldError.Namespace(), fieldError.Tag())
			}
		}
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
