package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/sdejongh/dirlink/pkg/catalog"
	"github.com/sdejongh/dirlink/pkg/errors"
)

var validate = validator.New()

// Validate checks the configuration using struct tags and custom rules
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	if err := catalog.ValidatePatterns(c.Exclude); err != nil {
		return errors.Wrap(err, errors.ErrValidation, "exclude")
	}

	if c.Link.TempSuffix == "." || c.Link.TempSuffix == ".." {
		return errors.Newf(errors.ErrValidation, "link.temp_suffix: %q is not a usable suffix", c.Link.TempSuffix)
	}

	return nil
}

// formatValidationError reports the first failed rule
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
		e := validationErrs[0]
		return errors.New(errors.ErrValidation,
			fmt.Sprintf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())).
			WithDetail("field", e.Namespace())
	}
	return errors.Wrap(err, errors.ErrValidation, "invalid configuration")
}
