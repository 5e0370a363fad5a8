package handlers

import (
	"fmt"

	"delivery_notes_app_go/services"

	"github.com/go-playground/validator/v10"
)

// RequestValidator plugs go-playground/validator into echo
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates the validator registered on the echo instance
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate checks struct tags. Failures wrap services.ErrValidation.
func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return fmt.Errorf("%w: %s", services.ErrValidation, err.Error())
	}
	return nil
}
