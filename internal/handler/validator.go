package handler

import (
	"github.com/go-playground/validator/v10"
)

// RequestValidator adapts validator/v10 to echo's Validator interface.
type RequestValidator struct {
	validator *validator.Validate
}

// NewRequestValidator builds a validator with the default rule set.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validator: validator.New()}
}

// Validate checks the struct tags of i.
func (v *RequestValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}
