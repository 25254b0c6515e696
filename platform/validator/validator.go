// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"cotizador_backend/platform/phone"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator for structured validation.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator with the shared custom rules registered.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("whatsapp_phone", validWhatsAppPhone)
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// validWhatsAppPhone accepts anything that cleans to at least ten digits.
func validWhatsAppPhone(fl validator.FieldLevel) bool {
	cleaned := phone.CleanWhatsAppMX(fl.Field().String())
	return len(cleaned) >= 10 && len(cleaned) <= 15
}
