package domain

import (
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?\d+$`)

// ShippingInfo is the delivery address captured on the place-order form.
type ShippingInfo struct {
	FirstName string `json:"firstName" validate:"required,min=2"`
	LastName  string `json:"lastName" validate:"required,min=2"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Street    string `json:"street" validate:"required,min=5"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state,omitempty"`
	Zipcode   string `json:"zipcode,omitempty"`
	Country   string `json:"country" validate:"required"`
	Phone     string `json:"phone" validate:"required,min=8,max=15,phone"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func shippingValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Normalize trims every field and reduces the phone to digits with an
// optional leading "+".
func (s ShippingInfo) Normalize() ShippingInfo {
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.Email = strings.TrimSpace(s.Email)
	s.Street = strings.TrimSpace(s.Street)
	s.City = strings.TrimSpace(s.City)
	s.State = strings.TrimSpace(s.State)
	s.Zipcode = strings.TrimSpace(s.Zipcode)
	s.Country = strings.TrimSpace(s.Country)
	s.Phone = normalizePhone(s.Phone)
	return s
}

func normalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "+" {
		return ""
	}
	return out
}

// Validate reports the first failing field of the form.
func (s ShippingInfo) Validate() error {
	return shippingValidator().Struct(s)
}
