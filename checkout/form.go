package checkout

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	PaymentOnline = "online"
	PaymentCash   = "cash"
	PaymentCard   = "card"

	DeliveryShipping = "delivery"
	DeliveryPickup   = "pickup"
)

// Form holds what the buyer entered on the checkout page.
type Form struct {
	PaymentMethod string   `json:"paymentMethod" validate:"required,oneof=online cash card"`
	Email         string   `json:"email" validate:"omitempty,email"`
	Delivery      Delivery `json:"delivery" validate:"-"`
}

// Delivery is only required when the cart holds something to ship or collect.
type Delivery struct {
	Method     string `json:"deliveryMethod" validate:"required,oneof=delivery pickup"`
	FullName   string `json:"fullName" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
}

func (f Form) normalized() Form {
	trim := strings.TrimSpace
	f.PaymentMethod = strings.ToLower(trim(f.PaymentMethod))
	f.Email = trim(f.Email)
	f.Delivery = Delivery{
		Method:     strings.ToLower(trim(f.Delivery.Method)),
		FullName:   trim(f.Delivery.FullName),
		Phone:      trim(f.Delivery.Phone),
		Address:    trim(f.Delivery.Address),
		City:       trim(f.Delivery.City),
		PostalCode: trim(f.Delivery.PostalCode),
	}
	return f
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// FieldError lists the form fields, by their JSON names, that need the buyer's attention.
type FieldError struct {
	Missing []string
	Invalid []string
}

func (e *FieldError) Error() string {
	return "checkout form: " + e.Message()
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// Message is the text shown to the buyer.
func (e *FieldError) Message() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "Please fill in "+strings.Join(e.Missing, ", ")+".")
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "Please check "+strings.Join(e.Invalid, ", ")+".")
	}
	return strings.Join(parts, " ")
}

// validateForm checks f, skipping delivery details for ticket-only carts.
func validateForm(v *validator.Validate, f Form, ticketOnly bool) error {
	fieldErr := &FieldError{}
	collect := func(err error) error {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return err
		}
		for _, fe := range errs {
			if fe.Tag() == "required" {
				fieldErr.Missing = append(fieldErr.Missing, fe.Field())
			} else {
				fieldErr.Invalid = append(fieldErr.Invalid, fe.Field())
			}
		}
		return nil
	}

	if err := collect(v.Struct(f)); err != nil {
		return err
	}
	if !ticketOnly {
		if err := collect(v.Struct(f.Delivery)); err != nil {
			return err
		}
	}

	if len(fieldErr.Missing) > 0 || len(fieldErr.Invalid) > 0 {
		return fieldErr
	}
	return nil
}
