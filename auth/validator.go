package auth

import (
	stderrors "errors"
	"flash-chat/errors"
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const complexPasswordTag = "complexpassword"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation(complexPasswordTag, func(fl validator.FieldLevel) bool {
		return isPasswordComplex(fl.Field().String())
	})
	return v
}

// Credentials are what a user submits to register or sign in.
// The 72 character cap keeps argon2 input bounded.
type Credentials struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=12,max=72,complexpassword"`
}

// ValidateRegister checks new account credentials. Any password rule
// failure is reported as errors.ErrInvalidPassword.
func ValidateRegister(c Credentials) error {
	err := validate.Struct(c)
	var validationErrors validator.ValidationErrors
	if stderrors.As(err, &validationErrors) {
		for _, fe := range validationErrors {
			if fe.Field() == "Password" {
				return fmt.Errorf("%w: %s", errors.ErrInvalidPassword, passwordRule(fe.Tag()))
			}
		}
	}
	return err
}

func passwordRule(tag string) string {
	switch tag {
	case "min", "max":
		return "must be 12 to 72 characters"
	case complexPasswordTag:
		return "needs upper and lower case letters, a digit and a symbol"
	default:
		return "is required"
	}
}

// ValidateLogin only checks the shape of the input; the stored hash decides.
func ValidateLogin(c Credentials) error {
	if err := validate.Var(c.Email, "required,email"); err != nil {
		return err
	}
	return validate.Var(c.Password, "required")
}

// isPasswordComplex wants one rune of each class: upper, lower, digit, symbol.
func isPasswordComplex(s string) bool {
	const (
		upper = 1 << iota
		lower
		digit
		symbol
		all = upper | lower | digit | symbol
	)
	var seen int
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			seen |= upper
		case unicode.IsLower(r):
			seen |= lower
		case unicode.IsDigit(r):
			seen |= digit
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			seen |= symbol
		}
	}
	return seen == all
}
