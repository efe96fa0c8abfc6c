package utils

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

	validateOnce sync.Once
	validate     *validator.Validate
)

// PixKeyTypes are the accepted PIX key types
var PixKeyTypes = []string{"cpf", "email", "telefone", "aleatoria"}

// Validator returns the shared validator with the portal's custom tags registered
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// registration only fails on empty tags
		_ = RegisterValidations(validate)
	})
	return validate
}

// RegisterValidations adds the "cpf" and "pixtype" tags to v
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || ValidCPF(s)
	}); err != nil {
		return err
	}
	return v.RegisterValidation("pixtype", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		for _, t := range PixKeyTypes {
			if s == t {
				return true
			}
		}
		return false
	})
}

// OnlyDigits strips everything but 0-9
func OnlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// ValidCPF checks length and both check digits of a CPF. Punctuation is ignored.
func ValidCPF(cpf string) bool {
	d := OnlyDigits(cpf)
	if len(d) != 11 {
		return false
	}
	if strings.Count(d, d[:1]) == 11 {
		return false
	}

	check := func(n int) int {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * (n + 1 - i)
		}
		r := sum * 10 % 11
		if r == 10 {
			r = 0
		}
		return r
	}
	return check(9) == int(d[9]-'0') && check(10) == int(d[10]-'0')
}

// FormatCPF renders 11 digits as 000.000.000-00
func FormatCPF(cpf string) string {
	d := OnlyDigits(cpf)
	if len(d) != 11 {
		return cpf
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

// SanitizeString removes control characters and surrounding spaces
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
