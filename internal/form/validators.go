// Package form validates user input for the FoodIt screens. Each
// validator yields a user-facing message that view-models store in their
// per-field error strings.
package form

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator checks a single field value.
type Validator interface {
	// Validate returns nil if value is valid, or a ValidationError.
	Validate(value any) error
}

// ValidatorFunc is a function that implements Validator.
type ValidatorFunc func(value any) error

func (f ValidatorFunc) Validate(value any) error {
	return f(value)
}

// ValidationError represents a validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// UserMessage returns the text shown next to the field.
func (e ValidationError) UserMessage() string {
	return e.Message
}

// Check runs validators in order and returns the first failure message,
// or "" when value passes all of them.
func Check(value any, validators ...Validator) string {
	for _, v := range validators {
		if err := v.Validate(value); err != nil {
			return err.Error()
		}
	}
	return ""
}

// Required validates that the value is non-empty.
func Required(msg string) Validator {
	if msg == "" {
		msg = "This field is required"
	}
	return ValidatorFunc(func(value any) error {
		if isEmpty(value) {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// MinLength validates that a string has at least n characters.
func MinLength(n int, msg string) Validator {
	if msg == "" {
		msg = fmt.Sprintf("Must be at least %d characters", n)
	}
	return ValidatorFunc(func(value any) error {
		s := toString(value)
		if s == "" {
			return nil // Let Required handle empty values
		}
		if len([]rune(s)) < n {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// MaxLength validates that a string has at most n characters.
func MaxLength(n int, msg string) Validator {
	if msg == "" {
		msg = fmt.Sprintf("Must be at most %d characters", n)
	}
	return ValidatorFunc(func(value any) error {
		if len([]rune(toString(value))) > n {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Email validates that the value is a plausible email address.
func Email(msg string) Validator {
	if msg == "" {
		msg = "Invalid email address"
	}
	return ValidatorFunc(func(value any) error {
		s := strings.TrimSpace(toString(value))
		if s == "" {
			return nil
		}
		if !emailPattern.MatchString(s) {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Between validates that an integer lies in [lo, hi].
func Between(lo, hi int, msg string) Validator {
	if msg == "" {
		msg = fmt.Sprintf("Must be between %d and %d", lo, hi)
	}
	return ValidatorFunc(func(value any) error {
		n, ok := value.(int)
		if !ok || n < lo || n > hi {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// EqualTo validates that the value equals other, e.g. a password
// confirmation.
func EqualTo(other string, msg string) Validator {
	if msg == "" {
		msg = "Values do not match"
	}
	return ValidatorFunc(func(value any) error {
		if toString(value) != other {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// isEmpty reports whether a value counts as missing.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []byte:
		return len(v) == 0
	default:
		return false
	}
}

// toString converts a value to a string.
func toString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
