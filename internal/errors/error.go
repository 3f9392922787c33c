package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryTransport  Category = "transport"
	CategoryStorage    Category = "storage"
	CategoryAuth       Category = "auth"
	CategoryValidation Category = "validation"
)

// FooditError is a coded error with an explanation and a hint.
type FooditError struct {
	// Code is a unique error identifier (e.g., "E402").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description, safe to show to users.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Status is the HTTP status the backend answers with.
	Status int

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *FooditError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// UserMessage returns the message shown in notifications. Detail is
// appended when set, e.g. the field that failed validation.
func (e *FooditError) UserMessage() string {
	if e.Detail != "" && e.Category == CategoryValidation {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *FooditError) Unwrap() error {
	return e.Wrapped
}

// Is matches another FooditError with the same code.
func (e *FooditError) Is(target error) bool {
	t, ok := target.(*FooditError)
	return ok && t.Code != "" && t.Code == e.Code
}

// WithSuggestion adds a fix suggestion to the error.
func (e *FooditError) WithSuggestion(s string) *FooditError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *FooditError) WithDetail(d string) *FooditError {
	e.Detail = d
	return e
}

// WithDetailf is WithDetail with formatting.
func (e *FooditError) WithDetailf(format string, args ...any) *FooditError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *FooditError) Wrap(err error) *FooditError {
	e.Wrapped = err
	return e
}

// New creates a FooditError from a registered error code.
func New(code string) *FooditError {
	template, ok := registry[code]
	if !ok {
		return &FooditError{
			Code:    code,
			Message: "Unknown error",
			Status:  http.StatusInternalServerError,
		}
	}
	return &FooditError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		Status:   template.Status,
	}
}

// Newf creates a new FooditError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *FooditError {
	return &FooditError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		Status:   http.StatusInternalServerError,
	}
}

// FromError wraps a standard error in a FooditError. An error that already
// carries a FooditError in its chain is returned as that error.
func FromError(err error, code string) *FooditError {
	if err == nil {
		return nil
	}
	var fe *FooditError
	if stderrors.As(err, &fe) {
		return fe
	}
	return New(code).Wrap(err)
}

// HTTPStatus returns the status for err, 500 when it is not a FooditError.
func HTTPStatus(err error) int {
	var fe *FooditError
	if stderrors.As(err, &fe) && fe.Status != 0 {
		return fe.Status
	}
	return http.StatusInternalServerError
}
