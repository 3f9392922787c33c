package resource

import (
	"errors"
	"fmt"
)

// State identifies which variant a Resource holds.
type State int

const (
	StateLoading State = iota // Call in flight
	StateSuccess              // Call produced a result
	StateFailure              // Call failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Resource is the result of a repository call.
// The only implementations are Loading, Success[T] and Failure.
type Resource[T any] interface {
	State() State
	// result mentions T so that Resource[A] and Resource[B] have
	// different method sets and T can be inferred from arguments.
	result() (T, bool)
}

// Loading marks a call that is in flight. IsLoading is false when a caller
// wants to explicitly clear a previous loading marker.
type Loading[T any] struct {
	IsLoading bool
}

func (Loading[T]) State() State { return StateLoading }

func (Loading[T]) result() (T, bool) {
	var zero T
	return zero, false
}

// Success carries the result of a call.
type Success[T any] struct {
	Result T
}

func (Success[T]) State() State        { return StateSuccess }
func (s Success[T]) result() (T, bool) { return s.Result, true }

// Failure carries the reason a call failed.
type Failure[T any] struct {
	Err ErrorKind
}

func (Failure[T]) State() State { return StateFailure }

func (Failure[T]) result() (T, bool) {
	var zero T
	return zero, false
}

// NewLoading returns a Loading resource.
func NewLoading[T any](isLoading bool) Resource[T] {
	return Loading[T]{IsLoading: isLoading}
}

// NewSuccess returns a Success resource holding v.
func NewSuccess[T any](v T) Resource[T] {
	return Success[T]{Result: v}
}

// NewFailure returns a Failure resource. A nil kind becomes a Default
// error with a generic message.
func NewFailure[T any](kind ErrorKind) Resource[T] {
	if kind == nil {
		kind = Default{Message: DefaultMessage}
	}
	return Failure[T]{Err: kind}
}

// Errorf returns a Failure with a Default kind carrying the formatted message.
func Errorf[T any](format string, args ...any) Resource[T] {
	return Failure[T]{Err: Default{Message: fmt.Sprintf(format, args...)}}
}

// FromError converts err into a Failure. Errors that implement
// UserMessage() string contribute that message; anything else uses
// err.Error().
func FromError[T any](err error) Resource[T] {
	return Failure[T]{Err: KindOf(err)}
}

// Of returns Success(v) when err is nil and FromError(err) otherwise.
func Of[T any](v T, err error) Resource[T] {
	if err != nil {
		return FromError[T](err)
	}
	return Success[T]{Result: v}
}

// IsTerminal reports whether r is a Success or a Failure.
func IsTerminal[T any](r Resource[T]) bool {
	if r == nil {
		return false
	}
	s := r.State()
	return s == StateSuccess || s == StateFailure
}

// Get returns the result of a Success and whether r was one.
func Get[T any](r Resource[T]) (T, bool) {
	if r == nil {
		var zero T
		return zero, false
	}
	return r.result()
}

// ErrOf returns the ErrorKind of a Failure, or nil.
func ErrOf[T any](r Resource[T]) ErrorKind {
	if f, ok := r.(Failure[T]); ok {
		return f.Err
	}
	return nil
}

// Err returns r's failure as a Go error, or nil when r is not a Failure.
func Err[T any](r Resource[T]) error {
	kind := ErrOf(r)
	if kind == nil {
		return nil
	}
	return &KindError{Kind: kind}
}

// Map converts the result of a Success with fn; other variants are carried
// over unchanged.
func Map[T, U any](r Resource[T], fn func(T) U) Resource[U] {
	switch v := r.(type) {
	case Success[T]:
		return Success[U]{Result: fn(v.Result)}
	case Failure[T]:
		return Failure[U]{Err: v.Err}
	case Loading[T]:
		return Loading[U]{IsLoading: v.IsLoading}
	default:
		return Failure[U]{Err: Default{Message: DefaultMessage}}
	}
}

// KindError adapts an ErrorKind to the error interface.
type KindError struct {
	Kind ErrorKind
}

func (e *KindError) Error() string {
	return Message(e.Kind)
}

// IsKind reports whether err wraps a KindError.
func IsKind(err error) bool {
	var ke *KindError
	return errors.As(err, &ke)
}
