// Package register implements the sign-up form.
package register

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/foodit-dev/foodit/internal/domain/user"
	"github.com/foodit-dev/foodit/internal/form"
	"github.com/foodit-dev/foodit/pkg/resource"
	"github.com/foodit-dev/foodit/pkg/store"
	"github.com/foodit-dev/foodit/pkg/toast"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// Field names a text input of the form.
type Field string

const (
	FirstName       Field = "firstName"
	LastName        Field = "lastName"
	Email           Field = "email"
	Password        Field = "password"
	ConfirmPassword Field = "confirmPassword"
)

// Uploader stores a profile picture and returns its public URL.
type Uploader interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// Image is a picture picked by the user.
type Image struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// State is the form snapshot.
type State struct {
	FirstName            string `json:"firstName"`
	FirstNameError       string `json:"firstNameError,omitempty"`
	LastName             string `json:"lastName"`
	LastNameError        string `json:"lastNameError,omitempty"`
	Email                string `json:"email"`
	EmailError           string `json:"emailError,omitempty"`
	Password             string `json:"-"`
	PasswordError        string `json:"passwordError,omitempty"`
	ConfirmPassword      string `json:"-"`
	ConfirmPasswordError string `json:"confirmPasswordError,omitempty"`
	Image                *Image `json:"image,omitempty"`
	IsLoading            bool   `json:"isLoading"`
	IsCreated            bool   `json:"isCreated"`
}

func (s *State) set(f Field, v string) error {
	switch f {
	case FirstName:
		s.FirstName, s.FirstNameError = v, ""
	case LastName:
		s.LastName, s.LastNameError = v, ""
	case Email:
		s.Email, s.EmailError = v, ""
	case Password:
		s.Password, s.PasswordError = v, ""
	case ConfirmPassword:
		s.ConfirmPassword, s.ConfirmPasswordError = v, ""
	default:
		return fmt.Errorf("register: unknown field %q", f)
	}
	return nil
}

// Event is a form event.
type Event interface {
	EventName() string
}

type fieldChanged struct {
	field Field
	value string
}

type imageSelected struct{ image *Image }

type submit struct{}

type registered struct {
	res resource.Resource[string]
}

func (fieldChanged) EventName() string  { return "field_changed" }
func (imageSelected) EventName() string { return "image_selected" }
func (submit) EventName() string        { return "submit" }
func (registered) EventName() string    { return "registered" }

// Deps are the services the form talks to. Images may be nil when
// profile pictures are disabled.
type Deps struct {
	Users  user.Repository
	Images Uploader
	Logger *slog.Logger
}

// Validate checks the form and returns the per-field messages.
func Validate(s State) form.Errors {
	errs := form.Errors{}
	errs.Check(string(FirstName), s.FirstName, form.Required("First name is required"))
	errs.Check(string(LastName), s.LastName, form.Required("Last name is required"))
	errs.Check(string(Email), s.Email, form.Required("Email is required"), form.Email("Please enter a valid email"))
	errs.Check(string(Password), s.Password,
		form.Required("Password is required"),
		form.MinLength(MinPasswordLength, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)),
	)
	errs.Check(string(ConfirmPassword), s.ConfirmPassword,
		form.Required("Please confirm your password"),
		form.EqualTo(s.Password, "Passwords do not match"),
	)
	return errs
}

// Reducer returns the form reducer.
func Reducer(deps Deps) store.Reducer[State, Event] {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(s State, e Event) store.Update[State, Event] {
		switch e := e.(type) {
		case fieldChanged:
			if err := s.set(e.field, e.value); err != nil {
				logger.Warn("ignoring field change", "error", err)
			}

		case imageSelected:
			s.Image = e.image

		case submit:
			if s.IsLoading || s.IsCreated {
				break
			}
			errs := Validate(s)
			s.FirstNameError = errs[string(FirstName)]
			s.LastNameError = errs[string(LastName)]
			s.EmailError = errs[string(Email)]
			s.PasswordError = errs[string(Password)]
			s.ConfirmPasswordError = errs[string(ConfirmPassword)]
			if !errs.Valid() {
				break
			}
			return store.Next(s, store.Fetch(registerFn(deps, s), func(res resource.Resource[string]) Event {
				return registered{res: res}
			}))

		case registered:
			switch res := e.res.(type) {
			case resource.Loading[string]:
				s.IsLoading = res.IsLoading
			case resource.Success[string]:
				s.IsLoading = false
				s.IsCreated = true
				return store.Notify[State, Event](s, toast.Success(res.Result))
			case resource.Failure[string]:
				s.IsLoading = false
				return store.Notify[State, Event](s, toast.Error(resource.Message(res.Err)))
			}
		}
		return store.Next[State, Event](s)
	}
}

// registerFn uploads the picture, if any, then creates the account.
func registerFn(deps Deps, s State) func(context.Context) resource.Resource[string] {
	reg := user.Registration{
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Email:     s.Email,
		Password:  s.Password,
	}
	img := s.Image
	return func(ctx context.Context) resource.Resource[string] {
		if img != nil && deps.Images != nil {
			url, err := deps.Images.Put(ctx, img.Name, img.ContentType, img.Data)
			if err != nil {
				return resource.FromError[string](err)
			}
			reg.ImageURL = url
		}
		return deps.Users.Register(ctx, reg)
	}
}

// ViewModel drives the sign-up form.
type ViewModel struct {
	store *store.Store[State, Event]
}

// New creates an empty sign-up form.
func New(deps Deps, opts ...store.Option) *ViewModel {
	opts = append([]store.Option{store.WithName("register"), store.WithLogger(deps.Logger)}, opts...)
	return &ViewModel{store: store.New(State{}, Reducer(deps), opts...)}
}

// State returns the current snapshot.
func (vm *ViewModel) State() State { return vm.store.State() }

// Store exposes the underlying store.
func (vm *ViewModel) Store() *store.Store[State, Event] { return vm.store }

// Set updates one text field and clears its error.
func (vm *ViewModel) Set(f Field, value string) error {
	return vm.store.Dispatch(fieldChanged{field: f, value: value})
}

// SelectImage attaches a profile picture. A nil image removes it.
func (vm *ViewModel) SelectImage(img *Image) error {
	return vm.store.Dispatch(imageSelected{image: img})
}

// Submit validates the form and creates the account when it is valid.
func (vm *ViewModel) Submit() error { return vm.store.Dispatch(submit{}) }

// Close tears the form down.
func (vm *ViewModel) Close() { vm.store.Close() }
