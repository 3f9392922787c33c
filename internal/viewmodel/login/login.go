// Package login implements the sign-in form and the password reset request.
package login

import (
	"context"
	"log/slog"

	"github.com/foodit-dev/foodit/internal/domain/user"
	"github.com/foodit-dev/foodit/internal/form"
	"github.com/foodit-dev/foodit/pkg/resource"
	"github.com/foodit-dev/foodit/pkg/store"
	"github.com/foodit-dev/foodit/pkg/toast"
)

// State is the form snapshot.
type State struct {
	Email         string     `json:"email"`
	EmailError    string     `json:"emailError,omitempty"`
	Password      string     `json:"-"`
	PasswordError string     `json:"passwordError,omitempty"`
	IsLoading     bool       `json:"isLoading"`
	IsLoggedIn    bool       `json:"isLoggedIn"`
	User          *user.User `json:"user,omitempty"`
	IsResetSent   bool       `json:"isResetSent"`
}

// Event is a form event.
type Event interface {
	EventName() string
}

type emailChanged struct{ email string }

type passwordChanged struct{ password string }

type submit struct{}

type loggedIn struct {
	res resource.Resource[user.User]
}

type forgotPassword struct{}

type resetRequested struct {
	res resource.Resource[string]
}

func (emailChanged) EventName() string    { return "email_changed" }
func (passwordChanged) EventName() string { return "password_changed" }
func (submit) EventName() string          { return "submit" }
func (loggedIn) EventName() string        { return "logged_in" }
func (forgotPassword) EventName() string  { return "forgot_password" }
func (resetRequested) EventName() string  { return "reset_requested" }

// Deps are the repositories the form talks to.
type Deps struct {
	Users  user.Repository
	Logger *slog.Logger
}

// Validate checks the credentials and returns the per-field messages.
func Validate(s State) form.Errors {
	errs := form.Errors{}
	errs.Check("email", s.Email, form.Required("Email is required"), form.Email("Please enter a valid email"))
	errs.Check("password", s.Password, form.Required("Password is required"))
	return errs
}

// Reducer returns the form reducer.
func Reducer(deps Deps) store.Reducer[State, Event] {
	return func(s State, e Event) store.Update[State, Event] {
		switch e := e.(type) {
		case emailChanged:
			s.Email, s.EmailError = e.email, ""
			s.IsResetSent = false

		case passwordChanged:
			s.Password, s.PasswordError = e.password, ""

		case submit:
			if s.IsLoading || s.IsLoggedIn {
				break
			}
			errs := Validate(s)
			s.EmailError, s.PasswordError = errs["email"], errs["password"]
			if !errs.Valid() {
				break
			}
			creds := user.Credentials{Email: s.Email, Password: s.Password}
			repo := deps.Users
			return store.Next(s, store.Fetch(func(ctx context.Context) resource.Resource[user.User] {
				return repo.Login(ctx, creds)
			}, func(res resource.Resource[user.User]) Event {
				return loggedIn{res: res}
			}))

		case loggedIn:
			switch res := e.res.(type) {
			case resource.Loading[user.User]:
				s.IsLoading = res.IsLoading
			case resource.Success[user.User]:
				u := res.Result
				s.IsLoading = false
				s.IsLoggedIn = true
				s.User = &u
				s.Password = ""
			case resource.Failure[user.User]:
				s.IsLoading = false
				return store.Notify[State, Event](s, toast.Error(resource.Message(res.Err)))
			}

		case forgotPassword:
			if s.IsLoading {
				break
			}
			msg := form.Check(s.Email, form.Required("Enter your email to reset your password"), form.Email("Please enter a valid email"))
			if msg != "" {
				s.EmailError = msg
				break
			}
			email := s.Email
			repo := deps.Users
			return store.Next(s, store.Fetch(func(ctx context.Context) resource.Resource[string] {
				return repo.ResetPassword(ctx, email)
			}, func(res resource.Resource[string]) Event {
				return resetRequested{res: res}
			}))

		case resetRequested:
			switch res := e.res.(type) {
			case resource.Loading[string]:
				s.IsLoading = res.IsLoading
			case resource.Success[string]:
				s.IsLoading = false
				s.IsResetSent = true
				return store.Notify[State, Event](s, toast.Info(res.Result))
			case resource.Failure[string]:
				s.IsLoading = false
				return store.Notify[State, Event](s, toast.Error(resource.Message(res.Err)))
			}
		}
		return store.Next[State, Event](s)
	}
}

// ViewModel drives the sign-in form.
type ViewModel struct {
	store *store.Store[State, Event]
}

// New creates an empty sign-in form.
func New(deps Deps, opts ...store.Option) *ViewModel {
	opts = append([]store.Option{store.WithName("login"), store.WithLogger(deps.Logger)}, opts...)
	return &ViewModel{store: store.New(State{}, Reducer(deps), opts...)}
}

// State returns the current snapshot.
func (vm *ViewModel) State() State { return vm.store.State() }

// Store exposes the underlying store.
func (vm *ViewModel) Store() *store.Store[State, Event] { return vm.store }

func (vm *ViewModel) SetEmail(email string) error {
	return vm.store.Dispatch(emailChanged{email: email})
}

func (vm *ViewModel) SetPassword(password string) error {
	return vm.store.Dispatch(passwordChanged{password: password})
}

// Submit validates the credentials and signs in.
func (vm *ViewModel) Submit() error { return vm.store.Dispatch(submit{}) }

// ForgotPassword asks the backend to mail a reset link to the entered email.
func (vm *ViewModel) ForgotPassword() error { return vm.store.Dispatch(forgotPassword{}) }

// Close tears the form down.
func (vm *ViewModel) Close() { vm.store.Close() }
