// Package editprofile implements the edit-profile form.
package editprofile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/foodit-dev/foodit/internal/domain/user"
	"github.com/foodit-dev/foodit/internal/form"
	"github.com/foodit-dev/foodit/internal/viewmodel/register"
	"github.com/foodit-dev/foodit/pkg/resource"
	"github.com/foodit-dev/foodit/pkg/store"
	"github.com/foodit-dev/foodit/pkg/toast"
)

// Field names an editable input.
type Field = register.Field

// State is the form snapshot.
type State struct {
	FirstName      string          `json:"firstName"`
	FirstNameError string          `json:"firstNameError,omitempty"`
	LastName       string          `json:"lastName"`
	LastNameError  string          `json:"lastNameError,omitempty"`
	Email          string          `json:"email"`
	EmailError     string          `json:"emailError,omitempty"`
	ImageURL       string          `json:"imageUrl,omitempty"`
	Image          *register.Image `json:"image,omitempty"`
	IsLoading      bool            `json:"isLoading"`
	IsSaving       bool            `json:"isSaving"`
	IsUpdated      bool            `json:"isUpdated"`
}

// Event is a form event.
type Event interface {
	EventName() string
}

type load struct{}

type userLoaded struct {
	res resource.Resource[user.User]
}

type fieldChanged struct {
	field Field
	value string
}

type imageSelected struct{ image *register.Image }

type save struct{}

type saved struct {
	res resource.Resource[user.User]
}

func (load) EventName() string          { return "load" }
func (userLoaded) EventName() string    { return "user_loaded" }
func (fieldChanged) EventName() string  { return "field_changed" }
func (imageSelected) EventName() string { return "image_selected" }
func (save) EventName() string          { return "save" }
func (saved) EventName() string         { return "saved" }

// Deps are the services the form talks to.
type Deps struct {
	Users  user.Repository
	Images register.Uploader
	Logger *slog.Logger
}

// Validate checks the form and returns the per-field messages.
func Validate(s State) form.Errors {
	errs := form.Errors{}
	errs.Check(string(register.FirstName), s.FirstName, form.Required("First name is required"))
	errs.Check(string(register.LastName), s.LastName, form.Required("Last name is required"))
	errs.Check(string(register.Email), s.Email, form.Required("Email is required"), form.Email("Please enter a valid email"))
	return errs
}

func (s *State) set(f Field, v string) error {
	switch f {
	case register.FirstName:
		s.FirstName, s.FirstNameError = v, ""
	case register.LastName:
		s.LastName, s.LastNameError = v, ""
	case register.Email:
		s.Email, s.EmailError = v, ""
	default:
		return fmt.Errorf("editprofile: unknown field %q", f)
	}
	s.IsUpdated = false
	return nil
}

func (s *State) fill(u user.User) {
	s.FirstName = u.FirstName
	s.LastName = u.LastName
	s.Email = u.Email
	s.ImageURL = u.ImageURL
}

// Reducer returns the form reducer.
func Reducer(deps Deps) store.Reducer[State, Event] {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(s State, e Event) store.Update[State, Event] {
		switch e := e.(type) {
		case load:
			users := deps.Users
			return store.Next(s, store.Fetch(users.Current, func(res resource.Resource[user.User]) Event {
				return userLoaded{res: res}
			}))

		case userLoaded:
			switch res := e.res.(type) {
			case resource.Loading[user.User]:
				s.IsLoading = res.IsLoading
			case resource.Success[user.User]:
				s.IsLoading = false
				s.fill(res.Result)
			case resource.Failure[user.User]:
				s.IsLoading = false
				return store.Notify[State, Event](s, toast.Error(resource.Message(res.Err)))
			}

		case fieldChanged:
			if err := s.set(e.field, e.value); err != nil {
				logger.Warn("ignoring field change", "error", err)
			}

		case imageSelected:
			s.Image = e.image
			s.IsUpdated = false

		case save:
			if s.IsLoading || s.IsSaving {
				break
			}
			errs := Validate(s)
			s.FirstNameError = errs[string(register.FirstName)]
			s.LastNameError = errs[string(register.LastName)]
			s.EmailError = errs[string(register.Email)]
			if !errs.Valid() {
				break
			}
			return store.Next(s, store.Fetch(saveFn(deps, s), func(res resource.Resource[user.User]) Event {
				return saved{res: res}
			}))

		case saved:
			switch res := e.res.(type) {
			case resource.Loading[user.User]:
				s.IsSaving = res.IsLoading
			case resource.Success[user.User]:
				s.IsSaving = false
				s.IsUpdated = true
				s.Image = nil
				s.fill(res.Result)
				return store.Notify[State, Event](s, toast.Success("Profile updated"))
			case resource.Failure[user.User]:
				s.IsSaving = false
				return store.Notify[State, Event](s, toast.Error(resource.Message(res.Err)))
			}
		}
		return store.Next[State, Event](s)
	}
}

func saveFn(deps Deps, s State) func(context.Context) resource.Resource[user.User] {
	p := user.Profile{
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Email:     s.Email,
		ImageURL:  s.ImageURL,
	}
	img := s.Image
	return func(ctx context.Context) resource.Resource[user.User] {
		if img != nil && deps.Images != nil {
			url, err := deps.Images.Put(ctx, img.Name, img.ContentType, img.Data)
			if err != nil {
				return resource.FromError[user.User](err)
			}
			p.ImageURL = url
		}
		return deps.Users.UpdateProfile(ctx, p)
	}
}

// ViewModel drives the edit-profile form.
type ViewModel struct {
	store *store.Store[State, Event]
}

// New creates the form and loads the current user into it.
func New(deps Deps, opts ...store.Option) *ViewModel {
	opts = append([]store.Option{store.WithName("editprofile"), store.WithLogger(deps.Logger)}, opts...)
	vm := &ViewModel{store: store.New(State{}, Reducer(deps), opts...)}
	if err := vm.store.Dispatch(load{}); err != nil {
		vm.store.Logger().Warn("initial load not queued", "error", err)
	}
	return vm
}

// State returns the current snapshot.
func (vm *ViewModel) State() State { return vm.store.State() }

// Store exposes the underlying store.
func (vm *ViewModel) Store() *store.Store[State, Event] { return vm.store }

// Set updates one field and clears its error.
func (vm *ViewModel) Set(f Field, value string) error {
	return vm.store.Dispatch(fieldChanged{field: f, value: value})
}

// SelectImage replaces the profile picture on the next save.
func (vm *ViewModel) SelectImage(img *register.Image) error {
	return vm.store.Dispatch(imageSelected{image: img})
}

// Save validates and stores the profile.
func (vm *ViewModel) Save() error { return vm.store.Dispatch(save{}) }

// Close tears the form down.
func (vm *ViewModel) Close() { vm.store.Close() }
