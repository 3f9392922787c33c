// Package profile implements the signed-in user's profile screen: account
// details, the user's reviews and logout.
package profile

import (
	"context"
	"log/slog"

	"github.com/foodit-dev/foodit/internal/domain/review"
	"github.com/foodit-dev/foodit/internal/domain/user"
	"github.com/foodit-dev/foodit/pkg/resource"
	"github.com/foodit-dev/foodit/pkg/store"
	"github.com/foodit-dev/foodit/pkg/toast"
)

// State is the profile screen snapshot.
type State struct {
	User             user.User       `json:"user"`
	IsLoading        bool            `json:"isLoading"`
	Reviews          []review.Review `json:"reviews"`
	IsReviewsLoading bool            `json:"isReviewsLoading"`
	IsLoggingOut     bool            `json:"isLoggingOut"`
	IsLoggedOut      bool            `json:"isLoggedOut"`

	loadGen int
}

// Event is a profile screen event.
type Event interface {
	EventName() string
}

type load struct{}

type userLoaded struct {
	gen int
	res resource.Resource[user.User]
}

type reviewsLoaded struct {
	gen int
	res resource.Resource[[]review.Review]
}

type deleteReview struct{ id string }

type deleteFailed struct {
	review review.Review
	at     int
	kind   resource.ErrorKind
}

type logout struct{}

type loggedOut struct {
	res resource.Resource[string]
}

func (load) EventName() string          { return "load" }
func (userLoaded) EventName() string    { return "user_loaded" }
func (reviewsLoaded) EventName() string { return "reviews_loaded" }
func (deleteReview) EventName() string  { return "delete_review" }
func (deleteFailed) EventName() string  { return "delete_failed" }
func (logout) EventName() string        { return "logout" }
func (loggedOut) EventName() string     { return "logged_out" }

// Deps are the repositories the screen reads from.
type Deps struct {
	Users   user.Repository
	Reviews review.Repository
	Logger  *slog.Logger
}

type reducer struct {
	deps   Deps
	logger *slog.Logger
}

// Reducer returns the profile reducer.
func Reducer(deps Deps) store.Reducer[State, Event] {
	r := reducer{deps: deps, logger: deps.Logger}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r.reduce
}

func (r reducer) reduce(s State, e Event) store.Update[State, Event] {
	switch e := e.(type) {
	case load:
		s.loadGen++
		gen := s.loadGen
		users := r.deps.Users
		return store.Next(s, store.Fetch(users.Current, func(res resource.Resource[user.User]) Event {
			return userLoaded{gen: gen, res: res}
		}))

	case userLoaded:
		if e.gen != s.loadGen {
			break
		}
		switch res := e.res.(type) {
		case resource.Loading[user.User]:
			s.IsLoading = res.IsLoading
		case resource.Success[user.User]:
			s.User = res.Result
			s.IsLoading = false
			s.IsReviewsLoading = true
			return store.Next(s, r.fetchReviews(s.User.ID, e.gen))
		case resource.Failure[user.User]:
			s.IsLoading = false
			return store.Notify[State, Event](s, toast.Error(resource.Message(res.Err)))
		}

	case reviewsLoaded:
		if e.gen != s.loadGen {
			break
		}
		switch res := e.res.(type) {
		case resource.Loading[[]review.Review]:
			s.IsReviewsLoading = res.IsLoading
		case resource.Success[[]review.Review]:
			s.Reviews = res.Result
			s.IsReviewsLoading = false
		case resource.Failure[[]review.Review]:
			s.IsReviewsLoading = false
			return store.Notify[State, Event](s, toast.Error(resource.Message(res.Err)))
		}

	case deleteReview:
		return r.delete(s, e.id)

	case deleteFailed:
		s.Reviews = restore(s.Reviews, e.review, e.at)
		return store.Notify[State, Event](s, toast.Error(resource.Message(e.kind)))

	case logout:
		if s.IsLoggingOut || s.IsLoggedOut {
			break
		}
		users := r.deps.Users
		return store.Next(s, store.Fetch(users.Logout, func(res resource.Resource[string]) Event {
			return loggedOut{res: res}
		}))

	case loggedOut:
		switch res := e.res.(type) {
		case resource.Loading[string]:
			s.IsLoggingOut = res.IsLoading
		case resource.Success[string]:
			return store.Next[State, Event](State{IsLoggedOut: true, Reviews: []review.Review{}, loadGen: s.loadGen})
		case resource.Failure[string]:
			s.IsLoggingOut = false
			return store.Notify[State, Event](s, toast.Error(resource.Message(res.Err)))
		}
	}
	return store.Next[State, Event](s)
}

// delete removes the review from the list at once and puts it back if the
// backend refuses.
func (r reducer) delete(s State, id string) store.Update[State, Event] {
	idx := -1
	for i, rv := range s.Reviews {
		if rv.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.logger.Warn("delete review: unknown review", "review_id", id)
		return store.Next[State, Event](s)
	}

	removed := s.Reviews[idx]
	s.Reviews = append(append(make([]review.Review, 0, len(s.Reviews)-1), s.Reviews[:idx]...), s.Reviews[idx+1:]...)

	repo := r.deps.Reviews
	var confirm store.Effect[Event] = func(ctx context.Context, emit func(Event)) {
		if kind := resource.ErrOf(repo.Delete(ctx, id)); kind != nil {
			emit(deleteFailed{review: removed, at: idx, kind: kind})
		}
	}
	return store.Next(s, confirm)
}

// restore reinserts rv at index at unless a reload already brought it back.
func restore(list []review.Review, rv review.Review, at int) []review.Review {
	for _, x := range list {
		if x.ID == rv.ID {
			return list
		}
	}
	at = min(at, len(list))
	out := make([]review.Review, 0, len(list)+1)
	out = append(out, list[:at]...)
	out = append(out, rv)
	return append(out, list[at:]...)
}

func (r reducer) fetchReviews(userID, gen int) store.Effect[Event] {
	repo := r.deps.Reviews
	return store.Fetch(func(ctx context.Context) resource.Resource[[]review.Review] {
		return repo.GetByUser(ctx, userID)
	}, func(res resource.Resource[[]review.Review]) Event {
		return reviewsLoaded{gen: gen, res: res}
	})
}

// ViewModel drives the profile screen.
type ViewModel struct {
	store *store.Store[State, Event]
}

// New creates the view-model and loads the current user.
func New(deps Deps, opts ...store.Option) *ViewModel {
	opts = append([]store.Option{store.WithName("profile"), store.WithLogger(deps.Logger)}, opts...)
	vm := &ViewModel{store: store.New(State{Reviews: []review.Review{}}, Reducer(deps), opts...)}
	if err := vm.store.Dispatch(load{}); err != nil {
		vm.store.Logger().Warn("initial load not queued", "error", err)
	}
	return vm
}

// State returns the current snapshot.
func (vm *ViewModel) State() State { return vm.store.State() }

// Store exposes the underlying store.
func (vm *ViewModel) Store() *store.Store[State, Event] { return vm.store }

// Refresh reloads the user and their reviews.
func (vm *ViewModel) Refresh() error { return vm.store.Dispatch(load{}) }

// DeleteReview optimistically removes one of the user's reviews.
func (vm *ViewModel) DeleteReview(id string) error {
	return vm.store.Dispatch(deleteReview{id: id})
}

// Logout signs the user out.
func (vm *ViewModel) Logout() error { return vm.store.Dispatch(logout{}) }

// Close tears the screen down.
func (vm *ViewModel) Close() { vm.store.Close() }
