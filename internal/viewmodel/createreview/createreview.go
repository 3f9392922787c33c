// Package createreview implements the "write a review" form.
package createreview

import (
	"context"
	"log/slog"

	"github.com/foodit-dev/foodit/internal/domain/review"
	"github.com/foodit-dev/foodit/internal/form"
	"github.com/foodit-dev/foodit/pkg/resource"
	"github.com/foodit-dev/foodit/pkg/store"
	"github.com/foodit-dev/foodit/pkg/toast"
)

// MaxReviewLength caps the review text.
const MaxReviewLength = 1000

// State is the form snapshot.
type State struct {
	RestaurantID int    `json:"restaurantId"`
	UserID       int    `json:"userId"`
	Review       string `json:"review"`
	ReviewError  string `json:"reviewError,omitempty"`
	Rating       int    `json:"rating"`
	RatingError  string `json:"ratingError,omitempty"`
	IsLoading    bool   `json:"isLoading"`
	IsCreated    bool   `json:"isCreated"`
	CreatedID    string `json:"createdId,omitempty"`
}

// Event is a form event.
type Event interface {
	EventName() string
}

type reviewChanged struct{ text string }

type ratingChanged struct{ rating int }

type submit struct{}

type created struct {
	res resource.Resource[string]
}

func (reviewChanged) EventName() string { return "review_changed" }
func (ratingChanged) EventName() string { return "rating_changed" }
func (submit) EventName() string        { return "submit" }
func (created) EventName() string       { return "created" }

// Deps are the repositories the form writes to.
type Deps struct {
	Reviews review.Repository
	Logger  *slog.Logger
}

// Validate checks the form fields and returns the per-field messages.
func Validate(s State) form.Errors {
	errs := form.Errors{}
	errs.Check("review", s.Review,
		form.Required("Please write a review"),
		form.MaxLength(MaxReviewLength, ""),
	)
	errs.Check("rating", s.Rating,
		form.Between(review.MinRating, review.MaxRating, "Please pick a rating from 1 to 5"),
	)
	return errs
}

// Reducer returns the form reducer.
func Reducer(deps Deps) store.Reducer[State, Event] {
	return func(s State, e Event) store.Update[State, Event] {
		switch e := e.(type) {
		case reviewChanged:
			s.Review = e.text
			s.ReviewError = ""

		case ratingChanged:
			s.Rating = e.rating
			s.RatingError = ""

		case submit:
			if s.IsLoading || s.IsCreated {
				break
			}
			errs := Validate(s)
			s.ReviewError = errs["review"]
			s.RatingError = errs["rating"]
			if !errs.Valid() {
				break
			}
			draft := review.Draft{
				UserID:       s.UserID,
				RestaurantID: s.RestaurantID,
				Review:       s.Review,
				Rating:       s.Rating,
			}
			repo := deps.Reviews
			return store.Next(s, store.Fetch(func(ctx context.Context) resource.Resource[string] {
				return repo.Create(ctx, draft)
			}, func(res resource.Resource[string]) Event {
				return created{res: res}
			}))

		case created:
			switch res := e.res.(type) {
			case resource.Loading[string]:
				s.IsLoading = res.IsLoading
			case resource.Success[string]:
				s.IsLoading = false
				s.IsCreated = true
				s.CreatedID = res.Result
			case resource.Failure[string]:
				s.IsLoading = false
				return store.Notify[State, Event](s, toast.Error(resource.Message(res.Err)))
			}
		}
		return store.Next[State, Event](s)
	}
}

// ViewModel drives the form.
type ViewModel struct {
	store *store.Store[State, Event]
}

// New creates a form for a review of restaurantID by userID.
func New(deps Deps, restaurantID, userID int, opts ...store.Option) *ViewModel {
	opts = append([]store.Option{store.WithName("createreview"), store.WithLogger(deps.Logger)}, opts...)
	initial := State{RestaurantID: restaurantID, UserID: userID}
	return &ViewModel{store: store.New(initial, Reducer(deps), opts...)}
}

// State returns the current snapshot.
func (vm *ViewModel) State() State { return vm.store.State() }

// Store exposes the underlying store.
func (vm *ViewModel) Store() *store.Store[State, Event] { return vm.store }

// SetReview updates the review text.
func (vm *ViewModel) SetReview(text string) error {
	return vm.store.Dispatch(reviewChanged{text: text})
}

// SetRating updates the star rating.
func (vm *ViewModel) SetRating(rating int) error {
	return vm.store.Dispatch(ratingChanged{rating: rating})
}

// Submit validates the form and posts the review when it is valid.
func (vm *ViewModel) Submit() error { return vm.store.Dispatch(submit{}) }

// Close tears the form down.
func (vm *ViewModel) Close() { vm.store.Close() }
