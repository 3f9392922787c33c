// Package detail implements the restaurant detail screen: one restaurant,
// its reviews and the favourite toggle.
package detail

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/foodit-dev/foodit/internal/domain/restaurant"
	"github.com/foodit-dev/foodit/internal/domain/review"
	"github.com/foodit-dev/foodit/pkg/resource"
	"github.com/foodit-dev/foodit/pkg/store"
	"github.com/foodit-dev/foodit/pkg/toast"
)

// State is the detail screen snapshot.
type State struct {
	RestaurantID        int                   `json:"restaurantId"`
	Restaurant          restaurant.Restaurant `json:"restaurant"`
	IsLoading           bool                  `json:"isLoading"`
	Reviews             []review.Review       `json:"reviews"`
	IsReviewsLoading    bool                  `json:"isReviewsLoading"`
	IsRefreshing        bool                  `json:"isRefreshing"`
	IsTogglingFavourite bool                  `json:"isTogglingFavourite"`

	loadGen int
}

// Loaded reports whether the restaurant has been fetched.
func (s State) Loaded() bool {
	return s.Restaurant.ID != 0
}

// Event is a detail screen event.
type Event interface {
	EventName() string
}

type load struct{ refresh bool }

type restaurantLoaded struct {
	gen int
	res resource.Resource[restaurant.Restaurant]
}

type reviewsLoaded struct {
	gen int
	res resource.Resource[[]review.Review]
}

type toggleFavourite struct{}

type toggleDone struct {
	prev bool
	res  resource.Resource[restaurant.Restaurant]
}

func (e load) EventName() string {
	if e.refresh {
		return "refresh"
	}
	return "load"
}

func (restaurantLoaded) EventName() string { return "restaurant_loaded" }
func (reviewsLoaded) EventName() string    { return "reviews_loaded" }
func (toggleFavourite) EventName() string  { return "toggle_favourite" }
func (toggleDone) EventName() string       { return "toggle_done" }

// Deps are the repositories the screen reads from.
type Deps struct {
	Restaurants restaurant.Repository
	Favourites  restaurant.FavouritesRepository
	Reviews     review.Repository
	Logger      *slog.Logger
}

// Reducer returns the detail screen reducer.
func Reducer(deps Deps) store.Reducer[State, Event] {
	return func(s State, e Event) store.Update[State, Event] {
		switch e := e.(type) {
		case load:
			s.loadGen++
			s.IsRefreshing = e.refresh
			s.IsLoading = true
			s.IsReviewsLoading = true
			return store.Next(s, fetchRestaurant(deps, s.RestaurantID, s.loadGen), fetchReviews(deps, s.RestaurantID, s.loadGen))

		case restaurantLoaded:
			if e.gen != s.loadGen {
				return store.Next[State, Event](s)
			}
			switch res := e.res.(type) {
			case resource.Loading[restaurant.Restaurant]:
				s.IsLoading = res.IsLoading
			case resource.Success[restaurant.Restaurant]:
				s.Restaurant = res.Result
				s.IsLoading = false
				s.IsRefreshing = s.IsReviewsLoading
			case resource.Failure[restaurant.Restaurant]:
				s.IsLoading = false
				s.IsRefreshing = s.IsReviewsLoading
				return store.Notify[State, Event](s, toast.Error(resource.Message(res.Err)))
			}
			return store.Next[State, Event](s)

		case reviewsLoaded:
			if e.gen != s.loadGen {
				return store.Next[State, Event](s)
			}
			switch res := e.res.(type) {
			case resource.Loading[[]review.Review]:
				s.IsReviewsLoading = res.IsLoading
			case resource.Success[[]review.Review]:
				s.Reviews = res.Result
				s.IsReviewsLoading = false
				s.IsRefreshing = s.IsLoading
			case resource.Failure[[]review.Review]:
				s.IsReviewsLoading = false
				s.IsRefreshing = s.IsLoading
				return store.Notify[State, Event](s, toast.Error(resource.Message(res.Err)))
			}
			return store.Next[State, Event](s)

		case toggleFavourite:
			if !s.Loaded() || s.IsTogglingFavourite {
				return store.Next[State, Event](s)
			}
			target := s.Restaurant
			s.Restaurant.IsFavouriteByCurrentUser = !target.IsFavouriteByCurrentUser
			s.IsTogglingFavourite = true

			favourites := deps.Favourites
			var confirm store.Effect[Event] = func(ctx context.Context, emit func(Event)) {
				emit(toggleDone{prev: target.IsFavouriteByCurrentUser, res: favourites.Toggle(ctx, target)})
			}
			return store.Next(s, confirm)

		case toggleDone:
			s.IsTogglingFavourite = false
			// Only the flag is reverted; a reload that landed meanwhile stays.
			if kind := resource.ErrOf(e.res); kind != nil {
				s.Restaurant.IsFavouriteByCurrentUser = e.prev
				return store.Notify[State, Event](s, toast.Error(resource.Message(kind)))
			}
			return store.Next[State, Event](s)
		}
		return store.Next[State, Event](s)
	}
}

func fetchRestaurant(deps Deps, id, gen int) store.Effect[Event] {
	repo := deps.Restaurants
	return store.Fetch(func(ctx context.Context) resource.Resource[restaurant.Restaurant] {
		return repo.GetByID(ctx, id)
	}, func(res resource.Resource[restaurant.Restaurant]) Event {
		return restaurantLoaded{gen: gen, res: res}
	})
}

func fetchReviews(deps Deps, id, gen int) store.Effect[Event] {
	repo := deps.Reviews
	return store.Fetch(func(ctx context.Context) resource.Resource[[]review.Review] {
		return repo.GetByRestaurant(ctx, id)
	}, func(res resource.Resource[[]review.Review]) Event {
		return reviewsLoaded{gen: gen, res: res}
	})
}

// ViewModel drives the detail screen of one restaurant.
type ViewModel struct {
	store *store.Store[State, Event]
}

// New creates the view-model for restaurantID and starts loading it.
func New(deps Deps, restaurantID int, opts ...store.Option) *ViewModel {
	opts = append([]store.Option{
		store.WithName("detail"),
		store.WithLogger(loggerOf(deps).With("restaurant_id", strconv.Itoa(restaurantID))),
	}, opts...)
	vm := &ViewModel{
		store: store.New(State{RestaurantID: restaurantID, Reviews: []review.Review{}}, Reducer(deps), opts...),
	}
	if err := vm.store.Dispatch(load{}); err != nil {
		vm.store.Logger().Warn("initial load not queued", "error", err)
	}
	return vm
}

func loggerOf(deps Deps) *slog.Logger {
	if deps.Logger != nil {
		return deps.Logger
	}
	return slog.Default()
}

// State returns the current snapshot.
func (vm *ViewModel) State() State { return vm.store.State() }

// Store exposes the underlying store.
func (vm *ViewModel) Store() *store.Store[State, Event] { return vm.store }

// Refresh reloads the restaurant and its reviews.
func (vm *ViewModel) Refresh() error { return vm.store.Dispatch(load{refresh: true}) }

// ToggleFavourite optimistically flips the favourite flag.
func (vm *ViewModel) ToggleFavourite() error { return vm.store.Dispatch(toggleFavourite{}) }

// Close tears the screen down.
func (vm *ViewModel) Close() { vm.store.Close() }
