// Package home implements the restaurant listing screen: the full list,
// the user's favourites and the top rated "featured" restaurants.
package home

import (
	"context"
	"log/slog"

	"github.com/foodit-dev/foodit/internal/domain/restaurant"
	"github.com/foodit-dev/foodit/pkg/resource"
	"github.com/foodit-dev/foodit/pkg/store"
	"github.com/foodit-dev/foodit/pkg/toast"
)

// State is the home screen snapshot. FavRestaurants and
// FeaturedRestaurants are indices into RestaurantList.
type State struct {
	RestaurantList      []restaurant.Restaurant `json:"restaurantList"`
	IsLoading           bool                    `json:"isLoading"`
	IsRefreshing        bool                    `json:"isRefreshing"`
	FavRestaurants      []int                   `json:"favRestaurants"`
	FeaturedRestaurants []int                   `json:"featuredRestaurants"`

	// loadGen identifies the latest list request; results of older
	// requests are ignored.
	loadGen int
}

// Event is a home screen event.
type Event interface {
	EventName() string
}

type load struct{}

type refresh struct{}

type restaurantsLoaded struct {
	gen int
	res resource.Resource[[]restaurant.Restaurant]
}

type toggleFavourite struct {
	id int
}

type toggleFailed struct {
	id   int
	prev bool
	kind resource.ErrorKind
}

func (load) EventName() string              { return "load" }
func (refresh) EventName() string           { return "refresh" }
func (restaurantsLoaded) EventName() string { return "restaurants_loaded" }
func (toggleFavourite) EventName() string   { return "toggle_favourite" }
func (toggleFailed) EventName() string      { return "toggle_failed" }

// Deps are the repositories the screen reads from.
type Deps struct {
	Restaurants restaurant.Repository
	Favourites  restaurant.FavouritesRepository
	Logger      *slog.Logger
}

type reducer struct {
	deps Deps
}

// Reducer returns the home screen reducer.
func Reducer(deps Deps) store.Reducer[State, Event] {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return reducer{deps: deps}.reduce
}

func (r reducer) reduce(s State, e Event) store.Update[State, Event] {
	switch e := e.(type) {
	case load:
		s.loadGen++
		return store.Next(s, r.fetch(s.loadGen))

	case refresh:
		s.IsRefreshing = true
		s.loadGen++
		return store.Next(s, r.fetch(s.loadGen))

	case restaurantsLoaded:
		if e.gen != s.loadGen {
			return store.Next[State, Event](s)
		}
		return r.applyRestaurants(s, e.res)

	case toggleFavourite:
		return r.toggle(s, e.id)

	case toggleFailed:
		return store.Notify[State, Event](revert(s, e.id, e.prev), toast.Error(resource.Message(e.kind)))
	}

	return store.Next[State, Event](s)
}

func (r reducer) applyRestaurants(s State, res resource.Resource[[]restaurant.Restaurant]) store.Update[State, Event] {
	switch res := res.(type) {
	case resource.Loading[[]restaurant.Restaurant]:
		s.IsLoading = res.IsLoading
		return store.Next[State, Event](s)

	case resource.Success[[]restaurant.Restaurant]:
		s.RestaurantList = res.Result
		s.IsLoading = false
		s.IsRefreshing = false
		derive(&s)
		return store.Next[State, Event](s)

	case resource.Failure[[]restaurant.Restaurant]:
		s.IsLoading = false
		s.IsRefreshing = false
		return store.Notify[State, Event](s, toast.Error(resource.Message(res.Err)))
	}

	return store.Next[State, Event](s)
}

// toggle flips the favourite flag locally and asks the backend to confirm.
// On failure only the flag is put back; loads that finished in between
// are kept.
func (r reducer) toggle(s State, id int) store.Update[State, Event] {
	i := restaurant.IndexOf(s.RestaurantList, id)
	if i < 0 {
		r.deps.Logger.Warn("toggle favourite: unknown restaurant", "restaurant_id", id)
		return store.Next[State, Event](s)
	}

	target := s.RestaurantList[i]

	s.RestaurantList = restaurant.WithFavourite(s.RestaurantList, i, !target.IsFavouriteByCurrentUser)
	derive(&s)

	favourites := r.deps.Favourites
	var confirm store.Effect[Event] = func(ctx context.Context, emit func(Event)) {
		res := favourites.Toggle(ctx, target)
		if kind := resource.ErrOf(res); kind != nil {
			emit(toggleFailed{id: target.ID, prev: target.IsFavouriteByCurrentUser, kind: kind})
		}
	}
	return store.Next(s, confirm)
}

func (r reducer) fetch(gen int) store.Effect[Event] {
	repo := r.deps.Restaurants
	return store.Fetch(repo.GetAll, func(res resource.Resource[[]restaurant.Restaurant]) Event {
		return restaurantsLoaded{gen: gen, res: res}
	})
}

// revert puts the favourite flag of id back to fav in the current list.
func revert(s State, id int, fav bool) State {
	i := restaurant.IndexOf(s.RestaurantList, id)
	if i < 0 || s.RestaurantList[i].IsFavouriteByCurrentUser == fav {
		return s
	}
	s.RestaurantList = restaurant.WithFavourite(s.RestaurantList, i, fav)
	derive(&s)
	return s
}

// derive recomputes the index lists from the current restaurant list.
func derive(s *State) {
	s.FavRestaurants = restaurant.Favourites(s.RestaurantList)
	s.FeaturedRestaurants = restaurant.Featured(s.RestaurantList, restaurant.FeaturedCount)
}

// ViewModel drives the home screen.
type ViewModel struct {
	store *store.Store[State, Event]
}

// New creates the view-model and starts loading restaurants.
func New(deps Deps, opts ...store.Option) *ViewModel {
	opts = append([]store.Option{store.WithName("home"), store.WithLogger(deps.Logger)}, opts...)
	vm := &ViewModel{
		store: store.New(State{FavRestaurants: []int{}, FeaturedRestaurants: []int{}}, Reducer(deps), opts...),
	}
	if err := vm.store.Dispatch(load{}); err != nil {
		vm.store.Logger().Warn("initial load not queued", "error", err)
	}
	return vm
}

// State returns the current snapshot.
func (vm *ViewModel) State() State { return vm.store.State() }

// Store exposes the underlying store for observers.
func (vm *ViewModel) Store() *store.Store[State, Event] { return vm.store }

// Refresh reloads the restaurant list.
func (vm *ViewModel) Refresh() error { return vm.store.Dispatch(refresh{}) }

// ToggleFavourite optimistically flips the favourite flag of a restaurant.
func (vm *ViewModel) ToggleFavourite(id int) error {
	return vm.store.Dispatch(toggleFavourite{id: id})
}

// Close tears the screen down.
func (vm *ViewModel) Close() { vm.store.Close() }
