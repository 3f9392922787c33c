// Package search implements restaurant search. The full list is fetched
// once and filtered locally as the query changes.
package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/foodit-dev/foodit/internal/domain/restaurant"
	"github.com/foodit-dev/foodit/pkg/resource"
	"github.com/foodit-dev/foodit/pkg/store"
	"github.com/foodit-dev/foodit/pkg/toast"
)

// State is the search screen snapshot.
type State struct {
	Query     string                  `json:"query"`
	Results   []restaurant.Restaurant `json:"results"`
	IsLoading bool                    `json:"isLoading"`

	all []restaurant.Restaurant
}

// Event is a search screen event.
type Event interface {
	EventName() string
}

type load struct{}

type loaded struct {
	res resource.Resource[[]restaurant.Restaurant]
}

type queryChanged struct {
	query string
}

func (load) EventName() string         { return "load" }
func (loaded) EventName() string       { return "loaded" }
func (queryChanged) EventName() string { return "query_changed" }

// Deps are the repositories the screen reads from.
type Deps struct {
	Restaurants restaurant.Repository
	Logger      *slog.Logger
}

// Reducer returns the search reducer.
func Reducer(deps Deps) store.Reducer[State, Event] {
	return func(s State, e Event) store.Update[State, Event] {
		switch e := e.(type) {
		case load:
			repo := deps.Restaurants
			return store.Next(s, store.Fetch(func(ctx context.Context) resource.Resource[[]restaurant.Restaurant] {
				return repo.GetAll(ctx)
			}, func(res resource.Resource[[]restaurant.Restaurant]) Event {
				return loaded{res: res}
			}))

		case loaded:
			switch res := e.res.(type) {
			case resource.Loading[[]restaurant.Restaurant]:
				s.IsLoading = res.IsLoading
			case resource.Success[[]restaurant.Restaurant]:
				s.IsLoading = false
				s.all = res.Result
				s.Results = Filter(s.all, s.Query)
			case resource.Failure[[]restaurant.Restaurant]:
				s.IsLoading = false
				return store.Notify[State, Event](s, toast.Error(resource.Message(res.Err)))
			}
			return store.Next[State, Event](s)

		case queryChanged:
			s.Query = e.query
			s.Results = Filter(s.all, s.Query)
			return store.Next[State, Event](s)
		}
		return store.Next[State, Event](s)
	}
}

// Filter returns the restaurants whose name, cuisine or location contain
// every term of query, ignoring case and accents. An empty query matches
// everything. The input order is kept.
func Filter(list []restaurant.Restaurant, query string) []restaurant.Restaurant {
	want := terms(query)
	out := make([]restaurant.Restaurant, 0, len(list))
	for _, r := range list {
		if matches(r, want) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r restaurant.Restaurant, want []string) bool {
	haystack := fold(r.Name + " " + r.Cuisine + " " + r.Location)
	for _, term := range want {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

// ViewModel drives the search screen.
type ViewModel struct {
	store *store.Store[State, Event]
}

// New creates the view-model and fetches the restaurant list.
func New(deps Deps, opts ...store.Option) *ViewModel {
	opts = append([]store.Option{store.WithName("search"), store.WithLogger(deps.Logger)}, opts...)
	vm := &ViewModel{
		store: store.New(State{Results: []restaurant.Restaurant{}}, Reducer(deps), opts...),
	}
	if err := vm.store.Dispatch(load{}); err != nil {
		vm.store.Logger().Warn("initial load not queued", "error", err)
	}
	return vm
}

// State returns the current snapshot.
func (vm *ViewModel) State() State { return vm.store.State() }

// Store exposes the underlying store.
func (vm *ViewModel) Store() *store.Store[State, Event] { return vm.store }

// Close tears the screen down.
func (vm *ViewModel) Close() { vm.store.Close() }

// SetQuery updates the query and the filtered results.
func (vm *ViewModel) SetQuery(q string) error { return vm.store.Dispatch(queryChanged{query: q}) }

// Reload fetches the restaurant list again.
func (vm *ViewModel) Reload() error { return vm.store.Dispatch(load{}) }
