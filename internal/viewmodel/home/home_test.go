package home

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/foodit-dev/foodit/internal/domain/domaintest"
	"github.com/foodit-dev/foodit/internal/domain/restaurant"
	"github.com/foodit-dev/foodit/pkg/resource"
	"github.com/foodit-dev/foodit/pkg/store"
	"github.com/foodit-dev/foodit/pkg/toast"
)

func sampleList() []restaurant.Restaurant {
	return []restaurant.Restaurant{
		{ID: 1, Name: "Ramen Ya", AverageRating: 4.2, IsFavouriteByCurrentUser: true},
		{ID: 2, Name: "Taco Loco", AverageRating: 3.1},
		{ID: 3, Name: "Le Petit", AverageRating: 4.8},
		{ID: 4, Name: "Curry House", AverageRating: 4.2, IsFavouriteByCurrentUser: true},
		{ID: 5, Name: "Pho Real", AverageRating: 2.0},
		{ID: 6, Name: "Sushi Go", AverageRating: 4.9},
	}
}

func waitState(t *testing.T, vm *ViewModel, pred func(State) bool) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := store.WaitFor(ctx, vm.Store(), pred)
	if err != nil {
		t.Fatalf("WaitFor() error = %v, state = %+v", err, vm.State())
	}
	return st
}

func TestReduceSuccessDerivesLists(t *testing.T) {
	reduce := Reducer(Deps{})
	s := State{IsLoading: true, IsRefreshing: true, loadGen: 1}

	u := reduce(s, restaurantsLoaded{gen: 1, res: resource.NewSuccess(sampleList())})

	if u.State.IsLoading || u.State.IsRefreshing {
		t.Error("loading flags should be cleared")
	}
	if want := []int{0, 3}; !reflect.DeepEqual(u.State.FavRestaurants, want) {
		t.Errorf("FavRestaurants = %v, want %v", u.State.FavRestaurants, want)
	}
	if want := []int{5, 2, 0, 3, 1}; !reflect.DeepEqual(u.State.FeaturedRestaurants, want) {
		t.Errorf("FeaturedRestaurants = %v, want %v", u.State.FeaturedRestaurants, want)
	}
	if len(u.Toasts) != 0 || len(u.Effects) != 0 {
		t.Errorf("unexpected toasts/effects: %+v", u)
	}
}

func TestReduceLoadingFlag(t *testing.T) {
	reduce := Reducer(Deps{})
	s := State{loadGen: 1}

	u := reduce(s, restaurantsLoaded{gen: 1, res: resource.NewLoading[[]restaurant.Restaurant](true)})
	if !u.State.IsLoading {
		t.Fatal("IsLoading should be true after Loading(true)")
	}

	u = reduce(u.State, restaurantsLoaded{gen: 1, res: resource.Errorf[[]restaurant.Restaurant]("offline")})
	if u.State.IsLoading {
		t.Error("IsLoading should be false after Failure")
	}
	if len(u.Toasts) != 1 || u.Toasts[0].Message != "offline" || u.Toasts[0].Level != toast.TypeError {
		t.Errorf("Toasts = %+v", u.Toasts)
	}
}

func TestReduceIgnoresStaleResults(t *testing.T) {
	reduce := Reducer(Deps{})
	s := State{loadGen: 2, RestaurantList: sampleList()[:1]}

	u := reduce(s, restaurantsLoaded{gen: 1, res: resource.NewSuccess(sampleList())})
	if !reflect.DeepEqual(u.State, s) {
		t.Errorf("stale result changed state: %+v", u.State)
	}
}

func TestReduceToggleOptimistic(t *testing.T) {
	reduce := Reducer(Deps{Favourites: &domaintest.Favourites{}})
	s := reduce(State{loadGen: 1}, restaurantsLoaded{gen: 1, res: resource.NewSuccess(sampleList())}).State

	u := reduce(s, toggleFavourite{id: 2})
	if !u.State.RestaurantList[1].IsFavouriteByCurrentUser {
		t.Error("restaurant 2 should be favourite optimistically")
	}
	if want := []int{0, 1, 3}; !reflect.DeepEqual(u.State.FavRestaurants, want) {
		t.Errorf("FavRestaurants = %v, want %v", u.State.FavRestaurants, want)
	}
	if s.RestaurantList[1].IsFavouriteByCurrentUser {
		t.Error("previous snapshot must not be mutated")
	}
	if len(u.Effects) != 1 {
		t.Fatalf("Effects = %d, want 1", len(u.Effects))
	}
}

// confirmOnce runs the single effect of u and returns what it emitted.
func confirmOnce(t *testing.T, u store.Update[State, Event]) []Event {
	t.Helper()
	if len(u.Effects) != 1 {
		t.Fatalf("Effects = %d, want 1", len(u.Effects))
	}
	var out []Event
	u.Effects[0](context.Background(), func(e Event) { out = append(out, e) })
	return out
}

func renamed(list []restaurant.Restaurant) []restaurant.Restaurant {
	out := append([]restaurant.Restaurant(nil), list...)
	for i := range out {
		out[i].Name += " (new)"
	}
	return out
}

func TestReduceToggleFailedRevertsFlag(t *testing.T) {
	reduce := Reducer(Deps{Favourites: &domaintest.Favourites{Err: "Could not update favourites"}})
	s := reduce(State{loadGen: 1}, restaurantsLoaded{gen: 1, res: resource.NewSuccess(sampleList())}).State

	failed := confirmOnce(t, reduce(s, toggleFavourite{id: 2}))
	if len(failed) != 1 {
		t.Fatalf("emitted %d events, want 1", len(failed))
	}

	u := reduce(reduce(s, toggleFavourite{id: 2}).State, failed[0])
	if !reflect.DeepEqual(u.State, s) {
		t.Errorf("state = %+v, want %+v", u.State, s)
	}
	if len(u.Toasts) != 1 || u.Toasts[0].Message != "Could not update favourites" {
		t.Errorf("Toasts = %+v", u.Toasts)
	}
}

func TestReduceToggleFailedAfterRefreshCompleted(t *testing.T) {
	reduce := Reducer(Deps{Favourites: &domaintest.Favourites{Err: "nope"}})
	s := reduce(State{loadGen: 1}, restaurantsLoaded{gen: 1, res: resource.NewSuccess(sampleList())}).State

	s = reduce(s, refresh{}).State
	s = reduce(s, restaurantsLoaded{gen: s.loadGen, res: resource.NewLoading[[]restaurant.Restaurant](true)}).State
	toggled := reduce(s, toggleFavourite{id: 2})
	fresh := renamed(sampleList())
	s = reduce(toggled.State, restaurantsLoaded{gen: s.loadGen, res: resource.NewSuccess(fresh)}).State

	for _, e := range confirmOnce(t, toggled) {
		s = reduce(s, e).State
	}

	if s.IsLoading || s.IsRefreshing {
		t.Errorf("IsLoading = %v, IsRefreshing = %v, want both false", s.IsLoading, s.IsRefreshing)
	}
	if !reflect.DeepEqual(s.RestaurantList, fresh) {
		t.Errorf("RestaurantList = %+v, want the refreshed list", s.RestaurantList)
	}
	if want := []int{0, 3}; !reflect.DeepEqual(s.FavRestaurants, want) {
		t.Errorf("FavRestaurants = %v, want %v", s.FavRestaurants, want)
	}
}

func TestReduceToggleFailedDuringRefresh(t *testing.T) {
	reduce := Reducer(Deps{Favourites: &domaintest.Favourites{Err: "nope"}})
	s := reduce(State{loadGen: 1}, restaurantsLoaded{gen: 1, res: resource.NewSuccess(sampleList())}).State

	toggled := reduce(s, toggleFavourite{id: 2})
	s = reduce(toggled.State, refresh{}).State
	gen := s.loadGen
	for _, e := range confirmOnce(t, toggled) {
		s = reduce(s, e).State
	}
	if !s.IsRefreshing || s.loadGen != gen {
		t.Fatalf("toggle failure touched the refresh: IsRefreshing = %v, loadGen = %d want %d", s.IsRefreshing, s.loadGen, gen)
	}
	if s.RestaurantList[1].IsFavouriteByCurrentUser {
		t.Error("restaurant 2 should be reverted")
	}

	fresh := renamed(sampleList())
	s = reduce(s, restaurantsLoaded{gen: gen, res: resource.NewSuccess(fresh)}).State
	if s.IsRefreshing || !reflect.DeepEqual(s.RestaurantList, fresh) {
		t.Errorf("refresh result not applied: %+v", s)
	}
}

func TestReduceToggleUnknownID(t *testing.T) {
	reduce := Reducer(Deps{})
	s := State{RestaurantList: sampleList()}

	u := reduce(s, toggleFavourite{id: 99})
	if !reflect.DeepEqual(u.State, s) || len(u.Effects) != 0 {
		t.Errorf("unknown id should be a no-op: %+v", u)
	}
}

func TestViewModelLoadsOnStart(t *testing.T) {
	repo := &domaintest.Restaurants{List: sampleList()}
	vm := New(Deps{Restaurants: repo, Favourites: &domaintest.Favourites{}})
	defer vm.Close()

	st := waitState(t, vm, func(s State) bool { return len(s.RestaurantList) == 6 })
	if st.IsLoading {
		t.Error("IsLoading should be false once loaded")
	}
	if len(st.FeaturedRestaurants) != restaurant.FeaturedCount {
		t.Errorf("len(Featured) = %d", len(st.FeaturedRestaurants))
	}
}

func TestViewModelLoadingFlagBracketsCall(t *testing.T) {
	gate := make(chan struct{})
	repo := &domaintest.Restaurants{
		GetAllFn: func(ctx context.Context) resource.Resource[[]restaurant.Restaurant] {
			<-gate
			return resource.NewSuccess(sampleList())
		},
	}
	vm := New(Deps{Restaurants: repo, Favourites: &domaintest.Favourites{}})
	defer vm.Close()

	waitState(t, vm, func(s State) bool { return s.IsLoading })
	if len(vm.State().RestaurantList) != 0 {
		t.Error("list should be empty while loading")
	}

	close(gate)
	st := waitState(t, vm, func(s State) bool { return !s.IsLoading })
	if len(st.RestaurantList) != 6 {
		t.Errorf("len(RestaurantList) = %d, want 6", len(st.RestaurantList))
	}
}

func TestViewModelRefresh(t *testing.T) {
	repo := &domaintest.Restaurants{List: sampleList()[:2]}
	vm := New(Deps{Restaurants: repo, Favourites: &domaintest.Favourites{}})
	defer vm.Close()
	waitState(t, vm, func(s State) bool { return len(s.RestaurantList) == 2 })

	repo.List = sampleList()
	if err := vm.Refresh(); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	st := waitState(t, vm, func(s State) bool { return len(s.RestaurantList) == 6 && !s.IsRefreshing })
	if want := []int{0, 3}; !reflect.DeepEqual(st.FavRestaurants, want) {
		t.Errorf("FavRestaurants = %v, want %v", st.FavRestaurants, want)
	}
	if repo.Calls() != 2 {
		t.Errorf("GetAll calls = %d, want 2", repo.Calls())
	}
}

func TestViewModelToggleFailureRevertsAndNotifies(t *testing.T) {
	gate := make(chan struct{})
	favs := &domaintest.Favourites{Err: "Unable to save favourite", Gate: gate}
	vm := New(Deps{Restaurants: &domaintest.Restaurants{List: sampleList()}, Favourites: favs})
	defer vm.Close()

	before := waitState(t, vm, func(s State) bool { return len(s.RestaurantList) == 6 })

	if err := vm.ToggleFavourite(1); err != nil {
		t.Fatalf("ToggleFavourite() error = %v", err)
	}
	waitState(t, vm, func(s State) bool { return !s.RestaurantList[0].IsFavouriteByCurrentUser })

	close(gate)
	after := waitState(t, vm, func(s State) bool { return s.RestaurantList[0].IsFavouriteByCurrentUser })
	if !reflect.DeepEqual(after, before) {
		t.Errorf("state after failed toggle = %+v, want %+v", after, before)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	tt, err := vm.Store().Toasts().Next(ctx)
	if err != nil {
		t.Fatalf("no toast: %v", err)
	}
	if tt.Message != "Unable to save favourite" {
		t.Errorf("toast = %q", tt.Message)
	}
	if got := favs.Toggled(); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("Toggled() = %v", got)
	}
}

func TestViewModelToggleSuccessKeepsOptimisticState(t *testing.T) {
	favs := &domaintest.Favourites{}
	vm := New(Deps{Restaurants: &domaintest.Restaurants{List: sampleList()}, Favourites: favs})
	defer vm.Close()
	waitState(t, vm, func(s State) bool { return len(s.RestaurantList) == 6 })

	_ = vm.ToggleFavourite(2)
	st := waitState(t, vm, func(s State) bool { return s.RestaurantList[1].IsFavouriteByCurrentUser })

	// Give the confirming call time to finish; state must not change.
	deadline := time.Now().Add(time.Second)
	for len(favs.Toggled()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	vm.Close()
	if !reflect.DeepEqual(vm.State(), st) {
		t.Errorf("state changed after successful confirmation")
	}
	if vm.Store().Toasts().Len() != 0 {
		t.Error("no toast expected on success")
	}
}
