package profile

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/foodit-dev/foodit/internal/domain/domaintest"
	"github.com/foodit-dev/foodit/internal/domain/review"
	"github.com/foodit-dev/foodit/internal/domain/user"
	"github.com/foodit-dev/foodit/pkg/resource"
	"github.com/foodit-dev/foodit/pkg/store"
)

func fixtures() (*domaintest.Users, *domaintest.Reviews) {
	users := &domaintest.Users{Me: user.User{ID: 1, FirstName: "Ada", Email: "ada@example.com"}, LoggedIn: true}
	reviews := &domaintest.Reviews{Items: []review.Review{
		{ID: "a", UserID: 1, RestaurantID: 7, Rating: 5},
		{ID: "b", UserID: 2, RestaurantID: 7, Rating: 3},
		{ID: "c", UserID: 1, RestaurantID: 8, Rating: 4},
	}}
	return users, reviews
}

func wait(t *testing.T, vm *ViewModel, pred func(State) bool) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := store.WaitFor(ctx, vm.Store(), pred)
	if err != nil {
		t.Fatalf("WaitFor() error = %v, state = %+v", err, vm.State())
	}
	return st
}

func loaded(s State) bool {
	return s.User.ID != 0 && !s.IsLoading && !s.IsReviewsLoading
}

func TestLoadsUserThenReviews(t *testing.T) {
	users, reviews := fixtures()
	vm := New(Deps{Users: users, Reviews: reviews})
	defer vm.Close()

	st := wait(t, vm, loaded)
	if st.User.FirstName != "Ada" {
		t.Errorf("User = %+v", st.User)
	}
	var ids []string
	for _, r := range st.Reviews {
		ids = append(ids, r.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a", "c"}) {
		t.Errorf("review ids = %v", ids)
	}
}

func TestDeleteReviewOptimistic(t *testing.T) {
	users, reviews := fixtures()
	vm := New(Deps{Users: users, Reviews: reviews})
	defer vm.Close()
	wait(t, vm, loaded)

	_ = vm.DeleteReview("a")
	st := wait(t, vm, func(s State) bool { return len(s.Reviews) == 1 })
	if st.Reviews[0].ID != "c" {
		t.Errorf("remaining = %+v", st.Reviews)
	}
}

func TestDeleteReviewFailureRestoresReview(t *testing.T) {
	users, reviews := fixtures()
	gate := make(chan struct{})
	reviews.DeleteFn = func(ctx context.Context, id string) resource.Resource[string] {
		<-gate
		return resource.Errorf[string]("Cannot delete review")
	}
	vm := New(Deps{Users: users, Reviews: reviews})
	defer vm.Close()
	before := wait(t, vm, loaded)

	_ = vm.DeleteReview("c")
	wait(t, vm, func(s State) bool { return len(s.Reviews) == 1 })
	close(gate)

	after := wait(t, vm, func(s State) bool { return len(s.Reviews) == 2 })
	if !reflect.DeepEqual(after, before) {
		t.Errorf("after = %+v, want %+v", after, before)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	tt, err := vm.Store().Toasts().Next(ctx)
	if err != nil || tt.Message != "Cannot delete review" {
		t.Errorf("toast = %+v, err = %v", tt, err)
	}
}

func TestLogoutClearsState(t *testing.T) {
	users, reviews := fixtures()
	vm := New(Deps{Users: users, Reviews: reviews})
	defer vm.Close()
	wait(t, vm, loaded)

	_ = vm.Logout()
	st := wait(t, vm, func(s State) bool { return s.IsLoggedOut })
	if st.User.ID != 0 || len(st.Reviews) != 0 || st.IsLoggingOut {
		t.Errorf("state after logout = %+v", st)
	}
	if users.LoggedIn {
		t.Error("repository still logged in")
	}
}

func TestReduceIgnoresStaleUser(t *testing.T) {
	reduce := Reducer(Deps{})
	s := State{loadGen: 2}
	u := reduce(s, userLoaded{gen: 1, res: resource.NewSuccess(user.User{ID: 9})})
	if !reflect.DeepEqual(u.State, s) || len(u.Effects) != 0 {
		t.Errorf("stale user applied: %+v", u)
	}
}

func loadedState(reduce store.Reducer[State, Event], reviews []review.Review) State {
	s := reduce(State{}, load{}).State
	s = reduce(s, userLoaded{gen: s.loadGen, res: resource.NewSuccess(user.User{ID: 1})}).State
	return reduce(s, reviewsLoaded{gen: s.loadGen, res: resource.NewSuccess(reviews)}).State
}

func refused(t *testing.T, u store.Update[State, Event]) Event {
	t.Helper()
	if len(u.Effects) != 1 {
		t.Fatalf("Effects = %d, want 1", len(u.Effects))
	}
	var out []Event
	u.Effects[0](context.Background(), func(e Event) { out = append(out, e) })
	if len(out) != 1 {
		t.Fatalf("emitted %d events, want 1", len(out))
	}
	return out[0]
}

func refusingReviews() *domaintest.Reviews {
	return &domaintest.Reviews{DeleteFn: func(ctx context.Context, id string) resource.Resource[string] {
		return resource.Errorf[string]("Cannot delete review")
	}}
}

func TestReduceDeleteFailedAfterReloadCompleted(t *testing.T) {
	reduce := Reducer(Deps{Reviews: refusingReviews()})
	s := loadedState(reduce, []review.Review{{ID: "a", Rating: 5}, {ID: "c", Rating: 4}})

	s = reduce(s, load{}).State
	s = reduce(s, userLoaded{gen: s.loadGen, res: resource.NewLoading[user.User](true)}).State
	deleted := reduce(s, deleteReview{id: "c"})
	s = reduce(deleted.State, userLoaded{gen: s.loadGen, res: resource.NewSuccess(user.User{ID: 1, FirstName: "Ada"})}).State
	fresh := []review.Review{{ID: "a", Rating: 5, Review: "edited"}, {ID: "c", Rating: 4}}
	s = reduce(s, reviewsLoaded{gen: s.loadGen, res: resource.NewSuccess(fresh)}).State

	u := reduce(s, refused(t, deleted))
	if u.State.IsLoading || u.State.IsReviewsLoading {
		t.Errorf("loading flags = %v/%v, want false", u.State.IsLoading, u.State.IsReviewsLoading)
	}
	if !reflect.DeepEqual(u.State.Reviews, fresh) {
		t.Errorf("Reviews = %+v, want %+v", u.State.Reviews, fresh)
	}
	if u.State.User.FirstName != "Ada" {
		t.Errorf("User = %+v", u.State.User)
	}
	if len(u.Toasts) != 1 {
		t.Errorf("Toasts = %+v", u.Toasts)
	}
}

func TestReduceDeleteFailedDuringReload(t *testing.T) {
	reduce := Reducer(Deps{Reviews: refusingReviews()})
	s := loadedState(reduce, []review.Review{{ID: "a"}, {ID: "c"}, {ID: "d"}})

	deleted := reduce(s, deleteReview{id: "c"})
	s = reduce(deleted.State, load{}).State
	gen := s.loadGen
	s = reduce(s, refused(t, deleted)).State
	if s.loadGen != gen {
		t.Fatalf("loadGen = %d, want %d", s.loadGen, gen)
	}
	var ids []string
	for _, r := range s.Reviews {
		ids = append(ids, r.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a", "c", "d"}) {
		t.Errorf("review ids = %v, want [a c d]", ids)
	}

	s = reduce(s, userLoaded{gen: gen, res: resource.NewSuccess(user.User{ID: 1})}).State
	s = reduce(s, reviewsLoaded{gen: gen, res: resource.NewSuccess([]review.Review{{ID: "a"}})}).State
	if s.IsReviewsLoading || len(s.Reviews) != 1 {
		t.Errorf("reload result not applied: %+v", s)
	}
}
