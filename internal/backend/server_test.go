package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/foodit-dev/foodit/internal/api"
	"github.com/foodit-dev/foodit/internal/backend"
	"github.com/foodit-dev/foodit/internal/backend/storage/sqlite"
	"github.com/foodit-dev/foodit/internal/domain/restaurant"
	"github.com/foodit-dev/foodit/internal/domain/review"
	"github.com/foodit-dev/foodit/internal/domain/user"
	"github.com/foodit-dev/foodit/internal/errors"
	"github.com/foodit-dev/foodit/pkg/resource"
)

func newBackend(t *testing.T) (*httptest.Server, *api.Client) {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "foodit.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := backend.Seed(ctx, store, logger); err != nil {
		t.Fatalf("seed: %v", err)
	}
	srv := httptest.NewServer(backend.New(store, backend.NewTokens([]byte("test-secret"), time.Hour), backend.WithLogger(logger)).Handler())
	t.Cleanup(srv.Close)
	return srv, api.New(srv.URL)
}

func mustSucceed[T any](t *testing.T, r resource.Resource[T]) T {
	t.Helper()
	v, ok := resource.Get(r)
	if !ok {
		t.Fatalf("expected Success, got failure %q", resource.Message(resource.ErrOf(r)))
	}
	return v
}

func failure[T any](t *testing.T, r resource.Resource[T]) string {
	t.Helper()
	kind := resource.ErrOf(r)
	if kind == nil {
		t.Fatalf("expected Failure, got %#v", r)
	}
	return resource.Message(kind)
}

func signUp(t *testing.T, c *api.Client, email string) user.User {
	t.Helper()
	ctx := context.Background()
	mustSucceed(t, c.Users().Register(ctx, user.Registration{
		FirstName: "Test", LastName: "User", Email: email, Password: "password1",
	}))
	return mustSucceed(t, c.Users().Login(ctx, user.Credentials{Email: email, Password: "password1"}))
}

func TestAccountFlow(t *testing.T) {
	_, c := newBackend(t)
	ctx := context.Background()
	users := c.Users()

	msg := mustSucceed(t, users.Register(ctx, user.Registration{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "password1",
	}))
	if msg != "Successfully created account!" {
		t.Errorf("register message = %q", msg)
	}

	dup := users.Register(ctx, user.Registration{FirstName: "A", LastName: "L", Email: "ada@example.com", Password: "password1"})
	if got := failure(t, dup); got != "An account with this email already exists" {
		t.Errorf("duplicate message = %q", got)
	}

	if got := failure(t, users.Current(ctx)); got != "Please log in to continue" {
		t.Errorf("anonymous current = %q", got)
	}

	bad := users.Login(ctx, user.Credentials{Email: "ada@example.com", Password: "wrong-password"})
	if got := failure(t, bad); got != "Invalid email or password" {
		t.Errorf("bad login = %q", got)
	}

	u := mustSucceed(t, users.Login(ctx, user.Credentials{Email: "ada@example.com", Password: "password1"}))
	me := mustSucceed(t, users.Current(ctx))
	if me.ID != u.ID || me.FullName() != "Ada Lovelace" {
		t.Errorf("current = %+v", me)
	}

	updated := mustSucceed(t, users.UpdateProfile(ctx, user.Profile{
		FirstName: "Augusta", LastName: "King", Email: "ada@example.com", ImageURL: "http://cdn/ada.png",
	}))
	if updated.FirstName != "Augusta" || updated.ImageURL != "http://cdn/ada.png" {
		t.Errorf("updated = %+v", updated)
	}

	reset := mustSucceed(t, users.ResetPassword(ctx, "ada@example.com"))
	if !strings.Contains(reset, "ada@example.com") {
		t.Errorf("reset message = %q", reset)
	}

	mustSucceed(t, users.Logout(ctx))
	if got := failure(t, users.Current(ctx)); got != "Please log in to continue" {
		t.Errorf("current after logout = %q", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	_, c := newBackend(t)

	r := c.Users().Register(context.Background(), user.Registration{Email: "nope", Password: "short"})
	got := failure(t, r)
	for _, want := range []string{"Invalid input", "Invalid email address", "First name is required", "Must be at least 8 characters"} {
		if !strings.Contains(got, want) {
			t.Errorf("message %q missing %q", got, want)
		}
	}
}

func TestFavourites(t *testing.T) {
	_, c := newBackend(t)
	ctx := context.Background()

	list := mustSucceed(t, c.Restaurants().GetAll(ctx))
	if len(list) != len(backend.SeedRestaurants) {
		t.Fatalf("restaurants = %d, want %d", len(list), len(backend.SeedRestaurants))
	}

	if got := failure(t, c.Favourites().Toggle(ctx, list[0])); got != "Please log in to continue" {
		t.Errorf("anonymous toggle = %q", got)
	}

	signUp(t, c, "fav@example.com")
	toggled := mustSucceed(t, c.Favourites().Toggle(ctx, list[0]))
	if !toggled.IsFavouriteByCurrentUser {
		t.Error("toggle did not set favourite")
	}

	// Resending the same request keeps the flag.
	again := mustSucceed(t, c.Favourites().Toggle(ctx, list[0]))
	if !again.IsFavouriteByCurrentUser {
		t.Error("repeated toggle flipped the flag back")
	}

	fresh := mustSucceed(t, c.Restaurants().GetAll(ctx))
	if favs := restaurant.Favourites(fresh); len(favs) != 1 || fresh[favs[0]].ID != list[0].ID {
		t.Errorf("favourites = %v", favs)
	}

	off := mustSucceed(t, c.Favourites().Toggle(ctx, again))
	if off.IsFavouriteByCurrentUser {
		t.Error("toggle did not clear favourite")
	}

	if got := failure(t, c.Restaurants().GetByID(ctx, 999)); got != "Not found" {
		t.Errorf("missing restaurant = %q", got)
	}
}

func TestReviewLifecycle(t *testing.T) {
	srv, author := newBackend(t)
	ctx := context.Background()
	me := signUp(t, author, "author@example.com")

	restaurants := mustSucceed(t, author.Restaurants().GetAll(ctx))
	target := restaurants[1].ID

	id := mustSucceed(t, author.Reviews().Create(ctx, review.Draft{RestaurantID: target, Review: "Lovely", Rating: 4}))
	mustSucceed(t, author.Reviews().Create(ctx, review.Draft{RestaurantID: target, Review: "Even better", Rating: 5}))

	invalid := author.Reviews().Create(ctx, review.Draft{RestaurantID: target, Review: " ", Rating: 0})
	if got := failure(t, invalid); !strings.Contains(got, "Please write a review") || !strings.Contains(got, "Please pick a rating from 1 to 5") {
		t.Errorf("invalid review = %q", got)
	}

	missing := author.Reviews().Create(ctx, review.Draft{RestaurantID: 999, Review: "x", Rating: 3})
	if got := failure(t, missing); got != "Not found" {
		t.Errorf("review for missing restaurant = %q", got)
	}

	r := mustSucceed(t, author.Restaurants().GetByID(ctx, target))
	if r.AverageRating != 4.5 || r.ReviewCount != 2 {
		t.Errorf("rating = %v over %d reviews, want 4.5 over 2", r.AverageRating, r.ReviewCount)
	}

	mine := mustSucceed(t, author.Reviews().GetByUser(ctx, me.ID))
	if len(mine) != 2 || mine[0].RestaurantName != restaurants[1].Name {
		t.Errorf("by user = %+v", mine)
	}

	other := api.New(srv.URL)
	signUp(t, other, "other@example.com")
	text := "Hijacked"
	if got := failure(t, other.Reviews().Update(ctx, id, review.Patch{Review: &text})); got != "You are not allowed to do that" {
		t.Errorf("foreign update = %q", got)
	}
	if got := failure(t, other.Reviews().Delete(ctx, id)); got != "You are not allowed to do that" {
		t.Errorf("foreign delete = %q", got)
	}

	rating := 1
	updated := mustSucceed(t, author.Reviews().Update(ctx, id, review.Patch{Rating: &rating}))
	if updated.Rating != 1 || updated.Review != "Lovely" {
		t.Errorf("updated = %+v", updated)
	}

	if got := mustSucceed(t, author.Reviews().Delete(ctx, id)); got != id {
		t.Errorf("deleted id = %q, want %q", got, id)
	}
	if got := failure(t, author.Reviews().Delete(ctx, id)); got != "Not found" {
		t.Errorf("second delete = %q", got)
	}

	byRestaurant := mustSucceed(t, author.Reviews().GetByRestaurant(ctx, target))
	if len(byRestaurant) != 1 {
		t.Errorf("reviews left = %d, want 1", len(byRestaurant))
	}
}

func TestErrorBodies(t *testing.T) {
	srv, _ := newBackend(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		auth   string
		status int
		code   string
	}{
		{"unknown route", http.MethodGet, "/nope", "", "", http.StatusNotFound, "E303"},
		{"bad id", http.MethodGet, "/restaurants/abc", "", "", http.StatusBadRequest, "E501"},
		{"bad query", http.MethodGet, "/reviews?user=x", "", "", http.StatusBadRequest, "E501"},
		{"bad json", http.MethodPost, "/auth/login", "{", "", http.StatusBadRequest, "E501"},
		{"bad token", http.MethodGet, "/restaurants", "", "Bearer junk", http.StatusUnauthorized, "E401"},
		{"not bearer", http.MethodGet, "/restaurants", "", "Basic abc", http.StatusUnauthorized, "E401"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body errors.Body
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tt.code || body.Message == "" {
				t.Errorf("body = %+v, want code %s", body, tt.code)
			}
		})
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "foodit.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	for i := 0; i < 2; i++ {
		if err := backend.Seed(ctx, store, nil); err != nil {
			t.Fatalf("seed #%d: %v", i+1, err)
		}
	}
	list, _ := store.Restaurants(ctx, 0)
	if len(list) != len(backend.SeedRestaurants) {
		t.Errorf("restaurants = %d, want %d", len(list), len(backend.SeedRestaurants))
	}
}
