package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/foodit-dev/foodit/internal/backend/storage"
	"github.com/foodit-dev/foodit/internal/domain/restaurant"
	"github.com/foodit-dev/foodit/internal/domain/review"
	"github.com/foodit-dev/foodit/internal/domain/user"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "foodit.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestMigrationsApplyOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "foodit.db")
	for i := 0; i < 2; i++ {
		s, err := Open(context.Background(), path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + migrationTable).Scan(&n); err != nil {
			t.Fatalf("count migrations: %v", err)
		}
		if n != 1 {
			t.Fatalf("applied migrations = %d, want 1", n)
		}
		_ = s.Close()
	}
}

func TestUpSection(t *testing.T) {
	t.Parallel()

	got := upSection("-- +migrate Up\nCREATE TABLE a;\n-- +migrate Down\nDROP TABLE a;\n")
	if got != "\nCREATE TABLE a;\n" {
		t.Errorf("upSection() = %q", got)
	}
	if got := upSection("SELECT 1;"); got != "SELECT 1;" {
		t.Errorf("upSection(no markers) = %q", got)
	}
}

func TestUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTempStore(t)

	u, err := s.CreateUser(ctx, user.Registration{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}, "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected user id")
	}

	_, err = s.CreateUser(ctx, user.Registration{Email: "ADA@example.com"}, "hash")
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate email err = %v, want ErrAlreadyExists", err)
	}

	rec, err := s.UserByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("user by email: %v", err)
	}
	if rec.ID != u.ID || rec.PasswordHash != "hash" {
		t.Errorf("record = %+v", rec)
	}

	if _, err := s.UserByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing user err = %v, want ErrNotFound", err)
	}

	updated, err := s.UpdateUser(ctx, u.ID, user.Profile{FirstName: "Augusta", LastName: "King", Email: "ada@example.com", ImageURL: "http://img/1.png"})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.FirstName != "Augusta" || updated.ImageURL != "http://img/1.png" {
		t.Errorf("updated = %+v", updated)
	}

	kept, err := s.UpdateUser(ctx, u.ID, user.Profile{FirstName: "Ada", LastName: "King", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if kept.ImageURL != "http://img/1.png" {
		t.Errorf("image url = %q, want it kept", kept.ImageURL)
	}
}

func TestRestaurantRatingsAndFavourites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTempStore(t)

	u, _ := s.CreateUser(ctx, user.Registration{FirstName: "A", Email: "a@example.com"}, "h")
	id, err := s.CreateRestaurant(ctx, restaurant.Restaurant{Name: "Pasta Place", Location: "Rome"})
	if err != nil {
		t.Fatalf("create restaurant: %v", err)
	}
	other, _ := s.CreateRestaurant(ctx, restaurant.Restaurant{Name: "Sushi Bar"})

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	for i, rating := range []int{5, 4} {
		d := review.Draft{UserID: u.ID, RestaurantID: id, Review: "good", Rating: rating}
		if err := s.CreateReview(ctx, "r"+string(rune('1'+i)), d, now.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("create review: %v", err)
		}
	}

	if err := s.SetFavourite(ctx, u.ID, id, true); err != nil {
		t.Fatalf("set favourite: %v", err)
	}
	if err := s.SetFavourite(ctx, u.ID, id, true); err != nil {
		t.Fatalf("set favourite twice: %v", err)
	}

	r, err := s.Restaurant(ctx, id, u.ID)
	if err != nil {
		t.Fatalf("restaurant: %v", err)
	}
	if r.AverageRating != 4.5 || r.ReviewCount != 2 || !r.IsFavouriteByCurrentUser {
		t.Errorf("restaurant = %+v", r)
	}

	anon, _ := s.Restaurant(ctx, id, 0)
	if anon.IsFavouriteByCurrentUser {
		t.Error("anonymous viewer sees favourite")
	}

	list, err := s.Restaurants(ctx, u.ID)
	if err != nil {
		t.Fatalf("restaurants: %v", err)
	}
	if len(list) != 2 || list[1].ID != other || list[1].ReviewCount != 0 || list[1].AverageRating != 0 {
		t.Errorf("list = %+v", list)
	}

	if err := s.SetFavourite(ctx, u.ID, id, false); err != nil {
		t.Fatalf("unset favourite: %v", err)
	}
	r, _ = s.Restaurant(ctx, id, u.ID)
	if r.IsFavouriteByCurrentUser {
		t.Error("favourite still set")
	}

	if _, err := s.Restaurant(ctx, 999, 0); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing restaurant err = %v", err)
	}
}

func TestReviews(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTempStore(t)

	a, _ := s.CreateUser(ctx, user.Registration{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com"}, "h")
	b, _ := s.CreateUser(ctx, user.Registration{FirstName: "Bob", Email: "bob@example.com"}, "h")
	r1, _ := s.CreateRestaurant(ctx, restaurant.Restaurant{Name: "One"})
	r2, _ := s.CreateRestaurant(ctx, restaurant.Restaurant{Name: "Two"})

	t0 := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	_ = s.CreateReview(ctx, "a1", review.Draft{UserID: a.ID, RestaurantID: r1, Review: "x", Rating: 3}, t0)
	_ = s.CreateReview(ctx, "a2", review.Draft{UserID: a.ID, RestaurantID: r2, Review: "y", Rating: 4}, t0.Add(time.Hour))
	_ = s.CreateReview(ctx, "b1", review.Draft{UserID: b.ID, RestaurantID: r1, Review: "z", Rating: 5}, t0.Add(2*time.Hour))

	if err := s.CreateReview(ctx, "a1", review.Draft{UserID: a.ID, RestaurantID: r1, Review: "dup", Rating: 1}, t0); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Errorf("duplicate id err = %v", err)
	}

	all, _ := s.Reviews(ctx, storage.ReviewFilter{})
	if len(all) != 3 || all[0].ID != "b1" {
		t.Fatalf("all = %+v, want 3 newest first", all)
	}

	byUser, _ := s.Reviews(ctx, storage.ReviewFilter{UserID: a.ID})
	if len(byUser) != 2 || byUser[0].UserName != "Ann Lee" || byUser[0].RestaurantName != "Two" {
		t.Errorf("by user = %+v", byUser)
	}

	byRestaurant, _ := s.Reviews(ctx, storage.ReviewFilter{RestaurantID: r1})
	if len(byRestaurant) != 2 {
		t.Errorf("by restaurant = %+v", byRestaurant)
	}

	text := "better"
	updated, err := s.UpdateReview(ctx, "a1", review.Patch{Review: &text}, t0.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("update review: %v", err)
	}
	if updated.Review != "better" || updated.Rating != 3 || !updated.UpdatedAt.Equal(t0.Add(3*time.Hour)) {
		t.Errorf("updated = %+v", updated)
	}

	if err := s.DeleteReview(ctx, "a1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteReview(ctx, "a1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if _, err := s.Review(ctx, "a1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("get deleted err = %v", err)
	}
}
