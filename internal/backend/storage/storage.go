// Package storage defines the persistence contract of the reference
// backend.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/foodit-dev/foodit/internal/domain/restaurant"
	"github.com/foodit-dev/foodit/internal/domain/review"
	"github.com/foodit-dev/foodit/internal/domain/user"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when a unique key is taken.
	ErrAlreadyExists = errors.New("record already exists")
)

// UserRecord is a stored account.
type UserRecord struct {
	user.User
	PasswordHash string
}

// ReviewFilter narrows a review listing. Zero fields match everything.
type ReviewFilter struct {
	UserID       int
	RestaurantID int
}

// Store is the backend's persistence layer.
type Store interface {
	CreateUser(ctx context.Context, r user.Registration, passwordHash string) (user.User, error)
	UserByEmail(ctx context.Context, email string) (UserRecord, error)
	UserByID(ctx context.Context, id int) (user.User, error)
	UpdateUser(ctx context.Context, id int, p user.Profile) (user.User, error)

	// Restaurants lists restaurants with ratings computed from their
	// reviews. viewerID sets IsFavouriteByCurrentUser; 0 means anonymous.
	Restaurants(ctx context.Context, viewerID int) ([]restaurant.Restaurant, error)
	Restaurant(ctx context.Context, id, viewerID int) (restaurant.Restaurant, error)
	SetFavourite(ctx context.Context, userID, restaurantID int, favourite bool) error
	CreateRestaurant(ctx context.Context, r restaurant.Restaurant) (int, error)

	Reviews(ctx context.Context, f ReviewFilter) ([]review.Review, error)
	Review(ctx context.Context, id string) (review.Review, error)
	CreateReview(ctx context.Context, id string, d review.Draft, at time.Time) error
	UpdateReview(ctx context.Context, id string, p review.Patch, at time.Time) (review.Review, error)
	DeleteReview(ctx context.Context, id string) error

	Close() error
}
