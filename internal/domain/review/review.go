// Package review defines restaurant reviews and their repository.
package review

import (
	"context"
	"time"

	"github.com/foodit-dev/foodit/pkg/resource"
)

// MinRating and MaxRating bound a review rating.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's review of a restaurant.
type Review struct {
	ID             string    `json:"id"`
	UserID         int       `json:"userId"`
	RestaurantID   int       `json:"restaurantId"`
	Review         string    `json:"review"`
	Rating         int       `json:"rating"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt,omitempty"`
	UserName       string    `json:"userName,omitempty"`
	UserImageURL   string    `json:"userImageUrl,omitempty"`
	RestaurantName string    `json:"restaurantName,omitempty"`
}

// Draft is the content of a new review.
type Draft struct {
	UserID       int    `json:"userId"`
	RestaurantID int    `json:"restaurantId"`
	Review       string `json:"review"`
	Rating       int    `json:"rating"`
}

// Patch changes an existing review. Nil fields are left as they are.
type Patch struct {
	Review *string `json:"review,omitempty"`
	Rating *int    `json:"rating,omitempty"`
}

// Repository reads and writes reviews.
type Repository interface {
	GetAll(ctx context.Context) resource.Resource[[]Review]
	GetByUser(ctx context.Context, userID int) resource.Resource[[]Review]
	GetByRestaurant(ctx context.Context, restaurantID int) resource.Resource[[]Review]
	// Create returns the id of the new review.
	Create(ctx context.Context, d Draft) resource.Resource[string]
	Update(ctx context.Context, id string, p Patch) resource.Resource[Review]
	// Delete returns the id of the deleted review.
	Delete(ctx context.Context, id string) resource.Resource[string]
}
