// Package restaurant defines the restaurant entity, its repositories and
// the derived views computed from a restaurant list.
package restaurant

import (
	"context"

	"github.com/foodit-dev/foodit/pkg/resource"
)

// Restaurant is a restaurant as seen by the current user.
type Restaurant struct {
	ID                       int     `json:"id"`
	Name                     string  `json:"name"`
	Description              string  `json:"description,omitempty"`
	Location                 string  `json:"location,omitempty"`
	Cuisine                  string  `json:"cuisine,omitempty"`
	ImageURL                 string  `json:"imageUrl,omitempty"`
	AverageRating            float64 `json:"averageRating"`
	ReviewCount              int     `json:"reviewCount"`
	IsFavouriteByCurrentUser bool    `json:"isFavouriteByCurrentUser"`
}

// Repository loads restaurants.
type Repository interface {
	GetAll(ctx context.Context) resource.Resource[[]Restaurant]
	GetByID(ctx context.Context, id int) resource.Resource[Restaurant]
}

// FavouritesRepository confirms favourite toggles with the backend.
// Toggle flips the favourite flag of r as it was before the local update.
type FavouritesRepository interface {
	Toggle(ctx context.Context, r Restaurant) resource.Resource[Restaurant]
}
