package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/foodit-dev/foodit/internal/backend/storage"
	"github.com/foodit-dev/foodit/internal/domain/restaurant"
)

// SeedRestaurants is the catalogue loaded into an empty database.
var SeedRestaurants = []restaurant.Restaurant{
	{Name: "Trattoria da Enzo", Cuisine: "Italian", Location: "Trastevere, Rome", Description: "Family-run Roman kitchen serving cacio e pepe and carbonara."},
	{Name: "Sushi Kanda", Cuisine: "Japanese", Location: "Chiyoda, Tokyo", Description: "Omakase counter with eight seats and seasonal fish."},
	{Name: "Café Crème", Cuisine: "French", Location: "Le Marais, Paris", Description: "Bistro classics, natural wine and a long brunch menu."},
	{Name: "Taquería El Güero", Cuisine: "Mexican", Location: "Roma Norte, Mexico City", Description: "Al pastor from the trompo and handmade tortillas."},
	{Name: "Dishoom Corner", Cuisine: "Indian", Location: "Shoreditch, London", Description: "Bombay café fare with black daal and bacon naan rolls."},
	{Name: "Mezze House", Cuisine: "Lebanese", Location: "Gemmayzeh, Beirut", Description: "Hot and cold mezze, grilled meats and fresh bread."},
	{Name: "Smokestack BBQ", Cuisine: "American", Location: "East Austin, Austin", Description: "Central Texas brisket, ribs and sides by the pound."},
	{Name: "Pho Saigon", Cuisine: "Vietnamese", Location: "District 1, Ho Chi Minh City", Description: "Slow-simmered beef broth and fresh herbs."},
}

// Seed loads SeedRestaurants when the store has no restaurants yet.
func Seed(ctx context.Context, store storage.Store, logger *slog.Logger) error {
	existing, err := store.Restaurants(ctx, 0)
	if err != nil {
		return fmt.Errorf("check restaurants: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, r := range SeedRestaurants {
		if _, err := store.CreateRestaurant(ctx, r); err != nil {
			return fmt.Errorf("seed %q: %w", r.Name, err)
		}
	}
	if logger != nil {
		logger.Info("seeded restaurants", "count", len(SeedRestaurants))
	}
	return nil
}
