// Package domaintest provides in-memory repository fakes for view-model
// and transport tests.
package domaintest

import (
	"context"
	"strconv"
	"sync"

	"github.com/foodit-dev/foodit/internal/domain/restaurant"
	"github.com/foodit-dev/foodit/internal/domain/review"
	"github.com/foodit-dev/foodit/internal/domain/user"
	"github.com/foodit-dev/foodit/pkg/resource"
)

// Restaurants is a restaurant.Repository backed by funcs. Nil funcs fall
// back to serving List.
type Restaurants struct {
	mu       sync.Mutex
	List     []restaurant.Restaurant
	GetAllFn func(ctx context.Context) resource.Resource[[]restaurant.Restaurant]
	GetFn    func(ctx context.Context, id int) resource.Resource[restaurant.Restaurant]
	calls    int
}

func (f *Restaurants) GetAll(ctx context.Context) resource.Resource[[]restaurant.Restaurant] {
	f.mu.Lock()
	f.calls++
	fn := f.GetAllFn
	list := append([]restaurant.Restaurant(nil), f.List...)
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return resource.NewSuccess(list)
}

func (f *Restaurants) GetByID(ctx context.Context, id int) resource.Resource[restaurant.Restaurant] {
	f.mu.Lock()
	fn := f.GetFn
	list := f.List
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	if i := restaurant.IndexOf(list, id); i >= 0 {
		return resource.NewSuccess(list[i])
	}
	return resource.Errorf[restaurant.Restaurant]("Restaurant not found")
}

// Calls returns how many times GetAll ran.
func (f *Restaurants) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Favourites is a restaurant.FavouritesRepository that records toggles.
type Favourites struct {
	mu      sync.Mutex
	Err     string
	Gate    chan struct{}
	toggled []int
}

func (f *Favourites) Toggle(ctx context.Context, r restaurant.Restaurant) resource.Resource[restaurant.Restaurant] {
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return resource.FromError[restaurant.Restaurant](ctx.Err())
		}
	}

	f.mu.Lock()
	f.toggled = append(f.toggled, r.ID)
	errMsg := f.Err
	f.mu.Unlock()

	if errMsg != "" {
		return resource.Errorf[restaurant.Restaurant]("%s", errMsg)
	}
	r.IsFavouriteByCurrentUser = !r.IsFavouriteByCurrentUser
	return resource.NewSuccess(r)
}

// Toggled returns the ids passed to Toggle.
func (f *Favourites) Toggled() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.toggled...)
}

// Reviews is an in-memory review.Repository.
type Reviews struct {
	mu       sync.Mutex
	Items    []review.Review
	Err      string
	DeleteFn func(ctx context.Context, id string) resource.Resource[string]
	CreateFn func(ctx context.Context, d review.Draft) resource.Resource[string]
	created  []review.Draft
}

func (f *Reviews) filter(keep func(review.Review) bool) resource.Resource[[]review.Review] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != "" {
		return resource.Errorf[[]review.Review]("%s", f.Err)
	}
	out := []review.Review{}
	for _, r := range f.Items {
		if keep(r) {
			out = append(out, r)
		}
	}
	return resource.NewSuccess(out)
}

func (f *Reviews) GetAll(ctx context.Context) resource.Resource[[]review.Review] {
	return f.filter(func(review.Review) bool { return true })
}

func (f *Reviews) GetByUser(ctx context.Context, userID int) resource.Resource[[]review.Review] {
	return f.filter(func(r review.Review) bool { return r.UserID == userID })
}

func (f *Reviews) GetByRestaurant(ctx context.Context, restaurantID int) resource.Resource[[]review.Review] {
	return f.filter(func(r review.Review) bool { return r.RestaurantID == restaurantID })
}

func (f *Reviews) Create(ctx context.Context, d review.Draft) resource.Resource[string] {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, d)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, d)
	return resource.NewSuccess("review-" + strconv.Itoa(len(f.created)))
}

func (f *Reviews) Update(ctx context.Context, id string, p review.Patch) resource.Resource[review.Review] {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.Items {
		if r.ID != id {
			continue
		}
		if p.Review != nil {
			r.Review = *p.Review
		}
		if p.Rating != nil {
			r.Rating = *p.Rating
		}
		f.Items[i] = r
		return resource.NewSuccess(r)
	}
	return resource.Errorf[review.Review]("Review not found")
}

func (f *Reviews) Delete(ctx context.Context, id string) resource.Resource[string] {
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.Items {
		if r.ID == id {
			f.Items = append(f.Items[:i:i], f.Items[i+1:]...)
			return resource.NewSuccess(id)
		}
	}
	return resource.Errorf[string]("Review not found")
}

// Created returns the drafts passed to Create.
func (f *Reviews) Created() []review.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]review.Draft(nil), f.created...)
}

// Users is an in-memory user.Repository with a single account.
type Users struct {
	mu         sync.Mutex
	Me         user.User
	Password   string
	LoggedIn   bool
	Err        string
	registered []user.Registration
}

func (f *Users) fail() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Err, f.Err != ""
}

func (f *Users) Register(ctx context.Context, r user.Registration) resource.Resource[string] {
	if msg, bad := f.fail(); bad {
		return resource.Errorf[string]("%s", msg)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, r)
	return resource.NewSuccess("Successfully created account!")
}

func (f *Users) Login(ctx context.Context, c user.Credentials) resource.Resource[user.User] {
	if msg, bad := f.fail(); bad {
		return resource.Errorf[user.User]("%s", msg)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.Email != f.Me.Email || c.Password != f.Password {
		return resource.Errorf[user.User]("Invalid email or password")
	}
	f.LoggedIn = true
	return resource.NewSuccess(f.Me)
}

func (f *Users) Logout(ctx context.Context) resource.Resource[string] {
	if msg, bad := f.fail(); bad {
		return resource.Errorf[string]("%s", msg)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoggedIn = false
	return resource.NewSuccess("Logged out")
}

func (f *Users) Current(ctx context.Context) resource.Resource[user.User] {
	if msg, bad := f.fail(); bad {
		return resource.Errorf[user.User]("%s", msg)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return resource.NewSuccess(f.Me)
}

func (f *Users) UpdateProfile(ctx context.Context, p user.Profile) resource.Resource[user.User] {
	if msg, bad := f.fail(); bad {
		return resource.Errorf[user.User]("%s", msg)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Me.FirstName = p.FirstName
	f.Me.LastName = p.LastName
	f.Me.Email = p.Email
	if p.ImageURL != "" {
		f.Me.ImageURL = p.ImageURL
	}
	return resource.NewSuccess(f.Me)
}

func (f *Users) ResetPassword(ctx context.Context, email string) resource.Resource[string] {
	if msg, bad := f.fail(); bad {
		return resource.Errorf[string]("%s", msg)
	}
	return resource.NewSuccess("Reset link sent to " + email)
}

// Registered returns the registrations received.
func (f *Users) Registered() []user.Registration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]user.Registration(nil), f.registered...)
}
