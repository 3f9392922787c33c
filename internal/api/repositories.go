package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/foodit-dev/foodit/internal/domain/restaurant"
	"github.com/foodit-dev/foodit/internal/domain/review"
	"github.com/foodit-dev/foodit/internal/domain/user"
	"github.com/foodit-dev/foodit/pkg/resource"
)

var (
	_ restaurant.Repository           = (*Restaurants)(nil)
	_ restaurant.FavouritesRepository = (*Favourites)(nil)
	_ review.Repository               = (*Reviews)(nil)
	_ user.Repository                 = (*Users)(nil)
)

// Restaurants implements restaurant.Repository.
type Restaurants struct{ c *Client }

func (r *Restaurants) GetAll(ctx context.Context) resource.Resource[[]restaurant.Restaurant] {
	var out []restaurant.Restaurant
	err := r.c.do(ctx, "restaurants.list", http.MethodGet, "/restaurants", nil, &out)
	if out == nil {
		out = []restaurant.Restaurant{}
	}
	return resource.Of(out, err)
}

func (r *Restaurants) GetByID(ctx context.Context, id int) resource.Resource[restaurant.Restaurant] {
	var out restaurant.Restaurant
	err := r.c.do(ctx, "restaurants.get", http.MethodGet, "/restaurants/"+strconv.Itoa(id), nil, &out)
	return resource.Of(out, err)
}

// Favourites implements restaurant.FavouritesRepository.
type Favourites struct{ c *Client }

type favouriteRequest struct {
	Favourite bool `json:"favourite"`
}

// Toggle asks the backend to set the opposite of r's favourite flag.
// Sending the target value keeps a retried request from flipping twice.
func (f *Favourites) Toggle(ctx context.Context, r restaurant.Restaurant) resource.Resource[restaurant.Restaurant] {
	var out restaurant.Restaurant
	in := favouriteRequest{Favourite: !r.IsFavouriteByCurrentUser}
	err := f.c.do(ctx, "favourites.toggle", http.MethodPost, "/restaurants/"+strconv.Itoa(r.ID)+"/favourite", in, &out)
	return resource.Of(out, err)
}

// Reviews implements review.Repository.
type Reviews struct{ c *Client }

type idResponse struct {
	ID string `json:"id"`
}

func (r *Reviews) list(ctx context.Context, op string, q url.Values) resource.Resource[[]review.Review] {
	path := "/reviews"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []review.Review
	err := r.c.do(ctx, op, http.MethodGet, path, nil, &out)
	if out == nil {
		out = []review.Review{}
	}
	return resource.Of(out, err)
}

func (r *Reviews) GetAll(ctx context.Context) resource.Resource[[]review.Review] {
	return r.list(ctx, "reviews.list", nil)
}

func (r *Reviews) GetByUser(ctx context.Context, userID int) resource.Resource[[]review.Review] {
	return r.list(ctx, "reviews.by_user", url.Values{"user": {strconv.Itoa(userID)}})
}

func (r *Reviews) GetByRestaurant(ctx context.Context, restaurantID int) resource.Resource[[]review.Review] {
	return r.list(ctx, "reviews.by_restaurant", url.Values{"restaurant": {strconv.Itoa(restaurantID)}})
}

func (r *Reviews) Create(ctx context.Context, d review.Draft) resource.Resource[string] {
	var out idResponse
	err := r.c.do(ctx, "reviews.create", http.MethodPost, "/reviews", d, &out)
	return resource.Of(out.ID, err)
}

func (r *Reviews) Update(ctx context.Context, id string, p review.Patch) resource.Resource[review.Review] {
	var out review.Review
	err := r.c.do(ctx, "reviews.update", http.MethodPut, "/reviews/"+url.PathEscape(id), p, &out)
	return resource.Of(out, err)
}

func (r *Reviews) Delete(ctx context.Context, id string) resource.Resource[string] {
	var out idResponse
	err := r.c.do(ctx, "reviews.delete", http.MethodDelete, "/reviews/"+url.PathEscape(id), nil, &out)
	if err == nil && out.ID == "" {
		out.ID = id
	}
	return resource.Of(out.ID, err)
}

// Users implements user.Repository. Login stores the issued token in the
// client's TokenStore and Logout clears it.
type Users struct{ c *Client }

type messageResponse struct {
	Message string `json:"message"`
}

// LoginResponse is the body returned by POST /auth/login.
type LoginResponse struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

func (u *Users) Register(ctx context.Context, r user.Registration) resource.Resource[string] {
	var out messageResponse
	err := u.c.do(ctx, "users.register", http.MethodPost, "/auth/register", r, &out)
	return resource.Of(out.Message, err)
}

func (u *Users) Login(ctx context.Context, cred user.Credentials) resource.Resource[user.User] {
	var out LoginResponse
	if err := u.c.do(ctx, "users.login", http.MethodPost, "/auth/login", cred, &out); err != nil {
		return resource.FromError[user.User](err)
	}
	u.c.tokens.SetToken(out.Token)
	return resource.NewSuccess(out.User)
}

// Logout forgets the token. Tokens are stateless on the backend, so no
// request is made.
func (u *Users) Logout(ctx context.Context) resource.Resource[string] {
	if err := ctx.Err(); err != nil {
		return resource.FromError[string](err)
	}
	u.c.tokens.SetToken("")
	return resource.NewSuccess("Logged out")
}

func (u *Users) Current(ctx context.Context) resource.Resource[user.User] {
	var out user.User
	err := u.c.do(ctx, "users.current", http.MethodGet, "/users/me", nil, &out)
	return resource.Of(out, err)
}

func (u *Users) UpdateProfile(ctx context.Context, p user.Profile) resource.Resource[user.User] {
	var out user.User
	err := u.c.do(ctx, "users.update", http.MethodPut, "/users/me", p, &out)
	return resource.Of(out, err)
}

type resetRequest struct {
	Email string `json:"email"`
}

func (u *Users) ResetPassword(ctx context.Context, email string) resource.Resource[string] {
	var out messageResponse
	err := u.c.do(ctx, "users.reset_password", http.MethodPost, "/auth/reset-password", resetRequest{Email: email}, &out)
	return resource.Of(out.Message, err)
}
