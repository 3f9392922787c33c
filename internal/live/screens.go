package live

import (
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/foodit-dev/foodit/internal/domain/restaurant"
	"github.com/foodit-dev/foodit/internal/domain/review"
	"github.com/foodit-dev/foodit/internal/domain/user"
	"github.com/foodit-dev/foodit/internal/errors"
	"github.com/foodit-dev/foodit/internal/viewmodel/createreview"
	"github.com/foodit-dev/foodit/internal/viewmodel/detail"
	"github.com/foodit-dev/foodit/internal/viewmodel/editprofile"
	"github.com/foodit-dev/foodit/internal/viewmodel/home"
	"github.com/foodit-dev/foodit/internal/viewmodel/login"
	"github.com/foodit-dev/foodit/internal/viewmodel/profile"
	"github.com/foodit-dev/foodit/internal/viewmodel/register"
	"github.com/foodit-dev/foodit/internal/viewmodel/search"
	"github.com/foodit-dev/foodit/pkg/store"
)

// Repositories are the data sources of one session.
type Repositories struct {
	Restaurants restaurant.Repository
	Favourites  restaurant.FavouritesRepository
	Reviews     review.Repository
	Users       user.Repository
}

// Env is what a screen factory gets from its session.
type Env struct {
	Repos  Repositories
	Images register.Uploader
	// UserID is the signed-in user, 0 when anonymous.
	UserID int
	// SetUser records a login or logout seen by a screen.
	SetUser func(id int)
	Logger  *slog.Logger
	// Options carry the session context, logger, toast queue and metrics.
	Options []store.Option
}

// Screen is a view-model exposed over the wire.
type Screen interface {
	// Subscribe calls fn with every state snapshot, encoded.
	Subscribe(fn func(state json.RawMessage)) (unsubscribe func())
	// Handle applies an intent.
	Handle(intent string, args json.RawMessage) error
	Close()
}

// Factory builds a screen from its open arguments.
type Factory func(env Env, args json.RawMessage) (Screen, error)

type intentFunc func(args json.RawMessage) error

type adapter[S, E any] struct {
	store   *store.Store[S, E]
	close   func()
	intents map[string]intentFunc
	onState func(S)
}

func (a *adapter[S, E]) Subscribe(fn func(json.RawMessage)) func() {
	return a.store.Subscribe(func(s S) {
		if a.onState != nil {
			a.onState(s)
		}
		data, err := json.Marshal(s)
		if err != nil {
			return
		}
		fn(data)
	})
}

func (a *adapter[S, E]) Handle(intent string, args json.RawMessage) error {
	h, ok := a.intents[intent]
	if !ok {
		return errors.New("E206").WithDetailf("%q is not an intent of this screen", intent)
	}
	return h(args)
}

func (a *adapter[S, E]) Close() { a.close() }

// bind decodes args into T before calling fn.
func bind[T any](fn func(T) error) intentFunc {
	return func(args json.RawMessage) error {
		var v T
		if len(args) > 0 {
			if err := json.Unmarshal(args, &v); err != nil {
				return errors.New("E204").WithDetailf("bad intent arguments: %v", err)
			}
		}
		return fn(v)
	}
}

func noArgs(fn func() error) intentFunc {
	return func(json.RawMessage) error { return fn() }
}

type idArgs struct {
	ID int `json:"id"`
}

type restaurantArgs struct {
	RestaurantID int `json:"restaurantId"`
}

type fieldArgs struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// imageArgs carries a picked picture; data is base64 in JSON.
type imageArgs struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

func (a imageArgs) image() *register.Image {
	if len(a.Data) == 0 {
		return nil
	}
	return &register.Image{Name: a.Name, ContentType: a.ContentType, Data: a.Data}
}

func requireRestaurant(args json.RawMessage) (int, error) {
	var a restaurantArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return 0, errors.New("E204").WithDetailf("bad open arguments: %v", err)
		}
	}
	if a.RestaurantID <= 0 {
		return 0, errors.New("E204").WithDetail("restaurantId is required to open this screen")
	}
	return a.RestaurantID, nil
}

// Screens returns the factories of every screen by name.
func Screens() map[string]Factory {
	return map[string]Factory{
		"home":         openHome,
		"detail":       openDetail,
		"search":       openSearch,
		"createReview": openCreateReview,
		"register":     openRegister,
		"login":        openLogin,
		"profile":      openProfile,
		"editProfile":  openEditProfile,
	}
}

// ScreenNames lists the screen names in order.
func ScreenNames() []string {
	names := make([]string, 0, len(Screens()))
	for n := range Screens() {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func openHome(env Env, _ json.RawMessage) (Screen, error) {
	vm := home.New(home.Deps{
		Restaurants: env.Repos.Restaurants,
		Favourites:  env.Repos.Favourites,
		Logger:      env.Logger,
	}, env.Options...)
	return &adapter[home.State, home.Event]{
		store: vm.Store(),
		close: vm.Close,
		intents: map[string]intentFunc{
			"refresh":         noArgs(vm.Refresh),
			"toggleFavourite": bind(func(a idArgs) error { return vm.ToggleFavourite(a.ID) }),
		},
	}, nil
}

func openDetail(env Env, args json.RawMessage) (Screen, error) {
	id, err := requireRestaurant(args)
	if err != nil {
		return nil, err
	}
	vm := detail.New(detail.Deps{
		Restaurants: env.Repos.Restaurants,
		Favourites:  env.Repos.Favourites,
		Reviews:     env.Repos.Reviews,
		Logger:      env.Logger,
	}, id, env.Options...)
	return &adapter[detail.State, detail.Event]{
		store: vm.Store(),
		close: vm.Close,
		intents: map[string]intentFunc{
			"refresh":         noArgs(vm.Refresh),
			"toggleFavourite": noArgs(vm.ToggleFavourite),
		},
	}, nil
}

func openSearch(env Env, _ json.RawMessage) (Screen, error) {
	vm := search.New(search.Deps{Restaurants: env.Repos.Restaurants, Logger: env.Logger}, env.Options...)
	return &adapter[search.State, search.Event]{
		store: vm.Store(),
		close: vm.Close,
		intents: map[string]intentFunc{
			"setQuery": bind(func(a struct {
				Query string `json:"query"`
			}) error {
				return vm.SetQuery(a.Query)
			}),
			"reload": noArgs(vm.Reload),
		},
	}, nil
}

func openCreateReview(env Env, args json.RawMessage) (Screen, error) {
	id, err := requireRestaurant(args)
	if err != nil {
		return nil, err
	}
	vm := createreview.New(createreview.Deps{Reviews: env.Repos.Reviews, Logger: env.Logger}, id, env.UserID, env.Options...)
	return &adapter[createreview.State, createreview.Event]{
		store: vm.Store(),
		close: vm.Close,
		intents: map[string]intentFunc{
			"setReview": bind(func(a struct {
				Text string `json:"text"`
			}) error {
				return vm.SetReview(a.Text)
			}),
			"setRating": bind(func(a struct {
				Rating int `json:"rating"`
			}) error {
				return vm.SetRating(a.Rating)
			}),
			"submit": noArgs(vm.Submit),
		},
	}, nil
}

func openRegister(env Env, _ json.RawMessage) (Screen, error) {
	vm := register.New(register.Deps{Users: env.Repos.Users, Images: env.Images, Logger: env.Logger}, env.Options...)
	return &adapter[register.State, register.Event]{
		store: vm.Store(),
		close: vm.Close,
		intents: map[string]intentFunc{
			"set": bind(func(a fieldArgs) error {
				return vm.Set(register.Field(a.Field), a.Value)
			}),
			"selectImage": bind(func(a imageArgs) error { return vm.SelectImage(a.image()) }),
			"submit":      noArgs(vm.Submit),
		},
	}, nil
}

func openLogin(env Env, _ json.RawMessage) (Screen, error) {
	vm := login.New(login.Deps{Users: env.Repos.Users, Logger: env.Logger}, env.Options...)
	return &adapter[login.State, login.Event]{
		store: vm.Store(),
		close: vm.Close,
		intents: map[string]intentFunc{
			"setEmail": bind(func(a struct {
				Email string `json:"email"`
			}) error {
				return vm.SetEmail(a.Email)
			}),
			"setPassword": bind(func(a struct {
				Password string `json:"password"`
			}) error {
				return vm.SetPassword(a.Password)
			}),
			"submit":         noArgs(vm.Submit),
			"forgotPassword": noArgs(vm.ForgotPassword),
		},
		onState: func(s login.State) {
			if s.IsLoggedIn && s.User != nil && env.SetUser != nil {
				env.SetUser(s.User.ID)
			}
		},
	}, nil
}

func openProfile(env Env, _ json.RawMessage) (Screen, error) {
	vm := profile.New(profile.Deps{Users: env.Repos.Users, Reviews: env.Repos.Reviews, Logger: env.Logger}, env.Options...)
	return &adapter[profile.State, profile.Event]{
		store: vm.Store(),
		close: vm.Close,
		intents: map[string]intentFunc{
			"refresh": noArgs(vm.Refresh),
			"deleteReview": bind(func(a struct {
				ID string `json:"id"`
			}) error {
				return vm.DeleteReview(a.ID)
			}),
			"logout": noArgs(vm.Logout),
		},
		onState: func(s profile.State) {
			if s.IsLoggedOut && env.SetUser != nil {
				env.SetUser(0)
			}
		},
	}, nil
}

func openEditProfile(env Env, _ json.RawMessage) (Screen, error) {
	vm := editprofile.New(editprofile.Deps{Users: env.Repos.Users, Images: env.Images, Logger: env.Logger}, env.Options...)
	return &adapter[editprofile.State, editprofile.Event]{
		store: vm.Store(),
		close: vm.Close,
		intents: map[string]intentFunc{
			"set": bind(func(a fieldArgs) error {
				return vm.Set(editprofile.Field(a.Field), a.Value)
			}),
			"selectImage": bind(func(a imageArgs) error { return vm.SelectImage(a.image()) }),
			"save":        noArgs(vm.Save),
		},
	}, nil
}

