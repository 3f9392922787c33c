package backend

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/foodit-dev/foodit/internal/backend/storage"
	"github.com/foodit-dev/foodit/internal/domain/review"
	"github.com/foodit-dev/foodit/internal/domain/user"
	"github.com/foodit-dev/foodit/internal/errors"
	"github.com/foodit-dev/foodit/internal/form"
)

const (
	minPasswordLength = 8
	maxReviewLength   = 1000
	registeredMessage = "Successfully created account!"
)

type messageBody struct {
	Message string `json:"message"`
}

type idBody struct {
	ID string `json:"id"`
}

type loginBody struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

func validateProfile(errs form.Errors, first, last, email string) {
	errs.Check("firstName", first, form.Required("First name is required"), form.MaxLength(100, ""))
	errs.Check("lastName", last, form.Required("Last name is required"), form.MaxLength(100, ""))
	errs.Check("email", email, form.Required("Email is required"), form.Email(""))
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in user.Registration
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	errs := form.Errors{}
	validateProfile(errs, in.FirstName, in.LastName, in.Email)
	errs.Check("password", in.Password,
		form.Required("Password is required"),
		form.MinLength(minPasswordLength, ""),
	)
	if !errs.Valid() {
		s.writeError(w, r, invalid(errs))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.store.CreateUser(r.Context(), in, string(hash))
	if stderrors.Is(err, storage.ErrAlreadyExists) {
		s.writeError(w, r, errors.New("E405"))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("user registered", "user_id", u.ID)
	writeJSON(w, http.StatusCreated, messageBody{Message: registeredMessage})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in user.Credentials
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.store.UserByEmail(r.Context(), in.Email)
	if stderrors.Is(err, storage.ErrNotFound) {
		s.writeError(w, r, errors.New("E402"))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(in.Password)) != nil {
		s.writeError(w, r, errors.New("E402"))
		return
	}

	token, err := s.tokens.Issue(rec.User)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginBody{Token: token, User: rec.User})
}

// resetPassword answers the same way whether or not the account exists.
func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	errs := form.Errors{}
	errs.Check("email", in.Email, form.Required("Email is required"), form.Email(""))
	if !errs.Valid() {
		s.writeError(w, r, invalid(errs))
		return
	}

	if rec, err := s.store.UserByEmail(r.Context(), in.Email); err == nil {
		s.logger.Info("password reset requested", "user_id", rec.ID)
	}
	writeJSON(w, http.StatusOK, messageBody{
		Message: "If an account exists for " + strings.TrimSpace(in.Email) + ", a reset link is on its way",
	})
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	id, _ := UserID(r.Context())
	u, err := s.store.UserByID(r.Context(), id)
	if stderrors.Is(err, storage.ErrNotFound) {
		s.writeError(w, r, errors.New("E401").Wrap(err))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := UserID(r.Context())
	var in user.Profile
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	errs := form.Errors{}
	validateProfile(errs, in.FirstName, in.LastName, in.Email)
	if !errs.Valid() {
		s.writeError(w, r, invalid(errs))
		return
	}

	u, err := s.store.UpdateUser(r.Context(), id, in)
	if stderrors.Is(err, storage.ErrAlreadyExists) {
		s.writeError(w, r, errors.New("E405"))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func intParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n <= 0 {
		return 0, errors.New("E501").WithDetailf("%s must be a positive integer", name)
	}
	return n, nil
}

func (s *Server) listRestaurants(w http.ResponseWriter, r *http.Request) {
	viewer, _ := UserID(r.Context())
	list, err := s.store.Restaurants(r.Context(), viewer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	viewer, _ := UserID(r.Context())
	rest, err := s.store.Restaurant(r.Context(), id, viewer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rest)
}

// toggleFavourite sets the flag named in the body, or flips the current
// one when the body is empty.
func (s *Server) toggleFavourite(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	viewer, _ := UserID(r.Context())
	ctx := r.Context()

	current, err := s.store.Restaurant(ctx, id, viewer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var in struct {
		Favourite *bool `json:"favourite"`
	}
	if err := decode(w, r, &in); err != nil && !stderrors.Is(err, io.EOF) {
		s.writeError(w, r, err)
		return
	}
	target := !current.IsFavouriteByCurrentUser
	if in.Favourite != nil {
		target = *in.Favourite
	}

	if err := s.store.SetFavourite(ctx, viewer, id, target); err != nil {
		s.writeError(w, r, err)
		return
	}
	current.IsFavouriteByCurrentUser = target
	writeJSON(w, http.StatusOK, current)
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, errors.New("E501").WithDetailf("%s must be a positive integer", name)
	}
	return n, nil
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	var f storage.ReviewFilter
	var err error
	if f.UserID, err = queryInt(r, "user"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.RestaurantID, err = queryInt(r, "restaurant"); err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.store.Reviews(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func validateReview(errs form.Errors, text string, rating int) {
	errs.Check("review", strings.TrimSpace(text),
		form.Required("Please write a review"),
		form.MaxLength(maxReviewLength, ""),
	)
	errs.Check("rating", rating, form.Between(review.MinRating, review.MaxRating, "Please pick a rating from 1 to 5"))
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	var in review.Draft
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.UserID, _ = UserID(r.Context())

	errs := form.Errors{}
	validateReview(errs, in.Review, in.Rating)
	if !errs.Valid() {
		s.writeError(w, r, invalid(errs))
		return
	}
	if _, err := s.store.Restaurant(r.Context(), in.RestaurantID, 0); err != nil {
		s.writeError(w, r, err)
		return
	}

	id := s.newID()
	if err := s.store.CreateReview(r.Context(), id, in, s.now()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idBody{ID: id})
}

// ownReview loads review id and checks the caller wrote it.
func (s *Server) ownReview(r *http.Request) (review.Review, error) {
	id := chi.URLParam(r, "id")
	rev, err := s.store.Review(r.Context(), id)
	if err != nil {
		return review.Review{}, err
	}
	if uid, _ := UserID(r.Context()); rev.UserID != uid {
		return review.Review{}, errors.New("E404").WithDetail("only the author can change a review")
	}
	return rev, nil
}

func (s *Server) updateReview(w http.ResponseWriter, r *http.Request) {
	rev, err := s.ownReview(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in review.Patch
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	text, rating := rev.Review, rev.Rating
	if in.Review != nil {
		text = *in.Review
	}
	if in.Rating != nil {
		rating = *in.Rating
	}
	errs := form.Errors{}
	validateReview(errs, text, rating)
	if !errs.Valid() {
		s.writeError(w, r, invalid(errs))
		return
	}

	updated, err := s.store.UpdateReview(r.Context(), rev.ID, in, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request) {
	rev, err := s.ownReview(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.DeleteReview(r.Context(), rev.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idBody{ID: rev.ID})
}
