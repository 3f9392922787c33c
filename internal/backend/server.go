// Package backend is the reference REST API the FoodIt client talks to.
//
// Accounts use bcrypt password hashes and HS256 bearer tokens. Restaurant
// ratings are computed from stored reviews on every read. Errors are
// written as coded JSON bodies that the client shows to the user.
package backend

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/foodit-dev/foodit/internal/backend/storage"
	"github.com/foodit-dev/foodit/internal/errors"
	"github.com/foodit-dev/foodit/internal/form"
	"github.com/foodit-dev/foodit/internal/metrics"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// Server serves the backend API.
type Server struct {
	store   storage.Store
	tokens  *Tokens
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records request metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithClock sets the time source for review timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a server over store.
func New(store storage.Store, tokens *Tokens, opts ...Option) *Server {
	s := &Server{
		store:  store,
		tokens: tokens,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(s.authenticate)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)
		r.Post("/reset-password", s.resetPassword)
	})

	r.Route("/users/me", func(r chi.Router) {
		r.Use(s.requireUser)
		r.Get("/", s.currentUser)
		r.Put("/", s.updateProfile)
	})

	r.Route("/restaurants", func(r chi.Router) {
		r.Get("/", s.listRestaurants)
		r.Get("/{id}", s.getRestaurant)
		r.With(s.requireUser).Post("/{id}/favourite", s.toggleFavourite)
	})

	r.Route("/reviews", func(r chi.Router) {
		r.Get("/", s.listReviews)
		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Post("/", s.createReview)
			r.Put("/{id}", s.updateReview)
			r.Delete("/{id}", s.deleteReview)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errors.New("E303").WithDetailf("no route for %s", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		fe := errors.New("E501").WithDetailf("%s is not allowed here", r.Method)
		fe.Status = http.StatusMethodNotAllowed
		s.writeError(w, r, fe)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with err's coded body. Storage sentinels map to
// E303 and E304; anything uncoded becomes E301.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *errors.FooditError
	switch {
	case stderrors.As(err, &fe):
	case stderrors.Is(err, storage.ErrNotFound):
		fe = errors.New("E303").Wrap(err)
	case stderrors.Is(err, storage.ErrAlreadyExists):
		fe = errors.New("E304").Wrap(err)
	default:
		fe = errors.New("E301").Wrap(err)
	}

	status := fe.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", fe.Code,
			"error", err,
		)
	}
	writeJSON(w, status, fe.Body())
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("E501").WithDetail("body is not valid JSON for this request").Wrap(err)
	}
	return nil
}

// invalid turns field errors into an E502 whose detail lists every
// message in field order.
func invalid(errs form.Errors) error {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = errs[f]
	}
	return errors.New("E502").WithDetail(strings.Join(msgs, "; "))
}
