// Package sqlite is the SQLite implementation of the backend storage.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/foodit-dev/foodit/internal/backend/storage"
	"github.com/foodit-dev/foodit/internal/backend/storage/sqlite/migrations"
	"github.com/foodit-dev/foodit/internal/domain/restaurant"
	"github.com/foodit-dev/foodit/internal/domain/review"
	"github.com/foodit-dev/foodit/internal/domain/user"
)

var _ storage.Store = (*Store)(nil)

// Store persists backend state in SQLite.
type Store struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens the database at path and applies the embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var serr *msqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// Users

func (s *Store) CreateUser(ctx context.Context, r user.Registration, passwordHash string) (user.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (first_name, last_name, email, password_hash, image_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.FirstName, r.LastName, strings.TrimSpace(r.Email), passwordHash, r.ImageURL, toMillis(time.Now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, storage.ErrAlreadyExists
		}
		return user.User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}
	return user.User{
		ID:        int(id),
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     strings.TrimSpace(r.Email),
		ImageURL:  r.ImageURL,
	}, nil
}

const userColumns = `id, first_name, last_name, email, image_url`

func scanUser(row interface{ Scan(...any) error }, extra ...any) (user.User, error) {
	var u user.User
	dest := append([]any{&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.ImageURL}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, storage.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (storage.UserRecord, error) {
	var rec storage.UserRecord
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`, password_hash FROM users WHERE email = ?`, strings.TrimSpace(email))
	u, err := scanUser(row, &rec.PasswordHash)
	if err != nil {
		return storage.UserRecord{}, err
	}
	rec.User = u
	return rec, nil
}

func (s *Store) UserByID(ctx context.Context, id int) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// UpdateUser replaces the names and email. An empty ImageURL keeps the
// current picture.
func (s *Store) UpdateUser(ctx context.Context, id int, p user.Profile) (user.User, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users
		    SET first_name = ?, last_name = ?, email = ?,
		        image_url = CASE WHEN ? = '' THEN image_url ELSE ? END
		  WHERE id = ?`,
		p.FirstName, p.LastName, strings.TrimSpace(p.Email), p.ImageURL, p.ImageURL, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, storage.ErrAlreadyExists
		}
		return user.User{}, fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, storage.ErrNotFound
	}
	return s.UserByID(ctx, id)
}

// Restaurants

const restaurantQuery = `
SELECT r.id, r.name, r.description, r.location, r.cuisine, r.image_url,
       ROUND(COALESCE(AVG(v.rating), 0.0), 1), COUNT(v.id),
       EXISTS (SELECT 1 FROM favourites f WHERE f.restaurant_id = r.id AND f.user_id = ?)
  FROM restaurants r
  LEFT JOIN reviews v ON v.restaurant_id = r.id`

func scanRestaurant(row interface{ Scan(...any) error }) (restaurant.Restaurant, error) {
	var r restaurant.Restaurant
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Location, &r.Cuisine, &r.ImageURL,
		&r.AverageRating, &r.ReviewCount, &r.IsFavouriteByCurrentUser)
	return r, err
}

func (s *Store) Restaurants(ctx context.Context, viewerID int) ([]restaurant.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx, restaurantQuery+` GROUP BY r.id ORDER BY r.id`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	out := []restaurant.Restaurant{}
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Restaurant(ctx context.Context, id, viewerID int) (restaurant.Restaurant, error) {
	row := s.db.QueryRowContext(ctx, restaurantQuery+` WHERE r.id = ? GROUP BY r.id`, viewerID, id)
	r, err := scanRestaurant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return restaurant.Restaurant{}, storage.ErrNotFound
	}
	return r, err
}

func (s *Store) SetFavourite(ctx context.Context, userID, restaurantID int, favourite bool) error {
	var err error
	if favourite {
		_, err = s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO favourites (user_id, restaurant_id, created_at) VALUES (?, ?, ?)`,
			userID, restaurantID, toMillis(time.Now()))
	} else {
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM favourites WHERE user_id = ? AND restaurant_id = ?`, userID, restaurantID)
	}
	if err != nil {
		return fmt.Errorf("set favourite: %w", err)
	}
	return nil
}

func (s *Store) CreateRestaurant(ctx context.Context, r restaurant.Restaurant) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO restaurants (name, description, location, cuisine, image_url) VALUES (?, ?, ?, ?, ?)`,
		r.Name, r.Description, r.Location, r.Cuisine, r.ImageURL)
	if err != nil {
		return 0, fmt.Errorf("create restaurant: %w", err)
	}
	id, err := res.LastInsertId()
	return int(id), err
}

// Reviews

const reviewQuery = `
SELECT v.id, v.user_id, v.restaurant_id, v.review, v.rating, v.created_at, v.updated_at,
       TRIM(u.first_name || ' ' || u.last_name), u.image_url, r.name
  FROM reviews v
  JOIN users u ON u.id = v.user_id
  JOIN restaurants r ON r.id = v.restaurant_id`

func scanReview(row interface{ Scan(...any) error }) (review.Review, error) {
	var (
		r                review.Review
		created, updated int64
	)
	err := row.Scan(&r.ID, &r.UserID, &r.RestaurantID, &r.Review, &r.Rating, &created, &updated,
		&r.UserName, &r.UserImageURL, &r.RestaurantName)
	if err != nil {
		return review.Review{}, err
	}
	r.CreatedAt = fromMillis(created)
	r.UpdatedAt = fromMillis(updated)
	return r, nil
}

// Reviews lists reviews newest first.
func (s *Store) Reviews(ctx context.Context, f storage.ReviewFilter) ([]review.Review, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != 0 {
		where = append(where, "v.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.RestaurantID != 0 {
		where = append(where, "v.restaurant_id = ?")
		args = append(args, f.RestaurantID)
	}
	q := reviewQuery
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY v.created_at DESC, v.id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := []review.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Review(ctx context.Context, id string) (review.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx, reviewQuery+` WHERE v.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return review.Review{}, storage.ErrNotFound
	}
	return r, err
}

func (s *Store) CreateReview(ctx context.Context, id string, d review.Draft, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (id, user_id, restaurant_id, review, rating, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, d.UserID, d.RestaurantID, d.Review, d.Rating, toMillis(at), toMillis(at))
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (s *Store) UpdateReview(ctx context.Context, id string, p review.Patch, at time.Time) (review.Review, error) {
	sets := []string{"updated_at = ?"}
	args := []any{toMillis(at)}
	if p.Review != nil {
		sets = append(sets, "review = ?")
		args = append(args, *p.Review)
	}
	if p.Rating != nil {
		sets = append(sets, "rating = ?")
		args = append(args, *p.Rating)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE reviews SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return review.Review{}, fmt.Errorf("update review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return review.Review{}, storage.ErrNotFound
	}
	return s.Review(ctx, id)
}

func (s *Store) DeleteReview(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
