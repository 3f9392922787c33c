// Package user defines the signed-in user and the account repository.
package user

import (
	"context"

	"github.com/foodit-dev/foodit/pkg/resource"
)

// User is a FoodIt account.
type User struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// FullName returns "First Last".
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Registration is the data needed to create an account.
type Registration struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// Credentials identify a user at login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile is the editable part of a user.
type Profile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// Repository manages the current user's account.
type Repository interface {
	// Register returns a confirmation message.
	Register(ctx context.Context, r Registration) resource.Resource[string]
	Login(ctx context.Context, c Credentials) resource.Resource[User]
	Logout(ctx context.Context) resource.Resource[string]
	Current(ctx context.Context) resource.Resource[User]
	UpdateProfile(ctx context.Context, p Profile) resource.Resource[User]
	// ResetPassword requests a reset link for email.
	ResetPassword(ctx context.Context, email string) resource.Resource[string]
}
