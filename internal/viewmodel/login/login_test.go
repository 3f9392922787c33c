package login

import (
	"context"
	"testing"
	"time"

	"github.com/foodit-dev/foodit/internal/domain/domaintest"
	"github.com/foodit-dev/foodit/internal/domain/user"
	"github.com/foodit-dev/foodit/pkg/store"
	"github.com/foodit-dev/foodit/pkg/toast"
)

func newUsers() *domaintest.Users {
	return &domaintest.Users{
		Me:       user.User{ID: 4, FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"},
		Password: "cobol1959",
	}
}

func within(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestLoginSuccess(t *testing.T) {
	users := newUsers()
	vm := New(Deps{Users: users})
	defer vm.Close()

	_ = vm.SetEmail("grace@example.com")
	_ = vm.SetPassword("cobol1959")
	_ = vm.Submit()

	st, err := store.WaitFor(within(t), vm.Store(), func(s State) bool { return s.IsLoggedIn })
	if err != nil {
		t.Fatalf("WaitFor() error = %v, state = %+v", err, vm.State())
	}
	if st.User == nil || st.User.ID != 4 {
		t.Errorf("User = %+v", st.User)
	}
	if st.Password != "" {
		t.Error("password should be cleared after login")
	}
	if !users.LoggedIn {
		t.Error("repository not logged in")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	vm := New(Deps{Users: newUsers()})
	defer vm.Close()

	_ = vm.SetEmail("grace@example.com")
	_ = vm.SetPassword("fortran")
	_ = vm.Submit()

	tt, err := vm.Store().Toasts().Next(within(t))
	if err != nil {
		t.Fatal(err)
	}
	if tt.Message != "Invalid email or password" {
		t.Errorf("toast = %q", tt.Message)
	}
	if st := vm.State(); st.IsLoggedIn || st.IsLoading {
		t.Errorf("state = %+v", st)
	}
}

func TestSubmitValidates(t *testing.T) {
	reduce := Reducer(Deps{})
	u := reduce(State{Email: "grace"}, submit{})
	if len(u.Effects) != 0 {
		t.Fatal("invalid form must not start a request")
	}
	if u.State.EmailError != "Please enter a valid email" || u.State.PasswordError != "Password is required" {
		t.Errorf("state = %+v", u.State)
	}
}

func TestForgotPassword(t *testing.T) {
	vm := New(Deps{Users: newUsers()})
	defer vm.Close()

	_ = vm.ForgotPassword()
	st, err := store.WaitFor(within(t), vm.Store(), func(s State) bool { return s.EmailError != "" })
	if err != nil {
		t.Fatal(err)
	}
	if st.EmailError != "Enter your email to reset your password" {
		t.Errorf("EmailError = %q", st.EmailError)
	}

	_ = vm.SetEmail("grace@example.com")
	_ = vm.ForgotPassword()
	if _, err := store.WaitFor(within(t), vm.Store(), func(s State) bool { return s.IsResetSent }); err != nil {
		t.Fatal(err)
	}
	tt, err := vm.Store().Toasts().Next(within(t))
	if err != nil || tt.Level != toast.TypeInfo {
		t.Errorf("toast = %+v, err = %v", tt, err)
	}
}
