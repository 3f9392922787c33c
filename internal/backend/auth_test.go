package backend

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/foodit-dev/foodit/internal/domain/user"
	"github.com/foodit-dev/foodit/internal/errors"
)

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens([]byte("secret"), time.Hour)

	raw, err := tokens.Issue(user.User{ID: 42, Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	id, err := tokens.Verify(raw)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}
}

func TestTokensRejects(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	tokens := NewTokens([]byte("secret"), time.Hour)
	tokens.now = func() time.Time { return now }

	raw, err := tokens.Issue(user.User{ID: 1})
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	tests := []struct {
		name     string
		verifier *Tokens
		raw      string
		code     string
	}{
		{
			name:     "expired",
			verifier: &Tokens{secret: []byte("secret"), ttl: time.Hour, now: func() time.Time { return now.Add(2 * time.Hour) }},
			raw:      raw,
			code:     "E403",
		},
		{
			name:     "wrong secret",
			verifier: &Tokens{secret: []byte("other"), ttl: time.Hour, now: func() time.Time { return now }},
			raw:      raw,
			code:     "E401",
		},
		{
			name:     "garbage",
			verifier: tokens,
			raw:      "not-a-token",
			code:     "E401",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verifier.Verify(tt.raw)
			var fe *errors.FooditError
			if !stderrors.As(err, &fe) {
				t.Fatalf("Verify() error = %v, want FooditError", err)
			}
			if fe.Code != tt.code {
				t.Errorf("code = %s, want %s", fe.Code, tt.code)
			}
		})
	}
}
