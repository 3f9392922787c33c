package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		wantMsg    string
		wantCat    Category
		wantStatus int
	}{
		{"config error", "E101", "Invalid configuration file", CategoryConfig, http.StatusInternalServerError},
		{"transport error", "E203", "The request timed out. Please try again.", CategoryTransport, http.StatusGatewayTimeout},
		{"storage error", "E303", "Not found", CategoryStorage, http.StatusNotFound},
		{"auth error", "E402", "Invalid email or password", CategoryAuth, http.StatusUnauthorized},
		{"validation error", "E502", "Invalid input", CategoryValidation, http.StatusUnprocessableEntity},
		{"unknown error code", "E999", "Unknown error", "", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", err.Status, tt.wantStatus)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestRegistryCodesMatchCategory(t *testing.T) {
	prefixes := map[Category]string{
		CategoryConfig:     "E1",
		CategoryTransport:  "E2",
		CategoryStorage:    "E3",
		CategoryAuth:       "E4",
		CategoryValidation: "E5",
	}
	for code, tmpl := range registry {
		if !strings.HasPrefix(code, prefixes[tmpl.Category]) {
			t.Errorf("%s registered under category %s", code, tmpl.Category)
		}
		if tmpl.Status == 0 {
			t.Errorf("%s has no HTTP status", code)
		}
	}
}

func TestError(t *testing.T) {
	err := New("E402")
	if got, want := err.Error(), "E402: Invalid email or password"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = New("E301").Wrap(fmt.Errorf("disk full"))
	if got, want := err.Error(), "E301: Database unavailable: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &FooditError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q", plain.Error())
	}
}

func TestUserMessage(t *testing.T) {
	if got := New("E402").WithDetail("user 4").UserMessage(); got != "Invalid email or password" {
		t.Errorf("auth UserMessage() = %q", got)
	}
	if got := New("E502").WithDetail("rating must be between 1 and 5").UserMessage(); got != "Invalid input: rating must be between 1 and 5" {
		t.Errorf("validation UserMessage() = %q", got)
	}
}

func TestIsAndAs(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := fmt.Errorf("load restaurants: %w", New("E201").Wrap(cause))

	if !stderrors.Is(err, New("E201")) {
		t.Error("errors.Is should match on code")
	}
	if stderrors.Is(err, New("E202")) {
		t.Error("errors.Is should not match another code")
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}

	var fe *FooditError
	if !stderrors.As(err, &fe) || fe.Code != "E201" {
		t.Errorf("errors.As = %v", fe)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E301") != nil {
		t.Error("FromError(nil) should be nil")
	}

	orig := New("E405")
	if got := FromError(fmt.Errorf("register: %w", orig), "E301"); got != orig {
		t.Errorf("FromError should return the FooditError in the chain, got %v", got)
	}

	got := FromError(fmt.Errorf("boom"), "E301")
	if got.Code != "E301" || got.Wrapped == nil {
		t.Errorf("FromError = %+v", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	if got := HTTPStatus(fmt.Errorf("x: %w", New("E303"))); got != http.StatusNotFound {
		t.Errorf("HTTPStatus = %d", got)
	}
	if got := HTTPStatus(fmt.Errorf("plain")); got != http.StatusInternalServerError {
		t.Errorf("HTTPStatus(plain) = %d", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E102").WithDetail("live.port must be between 1 and 65535").WithSuggestion("Set live.port in foodit.json")
	out := err.Format()
	for _, want := range []string{"ERROR E102: Invalid configuration value", "live.port must be", "Hint: Set live.port"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}

	if got := err.FormatCompact(); got != "E102: Invalid configuration value (live.port must be between 1 and 65535)" {
		t.Errorf("FormatCompact() = %q", got)
	}

	var body Body
	if err := json.Unmarshal([]byte(err.FormatJSON()), &body); err != nil {
		t.Fatalf("FormatJSON() not JSON: %v", err)
	}
	if body.Code != "E102" || body.Category != CategoryConfig {
		t.Errorf("body = %+v", body)
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	PrintError(&buf, fmt.Errorf("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("PrintError() = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 30), 20)
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line too long: %q", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should give no lines")
	}
}
