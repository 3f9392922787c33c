package form

import "testing"

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		value      any
		validators []Validator
		want       string
	}{
		{"required empty", "  ", []Validator{Required("")}, "This field is required"},
		{"required ok", "Ana", []Validator{Required("")}, ""},
		{"min length", "abc", []Validator{Required(""), MinLength(8, "")}, "Must be at least 8 characters"},
		{"min length skips empty", "", []Validator{MinLength(8, "")}, ""},
		{"max length", "abcdef", []Validator{MaxLength(3, "too long")}, "too long"},
		{"email bad", "ana@", []Validator{Email("")}, "Invalid email address"},
		{"email ok", "ana@example.com", []Validator{Required(""), Email("")}, ""},
		{"between low", 0, []Validator{Between(1, 5, "")}, "Must be between 1 and 5"},
		{"between ok", 5, []Validator{Between(1, 5, "")}, ""},
		{"between wrong type", "5", []Validator{Between(1, 5, "x")}, "x"},
		{"equal to", "secret1", []Validator{EqualTo("secret2", "Passwords do not match")}, "Passwords do not match"},
		{"first failure wins", "", []Validator{Required("first"), Email("second")}, "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Check(tt.value, tt.validators...); got != tt.want {
				t.Errorf("Check() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationErrorUserMessage(t *testing.T) {
	err := ValidationError{Field: "email", Message: "Invalid email address"}
	if err.UserMessage() != err.Error() {
		t.Errorf("UserMessage() = %q, Error() = %q", err.UserMessage(), err.Error())
	}
}

func TestErrorsCollectsFirstFailurePerField(t *testing.T) {
	errs := Errors{}
	errs.Check("email", "", Required("Email is required"), Email("Invalid email"))
	errs.Check("name", "Ada", Required("Name is required"))
	errs.Check("password", "abc", MinLength(8, "Too short"))

	if errs.Valid() {
		t.Fatal("Valid() = true, want false")
	}
	if errs["email"] != "Email is required" {
		t.Errorf("email = %q", errs["email"])
	}
	if _, ok := errs["name"]; ok {
		t.Error("name should have no error")
	}
	if errs["password"] != "Too short" {
		t.Errorf("password = %q", errs["password"])
	}
}
