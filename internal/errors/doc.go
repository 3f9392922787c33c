// Package errors provides coded, categorised errors for FoodIt.
//
// Each error has a unique code that maps to a category, a short message
// that is safe to show to users and the HTTP status the backend answers
// with:
//
//   - E1xx config: unreadable files, invalid values, bad env overrides
//   - E2xx transport: unreachable backend, timeouts, bad live frames
//   - E3xx storage: database and image storage failures
//   - E4xx auth: missing or expired sessions, wrong credentials
//   - E5xx validation: malformed or invalid input
//
// # Usage
//
//	err := errors.New("E402").WithSuggestion("Use the reset link if you forgot your password")
//	fmt.Println(err.Format())
//
// FooditError implements UserMessage, so resource.FromError turns it into
// a failure carrying the user-facing message rather than the code.
package errors
