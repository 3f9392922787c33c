package form

// Errors collects per-field messages for one form submission.
type Errors map[string]string

// Check runs validators against value and records the first failure under
// field. It returns the message, or "" when the value is valid.
func (e Errors) Check(field string, value any, validators ...Validator) string {
	msg := Check(value, validators...)
	if msg != "" {
		e[field] = msg
	}
	return msg
}

// Valid reports whether no field failed.
func (e Errors) Valid() bool {
	return len(e) == 0
}
