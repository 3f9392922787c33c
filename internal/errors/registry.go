package errors

import "net/http"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	Status   int
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E100-E199)
	// ============================================

	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be parsed. foodit.json must be valid JSON and foodit.yaml valid YAML.",
		Status:   http.StatusInternalServerError,
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Status:   http.StatusInternalServerError,
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "A FOODIT_* environment variable could not be parsed into its setting.",
		Status:   http.StatusInternalServerError,
	},

	// ============================================
	// Transport Errors (E200-E299)
	// ============================================

	"E201": {
		Category: CategoryTransport,
		Message:  "Unable to reach FoodIt. Check your connection and try again.",
		Status:   http.StatusBadGateway,
	},
	"E202": {
		Category: CategoryTransport,
		Message:  "Unexpected response from server",
		Status:   http.StatusBadGateway,
	},
	"E203": {
		Category: CategoryTransport,
		Message:  "The request timed out. Please try again.",
		Status:   http.StatusGatewayTimeout,
	},
	"E204": {
		Category: CategoryTransport,
		Message:  "Invalid live message",
		Detail:   "Live frames must be JSON objects with a screen and an intent.",
		Status:   http.StatusBadRequest,
	},
	"E205": {
		Category: CategoryTransport,
		Message:  "Unknown screen",
		Status:   http.StatusNotFound,
	},
	"E206": {
		Category: CategoryTransport,
		Message:  "Unknown intent",
		Status:   http.StatusBadRequest,
	},
	"E207": {
		Category: CategoryTransport,
		Message:  "Server is busy, please retry",
		Detail:   "The screen's event queue is full.",
		Status:   http.StatusServiceUnavailable,
	},

	// ============================================
	// Storage Errors (E300-E399)
	// ============================================

	"E301": {
		Category: CategoryStorage,
		Message:  "Database unavailable",
		Status:   http.StatusInternalServerError,
	},
	"E302": {
		Category: CategoryStorage,
		Message:  "Database migration failed",
		Status:   http.StatusInternalServerError,
	},
	"E303": {
		Category: CategoryStorage,
		Message:  "Not found",
		Status:   http.StatusNotFound,
	},
	"E304": {
		Category: CategoryStorage,
		Message:  "Record already exists",
		Status:   http.StatusConflict,
	},
	"E305": {
		Category: CategoryStorage,
		Message:  "Could not save image",
		Status:   http.StatusInternalServerError,
	},

	// ============================================
	// Auth Errors (E400-E499)
	// ============================================

	"E401": {
		Category: CategoryAuth,
		Message:  "Please log in to continue",
		Status:   http.StatusUnauthorized,
	},
	"E402": {
		Category: CategoryAuth,
		Message:  "Invalid email or password",
		Status:   http.StatusUnauthorized,
	},
	"E403": {
		Category: CategoryAuth,
		Message:  "Your session has expired. Please log in again.",
		Status:   http.StatusUnauthorized,
	},
	"E404": {
		Category: CategoryAuth,
		Message:  "You are not allowed to do that",
		Status:   http.StatusForbidden,
	},
	"E405": {
		Category: CategoryAuth,
		Message:  "An account with this email already exists",
		Status:   http.StatusConflict,
	},

	// ============================================
	// Validation Errors (E500-E599)
	// ============================================

	"E501": {
		Category: CategoryValidation,
		Message:  "Invalid request",
		Status:   http.StatusBadRequest,
	},
	"E502": {
		Category: CategoryValidation,
		Message:  "Invalid input",
		Status:   http.StatusUnprocessableEntity,
	},
}

// Lookup returns the template for a code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
