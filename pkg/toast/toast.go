package toast

// EventName is the event name emitted for toasts.
const EventName = "foodit:toast"

// Type represents the toast notification type.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Toast is a single transient notification.
type Toast struct {
	Level       Type   `json:"level"`
	Title       string `json:"title,omitempty"`
	Message     string `json:"message"`
	ActionLabel string `json:"actionLabel,omitempty"`
	ActionID    string `json:"actionID,omitempty"`
}

// Emitter delivers named events to a client.
type Emitter interface {
	Emit(name string, data any)
}

// Success returns a success toast.
func Success(message string) Toast {
	return Toast{Level: TypeSuccess, Message: message}
}

// Error returns an error toast.
//
//	toast.Error("Failed to load restaurants")
func Error(message string) Toast {
	return Toast{Level: TypeError, Message: message}
}

// Warning returns a warning toast.
func Warning(message string) Toast {
	return Toast{Level: TypeWarning, Message: message}
}

// Info returns an info toast.
func Info(message string) Toast {
	return Toast{Level: TypeInfo, Message: message}
}

// WithTitle returns a toast with a title and message.
//
//	toast.WithTitle(toast.TypeSuccess, "Profile", "Your changes have been saved.")
func WithTitle(level Type, title, message string) Toast {
	return Toast{Level: level, Title: title, Message: message}
}

// WithAction returns a toast with an action button.
//
//	toast.WithAction(toast.TypeInfo, "Review deleted", "Dismiss", "dismiss")
func WithAction(level Type, message, actionLabel, actionID string) Toast {
	return Toast{Level: level, Message: message, ActionLabel: actionLabel, ActionID: actionID}
}

// Payload returns the event payload for t.
//
// The client receives:
//   - event.type = "foodit:toast"
//   - event.detail = { level: "success|error|warning|info", message: "..." }
func (t Toast) Payload() map[string]any {
	data := map[string]any{
		"level":   string(t.Level),
		"message": t.Message,
	}
	if t.Title != "" {
		data["title"] = t.Title
	}
	if t.ActionLabel != "" {
		data["actionLabel"] = t.ActionLabel
		data["actionID"] = t.ActionID
	}
	return data
}

// Show emits t to e.
func Show(e Emitter, t Toast) {
	e.Emit(EventName, t.Payload())
}
