package resource

import "errors"

// DefaultMessage is used when a failure carries no usable message.
const DefaultMessage = "Something went wrong. Please try again."

// ErrorKind classifies a failed call. Reducers only ever look at the
// message of a Default kind.
type ErrorKind interface {
	kind()
}

// Default is the generic error kind. Message is shown verbatim to the user.
type Default struct {
	Message string
}

func (Default) kind() {}

// Message returns the user-facing text for kind.
func Message(kind ErrorKind) string {
	switch k := kind.(type) {
	case Default:
		if k.Message == "" {
			return DefaultMessage
		}
		return k.Message
	case nil:
		return ""
	default:
		return DefaultMessage
	}
}

// userMessager is implemented by errors that carry a message meant for the
// end user rather than for logs.
type userMessager interface {
	UserMessage() string
}

// KindOf classifies err. A KindError in the chain keeps its kind; anything
// else collapses into Default with the first user message found in the
// chain, or err.Error() when there is none.
func KindOf(err error) ErrorKind {
	if err == nil {
		return nil
	}
	var ke *KindError
	if errors.As(err, &ke) && ke.Kind != nil {
		return ke.Kind
	}
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return Default{Message: msg}
		}
	}
	msg := err.Error()
	if msg == "" {
		msg = DefaultMessage
	}
	return Default{Message: msg}
}
