package live

import (
	"encoding/json"
	"fmt"

	"github.com/foodit-dev/foodit/internal/errors"
)

// Frame types.
const (
	FrameHello   = "hello"
	FrameWelcome = "welcome"
	FrameIntent  = "intent"
	FrameState   = "state"
	FrameToast   = "toast"
	FrameError   = "error"
)

// Reserved intents understood by every screen.
const (
	IntentOpen  = "open"
	IntentClose = "close"
)

// ClientFrame is a message from the client. A frame without a type is an
// intent.
//
//	{"type":"hello","sessionId":"…"}
//	{"screen":"home","intent":"toggleFavourite","args":{"id":3}}
type ClientFrame struct {
	Type      string          `json:"type,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Screen    string          `json:"screen,omitempty"`
	Intent    string          `json:"intent,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
}

// ServerFrame is a message to the client.
type ServerFrame struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Resumed   bool            `json:"resumed,omitempty"`
	Screen    string          `json:"screen,omitempty"`
	State     json.RawMessage `json:"state,omitempty"`
	Toast     any             `json:"toast,omitempty"`
	Error     *errors.Body    `json:"error,omitempty"`
}

func decodeClientFrame(data []byte) (ClientFrame, error) {
	var f ClientFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return ClientFrame{}, errors.New("E204").Wrap(err)
	}
	if f.Type == "" {
		f.Type = FrameIntent
	}
	return f, nil
}

func errorFrame(screen string, err error) ServerFrame {
	fe := errors.FromError(err, "E204")
	body := fe.Body()
	return ServerFrame{Type: FrameError, Screen: screen, Error: &body}
}

// String is used in logs.
func (f ClientFrame) String() string {
	return fmt.Sprintf("%s %s/%s", f.Type, f.Screen, f.Intent)
}
