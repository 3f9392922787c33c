package live

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config configures the live server.
type Config struct {
	// ResumeWindow is how long a disconnected session stays resumable.
	// Default: 30 seconds.
	ResumeWindow time.Duration

	// QueueSize is the event queue capacity of each screen.
	QueueSize int

	// ToastQueueSize bounds the toasts held for a session. The oldest toast
	// is dropped when it overflows.
	ToastQueueSize int

	// AllowedOrigins lists the origins accepted for websocket upgrades.
	// Empty means same origin only; "*" accepts every origin.
	AllowedOrigins []string

	// HandshakeTimeout bounds the wait for the hello frame.
	HandshakeTimeout time.Duration

	// ReadTimeout closes a connection that sends nothing, not even a pong.
	ReadTimeout time.Duration

	WriteTimeout time.Duration
	PingInterval time.Duration

	// MaxMessageSize limits one client frame, in bytes.
	MaxMessageSize int64

	// MaxImageSize limits uploaded pictures, in bytes.
	MaxImageSize int64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ResumeWindow:     30 * time.Second,
		QueueSize:        64,
		ToastQueueSize:   16,
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     25 * time.Second,
		MaxMessageSize:   8 << 20,
		MaxImageSize:     5 << 20,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ResumeWindow <= 0 {
		c.ResumeWindow = d.ResumeWindow
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.ToastQueueSize <= 0 {
		c.ToastQueueSize = d.ToastQueueSize
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.MaxImageSize <= 0 {
		c.MaxImageSize = d.MaxImageSize
	}
	return c
}

// checkOrigin returns the upgrader origin check for allowed.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return SameOriginCheck
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(strings.TrimRight(o, "/"))] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return set[strings.ToLower(origin)] || SameOriginCheck(r)
	}
}

// SameOriginCheck accepts requests without an Origin header and those
// whose origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
