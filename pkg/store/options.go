package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/foodit-dev/foodit/pkg/toast"
)

// DefaultQueueSize is the default event queue capacity.
const DefaultQueueSize = 64

type config struct {
	name           string
	parent         context.Context
	queueSize      int
	toastQueueSize int
	toasts         *toast.Queue
	logger         *slog.Logger
	observer       Observer
}

func defaultConfig() config {
	return config{
		name:           "store",
		parent:         context.Background(),
		queueSize:      DefaultQueueSize,
		toastQueueSize: toast.DefaultQueueSize,
		logger:         slog.Default(),
		observer:       nopObserver{},
	}
}

// Option configures a Store.
type Option func(*config)

// WithName sets the store name used in logs and metrics.
func WithName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.name = name
		}
	}
}

// WithContext ties the store lifetime to ctx: cancelling ctx closes the
// store and cancels its effects.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.parent = ctx
		}
	}
}

// WithQueueSize sets the event queue capacity.
func WithQueueSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithToastQueue makes the store push toasts onto q instead of a private
// queue. Several stores of one session can share a queue.
func WithToastQueue(q *toast.Queue) Option {
	return func(c *config) {
		c.toasts = q
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver installs instrumentation hooks.
func WithObserver(o Observer) Option {
	return func(c *config) {
		if o != nil {
			c.observer = o
		}
	}
}

// Observer receives store instrumentation callbacks. Implementations must
// be safe for concurrent use.
type Observer interface {
	EventDispatched(store string)
	EventDropped(store string)
	EventReduced(store string, d time.Duration)
	EffectFinished(store string, d time.Duration, panicked bool)
}

type nopObserver struct{}

func (nopObserver) EventDispatched(string)                    {}
func (nopObserver) EventDropped(string)                       {}
func (nopObserver) EventReduced(string, time.Duration)        {}
func (nopObserver) EffectFinished(string, time.Duration, bool) {}
