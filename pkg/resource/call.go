package resource

import (
	"context"
	"time"
)

// CallOption configures Call.
type CallOption func(*callConfig)

type callConfig struct {
	retryCount int
	retryDelay time.Duration
	noLoading  bool
}

// RetryOnError retries a failed fetch count more times, sleeping delay
// between attempts. Only the final outcome is emitted.
func RetryOnError(count int, delay time.Duration) CallOption {
	return func(c *callConfig) {
		c.retryCount = count
		c.retryDelay = delay
	}
}

// WithoutLoading suppresses the leading Loading emission.
func WithoutLoading() CallOption {
	return func(c *callConfig) {
		c.noLoading = true
	}
}

// Call runs fetch and emits Loading(true) followed by exactly one terminal
// outcome. A non-terminal value returned by fetch is reported as a Failure.
// If ctx is cancelled before the fetch completes, a Failure carrying the
// context error is emitted.
func Call[T any](ctx context.Context, fetch func(context.Context) Resource[T], emit func(Resource[T]), opts ...CallOption) {
	var cfg callConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if !cfg.noLoading {
		emit(Loading[T]{IsLoading: true})
	}

	var result Resource[T]
	maxAttempts := 1 + cfg.retryCount
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			select {
			case <-time.After(cfg.retryDelay):
			case <-ctx.Done():
				emit(FromError[T](ctx.Err()))
				return
			}
		}
		if err := ctx.Err(); err != nil {
			emit(FromError[T](err))
			return
		}

		result = fetch(ctx)
		if result == nil || !IsTerminal(result) {
			result = Failure[T]{Err: Default{Message: DefaultMessage}}
		}
		if result.State() == StateSuccess {
			break
		}
	}

	emit(result)
}
