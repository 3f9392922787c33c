package toast

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultQueueSize is the capacity used when NewQueue is given size <= 0.
const DefaultQueueSize = 16

// Queue is a bounded FIFO of toasts. Each toast is received by exactly one
// consumer. When the queue is full the oldest toast is dropped.
type Queue struct {
	ch     chan Toast
	mu     sync.Mutex // serialises Push so drop-oldest is atomic
	logger *slog.Logger
}

// NewQueue creates a queue holding up to size toasts.
func NewQueue(size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		ch:     make(chan Toast, size),
		logger: logger,
	}
}

// Push enqueues t. It never blocks.
func (q *Queue) Push(t Toast) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		select {
		case q.ch <- t:
			return
		default:
		}

		select {
		case dropped := <-q.ch:
			q.logger.Warn("toast queue full, dropping oldest", "message", dropped.Message)
		default:
		}
	}
}

// Next blocks until a toast is available or ctx is done.
func (q *Queue) Next(ctx context.Context) (Toast, error) {
	select {
	case t := <-q.ch:
		return t, nil
	case <-ctx.Done():
		return Toast{}, ctx.Err()
	}
}

// C returns the receive side of the queue.
func (q *Queue) C() <-chan Toast {
	return q.ch
}

// Drain removes and returns every queued toast without blocking.
func (q *Queue) Drain() []Toast {
	var out []Toast
	for {
		select {
		case t := <-q.ch:
			out = append(out, t)
		default:
			return out
		}
	}
}

// Len returns the number of queued toasts.
func (q *Queue) Len() int {
	return len(q.ch)
}
