package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/foodit-dev/foodit/pkg/toast"
)

var tracer = otel.Tracer("github.com/foodit-dev/foodit/pkg/store")

// ErrClosed is returned when dispatching to a closed store.
var ErrClosed = errors.New("store: closed")

// ErrQueueFull is returned by TryDispatch when the event queue is full.
var ErrQueueFull = errors.New("store: event queue full")

// Effect is asynchronous work requested by a reducer. It runs on its own
// goroutine and reports results by calling emit, which feeds events back
// into the store. ctx is cancelled when the store closes.
type Effect[E any] func(ctx context.Context, emit func(E))

// Update is what a Reducer returns for one event.
type Update[S, E any] struct {
	State   S
	Effects []Effect[E]
	Toasts  []toast.Toast
}

// Reducer computes the next Update from the current state and an event.
// It must not mutate shared data reachable from state.
type Reducer[S, E any] func(state S, event E) Update[S, E]

// Next is shorthand for an Update with no toasts.
func Next[S, E any](state S, effects ...Effect[E]) Update[S, E] {
	return Update[S, E]{State: state, Effects: effects}
}

// Notify is shorthand for an Update that only surfaces toasts.
func Notify[S, E any](state S, toasts ...toast.Toast) Update[S, E] {
	return Update[S, E]{State: state, Toasts: toasts}
}

// Store is a single-writer state container.
type Store[S, E any] struct {
	name    string
	reducer Reducer[S, E]
	equal   func(S, S) bool

	state S
	mu    sync.RWMutex

	subs   []*subscriber[S]
	nextID uint64

	events     chan E
	dispatchCh chan func()
	done       chan struct{}
	loopDone   chan struct{}
	closed     atomic.Bool
	closeOnce  sync.Once

	ctx     context.Context
	cancel  context.CancelFunc
	effects sync.WaitGroup

	toasts   *toast.Queue
	logger   *slog.Logger
	observer Observer

	eventCount atomic.Uint64
}

type subscriber[S any] struct {
	id uint64
	fn func(S)
}

// New creates a store holding initial and starts its event loop.
func New[S, E any](initial S, reducer Reducer[S, E], opts ...Option) *Store[S, E] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(cfg.parent)
	s := &Store[S, E]{
		name:       cfg.name,
		reducer:    reducer,
		state:      initial,
		events:     make(chan E, cfg.queueSize),
		dispatchCh: make(chan func(), cfg.queueSize),
		done:       make(chan struct{}),
		loopDone:   make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
		toasts:     cfg.toasts,
		logger:     cfg.logger.With("store", cfg.name),
		observer:   cfg.observer,
	}
	if s.toasts == nil {
		s.toasts = toast.NewQueue(cfg.toastQueueSize, s.logger)
	}

	go s.eventLoop()

	// Parent cancellation tears the store down like Close.
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()

	return s
}

// WithEquals sets the function used to decide whether a reduced state
// differs from the previous one. The default is reflect.DeepEqual.
// It must be called before the first Dispatch.
func (s *Store[S, E]) WithEquals(fn func(S, S) bool) *Store[S, E] {
	s.equal = fn
	return s
}

// Name returns the store name used in logs and metrics.
func (s *Store[S, E]) Name() string {
	return s.name
}

// Logger returns the store's logger, tagged with its name.
func (s *Store[S, E]) Logger() *slog.Logger { return s.logger }

// State returns the current snapshot.
func (s *Store[S, E]) State() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Toasts returns the store's one-shot notification queue.
func (s *Store[S, E]) Toasts() *toast.Queue {
	return s.toasts
}

// Dispatch queues e for the reducer. It blocks while the queue is full and
// returns ErrClosed once the store has been closed.
func (s *Store[S, E]) Dispatch(e E) error {
	if s.closed.Load() {
		return ErrClosed
	}
	select {
	case s.events <- e:
		s.observer.EventDispatched(s.name)
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// TryDispatch queues e without blocking.
func (s *Store[S, E]) TryDispatch(e E) error {
	if s.closed.Load() {
		return ErrClosed
	}
	select {
	case s.events <- e:
		s.observer.EventDispatched(s.name)
		return nil
	case <-s.done:
		return ErrClosed
	default:
		s.logger.Warn("event queue full, dropping event", "event", eventName(e))
		s.observer.EventDropped(s.name)
		return ErrQueueFull
	}
}

// Subscribe registers fn to receive the current snapshot and then every
// new one. Registration has completed when Subscribe returns. fn runs on
// the event loop: it must not block, and must not call Subscribe,
// unsubscribe or Close. The returned func unsubscribes.
func (s *Store[S, E]) Subscribe(fn func(S)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	var id atomic.Uint64
	s.run(func() {
		s.nextID++
		sub := &subscriber[S]{id: s.nextID, fn: fn}
		id.Store(sub.id)
		s.subs = append(s.subs, sub)
		s.safeNotify(sub, s.State())
	})

	return func() {
		s.run(func() {
			target := id.Load()
			for i, existing := range s.subs {
				if existing.id == target {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Done returns a channel closed when the store shuts down.
func (s *Store[S, E]) Done() <-chan struct{} {
	return s.done
}

// Context returns the store's context, cancelled on Close.
func (s *Store[S, E]) Context() context.Context {
	return s.ctx
}

// Close stops the event loop, cancels running effects and waits for them.
// It must not be called from an effect or a subscriber.
func (s *Store[S, E]) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		close(s.done)
		<-s.loopDone
		s.effects.Wait()
		s.logger.Debug("store closed", "events", s.eventCount.Load())
	})
}

// run executes fn on the event loop and waits for it to finish.
// It must not be called from the event loop itself.
func (s *Store[S, E]) run(fn func()) {
	if s.closed.Load() {
		return
	}
	finished := make(chan struct{})
	select {
	case s.dispatchCh <- func() {
		defer close(finished)
		fn()
	}:
	case <-s.done:
		return
	}
	select {
	case <-finished:
	case <-s.done:
	}
}

// eventLoop is the only writer of s.state.
func (s *Store[S, E]) eventLoop() {
	defer close(s.loopDone)

	for {
		select {
		case e := <-s.events:
			s.handleEvent(e)

		case fn := <-s.dispatchCh:
			s.drainQueued()
			fn()

		case <-s.done:
			return
		}
	}
}

// drainQueued reduces the events already queued so that run callers see
// every Dispatch that returned before they were called.
func (s *Store[S, E]) drainQueued() {
	for n := len(s.events); n > 0; n-- {
		select {
		case e := <-s.events:
			s.handleEvent(e)
		default:
			return
		}
	}
}

func (s *Store[S, E]) handleEvent(e E) {
	s.eventCount.Add(1)
	start := time.Now()

	prev := s.State()
	update, ok := s.safeReduce(prev, e)
	s.observer.EventReduced(s.name, time.Since(start))
	if !ok {
		return
	}

	changed := !s.equals(prev, update.State)
	if changed {
		s.mu.Lock()
		s.state = update.State
		s.mu.Unlock()
	}

	for _, t := range update.Toasts {
		s.toasts.Push(t)
	}

	for _, eff := range update.Effects {
		if eff != nil {
			s.startEffect(eventName(e), eff)
		}
	}

	if changed {
		s.notifySubscribers(update.State)
	}
}

// safeReduce runs the reducer with panic recovery. On panic the state is
// left untouched.
func (s *Store[S, E]) safeReduce(state S, e E) (update Update[S, E], ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("reducer panic",
				"panic", r,
				"event", eventName(e),
				"stack", string(debug.Stack()))
			ok = false
		}
	}()

	return s.reducer(state, e), true
}

// startEffect runs eff in a span named after the store, so repository
// calls made by the effect are traced as its children.
func (s *Store[S, E]) startEffect(event string, eff Effect[E]) {
	s.effects.Add(1)
	go func() {
		defer s.effects.Done()
		ctx, span := tracer.Start(s.ctx, "foodit.store.effect",
			trace.WithAttributes(
				attribute.String("foodit.store", s.name),
				attribute.String("foodit.event", event),
			))
		start := time.Now()
		panicked := false
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				span.SetStatus(codes.Error, fmt.Sprint(r))
				s.logger.Error("effect panic",
					"panic", r,
					"event", event,
					"stack", string(debug.Stack()))
			}
			span.End()
			s.observer.EffectFinished(s.name, time.Since(start), panicked)
		}()

		eff(ctx, s.emit)
	}()
}

// emit feeds an effect result back into the loop. Results arriving after
// Close are discarded.
func (s *Store[S, E]) emit(e E) {
	if err := s.Dispatch(e); err != nil {
		s.logger.Debug("discarding effect result", "event", eventName(e), "error", err)
	}
}

// notifySubscribers uses copy-before-notify so subscribers may unsubscribe
// from inside their callback.
func (s *Store[S, E]) notifySubscribers(state S) {
	subs := make([]*subscriber[S], len(s.subs))
	copy(subs, s.subs)

	for _, sub := range subs {
		s.safeNotify(sub, state)
	}
}

func (s *Store[S, E]) safeNotify(sub *subscriber[S], state S) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("subscriber panic", "panic", r, "subscriber", sub.id)
		}
	}()
	sub.fn(state)
}

func (s *Store[S, E]) equals(a, b S) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return reflect.DeepEqual(a, b)
}

func eventName(e any) string {
	if n, ok := e.(interface{ EventName() string }); ok {
		return n.EventName()
	}
	return fmt.Sprintf("%T", e)
}
