package live

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/foodit-dev/foodit/internal/errors"
	"github.com/foodit-dev/foodit/internal/metrics"
	"github.com/foodit-dev/foodit/internal/viewmodel/register"
	"github.com/foodit-dev/foodit/pkg/store"
	"github.com/foodit-dev/foodit/pkg/toast"
)

// Session holds the open screens of one client. It outlives its
// connection: a detached session keeps its screens and queued toasts
// until the client resumes or the resume window ends.
type Session struct {
	ID string

	cfg       Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
	factories map[string]Factory
	repos     Repositories
	images    register.Uploader
	toasts    *toast.Queue

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	screens    map[string]*openScreen
	latest     map[string]json.RawMessage
	pending    map[string]bool
	userID     int
	conn       *conn
	detachedAt time.Time
	lastActive time.Time
	closed     bool

	// wake has capacity 1 and tells the writer that states are pending.
	wake chan struct{}
}

type openScreen struct {
	screen      Screen
	unsubscribe func()
}

func newSession(id string, cfg Config, deps sessionDeps) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	logger := deps.logger.With("session_id", id)
	return &Session{
		ID:         id,
		cfg:        cfg,
		logger:     logger,
		metrics:    deps.metrics,
		factories:  deps.factories,
		repos:      deps.repos,
		images:     deps.images,
		toasts:     toast.NewQueue(cfg.ToastQueueSize, logger),
		ctx:        ctx,
		cancel:     cancel,
		screens:    make(map[string]*openScreen),
		latest:     make(map[string]json.RawMessage),
		pending:    make(map[string]bool),
		lastActive: time.Now(),
		wake:       make(chan struct{}, 1),
	}
}

type sessionDeps struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	factories map[string]Factory
	repos     Repositories
	images    register.Uploader
}

// UserID returns the signed-in user, 0 when anonymous.
func (s *Session) UserID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) setUser(id int) {
	s.mu.Lock()
	changed := s.userID != id
	s.userID = id
	s.mu.Unlock()
	if changed {
		s.logger.Info("session user changed", "user_id", id)
	}
}

// IsDetached reports whether the session has no connection.
func (s *Session) IsDetached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn == nil
}

// expired reports whether a detached session has outlived window.
func (s *Session) expired(now time.Time, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn == nil && !s.detachedAt.IsZero() && now.Sub(s.detachedAt) > window
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// open creates screen name, replacing an open one of the same name.
func (s *Session) open(name string, args json.RawMessage) error {
	factory, ok := s.factories[name]
	if !ok {
		return errors.New("E205").WithDetailf("no screen named %q", name)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return store.ErrClosed
	}
	env := Env{
		Repos:   s.repos,
		Images:  s.images,
		UserID:  s.userID,
		SetUser: s.setUser,
		Logger:  s.logger.With("screen", name),
		Options: s.storeOptions(name),
	}
	s.mu.Unlock()

	sc, err := factory(env, args)
	if err != nil {
		return err
	}

	entry := &openScreen{screen: sc}
	s.mu.Lock()
	old := s.screens[name]
	s.screens[name] = entry
	delete(s.latest, name)
	s.mu.Unlock()

	if old != nil {
		old.close()
	}

	// Subscribe runs the callback on the store loop, so it must be
	// called without holding mu.
	unsub := sc.Subscribe(func(state json.RawMessage) {
		s.publish(name, entry, state)
	})
	s.mu.Lock()
	entry.unsubscribe = unsub
	s.mu.Unlock()

	s.logger.Debug("screen opened", "screen", name)
	return nil
}

func (s *Session) storeOptions(name string) []store.Option {
	opts := []store.Option{
		store.WithName(name),
		store.WithContext(s.ctx),
		store.WithLogger(s.logger),
		store.WithToastQueue(s.toasts),
		store.WithQueueSize(s.cfg.QueueSize),
	}
	if s.metrics != nil {
		opts = append(opts, store.WithObserver(s.metrics))
	}
	return opts
}

func (o *openScreen) close() {
	if o.unsubscribe != nil {
		o.unsubscribe()
	}
	o.screen.Close()
}

// closeScreen closes name if it is open.
func (s *Session) closeScreen(name string) {
	s.mu.Lock()
	entry := s.screens[name]
	delete(s.screens, name)
	delete(s.latest, name)
	delete(s.pending, name)
	s.mu.Unlock()

	if entry != nil {
		entry.close()
	}
}

// publish records the latest state of a screen and wakes the writer.
// It runs on the screen's store loop and must not block.
func (s *Session) publish(name string, entry *openScreen, state json.RawMessage) {
	s.mu.Lock()
	if s.screens[name] != entry {
		s.mu.Unlock()
		return
	}
	s.latest[name] = state
	s.pending[name] = true
	s.mu.Unlock()
	s.signal()
}

func (s *Session) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// takePending returns the states waiting to be written, by screen.
func (s *Session) takePending() map[string]json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]json.RawMessage, len(s.pending))
	for name := range s.pending {
		if st, ok := s.latest[name]; ok {
			out[name] = st
		}
	}
	clear(s.pending)
	return out
}

// repend marks unwritten states pending again, for screens still open.
func (s *Session) repend(states map[string]json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range states {
		if _, ok := s.latest[name]; ok {
			s.pending[name] = true
		}
	}
}

// handle applies one intent frame. Intents sent to a screen that is not
// open open it first.
func (s *Session) handle(f ClientFrame) error {
	switch f.Intent {
	case IntentOpen:
		return s.open(f.Screen, f.Args)
	case IntentClose:
		s.closeScreen(f.Screen)
		return nil
	case "":
		return errors.New("E204").WithDetail("intent is required")
	}

	s.mu.Lock()
	entry := s.screens[f.Screen]
	s.mu.Unlock()

	if entry == nil {
		if err := s.open(f.Screen, nil); err != nil {
			return err
		}
		s.mu.Lock()
		entry = s.screens[f.Screen]
		s.mu.Unlock()
		if entry == nil {
			return errors.New("E205").WithDetailf("screen %q closed", f.Screen)
		}
	}

	err := entry.screen.Handle(f.Intent, f.Args)
	switch {
	case stderrors.Is(err, store.ErrClosed):
		return errors.New("E205").WithDetailf("screen %q is closed", f.Screen).Wrap(err)
	case stderrors.Is(err, store.ErrQueueFull):
		return errors.New("E207").Wrap(err)
	}
	return err
}

// attach binds c to the session, writes the welcome frame and starts the
// writer. A connection already attached is replaced. On resume every
// open screen's latest state is sent again; toasts already written are
// not.
func (s *Session) attach(c *conn, resumed bool) error {
	s.mu.Lock()
	prev := s.conn
	s.conn = c
	s.detachedAt = time.Time{}
	s.lastActive = time.Now()
	for name := range s.latest {
		s.pending[name] = true
	}
	s.mu.Unlock()

	if prev != nil {
		prev.close()
	}

	if err := c.write(ServerFrame{Type: FrameWelcome, SessionID: s.ID, Resumed: resumed}); err != nil {
		s.detach(c)
		return err
	}
	s.metrics.RecordFrame("out", FrameWelcome)

	go s.writeLoop(c)
	s.signal()
	return nil
}

// detach drops c if it is still the session's connection.
func (s *Session) detach(c *conn) {
	s.mu.Lock()
	current := s.conn == c
	if current {
		s.conn = nil
		s.detachedAt = time.Now()
	}
	closed := s.closed
	s.mu.Unlock()

	c.close()
	if current && !closed {
		s.metrics.RecordSessionDetach()
		s.logger.Info("session detached")
	}
}

func (s *Session) writeLoop(c *conn) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	defer s.detach(c)

	emitter := &frameEmitter{c: c}
	for {
		select {
		case <-c.done:
			return
		case <-s.ctx.Done():
			return

		case f := <-c.out:
			if err := c.write(f); err != nil {
				s.writeFailed(err)
				return
			}
			s.metrics.RecordFrame("out", f.Type)

		case <-s.wake:
			states := s.takePending()
			for name, st := range states {
				if err := c.write(ServerFrame{Type: FrameState, Screen: name, State: st}); err != nil {
					// Keep them for the next connection.
					s.repend(states)
					s.writeFailed(err)
					return
				}
				delete(states, name)
				s.metrics.RecordFrame("out", FrameState)
			}

		case t := <-s.toasts.C():
			toast.Show(emitter, t)
			if emitter.err != nil {
				if stderrors.Is(emitter.err, errConnClosed) {
					// Never written; the next writer delivers it.
					s.toasts.Push(t)
				} else {
					s.logger.Warn("toast lost on write failure", "message", t.Message)
				}
				s.writeFailed(emitter.err)
				return
			}
			s.metrics.RecordFrame("out", FrameToast)
			s.metrics.RecordToast()

		case <-ticker.C:
			if err := c.ping(s.cfg.WriteTimeout); err != nil {
				s.writeFailed(err)
				return
			}
		}
	}
}

func (s *Session) writeFailed(err error) {
	if !stderrors.Is(err, websocket.ErrCloseSent) && !stderrors.Is(err, errConnClosed) {
		s.metrics.RecordWebSocketError("write")
		s.logger.Debug("write failed", "error", err)
	}
}

// Close ends the session and every screen in it.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	c := s.conn
	s.conn = nil
	screens := s.screens
	s.screens = make(map[string]*openScreen)
	s.mu.Unlock()

	for _, entry := range screens {
		entry.close()
	}
	s.cancel()
	if c != nil {
		c.close()
	}
}

// frameEmitter writes toasts as toast frames.
type frameEmitter struct {
	c   *conn
	err error
}

func (e *frameEmitter) Emit(_ string, data any) {
	e.err = e.c.write(ServerFrame{Type: FrameToast, Toast: data})
}
