package live

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foodit-dev/foodit/internal/metrics"
)

// Manager tracks sessions and drops detached ones once their resume
// window has passed.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cfg     Config
	deps    func() sessionDeps
	logger  *slog.Logger
	metrics *metrics.Metrics

	cleanupInterval time.Duration
	done            chan struct{}
	cleanupDone     chan struct{}
	shutdownOnce    sync.Once
}

func newManager(cfg Config, deps func() sessionDeps, logger *slog.Logger, m *metrics.Metrics) *Manager {
	interval := cfg.ResumeWindow / 2
	if interval < 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	mgr := &Manager{
		sessions:        make(map[string]*Session),
		cfg:             cfg,
		deps:            deps,
		logger:          logger,
		metrics:         m,
		cleanupInterval: interval,
		done:            make(chan struct{}),
		cleanupDone:     make(chan struct{}),
	}
	go mgr.cleanupLoop()
	return mgr
}

// Create starts a new session.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString(), m.cfg, m.deps())
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.metrics.RecordSessionCreate()
	s.logger.Info("session created")
	return s
}

// Resume returns the session id if it still exists. An expired session
// is closed and nil is returned.
func (m *Manager) Resume(id string) *Session {
	if id == "" {
		return nil
	}
	m.mu.Lock()
	s := m.sessions[id]
	m.mu.Unlock()
	if s == nil {
		return nil
	}
	if s.expired(time.Now(), m.cfg.ResumeWindow) {
		m.Close(id)
		return nil
	}
	if s.IsDetached() {
		m.metrics.RecordSessionReattach()
	}
	return s
}

// Get returns a session by id, or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Close removes and closes a session.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if s == nil {
		return
	}
	m.metrics.RecordSessionDestroy(s.IsDetached())
	s.Close()
	s.logger.Info("session closed")
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) cleanupLoop() {
	defer close(m.cleanupDone)
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.cleanupExpired()
		case <-m.done:
			return
		}
	}
}

// cleanupExpired closes detached sessions past the resume window.
func (m *Manager) cleanupExpired() {
	now := time.Now()
	var expired []string
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.expired(now, m.cfg.ResumeWindow) {
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.Close(id)
	}
	if len(expired) > 0 {
		m.logger.Debug("expired sessions removed", "count", len(expired))
	}
}

// Shutdown closes every session. It returns early with ctx's error if
// ctx ends first.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdownOnce.Do(func() { close(m.done) })
	<-m.cleanupDone

	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				m.Close(id)
			}(id)
		}
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
