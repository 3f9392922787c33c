package api

import "sync"

// TokenStore holds the bearer token of the signed-in user.
type TokenStore interface {
	Token() string
	SetToken(token string)
}

// MemoryTokens is a TokenStore kept in memory. The zero value is ready
// to use.
type MemoryTokens struct {
	mu    sync.RWMutex
	token string
}

func (m *MemoryTokens) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *MemoryTokens) SetToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}
