package graphql

import (
	"context"
	"sync"
)

// Session holds the bearer token of one authenticated conversation with a
// GraphQL server. A nil *Session is valid and never carries a token.
type Session struct {
	mu    sync.RWMutex
	token string
}

// NewSession returns a session seeded with token, which may be empty.
func NewSession(token string) *Session {
	return &Session{token: token}
}

// Token returns the current token.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken replaces the current token.
func (s *Session) SetToken(token string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

type sessionKey struct{}

// WithSession attaches s to ctx; operations run with ctx authenticate with
// its token and store tokens the server issues back into it.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session attached to ctx, or nil.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
