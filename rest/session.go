package rest

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the operator identity established by sign-in. The server owns
// it; the client only carries it on requests and drops it on auth failure.
type Session struct {
	Token  string
	UserID string
	Role   string
}

// Valid reports whether the session carries a credential at all.
func (s Session) Valid() bool { return s.Token != "" }

// SessionStore persists the current Session. Implementations must be safe
// for concurrent use; the client reads on every request and clears on auth
// failure or sign-out.
type SessionStore interface {
	Get() Session
	Set(s Session)
	Clear()
}

// MemoryStore is the in-process SessionStore.
type MemoryStore struct {
	mu  sync.RWMutex
	cur Session
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Get() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

func (m *MemoryStore) Set(s Session) {
	m.mu.Lock()
	m.cur = s
	m.mu.Unlock()
}

func (m *MemoryStore) Clear() {
	m.mu.Lock()
	m.cur = Session{}
	m.mu.Unlock()
}

// TokenExpired reports whether tok carries an exp claim in the past. The
// signature is NOT verified; the server remains the authority and will
// reject a forged token anyway. Checking exp locally just avoids burning a
// round trip on a token we already know is dead. Tokens without exp, and
// strings that do not parse as JWTs, are treated as live.
func TokenExpired(tok string, now time.Time) bool {
	if tok == "" {
		return false
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tok, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
