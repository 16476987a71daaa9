package session

import (
	"context"
	"errors"
	"time"
)

// StorageKey is the fixed key the signed-in user is kept under.
const StorageKey = "user"

// DefaultTTL bounds how long a stored session stays valid.
const DefaultTTL = 24 * time.Hour

var (
	ErrNoSession   = errors.New("session: not logged in")
	ErrExpired     = errors.New("session: expired")
	ErrInvalidUser = errors.New("session: user has no identity")
)

// User is the opaque user object returned by the auth backend.
type User struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is created on login success and invalidated on logout or expiry.
type Session struct {
	User      User      `json:"user"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// New opens a session for u that lasts ttl from now.
func New(u User, now time.Time, ttl time.Duration) (Session, error) {
	if u.Email == "" && u.ID == "" {
		return Session{}, ErrInvalidUser
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now = now.UTC()
	return Session{User: u, IssuedAt: now, ExpiresAt: now.Add(ttl)}, nil
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists at most one session on the client side.
type Store interface {
	// Load returns ErrNoSession when nothing is stored.
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}
