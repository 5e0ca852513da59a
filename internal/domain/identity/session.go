package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is a server-side login session
type Session struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession creates a session for the user lasting ttl
func NewSession(userID uuid.UUID, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the session has expired at the given time
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionStore keeps sessions until they expire
type SessionStore interface {
	// Save stores the session until its expiry
	Save(ctx context.Context, session *Session) error

	// Get returns the session, or shared.ErrNotFound if it is unknown or expired
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes the session; deleting an unknown session is not an error
	Delete(ctx context.Context, id string) error

	// Close releases resources held by the store
	Close() error
}
