// Package session implements the server-side session variant of the
// credential transport: an opaque random id handed to the client, backed by
// a store record pointing at the account.
package session

import (
	"context"
	"time"
)

// Session is one server-side login record. Remember sessions carry an
// absolute lifetime; for the rest ExpiresAt is an idle window the owner may
// slide on activity.
type Session struct {
	ID        string    `json:"id"`
	AccountID uint      `json:"account_id"`
	Remember  bool      `json:"remember"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session's absolute expiry has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Store persists sessions. Get returns (nil, nil) for an unknown id so
// callers can distinguish a miss from a store failure.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
