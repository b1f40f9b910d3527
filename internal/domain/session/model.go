package session

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a new session stays open without being closed.
const DefaultTTL = 5 * time.Minute

// Session is an advisory marker that a user is editing a table. Once
// IsClosed is set it never reopens.
type Session struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TableID   int64     `json:"table_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IsClosed  bool      `json:"is_closed"`
}

// Expired reports whether the session's expiry is strictly before now.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// ListFilter narrows ListSessions. Nil fields are not applied.
type ListFilter struct {
	TableID  *int64
	UserID   *uuid.UUID
	IsClosed *bool
}

// LocalUserID owns sessions opened when requests are not authenticated.
var LocalUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
