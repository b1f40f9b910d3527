package session

import (
	"context"
	"time"

	"github.com/rpggio/drawbridge/internal/domain/activity"
)

// Repository provides persistence for sessions.
type Repository interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id int64) (*Session, error)
	Close(ctx context.Context, id int64) error
	CloseExpired(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context, filter ListFilter) ([]Session, error)
}

// ActivityRepository records session lifecycle events.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
}

// Metrics receives sweep counts.
type Metrics interface {
	SessionsSwept(n int64)
}
