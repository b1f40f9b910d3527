package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeTableCreated  ActivityType = "table_created"
	TypeTableUpdated  ActivityType = "table_updated"
	TypeRowsInserted  ActivityType = "rows_inserted"
	TypeRowsUpdated   ActivityType = "rows_updated"
	TypeRowsDeleted   ActivityType = "rows_deleted"
	TypeSessionOpened ActivityType = "session_opened"
	TypeSessionClosed ActivityType = "session_closed"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	TableID      *int64       `json:"table_id,omitempty"`
	SessionID    *int64       `json:"session_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	CreatedAt    time.Time    `json:"created_at"`
}
