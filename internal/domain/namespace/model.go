package namespace

import "time"

// Namespace groups tables under a unique name
type Namespace struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	TableIDs    []int64   `json:"table_ids"`
	CreatedAt   time.Time `json:"created_at"`
}
