package activity

// DefaultListLimit caps List when no limit is requested.
const DefaultListLimit = 50

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	TableID      *int64
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
