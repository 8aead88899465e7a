package domain

const (
	ActivityCreated   = "activity-created"
	ActivityCompleted = "activity-completed"
	ActivityReopened  = "activity-reopened"
	ActivityDeleted   = "activity-deleted"
)

// Event describes a committed change to the activity store.
type Event struct {
	Type      string   `json:"type"`
	EntityID  string   `json:"entityId"`
	Activity  Activity `json:"activity"`
	Timestamp int64    `json:"timestamp"`
}

// ToggleEventType returns the event emitted when an activity reaches the given completion state.
func ToggleEventType(completed bool) string {
	if completed {
		return ActivityCompleted
	}
	return ActivityReopened
}
