package watcher

// EventType represents the type of file system event
type EventType int

const (
	// EventAdded is emitted when a file appears or finishes changing
	EventAdded EventType = iota
	// EventRemoved is emitted when a file is deleted or renamed away
	EventRemoved
)

// String returns the string representation of the event type
func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event represents a file system event
type Event struct {
	Type EventType
	Path string
}
