// Package sse streams library changes and user notices to the renderer
// as Server-Sent Events.
package sse

import (
	"time"

	"github.com/shelfkeep/shelfkeep/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventBookCreated represents a book being added.
	EventBookCreated EventType = "book.created"
	// EventBookUpdated represents a read or favorite flag flip.
	EventBookUpdated EventType = "book.updated"
	// EventBookDeleted represents a book removal.
	EventBookDeleted EventType = "book.deleted"
	// EventLibraryReordered carries the new collection order.
	EventLibraryReordered EventType = "library.reordered"
	// EventGoalsUpdated represents a goal change.
	EventGoalsUpdated EventType = "goals.updated"
	// EventStatsUpdated carries recomputed statistics after every mutation.
	EventStatsUpdated EventType = "stats.updated"
	// EventNotice is a transient, dismissible message for the user.
	EventNotice EventType = "notice"
	// EventCelebrate asks the renderer for its decorative success effect.
	EventCelebrate EventType = "celebrate"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// BookEventData is the payload for book.created and book.updated.
type BookEventData struct {
	Book domain.Book `json:"book"`
}

// BookDeletedEventData is the payload for book.deleted.
type BookDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	BookID    int64     `json:"book_id"`
}

// ReorderedEventData is the payload for library.reordered.
type ReorderedEventData struct {
	Order []int64 `json:"order"`
}

// GoalsEventData is the payload for goals.updated.
type GoalsEventData struct {
	Goals domain.Goals `json:"goals"`
}

// StatsEventData is the payload for stats.updated.
type StatsEventData struct {
	Stats domain.Stats `json:"stats"`
}

// NoticeEventData is the payload for notice events.
type NoticeEventData struct {
	Message string `json:"message"`
	IsError bool   `json:"is_error"`
}

// CelebrateEventData is the payload for celebrate events.
type CelebrateEventData struct {
	BookID int64 `json:"book_id"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

func newEvent(t EventType, data any) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}

// NewBookCreatedEvent creates a book.created event.
func NewBookCreatedEvent(book domain.Book) Event {
	return newEvent(EventBookCreated, BookEventData{Book: book})
}

// NewBookUpdatedEvent creates a book.updated event.
func NewBookUpdatedEvent(book domain.Book) Event {
	return newEvent(EventBookUpdated, BookEventData{Book: book})
}

// NewBookDeletedEvent creates a book.deleted event.
func NewBookDeletedEvent(bookID int64, deletedAt time.Time) Event {
	return newEvent(EventBookDeleted, BookDeletedEventData{BookID: bookID, DeletedAt: deletedAt})
}

// NewReorderedEvent creates a library.reordered event.
func NewReorderedEvent(order []int64) Event {
	return newEvent(EventLibraryReordered, ReorderedEventData{Order: order})
}

// NewGoalsUpdatedEvent creates a goals.updated event.
func NewGoalsUpdatedEvent(goals domain.Goals) Event {
	return newEvent(EventGoalsUpdated, GoalsEventData{Goals: goals})
}

// NewStatsUpdatedEvent creates a stats.updated event.
func NewStatsUpdatedEvent(stats domain.Stats) Event {
	return newEvent(EventStatsUpdated, StatsEventData{Stats: stats})
}

// NewNoticeEvent creates a notice event.
func NewNoticeEvent(message string, isError bool) Event {
	return newEvent(EventNotice, NoticeEventData{Message: message, IsError: isError})
}

// NewCelebrateEvent creates a celebrate event.
func NewCelebrateEvent(bookID int64) Event {
	return newEvent(EventCelebrate, CelebrateEventData{BookID: bookID})
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{Type: EventHeartbeat, Data: HeartbeatEventData{ServerTime: now}, Timestamp: now}
}
