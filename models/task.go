// ABOUTME: Task model with calendar back-reference and sync result
// ABOUTME: CalendarLink records whether a push reached the provider or stayed local
package models

import (
	"time"
)

// Task is a to-do, call, email or meeting, optionally mirrored to an external calendar.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Type        TaskType `json:"type"`
	DueDate     string   `json:"dueDate"` // YYYY-MM-DD
	IsCompleted bool     `json:"isCompleted"`
	Priority    Priority `json:"priority"`
	StartTime   string   `json:"startTime,omitempty"` // HH:MM, local time
	EndTime     string   `json:"endTime,omitempty"`
	IsAllDay    bool     `json:"isAllDay,omitempty"`
	ContactID   string   `json:"contactId,omitempty"`

	// GoogleEventID is set only once the task has been synchronized.
	GoogleEventID string        `json:"googleEventId,omitempty"`
	CalendarSync  *CalendarLink `json:"calendarSync,omitempty"`
	UpdatedAt     time.Time     `json:"updatedAt,omitempty"`
}

type TaskType string

const (
	TaskCall    TaskType = "call"
	TaskEmail   TaskType = "email"
	TaskMeeting TaskType = "meeting"
	TaskTodo    TaskType = "todo"
)

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	switch t {
	case TaskCall, TaskEmail, TaskMeeting, TaskTodo:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Timed reports whether the task occupies a time slot rather than a whole day.
func (t Task) Timed() bool {
	return t.StartTime != "" && !t.IsAllDay
}

// Synced reports whether the task carries a provider event reference.
func (t Task) Synced() bool {
	return t.GoogleEventID != ""
}

// Calendar link states.
const (
	LinkSynced    = "synced"
	LinkLocalOnly = "local_only"
)

// CalendarLink is the tagged result of the last calendar push for a task:
// either Synced(eventID) or LocalOnly(reason).
type CalendarLink struct {
	State   string    `json:"state"`
	EventID string    `json:"eventId,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	At      time.Time `json:"at"`
}

// Synced builds a link for a task whose event exists at the provider.
func Synced(eventID string, at time.Time) *CalendarLink {
	return &CalendarLink{State: LinkSynced, EventID: eventID, At: at}
}

// LocalOnly builds a link for a task that could not be pushed.
func LocalOnly(reason string, at time.Time) *CalendarLink {
	return &CalendarLink{State: LinkLocalOnly, Reason: reason, At: at}
}

// IsSynced reports whether the link is in the synced state.
func (l *CalendarLink) IsSynced() bool {
	return l != nil && l.State == LinkSynced
}
