// Package store defines the persistence interface and shared models for agents,
// tasks, messages, notifications, activities, and documents.
package store

import "time"

// Agent is a tracked worker with a display name (used for @mention matching),
// a status, and an optional current task.
type Agent struct {
	AgentID       string
	Name          string
	Role          string
	Status        string // idle, active, blocked
	CurrentTaskID *int64
	SessionKey    string
	LastActive    time.Time
	CreatedAt     time.Time
}

// Task is a work item on the board. AssigneeIDs preserves insertion order and
// never contains duplicates (enforced by the task_assignees primary key).
type Task struct {
	TaskID      int64
	Title       string
	Description *string
	Status      string // inbox, assigned, in_progress, review, done, blocked
	AssigneeIDs []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Message is a comment on a task. Immutable once created.
type Message struct {
	MessageID   int64
	TaskID      int64
	FromAgentID string
	Content     string
	CreatedAt   time.Time
}

// Notification is an alert for a mentioned agent. Delivered flips false→true
// exactly once and never reverses.
type Notification struct {
	NotificationID   int64
	MentionedAgentID string
	Content          string
	TaskID           *int64
	Delivered        bool
	CreatedAt        time.Time
}

// Activity is an append-only feed entry. Never mutated or deleted.
type Activity struct {
	ActivityID int64
	Type       string
	AgentID    *string
	Message    string
	TaskID     *int64
	CreatedAt  time.Time
}

// Document is a deliverable, research note, protocol, or note.
type Document struct {
	DocumentID int64
	Title      string
	Content    *string
	Type       string // deliverable, research, protocol, note
	TaskID     *int64
	CreatedAt  time.Time
}
