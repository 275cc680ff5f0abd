// Package models provides shared types for the Nexus HTTP API and external tools.
// These types mirror the API JSON and are stable for use by pkg/client and other consumers.
package models

import "time"

// Agent is a tracked worker (human or automated) with a status and optional current task.
type Agent struct {
	AgentID       string    `json:"agent_id"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	Status        string    `json:"status"`
	CurrentTaskID *int64    `json:"current_task_id,omitempty"`
	SessionKey    string    `json:"session_key,omitempty"`
	LastActive    time.Time `json:"last_active,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// Task is a unit of work moving through the board statuses.
type Task struct {
	TaskID      int64     `json:"task_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Status      string    `json:"status"`
	AssigneeIDs []string  `json:"assignee_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Message is a comment on a task, scanned for @mentions when posted.
type Message struct {
	MessageID   int64     `json:"message_id"`
	TaskID      int64     `json:"task_id"`
	FromAgentID string    `json:"from_agent_id"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Notification is a pending alert generated for a mentioned agent.
type Notification struct {
	NotificationID   int64     `json:"notification_id"`
	MentionedAgentID string    `json:"mentioned_agent_id"`
	Content          string    `json:"content"`
	TaskID           *int64    `json:"task_id,omitempty"`
	Delivered        bool      `json:"delivered"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// Activity is an immutable log entry describing a system event for the feed.
type Activity struct {
	ActivityID int64     `json:"activity_id"`
	Type       string    `json:"type"`
	AgentID    *string   `json:"agent_id,omitempty"`
	Message    string    `json:"message"`
	TaskID     *int64    `json:"task_id,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// Document is a deliverable, research note, protocol, or note, optionally attached to a task.
type Document struct {
	DocumentID int64     `json:"document_id"`
	Title      string    `json:"title"`
	Content    *string   `json:"content,omitempty"`
	Type       string    `json:"type"`
	TaskID     *int64    `json:"task_id,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// Standup is the /standup API response: trailing-24h activity and messages plus
// the full task and agent collections as of GeneratedAt.
type Standup struct {
	Activities  []Activity `json:"activities"`
	Messages    []Message  `json:"messages"`
	Tasks       []Task     `json:"tasks"`
	Agents      []Agent    `json:"agents"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// Config is the /config API response.
type Config struct {
	HumanName   string `json:"human_name,omitempty"`
	NexusHome   string `json:"nexus_home,omitempty"`
	BootstrapID string `json:"bootstrap_id,omitempty"`
}

// Bootstrap is the /bootstrap API response.
type Bootstrap struct {
	Config        Config         `json:"config"`
	Agents        []Agent        `json:"agents,omitempty"`
	Tasks         []Task         `json:"tasks,omitempty"`
	Activities    []Activity     `json:"activities,omitempty"`
	Notifications []Notification `json:"notifications,omitempty"`
}
