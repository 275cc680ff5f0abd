package store

import (
	"context"
	"time"
)

// Store is the persistence interface for agents, tasks, messages, notifications,
// activities, and documents. Implementations: the SQLite store returned by Open
// and *postgres.Store (PostgreSQL).
//
// Mutating methods take the effective timestamp as an argument so the workflow
// layer can inject a clock; reads never mutate.
type Store interface {
	// Agents
	CreateAgent(ctx context.Context, name, role, sessionKey string, now time.Time) (Agent, error)
	GetAgent(ctx context.Context, agentID string) (*Agent, error)
	ListAgents(ctx context.Context) ([]Agent, error)
	UpdateAgentStatus(ctx context.Context, agentID, status string, currentTaskID *int64, now time.Time) (bool, error)

	// Tasks
	CreateTask(ctx context.Context, title string, description *string, assigneeIDs []string, now time.Time) (int64, error)
	GetTask(ctx context.Context, taskID int64) (*Task, error)
	ListTasks(ctx context.Context) ([]Task, error)
	ListTasksByAssignee(ctx context.Context, agentID string) ([]Task, error)
	ListUnassignedTasks(ctx context.Context) ([]Task, error)
	UpdateTaskStatus(ctx context.Context, taskID int64, status string, now time.Time) (bool, error)
	AssignTask(ctx context.Context, taskID int64, agentID string, now time.Time) (bool, error)

	// Messages
	CreateMessage(ctx context.Context, taskID int64, fromAgentID, content string, now time.Time) (int64, error)
	ListMessagesByTask(ctx context.Context, taskID int64) ([]Message, error)
	ListMessagesSince(ctx context.Context, since time.Time) ([]Message, error)

	// Notifications
	CreateNotification(ctx context.Context, mentionedAgentID, content string, taskID *int64, now time.Time) (int64, error)
	GetNotification(ctx context.Context, notificationID int64) (*Notification, error)
	MarkNotificationDelivered(ctx context.Context, notificationID int64) (bool, error)
	ListPendingNotifications(ctx context.Context, agentID string) ([]Notification, error)

	// Activities
	CreateActivity(ctx context.Context, typ string, agentID *string, message string, taskID *int64, now time.Time) (int64, error)
	RecentActivities(ctx context.Context, limit int) ([]Activity, error)
	ListActivitiesSince(ctx context.Context, since time.Time) ([]Activity, error)

	// Documents
	CreateDocument(ctx context.Context, title string, content *string, typ string, taskID *int64, now time.Time) (int64, error)
	ListDocuments(ctx context.Context) ([]Document, error)

	Close() error
}
