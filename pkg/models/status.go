package models

// Task statuses used throughout the codebase.
const (
	TaskStatusInbox      = "inbox"
	TaskStatusAssigned   = "assigned"
	TaskStatusInProgress = "in_progress"
	TaskStatusReview     = "review"
	TaskStatusDone       = "done"
	TaskStatusBlocked    = "blocked"
)

// Agent statuses.
const (
	AgentStatusIdle    = "idle"
	AgentStatusActive  = "active"
	AgentStatusBlocked = "blocked"
)

// Activity types for the feed.
const (
	ActivityTaskCreated        = "task_created"
	ActivityTaskCompleted      = "task_completed"
	ActivityReviewCompleted    = "review_completed"
	ActivityMessageSent        = "message_sent"
	ActivityDocumentCreated    = "document_created"
	ActivityTaskUpdated        = "task_updated"
	ActivityAgentStatusChanged = "agent_status_changed"
)

// Document types.
const (
	DocumentDeliverable = "deliverable"
	DocumentResearch    = "research"
	DocumentProtocol    = "protocol"
	DocumentNote        = "note"
)

// TaskStatuses lists every valid task status.
var TaskStatuses = []string{
	TaskStatusInbox,
	TaskStatusAssigned,
	TaskStatusInProgress,
	TaskStatusReview,
	TaskStatusDone,
	TaskStatusBlocked,
}

// AgentStatuses lists every valid agent status.
var AgentStatuses = []string{AgentStatusIdle, AgentStatusActive, AgentStatusBlocked}

// ValidTaskStatus reports whether s is a known task status.
func ValidTaskStatus(s string) bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ValidAgentStatus reports whether s is a known agent status.
func ValidAgentStatus(s string) bool {
	for _, v := range AgentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// DocumentTypes lists every valid document type.
var DocumentTypes = []string{DocumentDeliverable, DocumentResearch, DocumentProtocol, DocumentNote}

// ValidDocumentType reports whether s is a known document type.
func ValidDocumentType(s string) bool {
	for _, v := range DocumentTypes {
		if s == v {
			return true
		}
	}
	return false
}

// Default limits.
const (
	DefaultMaxRequestBodyBytes = 1 << 20 // 1 MiB
	DefaultActivityListLimit   = 1000
	DefaultSSEChannelBuffer    = 256
)
