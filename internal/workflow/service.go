// Package workflow implements the behavioral core of the nexus dashboard:
// task lifecycle, agent status, message posting with mention fan-out,
// notification delivery, the activity log, and the standup aggregate. It
// sits between the HTTP surface and the store and owns all validation.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amittambulkar96/nexus/internal/store"
	"github.com/amittambulkar96/nexus/pkg/models"
)

// Event describes a completed mutation, emitted to hooks after the primary
// write has been committed. Hooks run best-effort: a hook failure never
// unwinds the mutation that produced the event.
type Event struct {
	Type    string
	Message string
	AgentID *string
	TaskID  *int64
	At      time.Time
}

// Hook receives post-commit events.
type Hook func(ctx context.Context, ev Event)

// Service coordinates mutations against the store. The zero value is not
// usable; construct with New.
type Service struct {
	store store.Store
	now   func() time.Time
	hooks []Hook
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source. Mutations stamp rows with the value
// this returns at call time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHook registers a post-commit event hook.
func WithHook(h Hook) Option {
	return func(s *Service) { s.hooks = append(s.hooks, h) }
}

func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) emit(ctx context.Context, ev Event) {
	for _, h := range s.hooks {
		h(ctx, ev)
	}
}

// ActivityRecorder returns a hook that persists events to the activity log.
// Write failures are logged and dropped; the log is advisory, not
// transactional with the mutation it describes.
func ActivityRecorder(st store.Store) Hook {
	return func(ctx context.Context, ev Event) {
		_, err := st.CreateActivity(ctx, ev.Type, ev.AgentID, ev.Message, ev.TaskID, ev.At)
		if err != nil {
			slog.Warn("activity write failed", "type", ev.Type, "error", err)
		}
	}
}

// CreateAgent registers a new agent with status idle.
func (s *Service) CreateAgent(ctx context.Context, name, role, sessionKey string) (store.Agent, error) {
	if name == "" {
		return store.Agent{}, invalid("name", "must not be empty")
	}
	return s.store.CreateAgent(ctx, name, role, sessionKey, s.now())
}

// GetAgent returns the agent or a NotFoundError.
func (s *Service) GetAgent(ctx context.Context, agentID string) (store.Agent, error) {
	a, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return store.Agent{}, err
	}
	if a == nil {
		return store.Agent{}, notFound("agent", agentID)
	}
	return *a, nil
}

// ListAgents returns the full roster.
func (s *Service) ListAgents(ctx context.Context) ([]store.Agent, error) {
	return s.store.ListAgents(ctx)
}

// UpdateAgentStatus sets the agent's status and current task and refreshes
// lastActive. Passing a nil currentTaskID clears the field.
func (s *Service) UpdateAgentStatus(ctx context.Context, agentID, status string, currentTaskID *int64) error {
	if agentID == "" {
		return invalid("agent_id", "must not be empty")
	}
	if !models.ValidAgentStatus(status) {
		return invalid("status", fmt.Sprintf("unknown agent status %q", status))
	}
	now := s.now()
	ok, err := s.store.UpdateAgentStatus(ctx, agentID, status, currentTaskID, now)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("agent", agentID)
	}
	s.emit(ctx, Event{
		Type:    models.ActivityAgentStatusChanged,
		Message: fmt.Sprintf("Agent status changed to %s", status),
		AgentID: &agentID,
		TaskID:  currentTaskID,
		At:      now,
	})
	return nil
}

// CreateTask creates a task in status inbox with the given assignees.
func (s *Service) CreateTask(ctx context.Context, title string, description *string, assigneeIDs []string) (int64, error) {
	if title == "" {
		return 0, invalid("title", "must not be empty")
	}
	now := s.now()
	id, err := s.store.CreateTask(ctx, title, description, assigneeIDs, now)
	if err != nil {
		return 0, err
	}
	s.emit(ctx, Event{
		Type:    models.ActivityTaskCreated,
		Message: fmt.Sprintf("Task created: %s", title),
		TaskID:  &id,
		At:      now,
	})
	return id, nil
}

// GetTask returns the task or a NotFoundError.
func (s *Service) GetTask(ctx context.Context, taskID int64) (store.Task, error) {
	t, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return store.Task{}, err
	}
	if t == nil {
		return store.Task{}, notFound("task", taskID)
	}
	return *t, nil
}

// ListTasks returns all tasks, newest first.
func (s *Service) ListTasks(ctx context.Context) ([]store.Task, error) {
	return s.store.ListTasks(ctx)
}

// ListTasksByAssignee returns the tasks whose assignee set contains agentID.
func (s *Service) ListTasksByAssignee(ctx context.Context, agentID string) ([]store.Task, error) {
	return s.store.ListTasksByAssignee(ctx, agentID)
}

// ListUnassignedTasks returns the tasks with an empty assignee set.
func (s *Service) ListUnassignedTasks(ctx context.Context) ([]store.Task, error) {
	return s.store.ListUnassignedTasks(ctx)
}

// StatusUpdate names the target task by either of two historically
// interchangeable fields. Exactly one must be set; ID wins when both are.
type StatusUpdate struct {
	ID     *int64
	TaskID *int64
	Status string
}

// UpdateTaskStatus sets the task's status and refreshes updatedAt. Any
// status may follow any other; there is no transition graph.
func (s *Service) UpdateTaskStatus(ctx context.Context, u StatusUpdate) error {
	target := u.ID
	if target == nil {
		target = u.TaskID
	}
	if target == nil {
		return invalid("task_id", "must not be empty")
	}
	if !models.ValidTaskStatus(u.Status) {
		return invalid("status", fmt.Sprintf("unknown task status %q", u.Status))
	}
	now := s.now()
	ok, err := s.store.UpdateTaskStatus(ctx, *target, u.Status, now)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("task", *target)
	}
	evType := models.ActivityTaskUpdated
	if u.Status == models.TaskStatusDone {
		evType = models.ActivityTaskCompleted
	}
	s.emit(ctx, Event{
		Type:    evType,
		Message: fmt.Sprintf("Task status changed to %s", u.Status),
		TaskID:  target,
		At:      now,
	})
	return nil
}

// AssignTask adds agentID to the task's assignee set and forces the status
// to assigned, regardless of how far along the task already was. Assigning
// the same agent twice is a no-op on the set but still refreshes updatedAt.
func (s *Service) AssignTask(ctx context.Context, taskID int64, agentID string) error {
	agent, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return err
	}
	if agent == nil {
		return notFound("agent", agentID)
	}
	now := s.now()
	ok, err := s.store.AssignTask(ctx, taskID, agentID, now)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("task", taskID)
	}
	s.emit(ctx, Event{
		Type:    models.ActivityTaskUpdated,
		Message: fmt.Sprintf("Task assigned to %s", agent.Name),
		AgentID: &agentID,
		TaskID:  &taskID,
		At:      now,
	})
	return nil
}

// PostMessage appends a message to the task's thread and fans out one
// notification per distinctly mentioned agent. The notification content is
// the full message text, not an excerpt. Unresolvable handles are dropped
// silently; an author who mentions their own name is notified like anyone
// else.
func (s *Service) PostMessage(ctx context.Context, taskID int64, fromAgentID, content string) (int64, error) {
	if content == "" {
		return 0, invalid("content", "must not be empty")
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return 0, err
	}
	if task == nil {
		return 0, notFound("task", taskID)
	}
	from, err := s.store.GetAgent(ctx, fromAgentID)
	if err != nil {
		return 0, err
	}
	if from == nil {
		return 0, notFound("agent", fromAgentID)
	}
	now := s.now()
	msgID, err := s.store.CreateMessage(ctx, taskID, fromAgentID, content, now)
	if err != nil {
		return 0, err
	}

	roster, err := s.store.ListAgents(ctx)
	if err != nil {
		return msgID, fmt.Errorf("list agents for mention fan-out: %w", err)
	}
	for _, mentioned := range ResolveMentions(content, roster) {
		if _, err := s.store.CreateNotification(ctx, mentioned.AgentID, content, &taskID, now); err != nil {
			return msgID, fmt.Errorf("notify %s: %w", mentioned.AgentID, err)
		}
	}

	s.emit(ctx, Event{
		Type:    models.ActivityMessageSent,
		Message: fmt.Sprintf("%s commented on %s", from.Name, task.Title),
		AgentID: &fromAgentID,
		TaskID:  &taskID,
		At:      now,
	})
	return msgID, nil
}

// ListMessagesByTask returns the task's thread in storage order.
func (s *Service) ListMessagesByTask(ctx context.Context, taskID int64) ([]store.Message, error) {
	return s.store.ListMessagesByTask(ctx, taskID)
}

// CreateNotification inserts a notification directly, outside the message
// fan-out path. The mentioned agent must exist; taskID, when given, must
// reference an existing task.
func (s *Service) CreateNotification(ctx context.Context, mentionedAgentID, content string, taskID *int64) (int64, error) {
	agent, err := s.store.GetAgent(ctx, mentionedAgentID)
	if err != nil {
		return 0, err
	}
	if agent == nil {
		return 0, notFound("agent", mentionedAgentID)
	}
	if taskID != nil {
		task, err := s.store.GetTask(ctx, *taskID)
		if err != nil {
			return 0, err
		}
		if task == nil {
			return 0, notFound("task", *taskID)
		}
	}
	return s.store.CreateNotification(ctx, mentionedAgentID, content, taskID, s.now())
}

// MarkNotificationDelivered flips delivered to true. Re-marking an already
// delivered notification succeeds without effect.
func (s *Service) MarkNotificationDelivered(ctx context.Context, notificationID int64) error {
	n, err := s.store.GetNotification(ctx, notificationID)
	if err != nil {
		return err
	}
	if n == nil {
		return notFound("notification", notificationID)
	}
	if n.Delivered {
		return nil
	}
	_, err = s.store.MarkNotificationDelivered(ctx, notificationID)
	return err
}

// ListPendingNotifications returns undelivered notifications, optionally
// filtered to one agent. An empty agentID means all agents.
func (s *Service) ListPendingNotifications(ctx context.Context, agentID string) ([]store.Notification, error) {
	return s.store.ListPendingNotifications(ctx, agentID)
}

// RecordActivity appends an entry to the activity log directly.
func (s *Service) RecordActivity(ctx context.Context, actType string, agentID *string, message string, taskID *int64) (int64, error) {
	if actType == "" {
		return 0, invalid("type", "must not be empty")
	}
	if message == "" {
		return 0, invalid("message", "must not be empty")
	}
	return s.store.CreateActivity(ctx, actType, agentID, message, taskID, s.now())
}

// RecentActivities returns the newest activity entries. A limit of zero or
// less means unbounded.
func (s *Service) RecentActivities(ctx context.Context, limit int) ([]store.Activity, error) {
	return s.store.RecentActivities(ctx, limit)
}

// CreateDocument stores a document, optionally attached to a task, and logs
// its creation.
func (s *Service) CreateDocument(ctx context.Context, title string, content *string, docType string, taskID *int64) (int64, error) {
	if title == "" {
		return 0, invalid("title", "must not be empty")
	}
	if docType == "" {
		docType = models.DocumentNote
	} else if !models.ValidDocumentType(docType) {
		return 0, invalid("type", fmt.Sprintf("unknown document type %q", docType))
	}
	now := s.now()
	id, err := s.store.CreateDocument(ctx, title, content, docType, taskID, now)
	if err != nil {
		return 0, err
	}
	s.emit(ctx, Event{
		Type:    models.ActivityDocumentCreated,
		Message: fmt.Sprintf("Document created: %s", title),
		TaskID:  taskID,
		At:      now,
	})
	return id, nil
}

// ListDocuments returns all documents, newest first.
func (s *Service) ListDocuments(ctx context.Context) ([]store.Document, error) {
	return s.store.ListDocuments(ctx)
}

// Standup is the read-only aggregate behind the standup report: everything
// that happened in the trailing 24 hours plus full task and agent state.
type Standup struct {
	Activities  []store.Activity
	Messages    []store.Message
	Tasks       []store.Task
	Agents      []store.Agent
	GeneratedAt time.Time
}

// StandupSummary assembles the standup aggregate as of the current clock
// reading. Activities and messages are sorted ascending by creation time.
func (s *Service) StandupSummary(ctx context.Context) (Standup, error) {
	now := s.now()
	since := now.Add(-24 * time.Hour)

	activities, err := s.store.ListActivitiesSince(ctx, since)
	if err != nil {
		return Standup{}, err
	}
	messages, err := s.store.ListMessagesSince(ctx, since)
	if err != nil {
		return Standup{}, err
	}
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return Standup{}, err
	}
	agents, err := s.store.ListAgents(ctx)
	if err != nil {
		return Standup{}, err
	}
	return Standup{
		Activities:  activities,
		Messages:    messages,
		Tasks:       tasks,
		Agents:      agents,
		GeneratedAt: now,
	}, nil
}
