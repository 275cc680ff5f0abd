package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amittambulkar96/nexus/internal/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	home := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatal(err)
	}
	st, err := store.Open(home)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	clock := &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	svc := New(st, WithClock(clock.Now), WithHook(ActivityRecorder(st)))
	return svc, clock
}

func TestTaskLifecycle(t *testing.T) {
	t.Parallel()

	svc, clock := newTestService(t)
	ctx := context.Background()

	alice, err := svc.CreateAgent(ctx, "Alice", "engineer", "")
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	bob, _ := svc.CreateAgent(ctx, "Bob", "researcher", "")

	taskID, err := svc.CreateTask(ctx, "write the report", nil, nil)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	task, _ := svc.GetTask(ctx, taskID)
	if task.Status != "inbox" {
		t.Fatalf("new task status: got %q, want inbox", task.Status)
	}

	if err := svc.AssignTask(ctx, taskID, alice.AgentID); err != nil {
		t.Fatalf("AssignTask: %v", err)
	}
	task, _ = svc.GetTask(ctx, taskID)
	if task.Status != "assigned" {
		t.Fatalf("status after assign: got %q, want assigned", task.Status)
	}
	if len(task.AssigneeIDs) != 1 || task.AssigneeIDs[0] != alice.AgentID {
		t.Fatalf("assignees: got %v", task.AssigneeIDs)
	}

	clock.Advance(time.Minute)
	if err := svc.UpdateTaskStatus(ctx, StatusUpdate{TaskID: &taskID, Status: "in_progress"}); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}

	// Bob mentions Alice; she gets one pending notification carrying the
	// full message text.
	content := "@Alice the draft is ready for review"
	if _, err := svc.PostMessage(ctx, taskID, bob.AgentID, content); err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	pending, _ := svc.ListPendingNotifications(ctx, alice.AgentID)
	if len(pending) != 1 {
		t.Fatalf("pending for alice: got %d, want 1", len(pending))
	}
	n := pending[0]
	if n.Content != content || n.Delivered {
		t.Fatalf("notification: got %+v", n)
	}
	if n.TaskID == nil || *n.TaskID != taskID {
		t.Fatalf("notification task id: got %v", n.TaskID)
	}
	if bobPending, _ := svc.ListPendingNotifications(ctx, bob.AgentID); len(bobPending) != 0 {
		t.Fatalf("bob should have no notifications, got %d", len(bobPending))
	}

	if err := svc.MarkNotificationDelivered(ctx, n.NotificationID); err != nil {
		t.Fatalf("MarkNotificationDelivered: %v", err)
	}
	// Re-marking is a no-op, not an error.
	if err := svc.MarkNotificationDelivered(ctx, n.NotificationID); err != nil {
		t.Fatalf("repeat MarkNotificationDelivered: %v", err)
	}
	if pending, _ := svc.ListPendingNotifications(ctx, alice.AgentID); len(pending) != 0 {
		t.Fatalf("pending after delivery: got %d", len(pending))
	}

	if err := svc.UpdateTaskStatus(ctx, StatusUpdate{ID: &taskID, Status: "done"}); err != nil {
		t.Fatalf("UpdateTaskStatus done: %v", err)
	}

	// The hook recorded every step.
	acts, _ := svc.RecentActivities(ctx, 0)
	types := make(map[string]int)
	for _, a := range acts {
		types[a.Type]++
	}
	if types["task_created"] != 1 || types["task_completed"] != 1 || types["message_sent"] != 1 {
		t.Fatalf("activity types: got %v", types)
	}
	if types["task_updated"] != 2 { // assign + in_progress
		t.Fatalf("task_updated count: got %d, want 2", types["task_updated"])
	}
}

func TestUpdateTaskStatusTargets(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	id1, _ := svc.CreateTask(ctx, "first", nil, nil)
	id2, _ := svc.CreateTask(ctx, "second", nil, nil)

	// Both fields set: ID wins.
	if err := svc.UpdateTaskStatus(ctx, StatusUpdate{ID: &id1, TaskID: &id2, Status: "blocked"}); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	t1, _ := svc.GetTask(ctx, id1)
	t2, _ := svc.GetTask(ctx, id2)
	if t1.Status != "blocked" || t2.Status != "inbox" {
		t.Fatalf("ID should win over TaskID: t1=%s t2=%s", t1.Status, t2.Status)
	}

	err := svc.UpdateTaskStatus(ctx, StatusUpdate{Status: "done"})
	if !IsValidation(err) {
		t.Fatalf("no target: got %v, want validation error", err)
	}
	err = svc.UpdateTaskStatus(ctx, StatusUpdate{ID: &id1, Status: "bogus"})
	if !IsValidation(err) {
		t.Fatalf("bad status: got %v, want validation error", err)
	}
	missing := int64(9999)
	err = svc.UpdateTaskStatus(ctx, StatusUpdate{ID: &missing, Status: "done"})
	if !IsNotFound(err) {
		t.Fatalf("missing task: got %v, want not found", err)
	}
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateTask(ctx, "", nil, nil); !IsValidation(err) {
		t.Fatalf("empty title: got %v", err)
	}
	if _, err := svc.CreateAgent(ctx, "", "engineer", ""); !IsValidation(err) {
		t.Fatalf("empty agent name: got %v", err)
	}
	if err := svc.UpdateAgentStatus(ctx, "a1", "sleeping", nil); !IsValidation(err) {
		t.Fatalf("bad agent status: got %v", err)
	}
	if _, err := svc.CreateDocument(ctx, "x", nil, "memo", nil); !IsValidation(err) {
		t.Fatalf("bad document type: got %v", err)
	}
	if _, err := svc.RecordActivity(ctx, "", nil, "hi", nil); !IsValidation(err) {
		t.Fatalf("empty activity type: got %v", err)
	}

	alice, _ := svc.CreateAgent(ctx, "Alice", "engineer", "")
	id, _ := svc.CreateTask(ctx, "t", nil, nil)
	if _, err := svc.PostMessage(ctx, id, alice.AgentID, ""); !IsValidation(err) {
		t.Fatalf("empty content: got %v", err)
	}
}

func TestNotFoundErrors(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	alice, _ := svc.CreateAgent(ctx, "Alice", "engineer", "")
	id, _ := svc.CreateTask(ctx, "t", nil, nil)

	if _, err := svc.GetAgent(ctx, "nope"); !IsNotFound(err) {
		t.Fatalf("GetAgent: got %v", err)
	}
	if _, err := svc.GetTask(ctx, 9999); !IsNotFound(err) {
		t.Fatalf("GetTask: got %v", err)
	}
	if err := svc.AssignTask(ctx, id, "nope"); !IsNotFound(err) {
		t.Fatalf("assign missing agent: got %v", err)
	}
	if err := svc.AssignTask(ctx, 9999, alice.AgentID); !IsNotFound(err) {
		t.Fatalf("assign missing task: got %v", err)
	}
	if _, err := svc.PostMessage(ctx, 9999, alice.AgentID, "hi"); !IsNotFound(err) {
		t.Fatalf("post to missing task: got %v", err)
	}
	if _, err := svc.PostMessage(ctx, id, "nope", "hi"); !IsNotFound(err) {
		t.Fatalf("post from missing agent: got %v", err)
	}
	if err := svc.MarkNotificationDelivered(ctx, 9999); !IsNotFound(err) {
		t.Fatalf("deliver missing notification: got %v", err)
	}
	missing := int64(9999)
	if _, err := svc.CreateNotification(ctx, alice.AgentID, "x", &missing); !IsNotFound(err) {
		t.Fatalf("notification for missing task: got %v", err)
	}
	if _, err := svc.CreateNotification(ctx, "nope", "x", nil); !IsNotFound(err) {
		t.Fatalf("notification for missing agent: got %v", err)
	}
}

func TestPostMessageMentionFanOut(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	alice, _ := svc.CreateAgent(ctx, "Alice", "engineer", "")
	bob, _ := svc.CreateAgent(ctx, "Bob", "researcher", "")
	id, _ := svc.CreateTask(ctx, "t", nil, nil)

	// Case variants of the same name produce a single notification.
	if _, err := svc.PostMessage(ctx, id, bob.AgentID, "@Alice @alice @ALICE ping"); err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	pending, _ := svc.ListPendingNotifications(ctx, alice.AgentID)
	if len(pending) != 1 {
		t.Fatalf("pending: got %d, want 1", len(pending))
	}

	// Unknown handles are dropped without error.
	if _, err := svc.PostMessage(ctx, id, bob.AgentID, "@Carol are you there"); err != nil {
		t.Fatalf("PostMessage unknown handle: %v", err)
	}
	if all, _ := svc.ListPendingNotifications(ctx, ""); len(all) != 1 {
		t.Fatalf("unknown handle should not notify: got %d", len(all))
	}

	// Mentioning yourself still notifies you.
	if _, err := svc.PostMessage(ctx, id, bob.AgentID, "note to self @Bob"); err != nil {
		t.Fatalf("PostMessage self mention: %v", err)
	}
	if mine, _ := svc.ListPendingNotifications(ctx, bob.AgentID); len(mine) != 1 {
		t.Fatalf("self mention: got %d notifications, want 1", len(mine))
	}
}

func TestCreateDocumentDefaults(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateDocument(ctx, "untyped", nil, "", nil); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	docs, _ := svc.ListDocuments(ctx)
	if len(docs) != 1 || docs[0].Type != "note" {
		t.Fatalf("default type: got %+v", docs)
	}
	if _, err := svc.CreateDocument(ctx, "", nil, "note", nil); !IsValidation(err) {
		t.Fatalf("empty title: got %v", err)
	}
}

func TestStandupSummary(t *testing.T) {
	t.Parallel()

	svc, clock := newTestService(t)
	ctx := context.Background()

	alice, _ := svc.CreateAgent(ctx, "Alice", "engineer", "")
	id, _ := svc.CreateTask(ctx, "old work", nil, nil)
	if _, err := svc.PostMessage(ctx, id, alice.AgentID, "yesterday's note"); err != nil {
		t.Fatalf("PostMessage: %v", err)
	}

	// Move past the 24h window, then generate fresh traffic.
	clock.Advance(30 * time.Hour)
	id2, _ := svc.CreateTask(ctx, "new work", nil, nil)
	if _, err := svc.PostMessage(ctx, id2, alice.AgentID, "today's note"); err != nil {
		t.Fatalf("PostMessage: %v", err)
	}

	sum, err := svc.StandupSummary(ctx)
	if err != nil {
		t.Fatalf("StandupSummary: %v", err)
	}
	if !sum.GeneratedAt.Equal(clock.Now()) {
		t.Fatalf("GeneratedAt: got %v, want %v", sum.GeneratedAt, clock.Now())
	}
	if len(sum.Messages) != 1 || sum.Messages[0].Content != "today's note" {
		t.Fatalf("window messages: got %+v", sum.Messages)
	}
	for _, a := range sum.Activities {
		if a.CreatedAt.Before(clock.Now().Add(-24 * time.Hour)) {
			t.Fatalf("activity outside window: %+v", a)
		}
	}
	// Tasks and agents are full state, not windowed.
	if len(sum.Tasks) != 2 || len(sum.Agents) != 1 {
		t.Fatalf("tasks=%d agents=%d, want 2 and 1", len(sum.Tasks), len(sum.Agents))
	}
}
