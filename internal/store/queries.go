package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

func (s *sqliteStore) CreateAgent(ctx context.Context, name, role, sessionKey string, now time.Time) (Agent, error) {
	if name == "" {
		return Agent{}, errors.New("agent name required")
	}
	id := uuid.NewString()
	ts := now.UTC().Unix()
	_, err := s.DB.ExecContext(ctx, `INSERT INTO agents(agent_id, name, role, status, session_key, last_active, created_at) VALUES(?, ?, ?, 'idle', ?, ?, ?)`,
		id, name, role, sessionKey, ts, ts)
	if err != nil {
		return Agent{}, err
	}
	return Agent{
		AgentID:    id,
		Name:       name,
		Role:       role,
		Status:     "idle",
		SessionKey: sessionKey,
		LastActive: time.Unix(ts, 0).UTC(),
		CreatedAt:  time.Unix(ts, 0).UTC(),
	}, nil
}

func (s *sqliteStore) GetAgent(ctx context.Context, agentID string) (*Agent, error) {
	row := s.stmtGetAgent.QueryRowContext(ctx, agentID)
	a, err := scanAgentRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (s *sqliteStore) ListAgents(ctx context.Context) ([]Agent, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT agent_id, name, role, status, current_task_id, session_key, last_active, created_at FROM agents ORDER BY created_at ASC, agent_id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Agent
	for rows.Next() {
		a, err := scanAgentRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// UpdateAgentStatus sets status and current task (nil clears it) and refreshes
// last_active. Returns false when no agent matches.
func (s *sqliteStore) UpdateAgentStatus(ctx context.Context, agentID, status string, currentTaskID *int64, now time.Time) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `UPDATE agents SET status=?, current_task_id=?, last_active=? WHERE agent_id=?`,
		status, nullInt64(currentTaskID), now.UTC().Unix(), agentID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// scanAgentRow scans an agent row (columns: agent_id, name, role, status, current_task_id, session_key, last_active, created_at).
func scanAgentRow(row interface{ Scan(dest ...any) error }) (*Agent, error) {
	var (
		a          Agent
		taskID     sql.NullInt64
		lastActive int64
		createdAt  int64
	)
	if err := row.Scan(&a.AgentID, &a.Name, &a.Role, &a.Status, &taskID, &a.SessionKey, &lastActive, &createdAt); err != nil {
		return nil, err
	}
	if taskID.Valid {
		a.CurrentTaskID = &taskID.Int64
	}
	a.LastActive = time.Unix(lastActive, 0).UTC()
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &a, nil
}

func (s *sqliteStore) CreateTask(ctx context.Context, title string, description *string, assigneeIDs []string, now time.Time) (int64, error) {
	if title == "" {
		return 0, errors.New("title required")
	}
	ts := now.UTC().Unix()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO tasks(title, description, status, created_at, updated_at) VALUES(?, ?, 'inbox', ?, ?)`,
		title, nullString(description), ts, ts)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, agentID := range assigneeIDs {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO task_assignees(task_id, agent_id) VALUES(?, ?)`, id, agentID); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *sqliteStore) GetTask(ctx context.Context, taskID int64) (*Task, error) {
	row := s.stmtGetTask.QueryRowContext(ctx, taskID)
	t, err := scanTaskRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	assignees, err := s.taskAssignees(ctx, taskID)
	if err != nil {
		return nil, err
	}
	t.AssigneeIDs = assignees
	return t, nil
}

func (s *sqliteStore) ListTasks(ctx context.Context) ([]Task, error) {
	return s.listTasksWhere(ctx, ``)
}

func (s *sqliteStore) ListTasksByAssignee(ctx context.Context, agentID string) ([]Task, error) {
	return s.listTasksWhere(ctx, `WHERE EXISTS (SELECT 1 FROM task_assignees ta WHERE ta.task_id = t.task_id AND ta.agent_id = ?)`, agentID)
}

func (s *sqliteStore) ListUnassignedTasks(ctx context.Context) ([]Task, error) {
	return s.listTasksWhere(ctx, `WHERE NOT EXISTS (SELECT 1 FROM task_assignees ta WHERE ta.task_id = t.task_id)`)
}

func (s *sqliteStore) listTasksWhere(ctx context.Context, where string, args ...any) ([]Task, error) {
	q := `SELECT task_id, title, description, status, created_at, updated_at FROM tasks t ` + where + ` ORDER BY created_at DESC, task_id DESC`
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Task
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		assignees, err := s.taskAssignees(ctx, out[i].TaskID)
		if err != nil {
			return nil, err
		}
		out[i].AssigneeIDs = assignees
	}
	return out, nil
}

// scanTaskRow scans a task row (columns: task_id, title, description, status, created_at, updated_at).
func scanTaskRow(row interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		t           Task
		description sql.NullString
		createdAt   int64
		updatedAt   int64
	)
	if err := row.Scan(&t.TaskID, &t.Title, &description, &t.Status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		t.Description = &description.String
	}
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	t.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &t, nil
}

func (s *sqliteStore) taskAssignees(ctx context.Context, taskID int64) ([]string, error) {
	rows, err := s.stmtTaskAssignees.QueryContext(ctx, taskID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var agentID string
		if err := rows.Scan(&agentID); err != nil {
			return nil, err
		}
		out = append(out, agentID)
	}
	return out, rows.Err()
}

// UpdateTaskStatus sets status and refreshes updated_at. Returns false when no
// task matches. No transition graph is enforced; callers are trusted.
func (s *sqliteStore) UpdateTaskStatus(ctx context.Context, taskID int64, status string, now time.Time) (bool, error) {
	res, err := s.stmtTouchTaskStatus.ExecContext(ctx, status, now.UTC().Unix(), taskID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// AssignTask adds agentID to the task's assignee set (no-op when already
// present) and unconditionally sets status to assigned. Returns false when the
// task does not exist.
func (s *sqliteStore) AssignTask(ctx context.Context, taskID int64, agentID string, now time.Time) (bool, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO task_assignees(task_id, agent_id) VALUES(?, ?)`, taskID, agentID); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `UPDATE tasks SET status='assigned', updated_at=? WHERE task_id=?`, now.UTC().Unix(), taskID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}
	return true, tx.Commit()
}

func (s *sqliteStore) CreateMessage(ctx context.Context, taskID int64, fromAgentID, content string, now time.Time) (int64, error) {
	res, err := s.stmtInsertMessage.ExecContext(ctx, taskID, fromAgentID, content, now.UTC().Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *sqliteStore) ListMessagesByTask(ctx context.Context, taskID int64) ([]Message, error) {
	return s.listMessages(ctx, `WHERE task_id = ? ORDER BY message_id ASC`, taskID)
}

func (s *sqliteStore) ListMessagesSince(ctx context.Context, since time.Time) ([]Message, error) {
	return s.listMessages(ctx, `WHERE created_at >= ? ORDER BY created_at ASC, message_id ASC`, since.UTC().Unix())
}

func (s *sqliteStore) listMessages(ctx context.Context, tail string, args ...any) ([]Message, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT message_id, task_id, from_agent_id, content, created_at FROM messages `+tail, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Message
	for rows.Next() {
		var m Message
		var createdAt int64
		if err := rows.Scan(&m.MessageID, &m.TaskID, &m.FromAgentID, &m.Content, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *sqliteStore) CreateNotification(ctx context.Context, mentionedAgentID, content string, taskID *int64, now time.Time) (int64, error) {
	res, err := s.stmtInsertNotif.ExecContext(ctx, mentionedAgentID, content, nullInt64(taskID), now.UTC().Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *sqliteStore) GetNotification(ctx context.Context, notificationID int64) (*Notification, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT notification_id, mentioned_agent_id, content, task_id, delivered, created_at FROM notifications WHERE notification_id = ?`, notificationID)
	n, err := scanNotificationRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return n, nil
}

// MarkNotificationDelivered flips delivered to true. Re-marking an already
// delivered notification is a no-op that still reports success.
func (s *sqliteStore) MarkNotificationDelivered(ctx context.Context, notificationID int64) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `UPDATE notifications SET delivered=1 WHERE notification_id=?`, notificationID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *sqliteStore) ListPendingNotifications(ctx context.Context, agentID string) ([]Notification, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if agentID == "" {
		rows, err = s.stmtPendingNotifs.QueryContext(ctx)
	} else {
		rows, err = s.DB.QueryContext(ctx, `SELECT notification_id, mentioned_agent_id, content, task_id, delivered, created_at FROM notifications WHERE delivered = 0 AND mentioned_agent_id = ? ORDER BY created_at ASC, notification_id ASC`, agentID)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Notification
	for rows.Next() {
		n, err := scanNotificationRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func scanNotificationRow(row interface{ Scan(dest ...any) error }) (*Notification, error) {
	var (
		n         Notification
		taskID    sql.NullInt64
		delivered int
		createdAt int64
	)
	if err := row.Scan(&n.NotificationID, &n.MentionedAgentID, &n.Content, &taskID, &delivered, &createdAt); err != nil {
		return nil, err
	}
	if taskID.Valid {
		n.TaskID = &taskID.Int64
	}
	n.Delivered = delivered != 0
	n.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &n, nil
}

func (s *sqliteStore) CreateActivity(ctx context.Context, typ string, agentID *string, message string, taskID *int64, now time.Time) (int64, error) {
	res, err := s.stmtInsertActivity.ExecContext(ctx, typ, nullString(agentID), message, nullInt64(taskID), now.UTC().Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecentActivities returns activities newest first, truncated to limit when
// limit > 0.
func (s *sqliteStore) RecentActivities(ctx context.Context, limit int) ([]Activity, error) {
	q := `SELECT activity_id, type, agent_id, message, task_id, created_at FROM activities ORDER BY created_at DESC, activity_id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.listActivities(ctx, q, args...)
}

func (s *sqliteStore) ListActivitiesSince(ctx context.Context, since time.Time) ([]Activity, error) {
	return s.listActivities(ctx, `SELECT activity_id, type, agent_id, message, task_id, created_at FROM activities WHERE created_at >= ? ORDER BY created_at ASC, activity_id ASC`, since.UTC().Unix())
}

func (s *sqliteStore) listActivities(ctx context.Context, q string, args ...any) ([]Activity, error) {
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Activity
	for rows.Next() {
		var (
			a         Activity
			agentID   sql.NullString
			taskID    sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(&a.ActivityID, &a.Type, &agentID, &a.Message, &taskID, &createdAt); err != nil {
			return nil, err
		}
		if agentID.Valid {
			a.AgentID = &agentID.String
		}
		if taskID.Valid {
			a.TaskID = &taskID.Int64
		}
		a.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *sqliteStore) CreateDocument(ctx context.Context, title string, content *string, typ string, taskID *int64, now time.Time) (int64, error) {
	if title == "" {
		return 0, errors.New("title required")
	}
	if typ == "" {
		typ = "note"
	}
	res, err := s.DB.ExecContext(ctx, `INSERT INTO documents(title, content, type, task_id, created_at) VALUES(?, ?, ?, ?, ?)`,
		title, nullString(content), typ, nullInt64(taskID), now.UTC().Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *sqliteStore) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT document_id, title, content, type, task_id, created_at FROM documents ORDER BY created_at DESC, document_id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Document
	for rows.Next() {
		var (
			d         Document
			content   sql.NullString
			taskID    sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(&d.DocumentID, &d.Title, &content, &d.Type, &taskID, &createdAt); err != nil {
			return nil, err
		}
		if content.Valid {
			d.Content = &content.String
		}
		if taskID.Valid {
			d.TaskID = &taskID.Int64
		}
		d.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
