package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/amittambulkar96/nexus/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (s *Store) CreateAgent(ctx context.Context, name, role, sessionKey string, now time.Time) (store.Agent, error) {
	if name == "" {
		return store.Agent{}, errors.New("agent name required")
	}
	id := uuid.NewString()
	ts := now.UTC().Unix()
	_, err := s.Pool.Exec(ctx, `INSERT INTO agents(agent_id, name, role, status, session_key, last_active, created_at) VALUES($1, $2, $3, 'idle', $4, $5, $6)`,
		id, name, role, sessionKey, ts, ts)
	if err != nil {
		return store.Agent{}, err
	}
	return store.Agent{
		AgentID:    id,
		Name:       name,
		Role:       role,
		Status:     "idle",
		SessionKey: sessionKey,
		LastActive: time.Unix(ts, 0).UTC(),
		CreatedAt:  time.Unix(ts, 0).UTC(),
	}, nil
}

func (s *Store) GetAgent(ctx context.Context, agentID string) (*store.Agent, error) {
	row := s.Pool.QueryRow(ctx, `SELECT agent_id, name, role, status, current_task_id, session_key, last_active, created_at FROM agents WHERE agent_id = $1`, agentID)
	a, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (s *Store) ListAgents(ctx context.Context) ([]store.Agent, error) {
	rows, err := s.Pool.Query(ctx, `SELECT agent_id, name, role, status, current_task_id, session_key, last_active, created_at FROM agents ORDER BY created_at ASC, agent_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAgentStatus(ctx context.Context, agentID, status string, currentTaskID *int64, now time.Time) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `UPDATE agents SET status=$1, current_task_id=$2, last_active=$3 WHERE agent_id=$4`,
		status, currentTaskID, now.UTC().Unix(), agentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanAgent(row pgx.Row) (*store.Agent, error) {
	var (
		a          store.Agent
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

func (s *Store) CreateTask(ctx context.Context, title string, description *string, assigneeIDs []string, now time.Time) (int64, error) {
	if title == "" {
		return 0, errors.New("title required")
	}
	ts := now.UTC().Unix()
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, `INSERT INTO tasks(title, description, status, created_at, updated_at) VALUES($1, $2, 'inbox', $3, $4) RETURNING task_id`,
		title, description, ts, ts).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, agentID := range assigneeIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO task_assignees(task_id, agent_id) VALUES($1, $2) ON CONFLICT DO NOTHING`, id, agentID); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) GetTask(ctx context.Context, taskID int64) (*store.Task, error) {
	row := s.Pool.QueryRow(ctx, `SELECT task_id, title, description, status, created_at, updated_at FROM tasks WHERE task_id = $1`, taskID)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

func (s *Store) ListTasks(ctx context.Context) ([]store.Task, error) {
	return s.listTasksWhere(ctx, ``)
}

func (s *Store) ListTasksByAssignee(ctx context.Context, agentID string) ([]store.Task, error) {
	return s.listTasksWhere(ctx, `WHERE EXISTS (SELECT 1 FROM task_assignees ta WHERE ta.task_id = t.task_id AND ta.agent_id = $1)`, agentID)
}

func (s *Store) ListUnassignedTasks(ctx context.Context) ([]store.Task, error) {
	return s.listTasksWhere(ctx, `WHERE NOT EXISTS (SELECT 1 FROM task_assignees ta WHERE ta.task_id = t.task_id)`)
}

func (s *Store) listTasksWhere(ctx context.Context, where string, args ...any) ([]store.Task, error) {
	q := `SELECT task_id, title, description, status, created_at, updated_at FROM tasks t ` + where + ` ORDER BY created_at DESC, task_id DESC`
	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Task
	for rows.Next() {
		t, err := scanTask(rows)
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

func scanTask(row pgx.Row) (*store.Task, error) {
	var (
		t           store.Task
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

func (s *Store) taskAssignees(ctx context.Context, taskID int64) ([]string, error) {
	rows, err := s.Pool.Query(ctx, `SELECT agent_id FROM task_assignees WHERE task_id = $1 ORDER BY position ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
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

func (s *Store) UpdateTaskStatus(ctx context.Context, taskID int64, status string, now time.Time) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `UPDATE tasks SET status=$1, updated_at=$2 WHERE task_id=$3`, status, now.UTC().Unix(), taskID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) AssignTask(ctx context.Context, taskID int64, agentID string, now time.Time) (bool, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `INSERT INTO task_assignees(task_id, agent_id) VALUES($1, $2) ON CONFLICT DO NOTHING`, taskID, agentID); err != nil {
		return false, err
	}
	tag, err := tx.Exec(ctx, `UPDATE tasks SET status='assigned', updated_at=$1 WHERE task_id=$2`, now.UTC().Unix(), taskID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	return true, tx.Commit(ctx)
}

func (s *Store) CreateMessage(ctx context.Context, taskID int64, fromAgentID, content string, now time.Time) (int64, error) {
	var id int64
	err := s.Pool.QueryRow(ctx, `INSERT INTO messages(task_id, from_agent_id, content, created_at) VALUES($1, $2, $3, $4) RETURNING message_id`,
		taskID, fromAgentID, content, now.UTC().Unix()).Scan(&id)
	return id, err
}

func (s *Store) ListMessagesByTask(ctx context.Context, taskID int64) ([]store.Message, error) {
	return s.listMessages(ctx, `WHERE task_id = $1 ORDER BY message_id ASC`, taskID)
}

func (s *Store) ListMessagesSince(ctx context.Context, since time.Time) ([]store.Message, error) {
	return s.listMessages(ctx, `WHERE created_at >= $1 ORDER BY created_at ASC, message_id ASC`, since.UTC().Unix())
}

func (s *Store) listMessages(ctx context.Context, tail string, args ...any) ([]store.Message, error) {
	rows, err := s.Pool.Query(ctx, `SELECT message_id, task_id, from_agent_id, content, created_at FROM messages `+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Message
	for rows.Next() {
		var m store.Message
		var createdAt int64
		if err := rows.Scan(&m.MessageID, &m.TaskID, &m.FromAgentID, &m.Content, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) CreateNotification(ctx context.Context, mentionedAgentID, content string, taskID *int64, now time.Time) (int64, error) {
	var id int64
	err := s.Pool.QueryRow(ctx, `INSERT INTO notifications(mentioned_agent_id, content, task_id, delivered, created_at) VALUES($1, $2, $3, FALSE, $4) RETURNING notification_id`,
		mentionedAgentID, content, taskID, now.UTC().Unix()).Scan(&id)
	return id, err
}

func (s *Store) GetNotification(ctx context.Context, notificationID int64) (*store.Notification, error) {
	row := s.Pool.QueryRow(ctx, `SELECT notification_id, mentioned_agent_id, content, task_id, delivered, created_at FROM notifications WHERE notification_id = $1`, notificationID)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return n, nil
}

func (s *Store) MarkNotificationDelivered(ctx context.Context, notificationID int64) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `UPDATE notifications SET delivered=TRUE WHERE notification_id=$1`, notificationID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListPendingNotifications(ctx context.Context, agentID string) ([]store.Notification, error) {
	q := `SELECT notification_id, mentioned_agent_id, content, task_id, delivered, created_at FROM notifications WHERE delivered = FALSE`
	args := []any{}
	if agentID != "" {
		q += ` AND mentioned_agent_id = $1`
		args = append(args, agentID)
	}
	q += ` ORDER BY created_at ASC, notification_id ASC`
	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func scanNotification(row pgx.Row) (*store.Notification, error) {
	var (
		n         store.Notification
		taskID    sql.NullInt64
		createdAt int64
	)
	if err := row.Scan(&n.NotificationID, &n.MentionedAgentID, &n.Content, &taskID, &n.Delivered, &createdAt); err != nil {
		return nil, err
	}
	if taskID.Valid {
		n.TaskID = &taskID.Int64
	}
	n.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &n, nil
}

func (s *Store) CreateActivity(ctx context.Context, typ string, agentID *string, message string, taskID *int64, now time.Time) (int64, error) {
	var id int64
	err := s.Pool.QueryRow(ctx, `INSERT INTO activities(type, agent_id, message, task_id, created_at) VALUES($1, $2, $3, $4, $5) RETURNING activity_id`,
		typ, agentID, message, taskID, now.UTC().Unix()).Scan(&id)
	return id, err
}

func (s *Store) RecentActivities(ctx context.Context, limit int) ([]store.Activity, error) {
	q := `SELECT activity_id, type, agent_id, message, task_id, created_at FROM activities ORDER BY created_at DESC, activity_id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	return s.listActivities(ctx, q, args...)
}

func (s *Store) ListActivitiesSince(ctx context.Context, since time.Time) ([]store.Activity, error) {
	return s.listActivities(ctx, `SELECT activity_id, type, agent_id, message, task_id, created_at FROM activities WHERE created_at >= $1 ORDER BY created_at ASC, activity_id ASC`, since.UTC().Unix())
}

func (s *Store) listActivities(ctx context.Context, q string, args ...any) ([]store.Activity, error) {
	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Activity
	for rows.Next() {
		var (
			a         store.Activity
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

func (s *Store) CreateDocument(ctx context.Context, title string, content *string, typ string, taskID *int64, now time.Time) (int64, error) {
	if title == "" {
		return 0, errors.New("title required")
	}
	if typ == "" {
		typ = "note"
	}
	var id int64
	err := s.Pool.QueryRow(ctx, `INSERT INTO documents(title, content, type, task_id, created_at) VALUES($1, $2, $3, $4, $5) RETURNING document_id`,
		title, content, typ, taskID, now.UTC().Unix()).Scan(&id)
	return id, err
}

func (s *Store) ListDocuments(ctx context.Context) ([]store.Document, error) {
	rows, err := s.Pool.Query(ctx, `SELECT document_id, title, content, type, task_id, created_at FROM documents ORDER BY created_at DESC, document_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []store.Document
	for rows.Next() {
		var (
			d         store.Document
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
