// Package client provides a Go SDK for the Nexus HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/amittambulkar96/nexus/pkg/models"
)

// Client calls the Nexus HTTP API. It is safe for concurrent use.
type Client struct {
	BaseURL    string       // e.g. "http://localhost:3649"
	APIKey     string       // optional; set for X-API-Key / api_key
	HTTPClient *http.Client // optional; nil uses http.DefaultClient
}

// New returns a client for the given base URL (e.g. "http://localhost:3649").
// APIKey is optional; when set, requests use X-API-Key header and optionally api_key query.
func New(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey}
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}
	u := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	return c.client().Do(req)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error != "" {
			return fmt.Errorf("api %s %s: %s", method, path, errBody.Error)
		}
		return fmt.Errorf("api %s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Health returns the /health response (ok: true).
func (c *Client) Health(ctx context.Context) (ok bool, err error) {
	var out struct {
		OK bool `json:"ok"`
	}
	err = c.doJSON(ctx, http.MethodGet, "/health", nil, &out)
	return out.OK, err
}

// Config returns the /config response.
func (c *Client) Config(ctx context.Context) (*models.Config, error) {
	var out models.Config
	err := c.doJSON(ctx, http.MethodGet, "/config", nil, &out)
	return &out, err
}

// Bootstrap returns the full /bootstrap payload.
func (c *Client) Bootstrap(ctx context.Context) (*models.Bootstrap, error) {
	var out models.Bootstrap
	err := c.doJSON(ctx, http.MethodGet, "/bootstrap", nil, &out)
	return &out, err
}

// ListAgents returns the full agent roster.
func (c *Client) ListAgents(ctx context.Context) ([]models.Agent, error) {
	var out []models.Agent
	err := c.doJSON(ctx, http.MethodGet, "/agents", nil, &out)
	return out, err
}

// CreateAgent registers an agent and returns it.
func (c *Client) CreateAgent(ctx context.Context, name, role, sessionKey string) (*models.Agent, error) {
	body := map[string]string{"name": name, "role": role, "session_key": sessionKey}
	var out models.Agent
	err := c.doJSON(ctx, http.MethodPost, "/agents", body, &out)
	return &out, err
}

// GetAgent returns an agent by ID.
func (c *Client) GetAgent(ctx context.Context, agentID string) (*models.Agent, error) {
	var out models.Agent
	err := c.doJSON(ctx, http.MethodGet, "/agents/"+url.PathEscape(agentID), nil, &out)
	return &out, err
}

// UpdateAgentStatus sets an agent's status and current task (nil clears it).
func (c *Client) UpdateAgentStatus(ctx context.Context, agentID, status string, currentTaskID *int64) error {
	body := map[string]any{"status": status}
	if currentTaskID != nil {
		body["current_task_id"] = *currentTaskID
	}
	return c.doJSON(ctx, http.MethodPatch, "/agents/"+url.PathEscape(agentID), body, nil)
}

// ListTasksByAssignee returns the tasks assigned to an agent.
func (c *Client) ListTasksByAssignee(ctx context.Context, agentID string) ([]models.Task, error) {
	var out []models.Task
	err := c.doJSON(ctx, http.MethodGet, "/agents/"+url.PathEscape(agentID)+"/tasks", nil, &out)
	return out, err
}

// ListAgentNotifications returns an agent's pending notifications.
func (c *Client) ListAgentNotifications(ctx context.Context, agentID string) ([]models.Notification, error) {
	var out []models.Notification
	err := c.doJSON(ctx, http.MethodGet, "/agents/"+url.PathEscape(agentID)+"/notifications", nil, &out)
	return out, err
}

// ListTasks returns all tasks, newest first.
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var out []models.Task
	err := c.doJSON(ctx, http.MethodGet, "/tasks", nil, &out)
	return out, err
}

// ListUnassignedTasks returns the tasks with no assignees.
func (c *Client) ListUnassignedTasks(ctx context.Context) ([]models.Task, error) {
	var out []models.Task
	err := c.doJSON(ctx, http.MethodGet, "/tasks/unassigned", nil, &out)
	return out, err
}

// CreateTask creates a task and returns the task_id.
func (c *Client) CreateTask(ctx context.Context, title string, description *string, assigneeIDs []string) (taskID int64, err error) {
	body := map[string]any{"title": title}
	if description != nil {
		body["description"] = *description
	}
	if len(assigneeIDs) > 0 {
		body["assignee_ids"] = assigneeIDs
	}
	var out struct {
		TaskID int64 `json:"task_id"`
	}
	err = c.doJSON(ctx, http.MethodPost, "/tasks", body, &out)
	return out.TaskID, err
}

// GetTask returns a task by ID.
func (c *Client) GetTask(ctx context.Context, taskID int64) (*models.Task, error) {
	var out models.Task
	err := c.doJSON(ctx, http.MethodGet, "/tasks/"+strconv.FormatInt(taskID, 10), nil, &out)
	return &out, err
}

// UpdateTaskStatus sets a task's status.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID int64, status string) error {
	body := map[string]string{"status": status}
	return c.doJSON(ctx, http.MethodPatch, "/tasks/"+strconv.FormatInt(taskID, 10), body, nil)
}

// AssignTask assigns a task to an agent (status becomes assigned).
func (c *Client) AssignTask(ctx context.Context, taskID int64, agentID string) error {
	body := map[string]string{"agent_id": agentID}
	return c.doJSON(ctx, http.MethodPost, "/tasks/"+strconv.FormatInt(taskID, 10)+"/assign", body, nil)
}

// ListMessages returns a task's comment thread.
func (c *Client) ListMessages(ctx context.Context, taskID int64) ([]models.Message, error) {
	var out []models.Message
	err := c.doJSON(ctx, http.MethodGet, "/tasks/"+strconv.FormatInt(taskID, 10)+"/messages", nil, &out)
	return out, err
}

// PostMessage posts a comment on a task and returns the message_id.
// Mentioned agents (@name) receive notifications.
func (c *Client) PostMessage(ctx context.Context, taskID int64, fromAgentID, content string) (messageID int64, err error) {
	body := map[string]string{"from_agent_id": fromAgentID, "content": content}
	var out struct {
		MessageID int64 `json:"message_id"`
	}
	err = c.doJSON(ctx, http.MethodPost, "/tasks/"+strconv.FormatInt(taskID, 10)+"/messages", body, &out)
	return out.MessageID, err
}

// ListPendingNotifications returns undelivered notifications, optionally for one agent.
func (c *Client) ListPendingNotifications(ctx context.Context, agentID string) ([]models.Notification, error) {
	path := "/notifications"
	if agentID != "" {
		path += "?agent_id=" + url.QueryEscape(agentID)
	}
	var out []models.Notification
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// CreateNotification inserts a notification directly and returns its ID.
func (c *Client) CreateNotification(ctx context.Context, mentionedAgentID, content string, taskID *int64) (int64, error) {
	body := map[string]any{"mentioned_agent_id": mentionedAgentID, "content": content}
	if taskID != nil {
		body["task_id"] = *taskID
	}
	var out struct {
		NotificationID int64 `json:"notification_id"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/notifications", body, &out)
	return out.NotificationID, err
}

// MarkNotificationDelivered acknowledges a notification.
func (c *Client) MarkNotificationDelivered(ctx context.Context, notificationID int64) error {
	return c.doJSON(ctx, http.MethodPost, "/notifications/"+strconv.FormatInt(notificationID, 10)+"/delivered", nil, nil)
}

// RecentActivities returns the newest activity entries (limit 0 = server default).
func (c *Client) RecentActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	path := "/activities"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []models.Activity
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// RecordActivity appends an activity entry and returns its ID.
func (c *Client) RecordActivity(ctx context.Context, typ string, agentID *string, message string, taskID *int64) (int64, error) {
	body := map[string]any{"type": typ, "message": message}
	if agentID != nil {
		body["agent_id"] = *agentID
	}
	if taskID != nil {
		body["task_id"] = *taskID
	}
	var out struct {
		ActivityID int64 `json:"activity_id"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/activities", body, &out)
	return out.ActivityID, err
}

// ListDocuments returns all documents, newest first.
func (c *Client) ListDocuments(ctx context.Context) ([]models.Document, error) {
	var out []models.Document
	err := c.doJSON(ctx, http.MethodGet, "/documents", nil, &out)
	return out, err
}

// CreateDocument stores a document and returns the document_id.
func (c *Client) CreateDocument(ctx context.Context, title string, content *string, docType string, taskID *int64) (int64, error) {
	body := map[string]any{"title": title, "type": docType}
	if content != nil {
		body["content"] = *content
	}
	if taskID != nil {
		body["task_id"] = *taskID
	}
	var out struct {
		DocumentID int64 `json:"document_id"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/documents", body, &out)
	return out.DocumentID, err
}

// Standup returns the standup aggregate (trailing 24h plus full task/agent state).
func (c *Client) Standup(ctx context.Context) (*models.Standup, error) {
	var out models.Standup
	err := c.doJSON(ctx, http.MethodGet, "/standup", nil, &out)
	return &out, err
}
