package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestServerSmoke(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	app, err := NewApp(ServerOptions{Home: home, Addr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	ts := httptest.NewServer(app.Server.Handler)
	t.Cleanup(ts.Close)

	// health
	r1, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	if r1.StatusCode != 200 {
		t.Fatalf("/health status=%d", r1.StatusCode)
	}

	// create agent
	resp, err := http.Post(ts.URL+"/agents", "application/json", strings.NewReader(`{"name":"Alice","role":"engineer"}`))
	if err != nil {
		t.Fatalf("POST /agents: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("POST /agents status=%d", resp.StatusCode)
	}
	var agent struct {
		AgentID string `json:"agent_id"`
		Status  string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&agent); err != nil {
		t.Fatalf("decode agent: %v", err)
	}
	if agent.AgentID == "" || agent.Status != "idle" {
		t.Fatalf("agent: got %+v", agent)
	}

	// list agents
	r2, err := http.Get(ts.URL + "/agents")
	if err != nil {
		t.Fatalf("GET /agents: %v", err)
	}
	var agents []any
	if err := json.NewDecoder(r2.Body).Decode(&agents); err != nil {
		t.Fatalf("decode /agents: %v", err)
	}
	if len(agents) == 0 {
		t.Fatalf("expected agents")
	}

	// SSE should produce initial connected event quickly.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, "GET", ts.URL+"/stream", nil)
	sseResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /stream: %v", err)
	}
	defer func() { _ = sseResp.Body.Close() }()

	sc := bufio.NewScanner(sseResp.Body)
	found := false
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "data: ") && strings.Contains(line, `"type":"connected"`) {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("did not see connected event")
	}

	// JSON error on not found
	r3, _ := http.Get(ts.URL + "/agents/nonexistent")
	if r3.StatusCode != 404 {
		t.Fatalf("GET /agents/nonexistent status=%d", r3.StatusCode)
	}
	var errBody struct{ Error string }
	if err := json.NewDecoder(r3.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errBody.Error == "" {
		t.Fatalf("expected error message in JSON")
	}

	// create task, GET by id, PATCH
	idResp, _ := http.Post(ts.URL+"/tasks", "application/json", strings.NewReader(`{"title":"test task"}`))
	if idResp.StatusCode != 200 {
		t.Fatalf("POST /tasks status=%d", idResp.StatusCode)
	}
	var createResp struct {
		TaskID int64 `json:"task_id"`
	}
	if err := json.NewDecoder(idResp.Body).Decode(&createResp); err != nil {
		t.Fatalf("decode task_id: %v", err)
	}
	getOne, _ := http.Get(fmt.Sprintf("%s/tasks/%d", ts.URL, createResp.TaskID))
	if getOne.StatusCode != 200 {
		t.Fatalf("GET task by id status=%d", getOne.StatusCode)
	}
	var task map[string]any
	if err := json.NewDecoder(getOne.Body).Decode(&task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if task["title"] != "test task" || task["status"] != "inbox" {
		t.Fatalf("task: got %v", task)
	}
	patchReq, _ := http.NewRequest("PATCH", fmt.Sprintf("%s/tasks/%d", ts.URL, createResp.TaskID),
		strings.NewReader(`{"status":"in_progress"}`))
	patchResp, _ := http.DefaultClient.Do(patchReq)
	if patchResp.StatusCode != 200 {
		t.Fatalf("PATCH task status=%d", patchResp.StatusCode)
	}
	getAgain, _ := http.Get(fmt.Sprintf("%s/tasks/%d", ts.URL, createResp.TaskID))
	var updated map[string]any
	if err := json.NewDecoder(getAgain.Body).Decode(&updated); err != nil {
		t.Fatalf("decode updated task: %v", err)
	}
	if updated["status"] != "in_progress" {
		t.Fatalf("updated task: got %v", updated)
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	app, err := NewApp(ServerOptions{Home: home, Addr: "127.0.0.1:0", APIKey: "sekrit"})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	ts := httptest.NewServer(app.Server.Handler)
	t.Cleanup(ts.Close)

	// health is exempt
	if r, _ := http.Get(ts.URL + "/health"); r.StatusCode != 200 {
		t.Fatalf("/health without key status=%d", r.StatusCode)
	}
	// everything else is not
	if r, _ := http.Get(ts.URL + "/tasks"); r.StatusCode != 401 {
		t.Fatalf("/tasks without key status=%d", r.StatusCode)
	}
	req, _ := http.NewRequest("GET", ts.URL+"/tasks", nil)
	req.Header.Set("X-API-Key", "sekrit")
	if r, _ := http.DefaultClient.Do(req); r.StatusCode != 200 {
		t.Fatalf("/tasks with header key failed")
	}
	// query param fallback
	if r, _ := http.Get(ts.URL + "/tasks?api_key=sekrit"); r.StatusCode != 200 {
		t.Fatalf("/tasks with query key failed")
	}
	if r, _ := http.Get(ts.URL + "/tasks?api_key=wrong"); r.StatusCode != 401 {
		t.Fatalf("/tasks with wrong key status should be 401")
	}
}
