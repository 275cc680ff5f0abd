package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amittambulkar96/nexus/pkg/models"
)

// TestHandlers exercises many server routes to improve coverage of server.go.
func TestHandlers(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	app, err := NewApp(ServerOptions{Home: home, Addr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	ts := httptest.NewServer(app.Server.Handler)
	t.Cleanup(ts.Close)

	// POST task with empty title
	resp, _ := http.Post(ts.URL+"/tasks", "application/json", strings.NewReader(`{"title":""}`))
	if resp != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if resp != nil && resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("POST /tasks empty title: status=%d", resp.StatusCode)
	}

	// Create agents and a task for sub-routes
	var alice, bob models.Agent
	aliceResp, _ := http.Post(ts.URL+"/agents", "application/json", strings.NewReader(`{"name":"Alice","role":"engineer"}`))
	_ = json.NewDecoder(aliceResp.Body).Decode(&alice)
	_ = aliceResp.Body.Close()
	bobResp, _ := http.Post(ts.URL+"/agents", "application/json", strings.NewReader(`{"name":"Bob","role":"researcher"}`))
	_ = json.NewDecoder(bobResp.Body).Decode(&bob)
	_ = bobResp.Body.Close()
	if alice.AgentID == "" || bob.AgentID == "" {
		t.Fatal("expected agent ids from POST /agents")
	}

	taskResp, _ := http.Post(ts.URL+"/tasks", "application/json", strings.NewReader(`{"title":"t1"}`))
	var taskBody struct {
		TaskID int64 `json:"task_id"`
	}
	_ = json.NewDecoder(taskResp.Body).Decode(&taskBody)
	_ = taskResp.Body.Close()
	taskID := taskBody.TaskID
	if taskID == 0 {
		t.Fatal("expected non-zero task_id from POST task")
	}

	// Unassigned partition before/after assign
	unResp, _ := http.Get(ts.URL + "/tasks/unassigned")
	var unassigned []models.Task
	_ = json.NewDecoder(unResp.Body).Decode(&unassigned)
	_ = unResp.Body.Close()
	if len(unassigned) != 1 {
		t.Fatalf("unassigned before assign: got %d", len(unassigned))
	}

	assignBody := fmt.Sprintf(`{"agent_id":%q}`, alice.AgentID)
	assignResp, _ := http.Post(fmt.Sprintf("%s/tasks/%d/assign", ts.URL, taskID), "application/json", strings.NewReader(assignBody))
	if assignResp.StatusCode != http.StatusOK {
		t.Fatalf("POST assign: %d", assignResp.StatusCode)
	}
	_ = assignResp.Body.Close()

	unResp2, _ := http.Get(ts.URL + "/tasks/unassigned")
	var unassigned2 []models.Task
	_ = json.NewDecoder(unResp2.Body).Decode(&unassigned2)
	_ = unResp2.Body.Close()
	if len(unassigned2) != 0 {
		t.Fatalf("unassigned after assign: got %d", len(unassigned2))
	}

	mineResp, _ := http.Get(ts.URL + "/agents/" + alice.AgentID + "/tasks")
	var mine []models.Task
	_ = json.NewDecoder(mineResp.Body).Decode(&mine)
	_ = mineResp.Body.Close()
	if len(mine) != 1 || mine[0].Status != "assigned" {
		t.Fatalf("tasks for alice: got %+v", mine)
	}

	// Assigning a nonexistent agent is a 404
	badAssign, _ := http.Post(fmt.Sprintf("%s/tasks/%d/assign", ts.URL, taskID), "application/json", strings.NewReader(`{"agent_id":"nope"}`))
	if badAssign.StatusCode != http.StatusNotFound {
		t.Fatalf("assign missing agent: %d", badAssign.StatusCode)
	}
	_ = badAssign.Body.Close()

	// Message with a mention fans out to a notification
	msgBody := fmt.Sprintf(`{"from_agent_id":%q,"content":"@Alice please review"}`, bob.AgentID)
	msgResp, _ := http.Post(fmt.Sprintf("%s/tasks/%d/messages", ts.URL, taskID), "application/json", strings.NewReader(msgBody))
	if msgResp.StatusCode != http.StatusOK {
		t.Fatalf("POST message: %d", msgResp.StatusCode)
	}
	_ = msgResp.Body.Close()

	listMsgs, _ := http.Get(fmt.Sprintf("%s/tasks/%d/messages", ts.URL, taskID))
	var msgs []models.Message
	_ = json.NewDecoder(listMsgs.Body).Decode(&msgs)
	_ = listMsgs.Body.Close()
	if len(msgs) != 1 || msgs[0].Content != "@Alice please review" {
		t.Fatalf("messages: got %+v", msgs)
	}

	notifResp, _ := http.Get(ts.URL + "/agents/" + alice.AgentID + "/notifications")
	var notifs []models.Notification
	_ = json.NewDecoder(notifResp.Body).Decode(&notifs)
	_ = notifResp.Body.Close()
	if len(notifs) != 1 || notifs[0].Content != "@Alice please review" || notifs[0].Delivered {
		t.Fatalf("notifications for alice: got %+v", notifs)
	}

	// Mark delivered, then the pending list is empty
	delResp, _ := http.Post(fmt.Sprintf("%s/notifications/%d/delivered", ts.URL, notifs[0].NotificationID), "application/json", strings.NewReader(`{}`))
	if delResp.StatusCode != http.StatusOK {
		t.Fatalf("POST delivered: %d", delResp.StatusCode)
	}
	_ = delResp.Body.Close()
	notifResp2, _ := http.Get(ts.URL + "/notifications?agent_id=" + alice.AgentID)
	var notifs2 []models.Notification
	_ = json.NewDecoder(notifResp2.Body).Decode(&notifs2)
	_ = notifResp2.Body.Close()
	if len(notifs2) != 0 {
		t.Fatalf("pending after delivery: got %+v", notifs2)
	}

	// Agent status PATCH
	patchReq, _ := http.NewRequest(http.MethodPatch, ts.URL+"/agents/"+alice.AgentID, strings.NewReader(`{"status":"active"}`))
	patchReq.Header.Set("Content-Type", "application/json")
	patchResp, _ := http.DefaultClient.Do(patchReq)
	if patchResp.StatusCode != http.StatusOK {
		t.Fatalf("PATCH agent: %d", patchResp.StatusCode)
	}
	_ = patchResp.Body.Close()
	agentGet, _ := http.Get(ts.URL + "/agents/" + alice.AgentID)
	var got models.Agent
	_ = json.NewDecoder(agentGet.Body).Decode(&got)
	_ = agentGet.Body.Close()
	if got.Status != "active" {
		t.Fatalf("agent status after PATCH: %q", got.Status)
	}
	badPatch, _ := http.NewRequest(http.MethodPatch, ts.URL+"/agents/"+alice.AgentID, strings.NewReader(`{"status":"napping"}`))
	badPatchResp, _ := http.DefaultClient.Do(badPatch)
	if badPatchResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("PATCH bad status: %d", badPatchResp.StatusCode)
	}
	_ = badPatchResp.Body.Close()

	// Documents
	docResp, _ := http.Post(ts.URL+"/documents", "application/json",
		strings.NewReader(fmt.Sprintf(`{"title":"findings","content":"body","type":"research","task_id":%d}`, taskID)))
	if docResp.StatusCode != http.StatusOK {
		t.Fatalf("POST document: %d", docResp.StatusCode)
	}
	_ = docResp.Body.Close()
	docsGet, _ := http.Get(ts.URL + "/documents")
	var docs []models.Document
	_ = json.NewDecoder(docsGet.Body).Decode(&docs)
	_ = docsGet.Body.Close()
	if len(docs) != 1 || docs[0].Type != "research" {
		t.Fatalf("documents: got %+v", docs)
	}

	// Activities were recorded along the way and respect the limit param
	actsGet, _ := http.Get(ts.URL + "/activities?limit=2")
	var acts []models.Activity
	_ = json.NewDecoder(actsGet.Body).Decode(&acts)
	_ = actsGet.Body.Close()
	if len(acts) != 2 {
		t.Fatalf("activities limit=2: got %d", len(acts))
	}

	// Standup aggregates the day
	standupGet, _ := http.Get(ts.URL + "/standup")
	var standup models.Standup
	if err := json.NewDecoder(standupGet.Body).Decode(&standup); err != nil {
		t.Fatalf("decode standup: %v", err)
	}
	_ = standupGet.Body.Close()
	if len(standup.Tasks) != 1 || len(standup.Agents) != 2 || len(standup.Messages) != 1 {
		t.Fatalf("standup: tasks=%d agents=%d messages=%d", len(standup.Tasks), len(standup.Agents), len(standup.Messages))
	}
	if standup.GeneratedAt.IsZero() {
		t.Fatal("standup generated_at missing")
	}
}

func TestBootstrapAndConfig(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	app, err := NewApp(ServerOptions{Home: home, Addr: "127.0.0.1:0", HumanName: "tester"})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	ts := httptest.NewServer(app.Server.Handler)
	t.Cleanup(ts.Close)

	cfgResp, _ := http.Get(ts.URL + "/config")
	var cfg models.Config
	if err := json.NewDecoder(cfgResp.Body).Decode(&cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	_ = cfgResp.Body.Close()
	if cfg.HumanName != "tester" || cfg.NexusHome != home || cfg.BootstrapID == "" {
		t.Fatalf("config: got %+v", cfg)
	}

	// Bootstrap ID is stable across requests.
	cfgResp2, _ := http.Get(ts.URL + "/config")
	var cfg2 models.Config
	_ = json.NewDecoder(cfgResp2.Body).Decode(&cfg2)
	_ = cfgResp2.Body.Close()
	if cfg2.BootstrapID != cfg.BootstrapID {
		t.Fatalf("bootstrap id changed: %q vs %q", cfg.BootstrapID, cfg2.BootstrapID)
	}

	agentResp, _ := http.Post(ts.URL+"/agents", "application/json", strings.NewReader(`{"name":"Alice"}`))
	_ = agentResp.Body.Close()
	taskResp, _ := http.Post(ts.URL+"/tasks", "application/json", strings.NewReader(`{"title":"t1"}`))
	_ = taskResp.Body.Close()

	bootResp, _ := http.Get(ts.URL + "/bootstrap")
	var boot models.Bootstrap
	if err := json.NewDecoder(bootResp.Body).Decode(&boot); err != nil {
		t.Fatalf("decode bootstrap: %v", err)
	}
	_ = bootResp.Body.Close()
	if boot.Config.BootstrapID != cfg.BootstrapID {
		t.Fatalf("bootstrap config id: %q", boot.Config.BootstrapID)
	}
	if len(boot.Agents) != 1 || len(boot.Tasks) != 1 {
		t.Fatalf("bootstrap: agents=%d tasks=%d", len(boot.Agents), len(boot.Tasks))
	}
	if len(boot.Activities) == 0 {
		t.Fatal("bootstrap should include task_created activity")
	}
}
