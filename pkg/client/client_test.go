package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	c := New("http://localhost:3649", "")
	if c.BaseURL != "http://localhost:3649" || c.APIKey != "" {
		t.Errorf("New: %+v", c)
	}
	c2 := New("http://localhost:3649", "secret")
	if c2.APIKey != "secret" {
		t.Errorf("New with key: %+v", c2)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	ctx := context.Background()
	ok, err := c.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !ok {
		t.Fatal("Health: expected ok true")
	}
}

func TestHealth_error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"down"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	ctx := context.Background()
	_, err := c.Health(ctx)
	if err == nil {
		t.Fatal("expected error from 503")
	}
}

func TestClient_setsAPIKeyHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "mykey")
	ctx := context.Background()
	_, _ = c.Health(ctx)
	if gotKey != "mykey" {
		t.Errorf("X-API-Key: got %q", gotKey)
	}
}

func TestCreateTask_PostMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/tasks":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["title"] != "t1" {
				t.Errorf("title: %v", body["title"])
			}
			w.Write([]byte(`{"task_id":7}`))
		case "/tasks/7/messages":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["from_agent_id"] != "a1" || body["content"] != "@Alice hi" {
				t.Errorf("message body: %v", body)
			}
			w.Write([]byte(`{"message_id":3}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	ctx := context.Background()
	taskID, err := c.CreateTask(ctx, "t1", nil, nil)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if taskID != 7 {
		t.Fatalf("CreateTask: got id %d", taskID)
	}
	msgID, err := c.PostMessage(ctx, taskID, "a1", "@Alice hi")
	if err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	if msgID != 3 {
		t.Fatalf("PostMessage: got id %d", msgID)
	}
}

func TestListPendingNotifications_query(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"notification_id":1,"mentioned_agent_id":"a1","content":"x","delivered":false}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	ctx := context.Background()
	notifs, err := c.ListPendingNotifications(ctx, "a1")
	if err != nil {
		t.Fatalf("ListPendingNotifications: %v", err)
	}
	if len(notifs) != 1 || notifs[0].MentionedAgentID != "a1" {
		t.Fatalf("notifications: %+v", notifs)
	}
	if gotQuery != "agent_id=a1" {
		t.Errorf("query: got %q", gotQuery)
	}
}

func TestErrorBodyDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"task 9 not found"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	ctx := context.Background()
	_, err := c.GetTask(ctx, 9)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); !strings.Contains(got, "task 9 not found") {
		t.Errorf("error should carry server message, got %q", got)
	}
}
