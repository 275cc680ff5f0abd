package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/amittambulkar96/nexus/internal/otel"
	"github.com/amittambulkar96/nexus/internal/store"
	"github.com/amittambulkar96/nexus/internal/store/postgres"
	"github.com/amittambulkar96/nexus/internal/workflow"
	"github.com/amittambulkar96/nexus/pkg/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// limitBody wraps r.Body with http.MaxBytesReader so handlers cannot read more than maxBytes.
// Call this for requests that have a body (e.g. POST, PUT, PATCH) before decoding JSON.
func limitBody(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
}

// bodyLimitMiddleware limits request body size for POST, PUT, PATCH to prevent OOM.
func bodyLimitMiddleware(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			limitBody(w, r, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware sets CORS headers for dev mode (dashboard dev server on different origin).
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServerOptions configures the HTTP server (home dir, listen addr, API key, DB, metrics).
type ServerOptions struct {
	Home           string
	Addr           string
	Dev            bool
	APIKey         string       // if set, require X-API-Key header or query api_key
	HumanName      string       // display name reported by /config; default "human"
	DBDriver       string       // "sqlite" (default) or "postgres"
	DBURL          string       // for postgres: connection string (or set DATABASE_URL env)
	MetricsHandler http.Handler // if set, used for /metrics (e.g. OTel Prometheus handler)
	UseOtelHTTP    bool         // if true, wrap handler with otelhttp for request metrics
}

// App holds the HTTP server, SSE hub, store, workflow service, and home path.
type App struct {
	Server  *http.Server
	Hub     *SSEHub
	Store   store.Store
	Service *workflow.Service
	Home    string
}

// NewApp creates the HTTP app (server, hub, store, workflow service) and registers all routes.
func NewApp(opts ServerOptions) (*App, error) {
	hub := NewSSEHub()
	mux := http.NewServeMux()

	var st store.Store
	var err error
	if opts.DBDriver == "postgres" {
		st, err = postgres.Open(opts.DBURL)
	} else {
		st, err = store.Open(opts.Home)
	}
	if err != nil {
		return nil, err
	}

	svc := workflow.New(st,
		workflow.WithHook(workflow.ActivityRecorder(st)),
		workflow.WithHook(func(ctx context.Context, ev workflow.Event) {
			otel.RecordActivity(ctx, ev.Type)
			hub.PublishJSON(map[string]any{
				"type":     "activity",
				"activity": ev.Type,
				"message":  ev.Message,
				"agent_id": ev.AgentID,
				"task_id":  ev.TaskID,
			})
		}),
	)

	humanName := opts.HumanName
	if humanName == "" {
		humanName = "human"
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	if opts.MetricsHandler != nil {
		mux.Handle("/metrics", opts.MetricsHandler)
	} else {
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			tasks, _ := st.ListTasks(r.Context())
			counts := map[string]int64{}
			for _, t := range tasks {
				counts[t.Status]++
			}
			_, _ = fmt.Fprintf(w, "# TYPE nexus_tasks_total gauge\n")
			for _, status := range models.TaskStatuses {
				_, _ = fmt.Fprintf(w, "nexus_tasks_total{status=%q} %d\n", status, counts[status])
			}
		})
	}

	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.Config{
			HumanName:   humanName,
			NexusHome:   opts.Home,
			BootstrapID: getBootstrapID(opts.Home),
		})
	})

	mux.HandleFunc("/bootstrap", func(w http.ResponseWriter, r *http.Request) {
		handleBootstrap(w, r, svc, humanName, opts.Home)
	})

	mux.HandleFunc("/stream", hub.Handler())

	mux.HandleFunc("/standup", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		standup, err := svc.StandupSummary(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, toStandup(standup))
	})

	// --- Agents ---
	mux.HandleFunc("/agents", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			agents, err := svc.ListAgents(r.Context())
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, toAgents(agents))
		case http.MethodPost:
			var body struct {
				Name       string `json:"name"`
				Role       string `json:"role"`
				SessionKey string `json:"session_key"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			agent, err := svc.CreateAgent(r.Context(), body.Name, body.Role, body.SessionKey)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			hub.PublishJSON(map[string]any{"type": "agent_update", "agent_id": agent.AgentID})
			writeJSON(w, toAgent(agent))
		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	// /agents/{id}, /agents/{id}/tasks, /agents/{id}/notifications
	mux.HandleFunc("/agents/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/agents/")
		parts := strings.Split(rest, "/")
		if len(parts) < 1 || parts[0] == "" {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		agentID := parts[0]

		if len(parts) >= 2 && parts[1] == "tasks" {
			if r.Method != http.MethodGet {
				writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			tasks, err := svc.ListTasksByAssignee(r.Context(), agentID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, toTasks(tasks))
			return
		}

		if len(parts) >= 2 && parts[1] == "notifications" {
			if r.Method != http.MethodGet {
				writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			notifs, err := svc.ListPendingNotifications(r.Context(), agentID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, toNotifications(notifs))
			return
		}

		switch r.Method {
		case http.MethodGet:
			agent, err := svc.GetAgent(r.Context(), agentID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, toAgent(agent))
		case http.MethodPatch:
			var body struct {
				Status        string `json:"status"`
				CurrentTaskID *int64 `json:"current_task_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			if err := svc.UpdateAgentStatus(r.Context(), agentID, body.Status, body.CurrentTaskID); err != nil {
				writeServiceError(w, err)
				return
			}
			hub.PublishJSON(map[string]any{"type": "agent_update", "agent_id": agentID, "status": body.Status})
			writeJSON(w, map[string]any{"ok": true})
		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	// --- Tasks ---
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			tasks, err := svc.ListTasks(r.Context())
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, toTasks(tasks))
		case http.MethodPost:
			var body struct {
				Title       string   `json:"title"`
				Description *string  `json:"description"`
				AssigneeIDs []string `json:"assignee_ids"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			id, err := svc.CreateTask(r.Context(), body.Title, body.Description, body.AssigneeIDs)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			otel.RecordTaskOp(r.Context(), "create", models.TaskStatusInbox)
			hub.PublishJSON(map[string]any{"type": "task_update", "task_id": id})
			writeJSON(w, map[string]any{"task_id": id})
		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc("/tasks/unassigned", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		tasks, err := svc.ListUnassignedTasks(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, toTasks(tasks))
	})

	// /tasks/{id}, /tasks/{id}/assign, /tasks/{id}/messages
	mux.HandleFunc("/tasks/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/tasks/")
		parts := strings.Split(rest, "/")
		if len(parts) < 1 || parts[0] == "" {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		if parts[0] == "unassigned" {
			// handled by the exact-match route; reached only with a trailing path
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		var taskID int64
		if _, err := fmt.Sscanf(parts[0], "%d", &taskID); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid task id")
			return
		}

		if len(parts) >= 2 && parts[1] == "assign" {
			if r.Method != http.MethodPost {
				writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			var body struct {
				AgentID string `json:"agent_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			if body.AgentID == "" {
				writeJSONError(w, http.StatusBadRequest, "agent_id required")
				return
			}
			if err := svc.AssignTask(r.Context(), taskID, body.AgentID); err != nil {
				writeServiceError(w, err)
				return
			}
			otel.RecordTaskOp(r.Context(), "assign", models.TaskStatusAssigned)
			hub.PublishJSON(map[string]any{"type": "task_update", "task_id": taskID, "status": models.TaskStatusAssigned})
			writeJSON(w, map[string]any{"ok": true})
			return
		}

		if len(parts) >= 2 && parts[1] == "messages" {
			switch r.Method {
			case http.MethodGet:
				msgs, err := svc.ListMessagesByTask(r.Context(), taskID)
				if err != nil {
					writeServiceError(w, err)
					return
				}
				writeJSON(w, toMessages(msgs))
			case http.MethodPost:
				var body struct {
					FromAgentID string `json:"from_agent_id"`
					Content     string `json:"content"`
				}
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					writeJSONError(w, http.StatusBadRequest, "invalid json")
					return
				}
				id, err := svc.PostMessage(r.Context(), taskID, body.FromAgentID, body.Content)
				if err != nil {
					writeServiceError(w, err)
					return
				}
				otel.RecordMessage(r.Context(), len(workflow.ExtractMentions(body.Content)))
				hub.PublishJSON(map[string]any{"type": "message", "task_id": taskID, "message_id": id})
				writeJSON(w, map[string]any{"message_id": id})
			default:
				writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			}
			return
		}

		switch r.Method {
		case http.MethodGet:
			task, err := svc.GetTask(r.Context(), taskID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, toTask(task))
		case http.MethodPatch:
			var body struct {
				Status string `json:"status"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			if err := svc.UpdateTaskStatus(r.Context(), workflow.StatusUpdate{ID: &taskID, Status: body.Status}); err != nil {
				writeServiceError(w, err)
				return
			}
			otel.RecordTaskOp(r.Context(), "update_status", body.Status)
			hub.PublishJSON(map[string]any{"type": "task_update", "task_id": taskID, "status": body.Status})
			writeJSON(w, map[string]any{"ok": true})
		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	// --- Notifications ---
	mux.HandleFunc("/notifications", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			agentID := r.URL.Query().Get("agent_id")
			notifs, err := svc.ListPendingNotifications(r.Context(), agentID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, toNotifications(notifs))
		case http.MethodPost:
			var body struct {
				MentionedAgentID string `json:"mentioned_agent_id"`
				Content          string `json:"content"`
				TaskID           *int64 `json:"task_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			id, err := svc.CreateNotification(r.Context(), body.MentionedAgentID, body.Content, body.TaskID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			otel.RecordNotification(r.Context(), "created")
			hub.PublishJSON(map[string]any{"type": "notification", "notification_id": id, "agent_id": body.MentionedAgentID})
			writeJSON(w, map[string]any{"notification_id": id})
		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	// /notifications/{id}/delivered
	mux.HandleFunc("/notifications/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/notifications/")
		parts := strings.Split(rest, "/")
		if len(parts) < 2 || parts[1] != "delivered" {
			writeJSONError(w, http.StatusNotFound, "not found")
			return
		}
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var notifID int64
		if _, err := fmt.Sscanf(parts[0], "%d", &notifID); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid notification id")
			return
		}
		if err := svc.MarkNotificationDelivered(r.Context(), notifID); err != nil {
			writeServiceError(w, err)
			return
		}
		otel.RecordNotification(r.Context(), "delivered")
		hub.PublishJSON(map[string]any{"type": "notification", "notification_id": notifID, "delivered": true})
		writeJSON(w, map[string]any{"ok": true})
	})

	// --- Activities ---
	mux.HandleFunc("/activities", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			limit := 0
			if l := r.URL.Query().Get("limit"); l != "" {
				if n, _ := fmt.Sscanf(l, "%d", &limit); n == 1 && limit > 0 {
					if limit > models.DefaultActivityListLimit {
						limit = models.DefaultActivityListLimit
					}
				}
			}
			activities, err := svc.RecentActivities(r.Context(), limit)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, toActivities(activities))
		case http.MethodPost:
			var body struct {
				Type    string  `json:"type"`
				AgentID *string `json:"agent_id"`
				Message string  `json:"message"`
				TaskID  *int64  `json:"task_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			id, err := svc.RecordActivity(r.Context(), body.Type, body.AgentID, body.Message, body.TaskID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			otel.RecordActivity(r.Context(), body.Type)
			hub.PublishJSON(map[string]any{"type": "activity", "activity_id": id})
			writeJSON(w, map[string]any{"activity_id": id})
		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	// --- Documents ---
	mux.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			docs, err := svc.ListDocuments(r.Context())
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, toDocuments(docs))
		case http.MethodPost:
			var body struct {
				Title   string  `json:"title"`
				Content *string `json:"content"`
				Type    string  `json:"type"`
				TaskID  *int64  `json:"task_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid json")
				return
			}
			id, err := svc.CreateDocument(r.Context(), body.Title, body.Content, body.Type, body.TaskID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			hub.PublishJSON(map[string]any{"type": "document", "document_id": id})
			writeJSON(w, map[string]any{"document_id": id})
		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	var handler http.Handler = mux
	handler = bodyLimitMiddleware(models.DefaultMaxRequestBodyBytes, handler)
	if opts.Dev {
		handler = corsMiddleware(handler)
	}
	if opts.APIKey != "" {
		handler = apiKeyMiddleware(opts.APIKey, handler)
	}
	handler = requestLogMiddleware(handler)
	if opts.UseOtelHTTP {
		handler = otelhttp.NewHandler(handler, "nexus")
	}
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	srv.RegisterOnShutdown(func() {
		_ = st.Close()
	})

	return &App{Server: srv, Hub: hub, Store: st, Service: svc, Home: opts.Home}, nil
}

// responseRecorder captures status code for logging and forwards Flusher if supported.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func apiKeyMiddleware(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		if key != apiKey {
			writeJSONError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		slog.Info("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func getBootstrapID(home string) string {
	protected := filepath.Join(home, "protected")
	_ = os.MkdirAll(protected, 0o755)
	path := filepath.Join(protected, "bootstrap_id")
	if b, err := os.ReadFile(path); err == nil {
		if s := string(bytesTrimSpace(b)); s != "" {
			return s
		}
	}
	id := randomHex(16)
	_ = os.WriteFile(path, []byte(id+"\n"), 0o644)
	return id
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// fallback: time-based
		return hex.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	return hex.EncodeToString(b)
}

func bytesTrimSpace(b []byte) []byte {
	i := 0
	j := len(b)
	for i < j && (b[i] == ' ' || b[i] == '\n' || b[i] == '\r' || b[i] == '\t') {
		i++
	}
	for j > i && (b[j-1] == ' ' || b[j-1] == '\n' || b[j-1] == '\r' || b[j-1] == '\t') {
		j--
	}
	return b[i:j]
}

func handleBootstrap(w http.ResponseWriter, r *http.Request, svc *workflow.Service, humanName, home string) {
	var out models.Bootstrap
	out.Config = models.Config{
		HumanName:   humanName,
		NexusHome:   home,
		BootstrapID: getBootstrapID(home),
	}
	if agents, err := svc.ListAgents(r.Context()); err == nil {
		out.Agents = toAgents(agents)
	}
	if tasks, err := svc.ListTasks(r.Context()); err == nil {
		out.Tasks = toTasks(tasks)
	}
	if activities, err := svc.RecentActivities(r.Context(), models.DefaultActivityListLimit); err == nil {
		out.Activities = toActivities(activities)
	}
	if notifs, err := svc.ListPendingNotifications(r.Context(), ""); err == nil {
		out.Notifications = toNotifications(notifs)
	}
	writeJSON(w, out)
}

// writeServiceError maps workflow errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case workflow.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case workflow.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeJSONError sends a JSON body {"error": "message"} with the given status code.
func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}
