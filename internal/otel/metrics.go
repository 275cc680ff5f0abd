package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	initMetricsOnce      sync.Once
	taskOpsCounter       metric.Int64Counter
	messagesCounter      metric.Int64Counter
	notificationsCounter metric.Int64Counter
	activitiesCounter    metric.Int64Counter
	sseConnectionsGauge  metric.Int64ObservableGauge
	sseEventsCounter     metric.Int64Counter
	sseConnections       int64
	sseConnectionsMu     sync.Mutex
)

// InitMetrics creates the meter instruments. Safe to call multiple times; only runs once.
// Call after InitMeterProvider.
func InitMetrics(ctx context.Context) error {
	var err error
	initMetricsOnce.Do(func() {
		m := Meter()
		taskOpsCounter, err = m.Int64Counter("nexus_task_operations_total", metric.WithDescription("Total task operations (create, update, assign, etc.)"))
		if err != nil {
			return
		}
		messagesCounter, err = m.Int64Counter("nexus_messages_total", metric.WithDescription("Total messages posted"))
		if err != nil {
			return
		}
		notificationsCounter, err = m.Int64Counter("nexus_notifications_total", metric.WithDescription("Total notifications created or delivered"))
		if err != nil {
			return
		}
		activitiesCounter, err = m.Int64Counter("nexus_activities_total", metric.WithDescription("Total activity log entries written"))
		if err != nil {
			return
		}
		sseEventsCounter, err = m.Int64Counter("nexus_sse_events_total", metric.WithDescription("Total SSE events published"))
		if err != nil {
			return
		}
		sseConnectionsGauge, err = m.Int64ObservableGauge("nexus_sse_connections", metric.WithDescription("Current SSE subscriber count"))
		if err != nil {
			return
		}
		_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			sseConnectionsMu.Lock()
			n := sseConnections
			sseConnectionsMu.Unlock()
			o.ObserveInt64(sseConnectionsGauge, n)
			return nil
		}, sseConnectionsGauge)
		if err != nil {
			return
		}
	})
	return err
}

// RecordTaskOp records a task operation (create, update, assign, etc.).
func RecordTaskOp(ctx context.Context, op string, status string) {
	if taskOpsCounter == nil {
		return
	}
	taskOpsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		AttrStatus.String(status),
	))
}

// RecordMessage records one posted message and its mention fan-out size.
func RecordMessage(ctx context.Context, mentions int) {
	if messagesCounter != nil {
		messagesCounter.Add(ctx, 1, metric.WithAttributes(attribute.Int("mentions", mentions)))
	}
}

// RecordNotification records a notification event ("created" or "delivered").
func RecordNotification(ctx context.Context, event string) {
	if notificationsCounter != nil {
		notificationsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
	}
}

// RecordActivity records one activity log write by type.
func RecordActivity(ctx context.Context, typ string) {
	if activitiesCounter != nil {
		activitiesCounter.Add(ctx, 1, metric.WithAttributes(AttrType.String(typ)))
	}
}

// RecordSSEEvent records one SSE event published.
func RecordSSEEvent(ctx context.Context) {
	if sseEventsCounter != nil {
		sseEventsCounter.Add(ctx, 1)
	}
}

// AddSSEConnection adds 1 to the SSE connection gauge (call on subscribe).
func AddSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections++
	sseConnectionsMu.Unlock()
}

// RemoveSSEConnection subtracts 1 from the SSE connection gauge (call on unsubscribe).
func RemoveSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections--
	if sseConnections < 0 {
		sseConnections = 0
	}
	sseConnectionsMu.Unlock()
}

// TaskCountFunc returns per-status task counts for the nexus_tasks_total gauge,
// in board order: inbox, assigned, in_progress, review, done, blocked.
type TaskCountFunc func() (inbox, assigned, inProgress, review, done, blocked int64)

// InitMetricsWithTaskCount creates instruments and optionally registers a callback for task gauges.
// Call after InitMeterProvider. If taskCount is nil, task gauges are not reported.
func InitMetricsWithTaskCount(ctx context.Context, taskCount TaskCountFunc) error {
	if err := InitMetrics(ctx); err != nil {
		return err
	}
	if taskCount == nil {
		return nil
	}
	m := Meter()
	tasksGauge, err := m.Float64ObservableGauge("nexus_tasks_total", metric.WithDescription("Number of tasks by status"))
	if err != nil {
		return err
	}
	_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		inbox, assigned, inProgress, review, done, blocked := taskCount()
		o.ObserveFloat64(tasksGauge, float64(inbox), metric.WithAttributes(AttrStatus.String("inbox")))
		o.ObserveFloat64(tasksGauge, float64(assigned), metric.WithAttributes(AttrStatus.String("assigned")))
		o.ObserveFloat64(tasksGauge, float64(inProgress), metric.WithAttributes(AttrStatus.String("in_progress")))
		o.ObserveFloat64(tasksGauge, float64(review), metric.WithAttributes(AttrStatus.String("review")))
		o.ObserveFloat64(tasksGauge, float64(done), metric.WithAttributes(AttrStatus.String("done")))
		o.ObserveFloat64(tasksGauge, float64(blocked), metric.WithAttributes(AttrStatus.String("blocked")))
		return nil
	}, tasksGauge)
	return err
}
