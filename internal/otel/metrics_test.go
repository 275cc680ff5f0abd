package otel

import (
	"context"
	"testing"
)

func TestInitMetrics_RecordTaskOp(t *testing.T) {
	ctx := context.Background()
	_, err := InitMeterProvider(ctx, "metrics-test")
	if err != nil {
		t.Fatalf("InitMeterProvider: %v", err)
	}
	if err := InitMetrics(ctx); err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	RecordTaskOp(ctx, "create", "inbox")
	RecordTaskOp(ctx, "assign", "assigned")
}

func TestAddSSEConnection_RemoveSSEConnection(t *testing.T) {
	AddSSEConnection()
	AddSSEConnection()
	RemoveSSEConnection()
	RemoveSSEConnection()
	RemoveSSEConnection() // should not go negative
}

func TestRecordHelpers(t *testing.T) {
	ctx := context.Background()
	_, _ = InitMeterProvider(ctx, "record-test")
	_ = InitMetrics(ctx)
	RecordMessage(ctx, 2)
	RecordNotification(ctx, "created")
	RecordNotification(ctx, "delivered")
	RecordActivity(ctx, "task_created")
	RecordSSEEvent(ctx)
}

func TestInitMetricsWithTaskCount(t *testing.T) {
	ctx := context.Background()
	_, _ = InitMeterProvider(ctx, "taskcount-test")
	err := InitMetricsWithTaskCount(ctx, func() (inbox, assigned, inProgress, review, done, blocked int64) {
		return 1, 2, 3, 0, 4, 0
	})
	if err != nil {
		t.Fatalf("InitMetricsWithTaskCount: %v", err)
	}
}

func TestInitMetricsWithTaskCount_nilFunc(t *testing.T) {
	ctx := context.Background()
	_, _ = InitMeterProvider(ctx, "taskcount-nil-test")
	err := InitMetricsWithTaskCount(ctx, nil)
	if err != nil {
		t.Fatalf("InitMetricsWithTaskCount(nil): %v", err)
	}
}
