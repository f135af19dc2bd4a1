package pipeline_test

import (
	"testing"

	"github.com/cognify-app/cognify-backend/internal/pipeline"
)

func TestMemoryEventLogger(t *testing.T) {
	logger := pipeline.NewMemoryEventLogger()

	err := logger.LogEvent(pipeline.Event{
		RunID:     "run-1",
		ModuleID:  "mod-1",
		EventType: "run_claimed",
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("LogEvent() should stamp CreatedAt")
	}
}

func TestMemoryEventLogger_RequiresType(t *testing.T) {
	logger := pipeline.NewMemoryEventLogger()

	if err := logger.LogEvent(pipeline.Event{RunID: "run-1"}); err == nil {
		t.Error("LogEvent() without event_type should error")
	}
}
