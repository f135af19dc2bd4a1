package ai_test

import (
	"context"
	"testing"

	"github.com/cognify-app/cognify-backend/internal/ai"
)

func TestMockProvider_Complete(t *testing.T) {
	mock := ai.NewMockProvider("test response")

	resp, err := mock.Complete(context.Background(), ai.CompletionRequest{
		Messages: []ai.Message{{Role: "user", Content: "Hello"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "test response" {
		t.Errorf("Content = %q, want %q", resp.Content, "test response")
	}
	if resp.Model != "mock" {
		t.Errorf("Model = %q, want %q", resp.Model, "mock")
	}
	if mock.LastRequest() == nil {
		t.Error("LastRequest() should capture the request")
	}
}

func TestMockProvider_Scripted(t *testing.T) {
	mock := ai.NewScriptedProvider("first", "second")

	for i, want := range []string{"first", "second", "second"} {
		resp, err := mock.Complete(context.Background(), ai.CompletionRequest{})
		if err != nil {
			t.Fatalf("call %d: error = %v", i, err)
		}
		if resp.Content != want {
			t.Errorf("call %d: Content = %q, want %q", i, resp.Content, want)
		}
	}
	if mock.Calls() != 3 {
		t.Errorf("Calls() = %d, want 3", mock.Calls())
	}
}

func TestTaskType_String(t *testing.T) {
	tests := []struct {
		task ai.TaskType
		want string
	}{
		{ai.TaskBundle, "bundle"},
		{ai.TaskMotivation, "motivation"},
		{ai.TaskType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.task.String(); got != tt.want {
			t.Errorf("TaskType(%d).String() = %q, want %q", tt.task, got, tt.want)
		}
	}
}
