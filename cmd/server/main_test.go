package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/cognify-app/cognify-backend/internal/platform/config"
)

func TestNewAIRouter(t *testing.T) {
	cfg := &config.Config{}
	if newAIRouter(cfg).HasProvider() {
		t.Error("router with no keys should have no providers")
	}

	cfg.AI.Google.APIKey = "test-key"
	if !newAIRouter(cfg).HasProvider() {
		t.Error("router should register google provider")
	}

	cfg.AI.OpenAI.APIKey = "test-key"
	if !newAIRouter(cfg).HasProvider() {
		t.Error("router should register both providers")
	}
}

func TestNewLogger(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		level       string
		debug, warn bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, true},
		{"error", false, false},
		{"nonsense", false, true},
	}
	for _, tt := range tests {
		logger := newLogger(config.LogConfig{Level: tt.level, Format: "json"})
		if got := logger.Enabled(ctx, slog.LevelDebug); got != tt.debug {
			t.Errorf("level %q: debug enabled = %v, want %v", tt.level, got, tt.debug)
		}
		if got := logger.Enabled(ctx, slog.LevelWarn); got != tt.warn {
			t.Errorf("level %q: warn enabled = %v, want %v", tt.level, got, tt.warn)
		}
	}

	if _, ok := newLogger(config.LogConfig{Format: "text"}).Handler().(*slog.TextHandler); !ok {
		t.Error("format text should build a text handler")
	}
	if _, ok := newLogger(config.LogConfig{Format: "json"}).Handler().(*slog.JSONHandler); !ok {
		t.Error("format json should build a JSON handler")
	}
}
