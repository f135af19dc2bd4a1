package config_test

import (
	"testing"
	"time"

	"github.com/cognify-app/cognify-backend/internal/platform/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Pipeline.MaxModuleChars != 14000 {
		t.Errorf("max module chars = %d, want 14000", cfg.Pipeline.MaxModuleChars)
	}
	if cfg.Pipeline.MaxRetries != 2 {
		t.Errorf("max retries = %d, want 2", cfg.Pipeline.MaxRetries)
	}
	if cfg.Pipeline.StaleRunTTL != 10*time.Minute {
		t.Errorf("stale run TTL = %v, want 10m", cfg.Pipeline.StaleRunTTL)
	}
	if cfg.Analytics.OverallWeight != 0.8 || cfg.Analytics.BalanceWeight != 0.2 {
		t.Errorf("weights = %v/%v, want 0.8/0.2", cfg.Analytics.OverallWeight, cfg.Analytics.BalanceWeight)
	}
	if cfg.Analytics.ReportTTL != 5*time.Minute {
		t.Errorf("report TTL = %v, want 5m", cfg.Analytics.ReportTTL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("COGNIFY_SERVER_PORT", "9999")
	t.Setenv("COGNIFY_PIPELINE_MAX_MODULE_CHARS", "5000")
	t.Setenv("COGNIFY_ANALYTICS_OVERALL_WEIGHT", "0.7")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("server port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Pipeline.MaxModuleChars != 5000 {
		t.Errorf("max module chars = %d, want 5000", cfg.Pipeline.MaxModuleChars)
	}
	if cfg.Analytics.OverallWeight != 0.7 {
		t.Errorf("overall weight = %v, want 0.7", cfg.Analytics.OverallWeight)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("COGNIFY_AI_GOOGLE_API_KEY", "test-key")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_NoAIProvider(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg.AI.Google.APIKey = ""
	cfg.AI.OpenAI.APIKey = ""

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with no AI provider should error")
	}
}

func TestValidate_BadWeights(t *testing.T) {
	t.Setenv("COGNIFY_AI_GOOGLE_API_KEY", "test-key")
	t.Setenv("COGNIFY_ANALYTICS_OVERALL_WEIGHT", "0.9")
	t.Setenv("COGNIFY_ANALYTICS_BALANCE_WEIGHT", "0.9")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with weights summing to 1.8 should error")
	}
}
