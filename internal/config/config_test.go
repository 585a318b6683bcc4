package config

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Fatalf("unexpected port: %d", cfg.Port)
	}
	if cfg.ResponseTTL != time.Hour {
		t.Fatalf("unexpected response TTL: %s", cfg.ResponseTTL)
	}
	if cfg.ModelProvider != ProviderGemini {
		t.Fatalf("unexpected provider: %q", cfg.ModelProvider)
	}
	if cfg.ResultCacheSweepSpec != "@every 1m" {
		t.Fatalf("unexpected sweep spec: %q", cfg.ResultCacheSweepSpec)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MODEL_PROVIDER", " OpenAI ")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("RESPONSE_TTL", "90s")
	t.Setenv("JOB_TIMEOUT", "5s")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr() != ":9090" {
		t.Fatalf("unexpected addr: %q", cfg.Addr())
	}
	if cfg.ModelProvider != ProviderOpenAI {
		t.Fatalf("expected provider to be normalized, got %q", cfg.ModelProvider)
	}
	if cfg.ResponseTTL != 90*time.Second {
		t.Fatalf("unexpected response TTL: %s", cfg.ResponseTTL)
	}
	if err = cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadIgnoresMissingEnvFile(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	if _, err := Load(); err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}

func TestValidateRequiresProviderCredentials(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.GCPProject = ""
	if err = cfg.Validate(); err == nil {
		t.Fatalf("expected missing GCP project to fail validation")
	}

	cfg.ModelProvider = "unknown"
	if err = cfg.Validate(); err == nil {
		t.Fatalf("expected unknown provider to fail validation")
	}
}

func TestSlogLevelFallsBackToInfo(t *testing.T) {
	cfg := Config{LogLevel: "chatty"}
	if got := cfg.SlogLevel(); got != slog.LevelInfo {
		t.Fatalf("unexpected level: %v", got)
	}

	cfg.LogLevel = "debug"
	if got := cfg.SlogLevel(); got != slog.LevelDebug {
		t.Fatalf("unexpected level: %v", got)
	}
}

func TestNewLoggerFormats(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	Config{LogLevel: "info", LogFormat: "json"}.NewLogger(&buf).Info("Hello", "key", "value")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"key":"value"`) {
		t.Fatalf("expected JSON record, got %q", buf.String())
	}

	buf.Reset()
	Config{LogLevel: "warn", LogFormat: "text"}.NewLogger(&buf).Info("Hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info record to be filtered, got %q", buf.String())
	}
}
