package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Limits.MaxIterations != 10 {
		t.Errorf("expected default max_iterations 10, got %d", cfg.Limits.MaxIterations)
	}
	if cfg.Timeouts.Run != 5*time.Minute {
		t.Errorf("expected default run timeout 5m, got %v", cfg.Timeouts.Run)
	}
	if cfg.Storage.Disabled {
		t.Error("expected storage enabled by default")
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: test-key
  use_bedrock: true
  aws_region: us-west-2
models:
  router: claude-3-5-haiku-20241022
  specialist: claude-sonnet-4-20250514
limits:
  max_iterations: 6
timeouts:
  run: 2m
storage:
  path: /tmp/runs.db
logging:
  debug_file: /tmp/nexus-debug.log
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("expected api_key test-key, got %q", cfg.Anthropic.APIKey)
	}
	if !cfg.Anthropic.UseBedrock {
		t.Error("expected use_bedrock true")
	}
	if cfg.Anthropic.AWSRegion != "us-west-2" {
		t.Errorf("expected aws_region us-west-2, got %q", cfg.Anthropic.AWSRegion)
	}
	if cfg.Models.Router != "claude-3-5-haiku-20241022" {
		t.Errorf("unexpected router model: %q", cfg.Models.Router)
	}
	if cfg.Limits.MaxIterations != 6 {
		t.Errorf("expected max_iterations 6, got %d", cfg.Limits.MaxIterations)
	}
	if cfg.Timeouts.Run != 2*time.Minute {
		t.Errorf("expected run timeout 2m, got %v", cfg.Timeouts.Run)
	}
	if cfg.Storage.Path != "/tmp/runs.db" {
		t.Errorf("unexpected storage path: %q", cfg.Storage.Path)
	}
	if cfg.Logging.DebugFile != "/tmp/nexus-debug.log" {
		t.Errorf("unexpected debug file: %q", cfg.Logging.DebugFile)
	}
}

func TestLoadFromPathDefaultsApply(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("anthropic:\n  api_key: k\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Limits.MaxIterations != 10 {
		t.Errorf("expected default max_iterations, got %d", cfg.Limits.MaxIterations)
	}
	if cfg.Timeouts.Run != 5*time.Minute {
		t.Errorf("expected default run timeout, got %v", cfg.Timeouts.Run)
	}
}

func TestLoadFromPathExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("NEXUS_TEST_KEY", "expanded-key")
	if err := os.WriteFile(configPath, []byte("anthropic:\n  api_key: ${NEXUS_TEST_KEY}\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Anthropic.APIKey != "expanded-key" {
		t.Errorf("expected expanded key, got %q", cfg.Anthropic.APIKey)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	if _, err := LoadFromPath("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
