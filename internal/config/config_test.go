package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "agentcore.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTestConfig(t, `
version: 1
llm:
  provider: anthropic
  api_key: test-key
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("expected default logging, got %+v", cfg.Logging)
	}
	if cfg.Monitor.Store != "memory" {
		t.Fatalf("expected default monitor store memory, got %q", cfg.Monitor.Store)
	}
	if cfg.Monitor.PruneSchedule != "0 * * * *" {
		t.Fatalf("expected default hourly prune schedule, got %q", cfg.Monitor.PruneSchedule)
	}
	if cfg.LLM.Provider != "anthropic" || cfg.LLM.APIKey != "test-key" {
		t.Fatalf("expected llm config to round-trip, got %+v", cfg.LLM)
	}
}

func TestLoadRejectsMissingVersion(t *testing.T) {
	path := writeTestConfig(t, `
llm:
  provider: anthropic
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected missing version to fail")
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeTestConfig(t, `
version: 1
nonexistent_field: true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected unknown field to fail strict decode")
	}
}
