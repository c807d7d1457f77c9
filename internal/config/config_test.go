package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Listen != ":8002" {
		t.Errorf("unexpected listen address %q", cfg.Listen)
	}
	if cfg.AIEndpoint != "http://localhost:11434/api/generate" {
		t.Errorf("assistant must target the generate endpoint, got %q", cfg.AIEndpoint)
	}
	if cfg.AIModel != "llama3.1" {
		t.Errorf("unexpected model %q", cfg.AIModel)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DEEPLY_AI_ENDPOINT", "http://ai.internal:11434/api/generate")
	t.Setenv("DEEPLY_LISTEN", ":9000")

	cfg := DefaultConfig()
	if cfg.AIEndpoint != "http://ai.internal:11434/api/generate" {
		t.Errorf("env override ignored: %q", cfg.AIEndpoint)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("env override ignored: %q", cfg.Listen)
	}
}
