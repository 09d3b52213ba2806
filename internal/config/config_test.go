package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromPathReadsAllSections(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "techwatch.yaml")
	content := `sources:
  timeout_seconds: 5
  max_retries: 1
  max_per_source: 7
history:
  backend: file
  retention_days: 21
llm:
  providers:
    - name: primary
      type: openai
      api_key: sk-test
      model: gpt-4o-mini
    - name: backup
      type: anthropic
      api_key: ak-test
notify:
  telegram:
    token: tg-token
    chat_id: 42
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Sources.TimeoutSeconds != 5 || cfg.Sources.MaxRetries != 1 {
		t.Fatalf("unexpected sources config: %+v", cfg.Sources)
	}
	if cfg.Sources.MaxPerSource != 7 {
		t.Fatalf("expected max_per_source=7, got %d", cfg.Sources.MaxPerSource)
	}
	if cfg.History.Backend != "file" || cfg.History.RetentionDays != 21 {
		t.Fatalf("unexpected history config: %+v", cfg.History)
	}
	if len(cfg.LLM.Providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(cfg.LLM.Providers))
	}
	if cfg.LLM.Providers[0].Name != "primary" || cfg.LLM.Providers[0].Type != "openai" {
		t.Fatalf("unexpected first provider: %+v", cfg.LLM.Providers[0])
	}
	if cfg.Notify.Telegram.ChatID != 42 {
		t.Fatalf("unexpected telegram chat id: %d", cfg.Notify.Telegram.ChatID)
	}
}

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Sources.TimeoutSeconds != 10 {
		t.Fatalf("expected default timeout, got %d", cfg.Sources.TimeoutSeconds)
	}
	if cfg.History.RetentionDays != 14 {
		t.Fatalf("expected default retention, got %d", cfg.History.RetentionDays)
	}
	if cfg.History.Backend != "sqlite" {
		t.Fatalf("expected sqlite backend, got %q", cfg.History.Backend)
	}
}

func TestApplyEnvBuildsProvidersFromKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("ANTHROPIC_API_KEY", "ak-env")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.LLM.Providers) != 2 {
		t.Fatalf("expected providers from env, got %d", len(cfg.LLM.Providers))
	}
	if cfg.LLM.Providers[0].Type != "openai" || cfg.LLM.Providers[0].APIKey != "sk-env" {
		t.Fatalf("unexpected env provider: %+v", cfg.LLM.Providers[0])
	}
}

func TestLoadDotEnvNextToConfig(t *testing.T) {
	tmp := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmp, ".env"), []byte("TELEGRAM_BOT_TOKEN=from-dotenv\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// make sure the process env does not shadow the .env value
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	os.Unsetenv("TELEGRAM_BOT_TOKEN")

	cfg, err := LoadFromPath(filepath.Join(tmp, "techwatch.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Notify.Telegram.Token != "from-dotenv" {
		t.Fatalf("expected token from .env, got %q", cfg.Notify.Telegram.Token)
	}
}
