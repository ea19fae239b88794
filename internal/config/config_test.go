package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Dashboard.Language != "ko" || cfg.Dashboard.Model != "gemini" || cfg.Dashboard.Period != "1y" {
		t.Errorf("unexpected dashboard defaults: %+v", cfg.Dashboard)
	}
	if cfg.Schedule.PricesCron != "@every 10s" || cfg.Schedule.MacroCron != "@every 5m" {
		t.Errorf("unexpected schedule defaults: %+v", cfg.Schedule)
	}
	if cfg.Dashboard.SRReference != "price" || cfg.Dashboard.OptionsRows != 10 {
		t.Errorf("unexpected defaults: %+v", cfg.Dashboard)
	}
	if cfg.Backend.TimeoutSec != 30 {
		t.Errorf("expected 30s timeout, got %d", cfg.Backend.TimeoutSec)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: http://backend:5000
dashboard:
  language: en
  indicators: [rsi, bb]
  sr_reference: rsi
`)
	t.Setenv("DASHBOARD_MODEL", "gpt")
	t.Setenv("DASHBOARD_BACKEND_URL", "http://override:5000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dashboard.Language != "en" {
		t.Errorf("expected en from file, got %s", cfg.Dashboard.Language)
	}
	if cfg.Dashboard.Model != "gpt" {
		t.Errorf("expected gpt from env, got %s", cfg.Dashboard.Model)
	}
	if cfg.Backend.BaseURL != "http://override:5000" {
		t.Errorf("expected env to override file, got %s", cfg.Backend.BaseURL)
	}
	if len(cfg.Dashboard.Indicators) != 2 || cfg.Dashboard.SRReference != "rsi" {
		t.Errorf("unexpected dashboard %+v", cfg.Dashboard)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "dashboard: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad language", func(c *Config) { c.Dashboard.Language = "jp" }},
		{"bad model", func(c *Config) { c.Dashboard.Model = "claude" }},
		{"bad period", func(c *Config) { c.Dashboard.Period = "10y" }},
		{"bad tab", func(c *Config) { c.Dashboard.Tab = "crypto" }},
		{"bad sr reference", func(c *Config) { c.Dashboard.SRReference = "volume" }},
		{"bad indicator", func(c *Config) { c.Dashboard.Indicators = []string{"ichimoku"} }},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "token" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
