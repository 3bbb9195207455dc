package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.API.BaseURL != "http://localhost:8181" {
		t.Errorf("expected default base URL, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Collection != "default" {
		t.Errorf("expected Collection='default', got %q", cfg.API.Collection)
	}
	if cfg.Stream.IdleTimeoutSec != 120 {
		t.Errorf("expected IdleTimeoutSec=120, got %d", cfg.Stream.IdleTimeoutSec)
	}
	if cfg.Search.Method != "hybrid" {
		t.Errorf("expected Method='hybrid', got %q", cfg.Search.Method)
	}
	if cfg.Search.Expansion != "auto" {
		t.Errorf("expected Expansion='auto', got %q", cfg.Search.Expansion)
	}
	if cfg.Search.ResponseType != "completion" {
		t.Errorf("expected ResponseType='completion', got %q", cfg.Search.ResponseType)
	}
	if cfg.Search.Limit != 20 {
		t.Errorf("expected Limit=20, got %d", cfg.Search.Limit)
	}
	if cfg.History.KeyPrefix != "sw:" {
		t.Errorf("expected KeyPrefix='sw:', got %q", cfg.History.KeyPrefix)
	}
	if cfg.History.TTLHours != 72 {
		t.Errorf("expected TTLHours=72, got %d", cfg.History.TTLHours)
	}
	if cfg.Replay.Port != 8181 {
		t.Errorf("expected Port=8181, got %d", cfg.Replay.Port)
	}
	if cfg.Replay.HeartbeatSec != 15 {
		t.Errorf("expected HeartbeatSec=15, got %d", cfg.Replay.HeartbeatSec)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		API:    APIConfig{BaseURL: "https://search.internal", Collection: "kb"},
		Search: SearchConfig{Method: "keyword", Limit: 5},
		Stream: StreamConfig{IdleTimeoutSec: 30},
	}
	cfg.ApplyDefaults()

	if cfg.API.BaseURL != "https://search.internal" {
		t.Errorf("base URL overridden: %q", cfg.API.BaseURL)
	}
	if cfg.Search.Method != "keyword" {
		t.Errorf("method overridden: %q", cfg.Search.Method)
	}
	if cfg.Search.Limit != 5 {
		t.Errorf("limit overridden: %d", cfg.Search.Limit)
	}
	if cfg.Stream.IdleTimeoutSec != 30 {
		t.Errorf("idle timeout overridden: %d", cfg.Stream.IdleTimeoutSec)
	}
}

func TestApplyDefaults_NegativeIdleTimeoutDisables(t *testing.T) {
	cfg := Config{Stream: StreamConfig{IdleTimeoutSec: -1}}
	cfg.ApplyDefaults()
	if cfg.Stream.IdleTimeoutSec != 0 {
		t.Errorf("negative idle timeout should disable the watchdog, got %d", cfg.Stream.IdleTimeoutSec)
	}
}

func TestValidate_InvalidMethod(t *testing.T) {
	cfg := Default()
	cfg.Search.Method = "psychic"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid search method")
	}
}

func TestValidate_InvalidRecencyBias(t *testing.T) {
	cfg := Default()
	cfg.Search.RecencyBias = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range recency bias")
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Default()
	cfg.Replay.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid replay port")
	}
}

func TestHistoryEnabled(t *testing.T) {
	if (HistoryConfig{}).Enabled() {
		t.Error("history without addrs should be disabled")
	}
	if !(HistoryConfig{Addrs: []string{"localhost:6379"}}).Enabled() {
		t.Error("history with addrs should be enabled")
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	content := `
api:
  base_url: http://localhost:9999
  api_key: ${SEARCHWIRE_TEST_KEY}
history:
  password: ${SEARCHWIRE_TEST_MISSING:-fallback}
`
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SEARCHWIRE_TEST_KEY", "sekrit")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:9999" {
		t.Errorf("unexpected base URL: %q", cfg.API.BaseURL)
	}
	if cfg.API.APIKey != "sekrit" {
		t.Errorf("env var not expanded: %q", cfg.API.APIKey)
	}
	if cfg.History.Password != "fallback" {
		t.Errorf("default expansion failed: %q", cfg.History.Password)
	}
	// Defaults still fill the rest.
	if cfg.Search.Method != "hybrid" {
		t.Errorf("defaults not applied after load: %q", cfg.Search.Method)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	if _, err := Load("nonexistent"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
