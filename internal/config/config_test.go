package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if cfg.Backend.BaseURL != "http://localhost:3000" {
		t.Errorf("backend.base_url default = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.ScanTimeoutSeconds != 300 {
		t.Errorf("scan_timeout_seconds default = %d", cfg.Backend.ScanTimeoutSeconds)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("database.driver default = %q", cfg.Database.Driver)
	}
	if cfg.Gateway.Port != 6380 {
		t.Errorf("gateway.port default = %d", cfg.Gateway.Port)
	}
	if cfg.LLM.Enabled() {
		t.Error("LLM should be disabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"backend": {"base_url": "http://scans.internal:9000", "scan_timeout_seconds": 60},
		"llm": {"endpoint": "https://llm.example/v1/chat/completions", "api_key": "sk-test"},
		"gateway": {"port": 7001}
	}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.BaseURL != "http://scans.internal:9000" {
		t.Errorf("base_url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.ScanTimeoutSeconds != 60 {
		t.Errorf("scan_timeout_seconds = %d", cfg.Backend.ScanTimeoutSeconds)
	}
	if cfg.Gateway.Port != 7001 {
		t.Errorf("port = %d", cfg.Gateway.Port)
	}
	if !cfg.LLM.Enabled() {
		t.Error("LLM should be enabled when endpoint and key are set")
	}
	if cfg.LLM.Model != "gpt-4" {
		t.Errorf("llm.model default = %q", cfg.LLM.Model)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := &Config{}
	cfg.Backend.BaseURL = "http://example:3000"
	cfg.Gateway.Port = 6500

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Backend.BaseURL != "http://example:3000" || loaded.Gateway.Port != 6500 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}
