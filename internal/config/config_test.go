package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsMatchDocumentedContract(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.ListenAddr != "0.0.0.0:8001" {
		t.Errorf("ListenAddr = %q, want %q", cfg.Server.ListenAddr, "0.0.0.0:8001")
	}
	if cfg.Responses.Hello.Message != "Hello from Rust Docker container!" {
		t.Errorf("Hello.Message = %q", cfg.Responses.Hello.Message)
	}
	if cfg.Responses.Hello.Status != "success" {
		t.Errorf("Hello.Status = %q, want %q", cfg.Responses.Hello.Status, "success")
	}
	if cfg.Responses.Health.Message != "Service is healthy" {
		t.Errorf("Health.Message = %q", cfg.Responses.Health.Message)
	}
	if cfg.Responses.Health.Status != "ok" {
		t.Errorf("Health.Status = %q, want %q", cfg.Responses.Health.Status, "ok")
	}
	info := cfg.Responses.Info
	if info.Service != "rust-project" || info.Version != "0.1.0" || info.Port != 8001 {
		t.Errorf("Info = %+v", info)
	}
	if info.Description != "Rust web service running in Docker" {
		t.Errorf("Info.Description = %q", info.Description)
	}
	if info.Author != "Your Name" {
		t.Errorf("Info.Author = %q, want %q", info.Author, "Your Name")
	}
	if cfg.RateLimit.Enabled {
		t.Error("rate limiting should be disabled by default")
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should be disabled by default")
	}
}

func TestLoadWithEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != "0.0.0.0:8001" {
		t.Errorf("ListenAddr = %q, want default", cfg.Server.ListenAddr)
	}
}

func TestLoadParsesYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hellosvc.yaml")
	content := `
server:
  listen_addr: "127.0.0.1:9000"
  read_timeout: 2s
responses:
  info:
    author: "Someone Else"
metrics:
  enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("ListenAddr = %q, want %q", cfg.Server.ListenAddr, "127.0.0.1:9000")
	}
	if cfg.Server.ReadTimeout != 2*time.Second {
		t.Errorf("ReadTimeout = %v, want 2s", cfg.Server.ReadTimeout)
	}
	if cfg.Responses.Info.Author != "Someone Else" {
		t.Errorf("Info.Author = %q, want override", cfg.Responses.Info.Author)
	}
	// Untouched sections keep their defaults.
	if cfg.Responses.Hello.Message != "Hello from Rust Docker container!" {
		t.Errorf("Hello.Message lost its default: %q", cfg.Responses.Hello.Message)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/hellosvc.yaml")
	if err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a mapping"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HELLOSVC_LISTEN_ADDR", "127.0.0.1:8080")
	t.Setenv("HELLOSVC_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != "127.0.0.1:8080" {
		t.Errorf("ListenAddr = %q, want env override", cfg.Server.ListenAddr)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
}

func TestSlogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"WARN", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
		{"", "INFO"},
	}
	for _, c := range cases {
		got := LogConfig{Level: c.in}.SlogLevel().String()
		if got != c.want {
			t.Errorf("SlogLevel(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}
