package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeYAML(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sherpa.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaultsAndOverrides(t *testing.T) {
	path := writeYAML(t, `
server:
  doc_root: /srv/www
  port: 9000
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.DocRoot != "/srv/www" {
		t.Fatalf("expected doc_root override, got %q", cfg.Server.DocRoot)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("expected port override 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeoutSecs != 30 {
		t.Fatalf("expected default shutdown_timeout_seconds 30, got %d", cfg.Server.ShutdownTimeoutSecs)
	}
	if cfg.Server.TailPaddingSeconds != 0.3 {
		t.Fatalf("expected default tail_padding_seconds 0.3, got %v", cfg.Server.TailPaddingSeconds)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected log.level override debug, got %q", cfg.Log.Level)
	}
}

func TestValidate_FailsWithoutDocRoot(t *testing.T) {
	var cfg Config
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty doc_root")
	}
}

func TestValidate_FailsWithoutIndexHTML(t *testing.T) {
	cfg := defaults()
	cfg.Server.DocRoot = t.TempDir()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for doc_root missing index.html")
	}
}

func TestValidate_PassesWithIndexHTML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("ok"), 0o644); err != nil {
		t.Fatalf("write index.html: %v", err)
	}
	cfg := defaults()
	cfg.Server.DocRoot = dir
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
