package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Gateway.CrawlBaseURL != "http://crawl4ai:11235" {
		t.Fatalf("expected default crawl base URL, got %s", cfg.Gateway.CrawlBaseURL)
	}
	if cfg.Gateway.LLMBaseURL != "http://litellm:4000" {
		t.Fatalf("expected default LLM base URL, got %s", cfg.Gateway.LLMBaseURL)
	}
	if cfg.Storage.Root != "./data" {
		t.Fatalf("expected default storage root, got %s", cfg.Storage.Root)
	}
	if got := cfg.GatewayTimeout(); got != 300*time.Second {
		t.Fatalf("expected gateway timeout 300s, got %v", got)
	}
	if !cfg.Logging.Development {
		t.Fatal("expected development logging by default")
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
gateway:
  crawl_base_url: http://crawler.internal:11235
  llm_base_url: http://llm.internal:4000
  timeout_seconds: 120
storage:
  root: /var/lib/crawldeck
output:
  base_path: /var/lib/crawldeck/output
defaults:
  crawl_depth: 4
  concurrency: 8
  pdf_downloads: true
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Gateway.CrawlBaseURL != "http://crawler.internal:11235" {
		t.Fatalf("expected crawl base URL override, got %s", cfg.Gateway.CrawlBaseURL)
	}
	if cfg.Storage.Root != "/var/lib/crawldeck" {
		t.Fatalf("expected storage root override, got %s", cfg.Storage.Root)
	}
	if got := cfg.GatewayTimeout(); got != 120*time.Second {
		t.Fatalf("expected gateway timeout 120s, got %v", got)
	}
	if cfg.Logging.Development {
		t.Fatal("expected production logging")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 0\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for port 0")
	}
}

func TestDefaultSettingsMirrorConfig(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	settings := cfg.DefaultSettings()
	if settings.CrawlBaseURL != cfg.Gateway.CrawlBaseURL {
		t.Fatalf("expected crawl base URL %s, got %s", cfg.Gateway.CrawlBaseURL, settings.CrawlBaseURL)
	}
	if settings.DefaultCrawlDepth != 2 || settings.DefaultConcurrency != 5 {
		t.Fatalf("expected crawl defaults 2/5, got %d/%d", settings.DefaultCrawlDepth, settings.DefaultConcurrency)
	}
	if settings.FileStoragePath != cfg.Storage.Root {
		t.Fatalf("expected file storage path %s, got %s", cfg.Storage.Root, settings.FileStoragePath)
	}
}
