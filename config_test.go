package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseConfig_OverlaysDefaults(t *testing.T) {
	data := []byte(`
cache_ttl: 5m
batch_workers: 4
stream_max_gap: 50
category_domains:
  Rust:
    - rust-lang.org
`)
	cfg, err := parseConfig(data)
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}

	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("Expected cache_ttl 5m, got %v", cfg.CacheTTL)
	}
	if cfg.BatchWorkers != 4 {
		t.Errorf("Expected 4 batch workers, got %d", cfg.BatchWorkers)
	}
	if cfg.StreamMaxGap != 50 {
		t.Errorf("Expected stream_max_gap 50, got %d", cfg.StreamMaxGap)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("Expected default base URL, got %q", cfg.BaseURL)
	}
	if cfg.RetryAttempts != 3 {
		t.Errorf("Expected default retry attempts, got %d", cfg.RetryAttempts)
	}
	if got := cfg.CategoryDomains["Rust"]; len(got) != 1 || got[0] != "rust-lang.org" {
		t.Errorf("Expected Rust category, got %v", cfg.CategoryDomains)
	}
}

func TestParseConfig_InvalidValuesFallBack(t *testing.T) {
	cfg, err := parseConfig([]byte("retry_attempts: -2\nbase_url: \"\"\n"))
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	if cfg.RetryAttempts != 3 {
		t.Errorf("Expected retry attempts to fall back to 3, got %d", cfg.RetryAttempts)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("Expected default base URL, got %q", cfg.BaseURL)
	}
}

func TestParseConfig_InvalidYAML(t *testing.T) {
	if _, err := parseConfig([]byte("cache_ttl: [nope")); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hnlive.yaml")
	if err := os.WriteFile(path, []byte("db_path: /tmp/archive.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadConfig(path)
	if cfg.DBPath != "/tmp/archive.db" {
		t.Errorf("Expected db_path from file, got %q", cfg.DBPath)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if cfg.StreamInterval != DefaultConfig().StreamInterval {
		t.Errorf("Expected default stream interval, got %v", cfg.StreamInterval)
	}
}

func TestLoadConfig_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("stream_interval: 30s\n"))
	}))
	defer server.Close()

	cfg := LoadConfig(server.URL + "/hnlive.yaml")
	if cfg.StreamInterval != 30*time.Second {
		t.Errorf("Expected stream interval from URL, got %v", cfg.StreamInterval)
	}
}

func TestLoadConfig_URLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	cfg := LoadConfig(server.URL)
	if cfg.BatchWorkers != DefaultConfig().BatchWorkers {
		t.Errorf("Expected defaults after HTTP error, got %d workers", cfg.BatchWorkers)
	}
}

func TestConfig_Options(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BatchWorkers = 7
	cfg.StreamMaxGap = 9

	if got := cfg.ClientOptions().BatchWorkers; got != 7 {
		t.Errorf("Expected 7 workers in client options, got %d", got)
	}
	if got := cfg.ManagerOptions().StreamMaxGap; got != 9 {
		t.Errorf("Expected gap 9 in manager options, got %d", got)
	}
}

func TestCategoryMapper(t *testing.T) {
	mapper := NewCategoryMapper(DefaultConfig().CategoryDomains)

	testCases := []struct {
		domain   string
		expected string
	}{
		{"github.com", "GitHub"},
		{"GitHub.com", "GitHub"},
		{"en.wikipedia.org", "Wikipedia"},
		{"youtu.be", "YouTube"},
		{"notgithub.com", ""},
		{"example.com", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.domain, func(t *testing.T) {
			if got := mapper.GetCategoryForDomain(tc.domain); got != tc.expected {
				t.Errorf("Expected '%s', got '%s'", tc.expected, got)
			}
		})
	}

	if got := len(mapper.GetAllCategories()); got != 4 {
		t.Errorf("Expected 4 categories, got %d", got)
	}
}
