package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration of hnlive. Zero fields take the defaults.
type Config struct {
	BaseURL         string              `yaml:"base_url"`
	CacheTTL        time.Duration       `yaml:"cache_ttl"`
	RequestTimeout  time.Duration       `yaml:"request_timeout"`
	RetryAttempts   int                 `yaml:"retry_attempts"`
	RetryBaseDelay  time.Duration       `yaml:"retry_base_delay"`
	BatchWorkers    int                 `yaml:"batch_workers"`
	StreamInterval  time.Duration       `yaml:"stream_interval"`
	StreamMaxGap    int                 `yaml:"stream_max_gap"`
	DBPath          string              `yaml:"db_path"`
	CategoryDomains map[string][]string `yaml:"category_domains"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config {
	client := DefaultClientOptions()
	return Config{
		BaseURL:        client.BaseURL,
		CacheTTL:       client.CacheTTL,
		RequestTimeout: client.RequestTimeout,
		RetryAttempts:  client.RetryAttempts,
		RetryBaseDelay: client.RetryBaseDelay,
		BatchWorkers:   client.BatchWorkers,
		StreamInterval: 10 * time.Second,
		StreamMaxGap:   500,
		DBPath:         "hnlive.db",
		CategoryDomains: map[string][]string{
			"GitHub":    {"github.com", "gist.github.com"},
			"ArXiv":     {"arxiv.org"},
			"YouTube":   {"youtube.com", "youtu.be"},
			"Wikipedia": {"wikipedia.org"},
		},
	}
}

// ClientOptions derives the remote client settings
func (c Config) ClientOptions() ClientOptions {
	return ClientOptions{
		BaseURL:        c.BaseURL,
		CacheTTL:       c.CacheTTL,
		RequestTimeout: c.RequestTimeout,
		RetryAttempts:  c.RetryAttempts,
		RetryBaseDelay: c.RetryBaseDelay,
		BatchWorkers:   c.BatchWorkers,
	}
}

// ManagerOptions derives the DataManager settings
func (c Config) ManagerOptions() ManagerOptions {
	return ManagerOptions{StreamMaxGap: c.StreamMaxGap}
}

// loadConfigFromURL loads configuration from a remote URL with timeout
func loadConfigFromURL(url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch config: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// parseConfig overlays YAML data on the defaults
func parseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = def.CacheTTL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = def.RetryAttempts
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = def.RetryBaseDelay
	}
	if c.BatchWorkers <= 0 {
		c.BatchWorkers = def.BatchWorkers
	}
	if c.StreamInterval <= 0 {
		c.StreamInterval = def.StreamInterval
	}
	if c.StreamMaxGap <= 0 {
		c.StreamMaxGap = def.StreamMaxGap
	}
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	return c
}

// LoadConfig reads configuration from a local file or an http(s) URL.
// An empty location or a load failure falls back to the defaults.
func LoadConfig(location string) Config {
	if location == "" {
		slog.Debug("No config given, using defaults")
		return DefaultConfig()
	}

	var data []byte
	var err error
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		slog.Debug("Loading config from remote URL", "url", location)
		data, err = loadConfigFromURL(location)
	} else {
		slog.Debug("Loading config from local file", "path", location)
		data, err = os.ReadFile(location)
	}
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "location", location, "error", err)
		return DefaultConfig()
	}

	cfg, err := parseConfig(data)
	if err != nil {
		slog.Warn("Invalid config, using defaults", "location", location, "error", err)
		return DefaultConfig()
	}

	slog.Info("Loaded config", "location", location)
	return cfg
}

// CategoryMapper maps link domains to display categories
type CategoryMapper struct {
	categories       map[string][]string
	domainToCategory map[string]string // reverse lookup for efficient searching
}

// NewCategoryMapper builds the reverse lookup from category -> domains
func NewCategoryMapper(categoryDomains map[string][]string) *CategoryMapper {
	mapper := &CategoryMapper{
		categories:       categoryDomains,
		domainToCategory: make(map[string]string),
	}

	for category, domains := range categoryDomains {
		for _, domain := range domains {
			mapper.domainToCategory[strings.ToLower(domain)] = category
		}
	}

	slog.Debug("CategoryMapper initialized", "categories", len(categoryDomains), "domain_mappings", len(mapper.domainToCategory))
	return mapper
}

// GetCategoryForDomain returns the category for a given domain, or empty string if not found
func (cm *CategoryMapper) GetCategoryForDomain(domain string) string {
	domain = strings.ToLower(domain)

	if category, exists := cm.domainToCategory[domain]; exists {
		return category
	}

	// subdomains match their parent, e.g. en.wikipedia.org
	for mappedDomain, category := range cm.domainToCategory {
		if strings.HasSuffix(domain, "."+mappedDomain) {
			return category
		}
	}

	return ""
}

// GetAllCategories returns all available categories
func (cm *CategoryMapper) GetAllCategories() []string {
	categories := make([]string, 0, len(cm.categories))
	for category := range cm.categories {
		categories = append(categories, category)
	}
	return categories
}
