package model

import "time"

// Config holds the full runtime configuration
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	LLM         LLMConfig         `yaml:"llm"`
	Connectors  ConnectorConfig   `yaml:"connectors"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Cache       CacheConfig       `yaml:"cache"`
	Output      OutputConfig      `yaml:"output"`
	Server      ServerConfig      `yaml:"server"`

	// Strict enables the conflict and staleness abstention rules
	Strict bool `yaml:"strict"`
}

// HTTPConfig controls outbound connector requests
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy"`
}

// LLMConfig configures the narrator's generation capability
type LLMConfig struct {
	Provider  string `yaml:"provider"` // openai, anthropic, ollama, "" = disabled
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// ConnectorConfig selects and tunes the evidence sources
type ConnectorConfig struct {
	RowLimit  int      `yaml:"row_limit"`  // Max rows requested per connector
	NewsFeeds []string `yaml:"news_feeds"` // Publisher pages scanned by the news connector

	// Base URL overrides; empty selects the production endpoints
	FDABaseURL    string `yaml:"fda_base_url"`
	CTGovBaseURL  string `yaml:"ctgov_base_url"`
	PubMedBaseURL string `yaml:"pubmed_base_url"`
}

// ConcurrencyConfig bounds parallelism
type ConcurrencyConfig struct {
	BatchWorkers int     `yaml:"batch_workers"` // Parallel molecules in batch mode
	RatePerHost  float64 `yaml:"rate_per_host"` // Outbound requests/second per host
	Burst        int     `yaml:"burst"`
}

// CacheConfig controls the connector response cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// ServerConfig configures the HTTP serve mode
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      25 * time.Second,
			UserAgent:    "Grounder/0.1 (+https://github.com/sentinelpharma/grounder)",
			MaxBodyBytes: 2_000_000,
		},
		LLM: LLMConfig{
			Provider:  "", // Disabled by default
			Timeout:   30,
			MaxTokens: 600,
		},
		Connectors: ConnectorConfig{
			RowLimit: 5,
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers: 4,
			RatePerHost:  2,
			Burst:        5,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Strict: true,
	}
}
