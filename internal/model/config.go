package model

import "time"

// Config holds the full cleanse configuration. Defaults come from
// DefaultConfig; the CLI layers config file, CLEANSE_* environment
// variables, and flags on top.
type Config struct {
	Linker     LinkerConfig     `json:"linker" yaml:"linker"`
	Anomaly    AnomalyConfig    `json:"anomaly" yaml:"anomaly"`
	Enrichment EnrichmentConfig `json:"enrichment" yaml:"enrichment"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	LLM        LLMConfig        `json:"llm" yaml:"llm"`
	Output     OutputConfig     `json:"output" yaml:"output"`
}

// LinkerConfig controls duplicate linkage.
type LinkerConfig struct {
	// Threshold is the minimum similarity score (0-100) for a match.
	Threshold int `json:"threshold" yaml:"threshold"`
}

// AnomalyConfig controls the isolation-forest detector.
type AnomalyConfig struct {
	Contamination float64 `json:"contamination" yaml:"contamination"`
	Seed          int64   `json:"seed" yaml:"seed"`
	Trees         int     `json:"trees" yaml:"trees"`
	SubsampleSize int     `json:"subsample_size" yaml:"subsample_size"`
}

// EnrichmentConfig controls the external company lookup.
type EnrichmentConfig struct {
	Enabled     bool          `json:"enabled" yaml:"enabled"`
	BaseURL     string        `json:"base_url" yaml:"base_url"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	Concurrency int           `json:"concurrency" yaml:"concurrency"`
	MaxRetries  int           `json:"max_retries" yaml:"max_retries"`
	UserAgent   string        `json:"user_agent" yaml:"user_agent"`

	// Rate limiting for the enrichment endpoint.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int     `json:"burst_size" yaml:"burst_size"`

	// Proxy settings (fall back to environment when empty).
	HTTPProxy  string `json:"http_proxy,omitempty" yaml:"http_proxy,omitempty"`
	HTTPSProxy string `json:"https_proxy,omitempty" yaml:"https_proxy,omitempty"`
}

// CacheConfig controls enrichment response caching.
type CacheConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled"`
	TTL     time.Duration `json:"ttl" yaml:"ttl"`
	Dir     string        `json:"dir,omitempty" yaml:"dir,omitempty"` // enables disk layer when set
}

// LLMConfig controls the optional report summarizer.
type LLMConfig struct {
	Provider  string `json:"provider,omitempty" yaml:"provider,omitempty"` // "openai", "ollama", "" = disabled
	Model     string `json:"model,omitempty" yaml:"model,omitempty"`
	APIKey    string `json:"-" yaml:"-"`
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Timeout   int    `json:"timeout" yaml:"timeout"` // seconds
	MaxTokens int    `json:"max_tokens" yaml:"max_tokens"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Verbose bool `json:"verbose" yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Linker: LinkerConfig{
			Threshold: 85,
		},
		Anomaly: AnomalyConfig{
			Contamination: 0.05,
			Seed:          42,
			Trees:         100,
			SubsampleSize: 256,
		},
		Enrichment: EnrichmentConfig{
			Enabled:           false,
			Timeout:           10 * time.Second,
			Concurrency:       4,
			MaxRetries:        3,
			UserAgent:         "Cleanse/0.1 (+https://github.com/datakith/cleanse)",
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 1000,
		},
	}
}
