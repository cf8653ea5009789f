package model

import "time"

// Config is the complete runtime configuration.
// Secrets carry `yaml:"-"` so `config show` never prints them.
type Config struct {
	Verify VerifyConfig `yaml:"verify" mapstructure:"verify"`
	Search SearchConfig `yaml:"search" mapstructure:"search"`
	LLM    LLMConfig    `yaml:"llm" mapstructure:"llm"`
	Ledger LedgerConfig `yaml:"ledger" mapstructure:"ledger"`
	Blob   BlobConfig   `yaml:"blob" mapstructure:"blob"`
	Notify NotifyConfig `yaml:"notify" mapstructure:"notify"`
	Budget BudgetConfig `yaml:"budget" mapstructure:"budget"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// VerifyConfig controls the fan-out controller
type VerifyConfig struct {
	MaxClaims   int           `yaml:"max_claims" mapstructure:"max_claims"`     // Cost ceiling, prefix kept
	CallTimeout time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"` // Per retrieval/judgment call
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"` // 1 disables retry
	BackoffBase time.Duration `yaml:"backoff_base" mapstructure:"backoff_base"`
	MaxBackoff  time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
}

// SearchConfig configures the search provider
type SearchConfig struct {
	Provider          string        `yaml:"provider" mapstructure:"provider"` // tavily
	APIKey            string        `yaml:"-" mapstructure:"api_key"`
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	MaxResults        int           `yaml:"max_results" mapstructure:"max_results"`
	Depth             SearchDepth   `yaml:"depth" mapstructure:"depth"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	// Per-host overrides, e.g. a self-hosted search proxy
	HostRates []HostRate `yaml:"host_rates,omitempty" mapstructure:"host_rates"`
}

// HostRate is an outbound rate limit for one host
type HostRate struct {
	Host              string  `yaml:"host" mapstructure:"host"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// LLMConfig configures the generator and judge providers
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, openrouter, anthropic
	Model       string  `yaml:"model" mapstructure:"model"`
	JudgeModel  string  `yaml:"judge_model,omitempty" mapstructure:"judge_model"` // Defaults to Model
	APIKey      string  `yaml:"-" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"`
	HTTPProxy   string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy  string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// LedgerConfig selects the bundle/analytics store
type LedgerConfig struct {
	Backend      string        `yaml:"backend" mapstructure:"backend"` // memory, postgres, firestore
	DatabaseURL  string        `yaml:"-" mapstructure:"database_url"`
	ProjectID    string        `yaml:"project_id,omitempty" mapstructure:"project_id"`
	Database     string        `yaml:"database,omitempty" mapstructure:"database"`
	Collection   string        `yaml:"collection" mapstructure:"collection"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// BlobConfig selects the raw document store
type BlobConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // memory, disk, gcs
	Bucket  string `yaml:"bucket,omitempty" mapstructure:"bucket"`
	Dir     string `yaml:"dir,omitempty" mapstructure:"dir"`
}

// NotifyConfig configures outcome emails
type NotifyConfig struct {
	Provider       string        `yaml:"provider" mapstructure:"provider"` // log, resend
	APIKey         string        `yaml:"-" mapstructure:"api_key"`
	BaseURL        string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	From           string        `yaml:"from" mapstructure:"from"`
	ResultsBaseURL string        `yaml:"results_base_url" mapstructure:"results_base_url"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// BudgetConfig configures the cost circuit-breaker
type BudgetConfig struct {
	Mode           string        `yaml:"mode" mapstructure:"mode"` // off, on, quota
	MaxSubmissions int64         `yaml:"max_submissions" mapstructure:"max_submissions"`
	Window         time.Duration `yaml:"window" mapstructure:"window"`
	RedisURL       string        `yaml:"-" mapstructure:"redis_url"`
}

// ServerConfig configures the HTTP front door
type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	Workers           int           `yaml:"workers" mapstructure:"workers"`
	QueueSize         int           `yaml:"queue_size" mapstructure:"queue_size"` // Pending runs; 0 means 16 per worker
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RunTimeout        time.Duration `yaml:"run_timeout" mapstructure:"run_timeout"`
}

// CacheConfig configures the evidence cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir,omitempty" mapstructure:"disk_dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Verify: VerifyConfig{
			MaxClaims:   10,
			CallTimeout: 45 * time.Second,
			MaxAttempts: 3,
			BackoffBase: 2 * time.Second,
			MaxBackoff:  20 * time.Second,
		},
		Search: SearchConfig{
			Provider:          "tavily",
			BaseURL:           "https://api.tavily.com",
			MaxResults:        10,
			Depth:             SearchDepthAdvanced,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		LLM: LLMConfig{
			Provider:    "openrouter",
			Model:       "openai/gpt-4o",
			Timeout:     60,
			MaxTokens:   2000,
			Temperature: 0,
		},
		Ledger: LedgerConfig{
			Backend:      "memory",
			Collection:   "submissions",
			WriteTimeout: 15 * time.Second,
		},
		Blob: BlobConfig{
			Backend: "memory",
		},
		Notify: NotifyConfig{
			Provider:       "log",
			BaseURL:        "https://api.resend.com",
			From:           "SkillDiff <results@skilldiff.dev>",
			ResultsBaseURL: "https://skilldiff.dev/results",
			Timeout:        15 * time.Second,
		},
		Budget: BudgetConfig{
			Mode:           "off",
			MaxSubmissions: 100,
			Window:         24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			Workers:           4,
			QueueSize:         64,
			RequestsPerSecond: 10,
			Burst:             10,
			MaxBodyBytes:      10 << 20,
			RunTimeout:        10 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
