package config

// Config is the process-level configuration loaded once at startup via
// LoadRaw + decodeRawConfig. Per §5.3, orchestration-level tuning lives
// in orchestrator.Options instead; this struct only covers what must be
// fixed for the lifetime of the process: which LLM backs intent
// classification, where the tool catalog lives, and how the monitor and
// tracer persist history.
type Config struct {
	Version int `yaml:"version"`

	Logging LoggingConfig `yaml:"logging"`
	LLM     LLMConfig     `yaml:"llm"`
	Catalog CatalogConfig `yaml:"catalog"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Episodes EpisodesConfig `yaml:"episodes"`
}

// LoggingConfig selects slog's output shape and verbosity.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error, default info
	Format string `yaml:"format"` // json|text, default json
}

// LLMConfig selects and configures the IntentLLM adapter.
type LLMConfig struct {
	Provider   string `yaml:"provider"` // anthropic|openai|bedrock|gemini
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	MaxRetries int    `yaml:"max_retries"`

	// Bedrock-specific; ignored by other providers.
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
}

// CatalogConfig points at the YAML tool-catalog file internal/registry's
// fsnotify watcher hot-reloads.
type CatalogConfig struct {
	Path      string `yaml:"path"`
	WatchFile bool   `yaml:"watch"`
}

// MonitorConfig selects the Execution Monitor's persistence backend.
type MonitorConfig struct {
	Store          string `yaml:"store"` // memory|postgres|sqlite, default memory
	DSN            string `yaml:"dsn"`
	RingSize       int    `yaml:"ring_size"`
	RetentionHours int    `yaml:"retention_hours"`
	PruneSchedule  string `yaml:"prune_schedule"` // cron spec, default hourly
}

// TracingConfig controls the Tracer's OTLP export and S3 archival.
type TracingConfig struct {
	Enabled      bool   `yaml:"enabled"`
	RingSize     int    `yaml:"ring_size"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	S3Bucket     string `yaml:"s3_bucket"`
	S3Region     string `yaml:"s3_region"`
}

// EpisodesConfig selects the Orchestrator's episode-memory backend.
type EpisodesConfig struct {
	Store string `yaml:"store"` // memory|postgres, default memory
	DSN   string `yaml:"dsn"`
}

// Load reads path, resolves $include directives, and decodes the result
// into a validated Config.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, err
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	if err := ValidateVersion(cfg.Version); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Monitor.Store == "" {
		cfg.Monitor.Store = "memory"
	}
	if cfg.Monitor.PruneSchedule == "" {
		cfg.Monitor.PruneSchedule = "0 * * * *"
	}
}
