package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/logger"
)

// Run modes recognized by the pipeline.
const (
	ModeBounded    = "bounded"
	ModeCatchup    = "catchup"
	ModeContinuous = "continuous"
)

// Pipeline defaults.
const (
	defaultMaxBatch       = 25
	defaultMaxConcurrency = 4
	defaultRetryCeiling   = 3
	defaultMatchThreshold = 0.85
	defaultClaimDelay     = 5 * time.Second
	defaultOutageCeiling  = 10
	// defaultDiscoverSchedule re-runs discovery every 30 minutes in
	// continuous mode.
	defaultDiscoverSchedule = "@every 30m"
)

// GitHub client defaults.
const (
	defaultGitHubBaseURL  = "https://api.github.com"
	defaultUserAgent      = "talent-intelligence-enricher/1.0"
	defaultRequestTimeout = 30 * time.Second
	defaultRequestsPerSec = 1.0
	defaultFetchAttempts  = 4
)

// Server defaults.
const (
	defaultServerAddress      = ":8080"
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
	defaultServerIdleTimeout  = 60 * time.Second
)

// Config represents the application configuration.
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	GitHub    GitHubConfig    `yaml:"github"`
	Database  DatabaseConfig  `yaml:"database"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Server    ServerConfig    `yaml:"server"`
	Log       logger.Config   `yaml:"log"`
}

// PipelineConfig controls the orchestrator.
type PipelineConfig struct {
	Mode           string  `env:"PIPELINE_MODE"            yaml:"mode"`
	MaxBatch       int     `env:"PIPELINE_MAX_BATCH"       yaml:"max_batch"`
	MaxConcurrency int     `env:"PIPELINE_MAX_CONCURRENCY" yaml:"max_concurrency"`
	RetryCeiling   int     `env:"PIPELINE_RETRY_CEILING"   yaml:"retry_ceiling"`
	MatchThreshold float64 `env:"PIPELINE_MATCH_THRESHOLD" yaml:"match_threshold"`

	// ClaimRetryDelay is how long a worker sleeps when the queue is empty.
	ClaimRetryDelay time.Duration `env:"PIPELINE_CLAIM_DELAY" yaml:"claim_retry_delay"`
	// OutageCeiling is the number of consecutive persistence failures
	// after which the orchestrator halts instead of failing every item.
	OutageCeiling int `env:"PIPELINE_OUTAGE_CEILING" yaml:"outage_ceiling"`
	// DiscoverSchedule is the cron spec for discovery refresh in
	// continuous mode.
	DiscoverSchedule string `env:"PIPELINE_DISCOVER_SCHEDULE" yaml:"discover_schedule"`
}

// GitHubConfig configures the external API client.
type GitHubConfig struct {
	BaseURL        string        `env:"GITHUB_BASE_URL"   yaml:"base_url"`
	Token          string        `env:"GITHUB_TOKEN"      yaml:"token"`
	UserAgent      string        `env:"GITHUB_USER_AGENT" yaml:"user_agent"`
	RequestTimeout time.Duration `env:"GITHUB_TIMEOUT"    yaml:"request_timeout"`
	RequestsPerSec float64       `env:"GITHUB_RPS"        yaml:"requests_per_sec"`
	FetchAttempts  int           `env:"GITHUB_ATTEMPTS"   yaml:"fetch_attempts"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host     string `env:"DB_HOST"     yaml:"host"`
	Port     string `env:"DB_PORT"     yaml:"port"`
	User     string `env:"DB_USER"     yaml:"user"`
	Password string `env:"DB_PASSWORD" yaml:"password"`
	DBName   string `env:"DB_NAME"     yaml:"dbname"`
	SSLMode  string `env:"DB_SSLMODE"  yaml:"sslmode"`
}

// DiscoveryConfig lists seed sources.
type DiscoveryConfig struct {
	Orgs  []string `env:"DISCOVERY_ORGS"  yaml:"orgs"`
	Repos []string `env:"DISCOVERY_REPOS" yaml:"repos"`
	// RefreshStale re-enqueues linked identifiers whose latest signal is
	// older than StaleAfter.
	RefreshStale bool          `env:"DISCOVERY_REFRESH_STALE" yaml:"refresh_stale"`
	StaleAfter   time.Duration `env:"DISCOVERY_STALE_AFTER"   yaml:"stale_after"`
}

// ServerConfig configures the operational API server.
type ServerConfig struct {
	Address      string        `env:"SERVER_ADDRESS" yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Pipeline.Mode {
	case ModeBounded, ModeCatchup, ModeContinuous:
	default:
		return fmt.Errorf("pipeline: unknown mode %q", c.Pipeline.Mode)
	}

	if c.Pipeline.MaxConcurrency < 1 {
		return errors.New("pipeline: max_concurrency must be at least 1")
	}
	if c.Pipeline.MaxBatch < 1 {
		return errors.New("pipeline: max_batch must be at least 1")
	}
	if c.Pipeline.RetryCeiling < 1 {
		return errors.New("pipeline: retry_ceiling must be at least 1")
	}
	if c.Pipeline.MatchThreshold < 0 || c.Pipeline.MatchThreshold > 1 {
		return errors.New("pipeline: match_threshold must be in [0,1]")
	}

	if c.Database.Host == "" || c.Database.DBName == "" {
		return errors.New("database: host and dbname are required")
	}

	return nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	p := &cfg.Pipeline
	if p.Mode == "" {
		p.Mode = ModeCatchup
	}
	if p.MaxBatch == 0 {
		p.MaxBatch = defaultMaxBatch
	}
	if p.MaxConcurrency == 0 {
		p.MaxConcurrency = defaultMaxConcurrency
	}
	if p.RetryCeiling == 0 {
		p.RetryCeiling = defaultRetryCeiling
	}
	if p.MatchThreshold == 0 {
		p.MatchThreshold = defaultMatchThreshold
	}
	if p.ClaimRetryDelay == 0 {
		p.ClaimRetryDelay = defaultClaimDelay
	}
	if p.OutageCeiling == 0 {
		p.OutageCeiling = defaultOutageCeiling
	}
	if p.DiscoverSchedule == "" {
		p.DiscoverSchedule = defaultDiscoverSchedule
	}

	g := &cfg.GitHub
	if g.BaseURL == "" {
		g.BaseURL = defaultGitHubBaseURL
	}
	if g.UserAgent == "" {
		g.UserAgent = defaultUserAgent
	}
	if g.RequestTimeout == 0 {
		g.RequestTimeout = defaultRequestTimeout
	}
	if g.RequestsPerSec == 0 {
		g.RequestsPerSec = defaultRequestsPerSec
	}
	if g.FetchAttempts == 0 {
		g.FetchAttempts = defaultFetchAttempts
	}

	d := &cfg.Database
	if d.Port == "" {
		d.Port = "5432"
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	s := &cfg.Server
	if s.Address == "" {
		s.Address = defaultServerAddress
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = defaultServerReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = defaultServerWriteTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = defaultServerIdleTimeout
	}

	if cfg.Discovery.StaleAfter == 0 {
		cfg.Discovery.StaleAfter = 30 * 24 * time.Hour
	}
}
