package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level application configuration.
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Scraper     ScraperConfig   `toml:"scraper"`
	Validator   ValidatorConfig `toml:"validator"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Webhooks    WebhooksConfig  `toml:"webhooks"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig configures the BadgerDB-backed catalog/webhook/KV store.
type BadgerConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Output     []string `toml:"output"`
	TimeFormat string   `toml:"time_format"`
}

// ScraperConfig controls the Scraping Coordinator (spec.md §4.3).
type ScraperConfig struct {
	TimeoutSec      int `toml:"timeout_sec"`
	MaxRetries      int `toml:"max_retries"`
	CacheTTLSec     int `toml:"cache_ttl_sec"`
	RateLimitPerMin int `toml:"rate_limit_per_min"`
}

// ValidatorConfig controls the Proxy Validator (spec.md §4.4).
type ValidatorConfig struct {
	GeoProvider       string `toml:"geo_provider"`
	AnonymityMode     string `toml:"anonymity_detection_mode"`
	ConcurrentTests   int    `toml:"concurrent_tests"`
	TimeoutSec        int    `toml:"timeout_sec"`
}

// SchedulerConfig is the file-configured half of models.SchedulerConfig.
type SchedulerConfig struct {
	Enabled             bool     `toml:"enabled"`
	ValidateIntervalMin int      `toml:"validate_every_minutes"`
	ScrapeIntervalMin   int      `toml:"scrape_every_minutes"`
	ValidateBatchSize   int      `toml:"validate_max_count"`
	ScrapeQuantity      int      `toml:"scrape_quantity"`
	ValidateTestURLs    []string `toml:"validate_test_urls"`
}

// WebhooksConfig controls webhook fan-out delivery.
type WebhooksConfig struct {
	TimeoutSec int `toml:"timeout_sec"`
}

// NewDefaultConfig returns configuration defaults; only user-facing settings
// need appear in proxyhive.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05.000",
		},
		Scraper: ScraperConfig{
			TimeoutSec:      10,
			MaxRetries:      3,
			CacheTTLSec:     120,
			RateLimitPerMin: 30,
		},
		Validator: ValidatorConfig{
			GeoProvider:     "ip-api",
			AnonymityMode:   "basic",
			ConcurrentTests: 20,
			TimeoutSec:      10,
		},
		Scheduler: SchedulerConfig{
			Enabled:             false,
			ValidateIntervalMin: 30,
			ScrapeIntervalMin:   15,
			ValidateBatchSize:   50,
			ScrapeQuantity:      20,
			ValidateTestURLs:    []string{"http://example.com", "https://httpbin.org/get"},
		},
		Webhooks: WebhooksConfig{
			TimeoutSec: 5,
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file(s) in
// order given -> environment variable overrides -> CLI flag overrides
// (CLI flags applied later, via ApplyFlagOverrides).
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config,
// matching the teacher's convention of ignoring unset/unparsable values
// rather than erroring.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PROXYHIVE_ENV"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("PROXYHIVE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("PROXYHIVE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if path := os.Getenv("PROXYHIVE_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if level := os.Getenv("PROXYHIVE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("PROXYHIVE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("PROXYHIVE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Environment keys enumerated verbatim in spec.md §6.
	if v := os.Getenv("GEO_PROVIDER"); v != "" {
		config.Validator.GeoProvider = v
	}
	if v := os.Getenv("ANONYMITY_DETECTION_MODE"); v != "" {
		config.Validator.AnonymityMode = v
	}
	if v := os.Getenv("SCRAPER_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Scraper.TimeoutSec = n
		}
	}
	if v := os.Getenv("SCRAPER_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Scraper.MaxRetries = n
		}
	}
	if v := os.Getenv("SCRAPER_CACHE_TTL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Scraper.CacheTTLSec = n
		}
	}
	if v := os.Getenv("SCRAPER_RATE_LIMIT_PER_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Scraper.RateLimitPerMin = n
		}
	}
	if v := os.Getenv("PROXY_SCHEDULER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Scheduler.Enabled = b
		}
	}
	if v := os.Getenv("PROXY_SCHEDULER_VALIDATE_EVERY_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Scheduler.ValidateIntervalMin = n
		}
	}
	if v := os.Getenv("PROXY_SCHEDULER_SCRAPE_EVERY_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Scheduler.ScrapeIntervalMin = n
		}
	}
	if v := os.Getenv("PROXY_SCHEDULER_VALIDATE_MAX_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Scheduler.ValidateBatchSize = n
		}
	}
	if v := os.Getenv("PROXY_SCHEDULER_SCRAPE_QUANTITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Scheduler.ScrapeQuantity = n
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides; these take
// highest priority.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// Timeout and CacheTTL convert the scraper's second-valued settings to
// time.Duration, for the scraping coordinator and its adapters.
func (c *ScraperConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c *ScraperConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

func (c *ValidatorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c *WebhooksConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}
