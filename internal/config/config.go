// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every configuration knob loaded via Viper. Values come
// from a config file, CRAWL_-prefixed environment variables, or defaults.
type Config struct {
	Harvest HarvestConfig `mapstructure:"harvest"`
	Browser BrowserConfig `mapstructure:"browser"`
	Site    SiteConfig    `mapstructure:"site"`
	Output  OutputConfig  `mapstructure:"output"`
	DB      DBConfig      `mapstructure:"db"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// HarvestConfig governs the worker pool, retry policy, and fetch rounds.
type HarvestConfig struct {
	MaxRetries       int           `mapstructure:"max_retries"`
	RetryDelayFactor time.Duration `mapstructure:"retry_delay_factor"`
	WorkerLimit      int           `mapstructure:"worker_limit"`
	ExtractTimeout   time.Duration `mapstructure:"extract_timeout"`
	FetchRounds      int           `mapstructure:"fetch_rounds"`
	JitterMin        time.Duration `mapstructure:"jitter_min"`
	JitterMax        time.Duration `mapstructure:"jitter_max"`
}

// BrowserConfig controls the headless browser contexts.
type BrowserConfig struct {
	UserAgent             string        `mapstructure:"user_agent"`
	Headless              bool          `mapstructure:"headless"`
	NavTimeout            time.Duration `mapstructure:"nav_timeout"`
	SettleDelay           time.Duration `mapstructure:"settle_delay"`
	DomainQPS             float64       `mapstructure:"domain_qps"`
	ExcludedResourceTypes []string      `mapstructure:"excluded_resource_types"`
}

// SiteConfig names the storefront to harvest.
type SiteConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	StartURL string `mapstructure:"start_url"`
}

// OutputConfig sets where the products report lands.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// DBConfig controls the optional Postgres outcome store. An empty DSN
// disables it.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// ServerConfig controls the optional status HTTP server. Port 0 disables it.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk and environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("harvest.max_retries", 3)
	v.SetDefault("harvest.retry_delay_factor", "1s")
	v.SetDefault("harvest.worker_limit", 5)
	v.SetDefault("harvest.extract_timeout", "3s")
	v.SetDefault("harvest.fetch_rounds", 3)
	v.SetDefault("harvest.jitter_min", "1s")
	v.SetDefault("harvest.jitter_max", "3s")

	v.SetDefault("browser.user_agent", "pageharvest/0.1")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.nav_timeout", "45s")
	v.SetDefault("browser.settle_delay", "500ms")
	v.SetDefault("browser.domain_qps", 0.0)
	v.SetDefault("browser.excluded_resource_types", []string{"image", "media", "font", "stylesheet"})

	v.SetDefault("output.dir", "output")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("server.port", 0)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Harvest.MaxRetries < 1 {
		return fmt.Errorf("harvest.max_retries must be >= 1")
	}
	if c.Harvest.RetryDelayFactor <= 0 {
		return fmt.Errorf("harvest.retry_delay_factor must be > 0")
	}
	if c.Harvest.WorkerLimit < 1 {
		return fmt.Errorf("harvest.worker_limit must be >= 1")
	}
	if c.Harvest.ExtractTimeout <= 0 {
		return fmt.Errorf("harvest.extract_timeout must be > 0")
	}
	if c.Harvest.FetchRounds < 1 {
		return fmt.Errorf("harvest.fetch_rounds must be >= 1")
	}
	if c.Harvest.JitterMin < 0 || c.Harvest.JitterMax < c.Harvest.JitterMin {
		return fmt.Errorf("harvest.jitter_min/jitter_max must satisfy 0 <= min <= max")
	}
	if c.Browser.NavTimeout <= 0 {
		return fmt.Errorf("browser.nav_timeout must be > 0")
	}
	if c.Browser.DomainQPS < 0 {
		return fmt.Errorf("browser.domain_qps must be >= 0")
	}
	if c.Site.BaseURL == "" {
		return fmt.Errorf("site.base_url must be set")
	}
	if c.Site.StartURL == "" {
		return fmt.Errorf("site.start_url must be set")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	if c.Server.Port < 0 {
		return fmt.Errorf("server.port must be >= 0")
	}
	return nil
}
