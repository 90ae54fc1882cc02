package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
site:
  base_url: "https://shop.example.com"
  start_url: "https://shop.example.com/us/men-shoes"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Harvest.MaxRetries)
	assert.Equal(t, time.Second, cfg.Harvest.RetryDelayFactor)
	assert.Equal(t, 5, cfg.Harvest.WorkerLimit)
	assert.Equal(t, 3*time.Second, cfg.Harvest.ExtractTimeout)
	assert.Equal(t, 3, cfg.Harvest.FetchRounds)
	assert.Equal(t, time.Second, cfg.Harvest.JitterMin)
	assert.Equal(t, 3*time.Second, cfg.Harvest.JitterMax)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 45*time.Second, cfg.Browser.NavTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Browser.SettleDelay)
	assert.ElementsMatch(t,
		[]string{"image", "media", "font", "stylesheet"},
		cfg.Browser.ExcludedResourceTypes)

	assert.Equal(t, "output", cfg.Output.Dir)
	assert.Zero(t, cfg.Server.Port)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
harvest:
  max_retries: 5
  retry_delay_factor: "250ms"
  worker_limit: 2
  fetch_rounds: 1
browser:
  headless: false
  domain_qps: 4.5
site:
  base_url: "https://shop.example.com"
  start_url: "https://shop.example.com/us/men-shoes"
server:
  port: 8080
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Harvest.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Harvest.RetryDelayFactor)
	assert.Equal(t, 2, cfg.Harvest.WorkerLimit)
	assert.Equal(t, 1, cfg.Harvest.FetchRounds)
	assert.False(t, cfg.Browser.Headless)
	assert.InDelta(t, 4.5, cfg.Browser.DomainQPS, 1e-9)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadRequiresSite(t *testing.T) {
	path := writeConfig(t, `
harvest:
  max_retries: 3
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "site.base_url")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() Config {
		return Config{
			Harvest: HarvestConfig{
				MaxRetries:       3,
				RetryDelayFactor: time.Second,
				WorkerLimit:      5,
				ExtractTimeout:   3 * time.Second,
				FetchRounds:      3,
				JitterMin:        time.Second,
				JitterMax:        3 * time.Second,
			},
			Browser: BrowserConfig{NavTimeout: 45 * time.Second},
			Site: SiteConfig{
				BaseURL:  "https://shop.example.com",
				StartURL: "https://shop.example.com/us/men-shoes",
			},
			Output: OutputConfig{Dir: "output"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero retries", func(c *Config) { c.Harvest.MaxRetries = 0 }, "max_retries"},
		{"zero delay", func(c *Config) { c.Harvest.RetryDelayFactor = 0 }, "retry_delay_factor"},
		{"zero workers", func(c *Config) { c.Harvest.WorkerLimit = 0 }, "worker_limit"},
		{"zero rounds", func(c *Config) { c.Harvest.FetchRounds = 0 }, "fetch_rounds"},
		{"inverted jitter", func(c *Config) { c.Harvest.JitterMax = c.Harvest.JitterMin - 1 }, "jitter"},
		{"negative qps", func(c *Config) { c.Browser.DomainQPS = -1 }, "domain_qps"},
		{"no start url", func(c *Config) { c.Site.StartURL = "" }, "start_url"},
		{"negative port", func(c *Config) { c.Server.Port = -1 }, "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})
}
