package pricewatch

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level engine configuration.
type Config struct {
	// DBPath is the sqlite database file. ":memory:" works for tests.
	DBPath string `yaml:"db_path"`

	Runner  RunnerConfig  `yaml:"runner"`
	HTTP    HTTPConfig    `yaml:"http"`
	Browser BrowserConfig `yaml:"browser"`
}

// RunnerConfig controls batch execution.
type RunnerConfig struct {
	Concurrency int           `yaml:"concurrency"`
	DelayBase   time.Duration `yaml:"delay_base"`
	DelayJitter time.Duration `yaml:"delay_jitter"`
}

// HTTPConfig controls the plain-GET strategy.
type HTTPConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	MaxBytes int64         `yaml:"max_bytes"`
	Locale   string        `yaml:"locale"`
}

// BrowserConfig controls the rendering strategy.
type BrowserConfig struct {
	// Remote is a DevTools websocket URL of an already-running Chrome.
	// Empty launches a local headless instance on demand.
	Remote     string        `yaml:"remote"`
	NavTimeout time.Duration `yaml:"nav_timeout"`
	WaitPoll   time.Duration `yaml:"wait_poll"`
}

func (c *Config) applyDefaults() {
	if c.DBPath == "" {
		c.DBPath = "pricewatch.db"
	}
	if c.Runner.Concurrency <= 0 {
		c.Runner.Concurrency = 3
	}
	if c.Runner.DelayBase <= 0 {
		c.Runner.DelayBase = 2 * time.Second
	}
	if c.Runner.DelayJitter <= 0 {
		c.Runner.DelayJitter = 3 * time.Second
	}
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = 20 * time.Second
	}
	if c.HTTP.MaxBytes <= 0 {
		c.HTTP.MaxBytes = 5 << 20
	}
	if c.HTTP.Locale == "" {
		c.HTTP.Locale = "en-US,en;q=0.8"
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 45 * time.Second
	}
	if c.Browser.WaitPoll <= 0 {
		c.Browser.WaitPoll = 500 * time.Millisecond
	}
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var c Config
	c.applyDefaults()
	return c
}

// LoadConfigFile reads a YAML configuration file and applies defaults.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}
