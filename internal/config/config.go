package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Output  string `yaml:"output"`
	Workers int    `yaml:"workers"`
	Debug   bool   `yaml:"debug"`

	Attempts      uint          `yaml:"attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	MaxRetryDelay time.Duration `yaml:"max_retry_delay"`
	Timeout       time.Duration `yaml:"timeout"`
	RateLimit     float64       `yaml:"rate_limit"`

	DefaultURL string `yaml:"default_url"`

	Cookie           string `yaml:"cookie"`
	CookieFile       string `yaml:"cookie_file"`
	UserAgent        string `yaml:"user_agent"`
	CloudflareBypass bool   `yaml:"cloudflare_bypass"`

	// Filters are extra regular expressions removed from chapter text on
	// top of the built-in site noise.
	Filters     []string `yaml:"filters"`
	KeepPartial bool     `yaml:"keep_partial"`
}

type Options struct {
	IgnoreConfig     bool
	Debug            bool
	Output           string
	Workers          int
	Attempts         uint
	Timeout          time.Duration
	RateLimit        float64
	DefaultURL       string
	Cookie           string
	CookieFile       string
	UserAgent        string
	CloudflareBypass bool
	KeepPartial      bool
}

const (
	defaultWorkers       = 8
	defaultAttempts      = 5
	defaultRetryDelay    = 500 * time.Millisecond
	defaultMaxRetryDelay = 10 * time.Second
	defaultTimeout       = 30 * time.Second
)

func DefaultConfig() *Config {
	return &Config{
		Output:        ".",
		Workers:       defaultWorkers,
		Attempts:      defaultAttempts,
		RetryDelay:    defaultRetryDelay,
		MaxRetryDelay: defaultMaxRetryDelay,
		Timeout:       defaultTimeout,
		Filters:       []string{},
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// LoadMerged returns the active config with opts applied on top. The second
// value describes where the config came from.
func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		return finish(DefaultConfig(), opts, "(ignored config)")
	}

	activePath, err := ActiveConfigPath()
	if errors.Is(err, ErrNoConfig) || activePath == "" {
		return finish(DefaultConfig(), opts, "(default config in memory)\nRun `noveld config init` to create an actual config\n")
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	return finish(cfg, opts, activePath)
}

func finish(cfg *Config, opts Options, source string) (*Config, string, error) {
	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, source, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.Workers != 0 {
		c.Workers = o.Workers
	}
	if o.Attempts != 0 {
		c.Attempts = o.Attempts
	}
	if o.Timeout != 0 {
		c.Timeout = o.Timeout
	}
	if o.RateLimit != 0 {
		c.RateLimit = o.RateLimit
	}
	if o.Debug {
		c.Debug = true
	}
	if o.DefaultURL != "" {
		c.DefaultURL = o.DefaultURL
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.CloudflareBypass {
		c.CloudflareBypass = true
	}
	if o.KeepPartial {
		c.KeepPartial = true
	}
}

func normalizeDefaults(c *Config) {
	if c.Output == "" {
		c.Output = "."
	}
	if c.Workers == 0 {
		c.Workers = defaultWorkers
	}
	if c.Attempts == 0 {
		c.Attempts = defaultAttempts
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.MaxRetryDelay == 0 {
		c.MaxRetryDelay = defaultMaxRetryDelay
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.RetryDelay < 0 || c.MaxRetryDelay < 0 || c.Timeout < 0 {
		errs = append(errs, errors.New("durations cannot be negative"))
	}
	if c.MaxRetryDelay < c.RetryDelay {
		errs = append(errs, fmt.Errorf("max_retry_delay %s is below retry_delay %s", c.MaxRetryDelay, c.RetryDelay))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate_limit cannot be negative, got %g", c.RateLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	return nil
}

func (c *Config) Print() {
	if c.Output != "" {
		fmt.Printf(" -output: %s\n", c.Output)
	}
	fmt.Printf(" -workers: %d\n", c.Workers)
	fmt.Printf(" -attempts: %d\n", c.Attempts)
	fmt.Printf(" -retry_delay: %s (max %s)\n", c.RetryDelay, c.MaxRetryDelay)
	fmt.Printf(" -timeout: %s\n", c.Timeout)
	if c.RateLimit > 0 {
		fmt.Printf(" -rate_limit: %g/s\n", c.RateLimit)
	}
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
	if c.DefaultURL != "" {
		fmt.Printf(" -url: %s\n", c.DefaultURL)
	}
	if c.CookieFile != "" {
		fmt.Printf(" -cookie_file: %s\n", c.CookieFile)
	}
	if c.CloudflareBypass {
		fmt.Printf(" -cloudflare_bypass: %t\n", c.CloudflareBypass)
	}
	if len(c.Filters) > 0 {
		fmt.Printf(" -filters: %s\n", strings.Join(c.Filters, ", "))
	}
	if c.KeepPartial {
		fmt.Printf(" -keep_partial: %t\n", c.KeepPartial)
	}
}
