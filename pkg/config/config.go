package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the feed scraper
type Config struct {
	// Target site and request identity
	Facebook FacebookConfig `yaml:"facebook" json:"facebook"`

	// Extraction behaviour
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Transport settings
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Headless browser used to render placeholder pages
	Render RenderConfig `yaml:"render" json:"render"`

	// Metrics export
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// FacebookConfig holds site-specific request settings
type FacebookConfig struct {
	BaseURL        string `yaml:"base_url" json:"base_url"`
	UserAgent      string `yaml:"user_agent" json:"user_agent"`
	AcceptLanguage string `yaml:"accept_language" json:"accept_language"`
	Locale         string `yaml:"locale" json:"locale"`
	// Cookie is an optional raw cookie string appended to every request
	Cookie string `yaml:"cookie" json:"cookie"`
}

// ScrapeConfig holds extraction settings
type ScrapeConfig struct {
	// Delay is the pause applied after each emitted record
	Delay          time.Duration `yaml:"delay" json:"delay"`
	IncludeDetails bool          `yaml:"include_details" json:"include_details"`
	// MaxPages stops pagination after this many pages (0 means no limit)
	MaxPages      int `yaml:"max_pages" json:"max_pages"`
	DetailWorkers int `yaml:"detail_workers" json:"detail_workers"`
}

// HTTPConfig holds transport configuration
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay" json:"retry_delay"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// RenderConfig holds headless browser configuration
type RenderConfig struct {
	Enabled    bool          `yaml:"enabled" json:"enabled"`
	BrowserBin string        `yaml:"browser_bin" json:"browser_bin"`
	NoSandbox  bool          `yaml:"no_sandbox" json:"no_sandbox"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// MetricsConfig holds metrics export configuration
type MetricsConfig struct {
	// Textfile is a node-exporter textfile path written when a run finishes
	Textfile string `yaml:"textfile" json:"textfile"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Facebook: FacebookConfig{
			BaseURL:        "https://m.facebook.com",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/76.0.3809.87 Safari/537.36",
			AcceptLanguage: "en-US,en;q=0.5",
			Locale:         "en_US",
		},
		Scrape: ScrapeConfig{
			Delay:          0,
			IncludeDetails: true,
			MaxPages:       0,
			DetailWorkers:  1,
		},
		HTTP: HTTPConfig{
			Timeout:           30 * time.Second,
			MaxRetries:        3,
			RetryDelay:        2 * time.Second,
			RequestsPerMinute: 0,
		},
		Render: RenderConfig{
			Enabled: true,
			Timeout: 45 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("FBSCRAPER_BASE_URL"); baseURL != "" {
		c.Facebook.BaseURL = baseURL
	}
	if userAgent := os.Getenv("FBSCRAPER_USER_AGENT"); userAgent != "" {
		c.Facebook.UserAgent = userAgent
	}
	if cookie := os.Getenv("FBSCRAPER_COOKIE"); cookie != "" {
		c.Facebook.Cookie = cookie
	}

	if delay := os.Getenv("FBSCRAPER_DELAY"); delay != "" {
		d, err := parseDelay(delay)
		if err != nil {
			return fmt.Errorf("invalid FBSCRAPER_DELAY: %w", err)
		}
		c.Scrape.Delay = d
	}
	if maxPages := os.Getenv("FBSCRAPER_MAX_PAGES"); maxPages != "" {
		val, err := strconv.Atoi(maxPages)
		if err != nil {
			return fmt.Errorf("invalid FBSCRAPER_MAX_PAGES: %w", err)
		}
		c.Scrape.MaxPages = val
	}
	if workers := os.Getenv("FBSCRAPER_DETAIL_WORKERS"); workers != "" {
		var val int
		fmt.Sscanf(workers, "%d", &val)
		if val > 0 {
			c.Scrape.DetailWorkers = val
		}
	}

	if rpm := os.Getenv("FBSCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val >= 0 {
			c.HTTP.RequestsPerMinute = val
		}
	}

	if render := os.Getenv("FBSCRAPER_RENDER_ENABLED"); render != "" {
		c.Render.Enabled = strings.ToLower(render) == "true"
	}
	if bin := os.Getenv("FBSCRAPER_BROWSER_BIN"); bin != "" {
		c.Render.BrowserBin = bin
	}

	if textfile := os.Getenv("FBSCRAPER_METRICS_TEXTFILE"); textfile != "" {
		c.Metrics.Textfile = textfile
	}

	if logLevel := os.Getenv("FBSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// parseDelay accepts either a Go duration ("1.5s") or plain seconds ("1.5")
func parseDelay(value string) (time.Duration, error) {
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".fbscraper.yaml",
		".fbscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "fbscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "fbscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".fbscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Facebook.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	}
	if c.Facebook.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}

	if c.Scrape.Delay < 0 {
		errs = append(errs, errors.New("delay cannot be negative"))
	}
	if c.Scrape.MaxPages < 0 {
		errs = append(errs, errors.New("max pages cannot be negative"))
	}
	if c.Scrape.DetailWorkers <= 0 {
		errs = append(errs, errors.New("detail workers must be positive"))
	}
	if c.Scrape.DetailWorkers > 10 {
		errs = append(errs, errors.New("detail workers should not exceed 10"))
	}

	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("HTTP timeout must be positive"))
	}
	if c.HTTP.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.HTTP.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	if c.Render.Enabled && c.Render.Timeout <= 0 {
		errs = append(errs, errors.New("render timeout must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if delay, ok := flags["delay"].(time.Duration); ok && delay >= 0 {
		c.Scrape.Delay = delay
	}
	if details, ok := flags["include-details"].(bool); ok {
		c.Scrape.IncludeDetails = details
	}
	if maxPages, ok := flags["max-pages"].(int); ok && maxPages >= 0 {
		c.Scrape.MaxPages = maxPages
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Scrape.DetailWorkers = workers
	}
	if render, ok := flags["render"].(bool); ok {
		c.Render.Enabled = render
	}
	if textfile, ok := flags["metrics-textfile"].(string); ok && textfile != "" {
		c.Metrics.Textfile = textfile
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".fbscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
