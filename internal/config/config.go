package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultTimezone = "America/New_York"

// Config holds everything the pipeline needs beyond credentials: the feed
// catalog, the reference timezone, and the knobs bounding one invocation.
type Config struct {
	Timezone   string           `yaml:"timezone"`
	UserID     string           `yaml:"user_id"`
	Schedule   string           `yaml:"schedule"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Feeds      FeedsConfig      `yaml:"feeds"`

	location *time.Location
}

type PipelineConfig struct {
	FetchWorkers        int `yaml:"fetch_workers"`
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`
	PageSize            int `yaml:"page_size"`
	MaxGroupItems       int `yaml:"max_group_items"`
	CharBudget          int `yaml:"char_budget"`
	ThrottleMillis      int `yaml:"throttle_ms"`
	RunBudgetSeconds    int `yaml:"run_budget_seconds"`
}

type SummarizerConfig struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	APIKey          string `yaml:"api_key"`
	RetryAttempts   int    `yaml:"retry_attempts"`
	RetryBaseMillis int    `yaml:"retry_base_ms"`
}

// FeedsConfig is the feed catalog: URL templates instantiated per ticker and
// per topic, plus fixed general market feeds ("extra").
type FeedsConfig struct {
	TickerURL    string      `yaml:"ticker_url"`
	TickerSource string      `yaml:"ticker_source"`
	TopicURL     string      `yaml:"topic_url"`
	TopicSource  string      `yaml:"topic_source"`
	Extra        []ExtraFeed `yaml:"extra"`
}

type ExtraFeed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Location resolves the reference timezone. The pipeline's calendar date is
// computed in this zone.
func (c *Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func setDefaults(cfg *Config) {
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}
	if cfg.UserID == "" {
		cfg.UserID = "default"
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "0 * * * *"
	}
	if cfg.Pipeline.FetchWorkers == 0 {
		cfg.Pipeline.FetchWorkers = 8
	}
	if cfg.Pipeline.FetchTimeoutSeconds == 0 {
		cfg.Pipeline.FetchTimeoutSeconds = 15
	}
	if cfg.Pipeline.PageSize == 0 {
		cfg.Pipeline.PageSize = 20
	}
	if cfg.Pipeline.MaxGroupItems == 0 {
		cfg.Pipeline.MaxGroupItems = 30
	}
	if cfg.Pipeline.CharBudget == 0 {
		cfg.Pipeline.CharBudget = 14000
	}
	if cfg.Pipeline.ThrottleMillis == 0 {
		cfg.Pipeline.ThrottleMillis = 1500
	}
	if cfg.Pipeline.RunBudgetSeconds == 0 {
		cfg.Pipeline.RunBudgetSeconds = 120
	}
	if cfg.Summarizer.Provider == "" {
		cfg.Summarizer.Provider = "openai"
	}
	if cfg.Summarizer.Model == "" {
		cfg.Summarizer.Model = "gpt-4o-mini"
	}
	if cfg.Summarizer.APIKey == "" {
		cfg.Summarizer.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.Summarizer.Provider == "anthropic" {
			cfg.Summarizer.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if cfg.Summarizer.RetryAttempts == 0 {
		cfg.Summarizer.RetryAttempts = 5
	}
	if cfg.Summarizer.RetryBaseMillis == 0 {
		cfg.Summarizer.RetryBaseMillis = 600
	}
	if cfg.Feeds.TickerURL == "" {
		cfg.Feeds.TickerURL = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"
		cfg.Feeds.TickerSource = "Yahoo Finance"
	}
	if cfg.Feeds.TopicURL == "" {
		cfg.Feeds.TopicURL = "https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en"
		cfg.Feeds.TopicSource = "Google News"
	}
}

func validate(cfg *Config) error {
	switch cfg.Summarizer.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("config: unsupported summarizer provider %q (supported: openai, anthropic)", cfg.Summarizer.Provider)
	}
	if cfg.Summarizer.RetryAttempts < 0 {
		return fmt.Errorf("config: summarizer.retry_attempts must not be negative")
	}
	if cfg.Summarizer.RetryBaseMillis < 0 {
		return fmt.Errorf("config: summarizer.retry_base_ms must not be negative")
	}
	if !strings.Contains(cfg.Feeds.TickerURL, "%s") {
		return fmt.Errorf("config: feeds.ticker_url must contain a %%s placeholder")
	}
	if !strings.Contains(cfg.Feeds.TopicURL, "%s") {
		return fmt.Errorf("config: feeds.topic_url must contain a %%s placeholder")
	}
	return nil
}

func bindTimezone(cfg *Config) error {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("config: unknown timezone %q", cfg.Timezone)
	}
	cfg.location = loc
	return nil
}

// Load reads the YAML config file when present (a missing file means
// defaults + environment), expands ${VAR} references, applies defaults and
// validates.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
			}
		} else {
			expanded := expandEnvVars(string(data))
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
			}
		}
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	if err := bindTimezone(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
