package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"cryptodash/internal/worker"
)

// Gateway modes.
const (
	ModeHTTP = "http"
	ModeMock = "mock"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// DefaultWatchlist seeds a session whose remote watchlist is empty or
// unavailable.
var DefaultWatchlist = []string{
	"BTC", "ETH", "SOL", "ADA", "XRP", "DOGE", "DOT", "LINK",
	"MATIC", "AVAX", "LTC", "BCH", "XLM", "UNI", "ETC",
}

// Alert is a price bound on one symbol. A zero bound is unset.
type Alert struct {
	Symbol string  `yaml:"symbol"`
	Above  float64 `yaml:"above"`
	Below  float64 `yaml:"below"`
}

// Config holds all application configuration.
type Config struct {
	Gateway struct {
		Mode         string        `yaml:"mode"`
		BaseURL      string        `yaml:"base_url"`
		APIKey       string        `yaml:"api_key"`
		AuthBaseURL  string        `yaml:"auth_base_url"`
		AuthAPIKey   string        `yaml:"auth_api_key"`
		ProfileID    int           `yaml:"profile_id"`
		WatchlistURL string        `yaml:"watchlist_url"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"gateway"`
	Polling struct {
		Interval time.Duration `yaml:"interval"`
		Alerts   []Alert       `yaml:"alerts"`
	} `yaml:"polling"`
	Search struct {
		Debounce    time.Duration `yaml:"debounce"`
		MinQueryLen int           `yaml:"min_query_len"`
		MaxResults  int           `yaml:"max_results"`
	} `yaml:"search"`
	History struct {
		Days int `yaml:"days"`
	} `yaml:"history"`
	Notifications struct {
		Display time.Duration `yaml:"display"`
	} `yaml:"notifications"`
	Session struct {
		CheckEvery time.Duration `yaml:"check_every"`
	} `yaml:"session"`
	Watchlist struct {
		Default []string `yaml:"default"`
	} `yaml:"watchlist"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Path returns the config file location.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A .env file in the working directory is loaded first when
// present. A missing config file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("GATEWAY_MODE"); v != "" {
		c.Gateway.Mode = v
	}
	if v := os.Getenv("CRYPTOCOMPARE_BASE_URL"); v != "" {
		c.Gateway.BaseURL = v
	}
	if v := os.Getenv("CRYPTOCOMPARE_API_KEY"); v != "" {
		c.Gateway.APIKey = v
	}
	if v := os.Getenv("REQRES_BASE_URL"); v != "" {
		c.Gateway.AuthBaseURL = v
	}
	if v := os.Getenv("REQRES_API_KEY"); v != "" {
		c.Gateway.AuthAPIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("POLL_INTERVAL: %w", err)
		}
		c.Polling.Interval = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.Gateway.Mode = strings.ToLower(strings.TrimSpace(c.Gateway.Mode))
	if c.Gateway.Mode == "" {
		c.Gateway.Mode = ModeHTTP
	}
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = "https://min-api.cryptocompare.com"
	}
	if c.Gateway.AuthBaseURL == "" {
		c.Gateway.AuthBaseURL = "https://reqres.in/api"
	}
	if c.Gateway.ProfileID == 0 {
		c.Gateway.ProfileID = 2
	}
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = 15 * time.Second
	}
	if c.Polling.Interval == 0 {
		c.Polling.Interval = 10 * time.Second
	}
	if c.Search.Debounce == 0 {
		c.Search.Debounce = 300 * time.Millisecond
	}
	if c.Search.MinQueryLen == 0 {
		c.Search.MinQueryLen = 2
	}
	if c.Search.MaxResults == 0 {
		c.Search.MaxResults = worker.DefaultMaxResults
	}
	if c.History.Days == 0 {
		c.History.Days = 365
	}
	if c.Notifications.Display == 0 {
		c.Notifications.Display = 5 * time.Second
	}
	if c.Session.CheckEvery == 0 {
		c.Session.CheckEvery = time.Minute
	}
	if len(c.Watchlist.Default) == 0 {
		c.Watchlist.Default = append([]string(nil), DefaultWatchlist...)
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = ":memory:"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.Gateway.Mode {
	case ModeHTTP:
		if c.Gateway.APIKey == "" {
			return fmt.Errorf("gateway.api_key is required in %s mode", ModeHTTP)
		}
	case ModeMock:
	default:
		return fmt.Errorf("gateway.mode must be %q or %q, got %q", ModeHTTP, ModeMock, c.Gateway.Mode)
	}
	if c.Gateway.Timeout < 0 {
		return fmt.Errorf("gateway.timeout must not be negative")
	}
	if c.Polling.Interval <= 0 {
		return fmt.Errorf("polling.interval must be positive")
	}
	for i, a := range c.Polling.Alerts {
		if strings.TrimSpace(a.Symbol) == "" {
			return fmt.Errorf("polling.alerts[%d].symbol is required", i)
		}
		if a.Above <= 0 && a.Below <= 0 {
			return fmt.Errorf("polling.alerts[%d] needs above or below", i)
		}
	}
	if c.Search.Debounce < 0 {
		return fmt.Errorf("search.debounce must not be negative")
	}
	if c.Search.MinQueryLen <= 0 {
		return fmt.Errorf("search.min_query_len must be positive")
	}
	if c.Search.MaxResults <= 0 || c.Search.MaxResults > worker.DefaultMaxResults {
		return fmt.Errorf("search.max_results must be between 1 and %d", worker.DefaultMaxResults)
	}
	if c.History.Days <= 0 {
		return fmt.Errorf("history.days must be positive")
	}
	if c.Notifications.Display <= 0 {
		return fmt.Errorf("notifications.display must be positive")
	}
	if c.Session.CheckEvery <= 0 {
		return fmt.Errorf("session.check_every must be positive")
	}
	return nil
}
