package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is used when MARKETPLACE_CONFIG is not set.
	DefaultPath = "configs/config.yml"

	ProductionAPIURL  = "https://server-repo-three.vercel.app"
	DevelopmentAPIURL = "http://localhost:8000"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds the application's configuration.
type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port string `yaml:"port"`
		Mode string `yaml:"mode"`
	} `yaml:"server"`
	API struct {
		URL            string `yaml:"url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"api"`
	Payment struct {
		SimulatedDelayMs *int   `yaml:"simulated_delay_ms"`
		Currency         string `yaml:"currency"`
	} `yaml:"payment"`
	Database struct {
		Type string `yaml:"type"` // "sqlite" or "postgres"
		URL  string `yaml:"url"`  // SQLite path or PostgreSQL URL
	} `yaml:"database"`
	Cache struct {
		Enabled    bool   `yaml:"enabled"`
		RedisURL   string `yaml:"redis_url"`
		TTLSeconds int    `yaml:"ttl_seconds"`
	} `yaml:"cache"`
	Notifications struct {
		Telegram struct {
			Enabled  bool   `yaml:"enabled"`
			BotToken string `yaml:"bot_token"`
			ChatID   int64  `yaml:"chat_id"`
		} `yaml:"telegram"`
	} `yaml:"notifications"`
	Session struct {
		CookieName string `yaml:"cookie_name"`
		TTLHours   int    `yaml:"ttl_hours"`
	} `yaml:"session"`
}

// Path returns the config file location, honouring MARKETPLACE_CONFIG.
func Path() string {
	if p := os.Getenv("MARKETPLACE_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// LoadConfig reads configuration from the specified YAML file, then applies
// defaults and environment overrides.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnv(os.Getenv)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Server.Port == "" {
		c.Server.Port = "3000"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = 30
	}
	if c.Payment.SimulatedDelayMs == nil {
		delay := 2000
		c.Payment.SimulatedDelayMs = &delay
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "MATIC"
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.URL == "" && c.Database.Type == "sqlite" {
		c.Database.URL = "./data/marketplace.db"
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 60
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "wallet_session"
	}
	if c.Session.TTLHours == 0 {
		c.Session.TTLHours = 24
	}
}

// applyEnv lets deployments override secrets and endpoints without editing the file.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("MARKETPLACE_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := getenv("REDIS_URL"); v != "" {
		c.Cache.RedisURL = v
	}
	if v := getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Notifications.Telegram.ChatID = id
		}
	}
	c.API.URL = resolveAPIBaseURL(c.API.URL, c.Environment, getenv)
}

// Validate reports configuration values the server cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return fmt.Errorf("%w: server.port is required", ErrInvalidConfig)
	}
	switch c.Database.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: unknown database.type %q", ErrInvalidConfig, c.Database.Type)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("%w: database.url is required", ErrInvalidConfig)
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: api.timeout_seconds must be positive", ErrInvalidConfig)
	}
	if c.Payment.SimulatedDelayMs != nil && *c.Payment.SimulatedDelayMs < 0 {
		return fmt.Errorf("%w: payment.simulated_delay_ms must not be negative", ErrInvalidConfig)
	}
	if c.Cache.Enabled && c.Cache.RedisURL == "" {
		return fmt.Errorf("%w: cache.redis_url is required when the cache is enabled", ErrInvalidConfig)
	}
	return nil
}

// ResolveAPIBaseURL picks the marketplace API base URL: environment first,
// then the configured value, then the per-environment fallback.
func ResolveAPIBaseURL(configured, environment string) string {
	return resolveAPIBaseURL(configured, environment, os.Getenv)
}

func resolveAPIBaseURL(configured, environment string, getenv func(string) string) string {
	url := getenv("MARKETPLACE_API_URL")
	if url == "" {
		url = getenv("REACT_APP_API_URL")
	}
	if url == "" {
		url = configured
	}
	if url == "" {
		if environment == "production" {
			url = ProductionAPIURL
		} else {
			url = DevelopmentAPIURL
		}
	}
	return strings.TrimRight(url, "/")
}

func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c *Config) PaymentDelay() time.Duration {
	if c.Payment.SimulatedDelayMs == nil {
		return 0
	}
	return time.Duration(*c.Payment.SimulatedDelayMs) * time.Millisecond
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLHours) * time.Hour
}
