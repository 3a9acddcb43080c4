package config

import (
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"crypto-bridge/internal/errs"
)

// Config holds environment-driven settings for the bridge.
type Config struct {
	// Robinhood credentials
	APIKey     string
	PrivateKey string // base64-encoded 32-byte Ed25519 seed
	BaseURL    string

	// Servers
	Host   string
	Port   int
	WSPort int // defaults to Port+1

	// Logging
	Debug    bool
	LogLevel string

	// Broadcast pollers
	MarketDataPollInterval time.Duration
	OrdersPollInterval     time.Duration

	// REST rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitPeriod   time.Duration
}

// fileConfig mirrors the optional YAML defaults file. Pointer fields
// distinguish absent keys from zero values; durations are parsed from
// strings ("1s", "500ms").
type fileConfig struct {
	BaseURL                *string `yaml:"base_url"`
	Host                   *string `yaml:"host"`
	Port                   *int    `yaml:"port"`
	WSPort                 *int    `yaml:"ws_port"`
	MarketDataPollInterval *string `yaml:"market_data_poll_interval"`
	OrdersPollInterval     *string `yaml:"orders_poll_interval"`
	RateLimit              struct {
		Enabled  *bool   `yaml:"enabled"`
		Requests *int    `yaml:"requests"`
		Period   *string `yaml:"period"`
	} `yaml:"rate_limit"`
}

// Load reads the optional YAML file and environment variables
// (optionally via .env) into Config. Environment values win over file
// values. Missing credentials are a fatal configuration error.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	cfg := &Config{
		BaseURL:                "https://trading.robinhood.com",
		Host:                   "0.0.0.0",
		Port:                   8000,
		LogLevel:               "info",
		MarketDataPollInterval: time.Second,
		OrdersPollInterval:     2 * time.Second,
		RateLimitEnabled:       true,
		RateLimitRequests:      100,
		RateLimitPeriod:        time.Minute,
	}

	if err := applyFile(cfg, getEnv("BRIDGE_CONFIG", "bridge.yaml")); err != nil {
		return nil, err
	}

	cfg.APIKey = os.Getenv("ROBINHOOD_API_KEY")
	cfg.PrivateKey = os.Getenv("ROBINHOOD_PRIVATE_KEY")
	cfg.BaseURL = getEnv("ROBINHOOD_BASE_URL", cfg.BaseURL)
	cfg.Host = getEnv("HOST", cfg.Host)
	cfg.Port = getEnvInt("PORT", cfg.Port)
	cfg.WSPort = getEnvInt("WS_PORT", cfg.WSPort)
	cfg.Debug = getEnvBool("DEBUG", cfg.Debug)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.MarketDataPollInterval = getEnvDuration("MARKET_DATA_POLL_INTERVAL", cfg.MarketDataPollInterval)
	cfg.OrdersPollInterval = getEnvDuration("ORDERS_POLL_INTERVAL", cfg.OrdersPollInterval)
	cfg.RateLimitEnabled = getEnvBool("RATE_LIMIT_ENABLED", cfg.RateLimitEnabled)
	cfg.RateLimitRequests = getEnvInt("RATE_LIMIT_REQUESTS", cfg.RateLimitRequests)
	cfg.RateLimitPeriod = getEnvDuration("RATE_LIMIT_PERIOD", cfg.RateLimitPeriod)

	if cfg.WSPort == 0 {
		cfg.WSPort = cfg.Port + 1
	}
	if cfg.Debug && os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "debug"
	}

	if cfg.APIKey == "" {
		return nil, errs.New(errs.KindConfig, "ROBINHOOD_API_KEY is not set")
	}
	if cfg.PrivateKey == "" {
		return nil, errs.New(errs.KindConfig, "ROBINHOOD_PRIVATE_KEY is not set")
	}
	return cfg, nil
}

// Addr is the REST listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// WSAddr is the WebSocket listen address.
func (c *Config) WSAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.WSPort))
}

// applyFile overlays values from the YAML file at path, if it exists.
// A missing file is fine; a malformed one is a configuration error.
func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.Wrap(errs.KindConfig, "read "+path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return errs.Wrap(errs.KindConfig, "parse "+path, err)
	}
	if fc.BaseURL != nil {
		cfg.BaseURL = *fc.BaseURL
	}
	if fc.Host != nil {
		cfg.Host = *fc.Host
	}
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.WSPort != nil {
		cfg.WSPort = *fc.WSPort
	}
	if fc.MarketDataPollInterval != nil {
		d, err := time.ParseDuration(*fc.MarketDataPollInterval)
		if err != nil {
			return errs.Wrap(errs.KindConfig, "parse market_data_poll_interval", err)
		}
		cfg.MarketDataPollInterval = d
	}
	if fc.OrdersPollInterval != nil {
		d, err := time.ParseDuration(*fc.OrdersPollInterval)
		if err != nil {
			return errs.Wrap(errs.KindConfig, "parse orders_poll_interval", err)
		}
		cfg.OrdersPollInterval = d
	}
	if fc.RateLimit.Enabled != nil {
		cfg.RateLimitEnabled = *fc.RateLimit.Enabled
	}
	if fc.RateLimit.Requests != nil {
		cfg.RateLimitRequests = *fc.RateLimit.Requests
	}
	if fc.RateLimit.Period != nil {
		d, err := time.ParseDuration(*fc.RateLimit.Period)
		if err != nil {
			return errs.Wrap(errs.KindConfig, "parse rate_limit.period", err)
		}
		cfg.RateLimitPeriod = d
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
