// Package config provides configuration management for the dashboard backend.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Trading  TradingConfig  `mapstructure:"trading"`
	Market   MarketConfig   `mapstructure:"market"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TradingConfig holds simulated trading configuration.
type TradingConfig struct {
	InitialBalance float64       `mapstructure:"initial_balance"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	FillDelay      time.Duration `mapstructure:"fill_delay"`
	BookLevels     int           `mapstructure:"book_levels"`
	BookSpread     float64       `mapstructure:"book_spread"` // max band around mid, fraction
}

// MarketConfig holds market data provider configuration.
type MarketConfig struct {
	CoinGeckoURL   string        `mapstructure:"coingecko_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	RateLimit      float64       `mapstructure:"rate_limit"` // requests per second
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	FallbackPrice  float64       `mapstructure:"fallback_price"`
}

// LLMConfig holds chat assistant backend configuration.
type LLMConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"` // empty for api.openai.com
	Model   string `mapstructure:"model"`
}

// Enabled reports whether an LLM backend is configured.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  bool   `mapstructure:"file"`
}

// DatabaseConfig holds the SQLite store configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/cryptodesk"
	}
	return filepath.Join(home, ".config", "cryptodesk")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		// Missing config file is fine, defaults apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)

	v.SetDefault("trading.initial_balance", 10000.0)
	v.SetDefault("trading.poll_interval", time.Second)
	v.SetDefault("trading.fill_delay", 2*time.Second)
	v.SetDefault("trading.book_levels", 10)
	v.SetDefault("trading.book_spread", 0.02)

	v.SetDefault("market.coingecko_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("market.request_timeout", 10*time.Second)
	v.SetDefault("market.cache_ttl", 30*time.Second)
	v.SetDefault("market.rate_limit", 0.5)
	v.SetDefault("market.rate_limit_burst", 3)
	v.SetDefault("market.fallback_price", 50000.0)

	v.SetDefault("llm.model", "gpt-4o-mini")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", true)

	v.SetDefault("database.path", filepath.Join(configDir, "cryptodesk.db"))
}

// applyEnvOverrides applies environment variable overrides for values
// that commonly come from the environment rather than config files.
func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = key
	}
	if url := os.Getenv("OPENAI_BASE_URL"); url != "" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = url
	}
	if model := os.Getenv("CRYPTODESK_LLM_MODEL"); model != "" {
		cfg.LLM.Model = model
	}
	if path := os.Getenv("CRYPTODESK_DB"); path != "" {
		cfg.Database.Path = path
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Trading.InitialBalance < 0 {
		return fmt.Errorf("trading.initial_balance must not be negative")
	}
	if c.Trading.PollInterval <= 0 {
		return fmt.Errorf("trading.poll_interval must be positive")
	}
	if c.Trading.FillDelay < 0 {
		return fmt.Errorf("trading.fill_delay must not be negative")
	}
	if c.Trading.BookLevels <= 0 {
		return fmt.Errorf("trading.book_levels must be positive")
	}
	if c.Trading.BookSpread <= 0 || c.Trading.BookSpread >= 1 {
		return fmt.Errorf("trading.book_spread must be in (0, 1)")
	}
	if c.Market.FallbackPrice <= 0 {
		return fmt.Errorf("market.fallback_price must be positive")
	}
	return nil
}
