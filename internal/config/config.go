// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Persona describes a chat persona bound to a Telegram user ID.
type Persona struct {
	UserID  int64    `mapstructure:"user_id"`
	Aliases []string `mapstructure:"aliases"`
	Style   string   `mapstructure:"style"`
}

type Config struct {
	TelegramToken   string    `mapstructure:"telegram_token"`
	TelegramDebug   bool      `mapstructure:"telegram_debug"`
	TelegramTimeout int       `mapstructure:"telegram_timeout"`
	HeliusAPIKey    string    `mapstructure:"helius_api_key"`
	HeliusBaseURL   string    `mapstructure:"helius_base_url"`
	RPCURL          string    `mapstructure:"rpc_url"`
	GroqAPIKey      string    `mapstructure:"groq_api_key"`
	GroqBaseURL     string    `mapstructure:"groq_base_url"`
	GroqModel       string    `mapstructure:"groq_model"`
	MarketBaseURL   string    `mapstructure:"market_base_url"`
	MarketAPIKey    string    `mapstructure:"market_api_key"`
	LookbackDays    int       `mapstructure:"lookback_days"`
	MaxTransactions int       `mapstructure:"max_transactions"`
	PageSize        int       `mapstructure:"page_size"`
	Retries         int       `mapstructure:"retries"`
	HTTPTimeout     int       `mapstructure:"http_timeout"`
	OutputDir       string    `mapstructure:"output_dir"`
	HealthPort      int       `mapstructure:"health_port"`
	RepliesPerSec   int       `mapstructure:"replies_per_sec"`
	DebugLogging    bool      `mapstructure:"debug_logging"`
	Personas        []Persona `mapstructure:"personas"`
}

const (
	DefaultHeliusBaseURL = "https://api.helius.xyz"
	DefaultGroqBaseURL   = "https://api.groq.com/openai/v1"
	DefaultGroqModel     = "llama-3.1-70b-versatile"
	DefaultLookbackDays  = 30
	DefaultMaxTxns       = 1000
	DefaultPageSize      = 100
	DefaultRetries       = 3
	DefaultHTTPTimeout   = 30
	DefaultOutputDir     = "reports"
	DefaultHealthPort    = 10000
	DefaultRepliesPerSec = 20
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"helius_base_url": DefaultHeliusBaseURL,
		"groq_base_url":   DefaultGroqBaseURL,
		"groq_model":      DefaultGroqModel,
		"lookback_days":   DefaultLookbackDays,
		"max_transactions": DefaultMaxTxns,
		"page_size":       DefaultPageSize,
		"retries":         DefaultRetries,
		"http_timeout":    DefaultHTTPTimeout,
		"output_dir":      DefaultOutputDir,
		"health_port":     DefaultHealthPort,
		"replies_per_sec": DefaultRepliesPerSec,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.TelegramToken == "" {
		return errors.New("missing telegram_token in configuration")
	}
	if cfg.HeliusAPIKey == "" {
		return errors.New("missing helius_api_key in configuration")
	}
	if cfg.RPCURL == "" {
		return errors.New("missing rpc_url in configuration")
	}
	if err := validateURLWithCache(cfg.HeliusBaseURL, "http"); err != nil {
		return errors.New("invalid Helius base URL protocol")
	}
	if err := validateURLWithCache(cfg.RPCURL, "http"); err != nil {
		return errors.New("invalid RPC URL protocol")
	}
	if cfg.GroqBaseURL != "" {
		if err := validateURLWithCache(cfg.GroqBaseURL, "http"); err != nil {
			return errors.New("invalid Groq base URL protocol")
		}
	}
	if cfg.MarketBaseURL != "" {
		if err := validateURLWithCache(cfg.MarketBaseURL, "http"); err != nil {
			return errors.New("invalid market data base URL protocol")
		}
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.LookbackDays <= 0 {
		return errors.New("invalid lookback_days")
	}
	if cfg.MaxTransactions <= 0 {
		return errors.New("invalid max_transactions")
	}
	if cfg.PageSize <= 0 || cfg.PageSize > 100 {
		return errors.New("invalid page_size")
	}
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	if cfg.HTTPTimeout <= 0 {
		return errors.New("invalid http_timeout")
	}
	if cfg.HealthPort <= 0 || cfg.HealthPort > 65535 {
		return errors.New("invalid health_port")
	}
	if cfg.RepliesPerSec <= 0 {
		return errors.New("invalid replies_per_sec")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

// loadEnvironmentVariables overlays secrets from the environment so tokens
// never have to live in the config file.
func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if token := v.GetString("TELEGRAM_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
	if key := v.GetString("HELIUS_API_KEY"); key != "" {
		cfg.HeliusAPIKey = key
	}
	if key := v.GetString("GROQ_API_KEY"); key != "" {
		cfg.GroqAPIKey = key
	}
	if key := v.GetString("MARKET_API_KEY"); key != "" {
		cfg.MarketAPIKey = key
	}
	if rpc := v.GetString("RPC_URL"); rpc != "" {
		cfg.RPCURL = strings.TrimSpace(rpc)
	}
	return nil
}
