package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/camuig/capital-tracker/internal/portfolio"
)

type Config struct {
	Storage  StorageConfig              `yaml:"storage"`
	Pricing  PricingConfig              `yaml:"pricing"`
	FX       FXConfig                   `yaml:"fx"`
	Cache    CacheConfig                `yaml:"cache"`
	Refresh  RefreshConfig              `yaml:"refresh"`
	Holdings HoldingsConfig             `yaml:"holdings"`
	Earnings EarningsConfig             `yaml:"earnings"`
	Alerts   AlertsConfig               `yaml:"alerts"`
	Assets   map[string]portfolio.Asset `yaml:"assets"`
	Telegram TelegramConfig             `yaml:"telegram"`
	Advisor  AdvisorConfig              `yaml:"advisor"`
	Web      WebConfig                  `yaml:"web"`
	Logging  LoggingConfig              `yaml:"logging"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type PricingConfig struct {
	BaseURL           string            `yaml:"base_url"`
	APIKey            string            `yaml:"api_key"`
	CacheTTL          string            `yaml:"cache_ttl"`
	TimeoutSeconds    int               `yaml:"timeout_seconds"`
	RequestsPerMinute int               `yaml:"requests_per_minute"`
	CoinIDs           map[string]string `yaml:"coin_ids"`
}

type FXConfig struct {
	Endpoints       []string `yaml:"endpoints"`
	Base            string   `yaml:"base"`
	Target          string   `yaml:"target"`
	RefreshInterval string   `yaml:"refresh_interval"`
}

type CacheConfig struct {
	Backend string      `yaml:"backend"` // memory or redis
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type RefreshConfig struct {
	Interval     string `yaml:"interval"`
	HistoryLimit int    `yaml:"history_limit"`
}

type HoldingsConfig struct {
	Policy string `yaml:"policy"` // earnings or merged
}

type EarningsConfig struct {
	DailyTargetUSDT float64 `yaml:"daily_target_usdt"`
}

type AlertsConfig struct {
	CoreSymbols []string `yaml:"core_symbols"`
	DedupWindow string   `yaml:"dedup_window"`
	Retention   string   `yaml:"retention"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type AdvisorConfig struct {
	Enabled        bool   `yaml:"enabled"`
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type WebConfig struct {
	Port int `yaml:"port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

const (
	PolicyEarnings = "earnings"
	PolicyMerged   = "merged"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Load reads the YAML file at path, overlays secrets from the environment
// (and an optional .env file next to the process), then applies defaults and
// validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// .env is optional
	_ = godotenv.Load()
	applyEnv(cfg)

	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRACKER_TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TRACKER_COINGECKO_API_KEY"); v != "" {
		cfg.Pricing.APIKey = v
	}
	if v := os.Getenv("TRACKER_ADVISOR_API_KEY"); v != "" {
		cfg.Advisor.APIKey = v
	}
	if v := os.Getenv("TRACKER_REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/capital-tracker.db"
	}
	if cfg.Pricing.BaseURL == "" {
		cfg.Pricing.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.Pricing.CacheTTL == "" {
		cfg.Pricing.CacheTTL = "60s"
	}
	if cfg.Pricing.TimeoutSeconds == 0 {
		cfg.Pricing.TimeoutSeconds = 5
	}
	if cfg.Pricing.RequestsPerMinute == 0 {
		cfg.Pricing.RequestsPerMinute = 30
	}
	if cfg.Pricing.CoinIDs == nil {
		cfg.Pricing.CoinIDs = make(map[string]string, len(defaultCoinIDs))
	}
	for sym, id := range defaultCoinIDs {
		if _, ok := cfg.Pricing.CoinIDs[sym]; !ok {
			cfg.Pricing.CoinIDs[sym] = id
		}
	}
	if len(cfg.FX.Endpoints) == 0 {
		cfg.FX.Endpoints = []string{
			"https://api.exchangerate.host/latest?base={base}&symbols={target}",
			"https://open.er-api.com/v6/latest/{base}",
			"https://api.exchangerate-api.com/v4/latest/{base}",
		}
	}
	if cfg.FX.Base == "" {
		cfg.FX.Base = "USD"
	}
	if cfg.FX.Target == "" {
		cfg.FX.Target = "BWP"
	}
	if cfg.FX.RefreshInterval == "" {
		cfg.FX.RefreshInterval = "10m"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = BackendMemory
	}
	if cfg.Cache.Redis.Prefix == "" {
		cfg.Cache.Redis.Prefix = "capital-tracker:price:"
	}
	if cfg.Refresh.Interval == "" {
		cfg.Refresh.Interval = "60s"
	}
	if cfg.Refresh.HistoryLimit == 0 {
		cfg.Refresh.HistoryLimit = portfolio.DefaultHistoryLimit
	}
	if cfg.Holdings.Policy == "" {
		cfg.Holdings.Policy = PolicyEarnings
	}
	if cfg.Earnings.DailyTargetUSDT == 0 {
		cfg.Earnings.DailyTargetUSDT = 0.05
	}
	if len(cfg.Alerts.CoreSymbols) == 0 {
		cfg.Alerts.CoreSymbols = []string{"BTC", "ETH"}
	}
	if cfg.Alerts.DedupWindow == "" {
		cfg.Alerts.DedupWindow = "1h"
	}
	if cfg.Alerts.Retention == "" {
		cfg.Alerts.Retention = "24h"
	}
	if len(cfg.Assets) == 0 {
		cfg.Assets = DefaultAssets()
	}
	if cfg.Advisor.BaseURL == "" {
		cfg.Advisor.BaseURL = "https://api.deepseek.com/v1"
	}
	if cfg.Advisor.Model == "" {
		cfg.Advisor.Model = "deepseek-chat"
	}
	if cfg.Advisor.TimeoutSeconds == 0 {
		cfg.Advisor.TimeoutSeconds = 60
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (c *Config) Validate() error {
	durations := map[string]string{
		"pricing.cache_ttl":   c.Pricing.CacheTTL,
		"fx.refresh_interval": c.FX.RefreshInterval,
		"refresh.interval":    c.Refresh.Interval,
		"alerts.dedup_window": c.Alerts.DedupWindow,
		"alerts.retention":    c.Alerts.Retention,
	}
	for name, v := range durations {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Refresh.HistoryLimit < 2 {
		return fmt.Errorf("refresh.history_limit must be at least 2")
	}
	switch c.Holdings.Policy {
	case PolicyEarnings, PolicyMerged:
	default:
		return fmt.Errorf("holdings.policy must be %q or %q, got %q", PolicyEarnings, PolicyMerged, c.Holdings.Policy)
	}
	switch c.Cache.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got %q", BackendMemory, BackendRedis, c.Cache.Backend)
	}
	for sym, a := range c.Assets {
		if sym != strings.ToUpper(sym) {
			return fmt.Errorf("assets.%s: symbol must be upper case", sym)
		}
		if a.TargetAllocation < 0 || a.TargetAllocation > 1 {
			return fmt.Errorf("assets.%s.target_allocation must be within [0, 1]", sym)
		}
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Advisor.Enabled && c.Advisor.APIKey == "" {
		return fmt.Errorf("advisor.api_key is required when advisor is enabled")
	}
	return nil
}

func (c *Config) PriceCacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.Pricing.CacheTTL)
	return d
}

func (c *Config) PricingTimeout() time.Duration {
	return time.Duration(c.Pricing.TimeoutSeconds) * time.Second
}

func (c *Config) RefreshInterval() time.Duration {
	d, _ := time.ParseDuration(c.Refresh.Interval)
	return d
}

func (c *Config) FXRefreshInterval() time.Duration {
	d, _ := time.ParseDuration(c.FX.RefreshInterval)
	return d
}

func (c *Config) AlertDedupWindow() time.Duration {
	d, _ := time.ParseDuration(c.Alerts.DedupWindow)
	return d
}

func (c *Config) AlertRetention() time.Duration {
	d, _ := time.ParseDuration(c.Alerts.Retention)
	return d
}

func (c *Config) AdvisorTimeout() time.Duration {
	return time.Duration(c.Advisor.TimeoutSeconds) * time.Second
}

// Classification returns the asset table keyed by symbol.
func (c *Config) Classification() portfolio.Classification {
	out := make(portfolio.Classification, len(c.Assets))
	for sym, a := range c.Assets {
		a.Symbol = sym
		out[sym] = a
	}
	return out
}
