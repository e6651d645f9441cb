package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider    string        `yaml:"provider"` // http | yahoo
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"api_key"`
		Timeout     time.Duration `yaml:"timeout"`
		MarketIndex string        `yaml:"market_index"`
	} `yaml:"data_source"`
	Analytics struct {
		Lookback            int     `yaml:"lookback"`
		VaRConfidence       float64 `yaml:"var_confidence"`
		AnnualizationFactor float64 `yaml:"annualization_factor"`
		OptionMaturity      float64 `yaml:"option_maturity"`
	} `yaml:"analytics"`
	Cache struct {
		Enabled    bool          `yaml:"enabled"`
		Backend    string        `yaml:"backend"` // memory | sqlite
		SQLitePath string        `yaml:"sqlite_path"`
		TTL        time.Duration `yaml:"ttl"`
		MaxEntries int           `yaml:"max_entries"`
	} `yaml:"cache"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		ReportCron string `yaml:"report_cron"`
	} `yaml:"schedule"`
	Watchlist []string `yaml:"watchlist"`
	Log       struct {
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// envOverrides lists the variables that take precedence over the YAML file.
// Unset variables leave their pointer nil.
type envOverrides struct {
	Provider            *string        `envconfig:"DATA_PROVIDER"`
	BaseURL             *string        `envconfig:"MARKETDATA_BASE_URL"`
	APIKey              *string        `envconfig:"MARKETDATA_API_KEY"`
	Timeout             *time.Duration `envconfig:"MARKETDATA_TIMEOUT"`
	MarketIndex         *string        `envconfig:"MARKET_INDEX"`
	Lookback            *int           `envconfig:"LOOKBACK"`
	VaRConfidence       *float64       `envconfig:"VAR_CONFIDENCE"`
	AnnualizationFactor *float64       `envconfig:"ANNUALIZATION_FACTOR"`
	CacheEnabled        *bool          `envconfig:"CACHE_ENABLED"`
	CacheBackend        *string        `envconfig:"CACHE_BACKEND"`
	CacheTTL            *time.Duration `envconfig:"CACHE_TTL"`
	SQLitePath          *string        `envconfig:"SQLITE_PATH"`
	BotToken            *string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID              *string        `envconfig:"TELEGRAM_CHAT_ID"`
	ReportCron          *string        `envconfig:"CRON_REPORT"`
	Watchlist           []string       `envconfig:"WATCHLIST"`
	LogFile             *string        `envconfig:"LOG_FILE"`
	Proxy               *string        `envconfig:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Cache.Enabled = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	cfg.apply(&env)
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) apply(env *envOverrides) {
	setString(&c.DataSource.Provider, env.Provider)
	setString(&c.DataSource.BaseURL, env.BaseURL)
	setString(&c.DataSource.APIKey, env.APIKey)
	setString(&c.DataSource.MarketIndex, env.MarketIndex)
	setString(&c.Cache.Backend, env.CacheBackend)
	setString(&c.Cache.SQLitePath, env.SQLitePath)
	setString(&c.Telegram.BotToken, env.BotToken)
	setString(&c.Telegram.ChatID, env.ChatID)
	setString(&c.Schedule.ReportCron, env.ReportCron)
	setString(&c.Log.File, env.LogFile)
	setString(&c.Proxy, env.Proxy)

	if env.Timeout != nil {
		c.DataSource.Timeout = *env.Timeout
	}
	if env.Lookback != nil {
		c.Analytics.Lookback = *env.Lookback
	}
	if env.VaRConfidence != nil {
		c.Analytics.VaRConfidence = *env.VaRConfidence
	}
	if env.AnnualizationFactor != nil {
		c.Analytics.AnnualizationFactor = *env.AnnualizationFactor
	}
	if env.CacheEnabled != nil {
		c.Cache.Enabled = *env.CacheEnabled
	}
	if env.CacheTTL != nil {
		c.Cache.TTL = *env.CacheTTL
	}
	if len(env.Watchlist) > 0 {
		c.Watchlist = env.Watchlist
	}
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "http"
	}
	c.DataSource.Provider = strings.ToLower(c.DataSource.Provider)
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.DataSource.MarketIndex == "" {
		c.DataSource.MarketIndex = "^GSPC"
	}
	if c.Analytics.Lookback == 0 {
		c.Analytics.Lookback = 252
	}
	if c.Analytics.VaRConfidence == 0 {
		c.Analytics.VaRConfidence = 0.95
	}
	if c.Analytics.AnnualizationFactor == 0 {
		c.Analytics.AnnualizationFactor = 1
	}
	if c.Analytics.OptionMaturity == 0 {
		c.Analytics.OptionMaturity = 0.25
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = "data/finmodels_cache.db"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 1024
	}
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "0 0 22 * * 1-5"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	for i, t := range c.Watchlist {
		c.Watchlist[i] = strings.ToUpper(strings.TrimSpace(t))
	}
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "http":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for provider http")
		}
	case "yahoo":
	default:
		return fmt.Errorf("data_source.provider %q: must be http or yahoo", c.DataSource.Provider)
	}
	if c.DataSource.Timeout < 0 {
		return fmt.Errorf("data_source.timeout must not be negative")
	}
	if c.Analytics.Lookback <= 2 {
		return fmt.Errorf("analytics.lookback must be greater than 2, got %d", c.Analytics.Lookback)
	}
	if v := c.Analytics.VaRConfidence; !(v > 0 && v < 1) {
		return fmt.Errorf("analytics.var_confidence must lie in (0,1), got %v", v)
	}
	if c.Analytics.AnnualizationFactor <= 0 {
		return fmt.Errorf("analytics.annualization_factor must be positive")
	}
	if c.Analytics.OptionMaturity <= 0 {
		return fmt.Errorf("analytics.option_maturity must be positive")
	}
	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case "memory", "sqlite":
		default:
			return fmt.Errorf("cache.backend %q: must be memory or sqlite", c.Cache.Backend)
		}
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive")
		}
		if c.Cache.MaxEntries <= 0 {
			return fmt.Errorf("cache.max_entries must be positive")
		}
	}
	return nil
}

// ValidateWatch additionally checks what the scheduled reporter needs.
func (c *Config) ValidateWatch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("watchlist must name at least one ticker")
	}
	return nil
}

// Redacted returns a copy with secrets masked, for printing.
func (c *Config) Redacted() Config {
	out := *c
	out.Watchlist = append([]string(nil), c.Watchlist...)
	out.DataSource.APIKey = mask(c.DataSource.APIKey)
	out.Telegram.BotToken = mask(c.Telegram.BotToken)
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
