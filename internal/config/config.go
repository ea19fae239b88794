package config

import (
	"fmt"
	"os"
	"strconv"

	"MarketDashboard/internal/model"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Backend struct {
		BaseURL       string  `yaml:"base_url"`
		Mock          bool    `yaml:"mock"`
		TimeoutSec    int     `yaml:"timeout_sec"`
		RPS           float64 `yaml:"rps"`
		Burst         int     `yaml:"burst"`
		YahooFallback bool    `yaml:"yahoo_fallback"`
	} `yaml:"backend"`
	Dashboard struct {
		Language    string   `yaml:"language"`
		Model       string   `yaml:"model"`
		Period      string   `yaml:"period"`
		Tab         string   `yaml:"tab"`
		SRReference string   `yaml:"sr_reference"`
		Indicators  []string `yaml:"indicators"`
		OptionsRows int      `yaml:"options_rows"`
		StateFile   string   `yaml:"state_file"`
	} `yaml:"dashboard"`
	Schedule struct {
		PricesCron  string `yaml:"prices_cron"`
		MacroCron   string `yaml:"macro_cron"`
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads a .env file if present, then the YAML config, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

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

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DASHBOARD_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("DASHBOARD_MOCK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Backend.Mock = b
		}
	}
	if v := os.Getenv("DASHBOARD_LANG"); v != "" {
		cfg.Dashboard.Language = v
	}
	if v := os.Getenv("DASHBOARD_MODEL"); v != "" {
		cfg.Dashboard.Model = v
	}
	if v := os.Getenv("DASHBOARD_STATE_FILE"); v != "" {
		cfg.Dashboard.StateFile = v
	}
	if v := os.Getenv("DASHBOARD_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_PRICES"); v != "" {
		cfg.Schedule.PricesCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://127.0.0.1:5000"
	}
	if cfg.Backend.TimeoutSec == 0 {
		cfg.Backend.TimeoutSec = 30
	}
	if cfg.Backend.RPS == 0 {
		cfg.Backend.RPS = 10
	}
	if cfg.Backend.Burst == 0 {
		cfg.Backend.Burst = 20
	}
	if cfg.Dashboard.Language == "" {
		cfg.Dashboard.Language = model.LangKorean
	}
	if cfg.Dashboard.Model == "" {
		cfg.Dashboard.Model = model.ModelGemini
	}
	if cfg.Dashboard.Period == "" {
		cfg.Dashboard.Period = model.DefaultPeriod
	}
	if cfg.Dashboard.Tab == "" {
		cfg.Dashboard.Tab = model.TabUSMarket
	}
	if cfg.Dashboard.SRReference == "" {
		cfg.Dashboard.SRReference = "price"
	}
	if cfg.Dashboard.OptionsRows == 0 {
		cfg.Dashboard.OptionsRows = 10
	}
	if cfg.Dashboard.StateFile == "" {
		cfg.Dashboard.StateFile = "data/dashboard_state.json"
	}
	if cfg.Schedule.PricesCron == "" {
		cfg.Schedule.PricesCron = "@every 10s"
	}
	if cfg.Schedule.MacroCron == "" {
		cfg.Schedule.MacroCron = "@every 5m"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/market_dashboard.db"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 25
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 10
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 14
	}
}

// TelegramEnabled reports whether both Telegram credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all required fields are set and enumerations are known.
func (c *Config) Validate() error {
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if !c.Backend.Mock && c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Backend.TimeoutSec < 0 {
		return fmt.Errorf("backend.timeout_sec must not be negative")
	}
	if !model.ValidLanguage(c.Dashboard.Language) {
		return fmt.Errorf("dashboard.language %q must be ko or en", c.Dashboard.Language)
	}
	if !model.ValidModel(c.Dashboard.Model) {
		return fmt.Errorf("dashboard.model %q must be gemini or gpt", c.Dashboard.Model)
	}
	if !model.ValidPeriod(c.Dashboard.Period) {
		return fmt.Errorf("dashboard.period %q is not a chart period", c.Dashboard.Period)
	}
	if !model.ValidTab(c.Dashboard.Tab) {
		return fmt.Errorf("dashboard.tab %q is unknown", c.Dashboard.Tab)
	}
	if c.Dashboard.SRReference != "price" && c.Dashboard.SRReference != "rsi" {
		return fmt.Errorf("dashboard.sr_reference %q must be price or rsi", c.Dashboard.SRReference)
	}
	for _, name := range c.Dashboard.Indicators {
		if _, err := model.ParseIndicatorKind(name); err != nil {
			return fmt.Errorf("dashboard.indicators: %w", err)
		}
	}
	if c.Dashboard.OptionsRows < 0 {
		return fmt.Errorf("dashboard.options_rows must not be negative")
	}
	return nil
}
