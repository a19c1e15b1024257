package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"MoveSentinel/internal/detector"
)

// Config holds all application configuration.
type Config struct {
	Input struct {
		Path             string `yaml:"path"`
		CloseTimeColumn  string `yaml:"close_time_column"`
		ClosePriceColumn string `yaml:"close_price_column"`
		SQLiteTable      string `yaml:"sqlite_table"`
	} `yaml:"input"`
	Detection struct {
		PercentThreshold float64 `yaml:"percent_threshold"`
		IntervalMillis   int64   `yaml:"interval_ms"`
		TopN             int     `yaml:"top_n"`
	} `yaml:"detection"`
	Output struct {
		Timezone string `yaml:"timezone"`
	} `yaml:"output"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Polling  bool   `yaml:"polling"`
	} `yaml:"telegram"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"` // run history; empty disables it
	} `yaml:"database"`
	LogLevel string `yaml:"log_level"`
	Proxy    string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Detection.PercentThreshold = math.NaN()

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
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("INPUT_PATH", &c.Input.Path)
	setString("CLOSE_TIME_COLUMN", &c.Input.CloseTimeColumn)
	setString("CLOSE_PRICE_COLUMN", &c.Input.ClosePriceColumn)
	setString("SQLITE_TABLE", &c.Input.SQLiteTable)
	setString("TIMEZONE", &c.Output.Timezone)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("SCAN_CRON", &c.Schedule.ScanCron)
	setString("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	setString("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	setString("HTTPS_PROXY", &c.Proxy)
	setString("SQLITE_PATH", &c.Database.SQLitePath)

	if v := os.Getenv("PERCENT_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PERCENT_THRESHOLD: %w", err)
		}
		c.Detection.PercentThreshold = f
	}
	if v := os.Getenv("INTERVAL_MS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("INTERVAL_MS: %w", err)
		}
		c.Detection.IntervalMillis = n
	}
	if v := os.Getenv("TOP_N"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TOP_N: %w", err)
		}
		c.Detection.TopN = n
	}
	if v := os.Getenv("TELEGRAM_POLLING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TELEGRAM_POLLING: %w", err)
		}
		c.Telegram.Polling = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Input.Path == "" {
		c.Input.Path = "btc-1h.csv"
	}
	if c.Input.CloseTimeColumn == "" {
		c.Input.CloseTimeColumn = "close_time"
	}
	if c.Input.ClosePriceColumn == "" {
		c.Input.ClosePriceColumn = "close"
	}
	if c.Input.SQLiteTable == "" {
		c.Input.SQLiteTable = "ohlc"
	}
	// NaN marks "not set" so an explicit 0 threshold survives.
	if math.IsNaN(c.Detection.PercentThreshold) {
		c.Detection.PercentThreshold = 5
	}
	if c.Detection.IntervalMillis == 0 {
		c.Detection.IntervalMillis = detector.DefaultIntervalMillis
	}
	if c.Detection.TopN == 0 {
		c.Detection.TopN = 20
	}
	if c.Output.Timezone == "" {
		c.Output.Timezone = "Local"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	t := c.Detection.PercentThreshold
	if math.IsNaN(t) || t < 0 || t > 100 {
		return fmt.Errorf("detection.percent_threshold must be within [0, 100], got %v", t)
	}
	if c.Detection.IntervalMillis <= 0 {
		return fmt.Errorf("detection.interval_ms must be positive")
	}
	if c.Detection.TopN <= 0 {
		return fmt.Errorf("detection.top_n must be positive")
	}
	if c.Input.CloseTimeColumn == c.Input.ClosePriceColumn {
		return fmt.Errorf("input.close_time_column and input.close_price_column must differ")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Schedule.ScanCron != "" {
		if _, err := cron.NewParser(CronFields).Parse(c.Schedule.ScanCron); err != nil {
			return fmt.Errorf("schedule.scan_cron: %w", err)
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Telegram.Polling && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.polling requires telegram.bot_token")
	}
	return nil
}

// CronFields is the cron syntax accepted by schedule.scan_cron: seconds first.
const CronFields = cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor

// Location resolves output.timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Output.Timezone)
	if err != nil {
		return nil, fmt.Errorf("output.timezone: %w", err)
	}
	return loc, nil
}

// TelegramEnabled reports whether scan reports should be delivered.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
