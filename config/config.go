// Package config loads application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Symbols to scan.
	Symbols []string `yaml:"symbols"`

	Oscillator struct {
		ShortL1  int `yaml:"short_l1"`
		ShortL2  int `yaml:"short_l2"`
		ShortL3  int `yaml:"short_l3"`
		LongL1   int `yaml:"long_l1"`
		LongL2   int `yaml:"long_l2"`
		T3Length int `yaml:"t3_length"`
	} `yaml:"oscillator"`

	Schedule struct {
		FineCron   string `yaml:"fine_cron"`
		CoarseCron string `yaml:"coarse_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`

	Data struct {
		// Directory holding pre-fetched "{symbol}_{resolution}.json" bar files.
		BarsDir string `yaml:"bars_dir"`
	} `yaml:"data"`

	Redis struct {
		Addr     string `yaml:"addr"` // empty disables Redis publishing and caching
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`

	Notify struct {
		TelegramToken  string `yaml:"telegram_token"` // empty disables Telegram alerts
		TelegramChatID string `yaml:"telegram_chat_id"`
		WebhookURL     string `yaml:"webhook_url"` // empty disables webhook alerts
	} `yaml:"notify"`

	MetricsAddr string `yaml:"metrics_addr"`
	GatewayAddr string `yaml:"gateway_addr"` // empty disables the WS gateway
}

// Load reads config from a YAML file, then applies environment variable
// overrides, then defaults. A missing file is not an error — env vars and
// defaults alone are a valid configuration.
func Load(path string) (*Config, error) {
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

	// Environment variable overrides
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Symbols = splitList(v)
	}
	if v := os.Getenv("BARS_DIR"); v != "" {
		cfg.Data.BarsDir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("GATEWAY_ADDR"); v != "" {
		cfg.GatewayAddr = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Notify.TelegramToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notify.TelegramChatID = v
	}
	if v := os.Getenv("NOTIFY_WEBHOOK_URL"); v != "" {
		cfg.Notify.WebhookURL = v
	}
	if v := os.Getenv("CRON_FINE"); v != "" {
		cfg.Schedule.FineCron = v
	}
	if v := os.Getenv("CRON_COARSE"); v != "" {
		cfg.Schedule.CoarseCron = v
	}

	// Defaults: reference oscillator parameters, weekly + monthly rescans.
	o := &cfg.Oscillator
	if o.ShortL1 == 0 {
		o.ShortL1 = 5
	}
	if o.ShortL2 == 0 {
		o.ShortL2 = 20
	}
	if o.ShortL3 == 0 {
		o.ShortL3 = 15
	}
	if o.LongL1 == 0 {
		o.LongL1 = 20
	}
	if o.LongL2 == 0 {
		o.LongL2 = 15
	}
	if o.T3Length == 0 {
		o.T3Length = 5
	}
	if cfg.Schedule.FineCron == "" {
		cfg.Schedule.FineCron = "0 0 8 * * 6" // Saturday morning, after the weekly close
	}
	if cfg.Schedule.CoarseCron == "" {
		cfg.Schedule.CoarseCron = "0 0 8 1 * *" // first of the month
	}
	if cfg.Data.BarsDir == "" {
		cfg.Data.BarsDir = "data/bars"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/bxscan.db"
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9090"
	}

	return cfg, nil
}

// Validate checks that the configuration can drive a scan.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols is required")
	}
	o := c.Oscillator
	for name, v := range map[string]int{
		"short_l1": o.ShortL1, "short_l2": o.ShortL2, "short_l3": o.ShortL3,
		"long_l1": o.LongL1, "long_l2": o.LongL2, "t3_length": o.T3Length,
	} {
		if v <= 0 {
			return fmt.Errorf("oscillator.%s must be positive, got %d", name, v)
		}
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
