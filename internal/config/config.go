package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Mode     string  `yaml:"mode"` // polling | webhook (future)
	Workers  int     `yaml:"workers"`
	AdminIDs []int64 `yaml:"admin_ids"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type WatchConfig struct {
	// Interval between sweeps over all tracked products.
	Interval time.Duration `yaml:"interval"`
	// FetchTimeout bounds a single page fetch.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	// ProductDelay is the pause between two products in one sweep.
	ProductDelay time.Duration `yaml:"product_delay"`
	// RatePerSecond / RateBurst pace outbound fetches globally.
	RatePerSecond float64 `yaml:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst"`
	// HistoryRetention prunes price history rows older than this.
	HistoryRetention time.Duration `yaml:"history_retention"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Watch    WatchConfig    `yaml:"watch"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 4
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 8081
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Watch.Interval <= 0 {
		cfg.Watch.Interval = time.Hour
	}
	if cfg.Watch.FetchTimeout <= 0 {
		cfg.Watch.FetchTimeout = 15 * time.Second
	}
	if cfg.Watch.ProductDelay <= 0 {
		cfg.Watch.ProductDelay = 300 * time.Millisecond
	}
	if cfg.Watch.RatePerSecond <= 0 {
		cfg.Watch.RatePerSecond = 1
	}
	if cfg.Watch.RateBurst <= 0 {
		cfg.Watch.RateBurst = 2
	}
	if cfg.Watch.HistoryRetention <= 0 {
		cfg.Watch.HistoryRetention = 90 * 24 * time.Hour
	}
	// A cached sample older than one sweep would hide price changes for
	// the rest of its TTL.
	if cfg.Redis.TTL > cfg.Watch.Interval {
		cfg.Redis.TTL = cfg.Watch.Interval
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Watch.Interval < 15*time.Second {
		return nil, fmt.Errorf("watch.interval too short (%v), minimum interval: 15s", cfg.Watch.Interval)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
