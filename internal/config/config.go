package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token         string `yaml:"token"`
	Mode          string `yaml:"mode"` // polling | webhook
	Workers       int    `yaml:"workers"`
	WebhookURL    string `yaml:"webhook_url"`
	WebhookSecret string `yaml:"webhook_secret"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // trace|debug|info|warn|error
	Format string `yaml:"format"` // json|console
	Dir    string `yaml:"dir"`    // rotating file streams live here; empty disables them
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type ThrottleConfig struct {
	TTL      time.Duration `yaml:"ttl"`
	Capacity uint64        `yaml:"capacity"`
}

type LocaleConfig struct {
	Supported []string `yaml:"supported"`
	Fallback  string   `yaml:"fallback"`
}

type WebConfig struct {
	Port int `yaml:"port"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Throttle ThrottleConfig `yaml:"throttle"`
	Locales  LocaleConfig   `yaml:"locales"`
	Web      WebConfig      `yaml:"web"`

	Runtime RuntimeConfig `yaml:"-"`
}

func Load(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	cfg.Bot.Mode = strings.ToLower(cfg.Bot.Mode)
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Throttle.TTL <= 0 {
		cfg.Throttle.TTL = 1500 * time.Millisecond
	}
	if cfg.Throttle.Capacity == 0 {
		cfg.Throttle.Capacity = 10_000
	}
	if len(cfg.Locales.Supported) == 0 {
		cfg.Locales.Supported = []string{"en", "ru"}
	}
	if cfg.Locales.Fallback == "" {
		cfg.Locales.Fallback = "en"
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Bot.Mode != "polling" && cfg.Bot.Mode != "webhook" {
		return nil, fmt.Errorf("bot.mode %q is not polling or webhook", cfg.Bot.Mode)
	}
	if cfg.Bot.Mode == "webhook" && cfg.Bot.WebhookURL == "" {
		return nil, errors.New("bot.webhook_url is required in webhook mode")
	}
	if !containsLocale(cfg.Locales.Supported, cfg.Locales.Fallback) {
		return nil, fmt.Errorf("locales.fallback %q is not in locales.supported", cfg.Locales.Fallback)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func containsLocale(supported []string, code string) bool {
	for _, s := range supported {
		if s == code {
			return true
		}
	}
	return false
}
