// Package config loads runtime configuration from the environment,
// optionally seeded from a .env file in the working directory.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full runtime configuration for both the batch CLI and the
// HTTP server. The report window defaults mirror the desk's standard
// settlement run; delivery timestamps are interpreted in Timezone.
type Config struct {
	DatabaseURL   string        `envconfig:"DATABASE_URL" required:"true"`
	RedisURL      string        `envconfig:"REDIS_URL"`
	Port          int           `envconfig:"PORT" default:"8080"`
	ReportFrom    string        `envconfig:"REPORT_FROM" default:"2024-01-01"`
	ReportTo      string        `envconfig:"REPORT_TO" default:"2024-11-01"`
	Timezone      string        `envconfig:"REPORT_TZ" default:"Europe/Copenhagen"`
	ChannelBuffer int           `envconfig:"CHANNEL_BUFFER" default:"100"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"5m"`
}

// Load reads .env if present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional outside local development

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Window parses the configured report window as local midnights in the
// configured timezone.
func (c *Config) Window() (from, to time.Time, err error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	from, err = time.ParseInLocation("2006-01-02", c.ReportFrom, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("REPORT_FROM: %w", err)
	}
	to, err = time.ParseInLocation("2006-01-02", c.ReportTo, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("REPORT_TO: %w", err)
	}
	return from, to, nil
}
