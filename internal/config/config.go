// Package config loads memory-album settings from the environment and
// sets up logging.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prefix of every environment variable, e.g. MEMORY_ALBUM_DB.
const Prefix = "MEMORY_ALBUM"

// Config holds the application settings.
type Config struct {
	// DBPath is the SQLite file; empty means ~/.memory-album/album.db.
	DBPath   string `envconfig:"DB" default:""`
	LogLevel string `envconfig:"LOG_LEVEL" default:"warn"`

	// Local time of day anniversary reminders fire at.
	ReminderHour   int `envconfig:"REMINDER_HOUR" default:"9"`
	ReminderMinute int `envconfig:"REMINDER_MINUTE" default:"0"`
	// Notifications disables reminder scheduling entirely when false.
	Notifications bool `envconfig:"NOTIFICATIONS" default:"true"`

	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"250ms"`
	BitrateKbps  int           `envconfig:"BITRATE_KBPS" default:"128"`
}

// New parses the environment, resolves defaults and applies the log
// level globally.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	SetLogLevel(cfg.Level())

	log.Debug().
		Str("db", cfg.DBPath).
		Int("reminder_hour", cfg.ReminderHour).
		Int("reminder_minute", cfg.ReminderMinute).
		Bool("notifications", cfg.Notifications).
		Dur("poll_interval", cfg.PollInterval).
		Int("bitrate_kbps", cfg.BitrateKbps).
		Msg("configuration loaded")
	return &cfg, nil
}

// ResolveDefaults fills derived values and validates ranges.
func (c *Config) ResolveDefaults() error {
	if c.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		c.DBPath = filepath.Join(home, ".memory-album", "album.db")
	}
	if c.ReminderHour < 0 || c.ReminderHour > 23 {
		return fmt.Errorf("REMINDER_HOUR out of range: %d", c.ReminderHour)
	}
	if c.ReminderMinute < 0 || c.ReminderMinute > 59 {
		return fmt.Errorf("REMINDER_MINUTE out of range: %d", c.ReminderMinute)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive: %s", c.PollInterval)
	}
	if c.BitrateKbps <= 0 {
		return fmt.Errorf("BITRATE_KBPS must be positive: %d", c.BitrateKbps)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.WarnLevel
	}
	return lvl
}
