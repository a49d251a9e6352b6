package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application settings
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Quiz     QuizConfig     `mapstructure:"quiz"`
	Timezone string         `mapstructure:"timezone"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type TelegramConfig struct {
	Token             string  `mapstructure:"token"`
	MessagesPerSecond float64 `mapstructure:"messages_per_second"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // empty disables the rotating file
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the /metrics endpoint
}

type ReminderConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Hour    int  `mapstructure:"hour"`
}

type QuizConfig struct {
	DefaultCount int `mapstructure:"default_count"`
	HistoryLimit int `mapstructure:"history_limit"`
}

var envKeys = map[string]string{
	"database.driver":              "DB_DRIVER",
	"database.dsn":                 "DB_DSN",
	"telegram.token":               "TELEGRAM_BOT_TOKEN",
	"telegram.messages_per_second": "TELEGRAM_MESSAGES_PER_SECOND",
	"log.level":                    "LOG_LEVEL",
	"log.file":                     "LOG_FILE",
	"metrics.addr":                 "METRICS_ADDR",
	"reminder.enabled":             "REMINDER_ENABLED",
	"reminder.hour":                "REMINDER_HOUR",
	"quiz.default_count":           "QUIZ_DEFAULT_COUNT",
	"quiz.history_limit":           "HISTORY_LIMIT",
	"timezone":                     "TIMEZONE",
}

// Load reads an optional .env file and the process environment
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "data/vocabdash.db")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.messages_per_second", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/vocabdash.log")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.hour", 19)
	v.SetDefault("quiz.default_count", 10)
	v.SetDefault("quiz.history_limit", 100)
	v.SetDefault("timezone", "Local")

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %v", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is empty")
	}
	if c.Reminder.Hour < 0 || c.Reminder.Hour > 23 {
		return fmt.Errorf("REMINDER_HOUR must be between 0 and 23, got %d", c.Reminder.Hour)
	}
	if c.Quiz.DefaultCount <= 0 {
		return fmt.Errorf("QUIZ_DEFAULT_COUNT must be positive, got %d", c.Quiz.DefaultCount)
	}
	if c.Quiz.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.Quiz.HistoryLimit)
	}
	if c.Telegram.MessagesPerSecond <= 0 {
		return fmt.Errorf("TELEGRAM_MESSAGES_PER_SECOND must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the time zone used for calendar-day calculations
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %v", c.Timezone, err)
	}
	return loc, nil
}
