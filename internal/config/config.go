// Package config provides configuration loading, validation, and defaults
// for the bot. Values come from defaults, an optional YAML file, and
// BOT_-prefixed environment variables, in increasing priority.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines the application configuration for all components:
// logging, HTTP server, LINE channel credentials, Gemini integration,
// database, deduplication, scheduler, and user-facing messages.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Server    ServerConfig    `mapstructure:"server"`
	Line      LineConfig      `mapstructure:"line"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Dedup     DedupConfig     `mapstructure:"dedup"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log verbosity and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig controls the webhook HTTP server.
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
	// BaseURL is the externally reachable URL of this server, used to
	// build the poll results links embedded in reply messages.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

// LineConfig holds the LINE Messaging API channel credentials.
type LineConfig struct {
	ChannelSecret string `mapstructure:"channel_secret" validate:"required"`
	ChannelToken  string `mapstructure:"channel_token"  validate:"required"`
}

// GeminiConfig holds the Gemini API settings. Models is the fixed
// priority list of model candidates tried left to right.
type GeminiConfig struct {
	APIKey      string   `mapstructure:"api_key" validate:"required"`
	Models      []string `mapstructure:"models"  validate:"min=1,dive,required"`
	Temperature float32  `mapstructure:"temperature" validate:"min=0,max=2"`
	// MaxAttempts bounds the in-place retry loop for transient
	// service-unavailable responses on a single model.
	MaxAttempts int           `mapstructure:"max_attempts" validate:"min=1,max=10"`
	BackoffMin  time.Duration `mapstructure:"backoff_min"  validate:"min=0"`
	BackoffMax  time.Duration `mapstructure:"backoff_max"  validate:"min=0,gtefield=BackoffMin"`
}

// DatabaseConfig controls the SQLite database location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// DedupConfig controls the inbound event idempotency guard.
type DedupConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"min=1s"`
}

// TaskConfig enables and schedules one background task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// MessagesConfig holds the user-visible reply strings.
type MessagesConfig struct {
	ErrorGeneral     string `mapstructure:"error_general"     validate:"required"`
	ErrorRateLimited string `mapstructure:"error_rate_limited" validate:"required"`
	// NameUpdated is a format string receiving the new display name.
	NameUpdated string `mapstructure:"name_updated" validate:"required"`
	PollResults string `mapstructure:"poll_results" validate:"required"`
}

// LoadConfig reads configuration from the given YAML file (missing file is
// tolerated), applies BOT_* environment overrides, and validates the
// result. Returns the validated configuration or an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", true)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_url", "http://localhost:8080")

	// Empty defaults so environment-only values bind during Unmarshal.
	v.SetDefault("line.channel_secret", "")
	v.SetDefault("line.channel_token", "")
	v.SetDefault("gemini.api_key", "")

	v.SetDefault("gemini.models", []string{"gemini-2.0-flash", "gemini-2.0-flash-lite"})
	v.SetDefault("gemini.temperature", 0.3)
	v.SetDefault("gemini.max_attempts", 3)
	v.SetDefault("gemini.backoff_min", 2*time.Second)
	v.SetDefault("gemini.backoff_max", 5*time.Second)

	v.SetDefault("database.path", "storage.db")

	v.SetDefault("dedup.ttl", 10*time.Minute)

	v.SetDefault("scheduler.tasks", map[string]TaskConfig{
		"sql_maintenance": {Enabled: true, Schedule: "0 0 4 * * *"},
		"dedup_sweep":     {Enabled: true, Schedule: "0 * * * * *"},
	})

	v.SetDefault("messages.error_general", "Sorry, I could not translate that message. Please try again later.")
	v.SetDefault("messages.error_rate_limited", "The translation service is busy right now. Please try again in a few minutes.")
	v.SetDefault("messages.name_updated", "Got it! I'll call you %s from now on.")
	v.SetDefault("messages.poll_results", "Results")
}
