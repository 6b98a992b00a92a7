package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Mail     MailConfig     `mapstructure:"mail"     validate:"required"`
	Reminder ReminderConfig `mapstructure:"reminder" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"  validate:"required,min=1,dive,required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL         string `mapstructure:"url"          validate:"required,url"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	BCryptCost           int    `mapstructure:"bcrypt_cost"            validate:"gte=4,lte=31"`
}

// MailConfig contains the settings for the outbound reminder email provider.
type MailConfig struct {
	SendGridAPIKey string `mapstructure:"sendgrid_api_key" validate:"required"`
	SenderEmail    string `mapstructure:"sender_email"     validate:"required,email"`
	SenderName     string `mapstructure:"sender_name"`
	AppURL         string `mapstructure:"app_url"          validate:"omitempty,url"`
}

// ReminderConfig controls the due-task scanner.
type ReminderConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	ScanInterval time.Duration `mapstructure:"scan_interval" validate:"gt=0"`
	WindowBefore time.Duration `mapstructure:"window_before" validate:"gte=0"`
	WindowAfter  time.Duration `mapstructure:"window_after"  validate:"gte=0"`
	Timezone     string        `mapstructure:"timezone"      validate:"required,timezone"`
	RunTimeout   time.Duration `mapstructure:"run_timeout"   validate:"gt=0"`
	MaxAttempts  int           `mapstructure:"max_attempts"  validate:"gt=0"`
}

// RedisConfig is optional. When URL is empty, scanner runs are only
// serialized within a single process.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}
